package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/rules"
)

func sampleSnapshot() *rules.Snapshot {
	s := rules.NewSnapshot()
	s.Rules["netflix"] = rules.Rule{
		Label:       models.LabelExclusive,
		Counts:      map[models.Label]int{models.LabelShared: 1, models.LabelExclusive: 2},
		LastUpdated: time.Date(2025, time.July, 3, 10, 0, 0, 0, time.UTC),
	}
	s.Decisions["Nubank|03/07/25|Netflix|55.9"] = models.LabelExclusive
	return s
}

func TestStores_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenSQLite(filepath.Join(dir, "regras.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stores := map[string]rules.Store{
		"file":   NewFileStore(filepath.Join(dir, "regras.json")),
		"sqlite": db,
	}
	for name, st := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := st.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty.Rules)

			require.NoError(t, st.Save(ctx, sampleSnapshot()))
			got, err := st.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleSnapshot(), got)

			// saving replaces rather than merges
			require.NoError(t, st.Save(ctx, rules.NewSnapshot()))
			got, err = st.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got.Rules)
			assert.Empty(t, got.Decisions)
		})
	}
}

func TestFileStore_LegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regras.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"uber": {"divisao": "Exclusiva", "score": 3}}`), 0o644))

	snap, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	r := snap.Rules["uber"]
	assert.Equal(t, models.LabelExclusive, r.Label)
	assert.Equal(t, 3, r.Counts[models.LabelExclusive])
	assert.Equal(t, 0, r.Counts[models.LabelShared])
}

func TestFileStore_Errors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regras.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)

	missingDir := NewFileStore(filepath.Join(dir, "nope", "regras.json"))
	assert.Error(t, missingDir.Save(context.Background(), rules.NewSnapshot()))
}

func TestEngineWithSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "regras.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	e := rules.NewEngine(rules.WithStore(db), rules.WithDebounce(0))
	require.NoError(t, e.Load(ctx))

	txn := &models.Transaction{ID: "t1", NormalizedDescription: "aluguel"}
	_, err = e.Confirm(txn, models.LabelExclusive)
	require.NoError(t, err)
	require.NoError(t, e.Flush(ctx))

	reloaded := rules.NewEngine(rules.WithStore(db))
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, models.LabelExclusive, reloaded.Suggest("aluguel").Label)
	l, ok := reloaded.Decision("t1")
	assert.True(t, ok)
	assert.Equal(t, models.LabelExclusive, l)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	st, closeFn, err := Open(DriverJSON, filepath.Join(dir, "regras.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)
	assert.NoError(t, closeFn())

	st, closeFn, err = Open(DriverSQLite, filepath.Join(dir, "regras.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	assert.NoError(t, closeFn())

	_, _, err = Open("postgres", "x")
	assert.Error(t, err)
}
