package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/rules"
)

const schema = `
CREATE TABLE IF NOT EXISTS split_rules (
	description  TEXT PRIMARY KEY,
	label        TEXT NOT NULL,
	shared       INTEGER NOT NULL DEFAULT 0,
	exclusive    INTEGER NOT NULL DEFAULT 0,
	last_updated TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS split_decisions (
	transaction_id TEXT PRIMARY KEY,
	label          TEXT NOT NULL
);`

// SQLiteStore keeps rules in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database and ensures the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load reads every rule and decision. Rows with an unknown label are skipped.
func (s *SQLiteStore) Load(ctx context.Context) (*rules.Snapshot, error) {
	snap := rules.NewSnapshot()

	rows, err := s.db.QueryContext(ctx, `
		SELECT description, label, shared, exclusive, last_updated
		FROM split_rules`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var desc, label, updated string
		var shared, exclusive int
		if err := rows.Scan(&desc, &label, &shared, &exclusive, &updated); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		l, err := models.ParseLabel(label)
		if err != nil {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, updated)
		snap.Rules[desc] = rules.Rule{
			Label: l,
			Counts: map[models.Label]int{
				models.LabelShared:    max(shared, 0),
				models.LabelExclusive: max(exclusive, 0),
			},
			LastUpdated: ts,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}

	drows, err := s.db.QueryContext(ctx, `SELECT transaction_id, label FROM split_decisions`)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer drows.Close()

	for drows.Next() {
		var id, label string
		if err := drows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if l, err := models.ParseLabel(label); err == nil {
			snap.Decisions[id] = l
		}
	}
	return snap, drows.Err()
}

// Save replaces the stored state with the snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *rules.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM split_rules`); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM split_decisions`); err != nil {
		return fmt.Errorf("clear decisions: %w", err)
	}

	for desc, r := range snap.Rules {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO split_rules (description, label, shared, exclusive, last_updated)
			VALUES (?, ?, ?, ?, ?)`,
			desc, string(r.Label), r.Counts[models.LabelShared], r.Counts[models.LabelExclusive],
			r.LastUpdated.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert rule %q: %w", desc, err)
		}
	}
	for id, l := range snap.Decisions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO split_decisions (transaction_id, label) VALUES (?, ?)`, id, string(l)); err != nil {
			return fmt.Errorf("insert decision %q: %w", id, err)
		}
	}
	return tx.Commit()
}
