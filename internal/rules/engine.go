package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// DefaultDebounce is the delay between the last change and an autosave.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoDescription is returned when a transaction has nothing to key a rule on.
var ErrNoDescription = errors.New("transaction has no description")

// Status reports the persistence state of the engine.
type Status struct {
	Pending   bool      `json:"pending"`
	LastSaved time.Time `json:"lastSaved,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Engine owns the rule and decision maps. Its methods are safe for concurrent
// use; the autosave timer runs on its own goroutine.
type Engine struct {
	mu        sync.Mutex
	rules     map[string]*Rule
	decisions map[string]models.Label

	store    Store
	debounce time.Duration
	now      func() time.Time
	log      zerolog.Logger

	saveMu    sync.Mutex // serializes store writes
	timer     *time.Timer
	closed    bool
	dirty     bool
	lastSaved time.Time
	lastErr   error
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore enables persistence. Without a store the engine is memory-only.
func WithStore(s Store) Option { return func(e *Engine) { e.store = s } }

// WithDebounce sets the autosave delay. Zero or negative saves only on Flush.
func WithDebounce(d time.Duration) Option { return func(e *Engine) { e.debounce = d } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLogger sets the logger used for persistence failures.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// NewEngine returns an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:     map[string]*Rule{},
		decisions: map[string]models.Label{},
		debounce:  DefaultDebounce,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Load replaces the in-memory state with the store's snapshot.
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	snap, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = map[string]*Rule{}
	e.decisions = map[string]models.Label{}
	e.apply(snap)
	e.dirty = false
	return nil
}

// apply merges a snapshot into the state. Caller holds mu.
func (e *Engine) apply(snap *Snapshot) {
	for key, r := range snap.Rules {
		c := r.clone()
		e.rules[key] = &c
	}
	for id, l := range snap.Decisions {
		e.decisions[id] = l
	}
}

// Suggest returns the learned label for a normalized description, or the
// default label, always tagged as suggested.
func (e *Engine) Suggest(normalized string) models.SplitLabel {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.rules[normalized]; ok {
		return models.Suggested(r.Label)
	}
	return models.Suggested(models.DefaultLabel)
}

// Rule returns a copy of the rule for a normalized description.
func (e *Engine) Rule(normalized string) (Rule, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rules[normalized]
	if !ok {
		return Rule{}, false
	}
	return r.clone(), true
}

// Decision returns the last label confirmed for a transaction id.
func (e *Engine) Decision(id string) (models.Label, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.decisions[id]
	return l, ok
}

// Len returns the number of rules.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rules)
}

// Confirm records the user's label for a transaction. A previous confirmation
// of the same transaction is withdrawn from the vote before the new one is
// counted, so repeating a confirmation never changes the counts. The
// transaction's split is set to the confirmed label.
func (e *Engine) Confirm(t *models.Transaction, label models.Label) (Rule, error) {
	if _, err := models.ParseLabel(string(label)); err != nil {
		return Rule{}, err
	}
	key := t.NormalizedDescription
	if key == "" {
		key = normalize.NormalizeDescription(t.Description)
	}
	if key == "" {
		return Rule{}, ErrNoDescription
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prior, hadPrior := e.decisions[t.ID]
	if !hadPrior && t.Split.IsConfirmed() {
		prior, hadPrior = t.Split.Label, true
	}

	r, exists := e.rules[key]
	if exists && hadPrior && prior == label {
		t.Split = models.Confirmed(label)
		e.decisions[t.ID] = label
		return r.clone(), nil
	}
	if !exists {
		r = newRule()
		e.rules[key] = r
	}

	if hadPrior && prior != label && r.Counts[prior] > 0 {
		r.Counts[prior]--
	}
	r.Counts[label]++
	for _, l := range models.Labels {
		if _, ok := r.Counts[l]; !ok {
			r.Counts[l] = 0
		}
	}
	r.resolve(label)
	r.LastUpdated = e.now()

	e.decisions[t.ID] = label
	t.Split = models.Confirmed(label)
	e.scheduleLocked()
	return r.clone(), nil
}

// Reset drops every rule and decision.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = map[string]*Rule{}
	e.decisions = map[string]models.Label{}
	e.scheduleLocked()
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *Snapshot {
	s := NewSnapshot()
	for k, r := range e.rules {
		s.Rules[k] = r.clone()
	}
	for id, l := range e.decisions {
		s.Decisions[id] = l
	}
	return s
}

// Export renders the state as a rules document.
func (e *Engine) Export() ([]byte, error) {
	return Encode(e.Snapshot(), e.now())
}

// Import merges a rules document into the state. Imported entries replace
// local rules with the same key; other local rules are kept.
func (e *Engine) Import(data []byte) (DecodeReport, error) {
	snap, report, err := Decode(data, e.now())
	if err != nil {
		return report, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(snap)
	e.scheduleLocked()
	return report, nil
}

// Status reports whether changes are waiting to be saved and the outcome of
// the last save.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{Pending: e.dirty, LastSaved: e.lastSaved}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// scheduleLocked marks the state dirty and restarts the autosave timer.
// Caller holds mu.
func (e *Engine) scheduleLocked() {
	if e.store == nil {
		return
	}
	e.dirty = true
	if e.debounce <= 0 {
		return
	}
	if e.timer == nil {
		e.timer = time.AfterFunc(e.debounce, e.autosave)
		return
	}
	e.timer.Reset(e.debounce)
}

// autosave runs on the timer goroutine. A failed save re-arms the timer so
// the write is retried on the next debounce cycle.
func (e *Engine) autosave() {
	if err := e.Flush(context.Background()); err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed && e.dirty && e.timer != nil {
		e.timer.Reset(e.debounce)
	}
}

// Flush writes pending changes to the store now. A failed write leaves the
// changes pending and is retried by the next save; in-memory state is never
// rolled back.
func (e *Engine) Flush(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if !e.dirty {
		e.mu.Unlock()
		return nil
	}
	snap := e.snapshotLocked()
	e.dirty = false
	e.mu.Unlock()

	err := e.store.Save(ctx, snap)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.dirty = true
		e.lastErr = err
		e.log.Warn().Err(err).Int("rules", len(snap.Rules)).Msg("Failed to save rules")
		return fmt.Errorf("save rules: %w", err)
	}
	e.lastErr = nil
	e.lastSaved = e.now()
	e.log.Debug().Int("rules", len(snap.Rules)).Msg("Rules saved")
	return nil
}

// Close stops the autosave timer and flushes pending changes.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()
	return e.Flush(ctx)
}
