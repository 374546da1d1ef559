// Package ledger holds the canonical, deduplicated transaction collection.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
	"github.com/italogmoura/ControleGastosDomesticos/internal/rules"
)

// ErrNotFound is returned for unknown transaction ids.
var ErrNotFound = errors.New("not found")

// Learner suggests split labels, records confirmations and remembers the
// label confirmed for each transaction id.
type Learner interface {
	Suggest(normalized string) models.SplitLabel
	Confirm(t *models.Transaction, label models.Label) (rules.Rule, error)
	Decision(id string) (models.Label, bool)
}

// MergeResult counts what a merge did.
type MergeResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// Collection is an insertion-ordered set of transactions keyed by id.
type Collection struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*models.Transaction
}

func NewCollection() *Collection {
	return &Collection{byID: map[string]*models.Transaction{}}
}

// Len returns the number of transactions.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// All returns a copy of every transaction in insertion order.
func (c *Collection) All() []models.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Transaction, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

// Get returns a copy of one transaction.
func (c *Collection) Get(id string) (models.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	if !ok {
		return models.Transaction{}, false
	}
	return *t, true
}

// Merge folds drafts into the collection. A draft whose id already exists
// replaces the stored record but keeps a confirmed split label. A draft with
// a recorded decision comes back confirmed, so labels survive a restart;
// everything else gets a fresh suggestion. Later drafts win on id collision.
func (c *Collection) Merge(drafts []models.Transaction, l Learner) MergeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res MergeResult
	for _, d := range drafts {
		if d.NormalizedDescription == "" {
			d.NormalizedDescription = normalize.NormalizeDescription(d.Description)
		}
		if d.ID == "" {
			d.AssignID()
		}

		existing, ok := c.byID[d.ID]
		switch {
		case ok && existing.Split.IsConfirmed():
			d.Split = existing.Split
		case d.Split.IsConfirmed():
		default:
			d.Split = splitFor(&d, l)
		}

		t := d
		if ok {
			c.byID[d.ID] = &t
			res.Updated++
			continue
		}
		c.byID[d.ID] = &t
		c.order = append(c.order, d.ID)
		res.Added++
	}
	return res
}

// RefreshSuggestions re-derives the label of every unconfirmed record,
// typically after rules or decisions were imported.
func (c *Collection) RefreshSuggestions(l Learner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.byID {
		if !t.Split.IsConfirmed() {
			t.Split = splitFor(t, l)
		}
	}
}

func splitFor(t *models.Transaction, l Learner) models.SplitLabel {
	if label, ok := l.Decision(t.ID); ok {
		return models.Confirmed(label)
	}
	return l.Suggest(t.NormalizedDescription)
}

// Confirm records the user's label for one transaction, then refreshes the
// suggestions of the records sharing its description.
func (c *Collection) Confirm(id string, label models.Label, l Learner) (models.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.byID[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %q: %w", id, ErrNotFound)
	}
	if _, err := l.Confirm(t, label); err != nil {
		return models.Transaction{}, err
	}
	for _, other := range c.byID {
		if other.NormalizedDescription == t.NormalizedDescription && !other.Split.IsConfirmed() {
			other.Split = l.Suggest(other.NormalizedDescription)
		}
	}
	return *t, nil
}

// Reset empties the collection.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.byID = map[string]*models.Transaction{}
}
