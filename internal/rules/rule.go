// Package rules learns how recurring charges are split from user
// confirmations and suggests labels for new ones.
package rules

import (
	"context"
	"time"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

// Rule is the learned state for one normalized description.
type Rule struct {
	Label       models.Label         `json:"label"`
	Counts      map[models.Label]int `json:"counts"`
	LastUpdated time.Time            `json:"lastUpdated"`
}

func newRule() *Rule {
	return &Rule{Counts: make(map[models.Label]int, len(models.Labels))}
}

func (r *Rule) clone() Rule {
	c := Rule{Label: r.Label, LastUpdated: r.LastUpdated, Counts: make(map[models.Label]int, len(r.Counts))}
	for k, v := range r.Counts {
		c.Counts[k] = v
	}
	return c
}

// resolve picks the label with the most votes. On a tie the preferred label
// wins.
func (r *Rule) resolve(preferred models.Label) {
	best, bestVotes := preferred, r.Counts[preferred]
	for _, l := range models.Labels {
		if n := r.Counts[l]; n > bestVotes {
			best, bestVotes = l, n
		}
	}
	r.Label = best
}

// Snapshot is the persisted learning state.
type Snapshot struct {
	Rules     map[string]Rule
	Decisions map[string]models.Label // transaction id -> last confirmed label
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Rules: map[string]Rule{}, Decisions: map[string]models.Label{}}
}

// Store persists snapshots. Load on an empty store returns an empty snapshot.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}
