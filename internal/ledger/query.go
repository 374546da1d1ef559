package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// DefaultRatio is the share of shared expenses borne by the first party.
const DefaultRatio = 0.6

// Query filters and orders a listing. Zero fields do not filter.
type Query struct {
	Issuer   models.Issuer
	Text     string // case- and accent-insensitive substring of the description
	Category models.Category
	Label    models.Label
	From     time.Time
	To       time.Time // inclusive
	SortBy   string    // date (default), description, category, amount, issuer
	Desc     bool
}

// Query returns the matching transactions. Ties keep insertion order.
func (c *Collection) Query(q Query) []models.Transaction {
	all := c.All()
	text := normalize.Fold(strings.TrimSpace(q.Text))

	out := all[:0]
	for _, t := range all {
		switch {
		case q.Issuer != "" && t.Issuer != q.Issuer:
		case text != "" && !strings.Contains(normalize.Fold(t.Description), text):
		case q.Category != "" && t.Category != q.Category:
		case q.Label != "" && t.Split.Label != q.Label:
		case !q.From.IsZero() && t.Date.Before(q.From):
		case !q.To.IsZero() && t.Date.After(q.To):
		default:
			out = append(out, t)
		}
	}

	less := lessFunc(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(key string) func(a, b models.Transaction) bool {
	switch key {
	case "description":
		return func(a, b models.Transaction) bool { return normalize.Fold(a.Description) < normalize.Fold(b.Description) }
	case "category":
		return func(a, b models.Transaction) bool { return a.Category < b.Category }
	case "amount":
		return func(a, b models.Transaction) bool { return a.AmountLocal.LessThan(b.AmountLocal) }
	case "issuer":
		return func(a, b models.Transaction) bool { return a.Issuer < b.Issuer }
	default:
		return func(a, b models.Transaction) bool { return a.Date.Before(b.Date) }
	}
}

// Summary totals expenses by split label. Payments and credits are excluded.
type Summary struct {
	Count     int             `json:"count"`
	Shared    decimal.Decimal `json:"geral"`
	Exclusive decimal.Decimal `json:"exclusivas"`
	Ratio     float64         `json:"ratio"`
	// First is exclusive expenses plus the first party's share of shared ones.
	First decimal.Decimal `json:"usuario"`
	// Second is the remaining share of shared expenses.
	Second decimal.Decimal `json:"esposa"`
}

// Summarize computes the split totals for ratio (the first party's share).
func Summarize(txns []models.Transaction, ratio float64) Summary {
	s := Summary{Ratio: ratio}
	for _, t := range txns {
		if t.IsPaymentOrCredit() {
			continue
		}
		s.Count++
		if t.Split.Label == models.LabelExclusive {
			s.Exclusive = s.Exclusive.Add(t.AmountLocal)
		} else {
			s.Shared = s.Shared.Add(t.AmountLocal)
		}
	}
	r := decimal.NewFromFloat(ratio)
	s.First = s.Exclusive.Add(s.Shared.Mul(r)).Round(2)
	s.Second = s.Shared.Mul(decimal.NewFromInt(1).Sub(r)).Round(2)
	return s
}
