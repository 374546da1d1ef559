package parser

import (
	"strings"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// windowSize is how many lines after a dated line may hold its value.
const windowSize = 3

// SingleLineStrategy reads one transaction per line:
//
//	"11/07 IFD*AMS TR DELIVERY LT 73,00"
//	"5 mar UBER *TRIP 12,90"
type SingleLineStrategy struct {
	b builder
}

func (s *SingleLineStrategy) Name() string { return "single-line" }

func (s *SingleLineStrategy) TryExtract(in Input) []models.Transaction {
	var out []models.Transaction
	for i, line := range in.Lines {
		t, ok := s.extractLine(in, line)
		if !ok || blockHeader(in.Lines, i, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// blockHeader reports a dated row made only of column labels whose foreign
// amount sits on the next line, as in a foreign-purchase block header.
func blockHeader(lines []string, i int, t models.Transaction) bool {
	if i+1 >= len(lines) || startsWithDate(lines[i+1]) || !foreignValue.MatchString(lines[i+1]) {
		return false
	}
	return labelOnly.MatchString(normalize.Fold(t.NormalizedDescription))
}

// extractLine parses a single dated line with a value anywhere in it.
func (s *SingleLineStrategy) extractLine(in Input, line string) (models.Transaction, bool) {
	date, rest, ok := datePrefix(line, in.Now)
	if !ok {
		return models.Transaction{}, false
	}
	raw, span, ok := localValue(rest)
	if !ok {
		return models.Transaction{}, false
	}

	var x extras
	x.scan(rest)

	desc := cleanFor(in, stripExtras(cut(rest, span)))
	if !acceptable(desc) {
		return models.Transaction{}, false
	}
	// Nubank prefixes descriptions with the masked card tail, which
	// cleaning has already removed.
	masked := isMaskedCard(line)
	if in.Issuer == models.IssuerNubank {
		masked = isMaskedCard(desc)
	}
	if masked {
		return models.Transaction{}, false
	}
	return s.b.draft(in, s.Name(), date, desc, raw, x), true
}

// WindowStrategy handles layouts where the value sits up to three lines
// below the dated line:
//
//	"11/07 MERCADO"
//	"PAO DE ACUCAR"
//	"45,80"
type WindowStrategy struct {
	b builder
}

func (s *WindowStrategy) Name() string { return "proximity-window" }

func (s *WindowStrategy) TryExtract(in Input) []models.Transaction {
	var out []models.Transaction
	lines := in.Lines

	for i, line := range lines {
		if isHeader(line) {
			continue
		}
		date, rest, ok := datePrefix(line, in.Now)
		if !ok {
			continue
		}

		found := -1
		var raw string
		var span [2]int
		for j := i; j <= i+windowSize && j < len(lines); j++ {
			candidate := lines[j]
			if j == i {
				candidate = rest
			} else if startsWithDate(candidate) {
				break // next transaction
			} else if isMaskedCard(candidate) {
				continue
			}
			if v, sp, ok := localValue(candidate); ok {
				found, raw, span = j, v, sp
				break
			}
		}
		if found < 0 {
			continue
		}

		var x extras
		var parts []string
		for k := i; k <= found; k++ {
			part := lines[k]
			if k == i {
				part = rest
			}
			x.scan(part)
			if isMaskedCard(part) {
				continue
			}
			if k == found {
				part = cut(part, span)
			}
			if part = stripExtras(part); part != "" {
				parts = append(parts, part)
			}
		}

		desc := cleanFor(in, strings.Join(parts, " "))
		if !acceptable(desc) {
			continue
		}
		t := s.b.draft(in, s.Name(), date, desc, raw, x)
		if blockHeader(lines, found, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
