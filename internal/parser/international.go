package parser

import (
	"regexp"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// labelOnly matches descriptions made only of column labels, left over when
// the layout splits a block header from its values.
var labelOnly = regexp.MustCompile(`^(?:(?:compras?|internacio\w*|nacio\w*|valor|total|usd|us|dolar|cotacao|cambio|conversao|iof|de|do|da|em|r)\s*)+$`)

// InternationalStrategy reads the Rico layout, where a foreign purchase
// spans a block of lines:
//
//	"10/07 OPENAI *CHATGPT SUBSCR 110,55"
//	"SAN FRANCISCO USD 20,00"
//	"Cotação do dólar: 5,5275"
//	"IOF 3,87"
//
// Dated lines outside such a block are read as single-line transactions.
type InternationalStrategy struct {
	b      builder
	single *SingleLineStrategy
}

func (s *InternationalStrategy) Name() string { return "international-block" }

func (s *InternationalStrategy) TryExtract(in Input) []models.Transaction {
	var out []models.Transaction
	lines := in.Lines

	for i := 0; i < len(lines); {
		t, ok := s.single.extractLine(in, lines[i])
		if !ok {
			i++
			continue
		}
		next := i + 1

		if t.AmountForeign == nil && next < len(lines) && !startsWithDate(lines[next]) {
			if m := foreignValue.FindStringSubmatch(lines[next]); m != nil {
				v := normalize.ParseValue(m[2])
				t.AmountForeign = &v
				t.Place = squash(foreignValue.ReplaceAllString(lines[next], " "))
				next++
			}
		}

		if t.AmountForeign != nil {
			if next < len(lines) && !startsWithDate(lines[next]) {
				if m := exchangeRate.FindStringSubmatch(lines[next]); m != nil {
					if t.ExchangeRate == "" {
						t.ExchangeRate = m[2]
					}
					next++
				}
			}
			if next < len(lines) && !startsWithDate(lines[next]) && iofLine.MatchString(lines[next]) {
				if raw, _, ok := localValue(lines[next]); ok {
					t.Fees = normalize.FormatValue(normalize.ParseValue(raw).Abs())
					next++
				}
			}
			if labelOnly.MatchString(normalize.Fold(t.NormalizedDescription)) {
				i = next
				continue
			}
			t.ParseMethod = s.Name()
		}

		out = append(out, t)
		i = next
	}
	return out
}
