package parser

import (
	"regexp"
	"strings"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

// amazonSkip widens the header list with the section titles of the Amazon
// card statement.
var amazonSkip = regexp.MustCompile(`(?i)(lan[çc]amentos|nacionais em reais|em reais|internacionais|resumo|total|vencimento|fechamento|limite|cart[aã]o|fatura|cliente|n[ou]mero)`)

// TrailingValueStrategy reads Amazon card statements, where the value is the
// last token of the row and credits carry a trailing minus:
//
//	"03/07 AMAZON MARKETPLACE 129,90"
//	"08/07 ESTORNO AMAZON 59,90-"
type TrailingValueStrategy struct {
	b builder
}

func (s *TrailingValueStrategy) Name() string { return "trailing-value" }

func (s *TrailingValueStrategy) TryExtract(in Input) []models.Transaction {
	var out []models.Transaction
	for _, line := range in.Lines {
		if isMaskedCard(line) || amazonSkip.MatchString(line) || isSummary(line) {
			continue
		}
		date, rest, ok := datePrefix(line, in.Now)
		if !ok {
			continue
		}
		loc := valueAtEnd.FindStringIndex(rest)
		if loc == nil {
			continue
		}
		raw := strings.TrimSpace(rest[loc[0]:loc[1]])

		var x extras
		x.scan(rest)

		desc := cleanFor(in, stripExtras(rest[:loc[0]]))
		if desc == "" {
			continue
		}
		out = append(out, s.b.draft(in, s.Name(), date, desc, raw, x))
	}
	return out
}
