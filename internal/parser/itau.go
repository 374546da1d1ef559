package parser

import (
	"regexp"
	"strings"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

// The Itaú layout prints purchases in two columns, so one reconstructed row
// often carries two transactions.
var (
	itauDual = regexp.MustCompile(
		`^(\d{2}/\d{2})\s+(.+?)\s+(\d{1,3}(?:\.\d{3})*,\d{2}-?)\s+` +
			`(\d{2}/\d{2})\s+(.+?)\s+(\d{1,3}(?:\.\d{3})*,\d{2}-?)$`,
	)
	itauSingle  = regexp.MustCompile(`^(\d{2}/\d{2})\s+(.+?)\s+(\d{1,3}(?:\.\d{3})*,\d{2}\s*-?)$`)
	anyDate     = regexp.MustCompile(`\d{2}/\d{2}`)
	preposition = regexp.MustCompile(`(?i)^(de|do|da|em|para)$`)
)

// itauSkip matches legends, limits, postal data and other non-transaction
// rows of the Itaú statement.
var itauSkip = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Limite`),
	regexp.MustCompile(`(?i)^Total`),
	regexp.MustCompile(`(?i)^Saldo`),
	regexp.MustCompile(`(?i)^Resumo`),
	regexp.MustCompile(`(?i)^Pagamentos`),
	regexp.MustCompile(`(?i)^Postagem:`),
	regexp.MustCompile(`(?i)^Vencimento:`),
	regexp.MustCompile(`(?i)^Emiss.o:`),
	regexp.MustCompile(`(?i)^Previs.o`),
	regexp.MustCompile(`(?i)fatura anterior`),
	regexp.MustCompile(`(?i)pr.ximo fechamento`),
	regexp.MustCompile(`(?i)fechamento:`),
	regexp.MustCompile(`(?i)efetuados`),
	regexp.MustCompile(`(?i)financiado`),
	regexp.MustCompile(`^R\$ \d+\.\d+,\d+ \d{2}/\d{2}/\d{4} R\$`),
	regexp.MustCompile(`(?i)^\d+/?\d* Previs.o`),
	regexp.MustCompile(`^[A-Z]\d{9}[A-Z]$`), // barcode-like ids, "A258040605B"
	regexp.MustCompile(`^\d{11,}`),
	regexp.MustCompile(`^[A-Z][A-Z\s]+final \d+`), // cardholder name
	regexp.MustCompile(`^\d{5}-\d{3}`),           // CEP
	regexp.MustCompile(`^R\$`),
	regexp.MustCompile(`^USD$`),
	regexp.MustCompile(`^\d{1,2},\d{2} USD$`),
	regexp.MustCompile(`(?i)d[óo]lar de convers[ãa]o`),
}

func skipItauLine(line string) bool {
	for _, re := range itauSkip {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// DualLineStrategy reads Itaú statements. Rows holding two transactions
// yield two drafts, each filtered on its own; rows with one transaction fall
// back to the single pattern.
//
//	"11/07 IFD*AMS TR DELIVERY LT 73,00 12/07 NETFLIX.COM 55,90"
type DualLineStrategy struct {
	b builder
}

func (s *DualLineStrategy) Name() string { return "itau-dual" }

func (s *DualLineStrategy) TryExtract(in Input) []models.Transaction {
	var out []models.Transaction
	for _, line := range in.Lines {
		if skipItauLine(line) || !anyDate.MatchString(line) {
			continue
		}

		if groups, ok := splitDual(line); ok {
			for _, g := range groups {
				if t, ok := s.half(in, g[0], g[1], g[2]); ok {
					out = append(out, t)
				}
			}
			continue
		}

		if m := itauSingle.FindStringSubmatch(line); m != nil {
			if t, ok := s.half(in, m[1], m[2], m[3]); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// splitDual returns the two "date description value" groups of a dual row.
func splitDual(line string) ([2][3]string, bool) {
	m := itauDual.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return [2][3]string{}, false
	}
	return [2][3]string{{m[1], m[2], m[3]}, {m[4], m[5], m[6]}}, true
}

func (s *DualLineStrategy) half(in Input, dateStr, estab, raw string) (models.Transaction, bool) {
	estab = strings.TrimSpace(estab)
	if len([]rune(estab)) < 3 || preposition.MatchString(estab) {
		return models.Transaction{}, false
	}
	date, _, ok := datePrefix(dateStr, in.Now)
	if !ok {
		return models.Transaction{}, false
	}

	desc := strings.ReplaceAll(cleanFor(in, estab), "*", "")
	desc = squash(desc)
	if !acceptable(desc) || isMaskedCard(estab) {
		return models.Transaction{}, false
	}
	return s.b.draft(in, s.Name(), date, desc, raw, extras{}), true
}
