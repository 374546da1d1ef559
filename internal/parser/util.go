package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/italogmoura/ControleGastosDomesticos/internal/categorizer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// Date prefixes found on Brazilian credit-card statements.
var (
	// DD/MM, DD/MM/YY or DD/MM/YYYY
	datePrefixSlash = regexp.MustCompile(`^(\d{2}/\d{2}(?:/\d{2,4})?)\b`)
	// "5 mar", "12 DEZ"
	datePrefixMonth = regexp.MustCompile(`(?i)^(\d{1,2}\s+(?:jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez))\b`)
)

// Monetary tokens. The minus sign must touch the digits or follow them.
var (
	valueAnywhere = regexp.MustCompile(`(?:R\$\s*)?\(?-?\d+(?:[.,]\d{3})*[.,]\d{2}\)?(?:\s*-)?`)
	valueAtEnd    = regexp.MustCompile(`(?:R\$\s*)?\(?-?\d+(?:[.,]\d{3})*[.,]\d{2}\)?(?:\s*-)?\s*$`)
	trailingMinus = regexp.MustCompile(`-\s*$`)

	foreignValue = regexp.MustCompile(`(?i)(US\$|USD)\s*(\d{1,3}(?:\.\d{3})*,\d{2})`)
	exchangeRate = regexp.MustCompile(`(?i)(cota[cç][aã]o(?:\s+do\s+d[oó]lar)?|c[aâ]mbio|d[oó]lar\s+de\s+convers[aã]o)\s*[:\-]?\s*(?:R\$\s*)?(\d{1,3}(?:\.\d{3})*,\d{2,4})`)
	installment  = regexp.MustCompile(`\b(\d{1,2})\s*/\s*(\d{1,2})\b`)
	iofLine      = regexp.MustCompile(`(?i)\biof\b`)
)

// Rejection rules shared by every strategy.
var (
	headerPattern  = regexp.MustCompile(`(?i)(resumo|lan[çc]amentos|nacionais em reais|vencimento|fechamento|limite|cart[aã]o|n[ou]mero|cliente|fatura)`)
	summaryPattern = regexp.MustCompile(`(total a pagar|valor total|total da fatura|saldo|resumo|pagamento minimo|minimo|encargos|juros|anuidade)`)
	maskRun        = regexp.MustCompile(`[*•]{2,}`)
	hasDigit       = regexp.MustCompile(`\d`)
	multiSpace     = regexp.MustCompile(`\s{2,}`)
)

// datePrefix returns the leading date token of a line and the remainder.
func datePrefix(line string, ref time.Time) (time.Time, string, bool) {
	if m := datePrefixSlash.FindString(line); m != "" {
		d, ok := normalize.ParseDate(m, ref)
		return d, strings.TrimSpace(line[len(m):]), ok
	}
	if m := datePrefixMonth.FindString(line); m != "" {
		d, ok := normalize.ParseDate(m, ref)
		return d, strings.TrimSpace(line[len(m):]), ok
	}
	return time.Time{}, "", false
}

func startsWithDate(line string) bool {
	return datePrefixSlash.MatchString(line) || datePrefixMonth.MatchString(line)
}

// isHeader reports legend or section header text.
func isHeader(s string) bool {
	return headerPattern.MatchString(s)
}

// isSummary reports totals, balances and finance-charge summaries.
func isSummary(s string) bool {
	n := normalize.Fold(normalize.NormalizeDescription(s))
	return summaryPattern.MatchString(n)
}

// isMaskedCard reports card-number fragments such as "5373.63**.****.8018".
func isMaskedCard(s string) bool {
	return maskRun.MatchString(s) && hasDigit.MatchString(s)
}

// localValue picks the statement amount in s: the last monetary token that
// is not part of a foreign-currency amount. It returns the token bounds.
func localValue(s string) (string, [2]int, bool) {
	foreign := foreignValue.FindAllStringIndex(s, -1)
	matches := valueAnywhere.FindAllStringIndex(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if overlapsAny(m, foreign) {
			continue
		}
		return s[m[0]:m[1]], [2]int{m[0], m[1]}, true
	}
	return "", [2]int{}, false
}

func overlapsAny(span []int, others [][]int) bool {
	for _, o := range others {
		if span[0] < o[1] && o[0] < span[1] {
			return true
		}
	}
	return false
}

// cut removes s[span[0]:span[1]].
func cut(s string, span [2]int) string {
	return s[:span[0]] + " " + s[span[1]:]
}

func squash(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// extras are the optional fields found near a transaction.
type extras struct {
	foreign *decimal.Decimal
	place   string
	rate    string
	fees    string
}

// scan collects a foreign amount and an exchange rate from s.
func (e *extras) scan(s string) {
	if m := foreignValue.FindStringSubmatch(s); m != nil && e.foreign == nil {
		v := normalize.ParseValue(m[2])
		e.foreign = &v
	}
	if m := exchangeRate.FindStringSubmatch(s); m != nil && e.rate == "" {
		e.rate = m[2]
	}
}

// stripExtras removes foreign amounts and exchange rates from a description.
func stripExtras(s string) string {
	s = foreignValue.ReplaceAllString(s, " ")
	s = exchangeRate.ReplaceAllString(s, " ")
	return squash(s)
}

// builder turns a located description and value into a draft.
type builder struct {
	cat *categorizer.Categorizer
}

func (b builder) draft(in Input, method string, date time.Time, desc, rawValue string, x extras) models.Transaction {
	value := normalize.ParseValue(rawValue)
	c := b.cat.Classify(desc, value, trailingMinus.MatchString(rawValue))

	t := models.Transaction{
		Issuer:                in.Issuer,
		Date:                  date,
		Description:           desc,
		NormalizedDescription: normalize.NormalizeDescription(desc),
		Place:                 x.place,
		Category:              c.Category,
		AmountLocal:           c.Amount,
		AmountForeign:         x.foreign,
		ExchangeRate:          x.rate,
		Fees:                  x.fees,
		Notes:                 c.Notes,
		ParseMethod:           method,
	}
	if m := installment.FindStringSubmatch(desc); m != nil {
		t.Installment = m[1] + "/" + m[2]
	}
	t.AssignID()
	return t
}

// cleanFor applies issuer-specific display cleaning.
func cleanFor(in Input, desc string) string {
	return normalize.CleanDescription(squash(desc), in.Issuer == models.IssuerNubank)
}

// acceptable applies the common description filters.
func acceptable(desc string) bool {
	return desc != "" && !isHeader(desc) && !isSummary(desc)
}

// dedupe keeps the first draft for each ID.
func dedupe(txns []models.Transaction) []models.Transaction {
	seen := make(map[string]bool, len(txns))
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
