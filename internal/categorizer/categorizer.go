// Package categorizer assigns spending categories to statement descriptions
// and resolves the sign of payment and refund records.
package categorizer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// Rule maps a description pattern to a category. Patterns are matched against
// the lowercased, diacritic-free description.
type Rule struct {
	Pattern  *regexp.Regexp
	Category models.Category
}

// defaultRules is checked top to bottom; the first match wins.
var defaultRules = []Rule{
	{regexp.MustCompile(`\b(pagamento|pagamentos|pagto|credito|creditos|estorno|estornos|chargeback)\b`), models.CategoryPaymentCredit},
	{regexp.MustCompile(`mercado\s*livre`), models.CategoryShopping},
	{regexp.MustCompile(`ifood|raia|drogasil|burger|mcdonald|padaria|supermercado|mercado|pizza|lanche|restaurante|delivery`), models.CategoryFood},
	{regexp.MustCompile(`uber|99pop|99\s*taxis|combustivel|posto|estacionamento|pedagio`), models.CategoryTransport},
	{regexp.MustCompile(`farmacia|drogaria|clinica|plano de saude|wellhub|gympass|academia`), models.CategoryHealth},
	{regexp.MustCompile(`netflix|spotify|prime|disney|hbo|assinatura|subscription|plan`), models.CategorySubscriptions},
	{regexp.MustCompile(`amazon|magalu|aliexpress|shein|store|marketplace`), models.CategoryShopping},
	{regexp.MustCompile(`\b(iof|juros|multa|anuidade|tarifa)\b`), models.CategoryFinancialFees},
	{regexp.MustCompile(`cinema|evento|hotel|viagem|passagem`), models.CategoryLeisure},
	{regexp.MustCompile(`curso|livro|escola|faculdade`), models.CategoryEducation},
	{regexp.MustCompile(`energia|\bluz\b|\bagua\b|internet|manutencao|condominio|aluguel|decoracao`), models.CategoryHousing},
}

var (
	paymentWords = regexp.MustCompile(`(?i)pagamento|pagamentos|pagto|obrigado`)
	refundWords  = regexp.MustCompile(`(?i)estorno|chargeback`)
)

// Categorizer holds an ordered rule table. It is safe for concurrent reads
// once built.
type Categorizer struct {
	rules []Rule
}

// New returns a categorizer with the built-in rule table.
func New() *Categorizer {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return &Categorizer{rules: rules}
}

// Rules returns a copy of the active table in match order.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Prepend puts extra rules ahead of the current table.
func (c *Categorizer) Prepend(rules ...Rule) {
	c.rules = append(append([]Rule{}, rules...), c.rules...)
}

// Categorize returns the first matching category, or Outros.
func (c *Categorizer) Categorize(description string) models.Category {
	folded := normalize.Fold(description)
	for _, r := range c.rules {
		if r.Pattern.MatchString(folded) {
			return r.Category
		}
	}
	return models.CategoryOther
}

// Classification is the outcome of resolving a printed value against its
// description.
type Classification struct {
	Category models.Category
	Amount   decimal.Decimal
	Notes    string
}

// Classify couples category and sign. A payment/credit category, a negative
// value or an explicit negative marker (such as a trailing minus) all yield
// Pagamento/Crédito with a negative amount; anything else is a positive
// expense. The magnitude always equals the printed value.
func (c *Categorizer) Classify(description string, value decimal.Decimal, negativeMarker bool) Classification {
	return c.classify(c.Categorize(description), description, value, negativeMarker)
}

// ClassifyWithCategory is Classify for records that already carry a category,
// such as structured JSON statements. An empty hint falls back to the table.
func (c *Categorizer) ClassifyWithCategory(hint models.Category, description string, value decimal.Decimal, negativeMarker bool) Classification {
	cat := hint
	if cat == "" {
		cat = c.Categorize(description)
	}
	return c.classify(cat, description, value, negativeMarker)
}

func (c *Categorizer) classify(cat models.Category, description string, value decimal.Decimal, negativeMarker bool) Classification {
	negative := negativeMarker || value.IsNegative()
	if cat != models.CategoryPaymentCredit && !negative {
		return Classification{Category: cat, Amount: value.Abs()}
	}

	out := Classification{Category: models.CategoryPaymentCredit, Amount: value.Abs().Neg()}
	switch {
	case paymentWords.MatchString(description):
		out.Notes = "Pagamento Fatura"
	case refundWords.MatchString(description) || negative:
		out.Notes = "Estorno"
	}
	return out
}

// fileRule is one entry of a YAML rules file. Either Pattern (a regular
// expression) or Keywords (plain substrings) must be set.
type fileRule struct {
	Category string   `yaml:"category"`
	Pattern  string   `yaml:"pattern"`
	Keywords []string `yaml:"keywords"`
}

type rulesFile struct {
	Rules []fileRule `yaml:"rules"`
}

// LoadFile reads extra rules from a YAML file and puts them ahead of the
// built-in table, preserving file order.
func (c *Categorizer) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read category rules: %w", err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}
	c.Prepend(rules...)
	return nil
}

// ParseRules decodes YAML rule definitions.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, fr := range f.Rules {
		if strings.TrimSpace(fr.Category) == "" {
			return nil, fmt.Errorf("rule %d: category is required", i+1)
		}
		expr := fr.Pattern
		if expr == "" {
			quoted := make([]string, 0, len(fr.Keywords))
			for _, kw := range fr.Keywords {
				if kw = normalize.Fold(strings.TrimSpace(kw)); kw != "" {
					quoted = append(quoted, regexp.QuoteMeta(kw))
				}
			}
			expr = strings.Join(quoted, "|")
		}
		if expr == "" {
			return nil, fmt.Errorf("rule %d (%s): pattern or keywords required", i+1, fr.Category)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, fr.Category, err)
		}
		rules = append(rules, Rule{Pattern: re, Category: models.Category(fr.Category)})
	}
	return rules, nil
}
