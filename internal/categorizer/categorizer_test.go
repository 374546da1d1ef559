package categorizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

func TestCategorize(t *testing.T) {
	c := New()

	tests := []struct {
		desc string
		want models.Category
	}{
		{"PAGAMENTO EFETUADO", models.CategoryPaymentCredit},
		{"Crédito de confiança", models.CategoryPaymentCredit},
		{"ESTORNO COMPRA", models.CategoryPaymentCredit},
		{"AMS TR DELIVERY LT", models.CategoryFood},
		{"IFOOD *RESTAURANTE", models.CategoryFood},
		{"Padaria Real", models.CategoryFood},
		{"UBER TRIP", models.CategoryTransport},
		{"POSTO SHELL", models.CategoryTransport},
		{"Drogaria São Paulo", models.CategoryHealth},
		{"WELLHUB GYMPASS", models.CategoryHealth},
		{"NETFLIX.COM", models.CategorySubscriptions},
		{"AMAZON MARKETPLACE", models.CategoryShopping},
		{"MERCADO LIVRE", models.CategoryShopping},
		{"MERCADO EXTRA", models.CategoryFood},
		{"IOF COMPRA EXTERIOR", models.CategoryFinancialFees},
		{"CINEMARK", models.CategoryLeisure},
		{"CURSO DE INGLES", models.CategoryEducation},
		{"CONDOMINIO EDIFICIO", models.CategoryHousing},
		{"Conta de Água", models.CategoryHousing},
		{"LOJA QUALQUER", models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.desc))
		})
	}
}

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		name       string
		desc       string
		value      string
		marker     bool
		wantCat    models.Category
		wantAmount string
		wantNotes  string
	}{
		{"expense stays positive", "NETFLIX.COM", "55.90", false, models.CategorySubscriptions, "55.9", ""},
		{"printed negative expense is a refund", "NETFLIX.COM", "-55.90", false, models.CategoryPaymentCredit, "-55.9", "Estorno"},
		{"trailing minus", "PAGAMENTO EFETUADO", "250", true, models.CategoryPaymentCredit, "-250", "Pagamento Fatura"},
		{"payment word without sign", "PAGAMENTO RECEBIDO OBRIGADO", "1000", false, models.CategoryPaymentCredit, "-1000", "Pagamento Fatura"},
		{"explicit refund", "ESTORNO LOJA X", "20", false, models.CategoryPaymentCredit, "-20", "Estorno"},
		{"credit without notes", "CREDITO ROTATIVO", "10", false, models.CategoryPaymentCredit, "-10", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.desc, decimal.RequireFromString(tt.value), tt.marker)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.Equal(t, tt.wantAmount, got.Amount.String())
			assert.Equal(t, tt.wantNotes, got.Notes)
		})
	}
}

func TestClassifyWithCategory(t *testing.T) {
	c := New()

	got := c.ClassifyWithCategory(models.CategoryLeisure, "LOJA", decimal.NewFromInt(30), false)
	assert.Equal(t, models.CategoryLeisure, got.Category)
	assert.Equal(t, "30", got.Amount.String())

	got = c.ClassifyWithCategory("", "UBER TRIP", decimal.NewFromInt(30), false)
	assert.Equal(t, models.CategoryTransport, got.Category)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categorias.yaml")
	body := `rules:
  - category: Casa
    keywords: [Leroy Merlin, "tok&stok"]
  - category: Lazer
    pattern: "ingresso\\.com"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c := New()
	require.NoError(t, c.LoadFile(path))

	assert.Equal(t, models.CategoryHousing, c.Categorize("LEROY MERLIN MORUMBI"))
	assert.Equal(t, models.CategoryHousing, c.Categorize("TOK&STOK"))
	assert.Equal(t, models.CategoryLeisure, c.Categorize("INGRESSO.COM"))
	assert.Equal(t, models.CategoryFood, c.Categorize("PADARIA"))
	assert.Len(t, c.Rules(), len(defaultRules)+2)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing category", "rules:\n  - pattern: x\n"},
		{"missing pattern", "rules:\n  - category: Casa\n"},
		{"bad regexp", "rules:\n  - category: Casa\n    pattern: \"(\"\n"},
		{"bad yaml", "rules: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
