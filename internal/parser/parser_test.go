package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italogmoura/ControleGastosDomesticos/internal/categorizer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

var refDate = time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

func newTestParser() *Parser {
	return New(categorizer.New())
}

func parse(issuer models.Issuer, lines ...string) []models.Transaction {
	return newTestParser().Parse(Input{Lines: lines, Issuer: issuer, Now: refDate})
}

func TestParse_ItauDeliveryLine(t *testing.T) {
	txns := parse(models.IssuerItau, "11/07 IFD*AMS TR DELIVERY LT 73,00")
	require.Len(t, txns, 1)

	txn := txns[0]
	assert.Equal(t, "AMS TR DELIVERY LT", txn.Description)
	assert.Equal(t, models.CategoryFood, txn.Category)
	assert.Equal(t, "73", txn.AmountLocal.String())
	assert.Equal(t, "11/07/25", txn.DisplayDate())
	assert.Equal(t, "Itaú|11/07/25|AMS TR DELIVERY LT|73", txn.ID)
	assert.Equal(t, "ams tr delivery lt", txn.NormalizedDescription)
	assert.Equal(t, "itau-dual", txn.ParseMethod)
}

func TestParse_TrailingMinusPayment(t *testing.T) {
	for _, issuer := range []models.Issuer{models.IssuerUnknown, models.IssuerItau, models.IssuerAmazon, models.IssuerNubank} {
		t.Run(string(issuer), func(t *testing.T) {
			txns := parse(issuer, "15/07 PAGAMENTO EFETUADO 250,00-")
			require.Len(t, txns, 1)
			assert.Equal(t, "-250", txns[0].AmountLocal.String())
			assert.Equal(t, models.CategoryPaymentCredit, txns[0].Category)
			assert.Equal(t, "Pagamento Fatura", txns[0].Notes)
		})
	}
}

func TestDualLineStrategy(t *testing.T) {
	line := "11/07 IFD*AMS TR DELIVERY LT 73,00 12/07 NETFLIX.COM 55,90"

	groups, ok := splitDual(line)
	require.True(t, ok)
	assert.Equal(t, [3]string{"11/07", "IFD*AMS TR DELIVERY LT", "73,00"}, groups[0])
	assert.Equal(t, [3]string{"12/07", "NETFLIX.COM", "55,90"}, groups[1])

	txns := parse(models.IssuerItau, line)
	require.Len(t, txns, 2)
	assert.Equal(t, "AMS TR DELIVERY LT", txns[0].Description)
	assert.Equal(t, "73", txns[0].AmountLocal.String())
	assert.Equal(t, "NETFLIX.COM", txns[1].Description)
	assert.Equal(t, "55.9", txns[1].AmountLocal.String())
	assert.Equal(t, models.CategorySubscriptions, txns[1].Category)
	assert.Equal(t, "12/07/25", txns[1].DisplayDate())
}

func TestDualLineStrategy_HalvesFilteredIndependently(t *testing.T) {
	txns := parse(models.IssuerItau, "11/07 DE 10,00 12/07 SPOTIFY 21,90")
	require.Len(t, txns, 1)
	assert.Equal(t, "SPOTIFY", txns[0].Description)
}

func TestDualLineStrategy_SkipsLegend(t *testing.T) {
	lines := []string{
		"Total da fatura anterior 1.234,56",
		"Limite total de crédito 10.000,00",
		"Vencimento: 20/08/2025",
		"Dólar de Conversão 5,45",
		"04538-132 SAO PAULO",
		"20/07 UBER* TRIP 18,40",
	}
	txns := parse(models.IssuerItau, lines...)
	require.Len(t, txns, 1)
	assert.Equal(t, "UBER TRIP", txns[0].Description)
	assert.Equal(t, models.CategoryTransport, txns[0].Category)
}

func TestSingleLineStrategy(t *testing.T) {
	tests := []struct {
		name       string
		issuer     models.Issuer
		line       string
		wantDesc   string
		wantAmount string
		wantCat    models.Category
	}{
		{"slash date", models.IssuerUnknown, "05/03 PADARIA REAL 12,50", "PADARIA REAL", "12.5", models.CategoryFood},
		{"full year", models.IssuerUnknown, "05/03/2024 POSTO SHELL R$ 200,00", "POSTO SHELL", "200", models.CategoryTransport},
		{"month name", models.IssuerUnknown, "5 mar UBER *TRIP 12,90", "UBER TRIP", "12.9", models.CategoryTransport},
		{"nubank masked card", models.IssuerNubank, "10/07 •••• 9095 Mercado Livre 89,90", "Mercado Livre", "89.9", models.CategoryShopping},
		{"thousands", models.IssuerUnknown, "01/07 HOTEL IBIS 1.234,56", "HOTEL IBIS", "1234.56", models.CategoryLeisure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns := parse(tt.issuer, tt.line)
			require.Len(t, txns, 1)
			assert.Equal(t, tt.wantDesc, txns[0].Description)
			assert.Equal(t, tt.wantAmount, txns[0].AmountLocal.String())
			assert.Equal(t, tt.wantCat, txns[0].Category)
		})
	}
}

func TestSingleLineStrategy_Rejects(t *testing.T) {
	lines := []string{
		"Resumo da fatura",
		"10/07 Total a pagar 1.500,00",
		"10/07 Saldo anterior 300,00",
		"12/07 5373.63**.****.8018 10,00",
		"Vencimento 20/08",
		"sem data 10,00",
		"10/07 sem valor",
	}
	assert.Empty(t, parse(models.IssuerUnknown, lines...))
}

func TestSingleLineStrategy_Extras(t *testing.T) {
	txns := parse(models.IssuerUnknown,
		"10/07 LOJA X PARC 02/10 100,00",
		"11/07 APPLE.COM USD 10,00 55,00",
		"12/07 FARMACIA PAGUE MENOS 30,00",
	)
	require.Len(t, txns, 3)

	assert.Equal(t, "02/10", txns[0].Installment)
	assert.Equal(t, "10/07/25", txns[0].DisplayDate())

	assert.Equal(t, "APPLE.COM", txns[1].Description)
	assert.Equal(t, "55", txns[1].AmountLocal.String())
	require.NotNil(t, txns[1].AmountForeign)
	assert.Equal(t, "10", txns[1].AmountForeign.String())
	assert.Empty(t, txns[2].Installment)
}

func TestWindowStrategy(t *testing.T) {
	txns := parse(models.IssuerUnknown,
		"11/07 MERCADO",
		"PAO DE ACUCAR",
		"45,80",
		"12/07 DROGARIA",
		"5373.63**.****.8018",
		"19,90",
	)
	require.Len(t, txns, 2)
	assert.Equal(t, "MERCADO PAO DE ACUCAR", txns[0].Description)
	assert.Equal(t, "45.8", txns[0].AmountLocal.String())
	assert.Equal(t, "proximity-window", txns[0].ParseMethod)
	assert.Equal(t, "DROGARIA", txns[1].Description)
	assert.Equal(t, models.CategoryHealth, txns[1].Category)
}

func TestWindowStrategy_StopsAtNextDate(t *testing.T) {
	txns := parse(models.IssuerUnknown,
		"11/07 MERCADO",
		"12/07 FARMACIA 20,00",
	)
	require.Len(t, txns, 1)
	assert.Equal(t, "FARMACIA", txns[0].Description)
}

func TestParse_WindowSkippedWithEnoughSingleLines(t *testing.T) {
	txns := parse(models.IssuerUnknown,
		"01/07 PADARIA 10,00",
		"02/07 UBER TRIP 20,00",
		"03/07 NETFLIX 30,00",
		"04/07 LOJA SEM VALOR",
		"15,00",
	)
	assert.Len(t, txns, 3)
}

func TestParse_Deduplicates(t *testing.T) {
	txns := parse(models.IssuerUnknown,
		"01/07 PADARIA 10,00",
		"01/07 PADARIA 10,00",
	)
	assert.Len(t, txns, 1)
}

func TestTrailingValueStrategy(t *testing.T) {
	txns := parse(models.IssuerAmazon,
		"Lançamentos nacionais em reais",
		"03/07 AMAZON MARKETPLACE 129,90",
		"08/07 ESTORNO AMAZON 59,90-",
		"Total da fatura 70,00",
	)
	require.Len(t, txns, 2)

	assert.Equal(t, "AMAZON MARKETPLACE", txns[0].Description)
	assert.Equal(t, "129.9", txns[0].AmountLocal.String())
	assert.Equal(t, models.CategoryShopping, txns[0].Category)
	assert.Equal(t, "trailing-value", txns[0].ParseMethod)

	assert.Equal(t, "ESTORNO AMAZON", txns[1].Description)
	assert.Equal(t, "-59.9", txns[1].AmountLocal.String())
	assert.Equal(t, models.CategoryPaymentCredit, txns[1].Category)
	assert.Equal(t, "Estorno", txns[1].Notes)
}

func TestTrailingValueStrategy_FallsBackToGeneric(t *testing.T) {
	// No value at the end of the row: the generic single-line reader still
	// finds it.
	txns := parse(models.IssuerAmazon, "03/07 AMAZON PRIME 14,90 BR")
	require.Len(t, txns, 1)
	assert.Equal(t, "single-line", txns[0].ParseMethod)
}

func TestInternationalStrategy(t *testing.T) {
	txns := parse(models.IssuerRico,
		"10/07 OPENAI *CHATGPT SUBSCR 110,55",
		"SAN FRANCISCO USD 20,00",
		"Cotação do dólar: 5,5275",
		"IOF 3,87",
		"11/07 PADARIA REAL 12,50",
		"12/07 COMPRA INTERNACIONAL 50,00",
		"USD 9,00",
	)
	require.Len(t, txns, 2)

	intl := txns[0]
	assert.Equal(t, "OPENAI *CHATGPT SUBSCR", intl.Description)
	assert.Equal(t, "110.55", intl.AmountLocal.String())
	require.NotNil(t, intl.AmountForeign)
	assert.Equal(t, "20", intl.AmountForeign.String())
	assert.Equal(t, "SAN FRANCISCO", intl.Place)
	assert.Equal(t, "5,5275", intl.ExchangeRate)
	assert.Equal(t, "3,87", intl.Fees)
	assert.Equal(t, "international-block", intl.ParseMethod)

	assert.Equal(t, "PADARIA REAL", txns[1].Description)
	assert.Nil(t, txns[1].AmountForeign)
	assert.Equal(t, "single-line", txns[1].ParseMethod)
}

func TestParse_LabelOnlyBlockHeaderSkipped(t *testing.T) {
	for _, issuer := range []models.Issuer{models.IssuerRico, models.IssuerUnknown} {
		t.Run(string(issuer), func(t *testing.T) {
			txns := parse(issuer,
				"10/07 COMPRAS INTERNACIONAIS 110,55",
				"USD 20,00",
			)
			assert.Empty(t, txns)
		})
	}

	// A label-only description without a foreign continuation is kept.
	txns := parse(models.IssuerUnknown, "12/07 IOF 3,87", "13/07 PADARIA 5,00")
	require.Len(t, txns, 2)
	assert.Equal(t, "IOF", txns[0].Description)
}

func TestParser_Strategies(t *testing.T) {
	p := newTestParser()
	assert.Equal(t, []string{"itau-dual"}, p.Strategies(models.IssuerItau))
	assert.Empty(t, p.Strategies(models.IssuerNubank))
}

func TestParse_TextInput(t *testing.T) {
	p := newTestParser()
	txns := p.Parse(Input{Text: "01/07 PADARIA 10,00\n\n02/07 UBER 20,00\n", Now: refDate})
	require.Len(t, txns, 2)
	assert.Equal(t, models.IssuerUnknown, txns[0].Issuer)
}

func TestParseStatement(t *testing.T) {
	info := newTestParser().ParseStatement("fatura.pdf", Input{
		Lines:  []string{"01/07 PADARIA 10,00"},
		Issuer: models.IssuerNubank,
		Now:    refDate,
	})
	assert.Equal(t, "fatura.pdf", info.Source)
	assert.Equal(t, models.IssuerNubank, info.Issuer)
	assert.Len(t, info.Transactions, 1)
}
