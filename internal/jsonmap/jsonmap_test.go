package jsonmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italogmoura/ControleGastosDomesticos/internal/categorizer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
}

func newMapper() *Mapper {
	return New(categorizer.New(), fixedNow)
}

const faturasDoc = `{
  "faturas": [
    {
      "identificacaoFatura": {"banco": "Itaú", "mesReferencia": "2025-07", "cartao": "final 1234"},
      "transacoes": [
        {"data": "2025-07-11", "descricao": "IFD*AMS TR DELIVERY LT", "valorBRL": 73.00},
        {"data": "2025-07-12", "descricao": "OPENAI *CHATGPT", "local": "SAN FRANCISCO", "valorBRL": "110,55",
         "valorUSD": 20, "cotacaoDolar": "5,5275", "iof": "3,87"},
        {"data": "2025-07-15", "descricao": "PAGAMENTO RECEBIDO", "valorBRL": 250, "tipoLancamento": "Pagamento"},
        {"data": "2025-07-16", "descricao": "LOJA X", "valorBRL": "-20,00"},
        {"data": "2025-07-17", "descricao": "MERCADINHO", "categoria": "Casa", "valorBRL": 15, "parcelamento": "2/5",
         "observacoes": "presente"},
        {"data": "sem data", "descricao": "INVALIDA", "valorBRL": 10},
        {"data": "2025-07-18", "descricao": "", "valorBRL": 10},
        {"data": "2025-07-19", "descricao": "SEM VALOR"},
        {"data": 20250720, "descricao": "TIPO ERRADO", "valorBRL": 10}
      ]
    }
  ]
}`

func TestMap_Faturas(t *testing.T) {
	res, err := newMapper().Map([]byte(faturasDoc))
	require.NoError(t, err)
	require.Len(t, res.Statements, 1)

	stmt := res.Statements[0]
	assert.Equal(t, models.IssuerItau, stmt.Issuer)
	assert.Equal(t, "2025-07", stmt.Reference)
	assert.Equal(t, "final 1234", stmt.Card)
	assert.Equal(t, 4, res.Skipped)

	txns := res.Transactions()
	require.Len(t, txns, 5)

	food := txns[0]
	assert.Equal(t, "AMS TR DELIVERY LT", food.Description)
	assert.Equal(t, models.CategoryFood, food.Category)
	assert.Equal(t, "73", food.AmountLocal.String())
	assert.Equal(t, "Itaú|11/07/25|AMS TR DELIVERY LT|73", food.ID)
	assert.Empty(t, food.Place)
	assert.Empty(t, food.ExchangeRate)
	assert.Nil(t, food.AmountForeign)

	intl := txns[1]
	assert.Equal(t, "110.55", intl.AmountLocal.String())
	require.NotNil(t, intl.AmountForeign)
	assert.Equal(t, "20", intl.AmountForeign.String())
	assert.Equal(t, "5,5275", intl.ExchangeRate)
	assert.Equal(t, "3,87", intl.Fees)
	assert.Equal(t, "SAN FRANCISCO", intl.Place)

	pay := txns[2]
	assert.Equal(t, models.CategoryPaymentCredit, pay.Category)
	assert.Equal(t, "-250", pay.AmountLocal.String())
	assert.Equal(t, "Pagamento Fatura", pay.Notes)

	refund := txns[3]
	assert.Equal(t, models.CategoryPaymentCredit, refund.Category)
	assert.Equal(t, "-20", refund.AmountLocal.String())
	assert.Equal(t, "Estorno", refund.Notes)

	hinted := txns[4]
	assert.Equal(t, models.CategoryHousing, hinted.Category)
	assert.Equal(t, "2/5", hinted.Installment)
	assert.Equal(t, "presente", hinted.Notes)
}

func TestMap_Cartoes(t *testing.T) {
	doc := `{
	  "cartoes": [
	    {"identificacaoCartao": {"banco": "Nubank", "final": "9095"},
	     "transacoes": [{"data": "2025-07-10", "descricao": "•••• 9095 Mercado Livre", "valorBRL": 89.9}]}
	  ]
	}`
	res, err := newMapper().Map([]byte(doc))
	require.NoError(t, err)

	txns := res.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, models.IssuerNubank, txns[0].Issuer)
	assert.Equal(t, "Mercado Livre", txns[0].Description)
	assert.Equal(t, "9095", res.Statements[0].Card)
}

func TestMap_NestedCards(t *testing.T) {
	doc := `{
	  "faturas": [{
	    "identificacaoFatura": {"banco": "Rico", "mesReferencia": "2025-07"},
	    "cartoes": [
	      {"identificacaoCartao": {"cartao": "titular"}, "transacoes": [{"data": "2025-07-01", "descricao": "UBER TRIP", "valorBRL": 10}]},
	      {"identificacaoCartao": {"cartao": "adicional"}, "transacoes": [{"data": "2025-07-02", "descricao": "NETFLIX", "valorBRL": 55.9}]}
	    ]
	  }]
	}`
	res, err := newMapper().Map([]byte(doc))
	require.NoError(t, err)

	txns := res.Transactions()
	require.Len(t, txns, 2)
	assert.Equal(t, models.IssuerRico, txns[0].Issuer)
	assert.Equal(t, models.CategoryTransport, txns[0].Category)
	assert.Equal(t, models.CategorySubscriptions, txns[1].Category)
}

func TestMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "not json"},
		{"array", "[]"},
		{"empty object", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newMapper().Map([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, models.ErrInvalidDocument, models.ImportErrorCodeOf(err))
		})
	}
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantSet bool
	}{
		{`73.5`, "73.5", true},
		{`"1.234,56"`, "1234.56", true},
		{`"(10,00)"`, "-10", true},
		{`""`, "0", false},
		{`null`, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var a Amount
			require.NoError(t, a.UnmarshalJSON([]byte(tt.input)))
			assert.Equal(t, tt.wantSet, a.Set)
			assert.Equal(t, tt.want, a.Value.String())
		})
	}
}

func TestText_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`5.5275`, "5,5275"},
		{`"5,5275"`, "5,5275"},
		{`5.5`, "5,5"},
		{`3`, "3"},
		{`" 2/10 "`, "2/10"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got Text
			require.NoError(t, got.UnmarshalJSON([]byte(tt.input)))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMap_NumericExchangeRateKeepsPrecision(t *testing.T) {
	doc := `{"faturas": [{
	  "identificacaoFatura": {"banco": "Rico", "mesReferencia": "2025-07"},
	  "transacoes": [
	    {"data": "2025-07-02", "descricao": "OPENAI", "valorBRL": "110,55", "valorUSD": 20, "cotacaoDolar": 5.5275}
	  ]}]}`

	res, err := newMapper().Map([]byte(doc))
	require.NoError(t, err)
	txns := res.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, "5,5275", txns[0].ExchangeRate)
}
