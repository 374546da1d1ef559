package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DisplayDateLayout is the DD/MM/YY form used in ids and exports.
const DisplayDateLayout = "02/01/06"

// Issuer identifies the institution that produced a statement.
type Issuer string

const (
	IssuerNubank  Issuer = "Nubank"
	IssuerItau    Issuer = "Itaú"
	IssuerAmazon  Issuer = "Amazon"
	IssuerRico    Issuer = "Rico"
	IssuerUnknown Issuer = "Desconhecido"
)

// Issuers lists the known issuers in detection priority order.
var Issuers = []Issuer{IssuerNubank, IssuerItau, IssuerAmazon, IssuerRico}

// Category is a spending category label.
type Category string

const (
	CategoryPaymentCredit Category = "Pagamento/Crédito"
	CategoryFood          Category = "Alimentação"
	CategoryTransport     Category = "Transporte"
	CategoryHealth        Category = "Saúde"
	CategorySubscriptions Category = "Assinaturas"
	CategoryShopping      Category = "Compras Online"
	CategoryFinancialFees Category = "Serviços Financeiros"
	CategoryLeisure       Category = "Lazer"
	CategoryEducation     Category = "Educação"
	CategoryHousing       Category = "Casa"
	CategoryOther         Category = "Outros"
)

// Transaction is a canonical statement record. Drafts produced by parsers use
// the same type before they are merged into a collection.
type Transaction struct {
	ID                    string           `json:"id"`
	Issuer                Issuer           `json:"issuer"`
	Date                  time.Time        `json:"date"`
	Description           string           `json:"description"`
	NormalizedDescription string           `json:"normalizedDescription"`
	Place                 string           `json:"place"`
	Category              Category         `json:"category"`
	Split                 SplitLabel       `json:"split"`
	AmountLocal           decimal.Decimal  `json:"amountLocal"`
	AmountForeign         *decimal.Decimal `json:"amountForeign,omitempty"`
	ExchangeRate          string           `json:"exchangeRate"`
	Fees                  string           `json:"fees"`
	Installment           string           `json:"installment"`
	Notes                 string           `json:"notes"`
	ParseMethod           string           `json:"parseMethod,omitempty"` // which strategy produced the draft
}

// DisplayDate renders the transaction date as DD/MM/YY.
func (t *Transaction) DisplayDate() string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format(DisplayDateLayout)
}

// IsPaymentOrCredit reports whether the record is a payment, credit or refund.
func (t *Transaction) IsPaymentOrCredit() bool {
	return t.Category == CategoryPaymentCredit
}

// AssignID sets the deterministic composite key issuer|date|description|amount.
func (t *Transaction) AssignID() {
	t.ID = TransactionID(t.Issuer, t.DisplayDate(), t.Description, t.AmountLocal)
}

// TransactionID builds the composite key used for idempotent merges.
func TransactionID(issuer Issuer, date, description string, amount decimal.Decimal) string {
	return strings.Join([]string{string(issuer), date, description, amount.String()}, "|")
}

// Categories lists every category in categorizer priority order.
var Categories = []Category{
	CategoryPaymentCredit, CategoryFood, CategoryTransport, CategoryHealth,
	CategorySubscriptions, CategoryShopping, CategoryFinancialFees,
	CategoryLeisure, CategoryEducation, CategoryHousing, CategoryOther,
}

// LookupCategory finds a known category by name, ignoring case.
func LookupCategory(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}
