// Package jsonmap converts pre-structured JSON statements into transaction
// drafts, bypassing PDF reconstruction.
package jsonmap

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/italogmoura/ControleGastosDomesticos/internal/categorizer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
	"github.com/italogmoura/ControleGastosDomesticos/internal/parser"
)

// Document is the top level of a structured statement file. Either list may
// be present.
type Document struct {
	Faturas []Statement `json:"faturas"`
	Cartoes []Card      `json:"cartoes"`
}

// Statement is one billing statement.
type Statement struct {
	Identificacao StatementID       `json:"identificacaoFatura"`
	Transacoes    []json.RawMessage `json:"transacoes"`
	Cartoes       []Card            `json:"cartoes"`
}

type StatementID struct {
	Banco         string `json:"banco"`
	MesReferencia string `json:"mesReferencia"`
	Cartao        string `json:"cartao"`
}

// Card groups transactions of one card inside or outside a statement.
type Card struct {
	Identificacao CardID            `json:"identificacaoCartao"`
	Transacoes    []json.RawMessage `json:"transacoes"`
}

type CardID struct {
	Banco   string `json:"banco"`
	Cartao  string `json:"cartao"`
	Final   string `json:"final"`
	Titular string `json:"titular"`
}

// Entry is one transaction as written in the document.
type Entry struct {
	Data           string `json:"data"`
	Descricao      string `json:"descricao"`
	Local          string `json:"local"`
	Categoria      string `json:"categoria"`
	ValorBRL       Amount `json:"valorBRL"`
	ValorUSD       Amount `json:"valorUSD"`
	CotacaoDolar   Text   `json:"cotacaoDolar"`
	IOF            Amount `json:"iof"`
	Taxas          Amount `json:"taxas"`
	Parcelamento   Text   `json:"parcelamento"`
	Observacoes    string `json:"observacoes"`
	TipoLancamento string `json:"tipoLancamento"`
}

// Result is the outcome of mapping one document.
type Result struct {
	Statements []models.StatementInfo
	// Skipped counts malformed or incomplete entries.
	Skipped int
}

// Transactions flattens all statements in document order.
func (r *Result) Transactions() []models.Transaction {
	var out []models.Transaction
	for _, s := range r.Statements {
		out = append(out, s.Transactions...)
	}
	return out
}

// Mapper converts documents using the shared categorizer.
type Mapper struct {
	cat *categorizer.Categorizer
	now func() time.Time
}

// New returns a mapper. now supplies the year for dates without one; nil
// uses the wall clock.
func New(cat *categorizer.Categorizer, now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{cat: cat, now: now}
}

// Map decodes and converts a document. Only an unreadable document or one
// with no statement sections is an error; bad entries are skipped.
func (m *Mapper) Map(data []byte) (*Result, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, models.NewImportError(models.ErrInvalidDocument, "malformed JSON statement", err)
	}
	if len(doc.Faturas) == 0 && len(doc.Cartoes) == 0 {
		return nil, models.NewImportError(models.ErrInvalidDocument,
			"JSON statement has neither faturas nor cartoes", nil)
	}

	res := &Result{}
	ref := m.now()

	for _, f := range doc.Faturas {
		info := models.StatementInfo{
			Issuer:    parser.DetectIssuerName(f.Identificacao.Banco),
			Reference: f.Identificacao.MesReferencia,
			Card:      f.Identificacao.Cartao,
		}
		info.Transactions = m.entries(info.Issuer, f.Transacoes, ref, res)
		for _, c := range f.Cartoes {
			issuer := info.Issuer
			if c.Identificacao.Banco != "" {
				issuer = parser.DetectIssuerName(c.Identificacao.Banco)
			}
			info.Transactions = append(info.Transactions, m.entries(issuer, c.Transacoes, ref, res)...)
		}
		res.Statements = append(res.Statements, info)
	}

	for _, c := range doc.Cartoes {
		info := models.StatementInfo{
			Issuer: parser.DetectIssuerName(c.Identificacao.Banco),
			Card:   cardLabel(c.Identificacao),
		}
		info.Transactions = m.entries(info.Issuer, c.Transacoes, ref, res)
		res.Statements = append(res.Statements, info)
	}
	return res, nil
}

func cardLabel(id CardID) string {
	if id.Cartao != "" {
		return id.Cartao
	}
	return id.Final
}

func (m *Mapper) entries(issuer models.Issuer, raw []json.RawMessage, ref time.Time, res *Result) []models.Transaction {
	var out []models.Transaction
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal(r, &e); err != nil {
			res.Skipped++
			continue
		}
		t, err := m.convert(issuer, e, ref)
		if err != nil {
			res.Skipped++
			continue
		}
		out = append(out, t)
	}
	return out
}

var creditKinds = map[string]bool{"pagamento": true, "estorno": true, "credito": true}

func (m *Mapper) convert(issuer models.Issuer, e Entry, ref time.Time) (models.Transaction, error) {
	date, ok := normalize.ParseISODate(e.Data, ref)
	if !ok {
		return models.Transaction{}, fmt.Errorf("invalid date %q", e.Data)
	}
	desc := normalize.CleanDescription(e.Descricao, issuer == models.IssuerNubank)
	if desc == "" {
		return models.Transaction{}, fmt.Errorf("missing description")
	}
	if !e.ValorBRL.Set {
		return models.Transaction{}, fmt.Errorf("missing valorBRL")
	}

	hint, _ := models.LookupCategory(e.Categoria)
	kind := normalize.Fold(strings.TrimSpace(e.TipoLancamento))
	if creditKinds[kind] {
		hint = models.CategoryPaymentCredit
	}
	c := m.cat.ClassifyWithCategory(hint, desc, e.ValorBRL.Value, false)

	t := models.Transaction{
		Issuer:                issuer,
		Date:                  date,
		Description:           desc,
		NormalizedDescription: normalize.NormalizeDescription(desc),
		Place:                 strings.TrimSpace(e.Local),
		Category:              c.Category,
		AmountLocal:           c.Amount,
		ExchangeRate:          string(e.CotacaoDolar),
		Fees:                  fees(e),
		Installment:           string(e.Parcelamento),
		Notes:                 strings.TrimSpace(e.Observacoes),
		ParseMethod:           "json",
	}
	if t.Notes == "" {
		t.Notes = c.Notes
	}
	if e.ValorUSD.Set {
		v := e.ValorUSD.Value
		t.AmountForeign = &v
	}
	t.AssignID()
	return t, nil
}

// fees prefers the explicit fee total and falls back to IOF.
func fees(e Entry) string {
	switch {
	case e.Taxas.Set:
		return normalize.FormatValue(e.Taxas.Value)
	case e.IOF.Set:
		return normalize.FormatValue(e.IOF.Value)
	}
	return ""
}
