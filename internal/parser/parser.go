// Package parser turns reconstructed statement lines into transaction drafts.
// Each issuer has an ordered list of strategies; issuers without one, or whose
// strategies find nothing, fall back to the generic heuristics.
package parser

import (
	"strings"
	"time"

	"github.com/italogmoura/ControleGastosDomesticos/internal/categorizer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

// Input is what a strategy receives for one statement.
type Input struct {
	Lines  []string
	Text   string
	Issuer models.Issuer
	// Now supplies the year for dates printed without one.
	Now time.Time
}

// Strategy extracts drafts from a statement. An empty result means the
// layout was not recognised; strategies never fail.
type Strategy interface {
	Name() string
	TryExtract(in Input) []models.Transaction
}

// genericThreshold is the single-line result size below which the proximity
// window is also tried.
const genericThreshold = 3

// Parser routes statements to the strategies registered for their issuer.
type Parser struct {
	registry map[models.Issuer][]Strategy
	single   Strategy
	window   Strategy
}

// New returns a parser with the built-in strategies.
func New(cat *categorizer.Categorizer) *Parser {
	b := builder{cat: cat}
	single := &SingleLineStrategy{b: b}
	p := &Parser{
		registry: make(map[models.Issuer][]Strategy),
		single:   single,
		window:   &WindowStrategy{b: b},
	}
	p.Register(models.IssuerAmazon, &TrailingValueStrategy{b: b})
	p.Register(models.IssuerItau, &DualLineStrategy{b: b})
	p.Register(models.IssuerRico, &InternationalStrategy{b: b, single: single})
	return p
}

// Register appends strategies for an issuer, tried in registration order.
func (p *Parser) Register(issuer models.Issuer, strategies ...Strategy) {
	p.registry[issuer] = append(p.registry[issuer], strategies...)
}

// Strategies returns the names of the strategies registered for an issuer.
func (p *Parser) Strategies(issuer models.Issuer) []string {
	var names []string
	for _, s := range p.registry[issuer] {
		names = append(names, s.Name())
	}
	return names
}

// Parse returns the deduplicated drafts for a statement. The first
// issuer-specific strategy with a non-empty result wins; otherwise the
// generic single-line results are used, joined by proximity-window results
// when fewer than three lines matched.
func (p *Parser) Parse(in Input) []models.Transaction {
	in = prepare(in)

	for _, s := range p.registry[in.Issuer] {
		if out := s.TryExtract(in); len(out) > 0 {
			return dedupe(out)
		}
	}

	out := p.single.TryExtract(in)
	if len(out) < genericThreshold {
		out = append(out, p.window.TryExtract(in)...)
	}
	return dedupe(out)
}

// ParseStatement wraps Parse with statement metadata.
func (p *Parser) ParseStatement(source string, in Input) *models.StatementInfo {
	return &models.StatementInfo{
		Source:       source,
		Issuer:       in.Issuer,
		Transactions: p.Parse(in),
	}
}

func prepare(in Input) Input {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.Issuer == "" {
		in.Issuer = models.IssuerUnknown
	}
	if len(in.Lines) == 0 && in.Text != "" {
		in.Lines = strings.Split(in.Text, "\n")
	}
	lines := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	in.Lines = lines
	return in
}
