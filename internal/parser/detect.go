package parser

import (
	"regexp"
	"strings"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// issuerKeywords identifies issuers by words printed on their statements,
// checked in models.Issuers order.
var issuerKeywords = map[models.Issuer][]string{
	models.IssuerNubank: {"nubank", "nu pagamentos"},
	models.IssuerItau:   {"banco itau", "itaucard", "itau", "personnalite", "uniclass"},
	models.IssuerAmazon: {"amazon", "bradescard amazon", "cartao amazon"},
	models.IssuerRico:   {"rico", "visa infinite", "genial"},
}

var (
	issuerPatterns = compileKeywords(issuerKeywords)
	nonAlnum       = regexp.MustCompile(`[^a-z0-9]+`)
)

func compileKeywords(kw map[models.Issuer][]string) map[models.Issuer]*regexp.Regexp {
	out := make(map[models.Issuer]*regexp.Regexp, len(kw))
	for issuer, words := range kw {
		alts := make([]string, len(words))
		for i, w := range words {
			alts[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
		}
		out[issuer] = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	}
	return out
}

// Detect identifies the issuer of a statement from its text and file name.
// Matching ignores case and accents and requires whole words, so "rico"
// does not match inside "Americo". Unknown statements return IssuerUnknown.
func Detect(text, filename string) models.Issuer {
	haystack := normalize.Fold(text) + "\n" + nonAlnum.ReplaceAllString(normalize.Fold(filename), " ")
	for _, issuer := range models.Issuers {
		if issuerPatterns[issuer].MatchString(haystack) {
			return issuer
		}
	}
	return models.IssuerUnknown
}

// DetectIssuerName maps a free-form issuer name, as found in structured
// statements, to a known issuer.
func DetectIssuerName(name string) models.Issuer {
	return Detect(name, "")
}
