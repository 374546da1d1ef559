package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace     = regexp.MustCompile(`\s+`)
	ifoodPrefix    = regexp.MustCompile(`(?i)^ifd\*\s*`)
	uberPrefix     = regexp.MustCompile(`(?i)^uber\s*\*\s*`)
	disallowedRune = regexp.MustCompile(`[^a-z0-9à-ÿ\s.\-]`)

	// Nubank prints the card tail before some descriptions: "•••• 9095 LOJA"
	// or "Cartão final 1234 - LOJA".
	maskedCardPrefix = regexp.MustCompile(`^(?:[•·*.]{2,}\s*)\d{4}\s+`)
	cardFinalPrefix  = regexp.MustCompile(`(?i)^cart[aã]o\s*(?:final\s*)?\d{4}\s*[:\-]?\s*`)
)

// NormalizeDescription produces the key used for split rules: lowercase,
// single-spaced, vendor prefixes removed, only letters, digits, spaces, dots
// and hyphens kept.
func NormalizeDescription(desc string) string {
	s := strings.ToLower(strings.TrimSpace(desc))
	s = whitespace.ReplaceAllString(s, " ")
	s = ifoodPrefix.ReplaceAllString(s, "")
	s = uberPrefix.ReplaceAllString(s, "uber ")
	s = disallowedRune.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanDescription removes vendor and card prefixes for display. The masked
// card prefix only appears on Nubank statements.
func CleanDescription(desc string, nubank bool) string {
	s := whitespace.ReplaceAllString(strings.TrimSpace(desc), " ")
	if nubank {
		s = maskedCardPrefix.ReplaceAllString(s, "")
		s = cardFinalPrefix.ReplaceAllString(s, "")
	}
	s = ifoodPrefix.ReplaceAllString(s, "")
	s = uberPrefix.ReplaceAllString(s, "UBER ")
	return strings.TrimSpace(s)
}

// StripDiacritics removes combining marks: "Itaú" becomes "Itau".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases and strips diacritics, for keyword matching.
func Fold(s string) string {
	return strings.ToLower(StripDiacritics(s))
}
