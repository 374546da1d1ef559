package extractor

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultRowTolerance is the maximum vertical distance, in PDF units, between
// a glyph and a row anchor for the glyph to join that row.
const DefaultRowTolerance = 2.5

// Glyph is a positioned text fragment on a page. PDF Y grows upwards.
type Glyph struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Page int     `json:"page"`
}

var spaces = regexp.MustCompile(`\s+`)

type row struct {
	anchor float64
	glyphs []Glyph
}

// ReconstructLines turns per-page glyph lists into visual lines, top to
// bottom and left to right, pages in order. A glyph joins the first row whose
// anchor Y is within tol; otherwise it starts a new row anchored at its own Y.
// Whitespace-only glyphs are ignored. Output is deterministic for equal input.
func ReconstructLines(pages [][]Glyph, tol float64) []string {
	if tol <= 0 {
		tol = DefaultRowTolerance
	}

	var lines []string
	for _, glyphs := range pages {
		lines = append(lines, reconstructPage(glyphs, tol)...)
	}
	return lines
}

func reconstructPage(glyphs []Glyph, tol float64) []string {
	items := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if strings.TrimSpace(g.Text) == "" {
			continue
		}
		items = append(items, g)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Y != items[j].Y {
			return items[i].Y > items[j].Y
		}
		return items[i].X < items[j].X
	})

	var rows []*row
	for _, g := range items {
		var target *row
		for _, r := range rows {
			if math.Abs(r.anchor-g.Y) <= tol {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{anchor: g.Y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].anchor > rows[j].anchor
	})

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool {
			return r.glyphs[i].X < r.glyphs[j].X
		})
		parts := make([]string, len(r.glyphs))
		for i, g := range r.glyphs {
			parts[i] = g.Text
		}
		line := strings.TrimSpace(spaces.ReplaceAllString(strings.Join(parts, " "), " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
