// Package extractor reads positioned text out of PDF statements and rebuilds
// visual lines from it.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

// Document is the text content of a PDF: positioned glyphs per page and the
// plain text used for issuer detection.
type Document struct {
	PageCount int       `json:"pageCount"`
	FullText  string    `json:"fullText"`
	Pages     [][]Glyph `json:"pages"`
}

// Lines reconstructs the document's visual lines.
func (d *Document) Lines(tol float64) []string {
	return ReconstructLines(d.Pages, tol)
}

// Extract reads glyphs from PDF bytes. A document that opens but carries no
// readable text (for example a scanned image) fails with ErrNoText.
func Extract(ctx context.Context, data []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return nil, models.NewImportError(models.ErrInvalidDocument, "not a PDF document", nil)
	}

	doc, err := extractWithLibrary(ctx, data)
	if err != nil {
		return nil, models.NewImportError(models.ErrInvalidDocument, "PDF could not be read", err)
	}
	if !isReadableText(doc.FullText) {
		return nil, models.NewImportError(models.ErrNoText,
			"no readable text in PDF; it may be image-based or scanned", nil)
	}
	return doc, nil
}

// extractWithLibrary recovers from panics inside the PDF library, which
// happen on some malformed font tables.
func extractWithLibrary(ctx context.Context, data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	doc = &Document{PageCount: numPages}
	var full []string
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, nil)
			continue
		}

		glyphs := pageGlyphs(page, i)
		if len(glyphs) == 0 {
			glyphs = rowGlyphs(page, i)
		}
		doc.Pages = append(doc.Pages, glyphs)
		for _, g := range glyphs {
			full = append(full, g.Text)
		}
	}
	doc.FullText = strings.Join(full, "\n")
	return doc, nil
}

// pageGlyphs reads the content stream text runs. The library often reports
// one run per character, so runs that touch horizontally on the same baseline
// are merged into word fragments; whitespace runs end a fragment.
func pageGlyphs(page pdf.Page, pageNum int) []Glyph {
	content := page.Content()
	return mergeRuns(content.Text, pageNum)
}

// rowGlyphs is the fallback for pages whose content stream yields nothing
// through Content but does through the row grouping API.
func rowGlyphs(page pdf.Page, pageNum int) []Glyph {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}
	var texts []pdf.Text
	for _, row := range rows {
		texts = append(texts, row.Content...)
	}
	return mergeRuns(texts, pageNum)
}

func mergeRuns(texts []pdf.Text, pageNum int) []Glyph {
	var (
		glyphs []Glyph
		cur    *Glyph
		curEnd float64
		curY   float64
	)
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			glyphs = append(glyphs, *cur)
		}
		cur = nil
	}

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}
		gap := math.Max(t.FontSize*0.15, 0.5)
		if cur != nil && math.Abs(t.Y-curY) < 0.5 && t.X >= cur.X && t.X <= curEnd+gap {
			cur.Text += t.S
			curEnd = math.Max(curEnd, t.X+t.W)
			continue
		}
		flush()
		cur = &Glyph{Text: t.S, X: t.X, Y: t.Y, Page: pageNum}
		curEnd = t.X + t.W
		curY = t.Y
	}
	flush()
	return glyphs
}

// textQuality returns the share of characters that are letters (including
// Portuguese accented ones), digits, whitespace or common statement
// punctuation. Identity-encoded fonts without a ToUnicode map produce mostly
// control or private-use runes.
func textQuality(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		total++
		switch {
		case r < unicode.MaxLatin1 && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r)):
			readable++
		case strings.ContainsRune(".,-/:;()'\"$%&@#!?+=*•·", r):
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// isReadableText requires some minimum amount of mostly readable text.
func isReadableText(text string) bool {
	if len(strings.TrimSpace(text)) < 20 {
		return false
	}
	return textQuality(text) > 0.6
}
