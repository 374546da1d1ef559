package extractor

import (
	"context"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

func TestReconstructLines(t *testing.T) {
	tests := []struct {
		name  string
		pages [][]Glyph
		want  []string
	}{
		{
			name: "rows ordered top to bottom and left to right",
			pages: [][]Glyph{{
				{Text: "73,00", X: 300, Y: 700},
				{Text: "11/07", X: 20, Y: 700.8},
				{Text: "IFD*AMS TR DELIVERY LT", X: 60, Y: 699.5},
				{Text: "12/07", X: 20, Y: 680},
				{Text: "NETFLIX.COM", X: 60, Y: 680},
				{Text: "55,90", X: 300, Y: 681},
			}},
			want: []string{
				"11/07 IFD*AMS TR DELIVERY LT 73,00",
				"12/07 NETFLIX.COM 55,90",
			},
		},
		{
			name: "whitespace glyphs dropped and spaces collapsed",
			pages: [][]Glyph{{
				{Text: "  ", X: 10, Y: 500},
				{Text: "Total  a", X: 20, Y: 500},
				{Text: "pagar", X: 60, Y: 500},
			}},
			want: []string{"Total a pagar"},
		},
		{
			name: "glyph outside tolerance starts a new row",
			pages: [][]Glyph{{
				{Text: "A", X: 10, Y: 500},
				{Text: "B", X: 10, Y: 497},
			}},
			want: []string{"A", "B"},
		},
		{
			name: "pages concatenated in order",
			pages: [][]Glyph{
				{{Text: "page one", X: 10, Y: 100}},
				{{Text: "page two", X: 10, Y: 800}},
			},
			want: []string{"page one", "page two"},
		},
		{
			name:  "empty input",
			pages: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconstructLines(tt.pages, DefaultRowTolerance))
		})
	}
}

func TestReconstructLines_AnchorIsFirstGlyph(t *testing.T) {
	// The row anchor stays at the first glyph's Y, so drift beyond the
	// tolerance from it splits the row even if neighbours are close.
	pages := [][]Glyph{{
		{Text: "a", X: 10, Y: 500},
		{Text: "b", X: 20, Y: 498},
		{Text: "c", X: 30, Y: 496},
	}}
	assert.Equal(t, []string{"a b", "c"}, ReconstructLines(pages, 2.5))
}

func TestReconstructLines_Deterministic(t *testing.T) {
	pages := [][]Glyph{{
		{Text: "x", X: 10, Y: 10},
		{Text: "y", X: 10, Y: 10},
		{Text: "z", X: 5, Y: 11},
	}}
	first := ReconstructLines(pages, 2.5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ReconstructLines(pages, 2.5))
	}
	assert.Equal(t, []string{"z x y"}, first)
}

func TestMergeRuns(t *testing.T) {
	texts := []pdf.Text{
		{S: "1", X: 10, Y: 700, W: 5, FontSize: 10},
		{S: "1", X: 15, Y: 700, W: 5, FontSize: 10},
		{S: "/", X: 20, Y: 700, W: 3, FontSize: 10},
		{S: "0", X: 23, Y: 700, W: 5, FontSize: 10},
		{S: "7", X: 28, Y: 700, W: 5, FontSize: 10},
		{S: " ", X: 33, Y: 700, W: 3, FontSize: 10},
		{S: "UBER", X: 36, Y: 700, W: 25, FontSize: 10},
		{S: "9,90", X: 200, Y: 700, W: 20, FontSize: 10},
	}

	got := mergeRuns(texts, 1)
	require.Len(t, got, 3)
	assert.Equal(t, "11/07", got[0].Text)
	assert.Equal(t, "UBER", got[1].Text)
	assert.Equal(t, "9,90", got[2].Text)
	assert.Equal(t, 1, got[2].Page)
}

func TestTextQuality(t *testing.T) {
	assert.Greater(t, textQuality("11/07 Padaria São João 12,50"), 0.9)
	assert.Less(t, textQuality("\x01\x02\x03"), 0.1)
	assert.False(t, isReadableText("curto"))
}

func TestExtract_NotPDF(t *testing.T) {
	_, err := Extract(context.Background(), []byte("hello world"))
	require.Error(t, err)
	assert.Equal(t, models.ErrInvalidDocument, models.ImportErrorCodeOf(err))
}

func TestExtract_Corrupt(t *testing.T) {
	_, err := Extract(context.Background(), []byte("%PDF-1.4\ngarbage without xref"))
	require.Error(t, err)
	assert.Equal(t, models.ErrInvalidDocument, models.ImportErrorCodeOf(err))
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Extract(ctx, []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, context.Canceled)
}
