// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// NativeConverter reads the embedded text layer of a PDF with
// github.com/ledongthuc/pdf and rebuilds the document structure from font
// sizes and line positions. Scanned (image-only) PDFs yield an empty
// document.
type NativeConverter struct{}

// NewNativeConverter returns a converter that needs no external tools.
func NewNativeConverter() *NativeConverter {
	return &NativeConverter{}
}

// Convert opens the PDF at pdfPath and builds its document model.
func (c *NativeConverter) Convert(ctx context.Context, pdfPath string) (*types.Document, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	var lines []Line
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		texts, err := pageTexts(p)
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", i, pdfPath, err)
		}
		lines = append(lines, groupLines(texts, i)...)
	}

	return BuildDocument(documentName(pdfPath), pdfPath, numPages, lines), nil
}

// pageTexts returns the positioned glyphs of a page. The pdf package
// reports malformed content streams by panicking.
func pageTexts(p pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()
	return p.Content().Text, nil
}

// groupLines folds glyphs into baselines, keeping content-stream order
// within a line. A new line starts whenever the baseline moves by more
// than half the font size.
func groupLines(texts []pdf.Text, page int) []Line {
	var (
		lines []Line
		sb    strings.Builder
		cur   *Line
		sizes map[float64]int
		lastX float64
		lastW float64
	)

	finish := func() {
		if cur == nil {
			return
		}
		cur.Text = sb.String()
		cur.Size = dominantSize(sizes)
		lines = append(lines, *cur)
		cur = nil
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if cur == nil || math.Abs(t.Y-cur.Y) > math.Max(t.FontSize, 1)/2 {
			finish()
			sb.Reset()
			sizes = make(map[float64]int)
			cur = &Line{Page: page, X: t.X, Y: t.Y}
		} else if gap := t.X - (lastX + lastW); gap > t.FontSize*0.25 {
			// Words placed by separate positioning operators carry no space glyph.
			sb.WriteByte(' ')
		}

		sb.WriteString(t.S)
		lastX, lastW = t.X, t.W
		if strings.TrimSpace(t.S) != "" {
			sizes[roundSize(t.FontSize)]++
			if strings.Contains(strings.ToLower(t.Font), "bold") {
				cur.Bold = true
			}
		}
	}
	finish()
	return lines
}

func dominantSize(sizes map[float64]int) float64 {
	var size float64
	best := -1
	for s, n := range sizes {
		if n > best || (n == best && s > size) {
			size, best = s, n
		}
	}
	return size
}
