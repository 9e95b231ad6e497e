// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// buildPDF assembles a minimal PDF with one content stream per page.
// /F1 is Helvetica and /F2 is Helvetica-Bold; neither carries glyph
// widths, so glyphs of one show operator share their start position.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")
	for i, content := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R"+
			" /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> >>", 6+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// show is one text object drawing s at (x, y).
func show(font string, size, x, y int, s string) string {
	return fmt.Sprintf("BT /%s %d Tf %d %d Td (%s) Tj ET\n", font, size, x, y, s)
}

func writePDF(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guide.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestNativeConverter_Convert(t *testing.T) {
	page1 := show("F1", 24, 72, 720, "Agent Guide") +
		show("F1", 16, 72, 680, "Overview") +
		// Two show operators on one baseline, placed apart.
		"BT /F1 10 Tf 72 650 Td (The planner picks) Tj 90 0 Td (actions) Tj ET\n" +
		show("F1", 10, 72, 638, "toward the goal.") +
		show("F1", 10, 72, 610, "- Goals") +
		show("F1", 10, 72, 598, "- Actions") +
		show("F2", 10, 72, 560, "Setup") +
		show("F1", 10, 72, 540, "Install it.") +
		show("F1", 10, 300, 40, "1")
	page2 := show("F1", 10, 72, 700, "Deploy anywhere.") +
		show("F1", 10, 300, 40, "2")

	path := writePDF(t, buildPDF(page1, page2))
	doc, err := NewNativeConverter().Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "guide", doc.Name)
	assert.Equal(t, path, doc.Origin)
	assert.Equal(t, 2, doc.Pages)

	type want struct {
		label types.ItemLabel
		text  string
		level int
		page  int
	}
	wants := []want{
		{types.LabelTitle, "Agent Guide", 0, 1},
		{types.LabelSectionHeader, "Overview", 2, 1},
		{types.LabelText, "The planner picks actions toward the goal.", 0, 1},
		{types.LabelListItem, "Goals", 0, 1},
		{types.LabelListItem, "Actions", 0, 1},
		{types.LabelSectionHeader, "Setup", 3, 1},
		{types.LabelText, "Install it.", 0, 1},
		{types.LabelPageFooter, "1", 0, 1},
		{types.LabelText, "Deploy anywhere.", 0, 2},
		{types.LabelPageFooter, "2", 0, 2},
	}

	require.Len(t, doc.Items, len(wants))
	for i, w := range wants {
		it := doc.Items[i]
		assert.Equal(t, w.label, it.Label, "item %d label", i)
		assert.Equal(t, w.text, it.Text, "item %d text", i)
		assert.Equal(t, w.level, it.Level, "item %d level", i)
		assert.Equal(t, w.page, it.Page, "item %d page", i)
	}
	assert.Equal(t, doc.Items[3].Parent, doc.Items[4].Parent)
	assert.Equal(t, "-", doc.Items[3].Marker)
}

func TestNativeConverter_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewNativeConverter().Convert(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening PDF")
	})

	t.Run("not a PDF", func(t *testing.T) {
		path := writePDF(t, []byte(strings.Repeat("plain text, not a document\n", 10)))
		_, err := NewNativeConverter().Convert(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening PDF")
	})

	t.Run("malformed content stream", func(t *testing.T) {
		path := writePDF(t, buildPDF("BT /F1 10 Tf 72 Td ET"))
		_, err := NewNativeConverter().Convert(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading page 1")
		assert.Contains(t, err.Error(), "malformed content stream")
	})

	t.Run("canceled", func(t *testing.T) {
		path := writePDF(t, buildPDF(show("F1", 10, 72, 700, "Body.")))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewNativeConverter().Convert(ctx, path)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDominantSize(t *testing.T) {
	assert.Equal(t, 10.0, dominantSize(map[float64]int{10: 5, 12: 2}))
	assert.Equal(t, 12.0, dominantSize(map[float64]int{10: 3, 12: 3}), "ties go to the larger size")
	assert.Zero(t, dominantSize(nil))
}
