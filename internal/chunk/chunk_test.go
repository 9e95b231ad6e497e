// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// guideDocument builds a small document covering every item label.
func guideDocument() *types.Document {
	d := types.NewDocument("guide", "guide.pdf")
	d.AddHeading(types.LabelTitle, "Agent Guide", 0, 1)                // #/texts/0
	d.AddText(types.LabelText, "Welcome to the guide.", 1)              // #/texts/1
	d.AddHeading(types.LabelSectionHeader, "Concepts", 1, 1)            // #/texts/2
	d.AddHeading(types.LabelSectionHeader, "Goals", 2, 1)               // #/texts/3
	g := d.NewGroup()
	d.AddListItem(g, "-", "reach the target", false, 1)                 // #/texts/4
	d.AddListItem(g, "-", "stay within budget", false, 1)               // #/texts/5
	d.AddText(types.LabelPageFooter, "1", 1)                            // #/texts/6
	caption := d.AddText(types.LabelCaption, "Table 1: Limits", 2)      // #/texts/7
	tbl := d.AddTable(&types.TableData{                                 // #/tables/0
		Cells:     [][]string{{"Name", "Value"}, {"steps", "10"}, {"tokens", "4096"}},
		HasHeader: true,
	}, 2)
	d.AttachCaption(tbl, caption)
	d.AddPicture("", 2)                                                 // #/pictures/0
	d.AddHeading(types.LabelSectionHeader, "Actions", 2, 2)             // #/texts/8
	d.AddText(types.LabelCode, "agent.run()", 2)                        // #/texts/9
	d.AddText(types.LabelCaption, "Figure 9: stray caption", 2)         // #/texts/10
	d.AddHeading(types.LabelSectionHeader, "Appendix", 1, 3)            // #/texts/11
	d.AddText(types.LabelText, "Extra notes.", 3)                       // #/texts/12
	return d
}

func TestHierarchical_Chunk(t *testing.T) {
	chunks, err := NewHierarchical(types.DefaultChunkingConfig()).Chunk(guideDocument())
	require.NoError(t, err)

	want := []types.Chunk{
		{Text: "Welcome to the guide.", Meta: types.ChunkMeta{
			DocItems: []string{"#/texts/1"}, Headings: []string{"Agent Guide"}}},
		{Text: "- reach the target\n- stay within budget", Meta: types.ChunkMeta{
			DocItems: []string{"#/texts/4", "#/texts/5"}, Headings: []string{"Agent Guide", "Concepts", "Goals"}}},
		{Text: "Name = steps, Value = 10. Name = tokens, Value = 4096", Meta: types.ChunkMeta{
			DocItems: []string{"#/tables/0"}, Headings: []string{"Agent Guide", "Concepts", "Goals"},
			Captions: []string{"Table 1: Limits"}}},
		{Text: "agent.run()", Meta: types.ChunkMeta{
			DocItems: []string{"#/texts/9"}, Headings: []string{"Agent Guide", "Concepts", "Actions"}}},
		{Text: "Figure 9: stray caption", Meta: types.ChunkMeta{
			DocItems: []string{"#/texts/10"}, Headings: []string{"Agent Guide", "Concepts", "Actions"}}},
		{Text: "Extra notes.", Meta: types.ChunkMeta{
			DocItems: []string{"#/texts/12"}, Headings: []string{"Agent Guide", "Appendix"}}},
	}

	require.Len(t, chunks, len(want))
	for i := range want {
		assert.Equal(t, want[i].Text, chunks[i].Text, "chunk %d text", i)
		assert.Equal(t, want[i].Meta.DocItems, chunks[i].Meta.DocItems, "chunk %d doc_items", i)
		assert.Equal(t, want[i].Meta.Headings, chunks[i].Meta.Headings, "chunk %d headings", i)
		assert.Equal(t, len(want[i].Meta.Captions), len(chunks[i].Meta.Captions), "chunk %d captions", i)
		if len(want[i].Meta.Captions) > 0 {
			assert.Equal(t, want[i].Meta.Captions, chunks[i].Meta.Captions)
		}
	}
}

func TestHierarchical_Options(t *testing.T) {
	doc := guideDocument()

	t.Run("unmerged lists", func(t *testing.T) {
		chunks, err := NewHierarchical(types.ChunkingConfig{}).Chunk(doc)
		require.NoError(t, err)
		require.Len(t, chunks, 7)
		assert.Equal(t, "- reach the target", chunks[1].Text)
		assert.Equal(t, "- stay within budget", chunks[2].Text)
	})

	t.Run("furniture", func(t *testing.T) {
		cfg := types.DefaultChunkingConfig()
		cfg.IncludeFurniture = true
		chunks, err := NewHierarchical(cfg).Chunk(doc)
		require.NoError(t, err)
		require.Len(t, chunks, 7)
		assert.Equal(t, "1", chunks[2].Text)
		assert.Equal(t, []string{"#/texts/6"}, chunks[2].Meta.DocItems)
	})

	t.Run("max chars", func(t *testing.T) {
		cfg := types.DefaultChunkingConfig()
		cfg.MaxChars = 20
		chunks, err := NewHierarchical(cfg).Chunk(doc)
		require.NoError(t, err)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 20, "chunk %q", c.Text)
		}
		// The merged list splits on its line break and repeats metadata.
		var list []types.Chunk
		for _, c := range chunks {
			if strings.HasPrefix(c.Text, "- ") {
				list = append(list, c)
			}
		}
		require.Len(t, list, 2)
		assert.Equal(t, list[0].Meta.DocItems, list[1].Meta.DocItems)
	})
}

func TestHierarchical_PictureCaptionIsText(t *testing.T) {
	d := types.NewDocument("x", "x.pdf")
	d.AddHeading(types.LabelTitle, "Guide", 0, 1)
	pic := d.AddPicture("alt", 1)
	d.AttachCaption(pic, d.AddText(types.LabelCaption, "Figure 1: Loop", 1))
	d.AddPicture("", 1)

	chunks, err := NewHierarchical(types.DefaultChunkingConfig()).Chunk(d)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Figure 1: Loop", chunks[0].Text)
	assert.Equal(t, []string{"#/texts/1"}, chunks[0].Meta.DocItems)
	assert.Empty(t, chunks[0].Meta.Captions)
	assert.Equal(t, []string{"Guide"}, chunks[0].Meta.Headings)
}

func TestHierarchical_SeparateListGroups(t *testing.T) {
	d := types.NewDocument("x", "x.pdf")
	g1, g2 := d.NewGroup(), d.NewGroup()
	d.AddListItem(g1, "1.", "one", true, 1)
	d.AddListItem(g2, "-", "nested", false, 1)
	d.AddListItem(g1, "2.", "two", true, 1)

	chunks, err := NewHierarchical(types.DefaultChunkingConfig()).Chunk(d)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "1. one", chunks[0].Text)
	assert.Equal(t, "- nested", chunks[1].Text)
	assert.Equal(t, "2. two", chunks[2].Text)
}

func TestHierarchical_NilDocument(t *testing.T) {
	_, err := NewHierarchical(types.DefaultChunkingConfig()).Chunk(nil)
	assert.ErrorIs(t, err, ErrNilDocument)
}

func TestHierarchical_Empty(t *testing.T) {
	chunks, err := NewHierarchical(types.DefaultChunkingConfig()).Chunk(types.NewDocument("x", "x.pdf"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSerializeTable(t *testing.T) {
	tests := []struct {
		name  string
		table *types.TableData
		want  string
	}{
		{name: "nil", table: nil, want: ""},
		{
			name:  "no header",
			table: &types.TableData{Cells: [][]string{{"a", "b"}, {"c", ""}}},
			want:  "a, b. c",
		},
		{
			name: "row labels",
			table: &types.TableData{HasHeader: true, Cells: [][]string{
				{"", "2024", "2025"},
				{"Revenue", "10", "12"},
			}},
			want: "Revenue, 2024 = 10, Revenue, 2025 = 12",
		},
		{
			name:  "header only",
			table: &types.TableData{HasHeader: true, Cells: [][]string{{"Key", "Value"}}},
			want:  "Key, Value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serializeTable(tt.table))
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{name: "disabled", text: "long text here", max: 0, want: []string{"long text here"}},
		{name: "fits", text: "short", max: 10, want: []string{"short"}},
		{name: "sentences", text: "One. Two. Three.", max: 10, want: []string{"One. Two.", "Three."}},
		{name: "paragraphs", text: "alpha beta\n\ngamma", max: 12, want: []string{"alpha beta", "gamma"}},
		{name: "hard cut", text: "abcdefghij", max: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "runes", text: "ééééé ééééé", max: 5, want: []string{"ééééé", "ééééé"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.max))
		})
	}
}
