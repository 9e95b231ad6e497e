// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits a converted document into retrieval-sized chunks,
// each carrying the heading path, source item references, and captions
// in effect where it was cut.
package chunk

import (
	"errors"
	"strings"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// ErrNilDocument is returned when a chunker is handed no document.
var ErrNilDocument = errors.New("nil document")

// Chunker splits a Document into an ordered, materialized list of chunks.
type Chunker interface {
	Chunk(doc *types.Document) ([]types.Chunk, error)
}

// Hierarchical emits one chunk per body item (merging list runs) and
// tags each with the enclosing heading path. It does not look at token
// counts; MaxChars is a plain character bound.
type Hierarchical struct {
	cfg types.ChunkingConfig
}

// NewHierarchical returns a Hierarchical chunker configured by cfg.
func NewHierarchical(cfg types.ChunkingConfig) *Hierarchical {
	return &Hierarchical{cfg: cfg}
}

// heading is one entry of the open heading path.
type heading struct {
	level int
	text  string
}

// Chunk walks doc.Items in reading order.
func (h *Hierarchical) Chunk(doc *types.Document) ([]types.Chunk, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	w := &walker{
		cfg:      h.cfg,
		doc:      doc,
		attached: tableCaptions(doc),
	}
	for _, it := range doc.Items {
		w.item(it)
	}
	w.flushList()
	return w.out, nil
}

type walker struct {
	cfg      types.ChunkingConfig
	doc      *types.Document
	attached map[string]bool
	stack    []heading
	out      []types.Chunk

	// Open list run, when merging list items.
	listGroup string
	listRefs  []string
	listLines []string
}

func (w *walker) item(it *types.DocItem) {
	if it.Label != types.LabelListItem || !w.cfg.MergeListItems || it.Parent != w.listGroup {
		w.flushList()
	}

	switch {
	case it.Label.IsHeading():
		w.push(it)
	case it.Label.IsFurniture():
		if w.cfg.IncludeFurniture {
			w.emit(it.Text, []string{it.SelfRef}, nil)
		}
	case it.Label == types.LabelListItem:
		line := listLine(it)
		if !w.cfg.MergeListItems {
			w.emit(line, []string{it.SelfRef}, nil)
			return
		}
		w.listGroup = it.Parent
		w.listRefs = append(w.listRefs, it.SelfRef)
		w.listLines = append(w.listLines, line)
	case it.Label == types.LabelTable:
		if text := serializeTable(it.Table); text != "" {
			w.emit(text, []string{it.SelfRef}, w.captions(it))
		}
	case it.Label == types.LabelPicture:
		// Picture captions are emitted as text items where they appear.
	case it.Label == types.LabelCaption:
		if !w.attached[it.SelfRef] {
			w.emit(it.Text, []string{it.SelfRef}, nil)
		}
	default:
		w.emit(it.Text, []string{it.SelfRef}, nil)
	}
}

// push records a heading, closing any open heading at the same or a
// deeper level.
func (w *walker) push(it *types.DocItem) {
	level := it.Level
	if it.Label == types.LabelTitle {
		level = 0
	}
	for len(w.stack) > 0 && w.stack[len(w.stack)-1].level >= level {
		w.stack = w.stack[:len(w.stack)-1]
	}
	w.stack = append(w.stack, heading{level: level, text: it.Text})
}

func (w *walker) headings() []string {
	out := make([]string, len(w.stack))
	for i, h := range w.stack {
		out[i] = h.text
	}
	return out
}

// tableCaptions returns the caption refs folded into table chunks.
func tableCaptions(doc *types.Document) map[string]bool {
	refs := make(map[string]bool)
	for _, it := range doc.Items {
		if it.Label != types.LabelTable {
			continue
		}
		for _, c := range it.Captions {
			refs[c] = true
		}
	}
	return refs
}

func (w *walker) captions(it *types.DocItem) []string {
	var out []string
	for _, ref := range it.Captions {
		if c := w.doc.Item(ref); c != nil && c.Text != "" {
			out = append(out, c.Text)
		}
	}
	return out
}

func (w *walker) flushList() {
	if len(w.listRefs) > 0 {
		w.emit(strings.Join(w.listLines, "\n"), w.listRefs, nil)
	}
	w.listGroup, w.listRefs, w.listLines = "", nil, nil
}

func (w *walker) emit(text string, refs, captions []string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	meta := types.ChunkMeta{
		DocItems: refs,
		Headings: w.headings(),
		Captions: captions,
	}
	for _, part := range Split(text, w.cfg.MaxChars) {
		w.out = append(w.out, types.Chunk{Text: part, Meta: cloneMeta(meta)})
	}
}

func cloneMeta(m types.ChunkMeta) types.ChunkMeta {
	return types.ChunkMeta{
		DocItems: append([]string(nil), m.DocItems...),
		Headings: append([]string(nil), m.Headings...),
		Captions: append([]string(nil), m.Captions...),
	}
}

// listLine renders a list item with its marker, e.g. "- item" or "2. item".
func listLine(it *types.DocItem) string {
	marker := it.Marker
	if marker == "" || !it.Enumerated {
		marker = "-"
	}
	return marker + " " + it.Text
}
