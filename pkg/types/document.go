// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ItemLabel classifies a DocItem by its structural role in the document.
type ItemLabel string

const (
	LabelTitle         ItemLabel = "title"
	LabelSectionHeader ItemLabel = "section_header"
	LabelText          ItemLabel = "text"
	LabelListItem      ItemLabel = "list_item"
	LabelCaption       ItemLabel = "caption"
	LabelCode          ItemLabel = "code"
	LabelTable         ItemLabel = "table"
	LabelPicture       ItemLabel = "picture"
	LabelPageHeader    ItemLabel = "page_header"
	LabelPageFooter    ItemLabel = "page_footer"
)

// IsHeading reports whether the label opens a new section.
func (l ItemLabel) IsHeading() bool {
	return l == LabelTitle || l == LabelSectionHeader
}

// IsFurniture reports whether the label marks page furniture (running
// headers, footers, page numbers) rather than body content.
func (l ItemLabel) IsFurniture() bool {
	return l == LabelPageHeader || l == LabelPageFooter
}

// TableData holds a table as a dense grid of cell texts. Row 0 is treated
// as the header row when HasHeader is set.
type TableData struct {
	Cells     [][]string `json:"cells" yaml:"cells"`
	HasHeader bool       `json:"has_header" yaml:"has_header"`
}

// NumRows returns the number of rows in the grid.
func (t *TableData) NumRows() int { return len(t.Cells) }

// NumCols returns the width of the widest row.
func (t *TableData) NumCols() int {
	n := 0
	for _, row := range t.Cells {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// DocItem is one node of a converted document, in reading order.
type DocItem struct {
	// SelfRef is a JSON-pointer style reference, e.g. "#/texts/4".
	SelfRef string `json:"self_ref" yaml:"self_ref"`

	// Label classifies the item.
	Label ItemLabel `json:"label" yaml:"label"`

	// Text is the item's plain text. Empty for tables and pictures.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Level is the heading depth for section headers (1 = top). Zero otherwise.
	Level int `json:"level,omitempty" yaml:"level,omitempty"`

	// Page is the 1-based page the item starts on. Zero when unknown.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	// Parent is the group reference (e.g. "#/groups/0") for list items.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Enumerated is set for items of a numbered list.
	Enumerated bool `json:"enumerated,omitempty" yaml:"enumerated,omitempty"`

	// Marker is the list bullet or number as written in the source.
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"`

	// Table is set for table items.
	Table *TableData `json:"table,omitempty" yaml:"table,omitempty"`

	// Captions lists references to caption items describing this table or picture.
	Captions []string `json:"captions,omitempty" yaml:"captions,omitempty"`
}

// Document is the hierarchical result of converting a PDF. Items appear in
// reading order; hierarchy is expressed through heading levels and list
// groups.
type Document struct {
	Name   string     `json:"name" yaml:"name"`
	Origin string     `json:"origin" yaml:"origin"`
	Pages  int        `json:"pages" yaml:"pages"`
	Items  []*DocItem `json:"items" yaml:"items"`

	texts    int
	tables   int
	pictures int
	groups   int
	byRef    map[string]*DocItem
}

// NewDocument returns an empty document.
func NewDocument(name, origin string) *Document {
	return &Document{
		Name:   name,
		Origin: origin,
		byRef:  make(map[string]*DocItem),
	}
}

func (d *Document) add(item *DocItem) *DocItem {
	if d.byRef == nil {
		d.reindex()
	}
	d.Items = append(d.Items, item)
	d.byRef[item.SelfRef] = item
	return item
}

// reindex rebuilds the reference lookup and counters, e.g. after the
// document was decoded from JSON.
func (d *Document) reindex() {
	d.byRef = make(map[string]*DocItem, len(d.Items))
	d.texts, d.tables, d.pictures = 0, 0, 0
	groups := make(map[string]bool)
	defer func() { d.groups = len(groups) }()
	for _, it := range d.Items {
		d.byRef[it.SelfRef] = it
		if it.Parent != "" {
			groups[it.Parent] = true
		}
		switch it.Label {
		case LabelTable:
			d.tables++
		case LabelPicture:
			d.pictures++
		default:
			d.texts++
		}
	}
}

// AddText appends a text-bearing item (paragraph, caption, code, furniture).
func (d *Document) AddText(label ItemLabel, text string, page int) *DocItem {
	ref := fmt.Sprintf("#/texts/%d", d.texts)
	d.texts++
	return d.add(&DocItem{SelfRef: ref, Label: label, Text: text, Page: page})
}

// AddHeading appends a section header at the given level. Level 0 or a
// title label produces a document title.
func (d *Document) AddHeading(label ItemLabel, text string, level, page int) *DocItem {
	it := d.AddText(label, text, page)
	it.Level = level
	return it
}

// NewGroup allocates a group reference used to tie list items together.
func (d *Document) NewGroup() string {
	ref := fmt.Sprintf("#/groups/%d", d.groups)
	d.groups++
	return ref
}

// AddListItem appends a list item belonging to group.
func (d *Document) AddListItem(group, marker, text string, enumerated bool, page int) *DocItem {
	it := d.AddText(LabelListItem, text, page)
	it.Parent = group
	it.Marker = marker
	it.Enumerated = enumerated
	return it
}

// AddTable appends a table item.
func (d *Document) AddTable(table *TableData, page int) *DocItem {
	ref := fmt.Sprintf("#/tables/%d", d.tables)
	d.tables++
	return d.add(&DocItem{SelfRef: ref, Label: LabelTable, Table: table, Page: page})
}

// AddPicture appends a picture item. Alt text, when present, is kept in Text.
func (d *Document) AddPicture(alt string, page int) *DocItem {
	ref := fmt.Sprintf("#/pictures/%d", d.pictures)
	d.pictures++
	return d.add(&DocItem{SelfRef: ref, Label: LabelPicture, Text: alt, Page: page})
}

// Item resolves a self reference. It returns nil when ref is unknown.
func (d *Document) Item(ref string) *DocItem {
	if d.byRef == nil || len(d.byRef) != len(d.Items) {
		d.reindex()
	}
	return d.byRef[ref]
}

// AttachCaption records caption as describing target and returns target.
func (d *Document) AttachCaption(target, caption *DocItem) *DocItem {
	target.Captions = append(target.Captions, caption.SelfRef)
	return target
}

// CaptionRefs returns the set of caption refs attached to any table or picture.
func (d *Document) CaptionRefs() map[string]bool {
	refs := make(map[string]bool)
	for _, it := range d.Items {
		for _, c := range it.Captions {
			refs[c] = true
		}
	}
	return refs
}
