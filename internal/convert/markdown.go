// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

var (
	// captionPattern matches figure and table captions such as "Figure 3:" or "Table 1.".
	captionPattern = regexp.MustCompile(`^(?i)(figure|fig\.|table|listing)\s+\d+[\s.:]`)

	// pageMarkerPattern matches page markers like "<!-- page 3 -->" emitted by some converters.
	pageMarkerPattern = regexp.MustCompile(`<!--\s*page[\s:]*(\d+)\s*-->`)
)

// ParseMarkdown builds a Document from Markdown produced by a conversion
// backend. The first level-1 heading becomes the document title; deeper
// headings become section headers at their Markdown level.
func ParseMarkdown(name, origin string, src []byte) *types.Document {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	b := &mdBuilder{doc: types.NewDocument(name, origin), src: src, page: 1}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		b.block(n)
	}
	b.doc.Pages = b.page
	return b.doc
}

type mdBuilder struct {
	doc      *types.Document
	src      []byte
	page     int
	sawTitle bool

	// pendingCaption is a caption seen before its table or picture.
	pendingCaption *types.DocItem
	// lastFloat is the most recent table or picture, for captions that follow it.
	lastFloat *types.DocItem
}

func (b *mdBuilder) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Heading:
		b.heading(n)
	case *ast.Paragraph, *ast.TextBlock:
		b.paragraph(n)
	case *ast.List:
		b.list(n, b.doc.NewGroup())
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		b.doc.AddText(types.LabelCode, b.lines(n), b.page)
		b.settle()
	case *ast.Blockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			b.block(c)
		}
	case *east.Table:
		b.table(n)
	case *ast.HTMLBlock:
		if m := pageMarkerPattern.FindSubmatch([]byte(b.lines(n))); m != nil {
			if p, err := strconv.Atoi(string(m[1])); err == nil {
				b.page = p
			}
		}
	}
}

// settle closes the caption matching window after a body item.
func (b *mdBuilder) settle() {
	b.pendingCaption = nil
	b.lastFloat = nil
}

func (b *mdBuilder) heading(n *ast.Heading) {
	title := inlineText(n, b.src)
	if title == "" {
		return
	}
	if n.Level == 1 && !b.sawTitle {
		b.sawTitle = true
		b.doc.AddHeading(types.LabelTitle, title, 0, b.page)
		b.settle()
		return
	}
	b.doc.AddHeading(types.LabelSectionHeader, title, n.Level, b.page)
	b.settle()
}

func (b *mdBuilder) paragraph(n ast.Node) {
	if img, ok := soleImage(n); ok {
		b.float(b.doc.AddPicture(inlineText(img, b.src), b.page))
		return
	}

	s := inlineText(n, b.src)
	if s == "" {
		return
	}
	if captionPattern.MatchString(s) {
		c := b.doc.AddText(types.LabelCaption, s, b.page)
		if b.lastFloat != nil && len(b.lastFloat.Captions) == 0 {
			b.doc.AttachCaption(b.lastFloat, c)
			b.lastFloat = nil
			return
		}
		b.pendingCaption = c
		b.lastFloat = nil
		return
	}
	b.doc.AddText(types.LabelText, s, b.page)
	b.settle()
}

// float registers a table or picture, attaching a caption that preceded it.
func (b *mdBuilder) float(it *types.DocItem) {
	if b.pendingCaption != nil {
		b.doc.AttachCaption(it, b.pendingCaption)
		b.pendingCaption = nil
		b.lastFloat = nil
		return
	}
	b.lastFloat = it
}

// list adds one list item per entry of n. Leading paragraphs form the item
// text; any later child block (code, tables, quotes, nested lists) follows
// the item as an item of its own.
func (b *mdBuilder) list(n *ast.List, group string) {
	number := n.Start
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := string(n.Marker)
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d%c", number, n.Marker)
			number++
		}

		var parts []string
		c := item.FirstChild()
		for ; c != nil && isProse(c); c = c.NextSibling() {
			if s := inlineText(c, b.src); s != "" {
				parts = append(parts, s)
			}
		}

		if len(parts) > 0 {
			b.doc.AddListItem(group, marker, strings.Join(parts, " "), n.IsOrdered(), b.page)
			b.settle()
		}
		for ; c != nil; c = c.NextSibling() {
			b.block(c)
		}
	}
}

// isProse reports whether n is a plain paragraph that reads as list item text.
func isProse(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return true
	}
	return false
}

func (b *mdBuilder) table(n *east.Table) {
	var cells [][]string
	hasHeader := false
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*east.TableHeader); ok {
			hasHeader = true
		}
		var r []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			r = append(r, inlineText(cell, b.src))
		}
		cells = append(cells, r)
	}
	b.float(b.doc.AddTable(&types.TableData{Cells: cells, HasHeader: hasHeader}, b.page))
}

func (b *mdBuilder) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(b.src))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// soleImage reports whether a paragraph consists of a single image.
func soleImage(n ast.Node) (*ast.Image, bool) {
	if n.ChildCount() != 1 {
		return nil, false
	}
	img, ok := n.FirstChild().(*ast.Image)
	return img, ok
}

// inlineText flattens the inline content of n to plain text.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	writeInline(&sb, n, src)
	return strings.TrimSpace(sb.String())
}

func writeInline(sb *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(src))
			if c.HardLineBreak() {
				sb.WriteByte('\n')
			} else if c.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(c.Value)
		case *ast.AutoLink:
			sb.Write(c.URL(src))
		case *ast.RawHTML:
		default:
			writeInline(sb, c, src)
		}
	}
}
