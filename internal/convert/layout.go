// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// Line is one baseline of text recovered from a PDF page.
type Line struct {
	Page int
	Text string
	Size float64 // dominant font size in points
	Bold bool
	X, Y float64 // origin of the first glyph; Y grows upward
}

const (
	// headingRatio is how much larger than body text a line must be to count as a heading.
	headingRatio = 1.15
	// paragraphGap is the vertical gap, in multiples of font size, that ends a paragraph.
	paragraphGap = 1.8
	// maxHeadingLevel caps the number of distinct heading levels.
	maxHeadingLevel = 6
	// maxBoldHeadingLen bounds body-size bold lines treated as headings.
	maxBoldHeadingLen = 80
)

var (
	bulletPattern    = regexp.MustCompile(`^([•·▪‣◦●○■□\-–—*])\s+(.+)$`)
	numberedPattern  = regexp.MustCompile(`^(\(?\d{1,3}[.)]|\(?[a-z][.)])\s+(.+)$`)
	furniturePattern = regexp.MustCompile(`^(?i)(\d{1,4}|page\s+\d+(\s+of\s+\d+)?|-\s*\d{1,4}\s*-)$`)
)

// BuildDocument assembles a Document from page lines in reading order.
// Font sizes drive the hierarchy: the most common size (weighted by
// characters) is body text and larger sizes become section headers,
// ranked largest first. The first top-level heading becomes the title.
// Page numbers are recognized only on the first or last baseline of a page.
func BuildDocument(name, origin string, pages int, lines []Line) *types.Document {
	l := &layout{
		doc:    types.NewDocument(name, origin),
		levels: headingLevels(lines),
		edges:  pageEdges(lines),
	}
	l.doc.Pages = pages
	for i := range lines {
		l.line(&lines[i])
	}
	l.flush()
	return l.doc
}

type blockKind int

const (
	blockNone blockKind = iota
	blockParagraph
	blockCaption
	blockList
	blockHeading
)

type layout struct {
	doc    *types.Document
	levels sizeLevels
	edges  map[int]edge

	kind    blockKind
	buf     strings.Builder
	first   *Line // first line of the open block
	prev    *Line // previous line of the open block
	level   int   // open heading level
	item    *types.DocItem
	group   string
	ordered bool
	titled  bool
}

func (l *layout) line(ln *Line) {
	text := normalizeSpace(ln.Text)
	if text == "" {
		return
	}

	if furniturePattern.MatchString(text) && l.edges[ln.Page].holds(ln.Y) {
		l.flush()
		l.doc.AddText(types.LabelPageFooter, text, ln.Page)
		return
	}

	if level := l.levels.level(ln, text); level > 0 {
		if l.kind == blockHeading && l.level == level && l.adjacent(ln) {
			l.appendText(text)
			l.prev = ln
			return
		}
		l.flush()
		l.open(blockHeading, ln, text)
		l.level = level
		return
	}

	if m := bulletPattern.FindStringSubmatch(text); m != nil {
		l.listItem(ln, m[1], m[2], false)
		return
	}
	if m := numberedPattern.FindStringSubmatch(text); m != nil {
		l.listItem(ln, m[1], m[2], true)
		return
	}

	if captionPattern.MatchString(text + " ") {
		l.flush()
		l.open(blockCaption, ln, text)
		return
	}

	switch l.kind {
	case blockParagraph, blockCaption:
		if l.adjacent(ln) {
			l.appendText(text)
			l.prev = ln
			return
		}
	case blockList:
		// Indented continuation of the open list item.
		if l.adjacent(ln) && ln.X > l.first.X+1 {
			l.item.Text = joinLine(l.item.Text, text)
			l.prev = ln
			return
		}
	}

	l.flush()
	l.open(blockParagraph, ln, text)
}

func (l *layout) listItem(ln *Line, marker, text string, ordered bool) {
	if l.kind != blockList || l.ordered != ordered || !l.adjacentLoose(ln) {
		l.flush()
		l.kind = blockList
		l.group = l.doc.NewGroup()
		l.ordered = ordered
	}
	l.item = l.doc.AddListItem(l.group, marker, text, ordered, ln.Page)
	l.first, l.prev = ln, ln
}

func (l *layout) open(kind blockKind, ln *Line, text string) {
	l.kind = kind
	l.buf.Reset()
	l.buf.WriteString(text)
	l.first, l.prev = ln, ln
}

func (l *layout) appendText(text string) {
	s := joinLine(l.buf.String(), text)
	l.buf.Reset()
	l.buf.WriteString(s)
}

// adjacent reports whether ln continues the open block on the next baseline.
func (l *layout) adjacent(ln *Line) bool {
	if l.prev == nil || ln.Page != l.prev.Page {
		return false
	}
	dy := l.prev.Y - ln.Y
	return dy > 0 && dy <= paragraphGap*math.Max(ln.Size, l.prev.Size)
}

// adjacentLoose allows list items separated by a blank line or a page break.
func (l *layout) adjacentLoose(ln *Line) bool {
	if l.prev == nil {
		return false
	}
	if ln.Page != l.prev.Page {
		return ln.Page == l.prev.Page+1
	}
	dy := l.prev.Y - ln.Y
	return dy > 0 && dy <= 2*paragraphGap*math.Max(ln.Size, l.prev.Size)
}

func (l *layout) flush() {
	switch l.kind {
	case blockParagraph:
		l.doc.AddText(types.LabelText, l.buf.String(), l.first.Page)
	case blockCaption:
		l.doc.AddText(types.LabelCaption, l.buf.String(), l.first.Page)
	case blockHeading:
		if l.level == 1 && !l.titled {
			l.titled = true
			l.doc.AddHeading(types.LabelTitle, l.buf.String(), 0, l.first.Page)
		} else {
			l.doc.AddHeading(types.LabelSectionHeader, l.buf.String(), l.level, l.first.Page)
		}
	}
	l.kind = blockNone
	l.buf.Reset()
	l.first, l.prev, l.item = nil, nil, nil
}

// edge is the highest and lowest baseline of a page.
type edge struct {
	top, bottom float64
}

func (e edge) holds(y float64) bool {
	return y == e.top || y == e.bottom
}

func pageEdges(lines []Line) map[int]edge {
	edges := make(map[int]edge)
	for _, ln := range lines {
		if normalizeSpace(ln.Text) == "" {
			continue
		}
		e, ok := edges[ln.Page]
		if !ok {
			edges[ln.Page] = edge{top: ln.Y, bottom: ln.Y}
			continue
		}
		e.top = math.Max(e.top, ln.Y)
		e.bottom = math.Min(e.bottom, ln.Y)
		edges[ln.Page] = e
	}
	return edges
}

// sizeLevels maps rounded font sizes to heading levels.
type sizeLevels struct {
	body   float64
	levels map[float64]int
	bold   int // level for body-size bold lines, 0 when unused
}

func headingLevels(lines []Line) sizeLevels {
	weight := make(map[float64]int)
	for _, ln := range lines {
		weight[roundSize(ln.Size)] += utf8.RuneCountInString(ln.Text)
	}

	var body float64
	best := -1
	for size, w := range weight {
		if w > best || (w == best && size < body) {
			body, best = size, w
		}
	}

	var larger []float64
	for size := range weight {
		if size >= body*headingRatio {
			larger = append(larger, size)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(larger)))

	sl := sizeLevels{body: body, levels: make(map[float64]int)}
	for i, size := range larger {
		sl.levels[size] = min(i+1, maxHeadingLevel)
	}
	sl.bold = min(len(larger)+1, maxHeadingLevel)
	return sl
}

// level returns the heading level for a line, or 0 for body text.
func (s sizeLevels) level(ln *Line, text string) int {
	if lvl, ok := s.levels[roundSize(ln.Size)]; ok {
		return lvl
	}
	if ln.Bold && roundSize(ln.Size) == s.body && isHeadingLike(text) {
		return s.bold
	}
	return 0
}

// isHeadingLike accepts short lines that do not read like a sentence.
func isHeadingLike(text string) bool {
	if utf8.RuneCountInString(text) > maxBoldHeadingLen {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	return last != '.' && last != ',' && last != ';' && last != ':'
}

func roundSize(size float64) float64 {
	return math.Round(size*2) / 2
}

// joinLine appends next to s, undoing end-of-line hyphenation.
func joinLine(s, next string) string {
	if s == "" {
		return next
	}
	if strings.HasSuffix(s, "-") && len(s) > 1 {
		before, _ := utf8.DecodeLastRuneInString(s[:len(s)-1])
		first, _ := utf8.DecodeRuneInString(next)
		if unicode.IsLetter(before) && unicode.IsLower(first) {
			return s[:len(s)-1] + next
		}
	}
	return s + " " + next
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
