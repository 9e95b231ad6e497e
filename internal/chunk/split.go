// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]?\s+`)

// Split breaks text into parts of at most maxChars runes, preferring
// paragraph breaks, then line breaks, then sentence ends, then spaces.
// A maxChars of zero or less returns text unchanged.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, piece := range pieces(text, maxChars) {
		sep := ""
		if cur.Len() > 0 {
			sep = " "
			if strings.HasSuffix(piece.sep, "\n") {
				sep = piece.sep
			}
		}
		if utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(sep)+utf8.RuneCountInString(piece.text) > maxChars {
			flush()
			sep = ""
		}
		cur.WriteString(sep)
		cur.WriteString(piece.text)
	}
	flush()
	return out
}

type piece struct {
	text string
	sep  string // separator that preceded the piece in the source
}

// pieces cuts text into units no longer than maxChars, descending through
// the boundary kinds only as far as needed.
func pieces(text string, maxChars int) []piece {
	var out []piece
	for i, para := range strings.Split(text, "\n\n") {
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}
		out = append(out, cut(para, sep, maxChars, 0)...)
	}
	return out
}

func cut(text, sep string, maxChars, depth int) []piece {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return []piece{{text: text, sep: sep}}
	}

	var parts []string
	var inner string
	switch depth {
	case 0:
		parts, inner = strings.Split(text, "\n"), "\n"
	case 1:
		parts, inner = splitSentences(text), " "
	case 2:
		parts, inner = strings.Fields(text), " "
	default:
		return hardCut(text, sep, maxChars)
	}

	if len(parts) <= 1 {
		return cut(text, sep, maxChars, depth+1)
	}
	var out []piece
	for i, p := range parts {
		s := inner
		if i == 0 {
			s = sep
		}
		out = append(out, cut(p, s, maxChars, depth+1)...)
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// hardCut splits a single unbroken word on rune boundaries.
func hardCut(text, sep string, maxChars int) []piece {
	var out []piece
	runes := []rune(text)
	for len(runes) > 0 {
		n := min(maxChars, len(runes))
		out = append(out, piece{text: string(runes[:n]), sep: sep})
		sep = ""
		runes = runes[n:]
	}
	return out
}
