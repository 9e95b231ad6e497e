// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"strings"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// serializeTable flattens a table to one sentence per data row. With a
// header row each cell reads "header = value"; when the first column also
// labels the row, the row label prefixes each pair ("row, header = value").
// Without a header, cells are joined with ", ".
func serializeTable(t *types.TableData) string {
	if t == nil || t.NumRows() == 0 {
		return ""
	}

	var rows []string
	if !t.HasHeader || t.NumRows() == 1 {
		for _, row := range t.Cells {
			if s := joinNonEmpty(row, ", "); s != "" {
				rows = append(rows, s)
			}
		}
		return strings.Join(rows, ". ")
	}

	header := t.Cells[0]
	rowLabels := len(header) > 2 && strings.TrimSpace(header[0]) == ""
	for _, row := range t.Cells[1:] {
		var pairs []string
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" || (rowLabels && j == 0) {
				continue
			}
			col := ""
			if j < len(header) {
				col = strings.TrimSpace(header[j])
			}
			pair := cell
			if col != "" {
				pair = col + " = " + cell
			}
			if rowLabels && strings.TrimSpace(row[0]) != "" {
				pair = strings.TrimSpace(row[0]) + ", " + pair
			}
			pairs = append(pairs, pair)
		}
		if len(pairs) > 0 {
			rows = append(rows, strings.Join(pairs, ", "))
		}
	}
	return strings.Join(rows, ". ")
}

func joinNonEmpty(cells []string, sep string) string {
	var parts []string
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, sep)
}
