// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// QueryOptions holds parameters for chunk queries.
type QueryOptions struct {
	// Query is the full-text search string. Terms are ANDed.
	Query string

	// DocID restricts results to one document.
	DocID string

	// Heading restricts results to chunks whose heading path contains
	// this exact heading.
	Heading string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.DocID == "" && q.Heading == ""
}

// QueryResult is an indexed chunk and the document it came from.
type QueryResult struct {
	types.ChunkRecord
	DocID      string `json:"doc_id" yaml:"doc_id"`
	SourcePath string `json:"source_path" yaml:"source_path"`
}

// Retrieve queries the index with optional full-text search and filters.
// Full-text results are ranked by relevance under FTS5; otherwise results
// follow document order.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		terms  = strings.Fields(opts.Query)
		useFTS = s.fts && len(terms) > 0
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.doc_id, c.chunk_id, c.text, c.doc_items, c.headings, c.captions, d.source_path
			FROM chunks_fts
			JOIN chunks c ON c.rowid = chunks_fts.rowid
			LEFT JOIN documents d ON c.doc_id = d.id
			WHERE chunks_fts MATCH ?`)
		args = append(args, ftsQuery(terms))
	} else {
		qb.WriteString(
			`SELECT c.doc_id, c.chunk_id, c.text, c.doc_items, c.headings, c.captions, d.source_path
			FROM chunks c
			LEFT JOIN documents d ON c.doc_id = d.id
			WHERE 1=1`)
		for _, term := range terms {
			qb.WriteString(` AND c.text LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(term)+"%")
		}
	}

	if opts.DocID != "" {
		qb.WriteString(` AND c.doc_id = ?`)
		args = append(args, opts.DocID)
	}
	if opts.Heading != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(c.headings) WHERE value = ?)`)
		args = append(args, opts.Heading)
	}

	if useFTS {
		qb.WriteString(` ORDER BY chunks_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.doc_id, c.chunk_id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunk index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr                           QueryResult
			docItems, headings, captions sql.NullString
			source                       sql.NullString
		)
		if err := rows.Scan(&qr.DocID, &qr.ChunkID, &qr.Text,
			&docItems, &headings, &captions, &source); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Meta.DocItems = decodeList(docItems)
		qr.Meta.Headings = decodeList(headings)
		qr.Meta.Captions = decodeList(captions)
		qr.SourcePath = source.String
		results = append(results, qr)
	}
	return results, rows.Err()
}

// ftsQuery quotes each term so punctuation in user input is not read as
// FTS5 query syntax.
func ftsQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func decodeList(ns sql.NullString) []string {
	out := []string{}
	if ns.Valid && ns.String != "" {
		json.Unmarshal([]byte(ns.String), &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}
