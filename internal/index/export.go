// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one chunk in an export file.
type ExportEntry struct {
	DocID    string   `json:"doc_id" yaml:"doc_id"`
	ChunkID  int      `json:"chunk_id" yaml:"chunk_id"`
	Text     string   `json:"text" yaml:"text"`
	Headings []string `json:"headings" yaml:"headings"`
	DocItems []string `json:"doc_items" yaml:"doc_items"`
	Captions []string `json:"captions,omitempty" yaml:"captions,omitempty"`
}

const exportLimit = 1000000

// ExportYAML writes matching chunks to <dir>/export.yaml and returns the path.
// It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes matching chunks to <dir>/export.json and returns the path.
// It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			DocID:    r.DocID,
			ChunkID:  r.ChunkID,
			Text:     r.Text,
			Headings: r.Meta.Headings,
			DocItems: r.Meta.DocItems,
			Captions: r.Meta.Captions,
		}
	}
	return entries, nil
}
