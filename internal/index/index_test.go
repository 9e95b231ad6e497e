// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfchunk/internal/jsonl"
	"github.com/pdiddy/pdfchunk/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewStore(types.IndexConfig{Dir: filepath.Join(tmpDir, "index"), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, tmpDir
}

func sampleChunks() []types.Chunk {
	return []types.Chunk{
		{Text: "Agents plan actions toward goals using GOAP.", Meta: types.ChunkMeta{
			DocItems: []string{"#/texts/1"}, Headings: []string{"Embabel", "Planning"}}},
		{Text: "Add the starter dependency to your Maven build.", Meta: types.ChunkMeta{
			DocItems: []string{"#/texts/3"}, Headings: []string{"Embabel", "Setup"}}},
		{Text: "Name = timeout, Value = 30s", Meta: types.ChunkMeta{
			DocItems: []string{"#/tables/0"}, Headings: []string{"Embabel", "Setup"},
			Captions: []string{"Table 1: Settings"}}},
	}
}

func writeChunks(t *testing.T, dir, name string, chunks []types.Chunk) string {
	t.Helper()
	path := filepath.Join(dir, name)
	_, err := jsonl.WriteFile(path, chunks, &bytes.Buffer{})
	require.NoError(t, err)
	return path
}

func ingest(t *testing.T, store *Store, paths ...string) (IngestSummary, string) {
	t.Helper()
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), paths, &buf)
	require.NoError(t, err)
	return summary, buf.String()
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testStore(t)

	tables := []string{"documents", "chunks", "indexing_status", "runs"}
	if store.FullText() {
		tables = append(tables, "chunks_fts")
	}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}

	_, err := os.Stat(filepath.Join(store.Dir(), dbFile))
	assert.NoError(t, err)
}

func TestNewStoreReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	first, err := NewStore(types.IndexConfig{Dir: dir})
	require.NoError(t, err)
	fts := first.FullText()
	require.NoError(t, first.Close())

	second, err := NewStore(types.IndexConfig{Dir: dir})
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, fts, second.FullText())
	assert.Equal(t, defaultMaxResults, second.maxResults)
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "index", DocumentID("target/index_chunks.jsonl"))
	assert.Equal(t, "guide", DocumentID("/data/guide.jsonl"))
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	store, tmpDir := testStore(t)
	a := writeChunks(t, tmpDir, "index_chunks.jsonl", sampleChunks())
	b := writeChunks(t, tmpDir, "other.jsonl", sampleChunks()[:1])
	missing := filepath.Join(tmpDir, "absent.jsonl")

	summary, out := ingest(t, store, a, b, missing)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.Total())
	assert.Contains(t, out, "indexing index (3 chunks)")
	assert.Contains(t, out, "failed  absent")

	_, err := uuid.Parse(summary.RunID)
	require.NoError(t, err)

	var indexed, failed int
	var finished string
	require.NoError(t, store.db.QueryRow(
		`SELECT indexed, failed, finished_at FROM runs WHERE id = ?`, summary.RunID,
	).Scan(&indexed, &failed, &finished))
	assert.Equal(t, 2, indexed)
	assert.Equal(t, 1, failed)
	assert.NotEmpty(t, finished)

	var source string
	var count int
	require.NoError(t, store.db.QueryRow(
		`SELECT source_path, chunk_count FROM documents WHERE id = 'index'`,
	).Scan(&source, &count))
	assert.Equal(t, a, source)
	assert.Equal(t, 3, count)

	_, err = os.Stat(filepath.Join(store.Dir(), "export.yaml"))
	assert.NoError(t, err, "export.yaml written after ingestion")
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, tmpDir := testStore(t)
	path := writeChunks(t, tmpDir, "index_chunks.jsonl", sampleChunks())
	ingest(t, store, path)

	summary, out := ingest(t, store, path)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Indexed)
	assert.Contains(t, out, "skipped index")
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, tmpDir := testStore(t)
	path := writeChunks(t, tmpDir, "index_chunks.jsonl", sampleChunks())
	ingest(t, store, path)

	writeChunks(t, tmpDir, "index_chunks.jsonl", []types.Chunk{{Text: "Rewritten content only."}})
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, out := ingest(t, store, path)
	assert.Equal(t, 1, summary.Updated)
	assert.Contains(t, out, "updated index (1 chunks)")

	results, err := store.Retrieve(context.Background(), QueryOptions{DocID: "index"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Rewritten content only.", results[0].Text)
}

func TestIngestSameNameDifferentDirs(t *testing.T) {
	store, tmpDir := testStore(t)
	a := writeChunks(t, filepath.Join(tmpDir, "guide-a"), "index_chunks.jsonl",
		[]types.Chunk{{Text: "alpha planner"}})
	b := writeChunks(t, filepath.Join(tmpDir, "guide-b"), "index_chunks.jsonl",
		[]types.Chunk{{Text: "beta planner"}})

	summary, out := ingest(t, store, a, b)
	assert.Equal(t, 2, summary.Indexed)
	assert.Zero(t, summary.Updated)
	assert.Contains(t, out, "indexing index (1 chunks)")
	assert.Contains(t, out, "indexing index-2 (1 chunks)")

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "planner"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	sources := map[string]string{}
	for _, r := range results {
		sources[r.DocID] = r.SourcePath
	}
	assert.Equal(t, map[string]string{"index": a, "index-2": b}, sources)

	// Each file keeps its key and its own mtime on later runs.
	summary, out = ingest(t, store, b, a)
	assert.Equal(t, 2, summary.Skipped)
	assert.Contains(t, out, "skipped index-2")
	assert.Contains(t, out, "skipped index\n")
}

func TestIngestBadFile(t *testing.T) {
	store, tmpDir := testStore(t)
	path := filepath.Join(tmpDir, "broken.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0o644))

	summary, out := ingest(t, store, path)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, out, "failed  broken")
	_, err := os.Stat(filepath.Join(store.Dir(), "export.yaml"))
	assert.True(t, os.IsNotExist(err), "no export when nothing changed")
}

func TestIngestCanceled(t *testing.T) {
	store, tmpDir := testStore(t)
	path := writeChunks(t, tmpDir, "index_chunks.jsonl", sampleChunks())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Ingest(ctx, []string{path}, &bytes.Buffer{})
	assert.Error(t, err)
}

// --- retrieve tests ---

func TestRetrieve(t *testing.T) {
	store, tmpDir := testStore(t)
	ingest(t, store,
		writeChunks(t, tmpDir, "index_chunks.jsonl", sampleChunks()),
		writeChunks(t, tmpDir, "other_chunks.jsonl", []types.Chunk{
			{Text: "Other document mentions goals too.", Meta: types.ChunkMeta{Headings: []string{"Other"}}},
		}),
	)

	tests := []struct {
		name     string
		opts     QueryOptions
		wantText []string
	}{
		{
			name:     "all in document order",
			opts:     QueryOptions{},
			wantText: []string{"Agents plan", "Add the starter", "Name = timeout", "Other document"},
		},
		{
			name:     "full text",
			opts:     QueryOptions{Query: "starter"},
			wantText: []string{"Add the starter"},
		},
		{
			name:     "terms are anded",
			opts:     QueryOptions{Query: "goals agents"},
			wantText: []string{"Agents plan"},
		},
		{
			name:     "document filter",
			opts:     QueryOptions{Query: "goals", DocID: "other"},
			wantText: []string{"Other document"},
		},
		{
			name:     "heading filter",
			opts:     QueryOptions{Heading: "Setup"},
			wantText: []string{"Add the starter", "Name = timeout"},
		},
		{
			name:     "max results",
			opts:     QueryOptions{MaxResults: 1},
			wantText: []string{"Agents plan"},
		},
		{
			name:     "punctuation is literal",
			opts:     QueryOptions{Query: `"unbalanced`},
			wantText: nil,
		},
		{
			name:     "no match",
			opts:     QueryOptions{Query: "kubernetes"},
			wantText: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Retrieve(context.Background(), tt.opts)
			require.NoError(t, err)
			require.Len(t, results, len(tt.wantText))
			for i, prefix := range tt.wantText {
				assert.True(t, strings.HasPrefix(results[i].Text, prefix),
					"result %d = %q, want prefix %q", i, results[i].Text, prefix)
			}
		})
	}
}

func TestRetrieveRoundTripsMetadata(t *testing.T) {
	store, tmpDir := testStore(t)
	path := writeChunks(t, tmpDir, "index_chunks.jsonl", sampleChunks())
	ingest(t, store, path)

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "timeout"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "index", r.DocID)
	assert.Equal(t, path, r.SourcePath)
	assert.Equal(t, 2, r.ChunkID)
	assert.Equal(t, []string{"#/tables/0"}, r.Meta.DocItems)
	assert.Equal(t, []string{"Embabel", "Setup"}, r.Meta.Headings)
	assert.Equal(t, []string{"Table 1: Settings"}, r.Meta.Captions)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Heading: "Setup"}.IsEmpty())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_done\\`, escapeLike(`100%_done\`))
}

// --- export tests ---

func TestExport(t *testing.T) {
	store, tmpDir := testStore(t)
	ingest(t, store, writeChunks(t, tmpDir, "index_chunks.jsonl", sampleChunks()))

	yamlPath, err := store.ExportYAML(context.Background(), QueryOptions{Heading: "Setup"})
	require.NoError(t, err)
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 2)
	assert.Equal(t, 1, fromYAML[0].ChunkID)

	jsonPath, err := store.ExportJSON(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "export.json"), jsonPath)
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 3)
	assert.Equal(t, []string{"Table 1: Settings"}, fromJSON[2].Captions)
}
