// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfchunk/internal/index"
	"github.com/pdiddy/pdfchunk/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the chunk index (store, retrieve, export)",
	Long: `Index manages a local SQLite database built from chunk files. Use
subcommands to ingest .jsonl files, query them, or export them.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store [files...]",
	Short: "Ingest JSON Lines chunk files into the index",
	Long: `Store reads chunk files (default: the configured output) and loads
them into a SQLite database with full-text indexing, then writes
export.yaml. Unchanged files are skipped on subsequent runs.`,
	RunE: runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	paths := args
	if len(paths) == 0 {
		paths = []string{viper.GetString("output")}
	}

	summary, err := store.Ingest(cmd.Context(), paths, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var indexRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the index with full-text search and filters",
	Long: `Retrieve searches indexed chunks by text, optionally restricted to one
document (--doc) or to chunks under a heading (--heading).`,
	RunE: runIndexRetrieve,
}

func runIndexRetrieve(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --doc, or --heading")
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(os.Stdout, results, jsonOutput)
}

func formatRetrieveOutput(w io.Writer, results []index.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-16s  %-5s  %-24s  %s\n", "Rank", "Document", "Chunk", "Heading", "Text")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range results {
		heading := ""
		if n := len(r.Meta.Headings); n > 0 {
			heading = r.Meta.Headings[n-1]
		}
		fmt.Fprintf(w, "%-4d  %-16s  %-5d  %-24s  %s\n",
			i+1, truncate(r.DocID, 16), r.ChunkID, truncate(heading, 24), truncate(oneLine(r.Text), 50))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed chunks to YAML or JSON",
	Long: `Export writes all indexed chunks (or a filtered subset) to export.yaml
or export.json in the index directory. Supports the same filter flags as
retrieve.`,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openIndex(cmd *cobra.Command) (*index.Store, error) {
	if err := bindFlags(cmd, map[string]string{
		"index-dir":   "index.dir",
		"max-results": "index.max_results",
		"output":      "output",
	}); err != nil {
		return nil, err
	}
	return index.NewStore(types.IndexConfig{
		Dir:        viper.GetString("index.dir"),
		MaxResults: viper.GetInt("index.max_results"),
	})
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	docID, _ := cmd.Flags().GetString("doc")
	heading, _ := cmd.Flags().GetString("heading")
	limit, _ := cmd.Flags().GetInt("limit")

	return index.QueryOptions{
		Query:      queryText,
		DocID:      docID,
		Heading:    heading,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("index-dir", index.DefaultDir, "directory holding chunks.db and exports")
	indexCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")

	indexStoreCmd.Flags().StringP("output", "o", "", "chunk file to ingest when no arguments are given")

	// Retrieve flags.
	indexRetrieveCmd.Flags().String("query", "", "full-text search query")
	indexRetrieveCmd.Flags().String("doc", "", "filter by document ID")
	indexRetrieveCmd.Flags().String("heading", "", "filter by heading")
	indexRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	indexExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	indexExportCmd.Flags().String("doc", "", "filter by document ID for partial export")
	indexExportCmd.Flags().String("heading", "", "filter by heading for partial export")

	indexCmd.AddCommand(indexStoreCmd)
	indexCmd.AddCommand(indexRetrieveCmd)
	indexCmd.AddCommand(indexExportCmd)

	rootCmd.AddCommand(indexCmd)
}
