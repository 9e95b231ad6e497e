// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfchunk/internal/chunk"
	"github.com/pdiddy/pdfchunk/internal/convert"
	"github.com/pdiddy/pdfchunk/internal/pipeline"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Convert a PDF and write its chunks as JSON Lines",
	Long: `Chunk converts the input PDF into a structured document, splits it
into hierarchical chunks, and writes one JSON object per chunk:

  {"chunk_id": 0, "text": "...", "meta": {"doc_items": [...], "headings": [...], "captions": [...]}}

The output file is replaced only when every stage succeeds. This is the
same pipeline that runs when pdfchunk is invoked without a subcommand.`,
	Args: cobra.NoArgs,
	RunE: runChunk,
}

func runChunk(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, pipelineFlags); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	slog.Debug("converting", "backend", cfg.Conversion.Backend, "input", cfg.Input)
	conv, err := convert.New(ctx, cfg.Conversion)
	if err != nil {
		return err
	}

	sum, err := pipeline.Run(ctx, conv, chunk.NewHierarchical(cfg.Chunking), cfg.Input, cfg.Output, os.Stdout)
	if err != nil {
		return err
	}
	slog.Info("chunking complete", "items", sum.Items, "chunks", sum.Chunks, "elapsed", sum.Duration)
	return nil
}

func init() {
	addPipelineFlags(chunkCmd)
	rootCmd.AddCommand(chunkCmd)
}
