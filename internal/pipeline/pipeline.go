// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the convert, chunk, and serialize stages over one
// PDF in a single synchronous pass.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pdiddy/pdfchunk/internal/chunk"
	"github.com/pdiddy/pdfchunk/internal/convert"
	"github.com/pdiddy/pdfchunk/internal/jsonl"
)

const (
	// DefaultInput is the PDF read when no input is configured.
	DefaultInput = "./target/generated-docs/index.pdf"
	// DefaultOutput is the JSON Lines file written when no output is configured.
	DefaultOutput = "./target/index_chunks.jsonl"
)

// Summary describes a completed run.
type Summary struct {
	Input    string
	Output   string
	Items    int
	Chunks   int
	Duration time.Duration
}

// Run converts the PDF at in, chunks the resulting document, and writes
// the chunks to out. Per-chunk progress and the final summary line go to
// w. Nothing is written to out unless every stage succeeds.
func Run(ctx context.Context, conv convert.Converter, chunker chunk.Chunker, in, out string, w io.Writer) (Summary, error) {
	start := time.Now()
	sum := Summary{Input: in, Output: out}

	if _, err := os.Stat(in); err != nil {
		return sum, fmt.Errorf("input %s: %w", in, err)
	}

	doc, err := conv.Convert(ctx, in)
	if err != nil {
		return sum, fmt.Errorf("converting %s: %w", in, err)
	}
	if doc == nil {
		return sum, fmt.Errorf("converting %s: %w", in, convert.ErrEmptyOutput)
	}
	sum.Items = len(doc.Items)
	slog.Debug("converted document", "name", doc.Name, "pages", doc.Pages, "items", sum.Items)

	chunks, err := chunker.Chunk(doc)
	if err != nil {
		return sum, fmt.Errorf("chunking %s: %w", in, err)
	}

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	n, err := jsonl.WriteFile(out, chunks, w)
	if err != nil {
		return sum, err
	}
	sum.Chunks = n
	sum.Duration = time.Since(start)
	slog.Debug("pipeline complete", "chunks", n, "elapsed", sum.Duration)
	return sum, nil
}
