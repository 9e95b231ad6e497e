// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns a PDF into a hierarchical types.Document using
// pluggable backends: a pure-Go text-layer reader, a markitdown container,
// or a docling-serve HTTP endpoint.
package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfchunk/internal/container"
	"github.com/pdiddy/pdfchunk/pkg/types"
)

var (
	// ErrUnknownBackend is returned by New for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown conversion backend")

	// ErrEmptyOutput is returned when a backend produced no content.
	ErrEmptyOutput = errors.New("converter produced empty output")
)

// Converter transforms a PDF file into a structured Document.
type Converter interface {
	// Convert reads the PDF at pdfPath and returns its document model.
	Convert(ctx context.Context, pdfPath string) (*types.Document, error)
}

// New builds the converter selected by cfg.Backend. An empty backend
// selects the native converter.
func New(ctx context.Context, cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case "", types.BackendNative:
		return NewNativeConverter(), nil
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime(ctx, "")
		if err != nil {
			return nil, err
		}
		return NewMarkitdownConverter(ctx, rt, cfg.Image)
	case types.BackendDoclingServe:
		return NewDoclingServeConverter(cfg)
	default:
		return nil, fmt.Errorf("%w %q: use %s, %s, or %s", ErrUnknownBackend, cfg.Backend,
			types.BackendNative, types.BackendMarkitdown, types.BackendDoclingServe)
	}
}

// documentName derives the document name from its file path.
func documentName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Format selects how WriteDocument encodes a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// WriteDocument encodes doc to w as indented JSON or YAML.
func WriteDocument(w io.Writer, doc *types.Document, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertBatch converts each PDF and writes its document model to
// outDir/<name>.<format>, printing per-file status to w. Existing outputs
// are skipped unless force is set.
func ConvertBatch(ctx context.Context, c Converter, pdfPaths []string, outDir string, format Format, force bool, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range pdfPaths {
		name := documentName(p)
		outPath := filepath.Join(outDir, name+"."+string(format))

		if _, err := os.Stat(outPath); err == nil && !force {
			fmt.Fprintf(w, "skipped:   %s (already exists)\n", name)
			result.Skipped++
			continue
		}

		if err := convertOne(ctx, c, p, outPath, format); err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
			result.Failed++
			continue
		}

		fmt.Fprintf(w, "converted: %s\n", name)
		result.Converted++
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

func convertOne(ctx context.Context, c Converter, pdfPath, outPath string, format Format) error {
	doc, err := c.Convert(ctx, pdfPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteDocument(f, doc, format); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return f.Close()
}
