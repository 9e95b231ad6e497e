// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jsonl writes chunks as JSON Lines records and reads them back.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/pdiddy/pdfchunk/pkg/types"
)

// maxLineSize bounds a single record when reading. Table chunks of large
// documents can run to several hundred kilobytes.
const maxLineSize = 16 << 20

// Encode writes one record per chunk to w, numbering from 0, and reports
// progress for each chunk to progress. It returns the number of records
// written.
func Encode(w io.Writer, chunks []types.Chunk, progress io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i, c := range chunks {
		fmt.Fprintf(progress, "Saving chunk %d with %d characters\n", i, utf8.RuneCountInString(c.Text))
		if err := enc.Encode(types.NewChunkRecord(i, c)); err != nil {
			return i, fmt.Errorf("encoding chunk %d: %w", i, err)
		}
	}
	return len(chunks), nil
}

// WriteFile writes chunks to path as JSON Lines, creating parent
// directories as needed. Records go to a temporary sibling that is renamed
// over path only after every record is written, so a failed run leaves
// any previous output untouched. The summary line is printed last.
func WriteFile(path string, chunks []types.Chunk, progress io.Writer) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	bw := bufio.NewWriter(tmp)
	n, err := Encode(bw, chunks, progress)
	if err != nil {
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return 0, fmt.Errorf("setting mode on %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("moving output into place at %s: %w", path, err)
	}

	fmt.Fprintf(progress, "✓ Saved %d chunks to %s\n", n, path)
	return n, nil
}

// Decode reads records from r until EOF.
func Decode(r io.Reader) ([]types.ChunkRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []types.ChunkRecord
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec types.ChunkRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return records, nil
}

// ReadFile reads every record from a JSON Lines chunk file.
func ReadFile(path string) ([]types.ChunkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}
