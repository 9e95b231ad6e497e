// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/pdfchunk/internal/httputil"
	"github.com/pdiddy/pdfchunk/pkg/types"
)

const (
	// DefaultServeURL is the docling-serve address used when none is configured.
	DefaultServeURL = "http://localhost:5001"

	defaultServeTimeout = 5 * time.Minute
	convertFilePath     = "/v1/convert/file"

	// maxErrorBody bounds how much of a failed response body is quoted.
	maxErrorBody = 512
)

// serveResponse is the subset of the docling-serve conversion response we read.
type serveResponse struct {
	Document struct {
		MDContent string `json:"md_content"`
	} `json:"document"`
	Status string `json:"status"`
	Errors []struct {
		Message string `json:"error_message"`
	} `json:"errors"`
}

// DoclingServeConverter posts PDFs to a docling-serve instance, asks for
// Markdown, and parses the result into a Document.
type DoclingServeConverter struct {
	baseURL    string
	apiKey     string
	maxRetries int
	client     *http.Client
}

// NewDoclingServeConverter builds a converter for the endpoint in cfg.
func NewDoclingServeConverter(cfg types.ConversionConfig) (*DoclingServeConverter, error) {
	base := strings.TrimRight(cfg.ServeURL, "/")
	if base == "" {
		base = DefaultServeURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("docling-serve URL %q must start with http:// or https://", cfg.ServeURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultServeTimeout
	}

	return &DoclingServeConverter{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Convert uploads the PDF at pdfPath and returns the parsed document.
func (d *DoclingServeConverter) Convert(ctx context.Context, pdfPath string) (*types.Document, error) {
	body, contentType, err := multipartPDF(pdfPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+convertFilePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if d.apiKey != "" {
		req.Header.Set("X-Api-Key", d.apiKey)
	}

	slog.Debug("posting to docling-serve", "url", req.URL.String(), "bytes", len(body))
	resp, err := httputil.DoWithRetry(ctx, d.client, req, d.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("converting %s with docling-serve: %w", pdfPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("docling-serve returned %d for %s: %s",
			resp.StatusCode, pdfPath, strings.TrimSpace(string(msg)))
	}

	var sr serveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding docling-serve response: %w", err)
	}

	switch sr.Status {
	case "success", "partial_success", "":
	default:
		var msgs []string
		for _, e := range sr.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("docling-serve conversion of %s: status %s: %s",
			pdfPath, sr.Status, strings.Join(msgs, "; "))
	}
	if sr.Status == "partial_success" {
		slog.Warn("docling-serve converted document partially", "path", pdfPath, "errors", len(sr.Errors))
	}

	if strings.TrimSpace(sr.Document.MDContent) == "" {
		return nil, fmt.Errorf("docling-serve on %s: %w", pdfPath, ErrEmptyOutput)
	}

	return ParseMarkdown(documentName(pdfPath), pdfPath, []byte(sr.Document.MDContent)), nil
}

// multipartPDF encodes the file as the "files" form field with a Markdown
// target format. The body is buffered so retries can replay it.
func multipartPDF(pdfPath string) ([]byte, string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("to_formats", "md"); err != nil {
		return nil, "", err
	}
	part, err := mw.CreateFormFile("files", filepath.Base(pdfPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
