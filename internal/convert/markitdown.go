// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/pdfchunk/internal/container"
	"github.com/pdiddy/pdfchunk/pkg/types"
)

// DefaultMarkitdownImage is used when no image is configured.
const DefaultMarkitdownImage = "markitdown:latest"

// MarkitdownConverter converts PDFs by piping them through the markitdown
// container image and parsing the Markdown it prints. It depends on a
// container.Runtime (docker or podman) injected at construction time.
type MarkitdownConverter struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run image. It verifies that the image exists locally before
// returning.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime, image string) (*MarkitdownConverter, error) {
	if image == "" {
		image = DefaultMarkitdownImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt, image: image}, nil
}

// Convert pipes the PDF at pdfPath through the container and parses the
// resulting Markdown into a Document.
func (m *MarkitdownConverter) Convert(ctx context.Context, pdfPath string) (*types.Document, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, container.RunSpec{Image: m.image}, f, &out); err != nil {
		return nil, fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}

	if len(bytes.TrimSpace(out.Bytes())) == 0 {
		return nil, fmt.Errorf("markitdown on %s: %w", pdfPath, ErrEmptyOutput)
	}

	return ParseMarkdown(documentName(pdfPath), pdfPath, out.Bytes()), nil
}
