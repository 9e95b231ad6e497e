// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionBackend identifies the PDF conversion tool.
type ConversionBackend string

const (
	BackendNative       ConversionBackend = "native"
	BackendMarkitdown   ConversionBackend = "markitdown"
	BackendDoclingServe ConversionBackend = "docling-serve"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the converter: native, markitdown, or docling-serve.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Image is the container image used by the markitdown backend. The image
	// must read a PDF on stdin and write Markdown to stdout.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// ServeURL is the base URL of a docling-serve instance.
	ServeURL string `json:"serve_url" yaml:"serve_url" mapstructure:"serve_url"`

	// APIKey is sent as X-Api-Key to docling-serve when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single docling-serve request (default 5m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retries on 429/503 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ChunkingConfig holds settings for the chunking stage.
type ChunkingConfig struct {
	// MergeListItems folds consecutive items of one list into a single chunk.
	MergeListItems bool `json:"merge_list_items" yaml:"merge_list_items" mapstructure:"merge_list_items"`

	// IncludeFurniture emits chunks for page headers and footers.
	IncludeFurniture bool `json:"include_furniture" yaml:"include_furniture" mapstructure:"include_furniture"`

	// MaxChars splits chunks longer than this many characters. Zero disables splitting.
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`
}

// DefaultChunkingConfig returns the chunking settings used when nothing is configured.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{MergeListItems: true}
}

// IndexConfig holds settings for the SQLite chunk index.
type IndexConfig struct {
	// Dir is the directory holding chunks.db and exports.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Input      string           `json:"input" yaml:"input" mapstructure:"input"`
	Output     string           `json:"output" yaml:"output" mapstructure:"output"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Chunking   ChunkingConfig   `json:"chunking" yaml:"chunking" mapstructure:"chunking"`
	Index      IndexConfig      `json:"index" yaml:"index" mapstructure:"index"`
}
