// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfchunk/internal/convert"
	"github.com/pdiddy/pdfchunk/internal/index"
	"github.com/pdiddy/pdfchunk/internal/pipeline"
	"github.com/pdiddy/pdfchunk/internal/secrets"
	"github.com/pdiddy/pdfchunk/pkg/types"
)

// setDefaults registers every config key so environment variables and
// Unmarshal see them even when no config file exists.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input", pipeline.DefaultInput)
	v.SetDefault("output", pipeline.DefaultOutput)
	v.SetDefault("log_level", "info")

	v.SetDefault("conversion.backend", string(types.BackendNative))
	v.SetDefault("conversion.image", convert.DefaultMarkitdownImage)
	v.SetDefault("conversion.serve_url", convert.DefaultServeURL)
	v.SetDefault("conversion.api_key", "")
	v.SetDefault("conversion.timeout", 5*time.Minute)
	v.SetDefault("conversion.max_retries", 3)

	chunking := types.DefaultChunkingConfig()
	v.SetDefault("chunking.merge_list_items", chunking.MergeListItems)
	v.SetDefault("chunking.include_furniture", chunking.IncludeFurniture)
	v.SetDefault("chunking.max_chars", chunking.MaxChars)

	v.SetDefault("index.dir", index.DefaultDir)
	v.SetDefault("index.max_results", 20)
}

// pipelineFlags maps flag names to config keys.
var pipelineFlags = map[string]string{
	"input":             "input",
	"output":            "output",
	"backend":           "conversion.backend",
	"image":             "conversion.image",
	"serve-url":         "conversion.serve_url",
	"max-chars":         "chunking.max_chars",
	"merge-list-items":  "chunking.merge_list_items",
	"include-furniture": "chunking.include_furniture",
}

// addPipelineFlags declares the chunk pipeline flags on cmd. They are bound
// to viper when the command runs, so the root and chunk commands can
// share keys.
func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("input", "i", pipeline.DefaultInput, "PDF file to convert")
	f.StringP("output", "o", pipeline.DefaultOutput, "JSON Lines file to write")
	f.String("backend", string(types.BackendNative), "conversion backend: native, markitdown, or docling-serve")
	f.String("image", convert.DefaultMarkitdownImage, "container image for the markitdown backend")
	f.String("serve-url", convert.DefaultServeURL, "docling-serve base URL")
	f.Int("max-chars", 0, "split chunks longer than this many characters (0 = off)")
	f.Bool("merge-list-items", true, "merge consecutive items of one list into a single chunk")
	f.Bool("include-furniture", false, "emit chunks for page headers, footers, and page numbers")
}

// bindFlags binds the flags of cmd listed in keys to their viper keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig assembles the pipeline configuration from viper. Secrets
// from .secrets/ fill in credentials not set in config or environment.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Conversion.APIKey = secrets.Pick(loadedSecrets, secrets.DoclingAPIKey, cfg.Conversion.APIKey)
	return cfg, nil
}
