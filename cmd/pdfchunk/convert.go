// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfchunk/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDFs to the intermediate document model",
	Long: `Convert runs only the conversion stage and writes each document model
as JSON or YAML to --out-dir, named after the PDF. With no arguments the
configured input is converted. Existing outputs are skipped unless
--force is given.

Use it to inspect what the chunker sees: item labels, heading levels,
list groups, tables, and caption links.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, pipelineFlags); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format != string(convert.FormatJSON) && format != string(convert.FormatYAML) {
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
	outDir, _ := cmd.Flags().GetString("out-dir")
	force, _ := cmd.Flags().GetBool("force")

	paths := args
	if len(paths) == 0 {
		paths = []string{cfg.Input}
	}

	conv, err := convert.New(cmd.Context(), cfg.Conversion)
	if err != nil {
		return err
	}

	result := convert.ConvertBatch(cmd.Context(), conv, paths, outDir, convert.Format(format), force, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}

func init() {
	f := convertCmd.Flags()
	f.StringP("input", "i", "", "PDF file to convert when no arguments are given")
	f.String("backend", "native", "conversion backend: native, markitdown, or docling-serve")
	f.String("image", convert.DefaultMarkitdownImage, "container image for the markitdown backend")
	f.String("serve-url", convert.DefaultServeURL, "docling-serve base URL")
	f.String("format", "json", "output format: json or yaml")
	f.String("out-dir", "target/docs", "directory for document files")
	f.Bool("force", false, "overwrite existing outputs")

	rootCmd.AddCommand(convertCmd)
}
