// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package marker wraps the marker_single command from marker-pdf.
//
// The default argument vector is the documented invocation
//
//	marker_single --output_format markdown --paginate_output --use_llm \
//	    --disable_image_extraction \
//	    --llm_service marker.services.openai.OpenAIService \
//	    --openai_base_url <url> --openai_api_key <key> --openai_model <model> \
//	    <file.pdf>
package marker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/command"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

const openAIService = "marker.services.openai.OpenAIService"

var (
	// ErrMissingLLMConfig is returned when the OpenAI service is selected
	// without an endpoint, key or model.
	ErrMissingLLMConfig = errors.New("marker: OpenAI service needs base URL, API key and model")

	// ErrEmptyOutput is returned when marker exits cleanly but writes nothing.
	ErrEmptyOutput = errors.New("marker produced empty output")
)

// Validate checks that cfg can produce a runnable invocation.
func Validate(cfg types.MarkerConfig) error {
	if !cfg.UseLLM || cfg.LLMService != openAIService {
		return nil
	}
	var missing []string
	if cfg.OpenAIBaseURL == "" {
		missing = append(missing, "openai_base_url")
	}
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "openai_api_key")
	}
	if cfg.OpenAIModel == "" {
		missing = append(missing, "openai_model")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing %s)", ErrMissingLLMConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Args builds the marker_single argument vector. outputDir is passed as
// --output_dir when non-empty; the PDF path is always last.
func Args(cfg types.MarkerConfig, pdfPath, outputDir string) []string {
	args := make([]string, 0, 20)
	if cfg.OutputFormat != "" {
		args = append(args, "--output_format", cfg.OutputFormat)
	}
	if cfg.Paginate {
		args = append(args, "--paginate_output")
	}
	if cfg.UseLLM {
		args = append(args, "--use_llm")
	}
	if cfg.DisableImageExtraction {
		args = append(args, "--disable_image_extraction")
	}
	if cfg.UseLLM {
		if cfg.LLMService != "" {
			args = append(args, "--llm_service", cfg.LLMService)
		}
		if cfg.OpenAIBaseURL != "" {
			args = append(args, "--openai_base_url", cfg.OpenAIBaseURL)
		}
		if cfg.OpenAIAPIKey != "" {
			args = append(args, "--openai_api_key", cfg.OpenAIAPIKey)
		}
		if cfg.OpenAIModel != "" {
			args = append(args, "--openai_model", cfg.OpenAIModel)
		}
	}
	if outputDir != "" {
		args = append(args, "--output_dir", outputDir)
	}
	return append(args, pdfPath)
}

// separator matches the line marker writes before each page when
// --paginate_output is set: "{N}" followed by 48 dashes, N being the
// 0-based page id.
var separator = regexp.MustCompile(`(?m)^\{(\d+)\}-{48}[ \t]*$`)

// Page is one page of paginated marker output.
type Page struct {
	// Number is the 1-based page number.
	Number int
	Text   string
}

// SplitPages splits paginated marker Markdown into pages. Output without
// separators is returned as a single page 1. Whitespace before the first
// separator is discarded.
func SplitPages(md string) []Page {
	locs := separator.FindAllStringSubmatchIndex(md, -1)
	if len(locs) == 0 {
		if strings.TrimSpace(md) == "" {
			return nil
		}
		return []Page{{Number: 1, Text: strings.TrimSpace(md)}}
	}

	var pages []Page
	if head := strings.TrimSpace(md[:locs[0][0]]); head != "" {
		pages = append(pages, Page{Number: 0, Text: head})
	}
	for i, loc := range locs {
		id, _ := strconv.Atoi(md[loc[2]:loc[3]])
		end := len(md)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		pages = append(pages, Page{Number: id + 1, Text: strings.TrimSpace(md[loc[1]:end])})
	}
	return pages
}

// Converter runs marker_single and returns its Markdown output.
type Converter struct {
	cfg    types.MarkerConfig
	runner command.Runner
}

// NewConverter validates cfg and returns a Converter. Empty fields fall back
// to the documented defaults.
func NewConverter(cfg types.MarkerConfig, runner command.Runner) (*Converter, error) {
	def := types.DefaultMarkerConfig()
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = def.OutputFormat
	}
	if cfg.UseLLM && cfg.LLMService == "" {
		cfg.LLMService = def.LLMService
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if runner == nil {
		runner = command.Local{}
	}
	return &Converter{cfg: cfg, runner: runner}, nil
}

// Convert runs marker on the PDF at pdfPath in a scratch output directory
// and returns the content of <outdir>/<stem>/<stem>.md.
func (c *Converter) Convert(ctx context.Context, pdfPath string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	absPDF, err := filepath.Abs(pdfPath)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", pdfPath, err)
	}
	if _, err := os.Stat(absPDF); err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}

	outDir, err := os.MkdirTemp("", "pdf-extract-marker-*")
	if err != nil {
		return "", fmt.Errorf("creating marker output directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	err = c.runner.Run(ctx, command.Cmd{
		Name:   c.cfg.Binary,
		Args:   Args(c.cfg, absPDF, outDir),
		Mounts: []string{filepath.Dir(absPDF), outDir},
	})
	if err != nil {
		return "", fmt.Errorf("converting %s with marker: %w", pdfPath, err)
	}

	data, err := os.ReadFile(OutputPath(outDir, absPDF, c.cfg.OutputFormat))
	if err != nil {
		return "", fmt.Errorf("reading marker output for %s: %w", pdfPath, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w for %s", ErrEmptyOutput, pdfPath)
	}
	return string(data), nil
}

// OutputPath returns where marker writes the converted file for pdfPath.
func OutputPath(outDir, pdfPath, format string) string {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	ext := ".md"
	switch format {
	case "json":
		ext = ".json"
	case "html":
		ext = ".html"
	}
	return filepath.Join(outDir, stem, stem+ext)
}
