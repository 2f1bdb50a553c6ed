// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds settings for fetching PDFs given as http(s) URLs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (0 uses the default of 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// PdftotextConfig holds settings for the poppler pdftotext invocation.
type PdftotextConfig struct {
	// Binary is the pdftotext executable name or path.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Encoding is passed as -enc (default "UTF-8").
	Encoding string `json:"encoding" yaml:"encoding" mapstructure:"encoding"`

	// EOL is passed as -eol (default "unix").
	EOL string `json:"eol" yaml:"eol" mapstructure:"eol"`

	// Layout adds -layout to preserve the physical layout of the page.
	Layout bool `json:"layout" yaml:"layout" mapstructure:"layout"`

	// NoPageBreaks adds -nopgbrk. Stream mode ignores it because page
	// splitting relies on the form feeds.
	NoPageBreaks bool `json:"no_page_breaks" yaml:"no_page_breaks" mapstructure:"no_page_breaks"`

	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Image runs pdftotext inside this container image instead of on the host.
	Image string `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
}

// MarkerConfig holds settings for the marker_single invocation.
type MarkerConfig struct {
	// Binary is the marker_single executable name or path.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// OutputFormat is passed as --output_format (default "markdown").
	OutputFormat string `json:"output_format" yaml:"output_format" mapstructure:"output_format"`

	// Paginate adds --paginate_output.
	Paginate bool `json:"paginate" yaml:"paginate" mapstructure:"paginate"`

	// UseLLM adds --use_llm.
	UseLLM bool `json:"use_llm" yaml:"use_llm" mapstructure:"use_llm"`

	// DisableImageExtraction adds --disable_image_extraction.
	DisableImageExtraction bool `json:"disable_image_extraction" yaml:"disable_image_extraction" mapstructure:"disable_image_extraction"`

	// LLMService is passed as --llm_service.
	LLMService string `json:"llm_service" yaml:"llm_service" mapstructure:"llm_service"`

	// OpenAIBaseURL is passed as --openai_base_url.
	OpenAIBaseURL string `json:"openai_base_url" yaml:"openai_base_url" mapstructure:"openai_base_url"`

	// OpenAIAPIKey is passed as --openai_api_key. Falls back to the
	// openai-api-key secret.
	OpenAIAPIKey string `json:"-" yaml:"-" mapstructure:"openai_api_key"`

	// OpenAIModel is passed as --openai_model.
	OpenAIModel string `json:"openai_model" yaml:"openai_model" mapstructure:"openai_model"`

	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Image runs marker inside this container image instead of on the host.
	Image string `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
}

// HeadingsConfig controls how annotated text is assembled.
type HeadingsConfig struct {
	// PageMarkers inserts an HTML comment before every page.
	PageMarkers bool `json:"page_markers" yaml:"page_markers" mapstructure:"page_markers"`
}

// ConversionBackend identifies the PDF conversion tool.
type ConversionBackend string

const (
	// BackendPdftotext emits plain pdftotext output.
	BackendPdftotext ConversionBackend = "pdftotext"
	// BackendPopplerTOC combines pdftotext output with headings from the outline.
	BackendPopplerTOC ConversionBackend = "poppler-toc"
	// BackendMarker runs marker_single.
	BackendMarker ConversionBackend = "marker"
	// BackendNative converts in-process without external tools.
	BackendNative ConversionBackend = "native"
)

// Backends lists the accepted backends in display order.
var Backends = []ConversionBackend{BackendPopplerTOC, BackendPdftotext, BackendMarker, BackendNative}

// Valid reports whether b names a known backend.
func (b ConversionBackend) Valid() bool {
	for _, known := range Backends {
		if b == known {
			return true
		}
	}
	return false
}

// Ext returns the output file extension for the backend.
func (b ConversionBackend) Ext() string {
	if b == BackendPdftotext {
		return ".txt"
	}
	return ".md"
}

// ConversionConfig holds settings for the convert command.
type ConversionConfig struct {
	// Backend selects the conversion tool.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// OutputDir receives converted files (default "converted").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Force re-converts files whose output already exists.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`

	// Workers bounds concurrent conversions in a batch (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// Frontmatter prepends YAML frontmatter to Markdown output.
	Frontmatter bool `json:"frontmatter" yaml:"frontmatter" mapstructure:"frontmatter"`
}

// StoreConfig holds settings for the conversion store.
type StoreConfig struct {
	// Dir is the directory holding the SQLite database and exports.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// Config groups every configurable part of pdf-extract.
type Config struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:"http"`
	Pdftotext  PdftotextConfig  `json:"pdftotext" yaml:"pdftotext" mapstructure:"pdftotext"`
	Marker     MarkerConfig     `json:"marker" yaml:"marker" mapstructure:"marker"`
	Headings   HeadingsConfig   `json:"headings" yaml:"headings" mapstructure:"headings"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
}

// DefaultPdftotextConfig returns the settings of the documented invocation
// `pdftotext -enc UTF-8 -eol unix -nopgbrk -layout`.
func DefaultPdftotextConfig() PdftotextConfig {
	return PdftotextConfig{
		Binary:       "pdftotext",
		Encoding:     "UTF-8",
		EOL:          "unix",
		Layout:       true,
		NoPageBreaks: true,
		Timeout:      5 * time.Minute,
	}
}

// DefaultMarkerConfig returns the settings of the documented marker_single
// invocation. The OpenAI endpoint, key and model have no defaults.
func DefaultMarkerConfig() MarkerConfig {
	return MarkerConfig{
		Binary:                 "marker_single",
		OutputFormat:           "markdown",
		Paginate:               true,
		UseLLM:                 true,
		DisableImageExtraction: true,
		LLMService:             "marker.services.openai.OpenAIService",
		Timeout:                30 * time.Minute,
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "pdf-extract/0.1",
		},
		Pdftotext: DefaultPdftotextConfig(),
		Marker:    DefaultMarkerConfig(),
		Conversion: ConversionConfig{
			Backend:     BackendPopplerTOC,
			OutputDir:   "converted",
			Workers:     1,
			Frontmatter: true,
		},
		Store: StoreConfig{
			Dir:        ".pdf-extract",
			MaxResults: 20,
		},
	}
}
