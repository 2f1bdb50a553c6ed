// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus indicates the outcome of converting one PDF.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// Document is a PDF and the page texts extracted from it.
type Document struct {
	// ID is a slug derived from the file name (e.g. "annual-report-2024").
	ID string `json:"id" yaml:"id"`

	// SourcePath is the local filesystem path of the PDF.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// SHA256 is the hex digest of the PDF bytes.
	SHA256 string `json:"sha256" yaml:"sha256"`

	// Pages holds the extracted text of each page in order. Page N is Pages[N-1].
	Pages []string `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// PageCount returns the number of extracted pages.
func (d Document) PageCount() int {
	return len(d.Pages)
}
