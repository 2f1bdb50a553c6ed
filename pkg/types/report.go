// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// HeadingStatus is the outcome of placing one outline entry as a heading in
// the extracted text.
type HeadingStatus string

const (
	HeadingSuccess HeadingStatus = "SUCCESS"

	// HeadingNotFound means the entry text was not found on its target page
	// while reading the outline.
	HeadingNotFound HeadingStatus = "FAILED_TOC_ITEM_NOT_FOUND"

	// HeadingNotMatched means the entry was found in the PDF but could not be
	// located in the extracted page text.
	HeadingNotMatched HeadingStatus = "FAILED_TOC_ITEM_NOT_MATCHED"
)

// Description returns a human-readable explanation of the status.
func (s HeadingStatus) Description() string {
	switch s {
	case HeadingSuccess:
		return "found ToC item in extracted document text"
	case HeadingNotFound:
		return "ToC item text does not appear at all in target page text (during ToC extraction step)"
	case HeadingNotMatched:
		return "ToC item found in document text during ToC parsing step but not found when matching to extracted document text"
	default:
		return string(s)
	}
}

// HeadingStatuses lists every status in report order.
var HeadingStatuses = []HeadingStatus{HeadingSuccess, HeadingNotFound, HeadingNotMatched}

// HeadingItemReport records what happened to a single outline entry.
type HeadingItemReport struct {
	Status HeadingStatus `json:"status" yaml:"status"`
	Entry  TOCEntry      `json:"entry" yaml:"entry"`

	// Line is the 0-based line index on the page that became the heading,
	// or -1 when no heading was placed.
	Line int `json:"line" yaml:"line"`

	// Score is the similarity score of the chosen line (0 when not placed).
	Score float64 `json:"score" yaml:"score"`
}

// HeadingReport summarizes heading placement for a document.
type HeadingReport struct {
	StatusCounts map[HeadingStatus]int `json:"status_counts" yaml:"status_counts"`
	Items        []HeadingItemReport   `json:"per_toc_item" yaml:"per_toc_item"`
}

// NewHeadingReport returns a report with every status count initialised to zero.
func NewHeadingReport() HeadingReport {
	counts := make(map[HeadingStatus]int, len(HeadingStatuses))
	for _, s := range HeadingStatuses {
		counts[s] = 0
	}
	return HeadingReport{StatusCounts: counts}
}

// Add appends an item and bumps its status count.
func (r *HeadingReport) Add(item HeadingItemReport) {
	if r.StatusCounts == nil {
		r.StatusCounts = make(map[HeadingStatus]int)
	}
	r.StatusCounts[item.Status]++
	r.Items = append(r.Items, item)
}

// Placed returns the number of outline entries turned into headings.
func (r HeadingReport) Placed() int {
	return r.StatusCounts[HeadingSuccess]
}
