// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LinkKind describes where an outline entry points.
type LinkKind string

const (
	// LinkNone means the entry has no usable destination.
	LinkNone LinkKind = "none"
	// LinkGoTo is a destination inside the same document.
	LinkGoTo LinkKind = "goto"
	// LinkNamed is a named destination that could not be resolved to a page.
	LinkNamed LinkKind = "named"
)

// Link is the destination of an outline entry.
type Link struct {
	Kind LinkKind `json:"kind" yaml:"kind"`

	// TargetY is the vertical position on the page the entry points to, in
	// PDF user space (origin bottom-left). Nil when the destination does not
	// carry one (e.g. /Fit).
	TargetY *float64 `json:"target_y,omitempty" yaml:"target_y,omitempty"`
}

// MatchReason records how an outline entry was located on its page.
type MatchReason string

const (
	MatchSinglePerfect      MatchReason = "SINGLE_PERFECT_MATCH"
	MatchLargestFontPerfect MatchReason = "LARGEST_FONT_PERFECT_MATCH"
	MatchApproxClosest      MatchReason = "APPROX_MATCH_CLOSEST_TO_TARGET"
	MatchNone               MatchReason = "NO_MATCH"
)

// TOCEntry is one item of the PDF outline (table of contents) together with
// what was learned about it from the target page's text.
type TOCEntry struct {
	// Level is the nesting depth, starting at 1 for top-level entries.
	Level int `json:"level" yaml:"level"`

	// Title is the entry text as stored in the outline.
	Title string `json:"title" yaml:"title"`

	// Page is the 1-based page number the entry points to.
	Page int `json:"page" yaml:"page"`

	Link Link `json:"link" yaml:"link"`

	// FoundInText reports whether a text block on the page contains the title.
	FoundInText bool `json:"found_in_text" yaml:"found_in_text"`

	MatchReason MatchReason `json:"match_reason,omitempty" yaml:"match_reason,omitempty"`

	// TextBefore is the text of the block preceding the matched block.
	TextBefore string `json:"text_before,omitempty" yaml:"text_before,omitempty"`

	// MatchingText is the text of the matched block.
	MatchingText string `json:"matching_text,omitempty" yaml:"matching_text,omitempty"`

	// TextAfter is the text of the block following the matched block.
	TextAfter string `json:"text_after,omitempty" yaml:"text_after,omitempty"`
}

// TextBlock is a run of text lines on a page, as grouped by layout analysis.
type TextBlock struct {
	// Index is the block's position in reading order (0-based).
	Index int `json:"index" yaml:"index"`

	// Text is the block text with whitespace collapsed to single spaces.
	Text string `json:"text" yaml:"text"`

	// MaxFontSize is the largest font size of any fragment in the block.
	MaxFontSize float64 `json:"max_font_size" yaml:"max_font_size"`

	// Top is the upper edge of the block in PDF user space.
	Top float64 `json:"top" yaml:"top"`
}
