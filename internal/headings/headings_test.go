// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package headings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"one empty", []string{"a"}, nil, 0},
		{"identical", []string{"a", "b"}, []string{"b", "a"}, 1},
		{"half overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
		{"duplicates ignored", []string{"a", "a", "b"}, []string{"a"}, 0.5},
		{"disjoint", []string{"x"}, []string{"y"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func found(level int, title string, page int, before, after string) types.TOCEntry {
	return types.TOCEntry{
		Level:       level,
		Title:       title,
		Page:        page,
		FoundInText: true,
		MatchReason: types.MatchSinglePerfect,
		TextBefore:  before,
		TextAfter:   after,
	}
}

func TestAnnotate(t *testing.T) {
	pages := []string{
		"  Annual Report 2024\nContents\n  1 Introduction ........ 2\n",
		"   1 Introduction\nThis report covers the year.\n  1.1 Scope\nOnly core operations.",
	}
	entries := []types.TOCEntry{
		found(1, "Introduction", 2, "", "This report covers the year."),
		found(2, "1.1 Scope", 2, "This report covers the year.", "Only core operations."),
		{Level: 1, Title: "Appendix", Page: 2, MatchReason: types.MatchNone},
		found(1, "Glossary", 2, "", ""),
		found(1, "Ghost", 9, "", ""),
	}

	text, report := Annotate(pages, entries, types.HeadingsConfig{})

	lines := strings.Split(text, "\n")
	assert.Contains(t, lines, "# 1 Introduction")
	assert.Contains(t, lines, "## 1.1 Scope")
	assert.Contains(t, lines, "  1 Introduction ........ 2", "contents page line is left alone")

	assert.Equal(t, 2, report.Placed())
	assert.Equal(t, 1, report.StatusCounts[types.HeadingNotFound])
	assert.Equal(t, 2, report.StatusCounts[types.HeadingNotMatched])
	require.Len(t, report.Items, 5)
	assert.Equal(t, 0, report.Items[0].Line)
	assert.Equal(t, 2, report.Items[1].Line)
	assert.Equal(t, -1, report.Items[2].Line)
	assert.Greater(t, report.Items[0].Score, 0.0)
}

func TestAnnotatePrefersContext(t *testing.T) {
	page := strings.Join([]string{
		"See Results for the numbers.",
		"Methods",
		"Results",
		"Table 1 lists the measurements.",
	}, "\n")
	entries := []types.TOCEntry{found(1, "Results", 1, "Methods", "Table 1 lists the measurements.")}

	text, report := Annotate([]string{page}, entries, types.HeadingsConfig{})

	require.Len(t, report.Items, 1)
	assert.Equal(t, types.HeadingSuccess, report.Items[0].Status)
	assert.Equal(t, 2, report.Items[0].Line)
	assert.InDelta(t, 1.0, report.Items[0].Score, 1e-9)
	assert.Contains(t, text, "\n# Results\n")
}

func TestAnnotateClaimedLines(t *testing.T) {
	page := "Summary\nbody\nSummary\nmore"
	entries := []types.TOCEntry{
		found(1, "Summary", 1, "", ""),
		found(2, "Summary", 1, "", ""),
		found(2, "Summary", 1, "", ""),
	}

	text, report := Annotate([]string{page}, entries, types.HeadingsConfig{})

	assert.Equal(t, "# Summary\nbody\n## Summary\nmore", text)
	assert.Equal(t, 0, report.Items[0].Line)
	assert.Equal(t, 2, report.Items[1].Line)
	assert.Equal(t, types.HeadingNotMatched, report.Items[2].Status)
}

func TestAnnotateScoresUnmodifiedText(t *testing.T) {
	page := "preamble\nIntro\ntext\nScope"
	entries := []types.TOCEntry{
		found(1, "Intro", 1, "", ""),
		found(1, "Scope", 1, "preamble Intro text", ""),
	}

	text, report := Annotate([]string{page}, entries, types.HeadingsConfig{})

	assert.Equal(t, "preamble\n# Intro\ntext\n# Scope", text)
	require.Len(t, report.Items, 2)
	assert.Equal(t, 3, report.Items[1].Line)
	assert.InDelta(t, 1.0, report.Items[1].Score, 1e-9, "context excludes headings placed earlier")
}

func TestAnnotatePageMarkers(t *testing.T) {
	text, report := Annotate([]string{"one", "two"}, nil, types.HeadingsConfig{PageMarkers: true})

	assert.Equal(t, "<!-- page 1 -->\none\n<!-- page 2 -->\ntwo", text)
	assert.Empty(t, report.Items)
	assert.Equal(t, 0, report.Placed())
}
