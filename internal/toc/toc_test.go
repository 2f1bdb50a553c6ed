// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package toc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

func blocks(bs ...types.TextBlock) []types.TextBlock {
	for i := range bs {
		bs[i].Index = i
	}
	return bs
}

func yPtr(y float64) *float64 { return &y }

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Chapter\t 1\n Overview ", "chapter 1 overview"},
		{"ﬁnal Report", "final report"},
		{"Ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name       string
		entry      types.TOCEntry
		blocks     []types.TextBlock
		wantReason types.MatchReason
		wantText   string
		wantBefore string
		wantAfter  string
	}{
		{
			name:  "single exact match",
			entry: types.TOCEntry{Title: "Scope"},
			blocks: blocks(
				types.TextBlock{Text: "Preamble", MaxFontSize: 10},
				types.TextBlock{Text: "SCOPE", MaxFontSize: 14},
				types.TextBlock{Text: "This act applies to the scope of ...", MaxFontSize: 10},
			),
			wantReason: types.MatchSinglePerfect,
			wantText:   "SCOPE",
			wantBefore: "Preamble",
			wantAfter:  "This act applies to the scope of ...",
		},
		{
			name:  "largest font among exact matches",
			entry: types.TOCEntry{Title: "Act"},
			blocks: blocks(
				types.TextBlock{Text: "Act", MaxFontSize: 9},
				types.TextBlock{Text: "Act", MaxFontSize: 16},
				types.TextBlock{Text: "Body", MaxFontSize: 10},
			),
			wantReason: types.MatchLargestFontPerfect,
			wantText:   "Act",
			wantBefore: "Act",
			wantAfter:  "Body",
		},
		{
			name:  "font tie keeps earliest block",
			entry: types.TOCEntry{Title: "Notes"},
			blocks: blocks(
				types.TextBlock{Text: "Intro", MaxFontSize: 10},
				types.TextBlock{Text: "Notes", MaxFontSize: 12},
				types.TextBlock{Text: "Notes", MaxFontSize: 12},
			),
			wantReason: types.MatchLargestFontPerfect,
			wantText:   "Notes",
			wantBefore: "Intro",
			wantAfter:  "Notes",
		},
		{
			name:  "containing block closest to link target",
			entry: types.TOCEntry{Title: "Act", Link: types.Link{Kind: types.LinkGoTo, TargetY: yPtr(400)}},
			blocks: blocks(
				types.TextBlock{Text: "The POPI Act governs", Top: 700},
				types.TextBlock{Text: "Between", Top: 500},
				types.TextBlock{Text: "1. Act definitions", Top: 410},
			),
			wantReason: types.MatchApproxClosest,
			wantText:   "1. Act definitions",
			wantBefore: "Between",
		},
		{
			name:  "containing block without target takes first",
			entry: types.TOCEntry{Title: "Results"},
			blocks: blocks(
				types.TextBlock{Text: "4 Results and discussion", Top: 700},
				types.TextBlock{Text: "Results table", Top: 100},
			),
			wantReason: types.MatchApproxClosest,
			wantText:   "4 Results and discussion",
			wantAfter:  "Results table",
		},
		{
			name:       "no match",
			entry:      types.TOCEntry{Title: "Glossary"},
			blocks:     blocks(types.TextBlock{Text: "Index"}),
			wantReason: types.MatchNone,
		},
		{
			name:       "empty title never matches",
			entry:      types.TOCEntry{Title: "  "},
			blocks:     blocks(types.TextBlock{Text: "Anything"}),
			wantReason: types.MatchNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.entry
			Match(&entry, tt.blocks)
			assert.Equal(t, tt.wantReason, entry.MatchReason)
			assert.Equal(t, tt.wantReason != types.MatchNone, entry.FoundInText)
			assert.Equal(t, tt.wantText, entry.MatchingText)
			assert.Equal(t, tt.wantBefore, entry.TextBefore)
			assert.Equal(t, tt.wantAfter, entry.TextAfter)
		})
	}
}

// fakeSource serves a fixed outline and per-page blocks.
type fakeSource struct {
	outline []types.TOCEntry
	pages   map[int][]types.TextBlock
	errs    map[int]error
	calls   map[int]int
}

func (f *fakeSource) Outline() ([]types.TOCEntry, error) {
	return append([]types.TOCEntry(nil), f.outline...), nil
}

func (f *fakeSource) Blocks(page int) ([]types.TextBlock, error) {
	if f.calls == nil {
		f.calls = make(map[int]int)
	}
	f.calls[page]++
	if err := f.errs[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func TestExtract(t *testing.T) {
	src := &fakeSource{
		outline: []types.TOCEntry{
			{Level: 1, Title: "Introduction", Page: 1},
			{Level: 2, Title: "Purpose", Page: 1},
			{Level: 1, Title: "Definitions", Page: 2},
			{Level: 1, Title: "Schedule", Page: 3},
		},
		pages: map[int][]types.TextBlock{
			1: blocks(types.TextBlock{Text: "Introduction", MaxFontSize: 18}, types.TextBlock{Text: "Purpose", MaxFontSize: 14}),
			2: blocks(types.TextBlock{Text: "Nothing relevant"}),
		},
		errs: map[int]error{3: errors.New("bad content stream")},
	}

	entries, err := Extract(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, types.MatchSinglePerfect, entries[0].MatchReason)
	assert.Equal(t, "Purpose", entries[0].TextAfter)
	assert.Equal(t, types.MatchSinglePerfect, entries[1].MatchReason)
	assert.Equal(t, types.MatchNone, entries[2].MatchReason)
	assert.Equal(t, types.MatchNone, entries[3].MatchReason)
	assert.Equal(t, 1, src.calls[1], "blocks are read once per page")

	counts := Summary(entries)
	assert.Equal(t, 2, counts[types.MatchSinglePerfect])
	assert.Equal(t, 2, counts[types.MatchNone])
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Extract(ctx, &fakeSource{outline: []types.TOCEntry{{Title: "A", Page: 1}}})
	assert.ErrorIs(t, err, context.Canceled)
}
