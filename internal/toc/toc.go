// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toc locates each outline entry of a PDF in the text of the page
// it points to.
//
// For every entry the blocks of the target page are compared with the entry
// title after normalization:
//
//  1. Blocks whose whole text equals the title are exact matches. A single
//     exact match wins outright; among several, the block with the largest
//     font wins, the earliest block on ties.
//  2. Otherwise blocks containing the title are candidates, and the one whose
//     top edge is closest to the entry's link target wins. Without a target
//     position the earliest candidate wins.
//  3. Otherwise the entry is not found.
package toc

import (
	"context"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/pdf-extract/internal/log"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// PageSource provides the outline and per-page text blocks of a document.
type PageSource interface {
	Outline() ([]types.TOCEntry, error)
	Blocks(page int) ([]types.TextBlock, error)
}

// Normalize returns a lenient lookup form of s: whitespace runs collapsed to
// single spaces, NFKC-normalized, lower-cased and trimmed.
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = norm.NFKC.String(s)
	return strings.TrimSpace(strings.ToLower(s))
}

type candidate struct {
	pos   int
	block types.TextBlock
}

// Match locates entry among blocks (the blocks of its target page, in
// reading order) and records the result on entry.
func Match(entry *types.TOCEntry, blocks []types.TextBlock) {
	entry.FoundInText = false
	entry.TextBefore, entry.MatchingText, entry.TextAfter = "", "", ""
	entry.MatchReason = types.MatchNone

	lookup := Normalize(entry.Title)
	if lookup == "" {
		return
	}

	var exact, containing []candidate
	for i, b := range blocks {
		text := Normalize(b.Text)
		switch {
		case text == lookup:
			exact = append(exact, candidate{pos: i, block: b})
			containing = append(containing, candidate{pos: i, block: b})
		case strings.Contains(text, lookup):
			containing = append(containing, candidate{pos: i, block: b})
		}
	}

	if len(exact) > 0 {
		sort.SliceStable(exact, func(i, j int) bool {
			if exact[i].block.MaxFontSize != exact[j].block.MaxFontSize {
				return exact[i].block.MaxFontSize > exact[j].block.MaxFontSize
			}
			return exact[i].pos < exact[j].pos
		})
		reason := types.MatchLargestFontPerfect
		if len(exact) == 1 {
			reason = types.MatchSinglePerfect
		}
		accept(entry, blocks, exact[0].pos, reason)
		return
	}

	if len(containing) > 0 {
		if y := entry.Link.TargetY; entry.Link.Kind == types.LinkGoTo && y != nil {
			target := *y
			sort.SliceStable(containing, func(i, j int) bool {
				return math.Abs(containing[i].block.Top-target) < math.Abs(containing[j].block.Top-target)
			})
		}
		accept(entry, blocks, containing[0].pos, types.MatchApproxClosest)
	}
}

func accept(entry *types.TOCEntry, blocks []types.TextBlock, pos int, reason types.MatchReason) {
	entry.FoundInText = true
	entry.MatchReason = reason
	entry.MatchingText = blocks[pos].Text
	if pos > 0 {
		entry.TextBefore = blocks[pos-1].Text
	}
	if pos+1 < len(blocks) {
		entry.TextAfter = blocks[pos+1].Text
	}
}

// Extract reads the outline of src and matches every entry against the
// blocks of its target page. Pages whose blocks cannot be read leave their
// entries unmatched.
func Extract(ctx context.Context, src PageSource) ([]types.TOCEntry, error) {
	entries, err := src.Outline()
	if err != nil {
		return nil, err
	}

	cache := make(map[int][]types.TextBlock)
	failed := make(map[int]bool)

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := &entries[i]

		blocks, ok := cache[entry.Page]
		if !ok && !failed[entry.Page] {
			blocks, err = src.Blocks(entry.Page)
			if err != nil {
				log.Warn("reading page blocks", "page", entry.Page, "error", err)
				failed[entry.Page] = true
			} else {
				cache[entry.Page] = blocks
			}
		}

		Match(entry, blocks)
		log.Debug("outline entry matched",
			"title", entry.Title, "page", entry.Page, "reason", entry.MatchReason)
	}
	return entries, nil
}

// Summary counts entries per match reason.
func Summary(entries []types.TOCEntry) map[types.MatchReason]int {
	counts := make(map[types.MatchReason]int)
	for _, e := range entries {
		counts[e.MatchReason]++
	}
	return counts
}
