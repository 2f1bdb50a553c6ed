// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package headings turns matched outline entries into Markdown headings in
// pdftotext page text and reports how every entry fared.
//
// An entry's heading line is chosen among the lines of its target page that
// contain the entry title. Each candidate is scored by word-set similarity
// of the line itself to the title and, where the outline match recorded
// them, of the surrounding words to the text before and after the matched
// block. The best-scoring line (earliest on ties) is rewritten as a heading
// of the entry's level.
package headings

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/log"
	"github.com/pdiddy/pdf-extract/internal/toc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets score 0.
func Jaccard(a, b []string) float64 {
	set := make(map[string]uint8, len(a)+len(b))
	for _, w := range a {
		set[w] |= 1
	}
	for _, w := range b {
		set[w] |= 2
	}
	if len(set) == 0 {
		return 0
	}
	inter := 0
	for _, m := range set {
		if m == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}

func words(s string) []string {
	return strings.Fields(toc.Normalize(s))
}

// Annotate places a heading for every entry in pages (one string per page,
// pages numbered from 1) and returns the annotated document with pages
// joined by newlines.
func Annotate(pages []string, entries []types.TOCEntry, cfg types.HeadingsConfig) (string, types.HeadingReport) {
	lines := make([][]string, len(pages))
	for i, p := range pages {
		lines[i] = strings.Split(p, "\n")
	}
	// placed maps {page, line} to the heading level. Lines are rewritten
	// only after every entry is scored against the unmodified text.
	placed := make(map[[2]int]int)
	report := types.NewHeadingReport()

	for _, entry := range entries {
		item := types.HeadingItemReport{Entry: entry, Line: -1}

		switch {
		case !entry.FoundInText:
			item.Status = types.HeadingNotFound
		case entry.Page < 1 || entry.Page > len(pages):
			log.Warn("outline entry outside page range", "title", entry.Title, "page", entry.Page)
			item.Status = types.HeadingNotMatched
		default:
			page := lines[entry.Page-1]
			loc, score := place(page, entry, func(i int) bool {
				_, ok := placed[[2]int{entry.Page, i}]
				return ok
			})
			if loc < 0 {
				item.Status = types.HeadingNotMatched
				break
			}
			placed[[2]int{entry.Page, loc}] = entry.Level
			item.Status = types.HeadingSuccess
			item.Line = loc
			item.Score = score
		}

		log.Debug("heading placement", "title", entry.Title, "status", item.Status, "line", item.Line)
		report.Add(item)
	}

	for key, level := range placed {
		page := lines[key[0]-1]
		page[key[1]] = heading(level, page[key[1]])
	}

	var b strings.Builder
	for i, page := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if cfg.PageMarkers {
			fmt.Fprintf(&b, "<!-- page %d -->\n", i+1)
		}
		b.WriteString(strings.Join(page, "\n"))
	}
	return b.String(), report
}

// place returns the index of the best heading line for entry on page, or -1.
func place(page []string, entry types.TOCEntry, taken func(int) bool) (int, float64) {
	title := toc.Normalize(entry.Title)
	if title == "" {
		return -1, 0
	}
	titleWords := words(entry.Title)
	beforeWords := words(entry.TextBefore)
	afterWords := words(entry.TextAfter)

	best, bestScore := -1, 0.0
	for loc, line := range page {
		if taken(loc) || !strings.Contains(toc.Normalize(line), title) {
			continue
		}

		scores := []float64{}
		if len(beforeWords) > 0 && loc > 0 {
			before := words(strings.Join(page[:loc], "\n"))
			scores = append(scores, Jaccard(tail(before, len(beforeWords)), beforeWords))
		}
		scores = append(scores, Jaccard(words(line), titleWords))
		if len(afterWords) > 0 && loc+1 < len(page) {
			after := words(strings.Join(page[loc+1:], "\n"))
			scores = append(scores, Jaccard(head(after, len(afterWords)), afterWords))
		}

		score := mean(scores)
		if best < 0 || score > bestScore {
			best, bestScore = loc, score
		}
	}
	return best, bestScore
}

func heading(level int, line string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + strings.TrimSpace(line)
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func tail(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
