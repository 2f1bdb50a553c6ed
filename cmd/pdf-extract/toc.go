// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-extract/internal/outline"
	"github.com/pdiddy/pdf-extract/internal/toc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

var tocCmd = &cobra.Command{
	Use:   "toc <file.pdf>",
	Short: "Print the PDF outline and where each entry appears on its page",
	Long: `Toc reads the PDF outline (bookmarks) and locates every entry among the
text blocks of the page it points to. Each entry reports how it was matched:
SINGLE_PERFECT_MATCH, LARGEST_FONT_PERFECT_MATCH,
APPROX_MATCH_CLOSEST_TO_TARGET or NO_MATCH, with the text of the blocks
before and after the match.`,
	Args: cobra.ExactArgs(1),
	RunE: runTOC,
}

func init() {
	tocCmd.Flags().String("format", "yaml", "output format: yaml or json")
	tocCmd.Flags().Bool("summary", false, "print match counts to stderr")

	rootCmd.AddCommand(tocCmd)
}

func runTOC(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	input, err := resolveInput(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	doc, err := outline.Open(input)
	if err != nil {
		return err
	}
	defer doc.Close()

	entries, err := toc.Extract(ctx, doc)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []types.TOCEntry{}
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		counts := toc.Summary(entries)
		for _, r := range []types.MatchReason{types.MatchSinglePerfect, types.MatchLargestFontPerfect, types.MatchApproxClosest, types.MatchNone} {
			fmt.Fprintf(os.Stderr, "%-32s %d\n", r, counts[r])
		}
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	enc := yaml.NewEncoder(out)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
