// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/command"
	"github.com/pdiddy/pdf-extract/internal/fetch"
	"github.com/pdiddy/pdf-extract/internal/pdftotext"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

var pdftotextCmd = &cobra.Command{
	Use:   "pdftotext <input.pdf> [output.txt]",
	Short: "Extract text with poppler's pdftotext",
	Long: `Pdftotext runs

  pdftotext -enc UTF-8 -eol unix -nopgbrk -layout input.pdf output.txt

When no output file is given the PDF is streamed through pdftotext and the
text is printed to stdout, pages separated by form feeds. --pages prints one
page per block with a page header instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPdftotext,
}

func init() {
	pdftotextCmd.Flags().Bool("pages", false, "print page headers between pages (stdout mode)")
	pdftotextCmd.Flags().String("image", "", "run pdftotext inside this container image")
	bindFlag(pdftotextCmd, "pdftotext.image", "image")

	rootCmd.AddCommand(pdftotextCmd)
}

func runPdftotext(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	input, err := resolveInput(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	runner, err := command.ForImage(cfg.Pdftotext.Image)
	if err != nil {
		return err
	}
	ex := pdftotext.New(cfg.Pdftotext, runner)

	if len(args) == 2 {
		if err := ex.File(ctx, input, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", args[1])
		return nil
	}

	pages, err := ex.PagesFromFile(ctx, input)
	if err != nil {
		return err
	}
	withHeaders, _ := cmd.Flags().GetBool("pages")
	out := cmd.OutOrStdout()
	for i, p := range pages {
		if withHeaders {
			fmt.Fprintf(out, "=== page %d ===\n%s\n", i+1, strings.TrimRight(p, "\n"))
			continue
		}
		fmt.Fprint(out, p)
		if i < len(pages)-1 {
			fmt.Fprint(out, "\f")
		}
	}
	return nil
}

// resolveInput downloads URL inputs into the store's download directory and
// passes local paths through.
func resolveInput(ctx context.Context, cfg types.Config, input string) (string, error) {
	return newFetcher(cfg).Resolve(ctx, input, filepath.Join(cfg.Store.Dir, "downloads"))
}

func newFetcher(cfg types.Config) *fetch.Fetcher {
	return fetch.New(nil, cfg.HTTP)
}
