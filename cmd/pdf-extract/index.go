// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Record previously converted files in the search store",
	Long: `Index reads the .md and .txt files in dir (default conversion.output_dir),
takes document metadata from their frontmatter and splits pages on
<!-- page N --> markers. Files unchanged since the last run are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Conversion.OutputDir
	if len(args) == 1 {
		dir = args[0]
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore(st)

	summary, err := st.Ingest(cmd.Context(), dir, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}
