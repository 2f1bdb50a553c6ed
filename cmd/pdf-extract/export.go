// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded documents and their outlines",
	Long: `Export writes every recorded document, with its outline entries and
heading placement, to export.yaml or export.json in the store directory.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("doc", "", "export only this document ID")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore(st)

	opts := store.QueryOptions{}
	opts.DocumentID, _ = cmd.Flags().GetString("doc")

	var path string
	switch format, _ := cmd.Flags().GetString("format"); format {
	case "yaml":
		path, err = st.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = st.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
