// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/store"
)

var docsCmd = &cobra.Command{
	Use:   "docs [id]",
	Short: "List, show, or remove recorded documents",
	Long: `Docs lists the documents recorded in the store. With an ID and --page it
prints the stored text of that page; with --rm it removes the document,
its pages and its outline entries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().Int("page", 0, "print the text of this page (1-based)")
	docsCmd.Flags().Bool("rm", false, "remove the document from the store")

	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	remove, _ := cmd.Flags().GetBool("rm")
	var id string
	if len(args) == 1 {
		id = args[0]
	}
	if (page > 0 || remove) && id == "" {
		return fmt.Errorf("a document ID is required with --page or --rm")
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore(st)

	w := cmd.OutOrStdout()
	switch {
	case remove:
		if err := st.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(w, "removed %s\n", id)
		return nil
	case page > 0:
		text, err := st.Page(cmd.Context(), id, page)
		if err != nil {
			return err
		}
		fmt.Fprint(w, text)
		return nil
	}

	docs, err := st.Documents(cmd.Context(), id)
	if err != nil {
		return err
	}
	if id != "" && len(docs) == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	formatDocuments(w, docs)
	return nil
}

func formatDocuments(w io.Writer, docs []store.DocumentInfo) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents recorded.")
		return
	}
	fmt.Fprintf(w, "%-32s  %-11s  %5s  %8s  %s\n", "Document", "Backend", "Pages", "Headings", "Converted")
	for _, d := range docs {
		fmt.Fprintf(w, "%-32s  %-11s  %5d  %8d  %s\n", d.ID, d.Backend, d.PageCount, d.HeadingsPlaced, d.ConvertedAt)
	}
}
