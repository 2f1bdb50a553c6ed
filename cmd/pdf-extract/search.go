// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over converted pages",
	Long: `Search queries the page text recorded by 'convert --store' or 'index'
using SQLite FTS5. Without a query, --doc lists the pages of one document.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("doc", "", "restrict results to one document ID")
	searchCmd.Flags().Int("max", 0, "maximum number of results (default store.max_results)")
	searchCmd.Flags().Bool("json", false, "print results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := store.QueryOptions{Query: strings.Join(args, " ")}
	opts.DocumentID, _ = cmd.Flags().GetString("doc")
	opts.MaxResults, _ = cmd.Flags().GetInt("max")
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query or --doc")
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore(st)

	results, err := st.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-24s  %-4s  %s\n", "Rank", "Document", "Page", "Snippet")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range results {
		doc := r.DocumentID
		if len(doc) > 24 {
			doc = doc[:21] + "..."
		}
		snippet := strings.Join(strings.Fields(r.Snippet), " ")
		fmt.Fprintf(w, "%-4d  %-24s  %-4d  %s\n", i+1, doc, r.Page, snippet)
	}
	return nil
}
