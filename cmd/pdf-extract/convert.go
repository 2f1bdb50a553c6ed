// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/convert"
	"github.com/pdiddy/pdf-extract/internal/store"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files or directories...]",
	Short: "Convert PDF files to text or Markdown",
	Long: `Convert transforms PDF files with one of the backends:

  poppler-toc  pdftotext text with Markdown headings placed from the PDF outline
  pdftotext    plain pdftotext text
  marker       marker_single Markdown
  native       in-process Markdown rendering, no external tools

A single file can be converted with -i/--input and -o/--output. Otherwise
every PDF named on the command line (directories are searched for *.pdf)
is written to --output-dir. Existing output is skipped unless --force is set.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("input", "i", "", "input PDF (file or URL)")
	convertCmd.Flags().StringP("output", "o", "", "output file for --input")
	convertCmd.Flags().String("backend", "", "conversion backend: poppler-toc, pdftotext, marker or native")
	convertCmd.Flags().String("output-dir", "", "directory for converted files (default converted)")
	convertCmd.Flags().Bool("force", false, "re-convert files whose output exists")
	convertCmd.Flags().Int("workers", 0, "number of files converted concurrently (default 1)")
	convertCmd.Flags().Bool("frontmatter", true, "prepend YAML frontmatter to Markdown output")
	convertCmd.Flags().Bool("page-markers", false, "insert <!-- page N --> before every page (poppler-toc)")
	convertCmd.Flags().Bool("report", false, "write <output>.report.yaml with heading placement per outline entry")
	convertCmd.Flags().Bool("store", false, "record converted documents in the search store")

	bindFlag(convertCmd, "conversion.backend", "backend")
	bindFlag(convertCmd, "conversion.output_dir", "output-dir")
	bindFlag(convertCmd, "conversion.force", "force")
	bindFlag(convertCmd, "conversion.workers", "workers")
	bindFlag(convertCmd, "conversion.frontmatter", "frontmatter")
	bindFlag(convertCmd, "headings.page_markers", "page-markers")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	if output != "" && input == "" {
		return fmt.Errorf("--output requires --input")
	}
	if input == "" && len(args) == 0 {
		return fmt.Errorf("provide PDF files, directories, or --input")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	conv, err := convert.New(cfg.Conversion.Backend, cfg)
	if err != nil {
		return err
	}

	opts := convert.OptionsFromConfig(cfg.Conversion)
	opts.WriteReport, _ = cmd.Flags().GetBool("report")

	if useStore, _ := cmd.Flags().GetBool("store"); useStore {
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore(st)
		opts.Recorder = st
	}

	var jobs []convert.Job
	if input != "" {
		path, err := resolveInput(ctx, cfg, input)
		if err != nil {
			return err
		}
		job := convert.JobFor(path, opts.OutputDir, opts.Backend)
		if output != "" {
			job.OutputPath = output
		}
		jobs = append(jobs, job)
	}

	paths, err := expandInputs(args)
	if err != nil {
		return err
	}
	paths, err = newFetcher(cfg).ResolveAll(ctx, paths, filepath.Join(cfg.Store.Dir, "downloads"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		jobs = append(jobs, convert.JobFor(p, opts.OutputDir, opts.Backend))
	}

	result := convert.ConvertBatch(ctx, conv, jobs, opts, cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}

// expandInputs replaces directories with the PDFs they contain, sorted by
// name. URLs and files pass through unchanged.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil || !info.IsDir() {
			out = append(out, a)
			continue
		}
		entries, err := os.ReadDir(a)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", a, err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				found = append(found, filepath.Join(a, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
