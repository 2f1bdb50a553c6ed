// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// IngestSummary holds counts from an indexing run over converted files.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// fileHeader is the frontmatter written by the convert package.
type fileHeader struct {
	ID      string                  `yaml:"id"`
	Source  string                  `yaml:"source"`
	SHA256  string                  `yaml:"sha256"`
	Backend types.ConversionBackend `yaml:"backend"`
}

var pageMarker = regexp.MustCompile(`(?m)^<!-- page \d+ -->\n?`)

// Ingest records the converted .md and .txt files in dir that are new or
// changed since the last run, detected by modification time.
func (s *Store) Ingest(ctx context.Context, dir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".md" && ext != ".txt") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		path := filepath.Join(dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), ext)

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE path = ?`, path,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		doc, backend, err := parseConverted(name, string(data))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := s.Record(ctx, doc, backend, path, nil); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO indexing_status (path, file_mod_time) VALUES (?, ?)
			 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
			path, modTime,
		); err != nil {
			fmt.Fprintf(w, "failed  %s: updating indexing status: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d pages)\n", doc.ID, doc.PageCount())
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d pages)\n", doc.ID, doc.PageCount())
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

// parseConverted splits a converted file into its frontmatter and pages.
// Files without page markers form a single page.
func parseConverted(name, content string) (types.Document, types.ConversionBackend, error) {
	var hdr fileHeader
	body := content
	if rest, ok := strings.CutPrefix(content, "---\n"); ok {
		end := strings.Index(rest, "\n---\n")
		if end < 0 {
			return types.Document{}, "", fmt.Errorf("unterminated frontmatter")
		}
		if err := yaml.Unmarshal([]byte(rest[:end]), &hdr); err != nil {
			return types.Document{}, "", fmt.Errorf("parsing frontmatter: %w", err)
		}
		body = strings.TrimPrefix(rest[end+len("\n---\n"):], "\n")
	}

	doc := types.Document{ID: hdr.ID, SourcePath: hdr.Source, SHA256: hdr.SHA256}
	if doc.ID == "" {
		doc.ID = name
	}
	if doc.SourcePath == "" {
		doc.SourcePath = name
	}

	if pageMarker.MatchString(body) {
		parts := pageMarker.Split(body, -1)
		// Text before the first marker is not a page.
		for _, p := range parts[1:] {
			doc.Pages = append(doc.Pages, strings.TrimSuffix(p, "\n"))
		}
	} else {
		doc.Pages = []string{body}
	}
	return doc, hdr.Backend, nil
}
