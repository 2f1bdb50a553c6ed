// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds a recorded document with its outline for export.
type ExportEntry struct {
	DocumentInfo `json:",inline" yaml:",inline"`
	TOC          []TOCItem `json:"toc,omitempty" yaml:"toc,omitempty"`
}

// ExportYAML writes the catalogue to <dir>/export.yaml and returns the path.
// A non-empty opts.DocumentID limits the export to that document.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the catalogue to <dir>/export.json and returns the path.
// A non-empty opts.DocumentID limits the export to that document.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	docs, err := s.Documents(ctx, opts.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(docs))
	for i, d := range docs {
		items, err := s.TOC(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("querying for export: %w", err)
		}
		entries[i] = ExportEntry{DocumentInfo: d, TOC: items}
	}
	return entries, nil
}
