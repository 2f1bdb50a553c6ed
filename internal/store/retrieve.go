// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// ErrNotFound is returned when a document or page is not in the store.
var ErrNotFound = errors.New("not found")

// QueryOptions holds parameters for store queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// DocumentID restricts results to one document.
	DocumentID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.DocumentID == ""
}

// QueryResult is a page hit with its document's source path.
type QueryResult struct {
	DocumentID string  `json:"document_id" yaml:"document_id"`
	SourcePath string  `json:"source_path" yaml:"source_path"`
	Page       int     `json:"page" yaml:"page"`
	Snippet    string  `json:"snippet" yaml:"snippet"`
	Rank       float64 `json:"rank" yaml:"rank"`
}

// Search queries page text with optional full-text search and a document
// filter. Results are ranked by relevance for full-text queries or ordered
// by document and page otherwise.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.document_id, d.source_path, p.page,
				snippet(pages_fts, 0, '[', ']', '...', 16), pages_fts.rank
			FROM pages_fts
			JOIN pages p ON p.rowid = pages_fts.rowid
			JOIN documents d ON d.id = p.document_id
			WHERE pages_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.document_id, d.source_path, p.page, substr(p.content, 1, 200), 0 AS rank
			FROM pages p
			JOIN documents d ON d.id = p.document_id
			WHERE 1=1`)
	}

	if opts.DocumentID != "" {
		qb.WriteString(` AND p.document_id = ?`)
		args = append(args, opts.DocumentID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY pages_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.document_id, p.page`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var qr QueryResult
		if err := rows.Scan(&qr.DocumentID, &qr.SourcePath, &qr.Page, &qr.Snippet, &qr.Rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

// DocumentInfo is a recorded document without its page text.
type DocumentInfo struct {
	ID             string                  `json:"id" yaml:"id"`
	SourcePath     string                  `json:"source_path" yaml:"source_path"`
	SHA256         string                  `json:"sha256" yaml:"sha256"`
	Backend        types.ConversionBackend `json:"backend" yaml:"backend"`
	OutputPath     string                  `json:"output_path" yaml:"output_path"`
	PageCount      int                     `json:"page_count" yaml:"page_count"`
	HeadingsPlaced int                     `json:"headings_placed" yaml:"headings_placed"`
	ConvertedAt    string                  `json:"converted_at" yaml:"converted_at"`
}

// Documents lists recorded documents ordered by ID. A non-empty id limits
// the listing to that document.
func (s *Store) Documents(ctx context.Context, id string) ([]DocumentInfo, error) {
	query := `SELECT id, source_path, COALESCE(sha256, ''), COALESCE(backend, ''), COALESCE(output_path, ''),
			page_count, headings_placed, COALESCE(converted_at, '')
		FROM documents`
	var args []any
	if id != "" {
		query += ` WHERE id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var (
			d       DocumentInfo
			backend string
		)
		if err := rows.Scan(&d.ID, &d.SourcePath, &d.SHA256, &backend, &d.OutputPath,
			&d.PageCount, &d.HeadingsPlaced, &d.ConvertedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		d.Backend = types.ConversionBackend(backend)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Page returns the stored text of a 1-based page of a document.
func (s *Store) Page(ctx context.Context, documentID string, page int) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM pages WHERE document_id = ? AND page = ?`, documentID, page,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s page %d", ErrNotFound, documentID, page)
		}
		return "", fmt.Errorf("looking up page: %w", err)
	}
	return content, nil
}

// TOCItem is a stored outline entry and its heading placement.
type TOCItem struct {
	Level       int                 `json:"level" yaml:"level"`
	Title       string              `json:"title" yaml:"title"`
	Page        int                 `json:"page" yaml:"page"`
	Status      types.HeadingStatus `json:"status" yaml:"status"`
	MatchReason types.MatchReason   `json:"match_reason,omitempty" yaml:"match_reason,omitempty"`
	Line        int                 `json:"line" yaml:"line"`
	Score       float64             `json:"score" yaml:"score"`
}

// TOC returns the outline entries recorded for a document in outline order.
func (s *Store) TOC(ctx context.Context, documentID string) ([]TOCItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT level, title, page, status, COALESCE(match_reason, ''), line, score
		FROM toc_items WHERE document_id = ? ORDER BY seq`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying toc items: %w", err)
	}
	defer rows.Close()

	var items []TOCItem
	for rows.Next() {
		var (
			it             TOCItem
			status, reason string
		)
		if err := rows.Scan(&it.Level, &it.Title, &it.Page, &status, &reason, &it.Line, &it.Score); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		it.Status = types.HeadingStatus(status)
		it.MatchReason = types.MatchReason(reason)
		items = append(items, it)
	}
	return items, rows.Err()
}
