// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists converted documents in a SQLite database with a
// full-text index over page text, and exports the catalogue as YAML or JSON.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

const dbFile = "pdf-extract.db"

// Store manages the conversion database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the database at cfg.Dir/pdf-extract.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Batch conversions record from several goroutines; SQLite takes one
	// writer at a time.
	db.SetMaxOpenConns(1)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the directory holding the database and exports.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			sha256 TEXT,
			backend TEXT,
			output_path TEXT,
			page_count INTEGER NOT NULL DEFAULT 0,
			headings_placed INTEGER NOT NULL DEFAULT 0,
			converted_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			page INTEGER NOT NULL,
			content TEXT NOT NULL,
			UNIQUE(document_id, page)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_document_id ON pages(document_id)`,
		`CREATE TABLE IF NOT EXISTS toc_items (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			level INTEGER NOT NULL,
			title TEXT NOT NULL,
			page INTEGER NOT NULL,
			status TEXT NOT NULL,
			match_reason TEXT,
			line INTEGER NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (document_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='pages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE pages_fts USING fts5(content, content=pages, content_rowid=rowid)`,
			`CREATE TRIGGER pages_ai AFTER INSERT ON pages BEGIN
				INSERT INTO pages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER pages_ad AFTER DELETE ON pages BEGIN
				INSERT INTO pages_fts(pages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER pages_au AFTER UPDATE ON pages BEGIN
				INSERT INTO pages_fts(pages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO pages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Record stores doc, its pages and its heading report, replacing any
// earlier record with the same ID.
func (s *Store) Record(ctx context.Context, doc types.Document, backend types.ConversionBackend, outputPath string, report *types.HeadingReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM pages WHERE document_id = ?`,
		`DELETE FROM toc_items WHERE document_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, doc.ID); err != nil {
			return fmt.Errorf("deleting old rows: %w", err)
		}
	}

	placed := 0
	if report != nil {
		placed = report.Placed()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, source_path, sha256, backend, output_path, page_count, headings_placed, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_path=excluded.source_path, sha256=excluded.sha256, backend=excluded.backend,
			output_path=excluded.output_path, page_count=excluded.page_count,
			headings_placed=excluded.headings_placed, converted_at=excluded.converted_at`,
		doc.ID, doc.SourcePath, doc.SHA256, string(backend), outputPath,
		doc.PageCount(), placed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (document_id, page, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing page insert: %w", err)
	}
	defer pageStmt.Close()

	for i, text := range doc.Pages {
		if _, err := pageStmt.ExecContext(ctx, doc.ID, i+1, text); err != nil {
			return fmt.Errorf("inserting page %d: %w", i+1, err)
		}
	}

	if report != nil {
		tocStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO toc_items (document_id, seq, level, title, page, status, match_reason, line, score)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing toc insert: %w", err)
		}
		defer tocStmt.Close()

		for i, item := range report.Items {
			_, err := tocStmt.ExecContext(ctx,
				doc.ID, i, item.Entry.Level, item.Entry.Title, item.Entry.Page,
				string(item.Status), string(item.Entry.MatchReason), item.Line, item.Score,
			)
			if err != nil {
				return fmt.Errorf("inserting toc item %q: %w", item.Entry.Title, err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes a document and everything recorded for it.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM pages WHERE document_id = ?`,
		`DELETE FROM toc_items WHERE document_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("deleting document %s: %w", id, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}
