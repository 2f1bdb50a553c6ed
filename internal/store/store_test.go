// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	store, err := NewStore(types.StoreConfig{Dir: filepath.Join(tmpDir, "store"), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func sampleDocument(id string) types.Document {
	return types.Document{
		ID:         id,
		SourcePath: "/pdfs/" + id + ".pdf",
		SHA256:     strings.Repeat("ab", 32),
		Pages: []string{
			"Protection of Personal Information Act\nContents",
			"1 Definitions\nIn this Act, unless the context indicates otherwise",
			"2 Purpose of Act\nThe purpose of this Act is to give effect to the constitutional right to privacy",
		},
	}
}

func sampleReport() *types.HeadingReport {
	r := types.NewHeadingReport()
	r.Add(types.HeadingItemReport{
		Status: types.HeadingSuccess,
		Entry:  types.TOCEntry{Level: 1, Title: "Definitions", Page: 2, FoundInText: true, MatchReason: types.MatchSinglePerfect},
		Line:   0,
		Score:  0.75,
	})
	r.Add(types.HeadingItemReport{
		Status: types.HeadingNotFound,
		Entry:  types.TOCEntry{Level: 1, Title: "Schedule", Page: 3, MatchReason: types.MatchNone},
		Line:   -1,
	})
	return &r
}

func record(t *testing.T, store *Store, id string) {
	t.Helper()
	err := store.Record(context.Background(), sampleDocument(id), types.BackendPopplerTOC, "/out/"+id+".md", sampleReport())
	require.NoError(t, err)
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"documents", "pages", "pages_fts", "toc_items", "indexing_status"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "nested", "store")

	store, err := NewStore(types.StoreConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); os.IsNotExist(err) {
		t.Errorf("database file not created in %s", dir)
	}
	assert.Equal(t, 20, store.maxResults, "zero MaxResults uses the default")
	assert.Equal(t, dir, store.Dir())
}

func TestNewStoreReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), sampleDocument("popia"), types.BackendPdftotext, "", nil))
	require.NoError(t, first.Close())

	second, err := NewStore(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	defer second.Close()

	docs, err := second.Documents(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

// --- record tests ---

func TestRecord(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()
	record(t, store, "popia")

	docs, err := store.Documents(ctx, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "popia", docs[0].ID)
	assert.Equal(t, "/pdfs/popia.pdf", docs[0].SourcePath)
	assert.Equal(t, types.BackendPopplerTOC, docs[0].Backend)
	assert.Equal(t, 3, docs[0].PageCount)
	assert.Equal(t, 1, docs[0].HeadingsPlaced)
	assert.NotEmpty(t, docs[0].ConvertedAt)

	page, err := store.Page(ctx, "popia", 2)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page, "1 Definitions"))

	items, err := store.TOC(ctx, "popia")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Definitions", items[0].Title)
	assert.Equal(t, types.HeadingSuccess, items[0].Status)
	assert.Equal(t, types.MatchSinglePerfect, items[0].MatchReason)
	assert.InDelta(t, 0.75, items[0].Score, 1e-9)
	assert.Equal(t, -1, items[1].Line)
}

func TestRecordReplaces(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()
	record(t, store, "popia")

	doc := sampleDocument("popia")
	doc.Pages = []string{"only one page about tariffs"}
	require.NoError(t, store.Record(ctx, doc, types.BackendMarker, "/out/popia.md", nil))

	docs, err := store.Documents(ctx, "popia")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].PageCount)
	assert.Equal(t, types.BackendMarker, docs[0].Backend)

	_, err = store.Page(ctx, "popia", 2)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := store.TOC(ctx, "popia")
	require.NoError(t, err)
	assert.Empty(t, items)

	results, err := store.Search(ctx, QueryOptions{Query: "privacy"})
	require.NoError(t, err)
	assert.Empty(t, results, "replaced pages leave the full-text index")

	results, err = store.Search(ctx, QueryOptions{Query: "tariffs"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRecordConcurrent(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := sampleDocument(string(rune('a' + i)))
			errs[i] = store.Record(ctx, doc, types.BackendPdftotext, "", nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	docs, err := store.Documents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 8)
}

func TestDelete(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()
	record(t, store, "popia")

	require.NoError(t, store.Delete(ctx, "popia"))

	docs, err := store.Documents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, docs)

	results, err := store.Search(ctx, QueryOptions{Query: "privacy"})
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.ErrorIs(t, store.Delete(ctx, "popia"), ErrNotFound)
}

// --- search tests ---

func TestSearch(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()
	record(t, store, "popia")
	record(t, store, "paia")

	tests := []struct {
		name      string
		opts      QueryOptions
		wantCount int
		check     func(t *testing.T, results []QueryResult)
	}{
		{
			name:      "full-text match",
			opts:      QueryOptions{Query: "privacy"},
			wantCount: 2,
			check: func(t *testing.T, results []QueryResult) {
				for _, r := range results {
					assert.Equal(t, 3, r.Page)
					assert.Contains(t, r.Snippet, "[privacy]")
				}
			},
		},
		{
			name:      "full-text with document filter",
			opts:      QueryOptions{Query: "definitions", DocumentID: "paia"},
			wantCount: 1,
			check: func(t *testing.T, results []QueryResult) {
				assert.Equal(t, "paia", results[0].DocumentID)
				assert.Equal(t, "/pdfs/paia.pdf", results[0].SourcePath)
			},
		},
		{
			name:      "listing without query",
			opts:      QueryOptions{DocumentID: "popia"},
			wantCount: 3,
			check: func(t *testing.T, results []QueryResult) {
				for i, r := range results {
					assert.Equal(t, i+1, r.Page)
				}
			},
		},
		{
			name:      "max results",
			opts:      QueryOptions{MaxResults: 2},
			wantCount: 2,
		},
		{
			name:      "no match",
			opts:      QueryOptions{Query: "photosynthesis"},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Search(ctx, tt.opts)
			require.NoError(t, err)
			require.Len(t, results, tt.wantCount)
			if tt.check != nil {
				tt.check(t, results)
			}
		})
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{}.IsEmpty())
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Query: "x"}.IsEmpty())
	assert.False(t, QueryOptions{DocumentID: "x"}.IsEmpty())
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()
	record(t, store, "popia")
	record(t, store, "paia")

	path, err := store.ExportYAML(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "export.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "paia", entries[0].ID)
	assert.Equal(t, "popia", entries[1].ID)
	assert.Len(t, entries[1].TOC, 2)
}

func TestExportJSONFiltered(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()
	record(t, store, "popia")
	record(t, store, "paia")

	path, err := store.ExportJSON(ctx, QueryOptions{DocumentID: "popia"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "popia", entries[0]["id"])
	assert.Equal(t, float64(3), entries[0]["page_count"])
	assert.Len(t, entries[0]["toc"], 2)
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	store, tmpDir := testSetup(t)
	ctx := context.Background()
	dir := filepath.Join(tmpDir, "converted")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	md := "---\nid: popia\nsource: /pdfs/popia.pdf\nsha256: abc\nbackend: poppler-toc\n---\n\n" +
		"<!-- page 1 -->\n# Contents\n<!-- page 2 -->\n## Definitions\ntext"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "popia.md"), []byte(md), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.txt"), []byte("just text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.md"), []byte("---\nid: [\n"), 0o644))

	var buf strings.Builder
	summary, err := store.Ingest(ctx, dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.Total())

	docs, err := store.Documents(ctx, "popia")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].PageCount)
	assert.Equal(t, types.BackendPopplerTOC, docs[0].Backend)
	assert.Equal(t, "/pdfs/popia.pdf", docs[0].SourcePath)

	page, err := store.Page(ctx, "popia", 2)
	require.NoError(t, err)
	assert.Equal(t, "## Definitions\ntext", page)

	plain, err := store.Page(ctx, "plain", 1)
	require.NoError(t, err)
	assert.Equal(t, "just text", plain)

	buf.Reset()
	summary, err = store.Ingest(ctx, dir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Skipped, "unchanged files are skipped")
	assert.Equal(t, 1, summary.Failed)
}

func TestParseConverted(t *testing.T) {
	doc, backend, err := parseConverted("stem", "no frontmatter")
	require.NoError(t, err)
	assert.Equal(t, "stem", doc.ID)
	assert.Equal(t, types.ConversionBackend(""), backend)
	assert.Equal(t, []string{"no frontmatter"}, doc.Pages)

	_, _, err = parseConverted("stem", "---\nid: x\n")
	assert.Error(t, err)
}
