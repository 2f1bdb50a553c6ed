// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline reads a PDF's document outline (bookmarks) and the text
// blocks of its pages using the tabula PDF reader.
package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/reader"

	"github.com/pdiddy/pdf-extract/internal/log"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// ErrPageOutOfRange is returned by Blocks for page numbers outside the document.
var ErrPageOutOfRange = errors.New("page out of range")

// maxNameTreeDepth bounds recursion into /Names/Dests kids.
const maxNameTreeDepth = 32

// objectSource is the part of the tabula reader the outline walker needs.
type objectSource interface {
	GetCatalog() (core.Dict, error)
	Resolve(obj core.Object) (core.Object, error)
}

// Document is an open PDF.
type Document struct {
	r *reader.Reader
}

// Open opens the PDF at path.
func Open(path string) (*Document, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	return &Document{r: r}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.r.Close()
}

// PageCount returns the number of pages.
func (d *Document) PageCount() (int, error) {
	return d.r.PageCount()
}

// Outline returns the document outline in reading order (depth first, the
// order a viewer shows it). A document without an outline yields no entries.
func (d *Document) Outline() ([]types.TOCEntry, error) {
	w, err := newWalker(d.r)
	if err != nil {
		return nil, err
	}
	return w.entries()
}

// Blocks returns the text blocks of the 1-based page in reading order.
// Blocks without text are dropped.
func (d *Document) Blocks(page int) ([]types.TextBlock, error) {
	count, err := d.r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	if page < 1 || page > count {
		return nil, fmt.Errorf("%w: %d (document has %d)", ErrPageOutOfRange, page, count)
	}

	pf, err := d.fragments(page - 1)
	if err != nil {
		return nil, err
	}
	result := layout.NewBlockDetector().Detect(pf.Fragments, pf.PageWidth, pf.PageHeight)
	if result == nil {
		return nil, nil
	}
	return convertBlocks(result.Blocks), nil
}

// MarkdownPages renders every page as Markdown with tabula's layout
// analyzer. Headers and footers repeated across pages are removed.
func (d *Document) MarkdownPages(ctx context.Context) ([]string, error) {
	count, err := d.r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	all := make([]layout.PageFragments, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pf, err := d.fragments(i)
		if err != nil {
			return nil, err
		}
		all = append(all, pf)
	}

	analyzer := layout.NewAnalyzer()
	pages := make([]string, len(all))
	for i := range all {
		pages[i] = analyzer.AnalyzeWithHeaderFooterFiltering(all, i).GetMarkdown()
	}
	return pages, nil
}

// fragments extracts the positioned text of the 0-based page index.
func (d *Document) fragments(index int) (layout.PageFragments, error) {
	p, err := d.r.GetPage(index)
	if err != nil {
		return layout.PageFragments{}, fmt.Errorf("page %d: %w", index+1, err)
	}
	fragments, err := d.r.ExtractTextFragments(p)
	if err != nil {
		return layout.PageFragments{}, fmt.Errorf("page %d: %w", index+1, err)
	}
	width, _ := p.Width()
	height, _ := p.Height()
	return layout.PageFragments{
		PageIndex:  index,
		PageWidth:  width,
		PageHeight: height,
		Fragments:  fragments,
	}, nil
}

func convertBlocks(blocks []layout.Block) []types.TextBlock {
	out := make([]types.TextBlock, 0, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		text := strings.Join(strings.Fields(b.GetText()), " ")
		if text == "" {
			continue
		}
		var maxFont float64
		for _, f := range b.Fragments {
			if f.FontSize > maxFont {
				maxFont = f.FontSize
			}
		}
		out = append(out, types.TextBlock{
			Index:       len(out),
			Text:        text,
			MaxFontSize: maxFont,
			Top:         b.BBox.Y + b.BBox.Height,
		})
	}
	return out
}

// walker resolves outline items against the page tree.
type walker struct {
	src      objectSource
	catalog  core.Dict
	pageRefs map[int]int // object number -> 1-based page number
	visited  map[int]bool
	out      []types.TOCEntry
}

func newWalker(src objectSource) (*walker, error) {
	catalog, err := src.GetCatalog()
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	w := &walker{
		src:      src,
		catalog:  catalog,
		pageRefs: make(map[int]int),
		visited:  make(map[int]bool),
	}
	if err := w.indexPages(); err != nil {
		return nil, err
	}
	return w, nil
}

// indexPages numbers every page object by walking /Pages in order.
func (w *walker) indexPages() error {
	root := w.catalog.Get("Pages")
	if root == nil {
		return fmt.Errorf("catalog missing /Pages entry")
	}
	seen := make(map[int]bool)
	n := 0
	var visit func(obj core.Object) error
	visit = func(obj core.Object) error {
		ref, isRef := obj.(core.IndirectRef)
		if isRef {
			if seen[ref.Number] {
				return nil
			}
			seen[ref.Number] = true
		}
		resolved, err := w.src.Resolve(obj)
		if err != nil {
			return fmt.Errorf("resolving page tree node: %w", err)
		}
		node, ok := resolved.(core.Dict)
		if !ok {
			return nil
		}
		if typ, _ := node.GetName("Type"); typ == "Pages" {
			kids, _ := w.array(node.Get("Kids"))
			for _, kid := range kids {
				if err := visit(kid); err != nil {
					return err
				}
			}
			return nil
		}
		n++
		if isRef {
			w.pageRefs[ref.Number] = n
		}
		return nil
	}
	return visit(root)
}

func (w *walker) entries() ([]types.TOCEntry, error) {
	obj := w.catalog.Get("Outlines")
	if obj == nil {
		return nil, nil
	}
	root, ok := w.dict(obj)
	if !ok {
		return nil, nil
	}
	if err := w.walk(root.Get("First"), 1); err != nil {
		return nil, err
	}
	return w.out, nil
}

// walk visits an outline item, its children, then its following siblings.
func (w *walker) walk(obj core.Object, level int) error {
	for obj != nil {
		if ref, ok := obj.(core.IndirectRef); ok {
			if w.visited[ref.Number] {
				log.Warn("outline cycle detected", "object", ref.Number)
				return nil
			}
			w.visited[ref.Number] = true
		}
		item, ok := w.dict(obj)
		if !ok {
			return nil
		}

		w.addItem(item, level)

		if first := item.Get("First"); first != nil {
			if err := w.walk(first, level+1); err != nil {
				return err
			}
		}
		obj = item.Get("Next")
	}
	return nil
}

func (w *walker) addItem(item core.Dict, level int) {
	title := ""
	if s, ok := w.resolve(item.Get("Title")).(core.String); ok {
		title = cleanTitle([]byte(s))
	}

	dest := item.Get("Dest")
	if dest == nil {
		if action, ok := w.dict(item.Get("A")); ok {
			if s, _ := action.GetName("S"); s == "GoTo" {
				dest = action.Get("D")
			}
		}
	}

	page, link := w.destination(dest, 0)
	if page == 0 {
		log.Warn("skipping outline entry without a page", "title", title, "link", link.Kind)
		return
	}
	w.out = append(w.out, types.TOCEntry{
		Level: level,
		Title: title,
		Page:  page,
		Link:  link,
	})
}

// destination resolves a destination object to a 1-based page number and
// link description. Page 0 means unresolved.
func (w *walker) destination(obj core.Object, depth int) (int, types.Link) {
	if obj == nil || depth > 4 {
		return 0, types.Link{Kind: types.LinkNone}
	}
	switch v := w.resolve(obj).(type) {
	case core.Array:
		return w.explicit(v)
	case core.Dict:
		return w.destination(v.Get("D"), depth+1)
	case core.Name:
		if target := w.named(string(v)); target != nil {
			return w.destination(target, depth+1)
		}
		return 0, types.Link{Kind: types.LinkNamed}
	case core.String:
		if target := w.named(string(v)); target != nil {
			return w.destination(target, depth+1)
		}
		return 0, types.Link{Kind: types.LinkNamed}
	}
	return 0, types.Link{Kind: types.LinkNone}
}

// explicit handles [page /XYZ left top zoom], [page /FitH top],
// [page /FitBH top], [page /FitR left bottom right top] and the other
// fit types, which carry no vertical position.
func (w *walker) explicit(arr core.Array) (int, types.Link) {
	if len(arr) == 0 {
		return 0, types.Link{Kind: types.LinkNone}
	}

	page := 0
	switch p := arr[0].(type) {
	case core.IndirectRef:
		page = w.pageRefs[p.Number]
	case core.Int:
		page = int(p) + 1
	}
	if page == 0 {
		return 0, types.Link{Kind: types.LinkNone}
	}

	link := types.Link{Kind: types.LinkGoTo}
	fit, _ := arr.GetName(1)
	topIdx := -1
	switch fit {
	case "XYZ":
		topIdx = 3
	case "FitH", "FitBH":
		topIdx = 2
	case "FitR":
		topIdx = 5
	}
	if topIdx > 0 && topIdx < len(arr) {
		if y, ok := number(w.resolve(arr[topIdx])); ok {
			link.TargetY = &y
		}
	}
	return page, link
}

// named looks up a named destination in /Dests (PDF 1.1) and then in the
// /Names /Dests name tree.
func (w *walker) named(name string) core.Object {
	if dests, ok := w.dict(w.catalog.Get("Dests")); ok {
		if v := dests.Get(name); v != nil {
			return v
		}
	}
	names, ok := w.dict(w.catalog.Get("Names"))
	if !ok {
		return nil
	}
	tree, ok := w.dict(names.Get("Dests"))
	if !ok {
		return nil
	}
	return w.lookupNameTree(tree, name, 0)
}

func (w *walker) lookupNameTree(node core.Dict, name string, depth int) core.Object {
	if depth > maxNameTreeDepth {
		return nil
	}
	if pairs, ok := w.array(node.Get("Names")); ok {
		for i := 0; i+1 < len(pairs); i += 2 {
			if key, ok := w.resolve(pairs[i]).(core.String); ok && string(key) == name {
				return pairs[i+1]
			}
		}
	}
	kids, ok := w.array(node.Get("Kids"))
	if !ok {
		return nil
	}
	for _, kid := range kids {
		child, ok := w.dict(kid)
		if !ok {
			continue
		}
		if limits, ok := w.array(child.Get("Limits")); ok && len(limits) == 2 {
			lo, okLo := w.resolve(limits[0]).(core.String)
			hi, okHi := w.resolve(limits[1]).(core.String)
			if okLo && okHi && (name < string(lo) || name > string(hi)) {
				continue
			}
		}
		if v := w.lookupNameTree(child, name, depth+1); v != nil {
			return v
		}
	}
	return nil
}

func (w *walker) resolve(obj core.Object) core.Object {
	if obj == nil {
		return nil
	}
	resolved, err := w.src.Resolve(obj)
	if err != nil {
		log.Debug("unresolvable object", "object", obj.String(), "error", err)
		return nil
	}
	return resolved
}

func (w *walker) dict(obj core.Object) (core.Dict, bool) {
	d, ok := w.resolve(obj).(core.Dict)
	return d, ok
}

func (w *walker) array(obj core.Object) (core.Array, bool) {
	a, ok := w.resolve(obj).(core.Array)
	return a, ok
}

func number(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	}
	return 0, false
}
