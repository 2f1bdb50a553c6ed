// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/command"
	"github.com/pdiddy/pdf-extract/internal/headings"
	"github.com/pdiddy/pdf-extract/internal/log"
	"github.com/pdiddy/pdf-extract/internal/marker"
	"github.com/pdiddy/pdf-extract/internal/outline"
	"github.com/pdiddy/pdf-extract/internal/pdftotext"
	"github.com/pdiddy/pdf-extract/internal/toc"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// ErrUnknownBackend is returned by New for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown conversion backend")

// pageExtractor is the part of pdftotext.Extractor the backends use.
type pageExtractor interface {
	PagesFromFile(ctx context.Context, path string) ([]string, error)
}

// PdftotextConverter emits the plain pdftotext text of a PDF.
type PdftotextConverter struct {
	pages pageExtractor
}

// NewPdftotextConverter returns a converter backed by ex.
func NewPdftotextConverter(ex *pdftotext.Extractor) *PdftotextConverter {
	return &PdftotextConverter{pages: ex}
}

// Convert returns the text of every page, concatenated.
func (p *PdftotextConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	res, err := p.Analyze(ctx, pdfPath)
	return res.Content, err
}

// Analyze returns the concatenated text together with the per-page text.
func (p *PdftotextConverter) Analyze(ctx context.Context, pdfPath string) (Result, error) {
	pages, err := p.pages.PagesFromFile(ctx, pdfPath)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: strings.Join(pages, ""), Pages: pages}, nil
}

// OutlineSource is an open PDF that can list its outline and page blocks.
type OutlineSource interface {
	toc.PageSource
	Close() error
}

// OpenFunc opens a PDF for outline reading.
type OpenFunc func(path string) (OutlineSource, error)

func openOutline(path string) (OutlineSource, error) {
	doc, err := outline.Open(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// TOCConverter extracts text with pdftotext and turns the PDF outline into
// Markdown headings placed in that text.
type TOCConverter struct {
	pages pageExtractor
	open  OpenFunc
	cfg   types.HeadingsConfig
}

// NewTOCConverter returns a converter backed by ex that reads outlines with
// the tabula-based outline reader.
func NewTOCConverter(ex *pdftotext.Extractor, cfg types.HeadingsConfig) *TOCConverter {
	return &TOCConverter{pages: ex, open: openOutline, cfg: cfg}
}

// Convert returns the annotated text.
func (t *TOCConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	res, err := t.Analyze(ctx, pdfPath)
	return res.Content, err
}

// Analyze returns the annotated text, the plain page text and the heading
// report. A PDF whose outline cannot be read converts without headings.
func (t *TOCConverter) Analyze(ctx context.Context, pdfPath string) (Result, error) {
	pages, err := t.pages.PagesFromFile(ctx, pdfPath)
	if err != nil {
		return Result{}, err
	}

	entries, err := t.entries(ctx, pdfPath)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Warn("reading outline, converting without headings", "path", pdfPath, "error", err)
	}

	content, report := headings.Annotate(pages, entries, t.cfg)
	return Result{Content: content, Pages: pages, Report: &report}, nil
}

func (t *TOCConverter) entries(ctx context.Context, pdfPath string) ([]types.TOCEntry, error) {
	src, err := t.open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return toc.Extract(ctx, src)
}

// MarkerConverter adapts marker.Converter, splitting paginated output into
// pages.
type MarkerConverter struct {
	conv Converter
}

// NewMarkerConverter wraps c.
func NewMarkerConverter(c *marker.Converter) *MarkerConverter {
	return &MarkerConverter{conv: c}
}

// Convert returns marker's Markdown unchanged.
func (m *MarkerConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	return m.conv.Convert(ctx, pdfPath)
}

// Analyze returns marker's Markdown and its pages.
func (m *MarkerConverter) Analyze(ctx context.Context, pdfPath string) (Result, error) {
	md, err := m.conv.Convert(ctx, pdfPath)
	if err != nil {
		return Result{}, err
	}
	var pages []string
	for _, p := range marker.SplitPages(md) {
		pages = append(pages, p.Text)
	}
	return Result{Content: md, Pages: pages}, nil
}

// NativeConverter converts PDFs to Markdown in-process with tabula's layout
// analyzer. It needs no external tools.
type NativeConverter struct{}

// Convert returns the Markdown of every page, concatenated.
func (n NativeConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	res, err := n.Analyze(ctx, pdfPath)
	return res.Content, err
}

// Analyze returns the Markdown together with the per-page Markdown.
func (NativeConverter) Analyze(ctx context.Context, pdfPath string) (Result, error) {
	doc, err := outline.Open(pdfPath)
	if err != nil {
		return Result{}, err
	}
	defer doc.Close()

	pages, err := doc.MarkdownPages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("converting %s: %w", pdfPath, err)
	}
	md := strings.Join(pages, "")
	if strings.TrimSpace(md) == "" {
		return Result{}, fmt.Errorf("empty output for %s", pdfPath)
	}
	log.Debug("native conversion", "path", pdfPath, "pages", len(pages))
	return Result{Content: md, Pages: pages}, nil
}

// New builds the converter for backend from cfg, running external tools on
// the host or in their configured container images.
func New(backend types.ConversionBackend, cfg types.Config) (Converter, error) {
	switch backend {
	case types.BackendPdftotext, types.BackendPopplerTOC:
		runner, err := command.ForImage(cfg.Pdftotext.Image)
		if err != nil {
			return nil, err
		}
		ex := pdftotext.New(cfg.Pdftotext, runner)
		if backend == types.BackendPdftotext {
			return NewPdftotextConverter(ex), nil
		}
		return NewTOCConverter(ex, cfg.Headings), nil
	case types.BackendMarker:
		runner, err := command.ForImage(cfg.Marker.Image)
		if err != nil {
			return nil, err
		}
		c, err := marker.NewConverter(cfg.Marker, runner)
		if err != nil {
			return nil, err
		}
		return NewMarkerConverter(c), nil
	case types.BackendNative:
		return NativeConverter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
