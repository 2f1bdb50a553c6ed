// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftotext wraps poppler's pdftotext utility.
//
// File mode reproduces the documented invocation
//
//	pdftotext -enc UTF-8 -eol unix -nopgbrk -layout input.pdf output.txt
//
// Stream mode feeds the PDF on stdin and reads text from stdout, keeping the
// form feeds pdftotext writes between pages so the output can be split.
package pdftotext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/pdf-extract/internal/command"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Stdio is the pdftotext file name for stdin or stdout.
const Stdio = "-"

// pageBreak is the form feed pdftotext emits after every page.
const pageBreak = "\f"

// ErrInvalidUTF8 is returned when pdftotext output is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("pdftotext output is not valid UTF-8")

// Args builds the pdftotext argument vector for cfg reading in and writing
// out. Either may be Stdio.
func Args(cfg types.PdftotextConfig, in, out string) []string {
	args := make([]string, 0, 8)
	if cfg.Encoding != "" {
		args = append(args, "-enc", cfg.Encoding)
	}
	if cfg.EOL != "" {
		args = append(args, "-eol", cfg.EOL)
	}
	if cfg.NoPageBreaks {
		args = append(args, "-nopgbrk")
	}
	if cfg.Layout {
		args = append(args, "-layout")
	}
	return append(args, in, out)
}

// SplitPages splits pdftotext output on form feeds. The empty element that
// follows the final form feed is dropped, so a document of N pages yields N
// strings.
func SplitPages(text string) []string {
	if text == "" {
		return nil
	}
	pages := strings.Split(text, pageBreak)
	if len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// Extractor runs pdftotext through a command.Runner.
type Extractor struct {
	cfg    types.PdftotextConfig
	runner command.Runner
}

// New returns an Extractor. Empty fields of cfg fall back to the documented
// defaults for binary, encoding and line endings.
func New(cfg types.PdftotextConfig, runner command.Runner) *Extractor {
	def := types.DefaultPdftotextConfig()
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.Encoding == "" {
		cfg.Encoding = def.Encoding
	}
	if cfg.EOL == "" {
		cfg.EOL = def.EOL
	}
	if runner == nil {
		runner = command.Local{}
	}
	return &Extractor{cfg: cfg, runner: runner}
}

// Config returns the effective configuration.
func (e *Extractor) Config() types.PdftotextConfig {
	return e.cfg
}

func (e *Extractor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Text runs pdftotext over pdf (the document bytes) in stream mode and
// returns its raw output, form feeds included.
func (e *Extractor) Text(ctx context.Context, pdf []byte) (string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cfg := e.cfg
	cfg.NoPageBreaks = false

	var stdout bytes.Buffer
	err := e.runner.Run(ctx, command.Cmd{
		Name:   cfg.Binary,
		Args:   Args(cfg, Stdio, Stdio),
		Stdin:  bytes.NewReader(pdf),
		Stdout: &stdout,
	})
	if err != nil {
		return "", err
	}
	if !utf8.Valid(stdout.Bytes()) {
		return "", ErrInvalidUTF8
	}
	return stdout.String(), nil
}

// Pages runs pdftotext over pdf and returns the text of each page.
func (e *Extractor) Pages(ctx context.Context, pdf []byte) ([]string, error) {
	text, err := e.Text(ctx, pdf)
	if err != nil {
		return nil, err
	}
	return SplitPages(text), nil
}

// PagesFromFile reads the PDF at path and returns the text of each page.
func (e *Extractor) PagesFromFile(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", path, err)
	}
	pages, err := e.Pages(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", path, err)
	}
	return pages, nil
}

// File runs pdftotext in file mode, writing the text of in to out. Both
// paths are made absolute so they survive a container bind mount.
func (e *Extractor) File(ctx context.Context, in, out string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	absIn, err := filepath.Abs(in)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", in, err)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", out, err)
	}

	mounts := []string{filepath.Dir(absIn)}
	if d := filepath.Dir(absOut); d != mounts[0] {
		mounts = append(mounts, d)
	}

	err = e.runner.Run(ctx, command.Cmd{
		Name:   e.cfg.Binary,
		Args:   Args(e.cfg, absIn, absOut),
		Mounts: mounts,
	})
	if err != nil {
		return fmt.Errorf("converting %s: %w", in, err)
	}
	return nil
}
