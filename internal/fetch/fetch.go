// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch makes remote PDFs available as local files. Inputs given as
// http or https URLs are downloaded; anything else is treated as a path.
package fetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/httputil"
	"github.com/pdiddy/pdf-extract/internal/log"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// ErrNotPDF is returned when a download does not start with the PDF magic.
var ErrNotPDF = errors.New("response is not a PDF")

// Fetcher downloads remote PDFs.
type Fetcher struct {
	client *http.Client
	cfg    types.HTTPConfig
}

// New returns a Fetcher using client, or a client with cfg.Timeout when
// client is nil.
func New(client *http.Client, cfg types.HTTPConfig) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{client: client, cfg: cfg}
}

// IsURL reports whether input is an http or https URL.
func IsURL(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve returns a local path for input. URLs are downloaded into dir,
// reusing an earlier download of the same URL; other inputs must exist.
func (f *Fetcher) Resolve(ctx context.Context, input, dir string) (string, error) {
	if !IsURL(input) {
		if _, err := os.Stat(input); err != nil {
			return "", fmt.Errorf("input %s: %w", input, err)
		}
		return input, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	dest := filepath.Join(dir, Slug(input)+".pdf")
	if _, err := os.Stat(dest); err == nil {
		log.Debug("reusing download", "url", input, "path", dest)
		return dest, nil
	}

	log.Info("downloading", "url", input, "path", dest)
	if err := f.download(ctx, input, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// ResolveAll resolves every input, stopping at the first failure.
func (f *Fetcher) ResolveAll(ctx context.Context, inputs []string, dir string) ([]string, error) {
	paths := make([]string, 0, len(inputs))
	for _, in := range inputs {
		p, err := f.Resolve(ctx, in, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// download fetches rawURL to destPath using a temporary file.
func (f *Fetcher) download(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	head := make([]byte, 5)
	n, _ := io.ReadFull(resp.Body, head)
	if string(head[:n]) != "%PDF-" {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s", ErrNotPDF, rawURL)
	}

	_, copyErr := io.Copy(tmpFile, io.MultiReader(bytes.NewReader(head[:n]), resp.Body))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Slug returns a filesystem-safe filename stem for a URL: the last path
// element without extension followed by a short hash of the whole URL, so
// different URLs ending in the same file name do not share a download. A URL
// whose path has no file name gets a longer hash alone.
func Slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return urlHashSlug(rawURL)
	}
	base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
	if base == "" || base == "." || base == "/" {
		return urlHashSlug(rawURL)
	}
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%s-%x", base, h[:4])
}

func urlHashSlug(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x", h[:8])
}
