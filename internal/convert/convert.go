// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns PDF files into text or Markdown with pluggable
// backends and handles the per-file bookkeeping around them: skipping
// existing output, frontmatter, heading reports and recording converted
// documents.
package convert

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf-extract/internal/log"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

// Converter transforms a PDF file into text. Different backends (pdftotext,
// pdftotext with outline headings, marker, native) implement this interface.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the converted content.
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// Result is the full outcome of a backend run.
type Result struct {
	// Content is the text written to the output file.
	Content string

	// Pages holds per-page text when the backend knows page boundaries.
	Pages []string

	// Report describes heading placement for backends that use the outline.
	Report *types.HeadingReport
}

// Analyzer is implemented by converters that expose pages and reports in
// addition to the converted content.
type Analyzer interface {
	Converter
	Analyze(ctx context.Context, pdfPath string) (Result, error)
}

// Recorder persists converted documents. internal/store implements it.
type Recorder interface {
	Record(ctx context.Context, doc types.Document, backend types.ConversionBackend, outputPath string, report *types.HeadingReport) error
}

// Options controls where and how converted files are written.
type Options struct {
	Backend     types.ConversionBackend
	OutputDir   string
	Force       bool
	Workers     int
	Frontmatter bool

	// WriteReport writes <output>.report.yaml next to each output file when
	// the backend produced a heading report.
	WriteReport bool

	// Recorder, when set, receives every converted document.
	Recorder Recorder
}

// OptionsFromConfig copies the conversion settings from cfg.
func OptionsFromConfig(cfg types.ConversionConfig) Options {
	return Options{
		Backend:     cfg.Backend,
		OutputDir:   cfg.OutputDir,
		Force:       cfg.Force,
		Workers:     cfg.Workers,
		Frontmatter: cfg.Frontmatter,
	}
}

// Job is one PDF to convert and the file to write.
type Job struct {
	ID         string
	SourcePath string
	OutputPath string
}

// JobFor derives a job for pdfPath writing into outDir with the backend's
// file extension.
func JobFor(pdfPath, outDir string, backend types.ConversionBackend) Job {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return Job{
		ID:         base,
		SourcePath: pdfPath,
		OutputPath: filepath.Join(outDir, base+backend.Ext()),
	}
}

// ErrOutputCollision is returned by Disambiguate when two jobs still share
// an output file or ID after renaming.
var ErrOutputCollision = errors.New("conversion jobs share an output")

// Disambiguate drops repeated source files and renames jobs that would share
// an output file or document ID, appending a short hash of the source path
// to both. The result keeps the input order.
func Disambiguate(jobs []Job) ([]Job, error) {
	seen := make(map[string]bool, len(jobs))
	unique := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		src := filepath.Clean(j.SourcePath)
		if seen[src] {
			continue
		}
		seen[src] = true
		unique = append(unique, j)
	}

	outputs := make(map[string]int, len(unique))
	ids := make(map[string]int, len(unique))
	for _, j := range unique {
		outputs[filepath.Clean(j.OutputPath)]++
		ids[j.ID]++
	}
	for i, j := range unique {
		if outputs[filepath.Clean(j.OutputPath)] > 1 || ids[j.ID] > 1 {
			unique[i] = withSourceHash(j)
		}
	}

	owners := make(map[string]string, len(unique))
	for _, j := range unique {
		for _, key := range []string{"output " + filepath.Clean(j.OutputPath), "id " + j.ID} {
			if prev, ok := owners[key]; ok {
				return nil, fmt.Errorf("%w: %s and %s (%s)", ErrOutputCollision, prev, j.SourcePath, key)
			}
			owners[key] = j.SourcePath
		}
	}
	return unique, nil
}

func withSourceHash(j Job) Job {
	src, err := filepath.Abs(j.SourcePath)
	if err != nil {
		src = j.SourcePath
	}
	sum := sha256.Sum256([]byte(src))
	tag := hex.EncodeToString(sum[:4])
	ext := filepath.Ext(j.OutputPath)
	j.ID += "-" + tag
	j.OutputPath = strings.TrimSuffix(j.OutputPath, ext) + "-" + tag + ext
	return j
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(status types.ConversionStatus) {
	switch status {
	case types.ConversionDone:
		r.Converted++
	case ConversionNone:
		r.Skipped++
	case types.ConversionFailed:
		r.Failed++
	}
}

// ConversionNone is a local alias for "skip" status (output already exists).
const ConversionNone = types.ConversionNone

// ConvertFile converts a single PDF, writing the result to job.OutputPath.
// It returns the status of the conversion. If the output already exists and
// opts.Force is false, it skips conversion and returns ConversionNone.
func ConvertFile(ctx context.Context, c Converter, job Job, opts Options, w io.Writer) types.ConversionStatus {
	if !opts.Force {
		if _, err := os.Stat(job.OutputPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", job.ID)
			return ConversionNone
		}
	}

	fail := func(err error) types.ConversionStatus {
		log.Debug("conversion failed", "id", job.ID, "source", job.SourcePath, "error", err)
		fmt.Fprintf(w, "failed:  %s (%v)\n", job.ID, err)
		return types.ConversionFailed
	}

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return fail(err)
	}

	digest, err := fileSHA256(job.SourcePath)
	if err != nil {
		return fail(err)
	}

	start := time.Now()
	res, err := run(ctx, c, job.SourcePath)
	if err != nil {
		return fail(err)
	}
	log.Debug("converted", "id", job.ID, "backend", opts.Backend, "pages", len(res.Pages), "elapsed", time.Since(start))

	content := res.Content
	if opts.Frontmatter && filepath.Ext(job.OutputPath) == ".md" {
		content, err = addFrontmatter(job, digest, opts.Backend, res, content)
		if err != nil {
			return fail(err)
		}
	}

	if err := os.WriteFile(job.OutputPath, []byte(content), 0o644); err != nil {
		return fail(err)
	}

	if opts.WriteReport && res.Report != nil {
		if err := writeReport(job.OutputPath+".report.yaml", res.Report); err != nil {
			return fail(err)
		}
	}

	if opts.Recorder != nil {
		pages := res.Pages
		if len(pages) == 0 {
			pages = []string{res.Content}
		}
		doc := types.Document{ID: job.ID, SourcePath: job.SourcePath, SHA256: digest, Pages: pages}
		if err := opts.Recorder.Record(ctx, doc, opts.Backend, job.OutputPath, res.Report); err != nil {
			return fail(fmt.Errorf("recording %s: %w", job.ID, err))
		}
	}

	if res.Report != nil {
		fmt.Fprintf(w, "converted: %s (%d/%d headings)\n", job.ID, res.Report.Placed(), len(res.Report.Items))
	} else {
		fmt.Fprintf(w, "converted: %s\n", job.ID)
	}
	return types.ConversionDone
}

// ConvertBatch processes jobs through the converter with up to opts.Workers
// conversions in flight, printing per-file status to w in job order and
// returning a summary. Jobs are passed through Disambiguate first.
func ConvertBatch(ctx context.Context, c Converter, jobs []Job, opts Options, w io.Writer) BatchResult {
	planned, err := Disambiguate(jobs)
	if err != nil {
		fmt.Fprintf(w, "failed:  batch (%v)\n", err)
		return BatchResult{Failed: len(jobs)}
	}
	jobs = planned

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	statuses := make([]types.ConversionStatus, len(jobs))
	lines := make([]bytes.Buffer, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			statuses[i] = ConvertFile(ctx, c, job, opts, &lines[i])
			return nil
		})
	}
	_ = g.Wait()

	var result BatchResult
	for i := range jobs {
		_, _ = lines[i].WriteTo(w)
		result.add(statuses[i])
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertPaths builds jobs from raw PDF paths and delegates to ConvertBatch.
// Each output file is named after the PDF and placed in opts.OutputDir.
func ConvertPaths(ctx context.Context, c Converter, pdfPaths []string, opts Options, w io.Writer) BatchResult {
	jobs := make([]Job, len(pdfPaths))
	for i, p := range pdfPaths {
		jobs[i] = JobFor(p, opts.OutputDir, opts.Backend)
	}
	return ConvertBatch(ctx, c, jobs, opts, w)
}

func run(ctx context.Context, c Converter, pdfPath string) (Result, error) {
	if a, ok := c.(Analyzer); ok {
		return a.Analyze(ctx, pdfPath)
	}
	content, err := c.Convert(ctx, pdfPath)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: content}, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type frontmatter struct {
	ID          string                  `yaml:"id"`
	Source      string                  `yaml:"source"`
	SHA256      string                  `yaml:"sha256"`
	Backend     types.ConversionBackend `yaml:"backend,omitempty"`
	Pages       int                     `yaml:"pages,omitempty"`
	Headings    int                     `yaml:"headings,omitempty"`
	ConvertedAt string                  `yaml:"converted_at"`
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(job Job, digest string, backend types.ConversionBackend, res Result, body string) (string, error) {
	fm := frontmatter{
		ID:          job.ID,
		Source:      job.SourcePath,
		SHA256:      digest,
		Backend:     backend,
		Pages:       len(res.Pages),
		ConvertedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if res.Report != nil {
		fm.Headings = res.Report.Placed()
	}
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String(), nil
}

func writeReport(path string, report *types.HeadingReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
