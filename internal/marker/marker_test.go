// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extract/internal/command"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

func llmConfig() types.MarkerConfig {
	cfg := types.DefaultMarkerConfig()
	cfg.OpenAIBaseURL = "http://localhost:8000/v1"
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIModel = "gpt-4o-mini"
	return cfg
}

func TestArgsDocumentedInvocation(t *testing.T) {
	got := Args(llmConfig(), "file.pdf", "")
	want := []string{
		"--output_format", "markdown",
		"--paginate_output",
		"--use_llm",
		"--disable_image_extraction",
		"--llm_service", "marker.services.openai.OpenAIService",
		"--openai_base_url", "http://localhost:8000/v1",
		"--openai_api_key", "sk-test",
		"--openai_model", "gpt-4o-mini",
		"file.pdf",
	}
	assert.Equal(t, want, got)
}

func TestArgsWithoutLLM(t *testing.T) {
	cfg := llmConfig()
	cfg.UseLLM = false
	cfg.Paginate = false
	got := Args(cfg, "/in/file.pdf", "/tmp/out")
	want := []string{
		"--output_format", "markdown",
		"--disable_image_extraction",
		"--output_dir", "/tmp/out",
		"/in/file.pdf",
	}
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(llmConfig()))

	cfg := llmConfig()
	cfg.OpenAIAPIKey = ""
	cfg.OpenAIModel = ""
	err := Validate(cfg)
	require.ErrorIs(t, err, ErrMissingLLMConfig)
	assert.Contains(t, err.Error(), "openai_api_key, openai_model")

	cfg.UseLLM = false
	assert.NoError(t, Validate(cfg), "no LLM means no OpenAI settings needed")
}

func TestSplitPages(t *testing.T) {
	sep := func(n string) string { return n + strings.Repeat("-", 48) }
	md := "\n\n" + sep("{0}") + "\n\n# Title\n\nIntro text.\n\n" + sep("{1}") + "\n\n## Section\n\nBody.\n"

	pages := SplitPages(md)
	require.Len(t, pages, 2)
	assert.Equal(t, Page{Number: 1, Text: "# Title\n\nIntro text."}, pages[0])
	assert.Equal(t, Page{Number: 2, Text: "## Section\n\nBody."}, pages[1])
}

func TestSplitPagesWithoutSeparators(t *testing.T) {
	assert.Nil(t, SplitPages("  \n"))
	assert.Equal(t, []Page{{Number: 1, Text: "# Only"}}, SplitPages("# Only\n"))
}

func TestSplitPagesIgnoresShortRules(t *testing.T) {
	md := "{0}" + strings.Repeat("-", 48) + "\ntext\n{1}---\nstill page one"
	pages := SplitPages(md)
	require.Len(t, pages, 1)
	assert.Equal(t, "text\n{1}---\nstill page one", pages[0].Text)
}

// writingRunner imitates marker_single by writing output into --output_dir.
type writingRunner struct {
	got     command.Cmd
	content string
	err     error
}

func (w *writingRunner) Run(_ context.Context, c command.Cmd) error {
	w.got = c
	if w.err != nil {
		return w.err
	}
	var outDir string
	for i, a := range c.Args {
		if a == "--output_dir" {
			outDir = c.Args[i+1]
		}
	}
	pdf := c.Args[len(c.Args)-1]
	path := OutputPath(outDir, pdf, "markdown")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(w.content), 0o644)
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))
	return path
}

func TestConverterConvert(t *testing.T) {
	pdf := writePDF(t)
	r := &writingRunner{content: "# Report\n"}
	c, err := NewConverter(llmConfig(), r)
	require.NoError(t, err)

	md, err := c.Convert(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, "# Report\n", md)
	assert.Equal(t, "marker_single", r.got.Name)
	assert.Equal(t, pdf, r.got.Args[len(r.got.Args)-1])
	assert.Contains(t, r.got.Mounts, filepath.Dir(pdf))
}

func TestConverterErrors(t *testing.T) {
	pdf := writePDF(t)

	t.Run("empty output", func(t *testing.T) {
		c, err := NewConverter(llmConfig(), &writingRunner{content: "  \n"})
		require.NoError(t, err)
		_, err = c.Convert(context.Background(), pdf)
		assert.ErrorIs(t, err, ErrEmptyOutput)
	})

	t.Run("tool failure", func(t *testing.T) {
		c, err := NewConverter(llmConfig(), &writingRunner{err: errors.New("CUDA out of memory")})
		require.NoError(t, err)
		_, err = c.Convert(context.Background(), pdf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CUDA out of memory")
	})

	t.Run("missing pdf", func(t *testing.T) {
		c, err := NewConverter(llmConfig(), &writingRunner{})
		require.NoError(t, err)
		_, err = c.Convert(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewConverter(types.DefaultMarkerConfig(), nil)
		assert.ErrorIs(t, err, ErrMissingLLMConfig)
	})
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/out", "a.b", "a.b.md"), OutputPath("/out", "/in/a.b.pdf", "markdown"))
	assert.Equal(t, filepath.Join("/out", "x", "x.json"), OutputPath("/out", "x.pdf", "json"))
}
