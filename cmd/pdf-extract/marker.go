// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/command"
	"github.com/pdiddy/pdf-extract/internal/marker"
)

var markerCmd = &cobra.Command{
	Use:   "marker <file.pdf>",
	Short: "Convert a PDF to Markdown with marker_single",
	Long: `Marker runs

  marker_single --output_format markdown --paginate_output --use_llm \
    --disable_image_extraction --llm_service marker.services.openai.OpenAIService \
    --openai_base_url <url> --openai_api_key <key> --openai_model <model> file.pdf

The OpenAI endpoint, key and model come from flags, configuration
(marker.openai_*), PDF_EXTRACT_MARKER_OPENAI_* environment variables or, for
the key, the openai-api-key secret file. The Markdown is printed to stdout
unless --output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runMarker,
}

func init() {
	markerCmd.Flags().StringP("output", "o", "", "write Markdown to this file instead of stdout")
	markerCmd.Flags().String("openai-base-url", "", "OpenAI-compatible endpoint passed to marker")
	markerCmd.Flags().String("openai-model", "", "model name passed to marker")
	markerCmd.Flags().String("openai-api-key", "", "API key passed to marker")
	markerCmd.Flags().Bool("use-llm", true, "let marker refine output with the LLM service")
	markerCmd.Flags().String("marker-image", "", "run marker inside this container image")

	bindFlag(markerCmd, "marker.openai_base_url", "openai-base-url")
	bindFlag(markerCmd, "marker.openai_model", "openai-model")
	bindFlag(markerCmd, "marker.openai_api_key", "openai-api-key")
	bindFlag(markerCmd, "marker.use_llm", "use-llm")
	bindFlag(markerCmd, "marker.image", "marker-image")

	rootCmd.AddCommand(markerCmd)
}

func runMarker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	input, err := resolveInput(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	runner, err := command.ForImage(cfg.Marker.Image)
	if err != nil {
		return err
	}
	conv, err := marker.NewConverter(cfg.Marker, runner)
	if err != nil {
		return err
	}

	md, err := conv.Convert(ctx, input)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d pages)\n", out, len(marker.SplitPages(md)))
	return nil
}
