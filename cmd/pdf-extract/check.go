// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extract/internal/container"
	"github.com/pdiddy/pdf-extract/internal/marker"
	"github.com/pdiddy/pdf-extract/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether the external tools and settings are usable",
	Long: `Check looks for pdftotext and marker_single on PATH, or for their
container images when pdftotext.image or marker.image is set, and validates
the marker OpenAI settings. It exits non-zero when the configured backend
cannot run.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	pdftotextErr := checkTool(w, "pdftotext", cfg.Pdftotext.Binary, cfg.Pdftotext.Image)
	markerErr := checkTool(w, "marker", cfg.Marker.Binary, cfg.Marker.Image)
	if markerErr == nil {
		markerErr = marker.Validate(cfg.Marker)
		report(w, "marker config", markerErr)
	}

	switch cfg.Conversion.Backend {
	case types.BackendPdftotext, types.BackendPopplerTOC:
		if pdftotextErr != nil {
			return fmt.Errorf("backend %s unavailable: %w", cfg.Conversion.Backend, pdftotextErr)
		}
	case types.BackendMarker:
		if markerErr != nil {
			return fmt.Errorf("backend %s unavailable: %w", cfg.Conversion.Backend, markerErr)
		}
	}
	return nil
}

// checkTool verifies that binary is on PATH, or that image is present in a
// container runtime when image is set.
func checkTool(w io.Writer, label, binary, image string) error {
	if image == "" {
		path, err := exec.LookPath(binary)
		if err == nil {
			fmt.Fprintf(w, "ok       %-14s %s\n", label, path)
			return nil
		}
		report(w, label, err)
		return err
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		report(w, label, err)
		return err
	}
	if err := rt.ImageExists(image); err != nil {
		err = fmt.Errorf("image %s in %s: %w", image, rt.Name(), err)
		report(w, label, err)
		return err
	}
	fmt.Fprintf(w, "ok       %-14s %s (%s)\n", label, image, rt.Name())
	return nil
}

func report(w io.Writer, label string, err error) {
	if err == nil {
		fmt.Fprintf(w, "ok       %s\n", label)
		return
	}
	fmt.Fprintf(w, "missing  %-14s %v\n", label, err)
}
