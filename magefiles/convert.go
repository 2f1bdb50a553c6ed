//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert runs the built CLI over every PDF in pdfs/ with the configured
// backend and records the results in the search store.
func Convert() error {
	mg.Deps(Build)

	matches, err := filepath.Glob(filepath.Join("pdfs", "*.pdf"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("[convert] No PDFs in pdfs/.")
		return nil
	}
	args := append([]string{"convert", "--store", "--report"}, matches...)
	return sh.RunWithV(map[string]string{"PDF_EXTRACT_CONVERSION_OUTPUT_DIR": "converted"},
		filepath.Join(binDir, binName), args...)
}

// Clean removes build output and the local store.
func Clean() error {
	for _, dir := range []string{binDir, ".pdf-extract"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}
