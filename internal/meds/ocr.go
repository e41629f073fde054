// Package meds processes medication label uploads: OCR, structuring, and
// validation of the resulting label record.
package meds

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OCR extracts text from a label image on disk.
type OCR interface {
	ImageToText(ctx context.Context, path string) (string, error)
}

// TesseractOCR shells out to the tesseract binary.
type TesseractOCR struct {
	// Cmd is the tesseract executable. Empty means "tesseract" on PATH.
	Cmd string
}

// ImageToText runs tesseract over the image and returns the recognized text.
func (t TesseractOCR) ImageToText(ctx context.Context, path string) (string, error) {
	cmd := t.Cmd
	if cmd == "" {
		cmd = "tesseract"
	}

	// "stdout" makes tesseract print the text instead of writing a file
	out, err := exec.CommandContext(ctx, cmd, path, "stdout").Output()
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ResolveLabelPath resolves a user-supplied filename against the configured
// label directory and verifies the file exists. Absolute paths are used
// as-is.
func ResolveLabelPath(labelDir, filename string) (string, error) {
	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(labelDir, filename)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("label image %q: %w", filename, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("label image %q is a directory", filename)
	}
	return path, nil
}
