// Package poppler extracts page text from PDF slide decks by shelling
// out to the poppler utilities, with tesseract as the OCR fallback.
// Which pages get OCR is the core's decision; this adapter only runs
// the tools.
package poppler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/openclinic/ragindex/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Default tool names, resolved through PATH.
const (
	DefaultPdftotext = "pdftotext"
	DefaultPdftoppm  = "pdftoppm"
	DefaultTesseract = "tesseract"
)

// Config holds tool overrides for the extractor.
type Config struct {
	// Pdftotext, Pdftoppm and Tesseract override the executable names.
	Pdftotext string
	Pdftoppm  string
	Tesseract string
}

// Extractor recovers page text from PDFs via poppler/tesseract.
type Extractor struct {
	pdftotext string
	pdftoppm  string
	tesseract string
}

// New creates an extractor with the given tool overrides.
func New(cfg Config) *Extractor {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = DefaultPdftotext
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = DefaultPdftoppm
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = DefaultTesseract
	}
	return &Extractor{
		pdftotext: cfg.Pdftotext,
		pdftoppm:  cfg.Pdftoppm,
		tesseract: cfg.Tesseract,
	}
}

// ExtractPages runs pdftotext over the whole document and splits its
// output on form feeds, which pdftotext emits between pages.
func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]driven.PageText, error) {
	cmd := exec.CommandContext(ctx, e.pdftotext, "-layout", path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftotext %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	raw := strings.Split(stdout.String(), "\f")
	// pdftotext terminates the last page with a form feed too.
	if len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}

	pages := make([]driven.PageText, len(raw))
	for i, text := range raw {
		pages[i] = driven.PageText{Number: i + 1, Text: text}
	}
	return pages, nil
}

// OCRPage renders one page to an image with pdftoppm and runs tesseract
// over it.
func (e *Extractor) OCRPage(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ragindex-ocr-")
	if err != nil {
		return "", fmt.Errorf("create ocr temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	render := exec.CommandContext(ctx, e.pdftoppm,
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-r", "300",
		"-png",
		path, prefix,
	)
	var renderErr bytes.Buffer
	render.Stderr = &renderErr
	if err := render.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm %s page %d: %w: %s", path, page, err, strings.TrimSpace(renderErr.String()))
	}

	images, err := filepath.Glob(prefix + "*")
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("pdftoppm produced no image for %s page %d", path, page)
	}

	ocr := exec.CommandContext(ctx, e.tesseract, images[0], "stdout")
	var stdout, stderr bytes.Buffer
	ocr.Stdout = &stdout
	ocr.Stderr = &stderr
	if err := ocr.Run(); err != nil {
		return "", fmt.Errorf("tesseract %s page %d: %w: %s", path, page, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
