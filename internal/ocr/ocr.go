// Package ocr provides local text extraction for image invoices, used by
// providers that parse text instead of uploading the document.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// Result summarizes one text extraction.
type Result struct {
	Text     string
	Method   string
	Language string
	Duration time.Duration
}

// TextExtractor is the capability providers depend on: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Tesseract extracts text with the Tesseract engine.
type Tesseract struct {
	languages []string
	logger    *slog.Logger
}

func NewTesseract(languages []string, logger *slog.Logger) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{languages: languages, logger: logger}
}

// Extract runs OCR on the file at path. A gosseract client is not safe for
// concurrent use, so each call owns its own.
func (t *Tesseract) Extract(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := time.Now()

	client := gosseract.NewClient()
	defer func() {
		if cerr := client.Close(); cerr != nil {
			t.logger.Warn("ocr.client_close_error", "error", cerr)
		}
	}()

	if err := client.SetLanguage(t.languages...); err != nil {
		return Result{}, fmt.Errorf("set ocr languages: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return Result{}, fmt.Errorf("set ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w", err)
	}

	res := Result{
		Text:     Normalize(text),
		Method:   "image-ocr",
		Language: t.languages[0],
		Duration: time.Since(start),
	}
	t.logger.Debug("ocr.ok", "file", path, "bytes", len(res.Text), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}
