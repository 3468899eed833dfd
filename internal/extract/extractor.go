package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/macrotrack/planparse/constants"
)

// ErrOCRUnconfigured is returned when the primary method failed and no OCR
// credentials are set. The message is user-facing remediation, not a log line.
var ErrOCRUnconfigured = errors.New(
	"document text extraction failed and the OCR fallback is not configured. " +
		"Either upload an image (.jpg or .png) of your nutrition plan instead, " +
		"or configure AWS Textract credentials (AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY)")

// ErrInsufficientText is returned when both paths produced less than the
// usable minimum.
var ErrInsufficientText = errors.New("extraction produced insufficient text")

// Extractor implements TextExtractor with a primary in-process method per
// declared kind and a single OCR fallback attempt.
type Extractor struct {
	fallback OCRFallback // nil when unconfigured
	logger   *slog.Logger
}

func NewExtractor(fallback OCRFallback, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fallback: fallback, logger: logger}
}

// Extract runs the primary method for the declared kind and escalates to the
// OCR fallback exactly once when the primary fails or its output trims below
// constants.MinExtractableChars. Images never reach this stage.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind constants.FileKind) (Result, error) {
	start := time.Now()

	var (
		text    string
		pages   int
		method  Method
		primErr error
	)
	switch kind {
	case constants.KindPDF:
		method = MethodPDFText
		text, pages, primErr = extractPDFText(data)
	case constants.KindText:
		method = MethodDOCXText
		text, primErr = extractDOCXText(data)
		pages = 1
	default:
		return Result{}, fmt.Errorf("no extraction strategy for kind %q", kind)
	}

	if primErr == nil && usable(text) {
		e.logger.Info("extract.primary.ok",
			"kind", kind, "method", method, "pages", pages,
			"chars", len(text), "elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{Text: text, Pages: pages, Method: method, Duration: time.Since(start)}, nil
	}

	var warns []string
	if primErr != nil {
		e.logger.Warn("extract.primary.failed", "kind", kind, "method", method, "error", primErr)
		warns = append(warns, fmt.Sprintf("primary %s extraction failed: %v", method, primErr))
	} else {
		e.logger.Warn("extract.primary.insufficient", "kind", kind, "method", method, "chars", len(strings.TrimSpace(text)))
		warns = append(warns, fmt.Sprintf("primary %s extraction returned insufficient text", method))
	}

	if e.fallback == nil {
		return Result{}, ErrOCRUnconfigured
	}

	ocrText, err := e.fallback.DetectText(ctx, data)
	if err != nil {
		e.logger.Error("extract.fallback.failed", "kind", kind, "error", err)
		return Result{}, fmt.Errorf("ocr fallback: %w", err)
	}
	if !usable(ocrText) {
		e.logger.Error("extract.fallback.insufficient", "kind", kind, "chars", len(strings.TrimSpace(ocrText)))
		return Result{}, ErrInsufficientText
	}

	e.logger.Info("extract.fallback.ok",
		"kind", kind, "chars", len(ocrText),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Text:     ocrText,
		Pages:    pages,
		Method:   MethodOCRFallback,
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}

func usable(text string) bool {
	return len(strings.TrimSpace(text)) > constants.MinExtractableChars
}
