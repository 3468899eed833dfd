package extract

import (
	"context"
	"time"

	"github.com/macrotrack/planparse/constants"
)

// Method identifies which extraction path produced the text.
type Method string

const (
	MethodPDFText     Method = "pdf-text"
	MethodDOCXText    Method = "docx-text"
	MethodOCRFallback Method = "ocr-fallback"
)

// Result is the extractor output handed to the interpreter. Transient only;
// never persisted.
type Result struct {
	Text     string
	Pages    int
	Method   Method
	Duration time.Duration
	Warnings []string
}

// TextExtractor is stage 1: document bytes -> text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind constants.FileKind) (Result, error)
}

// OCRFallback is the external document-OCR service used when the primary
// in-process method yields insufficient text or fails outright.
type OCRFallback interface {
	DetectText(ctx context.Context, data []byte) (string, error)
}

// Fetcher resolves a stored upload URL to raw document bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
