package constants

import "strings"

// FileKind is the declared kind of an uploaded plan document.
type FileKind string

// Stable values (these exact strings arrive in the request contract).
const (
	KindPDF   FileKind = "pdf"
	KindImage FileKind = "image"
	// KindText denotes DOCX-like binary documents that need structural
	// extraction, not literal plain text.
	KindText FileKind = "text"
)

// FileKinds holds the allowed declared kinds for parse requests.
var FileKinds = []string{string(KindPDF), string(KindImage), string(KindText)}

// MinExtractableChars is the minimum trimmed text length for an extraction
// result to be considered usable. Below it we escalate to the OCR fallback.
const MinExtractableChars = 50

// ParseKind validates and normalizes a declared file kind.
func ParseKind(s string) (FileKind, bool) {
	switch FileKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPDF:
		return KindPDF, true
	case KindImage:
		return KindImage, true
	case KindText:
		return KindText, true
	}
	return "", false
}
