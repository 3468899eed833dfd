package pipeline

import "fmt"

// FailureKind tags terminal pipeline failures so callers can tell "we never
// got text" apart from "we got text but could not understand it".
type FailureKind string

const (
	KindUnsupported    FailureKind = "UNSUPPORTED_KIND"
	KindExtraction     FailureKind = "EXTRACTION_FAILURE"
	KindInterpretation FailureKind = "INTERPRETATION_FAILURE"
	KindPersistence    FailureKind = "PERSISTENCE_FAILURE"
)

// Error is a stage failure surfaced to the HTTP layer. Message is a short,
// user-presentable sentence; Err carries the internal detail.
type Error struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failf(kind FailureKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
