package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDFText reads the PDF text layer with pages merged in document
// order. The reader panics on some malformed files, so recover into an error
// and let the caller escalate to OCR.
func extractPDFText(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("read pdf text layer: %w", err)
	}

	var b bytes.Buffer
	if _, err := io.Copy(&b, plain); err != nil {
		return "", 0, fmt.Errorf("copy pdf text: %w", err)
	}
	return b.String(), r.NumPage(), nil
}
