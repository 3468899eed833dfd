package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/macrotrack/planparse/constants"
)

type stubOCR struct {
	text  string
	err   error
	calls int
}

func (s *stubOCR) DetectText(ctx context.Context, data []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

func docxBytes(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body>
</w:document>`
	if _, err := f.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const longPlanText = "Café da Manhã: Opção 1 - ovos mexidos com pão integral. Opção 2 - iogurte com granola e frutas da estação."

func TestExtractDOCXPrimary(t *testing.T) {
	e := NewExtractor(&stubOCR{}, nil)

	res, err := e.Extract(context.Background(), docxBytes(t, longPlanText), constants.KindText)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != MethodDOCXText {
		t.Errorf("method = %q, want %q", res.Method, MethodDOCXText)
	}
	if !strings.Contains(res.Text, "ovos mexidos") {
		t.Errorf("text = %q", res.Text)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestExtractFallbackOnPrimaryFailure(t *testing.T) {
	ocr := &stubOCR{text: longPlanText}
	e := NewExtractor(ocr, nil)

	// garbage bytes make the in-process PDF reader fail
	res, err := e.Extract(context.Background(), []byte("not a pdf"), constants.KindPDF)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ocr.calls != 1 {
		t.Errorf("fallback called %d times, want exactly once", ocr.calls)
	}
	if res.Method != MethodOCRFallback {
		t.Errorf("method = %q, want %q", res.Method, MethodOCRFallback)
	}
	if len(res.Warnings) == 0 {
		t.Error("fallback result should carry a warning about the primary method")
	}
}

func TestExtractFallbackOnInsufficientText(t *testing.T) {
	ocr := &stubOCR{text: longPlanText}
	e := NewExtractor(ocr, nil)

	// well-formed DOCX whose text trims below the usable minimum
	res, err := e.Extract(context.Background(), docxBytes(t, "scan page 1"), constants.KindText)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ocr.calls != 1 {
		t.Errorf("fallback called %d times, want exactly once", ocr.calls)
	}
	if res.Text != longPlanText {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractUnconfiguredOCR(t *testing.T) {
	e := NewExtractor(nil, nil)

	_, err := e.Extract(context.Background(), []byte("not a pdf"), constants.KindPDF)
	if !errors.Is(err, ErrOCRUnconfigured) {
		t.Fatalf("err = %v, want ErrOCRUnconfigured", err)
	}
	// remediation must tell the user about the image upload alternative
	if !strings.Contains(err.Error(), "upload an image") {
		t.Errorf("remediation missing from %q", err.Error())
	}
}

func TestExtractBothPathsInsufficient(t *testing.T) {
	ocr := &stubOCR{text: "   \n  "}
	e := NewExtractor(ocr, nil)

	_, err := e.Extract(context.Background(), docxBytes(t, "x"), constants.KindText)
	if !errors.Is(err, ErrInsufficientText) {
		t.Fatalf("err = %v, want ErrInsufficientText", err)
	}
}

func TestExtractFallbackError(t *testing.T) {
	ocr := &stubOCR{err: errors.New("throttled")}
	e := NewExtractor(ocr, nil)

	_, err := e.Extract(context.Background(), []byte("not a pdf"), constants.KindPDF)
	if err == nil || !strings.Contains(err.Error(), "ocr fallback") {
		t.Fatalf("err = %v, want wrapped ocr failure", err)
	}
}

func TestExtractUnsupportedKind(t *testing.T) {
	e := NewExtractor(&stubOCR{}, nil)
	if _, err := e.Extract(context.Background(), nil, constants.KindImage); err == nil {
		t.Fatal("images must not reach the extraction stage")
	}
}

func TestExtractDOCXStructure(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		if _, err := extractDOCXText([]byte("plain text file")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("zip without document.xml", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		f, _ := zw.Create("word/styles.xml")
		_, _ = f.Write([]byte("<w:styles/>"))
		_ = zw.Close()

		if _, err := extractDOCXText(buf.Bytes()); err == nil {
			t.Fatal("expected error")
		}
	})
}
