package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/invoice-matcher/constants"
	"github.com/joseph-ayodele/invoice-matcher/internal/common"
)

type call struct {
	name string
	args []string
}

// fakeRunner answers pdftoppm by writing page images and tesseract with canned text.
type fakeRunner struct {
	pages   int
	ocrText string
	ocrErr  error
	textOut string
	calls   []call
}

func (f *fakeRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			p := prefix + "-" + string(rune('0'+i)) + ".png"
			if err := os.WriteFile(p, []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if f.ocrErr != nil {
			return nil, []byte("tesseract exploded"), f.ocrErr
		}
		return []byte(f.ocrText), nil, nil
	case "pdftotext":
		return []byte(f.textOut), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func (f *fakeRunner) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func touch(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("stub"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtract_PDFTextLayer(t *testing.T) {
	r := &fakeRunner{}
	e := NewExtractor(Config{}, quiet(), WithRunner(r))
	e.textLayer = func(context.Context, string) (string, int, error) {
		return "INVOICE  INV-1\r\nTotal\t100.00\n\n\n\n", 1, nil
	}

	res, err := e.Extract(context.Background(), touch(t, "inv.pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != MethodPDFText || res.SourceType != constants.PDF {
		t.Fatalf("method/source = %s/%s", res.Method, res.SourceType)
	}
	if res.Text != "INVOICE INV-1\nTotal 100.00" {
		t.Fatalf("text = %q", res.Text)
	}
	if len(r.calls) != 0 {
		t.Fatalf("OCR ran although text layer had content: %+v", r.calls)
	}
}

func TestExtract_PDFFallsBackToOCR(t *testing.T) {
	for _, tc := range []struct {
		name  string
		layer func(context.Context, string) (string, int, error)
	}{
		{"empty", func(context.Context, string) (string, int, error) { return "  \n ", 2, nil }},
		{"error", func(context.Context, string) (string, int, error) { return "", 0, errors.New("malformed xref") }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeRunner{pages: 2, ocrText: "PO 55\nQty 10"}
			e := NewExtractor(Config{}, quiet(), WithRunner(r))
			e.textLayer = tc.layer

			res, err := e.Extract(context.Background(), touch(t, "scan.pdf"))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if res.Method != MethodPDFOCR || res.Pages != 2 {
				t.Fatalf("method=%s pages=%d", res.Method, res.Pages)
			}
			if r.count("tesseract") != 2 {
				t.Fatalf("tesseract calls = %d", r.count("tesseract"))
			}
			if !strings.Contains(res.Text, "\f") {
				t.Errorf("page break missing: %q", res.Text)
			}
			if len(res.Warnings) == 0 {
				t.Error("fallback left no warning")
			}
		})
	}
}

func TestExtract_BothStrategiesFail(t *testing.T) {
	r := &fakeRunner{pages: 1, ocrErr: errors.New("exit status 1")}
	e := NewExtractor(Config{}, quiet(), WithRunner(r))
	e.textLayer = func(context.Context, string) (string, int, error) { return "", 1, nil }

	path := touch(t, "blank.pdf")
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	var xe *common.ExtractionError
	if !errors.As(err, &xe) || xe.Path != path {
		t.Fatalf("err = %#v", err)
	}
	if len(xe.Warnings) == 0 {
		t.Error("warnings not carried")
	}
}

func TestExtract_PdftotextLayer(t *testing.T) {
	r := &fakeRunner{textOut: "page one\fpage two\f"}
	e := NewExtractor(Config{TextLayer: constants.TextLayerPdftotext}, quiet(), WithRunner(r))

	res, err := e.Extract(context.Background(), touch(t, "doc.pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Pages != 2 || r.count("pdftotext") != 1 {
		t.Fatalf("pages=%d calls=%+v", res.Pages, r.calls)
	}
}

func TestExtract_Image(t *testing.T) {
	r := &fakeRunner{ocrText: "INVOICE\nTotal SAR 1,200.00\n"}
	e := NewExtractor(Config{TesseractLang: "ara"}, quiet(), WithRunner(r))

	res, err := e.Extract(context.Background(), touch(t, "photo.JPG"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != MethodImageOCR || res.Language != "ara" {
		t.Fatalf("method=%s lang=%s", res.Method, res.Language)
	}
	if res.Confidence <= 0.2 {
		t.Errorf("confidence = %v", res.Confidence)
	}
	if got := r.calls[0].args; got[2] != "-l" || got[3] != "ara" {
		t.Errorf("tesseract args = %v", got)
	}
}

func TestExtract_Rejects(t *testing.T) {
	e := NewExtractor(Config{}, quiet(), WithRunner(&fakeRunner{}))

	_, err := e.Extract(context.Background(), touch(t, "notes.docx"))
	if !errors.Is(err, common.ErrExtraction) || !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("unsupported ext err = %v", err)
	}

	_, err = e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestNormalize(t *testing.T) {
	in := "Qty\t\t05\r\n-----\r\nTotal   100.00  \n\n\n\nEnd"
	want := "Qty 05\n\nTotal 100.00\n\nEnd"
	if got := Normalize(in); got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}
