package extract

import (
	"context"
	"time"
)

// DocumentTextExtractor turns a document file into text. Implementations try the
// PDF text layer before falling back to OCR and return *common.ExtractionError
// when no strategy recovers any text.
type DocumentTextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}
