package llm

import (
	"context"

	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// StructuredRequest carries the raw text of both documents of one comparison.
type StructuredRequest struct {
	InvoiceText string
	POText      string
	// InvoiceFile and POFile are for logging only.
	InvoiceFile string
	POFile      string
}

// StructuredExtractor turns two document texts into structured records.
// The raw model output is returned alongside the records so callers can keep it
// for diagnosis. Failures are *common.StructuredExtractionError.
type StructuredExtractor interface {
	Extract(ctx context.Context, req StructuredRequest) (entity.Extraction, []byte, error)
}
