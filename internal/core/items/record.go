package items

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// BuildRecord is Aggregator.BuildRecord with the default logger.
func BuildRecord(kind entity.DocumentKind, raw entity.RawDocument) entity.DocumentRecord {
	return NewAggregator(nil).BuildRecord(kind, raw)
}

// BuildRecord turns one extracted document into its normalized record.
func (a *Aggregator) BuildRecord(kind entity.DocumentKind, raw entity.RawDocument) entity.DocumentRecord {
	rec := entity.DocumentRecord{
		Kind:     kind,
		PONumber: strings.TrimSpace(raw.PONo.String()),
		Date:     strings.TrimSpace(raw.Date.String()),
		Vendor:   strings.TrimSpace(raw.Vendor.String()),
		Items:    a.Aggregate(raw.Items),
		Total:    a.parse(raw.Total, "total", string(kind)),
	}
	if kind == entity.KindInvoice {
		rec.DocNumber = strings.TrimSpace(raw.InvoiceNo.String())
	} else {
		rec.DocNumber = rec.PONumber
	}
	a.logger.Debug("items.record.built",
		slog.String("kind", string(kind)),
		slog.String("doc_number", rec.DocNumber),
		slog.Int("raw_items", len(raw.Items)),
		slog.Int("items", len(rec.Items)),
	)
	return rec
}
