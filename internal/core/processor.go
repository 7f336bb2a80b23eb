package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-matcher/internal/common"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/extract"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/llm"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/reconcile"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/repository"
)

// Processor runs one invoice/PO comparison start to finish: text extraction for
// both files, structured extraction, reconciliation and, when a store is set,
// persistence. Nothing is retried; the first failure ends the comparison.
type Processor struct {
	logger     *slog.Logger
	text       extract.DocumentTextExtractor
	structured llm.StructuredExtractor
	engine     *reconcile.Engine
	store      repository.ComparisonRepository
	now        func() time.Time
}

type ProcessorOption func(*Processor)

// WithStore persists every finished comparison. Store failures are logged only.
func WithStore(s repository.ComparisonRepository) ProcessorOption {
	return func(p *Processor) { p.store = s }
}

func WithEngine(e *reconcile.Engine) ProcessorOption {
	return func(p *Processor) {
		if e != nil {
			p.engine = e
		}
	}
}

// NewProcessor wires the collaborators. text and structured may be nil for
// callers that only reconcile pre-extracted records.
func NewProcessor(
	logger *slog.Logger,
	text extract.DocumentTextExtractor,
	structured llm.StructuredExtractor,
	opts ...ProcessorOption,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:     logger,
		text:       text,
		structured: structured,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = reconcile.NewEngine(reconcile.WithLogger(logger))
	}
	return p
}

func (p *Processor) Variant() entity.Variant { return p.engine.Variant() }

// Compare extracts and reconciles an invoice file against a purchase order file.
func (p *Processor) Compare(ctx context.Context, invoicePath, poPath string) (*entity.Comparison, error) {
	v := common.NewValidator()
	v.Field("invoice_path", invoicePath, common.Required, common.SupportedDocument)
	v.Field("po_path", poPath, common.Required, common.SupportedDocument)
	if err := v.Error(); err != nil {
		return nil, err
	}
	if p.text == nil || p.structured == nil {
		return nil, common.NewAppError("NOT_CONFIGURED", "document extraction is not configured", common.ErrNotConfigured)
	}

	id := uuid.New()
	ctx = common.WithComparisonID(ctx, id.String())
	log := p.logger.With("comparison_id", id)
	start := time.Now()
	log.Info("processor.compare.start", "invoice_file", invoicePath, "po_file", poPath)

	invText, err := p.text.Extract(ctx, invoicePath)
	if err != nil {
		log.Error("processor.extract.failed", "document", "invoice", "error", err)
		return nil, fmt.Errorf("invoice: %w", err)
	}
	poText, err := p.text.Extract(ctx, poPath)
	if err != nil {
		log.Error("processor.extract.failed", "document", "po", "error", err)
		return nil, fmt.Errorf("purchase order: %w", err)
	}
	log.Debug("processor.extract.ok",
		"invoice_method", invText.Method, "invoice_pages", invText.Pages,
		"po_method", poText.Method, "po_pages", poText.Pages,
	)

	x, _, err := p.structured.Extract(ctx, llm.StructuredRequest{
		InvoiceText: invText.Text,
		POText:      poText.Text,
		InvoiceFile: filepath.Base(invoicePath),
		POFile:      filepath.Base(poPath),
	})
	if err != nil {
		log.Error("processor.structured.failed", "error", err)
		return nil, err
	}

	c := p.reconcile(ctx, id, x, invoicePath, poPath)
	log.Info("processor.compare.done",
		"status", c.Result.Status,
		"mismatches", c.Result.Mismatches(),
		"warnings", c.Result.Warnings(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return c, nil
}

// ReconcileExtraction reconciles records that were extracted elsewhere.
func (p *Processor) ReconcileExtraction(ctx context.Context, x entity.Extraction) *entity.Comparison {
	id := uuid.New()
	return p.reconcile(common.WithComparisonID(ctx, id.String()), id, x, "", "")
}

func (p *Processor) reconcile(ctx context.Context, id uuid.UUID, x entity.Extraction, invoiceFile, poFile string) *entity.Comparison {
	inv, po, res := p.engine.ReconcileExtraction(x)
	c := &entity.Comparison{
		ID:          id,
		InvoiceFile: invoiceFile,
		POFile:      poFile,
		Invoice:     inv,
		PO:          po,
		Result:      res,
		CreatedAt:   p.now(),
	}
	if p.store != nil {
		if err := p.store.Save(ctx, c); err != nil {
			p.logger.Warn("processor.store.failed", "comparison_id", id, "error", err)
		}
	}
	return c
}
