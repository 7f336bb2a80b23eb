// Package reconcile compares a normalized invoice against a normalized purchase order.
package reconcile

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-matcher/internal/core/items"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

const (
	// QuantityEpsilon absorbs float noise when comparing summed quantities.
	QuantityEpsilon = 0.001
	notAvailable    = "N/A"
)

// MoneyTolerance is the currency rounding tolerance for totals and line totals.
var MoneyTolerance = decimal.New(1, -2)

// Option configures an Engine.
type Option func(*Engine)

// WithVariant selects strict or lenient item reconciliation.
func WithVariant(v entity.Variant) Option {
	return func(e *Engine) {
		e.variant = entity.ParseVariant(string(v))
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine holds only configuration; Reconcile has no side effects beyond logging.
type Engine struct {
	variant entity.Variant
	logger  *slog.Logger
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{variant: entity.VariantStrict, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Variant() entity.Variant { return e.variant }

// ReconcileExtraction builds both records from raw structured data and reconciles them.
func (e *Engine) ReconcileExtraction(x entity.Extraction) (invoice, po entity.DocumentRecord, result entity.ReconciliationResult) {
	agg := items.NewAggregator(e.logger)
	invoice = agg.BuildRecord(entity.KindInvoice, x.InvoiceData)
	po = agg.BuildRecord(entity.KindPurchaseOrder, x.POData)
	return invoice, po, e.Reconcile(invoice, po)
}

// Reconcile runs the header checks (PO number, vendor, total) and then one check per
// invoice item, in the invoice's first-seen item order. Items only on the PO are not
// reported.
func (e *Engine) Reconcile(invoice, po entity.DocumentRecord) entity.ReconciliationResult {
	findings := make([]entity.Finding, 0, 3+len(invoice.Items))
	findings = append(findings,
		comparePONumber(invoice.PONumber, po.PONumber),
		compareVendor(invoice.Vendor, po.Vendor),
		compareTotal(invoice.Total, po.Total),
	)

	poItems := make(map[string]entity.NormalizedItem, len(po.Items))
	for _, it := range po.Items {
		poItems[it.Key] = it
	}
	for _, inv := range invoice.Items {
		poItem, ok := poItems[inv.Key]
		if !ok {
			findings = append(findings, entity.Finding{
				Category:      entity.CategoryUnmatchedItem,
				Severity:      entity.SeverityMismatch,
				Message:       fmt.Sprintf("Item '%s' on invoice could not be found on the PO", inv.Description),
				Item:          inv.Description,
				InvoiceAmount: inv.Quantity,
			})
			continue
		}
		findings = append(findings, e.compareItem(inv, poItem)...)
	}

	result := entity.ReconciliationResult{
		Findings:      findings,
		Status:        entity.StatusApproved,
		Variant:       e.variant,
		InvoiceNumber: entity.DisplayOrNA(invoice.DocNumber),
		PONumber:      entity.DisplayOrNA(po.DocNumber),
	}
	if result.Mismatches() > 0 {
		result.Status = entity.StatusNeedsReview
	}

	e.logger.Debug("reconcile.done",
		slog.String("variant", string(e.variant)),
		slog.String("status", string(result.Status)),
		slog.Int("findings", len(findings)),
		slog.Int("mismatches", result.Mismatches()),
		slog.Int("warnings", result.Warnings()),
	)
	return result
}

func (e *Engine) compareItem(inv, po entity.NormalizedItem) []entity.Finding {
	base := entity.Finding{
		Category:      entity.CategoryItemQuantity,
		Item:          inv.Description,
		InvoiceValue:  FormatQuantity(inv.Quantity),
		POValue:       FormatQuantity(po.Quantity),
		InvoiceAmount: inv.Quantity,
		POAmount:      po.Quantity,
	}

	switch {
	case inv.Quantity > po.Quantity+QuantityEpsilon:
		base.Severity = entity.SeverityMismatch
		base.Message = fmt.Sprintf("Quantity mismatch for '%s': Invoice (%s) exceeds PO quantity (%s)",
			inv.Description, base.InvoiceValue, base.POValue)
		return []entity.Finding{base}

	case inv.Quantity < po.Quantity-QuantityEpsilon:
		base.Severity = entity.SeverityWarning
		base.Message = fmt.Sprintf("Quantity for '%s' is a partial shipment: Invoice (%s) of PO (%s)",
			inv.Description, base.InvoiceValue, base.POValue)
		out := []entity.Finding{base}
		if e.variant == entity.VariantStrict && money(inv.LineTotal).GreaterThan(money(po.LineTotal).Add(MoneyTolerance)) {
			out = append(out, entity.Finding{
				Category:      entity.CategoryItemLineTotal,
				Severity:      entity.SeverityMismatch,
				Message:       fmt.Sprintf("Line total for '%s': Invoice (%.2f) exceeds PO (%.2f)", inv.Description, inv.LineTotal, po.LineTotal),
				Item:          inv.Description,
				InvoiceValue:  fmt.Sprintf("%.2f", inv.LineTotal),
				POValue:       fmt.Sprintf("%.2f", po.LineTotal),
				InvoiceAmount: inv.LineTotal,
				POAmount:      po.LineTotal,
			})
		}
		return out

	default:
		base.Severity = entity.SeverityMatch
		base.Message = fmt.Sprintf("Quantity for '%s' matches", inv.Description)
		return []entity.Finding{base}
	}
}

func comparePONumber(invoicePO, poPO string) entity.Finding {
	inv, po := entity.DisplayOrNA(invoicePO), entity.DisplayOrNA(poPO)
	f := entity.Finding{Category: entity.CategoryPONumber, InvoiceValue: inv, POValue: po}
	if inv == po && inv != notAvailable {
		f.Severity = entity.SeverityMatch
		f.Message = fmt.Sprintf("PO Number matches: %s", po)
		return f
	}
	f.Severity = entity.SeverityMismatch
	f.Message = fmt.Sprintf("PO Number mismatch: Invoice (%s) vs PO (%s)", inv, po)
	return f
}

func compareVendor(invoiceVendor, poVendor string) entity.Finding {
	inv, po := NormalizeVendor(invoiceVendor), NormalizeVendor(poVendor)
	f := entity.Finding{
		Category:     entity.CategoryVendor,
		InvoiceValue: entity.DisplayOrNA(invoiceVendor),
		POValue:      entity.DisplayOrNA(poVendor),
	}
	if inv != "" && po != "" && (strings.Contains(po, inv) || strings.Contains(inv, po)) {
		f.Severity = entity.SeverityMatch
		f.Message = fmt.Sprintf("Vendor matches: %s", f.InvoiceValue)
		return f
	}
	f.Severity = entity.SeverityMismatch
	f.Message = fmt.Sprintf("Vendor mismatch: Invoice (%s) vs PO (%s)", f.InvoiceValue, f.POValue)
	return f
}

func compareTotal(invoiceTotal, poTotal float64) entity.Finding {
	f := entity.Finding{
		Category:      entity.CategoryTotal,
		InvoiceValue:  fmt.Sprintf("%.2f", invoiceTotal),
		POValue:       fmt.Sprintf("%.2f", poTotal),
		InvoiceAmount: invoiceTotal,
		POAmount:      poTotal,
	}
	if money(invoiceTotal).Sub(money(poTotal)).Abs().LessThan(MoneyTolerance) {
		f.Severity = entity.SeverityMatch
		f.Message = fmt.Sprintf("Total amount matches: %s", f.InvoiceValue)
		return f
	}
	f.Severity = entity.SeverityMismatch
	f.Message = fmt.Sprintf("Total amount mismatch: Invoice (%s) vs PO (%s)", f.InvoiceValue, f.POValue)
	return f
}

// NormalizeVendor lower-cases a vendor name and removes every space.
func NormalizeVendor(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}

// FormatQuantity prints a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(math.Round(q*1e6)/1e6, 'f', -1, 64)
}

// money drops float noise below a millionth before decimal comparison. Infinities
// saturate at the largest float and NaN reads as zero.
func money(f float64) decimal.Decimal {
	switch {
	case math.IsNaN(f):
		return decimal.Zero
	case math.IsInf(f, 1):
		f = math.MaxFloat64
	case math.IsInf(f, -1):
		f = -math.MaxFloat64
	}
	return decimal.NewFromFloat(f).Round(6)
}
