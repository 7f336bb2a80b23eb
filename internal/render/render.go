// Package render presents a finished comparison to a person or a pipeline.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/invoice-matcher/internal/core/reconcile"
	"github.com/joseph-ayodele/invoice-matcher/internal/core/summary"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// ReportRenderer presents two records and their reconciliation result.
type ReportRenderer interface {
	Render(invoice, po entity.DocumentRecord, result entity.ReconciliationResult) error
}

// TextRenderer writes header fields, item tables, the checklist and the narrative.
type TextRenderer struct {
	w      io.Writer
	format *summary.Formatter
}

func NewTextRenderer(w io.Writer, format *summary.Formatter) *TextRenderer {
	if format == nil {
		format = summary.NewFormatter("")
	}
	return &TextRenderer{w: w, format: format}
}

func (r *TextRenderer) Render(invoice, po entity.DocumentRecord, result entity.ReconciliationResult) error {
	var b strings.Builder

	b.WriteString("Documents\n")
	hdr := tablewriter.NewWriter(&b)
	hdr.SetHeader([]string{"Field", "Invoice", "Purchase Order"})
	hdr.SetAutoWrapText(false)
	hdr.AppendBulk([][]string{
		{"Number", entity.DisplayOrNA(invoice.DocNumber), entity.DisplayOrNA(po.DocNumber)},
		{"PO Number", entity.DisplayOrNA(invoice.PONumber), entity.DisplayOrNA(po.PONumber)},
		{"Date", entity.DisplayOrNA(invoice.Date), entity.DisplayOrNA(po.Date)},
		{"Vendor", entity.DisplayOrNA(invoice.Vendor), entity.DisplayOrNA(po.Vendor)},
		{"Total", r.format.Money(invoice.Total), r.format.Money(po.Total)},
	})
	hdr.Render()

	r.itemTable(&b, "Invoice Items", invoice.Items)
	r.itemTable(&b, "PO Items", po.Items)

	b.WriteString("\nChecklist\n")
	for _, line := range r.format.Checklist(result) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString("\nSummary\n")
	b.WriteString(r.format.Narrative(result).String())
	b.WriteByte('\n')

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TextRenderer) itemTable(b *strings.Builder, title string, list []entity.NormalizedItem) {
	fmt.Fprintf(b, "\n%s\n", title)
	if len(list) == 0 {
		b.WriteString("(none)\n")
		return
	}
	t := tablewriter.NewWriter(b)
	t.SetHeader([]string{"Description", "Quantity", "Unit Price", "Line Total"})
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, it := range list {
		t.Append([]string{
			it.Description,
			reconcile.FormatQuantity(it.Quantity),
			r.format.Money(it.UnitPrice),
			r.format.Money(it.LineTotal),
		})
	}
	t.Render()
}

// JSONRenderer writes one JSON object per comparison.
type JSONRenderer struct {
	w      io.Writer
	format *summary.Formatter
}

func NewJSONRenderer(w io.Writer, format *summary.Formatter) *JSONRenderer {
	if format == nil {
		format = summary.NewFormatter("")
	}
	return &JSONRenderer{w: w, format: format}
}

type jsonReport struct {
	Invoice   entity.DocumentRecord       `json:"invoice"`
	PO        entity.DocumentRecord       `json:"po"`
	Result    entity.ReconciliationResult `json:"result"`
	Checklist []string                    `json:"checklist"`
	Narrative string                      `json:"narrative"`
}

func (r *JSONRenderer) Render(invoice, po entity.DocumentRecord, result entity.ReconciliationResult) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Invoice:   invoice,
		PO:        po,
		Result:    result,
		Checklist: r.format.Checklist(result),
		Narrative: r.format.Narrative(result).String(),
	})
}
