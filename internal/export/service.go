package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-matcher/internal/core/summary"
	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
	"github.com/joseph-ayodele/invoice-matcher/internal/repository"
)

const (
	sheetSummary  = "Summary"
	sheetInvoice  = "Invoice Items"
	sheetPO       = "PO Items"
	sheetFindings = "Findings"
)

// Service produces XLSX bytes for stored or in-memory comparisons.
type Service struct {
	repo   repository.ComparisonRepository
	format *summary.Formatter
	logger *slog.Logger
}

func NewService(repo repository.ComparisonRepository, format *summary.Formatter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if format == nil {
		format = summary.NewFormatter("")
	}
	return &Service{repo: repo, format: format, logger: logger}
}

// ExportComparisonXLSX loads a stored comparison and renders it as a workbook.
func (s *Service) ExportComparisonXLSX(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("export: no comparison store configured")
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load comparison: %w", err)
	}
	return s.WorkbookXLSX(c)
}

// WorkbookXLSX renders Summary, Invoice Items, PO Items and Findings sheets.
func (s *Service) WorkbookXLSX(c *entity.Comparison) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetInvoice, sheetPO, sheetFindings} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	s.writeSummary(f, c)
	writeItems(f, sheetInvoice, c.Invoice.Items)
	writeItems(f, sheetPO, c.PO.Items)
	writeFindings(f, c.Result.Findings)

	idx, _ := f.GetSheetIndex(sheetSummary)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"comparison_id", c.ID.String(),
		"findings", len(c.Result.Findings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummary(f *excelize.File, c *entity.Comparison) {
	rows := [][]any{
		{"Comparison ID", c.ID.String()},
		{"Created", c.CreatedAt.UTC().Format(time.RFC3339)},
		{"Invoice File", c.InvoiceFile},
		{"PO File", c.POFile},
		{"Invoice Number", c.Result.InvoiceNumber},
		{"PO Number", c.Result.PONumber},
		{"Vendor", entity.DisplayOrNA(c.Invoice.Vendor)},
		{"Invoice Total", s.format.Money(c.Invoice.Total)},
		{"PO Total", s.format.Money(c.PO.Total)},
		{"Variant", string(c.Result.Variant)},
		{"Status", string(c.Result.Status)},
		{"Mismatches", c.Result.Mismatches()},
		{"Warnings", c.Result.Warnings()},
		{},
	}
	for _, line := range s.format.Checklist(c.Result) {
		rows = append(rows, []any{line})
	}
	writeRows(f, sheetSummary, rows)
	_ = f.SetColWidth(sheetSummary, "A", "A", 60)
	_ = f.SetColWidth(sheetSummary, "B", "B", 40)
}

func writeItems(f *excelize.File, sheet string, items []entity.NormalizedItem) {
	rows := [][]any{{"Key", "Description", "Quantity", "Unit Price", "Line Total"}}
	for _, it := range items {
		rows = append(rows, []any{it.Key, it.Description, it.Quantity, it.UnitPrice, it.LineTotal})
	}
	writeRows(f, sheet, rows)
	_ = f.SetColWidth(sheet, "A", "B", 32)
	_ = f.SetColWidth(sheet, "C", "E", 14)
}

func writeFindings(f *excelize.File, findings []entity.Finding) {
	rows := [][]any{{"Check", "Severity", "Item", "Message"}}
	for _, fd := range findings {
		rows = append(rows, []any{string(fd.Category), string(fd.Severity), fd.Item, truncate(fd.Message, 240)})
	}
	writeRows(f, sheetFindings, rows)
	_ = f.SetColWidth(sheetFindings, "A", "B", 18)
	_ = f.SetColWidth(sheetFindings, "C", "C", 28)
	_ = f.SetColWidth(sheetFindings, "D", "D", 80)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) {
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
