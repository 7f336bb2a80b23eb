// Package summary renders a reconciliation result as a checklist and as prose.
// Both views read only the result; nothing is compared again here.
package summary

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

const (
	MarkMatch    = "✓"
	MarkMismatch = "✗"
	MarkWarning  = "⚠"

	DiscrepancyHeading = "Discrepancy Details"
)

// Formatter phrases findings. The currency label prefixes every amount.
type Formatter struct {
	currency string
	printer  *message.Printer
}

func NewFormatter(currency string) *Formatter {
	return &Formatter{
		currency: strings.TrimSpace(currency),
		printer:  message.NewPrinter(language.English),
	}
}

// Money formats an amount with thousands separators and two decimals.
func (f *Formatter) Money(v float64) string {
	s := f.printer.Sprintf("%.2f", v)
	if f.currency == "" {
		return s
	}
	return f.currency + " " + s
}

// Mark returns the checklist marker for a severity.
func Mark(s entity.Severity) string {
	switch s {
	case entity.SeverityMatch:
		return MarkMatch
	case entity.SeverityWarning:
		return MarkWarning
	default:
		return MarkMismatch
	}
}

// Checklist returns one line per finding followed by a status line.
func (f *Formatter) Checklist(res entity.ReconciliationResult) []string {
	lines := make([]string, 0, len(res.Findings)+1)
	for _, fd := range res.Findings {
		lines = append(lines, Mark(fd.Severity)+" "+f.checkLine(fd))
	}
	return append(lines, StatusLine(res.Status))
}

// StatusLine is the trailing line of a checklist.
func StatusLine(s entity.Status) string {
	if s == entity.StatusApproved {
		return "→ Status: APPROVED"
	}
	return "→ Status: NEEDS REVIEW - critical discrepancies found"
}

func (f *Formatter) checkLine(fd entity.Finding) string {
	switch fd.Category {
	case entity.CategoryTotal:
		if fd.Severity == entity.SeverityMatch {
			return "Total amount matches: " + f.Money(fd.InvoiceAmount)
		}
		return fmt.Sprintf("Total amount mismatch: Invoice (%s) vs PO (%s)", f.Money(fd.InvoiceAmount), f.Money(fd.POAmount))
	case entity.CategoryItemLineTotal:
		return fmt.Sprintf("Line total for '%s': Invoice (%s) exceeds PO (%s)", fd.Item, f.Money(fd.InvoiceAmount), f.Money(fd.POAmount))
	default:
		return fd.Message
	}
}

// Narrative is the prose view of a result.
type Narrative struct {
	Approved bool
	Intro    string
	// Heading and Details are set only when there are mismatches.
	Heading string
	Details []string
	// Notes carries warnings of an approved result.
	Notes      []string
	Conclusion string
}

// Narrative builds the prose view. Matched findings are left out.
func (f *Formatter) Narrative(res entity.ReconciliationResult) Narrative {
	var sentences []string
	for _, fd := range res.Findings {
		if fd.Severity == entity.SeverityMatch {
			continue
		}
		sentences = append(sentences, f.sentence(fd))
	}

	if res.Mismatches() == 0 {
		return Narrative{
			Approved: true,
			Intro: fmt.Sprintf("A review of Invoice %s against Purchase Order %s shows that all key details match.",
				res.InvoiceNumber, res.PONumber),
			Notes:      sentences,
			Conclusion: "The invoice is approved for payment.",
		}
	}
	return Narrative{
		Intro: fmt.Sprintf("Based on the review of Invoice %s against Purchase Order %s, the following discrepancies have been identified:",
			res.InvoiceNumber, res.PONumber),
		Heading:    DiscrepancyHeading,
		Details:    sentences,
		Conclusion: "The invoice needs review before payment.",
	}
}

func (f *Formatter) sentence(fd entity.Finding) string {
	switch fd.Category {
	case entity.CategoryPONumber:
		return fmt.Sprintf("The invoice references PO number %s, but the purchase order number is %s.", fd.InvoiceValue, fd.POValue)
	case entity.CategoryVendor:
		return fmt.Sprintf("The vendor on the invoice (%s) does not match the vendor on the purchase order (%s).", fd.InvoiceValue, fd.POValue)
	case entity.CategoryTotal:
		cmp := "lower"
		if fd.InvoiceAmount > fd.POAmount {
			cmp = "higher"
		}
		return fmt.Sprintf("The Total Amount on the invoice (%s) is %s than the Purchase Order total (%s).",
			f.Money(fd.InvoiceAmount), cmp, f.Money(fd.POAmount))
	case entity.CategoryUnmatchedItem:
		return fmt.Sprintf("The item '%s' appears on the invoice but was not found on the purchase order.", fd.Item)
	case entity.CategoryItemQuantity:
		if fd.Severity == entity.SeverityWarning {
			return fmt.Sprintf("The invoice reflects a partial shipment for the item '%s', with %s units billed out of the %s total units ordered.",
				fd.Item, fd.InvoiceValue, fd.POValue)
		}
		return fmt.Sprintf("For the item '%s', the invoice bills for %s units, which exceeds the %s units listed on the purchase order.",
			fd.Item, fd.InvoiceValue, fd.POValue)
	case entity.CategoryItemLineTotal:
		return fmt.Sprintf("For the item '%s', the invoice line total (%s) exceeds the purchase order line total (%s).",
			fd.Item, f.Money(fd.InvoiceAmount), f.Money(fd.POAmount))
	default:
		return fd.Message
	}
}

// String renders the narrative as plain text.
func (n Narrative) String() string {
	var b strings.Builder
	b.WriteString(n.Intro)
	b.WriteString("\n")
	if n.Heading != "" {
		b.WriteString("\n")
		b.WriteString(n.Heading)
		b.WriteString("\n")
		for _, d := range n.Details {
			b.WriteString("  - ")
			b.WriteString(d)
			b.WriteString("\n")
		}
	}
	if len(n.Notes) > 0 {
		b.WriteString("\nNotes\n")
		for _, d := range n.Notes {
			b.WriteString("  - ")
			b.WriteString(d)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nConclusion\n  ")
	b.WriteString(n.Conclusion)
	b.WriteString("\n")
	return b.String()
}
