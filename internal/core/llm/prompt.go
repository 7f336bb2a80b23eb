package llm

import (
	"strings"

	"github.com/joseph-ayodele/invoice-matcher/constants"
)

// SystemPrompt instructs the model to act as an accounts payable clerk and emit one
// JSON object with invoice_data and po_data.
const SystemPrompt = `You are an accounts payable specialist. You receive the text of an invoice and the text of a purchase order and extract key information from both.

The INVOICE text may contain more than one invoice. Combine them:
- invoice_no: every distinct invoice number, comma separated.
- po_no: the purchase order number the invoices refer to.
- date: the date of the latest invoice.
- vendor: the vendor name.
- items: every line item with its description, quantity and unit price. List each line as it appears; do not merge lines.
- total: the sum of the invoice totals.

From the PURCHASE ORDER text extract po_no, date, vendor, items (description, quantity, unit price) and total.

Return ONLY one JSON object, no markdown, shaped exactly like:
{"invoice_data":{"invoice_no":"...","po_no":"...","date":"...","vendor":"...","items":[{"description":"...","quantity":1,"price":0.00}],"total":0.00},"po_data":{"po_no":"...","date":"...","vendor":"...","items":[{"description":"...","quantity":1,"price":0.00}],"total":0.00}}
Use null for a value that is not present.`

// BuildUserPrompt joins both texts under their section markers.
func BuildUserPrompt(req StructuredRequest) string {
	var b strings.Builder
	b.WriteString(constants.InvoiceTextMarker)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(req.InvoiceText))
	b.WriteString("\n\n")
	b.WriteString(constants.POTextMarker)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(req.POText))
	return b.String()
}
