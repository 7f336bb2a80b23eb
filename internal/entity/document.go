package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentKind tells an invoice record apart from a purchase-order record.
type DocumentKind string

const (
	KindInvoice       DocumentKind = "INVOICE"
	KindPurchaseOrder DocumentKind = "PO"
)

// FlexString decodes a JSON string, number or null into a plain string.
// Extractors are not consistent about quoting identifiers like po_no.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	case '{', '[':
		return fmt.Errorf("flex string: unsupported json value %s", string(b))
	default:
		// numbers and booleans keep their literal form
		*s = FlexString(string(b))
	}
	return nil
}

func (s FlexString) String() string { return string(s) }

// RawItem is one line item exactly as the structured extractor returned it.
// Quantity and Price carry whatever JSON type the extractor produced.
type RawItem struct {
	Description string `json:"description"`
	Quantity    any    `json:"quantity"`
	Price       any    `json:"price"`
}

// RawDocument is the extractor's view of one document. InvoiceNo is empty for a PO.
type RawDocument struct {
	InvoiceNo FlexString `json:"invoice_no,omitempty"`
	PONo      FlexString `json:"po_no"`
	Date      FlexString `json:"date"`
	Vendor    FlexString `json:"vendor"`
	Items     []RawItem  `json:"items"`
	Total     any        `json:"total"`
}

// Extraction is the structured record pair for one comparison.
type Extraction struct {
	InvoiceData RawDocument `json:"invoice_data"`
	POData      RawDocument `json:"po_data"`
}

// NormalizedItem is the aggregate of every raw item sharing a canonical key.
type NormalizedItem struct {
	Key         string  `json:"key"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// DocumentRecord is the normalized representation of one document after aggregation.
// DocNumber is the invoice number for invoices and the PO number for purchase orders;
// PONumber is the purchase order the document refers to.
type DocumentRecord struct {
	Kind      DocumentKind     `json:"kind"`
	DocNumber string           `json:"doc_number"`
	PONumber  string           `json:"po_number"`
	Date      string           `json:"date"`
	Vendor    string           `json:"vendor"`
	Items     []NormalizedItem `json:"items"`
	Total     float64          `json:"total"`
}

// DisplayOrNA returns s trimmed, or "N/A" when blank.
func DisplayOrNA(s string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return "N/A"
}
