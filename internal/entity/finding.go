package entity

// Category names the field or item check a Finding belongs to.
type Category string

const (
	CategoryPONumber      Category = "PO_NUMBER"
	CategoryVendor        Category = "VENDOR"
	CategoryTotal         Category = "TOTAL"
	CategoryItemQuantity  Category = "ITEM_QUANTITY"
	CategoryItemLineTotal Category = "ITEM_LINE_TOTAL"
	CategoryUnmatchedItem Category = "UNMATCHED_ITEM"
)

// Severity is the outcome of a single check.
type Severity string

const (
	SeverityMatch    Severity = "MATCH"
	SeverityMismatch Severity = "MISMATCH"
	SeverityWarning  Severity = "WARNING"
)

// Status is the overall verdict of a comparison.
type Status string

const (
	StatusApproved    Status = "APPROVED"
	StatusNeedsReview Status = "NEEDS_REVIEW"
)

// Variant selects how strictly line items are reconciled.
type Variant string

const (
	// VariantStrict also compares accumulated line totals on partial shipments.
	VariantStrict Variant = "strict"
	// VariantLenient only compares quantities.
	VariantLenient Variant = "lenient"
)

// ParseVariant maps a config value to a Variant; anything unknown is strict.
func ParseVariant(s string) Variant {
	if Variant(s) == VariantLenient {
		return VariantLenient
	}
	return VariantStrict
}

// Finding is one reported comparison outcome. Item, the *Value and *Amount fields
// carry what the summary formatter needs to phrase the finding without re-running
// the comparison.
type Finding struct {
	Category      Category `json:"category"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
	Item          string   `json:"item,omitempty"`
	InvoiceValue  string   `json:"invoice_value,omitempty"`
	POValue       string   `json:"po_value,omitempty"`
	InvoiceAmount float64  `json:"invoice_amount,omitempty"`
	POAmount      float64  `json:"po_amount,omitempty"`
}

// ReconciliationResult is produced fresh by every reconcile call and never mutated.
type ReconciliationResult struct {
	Findings      []Finding `json:"findings"`
	Status        Status    `json:"status"`
	Variant       Variant   `json:"variant"`
	InvoiceNumber string    `json:"invoice_number"`
	PONumber      string    `json:"po_number"`
}

// Mismatches counts findings with mismatch severity.
func (r ReconciliationResult) Mismatches() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityMismatch {
			n++
		}
	}
	return n
}

// Warnings counts findings with warning severity.
func (r ReconciliationResult) Warnings() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			n++
		}
	}
	return n
}
