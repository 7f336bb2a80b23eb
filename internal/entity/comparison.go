package entity

import (
	"time"

	"github.com/google/uuid"
)

// Comparison is a finished invoice/PO comparison for data transfer between layers.
type Comparison struct {
	ID          uuid.UUID            `json:"id"`
	InvoiceFile string               `json:"invoice_file,omitempty"`
	POFile      string               `json:"po_file,omitempty"`
	Invoice     DocumentRecord       `json:"invoice"`
	PO          DocumentRecord       `json:"po"`
	Result      ReconciliationResult `json:"result"`
	CreatedAt   time.Time            `json:"created_at"`
}
