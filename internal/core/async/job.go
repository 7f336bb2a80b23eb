package async

import (
	"context"
	"time"
)

// Job is one invoice/purchase-order pair waiting to be compared.
type Job struct {
	Key         string // pair name, e.g. the shared file stem
	InvoicePath string
	POPath      string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
