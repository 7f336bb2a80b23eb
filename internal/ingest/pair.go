package ingest

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/invoice-matcher/constants"
)

// Role is the side of a comparison a file belongs to.
type Role string

const (
	RoleInvoice Role = "invoice"
	RolePO      Role = "po"
)

const (
	invoiceSuffix = "_invoice"
	poSuffix      = "_po"
)

// Pair is an invoice and the purchase order it should be checked against.
type Pair struct {
	Key         string
	InvoicePath string
	POPath      string
}

// Complete reports whether both sides are known.
func (p Pair) Complete() bool { return p.InvoicePath != "" && p.POPath != "" }

// ParsePairName recognises <stem>_invoice.<ext> and <stem>_po.<ext>. The key is the
// directory joined with the lowercased stem so equal stems in different folders stay apart.
func ParsePairName(path string) (key string, role Role, ok bool) {
	ext := filepath.Ext(path)
	if _, allowed := constants.AllowedExtensions[constants.NormalizeExt(ext)]; !allowed {
		return "", "", false
	}
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), ext))
	switch {
	case strings.HasSuffix(base, invoiceSuffix):
		role = RoleInvoice
		base = strings.TrimSuffix(base, invoiceSuffix)
	case strings.HasSuffix(base, poSuffix):
		role = RolePO
		base = strings.TrimSuffix(base, poSuffix)
	default:
		return "", "", false
	}
	if base == "" {
		return "", "", false
	}
	return filepath.Join(filepath.Dir(path), base), role, true
}

// Pairer remembers which half of each pair has been seen.
type Pairer struct {
	mu    sync.Mutex
	pairs map[string]Pair
}

func NewPairer() *Pairer {
	return &Pairer{pairs: make(map[string]Pair)}
}

// Observe records path and returns its pair once both halves exist. A change to either
// file of a complete pair returns the pair again.
func (p *Pairer) Observe(path string) (Pair, bool) {
	key, role, ok := ParsePairName(path)
	if !ok {
		return Pair{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pr := p.pairs[key]
	pr.Key = key
	if role == RoleInvoice {
		pr.InvoicePath = path
	} else {
		pr.POPath = path
	}
	p.pairs[key] = pr
	return pr, pr.Complete()
}

// Forget drops a removed file so its pair is not emitted until it comes back.
func (p *Pairer) Forget(path string) {
	key, role, ok := ParsePairName(path)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pr, found := p.pairs[key]
	if !found {
		return
	}
	if role == RoleInvoice && pr.InvoicePath == path {
		pr.InvoicePath = ""
	}
	if role == RolePO && pr.POPath == path {
		pr.POPath = ""
	}
	if pr.InvoicePath == "" && pr.POPath == "" {
		delete(p.pairs, key)
		return
	}
	p.pairs[key] = pr
}

// Pending lists pairs still missing one side.
func (p *Pairer) Pending() []Pair {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Pair
	for _, pr := range p.pairs {
		if !pr.Complete() {
			out = append(out, pr)
		}
	}
	return out
}
