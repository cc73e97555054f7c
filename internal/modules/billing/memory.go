package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/platform/sequence"
	"github.com/google/uuid"
)

// MemoryRepository keeps invoices in process. Reads return copies.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Invoice
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]*Invoice)}
}

func (r *MemoryRepository) Create(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.OrderID == inv.OrderID {
			return ErrOrderInvoiced
		}
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return fmt.Errorf("invoice number %s: %w", inv.InvoiceNumber, sequence.ErrCollision)
		}
	}
	cp := cloneInvoice(inv)
	cp.UpdatedAt = cp.CreatedAt
	r.byID[inv.ID] = cp
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (r *MemoryRepository) GetByOrder(_ context.Context, orderID uuid.UUID) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.byID {
		if inv.OrderID == orderID {
			return cloneInvoice(inv), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	return r.List(ctx, ListFilter{UserID: &userID})
}

func (r *MemoryRepository) List(_ context.Context, f ListFilter) ([]*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Invoice{}
	for _, inv := range r.byID {
		if f.UserID != nil && inv.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.From != nil && inv.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !inv.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return []*Invoice{}, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateDocumentURL(_ context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	inv.DocumentURL = url
	inv.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) LastNumber(_ context.Context, prefix string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	last := ""
	for _, inv := range r.byID {
		n := inv.InvoiceNumber
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if len(n) > len(last) || (len(n) == len(last) && n > last) {
			last = n
		}
	}
	return last, nil
}

func cloneInvoice(inv *Invoice) *Invoice {
	cp := *inv
	cp.Items = append([]InvoiceItem(nil), inv.Items...)
	return &cp
}
