package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process catalog used for local runs and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[uuid.UUID]*Product)}
}

// Put inserts or replaces a product.
func (r *MemoryRepository) Put(p *Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = cloneProduct(p)
}

func (r *MemoryRepository) GetProduct(_ context.Context, id uuid.UUID) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *MemoryRepository) GetTaxInfo(_ context.Context, productID uuid.UUID) (*TaxInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, ErrNotFound
	}
	info := &TaxInfo{HSNCode: p.HSNCode}
	if p.GSTRate != nil {
		rate := *p.GSTRate
		info.Rate = &rate
	}
	return info, nil
}

func (r *MemoryRepository) StockQuantity(_ context.Context, key StockKey) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	qty, ok := r.counter(key)
	if !ok {
		return 0, ErrNotFound
	}
	return *qty, nil
}

func (r *MemoryRepository) DecrementStock(_ context.Context, key StockKey, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.counter(key)
	if !ok {
		return false, ErrNotFound
	}
	if *cur < qty {
		return false, nil
	}
	*cur -= qty
	return true, nil
}

func (r *MemoryRepository) IncrementStock(_ context.Context, key StockKey, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.counter(key)
	if !ok {
		return ErrNotFound
	}
	*cur += qty
	return nil
}

// counter must be called with r.mu held.
func (r *MemoryRepository) counter(key StockKey) (*int, bool) {
	p, ok := r.products[key.ProductID]
	if !ok {
		return nil, false
	}
	if key.VariantID == uuid.Nil {
		return &p.StockQuantity, true
	}
	v := p.Variant(key.VariantID)
	if v == nil {
		return nil, false
	}
	return &v.StockQuantity, true
}

func cloneProduct(p *Product) *Product {
	cp := *p
	if p.GSTRate != nil {
		rate := *p.GSTRate
		cp.GSTRate = &rate
	}
	cp.Variants = make([]*Variant, len(p.Variants))
	for i, v := range p.Variants {
		vc := *v
		cp.Variants[i] = &vc
	}
	return &cp
}
