package order

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

// MemoryRepository keeps orders in process. It is used when no database is
// configured and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*Order
	numbers map[string]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: map[uuid.UUID]*Order{}, numbers: map[string]uuid.UUID{}}
}

func (r *MemoryRepository) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.numbers[o.OrderNumber]; taken {
		return fmt.Errorf("order number %s: %w", o.OrderNumber, sequence.ErrCollision)
	}
	r.orders[o.ID] = o.clone()
	r.numbers[o.OrderNumber] = o.ID
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.clone(), nil
}

func (r *MemoryRepository) GetByRemoteOrderID(_ context.Context, remoteOrderID string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if remoteOrderID != "" && o.Payment.RemoteOrderID == remoteOrderID {
			return o.clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Update(_ context.Context, o *Order, expected Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != expected {
		return fmt.Errorf("%w: %s is no longer %s", ErrConflict, o.OrderNumber, expected)
	}
	o.UpdatedAt = time.Now()
	r.orders[o.ID] = o.clone()
	return nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return r.List(ctx, ListFilter{UserID: &userID})
}

func (r *MemoryRepository) List(_ context.Context, f ListFilter) ([]*Order, error) {
	out := r.filter(func(o *Order) bool {
		switch {
		case f.UserID != nil && o.UserID != *f.UserID:
			return false
		case f.Status != "" && o.Status != f.Status:
			return false
		case f.From != nil && o.CreatedAt.Before(*f.From):
			return false
		case f.To != nil && !o.CreatedAt.Before(*f.To):
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*Order{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) ListReservedByUser(_ context.Context, userID uuid.UUID) ([]*Order, error) {
	return r.filter(func(o *Order) bool {
		return o.UserID == userID && o.StockReserved && sweepable(o.Status)
	}), nil
}

func (r *MemoryRepository) ListExpiredReservations(_ context.Context, now time.Time) ([]*Order, error) {
	out := r.filter(func(o *Order) bool {
		return sweepable(o.Status) && o.StockReserved &&
			o.ReservationExpiresAt != nil && o.ReservationExpiresAt.Before(now)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ReservationExpiresAt.Before(*out[j].ReservationExpiresAt) })
	return out, nil
}

func (r *MemoryRepository) LastOrderNumber(_ context.Context, prefix string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	last := ""
	for number := range r.numbers {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		if len(number) > len(last) || (len(number) == len(last) && number > last) {
			last = number
		}
	}
	return last, nil
}

func (r *MemoryRepository) filter(keep func(*Order) bool) []*Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o.clone())
		}
	}
	return out
}

func sweepable(s Status) bool {
	for _, candidate := range sweepableStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}
