package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidInput is returned for malformed ids or quantities.
var ErrInvalidInput = errors.New("invalid catalog input")

// Service defines catalog business logic.
type Service interface {
	// GetProduct returns an active product with only its active variants.
	GetProduct(ctx context.Context, id string) (*Product, error)

	// Restock adds qty units to a product or variant counter and returns the new level.
	Restock(ctx context.Context, req RestockRequest) (int, error)
}

// RestockRequest holds the data for a stock top-up.
type RestockRequest struct {
	ProductID string `json:"-"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: product id %q", ErrInvalidInput, id)
	}
	p, err := s.repo.GetProduct(ctx, pid)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}

	active := p.Variants[:0]
	for _, v := range p.Variants {
		if v.IsActive {
			active = append(active, v)
		}
	}
	p.Variants = active
	return p, nil
}

func (s *service) Restock(ctx context.Context, req RestockRequest) (int, error) {
	if req.Quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidInput)
	}
	key := StockKey{}
	var err error
	if key.ProductID, err = uuid.Parse(req.ProductID); err != nil {
		return 0, fmt.Errorf("%w: product id %q", ErrInvalidInput, req.ProductID)
	}
	if req.VariantID != "" {
		if key.VariantID, err = uuid.Parse(req.VariantID); err != nil {
			return 0, fmt.Errorf("%w: variant id %q", ErrInvalidInput, req.VariantID)
		}
	}

	if err := s.repo.IncrementStock(ctx, key, req.Quantity); err != nil {
		return 0, fmt.Errorf("restock %s: %w", key, err)
	}
	return s.repo.StockQuantity(ctx, key)
}
