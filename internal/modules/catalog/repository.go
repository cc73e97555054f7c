package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a product or variant does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Repository is the catalog collaborator used by the order core: product
// reads plus the stock counters the inventory ledger mutates.
type Repository interface {
	// GetProduct returns a product with its variants.
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// GetTaxInfo returns the HSN code and GST rate of a product.
	GetTaxInfo(ctx context.Context, productID uuid.UUID) (*TaxInfo, error)

	// StockQuantity reads the current counter for key.
	StockQuantity(ctx context.Context, key StockKey) (int, error)

	// DecrementStock subtracts qty only if the counter holds at least qty.
	// It reports false, with a nil error, when stock was insufficient.
	DecrementStock(ctx context.Context, key StockKey, qty int) (bool, error)

	// IncrementStock adds qty back to the counter.
	IncrementStock(ctx context.Context, key StockKey, qty int) error
}
