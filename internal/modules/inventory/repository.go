package inventory

import (
	"context"

	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
)

// StockStore is the counter storage the ledger mutates. catalog.Repository
// implementations satisfy it.
type StockStore interface {
	// StockQuantity reads the current counter.
	StockQuantity(ctx context.Context, key catalog.StockKey) (int, error)

	// DecrementStock subtracts qty only when enough stock remains.
	DecrementStock(ctx context.Context, key catalog.StockKey, qty int) (bool, error)

	// IncrementStock adds qty back.
	IncrementStock(ctx context.Context, key catalog.StockKey, qty int) error
}
