package inventory

import (
	"errors"
	"fmt"

	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/google/uuid"
)

// ErrInsufficientStock matches every *InsufficientStockError.
var ErrInsufficientStock = errors.New("insufficient stock")

// Line is one stock demand: a product or variant and a quantity.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id,omitempty"` // uuid.Nil for product-level stock
	Name      string    `json:"name,omitempty"`
	Quantity  int       `json:"quantity"`
}

// Key returns the stock counter the line draws from.
func (l Line) Key() catalog.StockKey {
	return catalog.StockKey{ProductID: l.ProductID, VariantID: l.VariantID}
}

func (l Line) label() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Key().String()
}

// Holdings is quantity already reserved per counter by a buyer's open orders.
type Holdings map[catalog.StockKey]int

// Add accumulates the quantities of lines into h.
func (h Holdings) Add(lines []Line) {
	for _, l := range lines {
		h[l.Key()] += l.Quantity
	}
}

// InsufficientStockError names the line whose demand exceeded supply.
type InsufficientStockError struct {
	Item      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested %d, available %d)", e.Item, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// AvailabilityItem is one requested line of an availability check.
type AvailabilityItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// AvailabilityRequest is the payload for a stand-alone availability check.
type AvailabilityRequest struct {
	Items []AvailabilityItem `json:"items"`
}
