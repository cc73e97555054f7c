package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable catalog entry. Prices are in paise.
type Product struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	SKU           string     `json:"sku,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	PricePaise    int64      `json:"price_paise"`
	MRPPaise      int64      `json:"mrp_paise"`
	IsActive      bool       `json:"is_active"`
	HasVariants   bool       `json:"has_variants"`
	StockQuantity int        `json:"stock_quantity"`
	HSNCode       string     `json:"hsn_code,omitempty"`
	GSTRate       *int       `json:"gst_rate,omitempty"` // nil falls back to the configured default
	Variants      []*Variant `json:"variants,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Variant is a size/colour/etc. option of a product with its own price and stock.
type Variant struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku,omitempty"`
	PricePaise    int64     `json:"price_paise"`
	MRPPaise      int64     `json:"mrp_paise"`
	IsActive      bool      `json:"is_active"`
	StockQuantity int       `json:"stock_quantity"`
}

// Variant returns the variant with the given id, or nil.
func (p *Product) Variant(id uuid.UUID) *Variant {
	for _, v := range p.Variants {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// TaxInfo is the GST classification of a product.
type TaxInfo struct {
	HSNCode string
	Rate    *int
}

// StockKey identifies one stock counter. VariantID is uuid.Nil for
// product-level stock.
type StockKey struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

func (k StockKey) String() string {
	if k.VariantID == uuid.Nil {
		return k.ProductID.String()
	}
	return k.ProductID.String() + "/" + k.VariantID.String()
}
