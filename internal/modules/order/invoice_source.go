package order

import (
	"context"

	"github.com/georgemunganga/storefront-backend/internal/modules/billing"
	"github.com/google/uuid"
)

// InvoiceSource exposes orders to the invoice generator.
type InvoiceSource struct{ repo Repository }

func NewInvoiceSource(repo Repository) *InvoiceSource { return &InvoiceSource{repo: repo} }

// InvoiceSnapshot implements billing.OrderReader.
func (s *InvoiceSource) InvoiceSnapshot(ctx context.Context, orderID uuid.UUID) (*billing.OrderSnapshot, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines := make([]billing.OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, billing.OrderLine{
			ProductID:      it.ProductID,
			Name:           it.Name,
			VariantName:    it.VariantName,
			SKU:            it.SKU,
			Quantity:       it.Quantity,
			UnitPricePaise: it.PricePaise,
		})
	}
	a := o.ShippingAddress
	return &billing.OrderSnapshot{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      string(o.Status),
		ShippingAddress: billing.Address{
			Name:         a.Name,
			Phone:        a.Phone,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			Landmark:     a.Landmark,
			City:         a.City,
			State:        a.State,
			Pincode:      a.Pincode,
		},
		Items:     lines,
		InvoiceID: o.InvoiceID,
	}, nil
}
