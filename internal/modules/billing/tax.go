package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxPolicy holds the seller-side GST settings.
type TaxPolicy struct {
	SellerState    string
	DefaultGSTRate int
}

// IsIntraState reports whether a shipment to state is taxed as CGST+SGST.
func (p TaxPolicy) IsIntraState(state string) bool {
	return strings.EqualFold(strings.TrimSpace(state), strings.TrimSpace(p.SellerState))
}

// RateOrDefault resolves a product rate, falling back to the default.
func (p TaxPolicy) RateOrDefault(rate *int) int {
	if rate == nil {
		return p.DefaultGSTRate
	}
	return *rate
}

// LineTax computes GST charged on top of a taxable amount. Intra-state
// splits the rate evenly between CGST and SGST, each rounded half-up on its
// own; inter-state charges the full rate as IGST.
func LineTax(taxablePaise int64, rate int, intraState bool) (cgst, sgst, igst int64) {
	taxable := decimal.NewFromInt(taxablePaise)
	hundred := decimal.NewFromInt(100)
	if intraState {
		half := decimal.NewFromInt(int64(rate)).Div(decimal.NewFromInt(2))
		share := taxable.Mul(half).Div(hundred).Round(0).IntPart()
		return share, share, 0
	}
	return 0, 0, taxable.Mul(decimal.NewFromInt(int64(rate))).Div(hundred).Round(0).IntPart()
}

// buildItem prices one line and applies GST.
func buildItem(line OrderLine, hsn string, rate int, intraState bool) InvoiceItem {
	taxable := line.UnitPricePaise * int64(line.Quantity)
	cgst, sgst, igst := LineTax(taxable, rate, intraState)
	return InvoiceItem{
		ProductID:      line.ProductID,
		Name:           line.Name,
		VariantName:    line.VariantName,
		SKU:            line.SKU,
		HSNCode:        hsn,
		Quantity:       line.Quantity,
		UnitPricePaise: line.UnitPricePaise,
		TaxablePaise:   taxable,
		GSTRate:        rate,
		CGSTPaise:      cgst,
		SGSTPaise:      sgst,
		IGSTPaise:      igst,
		TotalPaise:     taxable + cgst + sgst + igst,
	}
}

// totals fills the invoice summary from its items.
func (inv *Invoice) totals() {
	inv.SubtotalPaise, inv.CGSTPaise, inv.SGSTPaise, inv.IGSTPaise = 0, 0, 0, 0
	for _, it := range inv.Items {
		inv.SubtotalPaise += it.TaxablePaise
		inv.CGSTPaise += it.CGSTPaise
		inv.SGSTPaise += it.SGSTPaise
		inv.IGSTPaise += it.IGSTPaise
	}
	inv.TotalTaxPaise = inv.CGSTPaise + inv.SGSTPaise + inv.IGSTPaise
	inv.GrandTotalPaise = inv.SubtotalPaise + inv.TotalTaxPaise
}
