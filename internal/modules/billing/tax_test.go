package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLineTax(t *testing.T) {
	tests := []struct {
		name               string
		taxable            int64
		rate               int
		intra              bool
		wantCGST, wantSGST int64
		wantIGST           int64
	}{
		{"intra splits evenly", 100000, 18, true, 9000, 9000, 0},
		{"inter charges igst", 100000, 18, false, 0, 0, 18000},
		{"intra rounds each half up", 1050, 18, true, 95, 95, 0},
		{"inter rounds half up", 1050, 18, false, 0, 0, 189},
		{"intra rounds down below half", 333, 5, true, 8, 8, 0},
		{"inter rounds up above half", 333, 5, false, 0, 0, 17},
		{"zero rate", 5000, 0, true, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cgst, sgst, igst := LineTax(tt.taxable, tt.rate, tt.intra)
			assert.Equal(t, tt.wantCGST, cgst)
			assert.Equal(t, tt.wantSGST, sgst)
			assert.Equal(t, tt.wantIGST, igst)
		})
	}
}

func TestTaxPolicy(t *testing.T) {
	p := TaxPolicy{SellerState: "Maharashtra", DefaultGSTRate: 18}
	assert.True(t, p.IsIntraState("maharashtra"))
	assert.True(t, p.IsIntraState(" MAHARASHTRA "))
	assert.False(t, p.IsIntraState("Karnataka"))

	five := 5
	assert.Equal(t, 5, p.RateOrDefault(&five))
	assert.Equal(t, 18, p.RateOrDefault(nil))
}

func TestInvoiceTotals(t *testing.T) {
	inv := &Invoice{Items: []InvoiceItem{
		buildItem(OrderLine{ProductID: uuid.New(), Quantity: 2, UnitPricePaise: 50000}, "6109", 18, true),
		buildItem(OrderLine{ProductID: uuid.New(), Quantity: 1, UnitPricePaise: 1050}, "", 18, true),
	}}
	inv.totals()

	assert.Equal(t, int64(101050), inv.SubtotalPaise)
	assert.Equal(t, int64(9000+95), inv.CGSTPaise)
	assert.Equal(t, inv.CGSTPaise, inv.SGSTPaise)
	assert.Zero(t, inv.IGSTPaise)
	assert.Equal(t, inv.CGSTPaise+inv.SGSTPaise, inv.TotalTaxPaise)
	assert.Equal(t, inv.SubtotalPaise+inv.TotalTaxPaise, inv.GrandTotalPaise)
	assert.Equal(t, int64(118000), inv.Items[0].TotalPaise)
}
