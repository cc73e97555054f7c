package billing

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the lifecycle of a tax invoice.
type InvoiceStatus string

const (
	InvGenerated InvoiceStatus = "GENERATED"
	InvSent      InvoiceStatus = "SENT"
	InvPaid      InvoiceStatus = "PAID"
)

// Address is a postal address as printed on the invoice.
type Address struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	Landmark     string `json:"landmark,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

// InvoiceItem is one taxed line. TotalPaise includes tax.
type InvoiceItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	VariantName    string    `json:"variant_name,omitempty"`
	SKU            string    `json:"sku,omitempty"`
	HSNCode        string    `json:"hsn_code,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPricePaise int64     `json:"unit_price_paise"`
	TaxablePaise   int64     `json:"taxable_paise"`
	GSTRate        int       `json:"gst_rate"`
	CGSTPaise      int64     `json:"cgst_paise"`
	SGSTPaise      int64     `json:"sgst_paise"`
	IGSTPaise      int64     `json:"igst_paise"`
	TotalPaise     int64     `json:"total_paise"`
}

// Invoice is the GST tax invoice for one order.
type Invoice struct {
	ID              uuid.UUID     `json:"id"`
	InvoiceNumber   string        `json:"invoice_number"`
	OrderID         uuid.UUID     `json:"order_id"`
	OrderNumber     string        `json:"order_number"`
	UserID          uuid.UUID     `json:"user_id"`
	BillingAddress  Address       `json:"billing_address"`
	ShippingAddress Address       `json:"shipping_address"`
	Items           []InvoiceItem `json:"items"`
	SubtotalPaise   int64         `json:"subtotal_paise"`
	CGSTPaise       int64         `json:"cgst_paise"`
	SGSTPaise       int64         `json:"sgst_paise"`
	IGSTPaise       int64         `json:"igst_paise"`
	TotalTaxPaise   int64         `json:"total_tax_paise"`
	GrandTotalPaise int64         `json:"grand_total_paise"`
	IsIntraState    bool          `json:"is_intra_state"`
	SellerState     string        `json:"seller_state"`
	DocumentURL     string        `json:"document_url,omitempty"`
	Status          InvoiceStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ── Order snapshot ────────────────────────────────────────────────────────────

// OrderSnapshot is the view of an order the generator needs.
type OrderSnapshot struct {
	ID              uuid.UUID
	OrderNumber     string
	UserID          uuid.UUID
	Status          string
	ShippingAddress Address
	Items           []OrderLine
	InvoiceID       *uuid.UUID
}

// OrderLine is a priced line of an order snapshot.
type OrderLine struct {
	ProductID      uuid.UUID
	Name           string
	VariantName    string
	SKU            string
	Quantity       int
	UnitPricePaise int64
}

// invoiceableStatuses are the order states an invoice may be issued from.
var invoiceableStatuses = map[string]bool{
	"PAID":      true,
	"CONFIRMED": true,
	"PACKED":    true,
	"SHIPPED":   true,
	"DELIVERED": true,
}

// ListFilter narrows admin invoice listings. Zero values match everything.
type ListFilter struct {
	UserID *uuid.UUID
	Status InvoiceStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
