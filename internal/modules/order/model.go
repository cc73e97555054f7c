package order

import (
	"time"

	"github.com/georgemunganga/storefront-backend/internal/modules/billing"
	"github.com/georgemunganga/storefront-backend/internal/modules/inventory"
	"github.com/georgemunganga/storefront-backend/internal/modules/payment"
	"github.com/google/uuid"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusProcessingPayment Status = "PROCESSING_PAYMENT"
	StatusPaid              Status = "PAID"
	StatusPaymentFailed     Status = "PAYMENT_FAILED"
	StatusConfirmed         Status = "CONFIRMED"
	StatusPacked            Status = "PACKED"
	StatusShipped           Status = "SHIPPED"
	StatusDelivered         Status = "DELIVERED"
	StatusCancelled         Status = "CANCELLED"
)

// Actor labels used in status history for non-human changes.
const (
	ActorSystem  = "system"
	ActorWebhook = "webhook"
)

// Order is a buyer's purchase. Prices are captured at creation and are
// not affected by later catalog edits.
type Order struct {
	ID                     uuid.UUID      `json:"id"`
	OrderNumber            string         `json:"order_number"`
	UserID                 uuid.UUID      `json:"user_id"`
	Status                 Status         `json:"status"`
	Items                  []Item         `json:"items"`
	ShippingAddress        Address        `json:"shipping_address"`
	SubtotalPaise          int64          `json:"subtotal_paise"`
	TotalPaise             int64          `json:"total_paise"`
	Payment                Payment        `json:"payment"`
	StockReserved          bool           `json:"stock_reserved"`
	ReservationExpiresAt   *time.Time     `json:"reservation_expires_at,omitempty"`
	RequiresReconciliation bool           `json:"requires_reconciliation"`
	History                []HistoryEntry `json:"status_history"`
	TrackingNumber         string         `json:"tracking_number,omitempty"`
	TrackingURL            string         `json:"tracking_url,omitempty"`
	CancelledAt            *time.Time     `json:"cancelled_at,omitempty"`
	CancelledBy            string         `json:"cancelled_by,omitempty"`
	CancellationReason     string         `json:"cancellation_reason,omitempty"`
	InvoiceID              *uuid.UUID     `json:"invoice_id,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// Item is a line of an order.
type Item struct {
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	Name        string     `json:"name"`
	VariantName string     `json:"variant_name,omitempty"`
	SKU         string     `json:"sku,omitempty"`
	Image       string     `json:"image,omitempty"`
	Quantity    int        `json:"quantity"`
	PricePaise  int64      `json:"price_paise"`
	MRPPaise    int64      `json:"mrp_paise"`
	TotalPaise  int64      `json:"total_paise"`
}

// Address is the delivery address captured with the order.
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

// Payment records how the order is settled.
type Payment struct {
	Mode              payment.Mode `json:"mode"`
	OnlineAmountPaise int64        `json:"online_amount_paise"` // charged through the gateway
	CODAmountPaise    int64        `json:"cod_amount_paise"`    // collected on delivery
	RemoteOrderID     string       `json:"remote_order_id,omitempty"`
	RemotePaymentID   string       `json:"remote_payment_id,omitempty"`
	RemoteSignature   string       `json:"remote_signature,omitempty"`
	AmountPaidPaise   int64        `json:"amount_paid_paise"`
	PaidAt            *time.Time   `json:"paid_at,omitempty"`
	CODCollected      bool         `json:"cod_collected"`
	CODCollectedAt    *time.Time   `json:"cod_collected_at,omitempty"`
}

// HistoryEntry is one line of the status audit trail.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ChangedBy string    `json:"changed_by,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// ── Requests ──────────────────────────────────────────────────────────────────

// ItemRequest is one requested line at checkout.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items           []ItemRequest `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	PaymentMode     payment.Mode  `json:"payment_mode,omitempty"` // defaults to FULL_PAYMENT
}

// PaymentProof is what the checkout widget hands back after payment.
type PaymentProof struct {
	RemoteOrderID   string `json:"razorpay_order_id"`
	RemotePaymentID string `json:"razorpay_payment_id"`
	Signature       string `json:"razorpay_signature"`
}

// StatusUpdate is an admin progression request.
type StatusUpdate struct {
	Status         Status `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
	Note           string `json:"note,omitempty"`
}

// ListFilter narrows order listings. Zero values match everything.
type ListFilter struct {
	UserID *uuid.UUID
	Status Status
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// ── Results ───────────────────────────────────────────────────────────────────

type CreateResult struct {
	Order            *Order `json:"order"`
	AmountToPayPaise int64  `json:"amount_to_pay_paise"`
	CODAmountPaise   int64  `json:"cod_amount_paise"`
}

// InitiateResult carries what the checkout widget needs to open the gateway.
type InitiateResult struct {
	Order         *Order `json:"order"`
	RemoteOrderID string `json:"razorpay_order_id"`
	AmountPaise   int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"key_id"`
}

// VerifyResult reports the outcome of a payment confirmation.
// RequiresRefund means money was captured but the order cannot be fulfilled.
type VerifyResult struct {
	Order            *Order           `json:"order"`
	Invoice          *billing.Invoice `json:"invoice,omitempty"`
	AlreadyProcessed bool             `json:"already_processed"`
	RequiresRefund   bool             `json:"requires_refund"`
}

type CancelResult struct {
	Order          *Order `json:"order"`
	RequiresRefund bool   `json:"requires_refund"`
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// lines converts the order's items into ledger demands.
func (o *Order) lines() []inventory.Line {
	out := make([]inventory.Line, 0, len(o.Items))
	for _, it := range o.Items {
		line := inventory.Line{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity}
		if it.VariantID != nil {
			line.VariantID = *it.VariantID
			if it.VariantName != "" {
				line.Name = it.Name + " (" + it.VariantName + ")"
			}
		}
		out = append(out, line)
	}
	return out
}

// reservationExpired reports whether a held reservation has lapsed at now.
func (o *Order) reservationExpired(now time.Time) bool {
	return o.StockReserved && o.ReservationExpiresAt != nil && now.After(*o.ReservationExpiresAt)
}

func (o *Order) reserve(expiresAt time.Time) {
	o.StockReserved = true
	o.ReservationExpiresAt = &expiresAt
}

func (o *Order) releaseReservation() {
	o.StockReserved = false
	o.ReservationExpiresAt = nil
}

// stockDeducted reports whether the order's items were taken off the shelf.
func (o *Order) stockDeducted() bool {
	switch o.Status {
	case StatusPaid, StatusConfirmed, StatusPacked, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

func (o *Order) clone() *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	cp.History = append([]HistoryEntry(nil), o.History...)
	return &cp
}
