package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Mode is how the buyer settles an order.
type Mode string

const (
	ModeFullPayment Mode = "FULL_PAYMENT"
	ModeCODPartial  Mode = "COD_PARTIAL" // part online now, rest cash on delivery
)

// Valid reports whether m is a supported payment mode.
func (m Mode) Valid() bool { return m == ModeFullPayment || m == ModeCODPartial }

// CurrencyINR is the only currency the store settles in.
const CurrencyINR = "INR"

// TxStatus is the lifecycle of a remote payment order as recorded locally.
type TxStatus string

const (
	TxPending  TxStatus = "PENDING"  // recorded, gateway not yet answered
	TxCreated  TxStatus = "CREATED"  // remote order exists, awaiting payment
	TxCaptured TxStatus = "CAPTURED" // signature or webhook confirmed payment
	TxFailed   TxStatus = "FAILED"
)

// Transaction is the local record of one remote payment order.
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	Receipt         string            `json:"receipt"`
	RemoteOrderID   string            `json:"remote_order_id,omitempty"`
	RemotePaymentID string            `json:"remote_payment_id,omitempty"`
	Status          TxStatus          `json:"status"`
	AmountPaise     int64             `json:"amount_paise"`
	Currency        string            `json:"currency"`
	Notes           map[string]string `json:"notes,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
	WebhookPayload  json.RawMessage   `json:"webhook_payload,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ── Gateway DTOs ──────────────────────────────────────────────────────────────

// RemoteOrderRequest opens a payment intent. Receipt is the store's order number.
type RemoteOrderRequest struct {
	AmountPaise int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// RemoteOrder is the gateway's answer to RemoteOrderRequest.
type RemoteOrder struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// ── Webhook ───────────────────────────────────────────────────────────────────

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// Capture is a payment the gateway reports as captured.
type Capture struct {
	RemoteOrderID   string
	RemotePaymentID string
	AmountPaise     int64 // 0 when the event carried no amount
}

// WebhookEvent is the subset of a Razorpay webhook body the store acts on.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
