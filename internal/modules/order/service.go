package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/modules/billing"
	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/georgemunganga/storefront-backend/internal/modules/inventory"
	"github.com/georgemunganga/storefront-backend/internal/modules/notification"
	"github.com/georgemunganga/storefront-backend/internal/modules/payment"
	"github.com/georgemunganga/storefront-backend/internal/platform/logging"
	"github.com/georgemunganga/storefront-backend/internal/platform/metrics"
	"github.com/georgemunganga/storefront-backend/internal/platform/sequence"
	"github.com/georgemunganga/storefront-backend/internal/platform/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/georgemunganga/storefront-backend/internal/modules/order")

// Catalog loads products for checkout snapshots.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// PaymentGateway opens remote payment orders and checks what comes back.
type PaymentGateway interface {
	CreateRemoteOrder(ctx context.Context, req payment.RemoteOrderRequest) (*payment.RemoteOrder, error)
	VerifySignature(remoteOrderID, remotePaymentID, signature string) bool
	RecordCapture(ctx context.Context, remoteOrderID, remotePaymentID string) error
	RecordFailure(ctx context.Context, remoteOrderID, reason string) error
}

// InvoiceIssuer issues the tax invoice of a paid order.
type InvoiceIssuer interface {
	Generate(ctx context.Context, orderID uuid.UUID) (*billing.Invoice, error)
}

// Policy holds the store rules the orchestrator applies.
type Policy struct {
	CODPartialPercent int
	CheckoutKeyID     string // public gateway key handed to the checkout widget
}

// Service coordinates checkout, payment and fulfilment of orders.
type Service interface {
	// CreateOrder snapshots items, reserves stock and persists a PENDING order.
	CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*CreateResult, error)

	// InitiatePayment opens a gateway order and moves the order to PROCESSING_PAYMENT.
	InitiatePayment(ctx context.Context, orderID, buyerID uuid.UUID) (*InitiateResult, error)

	// VerifyPayment checks a checkout signature and settles the order.
	VerifyPayment(ctx context.Context, orderID, buyerID uuid.UUID, proof PaymentProof) (*VerifyResult, error)

	// CapturePayment and FailPayment apply gateway webhook outcomes.
	CapturePayment(ctx context.Context, capture payment.Capture) error
	FailPayment(ctx context.Context, remoteOrderID, reason string) error

	// HandlePaymentFailure records a failure reported by the buyer's client.
	HandlePaymentFailure(ctx context.Context, orderID, buyerID uuid.UUID, reason string) (*Order, error)

	CancelOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, reason string) (*CancelResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, admin auth.Actor, upd StatusUpdate) (*Order, error)
	ConfirmOrder(ctx context.Context, orderID uuid.UUID, admin auth.Actor, note string) (*Order, error)
	MarkCODCollected(ctx context.Context, orderID uuid.UUID, admin auth.Actor) (*Order, error)

	GetOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*Order, error)
	ListMyOrders(ctx context.Context, buyerID uuid.UUID) ([]*Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]*Order, error)

	// CleanupExpiredReservations releases reservations past their expiry.
	CleanupExpiredReservations(ctx context.Context) (int, error)
}

type service struct {
	repo     Repository
	catalog  Catalog
	ledger   *inventory.Ledger
	payments PaymentGateway
	invoices InvoiceIssuer
	notifier notification.Notifier
	policy   Policy
	metrics  *metrics.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the orchestrator.
func NewService(
	repo Repository,
	products Catalog,
	ledger *inventory.Ledger,
	payments PaymentGateway,
	invoices InvoiceIssuer,
	notifier notification.Notifier,
	policy Policy,
	rec *metrics.Recorder,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:     repo,
		catalog:  products,
		ledger:   ledger,
		payments: payments,
		invoices: invoices,
		notifier: notifier,
		policy:   policy,
		metrics:  rec,
		logger:   logger,
		now:      time.Now,
	}
}

// ── Checkout ──────────────────────────────────────────────────────────────────

// CreateOrder snapshots the requested items, reserves stock and persists a
// PENDING order under a fresh order number.
func (s *service) CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (_ *CreateResult, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.CreateOrder",
		attribute.String("user.id", buyerID.String()))
	defer func() { obs.End(err) }()

	mode, err := validateCreate(req)
	if err != nil {
		return nil, err
	}
	items, subtotal, err := s.snapshotItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &Order{
		ID:              uuid.New(),
		UserID:          buyerID,
		Status:          StatusPending,
		Items:           items,
		ShippingAddress: trimAddress(req.ShippingAddress),
		SubtotalPaise:   subtotal,
		TotalPaise:      subtotal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	held, err := s.holdings(ctx, buyerID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	expiresAt, err := s.ledger.Reserve(ctx, o.lines(), held, now)
	if err != nil {
		return nil, err
	}
	o.reserve(expiresAt)

	toPay, codDue := payment.SplitAmount(o.TotalPaise, mode, s.policy.CODPartialPercent)
	o.Payment = Payment{Mode: mode, OnlineAmountPaise: toPay, CODAmountPaise: codDue}
	o.History = []HistoryEntry{{
		Status:    StatusPending,
		Timestamp: now,
		ChangedBy: buyerID.String(),
		Note:      "Order created, stock reserved",
	}}

	_, err = sequence.Allocate(ctx, sequence.Daily("ORD", now), s.repo.LastOrderNumber, func(number string) error {
		o.OrderNumber = number
		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	obs.Annotate(attribute.String("order.number", o.OrderNumber))

	s.logger.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.Stringer("user_id", buyerID),
		zap.Int64("total_paise", o.TotalPaise),
		zap.String("payment_mode", string(mode)))
	s.notify(ctx, o, notification.OrderPlaced, nil)

	return &CreateResult{Order: o, AmountToPayPaise: toPay, CODAmountPaise: codDue}, nil
}

// InitiatePayment opens a gateway order for the online share of the total
// and moves the order to PROCESSING_PAYMENT.
func (s *service) InitiatePayment(ctx context.Context, orderID, buyerID uuid.UUID) (_ *InitiateResult, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.InitiatePayment",
		attribute.String("order.id", orderID.String()))
	defer func() { obs.End(err) }()

	o, err := s.owned(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending && o.Status != StatusPaymentFailed {
		return nil, fmt.Errorf("%w: cannot pay for a %s order", ErrInvalidState, o.Status)
	}
	if o.RequiresReconciliation {
		return nil, fmt.Errorf("%w: order %s has a captured payment awaiting reconciliation", ErrInvalidState, o.OrderNumber)
	}

	now := s.now()
	expected := o.Status
	if o.reservationExpired(now) {
		o.releaseReservation()
		o.AddNote(ActorSystem, "Stock reservation expired", now)
		if err := s.repo.Update(ctx, o, expected); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: order %s", ErrReservationExpired, o.OrderNumber)
	}
	if !o.StockReserved {
		held, err := s.holdings(ctx, buyerID, o.ID)
		if err != nil {
			return nil, err
		}
		expiresAt, err := s.ledger.Reserve(ctx, o.lines(), held, now)
		if err != nil {
			return nil, err
		}
		o.reserve(expiresAt)
	}

	remote, err := s.payments.CreateRemoteOrder(ctx, payment.RemoteOrderRequest{
		AmountPaise: o.Payment.OnlineAmountPaise,
		Currency:    payment.CurrencyINR,
		Receipt:     o.OrderNumber,
		Notes: map[string]string{
			"order_id":     o.ID.String(),
			"user_id":      o.UserID.String(),
			"payment_mode": string(o.Payment.Mode),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open payment for %s: %w", o.OrderNumber, err)
	}
	if remote.AmountPaise != 0 && remote.AmountPaise != o.Payment.OnlineAmountPaise {
		return nil, fmt.Errorf("%w: gateway registered %d paise for %s, expected %d",
			payment.ErrGateway, remote.AmountPaise, o.OrderNumber, o.Payment.OnlineAmountPaise)
	}

	actor := buyerID.String()
	if o.Status == StatusPaymentFailed {
		if err := o.Transition(StatusPending, actor, "Retrying payment", now); err != nil {
			return nil, err
		}
	}
	if err := o.Transition(StatusProcessingPayment, actor, "Payment initiated", now); err != nil {
		return nil, err
	}
	o.Payment.RemoteOrderID = remote.ID
	if err := s.repo.Update(ctx, o, expected); err != nil {
		return nil, err
	}

	currency := remote.Currency
	if currency == "" {
		currency = payment.CurrencyINR
	}
	return &InitiateResult{
		Order:         o,
		RemoteOrderID: remote.ID,
		AmountPaise:   o.Payment.OnlineAmountPaise,
		Currency:      currency,
		KeyID:         s.policy.CheckoutKeyID,
	}, nil
}

// VerifyPayment checks the checkout signature and, when it holds, deducts
// stock, marks the order PAID and issues the invoice. A repeated call for an
// order no longer awaiting payment is answered with AlreadyProcessed.
func (s *service) VerifyPayment(ctx context.Context, orderID, buyerID uuid.UUID, proof PaymentProof) (_ *VerifyResult, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.VerifyPayment",
		attribute.String("order.id", orderID.String()))
	defer func() { obs.End(err) }()

	o, err := s.owned(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusProcessingPayment || o.RequiresReconciliation {
		obs.Outcome("already_processed")
		return &VerifyResult{Order: o, AlreadyProcessed: true, RequiresRefund: o.RequiresReconciliation}, nil
	}

	valid := proof.RemoteOrderID != "" && proof.RemoteOrderID == o.Payment.RemoteOrderID &&
		s.payments.VerifySignature(proof.RemoteOrderID, proof.RemotePaymentID, proof.Signature)
	if !valid {
		s.logger.Warn("payment signature rejected",
			zap.String("order_number", o.OrderNumber),
			zap.String("remote_order_id", proof.RemoteOrderID))
		if err := o.Transition(StatusPaymentFailed, buyerID.String(), "Payment signature verification failed", s.now()); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, o, StatusProcessingPayment); err != nil {
			return nil, err
		}
		if err := s.payments.RecordFailure(ctx, o.Payment.RemoteOrderID, "signature mismatch"); err != nil {
			s.logger.Warn("record payment failure", zap.String("order_number", o.OrderNumber), zap.Error(err))
		}
		s.notify(ctx, o, notification.PaymentFailed, nil)
		return nil, fmt.Errorf("%w: order %s", ErrPaymentNotVerified, o.OrderNumber)
	}

	res, err := s.completePayment(ctx, o, proof.RemotePaymentID, proof.Signature, buyerID.String())
	if err == nil && res.AlreadyProcessed {
		obs.Outcome("already_processed")
	}
	return res, err
}

// completePayment applies a confirmed payment to an order that is still
// PROCESSING_PAYMENT.
func (s *service) completePayment(ctx context.Context, o *Order, remotePaymentID, signature, actor string) (*VerifyResult, error) {
	now := s.now()
	o.Payment.RemotePaymentID = remotePaymentID
	o.Payment.RemoteSignature = signature

	if err := s.ledger.Deduct(ctx, o.lines()); err != nil {
		if !errors.Is(err, inventory.ErrInsufficientStock) {
			return nil, fmt.Errorf("deduct stock for %s: %w", o.OrderNumber, err)
		}
		// Money is captured but the goods are gone.
		s.logger.Error("payment verified but stock unavailable",
			zap.String("order_number", o.OrderNumber),
			zap.String("remote_payment_id", remotePaymentID),
			zap.Error(err))
		o.RequiresReconciliation = true
		o.AddNote(actor, "Payment verified but stock unavailable - requires admin attention", now)
		if err := s.repo.Update(ctx, o, StatusProcessingPayment); err != nil {
			return s.lostRace(ctx, o, err)
		}
		s.recordCapture(ctx, o)
		return &VerifyResult{Order: o, RequiresRefund: true}, nil
	}

	o.Payment.AmountPaidPaise = o.Payment.OnlineAmountPaise
	o.Payment.PaidAt = &now
	o.releaseReservation()
	if err := o.Transition(StatusPaid, actor, "Payment verified", now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o, StatusProcessingPayment); err != nil {
		if restoreErr := s.ledger.Restore(ctx, o.lines()); restoreErr != nil {
			s.logger.Error("restore stock after failed save",
				zap.String("order_number", o.OrderNumber), zap.Error(restoreErr))
		}
		return s.lostRace(ctx, o, err)
	}
	s.recordCapture(ctx, o)

	s.logger.Info("order paid",
		zap.String("order_number", o.OrderNumber),
		zap.Int64("amount_paid_paise", o.Payment.AmountPaidPaise))
	inv := s.attachInvoice(ctx, o)
	s.notify(ctx, o, notification.OrderPaid, map[string]string{"amount": payment.Rupees(o.Payment.AmountPaidPaise)})
	return &VerifyResult{Order: o, Invoice: inv}, nil
}

// lostRace turns a conflicting save into the benign answer a duplicate
// confirmation gets.
func (s *service) lostRace(ctx context.Context, o *Order, err error) (*VerifyResult, error) {
	if !errors.Is(err, ErrConflict) {
		return nil, err
	}
	current, getErr := s.repo.Get(ctx, o.ID)
	if getErr != nil {
		return nil, err
	}
	return &VerifyResult{Order: current, AlreadyProcessed: true, RequiresRefund: current.RequiresReconciliation}, nil
}

// ── Webhook ───────────────────────────────────────────────────────────────────

// CapturePayment applies a gateway capture event. Orders not awaiting
// payment are left alone.
func (s *service) CapturePayment(ctx context.Context, c payment.Capture) (err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.CapturePayment",
		attribute.String("payment.remote_order_id", c.RemoteOrderID))
	defer func() { obs.End(err) }()

	o, err := s.byRemoteOrder(ctx, c.RemoteOrderID)
	if err != nil {
		return err
	}
	if o.Status != StatusProcessingPayment || o.RequiresReconciliation {
		obs.Outcome("already_processed")
		if o.Status == StatusPaymentFailed || o.Status == StatusCancelled {
			s.logger.Warn("capture for order not awaiting payment",
				zap.String("order_number", o.OrderNumber),
				zap.String("status", string(o.Status)),
				zap.String("remote_payment_id", c.RemotePaymentID))
		}
		return nil
	}
	if c.AmountPaise != 0 && c.AmountPaise != o.Payment.OnlineAmountPaise {
		obs.Outcome("amount_mismatch")
		return s.holdForReconciliation(ctx, o, c)
	}
	_, err = s.completePayment(ctx, o, c.RemotePaymentID, "", ActorWebhook)
	return err
}

// holdForReconciliation parks an order whose captured amount differs from
// what was asked. Stock stays reserved and the order stays unpaid.
func (s *service) holdForReconciliation(ctx context.Context, o *Order, c payment.Capture) error {
	s.logger.Error("captured amount does not match order",
		zap.String("order_number", o.OrderNumber),
		zap.String("remote_payment_id", c.RemotePaymentID),
		zap.Int64("captured_paise", c.AmountPaise),
		zap.Int64("expected_paise", o.Payment.OnlineAmountPaise))
	o.Payment.RemotePaymentID = c.RemotePaymentID
	o.RequiresReconciliation = true
	o.AddNote(ActorWebhook, fmt.Sprintf("Captured Rs %s but expected Rs %s - requires admin attention",
		payment.Rupees(c.AmountPaise), payment.Rupees(o.Payment.OnlineAmountPaise)), s.now())
	if err := s.repo.Update(ctx, o, StatusProcessingPayment); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return err
	}
	s.recordCapture(ctx, o)
	return nil
}

// FailPayment applies a gateway failure event.
func (s *service) FailPayment(ctx context.Context, remoteOrderID, reason string) (err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.FailPayment",
		attribute.String("payment.remote_order_id", remoteOrderID))
	defer func() { obs.End(err) }()

	o, err := s.byRemoteOrder(ctx, remoteOrderID)
	if err != nil {
		return err
	}
	if o.Status != StatusProcessingPayment {
		obs.Outcome("already_processed")
		return nil
	}
	if o.RequiresReconciliation {
		obs.Outcome("awaiting_reconciliation")
		s.logger.Warn("failure reported for order awaiting reconciliation",
			zap.String("order_number", o.OrderNumber),
			zap.String("reason", reason))
		return nil
	}
	return s.failPayment(ctx, o, ActorWebhook, reason)
}

// HandlePaymentFailure records a payment the buyer's client reports as
// failed and releases the reservation.
func (s *service) HandlePaymentFailure(ctx context.Context, orderID, buyerID uuid.UUID, reason string) (_ *Order, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.HandlePaymentFailure",
		attribute.String("order.id", orderID.String()))
	defer func() { obs.End(err) }()

	o, err := s.owned(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusProcessingPayment {
		return nil, fmt.Errorf("%w: %s order is not awaiting payment", ErrInvalidState, o.Status)
	}
	if o.RequiresReconciliation {
		return nil, fmt.Errorf("%w: order %s has a captured payment awaiting reconciliation", ErrInvalidState, o.OrderNumber)
	}
	if reason == "" {
		reason = "Payment failed"
	}
	if err := s.failPayment(ctx, o, buyerID.String(), reason); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) failPayment(ctx context.Context, o *Order, actor, reason string) error {
	if err := o.Transition(StatusPaymentFailed, actor, reason, s.now()); err != nil {
		return err
	}
	o.releaseReservation()
	if err := s.repo.Update(ctx, o, StatusProcessingPayment); err != nil {
		return err
	}
	if err := s.payments.RecordFailure(ctx, o.Payment.RemoteOrderID, reason); err != nil {
		s.logger.Warn("record payment failure", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
	s.notify(ctx, o, notification.PaymentFailed, map[string]string{"reason": reason})
	return nil
}

// ── Fulfilment ────────────────────────────────────────────────────────────────

// CancelOrder cancels an order. Buyers may cancel only their own unpaid
// orders; admins may cancel anything not yet delivered. Deducted stock is
// put back and the result says whether captured money must be refunded.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, reason string) (_ *CancelResult, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.CancelOrder",
		attribute.String("order.id", orderID.String()),
		attribute.Bool("actor.admin", actor.IsAdmin()))
	defer func() { obs.End(err) }()

	o, err := s.visible(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}

	expected := o.Status
	deducted := o.stockDeducted()
	refund := o.RequiresRefund()
	if err := o.Cancel(actor.UserID.String(), reason, actor.IsAdmin(), s.now()); err != nil {
		return nil, err
	}
	o.releaseReservation()
	if err := s.repo.Update(ctx, o, expected); err != nil {
		return nil, err
	}

	if deducted {
		if err := s.ledger.Restore(ctx, o.lines()); err != nil {
			s.logger.Error("restore stock for cancelled order",
				zap.String("order_number", o.OrderNumber), zap.Error(err))
		}
	}

	s.logger.Info("order cancelled",
		zap.String("order_number", o.OrderNumber),
		zap.String("from", string(expected)),
		zap.Bool("requires_refund", refund))
	s.notify(ctx, o, notification.OrderCancelled, map[string]string{"reason": o.CancellationReason})
	return &CancelResult{Order: o, RequiresRefund: refund}, nil
}

// fulfilmentEvents maps admin-settable statuses to the buyer notification.
var fulfilmentEvents = map[Status]notification.Event{
	StatusConfirmed: notification.OrderConfirmed,
	StatusPacked:    notification.OrderPacked,
	StatusShipped:   notification.OrderShipped,
	StatusDelivered: notification.OrderDelivered,
}

// UpdateStatus moves a paid order along the fulfilment path.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, admin auth.Actor, upd StatusUpdate) (_ *Order, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.UpdateStatus",
		attribute.String("order.id", orderID.String()),
		attribute.String("order.status", string(upd.Status)))
	defer func() { obs.End(err) }()

	event, ok := fulfilmentEvents[upd.Status]
	if !ok {
		return nil, fmt.Errorf("%w: status %q cannot be set directly", ErrValidation, upd.Status)
	}
	trackingNumber := strings.TrimSpace(upd.TrackingNumber)
	if upd.Status == StatusShipped && trackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking_number is required to ship", ErrValidation)
	}

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	note := upd.Note
	if note == "" {
		note = "Status updated to " + string(upd.Status)
	}
	expected := o.Status
	if err := o.Transition(upd.Status, admin.UserID.String(), note, s.now()); err != nil {
		return nil, err
	}
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	if upd.TrackingURL != "" {
		o.TrackingURL = strings.TrimSpace(upd.TrackingURL)
	}
	if err := s.repo.Update(ctx, o, expected); err != nil {
		return nil, err
	}

	if o.InvoiceID == nil {
		s.attachInvoice(ctx, o)
	}
	data := map[string]string{}
	if o.TrackingNumber != "" {
		data["tracking_number"] = o.TrackingNumber
	}
	s.notify(ctx, o, event, data)
	return o, nil
}

// ConfirmOrder accepts a paid order for fulfilment.
func (s *service) ConfirmOrder(ctx context.Context, orderID uuid.UUID, admin auth.Actor, note string) (*Order, error) {
	if note == "" {
		note = "Order confirmed"
	}
	return s.UpdateStatus(ctx, orderID, admin, StatusUpdate{Status: StatusConfirmed, Note: note})
}

// MarkCODCollected records that the cash-on-delivery share was received.
func (s *service) MarkCODCollected(ctx context.Context, orderID uuid.UUID, admin auth.Actor) (_ *Order, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.MarkCODCollected",
		attribute.String("order.id", orderID.String()))
	defer func() { obs.End(err) }()

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case o.Payment.Mode != payment.ModeCODPartial:
		return nil, fmt.Errorf("%w: %s is not a COD order", ErrInvalidState, o.OrderNumber)
	case o.Payment.CODCollected:
		return nil, fmt.Errorf("%w: COD already collected for %s", ErrInvalidState, o.OrderNumber)
	case !o.stockDeducted():
		return nil, fmt.Errorf("%w: cannot collect COD on a %s order", ErrInvalidState, o.Status)
	}

	now := s.now()
	o.Payment.CODCollected = true
	o.Payment.CODCollectedAt = &now
	o.AddNote(admin.UserID.String(), fmt.Sprintf("COD amount Rs %s collected", payment.Rupees(o.Payment.CODAmountPaise)), now)
	if err := s.repo.Update(ctx, o, o.Status); err != nil {
		return nil, err
	}
	return o, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

// GetOrder returns an order visible to actor.
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*Order, error) {
	return s.visible(ctx, orderID, actor)
}

func (s *service) ListMyOrders(ctx context.Context, buyerID uuid.UUID) ([]*Order, error) {
	return s.repo.ListByUser(ctx, buyerID)
}

func (s *service) ListOrders(ctx context.Context, f ListFilter) ([]*Order, error) {
	return s.repo.List(ctx, f)
}

// ── Maintenance ───────────────────────────────────────────────────────────────

// CleanupExpiredReservations clears lapsed reservations on unpaid orders and
// returns how many were cleared. Status is not changed.
func (s *service) CleanupExpiredReservations(ctx context.Context) (_ int, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, s.metrics, "order.CleanupExpiredReservations")
	defer func() { obs.End(err) }()

	now := s.now()
	expired, err := s.repo.ListExpiredReservations(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired reservations: %w", err)
	}

	cleared := 0
	for _, o := range expired {
		o.releaseReservation()
		o.AddNote(ActorSystem, "Stock reservation expired", now)
		if err := s.repo.Update(ctx, o, o.Status); err != nil {
			// The order moved on since it was listed.
			s.logger.Warn("skip expired reservation",
				zap.String("order_number", o.OrderNumber), zap.Error(err))
			continue
		}
		cleared++
	}
	obs.Annotate(attribute.Int("reservations.cleared", cleared))
	if cleared > 0 {
		s.logger.Info("expired reservations cleared", zap.Int("count", cleared))
	}
	return cleared, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// owned loads an order that must belong to buyerID.
// byRemoteOrder resolves a gateway order id. Unknown ids are marked so the
// webhook acknowledges them.
func (s *service) byRemoteOrder(ctx context.Context, remoteOrderID string) (*Order, error) {
	o, err := s.repo.GetByRemoteOrderID(ctx, remoteOrderID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w %s: %w", payment.ErrUnknownOrder, remoteOrderID, err)
	}
	return o, err
}

func (s *service) owned(ctx context.Context, orderID, buyerID uuid.UUID) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != buyerID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) visible(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*Order, error) {
	if actor.IsAdmin() {
		return s.repo.Get(ctx, orderID)
	}
	return s.owned(ctx, orderID, actor.UserID)
}

// holdings sums what the buyer's other open orders still hold.
func (s *service) holdings(ctx context.Context, buyerID, exclude uuid.UUID) (inventory.Holdings, error) {
	reserved, err := s.repo.ListReservedByUser(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("load reserved orders: %w", err)
	}
	now := s.now()
	held := inventory.Holdings{}
	for _, o := range reserved {
		if o.ID == exclude || o.reservationExpired(now) {
			continue
		}
		held.Add(o.lines())
	}
	return held, nil
}

// attachInvoice issues the invoice and links it to the order. Failures are
// logged; the order stays valid without one.
func (s *service) attachInvoice(ctx context.Context, o *Order) *billing.Invoice {
	if s.invoices == nil {
		return nil
	}
	inv, err := s.invoices.Generate(ctx, o.ID)
	if err != nil {
		s.logger.Warn("invoice not generated", zap.String("order_number", o.OrderNumber), zap.Error(err))
		return nil
	}
	if o.InvoiceID == nil || *o.InvoiceID != inv.ID {
		o.InvoiceID = &inv.ID
		if err := s.repo.Update(ctx, o, o.Status); err != nil {
			s.logger.Warn("link invoice to order", zap.String("order_number", o.OrderNumber), zap.Error(err))
		}
	}
	return inv
}

func (s *service) recordCapture(ctx context.Context, o *Order) {
	if err := s.payments.RecordCapture(ctx, o.Payment.RemoteOrderID, o.Payment.RemotePaymentID); err != nil {
		s.logger.Warn("record payment capture", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

func (s *service) notify(ctx context.Context, o *Order, event notification.Event, data map[string]string) {
	if s.notifier == nil {
		return
	}
	payload := map[string]string{"order_id": o.ID.String(), "order_number": o.OrderNumber, "status": string(o.Status)}
	for k, v := range data {
		payload[k] = v
	}
	if err := s.notifier.Notify(ctx, o.UserID, event, payload); err != nil {
		logging.FromContext(ctx, s.logger).Warn("notification not delivered",
			zap.String("order_number", o.OrderNumber),
			zap.String("event", string(event)),
			zap.Error(err))
	}
}

// snapshotItems prices the requested lines from the catalog.
func (s *service) snapshotItems(ctx context.Context, reqs []ItemRequest) ([]Item, int64, error) {
	items := make([]Item, 0, len(reqs))
	var subtotal int64
	for _, req := range reqs {
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid product_id %q", ErrValidation, req.ProductID)
		}
		p, err := s.catalog.GetProduct(ctx, productID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductUnavailable, req.ProductID)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("load product %s: %w", req.ProductID, err)
		}
		if !p.IsActive {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductUnavailable, p.Name)
		}

		item := Item{
			ProductID:  p.ID,
			Name:       p.Name,
			SKU:        p.SKU,
			Image:      p.ImageURL,
			Quantity:   req.Quantity,
			PricePaise: p.PricePaise,
			MRPPaise:   p.MRPPaise,
		}
		switch {
		case req.VariantID != "":
			variantID, err := uuid.Parse(req.VariantID)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: invalid variant_id %q", ErrValidation, req.VariantID)
			}
			v := p.Variant(variantID)
			if v == nil || !v.IsActive {
				return nil, 0, fmt.Errorf("%w: %s of %s", ErrVariantUnavailable, req.VariantID, p.Name)
			}
			item.VariantID = &v.ID
			item.VariantName = v.Name
			item.PricePaise = v.PricePaise
			item.MRPPaise = v.MRPPaise
			if v.SKU != "" {
				item.SKU = v.SKU
			}
		case p.HasVariants:
			return nil, 0, fmt.Errorf("%w: variant_id is required for %s", ErrValidation, p.Name)
		}

		item.TotalPaise = item.PricePaise * int64(item.Quantity)
		subtotal += item.TotalPaise
		items = append(items, item)
	}
	return items, subtotal, nil
}

func validateCreate(req CreateOrderRequest) (payment.Mode, error) {
	if len(req.Items) == 0 {
		return "", fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return "", fmt.Errorf("%w: quantity must be greater than 0 for product %s", ErrValidation, it.ProductID)
		}
	}

	a := req.ShippingAddress
	for field, value := range map[string]string{
		"name":          a.Name,
		"phone":         a.Phone,
		"address_line1": a.AddressLine1,
		"city":          a.City,
		"state":         a.State,
		"pincode":       a.Pincode,
	} {
		if strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("%w: shipping_address.%s is required", ErrValidation, field)
		}
	}

	mode := req.PaymentMode
	if mode == "" {
		mode = payment.ModeFullPayment
	}
	if !mode.Valid() {
		return "", fmt.Errorf("%w: unsupported payment_mode %q", ErrValidation, mode)
	}
	return mode, nil
}

func trimAddress(a Address) Address {
	return Address{
		Name:         strings.TrimSpace(a.Name),
		Phone:        strings.TrimSpace(a.Phone),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: strings.TrimSpace(a.AddressLine2),
		Landmark:     strings.TrimSpace(a.Landmark),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		Pincode:      strings.TrimSpace(a.Pincode),
	}
}
