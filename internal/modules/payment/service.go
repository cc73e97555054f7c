package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/platform/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedWebhook = errors.New("malformed webhook payload")
	// ErrUnknownOrder is returned by a WebhookSink when no store order
	// carries the remote order id. Redelivery cannot fix it.
	ErrUnknownOrder = errors.New("no store order for remote order")
)

// Service records remote payment orders and checks gateway signatures.
type Service interface {
	// CreateRemoteOrder opens a gateway order and logs the attempt.
	CreateRemoteOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error)

	VerifySignature(remoteOrderID, remotePaymentID, signature string) bool
	RecordCapture(ctx context.Context, remoteOrderID, remotePaymentID string) error
	RecordFailure(ctx context.Context, remoteOrderID, reason string) error

	// ParseWebhook authenticates and decodes a raw webhook body.
	ParseWebhook(ctx context.Context, body []byte, signature string) (*WebhookEvent, error)

	ListByReceipt(ctx context.Context, receipt string) ([]*Transaction, error)
}

type service struct {
	repo     Repository
	gateway  Gateway
	verifier Verifier
	metrics  *metrics.Recorder
	logger   *zap.Logger
}

func NewService(repo Repository, gateway Gateway, verifier Verifier, rec *metrics.Recorder, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, gateway: gateway, verifier: verifier, metrics: rec, logger: logger}
}

// CreateRemoteOrder persists a PENDING transaction, asks the gateway for a
// remote order, and records the outcome on the transaction.
func (s *service) CreateRemoteOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error) {
	if req.AmountPaise <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrGateway)
	}
	if req.Currency == "" {
		req.Currency = CurrencyINR
	}

	// Persist first so a gateway timeout still leaves a trace.
	tx := &Transaction{
		ID:          uuid.New(),
		Receipt:     req.Receipt,
		Status:      TxPending,
		AmountPaise: req.AmountPaise,
		Currency:    req.Currency,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("record payment transaction: %w", err)
	}

	start := time.Now()
	remote, err := s.gateway.CreateOrder(ctx, req)
	s.metrics.External("razorpay", "create_order", err, time.Since(start))
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, tx.ID, err.Error()); markErr != nil {
			s.logger.Warn("mark payment transaction failed", zap.String("receipt", req.Receipt), zap.Error(markErr))
		}
		s.logger.Error("create remote order failed", zap.String("receipt", req.Receipt), zap.Error(err))
		return nil, err
	}

	if err := s.repo.MarkCreated(ctx, tx.ID, remote.ID); err != nil {
		return nil, fmt.Errorf("attach remote order %s: %w", remote.ID, err)
	}
	s.logger.Info("remote order created",
		zap.String("receipt", req.Receipt),
		zap.String("remote_order_id", remote.ID),
		zap.Int64("amount_paise", req.AmountPaise))
	return remote, nil
}

// VerifySignature checks the checkout signature the buyer's client returned.
func (s *service) VerifySignature(remoteOrderID, remotePaymentID, signature string) bool {
	return s.verifier.VerifySignature(remoteOrderID, remotePaymentID, signature)
}

// RecordCapture marks the transaction for remoteOrderID as captured.
func (s *service) RecordCapture(ctx context.Context, remoteOrderID, remotePaymentID string) error {
	return s.repo.UpdateByRemoteOrder(ctx, remoteOrderID, TxCaptured, remotePaymentID, "")
}

// RecordFailure marks the transaction for remoteOrderID as failed.
func (s *service) RecordFailure(ctx context.Context, remoteOrderID, reason string) error {
	return s.repo.UpdateByRemoteOrder(ctx, remoteOrderID, TxFailed, "", reason)
}

// ParseWebhook authenticates a raw webhook body and stores it against the
// transaction it names. Bodies for unknown transactions are still returned.
func (s *service) ParseWebhook(ctx context.Context, body []byte, signature string) (*WebhookEvent, error) {
	if !s.verifier.VerifyWebhookSignature(body, signature) {
		return nil, ErrInvalidSignature
	}
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}

	remoteOrderID := ev.Payload.Payment.Entity.OrderID
	if remoteOrderID != "" {
		if err := s.repo.RecordWebhook(ctx, remoteOrderID, body); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("store webhook payload", zap.String("remote_order_id", remoteOrderID), zap.Error(err))
		}
	}
	return &ev, nil
}

// ListByReceipt returns every payment attempt for an order number.
func (s *service) ListByReceipt(ctx context.Context, receipt string) ([]*Transaction, error) {
	return s.repo.ListByReceipt(ctx, receipt)
}
