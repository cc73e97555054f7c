package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WebhookSink applies gateway-confirmed outcomes to store orders.
// Errors wrapping ErrUnknownOrder are acknowledged; any other error is
// answered with a 5xx so the gateway redelivers.
type WebhookSink interface {
	CapturePayment(ctx context.Context, capture Capture) error
	FailPayment(ctx context.Context, remoteOrderID, reason string) error
}

// Handler exposes payment HTTP endpoints.
type Handler struct {
	service Service
	sink    WebhookSink
	logger  *zap.Logger
}

func NewHandler(service Service, sink WebhookSink, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, sink: sink, logger: logger}
}

// RegisterRoutes mounts the provider webhook. It carries no auth middleware;
// requests are authenticated by their HMAC signature.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", h.webhookRazorpay) // POST /api/v1/webhooks/razorpay
	})
}

// RegisterAdminRoutes mounts read-only transaction lookups.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/api/v1/admin/payments/{receipt}", h.listByReceipt) // GET /api/v1/admin/payments/ORD-20240101-001
}

func (h *Handler) webhookRazorpay(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	ev, err := h.service.ParseWebhook(r.Context(), body, r.Header.Get("X-Razorpay-Signature"))
	switch {
	case errors.Is(err, ErrInvalidSignature):
		respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	case err != nil:
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	entity := ev.Payload.Payment.Entity
	switch ev.Event {
	case EventPaymentCaptured:
		err = h.sink.CapturePayment(r.Context(), Capture{
			RemoteOrderID:   entity.OrderID,
			RemotePaymentID: entity.ID,
			AmountPaise:     entity.Amount,
		})
	case EventPaymentFailed:
		reason := entity.ErrorDescription
		if reason == "" {
			reason = "payment failed at gateway"
		}
		err = h.sink.FailPayment(r.Context(), entity.OrderID, reason)
	default:
		respond(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "unhandled event " + ev.Event})
		return
	}

	switch {
	case errors.Is(err, ErrUnknownOrder):
		h.logger.Warn("webhook for unknown order",
			zap.String("event", ev.Event),
			zap.String("remote_order_id", entity.OrderID))
		respond(w, http.StatusOK, map[string]string{"status": "ignored", "reason": err.Error()})
		return
	case err != nil:
		h.logger.Error("webhook not applied",
			zap.String("event", ev.Event),
			zap.String("remote_order_id", entity.OrderID),
			zap.Error(err))
		respond(w, http.StatusInternalServerError, map[string]string{"error": "webhook not applied, retry later"})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "processed", "remote_order_id": entity.OrderID})
}

func (h *Handler) listByReceipt(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ListByReceipt(r.Context(), chi.URLParam(r, "receipt"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, txs)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
