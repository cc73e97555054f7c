package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	captured map[string]string
	failed   map[string]string
	amounts  []int64
	err      error
}

func (s *recordingSink) CapturePayment(_ context.Context, c Capture) error {
	if s.err != nil {
		return s.err
	}
	s.captured[c.RemoteOrderID] = c.RemotePaymentID
	s.amounts = append(s.amounts, c.AmountPaise)
	return nil
}

func (s *recordingSink) FailPayment(_ context.Context, remoteOrderID, reason string) error {
	if s.err != nil {
		return s.err
	}
	s.failed[remoteOrderID] = reason
	return nil
}

func newWebhookRouter(sink WebhookSink) *chi.Mux {
	svc := NewService(NewMemoryRepository(), &stubGateway{}, NewVerifier("s", "hook"), nil, nil)
	router := chi.NewRouter()
	NewHandler(svc, sink, nil).RegisterRoutes(router)
	return router
}

func postWebhook(router http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", strings.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", signature)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Webhook(t *testing.T) {
	sink := &recordingSink{captured: map[string]string{}, failed: map[string]string{}}
	router := newWebhookRouter(sink)

	captured := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":49900}}}}`
	rec := postWebhook(router, captured, Sign("hook", captured))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed")
	assert.Equal(t, "pay_1", sink.captured["order_1"])
	assert.Equal(t, []int64{49900}, sink.amounts)

	failed := `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_2","error_description":"card declined"}}}}`
	rec = postWebhook(router, failed, Sign("hook", failed))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "card declined", sink.failed["order_2"])

	other := `{"event":"refund.created"}`
	rec = postWebhook(router, other, Sign("hook", other))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestHandler_WebhookRejectsBadSignature(t *testing.T) {
	sink := &recordingSink{captured: map[string]string{}, failed: map[string]string{}}
	router := newWebhookRouter(sink)

	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`
	rec := postWebhook(router, body, Sign("wrong", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sink.captured)
}

func TestHandler_WebhookUnknownOrderIsAcknowledged(t *testing.T) {
	sink := &recordingSink{err: fmt.Errorf("%w: order_x", ErrUnknownOrder)}
	router := newWebhookRouter(sink)

	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_x"}}}}`
	rec := postWebhook(router, body, Sign("hook", body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestHandler_WebhookStoreFailureIsRetried(t *testing.T) {
	sink := &recordingSink{err: errors.New("connection refused")}
	router := newWebhookRouter(sink)

	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`
	rec := postWebhook(router, body, Sign("hook", body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	failed := `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_2"}}}}`
	rec = postWebhook(router, failed, Sign("hook", failed))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
