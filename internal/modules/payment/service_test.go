package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	remote *RemoteOrder
	err    error
	calls  int
}

func (g *stubGateway) CreateOrder(_ context.Context, req RemoteOrderRequest) (*RemoteOrder, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	out := *g.remote
	out.AmountPaise = req.AmountPaise
	out.Receipt = req.Receipt
	return &out, nil
}

func TestService_CreateRemoteOrder(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &stubGateway{remote: &RemoteOrder{ID: "order_1", Status: "created"}}
	svc := NewService(repo, gw, NewVerifier("s", "w"), nil, nil)
	ctx := context.Background()

	remote, err := svc.CreateRemoteOrder(ctx, RemoteOrderRequest{AmountPaise: 1500, Receipt: "ORD-20240101-001"})
	require.NoError(t, err)
	assert.Equal(t, "order_1", remote.ID)

	tx, err := repo.GetByRemoteOrder(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, TxCreated, tx.Status)
	assert.Equal(t, CurrencyINR, tx.Currency)
	assert.Equal(t, int64(1500), tx.AmountPaise)

	require.NoError(t, svc.RecordCapture(ctx, "order_1", "pay_1"))
	tx, _ = repo.GetByRemoteOrder(ctx, "order_1")
	assert.Equal(t, TxCaptured, tx.Status)
	assert.Equal(t, "pay_1", tx.RemotePaymentID)
}

func TestService_CreateRemoteOrder_GatewayFailureIsRecorded(t *testing.T) {
	repo := NewMemoryRepository()
	gw := &stubGateway{err: ErrCircuitOpen}
	svc := NewService(repo, gw, NewVerifier("s", "w"), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateRemoteOrder(ctx, RemoteOrderRequest{AmountPaise: 1500, Receipt: "ORD-20240101-002"})
	require.ErrorIs(t, err, ErrCircuitOpen)

	txs, err := repo.ListByReceipt(ctx, "ORD-20240101-002")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, TxFailed, txs[0].Status)
	assert.Contains(t, txs[0].LastError, "temporarily unavailable")
}

func TestService_CreateRemoteOrder_RejectsZeroAmount(t *testing.T) {
	gw := &stubGateway{remote: &RemoteOrder{ID: "x"}}
	svc := NewService(NewMemoryRepository(), gw, NewVerifier("s", "w"), nil, nil)

	_, err := svc.CreateRemoteOrder(context.Background(), RemoteOrderRequest{Receipt: "r"})
	assert.ErrorIs(t, err, ErrGateway)
	assert.Zero(t, gw.calls)
}

func TestService_ParseWebhook(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &stubGateway{remote: &RemoteOrder{ID: "order_9"}}, NewVerifier("s", "hook"), nil, nil)
	ctx := context.Background()
	_, err := svc.CreateRemoteOrder(ctx, RemoteOrderRequest{AmountPaise: 100, Receipt: "r"})
	require.NoError(t, err)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","amount":100}}}}`)

	_, err = svc.ParseWebhook(ctx, body, "bogus")
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	ev, err := svc.ParseWebhook(ctx, body, Sign("hook", string(body)))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentCaptured, ev.Event)
	assert.Equal(t, "pay_9", ev.Payload.Payment.Entity.ID)

	tx, err := repo.GetByRemoteOrder(ctx, "order_9")
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(tx.WebhookPayload))

	bad := []byte(`not json`)
	_, err = svc.ParseWebhook(ctx, bad, Sign("hook", string(bad)))
	assert.ErrorIs(t, err, ErrMalformedWebhook)
}
