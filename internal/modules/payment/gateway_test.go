package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)

		var req RemoteOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(49900), req.AmountPaise)
		assert.Equal(t, CurrencyINR, req.Currency)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "order_abc", "amount": req.AmountPaise, "currency": req.Currency,
			"receipt": req.Receipt, "status": "created",
		})
	}))
	defer srv.Close()

	gw := NewRazorpayGateway("rzp_key", "rzp_secret", srv.URL, srv.Client())
	out, err := gw.CreateOrder(context.Background(), RemoteOrderRequest{AmountPaise: 49900, Receipt: "ORD-20240101-001"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", out.ID)
	assert.Equal(t, "created", out.Status)
}

func TestRazorpayGateway_MissingCredentials(t *testing.T) {
	gw := NewRazorpayGateway("", "", "http://unused", nil)
	_, err := gw.CreateOrder(context.Background(), RemoteOrderRequest{AmountPaise: 100, Receipt: "r"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRazorpayGateway_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	gw := NewRazorpayGateway("k", "s", srv.URL, srv.Client())
	for i := 0; i < 8; i++ {
		_, err := gw.CreateOrder(context.Background(), RemoteOrderRequest{AmountPaise: 1, Receipt: "r"})
		require.ErrorIs(t, err, ErrGateway)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
	}
	assert.Equal(t, int32(8), atomic.LoadInt32(&hits))
}

func TestRazorpayGateway_ServerErrorsOpenBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := NewRazorpayGateway("k", "s", srv.URL, srv.Client())
	for i := 0; i < 5; i++ {
		_, err := gw.CreateOrder(context.Background(), RemoteOrderRequest{AmountPaise: 100, Receipt: "r"})
		require.ErrorIs(t, err, ErrGateway)
	}

	_, err := gw.CreateOrder(context.Background(), RemoteOrderRequest{AmountPaise: 100, Receipt: "r"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}
