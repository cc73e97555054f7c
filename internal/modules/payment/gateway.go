package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrGateway wraps every failure talking to the payment provider.
	ErrGateway = errors.New("payment gateway error")
	// ErrCircuitOpen is returned without a network call while the breaker is open.
	ErrCircuitOpen = errors.New("payment gateway temporarily unavailable")
	// ErrNotConfigured means API credentials are missing.
	ErrNotConfigured = errors.New("payment gateway credentials not configured")
)

// Gateway is the provider-facing side of the payment adapter.
type Gateway interface {
	// CreateOrder opens a payment intent and returns the remote order.
	CreateOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error)
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// ── Razorpay Adapter ──────────────────────────────────────────────────────────
// Razorpay Orders API docs: https://razorpay.com/docs/api/orders/

type razorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*RemoteOrder]
}

// NewRazorpayGateway builds the Razorpay adapter. A nil client gets a 10s timeout.
func NewRazorpayGateway(keyID, keySecret, baseURL string, client *http.Client) Gateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &razorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		client:    client,
		breaker: gobreaker.NewCircuitBreaker[*RemoteOrder](gobreaker.Settings{
			Name:        "razorpay",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
			// A 4xx is our request's fault and says nothing about provider health.
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < 500)
			},
		}),
	}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, ErrNotConfigured
	}
	if req.AmountPaise <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrGateway)
	}
	if req.Receipt == "" {
		return nil, fmt.Errorf("%w: receipt is required", ErrGateway)
	}
	if req.Currency == "" {
		req.Currency = CurrencyINR
	}
	if req.Notes == nil {
		req.Notes = map[string]string{}
	}

	out, err := g.breaker.Execute(func() (*RemoteOrder, error) {
		return g.postOrder(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return out, nil
}

func (g *razorpayGateway) postOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return nil, &APIError{StatusCode: resp.StatusCode, Code: e.Error.Code, Description: e.Error.Description}
	}

	out := &RemoteOrder{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("order response without id")
	}
	return out, nil
}
