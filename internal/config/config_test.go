package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COD_PARTIAL_PAYMENT_PERCENTAGE", "")
	t.Setenv("DEFAULT_GST_RATE", "")
	t.Setenv("STOCK_RESERVATION_TIMEOUT_MINUTES", "")
	t.Setenv("SELLER_STATE", "")
	t.Setenv("RAZORPAY_BASE_URL", "")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 18, cfg.DefaultGSTRate)
	assert.Equal(t, 30, cfg.CODPartialPercent)
	assert.Equal(t, 15*time.Minute, cfg.ReservationTimeout)
	assert.Equal(t, "Maharashtra", cfg.SellerState)
	assert.Equal(t, "https://api.razorpay.com/v1", cfg.RazorpayBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COD_PARTIAL_PAYMENT_PERCENTAGE", "25")
	t.Setenv("STOCK_RESERVATION_TIMEOUT_MINUTES", "5")
	t.Setenv("SELLER_STATE", "Karnataka")
	t.Setenv("RAZORPAY_BASE_URL", "http://localhost:9000/v1/")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.CODPartialPercent)
	assert.Equal(t, 5*time.Minute, cfg.ReservationTimeout)
	assert.Equal(t, "Karnataka", cfg.SellerState)
	assert.Equal(t, "http://localhost:9000/v1", cfg.RazorpayBaseURL)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("COD_PARTIAL_PAYMENT_PERCENTAGE", "140")
	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COD_PARTIAL_PAYMENT_PERCENTAGE")

	t.Setenv("COD_PARTIAL_PAYMENT_PERCENTAGE", "thirty")
	_, _, err = Load()
	require.Error(t, err)
}
