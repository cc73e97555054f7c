package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration. It is built once at startup and
// passed by value; business code never reads the environment directly.
type Config struct {
	AppPort     string
	Env         string
	DatabaseURL string // empty runs the API on in-memory adapters
	JWTSecret   string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string

	SellerState        string
	DefaultGSTRate     int
	CODPartialPercent  int
	ReservationTimeout time.Duration
	SweepSchedule      string

	InvoiceStorageDir    string
	InvoicePublicBaseURL string
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (Config, bool, error) {
	loaded := godotenv.Load() == nil

	cfg := Config{
		AppPort:               getenvDefault("APP_PORT", "8080"),
		Env:                   getenvDefault("APP_ENV", "development"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayBaseURL:       strings.TrimRight(getenvDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"), "/"),
		SellerState:           getenvDefault("SELLER_STATE", "Maharashtra"),
		SweepSchedule:         getenvDefault("RESERVATION_SWEEP_SCHEDULE", "@every 5m"),
		InvoiceStorageDir:     getenvDefault("INVOICE_STORAGE_DIR", "./storage/invoices"),
		InvoicePublicBaseURL:  getenvDefault("INVOICE_PUBLIC_BASE_URL", "/files/invoices"),
	}

	var err error
	if cfg.DefaultGSTRate, err = intFromEnv("DEFAULT_GST_RATE", 18); err != nil {
		return Config{}, loaded, err
	}
	if cfg.CODPartialPercent, err = intFromEnv("COD_PARTIAL_PAYMENT_PERCENTAGE", 30); err != nil {
		return Config{}, loaded, err
	}
	minutes, err := intFromEnv("STOCK_RESERVATION_TIMEOUT_MINUTES", 15)
	if err != nil {
		return Config{}, loaded, err
	}
	cfg.ReservationTimeout = time.Duration(minutes) * time.Minute

	if err := cfg.Validate(); err != nil {
		return Config{}, loaded, err
	}
	return cfg, loaded, nil
}

// Validate checks ranges that would otherwise corrupt money or tax maths.
func (c Config) Validate() error {
	if c.CODPartialPercent < 0 || c.CODPartialPercent > 100 {
		return fmt.Errorf("COD_PARTIAL_PAYMENT_PERCENTAGE must be between 0 and 100 (got %d)", c.CODPartialPercent)
	}
	if c.DefaultGSTRate < 0 || c.DefaultGSTRate > 100 {
		return fmt.Errorf("DEFAULT_GST_RATE must be between 0 and 100 (got %d)", c.DefaultGSTRate)
	}
	if c.ReservationTimeout <= 0 {
		return fmt.Errorf("STOCK_RESERVATION_TIMEOUT_MINUTES must be positive")
	}
	if strings.TrimSpace(c.SellerState) == "" {
		return fmt.Errorf("SELLER_STATE is required")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
