package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/config"
	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/modules/billing"
	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/georgemunganga/storefront-backend/internal/modules/inventory"
	"github.com/georgemunganga/storefront-backend/internal/modules/notification"
	"github.com/georgemunganga/storefront-backend/internal/modules/order"
	"github.com/georgemunganga/storefront-backend/internal/modules/payment"
	"github.com/georgemunganga/storefront-backend/internal/platform/database"
	"github.com/georgemunganga/storefront-backend/internal/platform/logging"
	"github.com/georgemunganga/storefront-backend/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// repositories groups the storage adapters for one backend.
type repositories struct {
	catalog  catalog.Repository
	orders   order.Repository
	payments payment.Repository
	invoices billing.Repository
}

func main() {
	cfg, envFile, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger("storefront-api", cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	if !envFile {
		logger.Warn("no .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Storage ─────────────────────────────────────────────
	var repos repositories
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			logger.Fatal("migrations", zap.Error(err))
		}
		logger.Info("connected to postgres")
		repos = repositories{
			catalog:  catalog.NewPostgresRepository(db),
			orders:   order.NewPostgresRepository(db),
			payments: payment.NewPostgresRepository(db),
			invoices: billing.NewPostgresRepository(db),
		}
	} else {
		logger.Warn("DATABASE_URL not set, running on in-memory storage")
		repos = repositories{
			catalog:  catalog.NewMemoryRepository(),
			orders:   order.NewMemoryRepository(),
			payments: payment.NewMemoryRepository(),
			invoices: billing.NewMemoryRepository(),
		}
	}

	// ── Metrics ─────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(registry, "storefront")

	// ── Domain ──────────────────────────────────────────────
	ledger := inventory.NewLedger(repos.catalog, cfg.ReservationTimeout, logger.Named("inventory"))

	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL, nil)
	verifier := payment.NewVerifier(cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	paymentService := payment.NewService(repos.payments, gateway, verifier, rec, logger.Named("payment"))

	invoices := billing.NewService(
		repos.invoices,
		order.NewInvoiceSource(repos.orders),
		repos.catalog,
		billing.NewTextRenderer(),
		billing.NewLocalDocumentStore(cfg.InvoiceStorageDir, cfg.InvoicePublicBaseURL),
		billing.TaxPolicy{SellerState: cfg.SellerState, DefaultGSTRate: cfg.DefaultGSTRate},
		rec,
		logger.Named("billing"),
	)

	orderService := order.NewService(
		repos.orders,
		repos.catalog,
		ledger,
		paymentService,
		invoices,
		notification.NewLogNotifier(logger),
		order.Policy{CODPartialPercent: cfg.CODPartialPercent, CheckoutKeyID: cfg.RazorpayKeyID},
		rec,
		logger.Named("order"),
	)

	sweeper, err := order.NewSweeper(orderService, cfg.SweepSchedule, logger)
	if err != nil {
		logger.Fatal("sweeper", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(logging.Middleware(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if base := strings.TrimRight(cfg.InvoicePublicBaseURL, "/"); strings.HasPrefix(base, "/") {
		router.Handle(base+"/*", http.StripPrefix(base, http.FileServer(http.Dir(cfg.InvoiceStorageDir))))
	}

	// ── Public: catalog, inventory & webhooks ───────────────
	catalogHandler := catalog.NewHandler(catalog.NewService(repos.catalog))
	catalogHandler.RegisterRoutes(router)
	inventory.NewHandler(ledger).RegisterRoutes(router)

	orderHandler := order.NewHandler(orderService)
	invoiceHandler := billing.NewHandler(invoices)
	paymentHandler := payment.NewHandler(paymentService, orderService, logger.Named("webhook"))
	paymentHandler.RegisterRoutes(router)

	// ── Buyer & Admin ───────────────────────────────────────
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))
		orderHandler.RegisterRoutes(r)
		invoiceHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			orderHandler.RegisterAdminRoutes(r)
			invoiceHandler.RegisterAdminRoutes(r)
			paymentHandler.RegisterAdminRoutes(r)
			catalogHandler.RegisterAdminRoutes(r)
		})
	})

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("storefront API starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}
