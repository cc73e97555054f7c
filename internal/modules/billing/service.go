package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/georgemunganga/storefront-backend/internal/platform/metrics"
	"github.com/georgemunganga/storefront-backend/internal/platform/sequence"
	"github.com/georgemunganga/storefront-backend/internal/platform/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrPreconditionFailed = errors.New("order is not in an invoiceable state")
	ErrForbidden          = errors.New("invoice belongs to another user")
)

var tracer = otel.Tracer("github.com/georgemunganga/storefront-backend/internal/modules/billing")

// OrderReader loads the order data an invoice is built from.
type OrderReader interface {
	InvoiceSnapshot(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error)
}

// TaxCatalog resolves GST classification per product.
type TaxCatalog interface {
	GetTaxInfo(ctx context.Context, productID uuid.UUID) (*catalog.TaxInfo, error)
}

// Service issues and serves GST invoices for paid orders.
type Service interface {
	// Generate issues the invoice for an order, or returns the one already issued.
	Generate(ctx context.Context, orderID uuid.UUID) (*Invoice, error)

	// RegenerateDocument re-renders an invoice and replaces its stored document.
	RegenerateDocument(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error)

	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// GetByOrder returns the invoice of an order; buyers see only their own.
	GetByOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*Invoice, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error)
	List(ctx context.Context, f ListFilter) ([]*Invoice, error)
}

type generator struct {
	repo     Repository
	orders   OrderReader
	taxes    TaxCatalog
	renderer Renderer
	store    DocumentStore
	policy   TaxPolicy
	metrics  *metrics.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the invoice generator. renderer and store may be nil, in
// which case invoices are issued without a document.
func NewService(repo Repository, orders OrderReader, taxes TaxCatalog, renderer Renderer, store DocumentStore, policy TaxPolicy, rec *metrics.Recorder, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &generator{
		repo:     repo,
		orders:   orders,
		taxes:    taxes,
		renderer: renderer,
		store:    store,
		policy:   policy,
		metrics:  rec,
		logger:   logger,
		now:      time.Now,
	}
}

// Generate issues the invoice for orderID, or returns the one already issued.
func (g *generator) Generate(ctx context.Context, orderID uuid.UUID) (_ *Invoice, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, g.metrics, "generate_invoice",
		attribute.String("order.id", orderID.String()))
	defer func() { obs.End(err) }()

	existing, err := g.repo.GetByOrder(ctx, orderID)
	if err == nil {
		obs.Outcome("existing")
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("look up invoice for order %s: %w", orderID, err)
	}

	snap, err := g.orders.InvoiceSnapshot(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if !invoiceableStatuses[snap.Status] {
		return nil, fmt.Errorf("%w: order %s is %s", ErrPreconditionFailed, snap.OrderNumber, snap.Status)
	}

	inv, err := g.build(ctx, snap)
	if err != nil {
		return nil, err
	}

	_, err = sequence.Allocate(ctx, sequence.Daily("INV", inv.CreatedAt), g.repo.LastNumber, func(number string) error {
		inv.InvoiceNumber = number
		return g.repo.Create(ctx, inv)
	})
	if errors.Is(err, ErrOrderInvoiced) {
		// Lost a race with a concurrent generator for the same order.
		obs.Outcome("existing")
		return g.repo.GetByOrder(ctx, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("save invoice for order %s: %w", snap.OrderNumber, err)
	}
	obs.Annotate(attribute.String("invoice.number", inv.InvoiceNumber))

	if url, docErr := g.publish(ctx, inv); docErr != nil {
		g.logger.Warn("invoice document not stored",
			zap.String("invoice_number", inv.InvoiceNumber), zap.Error(docErr))
	} else {
		inv.DocumentURL = url
	}

	g.logger.Info("invoice generated",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("order_number", inv.OrderNumber),
		zap.Int64("grand_total_paise", inv.GrandTotalPaise))
	return inv, nil
}

// RegenerateDocument re-renders an existing invoice and replaces its document.
func (g *generator) RegenerateDocument(ctx context.Context, invoiceID uuid.UUID) (_ *Invoice, err error) {
	ctx, obs := telemetry.Start(ctx, tracer, g.metrics, "regenerate_invoice_document",
		attribute.String("invoice.id", invoiceID.String()))
	defer func() { obs.End(err) }()

	inv, err := g.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	previous := inv.DocumentURL

	url, err := g.publish(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.DocumentURL = url

	if previous != "" && previous != url {
		if delErr := g.store.Delete(ctx, previous); delErr != nil {
			g.logger.Warn("previous invoice document not deleted",
				zap.String("invoice_number", inv.InvoiceNumber), zap.String("url", previous), zap.Error(delErr))
		}
	}
	return inv, nil
}

func (g *generator) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return g.repo.Get(ctx, id)
}

// GetByOrder returns the invoice of an order. Buyers see only their own.
func (g *generator) GetByOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*Invoice, error) {
	inv, err := g.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && inv.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return inv, nil
}

func (g *generator) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	return g.repo.ListByUser(ctx, userID)
}

func (g *generator) List(ctx context.Context, f ListFilter) ([]*Invoice, error) {
	return g.repo.List(ctx, f)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (g *generator) build(ctx context.Context, snap *OrderSnapshot) (*Invoice, error) {
	intra := g.policy.IsIntraState(snap.ShippingAddress.State)
	items := make([]InvoiceItem, 0, len(snap.Items))
	for _, line := range snap.Items {
		var hsn string
		var rate *int
		info, err := g.taxes.GetTaxInfo(ctx, line.ProductID)
		switch {
		case err == nil:
			hsn, rate = info.HSNCode, info.Rate
		case errors.Is(err, catalog.ErrNotFound):
			// delisted since purchase; bill at the default rate
		default:
			return nil, fmt.Errorf("tax info for %s: %w", line.Name, err)
		}
		items = append(items, buildItem(line, hsn, g.policy.RateOrDefault(rate), intra))
	}

	now := g.now()
	inv := &Invoice{
		ID:              uuid.New(),
		OrderID:         snap.ID,
		OrderNumber:     snap.OrderNumber,
		UserID:          snap.UserID,
		BillingAddress:  snap.ShippingAddress,
		ShippingAddress: snap.ShippingAddress,
		Items:           items,
		IsIntraState:    intra,
		SellerState:     g.policy.SellerState,
		Status:          InvGenerated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	inv.totals()
	return inv, nil
}

// publish renders inv, stores the document and records its URL.
func (g *generator) publish(ctx context.Context, inv *Invoice) (string, error) {
	if g.renderer == nil || g.store == nil {
		return "", errors.New("no document renderer configured")
	}
	data, contentType, err := g.renderer.Render(ctx, inv)
	if err != nil {
		return "", err
	}
	folder := inv.CreatedAt.Format("2006/01")
	name := fmt.Sprintf("%s-%d", inv.InvoiceNumber, g.now().UnixNano())
	url, err := g.store.Store(ctx, data, contentType, folder, name)
	if err != nil {
		return "", fmt.Errorf("store invoice document: %w", err)
	}
	if err := g.repo.UpdateDocumentURL(ctx, inv.ID, url); err != nil {
		return "", fmt.Errorf("record invoice document: %w", err)
	}
	return url, nil
}
