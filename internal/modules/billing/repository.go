package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("invoice not found")
	// ErrOrderInvoiced is returned by Create when the order already has an invoice.
	ErrOrderInvoiced = errors.New("order already invoiced")
)

// Repository defines data access for invoices.
type Repository interface {
	// Create inserts inv. An invoice number clash wraps sequence.ErrCollision;
	// a second invoice for the same order returns ErrOrderInvoiced.
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error)
	List(ctx context.Context, f ListFilter) ([]*Invoice, error)
	UpdateDocumentURL(ctx context.Context, id uuid.UUID, url string) error

	// LastNumber returns the highest invoice number under prefix, or "".
	LastNumber(ctx context.Context, prefix string) (string, error)
}
