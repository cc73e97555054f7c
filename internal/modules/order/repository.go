package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines data access for orders.
type Repository interface {
	// Create inserts a new order. An order number clash wraps
	// sequence.ErrCollision.
	Create(ctx context.Context, o *Order) error

	Get(ctx context.Context, id uuid.UUID) (*Order, error)

	// GetByRemoteOrderID finds the order a gateway order belongs to.
	GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*Order, error)

	// Update writes o only if the stored status still equals expected,
	// otherwise it returns ErrConflict.
	Update(ctx context.Context, o *Order, expected Status) error

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, error)

	// ListReservedByUser returns the buyer's orders still holding a reservation.
	ListReservedByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)

	// ListExpiredReservations returns unpaid orders whose reservation lapsed before now.
	ListExpiredReservations(ctx context.Context, now time.Time) ([]*Order, error)

	// LastOrderNumber returns the highest order number under prefix, or "".
	LastOrderNumber(ctx context.Context, prefix string) (string, error)
}

// sweepableStatuses are the unpaid states the reservation sweep visits.
var sweepableStatuses = []Status{StatusPending, StatusProcessingPayment, StatusPaymentFailed}
