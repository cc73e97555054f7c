package notification

import (
	"context"

	"github.com/georgemunganga/storefront-backend/internal/platform/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event names a buyer-facing order notification.
type Event string

const (
	OrderPlaced    Event = "order_placed"
	OrderPaid      Event = "order_paid"
	PaymentFailed  Event = "payment_failed"
	OrderConfirmed Event = "order_confirmed"
	OrderPacked    Event = "order_packed"
	OrderShipped   Event = "order_shipped"
	OrderDelivered Event = "order_delivered"
	OrderCancelled Event = "order_cancelled"
)

// Notifier delivers order events to a buyer. Delivery is best effort;
// callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event Event, data map[string]string) error
}

// LogNotifier writes every notification as a structured log line.
type LogNotifier struct{ logger *zap.Logger }

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notification")}
}

func (n *LogNotifier) Notify(ctx context.Context, userID uuid.UUID, event Event, data map[string]string) error {
	fields := make([]zap.Field, 0, len(data)+2)
	fields = append(fields, zap.Stringer("user_id", userID), zap.String("event", string(event)))
	for k, v := range data {
		fields = append(fields, zap.String(k, v))
	}
	logging.FromContext(ctx, n.logger).Info("notify buyer", fields...)
	return nil
}
