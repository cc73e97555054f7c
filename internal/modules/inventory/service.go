package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"go.uber.org/zap"
)

// Ledger applies stock demands to the catalog counters.
//
// Reservation is advisory: it checks availability, net of what the same
// buyer already holds in open orders, and hands back an expiry for the
// order to carry. No counter is touched, so two buyers can both reserve the
// last unit; the later payer loses at Deduct. Deduction is the only
// operation that commits an inventory change.
type Ledger struct {
	store              StockStore
	reservationTimeout time.Duration
	logger             *zap.Logger
}

// NewLedger creates a ledger over store.
func NewLedger(store StockStore, reservationTimeout time.Duration, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, reservationTimeout: reservationTimeout, logger: logger}
}

// CheckAvailability fails with *InsufficientStockError for the first line
// whose demand, plus what held already claims, exceeds the counter. Lines
// sharing a counter are summed.
func (l *Ledger) CheckAvailability(ctx context.Context, lines []Line, held Holdings) error {
	for _, d := range aggregate(lines) {
		available, err := l.store.StockQuantity(ctx, d.Key())
		if errors.Is(err, catalog.ErrNotFound) {
			available = 0
		} else if err != nil {
			return fmt.Errorf("read stock for %s: %w", d.label(), err)
		}

		free := available - held[d.Key()]
		if free < 0 {
			free = 0
		}
		if d.Quantity > free {
			return &InsufficientStockError{Item: d.label(), Requested: d.Quantity, Available: free}
		}
	}
	return nil
}

// Reserve checks availability and returns when the reservation lapses.
func (l *Ledger) Reserve(ctx context.Context, lines []Line, held Holdings, now time.Time) (time.Time, error) {
	if err := l.CheckAvailability(ctx, lines, held); err != nil {
		return time.Time{}, err
	}
	return now.Add(l.reservationTimeout), nil
}

// Deduct decrements every line left to right. When a line cannot be
// satisfied, the lines already applied are put back before returning, so
// callers see all or nothing.
func (l *Ledger) Deduct(ctx context.Context, lines []Line) error {
	applied := make([]Line, 0, len(lines))
	for _, line := range lines {
		ok, err := l.store.DecrementStock(ctx, line.Key(), line.Quantity)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			l.rollback(ctx, applied)
			return fmt.Errorf("deduct stock for %s: %w", line.label(), err)
		}
		if !ok {
			available, _ := l.store.StockQuantity(ctx, line.Key())
			l.rollback(ctx, applied)
			return &InsufficientStockError{Item: line.label(), Requested: line.Quantity, Available: available}
		}
		applied = append(applied, line)
	}
	return nil
}

// Restore adds every line back. It keeps going past failures and returns
// them joined.
func (l *Ledger) Restore(ctx context.Context, lines []Line) error {
	var errs []error
	for _, line := range lines {
		if err := l.store.IncrementStock(ctx, line.Key(), line.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("restore stock for %s: %w", line.label(), err))
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) rollback(ctx context.Context, applied []Line) {
	for i := len(applied) - 1; i >= 0; i-- {
		line := applied[i]
		if err := l.store.IncrementStock(ctx, line.Key(), line.Quantity); err != nil {
			l.logger.Error("stock rollback failed",
				zap.String("item", line.label()),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
		}
	}
}

// aggregate sums lines per counter, keeping first-seen order.
func aggregate(lines []Line) []Line {
	index := make(map[catalog.StockKey]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.Key()]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.Key()] = len(out)
		out = append(out, line)
	}
	return out
}
