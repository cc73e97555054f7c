package order

import (
	"fmt"
	"time"
)

// validTransitions is the order state graph.
var validTransitions = map[Status][]Status{
	StatusPending:           {StatusProcessingPayment, StatusCancelled},
	StatusProcessingPayment: {StatusPaid, StatusPaymentFailed, StatusPending, StatusCancelled},
	StatusPaid:              {StatusConfirmed, StatusPacked},
	StatusConfirmed:         {StatusPacked},
	StatusPacked:            {StatusShipped},
	StatusShipped:           {StatusDelivered},
	StatusPaymentFailed:     {StatusPending, StatusCancelled},
	StatusDelivered:         {},
	StatusCancelled:         {},
}

// adminCancellable lists the states only an admin may cancel from, on top
// of the edges in validTransitions. Stock is restored and a refund is owed.
var adminCancellable = map[Status]bool{
	StatusPaid:      true,
	StatusConfirmed: true,
	StatusPacked:    true,
	StatusShipped:   true,
}

// CanTransition returns true if the transition is valid.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	next, ok := validTransitions[s]
	return ok && len(next) == 0
}

// CanCancel reports whether the order may be cancelled from s. Buyers may
// only abandon unpaid orders.
func CanCancel(s Status, isAdmin bool) bool {
	if CanTransition(s, StatusCancelled) && (isAdmin || s == StatusPending || s == StatusPaymentFailed) {
		return true
	}
	return isAdmin && adminCancellable[s]
}

// Transition moves the order to next and appends one history entry. The
// order is left untouched when the move is not in the state graph.
func (o *Order) Transition(next Status, actor, note string, now time.Time) error {
	if !CanTransition(o.Status, next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, next)
	}
	o.apply(next, actor, note, now)
	return nil
}

// Cancel moves the order to CANCELLED, honouring admin-only edges.
func (o *Order) Cancel(actor, reason string, isAdmin bool, now time.Time) error {
	if !CanCancel(o.Status, isAdmin) {
		return fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidState, o.Status)
	}
	if reason == "" {
		reason = "Order cancelled"
	}
	o.apply(StatusCancelled, actor, reason, now)
	return nil
}

// AddNote records a history entry without changing status.
func (o *Order) AddNote(actor, note string, now time.Time) {
	o.History = append(o.History, HistoryEntry{Status: o.Status, Timestamp: now, ChangedBy: actor, Note: note})
}

// RequiresRefund reports whether cancelling now would strand captured money.
func (o *Order) RequiresRefund() bool {
	return o.stockDeducted() || o.RequiresReconciliation
}

func (o *Order) apply(next Status, actor, note string, now time.Time) {
	o.Status = next
	o.History = append(o.History, HistoryEntry{Status: next, Timestamp: now, ChangedBy: actor, Note: note})
	if next == StatusCancelled {
		o.CancelledAt = &now
		o.CancelledBy = actor
		o.CancellationReason = note
	}
}
