package order

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusPending, StatusProcessingPayment, StatusPaid, StatusPaymentFailed,
	StatusConfirmed, StatusPacked, StatusShipped, StatusDelivered, StatusCancelled,
}

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusProcessingPayment}:       true,
		{StatusPending, StatusCancelled}:               true,
		{StatusProcessingPayment, StatusPaid}:          true,
		{StatusProcessingPayment, StatusPaymentFailed}: true,
		{StatusProcessingPayment, StatusPending}:       true,
		{StatusProcessingPayment, StatusCancelled}:     true,
		{StatusPaid, StatusConfirmed}:                  true,
		{StatusPaid, StatusPacked}:                     true,
		{StatusConfirmed, StatusPacked}:                true,
		{StatusPacked, StatusShipped}:                  true,
		{StatusShipped, StatusDelivered}:               true,
		{StatusPaymentFailed, StatusPending}:           true,
		{StatusPaymentFailed, StatusCancelled}:         true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, allowed[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range allStatuses {
		want := s == StatusDelivered || s == StatusCancelled
		assert.Equal(t, want, IsTerminal(s), s)
	}
}

func TestTransition_AppendsOneEntry(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	o := &Order{Status: StatusPending}

	require.NoError(t, o.Transition(StatusProcessingPayment, "u1", "Payment initiated", now))
	assert.Equal(t, StatusProcessingPayment, o.Status)
	require.Len(t, o.History, 1)
	assert.Equal(t, HistoryEntry{Status: StatusProcessingPayment, Timestamp: now, ChangedBy: "u1", Note: "Payment initiated"}, o.History[0])
}

func TestTransition_IllegalLeavesOrderUntouched(t *testing.T) {
	o := &Order{Status: StatusPending}
	err := o.Transition(StatusShipped, "admin", "", time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "PENDING to SHIPPED")
	assert.Equal(t, StatusPending, o.Status)
	assert.Empty(t, o.History)
}

func TestCanCancel(t *testing.T) {
	buyer := map[Status]bool{StatusPending: true, StatusPaymentFailed: true}
	for _, s := range allStatuses {
		assert.Equal(t, buyer[s], CanCancel(s, false), "buyer %s", s)
		assert.Equal(t, !IsTerminal(s), CanCancel(s, true), "admin %s", s)
	}
}

func TestCancel_StampsMetadata(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	o := &Order{Status: StatusPaid}

	err := o.Cancel("buyer", "", false, now)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, StatusPaid, o.Status)

	require.NoError(t, o.Cancel("admin", "", true, now))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, "admin", o.CancelledBy)
	assert.Equal(t, "Order cancelled", o.CancellationReason)
	require.NotNil(t, o.CancelledAt)
	assert.Equal(t, now, *o.CancelledAt)
}

func TestRequiresRefund(t *testing.T) {
	for _, s := range allStatuses {
		o := &Order{Status: s}
		want := s == StatusPaid || s == StatusConfirmed || s == StatusPacked || s == StatusShipped || s == StatusDelivered
		assert.Equal(t, want, o.RequiresRefund(), s)
	}

	o := &Order{Status: StatusProcessingPayment, RequiresReconciliation: true}
	assert.True(t, o.RequiresRefund())
}

func TestAddNote_KeepsStatus(t *testing.T) {
	o := &Order{Status: StatusPaymentFailed}
	o.AddNote("system", "Stock reservation expired", time.Now())
	assert.Equal(t, StatusPaymentFailed, o.Status)
	require.Len(t, o.History, 1)
	assert.Equal(t, StatusPaymentFailed, o.History[0].Status)
}
