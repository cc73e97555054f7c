package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier_Notify(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))
	userID := uuid.New()

	err := n.Notify(context.Background(), userID, OrderPaid, map[string]string{"order_number": "ORD-20240101-001"})
	require.NoError(t, err)

	entries := logs.FilterMessage("notify buyer").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, userID.String(), fields["user_id"])
	assert.Equal(t, "order_paid", fields["event"])
	assert.Equal(t, "ORD-20240101-001", fields["order_number"])
}
