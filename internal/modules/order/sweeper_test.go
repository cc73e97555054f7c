package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeper_RejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	_, err := NewSweeper(f.svc, "every now and then", nil)
	assert.Error(t, err)
}

func TestSweeper_RunOnce(t *testing.T) {
	f := newFixture(t)
	o := f.create(t, uuid.New(), 2)

	s, err := NewSweeper(f.svc, "@every 5m", nil)
	require.NoError(t, err)

	s.RunOnce()
	assert.True(t, f.reload(t, o.ID).StockReserved)

	f.now = f.now.Add(16 * time.Minute)
	s.RunOnce()
	stored := f.reload(t, o.ID)
	assert.False(t, stored.StockReserved)
	assert.Equal(t, StatusPending, stored.Status)
}
