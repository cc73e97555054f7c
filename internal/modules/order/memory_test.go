package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/platform/sequence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stored(number string, status Status) *Order {
	return &Order{ID: uuid.New(), OrderNumber: number, UserID: uuid.New(), Status: status, CreatedAt: time.Now()}
}

func TestMemoryRepository_UpdateIsConditional(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	o := stored("ORD-20240115-001", StatusProcessingPayment)
	require.NoError(t, repo.Create(ctx, o))

	a, _ := repo.Get(ctx, o.ID)
	b, _ := repo.Get(ctx, o.ID)
	a.Status = StatusPaid
	require.NoError(t, repo.Update(ctx, a, StatusProcessingPayment))

	b.Status = StatusPaymentFailed
	err := repo.Update(ctx, b, StatusProcessingPayment)
	assert.True(t, errors.Is(err, ErrConflict))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
}

func TestMemoryRepository_NumberCollision(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, stored("ORD-20240115-001", StatusPending)))

	err := repo.Create(ctx, stored("ORD-20240115-001", StatusPending))
	assert.True(t, errors.Is(err, sequence.ErrCollision))
}

func TestMemoryRepository_LastOrderNumber(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, n := range []string{"ORD-20240115-998", "ORD-20240115-999", "ORD-20240115-1000", "ORD-20240116-005"} {
		require.NoError(t, repo.Create(ctx, stored(n, StatusPending)))
	}

	last, err := repo.LastOrderNumber(ctx, "ORD-20240115-")
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240115-1000", last)

	last, err = repo.LastOrderNumber(ctx, "ORD-20240117-")
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestMemoryRepository_ListFilter(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	buyer := uuid.New()
	for i, s := range []Status{StatusPending, StatusPaid, StatusPaid, StatusCancelled} {
		o := stored("ORD-20240115-00"+string(rune('1'+i)), s)
		o.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if i < 2 {
			o.UserID = buyer
		}
		require.NoError(t, repo.Create(ctx, o))
	}

	paid, err := repo.List(ctx, ListFilter{Status: StatusPaid})
	require.NoError(t, err)
	require.Len(t, paid, 2)
	assert.True(t, paid[0].CreatedAt.After(paid[1].CreatedAt))

	mine, err := repo.ListByUser(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	from := base.Add(90 * time.Minute)
	page, err := repo.List(ctx, ListFilter{From: &from, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "ORD-20240115-003", page[0].OrderNumber)
}
