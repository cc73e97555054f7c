package database

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert order: %w", &pq.Error{Code: "23505"})
	assert.True(t, IsUniqueViolation(dup))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("unique")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}

func TestUniqueConstraint(t *testing.T) {
	name, ok := UniqueConstraint(fmt.Errorf("insert invoice: %w", &pq.Error{Code: "23505", Constraint: "invoices_order_id_key"}))
	assert.True(t, ok)
	assert.Equal(t, "invoices_order_id_key", name)

	_, ok = UniqueConstraint(errors.New("boom"))
	assert.False(t, ok)
}
