package pg

import (
	"context"
	"errors"
	"fmt"
	"testing"

	// Packages
	pgx "github.com/jackc/pgx/v5"
	pgconn "github.com/jackc/pgx/v5/pgconn"
	assert "github.com/stretchr/testify/assert"
)

func Test_Error_001(t *testing.T) {
	assert := assert.New(t)

	t.Run("With", func(t *testing.T) {
		err := ErrNotFound.With("queue ", "orders")
		assert.ErrorIs(err, ErrNotFound)
		assert.Equal("not found: queue orders", err.Error())
	})

	t.Run("Withf", func(t *testing.T) {
		err := ErrConflict.Withf("queue %q", "orders")
		assert.ErrorIs(err, ErrConflict)
		assert.Equal(`conflict: queue "orders"`, err.Error())
	})

	t.Run("Unknown", func(t *testing.T) {
		assert.Equal("error code 99", Err(99).Error())
	})
}

func Test_Error_002(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		Code string
		Err  Err
	}{
		{"42P01", ErrNotFound},
		{"42704", ErrNotFound},
		{"42P07", ErrConflict},
		{"23505", ErrConflict},
		{"P0001", ErrBadParameter},
		{"22P02", ErrBadParameter},
		{"22003", ErrBadParameter},
		{"08006", ErrNotAvailable},
		{"53300", ErrNotAvailable},
		{"57P01", ErrNotAvailable},
		{"42601", ErrQuery},
		{"XX000", ErrQuery},
	}
	for _, test := range tests {
		t.Run(test.Code, func(t *testing.T) {
			err := pgerror(&pgconn.PgError{Code: test.Code, Message: "message"})
			assert.ErrorIs(err, test.Err)
			assert.Contains(err.Error(), "message")
		})
	}
}

func Test_Error_003(t *testing.T) {
	assert := assert.New(t)

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(pgerror(nil))
	})

	t.Run("NoRows", func(t *testing.T) {
		assert.ErrorIs(pgerror(pgx.ErrNoRows), ErrNotFound)
	})

	t.Run("PassThrough", func(t *testing.T) {
		err := ErrBadParameter.With("invalid queue name")
		assert.Equal(err, pgerror(err))
	})

	t.Run("Context", func(t *testing.T) {
		assert.Equal(context.Canceled, pgerror(context.Canceled))
		err := fmt.Errorf("query: %w", context.DeadlineExceeded)
		assert.Equal(err, pgerror(err))
	})

	t.Run("Wrapped", func(t *testing.T) {
		err := pgerror(fmt.Errorf("send: %w", &pgconn.PgError{Code: "42P01"}))
		assert.ErrorIs(err, ErrNotFound)
	})

	t.Run("Other", func(t *testing.T) {
		err := pgerror(errors.New("unexpected"))
		assert.ErrorIs(err, ErrQuery)
	})
}
