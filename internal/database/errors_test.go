package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"phora/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("deadline becomes storage unavailable", func(t *testing.T) {
		err := MapError(fmt.Errorf("query: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	})

	t.Run("connection exception becomes storage unavailable", func(t *testing.T) {
		err := MapError(&pgconn.PgError{Code: "08006"})
		assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	})

	t.Run("record not found passes through", func(t *testing.T) {
		err := MapError(gorm.ErrRecordNotFound)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NotErrorIs(t, err, models.ErrStorageUnavailable)
	})

	t.Run("other pg errors pass through", func(t *testing.T) {
		src := &pgconn.PgError{Code: "23505"}
		err := MapError(src)
		assert.NotErrorIs(t, err, models.ErrStorageUnavailable)
		var pgErr *pgconn.PgError
		assert.ErrorAs(t, err, &pgErr)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("something else")))
	assert.False(t, IsUniqueViolation(nil))
}
