// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"phora/internal/cache"
	"phora/internal/database"

	"gorm.io/gorm"
)

// base carries what every repository needs: the DB handle, the cache
// manager for write-path invalidation, and the bounded-latency budget
// applied to each persistence call.
type base struct {
	db      *gorm.DB
	cache   *cache.Manager
	timeout time.Duration
}

func (b *base) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// wrap maps driver faults to the domain taxonomy. Timeouts surface as
// retryable storage errors.
func (b *base) wrap(err error) error {
	return database.MapError(err)
}
