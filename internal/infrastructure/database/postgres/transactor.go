// internal/infrastructure/database/postgres/transactor.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type txKey struct{}

// Transactor opens gorm transactions and carries them in the context
type Transactor struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTransactor creates a transactor. A positive lockTimeout bounds row lock waits so
// lock contention surfaces as a retryable conflict instead of hanging the request.
func NewTransactor(db *gorm.DB, lockTimeout time.Duration) *Transactor {
	return &Transactor{db: db, lockTimeout: lockTimeout}
}

// WithinTransaction runs fn in a transaction. Calls nested in an open transaction join it.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return translate(err, "transaction")
}

// conn returns the transaction in ctx, or the pool bound to ctx
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
