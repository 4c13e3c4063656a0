// internal/pkg/txn/txn.go
package txn

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/pkg/apperror"
)

// DefaultAttempts is one try plus a single retry on conflict
const DefaultAttempts = 2

// Transactor runs fn inside one persistence transaction. The transaction travels in the
// context passed to fn; returning an error rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Runner wraps a Transactor with the conflict retry policy
type Runner struct {
	tx       Transactor
	log      logrus.FieldLogger
	attempts int
}

// NewRunner creates a runner. attempts below 1 fall back to DefaultAttempts.
func NewRunner(tx Transactor, log logrus.FieldLogger, attempts int) *Runner {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Runner{tx: tx, log: log, attempts: attempts}
}

// Run executes fn in a transaction, retrying the whole unit when the store reports a conflict.
// Domain failures are returned as-is on the first attempt.
func (r *Runner) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.tx.WithinTransaction(ctx, fn)
		if err == nil || !errors.Is(err, apperror.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt < r.attempts {
			r.log.WithFields(logrus.Fields{
				"operation": op,
				"attempt":   attempt,
				"error":     err.Error(),
			}).Warn("Transaction conflict, retrying")
		}
	}
	return err
}
