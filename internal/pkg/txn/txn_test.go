package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/your-org/storefront/internal/pkg/apperror"
)

type passthrough struct {
	calls int
}

func (p *passthrough) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

func TestRunner_Run(t *testing.T) {
	t.Run("Retries once on conflict", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		tx := &passthrough{}
		runner := NewRunner(tx, log, DefaultAttempts)

		err := runner.Run(context.Background(), "place_order", func(ctx context.Context) error {
			if tx.calls == 1 {
				return apperror.Conflict(errors.New("serialization failure"), "concurrent update")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, tx.calls)
		if assert.Len(t, hook.Entries, 1) {
			assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			assert.Equal(t, "place_order", hook.LastEntry().Data["operation"])
		}
	})

	t.Run("Surfaces conflict after the retry", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		tx := &passthrough{}
		runner := NewRunner(tx, log, DefaultAttempts)

		err := runner.Run(context.Background(), "add_to_cart", func(ctx context.Context) error {
			return apperror.Conflict(nil, "concurrent update")
		})

		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.Equal(t, 2, tx.calls)
	})

	t.Run("Does not retry domain errors", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		tx := &passthrough{}
		runner := NewRunner(tx, log, DefaultAttempts)

		err := runner.Run(context.Background(), "cancel_order", func(ctx context.Context) error {
			return apperror.InvalidState("Order is already cancelled")
		})

		assert.ErrorIs(t, err, apperror.ErrInvalidState)
		assert.Equal(t, 1, tx.calls)
		assert.Empty(t, hook.Entries)
	})

	t.Run("Zero attempts uses the default", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		runner := NewRunner(&passthrough{}, log, 0)
		assert.Equal(t, DefaultAttempts, runner.attempts)
	})
}
