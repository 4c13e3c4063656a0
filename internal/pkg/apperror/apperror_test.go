package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	t.Run("InsufficientStock is an InvalidState", func(t *testing.T) {
		err := InsufficientStock(7, 3, "Insufficient stock. Only %d units available", 3)

		assert.True(t, errors.Is(err, ErrInsufficientStock))
		assert.True(t, errors.Is(err, ErrInvalidState))
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, 3, err.Details["available"])
		assert.Equal(t, uint(7), err.Details["product_id"])
	})

	t.Run("InvalidState is not InsufficientStock", func(t *testing.T) {
		err := InvalidState("Order is already cancelled")

		assert.True(t, errors.Is(err, ErrInvalidState))
		assert.False(t, errors.Is(err, ErrInsufficientStock))
	})

	t.Run("Wrapped errors keep their kind", func(t *testing.T) {
		err := fmt.Errorf("placing order: %w", NotFound("Cart not found"))

		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("Conflict unwraps to cause", func(t *testing.T) {
		cause := errors.New("deadlock detected")
		err := Conflict(cause, "concurrent update")

		assert.True(t, errors.Is(err, ErrConflict))
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "deadlock detected")
	})
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("Product with ID %d not found", 1), http.StatusNotFound},
		{"invalid input", InvalidInput("Quantity must be greater than 0"), http.StatusBadRequest},
		{"invalid state", InvalidState("Cart is empty"), http.StatusBadRequest},
		{"insufficient stock", InsufficientStock(1, 0, "out"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("User not found"), http.StatusUnauthorized},
		{"forbidden", Forbidden("Admin access required"), http.StatusForbidden},
		{"conflict", Conflict(nil, "busy"), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
