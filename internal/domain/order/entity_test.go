package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/storefront/internal/domain/order"
)

func TestOrder_CanBeCancelled(t *testing.T) {
	tests := []struct {
		status order.OrderStatus
		want   bool
	}{
		{order.OrderStatusPending, true},
		{order.OrderStatusConfirmed, true},
		{order.OrderStatusProcessing, true},
		{order.OrderStatusShipped, false},
		{order.OrderStatusDelivered, false},
		{order.OrderStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := &order.Order{Status: tt.status}
			assert.Equal(t, tt.want, o.CanBeCancelled())
		})
	}
}
