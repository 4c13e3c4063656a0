// internal/domain/order/repository.go
package order

import (
	"context"

	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/pkg/pagination"
)

// ListFilter narrows admin order listings
type ListFilter struct {
	Status OrderStatus
}

// Repository persists orders. Lookups return apperror NotFound when nothing matches
// and load User, Items and StatusHistory.
type Repository interface {
	// Create inserts the order with its items and status history
	Create(ctx context.Context, o *Order) error
	FindByNumber(ctx context.Context, orderNumber string) (*Order, error)
	// FindByNumberForUpdate locks the order row for the rest of the transaction
	FindByNumberForUpdate(ctx context.Context, orderNumber string) (*Order, error)
	// UpdateStatus writes the status and lifecycle timestamps of o
	UpdateStatus(ctx context.Context, o *Order) error
	AddHistory(ctx context.Context, h *OrderStatusHistory) error
	// ListByUser returns a user's orders, newest first
	ListByUser(ctx context.Context, userID uint) ([]Order, error)
	List(ctx context.Context, filter ListFilter, page pagination.Request) ([]Order, int64, error)
}

// Inventory reads products and moves their stock through the conditional update primitive
type Inventory interface {
	FindByID(ctx context.Context, id uint) (*product.Product, error)
	AdjustStock(ctx context.Context, id uint, delta int) error
}
