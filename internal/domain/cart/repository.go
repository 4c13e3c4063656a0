// internal/domain/cart/repository.go
package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/your-org/storefront/internal/domain/product"
)

// Repository persists carts and their lines. Every method must run inside the transaction
// carried by ctx for the row locks to hold until commit.
type Repository interface {
	// GetOrCreateForUpdate returns the user's cart, inserting an empty one when missing,
	// and locks it for the rest of the transaction.
	GetOrCreateForUpdate(ctx context.Context, userID uint) (*Cart, error)
	// FindByUserIDForUpdate locks an existing cart; apperror NotFound when the user has none.
	FindByUserIDForUpdate(ctx context.Context, userID uint) (*Cart, error)
	UpdateTotal(ctx context.Context, cartID uint, total decimal.Decimal) error

	// ListItems returns the lines of a cart in insertion order with Product loaded
	ListItems(ctx context.Context, cartID uint) ([]CartItem, error)
	FindItem(ctx context.Context, itemID uint) (*CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uint) (*CartItem, error)
	CreateItem(ctx context.Context, item *CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error
	DeleteItem(ctx context.Context, itemID uint) error
	ClearItems(ctx context.Context, cartID uint) error
}

// Catalog resolves products for cart mutations
type Catalog interface {
	FindByID(ctx context.Context, id uint) (*product.Product, error)
}
