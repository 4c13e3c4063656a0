// internal/infrastructure/database/postgres/cart_repository.go
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

// CartRepository is the gorm implementation of cart.Repository
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a cart repository
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetOrCreateForUpdate relies on the unique user_id index: concurrent first accesses
// race on an INSERT .. ON CONFLICT DO NOTHING and all of them then lock the one row.
func (r *CartRepository) GetOrCreateForUpdate(ctx context.Context, userID uint) (*cart.Cart, error) {
	db := conn(ctx, r.db)

	c, err := r.lockByUser(db, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(err, "lock cart")
	}

	fresh := cart.Cart{UserID: userID, TotalAmount: decimal.Zero}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit("Items").Create(&fresh).Error
	if err != nil {
		return nil, translate(err, "create cart")
	}

	c, err = r.lockByUser(db, userID)
	if err != nil {
		return nil, translate(err, "lock cart")
	}
	return c, nil
}

func (r *CartRepository) FindByUserIDForUpdate(ctx context.Context, userID uint) (*cart.Cart, error) {
	c, err := r.lockByUser(conn(ctx, r.db), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Cart not found")
	}
	if err != nil {
		return nil, translate(err, "lock cart")
	}
	return c, nil
}

func (r *CartRepository) lockByUser(db *gorm.DB, userID uint) (*cart.Cart, error) {
	var c cart.Cart
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) UpdateTotal(ctx context.Context, cartID uint, total decimal.Decimal) error {
	err := conn(ctx, r.db).Model(&cart.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"total_amount": total,
			"updated_at":   time.Now().UTC(),
		}).Error
	return translate(err, "update cart total")
}

func (r *CartRepository) ListItems(ctx context.Context, cartID uint) ([]cart.CartItem, error) {
	var items []cart.CartItem
	err := conn(ctx, r.db).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, translate(err, "list cart items")
	}
	return items, nil
}

func (r *CartRepository) FindItem(ctx context.Context, itemID uint) (*cart.CartItem, error) {
	var item cart.CartItem
	err := conn(ctx, r.db).Take(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Cart item with ID %d not found", itemID)
	}
	if err != nil {
		return nil, translate(err, "find cart item")
	}
	return &item, nil
}

func (r *CartRepository) FindItemByProduct(ctx context.Context, cartID, productID uint) (*cart.CartItem, error) {
	var item cart.CartItem
	err := conn(ctx, r.db).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Product with ID %d is not in the cart", productID)
	}
	if err != nil {
		return nil, translate(err, "find cart item")
	}
	return &item, nil
}

func (r *CartRepository) CreateItem(ctx context.Context, item *cart.CartItem) error {
	return translate(conn(ctx, r.db).Omit("Product").Create(item).Error, "create cart item")
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	err := conn(ctx, r.db).Model(&cart.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		}).Error
	return translate(err, "update cart item")
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	return translate(conn(ctx, r.db).Delete(&cart.CartItem{}, itemID).Error, "delete cart item")
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return translate(conn(ctx, r.db).Where("cart_id = ?", cartID).Delete(&cart.CartItem{}).Error, "clear cart")
}
