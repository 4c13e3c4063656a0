// internal/infrastructure/database/postgres/order_repository.go
package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
)

// OrderRepository is the gorm implementation of order.Repository
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return translate(conn(ctx, r.db).Omit("User").Create(o).Error, "create order")
}

func (r *OrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	err := withDetails(conn(ctx, r.db)).Where("order_number = ?", orderNumber).Take(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Order with Id %s not found", orderNumber)
	}
	if err != nil {
		return nil, translate(err, "find order")
	}
	return &o, nil
}

// FindByNumberForUpdate locks the order row first, then loads its details in a
// separate query so the lock clause stays off the preloads.
func (r *OrderRepository) FindByNumberForUpdate(ctx context.Context, orderNumber string) (*order.Order, error) {
	db := conn(ctx, r.db)

	var locked order.Order
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("order_number = ?", orderNumber).
		Take(&locked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Order with Id %s not found", orderNumber)
	}
	if err != nil {
		return nil, translate(err, "lock order")
	}

	var o order.Order
	if err := withDetails(db).Take(&o, locked.ID).Error; err != nil {
		return nil, translate(err, "load order")
	}
	return &o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	err := conn(ctx, r.db).Model(&order.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"status":       o.Status,
			"confirmed_at": o.ConfirmedAt,
			"shipped_at":   o.ShippedAt,
			"delivered_at": o.DeliveredAt,
			"cancelled_at": o.CancelledAt,
			"updated_at":   time.Now().UTC(),
		}).Error
	return translate(err, "update order status")
}

func (r *OrderRepository) AddHistory(ctx context.Context, h *order.OrderStatusHistory) error {
	return translate(conn(ctx, r.db).Create(h).Error, "add order history")
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]order.Order, error) {
	var orders []order.Order
	err := withDetails(conn(ctx, r.db)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err, "list user orders")
	}
	return orders, nil
}

func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter, page pagination.Request) ([]order.Order, int64, error) {
	query := conn(ctx, r.db).Model(&order.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count orders")
	}

	var orders []order.Order
	err := withDetails(query).
		Order(page.OrderClause(order.SortColumns(), "created_at")).
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, translate(err, "list orders")
	}
	return orders, total, nil
}
