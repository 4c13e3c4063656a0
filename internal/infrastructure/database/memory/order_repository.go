package memory

import (
	"context"
	"strings"

	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
)

var orderComparators = comparators[order.Order]{
	"created_at":   func(a, b *order.Order) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at":   func(a, b *order.Order) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	"total_amount": func(a, b *order.Order) int { return a.TotalAmount.Cmp(b.TotalAmount) },
	"status":       func(a, b *order.Order) int { return strings.Compare(string(a.Status), string(b.Status)) },
}

// OrderRepository implements order.Repository
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, func() error {
		for _, existing := range r.s.d.orders {
			if existing.OrderNumber == o.OrderNumber {
				return apperror.Conflict(nil, "create order: duplicate record")
			}
		}
		t := now()
		o.ID = r.s.next("orders")
		o.CreatedAt, o.UpdatedAt = t, t
		for i := range o.Items {
			o.Items[i].ID = r.s.next("order_items")
			o.Items[i].OrderID = o.ID
			o.Items[i].CreatedAt = t
		}
		for i := range o.StatusHistory {
			o.StatusHistory[i].ID = r.s.next("order_status_history")
			o.StatusHistory[i].OrderID = o.ID
		}
		r.s.d.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r *OrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var found *order.Order
	r.s.read(func() {
		for _, o := range r.s.d.orders {
			if o.OrderNumber == orderNumber {
				o = r.withUser(copyOrder(o))
				found = &o
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NotFound("Order with Id %s not found", orderNumber)
	}
	return found, nil
}

// FindByNumberForUpdate relies on the serialized transaction for the lock
func (r *OrderRepository) FindByNumberForUpdate(ctx context.Context, orderNumber string) (*order.Order, error) {
	return r.FindByNumber(ctx, orderNumber)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, func() error {
		stored, ok := r.s.d.orders[o.ID]
		if !ok {
			return apperror.NotFound("Order with Id %s not found", o.OrderNumber)
		}
		stored.Status = o.Status
		stored.ConfirmedAt = o.ConfirmedAt
		stored.ShippedAt = o.ShippedAt
		stored.DeliveredAt = o.DeliveredAt
		stored.CancelledAt = o.CancelledAt
		stored.UpdatedAt = now()
		o.UpdatedAt = stored.UpdatedAt
		r.s.d.orders[o.ID] = stored
		return nil
	})
}

func (r *OrderRepository) AddHistory(ctx context.Context, h *order.OrderStatusHistory) error {
	return r.s.write(ctx, func() error {
		stored, ok := r.s.d.orders[h.OrderID]
		if !ok {
			return apperror.NotFound("Order with ID %d not found", h.OrderID)
		}
		h.ID = r.s.next("order_status_history")
		if h.CreatedAt.IsZero() {
			h.CreatedAt = now()
		}
		stored.StatusHistory = append(stored.StatusHistory, *h)
		r.s.d.orders[h.OrderID] = stored
		return nil
	})
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]order.Order, error) {
	var rows []order.Order
	r.s.read(func() {
		for _, id := range sortedKeys(r.s.d.orders) {
			if o := r.s.d.orders[id]; o.UserID == userID {
				rows = append(rows, r.withUser(copyOrder(o)))
			}
		}
	})
	// newest first; ids break creation-time ties
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter, req pagination.Request) ([]order.Order, int64, error) {
	var rows []order.Order
	r.s.read(func() {
		for _, id := range sortedKeys(r.s.d.orders) {
			o := r.s.d.orders[id]
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			rows = append(rows, r.withUser(copyOrder(o)))
		}
	})
	total := int64(len(rows))
	return page(rows, req, orderComparators, "created_at"), total, nil
}

// withUser attaches the owner. Callers hold the data lock.
func (r *OrderRepository) withUser(o order.Order) order.Order {
	if u, ok := r.s.d.users[o.UserID]; ok {
		o.User = &u
	}
	return o
}
