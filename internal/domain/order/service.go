// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
	"github.com/your-org/storefront/internal/pkg/txn"
)

const maxShippingAddressLength = 500

// Service handles cart to order conversion and the order lifecycle
type Service struct {
	repo      Repository
	carts     cart.Repository
	inventory Inventory
	runner    *txn.Runner
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a new order service
func NewService(repo Repository, carts cart.Repository, inventory Inventory, runner *txn.Runner, log logrus.FieldLogger) *Service {
	return &Service{
		repo:      repo,
		carts:     carts,
		inventory: inventory,
		runner:    runner,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrderRequest represents order placement data
type PlaceOrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment" binding:"max=500"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	pagination.Request
	Status string `form:"status"`
}

// OrderItemResponse represents an order line
type OrderItemResponse struct {
	OrderItemID uint            `json:"order_item_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse is the order view returned by every operation
type OrderResponse struct {
	OrderID         string               `json:"order_id"`
	UserID          string               `json:"user_id"`
	UserEmail       string               `json:"user_email"`
	UserName        string               `json:"user_name"`
	Status          OrderStatus          `json:"status"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	ShippingAddress string               `json:"shipping_address"`
	Items           []OrderItemResponse  `json:"items"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// OrderListResponse represents order list with pagination
type OrderListResponse struct {
	Orders     []*OrderResponse      `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// PlaceOrder converts the caller's cart into a PENDING order. Stock for every line is
// taken through the conditional decrement, so either every line is reserved and the
// cart emptied or nothing changes.
func (s *Service) PlaceOrder(ctx context.Context, caller user.Identity, req *PlaceOrderRequest) (*OrderResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return nil, apperror.InvalidInput("Shipping address is required")
	}
	if len(address) > maxShippingAddressLength {
		return nil, apperror.InvalidInput("Shipping address must not exceed %d characters", maxShippingAddressLength)
	}

	var placed *Order
	err := s.runner.Run(ctx, "place_order", func(ctx context.Context) error {
		c, err := s.carts.GetOrCreateForUpdate(ctx, caller.UserID)
		if err != nil {
			return err
		}
		lines, err := s.carts.ListItems(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperror.InvalidState("Cannot place order. Cart is empty")
		}

		names, err := s.reserveStock(ctx, lines)
		if err != nil {
			return err
		}

		now := s.now()
		o := &Order{
			OrderNumber:     "ORD-" + uuid.NewString(),
			UserID:          caller.UserID,
			Status:          OrderStatusPending,
			ShippingAddress: address,
			Items:           make([]OrderItem, 0, len(lines)),
		}
		total := decimal.Zero
		for i := range lines {
			line := &lines[i]
			item := OrderItem{
				ProductID:   line.ProductID,
				ProductName: names[line.ProductID],
				Quantity:    line.Quantity,
				Price:       line.Price,
			}
			total = total.Add(item.Subtotal())
			o.Items = append(o.Items, item)
		}
		o.TotalAmount = total
		o.AddStatusHistory(OrderStatusPending, "Order placed", caller.UserID, now)

		if err := s.repo.Create(ctx, o); err != nil {
			return err
		}

		if err := s.carts.ClearItems(ctx, c.ID); err != nil {
			return err
		}
		if err := s.carts.UpdateTotal(ctx, c.ID, decimal.Zero); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     placed.OrderNumber,
		"user_id":      caller.PublicID,
		"total_amount": placed.TotalAmount.StringFixed(2),
		"items":        len(placed.Items),
	}).Info("Order placed")

	return s.toResponse(placed, caller), nil
}

// reserveStock decrements stock for every cart line in ascending product id order so
// concurrent placements lock product rows in the same sequence. It returns product
// names keyed by id for the item snapshots.
func (s *Service) reserveStock(ctx context.Context, lines []cart.CartItem) (map[uint]string, error) {
	ordered := make([]cart.CartItem, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	names := make(map[uint]string, len(ordered))
	for i := range ordered {
		line := &ordered[i]
		p, err := s.inventory.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, apperror.InvalidState("Product %s is no longer available", p.Name)
		}
		if !p.IsInStock(line.Quantity) {
			return nil, apperror.InsufficientStock(p.ID, p.StockQuantity,
				"Insufficient stock for %s. Only %d units available", p.Name, p.StockQuantity)
		}

		if err := s.inventory.AdjustStock(ctx, p.ID, -line.Quantity); err != nil {
			var stockErr *apperror.Error
			if errors.As(err, &stockErr) && stockErr.Kind == apperror.KindInsufficientStock {
				available, _ := stockErr.Details["available"].(int)
				return nil, apperror.InsufficientStock(p.ID, available,
					"Insufficient stock for %s. Only %d units available", p.Name, available)
			}
			return nil, err
		}
		names[p.ID] = p.Name
	}
	return names, nil
}

// CancelOrder cancels an order of the caller, or any order for an admin, restoring stock
func (s *Service) CancelOrder(ctx context.Context, caller user.Identity, orderNumber string) (*OrderResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	var cancelled *Order
	err := s.runner.Run(ctx, "cancel_order", func(ctx context.Context) error {
		o, err := s.repo.FindByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		if !o.IsOwnedBy(caller) && !caller.IsAdmin() {
			return apperror.InvalidState("Permission denied to cancel this order")
		}

		comment := "Order cancelled by customer"
		if caller.IsAdmin() && !o.IsOwnedBy(caller) {
			comment = "Order cancelled by administrator"
		}
		if err := s.cancel(ctx, o, caller, comment); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": cancelled.OrderNumber,
		"by":       caller.PublicID,
	}).Info("Order cancelled")

	return s.toResponse(cancelled, caller), nil
}

// cancel restores stock for every line and marks the order CANCELLED. o must be locked.
func (s *Service) cancel(ctx context.Context, o *Order, caller user.Identity, comment string) error {
	if !o.CanBeCancelled() {
		if o.Status == OrderStatusCancelled {
			return apperror.InvalidState("Order is already cancelled")
		}
		return apperror.InvalidState("Cannot cancel order that has been shipped or delivered")
	}

	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	for i := range items {
		if err := s.inventory.AdjustStock(ctx, items[i].ProductID, items[i].Quantity); err != nil {
			return err
		}
	}

	return s.transition(ctx, o, OrderStatusCancelled, comment, caller)
}

// UpdateOrderStatus moves a non-terminal order to any status. CANCELLED goes through
// the cancellation path so stock is restored.
func (s *Service) UpdateOrderStatus(ctx context.Context, caller user.Identity, orderNumber string, req *UpdateStatusRequest) (*OrderResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	var updated *Order
	err := s.runner.Run(ctx, "update_order_status", func(ctx context.Context) error {
		o, err := s.repo.FindByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}

		if o.Status.IsTerminal() {
			return apperror.InvalidState("Cannot update status of %s order", strings.ToLower(string(o.Status)))
		}
		status, ok := ParseStatus(req.Status)
		if !ok {
			return apperror.InvalidInput("Invalid status. Valid values : %s", validStatusList())
		}

		comment := req.Comment
		if comment == "" {
			comment = "Status changed from " + string(o.Status) + " to " + string(status)
		}

		if status == OrderStatusCancelled {
			err = s.cancel(ctx, o, caller, comment)
		} else {
			err = s.transition(ctx, o, status, comment, caller)
		}
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": updated.OrderNumber,
		"status":   updated.Status,
		"by":       caller.PublicID,
	}).Info("Order status updated")

	return s.toResponse(updated, caller), nil
}

func (s *Service) transition(ctx context.Context, o *Order, status OrderStatus, comment string, caller user.Identity) error {
	now := s.now()
	o.TransitionTo(status, now)
	if err := s.repo.UpdateStatus(ctx, o); err != nil {
		return err
	}
	history := o.AddStatusHistory(status, comment, caller.UserID, now)
	return s.repo.AddHistory(ctx, &history)
}

// GetOrderByID returns one order to its owner or an admin
func (s *Service) GetOrderByID(ctx context.Context, caller user.Identity, orderNumber string) (*OrderResponse, error) {
	o, err := s.GetOrder(ctx, caller, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.toResponse(o, caller), nil
}

// GetOrder loads an order entity with the same visibility rule as GetOrderByID
func (s *Service) GetOrder(ctx context.Context, caller user.Identity, orderNumber string) (*Order, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	o, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(caller) && !caller.IsAdmin() {
		return nil, apperror.InvalidState("Permission denied to view this order")
	}
	return o, nil
}

// GetOrdersByUser lists the caller's own orders, newest first
func (s *Service) GetOrdersByUser(ctx context.Context, caller user.Identity) ([]*OrderResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	resp := make([]*OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, s.toResponse(&orders[i], caller))
	}
	return resp, nil
}

var orderSortFields = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"total_amount": "total_amount",
	"status":       "status",
}

// SortColumns exposes the columns order listings may order by
func SortColumns() map[string]string {
	return orderSortFields
}

// ListOrders is the admin listing across all users
func (s *Service) ListOrders(ctx context.Context, req *OrderListRequest) (*OrderListResponse, error) {
	filter := ListFilter{}
	if req.Status != "" {
		status, ok := ParseStatus(req.Status)
		if !ok {
			return nil, apperror.InvalidInput("Invalid status. Valid values : %s", validStatusList())
		}
		filter.Status = status
	}

	page := req.Request.Normalize()
	if _, ok := orderSortFields[page.SortBy]; !ok {
		page.SortBy = "created_at"
	}

	orders, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	resp := &OrderListResponse{
		Orders:     make([]*OrderResponse, 0, len(orders)),
		Pagination: pagination.New(page, total),
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, s.toResponse(&orders[i], user.Identity{}))
	}
	return resp, nil
}

// toResponse builds the order view. Owner details come from the loaded User and fall
// back to the caller when the relation was not loaded.
func (s *Service) toResponse(o *Order, caller user.Identity) *OrderResponse {
	resp := &OrderResponse{
		OrderID:         o.OrderNumber,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Items:           make([]OrderItemResponse, 0, len(o.Items)),
		StatusHistory:   o.StatusHistory,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	switch {
	case o.User != nil:
		resp.UserID = o.User.ExternalID()
		resp.UserEmail = o.User.Email
		resp.UserName = o.User.GetFullName()
	case o.IsOwnedBy(caller):
		resp.UserID = caller.PublicID
		resp.UserEmail = caller.Email
	}
	for i := range o.Items {
		item := &o.Items[i]
		resp.Items = append(resp.Items, OrderItemResponse{
			OrderItemID: item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		})
	}
	return resp
}
