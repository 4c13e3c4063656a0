// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/txn"
)

// Service handles cart business logic. Every operation locks the caller's cart row
// for its whole transaction so concurrent mutations of one cart serialize.
type Service struct {
	repo    Repository
	catalog Catalog
	runner  *txn.Runner
	log     logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(repo Repository, catalog Catalog, runner *txn.Runner, log logrus.FieldLogger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		runner:  runner,
		log:     log,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartItemResponse represents a cart line with product details
type CartItemResponse struct {
	CartItemID  uint            `json:"cart_item_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartResponse represents a shopping cart with items and totals
type CartResponse struct {
	CartID      uint               `json:"cart_id"`
	UserID      string             `json:"user_id"`
	Items       []CartItemResponse `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	TotalItems  int                `json:"total_items"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// GetCart returns the caller's cart, creating an empty one on first access
func (s *Service) GetCart(ctx context.Context, caller user.Identity) (*CartResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	var resp *CartResponse
	err := s.runner.Run(ctx, "get_cart", func(ctx context.Context) error {
		c, err := s.repo.GetOrCreateForUpdate(ctx, caller.UserID)
		if err != nil {
			return err
		}
		resp, err = s.refresh(ctx, caller, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AddToCart adds quantity units of a product, merging into an existing line for that product
func (s *Service) AddToCart(ctx context.Context, caller user.Identity, req *AddToCartRequest) (*CartResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	if err := validateQuantity(req.Quantity); err != nil {
		return nil, err
	}

	var resp *CartResponse
	err := s.runner.Run(ctx, "add_to_cart", func(ctx context.Context) error {
		p, err := s.catalog.FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apperror.InvalidState("Product is not available")
		}
		if !p.IsInStock(req.Quantity) {
			return apperror.InsufficientStock(p.ID, p.StockQuantity,
				"Insufficient stock. Only %d units available", p.StockQuantity)
		}

		c, err := s.repo.GetOrCreateForUpdate(ctx, caller.UserID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindItemByProduct(ctx, c.ID, p.ID)
		switch {
		case err == nil:
			newQuantity := existing.Quantity + req.Quantity
			if !p.IsInStock(newQuantity) {
				remaining := p.StockQuantity - existing.Quantity
				if remaining < 0 {
					remaining = 0
				}
				return apperror.InsufficientStock(p.ID, remaining,
					"Cannot add %d more. Only %d units available", req.Quantity, remaining)
			}
			if err := s.repo.UpdateItemQuantity(ctx, existing.ID, newQuantity); err != nil {
				return err
			}
		case errors.Is(err, apperror.ErrNotFound):
			item := &CartItem{
				CartID:    c.ID,
				ProductID: p.ID,
				Quantity:  req.Quantity,
				Price:     p.Price,
			}
			if err := s.repo.CreateItem(ctx, item); err != nil {
				return err
			}
		default:
			return err
		}

		resp, err = s.refresh(ctx, caller, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    caller.PublicID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	}).Debug("Product added to cart")

	return resp, nil
}

// UpdateCartItem sets the quantity of a line in the caller's cart
func (s *Service) UpdateCartItem(ctx context.Context, caller user.Identity, cartItemID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	if err := validateQuantity(req.Quantity); err != nil {
		return nil, err
	}

	var resp *CartResponse
	err := s.runner.Run(ctx, "update_cart_item", func(ctx context.Context) error {
		c, item, err := s.ownedItem(ctx, caller, cartItemID)
		if err != nil {
			return err
		}

		p, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !p.IsInStock(req.Quantity) {
			return apperror.InsufficientStock(p.ID, p.StockQuantity,
				"Insufficient stock. Only %d units available", p.StockQuantity)
		}

		if err := s.repo.UpdateItemQuantity(ctx, item.ID, req.Quantity); err != nil {
			return err
		}
		resp, err = s.refresh(ctx, caller, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RemoveCartItem deletes a line from the caller's cart
func (s *Service) RemoveCartItem(ctx context.Context, caller user.Identity, cartItemID uint) (*CartResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	var resp *CartResponse
	err := s.runner.Run(ctx, "remove_cart_item", func(ctx context.Context) error {
		c, item, err := s.ownedItem(ctx, caller, cartItemID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		resp, err = s.refresh(ctx, caller, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ClearCart removes every line and zeroes the total
func (s *Service) ClearCart(ctx context.Context, caller user.Identity) (*CartResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	var resp *CartResponse
	err := s.runner.Run(ctx, "clear_cart", func(ctx context.Context) error {
		c, err := s.repo.GetOrCreateForUpdate(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if err := s.repo.ClearItems(ctx, c.ID); err != nil {
			return err
		}
		resp, err = s.refresh(ctx, caller, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ownedItem locks the caller's cart and loads a line, checking it belongs to that cart
func (s *Service) ownedItem(ctx context.Context, caller user.Identity, cartItemID uint) (*Cart, *CartItem, error) {
	c, err := s.repo.FindByUserIDForUpdate(ctx, caller.UserID)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.repo.FindItem(ctx, cartItemID)
	if err != nil {
		return nil, nil, err
	}
	if item.CartID != c.ID {
		return nil, nil, apperror.InvalidState("Cart item does not belong to this user")
	}
	return c, item, nil
}

// refresh recomputes the total from the persisted lines, stores it when it moved
// and builds the cart view
func (s *Service) refresh(ctx context.Context, caller user.Identity, c *Cart) (*CartResponse, error) {
	items, err := s.repo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	total := ComputeTotal(items)
	if !total.Equal(c.TotalAmount) {
		if err := s.repo.UpdateTotal(ctx, c.ID, total); err != nil {
			return nil, err
		}
		c.TotalAmount = total
	}
	c.Items = items

	return toResponse(caller, c), nil
}

func toResponse(caller user.Identity, c *Cart) *CartResponse {
	resp := &CartResponse{
		CartID:      c.ID,
		UserID:      caller.PublicID,
		Items:       make([]CartItemResponse, 0, len(c.Items)),
		TotalAmount: c.TotalAmount,
		TotalItems:  len(c.Items),
		UpdatedAt:   c.UpdatedAt,
	}
	for i := range c.Items {
		item := &c.Items[i]
		line := CartItemResponse{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Subtotal:   item.Subtotal(),
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.ImageURL = item.Product.ImageURL
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return apperror.InvalidInput("Quantity must be greater than 0")
	}
	return nil
}
