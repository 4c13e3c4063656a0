package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

// CartRepository implements cart.Repository
type CartRepository struct {
	s *Store
}

func (r *CartRepository) GetOrCreateForUpdate(ctx context.Context, userID uint) (*cart.Cart, error) {
	var c cart.Cart
	err := r.s.write(ctx, func() error {
		if existing, ok := r.byUser(userID); ok {
			c = existing
			return nil
		}
		t := now()
		c = cart.Cart{
			ID:          r.s.next("carts"),
			UserID:      userID,
			TotalAmount: decimal.Zero,
			CreatedAt:   t,
			UpdatedAt:   t,
		}
		r.s.d.carts[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) FindByUserIDForUpdate(ctx context.Context, userID uint) (*cart.Cart, error) {
	var (
		c  cart.Cart
		ok bool
	)
	r.s.read(func() { c, ok = r.byUser(userID) })
	if !ok {
		return nil, apperror.NotFound("Cart not found")
	}
	return &c, nil
}

func (r *CartRepository) byUser(userID uint) (cart.Cart, bool) {
	for _, c := range r.s.d.carts {
		if c.UserID == userID {
			return c, true
		}
	}
	return cart.Cart{}, false
}

func (r *CartRepository) UpdateTotal(ctx context.Context, cartID uint, total decimal.Decimal) error {
	return r.s.write(ctx, func() error {
		c, ok := r.s.d.carts[cartID]
		if !ok {
			return apperror.NotFound("Cart not found")
		}
		c.TotalAmount = total
		c.UpdatedAt = now()
		r.s.d.carts[cartID] = c
		return nil
	})
}

func (r *CartRepository) ListItems(ctx context.Context, cartID uint) ([]cart.CartItem, error) {
	items := []cart.CartItem{}
	r.s.read(func() {
		for _, id := range sortedKeys(r.s.d.cartItems) {
			item := r.s.d.cartItems[id]
			if item.CartID != cartID {
				continue
			}
			if p, ok := r.s.d.products[item.ProductID]; ok {
				item.Product = &p
			}
			items = append(items, item)
		}
	})
	return items, nil
}

func (r *CartRepository) FindItem(ctx context.Context, itemID uint) (*cart.CartItem, error) {
	var (
		item cart.CartItem
		ok   bool
	)
	r.s.read(func() { item, ok = r.s.d.cartItems[itemID] })
	if !ok {
		return nil, apperror.NotFound("Cart item with ID %d not found", itemID)
	}
	return &item, nil
}

func (r *CartRepository) FindItemByProduct(ctx context.Context, cartID, productID uint) (*cart.CartItem, error) {
	var found *cart.CartItem
	r.s.read(func() {
		for _, item := range r.s.d.cartItems {
			if item.CartID == cartID && item.ProductID == productID {
				item := item
				found = &item
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NotFound("Product with ID %d is not in the cart", productID)
	}
	return found, nil
}

func (r *CartRepository) CreateItem(ctx context.Context, item *cart.CartItem) error {
	if item.Quantity < 1 {
		return apperror.InvalidState("create cart item: value out of range (chk_cart_items_quantity_positive)")
	}
	return r.s.write(ctx, func() error {
		for _, existing := range r.s.d.cartItems {
			if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
				return apperror.Conflict(nil, "create cart item: duplicate record")
			}
		}
		item.ID = r.s.next("cart_items")
		t := now()
		item.CreatedAt, item.UpdatedAt = t, t
		stored := *item
		stored.Product = nil
		r.s.d.cartItems[item.ID] = stored
		return nil
	})
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	if quantity < 1 {
		return apperror.InvalidState("update cart item: value out of range (chk_cart_items_quantity_positive)")
	}
	return r.s.write(ctx, func() error {
		item, ok := r.s.d.cartItems[itemID]
		if !ok {
			return apperror.NotFound("Cart item with ID %d not found", itemID)
		}
		item.Quantity = quantity
		item.UpdatedAt = now()
		r.s.d.cartItems[itemID] = item
		return nil
	})
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	return r.s.write(ctx, func() error {
		delete(r.s.d.cartItems, itemID)
		return nil
	})
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return r.s.write(ctx, func() error {
		for id, item := range r.s.d.cartItems {
			if item.CartID == cartID {
				delete(r.s.d.cartItems, id)
			}
		}
		return nil
	})
}
