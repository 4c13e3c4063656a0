// Package memory keeps every repository in process. Transactions are serialized and
// roll back by restoring a snapshot, which gives the engines the same all-or-nothing
// behaviour they get from Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

type txKey struct{}

type data struct {
	users      map[uint]user.User
	categories map[uint]product.Category
	products   map[uint]product.Product
	carts      map[uint]cart.Cart
	cartItems  map[uint]cart.CartItem
	orders     map[uint]order.Order
	seq        map[string]uint
}

func newData() data {
	return data{
		users:      map[uint]user.User{},
		categories: map[uint]product.Category{},
		products:   map[uint]product.Product{},
		carts:      map[uint]cart.Cart{},
		cartItems:  map[uint]cart.CartItem{},
		orders:     map[uint]order.Order{},
		seq:        map[string]uint{},
	}
}

func (d data) clone() data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = v
	}
	for k, v := range d.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

// Store implements the user, product, category, cart and order repositories and
// txn.Transactor on top of maps.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	d    data

	conflicts int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{d: newData()}
}

// InjectConflicts makes the next n transactions roll back with apperror Conflict after
// their work ran, the way a serialization failure surfaces at commit.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// WithinTransaction runs fn with exclusive access to the store. Nested calls join the
// open transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.d.clone()
	s.mu.RUnlock()

	err := fn(context.WithValue(ctx, txKey{}, true))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && s.conflicts > 0 {
		s.conflicts--
		err = apperror.Conflict(nil, "transaction: concurrent update, please retry")
	}
	if err != nil {
		s.d = snapshot
	}
	return err
}

// write applies fn under the data lock. Writes made outside a transaction also take the
// transaction lock so a concurrent rollback cannot discard them.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if _, ok := ctx.Value(txKey{}).(bool); !ok {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// Users returns the user repository
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Products returns the product repository
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Categories returns the category repository
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Carts returns the cart repository
func (s *Store) Carts() *CartRepository { return &CartRepository{s: s} }

// Orders returns the order repository
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

func (s *Store) next(table string) uint {
	s.d.seq[table]++
	return s.d.seq[table]
}

func now() time.Time {
	return time.Now().UTC()
}

func copyOrder(o order.Order) order.Order {
	o.Items = append([]order.OrderItem(nil), o.Items...)
	o.StatusHistory = append([]order.OrderStatusHistory(nil), o.StatusHistory...)
	o.User = nil
	return o
}
