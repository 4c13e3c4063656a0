package memory

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
)

var productComparators = comparators[product.Product]{
	"id":             func(a, b *product.Product) int { return compareUint(a.ID, b.ID) },
	"name":           func(a, b *product.Product) int { return strings.Compare(a.Name, b.Name) },
	"price":          func(a, b *product.Product) int { return a.Price.Cmp(b.Price) },
	"stock_quantity": func(a, b *product.Product) int { return compareInt(a.StockQuantity, b.StockQuantity) },
	"created_at":     func(a, b *product.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// ProductRepository implements product.Repository
type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if p.StockQuantity < 0 {
		return apperror.InvalidState("create product: value out of range (chk_products_stock_non_negative)")
	}
	return r.s.write(ctx, func() error {
		p.ID = r.s.next("products")
		t := now()
		p.CreatedAt, p.UpdatedAt = t, t
		stored := *p
		stored.Category = nil
		r.s.d.products[p.ID] = stored
		return nil
	})
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	if p.StockQuantity < 0 {
		return apperror.InvalidState("update product: value out of range (chk_products_stock_non_negative)")
	}
	return r.s.write(ctx, func() error {
		if _, ok := r.s.live(p.ID); !ok {
			return apperror.NotFound("Product with ID %d not found", p.ID)
		}
		p.UpdatedAt = now()
		stored := *p
		stored.Category = nil
		r.s.d.products[p.ID] = stored
		return nil
	})
}

// Delete soft-deletes like the gorm model does
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func() error {
		p, ok := r.s.live(id)
		if !ok {
			return nil
		}
		p.DeletedAt = gorm.DeletedAt{Time: now(), Valid: true}
		r.s.d.products[id] = p
		return nil
	})
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var (
		p  product.Product
		ok bool
	)
	r.s.read(func() {
		p, ok = r.s.live(id)
		if ok {
			p.Category = r.s.category(p.CategoryID)
		}
	})
	if !ok {
		return nil, apperror.NotFound("Product with ID %d not found", id)
	}
	return &p, nil
}

// FindByIDForUpdate relies on the serialized transaction for the lock
func (r *ProductRepository) FindByIDForUpdate(ctx context.Context, id uint) (*product.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter, req pagination.Request) ([]product.Product, int64, error) {
	var rows []product.Product
	r.s.read(func() {
		for _, id := range sortedKeys(r.s.d.products) {
			p, ok := r.s.live(id)
			if !ok {
				continue
			}
			if !filter.IncludeInactive && !p.IsActive {
				continue
			}
			if filter.CategoryID > 0 && p.CategoryID != filter.CategoryID {
				continue
			}
			if filter.Keyword != "" && !containsFold(p.Name, filter.Keyword) {
				continue
			}
			p.Category = r.s.category(p.CategoryID)
			rows = append(rows, p)
		}
	})
	total := int64(len(rows))
	return page(rows, req, productComparators, "id"), total, nil
}

// AdjustStock mirrors the conditional update: deleted products are still restockable and
// a shortfall leaves the row untouched.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uint, delta int) error {
	return r.s.write(ctx, func() error {
		p, ok := r.s.d.products[id]
		if !ok {
			return apperror.NotFound("Product with ID %d not found", id)
		}
		if p.StockQuantity+delta < 0 {
			return apperror.InsufficientStock(id, p.StockQuantity,
				"Insufficient stock. Only %d units available", p.StockQuantity)
		}
		p.StockQuantity += delta
		p.UpdatedAt = now()
		r.s.d.products[id] = p
		return nil
	})
}

// live returns a product that is not soft-deleted. Callers hold the data lock.
func (s *Store) live(id uint) (product.Product, bool) {
	p, ok := s.d.products[id]
	if !ok || p.DeletedAt.Valid {
		return product.Product{}, false
	}
	return p, true
}

// category returns a copy of a category. Callers hold the data lock.
func (s *Store) category(id uint) *product.Category {
	c, ok := s.d.categories[id]
	if !ok {
		return nil
	}
	return &c
}

// CategoryRepository implements product.CategoryRepository
type CategoryRepository struct {
	s *Store
}

func (r *CategoryRepository) Create(ctx context.Context, c *product.Category) error {
	return r.s.write(ctx, func() error {
		if r.nameTaken(c.Name, 0) {
			return apperror.Conflict(nil, "create category: duplicate record")
		}
		c.ID = r.s.next("categories")
		t := now()
		c.CreatedAt, c.UpdatedAt = t, t
		r.s.d.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepository) Update(ctx context.Context, c *product.Category) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.d.categories[c.ID]; !ok {
			return apperror.NotFound("Category with ID %d not found", c.ID)
		}
		if r.nameTaken(c.Name, c.ID) {
			return apperror.Conflict(nil, "update category: duplicate record")
		}
		c.UpdatedAt = now()
		r.s.d.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepository) nameTaken(name string, except uint) bool {
	for id, c := range r.s.d.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func() error {
		delete(r.s.d.categories, id)
		return nil
	})
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*product.Category, error) {
	var c *product.Category
	r.s.read(func() { c = r.s.category(id) })
	if c == nil {
		return nil, apperror.NotFound("Category with ID %d not found", id)
	}
	return c, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*product.Category, error) {
	var found *product.Category
	r.s.read(func() {
		for _, id := range sortedKeys(r.s.d.categories) {
			if c := r.s.d.categories[id]; strings.EqualFold(c.Name, name) {
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NotFound("Category %s not found", name)
	}
	return found, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]product.Category, error) {
	var rows []product.Category
	r.s.read(func() {
		for _, c := range r.s.d.categories {
			rows = append(rows, c)
		}
	})
	return page(rows, pagination.Request{SortBy: "name", SortOrder: "asc", Page: 1}, comparators[product.Category]{
		"name": func(a, b *product.Category) int { return strings.Compare(a.Name, b.Name) },
	}, "name"), nil
}

func (r *CategoryRepository) CountProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	r.s.read(func() {
		for _, p := range r.s.d.products {
			if p.CategoryID == id && !p.DeletedAt.Valid {
				count++
			}
		}
	})
	return count, nil
}
