// internal/domain/product/repository.go
package product

import (
	"context"

	"github.com/your-org/storefront/internal/pkg/pagination"
)

// ListFilter narrows product listings
type ListFilter struct {
	CategoryID      uint
	Keyword         string
	IncludeInactive bool
}

// Repository persists products. Lookups return apperror NotFound when nothing matches.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	// FindByIDForUpdate locks the product row for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uint) (*Product, error)
	List(ctx context.Context, filter ListFilter, page pagination.Request) ([]Product, int64, error)

	// AdjustStock adds delta to the stock of a product in one conditional write.
	// It never drives stock below zero: a shortfall fails with apperror InsufficientStock
	// carrying the units still available, and a missing product with NotFound.
	AdjustStock(ctx context.Context, id uint, delta int) error
}

// CategoryRepository persists categories
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	CountProducts(ctx context.Context, id uint) (int64, error)
}
