// internal/domain/user/repository.go
package user

import (
	"context"

	"github.com/your-org/storefront/internal/pkg/pagination"
)

// ListFilter narrows admin user listings
type ListFilter struct {
	Search string
	Status string // active, inactive, all
	Role   string
}

// Repository persists users. Lookups return apperror NotFound when nothing matches.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPublicID(ctx context.Context, publicID string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter ListFilter, page pagination.Request) ([]User, int64, error)
}
