// internal/infrastructure/database/postgres/user_repository.go
package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
)

var userSortFields = map[string]string{
	"created_at": "created_at",
	"email":      "email",
	"last_name":  "last_name",
	"id":         "id",
}

// UserRepository is the gorm implementation of user.Repository
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return translate(conn(ctx, r.db).Create(u).Error, "create user")
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return translate(conn(ctx, r.db).Save(u).Error, "update user")
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	return r.findOne(ctx, "id = ?", id, "User with ID %d not found")
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(email), "User with email %s not found")
}

func (r *UserRepository) FindByPublicID(ctx context.Context, publicID string) (*user.User, error) {
	return r.findOne(ctx, "public_id = ?", publicID, "User with ID %s not found")
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}, notFound string) (*user.User, error) {
	var u user.User
	err := conn(ctx, r.db).Where(where, arg).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound(notFound, arg)
	}
	if err != nil {
		return nil, translate(err, "find user")
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&user.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error
	if err != nil {
		return false, translate(err, "count users")
	}
	return count > 0, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter, page pagination.Request) ([]user.User, int64, error) {
	query := conn(ctx, r.db).Model(&user.User{})

	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", term, term, term)
	}
	switch filter.Status {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}
	if filter.Role != "" && !strings.EqualFold(filter.Role, "all") {
		query = query.Where("role = ?", strings.ToUpper(filter.Role))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count users")
	}

	var users []user.User
	err := query.Order(page.OrderClause(userSortFields, "created_at")).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err, "list users")
	}
	return users, total, nil
}
