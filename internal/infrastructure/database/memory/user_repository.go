package memory

import (
	"context"
	"strings"

	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
)

var userComparators = comparators[user.User]{
	"id":         func(a, b *user.User) int { return compareUint(a.ID, b.ID) },
	"email":      func(a, b *user.User) int { return strings.Compare(a.Email, b.Email) },
	"last_name":  func(a, b *user.User) int { return strings.Compare(a.LastName, b.LastName) },
	"created_at": func(a, b *user.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// UserRepository implements user.Repository
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	u.Normalize()
	return r.s.write(ctx, func() error {
		for _, existing := range r.s.d.users {
			if existing.Email == u.Email {
				return apperror.Conflict(nil, "create user: duplicate record")
			}
		}
		u.ID = r.s.next("users")
		t := now()
		u.CreatedAt, u.UpdatedAt = t, t
		r.s.d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.d.users[u.ID]; !ok {
			return apperror.NotFound("User with ID %d not found", u.ID)
		}
		u.UpdatedAt = now()
		r.s.d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	return r.findOne(func(u *user.User) bool { return u.ID == id }, "User with ID %d not found", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(email)
	return r.findOne(func(u *user.User) bool { return u.Email == email }, "User with email %s not found", email)
}

func (r *UserRepository) FindByPublicID(ctx context.Context, publicID string) (*user.User, error) {
	return r.findOne(func(u *user.User) bool {
		return u.PublicID != nil && *u.PublicID == publicID
	}, "User with ID %s not found", publicID)
}

func (r *UserRepository) findOne(match func(u *user.User) bool, notFound string, arg interface{}) (*user.User, error) {
	var found *user.User
	r.s.read(func() {
		for _, u := range r.s.d.users {
			if match(&u) {
				u := u
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NotFound(notFound, arg)
	}
	return found, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter, req pagination.Request) ([]user.User, int64, error) {
	var rows []user.User
	r.s.read(func() {
		for _, id := range sortedKeys(r.s.d.users) {
			u := r.s.d.users[id]
			if filter.Search != "" &&
				!containsFold(u.Email, filter.Search) &&
				!containsFold(u.FirstName, filter.Search) &&
				!containsFold(u.LastName, filter.Search) {
				continue
			}
			if filter.Status == "active" && !u.IsActive || filter.Status == "inactive" && u.IsActive {
				continue
			}
			if filter.Role != "" && !strings.EqualFold(filter.Role, "all") && !strings.EqualFold(filter.Role, u.Role) {
				continue
			}
			rows = append(rows, u)
		}
	})
	total := int64(len(rows))
	return page(rows, req, userComparators, "created_at"), total, nil
}
