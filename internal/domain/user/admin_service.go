// internal/domain/user/admin_service.go
package user

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
	"github.com/your-org/storefront/internal/pkg/txn"
)

// AdminService handles admin user management operations
type AdminService struct {
	repo   Repository
	runner *txn.Runner
	log    logrus.FieldLogger
}

// NewAdminService creates a new admin user service
func NewAdminService(repo Repository, runner *txn.Runner, log logrus.FieldLogger) *AdminService {
	return &AdminService{
		repo:   repo,
		runner: runner,
		log:    log,
	}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	pagination.Request
	Search string `form:"search"`
	Status string `form:"status"` // active, inactive, all
	Role   string `form:"role"`
}

// UserListResponse represents user list with pagination
type UserListResponse struct {
	Users      []*UserResponse       `json:"users"`
	Pagination pagination.Pagination `json:"pagination"`
}

// GetUsers retrieves users with filtering and pagination
func (s *AdminService) GetUsers(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	page := req.Request.Normalize()
	users, total, err := s.repo.List(ctx, ListFilter{
		Search: req.Search,
		Status: req.Status,
		Role:   req.Role,
	}, page)
	if err != nil {
		return nil, err
	}

	resp := &UserListResponse{
		Users:      make([]*UserResponse, 0, len(users)),
		Pagination: pagination.New(page, total),
	}
	for i := range users {
		resp.Users = append(resp.Users, users[i].ToResponse())
	}
	return resp, nil
}

// GetUser retrieves a user by display id
func (s *AdminService) GetUser(ctx context.Context, publicID string) (*UserResponse, error) {
	u, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return u.ToResponse(), nil
}

// DeactivateUser disables an account; its orders and cart are kept
func (s *AdminService) DeactivateUser(ctx context.Context, admin Identity, publicID string) (*UserResponse, error) {
	return s.setActive(ctx, admin, publicID, func(bool) bool { return false })
}

// ToggleUserStatus flips an account between active and inactive
func (s *AdminService) ToggleUserStatus(ctx context.Context, admin Identity, publicID string) (*UserResponse, error) {
	return s.setActive(ctx, admin, publicID, func(current bool) bool { return !current })
}

func (s *AdminService) setActive(ctx context.Context, admin Identity, publicID string, next func(bool) bool) (*UserResponse, error) {
	var updated *User
	err := s.runner.Run(ctx, "update_user_status", func(ctx context.Context) error {
		u, err := s.repo.FindByPublicID(ctx, publicID)
		if err != nil {
			return err
		}
		if u.ID == admin.UserID {
			return apperror.InvalidState("Cannot change the status of your own account")
		}
		u.IsActive = next(u.IsActive)
		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   updated.ExternalID(),
		"is_active": updated.IsActive,
		"admin_id":  admin.PublicID,
	}).Info("User status updated")

	return updated.ToResponse(), nil
}
