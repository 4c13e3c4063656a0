// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/txn"
)

// Service handles registration, authentication and identity resolution
type Service struct {
	repo            Repository
	runner          *txn.Runner
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	rotateRefresh   bool
	log             logrus.FieldLogger
}

// NewService creates a new user service
func NewService(repo Repository, runner *txn.Runner, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		repo:            repo,
		runner:          runner,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
		rotateRefresh:   cfg.JWT.RefreshTokenRotation,
		log:             log,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required,max=100"`
	LastName        string `json:"last_name" binding:"required,max=100"`
	Phone           string `json:"phone" binding:"max=20"`
	Address         string `json:"address" binding:"max=500"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents profile changes a user can make
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User *UserResponse `json:"user"`
	*auth.TokenPair
}

// Register creates a new customer account and assigns its display id
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apperror.InvalidInput("Passwords do not match")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.InvalidInput("%s", err.Error())
	}

	var created *User
	err = s.runner.Run(ctx, "register", func(ctx context.Context) error {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		exists, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return apperror.InvalidInput("Email %s is already registered", email)
		}

		u := &User{
			Email:     email,
			Password:  hashedPassword,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Phone:     req.Phone,
			Address:   req.Address,
			Role:      RoleCustomer,
			IsActive:  true,
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return err
		}

		// display id derives from the generated key
		publicID := PublicIDFor(u.ID)
		u.PublicID = &publicID
		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": created.ExternalID()}).Info("User registered")

	return s.issueTokens(created)
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, err
	}

	if err := s.passwordManager.VerifyPassword(req.Password, u.Password); err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if !u.IsActive {
		return nil, apperror.Unauthorized("User account is inactive")
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		s.log.WithError(err).WithField("user_id", u.ExternalID()).Warn("Failed to record last login")
	}

	return s.issueTokens(u)
}

// RefreshToken exchanges a refresh token for a new token pair
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	identity, err := s.ResolveIdentity(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	resp, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	if !s.rotateRefresh {
		resp.RefreshToken = refreshToken
	}
	return resp, nil
}

// ResolveIdentity turns an authenticated user key into a caller identity.
// Missing or inactive users fail with Unauthorized.
func (s *Service) ResolveIdentity(ctx context.Context, userID uint) (Identity, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return Identity{}, apperror.Unauthorized("User not found")
		}
		return Identity{}, err
	}

	identity := u.Identity()
	if err := identity.Validate(); err != nil {
		return Identity{}, err
	}
	return identity, nil
}

// ValidateAccessToken parses a bearer token for the auth middleware
func (s *Service) ValidateAccessToken(token string) (*auth.Claims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

// GetProfile returns the caller's own profile
func (s *Service) GetProfile(ctx context.Context, caller Identity) (*UserResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return u.ToResponse(), nil
}

// UpdateProfile applies the provided fields to the caller's profile
func (s *Service) UpdateProfile(ctx context.Context, caller Identity, req *UpdateProfileRequest) (*UserResponse, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	var updated *User
	err := s.runner.Run(ctx, "update_profile", func(ctx context.Context) error {
		u, err := s.repo.FindByID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if req.FirstName != nil {
			u.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			u.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Phone != nil {
			u.Phone = *req.Phone
		}
		if req.Address != nil {
			u.Address = *req.Address
		}
		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.ToResponse(), nil
}

func (s *Service) issueTokens(u *User) (*AuthResponse, error) {
	pair, err := s.jwtManager.GenerateTokenPair(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:      u.ToResponse(),
		TokenPair: pair,
	}, nil
}
