// internal/domain/user/entity.go
package user

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/pkg/apperror"
)

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents the user entity
type User struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	PublicID    *string    `gorm:"uniqueIndex;size:20" json:"user_id"`
	Email       string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string     `gorm:"not null;size:255" json:"-"`
	FirstName   string     `gorm:"size:100" json:"first_name"`
	LastName    string     `gorm:"size:100" json:"last_name"`
	Phone       string     `gorm:"size:20" json:"phone"`
	Address     string     `gorm:"size:500" json:"address"`
	Role        string     `gorm:"size:20;not null;default:'CUSTOMER'" json:"role"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook normalizes fields before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Normalize()
	return nil
}

// Normalize lower-cases the email and defaults the role
func (u *User) Normalize() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleCustomer
	}
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ExternalID returns the display id, empty until assigned
func (u *User) ExternalID() string {
	if u.PublicID == nil {
		return ""
	}
	return *u.PublicID
}

// Identity projects the user into the caller identity the engines work with
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		PublicID: u.ExternalID(),
		Email:    u.Email,
		Role:     u.Role,
		Active:   u.IsActive,
	}
}

// PublicIDFor formats the display id for a user key
func PublicIDFor(id uint) string {
	return fmt.Sprintf("U%04d", id)
}

// Identity is the resolved caller passed explicitly into every cart and order operation
type Identity struct {
	UserID   uint
	PublicID string
	Email    string
	Role     string
	Active   bool
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, RoleAdmin)
}

// Validate fails with Unauthorized when the identity is absent or inactive
func (i Identity) Validate() error {
	if i.UserID == 0 {
		return apperror.Unauthorized("Authentication required")
	}
	if !i.Active {
		return apperror.Unauthorized("User account is inactive")
	}
	return nil
}

// UserResponse is the public view of a user
type UserResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToResponse converts a user into its public view
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		UserID:      u.ExternalID(),
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Address:     u.Address,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
