// internal/interfaces/http/handlers/user_profile.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/user"
)

// UserProfileHandler handles the caller's own account
type UserProfileHandler struct {
	userService *user.Service
	log         logrus.FieldLogger
}

// NewUserProfileHandler creates a new user profile handler
func NewUserProfileHandler(userService *user.Service, log logrus.FieldLogger) *UserProfileHandler {
	return &UserProfileHandler{
		userService: userService,
		log:         log,
	}
}

// GetProfile handles GET /users/me
func (h *UserProfileHandler) GetProfile(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"data":    profile,
	})
}

// UpdateProfile handles PUT /users/me
func (h *UserProfileHandler) UpdateProfile(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"data":    profile,
	})
}
