// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/user"
)

// UserAdminHandler handles admin user management
type UserAdminHandler struct {
	adminService *user.AdminService
	log          logrus.FieldLogger
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(adminService *user.AdminService, log logrus.FieldLogger) *UserAdminHandler {
	return &UserAdminHandler{
		adminService: adminService,
		log:          log,
	}
}

// GetUsers handles GET /admin/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.adminService.GetUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"data":    response,
	})
}

// GetUser handles GET /admin/users/:userId
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	profile, err := h.adminService.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"data":    profile,
	})
}

// DeactivateUser handles DELETE /admin/users/:userId
func (h *UserAdminHandler) DeactivateUser(c *gin.Context) {
	admin, ok := caller(c)
	if !ok {
		return
	}

	profile, err := h.adminService.DeactivateUser(c.Request.Context(), admin, c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deactivated successfully",
		"data":    profile,
	})
}

// ToggleUserStatus handles PATCH /admin/users/:userId/toggle-status
func (h *UserAdminHandler) ToggleUserStatus(c *gin.Context) {
	admin, ok := caller(c)
	if !ok {
		return
	}

	profile, err := h.adminService.ToggleUserStatus(c.Request.Context(), admin, c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := "deactivated"
	if profile.IsActive {
		status = "activated"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User " + status + " successfully",
		"data":    profile,
	})
}
