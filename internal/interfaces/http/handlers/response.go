// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/apperror"
)

// respondError writes the error envelope for a service failure. Unclassified errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := apperror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).Error("Request failed")
		c.JSON(status, gin.H{
			"error": "Internal server error",
		})
		return
	}

	body := gin.H{"error": err.Error()}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
	}
	c.JSON(status, body)
}

// respondBindError reports a request body or query that failed binding
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// paramUint parses a numeric path parameter, answering 400 when it is malformed
func paramUint(c *gin.Context, name, label string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label,
		})
		return 0, false
	}
	return uint(value), true
}

// caller returns the authenticated identity, answering 401 when the route was not protected
func caller(c *gin.Context) (user.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
	}
	return identity, ok
}
