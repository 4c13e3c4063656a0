package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	identities map[string]user.Identity
	lookupErr  error
}

func (r stubResolver) ValidateAccessToken(token string) (*auth.Claims, error) {
	identity, ok := r.identities[token]
	if !ok {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}
	return &auth.Claims{UserID: identity.UserID}, nil
}

func (r stubResolver) ResolveIdentity(_ context.Context, userID uint) (user.Identity, error) {
	if r.lookupErr != nil {
		return user.Identity{}, r.lookupErr
	}
	for _, identity := range r.identities {
		if identity.UserID == userID {
			if !identity.Active {
				return user.Identity{}, apperror.Unauthorized("Account is deactivated")
			}
			return identity, nil
		}
	}
	return user.Identity{}, apperror.Unauthorized("User not found")
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	resolver := stubResolver{identities: map[string]user.Identity{
		"customer": {UserID: 1, PublicID: "U0001", Role: user.RoleCustomer, Active: true},
		"admin":    {UserID: 2, PublicID: "U0002", Role: user.RoleAdmin, Active: true},
		"inactive": {UserID: 3, PublicID: "U0003", Role: user.RoleCustomer, Active: false},
	}}

	log, _ := test.NewNullLogger()
	r := gin.New()
	r.GET("/me", AuthMiddleware(resolver, log), func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": identity.PublicID, "ctx_user": c.GetString("user_id")})
	})
	r.GET("/admin", AuthMiddleware(resolver, log), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"MissingHeader", "/me", "", http.StatusUnauthorized},
		{"MalformedHeader", "/me", "Token customer", http.StatusUnauthorized},
		{"UnknownToken", "/me", "Bearer nope", http.StatusUnauthorized},
		{"InactiveAccount", "/me", "Bearer inactive", http.StatusUnauthorized},
		{"Customer", "/me", "Bearer customer", http.StatusOK},
		{"CustomerOnAdminRoute", "/admin", "Bearer customer", http.StatusForbidden},
		{"Admin", "/admin", "Bearer admin", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := perform(r, http.MethodGet, tt.path, headers)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"U0001","ctx_user":"U0001"}`, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_LookupFailureIsNotExposed(t *testing.T) {
	resolver := stubResolver{
		identities: map[string]user.Identity{"customer": {UserID: 1, PublicID: "U0001", Role: user.RoleCustomer, Active: true}},
		lookupErr:  errors.New("find user: dial tcp 10.0.0.5:5432: connect: connection refused"),
	}
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.GET("/me", AuthMiddleware(resolver, log), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer customer"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "dial tcp")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Contains(t, entry.Data[logrus.ErrorKey].(error).Error(), "dial tcp")
}

func TestAdminMiddleware_WithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := perform(r, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	t.Run("Propagated", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/", map[string]string{RequestIDHeader: "abc-123"})
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", w.Body.String())
	})

	t.Run("Generated", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/", nil)
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})

	t.Run("OverlongReplaced", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/", map[string]string{RequestIDHeader: strings.Repeat("x", 65)})
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{
		CORSAllowedOrigins: []string{"https://shop.example.com", "*.example.org"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Authorization"},
	}}
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", map[string]string{"Origin": "https://shop.example.com"})
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodGet, "/", map[string]string{"Origin": "https://api.example.org"})
	assert.Equal(t, "https://api.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodGet, "/", map[string]string{"Origin": "https://evil.test"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodOptions, "/", map[string]string{"Origin": "https://shop.example.com"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRateLimit_LocalFallback(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{RateLimitPerMinute: 60, RateLimitBurst: 2}}
	log, _ := test.NewNullLogger()

	r := gin.New()
	r.Use(RateLimit(cfg, nil, log))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodGet, "/slow", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/fast", nil).Code)
}

func TestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(RequestID(), Logger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	perform(r, http.MethodGet, "/ok?page=2", nil)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "/ok?page=2", entry.Data["path"])
	assert.NotEmpty(t, entry.Data["request_id"])

	perform(r, http.MethodGet, "/missing", nil)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(&config.Config{App: config.AppConfig{Name: "Storefront", Environment: "production"}}))
	r.GET("/api/v1/cart", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "Storefront API", w.Header().Get("Server"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	w = perform(r, http.MethodGet, "/health", nil)
	assert.Empty(t, w.Header().Get("Cache-Control"))
}
