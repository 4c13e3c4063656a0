package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/database/memory"
	apihttp "github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/txn"
)

const adminPassword = "Storefront2024"

type fakeInvoices struct{}

func (fakeInvoices) GenerateInvoice(o *order.OrderResponse) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF-1.4 " + o.OrderID), nil
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "Storefront", Version: "test", Environment: "test"},
		Server: config.ServerConfig{Port: "0", RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		JWT: config.JWTConfig{
			Secret:             "test-secret-that-is-at-least-32-characters",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
		Order:    config.OrderConfig{ConflictAttempts: txn.DefaultAttempts},
	}
}

func newAPI(t *testing.T, checks map[string]apihttp.HealthCheck) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	log, _ := test.NewNullLogger()
	store := memory.NewStore()
	runner := txn.NewRunner(store, log, cfg.Order.ConflictAttempts)

	deps := routes.Dependencies{
		Users:      user.NewService(store.Users(), runner, cfg, log),
		UserAdmin:  user.NewAdminService(store.Users(), runner, log),
		Products:   product.NewService(store.Products(), store.Categories(), runner, log),
		Categories: product.NewCategoryService(store.Categories(), runner, log),
		Carts:      cart.NewService(store.Carts(), store.Products(), runner, log),
		Orders:     order.NewService(store.Orders(), store.Carts(), store.Products(), runner, log),
		Invoices:   fakeInvoices{},
		Log:        log,
	}
	server := apihttp.NewServer(cfg, deps, nil, checks, log)

	hash, err := auth.NewPasswordManager(cfg).HashPassword(adminPassword)
	require.NoError(t, err)
	admin := &user.User{Email: "admin@storefront.local", Password: hash, FirstName: "Store", LastName: "Admin", Role: user.RoleAdmin, IsActive: true}
	require.NoError(t, store.Users().Create(context.Background(), admin))
	publicID := user.PublicIDFor(admin.ID)
	admin.PublicID = &publicID
	require.NoError(t, store.Users().Update(context.Background(), admin))

	return &api{t: t, handler: server.Handler(), store: store}
}

func (a *api) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "application/pdf" && w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a *api) decode(env envelope, into interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(env.Data, into))
}

func (a *api) token(path string, body interface{}) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, path, "", body)
	require.Contains(a.t, []int{http.StatusOK, http.StatusCreated}, w.Code, env.Error)
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	a.decode(env, &tokens)
	require.NotEmpty(a.t, tokens.AccessToken)
	return tokens.AccessToken
}

func (a *api) register(email string) string {
	return a.token("/api/v1/auth/register", gin.H{
		"email":            email,
		"password":         "Shopper2024",
		"confirm_password": "Shopper2024",
		"first_name":       "Grace",
		"last_name":        "Hopper",
	})
}

func (a *api) adminToken() string {
	return a.token("/api/v1/auth/login", gin.H{"email": "admin@storefront.local", "password": adminPassword})
}

func (a *api) createProduct(admin string, stock int) uint {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/admin/categories", admin, gin.H{"name": "Stationery"})
	require.Equal(a.t, http.StatusCreated, w.Code, env.Error)
	var category product.Category
	a.decode(env, &category)

	w, env = a.do(http.MethodPost, "/api/v1/admin/products", admin, gin.H{
		"name":           "Fountain Pen",
		"price":          "10.50",
		"stock_quantity": stock,
		"category_id":    category.ID,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, env.Error)
	var p product.Product
	a.decode(env, &p)
	return p.ID
}

func (a *api) stock(id uint) int {
	a.t.Helper()
	w, env := a.do(http.MethodGet, "/api/v1/products/"+itoa(id), "", nil)
	require.Equal(a.t, http.StatusOK, w.Code)
	var p product.Product
	a.decode(env, &p)
	return p.StockQuantity
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestAPI_CartToOrderLifecycle(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.adminToken()
	productID := a.createProduct(admin, 3)
	customer := a.register("grace@example.com")

	w, env := a.do(http.MethodPost, "/api/v1/cart/items", customer, gin.H{"product_id": productID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var c cart.CartResponse
	a.decode(env, &c)
	require.Len(t, c.Items, 1)
	assert.True(t, c.TotalAmount.Equal(decimal.RequireFromString("21")), c.TotalAmount.String())
	assert.Equal(t, 3, a.stock(productID), "adding to cart does not reserve stock")

	w, env = a.do(http.MethodPost, "/api/v1/cart/items", customer, gin.H{"product_id": productID, "quantity": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Error)

	w, env = a.do(http.MethodPost, "/api/v1/orders", customer, gin.H{"shipping_address": "1 Navy Yard, Arlington"})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	var placed order.OrderResponse
	a.decode(env, &placed)
	assert.Equal(t, order.OrderStatusPending, placed.Status)
	assert.True(t, placed.TotalAmount.Equal(decimal.RequireFromString("21")))
	assert.Equal(t, 1, a.stock(productID))

	w, env = a.do(http.MethodGet, "/api/v1/cart", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	a.decode(env, &c)
	assert.Empty(t, c.Items)
	assert.True(t, c.TotalAmount.IsZero())

	w, _ = a.do(http.MethodGet, "/api/v1/admin/orders", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = a.do(http.MethodPatch, "/api/v1/admin/orders/"+placed.OrderID+"/status", admin, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	w, env = a.do(http.MethodGet, "/api/v1/orders/"+placed.OrderID+"/invoice", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=invoice-"+placed.OrderID+".pdf", w.Header().Get("Content-Disposition"))

	w, env = a.do(http.MethodPatch, "/api/v1/orders/"+placed.OrderID+"/cancel", customer, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var cancelled order.OrderResponse
	a.decode(env, &cancelled)
	assert.Equal(t, order.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 3, a.stock(productID))

	w, env = a.do(http.MethodPatch, "/api/v1/orders/"+placed.OrderID+"/cancel", customer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Error)

	w, env = a.do(http.MethodGet, "/api/v1/orders", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []order.OrderResponse
	a.decode(env, &mine)
	assert.Len(t, mine, 1)
}

func TestAPI_OrderVisibility(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.adminToken()
	productID := a.createProduct(admin, 5)
	owner := a.register("owner@example.com")
	other := a.register("other@example.com")

	a.do(http.MethodPost, "/api/v1/cart/items", owner, gin.H{"product_id": productID, "quantity": 1})
	w, env := a.do(http.MethodPost, "/api/v1/orders", owner, gin.H{"shipping_address": "2 Main Street"})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	var placed order.OrderResponse
	a.decode(env, &placed)

	w, _ = a.do(http.MethodGet, "/api/v1/orders/"+placed.OrderID, other, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(http.MethodGet, "/api/v1/orders/"+placed.OrderID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = a.do(http.MethodGet, "/api/v1/orders/ORD-MISSING", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_RequestValidation(t *testing.T) {
	a := newAPI(t, nil)
	customer := a.register("val@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"CartRequiresAuth", http.MethodGet, "/api/v1/cart", "", nil, http.StatusUnauthorized},
		{"MalformedItemID", http.MethodPut, "/api/v1/cart/items/abc", customer, gin.H{"quantity": 1}, http.StatusBadRequest},
		{"UnknownItem", http.MethodDelete, "/api/v1/cart/items/999", customer, nil, http.StatusNotFound},
		{"ZeroQuantity", http.MethodPost, "/api/v1/cart/items", customer, gin.H{"product_id": 1, "quantity": 0}, http.StatusBadRequest},
		{"UnknownProduct", http.MethodPost, "/api/v1/cart/items", customer, gin.H{"product_id": 42, "quantity": 1}, http.StatusNotFound},
		{"EmptyCartOrder", http.MethodPost, "/api/v1/orders", customer, gin.H{"shipping_address": "3 Elm Road"}, http.StatusBadRequest},
		{"MissingAddress", http.MethodPost, "/api/v1/orders", customer, gin.H{}, http.StatusBadRequest},
		{"SearchNeedsKeyword", http.MethodGet, "/api/v1/products/search", "", nil, http.StatusBadRequest},
		{"UnknownRoute", http.MethodGet, "/api/v1/nowhere", "", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := a.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestAPI_AdminUsers(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.adminToken()
	customer := a.register("member@example.com")

	w, env := a.do(http.MethodGet, "/api/v1/auth/profile", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile user.UserResponse
	a.decode(env, &profile)

	w, env = a.do(http.MethodPatch, "/api/v1/admin/users/"+profile.UserID+"/toggle-status", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, "User deactivated successfully", env.Message)

	w, _ = a.do(http.MethodGet, "/api/v1/cart", customer, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "deactivation applies to live tokens")

	w, _ = a.do(http.MethodGet, "/api/v1/admin/users", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Health(t *testing.T) {
	a := newAPI(t, map[string]apihttp.HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	w, _ := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unhealthy"`)
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)

	w, _ = a.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
