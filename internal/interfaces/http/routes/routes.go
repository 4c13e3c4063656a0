// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// Dependencies carries the services the API is built on
type Dependencies struct {
	Users      *user.Service
	UserAdmin  *user.AdminService
	Products   *product.Service
	Categories *product.CategoryService
	Carts      *cart.Service
	Orders     *order.Service
	Invoices   handlers.InvoiceRenderer
	Log        logrus.FieldLogger
}

// SetupRoutes registers every API route on the group
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	authRequired := middleware.AuthMiddleware(deps.Users, deps.Log)

	SetupAuthRoutes(rg, deps, authRequired)
	SetupUserRoutes(rg, deps, authRequired)
	SetupCatalogRoutes(rg, deps)
	SetupCartRoutes(rg, deps, authRequired)
	SetupOrderRoutes(rg, deps, authRequired)
	SetupAdminRoutes(rg, deps, authRequired)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, deps Dependencies, authRequired gin.HandlerFunc) {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Log)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.GET("/profile", authRequired, authHandler.GetProfile)
	}
}

// SetupUserRoutes sets up the caller's own account routes
func SetupUserRoutes(rg *gin.RouterGroup, deps Dependencies, authRequired gin.HandlerFunc) {
	profileHandler := handlers.NewUserProfileHandler(deps.Users, deps.Log)

	users := rg.Group("/users")
	users.Use(authRequired)
	{
		users.GET("/me", profileHandler.GetProfile)
		users.PUT("/me", profileHandler.UpdateProfile)
	}
}

// SetupCatalogRoutes sets up the public product and category routes
func SetupCatalogRoutes(rg *gin.RouterGroup, deps Dependencies) {
	productHandler := handlers.NewProductHandler(deps.Products, deps.Log)
	categoryHandler := handlers.NewCategoryHandler(deps.Categories, deps.Products, deps.Log)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/search", productHandler.SearchProducts)
		products.GET("/:id", productHandler.GetProduct)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id/products", categoryHandler.GetCategoryProducts)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Dependencies, authRequired gin.HandlerFunc) {
	cartHandler := handlers.NewCartHandler(deps.Carts, deps.Log)

	cart := rg.Group("/cart")
	cart.Use(authRequired)
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id", cartHandler.RemoveCartItem)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, deps Dependencies, authRequired gin.HandlerFunc) {
	orderHandler := handlers.NewOrderHandler(deps.Orders, deps.Log)
	invoiceHandler := handlers.NewInvoiceHandler(deps.Orders, deps.Invoices, deps.Log)

	orders := rg.Group("/orders")
	orders.Use(authRequired)
	{
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:orderId", orderHandler.GetOrder)
		orders.PATCH("/:orderId/cancel", orderHandler.CancelOrder)
		orders.GET("/:orderId/invoice", invoiceHandler.DownloadInvoice)
	}
}

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, deps Dependencies, authRequired gin.HandlerFunc) {
	orderHandler := handlers.NewOrderHandler(deps.Orders, deps.Log)
	productHandler := handlers.NewProductHandler(deps.Products, deps.Log)
	categoryHandler := handlers.NewCategoryHandler(deps.Categories, deps.Products, deps.Log)
	userAdminHandler := handlers.NewUserAdminHandler(deps.UserAdmin, deps.Log)

	admin := rg.Group("/admin")
	admin.Use(authRequired, middleware.AdminMiddleware())
	{
		orders := admin.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.PATCH("/:orderId/status", orderHandler.UpdateOrderStatus)
		}

		products := admin.Group("/products")
		{
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}

		categories := admin.Group("/categories")
		{
			categories.POST("", categoryHandler.CreateCategory)
			categories.PUT("/:id", categoryHandler.UpdateCategory)
			categories.DELETE("/:id", categoryHandler.DeleteCategory)
		}

		users := admin.Group("/users")
		{
			users.GET("", userAdminHandler.GetUsers)
			users.GET("/:userId", userAdminHandler.GetUser)
			users.DELETE("/:userId", userAdminHandler.DeactivateUser)
			users.PATCH("/:userId/toggle-status", userAdminHandler.ToggleUserStatus)
		}
	}
}
