// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	cfg *config.Config
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		cfg: cfg,
		log: log.WithField("component", "migration"),
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},

		&product.Category{},
		&product.Product{},

		&cart.Cart{},
		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates the listing indexes AutoMigrate does not derive from tags
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products(LOWER(name))",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order_created ON order_status_history(order_id, created_at)",
	}

	failed := 0
	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			failed++
			m.log.WithError(err).WithField("statement", stmt).Warn("Failed to create index")
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Database indexes ensured")
	return nil
}

// SeedInitialData inserts the development catalog and accounts. Existing rows are left alone.
func (m *Migration) SeedInitialData() error {
	m.log.Info("Seeding initial data")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedUser(m.cfg.Seed.AdminEmail, m.cfg.Seed.AdminPassword, "Admin", "User", user.RoleAdmin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedUser("customer@storefront.local", "Customer2024", "Demo", "Customer", user.RoleCustomer); err != nil {
		return fmt.Errorf("failed to seed demo customer: %w", err)
	}
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.log.Info("Initial data seeded")
	return nil
}

var seedCategories = []product.Category{
	{Name: "Electronics", Description: "Electronic devices, gadgets, and accessories"},
	{Name: "Clothing", Description: "Fashion, apparel, and accessories"},
	{Name: "Books", Description: "Books, eBooks, and educational materials"},
	{Name: "Home & Garden", Description: "Home improvement, furniture, and garden supplies"},
}

func (m *Migration) seedCategories() error {
	for _, c := range seedCategories {
		category := c
		var existing product.Category
		err := m.db.Where("name = ?", category.Name).Take(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := m.db.Create(&category).Error; err != nil {
			return err
		}
		m.log.WithField("category", category.Name).Info("Created category")
	}
	return nil
}

func (m *Migration) seedUser(email, password, firstName, lastName, role string) error {
	var existing user.User
	err := m.db.Where("email = ?", email).Take(&existing).Error
	if err == nil {
		m.log.WithField("email", email).Debug("Seed user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		IsActive:  true,
	}
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		publicID := user.PublicIDFor(u.ID)
		if err := tx.Model(&u).Update("public_id", publicID).Error; err != nil {
			return err
		}
		m.log.WithFields(logrus.Fields{
			"email":   email,
			"user_id": publicID,
			"role":    role,
		}).Info("Created seed user")
		return nil
	})
}

type seedProduct struct {
	name     string
	desc     string
	price    string
	stock    int
	category string
}

var seedProducts = []seedProduct{
	{"Premium Gaming Laptop", "High-performance laptop with dedicated graphics", "1999.99", 25, "Electronics"},
	{"Wireless Gaming Mouse", "Wireless mouse with precision sensor", "79.99", 50, "Electronics"},
	{"Noise-Cancelling Headphones", "Bluetooth headphones with active noise cancellation", "159.99", 30, "Electronics"},
	{"Cotton T-Shirt", "Plain crew neck t-shirt", "19.99", 200, "Clothing"},
	{"The Go Programming Language", "Paperback edition", "39.50", 40, "Books"},
}

func (m *Migration) seedProducts() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.Debug("Products already seeded")
		return nil
	}

	for _, sp := range seedProducts {
		var category product.Category
		if err := m.db.Where("name = ?", sp.category).Take(&category).Error; err != nil {
			return fmt.Errorf("category %q: %w", sp.category, err)
		}
		p := product.Product{
			Name:          sp.name,
			Description:   sp.desc,
			Price:         decimal.RequireFromString(sp.price),
			StockQuantity: sp.stock,
			CategoryID:    category.ID,
			IsActive:      true,
		}
		if err := m.db.Omit("Category").Create(&p).Error; err != nil {
			m.log.WithError(err).WithField("product", sp.name).Warn("Failed to create seed product")
			continue
		}
		m.log.WithField("product", p.Name).Info("Created seed product")
	}
	return nil
}

// DropAllTables drops every table in reverse dependency order
func (m *Migration) DropAllTables() error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	m.log.Warn("All tables dropped")
	return nil
}
