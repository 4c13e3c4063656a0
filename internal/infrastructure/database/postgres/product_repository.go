// internal/infrastructure/database/postgres/product_repository.go
package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
)

// ProductRepository is the gorm implementation of product.Repository
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	return translate(conn(ctx, r.db).Omit("Category").Create(p).Error, "create product")
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	return translate(conn(ctx, r.db).Omit("Category").Save(p).Error, "update product")
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return translate(conn(ctx, r.db).Delete(&product.Product{}, id).Error, "delete product")
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	return r.find(conn(ctx, r.db), id)
}

func (r *ProductRepository) FindByIDForUpdate(ctx context.Context, id uint) (*product.Product, error) {
	db := conn(ctx, r.db)
	var locked product.Product
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Take(&locked, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Product with ID %d not found", id)
	}
	if err != nil {
		return nil, translate(err, "lock product")
	}
	return r.find(db, id)
}

func (r *ProductRepository) find(db *gorm.DB, id uint) (*product.Product, error) {
	var p product.Product
	err := db.Preload("Category").Take(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Product with ID %d not found", id)
	}
	if err != nil {
		return nil, translate(err, "find product")
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter, page pagination.Request) ([]product.Product, int64, error) {
	query := conn(ctx, r.db).Model(&product.Product{})

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Keyword != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Keyword)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count products")
	}

	var products []product.Product
	err := query.Preload("Category").
		Order(page.OrderClause(product.SortColumns(), "id")).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, translate(err, "list products")
	}
	return products, total, nil
}

// AdjustStock applies delta with a single conditional UPDATE. Zero affected rows means
// either the product is gone or the stock would go negative; a follow-up read tells
// which. Soft-deleted products are included so cancellations can restock them.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uint, delta int) error {
	db := conn(ctx, r.db)

	res := db.Unscoped().Model(&product.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error, "adjust stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current product.Product
	err := db.Unscoped().Select("id", "stock_quantity").Take(&current, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Product with ID %d not found", id)
	}
	if err != nil {
		return translate(err, "read stock")
	}
	return apperror.InsufficientStock(id, current.StockQuantity,
		"Insufficient stock. Only %d units available", current.StockQuantity)
}

// CategoryRepository is the gorm implementation of product.CategoryRepository
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, c *product.Category) error {
	return translate(conn(ctx, r.db).Create(c).Error, "create category")
}

func (r *CategoryRepository) Update(ctx context.Context, c *product.Category) error {
	return translate(conn(ctx, r.db).Save(c).Error, "update category")
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return translate(conn(ctx, r.db).Delete(&product.Category{}, id).Error, "delete category")
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*product.Category, error) {
	var c product.Category
	err := conn(ctx, r.db).Take(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Category with ID %d not found", id)
	}
	if err != nil {
		return nil, translate(err, "find category")
	}
	return &c, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*product.Category, error) {
	var c product.Category
	err := conn(ctx, r.db).Where("LOWER(name) = ?", strings.ToLower(name)).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Category %s not found", name)
	}
	if err != nil {
		return nil, translate(err, "find category")
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]product.Category, error) {
	var categories []product.Category
	if err := conn(ctx, r.db).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translate(err, "list categories")
	}
	return categories, nil
}

func (r *CategoryRepository) CountProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&product.Product{}).Where("category_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, translate(err, "count category products")
	}
	return count, nil
}
