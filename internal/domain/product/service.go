// internal/domain/product/service.go
package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
	"github.com/your-org/storefront/internal/pkg/txn"
)

// Service handles product business logic
type Service struct {
	repo       Repository
	categories CategoryRepository
	runner     *txn.Runner
	log        logrus.FieldLogger
}

// NewService creates a new product service
func NewService(repo Repository, categories CategoryRepository, runner *txn.Runner, log logrus.FieldLogger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		runner:     runner,
		log:        log,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	pagination.Request
	CategoryID uint   `form:"category_id"`
	Keyword    string `form:"keyword"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name          string          `json:"name" binding:"required,min=3,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" binding:"min=0"`
	ImageURL      string          `json:"image_url" binding:"max=500"`
	CategoryID    uint            `json:"category_id" binding:"required"`
	IsActive      *bool           `json:"is_active"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=3,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity" binding:"omitempty,min=0"`
	ImageURL      *string          `json:"image_url" binding:"omitempty,max=500"`
	CategoryID    *uint            `json:"category_id"`
	IsActive      *bool            `json:"is_active"`
}

// ProductListResponse represents product list with pagination
type ProductListResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

var productSortFields = map[string]string{
	"name":           "name",
	"price":          "price",
	"stock_quantity": "stock_quantity",
	"created_at":     "created_at",
	"id":             "id",
}

// GetProducts retrieves active products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	return s.list(ctx, ListFilter{
		CategoryID: req.CategoryID,
		Keyword:    strings.TrimSpace(req.Keyword),
	}, req.Request)
}

// GetProductsByCategory lists active products of one category
func (s *Service) GetProductsByCategory(ctx context.Context, categoryID uint, page pagination.Request) (*ProductListResponse, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.list(ctx, ListFilter{CategoryID: categoryID}, page)
}

// SearchProducts matches product names case-insensitively
func (s *Service) SearchProducts(ctx context.Context, keyword string, page pagination.Request) (*ProductListResponse, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperror.InvalidInput("Search keyword is required")
	}
	return s.list(ctx, ListFilter{Keyword: keyword}, page)
}

func (s *Service) list(ctx context.Context, filter ListFilter, page pagination.Request) (*ProductListResponse, error) {
	page = page.Normalize()
	if _, ok := productSortFields[page.SortBy]; !ok {
		page.SortBy = "id"
	}
	products, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &ProductListResponse{
		Products:   products,
		Pagination: pagination.New(page, total),
	}, nil
}

// SortColumns exposes the columns product listings may order by
func SortColumns() map[string]string {
	return productSortFields
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	product := &Product{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price.Round(2),
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		CategoryID:    req.CategoryID,
		IsActive:      true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	err := s.runner.Run(ctx, "create_product", func(ctx context.Context) error {
		category, err := s.categories.FindByID(ctx, req.CategoryID)
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, product); err != nil {
			return err
		}
		product.Category = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"product_id": product.ID}).Info("Product created")
	return product, nil
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	var product *Product
	err := s.runner.Run(ctx, "update_product", func(ctx context.Context) error {
		p, err := s.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Price != nil {
			if err := validatePrice(*req.Price); err != nil {
				return err
			}
			p.Price = req.Price.Round(2)
		}
		if req.StockQuantity != nil {
			p.StockQuantity = *req.StockQuantity
		}
		if req.ImageURL != nil {
			p.ImageURL = *req.ImageURL
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}
		if req.CategoryID != nil && *req.CategoryID != p.CategoryID {
			category, err := s.categories.FindByID(ctx, *req.CategoryID)
			if err != nil {
				return err
			}
			p.CategoryID = category.ID
			p.Category = category
		}

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog. Past orders keep their snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	return s.runner.Run(ctx, "delete_product", func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperror.InvalidInput("Price must be greater than 0")
	}
	return nil
}
