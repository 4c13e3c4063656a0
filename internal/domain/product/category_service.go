// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/txn"
)

// CategoryService handles category business logic
type CategoryService struct {
	repo   CategoryRepository
	runner *txn.Runner
	log    logrus.FieldLogger
}

// NewCategoryService creates a new category service
func NewCategoryService(repo CategoryRepository, runner *txn.Runner, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		runner: runner,
		log:    log,
	}
}

// CategoryRequest represents category create and update data
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// GetCategories lists all categories by name
func (s *CategoryService) GetCategories(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// GetCategory retrieves a single category
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*Category, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateCategory creates a category with a unique name
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryRequest) (*Category, error) {
	category := &Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}

	err := s.runner.Run(ctx, "create_category", func(ctx context.Context) error {
		if err := s.ensureNameFree(ctx, category.Name, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, category)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category_id": category.ID}).Info("Category created")
	return category, nil
}

// UpdateCategory renames or re-describes a category
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryRequest) (*Category, error) {
	var category *Category
	err := s.runner.Run(ctx, "update_category", func(ctx context.Context) error {
		c, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if err := s.ensureNameFree(ctx, name, c.ID); err != nil {
			return err
		}
		c.Name = name
		c.Description = req.Description
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		category = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory deletes an empty category
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	return s.runner.Run(ctx, "delete_category", func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		count, err := s.repo.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperror.InvalidState("Cannot delete category with %d products", count)
		}
		return s.repo.Delete(ctx, id)
	})
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return apperror.InvalidInput("Category with the name %s already exists", name)
	}
	return nil
}
