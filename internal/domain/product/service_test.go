package product_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/infrastructure/database/memory"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/pagination"
	"github.com/your-org/storefront/internal/pkg/txn"
)

type catalog struct {
	products   *product.Service
	categories *product.CategoryService
	ctx        context.Context
}

func newCatalog(t *testing.T) *catalog {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := memory.NewStore()
	runner := txn.NewRunner(store, log, txn.DefaultAttempts)
	return &catalog{
		products:   product.NewService(store.Products(), store.Categories(), runner, log),
		categories: product.NewCategoryService(store.Categories(), runner, log),
		ctx:        context.Background(),
	}
}

func (c *catalog) category(t *testing.T, name string) *product.Category {
	t.Helper()
	category, err := c.categories.CreateCategory(c.ctx, &product.CategoryRequest{Name: name})
	require.NoError(t, err)
	return category
}

func (c *catalog) product(t *testing.T, categoryID uint, name, price string, stock int) *product.Product {
	t.Helper()
	p, err := c.products.CreateProduct(c.ctx, &product.ProductCreateRequest{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		CategoryID:    categoryID,
	})
	require.NoError(t, err)
	return p
}

func names(products []product.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestService_CreateProduct(t *testing.T) {
	c := newCatalog(t)
	books := c.category(t, "Books")

	t.Run("RoundsPriceAndAttachesCategory", func(t *testing.T) {
		p := c.product(t, books.ID, "Go in Practice", "39.999", 4)
		assert.Equal(t, "40", p.Price.String())
		require.NotNil(t, p.Category)
		assert.Equal(t, "Books", p.Category.Name)
		assert.True(t, p.IsActive)
	})

	t.Run("KeepsExplicitInactive", func(t *testing.T) {
		inactive := false
		p, err := c.products.CreateProduct(c.ctx, &product.ProductCreateRequest{
			Name: "Draft Title", Price: decimal.NewFromInt(5), CategoryID: books.ID, IsActive: &inactive,
		})
		require.NoError(t, err)
		assert.False(t, p.IsActive)
	})

	t.Run("Rejects", func(t *testing.T) {
		tests := []struct {
			name string
			req  product.ProductCreateRequest
			want error
		}{
			{"ZeroPrice", product.ProductCreateRequest{Name: "Freebie", Price: decimal.Zero, CategoryID: books.ID}, apperror.ErrInvalidInput},
			{"NegativePrice", product.ProductCreateRequest{Name: "Refund", Price: decimal.NewFromInt(-1), CategoryID: books.ID}, apperror.ErrInvalidInput},
			{"UnknownCategory", product.ProductCreateRequest{Name: "Orphan", Price: decimal.NewFromInt(1), CategoryID: 99}, apperror.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := c.products.CreateProduct(c.ctx, &tt.req)
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			})
		}
	})
}

func TestService_Listing(t *testing.T) {
	c := newCatalog(t)
	tools := c.category(t, "Tools")
	garden := c.category(t, "Garden")
	c.product(t, tools.ID, "Claw Hammer", "19.00", 5)
	c.product(t, tools.ID, "Hand Saw", "24.50", 2)
	c.product(t, garden.ID, "Garden Hose", "12.75", 9)
	hidden := c.product(t, garden.ID, "Hammock", "80.00", 1)

	inactive := false
	_, err := c.products.UpdateProduct(c.ctx, hidden.ID, &product.ProductUpdateRequest{IsActive: &inactive})
	require.NoError(t, err)

	t.Run("ActiveOnlySortedByPrice", func(t *testing.T) {
		resp, err := c.products.GetProducts(c.ctx, &product.ProductListRequest{
			Request: pagination.Request{SortBy: "price", SortOrder: "asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Garden Hose", "Claw Hammer", "Hand Saw"}, names(resp.Products))
		assert.Equal(t, int64(3), resp.Pagination.Total)
	})

	t.Run("ByCategory", func(t *testing.T) {
		resp, err := c.products.GetProductsByCategory(c.ctx, tools.ID, pagination.Request{SortBy: "name", SortOrder: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Claw Hammer", "Hand Saw"}, names(resp.Products))

		_, err = c.products.GetProductsByCategory(c.ctx, 404, pagination.Request{})
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})

	t.Run("SearchIsCaseInsensitive", func(t *testing.T) {
		resp, err := c.products.SearchProducts(c.ctx, "  HAMM ", pagination.Request{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Claw Hammer"}, names(resp.Products))

		_, err = c.products.SearchProducts(c.ctx, "   ", pagination.Request{})
		assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
	})

	t.Run("Pagination", func(t *testing.T) {
		resp, err := c.products.GetProducts(c.ctx, &product.ProductListRequest{
			Request: pagination.Request{Page: 2, Limit: 2, SortBy: "id", SortOrder: "asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Garden Hose"}, names(resp.Products))
		assert.False(t, resp.Pagination.HasNext)
		assert.True(t, resp.Pagination.HasPrev)
	})
}

func TestService_DeleteProduct(t *testing.T) {
	c := newCatalog(t)
	tools := c.category(t, "Tools")
	p := c.product(t, tools.ID, "Spirit Level", "15.00", 3)

	require.NoError(t, c.products.DeleteProduct(c.ctx, p.ID))

	_, err := c.products.GetProduct(c.ctx, p.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = c.products.DeleteProduct(c.ctx, p.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCategoryService(t *testing.T) {
	c := newCatalog(t)
	toys := c.category(t, "Toys")

	t.Run("NamesAreUniqueIgnoringCase", func(t *testing.T) {
		_, err := c.categories.CreateCategory(c.ctx, &product.CategoryRequest{Name: "toys"})
		assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
	})

	t.Run("RenameKeepsOwnName", func(t *testing.T) {
		updated, err := c.categories.UpdateCategory(c.ctx, toys.ID, &product.CategoryRequest{Name: "Toys", Description: "Games and puzzles"})
		require.NoError(t, err)
		assert.Equal(t, "Games and puzzles", updated.Description)
	})

	t.Run("DeleteRefusedWhileProductsRemain", func(t *testing.T) {
		p := c.product(t, toys.ID, "Puzzle Box", "9.99", 1)

		err := c.categories.DeleteCategory(c.ctx, toys.ID)
		assert.True(t, errors.Is(err, apperror.ErrInvalidState))

		require.NoError(t, c.products.DeleteProduct(c.ctx, p.ID))
		require.NoError(t, c.categories.DeleteCategory(c.ctx, toys.ID))

		_, err = c.categories.GetCategory(c.ctx, toys.ID)
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})

	t.Run("ListedByName", func(t *testing.T) {
		c.category(t, "Audio")
		c.category(t, "Kitchen")
		categories, err := c.categories.GetCategories(c.ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "Audio", categories[0].Name)
	})
}
