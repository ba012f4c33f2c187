package services_test

import (
	"context"
	"fmt"
	"testing"

	"boutique/internal/models"
	"boutique/internal/repositories"
	"boutique/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(_ context.Context, filter repositories.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Related(_ context.Context, product *models.Product, limit int) ([]models.Product, error) {
	args := m.Called(product, limit)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(_ context.Context, product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(_ context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(_ context.Context, id string, quantity int) error {
	args := m.Called(id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStock(_ context.Context, id string, delta int) (int, error) {
	args := m.Called(id, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) Count(_ context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// MockCategoryRepository is a mock implementation of repositories.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(_ context.Context) ([]models.Category, error) {
	args := m.Called()
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(_ context.Context, id string) (*models.Category, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(_ context.Context, category *models.Category) error {
	return m.Called(category).Error(0)
}

func (m *MockCategoryRepository) Update(_ context.Context, category *models.Category) error {
	return m.Called(category).Error(0)
}

func (m *MockCategoryRepository) Delete(_ context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockCategoryRepository) CountProducts(_ context.Context, id string) (int64, error) {
	args := m.Called(id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) Count(_ context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

var (
	ctx   = context.Background()
	staff = models.Principal{UserID: "staff-1", Username: "clerk", IsStaff: true}
	buyer = models.Principal{UserID: "buyer-1", Username: "ada"}
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductService_ListCatalog(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewProductService(mockRepo, mockCategories)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: price("10"), Stock: 100, Available: true},
		{ID: "2", Name: "Product B", Price: price("20"), Stock: 50, Available: true},
	}

	mockCategories.On("GetBySlug", "lamps").Return(&models.Category{ID: "cat-1", Slug: "lamps"}, nil).Once()
	mockRepo.On("List", repositories.ProductFilter{
		CategoryID:    "cat-1",
		Query:         "brass",
		Sort:          repositories.SortPriceAsc,
		OnlyAvailable: true,
		Page:          repositories.Page{Number: 2, Size: services.CatalogPageSize},
	}).Return(expectedProducts, int64(14), nil).Once()

	page, err := service.ListCatalog(ctx, services.CatalogQuery{CategorySlug: "lamps", Query: "brass", Sort: repositories.SortPriceAsc, Page: 2})

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, page.Products)
	assert.EqualValues(t, 14, page.Total)
	assert.Equal(t, 2, page.Page)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)

	// Unknown category slug
	mockCategories.On("GetBySlug", "nope").Return(nil, fmt.Errorf("category nope not found: %w", repositories.ErrNotFound)).Once()
	_, err = service.ListCatalog(ctx, services.CatalogQuery{CategorySlug: "nope"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestProductService_GetAvailableProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: price("10"), Stock: 100, Available: true}

	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetAvailableProduct(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", "2").Return(&models.Product{ID: "2", Available: false}, nil).Once()
	product, err = service.GetAvailableProduct(ctx, "2")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Nil(t, product)

	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99 not found: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetAvailableProduct(ctx, "99")
	assert.Error(t, err)
	assert.Nil(t, product)
	assert.Contains(t, err.Error(), "not found")
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewProductService(mockRepo, mockCategories)

	newProduct := &models.Product{CategoryID: "cat-1", Name: "Brass Lamp, Large", Price: price("50"), Stock: 20, Available: true}

	mockCategories.On("GetByID", "cat-1").Return(&models.Category{ID: "cat-1"}, nil)
	mockRepo.On("Create", newProduct).Return(nil).Once()
	err := service.CreateProduct(ctx, staff, newProduct)
	assert.NoError(t, err)
	assert.Equal(t, "brass-lamp-large", newProduct.Slug)
	mockRepo.AssertExpectations(t)

	// Database error
	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(ctx, staff, newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)

	// Non-positive price never reaches the repository
	err = service.CreateProduct(ctx, staff, &models.Product{CategoryID: "cat-1", Name: "Free", Price: decimal.Zero})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	// Buyers cannot manage the catalog
	err = service.CreateProduct(ctx, buyer, newProduct)
	assert.ErrorIs(t, err, services.ErrForbidden)
	err = service.CreateProduct(ctx, models.Principal{}, newProduct)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
	mockRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewProductService(mockRepo, mockCategories)

	updatedProduct := &models.Product{ID: "1", CategoryID: "cat-1", Name: "Product A Updated", Slug: "a", Price: price("12"), Stock: 95}

	mockCategories.On("GetByID", "cat-1").Return(&models.Category{ID: "cat-1"}, nil)
	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	err := service.UpdateProduct(ctx, staff, updatedProduct)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	missing := &models.Product{ID: "99", CategoryID: "cat-1", Name: "NonExistent", Slug: "x", Price: price("1"), Stock: 1}
	mockRepo.On("Update", missing).Return(fmt.Errorf("product with ID 99 not found for update")).Once()
	err = service.UpdateProduct(ctx, staff, missing)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for update")
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	mockRepo.On("Delete", "1").Return(nil).Once()
	err := service.DeleteProduct(ctx, staff, "1")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	mockRepo.On("Delete", "99").Return(fmt.Errorf("product with ID 99 not found for deletion")).Once()
	err = service.DeleteProduct(ctx, staff, "99")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for deletion")
	mockRepo.AssertExpectations(t)
}

func TestProductService_AdjustStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	mockRepo.On("AdjustStock", "1", 5).Return(12, nil).Once()
	stock, err := service.AdjustStock(ctx, staff, "1", 5)
	assert.NoError(t, err)
	assert.Equal(t, 12, stock)

	mockRepo.On("AdjustStock", "1", -50).Return(0, fmt.Errorf("product 1: %w", repositories.ErrStockConflict)).Once()
	_, err = service.AdjustStock(ctx, staff, "1", -50)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
	mockRepo.AssertExpectations(t)
}

func TestCategoryService_Delete(t *testing.T) {
	mockCategories := new(MockCategoryRepository)
	service := services.NewCategoryService(mockCategories)

	mockCategories.On("CountProducts", "cat-1").Return(int64(3), nil).Once()
	err := service.Delete(ctx, staff, "cat-1")
	assert.ErrorIs(t, err, services.ErrCategoryInUse)

	mockCategories.On("CountProducts", "cat-2").Return(int64(0), nil).Once()
	mockCategories.On("Delete", "cat-2").Return(nil).Once()
	assert.NoError(t, service.Delete(ctx, staff, "cat-2"))
	mockCategories.AssertExpectations(t)
}

func TestCategoryService_CreateDuplicateSlug(t *testing.T) {
	mockCategories := new(MockCategoryRepository)
	service := services.NewCategoryService(mockCategories)

	category := &models.Category{Name: "Lampes de bureau"}
	mockCategories.On("Create", category).Return(fmt.Errorf("failed to create category: %w", repositories.ErrDuplicate)).Once()
	err := service.Create(ctx, staff, category)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Equal(t, "lampes-de-bureau", category.Slug)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "chaise-en-chêne", services.Slugify("  Chaise en Chêne! "))
	assert.Equal(t, "a-b", services.Slugify("a--b"))
	assert.Equal(t, "", services.Slugify("!!"))
}
