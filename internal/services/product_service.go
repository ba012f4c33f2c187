package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"boutique/internal/models"
	"boutique/internal/repositories"
)

const (
	// CatalogPageSize is the storefront listing page size.
	CatalogPageSize = 12
	relatedLimit    = 4
)

// CatalogQuery is a storefront listing request.
type CatalogQuery struct {
	CategorySlug string
	Query        string
	Sort         string
	Page         int
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
	}
}

// ListCatalog returns available products, optionally narrowed to one category and a search term.
func (s *ProductService) ListCatalog(ctx context.Context, q CatalogQuery) (*ProductPage, error) {
	filter := repositories.ProductFilter{
		Query:         q.Query,
		Sort:          q.Sort,
		OnlyAvailable: true,
		Page:          repositories.Page{Number: q.Page, Size: CatalogPageSize},
	}
	if q.CategorySlug != "" {
		category, err := s.categories.GetBySlug(ctx, q.CategorySlug)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = category.ID
	}
	return s.list(ctx, filter)
}

func (s *ProductService) list(ctx context.Context, filter repositories.ProductFilter) (*ProductPage, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := filter.Page.Number
	if page < 1 {
		page = 1
	}
	return &ProductPage{Products: products, Total: total, Page: page, PageSize: filter.Page.Size}, nil
}

// GetProductByID retrieves a single product by its ID, available or not.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetAvailableProduct hides unavailable products from the storefront.
func (s *ProductService) GetAvailableProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Available {
		return nil, fmt.Errorf("product %s is not available: %w", id, ErrNotFound)
	}
	return product, nil
}

// Related lists a few other available products of the same category.
func (s *ProductService) Related(ctx context.Context, product *models.Product) ([]models.Product, error) {
	return s.repo.Related(ctx, product, relatedLimit)
}

// AdminListProducts lists every product, available or not.
func (s *ProductService) AdminListProducts(ctx context.Context, p models.Principal, filter repositories.ProductFilter) (*ProductPage, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	filter.OnlyAvailable = false
	return s.list(ctx, filter)
}

// AdminGetProduct returns any product, available or not, to the back office.
func (s *ProductService) AdminGetProduct(ctx context.Context, p models.Principal, id string) (*models.Product, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, p models.Principal, product *models.Product) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	if err := s.checkProduct(ctx, product); err != nil {
		return err
	}
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	}
	return s.repo.Create(ctx, product)
}

// UpdateProduct updates the descriptive fields, price and availability of a product.
func (s *ProductService) UpdateProduct(ctx context.Context, p models.Principal, product *models.Product) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	if err := s.checkProduct(ctx, product); err != nil {
		return err
	}
	return s.repo.Update(ctx, product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, p models.Principal, id string) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AdjustStock adds delta (possibly negative) to the stock and returns the new level.
func (s *ProductService) AdjustStock(ctx context.Context, p models.Principal, id string, delta int) (int, error) {
	if err := requireStaff(p); err != nil {
		return 0, err
	}
	stock, err := s.repo.AdjustStock(ctx, id, delta)
	if errors.Is(err, repositories.ErrStockConflict) {
		return 0, fmt.Errorf("cannot remove %d units from product %s: %w", -delta, id, ErrInsufficientStock)
	}
	return stock, err
}

func (s *ProductService) checkProduct(ctx context.Context, product *models.Product) error {
	if !product.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if _, err := s.categories.GetByID(ctx, product.CategoryID); err != nil {
		return err
	}
	if product.Slug == "" {
		product.Slug = Slugify(product.Name)
	}
	return nil
}

// Slugify lowercases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}
