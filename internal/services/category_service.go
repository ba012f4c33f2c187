package services

import (
	"context"
	"fmt"

	"boutique/internal/models"
	"boutique/internal/repositories"
)

// CategoryService handles the catalog categories.
type CategoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

// AdminList is List behind the back-office capability check.
func (s *CategoryService) AdminList(ctx context.Context, p models.Principal) ([]models.Category, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *CategoryService) Get(ctx context.Context, p models.Principal, id string) (*models.Category, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, p models.Principal, category *models.Category) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return conflictOnDuplicate(err)
	}
	return nil
}

func (s *CategoryService) Update(ctx context.Context, p models.Principal, category *models.Category) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return conflictOnDuplicate(err)
	}
	return nil
}

// Delete refuses to remove a category that still has products.
func (s *CategoryService) Delete(ctx context.Context, p models.Principal, id string) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	n, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("category %s has %d product(s): %w", id, n, ErrCategoryInUse)
	}
	return s.repo.Delete(ctx, id)
}
