package service

import (
	"context"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/storage"

	"go.uber.org/zap"
)

// CategoryService defines the interface for category business logic
type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, name string, image Upload) (*domain.Category, error)
	Update(ctx context.Context, id int64, patch domain.CategoryPatch, image *Upload) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	images       imageStore
	logger       *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository, disk storage.Disk, logger *zap.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		images:       imageStore{disk: disk, dir: storage.CategoryDir, logger: logger},
		logger:       logger,
	}
}

// List returns every category
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	for _, c := range categories {
		s.withURL(c)
	}
	return categories, nil
}

// Get returns one category
func (s *categoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return s.withURL(category), nil
}

// Create stores the image and then the row. The image is removed again if
// the row cannot be written.
func (s *categoryService) Create(ctx context.Context, name string, image Upload) (*domain.Category, error) {
	key, err := s.images.save(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to store category image: %w", err)
	}

	category := &domain.Category{Name: name, Image: key}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		s.images.discard(ctx, key)
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("Category created", zap.Int64("category_id", category.ID))
	return s.withURL(category), nil
}

// Update renames the category and optionally replaces its image
func (s *categoryService) Update(ctx context.Context, id int64, patch domain.CategoryPatch, image *Upload) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	previous := category.Image
	if image != nil {
		key, err := s.images.save(ctx, *image)
		if err != nil {
			return nil, fmt.Errorf("failed to store category image: %w", err)
		}
		patch.Image = &key
	}

	category.Name = patch.Name
	if patch.Image != nil {
		category.Image = *patch.Image
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if image != nil {
			s.images.discard(ctx, category.Image)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	if image != nil && previous != category.Image {
		s.images.discard(ctx, previous)
	}
	return s.withURL(category), nil
}

// Delete removes the category, its products (by cascade) and its own image
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.images.discard(ctx, category.Image)
	s.logger.Info("Category deleted", zap.Int64("category_id", id))
	return nil
}

func (s *categoryService) withURL(category *domain.Category) *domain.Category {
	category.ImageURL = s.images.url(category.Image)
	return category
}
