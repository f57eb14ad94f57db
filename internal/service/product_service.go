package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductInput holds the fields of a new product
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Color       *string
	Size        *string
	CategoryID  int64
}

// ProductService defines the interface for product business logic. Reads
// take an optional caller and return views carrying is_favorite.
type ProductService interface {
	List(ctx context.Context, caller *domain.Caller) ([]*domain.ProductView, error)
	Get(ctx context.Context, caller *domain.Caller, id int64) (*domain.ProductView, error)
	Popular(ctx context.Context, caller *domain.Caller) ([]*domain.ProductView, error)
	ByCategory(ctx context.Context, caller *domain.Caller, categoryID int64) ([]*domain.ProductView, error)
	Search(ctx context.Context, caller *domain.Caller, query string) ([]*domain.ProductView, error)
	Create(ctx context.Context, input ProductInput, image Upload) (*domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch, image *Upload) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	favorites    FavoriteService
	images       imageStore
	logger       *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	favorites FavoriteService,
	disk storage.Disk,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		favorites:    favorites,
		images:       imageStore{disk: disk, dir: storage.ProductDir, logger: logger},
		logger:       logger,
	}
}

func (s *productService) List(ctx context.Context, caller *domain.Caller) ([]*domain.ProductView, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return s.project(ctx, caller, products)
}

func (s *productService) Get(ctx context.Context, caller *domain.Caller, id int64) (*domain.ProductView, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	views, err := s.project(ctx, caller, []*domain.Product{product})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// Popular returns at most repository.PopularLimit products by sold count
func (s *productService) Popular(ctx context.Context, caller *domain.Caller) ([]*domain.ProductView, error) {
	products, err := s.productRepo.Popular(ctx, repository.PopularLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list popular products: %w", err)
	}
	return s.project(ctx, caller, products)
}

// ByCategory lists a category's products, each embedding the category
func (s *productService) ByCategory(ctx context.Context, caller *domain.Caller, categoryID int64) ([]*domain.ProductView, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	category.ImageURL = s.images.url(category.Image)

	products, err := s.productRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category products: %w", err)
	}

	views, err := s.project(ctx, caller, products)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		v.Category = category
	}
	return views, nil
}

// Search matches query case-insensitively anywhere in the product name
func (s *productService) Search(ctx context.Context, caller *domain.Caller, query string) ([]*domain.ProductView, error) {
	products, err := s.productRepo.SearchByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return s.project(ctx, caller, products)
}

func (s *productService) Create(ctx context.Context, input ProductInput, image Upload) (*domain.Product, error) {
	if err := s.requireCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	key, err := s.images.save(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to store product image: %w", err)
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Image:       key,
		Price:       input.Price,
		Color:       input.Color,
		Size:        input.Size,
		CategoryID:  input.CategoryID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		s.images.discard(ctx, key)
		if errors.Is(err, repository.ErrProductCategoryMissing) {
			return nil, NewValidationError("category_id", MsgCategoryInvalid)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return s.withURL(product), nil
}

// Update applies the fields present in patch. A new image replaces the
// stored one, which is removed once the row points at the new file.
func (s *productService) Update(ctx context.Context, id int64, patch domain.ProductPatch, image *Upload) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if patch.CategoryID != nil && *patch.CategoryID != product.CategoryID {
		if err := s.requireCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}

	previous := product.Image
	if image != nil {
		key, err := s.images.save(ctx, *image)
		if err != nil {
			return nil, fmt.Errorf("failed to store product image: %w", err)
		}
		patch.Image = &key
	}

	if patch.Empty() {
		return s.withURL(product), nil
	}
	patch.Apply(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if image != nil {
			s.images.discard(ctx, product.Image)
		}
		if errors.Is(err, repository.ErrProductCategoryMissing) {
			return nil, NewValidationError("category_id", MsgCategoryInvalid)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if image != nil && previous != product.Image {
		s.images.discard(ctx, previous)
	}
	return s.withURL(product), nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.images.discard(ctx, product.Image)
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *productService) requireCategory(ctx context.Context, categoryID int64) error {
	exists, err := s.categoryRepo.Exists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return NewValidationError("category_id", MsgCategoryInvalid)
	}
	return nil
}

func (s *productService) project(ctx context.Context, caller *domain.Caller, products []*domain.Product) ([]*domain.ProductView, error) {
	for _, p := range products {
		s.withURL(p)
	}
	return s.favorites.Project(ctx, caller, products)
}

func (s *productService) withURL(product *domain.Product) *domain.Product {
	product.ImageURL = s.images.url(product.Image)
	return product
}
