package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/storage"
)

// FavoriteService manages favorites and projects them onto product reads
type FavoriteService interface {
	Add(ctx context.Context, caller domain.Caller, productID int64) (*domain.Favorite, error)
	Remove(ctx context.Context, caller domain.Caller, productID int64) error
	List(ctx context.Context, caller domain.Caller) ([]*domain.Favorite, error)
	IsFavorited(ctx context.Context, userID, productID int64) (bool, error)
	Project(ctx context.Context, caller *domain.Caller, products []*domain.Product) ([]*domain.ProductView, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	disk         storage.Disk
}

// NewFavoriteService creates a new instance of FavoriteService
func NewFavoriteService(favoriteRepo repository.FavoriteRepository, disk storage.Disk) FavoriteService {
	return &favoriteService{favoriteRepo: favoriteRepo, disk: disk}
}

// Add favorites a product for the caller. A second add of the same pair
// returns ErrAlreadyFavorited; the store decides, not a prior read.
func (s *favoriteService) Add(ctx context.Context, caller domain.Caller, productID int64) (*domain.Favorite, error) {
	favorite, err := s.favoriteRepo.Add(ctx, caller.UserID, productID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, NewValidationError("product_id", MsgProductInvalid)
		case errors.Is(err, repository.ErrFavoriteAlreadyExists):
			return nil, ErrAlreadyFavorited
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	return favorite, nil
}

// Remove un-favorites a product. ErrNotFavorited when the pair is absent.
func (s *favoriteService) Remove(ctx context.Context, caller domain.Caller, productID int64) error {
	if err := s.favoriteRepo.Remove(ctx, caller.UserID, productID); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			return ErrNotFavorited
		}
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// List returns the caller's favorites with their products
func (s *favoriteService) List(ctx context.Context, caller domain.Caller) ([]*domain.Favorite, error) {
	favorites, err := s.favoriteRepo.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	for _, f := range favorites {
		if f.Product != nil && f.Product.Image != "" {
			f.Product.ImageURL = s.disk.URL(f.Product.Image)
		}
	}
	return favorites, nil
}

func (s *favoriteService) IsFavorited(ctx context.Context, userID, productID int64) (bool, error) {
	return s.favoriteRepo.Exists(ctx, userID, productID)
}

// Project wraps each product in a view flagged with the caller's favorite
// status. Anonymous callers see false everywhere and cost no query.
func (s *favoriteService) Project(ctx context.Context, caller *domain.Caller, products []*domain.Product) ([]*domain.ProductView, error) {
	var favorited map[int64]struct{}
	if caller != nil && len(products) > 0 {
		ids, err := s.favoriteRepo.ProductIDsByUser(ctx, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		favorited = ids
	}

	views := make([]*domain.ProductView, 0, len(products))
	for _, p := range products {
		_, ok := favorited[p.ID]
		views = append(views, &domain.ProductView{Product: *p, IsFavorite: ok})
	}
	return views, nil
}
