package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
)

var (
	ErrFavoriteNotFound      = errors.New("favorite not found")
	ErrFavoriteAlreadyExists = errors.New("product already added to favorites")
)

// FavoriteRepository defines the interface for favorite data access
type FavoriteRepository interface {
	Add(ctx context.Context, userID, productID int64) (*domain.Favorite, error)
	Remove(ctx context.Context, userID, productID int64) error
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Favorite, error)
	ProductIDsByUser(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

type favoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new instance of FavoriteRepository
func NewFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add stores the (user, product) pair. Uniqueness is decided by the
// favorites_user_product_key constraint, so concurrent adds of the same
// pair yield one row and ErrFavoriteAlreadyExists for the others.
func (r *favoriteRepository) Add(ctx context.Context, userID, productID int64) (*domain.Favorite, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the product row so it cannot disappear between check and insert.
	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1 FOR SHARE`, productID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	favorite := &domain.Favorite{UserID: userID, ProductID: productID}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT favorites_user_product_key DO NOTHING
		RETURNING id, created_at
	`, userID, productID).Scan(&favorite.ID, &favorite.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFavoriteAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit favorite: %w", err)
	}

	return favorite, nil
}

// Remove deletes the (user, product) pair
func (r *favoriteRepository) Remove(ctx context.Context, userID, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrFavoriteNotFound
	}

	return nil
}

// Exists reports whether the user has favorited the product
func (r *favoriteRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// ListByUser retrieves the user's favorites, each joined with its product
func (r *favoriteRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Favorite, error) {
	query := `
		SELECT f.id, f.user_id, f.product_id, f.created_at,
		       p.id, p.name, p.description, p.image, p.price, p.color, p.size,
		       p.sold_count, p.category_id, p.created_at, p.updated_at
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []*domain.Favorite{}
	for rows.Next() {
		favorite := &domain.Favorite{Product: &domain.Product{}}
		p := favorite.Product
		var color, size sql.NullString
		err := rows.Scan(
			&favorite.ID,
			&favorite.UserID,
			&favorite.ProductID,
			&favorite.CreatedAt,
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Image,
			&p.Price,
			&color,
			&size,
			&p.SoldCount,
			&p.CategoryID,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		if color.Valid {
			p.Color = &color.String
		}
		if size.Valid {
			p.Size = &size.String
		}
		favorites = append(favorites, favorite)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	return favorites, nil
}

// ProductIDsByUser returns the set of product ids the user has favorited
func (r *favoriteRepository) ProductIDsByUser(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT product_id FROM favorites WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite product ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite product id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite product ids: %w", err)
	}

	return ids, nil
}
