package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrProductCategoryMissing is returned when a write references a
	// category that does not exist.
	ErrProductCategoryMissing = errors.New("product category does not exist")
)

// PopularLimit is the number of products on the popular list
const PopularLimit = 12

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error)
	Popular(ctx context.Context, limit int) ([]*domain.Product, error)
	SearchByName(ctx context.Context, query string) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, image, price, color, size, sold_count, category_id, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	product := &domain.Product{}
	var color, size sql.NullString
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Image,
		&product.Price,
		&color,
		&size,
		&product.SoldCount,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if color.Valid {
		product.Color = &color.String
	}
	if size.Valid {
		product.Size = &size.String
	}
	return product, nil
}

// Create inserts a new product and fills in the generated id, timestamps and
// the price as stored
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, image, price, color, size, sold_count, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, price, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Image,
		product.Price,
		product.Color,
		product.Size,
		product.SoldCount,
		product.CategoryID,
	).Scan(&product.ID, &product.Price, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductCategoryMissing
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, image = $4, price = $5,
		    color = $6, size = $7, category_id = $8
		WHERE id = $1
		RETURNING price, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Image,
		product.Price,
		product.Color,
		product.Size,
		product.CategoryID,
	).Scan(&product.Price, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if isForeignKeyViolation(err) {
			return ErrProductCategoryMissing
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product from the database
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Exists reports whether a product with the given ID is stored
func (r *productRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// List retrieves all products
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id ASC`
	return r.query(ctx, "list products", query)
}

// ListByCategory retrieves the products of one category
func (r *productRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category_id = $1 ORDER BY id ASC`
	return r.query(ctx, "list products by category", query, categoryID)
}

// Popular retrieves the best selling products, highest sold_count first
func (r *productRepository) Popular(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit <= 0 || limit > PopularLimit {
		limit = PopularLimit
	}
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sold_count DESC, id ASC LIMIT $1`
	return r.query(ctx, "list popular products", query, limit)
}

// SearchByName performs a case-insensitive substring match on the product name
func (r *productRepository) SearchByName(ctx context.Context, query string) ([]*domain.Product, error) {
	searchQuery := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY id ASC
	`
	return r.query(ctx, "search products", searchQuery, escapeLike(query))
}

func (r *productRepository) query(ctx context.Context, op, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
