package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"catalog-api/internal/domain"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product with this id already exists")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindByIDs returns the products that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
	// FindByCategoryAncestor returns products whose category ancestors contain
	// categoryID, ordered by price amount then name ascending
	FindByCategoryAncestor(ctx context.Context, categoryID string, order SortOrder) ([]*domain.Product, error)
	// Search runs a case-insensitive full-text match on name, most relevant first
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	Ping(ctx context.Context) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a Postgres-backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `
	id, name, pictures, price_amount, price_currency, approximate_price_usd,
	category_id, category_ancestors, created_at, updated_at
`

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	pictures, ancestors, err := encodeProductDocuments(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		pictures,
		product.Price.Amount,
		string(product.Price.Currency),
		product.Internal.ApproximatePriceUSD,
		nullIfEmpty(product.Category.ID),
		ancestors,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update replaces an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	pictures, ancestors, err := encodeProductDocuments(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, pictures = $3, price_amount = $4, price_currency = $5,
		    approximate_price_usd = $6, category_id = $7, category_ancestors = $8,
		    updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		pictures,
		product.Price.Amount,
		string(product.Price.Currency),
		product.Internal.ApproximatePriceUSD,
		nullIfEmpty(product.Category.ID),
		ancestors,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
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

// Delete removes a product
func (r *productRepository) Delete(ctx context.Context, id string) error {
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

// FindByID retrieves a product by id
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
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

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	encoded, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ids: %w", err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id IN (SELECT jsonb_array_elements_text($1::jsonb))
	`

	return r.queryProducts(ctx, "find products by IDs", query, string(encoded))
}

// FindByCategoryAncestor uses JSONB containment on the embedded ancestors path
func (r *productRepository) FindByCategoryAncestor(ctx context.Context, categoryID string, order SortOrder) ([]*domain.Product, error) {
	if order != SortOrderAsc && order != SortOrderDesc {
		order = SortOrderAsc
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE category_ancestors @> jsonb_build_array($1::text)
		ORDER BY price_amount %s, name COLLATE "C" ASC
	`, productColumns, order)

	return r.queryProducts(ctx, "list products by category", query, categoryID)
}

// Search matches any query term against the generated tsvector on name
func (r *productRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	terms := SearchTerms(query)
	if len(terms) == 0 {
		return []*domain.Product{}, nil
	}

	tsQuery := strings.Join(terms, " | ")

	searchQuery := `
		SELECT ` + productColumns + `
		FROM products
		WHERE search_vector @@ to_tsquery('simple', $1)
		ORDER BY ts_rank(search_vector, to_tsquery('simple', $1)) DESC, name COLLATE "C" ASC
	`

	return r.queryProducts(ctx, "search products", searchQuery, tsQuery)
}

func (r *productRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *productRepository) queryProducts(ctx context.Context, op, query string, args ...any) ([]*domain.Product, error) {
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

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product    domain.Product
		pictures   []byte
		currency   string
		categoryID sql.NullString
		ancestors  []byte
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&pictures,
		&product.Price.Amount,
		&currency,
		&product.Internal.ApproximatePriceUSD,
		&categoryID,
		&ancestors,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Price.Currency = domain.Currency(currency)
	product.Category.ID = categoryID.String

	if err := json.Unmarshal(pictures, &product.Pictures); err != nil {
		return nil, fmt.Errorf("failed to decode pictures: %w", err)
	}
	if err := json.Unmarshal(ancestors, &product.Category.Ancestors); err != nil {
		return nil, fmt.Errorf("failed to decode category ancestors: %w", err)
	}

	return &product, nil
}

func encodeProductDocuments(product *domain.Product) (pictures, ancestors string, err error) {
	pics := product.Pictures
	if pics == nil {
		pics = []string{}
	}
	p, err := json.Marshal(pics)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode pictures: %w", err)
	}

	anc := product.Category.Ancestors
	if anc == nil {
		anc = []string{}
	}
	a, err := json.Marshal(anc)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode category ancestors: %w", err)
	}

	return string(p), string(a), nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
