package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catalog-api/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this id already exists")
)

// uniqueViolation is the Postgres SQLSTATE for duplicate keys
const uniqueViolation = "23505"

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	// ListByParent returns the direct children of parentID ordered by id
	ListByParent(ctx context.Context, parentID string) ([]*domain.Category, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a Postgres-backed CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category using parameterized queries
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	ancestors, err := json.Marshal(category.Ancestors)
	if err != nil {
		return fmt.Errorf("failed to encode ancestors: %w", err)
	}

	query := `
		INSERT INTO categories (id, parent, ancestors, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		category.ID,
		nullString(category.Parent),
		string(ancestors),
		category.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// FindByID retrieves a category by id
func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `
		SELECT id, parent, ancestors, created_at
		FROM categories
		WHERE id = $1
	`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// ListByParent retrieves the children of a category. The "C" collation keeps
// the ordering byte-wise regardless of the database locale.
func (r *categoryRepository) ListByParent(ctx context.Context, parentID string) ([]*domain.Category, error) {
	query := `
		SELECT id, parent, ancestors, created_at
		FROM categories
		WHERE parent = $1
		ORDER BY id COLLATE "C" ASC
	`

	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Delete removes a category. Children keep their stored ancestors.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func (r *categoryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		category  domain.Category
		parent    sql.NullString
		ancestors []byte
	)

	if err := row.Scan(&category.ID, &parent, &ancestors, &category.CreatedAt); err != nil {
		return nil, err
	}

	if parent.Valid {
		category.Parent = &parent.String
	}
	if err := json.Unmarshal(ancestors, &category.Ancestors); err != nil {
		return nil, fmt.Errorf("failed to decode ancestors: %w", err)
	}

	return &category, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
