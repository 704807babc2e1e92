package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"go.uber.org/zap"
)

// CreateCategoryInput is a category as supplied by a caller
type CreateCategoryInput struct {
	ID     string  `json:"_id" validate:"required,notblank"`
	Parent *string `json:"parent,omitempty"`
}

// BatchResult is the outcome of one item of CreateBatch. Exactly one of
// Category and Err is set.
type BatchResult struct {
	Category *domain.Category
	Err      error
}

// CategoryService defines the interface for category tree operations
type CategoryService interface {
	Create(ctx context.Context, in CreateCategoryInput) (*domain.Category, error)
	CreateBatch(ctx context.Context, in []CreateCategoryInput) []BatchResult
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	ListByParent(ctx context.Context, parentID string) ([]*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	repo   repository.CategoryRepository
	logger *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(repo repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{
		repo:   repo,
		logger: logger,
	}
}

// Create stores a category with its ancestors path computed from the parent.
// The parent's stored path already is the walk from the root, so only one
// lookup is needed.
func (s *categoryService) Create(ctx context.Context, in CreateCategoryInput) (*domain.Category, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var parent *domain.Category
	if in.Parent != nil {
		p, err := s.repo.FindByID(ctx, *in.Parent)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, fmt.Errorf("parent %q: %w", *in.Parent, repository.ErrCategoryNotFound)
			}
			return nil, fmt.Errorf("failed to find parent category: %w", err)
		}
		parent = p
	}

	category := domain.NewCategory(in.ID, parent)
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Debug("Category created",
		zap.String("category_id", category.ID),
		zap.Strings("ancestors", category.Ancestors),
	)
	return category, nil
}

// CreateBatch creates categories in order. A parent resolves when it already
// exists or was created by an earlier item of the same batch.
func (s *categoryService) CreateBatch(ctx context.Context, in []CreateCategoryInput) []BatchResult {
	results := make([]BatchResult, len(in))
	for i, item := range in {
		category, err := s.Create(ctx, item)
		results[i] = BatchResult{Category: category, Err: err}
	}
	return results
}

func (s *categoryService) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *categoryService) ListByParent(ctx context.Context, parentID string) ([]*domain.Category, error) {
	return s.repo.ListByParent(ctx, parentID)
}

// Delete removes a single category. Descendants keep their stored paths.
func (s *categoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id))
	return nil
}
