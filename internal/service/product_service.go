package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateProvider supplies the exchange-rate snapshot used to derive USD prices
type RateProvider interface {
	Current() map[string]float64
}

// CreateProductInput describes a new product. The category is given either
// by id, in which case its stored path is copied, or as a ready snapshot.
type CreateProductInput struct {
	ID         string                   `json:"_id"`
	Name       string                   `json:"name"`
	Pictures   []string                 `json:"pictures"`
	Price      domain.Price             `json:"price"`
	CategoryID string                   `json:"categoryId"`
	Category   *domain.CategorySnapshot `json:"category"`
}

// PricePatch changes the amount, the currency, or both
type PricePatch struct {
	Amount   *float64         `json:"amount"`
	Currency *domain.Currency `json:"currency"`
}

// UpdateProductInput is a partial update; nil fields are left unchanged.
// It has the same shape as the create body.
type UpdateProductInput struct {
	Name       *string     `json:"name"`
	Pictures   *[]string   `json:"pictures"`
	Price      *PricePatch `json:"price"`
	CategoryID *string     `json:"categoryId"`
}

// SubtreeOptions controls FindByCategorySubtree ordering
type SubtreeOptions struct {
	SortByPriceDescending bool
}

// ProductService defines the interface for product catalog operations
type ProductService interface {
	Create(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in UpdateProductInput) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	FindByCategorySubtree(ctx context.Context, categoryID string, opts SubtreeOptions) ([]*domain.Product, error)
	SearchByText(ctx context.Context, query string) ([]*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	rates      RateProvider
	logger     *zap.Logger
	now        func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	rates RateProvider,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		rates:      rates,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *productService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	now := s.now()
	product := &domain.Product{
		ID:        in.ID,
		Name:      in.Name,
		Pictures:  slices.Clone(in.Pictures),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.Pictures == nil {
		product.Pictures = []string{}
	}

	switch {
	case in.CategoryID != "":
		snapshot, err := s.categorySnapshot(ctx, in.CategoryID)
		if err != nil {
			return nil, err
		}
		product.Category = snapshot
	case in.Category != nil:
		product.Category = domain.CategorySnapshot{
			ID:        in.Category.ID,
			Ancestors: slices.Clone(in.Category.Ancestors),
		}
	}
	if product.Category.Ancestors == nil {
		product.Category.Ancestors = []string{}
	}

	product.SetPrice(in.Price, s.rates.Current())

	if err := validateStruct(product); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.Float64("approximate_price_usd", product.Internal.ApproximatePriceUSD),
	)
	return product, nil
}

// Update applies a patch. The USD price is recomputed only when amount or
// currency changes, using the rates current at that moment.
func (s *productService) Update(ctx context.Context, id string, in UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Pictures != nil {
		product.Pictures = slices.Clone(*in.Pictures)
		if product.Pictures == nil {
			product.Pictures = []string{}
		}
	}
	if in.CategoryID != nil {
		snapshot, err := s.categorySnapshot(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		product.Category = snapshot
	}
	if p := in.Price; p != nil && (p.Amount != nil || p.Currency != nil) {
		price := product.Price
		if p.Amount != nil {
			price.Amount = *p.Amount
		}
		if p.Currency != nil {
			price.Currency = *p.Currency
		}
		product.SetPrice(price, s.rates.Current())
	}
	product.UpdatedAt = s.now()

	if err := validateStruct(product); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.String("product_id", product.ID))
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// FindByCategorySubtree returns products filed anywhere under categoryID.
// An unknown category yields an empty list.
func (s *productService) FindByCategorySubtree(ctx context.Context, categoryID string, opts SubtreeOptions) ([]*domain.Product, error) {
	order := repository.SortOrderAsc
	if opts.SortByPriceDescending {
		order = repository.SortOrderDesc
	}
	return s.products.FindByCategoryAncestor(ctx, categoryID, order)
}

func (s *productService) SearchByText(ctx context.Context, query string) ([]*domain.Product, error) {
	if len(repository.SearchTerms(query)) == 0 {
		return []*domain.Product{}, nil
	}
	return s.products.Search(ctx, query)
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

func (s *productService) categorySnapshot(ctx context.Context, categoryID string) (domain.CategorySnapshot, error) {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return domain.CategorySnapshot{}, fmt.Errorf("category %q: %w", categoryID, repository.ErrCategoryNotFound)
		}
		return domain.CategorySnapshot{}, fmt.Errorf("failed to find category: %w", err)
	}
	return category.Snapshot(), nil
}
