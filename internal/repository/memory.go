package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"catalog-api/internal/domain"
)

// MemCategoryRepository keeps categories in process memory. It backs tests
// and STORE_DRIVER=memory.
type MemCategoryRepository struct {
	mu sync.RWMutex
	m  map[string]domain.Category
}

func NewMemCategoryRepository() *MemCategoryRepository {
	return &MemCategoryRepository{m: map[string]domain.Category{}}
}

func (s *MemCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[category.ID]; ok {
		return ErrCategoryAlreadyExists
	}
	s.m[category.ID] = cloneCategory(*category)
	return nil
}

func (s *MemCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.m[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	out := cloneCategory(c)
	return &out, nil
}

func (s *MemCategoryRepository) ListByParent(ctx context.Context, parentID string) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Category{}
	for _, c := range s.m {
		if c.Parent != nil && *c.Parent == parentID {
			cc := cloneCategory(c)
			out = append(out, &cc)
		}
	}

	slices.SortFunc(out, func(a, b *domain.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemCategoryRepository) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *MemCategoryRepository) Ping(ctx context.Context) error { return nil }

// MemProductRepository keeps products in process memory
type MemProductRepository struct {
	mu sync.RWMutex
	m  map[string]domain.Product
}

func NewMemProductRepository() *MemProductRepository {
	return &MemProductRepository{m: map[string]domain.Product{}}
}

func (s *MemProductRepository) Create(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[product.ID]; ok {
		return ErrProductAlreadyExists
	}
	s.m[product.ID] = cloneProduct(*product)
	return nil
}

func (s *MemProductRepository) Update(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[product.ID]; !ok {
		return ErrProductNotFound
	}
	s.m[product.ID] = cloneProduct(*product)
	return nil
}

func (s *MemProductRepository) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *MemProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (s *MemProductRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Product{}
	for _, id := range ids {
		if p, ok := s.m[id]; ok {
			pp := cloneProduct(p)
			out = append(out, &pp)
		}
	}
	return out, nil
}

func (s *MemProductRepository) FindByCategoryAncestor(ctx context.Context, categoryID string, order SortOrder) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Product{}
	for _, p := range s.m {
		if p.Category.InSubtree(categoryID) {
			pp := cloneProduct(p)
			out = append(out, &pp)
		}
	}

	slices.SortFunc(out, func(a, b *domain.Product) int {
		c := cmp.Compare(a.Price.Amount, b.Price.Amount)
		if order == SortOrderDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *MemProductRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	terms := SearchTerms(query)
	if len(terms) == 0 {
		return []*domain.Product{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		product *domain.Product
		score   int
	}

	hits := []hit{}
	for _, p := range s.m {
		if score := matchScore(p.Name, terms); score > 0 {
			pp := cloneProduct(p)
			hits = append(hits, hit{product: &pp, score: score})
		}
	}

	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.product.Name, b.product.Name)
	})

	out := make([]*domain.Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.product)
	}
	return out, nil
}

func (s *MemProductRepository) Ping(ctx context.Context) error { return nil }

func cloneCategory(c domain.Category) domain.Category {
	if c.Parent != nil {
		parent := *c.Parent
		c.Parent = &parent
	}
	c.Ancestors = slices.Clone(c.Ancestors)
	return c
}

func cloneProduct(p domain.Product) domain.Product {
	p.Pictures = slices.Clone(p.Pictures)
	p.Category.Ancestors = slices.Clone(p.Category.Ancestors)
	return p
}
