package repository

import (
	"context"
	"testing"
	"time"

	"catalog-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The contract suites run against every adapter. Each factory must return
// repositories over empty storage.

func seedCategories(t *testing.T, repo CategoryRepository) {
	t.Helper()
	ctx := context.Background()

	electronics := domain.NewCategory("Electronics", nil)
	for _, c := range []*domain.Category{
		electronics,
		domain.NewCategory("Phones", electronics),
		domain.NewCategory("Laptops", electronics),
		domain.NewCategory("Bacon", nil),
	} {
		require.NoError(t, repo.Create(ctx, c))
	}
}

func testProduct(id, name string, amount float64, category CategorySeed) *domain.Product {
	now := time.Now().UTC().Truncate(time.Millisecond)
	p := &domain.Product{
		ID:        id,
		Name:      name,
		Pictures:  []string{"http://example.com/" + id + ".png"},
		Category:  domain.CategorySnapshot{ID: category.ID, Ancestors: category.Ancestors},
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.SetPrice(domain.Price{Amount: amount, Currency: domain.CurrencyUSD}, map[string]float64{"USD": 1})
	return p
}

// CategorySeed is the category part of a product fixture
type CategorySeed struct {
	ID        string
	Ancestors []string
}

func seedProducts(t *testing.T, repo ProductRepository) {
	t.Helper()
	ctx := context.Background()

	for _, p := range []*domain.Product{
		testProduct("p-lg", "LG G4", 300, CategorySeed{"Phones", []string{"Electronics", "Phones"}}),
		testProduct("p-asus", "Asus Zenbook Prime", 2000, CategorySeed{"Laptops", []string{"Electronics", "Laptops"}}),
		testProduct("p-bacon", "Flying Pigs Farm Pasture Raised Pork Bacon", 20, CategorySeed{"Bacon", []string{"Bacon"}}),
	} {
		require.NoError(t, repo.Create(ctx, p))
	}
}

func productNames(products []*domain.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func runCategoryRepositoryContract(t *testing.T, newRepo func(t *testing.T) CategoryRepository) {
	ctx := context.Background()

	t.Run("create then find returns identical path", func(t *testing.T) {
		repo := newRepo(t)
		seedCategories(t, repo)

		got, err := repo.FindByID(ctx, "Phones")
		require.NoError(t, err)
		assert.Equal(t, "Phones", got.ID)
		require.NotNil(t, got.Parent)
		assert.Equal(t, "Electronics", *got.Parent)
		assert.Equal(t, []string{"Electronics", "Phones"}, got.Ancestors)

		root, err := repo.FindByID(ctx, "Bacon")
		require.NoError(t, err)
		assert.Nil(t, root.Parent)
		assert.Equal(t, []string{"Bacon"}, root.Ancestors)
	})

	t.Run("missing category is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindByID(ctx, "Nope")
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, domain.NewCategory("Electronics", nil)))
		err := repo.Create(ctx, domain.NewCategory("Electronics", nil))
		assert.ErrorIs(t, err, ErrCategoryAlreadyExists)
	})

	t.Run("list by parent is ordered by id", func(t *testing.T) {
		repo := newRepo(t)
		seedCategories(t, repo)

		children, err := repo.ListByParent(ctx, "Electronics")
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "Laptops", children[0].ID)
		assert.Equal(t, "Phones", children[1].ID)

		none, err := repo.ListByParent(ctx, "Bacon")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("delete removes only the category", func(t *testing.T) {
		repo := newRepo(t)
		seedCategories(t, repo)

		require.NoError(t, repo.Delete(ctx, "Electronics"))
		_, err := repo.FindByID(ctx, "Electronics")
		assert.ErrorIs(t, err, ErrCategoryNotFound)

		phones, err := repo.FindByID(ctx, "Phones")
		require.NoError(t, err)
		assert.Equal(t, []string{"Electronics", "Phones"}, phones.Ancestors)

		assert.ErrorIs(t, repo.Delete(ctx, "Electronics"), ErrCategoryNotFound)
	})
}

func runProductRepositoryContract(t *testing.T, newRepo func(t *testing.T) ProductRepository) {
	ctx := context.Background()

	t.Run("create then find round trips", func(t *testing.T) {
		repo := newRepo(t)
		p := testProduct("p-1", "LG G4", 300, CategorySeed{"Phones", []string{"Electronics", "Phones"}})
		p.SetPrice(domain.Price{Amount: 330, Currency: domain.CurrencyEUR}, map[string]float64{"EUR": 1.1})
		require.NoError(t, repo.Create(ctx, p))

		got, err := repo.FindByID(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
		assert.Equal(t, p.Pictures, got.Pictures)
		assert.Equal(t, p.Price, got.Price)
		assert.InDelta(t, 300, got.Internal.ApproximatePriceUSD, 1e-9)
		assert.Equal(t, p.Category, got.Category)
		assert.Equal(t, "€330", got.DisplayPrice())
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		repo := newRepo(t)
		p := testProduct("p-1", "LG G4", 300, CategorySeed{})
		require.NoError(t, repo.Create(ctx, p))
		assert.ErrorIs(t, repo.Create(ctx, p), ErrProductAlreadyExists)
	})

	t.Run("update and delete", func(t *testing.T) {
		repo := newRepo(t)
		p := testProduct("p-1", "LG G4", 300, CategorySeed{"Phones", []string{"Electronics", "Phones"}})
		require.NoError(t, repo.Create(ctx, p))

		p.Name = "LG G5"
		p.SetPrice(domain.Price{Amount: 150, Currency: domain.CurrencyGBP}, map[string]float64{"GBP": 1.5})
		require.NoError(t, repo.Update(ctx, p))

		got, err := repo.FindByID(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "LG G5", got.Name)
		assert.Equal(t, domain.CurrencyGBP, got.Price.Currency)
		assert.InDelta(t, 100, got.Internal.ApproximatePriceUSD, 1e-9)

		require.NoError(t, repo.Delete(ctx, "p-1"))
		_, err = repo.FindByID(ctx, "p-1")
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "p-1"), ErrProductNotFound)
		assert.ErrorIs(t, repo.Update(ctx, p), ErrProductNotFound)
	})

	t.Run("subtree query honours order", func(t *testing.T) {
		repo := newRepo(t)
		seedProducts(t, repo)

		asc, err := repo.FindByCategoryAncestor(ctx, "Electronics", SortOrderAsc)
		require.NoError(t, err)
		assert.Equal(t, []string{"LG G4", "Asus Zenbook Prime"}, productNames(asc))

		desc, err := repo.FindByCategoryAncestor(ctx, "Electronics", SortOrderDesc)
		require.NoError(t, err)
		assert.Equal(t, []string{"Asus Zenbook Prime", "LG G4"}, productNames(desc))

		leaf, err := repo.FindByCategoryAncestor(ctx, "Phones", SortOrderAsc)
		require.NoError(t, err)
		assert.Equal(t, []string{"LG G4"}, productNames(leaf))

		none, err := repo.FindByCategoryAncestor(ctx, "Furniture", SortOrderAsc)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("equal prices are ordered by name", func(t *testing.T) {
		repo := newRepo(t)
		cat := CategorySeed{"Phones", []string{"Electronics", "Phones"}}
		require.NoError(t, repo.Create(ctx, testProduct("p-b", "Nexus", 100, cat)))
		require.NoError(t, repo.Create(ctx, testProduct("p-a", "Moto", 100, cat)))

		for _, order := range []SortOrder{SortOrderAsc, SortOrderDesc} {
			got, err := repo.FindByCategoryAncestor(ctx, "Electronics", order)
			require.NoError(t, err)
			assert.Equal(t, []string{"Moto", "Nexus"}, productNames(got))
		}
	})

	t.Run("text search matches tokens case-insensitively", func(t *testing.T) {
		repo := newRepo(t)
		seedProducts(t, repo)

		got, err := repo.Search(ctx, "asus")
		require.NoError(t, err)
		assert.Equal(t, []string{"Asus Zenbook Prime"}, productNames(got))

		got, err = repo.Search(ctx, "BACON")
		require.NoError(t, err)
		assert.Equal(t, []string{"Flying Pigs Farm Pasture Raised Pork Bacon"}, productNames(got))

		got, err = repo.Search(ctx, "asus g4")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Asus Zenbook Prime", "LG G4"}, productNames(got))

		got, err = repo.Search(ctx, "toaster")
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = repo.Search(ctx, "  !! ")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("text search matches whole words without stemming or stop words", func(t *testing.T) {
		repo := newRepo(t)
		seedProducts(t, repo)
		require.NoError(t, repo.Create(ctx, testProduct("p-book", "The Joy of Bacon", 30, CategorySeed{"Bacon", []string{"Bacon"}})))

		got, err := repo.Search(ctx, "the")
		require.NoError(t, err)
		assert.Equal(t, []string{"The Joy of Bacon"}, productNames(got))

		for _, stem := range []string{"pig", "raise", "farming"} {
			got, err = repo.Search(ctx, stem)
			require.NoError(t, err)
			assert.Empty(t, got, "query %q", stem)
		}
	})

	t.Run("find by ids skips unknown ids", func(t *testing.T) {
		repo := newRepo(t)
		seedProducts(t, repo)

		got, err := repo.FindByIDs(ctx, []string{"p-lg", "missing", "p-bacon"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"LG G4", "Flying Pigs Farm Pasture Raised Pork Bacon"}, productNames(got))

		got, err = repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
