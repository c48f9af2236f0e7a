package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmendes/storefront-api/internal/domain"
)

func TestBuildListQuery(t *testing.T) {
	t.Run("no filter lists in insertion order", func(t *testing.T) {
		query, args := buildListQuery(domain.ProductFilter{})

		assert.Empty(t, args)
		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "ORDER BY created_at")
	})

	t.Run("category filter", func(t *testing.T) {
		query, args := buildListQuery(domain.ProductFilter{Category: "Electronics"})

		assert.Contains(t, query, "category = $1")
		require.Len(t, args, 1)
		assert.Equal(t, "Electronics", args[0])
	})

	t.Run("search matches name and description", func(t *testing.T) {
		query, args := buildListQuery(domain.ProductFilter{Search: "headphones"})

		assert.Contains(t, query, "name ILIKE $1 OR description ILIKE $1")
		require.Len(t, args, 1)
		assert.Equal(t, "%headphones%", args[0])
	})

	t.Run("all filters combined with AND", func(t *testing.T) {
		minPrice := decimal.NewFromInt(10)
		maxPrice := decimal.NewFromInt(100)
		minRating := decimal.NewFromFloat(4.0)

		query, args := buildListQuery(domain.ProductFilter{
			Category:  "Books",
			Search:    "go",
			MinPrice:  &minPrice,
			MaxPrice:  &maxPrice,
			MinRating: &minRating,
		})

		assert.Equal(t, 4, strings.Count(query, " AND "))
		assert.Len(t, args, 5)
	})

	t.Run("sort overrides default ordering", func(t *testing.T) {
		query, _ := buildListQuery(domain.ProductFilter{Sort: domain.SortPriceDesc})
		assert.Contains(t, query, "ORDER BY price DESC")
		assert.NotContains(t, query, "created_at")

		query, _ = buildListQuery(domain.ProductFilter{Sort: domain.SortRatingDesc})
		assert.Contains(t, query, "ORDER BY rating DESC")
	})
}

func TestCacheNilSafe(t *testing.T) {
	var c *Cache

	_, ok := c.Get(t.Context(), "p-1")
	assert.False(t, ok)

	// Set and Invalidate on a nil cache must not panic.
	c.Set(t.Context(), &domain.Product{ID: "p-1"})
	c.Invalidate(t.Context(), "p-1", "p-2")
}
