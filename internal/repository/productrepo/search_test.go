package productrepo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
)

func normalized(t *testing.T, c domain.ProductCriteria) domain.ProductCriteria {
	t.Helper()
	require.NoError(t, c.Normalize(100))
	return c
}

func TestBuildSearchQuery_DefaultsSortByUpdatedDescWithIDTiebreaker(t *testing.T) {
	q := buildSearchQuery(normalized(t, domain.ProductCriteria{}), "en")

	assert.Equal(t, "SELECT p.id FROM products p ORDER BY p.updated_at DESC, p.id ASC LIMIT $1 OFFSET $2", q.Select)
	assert.Equal(t, []interface{}{domain.DefaultSearchLimit, 0}, q.SelectArg)
	assert.Equal(t, "SELECT COUNT(*) FROM products p", q.Count)
	assert.Empty(t, q.CountArg)
}

func TestBuildSearchQuery_FiltersAreCombinedWithAnd(t *testing.T) {
	min := decimal.RequireFromString("10")
	max := decimal.RequireFromString("50.5")
	c := normalized(t, domain.ProductCriteria{
		CategoryID: "cat-1",
		BrandID:    "brand-1",
		MinPrice:   &min,
		MaxPrice:   &max,
		Status:     domain.StatusActive,
		SortBy:     "price",
		Order:      "asc",
		Limit:      10,
		Offset:     20,
	})

	q := buildSearchQuery(c, "en")

	assert.Contains(t, q.Select, "pc.category_id = $1")
	assert.Contains(t, q.Select, "p.brand_id = $2")
	assert.Contains(t, q.Select, "p.price >= $3")
	assert.Contains(t, q.Select, "p.price <= $4")
	assert.Contains(t, q.Select, "p.status = $5")
	assert.Contains(t, q.Select, "ORDER BY p.price ASC, p.id ASC LIMIT $6 OFFSET $7")
	assert.Equal(t, []interface{}{"cat-1", "brand-1", "10", "50.5", "active", 10, 20}, q.SelectArg)
	assert.Equal(t, []interface{}{"cat-1", "brand-1", "10", "50.5", "active"}, q.CountArg)
	assert.NotContains(t, q.Count, "LIMIT")
}

func TestBuildSearchQuery_SearchEscapesWildcardsAndRespectsLanguage(t *testing.T) {
	c := normalized(t, domain.ProductCriteria{Search: "50%_off", Language: "fr"})

	q := buildSearchQuery(c, "en")

	assert.Contains(t, q.Select, "p.sku ILIKE $1")
	assert.Contains(t, q.Select, "st.language_code = $2")
	assert.Equal(t, `%50\%\_off%`, q.CountArg[0])
	assert.Equal(t, "fr", q.CountArg[1])
}

func TestBuildSearchQuery_NameSortJoinsTranslationOutsideCount(t *testing.T) {
	c := normalized(t, domain.ProductCriteria{SortBy: "name", Order: "asc", BrandID: "b"})

	q := buildSearchQuery(c, "en")

	assert.Contains(t, q.Select, "LEFT JOIN product_translations pt ON pt.product_id = p.id AND pt.language_code = $2")
	assert.Contains(t, q.Select, "ORDER BY pt.name ASC NULLS LAST, p.id ASC")
	assert.Equal(t, "en", q.SelectArg[1])
	assert.NotContains(t, q.Count, "JOIN")
	assert.Len(t, q.CountArg, 1)
}

func TestBuildSearchQuery_NameSortPrefersCriteriaLanguage(t *testing.T) {
	c := normalized(t, domain.ProductCriteria{SortBy: "name", Language: "fr"})

	q := buildSearchQuery(c, "en")

	assert.Equal(t, "fr", q.SelectArg[0])
	assert.Contains(t, q.Select, "pt.name DESC NULLS LAST")
}

func TestBuildSearchQuery_InStockOnlyCoversVariableProducts(t *testing.T) {
	c := normalized(t, domain.ProductCriteria{InStockOnly: true})

	q := buildSearchQuery(c, "en")

	assert.Contains(t, q.Count, "NOT p.track_stock")
	assert.Contains(t, q.Count, "NOT p.is_variable AND p.stock > 0")
	assert.Contains(t, q.Count, "sv.is_active AND (NOT sv.track_stock OR sv.stock > 0)")
}

func TestSnapshot_RestoreRelinksBackReferences(t *testing.T) {
	color := &domain.Attribute{ID: "a1", Code: "color", IsVariant: true}
	red := &domain.AttributeValue{ID: "v1", AttributeID: "a1", Value: "red", Attribute: color}
	color.Values = []*domain.AttributeValue{red}
	p := &domain.Product{ID: "p1", IsVariable: true}
	p.AddVariant(&domain.ProductVariant{ID: "pv1", SKU: "S-RED", AttributeValues: []*domain.AttributeValue{red}})

	s := newSnapshot(p)
	require.Len(t, s.Attributes, 1)
	assert.Nil(t, s.Attributes[0].Values)

	// simula o caminho pelo JSON, que perde as referências de volta
	p.Variants[0].Product = nil
	red.Attribute = nil

	restored := s.restore()
	assert.Same(t, restored, restored.Variants[0].Product)
	require.NotNil(t, restored.Variants[0].AttributeValues[0].Attribute)
	assert.Equal(t, "color", restored.Variants[0].AttributeValues[0].AttributeCode())
}
