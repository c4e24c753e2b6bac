package product_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/api/product"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) SaveProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	args := m.Called(ctx, id, in)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductService) DeleteVariant(ctx context.Context, id, sku string) (*domain.Product, error) {
	args := m.Called(ctx, id, sku)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductService) ResolveProduct(ctx context.Context, id, lang string) (domain.ProductView, error) {
	args := m.Called(ctx, id, lang)
	return args.Get(0).(domain.ProductView), args.Error(1)
}

func (m *MockProductService) ResolveVariant(ctx context.Context, id string, valueIDs []string, lang string) (domain.VariantView, error) {
	args := m.Called(ctx, id, valueIDs, lang)
	return args.Get(0).(domain.VariantView), args.Error(1)
}

func (m *MockProductService) TranslationStatus(ctx context.Context, id string) ([]domain.TranslationStatus, error) {
	args := m.Called(ctx, id)
	st, _ := args.Get(0).([]domain.TranslationStatus)
	return st, args.Error(1)
}

func (m *MockProductService) DuplicateTranslation(ctx context.Context, id, from, to string) (domain.ProductTranslation, error) {
	args := m.Called(ctx, id, from, to)
	return args.Get(0).(domain.ProductTranslation), args.Error(1)
}

func (m *MockProductService) RemoveTranslation(ctx context.Context, id, lang string) error {
	return m.Called(ctx, id, lang).Error(0)
}

func (m *MockProductService) CreateMissingTranslations(ctx context.Context, lang, source string) (int, error) {
	args := m.Called(ctx, lang, source)
	return args.Int(0), args.Error(1)
}

func (m *MockProductService) SearchProducts(ctx context.Context, c domain.ProductCriteria) (domain.ProductPage, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.ProductPage), args.Error(1)
}

func newMux(svc *MockProductService) *http.ServeMux {
	h := product.NewHandler(svc, logger.NewLogger("error"))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/products", h.CreateProductHandler)
	mux.HandleFunc("GET /v1/products", h.SearchProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProductHandler)
	mux.HandleFunc("POST /v1/products/{id}/variant-lookup", h.VariantLookupHandler)
	mux.HandleFunc("DELETE /v1/products/{id}/translations/{lang}", h.RemoveTranslationHandler)
	mux.HandleFunc("DELETE /v1/products/{id}/variants/{sku}", h.DeleteVariantHandler)
	return mux
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var body domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestCreateProductHandler_Created(t *testing.T) {
	svc := new(MockProductService)
	svc.On("SaveProduct", mock.Anything, "", mock.MatchedBy(func(in domain.ProductInput) bool {
		return in.SKU == "MUG-1" && in.Translations["en"].Name == "Mug"
	})).Return(&domain.Product{ID: "p1", SKU: "MUG-1"}, nil)

	body := `{"sku":"MUG-1","price":"10.00","translations":{"en":{"name":"Mug"}}}`
	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku":"MUG-1"`)
	svc.AssertExpectations(t)
}

func TestCreateProductHandler_ViolationsInBody(t *testing.T) {
	svc := new(MockProductService)
	svc.On("SaveProduct", mock.Anything, "", mock.Anything).
		Return(nil, apperror.NewValidationError("produto 'X' inválido", "o preço é obrigatório", "o slug é obrigatório"))

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(`{"sku":"X"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Category)
	assert.Equal(t, []string{"o preço é obrigatório", "o slug é obrigatório"}, body.Violations)
}

func TestCreateProductHandler_MalformedJSON(t *testing.T) {
	svc := new(MockProductService)

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(`{"sku":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProductHandler_PassesLanguage(t *testing.T) {
	svc := new(MockProductService)
	svc.On("ResolveProduct", mock.Anything, "p1", "fr").Return(domain.ProductView{ID: "p1", Language: "fr", Name: "Tasse"}, nil)

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/products/p1?lang=fr", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Tasse"`)
}

func TestGetProductHandler_NotFound(t *testing.T) {
	svc := new(MockProductService)
	svc.On("ResolveProduct", mock.Anything, "p1", "").Return(domain.ProductView{}, apperror.NewNotFoundError("produto 'p1'"))

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/products/p1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Category)
}

func TestVariantLookupHandler_AmbiguousIsConsistencyError(t *testing.T) {
	svc := new(MockProductService)
	svc.On("ResolveVariant", mock.Anything, "p1", []string{"red"}, "en").
		Return(domain.VariantView{}, apperror.NewConsistencyError("combinação ambígua"))

	rec := httptest.NewRecorder()
	body := `{"attribute_value_ids":["red"],"lang":"en"}`
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/products/p1/variant-lookup", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "CONSISTENCY_ERROR", resp.Category)
	assert.NotContains(t, resp.Message, "ambígua")
}

func TestSearchProductsHandler_ParsesCriteria(t *testing.T) {
	svc := new(MockProductService)
	minPrice := decimal.RequireFromString("10.5")
	svc.On("SearchProducts", mock.Anything, mock.MatchedBy(func(c domain.ProductCriteria) bool {
		return c.Search == "mug" && c.SortBy == "price" && c.Order == "asc" &&
			c.MinPrice != nil && c.MinPrice.Equal(minPrice) && c.MaxPrice == nil &&
			c.InStockOnly && c.Limit == 5 && c.Offset == 10 && c.Language == "fr"
	})).Return(domain.ProductPage{Items: []*domain.Product{}, Total: 0, Limit: 5, Offset: 10}, nil)

	rec := httptest.NewRecorder()
	url := "/v1/products?search=mug&sort=price&order=asc&min_price=10.5&in_stock=true&limit=5&offset=10&lang=fr"
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestSearchProductsHandler_InvalidPrice(t *testing.T) {
	svc := new(MockProductService)

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/products?min_price=cheap", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything)
}

func TestRemoveTranslationHandler_NoContent(t *testing.T) {
	svc := new(MockProductService)
	svc.On("RemoveTranslation", mock.Anything, "p1", "fr").Return(nil)

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/products/p1/translations/fr", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestRemoveTranslationHandler_LastTranslationIsBadRequest(t *testing.T) {
	svc := new(MockProductService)
	svc.On("RemoveTranslation", mock.Anything, "p1", "en").
		Return(apperror.NewValidationError("produto 'MUG' inválido", "a última tradução do produto não pode ser removida"))

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/products/p1/translations/en", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"a última tradução do produto não pode ser removida"}, decodeError(t, rec).Violations)
}

func TestDeleteVariantHandler_ReturnsAggregate(t *testing.T) {
	svc := new(MockProductService)
	svc.On("DeleteVariant", mock.Anything, "p1", "MUG-RED").Return(&domain.Product{ID: "p1", SKU: "MUG"}, nil)

	rec := httptest.NewRecorder()
	newMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/products/p1/variants/MUG-RED", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku":"MUG"`)
	svc.AssertExpectations(t)
}
