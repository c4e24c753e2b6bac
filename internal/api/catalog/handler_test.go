package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gocatalog/internal/api/catalog"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

type MockBrandService struct {
	mock.Mock
}

func (m *MockBrandService) List(ctx context.Context) ([]*domain.Brand, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]*domain.Brand)
	return b, args.Error(1)
}

func (m *MockBrandService) Get(ctx context.Context, id string) (*domain.Brand, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *MockBrandService) Save(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	args := m.Called(ctx, id, in)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *MockBrandService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBrandService) RemoveTranslation(ctx context.Context, id, lang string) error {
	return m.Called(ctx, id, lang).Error(0)
}

func (m *MockBrandService) DuplicateTranslation(ctx context.Context, id, from, to string) (domain.BrandTranslation, error) {
	args := m.Called(ctx, id, from, to)
	return args.Get(0).(domain.BrandTranslation), args.Error(1)
}

func (m *MockBrandService) CreateMissingTranslations(ctx context.Context, lang, source string) (int, error) {
	args := m.Called(ctx, lang, source)
	return args.Int(0), args.Error(1)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) Tree(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]*domain.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*domain.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Save(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, id, in)
	c, _ := args.Get(0).(*domain.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryService) RemoveTranslation(ctx context.Context, id, lang string) error {
	return m.Called(ctx, id, lang).Error(0)
}

func newMux(brands *MockBrandService, categories *MockCategoryService) *http.ServeMux {
	h := catalog.NewHandler(nil, nil, brands, categories, logger.NewLogger("error"))
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /v1/brands/{id}/translations/{lang}", h.RemoveBrandTranslationHandler)
	mux.HandleFunc("POST /v1/brands/{id}/translations/duplicate", h.DuplicateBrandTranslationHandler)
	mux.HandleFunc("POST /v1/brands/translations/{lang}/missing", h.CreateMissingBrandTranslationsHandler)
	mux.HandleFunc("DELETE /v1/categories/{id}/translations/{lang}", h.RemoveCategoryTranslationHandler)
	return mux
}

func TestRemoveBrandTranslationHandler_NoContent(t *testing.T) {
	brands := new(MockBrandService)
	brands.On("RemoveTranslation", mock.Anything, "b1", "fr").Return(nil)

	rec := httptest.NewRecorder()
	newMux(brands, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/brands/b1/translations/fr", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	brands.AssertExpectations(t)
}

func TestDuplicateBrandTranslationHandler(t *testing.T) {
	brands := new(MockBrandService)
	brands.On("DuplicateTranslation", mock.Anything, "b1", "en", "fr").
		Return(domain.BrandTranslation{Language: "fr", Name: "Acme", Slug: "acme"}, nil)

	rec := httptest.NewRecorder()
	body := `{"from":"en","to":"fr"}`
	newMux(brands, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/brands/b1/translations/duplicate", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"language":"fr"`)
}

func TestDuplicateBrandTranslationHandler_MissingTarget(t *testing.T) {
	brands := new(MockBrandService)

	rec := httptest.NewRecorder()
	newMux(brands, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/brands/b1/translations/duplicate", strings.NewReader(`{"from":"en"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	brands.AssertNotCalled(t, "DuplicateTranslation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateMissingBrandTranslationsHandler_PassesSource(t *testing.T) {
	brands := new(MockBrandService)
	brands.On("CreateMissingTranslations", mock.Anything, "fr", "en").Return(3, nil)

	rec := httptest.NewRecorder()
	newMux(brands, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/brands/translations/fr/missing?source=en", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"created":3}`, rec.Body.String())
}

func TestRemoveCategoryTranslationHandler_NotFound(t *testing.T) {
	categories := new(MockCategoryService)
	categories.On("RemoveTranslation", mock.Anything, "c1", "de").Return(apperror.NewNotFoundError("tradução 'de' da categoria 'garden'"))

	rec := httptest.NewRecorder()
	newMux(nil, categories).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/categories/c1/translations/de", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
