package productservice_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) SKUExists(ctx context.Context, sku, excludeProductID string) (bool, error) {
	args := m.Called(ctx, sku, excludeProductID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error) {
	args := m.Called(ctx, lang, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, c domain.ProductCriteria, sortLanguage string) (domain.ProductPage, error) {
	args := m.Called(ctx, c, sortLanguage)
	return args.Get(0).(domain.ProductPage), args.Error(1)
}

func (m *MockProductRepository) FindIDsMissingTranslation(ctx context.Context, lang string) ([]string, error) {
	args := m.Called(ctx, lang)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type MockReferences struct {
	mock.Mock
}

func (m *MockReferences) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferences) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	found, _ := args.Get(0).([]string)
	return found, args.Error(1)
}

func (m *MockReferences) FindValuesByIDs(ctx context.Context, ids []string) (map[string]*domain.AttributeValue, error) {
	args := m.Called(ctx, ids)
	values, _ := args.Get(0).(map[string]*domain.AttributeValue)
	return values, args.Error(1)
}

type staticLanguages struct{ langs domain.Languages }

func (s staticLanguages) Snapshot(context.Context) (domain.Languages, error) { return s.langs, nil }

const (
	productID  = "3f2a1b0c-9d8e-4f7a-b6c5-d4e3f2a1b0c9"
	brandID    = "7d6c5b4a-3f2e-4d1c-8b0a-9f8e7d6c5b4a"
	categoryID = "2c3d4e5f-6a7b-4c8d-9e0f-1a2b3c4d5e6f"
	redID      = "a1a1a1a1-0000-4000-8000-000000000001"
	blueID     = "a1a1a1a1-0000-4000-8000-000000000002"
	gb128ID    = "b2b2b2b2-0000-4000-8000-000000000001"
	gb256ID    = "b2b2b2b2-0000-4000-8000-000000000002"
)

type fixture struct {
	svc  *productservice.Service
	repo *MockProductRepository
	refs *MockReferences
}

func newFixture() fixture {
	repo := new(MockProductRepository)
	refs := new(MockReferences)
	langs := domain.NewLanguages([]domain.Language{
		{Code: "en", Name: "English", IsActive: true, IsDefault: true},
		{Code: "fr", Name: "Français", IsActive: true, SortOrder: 1},
	})
	svc := productservice.NewService(repo, productservice.References{
		Brands: refs, Categories: refs, AttributeValues: refs,
	}, staticLanguages{langs}, logger.NewLogger("debug"))
	return fixture{svc: svc, repo: repo, refs: refs}
}

func attributeValues() map[string]*domain.AttributeValue {
	color := &domain.Attribute{ID: "color", Code: "color", Type: domain.AttributeType("color"), IsVariant: true, IsActive: true}
	storage := &domain.Attribute{ID: "storage", Code: "storage", Type: domain.AttributeType("select"), IsVariant: true, IsActive: true}
	mk := func(id, value string, a *domain.Attribute) *domain.AttributeValue {
		return &domain.AttributeValue{
			ID: id, AttributeID: a.ID, Value: value, IsActive: true, Attribute: a,
			Translations: []domain.AttributeValueTranslation{{Language: "en", Name: value}},
		}
	}
	return map[string]*domain.AttributeValue{
		redID:   mk(redID, "Red", color),
		blueID:  mk(blueID, "Blue", color),
		gb128ID: mk(gb128ID, "128GB", storage),
		gb256ID: mk(gb256ID, "256GB", storage),
	}
}

func phoneInput() domain.ProductInput {
	return domain.ProductInput{
		SKU:        "PHONE-X",
		Price:      "999.00",
		IsVariable: true,
		Status:     "active",
		Translations: map[string]domain.ProductTranslationInput{
			"en": {Name: "Phone X", Description: "A phone", ShortDescription: "Phone"},
		},
		Variants: []domain.VariantInput{
			{SKU: "PHONE-X-RED-128", Stock: 0, AttributeValueIDs: []string{redID, gb128ID}},
			{SKU: "PHONE-X-BLUE-256", Stock: 30, AttributeValueIDs: []string{blueID, gb256ID}},
		},
	}
}

func (f fixture) allowWrites() {
	f.repo.On("TranslationSlugExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("SlugExists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("SKUExists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)
}

func TestSaveProduct_CreatesVariableProductWithVariants(t *testing.T) {
	f := newFixture()
	f.refs.On("FindValuesByIDs", mock.Anything, []string{redID, gb128ID, blueID, gb256ID}).Return(attributeValues(), nil)
	f.allowWrites()

	p, err := f.svc.SaveProduct(context.Background(), "", phoneInput())

	require.NoError(t, err)
	assert.Equal(t, "phone-x", p.Slug)
	assert.Equal(t, "phone-x", p.Translations[0].Slug)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.NotNil(t, p.PublishedAt)
	require.Len(t, p.Variants, 2)
	assert.Same(t, p, p.Variants[0].Product)
	assert.True(t, p.IsInStock())
	assert.False(t, p.Variants[0].IsInStock())
	assert.Equal(t, "Phone X - Red, 128GB", p.Variants[0].Name(domain.NewLocale("en", "")))
	f.repo.AssertExpectations(t)
}

func TestSaveProduct_SameLanguageTwiceKeepsOneTranslation(t *testing.T) {
	f := newFixture()
	f.allowWrites()

	in := domain.ProductInput{
		SKU:          "MUG-1",
		Price:        "10.00",
		Translations: map[string]domain.ProductTranslationInput{"en": {Name: "Mug"}},
	}
	created, err := f.svc.SaveProduct(context.Background(), "", in)
	require.NoError(t, err)

	f.repo.On("FindByID", mock.Anything, created.ID).Return(created, nil)
	in.Translations = map[string]domain.ProductTranslationInput{"en": {Name: "Coffee Mug", Description: "Ceramic"}}
	edited, err := f.svc.SaveProduct(context.Background(), created.ID, in)

	require.NoError(t, err)
	require.Len(t, edited.Translations, 1)
	assert.Equal(t, "Coffee Mug", edited.Translations[0].Name)
	assert.Equal(t, "Ceramic", edited.Translations[0].Description)
	assert.Equal(t, created.ID, edited.ID)
}

func TestSaveProduct_RenameWithoutSlugKeepsTranslationSlug(t *testing.T) {
	f := newFixture()
	f.allowWrites()

	in := domain.ProductInput{
		SKU:          "MUG-1",
		Price:        "10.00",
		Translations: map[string]domain.ProductTranslationInput{"en": {Name: "Mug"}},
	}
	created, err := f.svc.SaveProduct(context.Background(), "", in)
	require.NoError(t, err)
	require.Equal(t, "mug", created.Translations[0].Slug)

	f.repo.On("FindByID", mock.Anything, created.ID).Return(created, nil)
	in.Translations = map[string]domain.ProductTranslationInput{"en": {Name: "Coffee Mug"}}
	edited, err := f.svc.SaveProduct(context.Background(), created.ID, in)

	require.NoError(t, err)
	assert.Equal(t, "Coffee Mug", edited.Translations[0].Name)
	assert.Equal(t, "mug", edited.Translations[0].Slug)
	assert.Equal(t, "mug", edited.Slug)
}

func TestSaveProduct_EditKeepsVariantIdentityBySKU(t *testing.T) {
	f := newFixture()
	f.refs.On("FindValuesByIDs", mock.Anything, mock.Anything).Return(attributeValues(), nil)
	f.allowWrites()

	created, err := f.svc.SaveProduct(context.Background(), "", phoneInput())
	require.NoError(t, err)
	blueVariantID := created.Variants[1].ID

	f.repo.On("FindByID", mock.Anything, created.ID).Return(created, nil)
	in := phoneInput()
	in.Variants = in.Variants[1:]
	in.Variants[0].Stock = 12
	edited, err := f.svc.SaveProduct(context.Background(), created.ID, in)

	require.NoError(t, err)
	require.Len(t, edited.Variants, 1)
	assert.Equal(t, blueVariantID, edited.Variants[0].ID)
	assert.Equal(t, 12, edited.Variants[0].Stock)
}

func TestSaveProduct_UnknownBrandIsNotFound(t *testing.T) {
	f := newFixture()
	f.refs.On("Exists", mock.Anything, brandID).Return(false, nil)

	in := phoneInput()
	in.BrandID = brandID
	_, err := f.svc.SaveProduct(context.Background(), "", in)

	assert.IsType(t, &apperror.NotFoundError{}, err)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveProduct_UnknownCategoryIsNotFound(t *testing.T) {
	f := newFixture()
	f.refs.On("ExistingIDs", mock.Anything, []string{categoryID}).Return([]string{}, nil)

	in := phoneInput()
	in.CategoryIDs = []string{categoryID}
	_, err := f.svc.SaveProduct(context.Background(), "", in)

	assert.IsType(t, &apperror.NotFoundError{}, err)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveProduct_UnknownAttributeValueIsNotFound(t *testing.T) {
	f := newFixture()
	values := attributeValues()
	delete(values, gb256ID)
	f.refs.On("FindValuesByIDs", mock.Anything, mock.Anything).Return(values, nil)

	_, err := f.svc.SaveProduct(context.Background(), "", phoneInput())

	assert.IsType(t, &apperror.NotFoundError{}, err)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveProduct_UnknownLanguageIsNotFound(t *testing.T) {
	f := newFixture()

	in := phoneInput()
	in.Translations["de"] = domain.ProductTranslationInput{Name: "Telefon X"}
	_, err := f.svc.SaveProduct(context.Background(), "", in)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestSaveProduct_SKUTakenElsewhereIsValidationError(t *testing.T) {
	f := newFixture()
	f.refs.On("FindValuesByIDs", mock.Anything, mock.Anything).Return(attributeValues(), nil)
	f.repo.On("TranslationSlugExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("SlugExists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("SKUExists", mock.Anything, "PHONE-X-BLUE-256", mock.Anything).Return(true, nil)
	f.repo.On("SKUExists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	_, err := f.svc.SaveProduct(context.Background(), "", phoneInput())

	require.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, apperror.Violations(err), "o SKU 'PHONE-X-BLUE-256' já está em uso")
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveProduct_InvalidPriceStructureListsViolations(t *testing.T) {
	f := newFixture()
	f.allowWrites()
	compareAt, cost := "80.00", "120.00"

	_, err := f.svc.SaveProduct(context.Background(), "", domain.ProductInput{
		SKU:            "LAMP",
		Price:          "100.00",
		CompareAtPrice: &compareAt,
		CostPrice:      &cost,
		Translations:   map[string]domain.ProductTranslationInput{"en": {Name: "Lamp"}},
	})

	require.IsType(t, &apperror.ValidationError{}, err)
	assert.Len(t, apperror.Violations(err), 2)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveProduct_SubCentPriceIsValidationError(t *testing.T) {
	f := newFixture()
	f.allowWrites()
	compareAt, weight := "10.00", "0.2505"

	_, err := f.svc.SaveProduct(context.Background(), "", domain.ProductInput{
		SKU:            "MUG-1",
		Price:          "9.999",
		CompareAtPrice: &compareAt,
		Weight:         &weight,
		Translations:   map[string]domain.ProductTranslationInput{"en": {Name: "Mug"}},
	})

	require.IsType(t, &apperror.ValidationError{}, err)
	assert.Equal(t, []string{
		`'price' aceita no máximo 2 casas decimais: "9.999"`,
		`'weight' aceita no máximo 3 casas decimais: "0.2505"`,
	}, apperror.Violations(err))
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveProduct_ActiveVariableProductNeedsActiveVariant(t *testing.T) {
	f := newFixture()
	f.allowWrites()

	in := phoneInput()
	in.Variants = nil
	_, err := f.svc.SaveProduct(context.Background(), "", in)

	assert.IsType(t, &apperror.ValidationError{}, err)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func savedPhone(t *testing.T, f fixture) *domain.Product {
	t.Helper()
	f.refs.On("FindValuesByIDs", mock.Anything, mock.Anything).Return(attributeValues(), nil)
	f.allowWrites()
	p, err := f.svc.SaveProduct(context.Background(), "", phoneInput())
	require.NoError(t, err)
	p.ID = productID
	f.repo.On("FindByID", mock.Anything, productID).Return(p, nil)
	return p
}

func TestResolveVariant_ExactCombination(t *testing.T) {
	f := newFixture()
	savedPhone(t, f)

	view, err := f.svc.ResolveVariant(context.Background(), productID, []string{gb256ID, blueID}, "fr")

	require.NoError(t, err)
	assert.Equal(t, "PHONE-X-BLUE-256", view.SKU)
	assert.Equal(t, "Phone X - Blue, 256GB", view.Name)
	assert.True(t, view.Price.Equal(decimal.RequireFromString("999")))
}

func TestResolveVariant_SubsetIsNotAMatch(t *testing.T) {
	f := newFixture()
	savedPhone(t, f)

	_, err := f.svc.ResolveVariant(context.Background(), productID, []string{redID}, "en")

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestResolveProduct_FallsBackToDefaultLanguage(t *testing.T) {
	f := newFixture()
	savedPhone(t, f)

	view, err := f.svc.ResolveProduct(context.Background(), productID, "fr")

	require.NoError(t, err)
	assert.Equal(t, "fr", view.Language)
	assert.Equal(t, "Phone X", view.Name)
	assert.True(t, view.InStock)
	assert.Len(t, view.Variants, 2)
	require.Len(t, view.Translations, 2)
	assert.True(t, view.Translations[0].Complete)
	assert.False(t, view.Translations[1].Exists)
}

func TestDuplicateTranslation_CopiesAndSaves(t *testing.T) {
	f := newFixture()
	p := savedPhone(t, f)

	tr, err := f.svc.DuplicateTranslation(context.Background(), productID, "en", "fr")

	require.NoError(t, err)
	assert.Equal(t, "fr", tr.Language)
	assert.Equal(t, "Phone X", tr.Name)
	assert.Equal(t, "phone-x", tr.Slug)
	assert.Len(t, p.Translations, 2)
}

func TestDuplicateTranslation_ExistingTargetIsUnchanged(t *testing.T) {
	f := newFixture()
	p := savedPhone(t, f)
	f.repo.Calls = nil

	tr, err := f.svc.DuplicateTranslation(context.Background(), productID, "fr", "en")

	require.NoError(t, err)
	assert.Equal(t, "Phone X", tr.Name)
	assert.Len(t, p.Translations, 1)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateMissingTranslations_CopiesFromDefault(t *testing.T) {
	f := newFixture()
	savedPhone(t, f)
	f.repo.On("FindIDsMissingTranslation", mock.Anything, "fr").Return([]string{productID}, nil)

	n, err := f.svc.CreateMissingTranslations(context.Background(), "fr", "")

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSearchProducts_NormalizesAndSortsByDefaultLanguage(t *testing.T) {
	f := newFixture()
	f.svc.MaxSearchLimit = 50
	expected := domain.ProductCriteria{SortBy: domain.SortByName, Order: domain.OrderAsc, Limit: 50}
	f.repo.On("Search", mock.Anything, expected, "en").Return(domain.ProductPage{Total: 0, Limit: 50}, nil)

	page, err := f.svc.SearchProducts(context.Background(), domain.ProductCriteria{SortBy: "Name", Order: "ASC", Limit: 500})

	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)
	f.repo.AssertExpectations(t)
}

func TestSearchProducts_InvalidSortIsValidationError(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SearchProducts(context.Background(), domain.ProductCriteria{SortBy: "popularity"})

	assert.IsType(t, &apperror.ValidationError{}, err)
	f.repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProduct_InvalidIDIsValidationError(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetProduct(context.Background(), "not-a-uuid")

	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestDeleteVariant_RemovesAndSaves(t *testing.T) {
	f := newFixture()
	p := savedPhone(t, f)

	got, err := f.svc.DeleteVariant(context.Background(), productID, "PHONE-X-RED-128")

	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "PHONE-X-BLUE-256", got.Variants[0].SKU)
	assert.Same(t, p, got)
	f.repo.AssertNumberOfCalls(t, "Save", 2)
}

func TestDeleteVariant_UnknownSKUIsNotFound(t *testing.T) {
	f := newFixture()
	savedPhone(t, f)

	_, err := f.svc.DeleteVariant(context.Background(), productID, "PHONE-X-GOLD")

	assert.IsType(t, &apperror.NotFoundError{}, err)
	f.repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestDeleteVariant_LastActiveVariantOfActiveProduct(t *testing.T) {
	f := newFixture()
	savedPhone(t, f)
	_, err := f.svc.DeleteVariant(context.Background(), productID, "PHONE-X-RED-128")
	require.NoError(t, err)

	_, err = f.svc.DeleteVariant(context.Background(), productID, "PHONE-X-BLUE-256")

	assert.IsType(t, &apperror.ValidationError{}, err)
	f.repo.AssertNumberOfCalls(t, "Save", 2)
}

func TestRemoveTranslation_DropsLanguageFromProductAndVariants(t *testing.T) {
	f := newFixture()
	p := savedPhone(t, f)
	p.UpsertTranslation(domain.ProductTranslation{Language: "fr", Name: "Téléphone X"})
	p.Variants[0].UpsertTranslation(domain.VariantTranslation{Language: "fr", Name: "Rouge"})

	err := f.svc.RemoveTranslation(context.Background(), productID, "fr")

	require.NoError(t, err)
	assert.False(t, p.HasTranslation("fr"))
	assert.Empty(t, p.Variants[0].Translations)
	f.repo.AssertNumberOfCalls(t, "Save", 2)
}

func TestRemoveTranslation_LastTranslationIsKept(t *testing.T) {
	f := newFixture()
	p := savedPhone(t, f)

	err := f.svc.RemoveTranslation(context.Background(), productID, "en")

	require.IsType(t, &apperror.ValidationError{}, err)
	assert.True(t, p.HasTranslation("en"))
	f.repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestRemoveTranslation_MissingLanguageIsNotFound(t *testing.T) {
	f := newFixture()
	savedPhone(t, f)

	err := f.svc.RemoveTranslation(context.Background(), productID, "fr")

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// warnRecorder guarda as mensagens de Warn e repassa o resto ao logger real.
type warnRecorder struct {
	logger.Logger
	warns []string
}

func (w *warnRecorder) Warn(msg string, fields map[string]interface{}) {
	w.warns = append(w.warns, msg)
	w.Logger.Warn(msg, fields)
}

func TestResolveProduct_RegistryWithoutDefaultLogsAndSkipsFallback(t *testing.T) {
	repo := new(MockProductRepository)
	log := &warnRecorder{Logger: logger.NewLogger("debug")}
	langs := domain.NewLanguages([]domain.Language{
		{Code: "en", Name: "English", IsActive: true},
		{Code: "fr", Name: "Français", IsActive: true, SortOrder: 1},
	})
	svc := productservice.NewService(repo, productservice.References{}, staticLanguages{langs}, log)
	p := &domain.Product{
		ID: productID, SKU: "MUG", Slug: "mug", Status: domain.StatusDraft,
		Translations: []domain.ProductTranslation{{Language: "en", Name: "Mug"}},
	}
	repo.On("FindByID", mock.Anything, productID).Return(p, nil)

	view, err := svc.ResolveProduct(context.Background(), productID, "fr")

	require.NoError(t, err)
	assert.Equal(t, "Mug", view.Name, "sem fallback, cai na ordem do registro")
	assert.Equal(t, []string{"Idioma padrão indefinido; resolvendo traduções sem fallback."}, log.warns)
}
