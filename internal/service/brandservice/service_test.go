package brandservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/service/brandservice"
)

type MockBrandRepository struct {
	mock.Mock
}

func (m *MockBrandRepository) FindAll(ctx context.Context) ([]*domain.Brand, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Brand), args.Error(1)
}

func (m *MockBrandRepository) FindByID(ctx context.Context, id string) (*domain.Brand, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *MockBrandRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBrandRepository) TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error) {
	args := m.Called(ctx, lang, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBrandRepository) Save(ctx context.Context, b *domain.Brand) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBrandRepository) CountProducts(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockBrandRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type staticLanguages struct{ langs domain.Languages }

func (s staticLanguages) Snapshot(context.Context) (domain.Languages, error) { return s.langs, nil }

func newService() (*brandservice.Service, *MockBrandRepository) {
	repo := new(MockBrandRepository)
	langs := domain.NewLanguages([]domain.Language{
		{Code: "en", Name: "English", IsActive: true, IsDefault: true},
		{Code: "fr", Name: "Français", IsActive: true, SortOrder: 1},
	})
	return brandservice.NewService(repo, staticLanguages{langs}, logger.NewLogger("debug")), repo
}

func TestSave_GeneratesSuffixedSlugOnCollision(t *testing.T) {
	svc, repo := newService()
	repo.On("TranslationSlugExists", mock.Anything, "en", "acme-tools", mock.Anything).Return(false, nil)
	repo.On("SlugExists", mock.Anything, "acme-tools", mock.Anything).Return(true, nil)
	repo.On("SlugExists", mock.Anything, "acme-tools-1", mock.Anything).Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Brand")).Return(nil)

	b, err := svc.Save(context.Background(), "", domain.BrandInput{
		Translations: map[string]domain.BrandTranslation{"en": {Name: "Acme Tools"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "acme-tools-1", b.Slug)
	assert.Equal(t, "acme-tools", b.Translations[0].Slug)
	assert.True(t, b.IsActive)
	repo.AssertExpectations(t)
}

func TestSave_ExplicitSlugTakenIsValidationError(t *testing.T) {
	svc, repo := newService()
	repo.On("TranslationSlugExists", mock.Anything, "en", "acme", mock.Anything).Return(false, nil)
	repo.On("SlugExists", mock.Anything, "acme", mock.Anything).Return(true, nil)

	_, err := svc.Save(context.Background(), "", domain.BrandInput{
		Slug:         "Acme",
		Translations: map[string]domain.BrandTranslation{"en": {Name: "Acme"}},
	})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSave_RequiresAtLeastOneTranslation(t *testing.T) {
	svc, repo := newService()

	_, err := svc.Save(context.Background(), "", domain.BrandInput{Slug: "acme"})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSave_EditCollapsesSameLanguageTranslation(t *testing.T) {
	svc, repo := newService()
	existing := &domain.Brand{
		ID:           "b1",
		Slug:         "acme",
		Translations: []domain.BrandTranslation{{Language: "en", Name: "Acme", Slug: "acme"}},
	}
	repo.On("FindByID", mock.Anything, "b1").Return(existing, nil)
	repo.On("TranslationSlugExists", mock.Anything, "en", "acme", "b1").Return(false, nil)
	repo.On("Save", mock.Anything, existing).Return(nil)

	b, err := svc.Save(context.Background(), "b1", domain.BrandInput{
		Translations: map[string]domain.BrandTranslation{"en": {Name: "Acme Corp"}},
	})

	require.NoError(t, err)
	require.Len(t, b.Translations, 1)
	assert.Equal(t, "Acme Corp", b.Translations[0].Name)
	assert.Equal(t, "acme", b.Slug)
}

func TestSave_RenameWithoutSlugKeepsTranslationSlug(t *testing.T) {
	svc, repo := newService()
	repo.On("TranslationSlugExists", mock.Anything, "en", "mug", mock.Anything).Return(false, nil)
	repo.On("SlugExists", mock.Anything, "mug", mock.Anything).Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Brand")).Return(nil)

	created, err := svc.Save(context.Background(), "", domain.BrandInput{
		Translations: map[string]domain.BrandTranslation{"en": {Name: "Mug"}},
	})
	require.NoError(t, err)
	require.Equal(t, "mug", created.Translations[0].Slug)

	repo.On("FindByID", mock.Anything, created.ID).Return(created, nil)
	edited, err := svc.Save(context.Background(), created.ID, domain.BrandInput{
		Translations: map[string]domain.BrandTranslation{"en": {Name: "Coffee Mug"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Coffee Mug", edited.Translations[0].Name)
	assert.Equal(t, "mug", edited.Translations[0].Slug)
	repo.AssertNotCalled(t, "TranslationSlugExists", mock.Anything, "en", "coffee-mug", mock.Anything)
}

func TestSave_ExplicitSlugReplacesTranslationSlug(t *testing.T) {
	svc, repo := newService()
	existing := &domain.Brand{
		ID:           "b1",
		Slug:         "acme",
		Translations: []domain.BrandTranslation{{Language: "en", Name: "Acme", Slug: "acme"}},
	}
	repo.On("FindByID", mock.Anything, "b1").Return(existing, nil)
	repo.On("TranslationSlugExists", mock.Anything, "en", "acme-corp", "b1").Return(false, nil)
	repo.On("Save", mock.Anything, existing).Return(nil)

	b, err := svc.Save(context.Background(), "b1", domain.BrandInput{
		Translations: map[string]domain.BrandTranslation{"en": {Name: "Acme Corp", Slug: "acme-corp"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "acme-corp", b.Translations[0].Slug)
}

func TestDelete_BlockedWithProducts(t *testing.T) {
	svc, repo := newService()
	repo.On("CountProducts", mock.Anything, "b1").Return(4, nil)

	err := svc.Delete(context.Background(), "b1")

	assert.IsType(t, &apperror.ConflictError{}, err)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_WithoutProducts(t *testing.T) {
	svc, repo := newService()
	repo.On("CountProducts", mock.Anything, "b1").Return(0, nil)
	repo.On("Delete", mock.Anything, "b1").Return(nil)

	assert.NoError(t, svc.Delete(context.Background(), "b1"))
	repo.AssertExpectations(t)
}

func acmeWithFrench() *domain.Brand {
	return &domain.Brand{
		ID:   "b1",
		Slug: "acme",
		Translations: []domain.BrandTranslation{
			{Language: "en", Name: "Acme", Slug: "acme"},
			{Language: "fr", Name: "Acmé", Slug: "acme-fr"},
		},
	}
}

func TestRemoveTranslation_DropsLanguage(t *testing.T) {
	svc, repo := newService()
	brand := acmeWithFrench()
	repo.On("FindByID", mock.Anything, "b1").Return(brand, nil)
	repo.On("Save", mock.Anything, brand).Return(nil)

	require.NoError(t, svc.RemoveTranslation(context.Background(), "b1", "fr"))

	require.Len(t, brand.Translations, 1)
	assert.Equal(t, "en", brand.Translations[0].Language)
	repo.AssertExpectations(t)
}

func TestRemoveTranslation_LastTranslationIsKept(t *testing.T) {
	svc, repo := newService()
	brand := &domain.Brand{ID: "b1", Slug: "acme", Translations: []domain.BrandTranslation{{Language: "en", Name: "Acme"}}}
	repo.On("FindByID", mock.Anything, "b1").Return(brand, nil)

	err := svc.RemoveTranslation(context.Background(), "b1", "en")

	assert.Equal(t, []string{"a última tradução da marca não pode ser removida"}, apperror.Violations(err))
	assert.Len(t, brand.Translations, 1)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRemoveTranslation_MissingLanguageIsNotFound(t *testing.T) {
	svc, repo := newService()
	repo.On("FindByID", mock.Anything, "b1").Return(acmeWithFrench(), nil)

	err := svc.RemoveTranslation(context.Background(), "b1", "de")

	assert.IsType(t, &apperror.NotFoundError{}, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDuplicateTranslation_CopiesWithFreeSlug(t *testing.T) {
	svc, repo := newService()
	brand := &domain.Brand{ID: "b1", Slug: "acme", Translations: []domain.BrandTranslation{{Language: "en", Name: "Acme", Slug: "acme"}}}
	repo.On("FindByID", mock.Anything, "b1").Return(brand, nil)
	repo.On("TranslationSlugExists", mock.Anything, "fr", "acme", "b1").Return(true, nil)
	repo.On("TranslationSlugExists", mock.Anything, "fr", "acme-1", "b1").Return(false, nil)
	repo.On("Save", mock.Anything, brand).Return(nil)

	got, err := svc.DuplicateTranslation(context.Background(), "b1", "en", "fr")

	require.NoError(t, err)
	assert.Equal(t, "fr", got.Language)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "acme-1", got.Slug)
	assert.Len(t, brand.Translations, 2)
	repo.AssertExpectations(t)
}

func TestDuplicateTranslation_ExistingTargetIsReturned(t *testing.T) {
	svc, repo := newService()
	repo.On("FindByID", mock.Anything, "b1").Return(acmeWithFrench(), nil)

	got, err := svc.DuplicateTranslation(context.Background(), "b1", "en", "fr")

	require.NoError(t, err)
	assert.Equal(t, "Acmé", got.Name)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateMissingTranslations_CopiesFromDefault(t *testing.T) {
	svc, repo := newService()
	missing := &domain.Brand{ID: "b2", Slug: "globex", Translations: []domain.BrandTranslation{{Language: "en", Name: "Globex", Slug: "globex"}}}
	orphan := &domain.Brand{ID: "b3", Slug: "initech", Translations: []domain.BrandTranslation{{Language: "de", Name: "Initech"}}}
	repo.On("FindAll", mock.Anything).Return([]*domain.Brand{acmeWithFrench(), missing, orphan}, nil)
	repo.On("TranslationSlugExists", mock.Anything, "fr", "globex", "b2").Return(false, nil)
	repo.On("Save", mock.Anything, missing).Return(nil)

	n, err := svc.CreateMissingTranslations(context.Background(), "fr", "")

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	fr, ok := domain.FindTranslation(missing.Translations, "fr")
	require.True(t, ok)
	assert.Equal(t, "Globex", fr.Name)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestCreateMissingTranslations_SameSourceIsValidationError(t *testing.T) {
	svc, repo := newService()

	_, err := svc.CreateMissingTranslations(context.Background(), "en", "")

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "FindAll", mock.Anything)
}
