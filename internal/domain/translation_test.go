package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

func registry() domain.Languages {
	return domain.NewLanguages([]domain.Language{
		{Code: "fr", Name: "French", IsActive: true, SortOrder: 2},
		{Code: "en", Name: "English", IsActive: true, IsDefault: true, SortOrder: 1},
		{Code: "de", Name: "German", IsActive: true, SortOrder: 3},
		{Code: "es", Name: "Spanish", IsActive: false, SortOrder: 0},
	})
}

func TestResolve_ExactThenFallback(t *testing.T) {
	ts := []domain.ProductTranslation{
		{Language: "en", Name: "Mug"},
		{Language: "fr", Name: "Tasse"},
	}
	langs := registry()

	got, ok := domain.Resolve(ts, langs.Locale("fr"))
	require.True(t, ok)
	assert.Equal(t, "Tasse", got.Name)

	got, ok = domain.Resolve(ts, langs.Locale("de"))
	require.True(t, ok)
	assert.Equal(t, "Mug", got.Name, "sem alemão, cai no idioma padrão")
}

func TestResolve_LastResortFollowsRegistryOrder(t *testing.T) {
	ts := []domain.ProductTranslation{
		{Language: "de", Name: "Tasse (de)"},
		{Language: "fr", Name: "Tasse"},
	}

	got, ok := domain.Resolve(ts, registry().Locale("en"))

	require.True(t, ok)
	assert.Equal(t, "fr", got.Language, "fr vem antes de de na ordem do registro")
}

func TestResolve_LastResortWithoutRegistryUsesLowestCode(t *testing.T) {
	ts := []domain.ProductTranslation{
		{Language: "fr", Name: "Tasse"},
		{Language: "de", Name: "Tasse (de)"},
	}

	got, ok := domain.Resolve(ts, domain.NewLocale("it", "en"))

	require.True(t, ok)
	assert.Equal(t, "de", got.Language)
}

func TestResolve_Empty(t *testing.T) {
	_, ok := domain.Resolve([]domain.ProductTranslation(nil), domain.NewLocale("en", ""))
	assert.False(t, ok)

	p := &domain.Product{}
	assert.Equal(t, "Untitled Product", p.Name(domain.NewLocale("en", "")))
}

func TestUpsertTranslation_UpdatesInPlace(t *testing.T) {
	ts := []domain.ProductTranslation{{Language: "en", Name: "Mug"}}

	ts = domain.UpsertTranslation(ts, domain.ProductTranslation{Language: "en", Name: "Coffee Mug"})
	ts = domain.UpsertTranslation(ts, domain.ProductTranslation{Language: "fr", Name: "Tasse"})

	require.Len(t, ts, 2)
	assert.Equal(t, "Coffee Mug", ts[0].Name)
	assert.Empty(t, domain.DuplicateLanguages(ts))
}

func TestRemoveTranslation(t *testing.T) {
	ts := []domain.BrandTranslation{{Language: "en", Name: "Acme"}, {Language: "fr", Name: "Acmé"}}

	ts = domain.RemoveTranslation(ts, "en")

	require.Len(t, ts, 1)
	assert.Equal(t, "fr", ts[0].Language)
}

func TestDuplicateTranslation(t *testing.T) {
	ts := []domain.ProductTranslation{{
		Language: "en",
		Name:     "Mug",
		Tags:     []string{"kitchen"},
	}}

	ts, dup, err := domain.DuplicateTranslation(ts, "en", "fr")

	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "fr", dup.Language)
	assert.Equal(t, "Mug", dup.Name)

	dup.Tags[0] = "cuisine"
	assert.Equal(t, "kitchen", ts[0].Tags[0], "a cópia não compartilha listas com a origem")
}

func TestDuplicateTranslation_ExistingTargetIsKept(t *testing.T) {
	ts := []domain.ProductTranslation{
		{Language: "en", Name: "Mug"},
		{Language: "fr", Name: "Tasse"},
	}

	out, dup, err := domain.DuplicateTranslation(ts, "en", "fr")

	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, "Tasse", dup.Name)
}

func TestDuplicateTranslation_MissingSource(t *testing.T) {
	_, _, err := domain.DuplicateTranslation([]domain.ProductTranslation{{Language: "en", Name: "Mug"}}, "de", "fr")

	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCompletionPercentage(t *testing.T) {
	tests := []struct {
		name     string
		tr       domain.ProductTranslation
		want     int
		complete bool
	}{
		{"vazia", domain.ProductTranslation{Language: "en"}, 0, false},
		{"só nome", domain.ProductTranslation{Language: "en", Name: "Mug"}, 10, false},
		{"obrigatórios", domain.ProductTranslation{Language: "en", Name: "Mug", Description: "d", ShortDescription: "s"}, 30, true},
		{"espaços não contam", domain.ProductTranslation{Language: "en", Name: "  "}, 0, false},
		{"listas contam", domain.ProductTranslation{Language: "en", Name: "Mug", Tags: []string{"a"}, Features: []string{"b"}}, 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CompletionPercentage(tt.tr))
			assert.Equal(t, tt.complete, domain.IsComplete(tt.tr))
		})
	}

	assert.Equal(t, 67, domain.CompletionPercentage(domain.AttributeTranslation{Language: "en", Name: "Color", Description: "x"}))
}

func TestStatusFor(t *testing.T) {
	ts := []domain.ProductTranslation{
		{Language: "fr", Name: "Tasse"},
		{Language: "en", Name: "Mug", Description: "d", ShortDescription: "s"},
	}

	got := domain.StatusFor(ts, registry())

	assert.Equal(t, []domain.TranslationStatus{
		{Language: "en", Exists: true, Complete: true, Partial: true, Completion: 30},
		{Language: "fr", Exists: true, Complete: false, Partial: true, Completion: 10},
		{Language: "de"},
	}, got)
	assert.Equal(t, []string{"de"}, domain.MissingLanguages(ts, registry()))
}

func TestSortedLanguageCodes(t *testing.T) {
	got := domain.SortedLanguageCodes(map[string]int{"fr": 1, "en": 2, "de": 3})
	assert.Equal(t, []string{"de", "en", "fr"}, got)
}
