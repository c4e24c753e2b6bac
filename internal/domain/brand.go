package domain

import (
	"fmt"
	"time"

	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/slug"
)

// Brand é uma marca. O slug é único em todo o catálogo.
type Brand struct {
	ID           string             `json:"id"`
	Slug         string             `json:"slug"`
	IsActive     bool               `json:"is_active"`
	SortOrder    int                `json:"sort_order"`
	LogoID       string             `json:"logo_id,omitempty"`
	Translations []BrandTranslation `json:"translations"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func (b *Brand) Name(loc Locale) string {
	if t, ok := Resolve(b.Translations, loc); ok && filled(t.Name) {
		return t.Name
	}
	return "Untitled Brand"
}

func (b *Brand) Description(loc Locale) string {
	if t, ok := Resolve(b.Translations, loc); ok {
		return t.Description
	}
	return ""
}

// EffectiveSlug devolve o slug traduzido, se houver, senão o slug global.
func (b *Brand) EffectiveSlug(loc Locale) string {
	if t, ok := Resolve(b.Translations, loc); ok && t.Slug != "" {
		return t.Slug
	}
	return b.Slug
}

func (b *Brand) Validate() error {
	var violations []string
	if b.Slug == "" {
		violations = append(violations, "o slug da marca é obrigatório")
	} else if slug.Normalize(b.Slug) != b.Slug {
		violations = append(violations, fmt.Sprintf("slug fora do formato: %q", b.Slug))
	}
	for _, code := range DuplicateLanguages(b.Translations) {
		violations = append(violations, fmt.Sprintf("tradução duplicada para o idioma '%s'", code))
	}
	for _, t := range b.Translations {
		if !filled(t.Name) {
			violations = append(violations, fmt.Sprintf("o nome da marca é obrigatório no idioma '%s'", t.Language))
		}
	}
	if len(violations) > 0 {
		return apperror.NewValidationError("marca inválida", violations...)
	}
	return nil
}
