package domain

// BrandTranslation guarda os textos de uma marca em um idioma.
type BrandTranslation struct {
	Language        string `json:"language" db:"language_code"`
	Name            string `json:"name" db:"name"`
	Description     string `json:"description,omitempty" db:"description"`
	Slug            string `json:"slug,omitempty" db:"slug_translation"`
	MetaTitle       string `json:"meta_title,omitempty" db:"meta_title"`
	MetaDescription string `json:"meta_description,omitempty" db:"meta_description"`
}

func (t BrandTranslation) LanguageCode() string { return t.Language }

func (t BrandTranslation) FilledFields() (int, int) {
	return countFilled(filled(t.Name), filled(t.Description), filled(t.Slug), filled(t.MetaTitle), filled(t.MetaDescription)), 5
}

func (t BrandTranslation) HasRequiredFields() bool { return filled(t.Name) }

func (t BrandTranslation) WithLanguage(code string) BrandTranslation {
	t.Language = code
	return t
}

// CategoryTranslation guarda os textos de uma categoria em um idioma.
type CategoryTranslation struct {
	Language        string   `json:"language"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Slug            string   `json:"slug,omitempty"`
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	MetaKeywords    []string `json:"meta_keywords,omitempty"`
}

func (t CategoryTranslation) LanguageCode() string { return t.Language }

func (t CategoryTranslation) FilledFields() (int, int) {
	return countFilled(filled(t.Name), filled(t.Description), filled(t.Slug), filled(t.MetaTitle),
		filled(t.MetaDescription), len(t.MetaKeywords) > 0), 6
}

func (t CategoryTranslation) HasRequiredFields() bool { return filled(t.Name) }

func (t CategoryTranslation) WithLanguage(code string) CategoryTranslation {
	t.Language = code
	t.MetaKeywords = cloneStrings(t.MetaKeywords)
	return t
}

// AttributeTranslation guarda o rótulo de um atributo em um idioma.
type AttributeTranslation struct {
	Language    string `json:"language" db:"language_code"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Placeholder string `json:"placeholder,omitempty" db:"placeholder"`
}

func (t AttributeTranslation) LanguageCode() string { return t.Language }

func (t AttributeTranslation) FilledFields() (int, int) {
	return countFilled(filled(t.Name), filled(t.Description), filled(t.Placeholder)), 3
}

func (t AttributeTranslation) HasRequiredFields() bool { return filled(t.Name) }

func (t AttributeTranslation) WithLanguage(code string) AttributeTranslation {
	t.Language = code
	return t
}

// AttributeValueTranslation guarda o rótulo de um valor de atributo em um idioma.
type AttributeValueTranslation struct {
	Language    string `json:"language" db:"language_code"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

func (t AttributeValueTranslation) LanguageCode() string { return t.Language }

func (t AttributeValueTranslation) FilledFields() (int, int) {
	return countFilled(filled(t.Name), filled(t.Description)), 2
}

func (t AttributeValueTranslation) HasRequiredFields() bool { return filled(t.Name) }

func (t AttributeValueTranslation) WithLanguage(code string) AttributeValueTranslation {
	t.Language = code
	return t
}

// ProductTranslation guarda o conteúdo de um produto em um idioma.
// Completa = nome, descrição e descrição curta preenchidos.
type ProductTranslation struct {
	Language         string            `json:"language"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	ShortDescription string            `json:"short_description,omitempty"`
	Slug             string            `json:"slug,omitempty"`
	MetaTitle        string            `json:"meta_title,omitempty"`
	MetaDescription  string            `json:"meta_description,omitempty"`
	MetaKeywords     []string          `json:"meta_keywords,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Specifications   map[string]string `json:"specifications,omitempty"`
	Features         []string          `json:"features,omitempty"`
}

func (t ProductTranslation) LanguageCode() string { return t.Language }

func (t ProductTranslation) FilledFields() (int, int) {
	return countFilled(
		filled(t.Name),
		filled(t.Description),
		filled(t.ShortDescription),
		filled(t.Slug),
		filled(t.MetaTitle),
		filled(t.MetaDescription),
		len(t.MetaKeywords) > 0,
		len(t.Tags) > 0,
		len(t.Specifications) > 0,
		len(t.Features) > 0,
	), 10
}

func (t ProductTranslation) HasRequiredFields() bool {
	return filled(t.Name) && filled(t.Description) && filled(t.ShortDescription)
}

func (t ProductTranslation) WithLanguage(code string) ProductTranslation {
	t.Language = code
	t.MetaKeywords = cloneStrings(t.MetaKeywords)
	t.Tags = cloneStrings(t.Tags)
	t.Features = cloneStrings(t.Features)
	t.Specifications = cloneMap(t.Specifications)
	return t
}

// VariantTranslation guarda nome e descrição opcionais de uma variante.
type VariantTranslation struct {
	Language    string `json:"language" db:"language_code"`
	Name        string `json:"name,omitempty" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

func (t VariantTranslation) LanguageCode() string { return t.Language }

func (t VariantTranslation) FilledFields() (int, int) {
	return countFilled(filled(t.Name), filled(t.Description)), 2
}

func (t VariantTranslation) HasRequiredFields() bool { return filled(t.Name) }

func (t VariantTranslation) WithLanguage(code string) VariantTranslation {
	t.Language = code
	return t
}
