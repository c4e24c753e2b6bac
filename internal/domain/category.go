package domain

import (
	"fmt"
	"sort"
	"time"

	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/slug"
)

// Category é um nó da floresta de categorias. Level 0 é raiz.
type Category struct {
	ID           string                `json:"id"`
	Slug         string                `json:"slug"`
	Level        int                   `json:"level"`
	ParentID     string                `json:"parent_id,omitempty"`
	Icon         string                `json:"icon,omitempty"`
	ImageID      string                `json:"image_id,omitempty"`
	IsActive     bool                  `json:"is_active"`
	SortOrder    int                   `json:"sort_order"`
	Translations []CategoryTranslation `json:"translations"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`

	Parent   *Category   `json:"-"`
	Children []*Category `json:"children,omitempty"`
}

func (c *Category) Name(loc Locale) string {
	if t, ok := Resolve(c.Translations, loc); ok && filled(t.Name) {
		return t.Name
	}
	return "Untitled Category"
}

func (c *Category) Description(loc Locale) string {
	if t, ok := Resolve(c.Translations, loc); ok {
		return t.Description
	}
	return ""
}

func (c *Category) EffectiveSlug(loc Locale) string {
	if t, ok := Resolve(c.Translations, loc); ok && t.Slug != "" {
		return t.Slug
	}
	return c.Slug
}

// IsDescendantOf informa se c está abaixo de other na árvore.
func (c *Category) IsDescendantOf(other *Category) bool {
	for p := c.Parent; p != nil; p = p.Parent {
		if p == other || (p.ID != "" && p.ID == other.ID) {
			return true
		}
	}
	return false
}

// SetParent move a categoria para baixo de parent (nil torna raiz).
// Rejeita a própria categoria e qualquer descendente dela, mantendo a floresta acíclica.
// Devolve os nós cujo nível mudou.
func (c *Category) SetParent(parent *Category) ([]*Category, error) {
	if parent != nil {
		if parent == c || (parent.ID != "" && parent.ID == c.ID) {
			return nil, apperror.NewValidationError("uma categoria não pode ser pai de si mesma")
		}
		if parent.IsDescendantOf(c) {
			return nil, apperror.NewValidationError(
				fmt.Sprintf("a categoria '%s' é descendente de '%s' e não pode ser seu pai", parent.Slug, c.Slug))
		}
	}

	if c.Parent != nil {
		c.Parent.removeChild(c)
	}
	c.Parent = parent
	c.ParentID = ""
	if parent != nil {
		c.ParentID = parent.ID
		parent.Children = append(parent.Children, c)
	}
	return c.recomputeLevels(), nil
}

func (c *Category) removeChild(child *Category) {
	out := c.Children[:0]
	for _, ch := range c.Children {
		if ch != child {
			out = append(out, ch)
		}
	}
	c.Children = out
}

// recomputeLevels ajusta o nível da subárvore e devolve os nós alterados.
func (c *Category) recomputeLevels() []*Category {
	var changed []*Category
	var walk func(n *Category, level int)
	walk = func(n *Category, level int) {
		if n.Level != level {
			n.Level = level
			changed = append(changed, n)
		}
		for _, ch := range n.Children {
			walk(ch, level+1)
		}
	}
	level := 0
	if c.Parent != nil {
		level = c.Parent.Level + 1
	}
	walk(c, level)
	return changed
}

// Path devolve os ancestrais da raiz até a própria categoria.
func (c *Category) Path() []*Category {
	var path []*Category
	for n := c; n != nil; n = n.Parent {
		path = append([]*Category{n}, path...)
	}
	return path
}

func (c *Category) Validate() error {
	var violations []string
	if c.Slug == "" {
		violations = append(violations, "o slug da categoria é obrigatório")
	} else if slug.Normalize(c.Slug) != c.Slug {
		violations = append(violations, fmt.Sprintf("slug fora do formato: %q", c.Slug))
	}
	if c.Level < 0 {
		violations = append(violations, "o nível não pode ser negativo")
	}
	for _, code := range DuplicateLanguages(c.Translations) {
		violations = append(violations, fmt.Sprintf("tradução duplicada para o idioma '%s'", code))
	}
	for _, t := range c.Translations {
		if !filled(t.Name) {
			violations = append(violations, fmt.Sprintf("o nome da categoria é obrigatório no idioma '%s'", t.Language))
		}
	}
	if len(violations) > 0 {
		return apperror.NewValidationError("categoria inválida", violations...)
	}
	return nil
}

// BuildCategoryTree liga Parent/Children a partir de ParentID e devolve as raízes
// e um índice por ID. Referências a pais inexistentes ou ciclos nos dados são
// inconsistências.
func BuildCategoryTree(all []*Category) ([]*Category, map[string]*Category, error) {
	byID := make(map[string]*Category, len(all))
	for _, c := range all {
		c.Parent = nil
		c.Children = nil
		byID[c.ID] = c
	}

	var roots []*Category
	for _, c := range all {
		if c.ParentID == "" {
			roots = append(roots, c)
			continue
		}
		parent, ok := byID[c.ParentID]
		if !ok {
			return nil, nil, apperror.NewConsistencyError(fmt.Sprintf("categoria '%s' referencia pai inexistente '%s'", c.ID, c.ParentID))
		}
		c.Parent = parent
		parent.Children = append(parent.Children, c)
	}

	for _, c := range all {
		steps := 0
		for p := c.Parent; p != nil; p = p.Parent {
			steps++
			if steps > len(all) {
				return nil, nil, apperror.NewConsistencyError(fmt.Sprintf("ciclo detectado a partir da categoria '%s'", c.ID))
			}
		}
	}

	sortCategories(roots)
	for _, c := range all {
		sortCategories(c.Children)
	}
	return roots, byID, nil
}

func sortCategories(cs []*Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].SortOrder != cs[j].SortOrder {
			return cs[i].SortOrder < cs[j].SortOrder
		}
		return cs[i].Slug < cs[j].Slug
	})
}
