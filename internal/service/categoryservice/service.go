package categoryservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/slug"
	"gocatalog/internal/pkg/validator"
)

// CategoryRepository define o contrato esperado da persistência de categorias.
type CategoryRepository interface {
	FindAll(ctx context.Context) ([]*domain.Category, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error)
	Save(ctx context.Context, c *domain.Category, moved []*domain.Category) error
	CountChildren(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type LanguageRegistry interface {
	Snapshot(ctx context.Context) (domain.Languages, error)
}

type Service struct {
	repo      CategoryRepository
	languages LanguageRegistry
	logger    logger.Logger
	now       func() time.Time
}

func NewService(repo CategoryRepository, languages LanguageRegistry, logger logger.Logger) *Service {
	return &Service{repo: repo, languages: languages, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Tree devolve as raízes da floresta com os filhos ligados.
func (s *Service) Tree(ctx context.Context) ([]*domain.Category, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	roots, _, err := domain.BuildCategoryTree(all)
	if err != nil {
		s.logger.Error("Árvore de categorias inconsistente.", err)
		return nil, err
	}
	return roots, nil
}

// Get devolve a categoria com Parent e Children ligados.
func (s *Service) Get(ctx context.Context, id string) (*domain.Category, error) {
	_, byID, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := byID[id]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("categoria '%s'", id))
	}
	return c, nil
}

func (s *Service) load(ctx context.Context) ([]*domain.Category, map[string]*domain.Category, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	_, byID, err := domain.BuildCategoryTree(all)
	if err != nil {
		return nil, nil, err
	}
	return all, byID, nil
}

// Save cria (id vazio) ou atualiza uma categoria. Mover para baixo de si mesma
// ou de um descendente é rejeitado; os níveis da subárvore movida são recalculados.
func (s *Service) Save(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	s.logger.Debug("Salvando categoria.", map[string]interface{}{"category_id": id, "parent_id": in.ParentID})

	if err := validator.Check("categoria inválida", in); err != nil {
		return nil, err
	}
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	codes := domain.SortedLanguageCodes(in.Translations)
	if err := langs.Require(codes...); err != nil {
		return nil, err
	}

	_, byID, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	node := &domain.Category{ID: uuid.New().String(), CreatedAt: now}
	if id != "" {
		var ok bool
		if node, ok = byID[id]; !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("categoria '%s'", id))
		}
	}

	var parent *domain.Category
	if in.ParentID != "" {
		var ok bool
		if parent, ok = byID[in.ParentID]; !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("categoria pai '%s'", in.ParentID))
		}
	}
	moved, err := node.SetParent(parent)
	if err != nil {
		s.logger.Warn("Movimento de categoria rejeitado.", map[string]interface{}{"category_id": node.ID, "parent_id": in.ParentID})
		return nil, err
	}

	for _, code := range codes {
		t := in.Translations[code]
		t.Language = code
		if old, ok := domain.FindTranslation(node.Translations, code); ok && t.Slug == "" {
			t.Slug = old.Slug
		}
		if t.Slug != "" || t.Name != "" {
			scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
				return s.repo.TranslationSlugExists(ctx, code, sl, node.ID)
			})
			if t.Slug, err = slug.Claim(ctx, t.Slug, t.Name, scope); err != nil {
				return nil, err
			}
		}
		node.Translations = domain.UpsertTranslation(node.Translations, t)
	}

	if in.Slug != "" || node.Slug == "" {
		loc, err := langs.DefaultLocale()
		if err != nil {
			return nil, err
		}
		scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
			return s.repo.SlugExists(ctx, sl, node.ID)
		})
		if node.Slug, err = slug.Claim(ctx, in.Slug, node.Name(loc), scope); err != nil {
			return nil, err
		}
	}

	node.Icon = in.Icon
	node.ImageID = in.ImageID
	node.IsActive = domain.BoolOr(in.IsActive, true)
	node.SortOrder = in.SortOrder
	node.UpdatedAt = now

	if err := node.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, node, moved); err != nil {
		s.logger.Error("Falha ao salvar categoria.", err)
		return nil, err
	}
	s.logger.Info("Categoria salva.", map[string]interface{}{"category_id": node.ID, "level": node.Level})
	return node, nil
}

// RemoveTranslation remove a tradução lang da categoria. A última tradução
// não pode ser removida.
func (s *Service) RemoveTranslation(ctx context.Context, id, lang string) error {
	node, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := domain.FindTranslation(node.Translations, lang); !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("tradução '%s' da categoria '%s'", lang, node.Slug))
	}
	if len(node.Translations) == 1 {
		return apperror.NewValidationError("categoria inválida", "a última tradução da categoria não pode ser removida")
	}
	node.Translations = domain.RemoveTranslation(node.Translations, lang)
	node.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, node, nil); err != nil {
		s.logger.Error("Falha ao remover tradução da categoria.", err)
		return err
	}
	s.logger.Info("Tradução da categoria removida.", map[string]interface{}{"category_id": node.ID, "language": lang})
	return nil
}

// Delete remove uma categoria sem subcategorias.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewConflictError(fmt.Sprintf("a categoria possui %d subcategorias", n))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Categoria removida.", map[string]interface{}{"category_id": id})
	return nil
}
