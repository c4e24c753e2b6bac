package brandservice

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

// BrandRepository define o contrato esperado da persistência de marcas.
type BrandRepository interface {
	FindAll(ctx context.Context) ([]*domain.Brand, error)
	FindByID(ctx context.Context, id string) (*domain.Brand, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error)
	Save(ctx context.Context, b *domain.Brand) error
	CountProducts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type LanguageRegistry interface {
	Snapshot(ctx context.Context) (domain.Languages, error)
}

type Service struct {
	repo      BrandRepository
	languages LanguageRegistry
	logger    logger.Logger
	now       func() time.Time
}

func NewService(repo BrandRepository, languages LanguageRegistry, logger logger.Logger) *Service {
	return &Service{repo: repo, languages: languages, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context) ([]*domain.Brand, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Brand, error) {
	return s.repo.FindByID(ctx, id)
}

// Save cria (id vazio) ou atualiza uma marca. Slug vazio é gerado a partir do
// nome no idioma padrão.
func (s *Service) Save(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	s.logger.Debug("Salvando marca.", map[string]interface{}{"brand_id": id})

	if err := validator.Check("marca inválida", in); err != nil {
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

	now := s.now()
	brand := &domain.Brand{ID: uuid.New().String(), CreatedAt: now}
	if id != "" {
		if brand, err = s.repo.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}

	for _, code := range codes {
		t := in.Translations[code]
		t.Language = code
		if old, ok := domain.FindTranslation(brand.Translations, code); ok && t.Slug == "" {
			t.Slug = old.Slug
		}
		if t.Slug, err = s.translationSlug(ctx, brand.ID, t); err != nil {
			return nil, err
		}
		brand.Translations = domain.UpsertTranslation(brand.Translations, t)
	}

	if in.Slug != "" || brand.Slug == "" {
		loc, err := langs.DefaultLocale()
		if err != nil {
			return nil, err
		}
		scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
			return s.repo.SlugExists(ctx, sl, brand.ID)
		})
		if brand.Slug, err = slug.Claim(ctx, in.Slug, brand.Name(loc), scope); err != nil {
			return nil, err
		}
	}

	brand.IsActive = domain.BoolOr(in.IsActive, true)
	brand.SortOrder = in.SortOrder
	brand.LogoID = in.LogoID
	brand.UpdatedAt = now

	if err := brand.Validate(); err != nil {
		s.logger.Warn("Marca viola invariantes.", map[string]interface{}{"brand_id": brand.ID, "error": err.Error()})
		return nil, err
	}
	if err := s.repo.Save(ctx, brand); err != nil {
		s.logger.Error("Falha ao salvar marca.", err)
		return nil, err
	}
	s.logger.Info("Marca salva.", map[string]interface{}{"brand_id": brand.ID, "slug": brand.Slug})
	return brand, nil
}

func (s *Service) translationSlug(ctx context.Context, brandID string, t domain.BrandTranslation) (string, error) {
	if t.Slug == "" && t.Name == "" {
		return "", nil
	}
	scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
		return s.repo.TranslationSlugExists(ctx, t.Language, sl, brandID)
	})
	return slug.Claim(ctx, t.Slug, t.Name, scope)
}

// RemoveTranslation remove a tradução lang da marca. A última tradução não
// pode ser removida.
func (s *Service) RemoveTranslation(ctx context.Context, id, lang string) error {
	brand, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := domain.FindTranslation(brand.Translations, lang); !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("tradução '%s' da marca '%s'", lang, brand.Slug))
	}
	if len(brand.Translations) == 1 {
		return apperror.NewValidationError("marca inválida", "a última tradução da marca não pode ser removida")
	}
	brand.Translations = domain.RemoveTranslation(brand.Translations, lang)
	brand.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, brand); err != nil {
		s.logger.Error("Falha ao remover tradução da marca.", err)
		return err
	}
	s.logger.Info("Tradução da marca removida.", map[string]interface{}{"brand_id": brand.ID, "language": lang})
	return nil
}

// DuplicateTranslation copia a tradução de from para to. Se to já existe nada
// é gravado e a tradução existente é devolvida.
func (s *Service) DuplicateTranslation(ctx context.Context, id, from, to string) (domain.BrandTranslation, error) {
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return domain.BrandTranslation{}, err
	}
	if err := langs.Require(to); err != nil {
		return domain.BrandTranslation{}, err
	}
	brand, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.BrandTranslation{}, err
	}
	if existing, ok := domain.FindTranslation(brand.Translations, to); ok {
		return existing, nil
	}

	created, err := s.copyTranslation(ctx, brand, from, to)
	if err != nil {
		return domain.BrandTranslation{}, err
	}
	brand.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, brand); err != nil {
		s.logger.Error("Falha ao salvar tradução duplicada da marca.", err)
		return domain.BrandTranslation{}, err
	}
	s.logger.Info("Tradução da marca duplicada.", map[string]interface{}{"brand_id": brand.ID, "from": from, "to": to})
	return created, nil
}

func (s *Service) copyTranslation(ctx context.Context, brand *domain.Brand, from, to string) (domain.BrandTranslation, error) {
	ts, dup, err := domain.DuplicateTranslation(brand.Translations, from, to)
	if err != nil {
		return domain.BrandTranslation{}, err
	}
	candidate := dup.Slug
	if candidate == "" {
		candidate = dup.Name
	}
	scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
		return s.repo.TranslationSlugExists(ctx, to, sl, brand.ID)
	})
	if dup.Slug, err = slug.Unique(ctx, candidate, scope); err != nil {
		return domain.BrandTranslation{}, err
	}
	brand.Translations = domain.UpsertTranslation(ts, dup)
	return dup, nil
}

// CreateMissingTranslations cria a tradução lang nas marcas que não a têm,
// copiando de source (idioma padrão quando vazio). Marcas sem a origem são
// ignoradas. Devolve quantas traduções foram criadas.
func (s *Service) CreateMissingTranslations(ctx context.Context, lang, source string) (int, error) {
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if err := langs.Require(lang); err != nil {
		return 0, err
	}
	if source == "" {
		def, err := langs.Default()
		if err != nil {
			return 0, err
		}
		source = def.Code
	}
	if source == lang {
		return 0, apperror.NewValidationError("o idioma de origem deve ser diferente do idioma de destino")
	}

	brands, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, brand := range brands {
		if _, ok := domain.FindTranslation(brand.Translations, lang); ok {
			continue
		}
		if _, ok := domain.FindTranslation(brand.Translations, source); !ok {
			s.logger.Debug("Marca sem tradução de origem.", map[string]interface{}{"brand_id": brand.ID, "source": source})
			continue
		}
		if _, err := s.copyTranslation(ctx, brand, source, lang); err != nil {
			return created, err
		}
		brand.UpdatedAt = s.now()
		if err := s.repo.Save(ctx, brand); err != nil {
			s.logger.Error("Falha ao criar tradução ausente da marca.", err)
			return created, err
		}
		created++
	}
	s.logger.Info("Traduções ausentes de marcas criadas.", map[string]interface{}{"language": lang, "source": source, "created": created})
	return created, nil
}

// Delete remove uma marca sem produtos associados.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Warn("Remoção de marca com produtos bloqueada.", map[string]interface{}{"brand_id": id, "products": n})
		return apperror.NewConflictError(fmt.Sprintf("a marca possui %d produtos associados", n))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Marca removida.", map[string]interface{}{"brand_id": id})
	return nil
}
