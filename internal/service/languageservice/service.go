package languageservice

import (
	"context"
	"errors"
	"fmt"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/validator"
)

// LanguageRepository define o contrato esperado da persistência de idiomas.
type LanguageRepository interface {
	FindAll(ctx context.Context) ([]domain.Language, error)
	FindByCode(ctx context.Context, code string) (domain.Language, error)
	Save(ctx context.Context, lang domain.Language) error
	SetDefault(ctx context.Context, code string) error
	CountTranslations(ctx context.Context, code string) (int, error)
	Delete(ctx context.Context, code string) error
}

// Service é o registro de idiomas. As demais operações de tradução obtêm
// daqui o conjunto ativo e o idioma padrão.
type Service struct {
	repo   LanguageRepository
	logger logger.Logger
}

func NewService(repo LanguageRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List devolve todos os idiomas, inclusive os inativos.
func (s *Service) List(ctx context.Context) ([]domain.Language, error) {
	return s.repo.FindAll(ctx)
}

// Snapshot devolve os idiomas ativos na ordem do registro.
func (s *Service) Snapshot(ctx context.Context) (domain.Languages, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return domain.Languages{}, err
	}
	return domain.NewLanguages(all), nil
}

// Default devolve o idioma padrão. Zero ou vários padrões ativos é ConsistencyError.
func (s *Service) Default(ctx context.Context) (domain.Language, error) {
	langs, err := s.Snapshot(ctx)
	if err != nil {
		return domain.Language{}, err
	}
	def, err := langs.Default()
	if err != nil {
		s.logger.Error("Registro de idiomas inconsistente.", err)
		return domain.Language{}, err
	}
	return def, nil
}

// Save cria ou atualiza um idioma. A marca de padrão só muda por SetDefault.
func (s *Service) Save(ctx context.Context, in domain.LanguageInput) (domain.Language, error) {
	s.logger.Debug("Salvando idioma.", map[string]interface{}{"code": in.Code})

	if err := validator.Check("idioma inválido", in); err != nil {
		s.logger.Warn("Idioma rejeitado na validação.", map[string]interface{}{"code": in.Code})
		return domain.Language{}, err
	}

	lang := domain.Language{
		Code:       in.Code,
		Name:       in.Name,
		NativeName: in.NativeName,
		IsActive:   domain.BoolOr(in.IsActive, true),
		SortOrder:  in.SortOrder,
	}

	existing, err := s.repo.FindByCode(ctx, in.Code)
	var notFound *apperror.NotFoundError
	switch {
	case err == nil:
		lang.IsDefault = existing.IsDefault
		lang.CreatedAt = existing.CreatedAt
	case errors.As(err, &notFound):
	default:
		return domain.Language{}, err
	}

	if err := lang.Validate(); err != nil {
		s.logger.Warn("Idioma viola invariantes.", map[string]interface{}{"code": in.Code, "error": err.Error()})
		return domain.Language{}, err
	}

	if err := s.repo.Save(ctx, lang); err != nil {
		s.logger.Error("Falha ao salvar idioma.", err)
		return domain.Language{}, err
	}
	s.logger.Info("Idioma salvo.", map[string]interface{}{"code": lang.Code, "active": lang.IsActive})
	return lang, nil
}

// SetDefault torna code o único idioma padrão. O idioma precisa estar ativo.
func (s *Service) SetDefault(ctx context.Context, code string) error {
	lang, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !lang.IsActive {
		return apperror.NewValidationError(fmt.Sprintf("o idioma '%s' está inativo e não pode ser o padrão", code))
	}
	if lang.IsDefault {
		return nil
	}
	return s.repo.SetDefault(ctx, code)
}

// Delete remove um idioma sem traduções. O padrão nunca é removido.
func (s *Service) Delete(ctx context.Context, code string) error {
	lang, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if lang.IsDefault {
		return apperror.NewConflictError(fmt.Sprintf("o idioma padrão '%s' não pode ser removido", code))
	}
	n, err := s.repo.CountTranslations(ctx, code)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewConflictError(fmt.Sprintf("o idioma '%s' é usado por %d traduções; desative-o em vez de remover", code, n))
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return err
	}
	s.logger.Info("Idioma removido.", map[string]interface{}{"code": code})
	return nil
}
