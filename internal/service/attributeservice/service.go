package attributeservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/validator"
)

// AttributeRepository define o contrato esperado da persistência de atributos.
type AttributeRepository interface {
	FindAll(ctx context.Context) ([]*domain.Attribute, error)
	FindByID(ctx context.Context, id string) (*domain.Attribute, error)
	CodeExists(ctx context.Context, code, excludeID string) (bool, error)
	Save(ctx context.Context, a *domain.Attribute) error
	CountValueUsage(ctx context.Context, valueID string) (int, error)
	CountAttributeUsage(ctx context.Context, attributeID string) (int, error)
	DeleteValue(ctx context.Context, valueID string) error
	Delete(ctx context.Context, id string) error
}

// ProductCache descarta os snapshots de produto, que embutem atributos e valores.
type ProductCache interface {
	InvalidateAll(ctx context.Context) error
}

// LanguageRegistry fornece o conjunto de idiomas ativos.
type LanguageRegistry interface {
	Snapshot(ctx context.Context) (domain.Languages, error)
}

type Service struct {
	repo      AttributeRepository
	products  ProductCache
	languages LanguageRegistry
	logger    logger.Logger
	now       func() time.Time
}

func NewService(repo AttributeRepository, products ProductCache, languages LanguageRegistry, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		languages: languages,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context) ([]*domain.Attribute, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Attribute, error) {
	return s.repo.FindByID(ctx, id)
}

// Save cria (id vazio) ou atualiza um atributo. Traduções informadas
// substituem as do mesmo idioma; as demais são mantidas.
func (s *Service) Save(ctx context.Context, id string, in domain.AttributeInput) (*domain.Attribute, error) {
	s.logger.Debug("Salvando atributo.", map[string]interface{}{"attribute_id": id, "code": in.Code})

	if err := validator.Check("atributo inválido", in); err != nil {
		s.logger.Warn("Atributo rejeitado na validação.", map[string]interface{}{"code": in.Code})
		return nil, err
	}
	cfg, err := domain.ParseAttributeConfiguration(in.Configuration)
	if err != nil {
		return nil, err
	}
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := langs.Require(domain.SortedLanguageCodes(in.Translations)...); err != nil {
		return nil, err
	}

	now := s.now()
	attr := &domain.Attribute{ID: uuid.New().String(), CreatedAt: now}
	if id != "" {
		if attr, err = s.repo.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}

	taken, err := s.repo.CodeExists(ctx, in.Code, attr.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.NewValidationError("atributo inválido", fmt.Sprintf("o código '%s' já está em uso", in.Code))
	}

	attr.Code = in.Code
	attr.Type = domain.AttributeType(in.Type)
	attr.IsRequired = in.IsRequired
	attr.IsVariant = in.IsVariant
	attr.IsFilterable = in.IsFilterable
	attr.IsActive = domain.BoolOr(in.IsActive, true)
	attr.SortOrder = in.SortOrder
	attr.Configuration = cfg
	attr.UpdatedAt = now
	for _, code := range domain.SortedLanguageCodes(in.Translations) {
		t := in.Translations[code]
		t.Language = code
		attr.Translations = domain.UpsertTranslation(attr.Translations, t)
	}

	if err := attr.Validate(); err != nil {
		s.logger.Warn("Atributo viola invariantes.", map[string]interface{}{"code": attr.Code, "error": err.Error()})
		return nil, err
	}
	if err := s.repo.Save(ctx, attr); err != nil {
		s.logger.Error("Falha ao salvar atributo.", err)
		return nil, err
	}
	s.invalidateProducts(ctx, attr.ID)
	s.logger.Info("Atributo salvo.", map[string]interface{}{"attribute_id": attr.ID, "code": attr.Code})
	return attr, nil
}

// SaveValue cria (valueID vazio) ou atualiza um valor do atributo.
func (s *Service) SaveValue(ctx context.Context, attributeID, valueID string, in domain.AttributeValueInput) (*domain.AttributeValue, error) {
	s.logger.Debug("Salvando valor de atributo.", map[string]interface{}{"attribute_id": attributeID, "value_id": valueID})

	if err := validator.Check("valor de atributo inválido", in); err != nil {
		return nil, err
	}
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := langs.Require(domain.SortedLanguageCodes(in.Translations)...); err != nil {
		return nil, err
	}

	attr, err := s.repo.FindByID(ctx, attributeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	value, ok := attr.FindValue(valueID)
	if valueID == "" {
		value = &domain.AttributeValue{ID: uuid.New().String(), CreatedAt: now}
		attr.AddValue(value)
	} else if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("valor '%s' do atributo '%s'", valueID, attr.Code))
	}

	value.Value = in.Value
	value.HexColor = in.HexColor
	value.ImageID = in.ImageID
	value.IsActive = domain.BoolOr(in.IsActive, true)
	value.SortOrder = in.SortOrder
	value.UpdatedAt = now
	for _, code := range domain.SortedLanguageCodes(in.Translations) {
		t := in.Translations[code]
		t.Language = code
		value.Translations = domain.UpsertTranslation(value.Translations, t)
	}
	attr.UpdatedAt = now

	if err := attr.Validate(); err != nil {
		s.logger.Warn("Valor de atributo viola invariantes.", map[string]interface{}{"attribute_id": attributeID, "error": err.Error()})
		return nil, err
	}
	if err := s.repo.Save(ctx, attr); err != nil {
		s.logger.Error("Falha ao salvar valor de atributo.", err)
		return nil, err
	}
	s.invalidateProducts(ctx, attr.ID)
	return value, nil
}

// invalidateProducts descarta os snapshots de produto após uma escrita já
// confirmada; falha do cache não desfaz a escrita, o TTL limita a defasagem.
func (s *Service) invalidateProducts(ctx context.Context, attributeID string) {
	if err := s.products.InvalidateAll(ctx); err != nil {
		s.logger.Warn("Snapshots de produto podem estar defasados.", map[string]interface{}{"attribute_id": attributeID, "error": err.Error()})
	}
}

// DeleteValue remove um valor que nenhuma variante usa.
func (s *Service) DeleteValue(ctx context.Context, attributeID, valueID string) error {
	attr, err := s.repo.FindByID(ctx, attributeID)
	if err != nil {
		return err
	}
	if _, ok := attr.FindValue(valueID); !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("valor '%s' do atributo '%s'", valueID, attr.Code))
	}
	n, err := s.repo.CountValueUsage(ctx, valueID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Warn("Remoção de valor em uso bloqueada.", map[string]interface{}{"value_id": valueID, "variants": n})
		return apperror.NewConflictError(fmt.Sprintf("o valor é usado por %d variantes; desative-o em vez de remover", n))
	}
	if err := s.repo.DeleteValue(ctx, valueID); err != nil {
		return err
	}
	s.logger.Info("Valor de atributo removido.", map[string]interface{}{"value_id": valueID})
	return nil
}

// Delete remove um atributo cujos valores nenhuma variante usa.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.CountAttributeUsage(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewConflictError(fmt.Sprintf("o atributo tem valores usados por %d variantes", n))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Atributo removido.", map[string]interface{}{"attribute_id": id})
	return nil
}
