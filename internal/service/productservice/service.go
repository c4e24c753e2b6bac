package productservice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/slug"
	"gocatalog/internal/pkg/validator"
)

// DefaultMaxSearchLimit é o teto de itens por página quando nenhum é configurado.
const DefaultMaxSearchLimit = 100

// ProductRepository define o contrato esperado da persistência do agregado Produto.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Save(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	SKUExists(ctx context.Context, sku, excludeProductID string) (bool, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error)
	Search(ctx context.Context, c domain.ProductCriteria, sortLanguage string) (domain.ProductPage, error)
	FindIDsMissingTranslation(ctx context.Context, lang string) ([]string, error)
}

type BrandChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type CategoryChecker interface {
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

type AttributeValueFinder interface {
	FindValuesByIDs(ctx context.Context, ids []string) (map[string]*domain.AttributeValue, error)
}

type LanguageRegistry interface {
	Snapshot(ctx context.Context) (domain.Languages, error)
}

// References agrupa as fontes usadas para resolver as referências do payload.
type References struct {
	Brands          BrandChecker
	Categories      CategoryChecker
	AttributeValues AttributeValueFinder
}

type Service struct {
	repo      ProductRepository
	refs      References
	languages LanguageRegistry
	logger    logger.Logger
	now       func() time.Time

	MaxSearchLimit int
}

func NewService(repo ProductRepository, refs References, languages LanguageRegistry, logger logger.Logger) *Service {
	return &Service{
		repo:           repo,
		refs:           refs,
		languages:      languages,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
		MaxSearchLimit: DefaultMaxSearchLimit,
	}
}

// GetProduct devolve o agregado completo.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteProduct remove o produto; variantes e traduções vão junto.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Produto removido.", map[string]interface{}{"product_id": id})
	return nil
}

// DeleteVariant remove a variante sku do produto. O agregado é revalidado:
// um produto variável ativo não pode ficar sem variante ativa.
func (s *Service) DeleteVariant(ctx context.Context, id, sku string) (*domain.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.RemoveVariant(sku) {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("variante '%s' do produto '%s'", sku, p.SKU))
	}
	p.UpdatedAt = s.now()
	if err := p.Validate(); err != nil {
		s.logger.Warn("Remoção de variante rejeitada.", map[string]interface{}{"product_id": p.ID, "sku": sku, "error": err.Error()})
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Falha ao remover variante.", err)
		return nil, err
	}
	s.logger.Info("Variante removida.", map[string]interface{}{"product_id": p.ID, "sku": sku})
	return p, nil
}

// SaveProduct cria (id vazio) ou atualiza um produto com traduções e variantes.
// Todo o payload é validado e todas as referências resolvidas antes de qualquer
// escrita; a gravação acontece numa única transação.
func (s *Service) SaveProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	s.logger.Debug("Salvando produto.", map[string]interface{}{"product_id": id, "sku": in.SKU, "variants": len(in.Variants)})

	if err := validator.Check("produto inválido", in); err != nil {
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
	for _, vin := range in.Variants {
		if err := langs.Require(domain.SortedLanguageCodes(vin.Translations)...); err != nil {
			return nil, err
		}
	}

	now := s.now()
	p := &domain.Product{ID: uuid.New().String(), CreatedAt: now}
	if id != "" {
		if p, err = s.repo.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}

	values, err := s.resolveReferences(ctx, in)
	if err != nil {
		s.logger.Warn("Referência inexistente no payload do produto.", map[string]interface{}{"product_id": p.ID, "error": err.Error()})
		return nil, err
	}

	if err := s.apply(p, in, values, now); err != nil {
		return nil, err
	}

	for _, code := range codes {
		t := in.Translations[code].ToTranslation(code)
		// Slug omitido na edição mantém o já gravado; URLs publicadas não mudam
		// só porque o nome mudou.
		if old, ok := domain.FindTranslation(p.Translations, code); ok && t.Slug == "" {
			t.Slug = old.Slug
		}
		if t.Slug, err = s.translationSlug(ctx, p.ID, code, t.Slug, t.Name); err != nil {
			return nil, err
		}
		p.UpsertTranslation(t)
	}

	if in.Slug != "" || p.Slug == "" {
		loc, err := langs.DefaultLocale()
		if err != nil {
			return nil, err
		}
		scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
			return s.repo.SlugExists(ctx, sl, p.ID)
		})
		if p.Slug, err = slug.Claim(ctx, in.Slug, p.Name(loc), scope); err != nil {
			return nil, err
		}
	}

	if err := s.checkSKUs(ctx, p); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		s.logger.Warn("Produto viola invariantes.", map[string]interface{}{"product_id": p.ID, "error": err.Error()})
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Falha ao salvar produto.", err)
		return nil, err
	}
	s.logger.Info("Produto salvo.", map[string]interface{}{"product_id": p.ID, "sku": p.SKU, "variants": len(p.Variants)})
	return p, nil
}

// resolveReferences confirma marca e categorias e carrega os valores de atributo
// usados pelas variantes. Qualquer ID desconhecido é NotFound.
func (s *Service) resolveReferences(ctx context.Context, in domain.ProductInput) (map[string]*domain.AttributeValue, error) {
	if in.BrandID != "" {
		ok, err := s.refs.Brands.Exists(ctx, in.BrandID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("marca '%s'", in.BrandID))
		}
	}

	if len(in.CategoryIDs) > 0 {
		found, err := s.refs.Categories.ExistingIDs(ctx, in.CategoryIDs)
		if err != nil {
			return nil, err
		}
		if missing := missingIDs(in.CategoryIDs, found); len(missing) > 0 {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("categoria '%s'", missing[0]))
		}
	}

	var valueIDs []string
	for _, vin := range in.Variants {
		valueIDs = append(valueIDs, vin.AttributeValueIDs...)
	}
	valueIDs = uniqueIDs(valueIDs)
	if len(valueIDs) == 0 {
		return nil, nil
	}
	values, err := s.refs.AttributeValues.FindValuesByIDs(ctx, valueIDs)
	if err != nil {
		return nil, err
	}
	for _, vid := range valueIDs {
		if _, ok := values[vid]; !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("valor de atributo '%s'", vid))
		}
	}
	return values, nil
}

// apply copia os campos escalares e substitui o conjunto de variantes. Variantes
// casadas pelo SKU preservam ID e data de criação.
func (s *Service) apply(p *domain.Product, in domain.ProductInput, values map[string]*domain.AttributeValue, now time.Time) error {
	var dp domain.DecimalParser

	p.SKU = in.SKU
	p.Price = dp.Money("price", &in.Price)
	p.CompareAtPrice = dp.Money("compare_at_price", in.CompareAtPrice)
	p.CostPrice = dp.Money("cost_price", in.CostPrice)
	p.Weight = dp.Weight("weight", in.Weight)
	p.Dimensions = dp.Dimensions("dimensions", in.Dimensions)
	p.Stock = in.Stock
	p.LowStockThreshold = in.LowStockThreshold
	p.TrackStock = domain.BoolOr(in.TrackStock, true)
	p.IsVariable = in.IsVariable
	p.IsDigital = in.IsDigital
	p.BrandID = in.BrandID
	p.CategoryIDs = uniqueIDs(in.CategoryIDs)
	p.MediaIDs = in.MediaIDs
	p.PrimaryImageID = in.PrimaryImageID

	p.Status = domain.ProductStatus(in.Status)
	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	switch {
	case in.PublishedAt != nil:
		at := in.PublishedAt.UTC()
		p.PublishedAt = &at
	case p.Status == domain.StatusActive && p.PublishedAt == nil:
		p.PublishedAt = &now
	}
	p.UpdatedAt = now

	previous := p.Variants
	p.Variants = nil
	for i, vin := range in.Variants {
		field := fmt.Sprintf("variants[%d]", i)
		v := &domain.ProductVariant{ID: uuid.New().String(), CreatedAt: now}
		for _, old := range previous {
			if old.SKU == vin.SKU {
				v = old
				break
			}
		}
		v.SKU = vin.SKU
		v.Price = dp.Money(field+".price", vin.Price)
		v.CompareAtPrice = dp.Money(field+".compare_at_price", vin.CompareAtPrice)
		v.CostPrice = dp.Money(field+".cost_price", vin.CostPrice)
		v.Weight = dp.Weight(field+".weight", vin.Weight)
		v.Dimensions = dp.Dimensions(field+".dimensions", vin.Dimensions)
		v.Stock = vin.Stock
		v.LowStockThreshold = vin.LowStockThreshold
		v.TrackStock = domain.BoolOr(vin.TrackStock, p.TrackStock)
		v.IsActive = domain.BoolOr(vin.IsActive, true)
		v.SortOrder = vin.SortOrder
		v.MediaIDs = vin.MediaIDs
		v.UpdatedAt = now

		v.AttributeValues = v.AttributeValues[:0]
		for _, vid := range vin.AttributeValueIDs {
			v.AttributeValues = append(v.AttributeValues, values[vid])
		}
		for _, code := range domain.SortedLanguageCodes(vin.Translations) {
			t := vin.Translations[code]
			v.UpsertTranslation(domain.VariantTranslation{Language: code, Name: t.Name, Description: t.Description})
		}
		p.AddVariant(v)
	}

	if len(dp.Violations) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("produto '%s' inválido", in.SKU), dp.Violations...)
	}
	return nil
}

func (s *Service) translationSlug(ctx context.Context, productID, lang, explicit, name string) (string, error) {
	scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
		return s.repo.TranslationSlugExists(ctx, lang, sl, productID)
	})
	return slug.Claim(ctx, explicit, name, scope)
}

// checkSKUs garante que nenhum SKU do agregado é usado por outro produto ou
// variante. Duplicatas dentro do próprio agregado ficam para Validate.
func (s *Service) checkSKUs(ctx context.Context, p *domain.Product) error {
	skus := []string{p.SKU}
	for _, v := range p.Variants {
		skus = append(skus, v.SKU)
	}
	var violations []string
	for _, sku := range uniqueIDs(skus) {
		used, err := s.repo.SKUExists(ctx, sku, p.ID)
		if err != nil {
			return err
		}
		if used {
			violations = append(violations, fmt.Sprintf("o SKU '%s' já está em uso", sku))
		}
	}
	if len(violations) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("produto '%s' inválido", p.SKU), violations...)
	}
	return nil
}

// ResolveProduct devolve o produto resolvido para o idioma (padrão quando vazio).
func (s *Service) ResolveProduct(ctx context.Context, id, lang string) (domain.ProductView, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.ProductView{}, err
	}
	loc, langs, err := s.locale(ctx, lang)
	if err != nil {
		return domain.ProductView{}, err
	}
	view := domain.NewProductView(p, loc, s.now())
	view.Translations = p.TranslationStatus(langs)
	return view, nil
}

// ResolveVariant procura a variante ativa cuja combinação é exatamente valueIDs.
func (s *Service) ResolveVariant(ctx context.Context, id string, valueIDs []string, lang string) (domain.VariantView, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.VariantView{}, err
	}
	v, err := p.FindVariantByAttributeValues(valueIDs)
	if err != nil {
		s.logger.Error("Combinação de atributos ambígua.", err)
		return domain.VariantView{}, err
	}
	if v == nil {
		return domain.VariantView{}, apperror.NewNotFoundError(fmt.Sprintf("variante do produto '%s' com a combinação informada", p.SKU))
	}
	loc, _, err := s.locale(ctx, lang)
	if err != nil {
		return domain.VariantView{}, err
	}
	return domain.NewVariantView(v, loc), nil
}

func (s *Service) locale(ctx context.Context, lang string) (domain.Locale, domain.Languages, error) {
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return domain.Locale{}, domain.Languages{}, err
	}
	if lang == "" {
		loc, err := langs.DefaultLocale()
		return loc, langs, err
	}
	if _, err := langs.Default(); err != nil {
		s.logger.Warn("Idioma padrão indefinido; resolvendo traduções sem fallback.", map[string]interface{}{"language": lang, "error": err.Error()})
	}
	return langs.Locale(lang), langs, nil
}

// TranslationStatus devolve o estado de tradução do produto em cada idioma ativo.
func (s *Service) TranslationStatus(ctx context.Context, id string) ([]domain.TranslationStatus, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return p.TranslationStatus(langs), nil
}

// DuplicateTranslation copia a tradução de from para to. Se to já existe nada
// é gravado e a tradução existente é devolvida.
func (s *Service) DuplicateTranslation(ctx context.Context, id, from, to string) (domain.ProductTranslation, error) {
	langs, err := s.languages.Snapshot(ctx)
	if err != nil {
		return domain.ProductTranslation{}, err
	}
	if err := langs.Require(to); err != nil {
		return domain.ProductTranslation{}, err
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.ProductTranslation{}, err
	}
	if existing, ok := domain.FindTranslation(p.Translations, to); ok {
		return existing, nil
	}

	created, err := s.copyTranslation(ctx, p, from, to)
	if err != nil {
		return domain.ProductTranslation{}, err
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Falha ao salvar tradução duplicada.", err)
		return domain.ProductTranslation{}, err
	}
	s.logger.Info("Tradução duplicada.", map[string]interface{}{"product_id": p.ID, "from": from, "to": to})
	return created, nil
}

// RemoveTranslation remove a tradução lang do produto e das variantes. A
// última tradução do produto não pode ser removida.
func (s *Service) RemoveTranslation(ctx context.Context, id, lang string) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if !p.HasTranslation(lang) {
		return apperror.NewNotFoundError(fmt.Sprintf("tradução '%s' do produto '%s'", lang, p.SKU))
	}
	if len(p.Translations) == 1 {
		return apperror.NewValidationError(fmt.Sprintf("produto '%s' inválido", p.SKU), "a última tradução do produto não pode ser removida")
	}

	p.Translations = domain.RemoveTranslation(p.Translations, lang)
	for _, v := range p.Variants {
		v.Translations = domain.RemoveTranslation(v.Translations, lang)
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Falha ao remover tradução do produto.", err)
		return err
	}
	s.logger.Info("Tradução removida.", map[string]interface{}{"product_id": p.ID, "language": lang})
	return nil
}

// copyTranslation duplica from em to e garante o slug livre no idioma de destino.
func (s *Service) copyTranslation(ctx context.Context, p *domain.Product, from, to string) (domain.ProductTranslation, error) {
	ts, dup, err := domain.DuplicateTranslation(p.Translations, from, to)
	if err != nil {
		return domain.ProductTranslation{}, err
	}
	candidate := dup.Slug
	if candidate == "" {
		candidate = dup.Name
	}
	scope := slug.ScopeFunc(func(ctx context.Context, sl string) (bool, error) {
		return s.repo.TranslationSlugExists(ctx, to, sl, p.ID)
	})
	if dup.Slug, err = slug.Unique(ctx, candidate, scope); err != nil {
		return domain.ProductTranslation{}, err
	}
	p.Translations = domain.UpsertTranslation(ts, dup)
	return dup, nil
}

// CreateMissingTranslations cria a tradução lang em todos os produtos que não a
// têm, copiando de source (idioma padrão quando vazio). Produtos sem tradução na
// origem são ignorados. Devolve quantas traduções foram criadas.
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

	ids, err := s.repo.FindIDsMissingTranslation(ctx, lang)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, id := range ids {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return created, err
		}
		if !p.HasTranslation(source) {
			s.logger.Debug("Produto sem tradução de origem.", map[string]interface{}{"product_id": id, "source": source})
			continue
		}
		if _, err := s.copyTranslation(ctx, p, source, lang); err != nil {
			return created, err
		}
		p.UpdatedAt = s.now()
		if err := s.repo.Save(ctx, p); err != nil {
			s.logger.Error("Falha ao criar tradução ausente.", err)
			return created, err
		}
		created++
	}
	s.logger.Info("Traduções ausentes criadas.", map[string]interface{}{"language": lang, "source": source, "created": created, "candidates": len(ids)})
	return created, nil
}

// SearchProducts aplica os padrões aos critérios e consulta o catálogo. A
// ordenação por nome usa o idioma dos critérios ou o padrão.
func (s *Service) SearchProducts(ctx context.Context, c domain.ProductCriteria) (domain.ProductPage, error) {
	if err := c.Normalize(s.MaxSearchLimit); err != nil {
		return domain.ProductPage{}, err
	}
	sortLanguage := c.Language
	if sortLanguage == "" {
		langs, err := s.languages.Snapshot(ctx)
		if err != nil {
			return domain.ProductPage{}, err
		}
		def, err := langs.Default()
		if err != nil {
			return domain.ProductPage{}, err
		}
		sortLanguage = def.Code
	}
	return s.repo.Search(ctx, c, sortLanguage)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(want, found []string) []string {
	have := make(map[string]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	var missing []string
	for _, id := range want {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
