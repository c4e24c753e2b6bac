package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperror "gocatalog/internal/errors"
)

// ProductStatus é o ciclo de vida editorial do produto.
type ProductStatus string

const (
	StatusDraft    ProductStatus = "draft"
	StatusActive   ProductStatus = "active"
	StatusInactive ProductStatus = "inactive"
	StatusArchived ProductStatus = "archived"
)

func (s ProductStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

// Dimensions são as medidas físicas de um produto ou variante.
type Dimensions struct {
	Length *decimal.Decimal `json:"length,omitempty"`
	Width  *decimal.Decimal `json:"width,omitempty"`
	Height *decimal.Decimal `json:"height,omitempty"`
	Unit   string           `json:"unit,omitempty"`
}

func (d Dimensions) IsZero() bool {
	return d.Length == nil && d.Width == nil && d.Height == nil
}

func (d Dimensions) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *Dimensions) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = Dimensions{}
		return nil
	}
	return fmt.Errorf("tipo incompatível para dimensões: %T", src)
}

// Product é a raiz do agregado: variantes e traduções pertencem a ele.
type Product struct {
	ID                string           `json:"id"`
	SKU               string           `json:"sku"`
	Slug              string           `json:"slug"`
	Price             *decimal.Decimal `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price,omitempty"`
	CostPrice         *decimal.Decimal `json:"cost_price,omitempty"`
	Stock             int              `json:"stock"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
	TrackStock        bool             `json:"track_stock"`
	IsVariable        bool             `json:"is_variable"`
	Status            ProductStatus    `json:"status"`
	IsDigital         bool             `json:"is_digital"`
	Weight            *decimal.Decimal `json:"weight,omitempty"`
	Dimensions        *Dimensions      `json:"dimensions,omitempty"`
	BrandID           string           `json:"brand_id,omitempty"`
	CategoryIDs       []string         `json:"category_ids"`
	MediaIDs          []string         `json:"media_ids"`
	PrimaryImageID    string           `json:"primary_image_id,omitempty"`
	PublishedAt       *time.Time       `json:"published_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`

	Translations []ProductTranslation `json:"translations"`
	Variants     []*ProductVariant    `json:"variants"`
}

// AddVariant anexa a variante e ajusta a referência ao produto.
// Unicidade de SKU e de combinação é verificada em Validate, nunca aqui.
func (p *Product) AddVariant(v *ProductVariant) {
	v.ProductID = p.ID
	v.Product = p
	p.Variants = append(p.Variants, v)
}

// RemoveVariant remove a variante com o SKU informado.
func (p *Product) RemoveVariant(sku string) bool {
	for i, v := range p.Variants {
		if v.SKU == sku {
			p.Variants = append(p.Variants[:i], p.Variants[i+1:]...)
			return true
		}
	}
	return false
}

// VariantBySKU procura uma variante do produto pelo SKU.
func (p *Product) VariantBySKU(sku string) (*ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.SKU == sku {
			return v, true
		}
	}
	return nil, false
}

// ActiveVariants devolve as variantes ativas ordenadas por SortOrder.
func (p *Product) ActiveVariants() []*ProductVariant {
	var out []*ProductVariant
	for _, v := range p.Variants {
		if v.IsActive {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// IsInStock: sem controle de estoque está sempre disponível; produto variável
// está disponível se QUALQUER variante ativa estiver.
func (p *Product) IsInStock() bool {
	if !p.TrackStock {
		return true
	}
	if p.IsVariable {
		for _, v := range p.Variants {
			if v.IsActive && v.IsInStock() {
				return true
			}
		}
		return false
	}
	return p.Stock > 0
}

// IsLowStock segue a mesma regra de OU entre variantes. Sem limite definido, false.
func (p *Product) IsLowStock() bool {
	if !p.TrackStock {
		return false
	}
	if p.IsVariable {
		for _, v := range p.Variants {
			if v.IsActive && v.IsLowStock() {
				return true
			}
		}
		return false
	}
	if p.LowStockThreshold == nil {
		return false
	}
	return p.Stock <= *p.LowStockThreshold
}

// IsPublished: ativo e com data de publicação já alcançada.
func (p *Product) IsPublished(now time.Time) bool {
	return p.Status == StatusActive && p.PublishedAt != nil && !p.PublishedAt.After(now)
}

// IsValidPriceStructure exige preço; o preço comparativo deve ser maior e o custo menor.
func (p *Product) IsValidPriceStructure() bool {
	return len(priceStructureViolations(p.Price, p.CompareAtPrice, p.CostPrice)) == 0
}

func priceStructureViolations(price, compareAt, cost *decimal.Decimal) []string {
	if price == nil {
		return []string{"o preço é obrigatório"}
	}
	var out []string
	if price.IsNegative() {
		out = append(out, "o preço não pode ser negativo")
	}
	if compareAt != nil && compareAt.LessThanOrEqual(*price) {
		out = append(out, "o preço comparativo deve ser maior que o preço")
	}
	if cost != nil && cost.GreaterThanOrEqual(*price) {
		out = append(out, "o preço de custo deve ser menor que o preço")
	}
	return out
}

// DiscountPercentage = round(100 * (comparativo - preço) / comparativo, 2),
// apenas quando o comparativo é maior que o preço.
func (p *Product) DiscountPercentage() (decimal.Decimal, bool) {
	return discountPercentage(p.Price, p.CompareAtPrice)
}

// ProfitMarginPercentage = round(100 * (preço - custo) / preço, 2),
// apenas quando o custo é menor que o preço.
func (p *Product) ProfitMarginPercentage() (decimal.Decimal, bool) {
	return profitMarginPercentage(p.Price, p.CostPrice)
}

var hundred = decimal.NewFromInt(100)

func discountPercentage(price, compareAt *decimal.Decimal) (decimal.Decimal, bool) {
	if price == nil || compareAt == nil || !compareAt.GreaterThan(*price) {
		return decimal.Zero, false
	}
	return compareAt.Sub(*price).Mul(hundred).Div(*compareAt).Round(2), true
}

func profitMarginPercentage(price, cost *decimal.Decimal) (decimal.Decimal, bool) {
	if price == nil || cost == nil || !cost.LessThan(*price) || price.IsZero() {
		return decimal.Zero, false
	}
	return price.Sub(*cost).Mul(hundred).Div(*price).Round(2), true
}

// PrimaryMediaID devolve a imagem principal ou, na falta dela, a primeira mídia.
func (p *Product) PrimaryMediaID() string {
	if p.PrimaryImageID != "" {
		return p.PrimaryImageID
	}
	if len(p.MediaIDs) > 0 {
		return p.MediaIDs[0]
	}
	return ""
}

// Name devolve o nome traduzido ou "Untitled Product".
func (p *Product) Name(loc Locale) string {
	if t, ok := Resolve(p.Translations, loc); ok && filled(t.Name) {
		return t.Name
	}
	return "Untitled Product"
}

func (p *Product) Description(loc Locale) string {
	if t, ok := Resolve(p.Translations, loc); ok {
		return t.Description
	}
	return ""
}

func (p *Product) ShortDescription(loc Locale) string {
	if t, ok := Resolve(p.Translations, loc); ok {
		return t.ShortDescription
	}
	return ""
}

// EffectiveSlug devolve o slug traduzido, se houver, senão o slug do produto.
func (p *Product) EffectiveSlug(loc Locale) string {
	if t, ok := Resolve(p.Translations, loc); ok && t.Slug != "" {
		return t.Slug
	}
	return p.Slug
}

// HasTranslation informa se existe tradução exata para o idioma.
func (p *Product) HasTranslation(code string) bool {
	_, ok := FindTranslation(p.Translations, code)
	return ok
}

// UpsertTranslation grava a tradução do idioma no lugar da existente.
func (p *Product) UpsertTranslation(t ProductTranslation) {
	p.Translations = UpsertTranslation(p.Translations, t)
}

// TranslationStatus calcula o estado de tradução para os idiomas ativos.
func (p *Product) TranslationStatus(langs Languages) []TranslationStatus {
	return StatusFor(p.Translations, langs)
}

// FindVariantByAttributeValues procura, entre as variantes ativas, aquela cujo
// conjunto de valores é exatamente igual ao alvo. Subconjuntos e superconjuntos
// não casam. Sem correspondência devolve nil; mais de uma é inconsistência.
func (p *Product) FindVariantByAttributeValues(valueIDs []string) (*ProductVariant, error) {
	target := idSet(valueIDs)
	if len(target) == 0 {
		return nil, nil
	}

	var matches []*ProductVariant
	for _, v := range p.Variants {
		if v.IsActive && v.hasExactly(target) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		skus := make([]string, len(matches))
		for i, m := range matches {
			skus[i] = m.SKU
		}
		return nil, apperror.NewConsistencyError(
			fmt.Sprintf("combinação de atributos ambígua no produto '%s': %s", p.SKU, strings.Join(skus, ", ")))
	}
}

// AvailableAttributeValues agrupa, por código de atributo, os valores usados
// pelas variantes ativas.
func (p *Product) AvailableAttributeValues() map[string][]*AttributeValue {
	out := make(map[string][]*AttributeValue)
	seen := make(map[string]bool)
	for _, v := range p.ActiveVariants() {
		for _, av := range v.AttributeValues {
			if seen[av.ID] {
				continue
			}
			seen[av.ID] = true
			code := av.AttributeCode()
			out[code] = append(out[code], av)
		}
	}
	for _, vs := range out {
		sortValues(vs)
	}
	return out
}

// Validate verifica o agregado inteiro (produto, traduções e variantes) e
// devolve um ValidationError com todas as violações encontradas.
func (p *Product) Validate() error {
	var violations []string
	add := func(format string, args ...interface{}) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(p.SKU) == "" {
		add("o SKU é obrigatório")
	}
	if strings.TrimSpace(p.Slug) == "" {
		add("o slug é obrigatório")
	}
	violations = append(violations, priceStructureViolations(p.Price, p.CompareAtPrice, p.CostPrice)...)
	if p.Stock < 0 {
		add("o estoque não pode ser negativo")
	}
	if p.LowStockThreshold != nil && *p.LowStockThreshold < 0 {
		add("o limite de estoque baixo não pode ser negativo")
	}
	if !p.Status.IsValid() {
		add("status inválido: %q", p.Status)
	}
	if p.Weight != nil && p.Weight.IsNegative() {
		add("o peso não pode ser negativo")
	}
	if p.Dimensions != nil {
		violations = append(violations, dimensionViolations(*p.Dimensions)...)
	}

	for _, code := range DuplicateLanguages(p.Translations) {
		add("tradução duplicada para o idioma '%s'", code)
	}
	for _, t := range p.Translations {
		if !filled(t.Name) {
			add("o nome é obrigatório no idioma '%s'", t.Language)
		}
	}

	violations = append(violations, p.variantViolations()...)

	// Rascunhos e arquivados podem ficar sem variante ativa.
	if p.IsVariable && p.Status == StatusActive && len(p.ActiveVariants()) == 0 {
		add("produto variável ativo precisa de ao menos uma variante ativa")
	}

	if len(violations) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("produto '%s' inválido", p.SKU), violations...)
	}
	return nil
}

func (p *Product) variantViolations() []string {
	var out []string
	add := func(format string, args ...interface{}) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	skus := make(map[string]bool, len(p.Variants))
	combos := make(map[string]string, len(p.Variants))
	for _, v := range p.Variants {
		label := v.SKU
		if strings.TrimSpace(v.SKU) == "" {
			add("o SKU da variante é obrigatório")
			label = "?"
		} else {
			if v.SKU == p.SKU {
				add("o SKU da variante '%s' não pode ser igual ao do produto", v.SKU)
			}
			if skus[v.SKU] {
				add("SKU de variante duplicado: '%s'", v.SKU)
			}
			skus[v.SKU] = true
		}

		for _, msg := range priceOverrideViolations(v) {
			add("variante '%s': %s", label, msg)
		}
		if v.Stock < 0 {
			add("variante '%s': o estoque não pode ser negativo", label)
		}
		if v.LowStockThreshold != nil && *v.LowStockThreshold < 0 {
			add("variante '%s': o limite de estoque baixo não pode ser negativo", label)
		}
		if v.Weight != nil && v.Weight.IsNegative() {
			add("variante '%s': o peso não pode ser negativo", label)
		}
		if v.Dimensions != nil {
			for _, msg := range dimensionViolations(*v.Dimensions) {
				add("variante '%s': %s", label, msg)
			}
		}
		for _, code := range DuplicateLanguages(v.Translations) {
			add("variante '%s': tradução duplicada para o idioma '%s'", label, code)
		}

		attrs := make(map[string]bool)
		for _, av := range v.AttributeValues {
			if !av.IsVariantCapable() {
				add("variante '%s': o atributo '%s' não define variantes", label, av.AttributeCode())
			}
			key := av.AttributeID
			if key == "" {
				continue
			}
			if attrs[key] {
				add("variante '%s': dois valores para o atributo '%s'", label, av.AttributeCode())
			}
			attrs[key] = true
		}

		if !v.IsActive {
			continue
		}
		key := v.CombinationKey()
		if other, dup := combos[key]; dup {
			add("as variantes '%s' e '%s' têm a mesma combinação de atributos", other, label)
			continue
		}
		combos[key] = label
	}
	return out
}

// priceOverrideViolations verifica a estrutura de preços efetiva da variante.
func priceOverrideViolations(v *ProductVariant) []string {
	if v.Price == nil && v.CompareAtPrice == nil && v.CostPrice == nil {
		return nil
	}
	price := v.EffectivePrice()
	if price == nil {
		return nil
	}
	return priceStructureViolations(price, v.EffectiveCompareAtPrice(), v.EffectiveCostPrice())
}

func dimensionViolations(d Dimensions) []string {
	var out []string
	for name, val := range map[string]*decimal.Decimal{"comprimento": d.Length, "largura": d.Width, "altura": d.Height} {
		if val != nil && val.IsNegative() {
			out = append(out, fmt.Sprintf("%s não pode ser negativo", name))
		}
	}
	sort.Strings(out)
	return out
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
