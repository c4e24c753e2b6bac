package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductInput é o payload de criação/edição de um produto, com traduções por
// idioma e a lista de variantes.
type ProductInput struct {
	SKU               string                             `json:"sku" validate:"required,max=100"`
	Slug              string                             `json:"slug" validate:"omitempty,max=255"`
	Price             string                             `json:"price" validate:"required,numeric"`
	CompareAtPrice    *string                            `json:"compare_at_price" validate:"omitempty,numeric"`
	CostPrice         *string                            `json:"cost_price" validate:"omitempty,numeric"`
	Stock             int                                `json:"stock" validate:"gte=0"`
	LowStockThreshold *int                               `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	TrackStock        *bool                              `json:"track_stock"`
	IsVariable        bool                               `json:"is_variable"`
	Status            string                             `json:"status" validate:"omitempty,oneof=draft active inactive archived"`
	IsDigital         bool                               `json:"is_digital"`
	Weight            *string                            `json:"weight" validate:"omitempty,numeric"`
	Dimensions        *DimensionsInput                   `json:"dimensions"`
	BrandID           string                             `json:"brand_id" validate:"omitempty,uuid_string"`
	CategoryIDs       []string                           `json:"category_ids" validate:"dive,uuid_string"`
	MediaIDs          []string                           `json:"media_ids" validate:"dive,required"`
	PrimaryImageID    string                             `json:"primary_image_id"`
	PublishedAt       *time.Time                         `json:"published_at"`
	Translations      map[string]ProductTranslationInput `json:"translations" validate:"required,min=1,dive"`
	Variants          []VariantInput                     `json:"variants" validate:"dive"`
}

// ProductTranslationInput são os campos de um idioma. O nome é obrigatório.
type ProductTranslationInput struct {
	Name             string            `json:"name" validate:"required,max=255"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description" validate:"max=500"`
	Slug             string            `json:"slug" validate:"max=255"`
	MetaTitle        string            `json:"meta_title" validate:"max=255"`
	MetaDescription  string            `json:"meta_description" validate:"max=500"`
	MetaKeywords     []string          `json:"meta_keywords"`
	Tags             []string          `json:"tags"`
	Specifications   map[string]string `json:"specifications"`
	Features         []string          `json:"features"`
}

// ToTranslation converte a entrada na tradução do idioma code.
func (in ProductTranslationInput) ToTranslation(code string) ProductTranslation {
	return ProductTranslation{
		Language:         code,
		Name:             in.Name,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Slug:             in.Slug,
		MetaTitle:        in.MetaTitle,
		MetaDescription:  in.MetaDescription,
		MetaKeywords:     cloneStrings(in.MetaKeywords),
		Tags:             cloneStrings(in.Tags),
		Specifications:   cloneMap(in.Specifications),
		Features:         cloneStrings(in.Features),
	}
}

// VariantInput descreve uma variante. Campos nulos herdam do produto.
type VariantInput struct {
	SKU               string                             `json:"sku" validate:"required,max=100"`
	Price             *string                            `json:"price" validate:"omitempty,numeric"`
	CompareAtPrice    *string                            `json:"compare_at_price" validate:"omitempty,numeric"`
	CostPrice         *string                            `json:"cost_price" validate:"omitempty,numeric"`
	Weight            *string                            `json:"weight" validate:"omitempty,numeric"`
	Dimensions        *DimensionsInput                   `json:"dimensions"`
	Stock             int                                `json:"stock" validate:"gte=0"`
	LowStockThreshold *int                               `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	TrackStock        *bool                              `json:"track_stock"`
	IsActive          *bool                              `json:"is_active"`
	SortOrder         int                                `json:"sort_order"`
	MediaIDs          []string                           `json:"media_ids" validate:"dive,required"`
	AttributeValueIDs []string                           `json:"attribute_value_ids" validate:"dive,uuid_string"`
	Translations      map[string]VariantTranslationInput `json:"translations" validate:"dive"`
}

type VariantTranslationInput struct {
	Name        string `json:"name" validate:"max=255"`
	Description string `json:"description"`
}

// DimensionsInput usa textos decimais para não perder precisão.
type DimensionsInput struct {
	Length *string `json:"length" validate:"omitempty,numeric"`
	Width  *string `json:"width" validate:"omitempty,numeric"`
	Height *string `json:"height" validate:"omitempty,numeric"`
	Unit   string  `json:"unit" validate:"omitempty,oneof=mm cm m in"`
}

// DecimalParser acumula violações enquanto converte textos decimais.
type DecimalParser struct {
	Violations []string
}

// Parse converte s; nil ou vazio resultam em nil.
func (dp *DecimalParser) Parse(field string, s *string) *decimal.Decimal {
	if s == nil || *s == "" {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		dp.Violations = append(dp.Violations, fmt.Sprintf("'%s' não é um decimal válido: %q", field, *s))
		return nil
	}
	return &d
}

// Casas decimais das colunas NUMERIC(12,2) e NUMERIC(10,3).
const (
	MoneyScale  = 2
	WeightScale = 3
)

// Money converte um valor monetário; mais de MoneyScale casas é violação, já
// que o banco arredondaria o valor validado.
func (dp *DecimalParser) Money(field string, s *string) *decimal.Decimal {
	return dp.scaled(field, s, MoneyScale)
}

// Weight converte um peso com no máximo WeightScale casas.
func (dp *DecimalParser) Weight(field string, s *string) *decimal.Decimal {
	return dp.scaled(field, s, WeightScale)
}

func (dp *DecimalParser) scaled(field string, s *string, places int32) *decimal.Decimal {
	d := dp.Parse(field, s)
	if d == nil {
		return nil
	}
	if !d.Equal(d.Round(places)) {
		dp.Violations = append(dp.Violations, fmt.Sprintf("'%s' aceita no máximo %d casas decimais: %q", field, places, *s))
		return nil
	}
	return d
}

// Dimensions converte as dimensões informadas.
func (dp *DecimalParser) Dimensions(field string, in *DimensionsInput) *Dimensions {
	if in == nil {
		return nil
	}
	d := Dimensions{
		Length: dp.Parse(field+".length", in.Length),
		Width:  dp.Parse(field+".width", in.Width),
		Height: dp.Parse(field+".height", in.Height),
		Unit:   in.Unit,
	}
	if d.IsZero() {
		return nil
	}
	return &d
}

// BoolOr devolve *b ou def quando nulo.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// LanguageInput cria ou atualiza um idioma.
type LanguageInput struct {
	Code       string `json:"code" validate:"required,min=2,max=10"`
	Name       string `json:"name" validate:"required,max=100"`
	NativeName string `json:"native_name" validate:"max=100"`
	IsActive   *bool  `json:"is_active"`
	SortOrder  int    `json:"sort_order"`
}

// AttributeInput cria ou atualiza um atributo.
type AttributeInput struct {
	Code          string                          `json:"code" validate:"required,max=100"`
	Type          string                          `json:"type" validate:"required,oneof=text number select color boolean"`
	IsRequired    bool                            `json:"is_required"`
	IsVariant     bool                            `json:"is_variant"`
	IsFilterable  bool                            `json:"is_filterable"`
	IsActive      *bool                           `json:"is_active"`
	SortOrder     int                             `json:"sort_order"`
	Configuration json.RawMessage                 `json:"configuration"`
	Translations  map[string]AttributeTranslation `json:"translations" validate:"dive"`
}

// AttributeValueInput cria ou atualiza um valor de atributo.
type AttributeValueInput struct {
	Value        string                               `json:"value" validate:"required,max=255"`
	HexColor     string                               `json:"hex_color"`
	ImageID      string                               `json:"image_id"`
	IsActive     *bool                                `json:"is_active"`
	SortOrder    int                                  `json:"sort_order"`
	Translations map[string]AttributeValueTranslation `json:"translations" validate:"dive"`
}

// BrandInput cria ou atualiza uma marca.
type BrandInput struct {
	Slug         string                      `json:"slug" validate:"omitempty,max=255"`
	IsActive     *bool                       `json:"is_active"`
	SortOrder    int                         `json:"sort_order"`
	LogoID       string                      `json:"logo_id"`
	Translations map[string]BrandTranslation `json:"translations" validate:"required,min=1,dive"`
}

// CategoryInput cria ou atualiza uma categoria.
type CategoryInput struct {
	Slug         string                         `json:"slug" validate:"omitempty,max=255"`
	ParentID     string                         `json:"parent_id" validate:"omitempty,uuid_string"`
	Icon         string                         `json:"icon" validate:"max=100"`
	ImageID      string                         `json:"image_id"`
	IsActive     *bool                          `json:"is_active"`
	SortOrder    int                            `json:"sort_order"`
	Translations map[string]CategoryTranslation `json:"translations" validate:"required,min=1,dive"`
}
