package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductView é o produto resolvido para um idioma, pronto para exibição.
type ProductView struct {
	ID                 string              `json:"id"`
	SKU                string              `json:"sku"`
	Language           string              `json:"language"`
	Slug               string              `json:"slug"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	ShortDescription   string              `json:"short_description"`
	Status             ProductStatus       `json:"status"`
	Price              *decimal.Decimal    `json:"price"`
	CompareAtPrice     *decimal.Decimal    `json:"compare_at_price,omitempty"`
	DiscountPercentage *decimal.Decimal    `json:"discount_percentage,omitempty"`
	ProfitMargin       *decimal.Decimal    `json:"profit_margin_percentage,omitempty"`
	Weight             *decimal.Decimal    `json:"weight,omitempty"`
	Dimensions         *Dimensions         `json:"dimensions,omitempty"`
	InStock            bool                `json:"in_stock"`
	LowStock           bool                `json:"low_stock"`
	Published          bool                `json:"published"`
	PrimaryMediaID     string              `json:"primary_media_id,omitempty"`
	Variants           []VariantView       `json:"variants,omitempty"`
	Options            map[string][]Option `json:"options,omitempty"`
	Translations       []TranslationStatus `json:"translations,omitempty"`
}

// VariantView é a variante com os valores efetivos já resolvidos.
type VariantView struct {
	ID                 string            `json:"id"`
	SKU                string            `json:"sku"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Price              *decimal.Decimal  `json:"price"`
	CompareAtPrice     *decimal.Decimal  `json:"compare_at_price,omitempty"`
	DiscountPercentage *decimal.Decimal  `json:"discount_percentage,omitempty"`
	Weight             *decimal.Decimal  `json:"weight,omitempty"`
	Dimensions         *Dimensions       `json:"dimensions,omitempty"`
	Stock              int               `json:"stock"`
	InStock            bool              `json:"in_stock"`
	LowStock           bool              `json:"low_stock"`
	PrimaryMediaID     string            `json:"primary_media_id,omitempty"`
	Attributes         map[string]string `json:"attributes"`
	AttributeValueIDs  []string          `json:"attribute_value_ids"`
}

// Option é um valor selecionável de atributo entre as variantes ativas.
type Option struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Name     string `json:"name"`
	HexColor string `json:"hex_color,omitempty"`
}

// NewProductView resolve o produto e suas variantes ativas para o Locale.
func NewProductView(p *Product, loc Locale, now time.Time) ProductView {
	view := ProductView{
		ID:               p.ID,
		SKU:              p.SKU,
		Language:         loc.Code,
		Slug:             p.EffectiveSlug(loc),
		Name:             p.Name(loc),
		Description:      p.Description(loc),
		ShortDescription: p.ShortDescription(loc),
		Status:           p.Status,
		Price:            p.Price,
		CompareAtPrice:   p.CompareAtPrice,
		Weight:           p.Weight,
		Dimensions:       p.Dimensions,
		InStock:          p.IsInStock(),
		LowStock:         p.IsLowStock(),
		Published:        p.IsPublished(now),
		PrimaryMediaID:   p.PrimaryMediaID(),
	}
	if d, ok := p.DiscountPercentage(); ok {
		view.DiscountPercentage = &d
	}
	if m, ok := p.ProfitMarginPercentage(); ok {
		view.ProfitMargin = &m
	}

	if p.IsVariable {
		for _, v := range p.ActiveVariants() {
			view.Variants = append(view.Variants, NewVariantView(v, loc))
		}
		available := p.AvailableAttributeValues()
		if len(available) > 0 {
			view.Options = make(map[string][]Option, len(available))
			for code, values := range available {
				for _, av := range values {
					view.Options[code] = append(view.Options[code], Option{
						ID: av.ID, Value: av.Value, Name: av.Name(loc), HexColor: av.HexColor,
					})
				}
			}
		}
	}
	return view
}

// NewVariantView resolve a variante para o Locale.
func NewVariantView(v *ProductVariant, loc Locale) VariantView {
	view := VariantView{
		ID:                v.ID,
		SKU:               v.SKU,
		Name:              v.Name(loc),
		Description:       v.Description(loc),
		Price:             v.EffectivePrice(),
		CompareAtPrice:    v.EffectiveCompareAtPrice(),
		Weight:            v.EffectiveWeight(),
		Dimensions:        v.EffectiveDimensions(),
		Stock:             v.Stock,
		InStock:           v.IsInStock(),
		LowStock:          v.IsLowStock(),
		PrimaryMediaID:    v.PrimaryMediaID(),
		Attributes:        make(map[string]string, len(v.AttributeValues)),
		AttributeValueIDs: v.AttributeValueIDs(),
	}
	if d, ok := v.DiscountPercentage(); ok {
		view.DiscountPercentage = &d
	}
	for _, av := range v.AttributeValues {
		view.Attributes[av.AttributeCode()] = av.Name(loc)
	}
	return view
}
