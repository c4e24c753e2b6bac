package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductVariant é um SKU concreto de um produto variável, identificado pela
// combinação de valores de atributo. Campos de preço, peso e dimensões nulos
// herdam do produto.
type ProductVariant struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	SKU               string           `json:"sku"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price,omitempty"`
	CostPrice         *decimal.Decimal `json:"cost_price,omitempty"`
	Weight            *decimal.Decimal `json:"weight,omitempty"`
	Dimensions        *Dimensions      `json:"dimensions,omitempty"`
	Stock             int              `json:"stock"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
	TrackStock        bool             `json:"track_stock"`
	IsActive          bool             `json:"is_active"`
	SortOrder         int              `json:"sort_order"`
	MediaIDs          []string         `json:"media_ids,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`

	AttributeValues []*AttributeValue    `json:"attribute_values"`
	Translations    []VariantTranslation `json:"translations"`

	Product *Product `json:"-"`
}

// EffectivePrice devolve o preço da variante ou, se nulo, o do produto.
func (v *ProductVariant) EffectivePrice() *decimal.Decimal {
	if v.Price != nil {
		return v.Price
	}
	if v.Product != nil {
		return v.Product.Price
	}
	return nil
}

func (v *ProductVariant) EffectiveCompareAtPrice() *decimal.Decimal {
	if v.CompareAtPrice != nil {
		return v.CompareAtPrice
	}
	if v.Product != nil {
		return v.Product.CompareAtPrice
	}
	return nil
}

func (v *ProductVariant) EffectiveCostPrice() *decimal.Decimal {
	if v.CostPrice != nil {
		return v.CostPrice
	}
	if v.Product != nil {
		return v.Product.CostPrice
	}
	return nil
}

func (v *ProductVariant) EffectiveWeight() *decimal.Decimal {
	if v.Weight != nil {
		return v.Weight
	}
	if v.Product != nil {
		return v.Product.Weight
	}
	return nil
}

func (v *ProductVariant) EffectiveDimensions() *Dimensions {
	if v.Dimensions != nil {
		return v.Dimensions
	}
	if v.Product != nil {
		return v.Product.Dimensions
	}
	return nil
}

// PrimaryMediaID devolve a primeira mídia da variante ou a principal do produto.
func (v *ProductVariant) PrimaryMediaID() string {
	if len(v.MediaIDs) > 0 {
		return v.MediaIDs[0]
	}
	if v.Product != nil {
		return v.Product.PrimaryMediaID()
	}
	return ""
}

// EffectiveLowStockThreshold: limite da variante, senão o do produto.
func (v *ProductVariant) EffectiveLowStockThreshold() *int {
	if v.LowStockThreshold != nil {
		return v.LowStockThreshold
	}
	if v.Product != nil {
		return v.Product.LowStockThreshold
	}
	return nil
}

func (v *ProductVariant) IsInStock() bool {
	return !v.TrackStock || v.Stock > 0
}

func (v *ProductVariant) IsLowStock() bool {
	if !v.TrackStock {
		return false
	}
	threshold := v.EffectiveLowStockThreshold()
	if threshold == nil {
		return false
	}
	return v.Stock <= *threshold
}

func (v *ProductVariant) DiscountPercentage() (decimal.Decimal, bool) {
	return discountPercentage(v.EffectivePrice(), v.EffectiveCompareAtPrice())
}

func (v *ProductVariant) ProfitMarginPercentage() (decimal.Decimal, bool) {
	return profitMarginPercentage(v.EffectivePrice(), v.EffectiveCostPrice())
}

// Name devolve o nome traduzido da variante. Sem nome próprio, monta
// "{Produto} - {valor1, valor2}" na ordem dos valores da variante.
func (v *ProductVariant) Name(loc Locale) string {
	if t, ok := Resolve(v.Translations, loc); ok && filled(t.Name) {
		return t.Name
	}

	productName := "Untitled Product"
	if v.Product != nil {
		productName = v.Product.Name(loc)
	}
	if len(v.AttributeValues) == 0 {
		return productName
	}
	names := make([]string, len(v.AttributeValues))
	for i, av := range v.AttributeValues {
		names[i] = av.Name(loc)
	}
	return productName + " - " + strings.Join(names, ", ")
}

// Description devolve a descrição da variante ou a do produto.
func (v *ProductVariant) Description(loc Locale) string {
	if t, ok := Resolve(v.Translations, loc); ok && filled(t.Description) {
		return t.Description
	}
	if v.Product != nil {
		return v.Product.Description(loc)
	}
	return ""
}

// AttributeValueIDs devolve os IDs dos valores na ordem da variante.
func (v *ProductVariant) AttributeValueIDs() []string {
	ids := make([]string, len(v.AttributeValues))
	for i, av := range v.AttributeValues {
		ids[i] = av.ID
	}
	return ids
}

func (v *ProductVariant) hasExactly(target map[string]struct{}) bool {
	own := idSet(v.AttributeValueIDs())
	if len(own) != len(target) {
		return false
	}
	for id := range own {
		if _, ok := target[id]; !ok {
			return false
		}
	}
	return true
}

// CombinationKey identifica a combinação de valores, independente da ordem.
func (v *ProductVariant) CombinationKey() string {
	ids := make([]string, 0, len(v.AttributeValues))
	for id := range idSet(v.AttributeValueIDs()) {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func (v *ProductVariant) UpsertTranslation(t VariantTranslation) {
	v.Translations = UpsertTranslation(v.Translations, t)
}
