package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperror "gocatalog/internal/errors"
)

// Chaves de ordenação aceitas pela busca do catálogo.
const (
	SortByPrice   = "price"
	SortByName    = "name"
	SortByCreated = "created"
	SortByUpdated = "updated"
	SortByStock   = "stock"

	OrderAsc  = "asc"
	OrderDesc = "desc"

	DefaultSearchLimit = 20
)

// ProductCriteria são os filtros da busca de produtos. Todos são opcionais e
// combinados com AND; MinPrice e MaxPrice delimitam uma única faixa.
type ProductCriteria struct {
	Search      string           `json:"search,omitempty"`
	CategoryID  string           `json:"category_id,omitempty"`
	BrandID     string           `json:"brand_id,omitempty"`
	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
	InStockOnly bool             `json:"in_stock_only,omitempty"`
	Language    string           `json:"language,omitempty"`
	Status      ProductStatus    `json:"status,omitempty"`
	SortBy      string           `json:"sort_by,omitempty"`
	Order       string           `json:"order,omitempty"`
	Limit       int              `json:"limit,omitempty"`
	Offset      int              `json:"offset,omitempty"`
}

// Normalize aplica os padrões (updated desc, limite padrão) e valida os filtros.
// maxLimit <= 0 desativa o teto de paginação.
func (c *ProductCriteria) Normalize(maxLimit int) error {
	var violations []string

	c.Search = strings.TrimSpace(c.Search)
	c.SortBy = strings.ToLower(strings.TrimSpace(c.SortBy))
	c.Order = strings.ToLower(strings.TrimSpace(c.Order))

	switch c.SortBy {
	case "":
		c.SortBy = SortByUpdated
	case SortByPrice, SortByName, SortByCreated, SortByUpdated, SortByStock:
	default:
		violations = append(violations, fmt.Sprintf("ordenação não suportada: %q", c.SortBy))
	}

	switch c.Order {
	case "":
		c.Order = OrderDesc
	case OrderAsc, OrderDesc:
	default:
		violations = append(violations, fmt.Sprintf("direção de ordenação inválida: %q", c.Order))
	}

	if c.MinPrice != nil && c.MinPrice.IsNegative() {
		violations = append(violations, "o preço mínimo não pode ser negativo")
	}
	if c.MinPrice != nil && c.MaxPrice != nil && c.MinPrice.GreaterThan(*c.MaxPrice) {
		violations = append(violations, "o preço mínimo não pode ser maior que o máximo")
	}
	if c.Status != "" && !c.Status.IsValid() {
		violations = append(violations, fmt.Sprintf("status inválido: %q", c.Status))
	}
	if c.Limit < 0 || c.Offset < 0 {
		violations = append(violations, "limit e offset não podem ser negativos")
	}
	if c.Limit == 0 {
		c.Limit = DefaultSearchLimit
	}
	if maxLimit > 0 && c.Limit > maxLimit {
		c.Limit = maxLimit
	}

	if len(violations) > 0 {
		return apperror.NewValidationError("critérios de busca inválidos", violations...)
	}
	return nil
}

// ProductPage é uma página de resultados da busca.
type ProductPage struct {
	Items  []*Product `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}
