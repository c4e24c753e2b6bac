package productrepo

import (
	"context"
	"fmt"
	"strings"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

// searchQuery é a consulta paginada e a contagem correspondente.
type searchQuery struct {
	Select    string
	SelectArg []interface{}
	Count     string
	CountArg  []interface{}
}

var sortColumns = map[string]string{
	domain.SortByPrice:   "p.price",
	domain.SortByName:    "pt.name",
	domain.SortByCreated: "p.created_at",
	domain.SortByUpdated: "p.updated_at",
	domain.SortByStock:   "p.stock",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildSearchQuery monta o SQL a partir de critérios já normalizados.
// sortLanguage é o idioma do join de ordenação por nome quando c.Language é vazio.
func buildSearchQuery(c domain.ProductCriteria, sortLanguage string) searchQuery {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.Search != "" {
		pattern := arg("%" + likeEscaper.Replace(c.Search) + "%")
		langFilter := ""
		if c.Language != "" {
			langFilter = " AND st.language_code = " + arg(c.Language)
		}
		where = append(where, fmt.Sprintf(`(p.sku ILIKE %[1]s OR EXISTS (
            SELECT 1 FROM product_translations st
            WHERE st.product_id = p.id%[2]s AND (st.name ILIKE %[1]s OR st.description ILIKE %[1]s)))`,
			pattern, langFilter))
	}
	if c.CategoryID != "" {
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id = %s)`,
			arg(c.CategoryID)))
	}
	if c.BrandID != "" {
		where = append(where, "p.brand_id = "+arg(c.BrandID))
	}
	if c.MinPrice != nil {
		where = append(where, "p.price >= "+arg(c.MinPrice.String()))
	}
	if c.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(c.MaxPrice.String()))
	}
	if c.Status != "" {
		where = append(where, "p.status = "+arg(string(c.Status)))
	}
	if c.InStockOnly {
		where = append(where, `(NOT p.track_stock
            OR (NOT p.is_variable AND p.stock > 0)
            OR (p.is_variable AND EXISTS (
                SELECT 1 FROM product_variants sv
                WHERE sv.product_id = p.id AND sv.is_active AND (NOT sv.track_stock OR sv.stock > 0))))`)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	q := searchQuery{
		Count:    "SELECT COUNT(*) FROM products p" + whereSQL,
		CountArg: append([]interface{}(nil), args...),
	}

	join := ""
	column := sortColumns[c.SortBy]
	if column == "" {
		column = sortColumns[domain.SortByUpdated]
	}
	direction := "DESC"
	if c.Order == domain.OrderAsc {
		direction = "ASC"
	}
	order := column + " " + direction
	if c.SortBy == domain.SortByName {
		lang := c.Language
		if lang == "" {
			lang = sortLanguage
		}
		join = " LEFT JOIN product_translations pt ON pt.product_id = p.id AND pt.language_code = " + arg(lang)
		order += " NULLS LAST"
	}

	q.Select = fmt.Sprintf("SELECT p.id FROM products p%s%s ORDER BY %s, p.id ASC LIMIT %s OFFSET %s",
		join, whereSQL, order, arg(c.Limit), arg(c.Offset))
	q.SelectArg = args
	return q
}

// Search devolve a página de produtos que atende aos critérios. c deve ter
// passado por Normalize.
func (r *ProductRepository) Search(ctx context.Context, c domain.ProductCriteria, sortLanguage string) (domain.ProductPage, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	q := buildSearchQuery(c, sortLanguage)
	page := domain.ProductPage{Limit: c.Limit, Offset: c.Offset, Items: []*domain.Product{}}

	if err := r.DB.GetContext(ctxTimeout, &page.Total, q.Count, q.CountArg...); err != nil {
		r.logger.Error("Falha ao contar produtos.", err)
		return domain.ProductPage{}, apperror.NewDBError("Falha ao contar produtos", err)
	}

	var ids []string
	if err := r.DB.SelectContext(ctxTimeout, &ids, q.Select, q.SelectArg...); err != nil {
		r.logger.Error("Falha ao buscar produtos.", err)
		return domain.ProductPage{}, apperror.NewDBError("Falha ao buscar produtos", err)
	}

	products, err := loadProducts(ctxTimeout, r.DB, ids)
	if err != nil {
		return domain.ProductPage{}, err
	}
	if products != nil {
		page.Items = products
	}

	r.logger.Debug("Busca de produtos concluída.", map[string]interface{}{
		"total": page.Total, "returned": len(page.Items), "sort_by": c.SortBy, "order": c.Order,
	})
	return page, nil
}
