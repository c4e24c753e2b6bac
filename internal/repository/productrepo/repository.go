package productrepo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/repository/attributerepo"
)

// ProductRepository persiste o agregado Produto (variantes e traduções
// incluídas) no PostgreSQL, com cache-aside no Redis para leituras por ID.
type ProductRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

func NewProductRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

type productRow struct {
	ID                string              `db:"id"`
	SKU               string              `db:"sku"`
	Slug              string              `db:"slug"`
	Price             decimal.NullDecimal `db:"price"`
	CompareAtPrice    decimal.NullDecimal `db:"compare_at_price"`
	CostPrice         decimal.NullDecimal `db:"cost_price"`
	Stock             int                 `db:"stock"`
	LowStockThreshold sql.NullInt64       `db:"low_stock_threshold"`
	TrackStock        bool                `db:"track_stock"`
	IsVariable        bool                `db:"is_variable"`
	Status            string              `db:"status"`
	IsDigital         bool                `db:"is_digital"`
	Weight            decimal.NullDecimal `db:"weight"`
	Dimensions        *domain.Dimensions  `db:"dimensions"`
	BrandID           sql.NullString      `db:"brand_id"`
	PrimaryImageID    string              `db:"primary_image_id"`
	MediaIDs          pq.StringArray      `db:"media_ids"`
	PublishedAt       sql.NullTime        `db:"published_at"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

func (row productRow) toDomain() *domain.Product {
	return &domain.Product{
		ID:                row.ID,
		SKU:               row.SKU,
		Slug:              row.Slug,
		Price:             database.DecimalPtr(row.Price),
		CompareAtPrice:    database.DecimalPtr(row.CompareAtPrice),
		CostPrice:         database.DecimalPtr(row.CostPrice),
		Stock:             row.Stock,
		LowStockThreshold: database.IntPtr(row.LowStockThreshold),
		TrackStock:        row.TrackStock,
		IsVariable:        row.IsVariable,
		Status:            domain.ProductStatus(row.Status),
		IsDigital:         row.IsDigital,
		Weight:            database.DecimalPtr(row.Weight),
		Dimensions:        row.Dimensions,
		BrandID:           row.BrandID.String,
		PrimaryImageID:    row.PrimaryImageID,
		MediaIDs:          []string(row.MediaIDs),
		PublishedAt:       database.TimePtr(row.PublishedAt),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

type variantRow struct {
	ID                string              `db:"id"`
	ProductID         string              `db:"product_id"`
	SKU               string              `db:"sku"`
	Price             decimal.NullDecimal `db:"price"`
	CompareAtPrice    decimal.NullDecimal `db:"compare_at_price"`
	CostPrice         decimal.NullDecimal `db:"cost_price"`
	Weight            decimal.NullDecimal `db:"weight"`
	Dimensions        *domain.Dimensions  `db:"dimensions"`
	Stock             int                 `db:"stock"`
	LowStockThreshold sql.NullInt64       `db:"low_stock_threshold"`
	TrackStock        bool                `db:"track_stock"`
	IsActive          bool                `db:"is_active"`
	SortOrder         int                 `db:"sort_order"`
	MediaIDs          pq.StringArray      `db:"media_ids"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

func (row variantRow) toDomain() *domain.ProductVariant {
	return &domain.ProductVariant{
		ID:                row.ID,
		ProductID:         row.ProductID,
		SKU:               row.SKU,
		Price:             database.DecimalPtr(row.Price),
		CompareAtPrice:    database.DecimalPtr(row.CompareAtPrice),
		CostPrice:         database.DecimalPtr(row.CostPrice),
		Weight:            database.DecimalPtr(row.Weight),
		Dimensions:        row.Dimensions,
		Stock:             row.Stock,
		LowStockThreshold: database.IntPtr(row.LowStockThreshold),
		TrackStock:        row.TrackStock,
		IsActive:          row.IsActive,
		SortOrder:         row.SortOrder,
		MediaIDs:          []string(row.MediaIDs),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

type productTranslationRow struct {
	OwnerID          string         `db:"owner_id"`
	Language         string         `db:"language_code"`
	Name             string         `db:"name"`
	Description      string         `db:"description"`
	ShortDescription string         `db:"short_description"`
	Slug             string         `db:"slug_translation"`
	MetaTitle        string         `db:"meta_title"`
	MetaDescription  string         `db:"meta_description"`
	MetaKeywords     pq.StringArray `db:"meta_keywords"`
	Tags             pq.StringArray `db:"tags"`
	Specifications   specifications `db:"specifications"`
	Features         pq.StringArray `db:"features"`
}

type variantTranslationRow struct {
	OwnerID string `db:"owner_id"`
	domain.VariantTranslation
}

type variantValueRow struct {
	VariantID string `db:"variant_id"`
	ValueID   string `db:"attribute_value_id"`
}

// specifications é o mapa chave/valor gravado em JSONB.
type specifications map[string]string

func (s specifications) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *specifications) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("tipo incompatível para especificações: %T", src)
	}
	m := map[string]string{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	if len(m) == 0 {
		m = nil
	}
	*s = m
	return nil
}

const (
	productColumns = `id, sku, slug, price, compare_at_price, cost_price, stock, low_stock_threshold, track_stock,
        is_variable, status, is_digital, weight, dimensions, brand_id, primary_image_id, media_ids, published_at,
        created_at, updated_at`
	variantColumns = `id, product_id, sku, price, compare_at_price, cost_price, weight, dimensions, stock,
        low_stock_threshold, track_stock, is_active, sort_order, media_ids, created_at, updated_at`
)

// FindByID busca o agregado completo usando cache-aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if p, ok := r.readCache(ctxTimeout, id); ok {
		r.logger.Debug("Produto servido do cache.", map[string]interface{}{"product_id": id})
		return p, nil
	}

	products, err := loadProducts(ctxTimeout, r.DB, []string{id})
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return nil, err
	}
	if len(products) == 0 {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("produto '%s'", id))
	}

	r.writeCache(ctxTimeout, products[0])
	return products[0], nil
}

// loadProducts carrega os agregados na ordem de ids; IDs inexistentes são ignorados.
func loadProducts(ctx context.Context, q sqlx.QueryerContext, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []productRow
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar produtos", err)
	}
	byID := make(map[string]*domain.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.toDomain()
	}

	var links []struct {
		ProductID  string `db:"product_id"`
		CategoryID string `db:"category_id"`
	}
	if err := sqlx.SelectContext(ctx, q, &links, `
        SELECT product_id, category_id FROM product_categories
        WHERE product_id = ANY($1) ORDER BY category_id`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar categorias dos produtos", err)
	}
	for _, l := range links {
		if p, ok := byID[l.ProductID]; ok {
			p.CategoryIDs = append(p.CategoryIDs, l.CategoryID)
		}
	}

	var trs []productTranslationRow
	if err := sqlx.SelectContext(ctx, q, &trs, `
        SELECT product_id AS owner_id, language_code, name, description, short_description, slug_translation,
               meta_title, meta_description, meta_keywords, tags, specifications, features
        FROM product_translations WHERE product_id = ANY($1) ORDER BY language_code`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar traduções dos produtos", err)
	}
	for _, tr := range trs {
		if p, ok := byID[tr.OwnerID]; ok {
			p.Translations = append(p.Translations, domain.ProductTranslation{
				Language:         tr.Language,
				Name:             tr.Name,
				Description:      tr.Description,
				ShortDescription: tr.ShortDescription,
				Slug:             tr.Slug,
				MetaTitle:        tr.MetaTitle,
				MetaDescription:  tr.MetaDescription,
				MetaKeywords:     []string(tr.MetaKeywords),
				Tags:             []string(tr.Tags),
				Specifications:   map[string]string(tr.Specifications),
				Features:         []string(tr.Features),
			})
		}
	}

	if err := loadVariants(ctx, q, byID, ids); err != nil {
		return nil, err
	}

	out := make([]*domain.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func loadVariants(ctx context.Context, q sqlx.QueryerContext, products map[string]*domain.Product, ids []string) error {
	var rows []variantRow
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT `+variantColumns+`
        FROM product_variants WHERE product_id = ANY($1) ORDER BY sort_order, sku`, pq.Array(ids)); err != nil {
		return apperror.NewDBError("Falha ao carregar variantes", err)
	}
	if len(rows) == 0 {
		return nil
	}

	variants := make(map[string]*domain.ProductVariant, len(rows))
	variantIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		v := row.toDomain()
		if p, ok := products[v.ProductID]; ok {
			p.AddVariant(v)
		}
		variants[v.ID] = v
		variantIDs = append(variantIDs, v.ID)
	}

	var links []variantValueRow
	if err := sqlx.SelectContext(ctx, q, &links, `
        SELECT variant_id, attribute_value_id FROM variant_attribute_values
        WHERE variant_id = ANY($1) ORDER BY variant_id, position`, pq.Array(variantIDs)); err != nil {
		return apperror.NewDBError("Falha ao carregar combinações das variantes", err)
	}
	valueIDs := make([]string, 0, len(links))
	for _, l := range links {
		valueIDs = append(valueIDs, l.ValueID)
	}
	values, err := attributerepo.LoadValues(ctx, q, valueIDs)
	if err != nil {
		return err
	}
	for _, l := range links {
		if val, ok := values[l.ValueID]; ok {
			variants[l.VariantID].AttributeValues = append(variants[l.VariantID].AttributeValues, val)
		}
	}

	var trs []variantTranslationRow
	if err := sqlx.SelectContext(ctx, q, &trs, `
        SELECT variant_id AS owner_id, language_code, name, description
        FROM variant_translations WHERE variant_id = ANY($1) ORDER BY language_code`, pq.Array(variantIDs)); err != nil {
		return apperror.NewDBError("Falha ao carregar traduções das variantes", err)
	}
	for _, tr := range trs {
		v := variants[tr.OwnerID]
		v.Translations = append(v.Translations, tr.VariantTranslation)
	}
	return nil
}

// Save grava o agregado inteiro numa transação. Variantes ausentes de
// p.Variants são removidas; as demais são atualizadas por ID.
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	r.logger.Debug("Salvando produto no repositório.", map[string]interface{}{"product_id": p.ID, "sku": p.SKU})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctxTimeout, `
        INSERT INTO products (`+productColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
        ON CONFLICT (id) DO UPDATE SET
            sku = EXCLUDED.sku, slug = EXCLUDED.slug, price = EXCLUDED.price,
            compare_at_price = EXCLUDED.compare_at_price, cost_price = EXCLUDED.cost_price,
            stock = EXCLUDED.stock, low_stock_threshold = EXCLUDED.low_stock_threshold,
            track_stock = EXCLUDED.track_stock, is_variable = EXCLUDED.is_variable,
            status = EXCLUDED.status, is_digital = EXCLUDED.is_digital, weight = EXCLUDED.weight,
            dimensions = EXCLUDED.dimensions, brand_id = EXCLUDED.brand_id,
            primary_image_id = EXCLUDED.primary_image_id, media_ids = EXCLUDED.media_ids,
            published_at = EXCLUDED.published_at, updated_at = EXCLUDED.updated_at,
            stock_version = CASE WHEN products.stock <> EXCLUDED.stock
                                 THEN products.stock_version + 1 ELSE products.stock_version END`,
		p.ID, p.SKU, p.Slug, database.NullDecimal(p.Price), database.NullDecimal(p.CompareAtPrice),
		database.NullDecimal(p.CostPrice), p.Stock, database.NullInt(p.LowStockThreshold), p.TrackStock,
		p.IsVariable, string(p.Status), p.IsDigital, database.NullDecimal(p.Weight), p.Dimensions,
		database.NullString(p.BrandID), p.PrimaryImageID, pq.Array(nonNil(p.MediaIDs)),
		database.NullTime(p.PublishedAt), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapProductWriteError("Falha ao salvar produto", err)
	}

	if err := saveSKUs(ctxTimeout, tx, p); err != nil {
		return err
	}
	if err := saveCategories(ctxTimeout, tx, p); err != nil {
		return err
	}
	if err := saveTranslations(ctxTimeout, tx, p); err != nil {
		return err
	}
	if err := saveVariants(ctxTimeout, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação do produto.", err)
		return apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.invalidate(ctx, p.ID)
	r.logger.Info("Produto salvo com sucesso.", map[string]interface{}{
		"product_id": p.ID, "variants": len(p.Variants), "translations": len(p.Translations),
	})
	return nil
}

// saveSKUs regrava os SKUs do agregado no registro compartilhado; a chave
// primária de skus barra o mesmo SKU em produto e variante de outro produto.
// variant_id fica nulo aqui: as variantes ainda podem não existir nesta
// transação, e o vínculo é preenchido em saveVariants.
func saveSKUs(ctx context.Context, tx *sqlx.Tx, p *domain.Product) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM skus WHERE product_id = $1`, p.ID); err != nil {
		return apperror.NewDBError("Falha ao limpar SKUs do produto", err)
	}
	skus := []string{p.SKU}
	for _, v := range p.Variants {
		skus = append(skus, v.SKU)
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO skus (sku, product_id)
        SELECT s, $1 FROM unnest($2::text[]) AS s`, p.ID, pq.Array(skus)); err != nil {
		return mapProductWriteError("Falha ao registrar SKUs", err)
	}
	return nil
}

func saveCategories(ctx context.Context, tx *sqlx.Tx, p *domain.Product) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
		return apperror.NewDBError("Falha ao limpar categorias do produto", err)
	}
	for _, catID := range p.CategoryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			p.ID, catID); err != nil {
			return database.MapWriteError("Falha ao associar categoria", err)
		}
	}
	return nil
}

func saveTranslations(ctx context.Context, tx *sqlx.Tx, p *domain.Product) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_translations WHERE product_id = $1`, p.ID); err != nil {
		return apperror.NewDBError("Falha ao limpar traduções do produto", err)
	}
	for _, t := range p.Translations {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO product_translations (product_id, language_code, name, description, short_description,
                slug_translation, meta_title, meta_description, meta_keywords, tags, specifications, features)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, t.Language, t.Name, t.Description, t.ShortDescription, t.Slug, t.MetaTitle,
			t.MetaDescription, pq.Array(nonNil(t.MetaKeywords)), pq.Array(nonNil(t.Tags)),
			specifications(t.Specifications), pq.Array(nonNil(t.Features)))
		if err != nil {
			return mapProductWriteError("Falha ao salvar tradução do produto", err)
		}
	}
	return nil
}

func saveVariants(ctx context.Context, tx *sqlx.Tx, p *domain.Product) error {
	// Chaves provisórias únicas evitam colisões transitórias no índice parcial
	// quando duas variantes trocam de combinação no mesmo save.
	if _, err := tx.ExecContext(ctx,
		`UPDATE product_variants SET combination_key = id::text WHERE product_id = $1`, p.ID); err != nil {
		return apperror.NewDBError("Falha ao preparar variantes", err)
	}

	keep := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		keep = append(keep, v.ID)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM product_variants WHERE product_id = $1 AND NOT (id = ANY($2))`, p.ID, pq.Array(keep)); err != nil {
		return apperror.NewDBError("Falha ao remover variantes", err)
	}
	if len(keep) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM variant_attribute_values WHERE variant_id = ANY($1)`, pq.Array(keep)); err != nil {
		return apperror.NewDBError("Falha ao limpar combinações", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM variant_translations WHERE variant_id = ANY($1)`, pq.Array(keep)); err != nil {
		return apperror.NewDBError("Falha ao limpar traduções das variantes", err)
	}

	for _, v := range p.Variants {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO product_variants (`+variantColumns+`, combination_key)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
            ON CONFLICT (id) DO UPDATE SET
                sku = EXCLUDED.sku, price = EXCLUDED.price, compare_at_price = EXCLUDED.compare_at_price,
                cost_price = EXCLUDED.cost_price, weight = EXCLUDED.weight, dimensions = EXCLUDED.dimensions,
                stock = EXCLUDED.stock, low_stock_threshold = EXCLUDED.low_stock_threshold,
                track_stock = EXCLUDED.track_stock, is_active = EXCLUDED.is_active,
                sort_order = EXCLUDED.sort_order, media_ids = EXCLUDED.media_ids,
                updated_at = EXCLUDED.updated_at, combination_key = EXCLUDED.combination_key,
                stock_version = CASE WHEN product_variants.stock <> EXCLUDED.stock
                                     THEN product_variants.stock_version + 1 ELSE product_variants.stock_version END`,
			v.ID, p.ID, v.SKU, database.NullDecimal(v.Price), database.NullDecimal(v.CompareAtPrice),
			database.NullDecimal(v.CostPrice), database.NullDecimal(v.Weight), v.Dimensions, v.Stock,
			database.NullInt(v.LowStockThreshold), v.TrackStock, v.IsActive, v.SortOrder,
			pq.Array(nonNil(v.MediaIDs)), v.CreatedAt, v.UpdatedAt, v.CombinationKey())
		if err != nil {
			return mapProductWriteError(fmt.Sprintf("Falha ao salvar variante %s", v.SKU), err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE skus SET variant_id = $1 WHERE sku = $2 AND product_id = $3`, v.ID, v.SKU, p.ID); err != nil {
			return apperror.NewDBError("Falha ao vincular SKU da variante", err)
		}

		for pos, val := range v.AttributeValues {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO variant_attribute_values (variant_id, attribute_value_id, position)
                VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, v.ID, val.ID, pos); err != nil {
				return database.MapWriteError("Falha ao salvar combinação da variante", err)
			}
		}
		for _, t := range v.Translations {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO variant_translations (variant_id, language_code, name, description)
                VALUES ($1, $2, $3, $4)`, v.ID, t.Language, t.Name, t.Description); err != nil {
				return database.MapWriteError("Falha ao salvar tradução da variante", err)
			}
		}
	}
	return nil
}

// mapProductWriteError dá mensagens específicas para os índices únicos do agregado.
func mapProductWriteError(msg string, err error) error {
	switch {
	case database.IsUniqueViolation(err, "skus_pkey"),
		database.IsUniqueViolation(err, "products_sku_key"),
		database.IsUniqueViolation(err, "product_variants_sku_key"):
		return apperror.NewConflictError(fmt.Sprintf("%s: SKU já utilizado", msg))
	case database.IsUniqueViolation(err, "products_slug_key"), database.IsUniqueViolation(err, "product_translations_slug_key"):
		return apperror.NewConflictError(fmt.Sprintf("%s: slug já utilizado", msg))
	case database.IsUniqueViolation(err, "product_variants_combination_key"):
		return apperror.NewConflictError(fmt.Sprintf("%s: combinação de atributos já usada por outra variante ativa", msg))
	}
	return database.MapWriteError(msg, err)
}

// Delete remove o produto; variantes e traduções caem em cascata.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover produto.", err)
		return apperror.NewDBError("Falha ao remover produto", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("produto '%s'", id))
	}
	r.invalidate(ctx, id)
	return nil
}

// SKUExists consulta o registro de SKUs (produtos e variantes), ignorando o
// próprio produto e suas variantes.
func (r *ProductRepository) SKUExists(ctx context.Context, sku, excludeProductID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.GetContext(ctxTimeout, &exists,
		`SELECT EXISTS (SELECT 1 FROM skus WHERE sku = $1 AND product_id::text <> $2)`,
		sku, excludeProductID)
	if err != nil {
		return false, apperror.NewDBError("Falha ao verificar SKU", err)
	}
	return exists, nil
}

func (r *ProductRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists,
		`SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND id::text <> $2)`, slug, excludeID); err != nil {
		return false, apperror.NewDBError("Falha ao verificar slug do produto", err)
	}
	return exists, nil
}

// TranslationSlugExists verifica o slug traduzido dentro de um idioma.
func (r *ProductRepository) TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists, `
        SELECT EXISTS (SELECT 1 FROM product_translations
                       WHERE language_code = $1 AND slug_translation = $2 AND product_id::text <> $3)`,
		lang, slug, excludeID); err != nil {
		return false, apperror.NewDBError("Falha ao verificar slug traduzido do produto", err)
	}
	return exists, nil
}

// FindIDsMissingTranslation lista produtos sem tradução no idioma.
func (r *ProductRepository) FindIDsMissingTranslation(ctx context.Context, lang string) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var ids []string
	if err := r.DB.SelectContext(ctxTimeout, &ids, `
        SELECT p.id FROM products p
        WHERE NOT EXISTS (SELECT 1 FROM product_translations pt
                          WHERE pt.product_id = p.id AND pt.language_code = $1)
        ORDER BY p.id`, lang); err != nil {
		return nil, apperror.NewDBError("Falha ao listar produtos sem tradução", err)
	}
	return ids, nil
}

// pq grava slice nil como NULL; as colunas de array são NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
