package brandrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
)

// BrandRepository persiste marcas e suas traduções.
type BrandRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewBrandRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *BrandRepository {
	return &BrandRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

type brandRow struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	IsActive  bool      `db:"is_active"`
	SortOrder int       `db:"sort_order"`
	LogoID    string    `db:"logo_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type translationRow struct {
	OwnerID string `db:"owner_id"`
	domain.BrandTranslation
}

const brandColumns = `id, slug, is_active, sort_order, logo_id, created_at, updated_at`

func (r *BrandRepository) FindAll(ctx context.Context) ([]*domain.Brand, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var rows []brandRow
	if err := r.DB.SelectContext(ctxTimeout, &rows,
		`SELECT `+brandColumns+` FROM brands ORDER BY sort_order, slug`); err != nil {
		r.logger.Error("Falha ao listar marcas.", err)
		return nil, apperror.NewDBError("Falha ao listar marcas", err)
	}
	return r.hydrate(ctxTimeout, rows)
}

func (r *BrandRepository) FindByID(ctx context.Context, id string) (*domain.Brand, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var row brandRow
	err := r.DB.GetContext(ctxTimeout, &row, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("marca '%s'", id))
	}
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar marca", err)
	}
	brands, err := r.hydrate(ctxTimeout, []brandRow{row})
	if err != nil {
		return nil, err
	}
	return brands[0], nil
}

func (r *BrandRepository) hydrate(ctx context.Context, rows []brandRow) ([]*domain.Brand, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	brands := make([]*domain.Brand, len(rows))
	byID := make(map[string]*domain.Brand, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		brands[i] = &domain.Brand{
			ID: row.ID, Slug: row.Slug, IsActive: row.IsActive, SortOrder: row.SortOrder,
			LogoID: row.LogoID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		}
		byID[row.ID] = brands[i]
		ids[i] = row.ID
	}

	var trs []translationRow
	if err := r.DB.SelectContext(ctx, &trs, `
        SELECT brand_id AS owner_id, language_code, name, description, slug_translation, meta_title, meta_description
        FROM brand_translations WHERE brand_id = ANY($1) ORDER BY language_code`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar traduções de marcas", err)
	}
	for _, tr := range trs {
		b := byID[tr.OwnerID]
		b.Translations = append(b.Translations, tr.BrandTranslation)
	}
	return brands, nil
}

// Exists informa se a marca existe.
func (r *BrandRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists, `SELECT EXISTS (SELECT 1 FROM brands WHERE id = $1)`, id); err != nil {
		return false, apperror.NewDBError("Falha ao verificar marca", err)
	}
	return exists, nil
}

// SlugExists informa se outra marca já usa o slug.
func (r *BrandRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists,
		`SELECT EXISTS (SELECT 1 FROM brands WHERE slug = $1 AND id::text <> $2)`, slug, excludeID); err != nil {
		return false, apperror.NewDBError("Falha ao verificar slug da marca", err)
	}
	return exists, nil
}

// TranslationSlugExists verifica o slug traduzido dentro de um idioma.
func (r *BrandRepository) TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists, `
        SELECT EXISTS (SELECT 1 FROM brand_translations
                       WHERE language_code = $1 AND slug_translation = $2 AND brand_id::text <> $3)`,
		lang, slug, excludeID); err != nil {
		return false, apperror.NewDBError("Falha ao verificar slug traduzido da marca", err)
	}
	return exists, nil
}

// Save grava a marca e substitui suas traduções numa transação.
func (r *BrandRepository) Save(ctx context.Context, b *domain.Brand) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctxTimeout, `
        INSERT INTO brands (`+brandColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            slug = EXCLUDED.slug, is_active = EXCLUDED.is_active, sort_order = EXCLUDED.sort_order,
            logo_id = EXCLUDED.logo_id, updated_at = EXCLUDED.updated_at`,
		b.ID, b.Slug, b.IsActive, b.SortOrder, b.LogoID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return database.MapWriteError("Falha ao salvar marca", err)
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM brand_translations WHERE brand_id = $1`, b.ID); err != nil {
		return apperror.NewDBError("Falha ao limpar traduções da marca", err)
	}
	for _, t := range b.Translations {
		if _, err := tx.ExecContext(ctxTimeout, `
            INSERT INTO brand_translations (brand_id, language_code, name, description, slug_translation, meta_title, meta_description)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.ID, t.Language, t.Name, t.Description, t.Slug, t.MetaTitle, t.MetaDescription); err != nil {
			return database.MapWriteError("Falha ao salvar tradução da marca", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}

// CountProducts conta produtos associados à marca.
func (r *BrandRepository) CountProducts(ctx context.Context, id string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.GetContext(ctxTimeout, &n, `SELECT COUNT(*) FROM products WHERE brand_id = $1`, id); err != nil {
		return 0, apperror.NewDBError("Falha ao contar produtos da marca", err)
	}
	return n, nil
}

func (r *BrandRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return database.MapWriteError("Falha ao remover marca", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("marca '%s'", id))
	}
	return nil
}
