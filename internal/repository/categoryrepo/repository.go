package categoryrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
)

// CategoryRepository persiste a floresta de categorias.
type CategoryRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewCategoryRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

type categoryRow struct {
	ID        string         `db:"id"`
	Slug      string         `db:"slug"`
	Level     int            `db:"level"`
	ParentID  sql.NullString `db:"parent_id"`
	Icon      string         `db:"icon"`
	ImageID   string         `db:"image_id"`
	IsActive  bool           `db:"is_active"`
	SortOrder int            `db:"sort_order"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type translationRow struct {
	OwnerID         string         `db:"owner_id"`
	Language        string         `db:"language_code"`
	Name            string         `db:"name"`
	Description     string         `db:"description"`
	Slug            string         `db:"slug_translation"`
	MetaTitle       string         `db:"meta_title"`
	MetaDescription string         `db:"meta_description"`
	MetaKeywords    pq.StringArray `db:"meta_keywords"`
}

const categoryColumns = `id, slug, level, parent_id, icon, image_id, is_active, sort_order, created_at, updated_at`

// FindAll devolve todas as categorias, sem ligar a árvore.
func (r *CategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var rows []categoryRow
	if err := r.DB.SelectContext(ctxTimeout, &rows,
		`SELECT `+categoryColumns+` FROM categories ORDER BY level, sort_order, slug`); err != nil {
		r.logger.Error("Falha ao listar categorias.", err)
		return nil, apperror.NewDBError("Falha ao listar categorias", err)
	}
	return r.hydrate(ctxTimeout, rows)
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var row categoryRow
	err := r.DB.GetContext(ctxTimeout, &row, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("categoria '%s'", id))
	}
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar categoria", err)
	}
	cats, err := r.hydrate(ctxTimeout, []categoryRow{row})
	if err != nil {
		return nil, err
	}
	return cats[0], nil
}

func (r *CategoryRepository) hydrate(ctx context.Context, rows []categoryRow) ([]*domain.Category, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cats := make([]*domain.Category, len(rows))
	byID := make(map[string]*domain.Category, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		cats[i] = &domain.Category{
			ID: row.ID, Slug: row.Slug, Level: row.Level, ParentID: row.ParentID.String,
			Icon: row.Icon, ImageID: row.ImageID, IsActive: row.IsActive, SortOrder: row.SortOrder,
			CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		}
		byID[row.ID] = cats[i]
		ids[i] = row.ID
	}

	var trs []translationRow
	if err := r.DB.SelectContext(ctx, &trs, `
        SELECT category_id AS owner_id, language_code, name, description, slug_translation,
               meta_title, meta_description, meta_keywords
        FROM category_translations WHERE category_id = ANY($1) ORDER BY language_code`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar traduções de categorias", err)
	}
	for _, tr := range trs {
		c := byID[tr.OwnerID]
		c.Translations = append(c.Translations, domain.CategoryTranslation{
			Language:        tr.Language,
			Name:            tr.Name,
			Description:     tr.Description,
			Slug:            tr.Slug,
			MetaTitle:       tr.MetaTitle,
			MetaDescription: tr.MetaDescription,
			MetaKeywords:    []string(tr.MetaKeywords),
		})
	}
	return cats, nil
}

// ExistingIDs devolve, dentre ids, os que existem.
func (r *CategoryRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var found []string
	if err := r.DB.SelectContext(ctxTimeout, &found,
		`SELECT id FROM categories WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao verificar categorias", err)
	}
	return found, nil
}

func (r *CategoryRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id::text <> $2)`, slug, excludeID); err != nil {
		return false, apperror.NewDBError("Falha ao verificar slug da categoria", err)
	}
	return exists, nil
}

func (r *CategoryRepository) TranslationSlugExists(ctx context.Context, lang, slug, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists, `
        SELECT EXISTS (SELECT 1 FROM category_translations
                       WHERE language_code = $1 AND slug_translation = $2 AND category_id::text <> $3)`,
		lang, slug, excludeID); err != nil {
		return false, apperror.NewDBError("Falha ao verificar slug traduzido da categoria", err)
	}
	return exists, nil
}

// Save grava a categoria, suas traduções e o nível/pai dos nós em moved,
// tudo numa transação.
func (r *CategoryRepository) Save(ctx context.Context, c *domain.Category, moved []*domain.Category) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctxTimeout, `
        INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE SET
            slug = EXCLUDED.slug, level = EXCLUDED.level, parent_id = EXCLUDED.parent_id,
            icon = EXCLUDED.icon, image_id = EXCLUDED.image_id, is_active = EXCLUDED.is_active,
            sort_order = EXCLUDED.sort_order, updated_at = EXCLUDED.updated_at`,
		c.ID, c.Slug, c.Level, database.NullString(c.ParentID), c.Icon, c.ImageID, c.IsActive,
		c.SortOrder, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return database.MapWriteError("Falha ao salvar categoria", err)
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM category_translations WHERE category_id = $1`, c.ID); err != nil {
		return apperror.NewDBError("Falha ao limpar traduções da categoria", err)
	}
	for _, t := range c.Translations {
		keywords := t.MetaKeywords
		if keywords == nil {
			keywords = []string{}
		}
		if _, err := tx.ExecContext(ctxTimeout, `
            INSERT INTO category_translations (category_id, language_code, name, description, slug_translation,
                                               meta_title, meta_description, meta_keywords)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, t.Language, t.Name, t.Description, t.Slug, t.MetaTitle, t.MetaDescription,
			pq.Array(keywords)); err != nil {
			return database.MapWriteError("Falha ao salvar tradução da categoria", err)
		}
	}

	for _, m := range moved {
		if m.ID == c.ID {
			continue
		}
		if _, err := tx.ExecContext(ctxTimeout,
			`UPDATE categories SET level = $1, parent_id = $2, updated_at = NOW() WHERE id = $3`,
			m.Level, database.NullString(m.ParentID), m.ID); err != nil {
			return apperror.NewDBError("Falha ao atualizar nível da subárvore", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	r.logger.Info("Categoria salva.", map[string]interface{}{"category_id": c.ID, "moved": len(moved)})
	return nil
}

// CountChildren conta as subcategorias diretas.
func (r *CategoryRepository) CountChildren(ctx context.Context, id string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.GetContext(ctxTimeout, &n, `SELECT COUNT(*) FROM categories WHERE parent_id = $1`, id); err != nil {
		return 0, apperror.NewDBError("Falha ao contar subcategorias", err)
	}
	return n, nil
}

// Delete remove a categoria e desassocia seus produtos.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM product_categories WHERE category_id = $1`, id); err != nil {
		return apperror.NewDBError("Falha ao desassociar produtos", err)
	}
	res, err := tx.ExecContext(ctxTimeout, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return database.MapWriteError("Falha ao remover categoria", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("categoria '%s'", id))
	}
	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}
