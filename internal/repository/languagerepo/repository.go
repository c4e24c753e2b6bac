package languagerepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
)

// LanguageRepository persiste o registro de idiomas.
type LanguageRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewLanguageRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *LanguageRepository {
	return &LanguageRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

const languageColumns = `code, name, native_name, is_active, is_default, sort_order, created_at, updated_at`

// FindAll devolve todos os idiomas, ativos ou não.
func (r *LanguageRepository) FindAll(ctx context.Context) ([]domain.Language, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var langs []domain.Language
	err := r.DB.SelectContext(ctxTimeout, &langs,
		`SELECT `+languageColumns+` FROM languages ORDER BY sort_order, code`)
	if err != nil {
		r.logger.Error("Falha ao listar idiomas.", err)
		return nil, apperror.NewDBError("Falha ao listar idiomas", err)
	}
	return langs, nil
}

func (r *LanguageRepository) FindByCode(ctx context.Context, code string) (domain.Language, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var lang domain.Language
	err := r.DB.GetContext(ctxTimeout, &lang,
		`SELECT `+languageColumns+` FROM languages WHERE code = $1`, code)
	if database.IsNoRows(err) {
		return domain.Language{}, apperror.NewNotFoundError(fmt.Sprintf("idioma '%s'", code))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar idioma.", err)
		return domain.Language{}, apperror.NewDBError("Falha ao buscar idioma", err)
	}
	return lang, nil
}

// Save insere ou atualiza o idioma. is_default só muda por SetDefault.
func (r *LanguageRepository) Save(ctx context.Context, lang domain.Language) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	if lang.CreatedAt.IsZero() {
		lang.CreatedAt = now
	}
	lang.UpdatedAt = now

	_, err := r.DB.NamedExecContext(ctxTimeout, `
        INSERT INTO languages (code, name, native_name, is_active, is_default, sort_order, created_at, updated_at)
        VALUES (:code, :name, :native_name, :is_active, :is_default, :sort_order, :created_at, :updated_at)
        ON CONFLICT (code) DO UPDATE SET
            name = EXCLUDED.name,
            native_name = EXCLUDED.native_name,
            is_active = EXCLUDED.is_active,
            sort_order = EXCLUDED.sort_order,
            updated_at = EXCLUDED.updated_at`, lang)
	if database.IsUniqueViolation(err, "languages_single_default") {
		return apperror.NewConflictError("já existe um idioma padrão")
	}
	if err != nil {
		r.logger.Error("Falha ao salvar idioma.", err)
		return apperror.NewDBError("Falha ao salvar idioma", err)
	}
	return nil
}

// SetDefault troca o idioma padrão em uma única transação.
func (r *LanguageRepository) SetDefault(ctx context.Context, code string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE languages SET is_default = FALSE, updated_at = NOW() WHERE is_default AND code <> $1`, code); err != nil {
		return apperror.NewDBError("Falha ao limpar idioma padrão", err)
	}

	res, err := tx.ExecContext(ctxTimeout,
		`UPDATE languages SET is_default = TRUE, updated_at = NOW() WHERE code = $1 AND is_active`, code)
	if err != nil {
		return apperror.NewDBError("Falha ao definir idioma padrão", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("idioma ativo '%s'", code))
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	r.logger.Info("Idioma padrão alterado.", map[string]interface{}{"code": code})
	return nil
}

// CountTranslations conta traduções que referenciam o idioma.
func (r *LanguageRepository) CountTranslations(ctx context.Context, code string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	err := r.DB.GetContext(ctxTimeout, &n, `
        SELECT (SELECT COUNT(*) FROM product_translations WHERE language_code = $1)
             + (SELECT COUNT(*) FROM variant_translations WHERE language_code = $1)
             + (SELECT COUNT(*) FROM brand_translations WHERE language_code = $1)
             + (SELECT COUNT(*) FROM category_translations WHERE language_code = $1)
             + (SELECT COUNT(*) FROM attribute_translations WHERE language_code = $1)
             + (SELECT COUNT(*) FROM attribute_value_translations WHERE language_code = $1)`, code)
	if err != nil {
		return 0, apperror.NewDBError("Falha ao contar traduções do idioma", err)
	}
	return n, nil
}

func (r *LanguageRepository) Delete(ctx context.Context, code string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM languages WHERE code = $1`, code)
	if err != nil {
		return database.MapWriteError("Falha ao remover idioma", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("idioma '%s'", code))
	}
	return nil
}
