package attributerepo

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

// AttributeRepository persiste atributos, valores e suas traduções.
type AttributeRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewAttributeRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *AttributeRepository {
	return &AttributeRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

type attributeRow struct {
	ID            string                        `db:"id"`
	Code          string                        `db:"code"`
	Type          string                        `db:"type"`
	IsRequired    bool                          `db:"is_required"`
	IsVariant     bool                          `db:"is_variant"`
	IsFilterable  bool                          `db:"is_filterable"`
	IsActive      bool                          `db:"is_active"`
	SortOrder     int                           `db:"sort_order"`
	Configuration domain.AttributeConfiguration `db:"configuration"`
	CreatedAt     time.Time                     `db:"created_at"`
	UpdatedAt     time.Time                     `db:"updated_at"`
}

func (row attributeRow) toDomain() *domain.Attribute {
	return &domain.Attribute{
		ID:            row.ID,
		Code:          row.Code,
		Type:          domain.AttributeType(row.Type),
		IsRequired:    row.IsRequired,
		IsVariant:     row.IsVariant,
		IsFilterable:  row.IsFilterable,
		IsActive:      row.IsActive,
		SortOrder:     row.SortOrder,
		Configuration: row.Configuration,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

type valueRow struct {
	ID          string    `db:"id"`
	AttributeID string    `db:"attribute_id"`
	Value       string    `db:"value"`
	HexColor    string    `db:"hex_color"`
	ImageID     string    `db:"image_id"`
	IsActive    bool      `db:"is_active"`
	SortOrder   int       `db:"sort_order"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type attributeTranslationRow struct {
	OwnerID string `db:"owner_id"`
	domain.AttributeTranslation
}

type valueTranslationRow struct {
	OwnerID string `db:"owner_id"`
	domain.AttributeValueTranslation
}

const (
	attributeColumns = `id, code, type, is_required, is_variant, is_filterable, is_active, sort_order, configuration, created_at, updated_at`
	valueColumns     = `id, attribute_id, value, hex_color, image_id, is_active, sort_order, created_at, updated_at`
)

// FindAll devolve todos os atributos com valores e traduções.
func (r *AttributeRepository) FindAll(ctx context.Context) ([]*domain.Attribute, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var rows []attributeRow
	if err := r.DB.SelectContext(ctxTimeout, &rows,
		`SELECT `+attributeColumns+` FROM attributes ORDER BY sort_order, code`); err != nil {
		r.logger.Error("Falha ao listar atributos.", err)
		return nil, apperror.NewDBError("Falha ao listar atributos", err)
	}
	return r.hydrate(ctxTimeout, r.DB, rows)
}

func (r *AttributeRepository) FindByID(ctx context.Context, id string) (*domain.Attribute, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var row attributeRow
	err := r.DB.GetContext(ctxTimeout, &row, `SELECT `+attributeColumns+` FROM attributes WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("atributo '%s'", id))
	}
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar atributo", err)
	}
	attrs, err := r.hydrate(ctxTimeout, r.DB, []attributeRow{row})
	if err != nil {
		return nil, err
	}
	return attrs[0], nil
}

func (r *AttributeRepository) hydrate(ctx context.Context, q sqlx.QueryerContext, rows []attributeRow) ([]*domain.Attribute, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	attrs := make([]*domain.Attribute, len(rows))
	byID := make(map[string]*domain.Attribute, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		attrs[i] = row.toDomain()
		byID[row.ID] = attrs[i]
		ids[i] = row.ID
	}

	var trs []attributeTranslationRow
	if err := sqlx.SelectContext(ctx, q, &trs, `
        SELECT attribute_id AS owner_id, language_code, name, description, placeholder
        FROM attribute_translations WHERE attribute_id = ANY($1) ORDER BY language_code`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar traduções de atributos", err)
	}
	for _, tr := range trs {
		a := byID[tr.OwnerID]
		a.Translations = append(a.Translations, tr.AttributeTranslation)
	}

	var valueIDs []string
	if err := sqlx.SelectContext(ctx, q, &valueIDs,
		`SELECT id FROM attribute_values WHERE attribute_id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar valores de atributos", err)
	}
	values, err := loadValues(ctx, q, valueIDs, byID)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		byID[v.AttributeID].Values = append(byID[v.AttributeID].Values, v)
	}
	return attrs, nil
}

// LoadValues carrega valores de atributo (com o atributo dono e traduções)
// por ID. IDs inexistentes simplesmente não aparecem no resultado.
func LoadValues(ctx context.Context, q sqlx.QueryerContext, ids []string) (map[string]*domain.AttributeValue, error) {
	values, err := loadValues(ctx, q, ids, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.AttributeValue, len(values))
	for _, v := range values {
		out[v.ID] = v
	}
	return out, nil
}

func loadValues(ctx context.Context, q sqlx.QueryerContext, ids []string, owners map[string]*domain.Attribute) ([]*domain.AttributeValue, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []valueRow
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT `+valueColumns+`
        FROM attribute_values WHERE id = ANY($1) ORDER BY sort_order, value`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar valores de atributo", err)
	}

	if owners == nil {
		attrIDs := make([]string, 0, len(rows))
		for _, row := range rows {
			attrIDs = append(attrIDs, row.AttributeID)
		}
		var attrRows []attributeRow
		if err := sqlx.SelectContext(ctx, q, &attrRows, `SELECT `+attributeColumns+`
            FROM attributes WHERE id = ANY($1)`, pq.Array(attrIDs)); err != nil {
			return nil, apperror.NewDBError("Falha ao carregar atributos", err)
		}
		owners = make(map[string]*domain.Attribute, len(attrRows))
		for _, ar := range attrRows {
			owners[ar.ID] = ar.toDomain()
		}
		var trs []attributeTranslationRow
		if err := sqlx.SelectContext(ctx, q, &trs, `
            SELECT attribute_id AS owner_id, language_code, name, description, placeholder
            FROM attribute_translations WHERE attribute_id = ANY($1)`, pq.Array(attrIDs)); err != nil {
			return nil, apperror.NewDBError("Falha ao carregar traduções de atributos", err)
		}
		for _, tr := range trs {
			if a, ok := owners[tr.OwnerID]; ok {
				a.Translations = append(a.Translations, tr.AttributeTranslation)
			}
		}
	}

	values := make([]*domain.AttributeValue, 0, len(rows))
	byID := make(map[string]*domain.AttributeValue, len(rows))
	for _, row := range rows {
		v := &domain.AttributeValue{
			ID:          row.ID,
			AttributeID: row.AttributeID,
			Value:       row.Value,
			HexColor:    row.HexColor,
			ImageID:     row.ImageID,
			IsActive:    row.IsActive,
			SortOrder:   row.SortOrder,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
			Attribute:   owners[row.AttributeID],
		}
		values = append(values, v)
		byID[v.ID] = v
	}

	var trs []valueTranslationRow
	if err := sqlx.SelectContext(ctx, q, &trs, `
        SELECT attribute_value_id AS owner_id, language_code, name, description
        FROM attribute_value_translations WHERE attribute_value_id = ANY($1) ORDER BY language_code`, pq.Array(ids)); err != nil {
		return nil, apperror.NewDBError("Falha ao carregar traduções de valores", err)
	}
	for _, tr := range trs {
		v := byID[tr.OwnerID]
		v.Translations = append(v.Translations, tr.AttributeValueTranslation)
	}
	return values, nil
}

// FindValuesByIDs é o atalho de LoadValues sobre o pool principal.
func (r *AttributeRepository) FindValuesByIDs(ctx context.Context, ids []string) (map[string]*domain.AttributeValue, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return LoadValues(ctxTimeout, r.DB, ids)
}

// CodeExists informa se outro atributo já usa o código.
func (r *AttributeRepository) CodeExists(ctx context.Context, code, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.GetContext(ctxTimeout, &exists,
		`SELECT EXISTS (SELECT 1 FROM attributes WHERE code = $1 AND id::text <> $2)`, code, excludeID)
	if err != nil {
		return false, apperror.NewDBError("Falha ao verificar código do atributo", err)
	}
	return exists, nil
}

// Save grava o atributo, suas traduções e seus valores numa transação.
// Valores ausentes da lista são removidos; se algum estiver em uso por
// variantes, a chave estrangeira bloqueia e o erro vira conflito.
func (r *AttributeRepository) Save(ctx context.Context, a *domain.Attribute) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctxTimeout, `
        INSERT INTO attributes (`+attributeColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (id) DO UPDATE SET
            code = EXCLUDED.code, type = EXCLUDED.type, is_required = EXCLUDED.is_required,
            is_variant = EXCLUDED.is_variant, is_filterable = EXCLUDED.is_filterable,
            is_active = EXCLUDED.is_active, sort_order = EXCLUDED.sort_order,
            configuration = EXCLUDED.configuration, updated_at = EXCLUDED.updated_at`,
		a.ID, a.Code, string(a.Type), a.IsRequired, a.IsVariant, a.IsFilterable, a.IsActive,
		a.SortOrder, a.Configuration, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return database.MapWriteError("Falha ao salvar atributo", err)
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM attribute_translations WHERE attribute_id = $1`, a.ID); err != nil {
		return apperror.NewDBError("Falha ao limpar traduções do atributo", err)
	}
	for _, t := range a.Translations {
		if _, err := tx.ExecContext(ctxTimeout, `
            INSERT INTO attribute_translations (attribute_id, language_code, name, description, placeholder)
            VALUES ($1, $2, $3, $4, $5)`, a.ID, t.Language, t.Name, t.Description, t.Placeholder); err != nil {
			return database.MapWriteError("Falha ao salvar tradução do atributo", err)
		}
	}

	keep := make([]string, 0, len(a.Values))
	for _, v := range a.Values {
		keep = append(keep, v.ID)
	}
	if _, err := tx.ExecContext(ctxTimeout,
		`DELETE FROM attribute_values WHERE attribute_id = $1 AND NOT (id = ANY($2))`, a.ID, pq.Array(keep)); err != nil {
		return database.MapWriteError("Falha ao remover valores do atributo", err)
	}
	for _, v := range a.Values {
		if err := saveValue(ctxTimeout, tx, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	r.logger.Info("Atributo salvo.", map[string]interface{}{"attribute_id": a.ID, "code": a.Code, "values": len(a.Values)})
	return nil
}

func saveValue(ctx context.Context, tx *sqlx.Tx, v *domain.AttributeValue) error {
	_, err := tx.ExecContext(ctx, `
        INSERT INTO attribute_values (`+valueColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            value = EXCLUDED.value, hex_color = EXCLUDED.hex_color, image_id = EXCLUDED.image_id,
            is_active = EXCLUDED.is_active, sort_order = EXCLUDED.sort_order, updated_at = EXCLUDED.updated_at`,
		v.ID, v.AttributeID, v.Value, v.HexColor, v.ImageID, v.IsActive, v.SortOrder, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return database.MapWriteError("Falha ao salvar valor de atributo", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attribute_value_translations WHERE attribute_value_id = $1`, v.ID); err != nil {
		return apperror.NewDBError("Falha ao limpar traduções do valor", err)
	}
	for _, t := range v.Translations {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO attribute_value_translations (attribute_value_id, language_code, name, description)
            VALUES ($1, $2, $3, $4)`, v.ID, t.Language, t.Name, t.Description); err != nil {
			return database.MapWriteError("Falha ao salvar tradução do valor", err)
		}
	}
	return nil
}

// CountValueUsage conta as variantes que referenciam o valor.
func (r *AttributeRepository) CountValueUsage(ctx context.Context, valueID string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.GetContext(ctxTimeout, &n,
		`SELECT COUNT(*) FROM variant_attribute_values WHERE attribute_value_id = $1`, valueID); err != nil {
		return 0, apperror.NewDBError("Falha ao contar uso do valor", err)
	}
	return n, nil
}

// CountAttributeUsage conta as variantes que referenciam qualquer valor do atributo.
func (r *AttributeRepository) CountAttributeUsage(ctx context.Context, attributeID string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.GetContext(ctxTimeout, &n, `
        SELECT COUNT(DISTINCT vav.variant_id)
        FROM variant_attribute_values vav
        JOIN attribute_values av ON av.id = vav.attribute_value_id
        WHERE av.attribute_id = $1`, attributeID); err != nil {
		return 0, apperror.NewDBError("Falha ao contar uso do atributo", err)
	}
	return n, nil
}

func (r *AttributeRepository) DeleteValue(ctx context.Context, valueID string) error {
	return r.delete(ctx, `DELETE FROM attribute_values WHERE id = $1`, valueID, "valor de atributo")
}

func (r *AttributeRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, `DELETE FROM attributes WHERE id = $1`, id, "atributo")
}

func (r *AttributeRepository) delete(ctx context.Context, query, id, what string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, query, id)
	if err != nil {
		return database.MapWriteError(fmt.Sprintf("Falha ao remover %s", what), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("%s '%s'", what, id))
	}
	return nil
}
