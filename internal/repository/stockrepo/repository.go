package stockrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/repository/productrepo"
)

// StockRepository ajusta o estoque de produtos simples e variantes pelo SKU.
type StockRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type stockRow struct {
	ID         string    `db:"id"`
	ProductID  string    `db:"product_id"`
	IsVariable bool      `db:"is_variable"`
	Quantity   int       `db:"stock"`
	Version    int       `db:"stock_version"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// target localiza o SKU em variantes e depois em produtos.
type target struct {
	table   string
	row     stockRow
	variant bool
}

func (t target) level(sku string) domain.StockLevel {
	sl := domain.StockLevel{
		SKU:       sku,
		ProductID: t.row.ProductID,
		Quantity:  t.row.Quantity,
		Version:   t.row.Version,
		UpdatedAt: t.row.UpdatedAt,
	}
	if t.variant {
		sl.VariantID = t.row.ID
	}
	return sl
}

func findTarget(ctx context.Context, q sqlx.QueryerContext, sku string, forUpdate bool) (target, error) {
	lock := ""
	if forUpdate {
		lock = " FOR UPDATE"
	}

	var row stockRow
	err := sqlx.GetContext(ctx, q, &row, `
        SELECT id, product_id, FALSE AS is_variable, stock, stock_version, updated_at
        FROM product_variants WHERE sku = $1`+lock, sku)
	if err == nil {
		return target{table: "product_variants", row: row, variant: true}, nil
	}
	if !database.IsNoRows(err) {
		return target{}, apperror.NewDBError("Falha ao buscar estoque da variante", err)
	}

	err = sqlx.GetContext(ctx, q, &row, `
        SELECT id, id AS product_id, is_variable, stock, stock_version, updated_at
        FROM products WHERE sku = $1`+lock, sku)
	if database.IsNoRows(err) {
		return target{}, apperror.NewNotFoundError(fmt.Sprintf("SKU '%s'", sku))
	}
	if err != nil {
		return target{}, apperror.NewDBError("Falha ao buscar estoque do produto", err)
	}
	return target{table: "products", row: row}, nil
}

// GetStockLevel devolve o estoque atual do SKU.
func (r *StockRepository) GetStockLevel(ctx context.Context, sku string) (domain.StockLevel, error) {
	r.logger.Debug("Buscando nível de estoque no repositório.", map[string]interface{}{"sku": sku})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	t, err := findTarget(ctxTimeout, r.DB, sku, false)
	if err != nil {
		return domain.StockLevel{}, err
	}
	return t.level(sku), nil
}

// UpdateStockLevel aplica o delta com transação e controle de concorrência otimista (OCC).
func (r *StockRepository) UpdateStockLevel(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.StockLevel, error) {
	r.logger.Debug("Iniciando atualização de estoque no repositório.", map[string]interface{}{
		"sku":   adjustment.SKU,
		"delta": adjustment.Delta,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para atualização de estoque.", err)
		return domain.StockLevel{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	t, err := findTarget(ctxTimeout, tx, adjustment.SKU, true)
	if err != nil {
		return domain.StockLevel{}, err
	}
	if t.row.IsVariable {
		return domain.StockLevel{}, apperror.NewValidationError(
			"o estoque de um produto variável é controlado pelas variantes")
	}

	newQuantity := t.row.Quantity + adjustment.Delta
	if newQuantity < 0 {
		r.logger.Warn("Tentativa de ajustar estoque para quantidade negativa.", map[string]interface{}{
			"sku": adjustment.SKU, "current_quantity": t.row.Quantity, "delta": adjustment.Delta,
		})
		return domain.StockLevel{}, apperror.NewValidationError("Ajuste resultaria em quantidade de estoque negativa.")
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctxTimeout, fmt.Sprintf(`
        UPDATE %s SET stock = $1, stock_version = $2, updated_at = $3
        WHERE id = $4 AND stock_version = $5`, t.table),
		newQuantity, t.row.Version+1, now, t.row.ID, t.row.Version)
	if err != nil {
		r.logger.Error("Falha ao atualizar nível de estoque.", err)
		return domain.StockLevel{}, apperror.NewDBError("Falha ao atualizar estoque", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.StockLevel{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC).", map[string]interface{}{
			"sku": adjustment.SKU, "expected_version": t.row.Version,
		})
		return domain.StockLevel{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de atualização de estoque.", commitErr)
		return domain.StockLevel{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	if err := r.Cache.Delete(ctx, productrepo.CacheKey(t.row.ProductID)); err != nil {
		r.logger.Warn("Falha ao invalidar produto no cache.", map[string]interface{}{"product_id": t.row.ProductID})
	}

	t.row.Quantity = newQuantity
	t.row.Version++
	t.row.UpdatedAt = now
	r.logger.Info("Nível de estoque atualizado com sucesso.", map[string]interface{}{
		"sku": adjustment.SKU, "new_quantity": newQuantity, "new_version": t.row.Version,
	})
	return t.level(adjustment.SKU), nil
}
