package stockservice

import (
	"context"
	"errors"
	"fmt"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/validator"
)

// StockRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type StockRepository interface {
	GetStockLevel(ctx context.Context, sku string) (domain.StockLevel, error)
	UpdateStockLevel(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.StockLevel, error)
}

type Service struct {
	repo   StockRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetStockLevel devolve o estoque atual de um SKU de produto ou variante.
func (s *Service) GetStockLevel(ctx context.Context, sku string) (domain.StockLevel, error) {
	if sku == "" {
		return domain.StockLevel{}, apperror.NewValidationError("O SKU é obrigatório.")
	}
	return s.repo.GetStockLevel(ctx, sku)
}

// AdjustStock aplica um delta ao estoque do SKU.
func (s *Service) AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.StockLevel, error) {
	s.logger.Debug("Iniciando ajuste de estoque no serviço.", map[string]interface{}{
		"sku":   adjustment.SKU,
		"delta": adjustment.Delta,
	})

	if adjustment.Delta == 0 {
		return domain.StockLevel{}, apperror.NewValidationError("O ajuste de estoque (delta) não pode ser zero.")
	}
	if err := validator.Check("ajuste de estoque inválido", adjustment); err != nil {
		s.logger.Warn("Ajuste de estoque rejeitado na validação.", map[string]interface{}{"sku": adjustment.SKU})
		return domain.StockLevel{}, err
	}

	stockLevel, err := s.repo.UpdateStockLevel(ctx, adjustment)
	if err != nil {
		s.logger.Error("Falha ao ajustar estoque no repositório.", err)
		var conflictErr *apperror.ConflictError
		if errors.As(err, &conflictErr) {
			return domain.StockLevel{}, apperror.NewConflictError(fmt.Sprintf("Falha de concorrência: %s", conflictErr.Msg))
		}
		if apperror.IsAppError(err) {
			return domain.StockLevel{}, err
		}
		return domain.StockLevel{}, apperror.NewInternalError("Falha interna ao ajustar estoque.", err)
	}

	s.logger.Info("Estoque ajustado com sucesso.", map[string]interface{}{
		"sku":          stockLevel.SKU,
		"variant_id":   stockLevel.VariantID,
		"new_quantity": stockLevel.Quantity,
		"new_version":  stockLevel.Version,
	})
	return stockLevel, nil
}
