package stock

import (
	"context"
	"net/http"

	"gocatalog/internal/api/response"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	GetStockLevel(ctx context.Context, sku string) (domain.StockLevel, error)
	AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.StockLevel, error)
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// GetStockHandler lida com GET /v1/stock/{sku}.
func (h *Handler) GetStockHandler(w http.ResponseWriter, r *http.Request) {
	level, err := h.Service.GetStockLevel(r.Context(), r.PathValue("sku"))
	response.Write(h.Logger, w, r, level, err, http.StatusOK)
}

// AdjustStockHandler lida com POST /v1/stock/adjust.
func (h *Handler) AdjustStockHandler(w http.ResponseWriter, r *http.Request) {
	var adjustmentRequest domain.StockAdjustmentRequest
	if err := response.Decode(r, &adjustmentRequest); err != nil {
		response.Write(h.Logger, w, r, nil, err, http.StatusBadRequest)
		return
	}

	stockLevel, err := h.Service.AdjustStock(r.Context(), adjustmentRequest)
	response.Write(h.Logger, w, r, stockLevel, err, http.StatusOK)
}
