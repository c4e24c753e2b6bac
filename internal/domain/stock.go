package domain

import "time"

// StockAdjustmentRequest ajusta o estoque de um produto simples ou de uma
// variante, localizados pelo SKU.
type StockAdjustmentRequest struct {
	SKU    string `json:"sku" validate:"required,max=100"`
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"max=255"`
}

// StockLevel é o estoque resultante de um ajuste. Version cresce a cada ajuste.
type StockLevel struct {
	SKU       string    `json:"sku"`
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
