package product

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"gocatalog/internal/api/response"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	SaveProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	DeleteVariant(ctx context.Context, id, sku string) (*domain.Product, error)
	ResolveProduct(ctx context.Context, id, lang string) (domain.ProductView, error)
	ResolveVariant(ctx context.Context, id string, valueIDs []string, lang string) (domain.VariantView, error)
	TranslationStatus(ctx context.Context, id string) ([]domain.TranslationStatus, error)
	DuplicateTranslation(ctx context.Context, id, from, to string) (domain.ProductTranslation, error)
	RemoveTranslation(ctx context.Context, id, lang string) error
	CreateMissingTranslations(ctx context.Context, lang, source string) (int, error)
	SearchProducts(ctx context.Context, c domain.ProductCriteria) (domain.ProductPage, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	response.Write(h.Logger, w, r, data, err, successStatus)
}

func (h *Handler) logOperator(r *http.Request, action string) {
	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		h.Logger.Info(action, map[string]interface{}{"user_id": claims.UserID, "role": claims.Role, "path": r.URL.Path})
	}
}

// CreateProductHandler lida com POST /v1/products.
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logOperator(r, "Criação de produto solicitada por")

	var in domain.ProductInput
	if err := response.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	p, err := h.Service.SaveProduct(r.Context(), "", in)
	h.handleServiceResponse(w, r, p, err, http.StatusCreated)
}

// UpdateProductHandler lida com PUT /v1/products/{id}.
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logOperator(r, "Edição de produto solicitada por")

	var in domain.ProductInput
	if err := response.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	p, err := h.Service.SaveProduct(r.Context(), r.PathValue("id"), in)
	h.handleServiceResponse(w, r, p, err, http.StatusOK)
}

// DeleteProductHandler lida com DELETE /v1/products/{id}.
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logOperator(r, "Remoção de produto solicitada por")
	err := h.Service.DeleteProduct(r.Context(), r.PathValue("id"))
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// DeleteVariantHandler lida com DELETE /v1/products/{id}/variants/{sku} e
// devolve o agregado atualizado.
func (h *Handler) DeleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	h.logOperator(r, "Remoção de variante solicitada por")
	p, err := h.Service.DeleteVariant(r.Context(), r.PathValue("id"), r.PathValue("sku"))
	h.handleServiceResponse(w, r, p, err, http.StatusOK)
}

// GetProductHandler lida com GET /v1/products/{id}?lang=xx e devolve o produto
// resolvido para o idioma (padrão quando omitido).
func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.ResolveProduct(r.Context(), r.PathValue("id"), r.URL.Query().Get("lang"))
	h.handleServiceResponse(w, r, view, err, http.StatusOK)
}

// GetProductAggregateHandler lida com GET /v1/products/{id}/full, o agregado
// com todas as traduções e variantes, para edição.
func (h *Handler) GetProductAggregateHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProduct(r.Context(), r.PathValue("id"))
	h.handleServiceResponse(w, r, p, err, http.StatusOK)
}

// SearchProductsHandler lida com GET /v1/products.
func (h *Handler) SearchProductsHandler(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	page, err := h.Service.SearchProducts(r.Context(), c)
	h.handleServiceResponse(w, r, page, err, http.StatusOK)
}

func criteriaFromQuery(r *http.Request) (domain.ProductCriteria, error) {
	q := r.URL.Query()
	c := domain.ProductCriteria{
		Search:     q.Get("search"),
		CategoryID: q.Get("category_id"),
		BrandID:    q.Get("brand_id"),
		Language:   q.Get("lang"),
		Status:     domain.ProductStatus(q.Get("status")),
		SortBy:     q.Get("sort"),
		Order:      q.Get("order"),
	}

	var violations []string
	parseDecimal := func(name string) *decimal.Decimal {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			violations = append(violations, fmt.Sprintf("'%s' não é um decimal válido: %q", name, raw))
			return nil
		}
		return &d
	}
	c.MinPrice = parseDecimal("min_price")
	c.MaxPrice = parseDecimal("max_price")

	if raw := q.Get("in_stock"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			violations = append(violations, fmt.Sprintf("'in_stock' deve ser booleano: %q", raw))
		}
		c.InStockOnly = b
	}

	var err error
	if c.Limit, err = response.QueryInt(r, "limit"); err != nil {
		return c, err
	}
	if c.Offset, err = response.QueryInt(r, "offset"); err != nil {
		return c, err
	}

	if len(violations) > 0 {
		return c, apperror.NewValidationError("critérios de busca inválidos", violations...)
	}
	return c, nil
}

type variantLookupRequest struct {
	AttributeValueIDs []string `json:"attribute_value_ids"`
	Language          string   `json:"lang"`
}

// VariantLookupHandler lida com POST /v1/products/{id}/variant-lookup.
func (h *Handler) VariantLookupHandler(w http.ResponseWriter, r *http.Request) {
	var req variantLookupRequest
	if err := response.Decode(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	view, err := h.Service.ResolveVariant(r.Context(), r.PathValue("id"), req.AttributeValueIDs, req.Language)
	h.handleServiceResponse(w, r, view, err, http.StatusOK)
}

// TranslationStatusHandler lida com GET /v1/products/{id}/translations.
func (h *Handler) TranslationStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := h.Service.TranslationStatus(r.Context(), r.PathValue("id"))
	h.handleServiceResponse(w, r, status, err, http.StatusOK)
}

type duplicateTranslationRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DuplicateTranslationHandler lida com POST /v1/products/{id}/translations/duplicate.
func (h *Handler) DuplicateTranslationHandler(w http.ResponseWriter, r *http.Request) {
	var req duplicateTranslationRequest
	if err := response.Decode(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	if req.From == "" || req.To == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("'from' e 'to' são obrigatórios"), http.StatusOK)
		return
	}
	tr, err := h.Service.DuplicateTranslation(r.Context(), r.PathValue("id"), req.From, req.To)
	h.handleServiceResponse(w, r, tr, err, http.StatusOK)
}

// RemoveTranslationHandler lida com DELETE /v1/products/{id}/translations/{lang}.
func (h *Handler) RemoveTranslationHandler(w http.ResponseWriter, r *http.Request) {
	h.logOperator(r, "Remoção de tradução solicitada por")
	err := h.Service.RemoveTranslation(r.Context(), r.PathValue("id"), r.PathValue("lang"))
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// CreateMissingTranslationsHandler lida com POST /v1/translations/{lang}/missing?source=xx.
func (h *Handler) CreateMissingTranslationsHandler(w http.ResponseWriter, r *http.Request) {
	h.logOperator(r, "Criação de traduções ausentes solicitada por")
	n, err := h.Service.CreateMissingTranslations(r.Context(), r.PathValue("lang"), r.URL.Query().Get("source"))
	h.handleServiceResponse(w, r, map[string]int{"created": n}, err, http.StatusOK)
}
