// Package catalog expõe os cadastros de apoio ao produto: idiomas, atributos,
// marcas e categorias.
package catalog

import (
	"context"
	"net/http"

	"gocatalog/internal/api/response"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

type LanguageService interface {
	List(ctx context.Context) ([]domain.Language, error)
	Save(ctx context.Context, in domain.LanguageInput) (domain.Language, error)
	SetDefault(ctx context.Context, code string) error
	Delete(ctx context.Context, code string) error
}

type AttributeService interface {
	List(ctx context.Context) ([]*domain.Attribute, error)
	Get(ctx context.Context, id string) (*domain.Attribute, error)
	Save(ctx context.Context, id string, in domain.AttributeInput) (*domain.Attribute, error)
	SaveValue(ctx context.Context, attributeID, valueID string, in domain.AttributeValueInput) (*domain.AttributeValue, error)
	DeleteValue(ctx context.Context, attributeID, valueID string) error
	Delete(ctx context.Context, id string) error
}

type BrandService interface {
	List(ctx context.Context) ([]*domain.Brand, error)
	Get(ctx context.Context, id string) (*domain.Brand, error)
	Save(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error)
	Delete(ctx context.Context, id string) error
	RemoveTranslation(ctx context.Context, id, lang string) error
	DuplicateTranslation(ctx context.Context, id, from, to string) (domain.BrandTranslation, error)
	CreateMissingTranslations(ctx context.Context, lang, source string) (int, error)
}

type CategoryService interface {
	Tree(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Save(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
	RemoveTranslation(ctx context.Context, id, lang string) error
}

// Handler agrupa os handlers dos cadastros de apoio.
type Handler struct {
	Languages  LanguageService
	Attributes AttributeService
	Brands     BrandService
	Categories CategoryService
	Logger     logger.Logger
}

func NewHandler(languages LanguageService, attributes AttributeService, brands BrandService, categories CategoryService, log logger.Logger) *Handler {
	return &Handler{
		Languages:  languages,
		Attributes: attributes,
		Brands:     brands,
		Categories: categories,
		Logger:     log,
	}
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, data interface{}, err error, status int) {
	response.Write(h.Logger, w, r, data, err, status)
}

// decodeAndSave decodifica o payload em in e chama save, respondendo com status.
func decodeAndSave[In any, Out any](h *Handler, w http.ResponseWriter, r *http.Request, status int, save func(context.Context, In) (Out, error)) {
	var in In
	if err := response.Decode(r, &in); err != nil {
		h.write(w, r, nil, err, http.StatusBadRequest)
		return
	}
	out, err := save(r.Context(), in)
	h.write(w, r, out, err, status)
}

// --- Idiomas ---

func (h *Handler) ListLanguagesHandler(w http.ResponseWriter, r *http.Request) {
	langs, err := h.Languages.List(r.Context())
	h.write(w, r, langs, err, http.StatusOK)
}

// SaveLanguageHandler lida com PUT /v1/languages (criação ou edição pelo código).
func (h *Handler) SaveLanguageHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusOK, h.Languages.Save)
}

func (h *Handler) SetDefaultLanguageHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Languages.SetDefault(r.Context(), r.PathValue("code"))
	h.write(w, r, nil, err, http.StatusNoContent)
}

func (h *Handler) DeleteLanguageHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Languages.Delete(r.Context(), r.PathValue("code"))
	h.write(w, r, nil, err, http.StatusNoContent)
}

// --- Atributos ---

func (h *Handler) ListAttributesHandler(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.Attributes.List(r.Context())
	h.write(w, r, attrs, err, http.StatusOK)
}

func (h *Handler) GetAttributeHandler(w http.ResponseWriter, r *http.Request) {
	a, err := h.Attributes.Get(r.Context(), r.PathValue("id"))
	h.write(w, r, a, err, http.StatusOK)
}

func (h *Handler) CreateAttributeHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusCreated, func(ctx context.Context, in domain.AttributeInput) (*domain.Attribute, error) {
		return h.Attributes.Save(ctx, "", in)
	})
}

func (h *Handler) UpdateAttributeHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusOK, func(ctx context.Context, in domain.AttributeInput) (*domain.Attribute, error) {
		return h.Attributes.Save(ctx, r.PathValue("id"), in)
	})
}

func (h *Handler) DeleteAttributeHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Attributes.Delete(r.Context(), r.PathValue("id"))
	h.write(w, r, nil, err, http.StatusNoContent)
}

func (h *Handler) CreateAttributeValueHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusCreated, func(ctx context.Context, in domain.AttributeValueInput) (*domain.AttributeValue, error) {
		return h.Attributes.SaveValue(ctx, r.PathValue("id"), "", in)
	})
}

func (h *Handler) UpdateAttributeValueHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusOK, func(ctx context.Context, in domain.AttributeValueInput) (*domain.AttributeValue, error) {
		return h.Attributes.SaveValue(ctx, r.PathValue("id"), r.PathValue("valueID"), in)
	})
}

func (h *Handler) DeleteAttributeValueHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Attributes.DeleteValue(r.Context(), r.PathValue("id"), r.PathValue("valueID"))
	h.write(w, r, nil, err, http.StatusNoContent)
}

// --- Marcas ---

func (h *Handler) ListBrandsHandler(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Brands.List(r.Context())
	h.write(w, r, brands, err, http.StatusOK)
}

func (h *Handler) GetBrandHandler(w http.ResponseWriter, r *http.Request) {
	b, err := h.Brands.Get(r.Context(), r.PathValue("id"))
	h.write(w, r, b, err, http.StatusOK)
}

func (h *Handler) CreateBrandHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusCreated, func(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
		return h.Brands.Save(ctx, "", in)
	})
}

func (h *Handler) UpdateBrandHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusOK, func(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
		return h.Brands.Save(ctx, r.PathValue("id"), in)
	})
}

func (h *Handler) DeleteBrandHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Brands.Delete(r.Context(), r.PathValue("id"))
	h.write(w, r, nil, err, http.StatusNoContent)
}

// RemoveBrandTranslationHandler lida com DELETE /v1/brands/{id}/translations/{lang}.
func (h *Handler) RemoveBrandTranslationHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Brands.RemoveTranslation(r.Context(), r.PathValue("id"), r.PathValue("lang"))
	h.write(w, r, nil, err, http.StatusNoContent)
}

type duplicateTranslationRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DuplicateBrandTranslationHandler lida com POST /v1/brands/{id}/translations/duplicate.
func (h *Handler) DuplicateBrandTranslationHandler(w http.ResponseWriter, r *http.Request) {
	var req duplicateTranslationRequest
	if err := response.Decode(r, &req); err != nil {
		h.write(w, r, nil, err, http.StatusBadRequest)
		return
	}
	if req.From == "" || req.To == "" {
		h.write(w, r, nil, apperror.NewValidationError("'from' e 'to' são obrigatórios"), http.StatusOK)
		return
	}
	tr, err := h.Brands.DuplicateTranslation(r.Context(), r.PathValue("id"), req.From, req.To)
	h.write(w, r, tr, err, http.StatusOK)
}

// CreateMissingBrandTranslationsHandler lida com POST /v1/brands/translations/{lang}/missing?source=xx.
func (h *Handler) CreateMissingBrandTranslationsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.Brands.CreateMissingTranslations(r.Context(), r.PathValue("lang"), r.URL.Query().Get("source"))
	h.write(w, r, map[string]int{"created": n}, err, http.StatusOK)
}

// --- Categorias ---

// CategoryTreeHandler lida com GET /v1/categories e devolve a floresta a partir das raízes.
func (h *Handler) CategoryTreeHandler(w http.ResponseWriter, r *http.Request) {
	roots, err := h.Categories.Tree(r.Context())
	h.write(w, r, roots, err, http.StatusOK)
}

func (h *Handler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Categories.Get(r.Context(), r.PathValue("id"))
	h.write(w, r, c, err, http.StatusOK)
}

func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusCreated, func(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
		return h.Categories.Save(ctx, "", in)
	})
}

func (h *Handler) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	decodeAndSave(h, w, r, http.StatusOK, func(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
		return h.Categories.Save(ctx, r.PathValue("id"), in)
	})
}

func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Categories.Delete(r.Context(), r.PathValue("id"))
	h.write(w, r, nil, err, http.StatusNoContent)
}

// RemoveCategoryTranslationHandler lida com DELETE /v1/categories/{id}/translations/{lang}.
func (h *Handler) RemoveCategoryTranslationHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Categories.RemoveTranslation(r.Context(), r.PathValue("id"), r.PathValue("lang"))
	h.write(w, r, nil, err, http.StatusNoContent)
}
