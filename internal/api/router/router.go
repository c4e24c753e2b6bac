package router

import (
	"net/http"
	"time"

	"gocatalog/internal/api/catalog"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/stock"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/middleware"
	"gocatalog/internal/pkg/token"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product *product.Handler
	Stock   *stock.Handler
	Catalog *catalog.Handler
}

// RateLimit configura o limitador das rotas de escrita.
type RateLimit struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal. Leituras são
// públicas; escritas exigem JWT de admin ou editor e passam pelo rate limit.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, cacheClient cache.Client, limit RateLimit) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	editors := middleware.PermissionMiddleware(token.RoleAdmin, token.RoleEditor)
	admins := middleware.PermissionMiddleware(token.RoleAdmin)
	limiter := middleware.RateLimiter(cacheClient, limit.MaxRequests, limit.Period)

	write := func(next http.HandlerFunc) http.Handler {
		return limiter(auth(editors(next)))
	}
	admin := func(next http.HandlerFunc) http.Handler {
		return limiter(auth(admins(next)))
	}

	// --- Health Check ---
	mux.HandleFunc("GET /ping", PingHandler)

	// --- Produtos ---
	mux.HandleFunc("GET /v1/products", h.Product.SearchProductsHandler)
	mux.Handle("POST /v1/products", write(h.Product.CreateProductHandler))
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetProductHandler)
	mux.HandleFunc("GET /v1/products/{id}/full", h.Product.GetProductAggregateHandler)
	mux.Handle("PUT /v1/products/{id}", write(h.Product.UpdateProductHandler))
	mux.Handle("DELETE /v1/products/{id}", write(h.Product.DeleteProductHandler))
	mux.HandleFunc("POST /v1/products/{id}/variant-lookup", h.Product.VariantLookupHandler)
	mux.HandleFunc("GET /v1/products/{id}/translations", h.Product.TranslationStatusHandler)
	mux.Handle("POST /v1/products/{id}/translations/duplicate", write(h.Product.DuplicateTranslationHandler))
	mux.Handle("DELETE /v1/products/{id}/translations/{lang}", write(h.Product.RemoveTranslationHandler))
	mux.Handle("DELETE /v1/products/{id}/variants/{sku}", write(h.Product.DeleteVariantHandler))
	mux.Handle("POST /v1/translations/{lang}/missing", admin(h.Product.CreateMissingTranslationsHandler))

	// --- Estoque ---
	mux.HandleFunc("GET /v1/stock/{sku}", h.Stock.GetStockHandler)
	mux.Handle("POST /v1/stock/adjust", write(h.Stock.AdjustStockHandler))

	// --- Idiomas ---
	mux.HandleFunc("GET /v1/languages", h.Catalog.ListLanguagesHandler)
	mux.Handle("PUT /v1/languages", admin(h.Catalog.SaveLanguageHandler))
	mux.Handle("POST /v1/languages/{code}/default", admin(h.Catalog.SetDefaultLanguageHandler))
	mux.Handle("DELETE /v1/languages/{code}", admin(h.Catalog.DeleteLanguageHandler))

	// --- Atributos ---
	mux.HandleFunc("GET /v1/attributes", h.Catalog.ListAttributesHandler)
	mux.HandleFunc("GET /v1/attributes/{id}", h.Catalog.GetAttributeHandler)
	mux.Handle("POST /v1/attributes", write(h.Catalog.CreateAttributeHandler))
	mux.Handle("PUT /v1/attributes/{id}", write(h.Catalog.UpdateAttributeHandler))
	mux.Handle("DELETE /v1/attributes/{id}", write(h.Catalog.DeleteAttributeHandler))
	mux.Handle("POST /v1/attributes/{id}/values", write(h.Catalog.CreateAttributeValueHandler))
	mux.Handle("PUT /v1/attributes/{id}/values/{valueID}", write(h.Catalog.UpdateAttributeValueHandler))
	mux.Handle("DELETE /v1/attributes/{id}/values/{valueID}", write(h.Catalog.DeleteAttributeValueHandler))

	// --- Marcas ---
	mux.HandleFunc("GET /v1/brands", h.Catalog.ListBrandsHandler)
	mux.HandleFunc("GET /v1/brands/{id}", h.Catalog.GetBrandHandler)
	mux.Handle("POST /v1/brands", write(h.Catalog.CreateBrandHandler))
	mux.Handle("PUT /v1/brands/{id}", write(h.Catalog.UpdateBrandHandler))
	mux.Handle("DELETE /v1/brands/{id}", write(h.Catalog.DeleteBrandHandler))
	mux.Handle("DELETE /v1/brands/{id}/translations/{lang}", write(h.Catalog.RemoveBrandTranslationHandler))
	mux.Handle("POST /v1/brands/{id}/translations/duplicate", write(h.Catalog.DuplicateBrandTranslationHandler))
	mux.Handle("POST /v1/brands/translations/{lang}/missing", admin(h.Catalog.CreateMissingBrandTranslationsHandler))

	// --- Categorias ---
	mux.HandleFunc("GET /v1/categories", h.Catalog.CategoryTreeHandler)
	mux.HandleFunc("GET /v1/categories/{id}", h.Catalog.GetCategoryHandler)
	mux.Handle("POST /v1/categories", write(h.Catalog.CreateCategoryHandler))
	mux.Handle("PUT /v1/categories/{id}", write(h.Catalog.UpdateCategoryHandler))
	mux.Handle("DELETE /v1/categories/{id}", write(h.Catalog.DeleteCategoryHandler))
	mux.Handle("DELETE /v1/categories/{id}/translations/{lang}", write(h.Catalog.RemoveCategoryTranslationHandler))

	return mux
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
