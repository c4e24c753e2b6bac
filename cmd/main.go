package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gocatalog/config"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/token"

	"gocatalog/internal/api/catalog"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/router"
	"gocatalog/internal/api/stock"
	"gocatalog/internal/repository/attributerepo"
	"gocatalog/internal/repository/brandrepo"
	"gocatalog/internal/repository/categoryrepo"
	"gocatalog/internal/repository/languagerepo"
	"gocatalog/internal/repository/productrepo"
	"gocatalog/internal/repository/stockrepo"
	"gocatalog/internal/service/attributeservice"
	"gocatalog/internal/service/brandservice"
	"gocatalog/internal/service/categoryservice"
	"gocatalog/internal/service/languageservice"
	"gocatalog/internal/service/productservice"
	"gocatalog/internal/service/stockservice"
)

func main() {
	log.Println("⚡ Inicializando serviço GoCatalog...")
	// O .env é opcional: em containers as variáveis vêm do ambiente.
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	if cfg.IsDevelopment() {
		appLog = logger.NewDevelopmentLogger(cfg.LogLevel)
	}
	defer appLog.Sync()
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "port": cfg.Port})

	// 1. Infraestrutura
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao Redis.", err)
	}
	appLog.Info("Conexão Redis estabelecida.", nil)

	// 2. Repositórios
	languageRepo := languagerepo.NewLanguageRepository(db, cfg.DBTimeout, appLog)
	attributeRepo := attributerepo.NewAttributeRepository(db, cfg.DBTimeout, appLog)
	brandRepo := brandrepo.NewBrandRepository(db, cfg.DBTimeout, appLog)
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, appLog)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	stockRepo := stockrepo.NewStockRepository(db, cacheClient, cfg.DBTimeout, appLog)
	appLog.Debug("Repositórios inicializados.", nil)

	// 3. Serviços
	languageSvc := languageservice.NewService(languageRepo, appLog)
	attributeSvc := attributeservice.NewService(attributeRepo, productRepo, languageSvc, appLog)
	brandSvc := brandservice.NewService(brandRepo, languageSvc, appLog)
	categorySvc := categoryservice.NewService(categoryRepo, languageSvc, appLog)
	productSvc := productservice.NewService(productRepo, productservice.References{
		Brands:          brandRepo,
		Categories:      categoryRepo,
		AttributeValues: attributeRepo,
	}, languageSvc, appLog)
	productSvc.MaxSearchLimit = cfg.SearchMaxLimit
	stockSvc := stockservice.NewService(stockRepo, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	// 4. Handlers e roteador
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	handlers := router.Handlers{
		Product: product.NewHandler(productSvc, appLog),
		Stock:   stock.NewHandler(stockSvc, appLog),
		Catalog: catalog.NewHandler(languageSvc, attributeSvc, brandSvc, categorySvc, appLog),
	}
	r := router.NewRouter(handlers, tokenSvc, cacheClient, router.RateLimit{
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLog.Info("Servidor GoCatalog ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
