package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alamigestion/server/internal"
	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/handler"
	"github.com/alamigestion/server/internal/middleware"
	"github.com/alamigestion/server/internal/repository"
	"github.com/alamigestion/server/internal/service"
	"github.com/alamigestion/server/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	if cfg.UsingDevSecret {
		logger.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	// The database may still be starting up alongside the server, so
	// retry the initial ping with backoff.
	backoff := retry.WithMaxDuration(cfg.DBConnectTimeout, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("Database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	queries := repository.New(db)

	// Initialize storage
	store, err := storage.New(cfg.StorageProvider,
		storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize services
	isSecure := cfg.Env != "development"
	authn := auth.NewAuthenticator(cfg.JWTSecret, isSecure)

	userService := service.NewUserService(queries, authn, logger)
	customerService := service.NewCustomerService(queries, logger)
	productService := service.NewProductService(queries, store, service.NewImagingProcessor(), logger)
	supplierService := service.NewSupplierService(db, queries, logger)
	saleService := service.NewSaleService(db, queries, logger)
	documentService := service.NewDocumentService(db, queries, logger)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authn, userService, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsMw := middleware.NewHTTPMetricsMiddleware()
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	loginLimiter := middleware.NewIPRateLimiter(
		rate.Limit(float64(cfg.LoginRatePerMinute)/60.0),
		cfg.LoginRateBurst,
		logger,
	)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, authn, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	customerHandler := handler.NewCustomerHandler(customerService, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	supplierHandler := handler.NewSupplierHandler(supplierService, logger)
	saleHandler := handler.NewSaleHandler(saleService, logger)
	documentHandler := handler.NewDocumentHandler(documentService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (optionally behind basic auth)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Locally stored files (product images) when using local storage
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Middleware stacks
	requireUser := middleware.Stack(authMw.WithSession, authMw.RequireUser)
	requireOwner := middleware.Stack(authMw.WithSession, authMw.RequireUser, authMw.RequireOwner)

	// Auth
	mux.Handle("POST /api/auth/login", loginLimiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", requireUser(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/password", requireUser(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (owner only)
	mux.Handle("POST /api/users", requireOwner(http.HandlerFunc(userHandler.Create)))
	mux.Handle("GET /api/users", requireOwner(http.HandlerFunc(userHandler.List)))
	mux.Handle("PATCH /api/users/{id}/active", requireOwner(http.HandlerFunc(userHandler.SetActive)))

	// Customers
	mux.Handle("POST /api/customers", requireUser(http.HandlerFunc(customerHandler.Create)))
	mux.Handle("GET /api/customers", requireUser(http.HandlerFunc(customerHandler.List)))
	mux.Handle("GET /api/customers/{id}", requireUser(http.HandlerFunc(customerHandler.Get)))
	mux.Handle("PUT /api/customers/{id}", requireUser(http.HandlerFunc(customerHandler.Update)))
	mux.Handle("DELETE /api/customers/{id}", requireOwner(http.HandlerFunc(customerHandler.Delete)))
	mux.Handle("POST /api/customers/{id}/payments", requireUser(http.HandlerFunc(customerHandler.RecordPayment)))

	// Products
	mux.Handle("POST /api/products", requireOwner(http.HandlerFunc(productHandler.Create)))
	mux.Handle("GET /api/products", requireUser(http.HandlerFunc(productHandler.List)))
	mux.Handle("GET /api/products/low-stock", requireUser(http.HandlerFunc(productHandler.ListLowStock)))
	mux.Handle("GET /api/products/{id}", requireUser(http.HandlerFunc(productHandler.Get)))
	mux.Handle("PUT /api/products/{id}", requireOwner(http.HandlerFunc(productHandler.Update)))
	mux.Handle("DELETE /api/products/{id}", requireOwner(http.HandlerFunc(productHandler.Delete)))
	mux.Handle("POST /api/products/{id}/image", requireOwner(http.HandlerFunc(productHandler.UploadImage)))
	mux.Handle("GET /api/products/{id}/image", requireUser(http.HandlerFunc(productHandler.ImageURLs)))

	// Suppliers (owner only)
	mux.Handle("POST /api/suppliers", requireOwner(http.HandlerFunc(supplierHandler.Create)))
	mux.Handle("GET /api/suppliers", requireOwner(http.HandlerFunc(supplierHandler.List)))
	mux.Handle("GET /api/suppliers/{id}", requireOwner(http.HandlerFunc(supplierHandler.Get)))
	mux.Handle("PUT /api/suppliers/{id}", requireOwner(http.HandlerFunc(supplierHandler.Update)))
	mux.Handle("DELETE /api/suppliers/{id}", requireOwner(http.HandlerFunc(supplierHandler.Delete)))
	mux.Handle("POST /api/suppliers/{id}/debts", requireOwner(http.HandlerFunc(supplierHandler.AddDebt)))
	mux.Handle("POST /api/suppliers/{id}/payments", requireOwner(http.HandlerFunc(supplierHandler.RecordPayment)))
	mux.Handle("GET /api/suppliers/{id}/payments", requireOwner(http.HandlerFunc(supplierHandler.ListPayments)))

	// Sales
	mux.Handle("POST /api/sales", requireUser(http.HandlerFunc(saleHandler.Create)))
	mux.Handle("GET /api/sales", requireUser(http.HandlerFunc(saleHandler.List)))
	mux.Handle("GET /api/sales/{id}", requireUser(http.HandlerFunc(saleHandler.Get)))

	// Invoices
	mux.Handle("POST /api/sales/{id}/invoice", requireUser(http.HandlerFunc(documentHandler.GenerateInvoice)))
	mux.Handle("GET /api/invoices", requireUser(http.HandlerFunc(documentHandler.ListInvoices)))
	mux.Handle("GET /api/invoices/{id}", requireUser(http.HandlerFunc(documentHandler.GetInvoice)))

	// Quotes
	mux.Handle("POST /api/quotes", requireUser(http.HandlerFunc(documentHandler.CreateQuote)))
	mux.Handle("GET /api/quotes", requireUser(http.HandlerFunc(documentHandler.ListQuotes)))
	mux.Handle("GET /api/quotes/{id}", requireUser(http.HandlerFunc(documentHandler.GetQuote)))
	mux.Handle("PATCH /api/quotes/{id}/status", requireUser(http.HandlerFunc(documentHandler.UpdateQuoteStatus)))
	mux.Handle("POST /api/quotes/{id}/convert", requireOwner(http.HandlerFunc(documentHandler.ConvertQuote)))

	// Outermost middleware applies to every route
	root := middleware.Stack(
		securityMw.Handler,
		loggingMw.Handler,
		metricsMw.Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
