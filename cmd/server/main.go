// Package main is the entry point for the retailcore API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retailcore/internal/domain/auth"
	"retailcore/internal/domain/catalog/customer"
	"retailcore/internal/domain/catalog/product"
	"retailcore/internal/domain/catalog/supplier"
	"retailcore/internal/domain/purchase"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/sales"
	"retailcore/internal/domain/stock"
	v1 "retailcore/internal/infrastructure/http/v1"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting retailcore server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := postgres.NewProductRepo(txm)
	supplierRepo := postgres.NewSupplierRepo(txm)
	customerRepo := postgres.NewCustomerRepo(txm)
	userRepo := postgres.NewUserRepo(txm)
	ledgerRepo := postgres.NewLedgerRepo(txm)
	damageRepo := postgres.NewDamageRepo(txm)
	purchaseRepo := postgres.NewPurchaseRepo(txm)
	salesRepo := postgres.NewSalesRepo(txm)
	reportRepo := postgres.NewReportRepo(txm)

	// --- Services ---
	numbers := numerator.New(pool)

	jwtTTL := getEnvDuration("JWT_TTL", 24*time.Hour)
	jwtService := auth.NewJWTService(mustEnv("JWT_SECRET"), jwtTTL)
	authService := auth.NewService(userRepo, jwtService)

	productService := product.NewService(productRepo)
	supplierService := supplier.NewService(supplierRepo)
	customerService := customer.NewService(customerRepo)

	stockService := stock.NewService(productRepo, ledgerRepo, damageRepo, txm)
	purchaseService := purchase.NewService(purchaseRepo, supplierRepo, stockService, txm, numbers)
	salesService := sales.NewService(salesRepo, productRepo, stockService, txm, numbers)
	reportsService := reports.NewService(reportRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool.Unwrap(),
		Logger:          log,
		AuthService:     authService,
		ProductService:  productService,
		SupplierService: supplierService,
		CustomerService: customerService,
		StockService:    stockService,
		PurchaseService: purchaseService,
		SalesService:    salesService,
		ReportsService:  reportsService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
