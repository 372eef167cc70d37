// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"retailcore/internal/domain/auth"
	"retailcore/internal/domain/catalog/customer"
	"retailcore/internal/domain/catalog/product"
	"retailcore/internal/domain/catalog/supplier"
	"retailcore/internal/domain/purchase"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/sales"
	"retailcore/internal/domain/stock"
	"retailcore/internal/infrastructure/http/v1/handlers"
	"retailcore/internal/infrastructure/http/v1/middleware"
	"retailcore/pkg/logger"
)

// RouterConfig wires services into the HTTP layer.
type RouterConfig struct {
	Pool   *pgxpool.Pool
	Logger *logger.Logger

	AuthService     *auth.Service
	ProductService  *product.Service
	SupplierService *supplier.Service
	CustomerService *customer.Service
	StockService    *stock.Service
	PurchaseService *purchase.Service
	SalesService    *sales.Service
	ReportsService  *reports.Service
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then tracing, logging and the
	// single error renderer.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	handlers.NewHealthHandler(cfg.Pool).RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	{
		handlers.NewAuthHandler(base, cfg.AuthService).RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))

		handlers.NewProductHandler(base, cfg.ProductService).RegisterRoutes(protected)
		handlers.NewSupplierHandler(base, cfg.SupplierService).RegisterRoutes(protected)
		handlers.NewCustomerHandler(base, cfg.CustomerService).RegisterRoutes(protected)
		handlers.NewInventoryHandler(base, cfg.StockService).RegisterRoutes(protected)
		handlers.NewPurchaseHandler(base, cfg.PurchaseService).RegisterRoutes(protected)
		handlers.NewSalesHandler(base, cfg.SalesService).RegisterRoutes(protected)
		handlers.NewReportsHandler(base, cfg.ReportsService).RegisterRoutes(protected)
	}

	return router
}
