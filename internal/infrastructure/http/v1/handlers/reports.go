package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/domain/reports"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves read-only projections.
type ReportsHandler struct {
	*BaseHandler
	svc *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, svc *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers report endpoints.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/sales", h.SalesSummary)
	rg.GET("/reports/inventory", h.InventorySummary)
	rg.GET("/reports/shrinkage", h.Shrinkage)
}

// SalesSummary aggregates completed sales in a date range.
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}

	summary, err := h.svc.SalesSummary(c.Request.Context(), r)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesSummary(summary))
}

// InventorySummary values the on-hand stock of active products.
func (h *ReportsHandler) InventorySummary(c *gin.Context) {
	summary, err := h.svc.InventorySummary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInventorySummary(summary))
}

// Shrinkage aggregates negative adjustments per product.
func (h *ReportsHandler) Shrinkage(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}

	rows, err := h.svc.Shrinkage(c.Request.Context(), r)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromShrinkage(rows))
}

// dateRange builds a report range from query parameters.
func (h *ReportsHandler) dateRange(c *gin.Context) (reports.DateRange, bool) {
	var r reports.DateRange
	var ok bool
	if r.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return r, false
	}
	if r.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return r, false
	}
	return r, true
}
