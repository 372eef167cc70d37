package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"retailcore/internal/core/apperror"
	"retailcore/internal/domain/stock"
	"retailcore/internal/infrastructure/http/v1/dto"
	"retailcore/pkg/logger"
)

// InventoryHandler serves stock movements and the ledger.
type InventoryHandler struct {
	*BaseHandler
	svc *stock.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, svc *stock.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers inventory endpoints.
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/inventory/stock-in", h.StockIn)
	rg.POST("/inventory/adjust", h.Adjust)
	rg.POST("/inventory/damage", h.Damage)
	rg.POST("/inventory/return", h.Return)
	rg.GET("/inventory/transactions", h.Transactions)
	rg.GET("/inventory/transactions/export", h.Export)
	rg.GET("/inventory/damaged", h.Damaged)
}

// StockIn receives goods outside any purchase order.
func (h *InventoryHandler) StockIn(c *gin.Context) {
	var req dto.StockInRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, ok := h.ParseIDValue(c, "productId", req.ProductID)
	if !ok {
		return
	}

	in := stock.StockInInput{
		ProductID:   productID,
		Quantity:    req.Quantity,
		Reference:   req.Reference,
		SupplierTag: req.SupplierTag,
	}
	if req.Cost != nil {
		cost, ok := h.ParseMoney(c, "cost", *req.Cost)
		if !ok {
			return
		}
		in.Cost = &cost
	}

	entry, err := h.svc.StockIn(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.FromLedgerEntry(entry))
}

// Adjust removes stock as a manual correction.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, ok := h.ParseIDValue(c, "productId", req.ProductID)
	if !ok {
		return
	}

	entry, err := h.svc.Adjust(c.Request.Context(), productID, req.Quantity, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.FromLedgerEntry(entry))
}

// Damage writes stock off as damaged.
func (h *InventoryHandler) Damage(c *gin.Context) {
	var req dto.DamageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, ok := h.ParseIDValue(c, "productId", req.ProductID)
	if !ok {
		return
	}

	entry, err := h.svc.ReportDamage(c.Request.Context(), productID, req.Quantity, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.FromLedgerEntry(entry))
}

// Return processes a customer or supplier return.
func (h *InventoryHandler) Return(c *gin.Context) {
	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, ok := h.ParseIDValue(c, "productId", req.ProductID)
	if !ok {
		return
	}

	entry, err := h.svc.Return(c.Request.Context(), productID,
		req.Quantity, stock.ReturnType(req.ReturnType), req.Reason, req.SaleRef)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.FromLedgerEntry(entry))
}

// Transactions lists ledger entries.
func (h *InventoryHandler) Transactions(c *gin.Context) {
	filter, ok := h.ledgerFilter(c)
	if !ok {
		return
	}

	entries, total, err := h.svc.Transactions(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.LedgerListResponse{
		Items: make([]dto.LedgerEntryResponse, 0, len(entries)),
		Meta:  dto.ListMeta{TotalCount: total, Limit: filter.Limit, Offset: filter.Offset},
	}
	for _, e := range entries {
		resp.Items = append(resp.Items, dto.FromLedgerEntry(e))
	}
	h.OK(c, resp)
}

// exportPageSize bounds one repository round trip during export.
const exportPageSize = 1000

// Export streams the filtered ledger as a gzip-compressed CSV download.
func (h *InventoryHandler) Export(c *gin.Context) {
	filter, ok := h.ledgerFilter(c)
	if !ok {
		return
	}
	filter.Limit = exportPageSize
	filter.Offset = 0

	filename := fmt.Sprintf("ledger-%s.csv.gz", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	gz := gzip.NewWriter(c.Writer)
	w := csv.NewWriter(gz)

	header := []string{"id", "product_id", "type", "quantity", "reference", "reason", "actor_id", "balance_after", "created_at"}
	if err := w.Write(header); err != nil {
		logger.Error(c.Request.Context(), "ledger export write failed", "error", err)
		return
	}

	for {
		entries, _, err := h.svc.Transactions(c.Request.Context(), filter)
		if err != nil {
			// Headers are already on the wire; all we can do is cut the
			// stream short so the gzip trailer is missing and the client
			// notices the truncation.
			logger.Error(c.Request.Context(), "ledger export query failed", "error", err)
			return
		}

		for _, e := range entries {
			rec := []string{
				e.ID.String(),
				"",
				string(e.Type),
				strconv.FormatInt(e.Quantity, 10),
				"",
				e.Reason,
				"",
				strconv.FormatInt(e.BalanceAfter, 10),
				e.CreatedAt.UTC().Format(time.RFC3339),
			}
			if e.ProductID != nil {
				rec[1] = e.ProductID.String()
			}
			if e.Reference != nil {
				rec[4] = *e.Reference
			}
			if e.ActorID != nil {
				rec[6] = e.ActorID.String()
			}
			if err := w.Write(rec); err != nil {
				logger.Error(c.Request.Context(), "ledger export write failed", "error", err)
				return
			}
		}

		if len(entries) < exportPageSize {
			break
		}
		filter.Offset += exportPageSize
	}

	w.Flush()
	if err := w.Error(); err != nil {
		logger.Error(c.Request.Context(), "ledger export flush failed", "error", err)
		return
	}
	if err := gz.Close(); err != nil {
		logger.Error(c.Request.Context(), "ledger export close failed", "error", err)
	}
}

// Damaged lists damage write-off records.
func (h *InventoryHandler) Damaged(c *gin.Context) {
	filter := stock.DamageFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("productId"); raw != "" {
		productID, ok := h.ParseIDValue(c, "productId", raw)
		if !ok {
			return
		}
		filter.ProductID = &productID
	}
	var ok bool
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}

	records, total, err := h.svc.Damaged(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.DamagedListResponse{
		Items: make([]dto.DamagedRecordResponse, 0, len(records)),
		Meta:  dto.ListMeta{TotalCount: total, Limit: filter.Limit, Offset: filter.Offset},
	}
	for _, rec := range records {
		resp.Items = append(resp.Items, dto.FromDamagedRecord(rec))
	}
	h.OK(c, resp)
}

// ledgerFilter builds a ledger filter from query parameters.
func (h *InventoryHandler) ledgerFilter(c *gin.Context) (stock.LedgerFilter, bool) {
	filter := stock.DefaultLedgerFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	if raw := c.Query("productId"); raw != "" {
		productID, ok := h.ParseIDValue(c, "productId", raw)
		if !ok {
			return filter, false
		}
		filter.ProductID = &productID
	}
	if raw := c.Query("type"); raw != "" {
		t := stock.EntryType(raw)
		if !t.Valid() {
			h.Error(c, apperror.NewValidation("type must be IN, OUT, ADJUST or RETURN").WithDetail("param", "type"))
			return filter, false
		}
		filter.Type = &t
	}
	var ok bool
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return filter, false
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return filter, false
	}
	return filter, true
}
