package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/domain/purchase"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves purchase orders.
type PurchaseHandler struct {
	*BaseHandler
	svc *purchase.Service
}

// NewPurchaseHandler creates a new purchase order handler.
func NewPurchaseHandler(base *BaseHandler, svc *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers purchase order endpoints.
func (h *PurchaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/purchase-orders", h.Create)
	rg.GET("/purchase-orders", h.List)
	rg.GET("/purchase-orders/:id", h.Get)
	rg.PUT("/purchase-orders/:id", h.Update)
	rg.POST("/purchase-orders/:id/receive", h.Receive)
	rg.POST("/purchase-orders/:id/cancel", h.Cancel)
	rg.DELETE("/purchase-orders/:id", h.Delete)
}

// Create opens a purchase order.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	supplierID, ok := h.ParseIDValue(c, "supplierId", req.SupplierID)
	if !ok {
		return
	}
	items, ok := h.parseItems(c, req.Items)
	if !ok {
		return
	}

	po, err := h.svc.Create(c.Request.Context(), purchase.CreateInput{
		SupplierID:   supplierID,
		ExpectedDate: req.ExpectedDate,
		Notes:        req.Notes,
		Items:        items,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.FromPurchaseOrder(po))
}

// Get retrieves an order with its items.
func (h *PurchaseHandler) Get(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.svc.GetByID(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrder(po))
}

// Update edits an OPEN order.
func (h *PurchaseHandler) Update(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := purchase.UpdateInput{
		ExpectedDate: req.ExpectedDate,
		Notes:        req.Notes,
	}
	if req.Items != nil {
		items, ok := h.parseItems(c, req.Items)
		if !ok {
			return
		}
		in.Items = items
	}

	po, err := h.svc.Update(c.Request.Context(), poID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrder(po))
}

// Receive fulfills an OPEN order and stocks in every item.
func (h *PurchaseHandler) Receive(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.svc.Receive(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrder(po))
}

// Cancel moves an OPEN order to CANCELLED.
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), poID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "purchase order cancelled")
}

// Delete removes a not-yet-received order.
func (h *PurchaseHandler) Delete(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), poID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List retrieves orders with filtering.
func (h *PurchaseHandler) List(c *gin.Context) {
	filter := purchase.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("supplierId"); raw != "" {
		supplierID, ok := h.ParseIDValue(c, "supplierId", raw)
		if !ok {
			return
		}
		filter.SupplierID = &supplierID
	}
	if raw := c.Query("status"); raw != "" {
		status := purchase.Status(raw)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("status must be OPEN, RECEIVED or CANCELLED").WithDetail("param", "status"))
			return
		}
		filter.Status = &status
	}
	var ok bool
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}

	orders, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.PurchaseOrderListResponse{
		Items: make([]dto.PurchaseOrderResponse, 0, len(orders)),
		Meta:  dto.ListMeta{TotalCount: total, Limit: filter.Limit, Offset: filter.Offset},
	}
	for _, po := range orders {
		resp.Items = append(resp.Items, dto.FromPurchaseOrder(po))
	}
	h.OK(c, resp)
}

// parseItems converts request lines to service inputs.
func (h *PurchaseHandler) parseItems(c *gin.Context, reqs []dto.PurchaseItemRequest) ([]purchase.ItemInput, bool) {
	items := make([]purchase.ItemInput, 0, len(reqs))
	for _, item := range reqs {
		productID, ok := h.ParseIDValue(c, "items.productId", item.ProductID)
		if !ok {
			return nil, false
		}
		cost, ok := h.ParseMoney(c, "items.unitCost", item.UnitCost)
		if !ok {
			return nil, false
		}
		items = append(items, purchase.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitCost:  cost,
		})
	}
	return items, true
}
