package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/domain/sales"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves checkout, refund and sale lookups.
type SalesHandler struct {
	*BaseHandler
	svc *sales.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, svc *sales.Service) *SalesHandler {
	return &SalesHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers sales endpoints.
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales/checkout", h.Checkout)
	rg.GET("/sales", h.List)
	rg.GET("/sales/:id", h.Get)
	rg.POST("/sales/:id/refund", h.Refund)
}

// Checkout finalizes a point-of-sale transaction.
func (h *SalesHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := sales.CheckoutInput{
		PaymentMethod: sales.PaymentMethod(req.PaymentMethod),
	}

	var ok bool
	if in.Discount, ok = h.ParseMoney(c, "discount", req.Discount); !ok {
		return
	}
	if in.Tax, ok = h.ParseMoney(c, "tax", req.Tax); !ok {
		return
	}
	if req.CustomerID != nil {
		customerID, ok := h.ParseIDValue(c, "customerId", *req.CustomerID)
		if !ok {
			return
		}
		in.CustomerID = &customerID
	}

	for _, line := range req.Lines {
		productID, ok := h.ParseIDValue(c, "lines.productId", line.ProductID)
		if !ok {
			return
		}
		li := sales.LineInput{ProductID: productID, Quantity: line.Quantity}
		if line.PriceOverride != nil {
			price, ok := h.ParseMoney(c, "lines.priceOverride", *line.PriceOverride)
			if !ok {
				return
			}
			li.PriceOverride = &price
		}
		in.Lines = append(in.Lines, li)
	}

	sale, err := h.svc.Checkout(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedData(c, dto.FromSale(sale))
}

// Get retrieves a sale with its items.
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sale, err := h.svc.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(sale))
}

// Refund reverses a COMPLETED sale.
func (h *SalesHandler) Refund(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sale, err := h.svc.Refund(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(sale))
}

// List retrieves sales with filtering.
func (h *SalesHandler) List(c *gin.Context) {
	filter := sales.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := sales.Status(raw)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("status must be COMPLETED, REFUNDED or CANCELLED").WithDetail("param", "status"))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("payment"); raw != "" {
		method := sales.PaymentMethod(raw)
		if !method.Valid() {
			h.Error(c, apperror.NewValidation("payment must be cash, card or e-wallet").WithDetail("param", "payment"))
			return
		}
		filter.PaymentMethod = &method
	}
	if raw := c.Query("customerId"); raw != "" {
		customerID, ok := h.ParseIDValue(c, "customerId", raw)
		if !ok {
			return
		}
		filter.CustomerID = &customerID
	}
	var ok bool
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.SaleListResponse{
		Items: make([]dto.SaleResponse, 0, len(items)),
		Meta:  dto.ListMeta{TotalCount: total, Limit: filter.Limit, Offset: filter.Offset},
	}
	for _, sale := range items {
		resp.Items = append(resp.Items, dto.FromSale(sale))
	}
	h.OK(c, resp)
}
