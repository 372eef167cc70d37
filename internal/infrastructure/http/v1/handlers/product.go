package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/domain"
	"retailcore/internal/domain/catalog/product"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	*BaseHandler
	svc *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, svc *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers product endpoints.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/products", h.Create)
	rg.GET("/products", h.List)
	rg.GET("/products/low-stock", h.LowStock)
	rg.GET("/products/:id", h.Get)
	rg.PUT("/products/:id", h.Update)
	rg.DELETE("/products/:id", h.Deactivate)
}

// Create adds a product to the catalog.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price, ok := h.ParseMoney(c, "price", req.Price)
	if !ok {
		return
	}
	cost, ok := h.ParseMoney(c, "cost", req.Cost)
	if !ok {
		return
	}

	p := product.New(req.SKU, req.Name, price, cost)
	p.Barcode = req.Barcode
	p.Description = req.Description
	p.Quantity = req.Quantity
	p.LowStockThreshold = req.LowStockThreshold
	p.Location = req.Location
	if req.Unit != "" {
		p.Unit = req.Unit
	}

	if err := h.svc.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// Get retrieves a product.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// Update persists catalog fields. Quantity is never writable here.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price, ok := h.ParseMoney(c, "price", req.Price)
	if !ok {
		return
	}
	cost, ok := h.ParseMoney(c, "cost", req.Cost)
	if !ok {
		return
	}

	p := &product.Product{
		ID:                productID,
		SKU:               req.SKU,
		Barcode:           req.Barcode,
		Name:              req.Name,
		Description:       req.Description,
		Price:             price,
		Cost:              cost,
		LowStockThreshold: req.LowStockThreshold,
		Unit:              req.Unit,
		Location:          req.Location,
		Active:            req.Active,
	}
	if p.Unit == "" {
		p.Unit = "pcs"
	}

	if err := h.svc.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "product updated")
}

// Deactivate soft-deletes a product.
func (h *ProductHandler) Deactivate(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), productID, false); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List retrieves products with search and pagination.
func (h *ProductHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.IncludeInactive = c.Query("includeInactive") == "true"
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ProductListResponse{
		Items: make([]dto.ProductResponse, 0, len(result.Items)),
		Meta:  dto.ListMeta{TotalCount: result.TotalCount, Limit: result.Limit, Offset: result.Offset},
	}
	for _, p := range result.Items {
		resp.Items = append(resp.Items, dto.FromProduct(p))
	}
	h.OK(c, resp)
}

// LowStock returns active products at or below their reorder point.
func (h *ProductHandler) LowStock(c *gin.Context) {
	items, err := h.svc.FindLowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]dto.ProductResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, dto.FromProduct(p))
	}
	h.OK(c, gin.H{"items": resp})
}
