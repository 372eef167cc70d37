package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/domain"
	"retailcore/internal/domain/catalog/customer"
	"retailcore/internal/domain/catalog/supplier"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// SupplierHandler serves the supplier catalog.
type SupplierHandler struct {
	*BaseHandler
	svc *supplier.Service
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, svc *supplier.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers supplier endpoints.
func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/suppliers", h.Create)
	rg.GET("/suppliers", h.List)
	rg.GET("/suppliers/:id", h.Get)
	rg.PUT("/suppliers/:id", h.Update)
	rg.DELETE("/suppliers/:id", h.Deactivate)
}

// Create adds a supplier.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sup := supplier.New(req.Name)
	sup.Contact = req.Contact
	sup.Phone = req.Phone
	sup.Email = req.Email
	sup.Address = req.Address

	if err := h.svc.Create(c.Request.Context(), sup); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sup.ID.String())
}

// Get retrieves a supplier.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sup, err := h.svc.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSupplier(sup))
}

// Update persists supplier changes.
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sup, err := h.svc.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	sup.Name = req.Name
	sup.Contact = req.Contact
	sup.Phone = req.Phone
	sup.Email = req.Email
	sup.Address = req.Address

	if err := h.svc.Update(c.Request.Context(), sup); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "supplier updated")
}

// Deactivate soft-deletes a supplier.
func (h *SupplierHandler) Deactivate(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), supplierID, false); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List retrieves suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
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

	resp := dto.SupplierListResponse{
		Items: make([]dto.SupplierResponse, 0, len(result.Items)),
		Meta:  dto.ListMeta{TotalCount: result.TotalCount, Limit: result.Limit, Offset: result.Offset},
	}
	for _, sup := range result.Items {
		resp.Items = append(resp.Items, dto.FromSupplier(sup))
	}
	h.OK(c, resp)
}

// CustomerHandler serves the customer catalog.
type CustomerHandler struct {
	*BaseHandler
	svc *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, svc *customer.Service) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers customer endpoints.
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/customers", h.Create)
	rg.GET("/customers", h.List)
	rg.GET("/customers/:id", h.Get)
	rg.PUT("/customers/:id", h.Update)
}

// Create adds a customer.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust := customer.New(req.Name)
	cust.Phone = req.Phone
	cust.Email = req.Email
	cust.Address = req.Address

	if err := h.svc.Create(c.Request.Context(), cust); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cust.ID.String())
}

// Get retrieves a customer.
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cust, err := h.svc.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCustomer(cust))
}

// Update persists customer changes.
func (h *CustomerHandler) Update(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.svc.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	cust.Name = req.Name
	cust.Phone = req.Phone
	cust.Email = req.Email
	cust.Address = req.Address

	if err := h.svc.Update(c.Request.Context(), cust); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "customer updated")
}

// List retrieves customers.
func (h *CustomerHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.CustomerListResponse{
		Items: make([]dto.CustomerResponse, 0, len(result.Items)),
		Meta:  dto.ListMeta{TotalCount: result.TotalCount, Limit: result.Limit, Offset: result.Offset},
	}
	for _, cust := range result.Items {
		resp.Items = append(resp.Items, dto.FromCustomer(cust))
	}
	h.OK(c, resp)
}
