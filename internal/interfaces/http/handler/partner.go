package handler

import (
	"github.com/gin-gonic/gin"
	masterapp "github.com/mes/backend/internal/application/master"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// PartnerHandler handles vendors, customers and warehouses
type PartnerHandler struct {
	BaseHandler
	partnerService *masterapp.PartnerService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(partnerService *masterapp.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

// List returns a page of partners
func (h *PartnerHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partnerType": "partner_type", "useYn": "use_yn"})
	if !ok {
		return
	}
	p, err := h.partnerService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// Get returns one partner
func (h *PartnerHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	partner, err := h.partnerService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partner)
}

// Create adds a partner
func (h *PartnerHandler) Create(c *gin.Context) {
	var req masterapp.PartnerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	partner, err := h.partnerService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, partner)
}

// Update replaces a partner's fields
func (h *PartnerHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.PartnerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	partner, err := h.partnerService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partner)
}

// Delete soft-deletes a partner
func (h *PartnerHandler) Delete(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.partnerService.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// ListWarehouses returns a page of warehouses
func (h *PartnerHandler) ListWarehouses(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"warehouseType": "warehouse_type",
		"lineCode":      "line_code",
		"useYn":         "use_yn",
	})
	if !ok {
		return
	}
	p, err := h.partnerService.ListWarehouses(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetWarehouse returns one warehouse
func (h *PartnerHandler) GetWarehouse(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	w, err := h.partnerService.GetWarehouse(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, w)
}

// CreateWarehouse adds a warehouse
func (h *PartnerHandler) CreateWarehouse(c *gin.Context) {
	var req masterapp.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	w, err := h.partnerService.CreateWarehouse(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, w)
}

// UpdateWarehouse replaces a warehouse's fields
func (h *PartnerHandler) UpdateWarehouse(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	w, err := h.partnerService.UpdateWarehouse(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, w)
}

// DeleteWarehouse soft-deletes a warehouse
func (h *PartnerHandler) DeleteWarehouse(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.partnerService.DeleteWarehouse(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// RegisterRoutes registers the partner and warehouse routes
func (h *PartnerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	master := router.NewDomainGroup("master", "/master")

	partners := master.Group("partners", "/partners")
	partners.GET("", h.List)
	partners.GET("/:id", h.Get)
	partners.POST("", h.Create)
	partners.PUT("/:id", h.Update)
	partners.DELETE("/:id", h.Delete)

	warehouses := master.Group("warehouses", "/warehouses")
	warehouses.GET("", h.ListWarehouses)
	warehouses.GET("/:id", h.GetWarehouse)
	warehouses.POST("", h.CreateWarehouse)
	warehouses.PUT("/:id", h.UpdateWarehouse)
	warehouses.DELETE("/:id", h.DeleteWarehouse)

	master.RegisterRoutes(rg)
}
