package handler

import (
	"github.com/gin-gonic/gin"
	materialapp "github.com/mes/backend/internal/application/material"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// PurchaseOrderHandler handles material purchase orders
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *materialapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *materialapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// List returns a page of purchase orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partnerId": "partner_id"})
	if !ok {
		return
	}
	p, err := h.orderService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// Receivable lists confirmed orders with quantity still to arrive
func (h *PurchaseOrderHandler) Receivable(c *gin.Context) {
	orders, err := h.orderService.Receivable(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// Get returns one order with its lines
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	po, err := h.orderService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Create adds a draft order
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req materialapp.CreatePORequest
	if !h.BindJSON(c, &req) {
		return
	}
	po, err := h.orderService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

// Update changes a draft order
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req materialapp.UpdatePORequest
	if !h.BindJSON(c, &req) {
		return
	}
	po, err := h.orderService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Confirm releases a draft order for receiving
func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	transition(&h.BaseHandler, c, h.orderService.Confirm)
}

// Close ends receiving on an order
func (h *PurchaseOrderHandler) Close(c *gin.Context) {
	transition(&h.BaseHandler, c, h.orderService.Close)
}

// Cancel cancels an order that has not received anything
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	transition(&h.BaseHandler, c, h.orderService.Cancel)
}

// Delete soft-deletes a draft order
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.orderService.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// RegisterRoutes registers the purchase order routes
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("purchase-orders", "/material/purchase-orders")
	g.GET("", h.List)
	g.GET("/receivable", h.Receivable)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/confirm", h.Confirm)
	g.PATCH("/:id/close", h.Close)
	g.PATCH("/:id/cancel", h.Cancel)
	g.DELETE("/:id", h.Delete)
	g.RegisterRoutes(rg)
}
