package handler

import (
	"github.com/gin-gonic/gin"
	outsourcingapp "github.com/mes/backend/internal/application/outsourcing"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// OutsourcingHandler handles subcontract vendors, orders, deliveries and receipts
type OutsourcingHandler struct {
	BaseHandler
	vendors *outsourcingapp.VendorService
	orders  *outsourcingapp.OrderService
}

// NewOutsourcingHandler creates a new OutsourcingHandler
func NewOutsourcingHandler(vendors *outsourcingapp.VendorService, orders *outsourcingapp.OrderService) *OutsourcingHandler {
	return &OutsourcingHandler{vendors: vendors, orders: orders}
}

// ListVendors returns a page of vendors
func (h *OutsourcingHandler) ListVendors(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"vendorType": "vendor_type", "useYn": "use_yn"})
	if !ok {
		return
	}
	p, err := h.vendors.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetVendor returns one vendor
func (h *OutsourcingHandler) GetVendor(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	vendor, err := h.vendors.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// CreateVendor adds a vendor
func (h *OutsourcingHandler) CreateVendor(c *gin.Context) {
	var req outsourcingapp.CreateVendorRequest
	if !h.BindJSON(c, &req) {
		return
	}
	vendor, err := h.vendors.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, vendor)
}

// UpdateVendor changes a vendor
func (h *OutsourcingHandler) UpdateVendor(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req outsourcingapp.UpdateVendorRequest
	if !h.BindJSON(c, &req) {
		return
	}
	vendor, err := h.vendors.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// DeleteVendor soft-deletes a vendor
func (h *OutsourcingHandler) DeleteVendor(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.vendors.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// ListOrders returns a page of subcontract orders
func (h *OutsourcingHandler) ListOrders(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"vendorId": "vendor_id", "partCode": "part_code"})
	if !ok {
		return
	}
	p, err := h.orders.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetOrder returns one subcontract order
func (h *OutsourcingHandler) GetOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// CreateOrder places a subcontract order
func (h *OutsourcingHandler) CreateOrder(c *gin.Context) {
	var req outsourcingapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// UpdateOrder changes an order that has not shipped material yet
func (h *OutsourcingHandler) UpdateOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req outsourcingapp.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// CancelOrder cancels an order
func (h *OutsourcingHandler) CancelOrder(c *gin.Context) {
	transition(&h.BaseHandler, c, h.orders.Cancel)
}

// Deliver records material sent to the vendor
func (h *OutsourcingHandler) Deliver(c *gin.Context) {
	var req outsourcingapp.CreateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	delivery, err := h.orders.Deliver(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, delivery)
}

// Deliveries lists the deliveries of an order
func (h *OutsourcingHandler) Deliveries(c *gin.Context) {
	id, ok := h.ParamID(c, "orderId")
	if !ok {
		return
	}
	rows, err := h.orders.Deliveries(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Receive records finished goods coming back from the vendor
func (h *OutsourcingHandler) Receive(c *gin.Context) {
	var req outsourcingapp.CreateReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	receive, err := h.orders.Receive(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receive)
}

// Receives lists the receipts of an order
func (h *OutsourcingHandler) Receives(c *gin.Context) {
	id, ok := h.ParamID(c, "orderId")
	if !ok {
		return
	}
	rows, err := h.orders.Receives(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Summary returns order counts per status
func (h *OutsourcingHandler) Summary(c *gin.Context) {
	summary, err := h.orders.Summary(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// VendorStock returns the quantity held at each vendor
func (h *OutsourcingHandler) VendorStock(c *gin.Context) {
	rows, err := h.orders.VendorStock(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// RegisterRoutes registers the outsourcing routes
func (h *OutsourcingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("outsourcing", "/outsourcing")

	g.GET("/summary", h.Summary).
		GET("/vendor-stock", h.VendorStock)

	g.Group("vendors", "/vendors").
		GET("", h.ListVendors).
		GET("/:id", h.GetVendor).
		POST("", h.CreateVendor).
		PUT("/:id", h.UpdateVendor).
		DELETE("/:id", h.DeleteVendor)

	g.Group("orders", "/orders").
		GET("", h.ListOrders).
		GET("/:id", h.GetOrder).
		POST("", h.CreateOrder).
		PUT("/:id", h.UpdateOrder).
		PATCH("/:id/cancel", h.CancelOrder)

	g.Group("deliveries", "/deliveries").
		POST("", h.Deliver).
		GET("/order/:orderId", h.Deliveries)

	g.Group("receives", "/receives").
		POST("", h.Receive).
		GET("/order/:orderId", h.Receives)

	g.RegisterRoutes(rg)
}
