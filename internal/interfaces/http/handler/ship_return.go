package handler

import (
	"github.com/gin-gonic/gin"
	shippingapp "github.com/mes/backend/internal/application/shipping"
)

// ListReturns returns a page of customer returns
func (h *ShippingHandler) ListReturns(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"shipmentId": "shipment_id"})
	if !ok {
		return
	}
	p, err := h.returns.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetReturn returns one return with its items
func (h *ShippingHandler) GetReturn(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	ret, err := h.returns.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// CreateReturn registers a draft return
func (h *ShippingHandler) CreateReturn(c *gin.Context) {
	var req shippingapp.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ret, err := h.returns.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// UpdateReturn changes a draft return
func (h *ShippingHandler) UpdateReturn(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.UpdateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ret, err := h.returns.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// DeleteReturn removes a draft return
func (h *ShippingHandler) DeleteReturn(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.returns.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// ConfirmReturn moves a return to CONFIRMED
func (h *ShippingHandler) ConfirmReturn(c *gin.Context) {
	transition(&h.BaseHandler, c, h.returns.Confirm)
}

// CompleteReturn moves a return to COMPLETED
func (h *ShippingHandler) CompleteReturn(c *gin.Context) {
	transition(&h.BaseHandler, c, h.returns.Complete)
}

// ReturnStats counts returns per status
func (h *ShippingHandler) ReturnStats(c *gin.Context) {
	var r shippingapp.StatsRange
	if !h.BindQuery(c, &r) {
		return
	}
	stats, err := h.returns.Stats(c.Request.Context(), h.Actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
