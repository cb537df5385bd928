package handler

import (
	"github.com/gin-gonic/gin"
	prodapp "github.com/mes/backend/internal/application/production"
)

// ListPlans returns a page of production plans
func (h *ProductionHandler) ListPlans(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"planMonth": "plan_month", "itemType": "item_type", "partId": "part_id"})
	if !ok {
		return
	}
	p, err := h.plans.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetPlan returns one production plan
func (h *ProductionHandler) GetPlan(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	plan, err := h.plans.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// PlanSummary totals the plans of one month
func (h *ProductionHandler) PlanSummary(c *gin.Context) {
	summary, err := h.plans.Summary(c.Request.Context(), h.Actor(c), c.Param("month"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// CreatePlan registers a draft plan
func (h *ProductionHandler) CreatePlan(c *gin.Context) {
	var req prodapp.CreatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, plan)
}

// BulkCreatePlans registers the plans of one month at once
func (h *ProductionHandler) BulkCreatePlans(c *gin.Context) {
	var req prodapp.BulkCreatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.plans.BulkCreate(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// UpdatePlan changes a draft plan
func (h *ProductionHandler) UpdatePlan(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req prodapp.UpdatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	plan, err := h.plans.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// DeletePlan removes a draft plan
func (h *ProductionHandler) DeletePlan(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.plans.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// ConfirmPlan moves a plan to CONFIRMED
func (h *ProductionHandler) ConfirmPlan(c *gin.Context) {
	transition(&h.BaseHandler, c, h.plans.Confirm)
}

// UnconfirmPlan moves a plan back to DRAFT
func (h *ProductionHandler) UnconfirmPlan(c *gin.Context) {
	transition(&h.BaseHandler, c, h.plans.Unconfirm)
}

// ClosePlan moves a plan to CLOSED
func (h *ProductionHandler) ClosePlan(c *gin.Context) {
	transition(&h.BaseHandler, c, h.plans.Close)
}

// BulkConfirmPlans confirms the draft plans among ids
func (h *ProductionHandler) BulkConfirmPlans(c *gin.Context) {
	var req prodapp.PlanIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.plans.BulkConfirm(c.Request.Context(), h.Actor(c), req.IDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prodapp.CountResult{Count: n})
}
