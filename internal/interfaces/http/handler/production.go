package handler

import (
	"github.com/gin-gonic/gin"
	prodapp "github.com/mes/backend/internal/application/production"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// ProductionHandler handles production plans, job orders and production results
type ProductionHandler struct {
	BaseHandler
	jobOrders *prodapp.JobOrderService
	results   *prodapp.ProdResultService
	plans     *prodapp.ProdPlanService
}

// NewProductionHandler creates a new ProductionHandler
func NewProductionHandler(jobOrders *prodapp.JobOrderService, results *prodapp.ProdResultService, plans *prodapp.ProdPlanService) *ProductionHandler {
	return &ProductionHandler{jobOrders: jobOrders, results: results, plans: plans}
}

// ListJobOrders returns a page of job orders
func (h *ProductionHandler) ListJobOrders(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partId": "part_id", "lineCode": "line_code"})
	if !ok {
		return
	}
	p, err := h.jobOrders.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetJobOrder returns one job order
func (h *ProductionHandler) GetJobOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	order, err := h.jobOrders.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// CreateJobOrder plans a new job order
func (h *ProductionHandler) CreateJobOrder(c *gin.Context) {
	var req prodapp.CreateJobOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.jobOrders.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// UpdateJobOrder changes a waiting job order
func (h *ProductionHandler) UpdateJobOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req prodapp.UpdateJobOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.jobOrders.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// DeleteJobOrder soft-deletes a job order without results
func (h *ProductionHandler) DeleteJobOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.jobOrders.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// StartJobOrder moves a job order to RUNNING
func (h *ProductionHandler) StartJobOrder(c *gin.Context) {
	transition(&h.BaseHandler, c, h.jobOrders.Start)
}

// PauseJobOrder moves a running job order to PAUSED
func (h *ProductionHandler) PauseJobOrder(c *gin.Context) {
	transition(&h.BaseHandler, c, h.jobOrders.Pause)
}

// CompleteJobOrder closes a job order
func (h *ProductionHandler) CompleteJobOrder(c *gin.Context) {
	transition(&h.BaseHandler, c, h.jobOrders.Complete)
}

// CancelJobOrder cancels a job order
func (h *ProductionHandler) CancelJobOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req prodapp.CancelRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	order, err := h.jobOrders.Cancel(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ChangeJobOrderStatus applies an explicit status change
func (h *ProductionHandler) ChangeJobOrderStatus(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req prodapp.ChangeJobStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.jobOrders.ChangeStatus(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UnsyncedJobOrders lists completed job orders not yet sent to the ERP
func (h *ProductionHandler) UnsyncedJobOrders(c *gin.Context) {
	orders, err := h.jobOrders.Unsynced(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// MarkJobOrdersSynced flags job orders as sent to the ERP
func (h *ProductionHandler) MarkJobOrdersSynced(c *gin.Context) {
	var req prodapp.SyncRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.jobOrders.MarkSynced(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"count": n})
}

// JobOrderSummary returns the result totals of a job order
func (h *ProductionHandler) JobOrderSummary(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	summary, err := h.jobOrders.Summary(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ListResults returns a page of production results
func (h *ProductionHandler) ListResults(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"jobOrderId": "job_order_id",
		"equipId":    "equip_id",
		"workerId":   "worker_id",
	})
	if !ok {
		return
	}
	p, err := h.results.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetResult returns one production result
func (h *ProductionHandler) GetResult(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	result, err := h.results.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ResultsByJobOrder lists the results booked on a job order
func (h *ProductionHandler) ResultsByJobOrder(c *gin.Context) {
	id, ok := h.ParamID(c, "jobOrderId")
	if !ok {
		return
	}
	results, err := h.results.ByJobOrder(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// CreateResult starts a production result
func (h *ProductionHandler) CreateResult(c *gin.Context) {
	var req prodapp.CreateResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.results.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// UpdateResult changes a running result
func (h *ProductionHandler) UpdateResult(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req prodapp.UpdateResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.results.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DeleteResult soft-deletes a result
func (h *ProductionHandler) DeleteResult(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.results.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// CompleteResult closes a running result with its final quantities
func (h *ProductionHandler) CompleteResult(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req prodapp.CompleteResultRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	result, err := h.results.Complete(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CancelResult cancels a result
func (h *ProductionHandler) CancelResult(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req prodapp.CancelRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	result, err := h.results.Cancel(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ResultSummaryByJobOrder returns result totals for a job order
func (h *ProductionHandler) ResultSummaryByJobOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	summary, err := h.results.JobOrderSummary(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ResultSummaryByEquip returns result totals for an equipment
func (h *ProductionHandler) ResultSummaryByEquip(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var r prodapp.SummaryRange
	if !h.BindQuery(c, &r) {
		return
	}
	summary, err := h.results.EquipmentSummary(c.Request.Context(), h.Actor(c), id, r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ResultSummaryByWorker returns result totals for a worker
func (h *ProductionHandler) ResultSummaryByWorker(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var r prodapp.SummaryRange
	if !h.BindQuery(c, &r) {
		return
	}
	summary, err := h.results.WorkerSummary(c.Request.Context(), h.Actor(c), id, r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// DailySummary returns result totals per day
func (h *ProductionHandler) DailySummary(c *gin.Context) {
	var r prodapp.SummaryRange
	if !h.BindQuery(c, &r) {
		return
	}
	rows, err := h.results.DailySummary(c.Request.Context(), h.Actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// RegisterRoutes registers the production routes
func (h *ProductionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("production", "/production")

	g.Group("prod-plans", "/prod-plans").
		GET("", h.ListPlans).
		GET("/summary/:month", h.PlanSummary).
		GET("/:id", h.GetPlan).
		POST("", h.CreatePlan).
		POST("/bulk", h.BulkCreatePlans).
		POST("/bulk-confirm", h.BulkConfirmPlans).
		PUT("/:id", h.UpdatePlan).
		POST("/:id/confirm", h.ConfirmPlan).
		POST("/:id/unconfirm", h.UnconfirmPlan).
		POST("/:id/close", h.ClosePlan).
		DELETE("/:id", h.DeletePlan)

	g.Group("job-orders", "/job-orders").
		GET("", h.ListJobOrders).
		GET("/erp/unsynced", h.UnsyncedJobOrders).
		POST("/erp/mark-synced", h.MarkJobOrdersSynced).
		GET("/:id", h.GetJobOrder).
		GET("/:id/summary", h.JobOrderSummary).
		POST("", h.CreateJobOrder).
		PUT("/:id", h.UpdateJobOrder).
		PATCH("/:id/start", h.StartJobOrder).
		PATCH("/:id/pause", h.PauseJobOrder).
		PATCH("/:id/complete", h.CompleteJobOrder).
		PATCH("/:id/cancel", h.CancelJobOrder).
		PUT("/:id/status", h.ChangeJobOrderStatus).
		DELETE("/:id", h.DeleteJobOrder)

	g.Group("prod-results", "/prod-results").
		GET("", h.ListResults).
		GET("/job-order/:jobOrderId", h.ResultsByJobOrder).
		GET("/summary/job-order/:id", h.ResultSummaryByJobOrder).
		GET("/summary/equip/:id", h.ResultSummaryByEquip).
		GET("/summary/worker/:id", h.ResultSummaryByWorker).
		GET("/summary/daily", h.DailySummary).
		GET("/:id", h.GetResult).
		POST("", h.CreateResult).
		PUT("/:id", h.UpdateResult).
		PATCH("/:id/complete", h.CompleteResult).
		PATCH("/:id/cancel", h.CancelResult).
		DELETE("/:id", h.DeleteResult)

	g.RegisterRoutes(rg)
}
