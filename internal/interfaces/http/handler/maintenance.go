package handler

import (
	"github.com/gin-gonic/gin"
	maintapp "github.com/mes/backend/internal/application/maintenance"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// MaintenanceHandler handles preventive maintenance and consumables
type MaintenanceHandler struct {
	BaseHandler
	pm          *maintapp.PmService
	consumables *maintapp.ConsumableService
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(pm *maintapp.PmService, consumables *maintapp.ConsumableService) *MaintenanceHandler {
	return &MaintenanceHandler{pm: pm, consumables: consumables}
}

// ListPlans returns a page of PM plans
func (h *MaintenanceHandler) ListPlans(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"equipId":   "equipment_id",
		"pmType":    "pm_type",
		"cycleType": "cycle_type",
		"useYn":     "use_yn",
	})
	if !ok {
		return
	}
	p, err := h.pm.ListPlans(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetPlan returns one PM plan with its items
func (h *MaintenanceHandler) GetPlan(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	plan, err := h.pm.GetPlan(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// CreatePlan adds a PM plan
func (h *MaintenanceHandler) CreatePlan(c *gin.Context) {
	var req maintapp.CreatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	plan, err := h.pm.CreatePlan(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, plan)
}

// UpdatePlan changes a PM plan
func (h *MaintenanceHandler) UpdatePlan(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req maintapp.UpdatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	plan, err := h.pm.UpdatePlan(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// DeletePlan soft-deletes a PM plan
func (h *MaintenanceHandler) DeletePlan(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.pm.DeletePlan(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// Generate creates work orders for the plans due in a month
func (h *MaintenanceHandler) Generate(c *gin.Context) {
	var req maintapp.GenerateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.pm.GenerateWorkOrders(c.Request.Context(), h.Actor(c), req.Year, req.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Calendar returns the PM workload of each day in a month
func (h *MaintenanceHandler) Calendar(c *gin.Context) {
	var req maintapp.CalendarRequest
	if !h.BindQuery(c, &req) {
		return
	}
	days, err := h.pm.Calendar(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, days)
}

// DaySchedule returns the work orders scheduled on one day
func (h *MaintenanceHandler) DaySchedule(c *gin.Context) {
	var req maintapp.DayScheduleRequest
	if !h.BindQuery(c, &req) {
		return
	}
	orders, err := h.pm.DaySchedule(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// ListWorkOrders returns a page of PM work orders
func (h *MaintenanceHandler) ListWorkOrders(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"equipId":  "equipment_id",
		"pmPlanId": "pm_plan_id",
		"woType":   "wo_type",
		"priority": "priority",
	})
	if !ok {
		return
	}
	p, err := h.pm.ListWorkOrders(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetWorkOrder returns one work order with its results
func (h *MaintenanceHandler) GetWorkOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	order, err := h.pm.GetWorkOrder(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// CreateWorkOrder registers a manual work order
func (h *MaintenanceHandler) CreateWorkOrder(c *gin.Context) {
	var req maintapp.CreateWorkOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.pm.CreateWorkOrder(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ExecuteWorkOrder records the check results of a work order
func (h *MaintenanceHandler) ExecuteWorkOrder(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req maintapp.ExecuteWorkOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.pm.ExecuteWorkOrder(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// CancelWorkOrder cancels an open work order
func (h *MaintenanceHandler) CancelWorkOrder(c *gin.Context) {
	transition(&h.BaseHandler, c, h.pm.CancelWorkOrder)
}

// ListConsumables returns a page of consumables
func (h *MaintenanceHandler) ListConsumables(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"category":  "category",
		"equipCode": "equip_code",
		"useYn":     "use_yn",
	})
	if !ok {
		return
	}
	p, err := h.consumables.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetConsumable returns one consumable
func (h *MaintenanceHandler) GetConsumable(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	item, err := h.consumables.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// CreateConsumable adds a consumable
func (h *MaintenanceHandler) CreateConsumable(c *gin.Context) {
	var req maintapp.CreateConsumableRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.consumables.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateConsumable changes a consumable
func (h *MaintenanceHandler) UpdateConsumable(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req maintapp.UpdateConsumableRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.consumables.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteConsumable soft-deletes a consumable
func (h *MaintenanceHandler) DeleteConsumable(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.consumables.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// IncreaseCount adds shots to a consumable
func (h *MaintenanceHandler) IncreaseCount(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req maintapp.IncreaseCountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.consumables.IncreaseCount(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Replace resets a consumable after replacement
func (h *MaintenanceHandler) Replace(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req maintapp.ReplacementRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	item, err := h.consumables.RegisterReplacement(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Warnings lists consumables at warning or replace level
func (h *MaintenanceHandler) Warnings(c *gin.Context) {
	items, err := h.consumables.Warnings(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ReplacementDue lists consumables due for replacement within ?days
func (h *MaintenanceHandler) ReplacementDue(c *gin.Context) {
	days, ok := h.QueryInt(c, "days", maintapp.DefaultDueWindowDays)
	if !ok {
		return
	}
	items, err := h.consumables.ReplacementDue(c.Request.Context(), h.Actor(c), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ConsumableStats returns consumable counts per status
func (h *MaintenanceHandler) ConsumableStats(c *gin.Context) {
	stats, err := h.consumables.Stats(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListLogs returns consumable movements
func (h *MaintenanceHandler) ListLogs(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"consumableId": "consumable_id", "logType": "log_type"})
	if !ok {
		return
	}
	p, err := h.consumables.ListLogs(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// CreateLog records a consumable movement
func (h *MaintenanceHandler) CreateLog(c *gin.Context) {
	var req maintapp.CreateLogRequest
	if !h.BindJSON(c, &req) {
		return
	}
	log, err := h.consumables.CreateLog(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, log)
}

// RegisterRoutes registers the maintenance routes
func (h *MaintenanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("maintenance", "/maintenance")

	g.Group("pm-plans", "/pm-plans").
		GET("", h.ListPlans).
		GET("/calendar", h.Calendar).
		GET("/calendar/day", h.DaySchedule).
		POST("/generate", h.Generate).
		GET("/:id", h.GetPlan).
		POST("", h.CreatePlan).
		PUT("/:id", h.UpdatePlan).
		DELETE("/:id", h.DeletePlan)

	g.Group("pm-work-orders", "/pm-work-orders").
		GET("", h.ListWorkOrders).
		GET("/:id", h.GetWorkOrder).
		POST("", h.CreateWorkOrder).
		POST("/:id/execute", h.ExecuteWorkOrder).
		PATCH("/:id/cancel", h.CancelWorkOrder)

	g.Group("consumables", "/consumables").
		GET("", h.ListConsumables).
		GET("/stats", h.ConsumableStats).
		GET("/warnings", h.Warnings).
		GET("/replacement-due", h.ReplacementDue).
		GET("/:id", h.GetConsumable).
		POST("", h.CreateConsumable).
		PUT("/:id", h.UpdateConsumable).
		DELETE("/:id", h.DeleteConsumable).
		POST("/:id/increase", h.IncreaseCount).
		POST("/:id/replace", h.Replace)

	g.Group("consumable-logs", "/consumable-logs").
		GET("", h.ListLogs).
		POST("", h.CreateLog)

	g.RegisterRoutes(rg)
}
