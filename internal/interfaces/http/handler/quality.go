package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qualityapp "github.com/mes/backend/internal/application/quality"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/mes/backend/internal/interfaces/http/router"
)

const (
	defaultPendingLimit = 50
	defaultTrendDays    = 7
	maxTrendDays        = 365
)

// QualityHandler handles defects, repairs, in-line inspection results and outgoing inspection
type QualityHandler struct {
	BaseHandler
	defects  *qualityapp.DefectService
	oqc      *qualityapp.OqcService
	inspects *qualityapp.InspectResultService
}

// NewQualityHandler creates a new QualityHandler
func NewQualityHandler(defects *qualityapp.DefectService, oqc *qualityapp.OqcService, inspects *qualityapp.InspectResultService) *QualityHandler {
	return &QualityHandler{defects: defects, oqc: oqc, inspects: inspects}
}

// ListDefects returns a page of defect logs
func (h *QualityHandler) ListDefects(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"prodResultId": "prod_result_id", "defectCode": "defect_code"})
	if !ok {
		return
	}
	p, err := h.defects.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetDefect returns one defect log
func (h *QualityHandler) GetDefect(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	defect, err := h.defects.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, defect)
}

// CreateDefect records a defect against a production result
func (h *QualityHandler) CreateDefect(c *gin.Context) {
	var req qualityapp.CreateDefectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	defect, err := h.defects.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, defect)
}

// UpdateDefect changes an open defect
func (h *QualityHandler) UpdateDefect(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req qualityapp.UpdateDefectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	defect, err := h.defects.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, defect)
}

// DeleteDefect soft-deletes a defect
func (h *QualityHandler) DeleteDefect(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.defects.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// ChangeDefectStatus moves a defect through its workflow
func (h *QualityHandler) ChangeDefectStatus(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req qualityapp.ChangeDefectStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	defect, err := h.defects.ChangeStatus(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, defect)
}

// Repairs lists the repair logs of a defect
func (h *QualityHandler) Repairs(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	repairs, err := h.defects.Repairs(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, repairs)
}

// AddRepair records a repair on a defect
func (h *QualityHandler) AddRepair(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req qualityapp.CreateRepairRequest
	if !h.BindJSON(c, &req) {
		return
	}
	repair, err := h.defects.AddRepair(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, repair)
}

// PendingDefects lists defects still waiting for a decision
func (h *QualityHandler) PendingDefects(c *gin.Context) {
	limit, ok := h.QueryInt(c, "limit", defaultPendingLimit)
	if !ok {
		return
	}
	defects, err := h.defects.Pending(c.Request.Context(), h.Actor(c), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, defects)
}

// StatsByType returns defect quantities per defect code
func (h *QualityHandler) StatsByType(c *gin.Context) {
	var r qualityapp.StatsRange
	if !h.BindQuery(c, &r) {
		return
	}
	stats, err := h.defects.StatsByType(c.Request.Context(), h.Actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// StatsByStatus returns defect counts per status
func (h *QualityHandler) StatsByStatus(c *gin.Context) {
	stats, err := h.defects.StatsByStatus(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// DailyTrend returns defect totals for the last days
func (h *QualityHandler) DailyTrend(c *gin.Context) {
	days, ok := h.QueryInt(c, "days", defaultTrendDays)
	if !ok {
		return
	}
	if days < 1 || days > maxTrendDays {
		h.Error(c, dto.ErrCodeInvalidInput, "days must be between 1 and 365")
		return
	}
	trend, err := h.defects.DailyTrend(c.Request.Context(), h.Actor(c), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trend)
}

// ListOqc returns a page of OQC requests
func (h *QualityHandler) ListOqc(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partId": "part_id", "result": "result"})
	if !ok {
		return
	}
	p, err := h.oqc.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetOqc returns one OQC request with its boxes
func (h *QualityHandler) GetOqc(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	req, err := h.oqc.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, req)
}

// AvailableBoxes lists closed boxes that can be put up for inspection
func (h *QualityHandler) AvailableBoxes(c *gin.Context) {
	var partID *uuid.UUID
	if raw := c.Query("partId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.Error(c, dto.ErrCodeInvalidInput, "Invalid partId format")
			return
		}
		partID = &id
	}
	boxes, err := h.oqc.AvailableBoxes(c.Request.Context(), h.Actor(c), partID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, boxes)
}

// CreateOqc requests an outgoing inspection for a set of boxes
func (h *QualityHandler) CreateOqc(c *gin.Context) {
	var req qualityapp.CreateOqcRequest
	if !h.BindJSON(c, &req) {
		return
	}
	oqc, err := h.oqc.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, oqc)
}

// ExecuteOqc records the inspection verdict
func (h *QualityHandler) ExecuteOqc(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req qualityapp.ExecuteOqcRequest
	if !h.BindJSON(c, &req) {
		return
	}
	oqc, err := h.oqc.Execute(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, oqc)
}

// UpdateOqcResult corrects the verdict of a finished inspection
func (h *QualityHandler) UpdateOqcResult(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req qualityapp.UpdateOqcResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	oqc, err := h.oqc.UpdateResult(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, oqc)
}

// OqcStats returns OQC counts per status and result
func (h *QualityHandler) OqcStats(c *gin.Context) {
	stats, err := h.oqc.Stats(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListInspects returns a page of inspection results
func (h *QualityHandler) ListInspects(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"prodResultId": "prod_result_id",
		"inspectType":  "inspect_type",
		"passYn":       "pass_yn",
	})
	if !ok {
		return
	}
	p, err := h.inspects.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetInspect returns one inspection result
func (h *QualityHandler) GetInspect(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	r, err := h.inspects.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// InspectsBySerial returns the inspection history of a serial
func (h *QualityHandler) InspectsBySerial(c *gin.Context) {
	items, err := h.inspects.BySerial(c.Request.Context(), h.Actor(c), c.Param("serialNo"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// InspectsByProdResult returns the inspections of a production result
func (h *QualityHandler) InspectsByProdResult(c *gin.Context) {
	id, ok := h.ParamID(c, "prodResultId")
	if !ok {
		return
	}
	items, err := h.inspects.ByProdResult(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// CreateInspect records one inspection result
func (h *QualityHandler) CreateInspect(c *gin.Context) {
	var req qualityapp.CreateInspectResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.inspects.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// CreateInspectBatch records several inspection results in one transaction
func (h *QualityHandler) CreateInspectBatch(c *gin.Context) {
	var req qualityapp.BatchInspectResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.inspects.CreateBatch(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// UpdateInspect changes an inspection result
func (h *QualityHandler) UpdateInspect(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req qualityapp.UpdateInspectResultRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.inspects.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// DeleteInspect soft-deletes an inspection result
func (h *QualityHandler) DeleteInspect(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.inspects.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// InspectPassRate returns the pass rate over a period
func (h *QualityHandler) InspectPassRate(c *gin.Context) {
	var q qualityapp.PassRateQuery
	if !h.BindQuery(c, &q) {
		return
	}
	rate, err := h.inspects.PassRate(c.Request.Context(), h.Actor(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// InspectStatsByType returns the pass rate per inspection type
func (h *QualityHandler) InspectStatsByType(c *gin.Context) {
	var r qualityapp.StatsRange
	if !h.BindQuery(c, &r) {
		return
	}
	stats, err := h.inspects.StatsByType(c.Request.Context(), h.Actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// InspectDailyTrend returns the pass rate per day for the last days
func (h *QualityHandler) InspectDailyTrend(c *gin.Context) {
	days, ok := h.QueryInt(c, "days", defaultTrendDays)
	if !ok {
		return
	}
	if days < 1 || days > maxTrendDays {
		h.Error(c, dto.ErrCodeInvalidInput, "days must be between 1 and 365")
		return
	}
	trend, err := h.inspects.DailyTrend(c.Request.Context(), h.Actor(c), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trend)
}

// RegisterRoutes registers the quality routes
func (h *QualityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("quality", "/quality")

	g.Group("defect-logs", "/defect-logs").
		GET("", h.ListDefects).
		GET("/pending", h.PendingDefects).
		GET("/stats/by-type", h.StatsByType).
		GET("/stats/by-status", h.StatsByStatus).
		GET("/stats/daily-trend", h.DailyTrend).
		GET("/:id", h.GetDefect).
		GET("/:id/repair-logs", h.Repairs).
		POST("", h.CreateDefect).
		POST("/:id/repair-logs", h.AddRepair).
		PUT("/:id", h.UpdateDefect).
		PATCH("/:id/status", h.ChangeDefectStatus).
		DELETE("/:id", h.DeleteDefect)

	g.Group("oqc", "/oqc").
		GET("", h.ListOqc).
		GET("/stats", h.OqcStats).
		GET("/available-boxes", h.AvailableBoxes).
		GET("/:id", h.GetOqc).
		POST("", h.CreateOqc).
		POST("/:id/execute", h.ExecuteOqc).
		PATCH("/:id/result", h.UpdateOqcResult)

	g.Group("inspect-results", "/inspect-results").
		GET("", h.ListInspects).
		GET("/stats/pass-rate", h.InspectPassRate).
		GET("/stats/by-type", h.InspectStatsByType).
		GET("/stats/daily-trend", h.InspectDailyTrend).
		GET("/serial/:serialNo", h.InspectsBySerial).
		GET("/prod-result/:prodResultId", h.InspectsByProdResult).
		GET("/:id", h.GetInspect).
		POST("", h.CreateInspect).
		POST("/batch", h.CreateInspectBatch).
		PUT("/:id", h.UpdateInspect).
		DELETE("/:id", h.DeleteInspect)

	g.RegisterRoutes(rg)
}
