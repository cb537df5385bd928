package handler

import (
	"github.com/gin-gonic/gin"
	numberingapp "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// NumberingHandler handles numbering rules and UID batches
type NumberingHandler struct {
	BaseHandler
	numberingService *numberingapp.Service
}

// NewNumberingHandler creates a new NumberingHandler
func NewNumberingHandler(numberingService *numberingapp.Service) *NumberingHandler {
	return &NumberingHandler{numberingService: numberingService}
}

// List returns a page of rules
func (h *NumberingHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"useYn": "use_yn", "resetType": "reset_type"})
	if !ok {
		return
	}
	rules, total, err := h.numberingService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, shared.NewPage(rules, total, filter))
}

// Get returns one rule
func (h *NumberingHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	rule, err := h.numberingService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// Create registers a rule
func (h *NumberingHandler) Create(c *gin.Context) {
	var req numberingapp.CreateRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rule, err := h.numberingService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rule)
}

// Update changes a rule
func (h *NumberingHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req numberingapp.UpdateRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rule, err := h.numberingService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// Delete soft-deletes a rule
func (h *NumberingHandler) Delete(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.numberingService.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// Preview renders the number the rule would issue next without consuming it
func (h *NumberingHandler) Preview(c *gin.Context) {
	ruleType := c.Param("ruleType")
	no, err := h.numberingService.Preview(c.Request.Context(), h.Actor(c), ruleType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, numberingapp.NextNumberResponse{RuleType: ruleType, Number: no})
}

// Next consumes and returns the next number of a rule
func (h *NumberingHandler) Next(c *gin.Context) {
	ruleType := c.Param("ruleType")
	no, err := h.numberingService.NextNumber(c.Request.Context(), h.Actor(c), ruleType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, numberingapp.NextNumberResponse{RuleType: ruleType, Number: no})
}

// UIDs draws a batch of material, product or consumable UIDs
func (h *NumberingHandler) UIDs(c *gin.Context) {
	var req numberingapp.UIDBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	uids, err := h.numberingService.NextUIDs(c.Request.Context(), numbering.UIDKind(req.Kind), req.Count)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, uids)
}

// RegisterRoutes registers the numbering routes
func (h *NumberingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("num-rules", "/system/num-rules")
	g.GET("", h.List)
	g.GET("/preview/:ruleType", h.Preview)
	g.POST("/next/:ruleType", h.Next)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.RegisterRoutes(rg)

	router.NewDomainGroup("uids", "/system/uids").POST("", h.UIDs).RegisterRoutes(rg)
}
