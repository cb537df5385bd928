package handler

import (
	"github.com/gin-gonic/gin"
	masterapp "github.com/mes/backend/internal/application/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// EquipmentHandler handles machines and their attachments
type EquipmentHandler struct {
	BaseHandler
	equipmentService *masterapp.EquipmentService
}

// NewEquipmentHandler creates a new EquipmentHandler
func NewEquipmentHandler(equipmentService *masterapp.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipmentService: equipmentService}
}

var equipmentListColumns = map[string]string{
	"equipType":   "equip_type",
	"lineCode":    "line_code",
	"processCode": "process_code",
	"useYn":       "use_yn",
}

// List returns a page of machines
func (h *EquipmentHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, equipmentListColumns)
	if !ok {
		return
	}
	p, err := h.equipmentService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// Stats counts machines per status
func (h *EquipmentHandler) Stats(c *gin.Context) {
	stats, err := h.equipmentService.Stats(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Maintenance lists machines that are not running normally
func (h *EquipmentHandler) Maintenance(c *gin.Context) {
	list, err := h.equipmentService.MaintenanceList(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// GetByCode returns the machine with the given code
func (h *EquipmentHandler) GetByCode(c *gin.Context) {
	code := c.Param("equipCode")
	filter := shared.DefaultFilter().With("equip_code", code)
	filter.Limit = 1
	p, err := h.equipmentService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if len(p.Items) == 0 {
		h.HandleError(c, shared.NotFound("equipment", code))
		return
	}
	h.Success(c, p.Items[0])
}

// Get returns one machine
func (h *EquipmentHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	e, err := h.equipmentService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, e)
}

// Create adds a machine
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req masterapp.EquipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.equipmentService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, e)
}

// Update replaces a machine's fields
func (h *EquipmentHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.EquipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.equipmentService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, e)
}

// ChangeStatus moves a machine to NORMAL, MAINT or STOP
func (h *EquipmentHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.equipmentService.ChangeStatus(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, e)
}

// Delete soft-deletes a machine
func (h *EquipmentHandler) Delete(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.equipmentService.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// Attachments lists a machine's files with download URLs
func (h *EquipmentHandler) Attachments(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	list, err := h.equipmentService.Attachments(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// RequestUpload records an attachment and returns where to upload it
func (h *EquipmentHandler) RequestUpload(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.AttachmentUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	upload, err := h.equipmentService.RequestUpload(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, upload)
}

// DeleteAttachment removes an attachment and its stored object
func (h *EquipmentHandler) DeleteAttachment(c *gin.Context) {
	id, ok := h.ParamID(c, "attachmentId")
	if !ok {
		return
	}
	if err := h.equipmentService.DeleteAttachment(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// RegisterRoutes registers the equipment routes
func (h *EquipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("equips", "/equipment/equips")
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/maintenance", h.Maintenance)
	g.GET("/code/:equipCode", h.GetByCode)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/status", h.ChangeStatus)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/attachments", h.Attachments)
	g.POST("/:id/attachments", h.RequestUpload)
	g.DELETE("/attachments/:attachmentId", h.DeleteAttachment)
	g.RegisterRoutes(rg)
}
