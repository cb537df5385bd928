package handler

import (
	"github.com/gin-gonic/gin"
	systemapp "github.com/mes/backend/internal/application/system"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// ConfigHandler handles runtime settings
type ConfigHandler struct {
	BaseHandler
	configService *systemapp.ConfigService
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(configService *systemapp.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// List returns the settings of an optional group matching search
func (h *ConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.List(c.Request.Context(), h.Actor(c), c.Query("group"), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, configs)
}

// Grouped returns every setting keyed by group
func (h *ConfigHandler) Grouped(c *gin.Context) {
	groups, err := h.configService.Grouped(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, groups)
}

// Active returns key to value for every active setting
func (h *ConfigHandler) Active(c *gin.Context) {
	values, err := h.configService.ActiveMap(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, values)
}

// Value returns the value of one active setting
func (h *ConfigHandler) Value(c *gin.Context) {
	key := c.Param("key")
	value, ok, err := h.configService.GetValue(c.Request.Context(), h.Actor(c), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !ok {
		h.HandleError(c, shared.NotFound("config", key))
		return
	}
	h.Success(c, gin.H{"configKey": key, "configValue": value})
}

// Get returns one setting
func (h *ConfigHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	cfg, err := h.configService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// Create adds a setting
func (h *ConfigHandler) Create(c *gin.Context) {
	var req systemapp.CreateConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cfg, err := h.configService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cfg)
}

// Update changes a setting
func (h *ConfigHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req systemapp.UpdateConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cfg, err := h.configService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// BulkUpdate sets several values at once
func (h *ConfigHandler) BulkUpdate(c *gin.Context) {
	var req systemapp.BulkUpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.configService.BulkUpdate(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete removes a setting by key
func (h *ConfigHandler) Delete(c *gin.Context) {
	if err := h.configService.Delete(c.Request.Context(), h.Actor(c), c.Param("key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// RegisterRoutes registers the settings routes
func (h *ConfigHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("configs", "/system/configs")
	g.GET("", h.List)
	g.GET("/grouped", h.Grouped)
	g.GET("/active", h.Active)
	g.GET("/value/:key", h.Value)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/bulk", h.BulkUpdate)
	g.PUT("/:id", h.Update)
	g.DELETE("/key/:key", h.Delete)
	g.RegisterRoutes(rg)
}
