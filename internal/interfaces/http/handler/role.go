package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/mes/backend/internal/application/identity"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// RoleHandler handles roles and their menu grants
type RoleHandler struct {
	BaseHandler
	roleService *identityapp.RoleService
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(roleService *identityapp.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// List returns a page of roles
func (h *RoleHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, nil)
	if !ok {
		return
	}
	roles, total, err := h.roleService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, shared.NewPage(roles, total, filter))
}

// Get returns one role with its menu codes
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.roleService.GetByCode(c.Request.Context(), h.Actor(c), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, role)
}

// Create adds a role
func (h *RoleHandler) Create(c *gin.Context) {
	var req identityapp.CreateRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, role)
}

// Update changes a role
func (h *RoleHandler) Update(c *gin.Context) {
	var req identityapp.UpdateRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), h.Actor(c), c.Param("code"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, role)
}

// SetPermissions replaces the menu grants of a role
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	var req identityapp.SetPermissionsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	role, err := h.roleService.SetPermissions(c.Request.Context(), h.Actor(c), c.Param("code"), req.MenuCodes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, role)
}

// Delete removes a role that is neither a system role nor in use
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.roleService.Delete(c.Request.Context(), h.Actor(c), c.Param("code")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// RegisterRoutes registers the role routes
func (h *RoleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("roles", "/roles")
	g.GET("", h.List)
	g.GET("/:code", h.Get)
	g.POST("", h.Create)
	g.PUT("/:code", h.Update)
	g.PUT("/:code/permissions", h.SetPermissions)
	g.DELETE("/:code", h.Delete)
	g.RegisterRoutes(rg)
}
