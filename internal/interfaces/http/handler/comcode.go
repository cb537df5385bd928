package handler

import (
	"github.com/gin-gonic/gin"
	masterapp "github.com/mes/backend/internal/application/master"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// ComCodeHandler handles the common code registry
type ComCodeHandler struct {
	BaseHandler
	comCodeService *masterapp.ComCodeService
}

// NewComCodeHandler creates a new ComCodeHandler
func NewComCodeHandler(comCodeService *masterapp.ComCodeService) *ComCodeHandler {
	return &ComCodeHandler{comCodeService: comCodeService}
}

// List returns a page of common codes
func (h *ComCodeHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"groupCode": "group_code", "useYn": "use_yn"})
	if !ok {
		return
	}
	p, err := h.comCodeService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// Groups returns every group with its code count
func (h *ComCodeHandler) Groups(c *gin.Context) {
	groups, err := h.comCodeService.Groups(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, groups)
}

// ByGroup returns the active codes of one group in display order
func (h *ComCodeHandler) ByGroup(c *gin.Context) {
	codes, err := h.comCodeService.FindByGroup(c.Request.Context(), h.Actor(c), c.Param("groupCode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, codes)
}

// Get returns one code
func (h *ComCodeHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	code, err := h.comCodeService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, code)
}

// Create adds a code
func (h *ComCodeHandler) Create(c *gin.Context) {
	var req masterapp.CreateComCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	code, err := h.comCodeService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, code)
}

// Update changes a code
func (h *ComCodeHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.UpdateComCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	code, err := h.comCodeService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, code)
}

// Delete soft-deletes a code
func (h *ComCodeHandler) Delete(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.comCodeService.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// RegisterRoutes registers the common code routes
func (h *ComCodeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("com-codes", "/master/com-codes")
	g.GET("", h.List)
	g.GET("/groups", h.Groups)
	g.GET("/groups/:groupCode", h.ByGroup)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.RegisterRoutes(rg)
}
