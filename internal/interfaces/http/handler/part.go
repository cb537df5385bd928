package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	masterapp "github.com/mes/backend/internal/application/master"
	"github.com/mes/backend/internal/interfaces/http/router"
)

const (
	// bomTreeMaxDepth bounds the depth of an expanded BOM tree
	bomTreeMaxDepth = 10
	// maxImportFileSize bounds an uploaded part sheet
	maxImportFileSize = 5 << 20
)

// PartHandler handles parts, BOM lines and routings
type PartHandler struct {
	BaseHandler
	partService   *masterapp.PartService
	importService *masterapp.PartImportService
}

// NewPartHandler creates a new PartHandler
func NewPartHandler(partService *masterapp.PartService) *PartHandler {
	return &PartHandler{partService: partService}
}

// SetImportService enables POST /master/parts/import
func (h *PartHandler) SetImportService(s *masterapp.PartImportService) {
	h.importService = s
}

// List returns a page of parts
func (h *PartHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partType": "part_type", "useYn": "use_yn"})
	if !ok {
		return
	}
	p, err := h.partService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// Get returns one part
func (h *PartHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	part, err := h.partService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, part)
}

// Create adds a part
func (h *PartHandler) Create(c *gin.Context) {
	var req masterapp.PartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	part, err := h.partService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, part)
}

// Update replaces a part's fields
func (h *PartHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.PartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	part, err := h.partService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, part)
}

// Delete soft-deletes a part
func (h *PartHandler) Delete(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.partService.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// Routings lists the routing steps of a part in sequence order
func (h *PartHandler) Routings(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	steps, err := h.partService.ListRoutings(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, steps)
}

// BomTree expands the BOM below a part
func (h *PartHandler) BomTree(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	depth, ok := h.QueryInt(c, "depth", 3)
	if !ok {
		return
	}
	if depth < 1 {
		depth = 1
	}
	if depth > bomTreeMaxDepth {
		depth = bomTreeMaxDepth
	}
	tree, err := h.partService.BomTree(c.Request.Context(), h.Actor(c), id, depth)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

// ListBoms returns a page of BOM lines
func (h *PartHandler) ListBoms(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"parentPartId": "parent_part_id",
		"childPartId":  "child_part_id",
		"useYn":        "use_yn",
	})
	if !ok {
		return
	}
	p, err := h.partService.ListBoms(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetBom returns one BOM line
func (h *PartHandler) GetBom(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	bom, err := h.partService.GetBom(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}

// CreateBom adds a BOM line
func (h *PartHandler) CreateBom(c *gin.Context) {
	var req masterapp.BomRequest
	if !h.BindJSON(c, &req) {
		return
	}
	bom, err := h.partService.CreateBom(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bom)
}

// UpdateBom replaces a BOM line
func (h *PartHandler) UpdateBom(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.BomRequest
	if !h.BindJSON(c, &req) {
		return
	}
	bom, err := h.partService.UpdateBom(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}

// DeleteBom soft-deletes a BOM line
func (h *PartHandler) DeleteBom(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.partService.DeleteBom(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// GetRouting returns one routing step
func (h *PartHandler) GetRouting(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	r, err := h.partService.GetRouting(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// CreateRouting adds a routing step
func (h *PartHandler) CreateRouting(c *gin.Context) {
	var req masterapp.RoutingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.partService.CreateRouting(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// UpdateRouting replaces a routing step
func (h *PartHandler) UpdateRouting(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req masterapp.RoutingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.partService.UpdateRouting(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// DeleteRouting soft-deletes a routing step
func (h *PartHandler) DeleteRouting(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.partService.DeleteRouting(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// Import registers parts in bulk from the CSV sent in the "file" form field.
// With dryRun=true the sheet is only validated.
func (h *PartHandler) Import(c *gin.Context) {
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dryRun", "false"))
	if err != nil {
		h.BadRequest(c, "dryRun must be true or false")
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	if header.Size > maxImportFileSize {
		h.BadRequest(c, "file exceeds 5MB")
		return
	}
	f, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	res, err := h.importService.Import(c.Request.Context(), h.Actor(c), f, dryRun)
	switch {
	case err != nil:
		h.HandleError(c, err)
	case res.HasErrors():
		h.Message(c, res, "Import rejected; no part was registered")
	case dryRun:
		h.Success(c, res)
	default:
		h.Created(c, res)
	}
}

// RegisterRoutes registers the part, BOM and routing routes
func (h *PartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	master := router.NewDomainGroup("master", "/master")

	parts := master.Group("parts", "/parts")
	parts.GET("", h.List)
	parts.GET("/:id", h.Get)
	parts.GET("/:id/routings", h.Routings)
	parts.GET("/:id/bom-tree", h.BomTree)
	parts.POST("", h.Create)
	parts.PUT("/:id", h.Update)
	parts.DELETE("/:id", h.Delete)
	if h.importService != nil {
		parts.POST("/import", h.Import)
	}

	boms := master.Group("boms", "/boms")
	boms.GET("", h.ListBoms)
	boms.GET("/:id", h.GetBom)
	boms.POST("", h.CreateBom)
	boms.PUT("/:id", h.UpdateBom)
	boms.DELETE("/:id", h.DeleteBom)

	routings := master.Group("routings", "/routings")
	routings.GET("/:id", h.GetRouting)
	routings.POST("", h.CreateRouting)
	routings.PUT("/:id", h.UpdateRouting)
	routings.DELETE("/:id", h.DeleteRouting)

	master.RegisterRoutes(rg)
}
