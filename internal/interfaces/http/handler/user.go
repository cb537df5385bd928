package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/mes/backend/internal/application/identity"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// TokenRevoker invalidates the tokens already issued to a user
type TokenRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

// UserHandler handles user administration
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
	revoker     TokenRevoker
}

// NewUserHandler creates a new UserHandler. revoker may be nil.
func NewUserHandler(userService *identityapp.UserService, revoker TokenRevoker) *UserHandler {
	return &UserHandler{userService: userService, revoker: revoker}
}

var userListColumns = map[string]string{
	"roleCode": "role_code",
	"lineCode": "line_code",
	"useYn":    "use_yn",
}

// List returns a page of users
func (h *UserHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, userListColumns)
	if !ok {
		return
	}
	users, total, err := h.userService.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, shared.NewPage(users, total, filter))
}

// Get returns one user
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Create adds a user
func (h *UserHandler) Create(c *gin.Context) {
	var req identityapp.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Update changes a user. Deactivating a user or changing the password
// revokes the tokens already issued.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req identityapp.UpdateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Password != nil || (req.UseYn != nil && *req.UseYn == shared.No) {
		h.revoke(c, id)
	}
	h.Success(c, user)
}

// Delete soft-deletes a user
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.revoke(c, id)
	h.Deleted(c)
}

func (h *UserHandler) revoke(c *gin.Context, id uuid.UUID) {
	if h.revoker == nil {
		return
	}
	if err := h.revoker.RevokeUser(c.Request.Context(), id); err != nil {
		logger.L(c.Request.Context()).Warn("Failed to revoke user tokens",
			zap.String("target_user_id", id.String()), zap.Error(err))
	}
}

// RegisterRoutes registers the user routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("users", "/users")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.RegisterRoutes(rg)
}
