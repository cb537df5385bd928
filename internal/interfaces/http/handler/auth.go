package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/mes/backend/internal/application/identity"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/mes/backend/internal/interfaces/http/middleware"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// AuthHandler handles login and the current session
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login checks the user code and password and returns the bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.authService.Login(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Me returns the signed-in user and the menus they may open
func (h *AuthHandler) Me(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	me, err := h.authService.Me(c.Request.Context(), principal.User)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, me)
}

// Logout revokes the current token. In user_id mode there is nothing to revoke.
func (h *AuthHandler) Logout(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	if err := h.authService.Logout(c.Request.Context(), principal); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, nil, "Logged out")
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("auth", "/auth")
	g.POST("/login", h.Login)
	g.GET("/me", h.Me)
	g.POST("/logout", h.Logout)
	g.RegisterRoutes(rg)
}
