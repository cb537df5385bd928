package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func newTenantRouter(actor *shared.Actor) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(UserIDKey, "u-1")
		c.Next()
	})
	r.Use(Tenant())
	r.GET("/test", func(c *gin.Context) {
		*actor = GetActor(c)
		c.String(http.StatusOK, logger.GetCompany(c.Request.Context())+"/"+logger.GetPlant(c.Request.Context()))
	})
	return r
}

func TestTenant(t *testing.T) {
	t.Run("both headers", func(t *testing.T) {
		var actor shared.Actor
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderCompany, "40")
		req.Header.Set(HeaderPlant, "1000")
		w := serve(newTenantRouter(&actor), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "40/1000", w.Body.String())
		assert.Equal(t, shared.Actor{UserID: "u-1", Company: "40", Plant: "1000"}, actor)
		assert.True(t, actor.HasTenant())
	})

	t.Run("no headers leaves actor unscoped", func(t *testing.T) {
		var actor shared.Actor
		w := serve(newTenantRouter(&actor), httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/", w.Body.String())
		assert.Equal(t, "u-1", actor.UserID)
		assert.False(t, actor.HasTenant())
	})

	t.Run("header values are trimmed", func(t *testing.T) {
		var actor shared.Actor
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderPlant, "  P1 ")
		serve(newTenantRouter(&actor), req)
		assert.Equal(t, "P1", actor.Plant)
	})

	invalid := []struct {
		name   string
		header string
		value  string
	}{
		{"company with spaces", HeaderCompany, "acme corp"},
		{"plant too long", HeaderPlant, "PLANT-CODE-THAT-IS-TOO-LONG"},
		{"plant with quote", HeaderPlant, "P1'--"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			var actor shared.Actor
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(tt.header, tt.value)
			w := serve(newTenantRouter(&actor), req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).ErrorCode)
		})
	}
}
