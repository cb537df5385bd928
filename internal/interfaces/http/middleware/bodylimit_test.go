package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newBodyLimitRouter(limit int64) *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(limit))
	r.POST("/upload", func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "%d", len(data))
	})
	return r
}

func TestBodyLimit(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		w := serve(newBodyLimitRouter(16), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123456789")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Body.String())
	})

	t.Run("declared length too large", func(t *testing.T) {
		w := serve(newBodyLimitRouter(4), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123456789")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("streamed body too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", io.NopCloser(strings.NewReader("0123456789")))
		req.ContentLength = -1
		w := serve(newBodyLimitRouter(4), req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		w := serve(newBodyLimitRouter(0), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 1024))))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
