package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies larger than maxBytes. A non-positive limit disables it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			resp := dto.NewErrorResponse(dto.ErrCodeBadRequest, "Request body exceeds maximum allowed size", c.Request.URL.Path)
			resp.StatusCode = http.StatusRequestEntityTooLarge
			resp.RequestID = GetRequestID(c)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
			return
		}

		// streamed bodies without Content-Length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
