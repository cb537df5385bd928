// Package handler holds the gin handlers of the MES REST API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/mes/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Message sends a 200 response with a message
func (h *BaseHandler) Message(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(data, message))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Deleted confirms a delete
func (h *BaseHandler) Deleted(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(nil, "Deleted"))
}

// writePage sends one page of a list with its meta
func writePage[T any](c *gin.Context, p shared.Page[T]) {
	c.JSON(http.StatusOK, dto.NewListResponse(p))
}

// Error sends an error envelope for code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	middleware.AbortWithError(c, code, message)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// HandleError maps err to the error envelope. Errors that are not domain
// errors are logged.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	classified := dto.ClassifyError(err)
	if !classified.Known {
		logger.L(c.Request.Context()).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	h.Error(c, classified.Code, classified.Message)
}

// BindJSON binds the request body; on failure the response is written and false returned
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleBindError(c, err)
		return false
	}
	return true
}

// BindOptionalJSON binds the body when one was sent
func (h *BaseHandler) BindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, req)
}

// BindQuery binds query parameters
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleBindError(c, err)
		return false
	}
	return true
}

// ParamID parses a uuid path parameter
func (h *BaseHandler) ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, dto.ErrCodeInvalidInput, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// ID parses the :id path parameter
func (h *BaseHandler) ID(c *gin.Context) (uuid.UUID, bool) {
	return h.ParamID(c, "id")
}

// ListFilter reads the common list query. columns maps extra query
// parameters to equality conditions on table columns.
func (h *BaseHandler) ListFilter(c *gin.Context, columns map[string]string) (shared.Filter, bool) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return shared.Filter{}, false
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return shared.Filter{}, false
	}
	for param, column := range columns {
		v := strings.TrimSpace(c.Query(param))
		if v == "" {
			continue
		}
		if strings.HasSuffix(column, "_id") {
			id, err := uuid.Parse(v)
			if err != nil {
				h.Error(c, dto.ErrCodeInvalidInput, "Invalid "+param+" format")
				return shared.Filter{}, false
			}
			filter = filter.With(column, id)
			continue
		}
		filter = filter.With(column, v)
	}
	return filter, true
}

// QueryInt reads an optional integer query parameter
func (h *BaseHandler) QueryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		h.Error(c, dto.ErrCodeInvalidInput, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

// Actor returns the caller and tenant of the request
func (h *BaseHandler) Actor(c *gin.Context) shared.Actor {
	return middleware.GetActor(c)
}

// transition runs a body-less state change on the :id resource and returns the result
func transition[T any](h *BaseHandler, c *gin.Context, fn func(context.Context, shared.Actor, uuid.UUID) (*T, error)) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	out, err := fn(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
