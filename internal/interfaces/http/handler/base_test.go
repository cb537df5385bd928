package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_Envelopes(t *testing.T) {
	h := &BaseHandler{}
	engine := newAPI(
		handlerFunc{http.MethodGet, "/ok", func(c *gin.Context) { h.Success(c, gin.H{"lotNo": "L1"}) }},
		handlerFunc{http.MethodPost, "/new", func(c *gin.Context) { h.Created(c, gin.H{"id": 1}) }},
		handlerFunc{http.MethodDelete, "/gone", func(c *gin.Context) { h.Deleted(c) }},
	)

	w := call(t, engine, http.MethodGet, "/api/v1/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	ok := decode[map[string]string](t, w)
	assert.True(t, ok.Success)
	assert.Equal(t, "L1", ok.Data["lotNo"])

	w = call(t, engine, http.MethodPost, "/api/v1/new", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = call(t, engine, http.MethodDelete, "/api/v1/gone", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Deleted", decode[any](t, w).Message)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", shared.NotFound("box", "B1"), http.StatusNotFound, dto.ErrCodeNotFound, "box not found: B1"},
		{"duplicate", shared.Conflict("partCode", "W1"), http.StatusConflict, dto.ErrCodeAlreadyExists, `partCode with value "W1" already exists`},
		{"state", shared.InvalidState("pallet is closed"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, "pallet is closed"},
		{"stock", shared.InsufficientStock("only 3 left"), http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock, "only 3 left"},
		{"connection", errors.New("dial tcp 10.0.0.1:5432: connection refused"), http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, ""},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			engine := newAPI(handlerFunc{http.MethodGet, "/fail", func(c *gin.Context) { h.HandleError(c, tt.err) }})

			w := call(t, engine, http.MethodGet, "/api/v1/fail", nil)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.ErrorCode)
			assert.Equal(t, "/api/v1/fail", resp.Path)
			assert.NotEmpty(t, resp.RequestID)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestBaseHandler_ListFilter(t *testing.T) {
	h := &BaseHandler{}
	engine := newAPI(handlerFunc{http.MethodGet, "/lots", func(c *gin.Context) {
		filter, ok := h.ListFilter(c, map[string]string{"partId": "part_id", "iqcStatus": "iqc_status"})
		if !ok {
			return
		}
		h.Success(c, gin.H{"page": filter.Page, "limit": filter.Limit, "filters": filter.Filters, "search": filter.Search})
	}})

	t.Run("extra columns", func(t *testing.T) {
		partID := uuid.New()
		w := call(t, engine, http.MethodGet, "/api/v1/lots?page=2&limit=5&search=%20W-AVS%20&iqcStatus=PASS&partId="+partID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decode[map[string]any](t, w).Data
		assert.EqualValues(t, 2, data["page"])
		assert.EqualValues(t, 5, data["limit"])
		assert.Equal(t, "W-AVS", data["search"])
		filters := data["filters"].(map[string]any)
		assert.Equal(t, partID.String(), filters["part_id"])
		assert.Equal(t, "PASS", filters["iqc_status"])
	})

	t.Run("blank values are ignored", func(t *testing.T) {
		w := call(t, engine, http.MethodGet, "/api/v1/lots?iqcStatus=%20", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[map[string]any](t, w).Data["filters"])
	})

	t.Run("bad uuid", func(t *testing.T) {
		w := call(t, engine, http.MethodGet, "/api/v1/lots?partId=nope", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.ErrorCode)
		assert.Equal(t, "Invalid partId format", resp.Message)
	})

	t.Run("bad date", func(t *testing.T) {
		w := call(t, engine, http.MethodGet, "/api/v1/lots?fromDate=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).ErrorCode)
	})

	t.Run("limit over max", func(t *testing.T) {
		w := call(t, engine, http.MethodGet, "/api/v1/lots?limit=5000", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBaseHandler_ParamsAndQuery(t *testing.T) {
	h := &BaseHandler{}
	engine := newAPI(
		handlerFunc{http.MethodGet, "/items/:id", func(c *gin.Context) {
			id, ok := h.ID(c)
			if !ok {
				return
			}
			h.Success(c, id)
		}},
		handlerFunc{http.MethodGet, "/pending", func(c *gin.Context) {
			n, ok := h.QueryInt(c, "limit", 50)
			if !ok {
				return
			}
			h.Success(c, n)
		}},
	)

	id := uuid.New()
	w := call(t, engine, http.MethodGet, "/api/v1/items/"+id.String(), nil)
	assert.Equal(t, id.String(), decode[string](t, w).Data)

	w = call(t, engine, http.MethodGet, "/api/v1/items/42", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id format", decodeError(t, w).Message)

	assert.Equal(t, 50, decode[int](t, call(t, engine, http.MethodGet, "/api/v1/pending", nil)).Data)
	assert.Equal(t, 7, decode[int](t, call(t, engine, http.MethodGet, "/api/v1/pending?limit=7", nil)).Data)
	assert.Equal(t, http.StatusBadRequest, call(t, engine, http.MethodGet, "/api/v1/pending?limit=-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(t, engine, http.MethodGet, "/api/v1/pending?limit=abc", nil).Code)
}

func TestBaseHandler_BindOptionalJSON(t *testing.T) {
	h := &BaseHandler{}
	type body struct {
		Remark string `json:"remark" binding:"max=5"`
	}
	engine := newAPI(handlerFunc{http.MethodPatch, "/cancel", func(c *gin.Context) {
		var req body
		if !h.BindOptionalJSON(c, &req) {
			return
		}
		h.Success(c, req.Remark)
	}})

	w := call(t, engine, http.MethodPatch, "/api/v1/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[string](t, w).Data)

	w = call(t, engine, http.MethodPatch, "/api/v1/cancel", body{Remark: "late"})
	assert.Equal(t, "late", decode[string](t, w).Data)

	w = call(t, engine, http.MethodPatch, "/api/v1/cancel", body{Remark: "too long"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).ErrorCode)
}

func TestTransition(t *testing.T) {
	h := &BaseHandler{}
	type state struct {
		Status string `json:"status"`
	}
	closed := uuid.New()
	engine := newAPI(handlerFunc{http.MethodPatch, "/boxes/:id/close", func(c *gin.Context) {
		transition(h, c, func(_ context.Context, actor shared.Actor, id uuid.UUID) (*state, error) {
			if id == closed {
				return nil, shared.InvalidState("box is already closed")
			}
			return &state{Status: "CLOSED:" + actor.Plant}, nil
		})
	}})

	w := call(t, engine, http.MethodPatch, "/api/v1/boxes/"+uuid.NewString()+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CLOSED:P01", decode[state](t, w).Data.Status)

	w = call(t, engine, http.MethodPatch, "/api/v1/boxes/"+closed.String()+"/close", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
