package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/mes/backend/internal/interfaces/http/middleware"
	"github.com/mes/backend/internal/interfaces/http/router"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

type envelope[T any] struct {
	Success bool             `json:"success"`
	Data    T                `json:"data"`
	Message string           `json:"message"`
	Meta    *shared.PageMeta `json:"meta"`
}

// newAPI mounts registrars under /api/v1 behind request id and tenant middleware
func newAPI(registrars ...router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine, router.WithAPIMiddleware(middleware.Tenant())).
		Register(registrars...).
		Setup()
	return engine
}

// call sends a request as the test tenant; body is JSON encoded when not nil
func call(t *testing.T, engine *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderCompany, testutil.TestCompany)
	req.Header.Set(middleware.HeaderPlant, testutil.TestPlant)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// handlerFunc adapts a bare gin handler to a RouteRegistrar for tests
type handlerFunc struct {
	method string
	path   string
	fn     gin.HandlerFunc
}

func (h handlerFunc) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Handle(h.method, h.path, h.fn)
}

