package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func text(s string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, s) }
}

func do(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	lots := NewDomainGroup("lots", "/lots").GET("/:id", text("lot"))
	boxes := NewDomainGroup("boxes", "/boxes").POST("", text("box"))

	api := NewRouter(engine).Register(lots, boxes).Setup()
	assert.Equal(t, "/api/v1", api.BasePath())

	assert.Equal(t, "lot", do(engine, http.MethodGet, "/api/v1/lots/42").Body.String())
	assert.Equal(t, "box", do(engine, http.MethodPost, "/api/v1/boxes").Body.String())
	assert.Equal(t, http.StatusNotFound, do(engine, http.MethodGet, "/lots/42").Code)
}

func TestRouterAPIMiddleware(t *testing.T) {
	engine := gin.New()
	guard := func(c *gin.Context) {
		if c.GetHeader("X-Company") == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
	engine.GET("/health", text("ok"))
	NewRouter(engine, WithAPIMiddleware(guard)).
		Register(NewDomainGroup("parts", "/parts").GET("", text("parts"))).
		Setup()

	assert.Equal(t, http.StatusUnauthorized, do(engine, http.MethodGet, "/api/v1/parts").Code)
	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/health").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts", nil)
	req.Header.Set("X-Company", "40")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "parts", w.Body.String())
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("shipments", "/shipments").
		GET("/:id", text("get")).
		POST("", text("post")).
		PUT("/:id", text("put")).
		PATCH("/:id/cancel", text("patch")).
		DELETE("/:id", text("delete"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/shipments/1", "get"},
		{http.MethodPost, "/api/v1/shipments", "post"},
		{http.MethodPut, "/api/v1/shipments/1", "put"},
		{http.MethodPatch, "/api/v1/shipments/1/cancel", "patch"},
		{http.MethodDelete, "/api/v1/shipments/1", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := do(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroup_SubgroupsAndMiddleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("material", "/material").Use(func(c *gin.Context) {
		c.Header("X-Module", "material")
		c.Next()
	})
	g.Group("lots", "/lots").GET("", text("lots"))
	g.Group("issues", "/issues").GET("/:id", text("issue"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := do(engine, http.MethodGet, "/api/v1/material/lots")
	assert.Equal(t, "lots", w.Body.String())
	assert.Equal(t, "material", w.Header().Get("X-Module"))

	w = do(engine, http.MethodGet, "/api/v1/material/issues/7")
	assert.Equal(t, "issue", w.Body.String())
	assert.Equal(t, "material", w.Header().Get("X-Module"))
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("quality", "/quality")
	g.Group("oqc", "/oqc").GET("", text("")).POST("/:id/execute", text(""))
	g.GET("/summary", text(""))

	routes := g.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, RouteInfo{Group: "quality", Method: http.MethodGet, Path: "/quality/summary"}, routes[0])
	assert.Equal(t, RouteInfo{Group: "oqc", Method: http.MethodGet, Path: "/quality/oqc"}, routes[1])
	assert.Equal(t, RouteInfo{Group: "oqc", Method: http.MethodPost, Path: "/quality/oqc/:id/execute"}, routes[2])

	assert.Equal(t, "quality", g.Name())
	assert.Equal(t, "/quality", g.Prefix())
}
