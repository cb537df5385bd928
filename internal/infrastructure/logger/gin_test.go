package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func findHTTPLog(t *testing.T, logs []observer.LoggedEntry) observer.LoggedEntry {
	t.Helper()
	for _, l := range logs {
		if l.Message == "HTTP request" {
			return l
		}
	}
	require.FailNow(t, "HTTP request log should exist")
	return observer.LoggedEntry{}
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusConflict, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)

			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			router.GET("/api/v1/boxes", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/boxes?page=2", nil)
			router.ServeHTTP(w, req)

			entry := findHTTPLog(t, recorded.All())
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, "page=2", entry.ContextMap()["query"])
		})
	}
}

func TestGinMiddleware_LogsTenantAndRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-123")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.Use(func(c *gin.Context) {
		ctx := WithTenant(c.Request.Context(), "HANES", "P01")
		c.Request = c.Request.WithContext(WithUserID(ctx, "admin"))
		c.Next()
	})

	var ctxRequestID string
	router.POST("/api/v1/job-orders", func(c *gin.Context) {
		ctxRequestID = GetRequestID(c.Request.Context())
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/job-orders", nil))

	fields := findHTTPLog(t, recorded.All()).ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "HANES", fields["company"])
	assert.Equal(t, "P01", fields["plant"])
	assert.Equal(t, "admin", fields["user_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "req-123", ctxRequestID)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"errorCode":"ERR_INTERNAL"`)
	require.NotEmpty(t, recorded.All())
	assert.Equal(t, "Panic recovered", recorded.All()[0].Message)
}

func TestRecovery_EchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-9")
		c.Next()
	})
	router.Use(Recovery(zap.NewNop()))
	router.GET("/panic", func(c *gin.Context) { panic("label printer gone") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Contains(t, w.Body.String(), `"requestId":"req-9"`)
}

func TestGinMiddleware_QuietAndSlow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		opts    []AccessOption
		path    string
		status  int
		sleep   time.Duration
		message string
		level   zapcore.Level
	}{
		{name: "quiet path", opts: []AccessOption{WithQuietPaths("/health")}, path: "/health", status: http.StatusOK, message: "HTTP request", level: zapcore.DebugLevel},
		{name: "quiet path still warns on failure", opts: []AccessOption{WithQuietPaths("/health")}, path: "/health", status: http.StatusServiceUnavailable, message: "HTTP request", level: zapcore.ErrorLevel},
		{name: "slow request", opts: []AccessOption{WithSlowRequest(time.Millisecond)}, path: "/api/v1/labels", status: http.StatusOK, sleep: 5 * time.Millisecond, message: "Slow HTTP request", level: zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(GinMiddleware(zap.New(core), tt.opts...))
			router.GET(tt.path, func(c *gin.Context) {
				time.Sleep(tt.sleep)
				c.Status(tt.status)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.message, logs[0].Message)
			assert.Equal(t, tt.level, logs[0].Level)
		})
	}
}

func TestGinMiddleware_RecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/api/v1/lots/:lotNo", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/lots/M250101000001", nil))

	fields := findHTTPLog(t, recorded.All()).ContextMap()
	assert.Equal(t, "/api/v1/lots/:lotNo", fields["route"])
	assert.Equal(t, "/api/v1/lots/M250101000001", fields["path"])
}
