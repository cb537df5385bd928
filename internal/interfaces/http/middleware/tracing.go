package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request with otelgin
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "mes-backend"
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher adds caller attributes to the request span once auth and
// tenant middleware have run, and marks error responses.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if company := c.GetString(CompanyKey); company != "" {
		span.SetAttributes(attribute.String("mes.company", company))
	}
	if plant := c.GetString(PlantKey); plant != "" {
		span.SetAttributes(attribute.String("mes.plant", plant))
	}
	if userID := GetUserID(c); userID != "" {
		span.SetAttributes(attribute.String("user_id", userID))
	}
}
