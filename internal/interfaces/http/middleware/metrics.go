package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTP metric attribute keys
var (
	attrHTTPMethod = attribute.Key("http.request.method")
	attrHTTPRoute  = attribute.Key("http.route")
	attrHTTPStatus = attribute.Key("http.response.status_code")
)

var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"mes_http_requests_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	requestDuration, err := telemetry.NewHistogram(meter,
		"mes_http_request_duration_seconds", "HTTP request latency in seconds", "s", httpDurationBuckets...)
	if err != nil {
		return nil, err
	}
	responseSize, err := telemetry.NewHistogram(meter,
		"mes_http_response_size_bytes", "HTTP response body size in bytes", "By",
		100, 1000, 10000, 100000, 1000000, 5000000)
	if err != nil {
		return nil, err
	}
	activeRequests, err := meter.Int64UpDownCounter("mes_http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics records request count, latency and response size per route.
// A nil meter, or one that cannot create the instruments, disables it.
func HTTPMetrics(meter metric.Meter, logger *zap.Logger) gin.HandlerFunc {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if logger != nil {
			logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.activeRequests.Add(ctx, 1)

		c.Next()

		m.activeRequests.Add(ctx, -1)
		m.record(ctx, c, time.Since(start))
	}
}

func (m *httpMetrics) record(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	base := []attribute.KeyValue{
		attrHTTPMethod.String(c.Request.Method),
		attrHTTPRoute.String(route),
	}

	attrs := append([]attribute.KeyValue{attrHTTPStatus.Int(c.Writer.Status())}, base...)
	if plant := c.GetString(PlantKey); plant != "" {
		attrs = append(attrs, telemetry.AttrPlant.String(plant))
	}
	m.requestTotal.Inc(ctx, attrs...)
	m.requestDuration.Record(ctx, elapsed.Seconds(), base...)
	if size := c.Writer.Size(); size > 0 {
		m.responseSize.Record(ctx, float64(size), base...)
	}
}
