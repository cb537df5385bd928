package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	r := gin.New()
	r.Use(Tenant(), HTTPMetrics(provider.Meter("test"), nil))
	r.GET("/api/v1/lots/:id", func(c *gin.Context) { c.String(http.StatusOK, "lot") })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lots/1", nil)
	req.Header.Set(HeaderPlant, "1000")
	serve(r, req)
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	metrics := collect(t, reader)

	total, ok := metrics["mes_http_requests_total"]
	require.True(t, ok)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	routes := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attrHTTPRoute)
		routes[route.AsString()] += dp.Value
		if route.AsString() == "/api/v1/lots/:id" {
			plant, found := dp.Attributes.Value(telemetry.AttrPlant)
			assert.True(t, found)
			assert.Equal(t, "1000", plant.AsString())
		}
	}
	assert.Equal(t, int64(1), routes["/api/v1/lots/:id"])
	assert.Equal(t, int64(1), routes["unmatched"])

	assert.Contains(t, metrics, "mes_http_request_duration_seconds")
	assert.Contains(t, metrics, "mes_http_response_size_bytes")

	active, ok := metrics["mes_http_active_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range active.DataPoints {
		assert.Zero(t, dp.Value)
	}
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMetrics(nil, nil))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/test", nil)).Code)
}
