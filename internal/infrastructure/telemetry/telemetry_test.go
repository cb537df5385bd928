package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/mes/backend/internal/infrastructure/telemetry"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func newMetrics(t *testing.T, source telemetry.BacklogSource) (*telemetry.BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  provider.Meter("test"),
		Logger: zap.NewNop(),
		Source: source,
	})
	require.NoError(t, err)
	return bm, reader
}

// points returns the int64 data points of the named metric keyed by the value of attrKey
func points(t *testing.T, reader *sdkmetric.ManualReader, name string, attrKey attribute.Key) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			var dps []metricdata.DataPoint[int64]
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				dps = data.DataPoints
			case metricdata.Gauge[int64]:
				dps = data.DataPoints
			}
			for _, dp := range dps {
				v, _ := dp.Attributes.Value(attrKey)
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func tenantEntity() shared.TenantEntity {
	return shared.NewTenantEntity(testutil.TestActor())
}

func TestNewBusinessMetrics_RequiresMeter(t *testing.T) {
	_, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestBusinessMetrics_HandleEvents(t *testing.T) {
	bm, reader := newMetrics(t, nil)
	ctx := context.Background()

	assert.ElementsMatch(t, []string{
		production.EventJobOrderCompleted,
		production.EventProdResultCompleted,
		quality.EventDefectRegistered,
		quality.EventOqcInspected,
		quality.EventInspectRecorded,
		shipping.EventShipmentShipped,
		shipping.EventReturnCompleted,
	}, bm.EventTypes())

	job := &production.JobOrder{TenantEntity: tenantEntity(), OrderNo: "JO-1", LineCode: "L1"}
	require.NoError(t, bm.Handle(ctx, production.NewJobOrderCompleted(job)))
	require.NoError(t, bm.Handle(ctx, production.NewJobOrderCompleted(job)))

	result := &production.ProdResult{TenantEntity: tenantEntity(), ProcessCode: "CUT", GoodQty: 95, DefectQty: 5}
	require.NoError(t, bm.Handle(ctx, production.NewProdResultCompleted(result)))

	defect := &quality.DefectLog{TenantEntity: tenantEntity(), DefectCode: "D01", Qty: 3}
	require.NoError(t, bm.Handle(ctx, quality.NewDefectRegistered(defect)))

	oqc := &quality.OqcRequest{TenantEntity: tenantEntity(), RequestNo: "OQC-1", Result: "PASS"}
	require.NoError(t, bm.Handle(ctx, quality.NewOqcInspected(oqc)))

	ship := &shipping.Shipment{TenantEntity: tenantEntity(), ShipNo: "SH-1", TotalQty: 400}
	require.NoError(t, bm.Handle(ctx, shipping.NewShipmentShipped(ship)))

	for _, passYn := range []string{"Y", "Y", "N"} {
		inspect := &quality.InspectResult{TenantEntity: tenantEntity(), InspectType: quality.InspectContinuity, PassYn: passYn}
		require.NoError(t, bm.Handle(ctx, quality.NewInspectRecorded(inspect)))
	}

	ret := &shipping.ShipReturn{TenantEntity: tenantEntity(), ReturnNo: "RT-1", Items: []shipping.ShipReturnItem{
		{ReturnQty: 4, DisposalType: shipping.DisposalRestock},
		{ReturnQty: 1, DisposalType: shipping.DisposalScrap},
		{ReturnQty: 2, DisposalType: shipping.DisposalRestock},
	}}
	require.NoError(t, bm.Handle(ctx, shipping.NewReturnCompleted(ret)))

	assert.Equal(t, map[string]int64{"L1": 2}, points(t, reader, "mes_job_orders_completed_total", telemetry.AttrLineCode))
	assert.Equal(t, map[string]int64{"good": 95, "defect": 5}, points(t, reader, "mes_produced_qty_total", telemetry.AttrQtyKind))
	assert.Equal(t, map[string]int64{"D01": 3}, points(t, reader, "mes_defects_registered_total", telemetry.AttrDefectCode))
	assert.Equal(t, map[string]int64{"PASS": 1}, points(t, reader, "mes_oqc_inspected_total", telemetry.AttrResult))
	assert.Equal(t, map[string]int64{testutil.TestPlant: 400}, points(t, reader, "mes_shipped_qty_total", telemetry.AttrPlant))
	assert.Equal(t, map[string]int64{"PASS": 2, "FAIL": 1}, points(t, reader, "mes_inspections_total", telemetry.AttrResult))
	assert.Equal(t, map[string]int64{"RESTOCK": 6, "SCRAP": 1}, points(t, reader, "mes_returned_qty_total", telemetry.AttrDisposal))
}

func TestBusinessMetrics_CollectBacklog(t *testing.T) {
	repos := testutil.NewRepositories(t)
	ctx := context.Background()
	actor := testutil.TestActor()

	for i, status := range []production.JobOrderStatus{production.JobWaiting, production.JobWaiting, production.JobRunning, production.JobDone} {
		jo, err := production.NewJobOrder(actor, "JO-"+string(rune('A'+i)), uuid.New(), 10, 5)
		require.NoError(t, err)
		jo.Status = status
		require.NoError(t, repos.JobOrders().Create(ctx, jo))
	}
	worn, err := maintenance.NewConsumable(actor, "MOLD-1", "Mold", 100, 80, 90)
	require.NoError(t, err)
	require.NoError(t, repos.Consumables().Create(ctx, worn))
	fresh, err := maintenance.NewConsumable(actor, "MOLD-2", "Mold", 100, 80, 0)
	require.NoError(t, err)
	require.NoError(t, repos.Consumables().Create(ctx, fresh))

	bm, reader := newMetrics(t, telemetry.NewGormBacklogSource(repos.DB()))
	bm.Collect(ctx)

	assert.Equal(t, map[string]int64{"WAITING": 2, "RUNNING": 1}, points(t, reader, "mes_open_job_orders", telemetry.AttrStatus))
	assert.Equal(t, map[string]int64{"WARNING": 1}, points(t, reader, "mes_worn_consumables", telemetry.AttrStatus))
}

type failingSource struct{}

func (failingSource) OpenJobOrders(context.Context) ([]telemetry.BacklogCount, error) {
	return nil, errors.New("db down")
}

func (failingSource) WornConsumables(context.Context) ([]telemetry.BacklogCount, error) {
	return []telemetry.BacklogCount{{Company: "C", Plant: "P", Status: "REPLACE", Count: 4}}, nil
}

func TestBusinessMetrics_CollectSurvivesSourceErrors(t *testing.T) {
	bm, reader := newMetrics(t, failingSource{})
	bm.StartPeriodicCollection(context.Background(), time.Hour)
	defer bm.Stop()

	assert.Eventually(t, func() bool {
		return points(t, reader, "mes_worn_consumables", telemetry.AttrStatus)["REPLACE"] == 4
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, points(t, reader, "mes_open_job_orders", telemetry.AttrStatus))
	bm.Stop()
}

func TestDBTracingPlugin_MarksSlowQueries(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	plugin := telemetry.NewDBTracingPlugin(config.TelemetryConfig{DBSlowQueryThresh: time.Nanosecond}, "mes", zap.NewNop())
	require.NoError(t, plugin.RegisterCallbacks(db))

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	var count int64
	require.NoError(t, db.WithContext(ctx).Model(&production.JobOrder{}).Count(&count).Error)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.Equal(t, "job_orders", attrs["db.sql.table"].AsString())
}

func TestDBTracingPlugin_DisabledIsNoop(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	plugin := telemetry.NewDBTracingPlugin(config.TelemetryConfig{}, "mes", zap.NewNop())
	assert.NoError(t, plugin.Register(db))
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := telemetry.StartServiceSpan(context.Background(), "JobOrderService", "Complete", "order_no", "JO-1", "qty", 10)
	assert.NotEmpty(t, telemetry.TraceID(ctx))
	telemetry.EndSpan(span, shared.InvalidState("already done"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "JobOrderService.Complete", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("order_no", "JO-1"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("qty", 10))
}

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := config.TelemetryConfig{ServiceName: "mes-backend"}
	logger := zap.NewNop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	tp.EnableSpanProfiles()
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, lp.Core("mes", zap.InfoLevel))
	assert.NoError(t, lp.Shutdown(ctx))

	p, err := telemetry.NewProfiler(cfg, logger)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())

	_, err = telemetry.NewProfiler(config.TelemetryConfig{ProfilingEnabled: true}, logger)
	assert.Error(t, err)
}
