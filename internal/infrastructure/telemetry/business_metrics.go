package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrMeterNil is returned when BusinessMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

const defaultCollectInterval = 5 * time.Minute

// BacklogCount is the number of open rows of one kind and status in a plant
type BacklogCount struct {
	Company string
	Plant   string
	Status  string
	Count   int64
}

// BacklogSource reports open job orders and worn consumables per plant
type BacklogSource interface {
	OpenJobOrders(ctx context.Context) ([]BacklogCount, error)
	WornConsumables(ctx context.Context) ([]BacklogCount, error)
}

// BusinessMetrics turns shop-floor domain events into OTel counters and
// periodically samples backlog gauges
type BusinessMetrics struct {
	logger *zap.Logger
	source BacklogSource

	jobOrdersCompleted *Counter
	producedQty        *Counter
	defectsRegistered  *Counter
	oqcInspected       *Counter
	inspections        *Counter
	shipmentsShipped   *Counter
	shippedQty         *Counter
	returnedQty        *Counter

	openJobOrders   *Gauge
	wornConsumables *Gauge

	stopChan  chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once
}

// BusinessMetricsConfig holds configuration for business metrics
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
	Source BacklogSource // optional; gauges are not sampled without it
}

// NewBusinessMetrics creates the instruments
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{logger: logger, source: cfg.Source, stopChan: make(chan struct{})}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.jobOrdersCompleted, "mes_job_orders_completed_total", "Job orders completed", "{order}"},
		{&bm.producedQty, "mes_produced_qty_total", "Produced quantity by good/defect", "{piece}"},
		{&bm.defectsRegistered, "mes_defects_registered_total", "Defective pieces registered by defect code", "{piece}"},
		{&bm.oqcInspected, "mes_oqc_inspected_total", "OQC requests judged by result", "{request}"},
		{&bm.shipmentsShipped, "mes_shipments_shipped_total", "Shipments dispatched", "{shipment}"},
		{&bm.shippedQty, "mes_shipped_qty_total", "Pieces shipped", "{piece}"},
		{&bm.inspections, "mes_inspections_total", "In-line inspections by type and result", "{inspection}"},
		{&bm.returnedQty, "mes_returned_qty_total", "Returned pieces disposed of by disposal type", "{piece}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	if bm.openJobOrders, err = NewGauge(cfg.Meter, "mes_open_job_orders", "Job orders not yet done or canceled", "{order}"); err != nil {
		return nil, err
	}
	if bm.wornConsumables, err = NewGauge(cfg.Meter, "mes_worn_consumables", "Consumables at warning or replace level", "{item}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// EventTypes implements shared.EventHandler
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		production.EventJobOrderCompleted,
		production.EventProdResultCompleted,
		quality.EventDefectRegistered,
		quality.EventOqcInspected,
		quality.EventInspectRecorded,
		shipping.EventShipmentShipped,
		shipping.EventReturnCompleted,
	}
}

// Handle implements shared.EventHandler
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := []attribute.KeyValue{AttrCompany.String(event.Company()), AttrPlant.String(event.Plant())}
	with := func(extra ...attribute.KeyValue) []attribute.KeyValue {
		return append(append([]attribute.KeyValue{}, tenant...), extra...)
	}

	switch e := event.(type) {
	case *production.JobOrderCompleted:
		bm.jobOrdersCompleted.Inc(ctx, with(AttrLineCode.String(e.LineCode))...)
	case *production.ProdResultCompleted:
		process := AttrProcessCode.String(e.ProcessCode)
		bm.producedQty.Add(ctx, int64(e.GoodQty), with(process, AttrQtyKind.String("good"))...)
		bm.producedQty.Add(ctx, int64(e.DefectQty), with(process, AttrQtyKind.String("defect"))...)
	case *quality.DefectRegistered:
		bm.defectsRegistered.Add(ctx, int64(e.Qty), with(AttrDefectCode.String(e.DefectCode))...)
	case *quality.OqcInspected:
		bm.oqcInspected.Inc(ctx, with(AttrResult.String(e.Result))...)
	case *quality.InspectRecorded:
		result := "PASS"
		if e.PassYn != shared.Yes {
			result = "FAIL"
		}
		bm.inspections.Inc(ctx, with(AttrInspectType.String(e.InspectType), AttrResult.String(result))...)
	case *shipping.ShipmentShippedEvent:
		bm.shipmentsShipped.Inc(ctx, tenant...)
		bm.shippedQty.Add(ctx, int64(e.TotalQty), tenant...)
	case *shipping.ReturnCompletedEvent:
		for disposal, qty := range e.ByDisposal {
			bm.returnedQty.Add(ctx, int64(qty), with(AttrDisposal.String(disposal))...)
		}
	default:
		bm.logger.Debug("business metrics ignored event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// Collect samples the backlog gauges once
func (bm *BusinessMetrics) Collect(ctx context.Context) {
	if bm.source == nil {
		return
	}
	if rows, err := bm.source.OpenJobOrders(ctx); err != nil {
		bm.logger.Warn("failed to collect open job orders", zap.Error(err))
	} else {
		bm.record(ctx, bm.openJobOrders, rows)
	}
	if rows, err := bm.source.WornConsumables(ctx); err != nil {
		bm.logger.Warn("failed to collect worn consumables", zap.Error(err))
	} else {
		bm.record(ctx, bm.wornConsumables, rows)
	}
}

func (bm *BusinessMetrics) record(ctx context.Context, g *Gauge, rows []BacklogCount) {
	for _, r := range rows {
		g.Record(ctx, r.Count,
			AttrCompany.String(r.Company),
			AttrPlant.String(r.Plant),
			AttrStatus.String(r.Status))
	}
}

// StartPeriodicCollection samples the gauges every interval until ctx ends or Stop is called
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if bm.source == nil {
		return
	}
	if interval <= 0 {
		interval = defaultCollectInterval
	}
	bm.startOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			bm.Collect(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-bm.stopChan:
					return
				case <-ticker.C:
					bm.Collect(ctx)
				}
			}
		}()
	})
}

// Stop ends periodic collection
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() { close(bm.stopChan) })
}

// GormBacklogSource reads backlog counts straight from the MES tables
type GormBacklogSource struct {
	db *gorm.DB
}

// NewGormBacklogSource creates a BacklogSource over db
func NewGormBacklogSource(db *gorm.DB) *GormBacklogSource {
	return &GormBacklogSource{db: db}
}

// OpenJobOrders counts WAITING, RUNNING and PAUSED job orders
func (s *GormBacklogSource) OpenJobOrders(ctx context.Context) ([]BacklogCount, error) {
	return s.count(ctx, &production.JobOrder{}, []string{
		string(production.JobWaiting), string(production.JobRunning), string(production.JobPaused),
	})
}

// WornConsumables counts consumables past their warning threshold
func (s *GormBacklogSource) WornConsumables(ctx context.Context) ([]BacklogCount, error) {
	return s.count(ctx, &maintenance.Consumable{}, []string{
		string(maintenance.ConsumableWarning), string(maintenance.ConsumableReplace),
	})
}

func (s *GormBacklogSource) count(ctx context.Context, model any, statuses []string) ([]BacklogCount, error) {
	var rows []BacklogCount
	err := s.db.WithContext(ctx).Model(model).
		Select("company, plant, status, COUNT(*) AS count").
		Where("status IN ?", statuses).
		Group("company, plant, status").
		Order("company, plant, status").
		Scan(&rows).Error
	return rows, err
}
