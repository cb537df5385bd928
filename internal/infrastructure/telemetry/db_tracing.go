package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThresh = 200 * time.Millisecond

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

type registerFunc func(name string, fn func(*gorm.DB)) error

// DBTracingPlugin adds otelgorm spans plus slow-query marking to a gorm.DB
type DBTracingPlugin struct {
	enabled    bool
	fullSQL    bool
	slowThresh time.Duration
	dbName     string
	logger     *zap.Logger
}

// NewDBTracingPlugin builds the plugin from telemetry settings
func NewDBTracingPlugin(cfg config.TelemetryConfig, dbName string, logger *zap.Logger) *DBTracingPlugin {
	thresh := cfg.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = defaultSlowQueryThresh
	}
	return &DBTracingPlugin{
		enabled:    cfg.DBTraceEnabled,
		fullSQL:    cfg.DBLogFullSQL,
		slowThresh: thresh,
		dbName:     dbName,
		logger:     logger,
	}
}

// Register installs otelgorm and the timing callbacks on db
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(p.dbName)}
	if !p.fullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.RegisterCallbacks(db); err != nil {
		return err
	}
	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.fullSQL),
		zap.Duration("slow_query_threshold", p.slowThresh))
	return nil
}

// RegisterCallbacks installs only the timing callbacks
func (p *DBTracingPlugin) RegisterCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op            string
		before, after registerFunc
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("otel_timing:before_"+h.op, markStart); err != nil {
			return err
		}
		if err := h.after("otel_slow_query:"+h.op, p.afterQuery); err != nil {
			return err
		}
	}
	return nil
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	slow := elapsed > p.slowThresh
	if slow {
		p.logger.Warn("slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", db.Statement.RowsAffected))
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("threshold_ms", p.slowThresh.Milliseconds()),
		))
	}
}
