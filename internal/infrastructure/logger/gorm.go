package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultMaxSQLLength caps the statement text put on a log line. A part sheet
// import batches thousands of rows into one INSERT.
const DefaultMaxSQLLength = 2048

// GormLogger writes GORM statements through zap. Lines carry the request id,
// tenant, user and trace of the statement's context.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	maxSQLLength  int
	logNotFound   bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is logged as slow
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithMaxSQLLength truncates logged statements to n bytes; 0 keeps them whole
func WithMaxSQLLength(n int) GormLoggerOption {
	return func(l *GormLogger) {
		l.maxSQLLength = n
	}
}

// WithNotFoundErrors logs lookups that found no row. They are the normal
// outcome of most existence checks, so they are dropped by default.
func WithNotFoundErrors() GormLoggerOption {
	return func(l *GormLogger) {
		l.logNotFound = true
	}
}

// NewGormLogger creates a GORM logger named "gorm" under zapLogger
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
		maxSQLLength:  DefaultMaxSQLLength,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.ctxLogger(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.ctxLogger(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.ctxLogger(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace implements gormlogger.Interface. Failed statements log at error,
// slow ones at warn and the rest at debug when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.logNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.ctxLogger(ctx).Error("SQL failed", append(l.statementFields(fc, elapsed), zap.Error(err))...)
	case slow && l.level >= gormlogger.Warn:
		l.ctxLogger(ctx).Warn("Slow SQL", append(l.statementFields(fc, elapsed), zap.Duration("threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		l.ctxLogger(ctx).Debug("SQL", l.statementFields(fc, elapsed)...)
	}
}

func (l *GormLogger) ctxLogger(ctx context.Context) *ContextLogger {
	if ctx == nil {
		ctx = context.Background()
	}
	return WithLogger(ctx, l.logger)
}

func (l *GormLogger) statementFields(fc func() (string, int64), elapsed time.Duration) []zap.Field {
	sql, rows := fc()
	if l.maxSQLLength > 0 && len(sql) > l.maxSQLLength {
		sql = fmt.Sprintf("%s... (%d bytes)", sql[:l.maxSQLLength], len(sql))
	}
	return []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
}

// MapGormLogLevel maps a log level name to the GORM level. debug and info
// both log every statement.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
