package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mes/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultConnectAttempts = 1
	pingTimeout            = 5 * time.Second
)

// Database is the plant's PostgreSQL connection
type Database struct {
	DB    *gorm.DB
	sqlDB *sql.DB
	log   *zap.Logger
}

// Option configures NewDatabase
type Option func(*dbOptions)

type dbOptions struct {
	gormLogger logger.Interface
	log        *zap.Logger
	attempts   int
	retryDelay time.Duration
}

// WithGormLogger routes GORM's statement log through l
func WithGormLogger(l logger.Interface) Option {
	return func(o *dbOptions) { o.gormLogger = l }
}

// WithLogger sets the logger used for connection events
func WithLogger(l *zap.Logger) Option {
	return func(o *dbOptions) { o.log = l }
}

// WithConnectRetry pings up to attempts times, delay apart, before giving up.
// Line PCs and the server often boot together after a plant power cut.
func WithConnectRetry(attempts int, delay time.Duration) Option {
	return func(o *dbOptions) {
		o.attempts = attempts
		o.retryDelay = delay
	}
}

// NewDatabase connects to PostgreSQL and sizes the pool from cfg
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	return openDatabase(ctx, postgres.Open(cfg.DSN()), cfg, opts...)
}

func openDatabase(ctx context.Context, dialector gorm.Dialector, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := dbOptions{
		gormLogger: logger.Default.LogMode(logger.Silent),
		log:        zap.NewNop(),
		attempts:   defaultConnectAttempts,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	d := &Database{DB: db, sqlDB: sqlDB, log: o.log.Named("database")}
	if err := d.waitReady(ctx, o.attempts, o.retryDelay); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) waitReady(ctx context.Context, attempts int, delay time.Duration) error {
	attempts = max(attempts, 1)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = d.Ping(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		d.log.Warn("Database not ready, retrying",
			zap.Int("attempt", i),
			zap.Int("attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to database: %w", ctx.Err())
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}

// Ping checks the connection within a short deadline
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.sqlDB.PingContext(ctx)
}

// Stats returns the connection pool statistics
func (d *Database) Stats() sql.DBStats {
	return d.sqlDB.Stats()
}

// LogPoolStats writes the pool state at debug; waits mean the pool is too small
// for the number of line terminals.
func (d *Database) LogPoolStats() {
	s := d.sqlDB.Stats()
	fields := []zap.Field{
		zap.Int("open", s.OpenConnections),
		zap.Int("in_use", s.InUse),
		zap.Int("idle", s.Idle),
		zap.Int64("wait_count", s.WaitCount),
		zap.Duration("wait_duration", s.WaitDuration),
	}
	if s.WaitCount > 0 {
		d.log.Warn("Database pool had waiters", fields...)
		return
	}
	d.log.Debug("Database pool", fields...)
}

// AutoMigrate creates or updates every MES table
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(Models()...)
}

// Close closes the pool
func (d *Database) Close() error {
	return d.sqlDB.Close()
}
