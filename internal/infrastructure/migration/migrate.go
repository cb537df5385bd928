package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VersionTable records the applied SQL migration. GORM's auto-migrate owns
// the tables; these migrations add the UID functions and rule seeds on top.
const VersionTable = "mes_schema_migrations"

const lockTimeout = 30 * time.Second

// ErrDirty is returned by Up when a previous run failed half way
var ErrDirty = errors.New("schema is dirty; fix the failed migration and force its version")

// Migrator applies the SQL migrations with golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a Migrator reading migrations from source (usually migrations.FS)
func New(db *sql.DB, source fs.FS, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := newDriver(db)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newMigrator(m, logger), nil
}

// NewFromPath creates a Migrator reading migrations from a directory on disk
func NewFromPath(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := newDriver(db)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newMigrator(m, logger), nil
}

func newDriver(db *sql.DB) (database.Driver, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: VersionTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	return driver, nil
}

func newMigrator(m *migrate.Migrate, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("migrate")
	m.Log = migrateLogger{logger}
	m.LockTimeout = lockTimeout
	return &Migrator{migrate: m, logger: logger}
}

// Up runs all pending migrations. A dirty schema is refused.
func (m *Migrator) Up() error {
	if _, dirty, err := m.Version(); err != nil {
		return err
	} else if dirty {
		return ErrDirty
	}
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	m.logVersion("Migrations applied")
	return nil
}

// Down rolls back every migration
func (m *Migrator) Down() error {
	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("No migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	m.logger.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	err := m.migrate.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	m.logVersion("Migration steps applied")
	return nil
}

// Version returns the current migration version; 0 when none was applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, to recover a dirty state
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

func (m *Migrator) logVersion(msg string) {
	version, dirty, err := m.Version()
	if err != nil {
		m.logger.Warn(msg, zap.Error(err))
		return
	}
	m.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
}

// migrateLogger adapts zap to migrate.Logger
type migrateLogger struct {
	l *zap.Logger
}

func (ml migrateLogger) Printf(format string, v ...any) {
	ml.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml migrateLogger) Verbose() bool {
	return ml.l.Core().Enabled(zap.DebugLevel)
}

// SeedRules inserts the default numbering rules of a plant and returns how
// many were added. Rules the plant already has are left alone.
func SeedRules(ctx context.Context, db *gorm.DB, company, plant string) (int, error) {
	if strings.TrimSpace(company) == "" || strings.TrimSpace(plant) == "" {
		return 0, errors.New("seed numbering rules: company and plant are required")
	}
	var inserted int
	err := db.WithContext(ctx).Raw("SELECT f_seed_num_rules(?, ?)", company, plant).Scan(&inserted).Error
	if err != nil {
		return 0, fmt.Errorf("seed numbering rules: %w", err)
	}
	return inserted, nil
}
