//go:build integration

// Package integration runs the persistence layer against a real PostgreSQL
// started with testcontainers. Row locks, the UID sequence functions and the
// numbering seed only exist there.
package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mes/backend/internal/domain/shared"
	mlog "github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/infrastructure/migration"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// plant holds the one container of the package. Tests share it and keep to
// their own company code, so nothing is truncated between them.
var plant struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

// TestDB is a connection to the migrated plant database
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewSharedTestDB connects to the package's database, starting and migrating
// it on first use
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	plant.once.Do(func() {
		plant.container, plant.dsn, plant.err = startPlantDB(context.Background())
	})
	require.NoError(t, plant.err, "Failed to start PostgreSQL")

	db := connect(t, plant.dsn)
	return &TestDB{DB: db, t: t}
}

// Repositories returns the repositories over the test database
func (tdb *TestDB) Repositories() *persistence.Repositories {
	return persistence.NewRepositories(tdb.DB)
}

// SeedRules inserts the default numbering rules of the actor's plant
func (tdb *TestDB) SeedRules(actor shared.Actor) int {
	tdb.t.Helper()
	n, err := migration.SeedRules(context.Background(), tdb.DB, actor.Company, actor.Plant)
	require.NoError(tdb.t, err)
	return n
}

func startPlantDB(ctx context.Context) (*tcpostgres.PostgresContainer, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("mes_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("mes"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", err
	}
	return container, dsn, migrateSchema(dsn)
}

// migrateSchema builds the tables with GORM and then applies the SQL
// migrations, the order cmd/server and cmd/migrate use. Closing the migrator
// closes its connection, so it is opened here and not shared.
func migrateSchema(dsn string) error {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(persistence.Models()...); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// connect opens a pool closed with the test. TEST_DB_DEBUG=1 logs every
// statement through the test log.
func connect(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	var gl gormlogger.Interface = gormlogger.Discard
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gl = mlog.NewGormLogger(zaptest.NewLogger(t), gormlogger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gl, SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// stopPlantDB terminates the shared container
func stopPlantDB() {
	if plant.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = plant.container.Terminate(ctx)
}
