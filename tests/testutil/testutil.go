// Package testutil holds the fixtures shared by the MES test suites: the test
// tenant, a migrated in-memory database and an event recorder.
package testutil

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Tenant used by tests
const (
	TestCompany = "HANES"
	TestPlant   = "P01"
	TestUser    = "tester"
)

// TestActor returns the actor used by tests
func TestActor() shared.Actor {
	return shared.Actor{UserID: TestUser, Company: TestCompany, Plant: TestPlant}
}

// ActorIn returns the test user working in another plant of the test company
func ActorIn(plant string) shared.Actor {
	a := TestActor()
	a.Plant = plant
	return a
}

// NewSQLiteDB opens an in-memory SQLite database with every MES table migrated.
// A single connection is used so the database survives across queries.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open SQLite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(persistence.Models()...), "Failed to migrate")
	return db
}

// NewRepositories returns repositories over a fresh SQLite database
func NewRepositories(t *testing.T) *persistence.Repositories {
	t.Helper()
	return persistence.NewRepositories(NewSQLiteDB(t))
}

// CreatePart registers a part of the actor's plant
func CreatePart(t *testing.T, repos *persistence.Repositories, actor shared.Actor, code, name string, partType master.PartType) *master.Part {
	t.Helper()
	p, err := master.NewPart(actor, code, name, partType)
	require.NoError(t, err)
	require.NoError(t, repos.Parts().Create(context.Background(), p))
	return p
}

// NewTestUUID returns a UUID derived from seed, stable across runs
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// NewRandomUUID returns a random UUID
func NewRandomUUID() uuid.UUID {
	return uuid.New()
}
