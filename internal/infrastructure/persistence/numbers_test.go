package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newNumbersDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func addWorkOrder(t *testing.T, db *gorm.DB, no string) *maintenance.PmWorkOrder {
	t.Helper()
	wo := &maintenance.PmWorkOrder{WorkOrderNo: no, EquipmentID: uuid.New(), ScheduledDate: time.Now()}
	wo.Company, wo.Plant = plantA.Company, plantA.Plant
	require.NoError(t, db.Create(wo).Error)
	return wo
}

func TestPmWorkOrderRepository_LastNumberPastThreeDigits(t *testing.T) {
	db := newNumbersDB(t)
	repo := NewGormPmWorkOrderRepository(db)
	ctx := context.Background()

	last, err := repo.LastNumber(ctx, "PM-20250115-")
	require.NoError(t, err)
	assert.Empty(t, last)

	for seq := 997; seq <= 1001; seq++ {
		addWorkOrder(t, db, fmt.Sprintf("PM-20250115-%03d", seq))
	}
	addWorkOrder(t, db, "PM-20250116-002")

	last, err = repo.LastNumber(ctx, "PM-20250115-")
	require.NoError(t, err)
	assert.Equal(t, "PM-20250115-1001", last)
}

func TestPmWorkOrderRepository_LastNumberCountsDeleted(t *testing.T) {
	db := newNumbersDB(t)
	repo := NewGormPmWorkOrderRepository(db)
	ctx := context.Background()

	addWorkOrder(t, db, "PM-20250115-001")
	wo := addWorkOrder(t, db, "PM-20250115-002")
	require.NoError(t, repo.SoftDelete(ctx, plantA, wo.ID))

	last, err := repo.LastNumber(ctx, "PM-20250115-")
	require.NoError(t, err)
	assert.Equal(t, "PM-20250115-002", last)
}

func TestOqcRequestRepository_LastNumber(t *testing.T) {
	db := newNumbersDB(t)
	repo := NewGormOqcRequestRepository(db)

	for _, no := range []string{"OQC-20250115-999", "OQC-20250115-1000", "OQC-20250115-050"} {
		req := &quality.OqcRequest{RequestNo: no, PartID: uuid.New(), RequestDate: time.Now()}
		req.Company, req.Plant = plantA.Company, plantA.Plant
		require.NoError(t, db.Create(req).Error)
	}

	last, err := repo.LastNumber(context.Background(), plantA, "OQC-20250115-")
	require.NoError(t, err)
	assert.Equal(t, "OQC-20250115-1000", last)
}
