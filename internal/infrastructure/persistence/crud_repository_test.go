package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	plantA = shared.Actor{UserID: "op01", Company: "HANES", Plant: "P01"}
	plantB = shared.Actor{UserID: "op02", Company: "HANES", Plant: "P02"}
)

func newPartRepo(t *testing.T) *GormPartRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&master.Part{}))
	return NewGormPartRepository(db)
}

func addPart(t *testing.T, repo *GormPartRepository, actor shared.Actor, code, name string, partType master.PartType) *master.Part {
	t.Helper()
	p, err := master.NewPart(actor, code, name, partType)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func codes(parts []master.Part) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.PartCode
	}
	return out
}

func TestGormCrudRepository_List(t *testing.T) {
	repo := newPartRepo(t)
	ctx := context.Background()
	addPart(t, repo, plantA, "W-002", "AVS 0.5 RED", master.PartTypeRaw)
	addPart(t, repo, plantA, "W-001", "AVS 0.5 BLK", master.PartTypeRaw)
	addPart(t, repo, plantA, "H-100", "Door harness", master.PartTypeFG)
	addPart(t, repo, plantB, "W-003", "AVS 0.5 WHT", master.PartTypeRaw)

	t.Run("default order and tenant", func(t *testing.T) {
		items, total, err := repo.List(ctx, plantA, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"H-100", "W-001", "W-002"}, codes(items))
	})

	t.Run("json sort field", func(t *testing.T) {
		f := shared.DefaultFilter()
		f.OrderBy, f.OrderDir = "partCode", "desc"
		items, _, err := repo.List(ctx, plantA, f)
		require.NoError(t, err)
		assert.Equal(t, []string{"W-002", "W-001", "H-100"}, codes(items))
	})

	t.Run("unknown sort field keeps default", func(t *testing.T) {
		f := shared.DefaultFilter()
		f.OrderBy = "remark"
		items, _, err := repo.List(ctx, plantA, f)
		require.NoError(t, err)
		assert.Equal(t, []string{"H-100", "W-001", "W-002"}, codes(items))
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		f := shared.DefaultFilter()
		f.Search = "avs"
		items, total, err := repo.List(ctx, plantA, f)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"W-001", "W-002"}, codes(items))
	})

	t.Run("equality filter and paging", func(t *testing.T) {
		f := shared.DefaultFilter()
		f.Filters["part_type"] = master.PartTypeRaw
		f.Limit = 1
		f.Page = 2
		items, total, err := repo.List(ctx, plantA, f)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total, "total ignores paging")
		assert.Equal(t, []string{"W-002"}, codes(items))
	})
}

func TestGormCrudRepository_FindAndExists(t *testing.T) {
	repo := newPartRepo(t)
	ctx := context.Background()
	p := addPart(t, repo, plantA, "W-001", "AVS 0.5 BLK", master.PartTypeRaw)

	got, err := repo.FindOne(ctx, plantA, shared.Conds{"part_code": "W-001"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = repo.FindByID(ctx, plantB, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByID(ctx, plantA, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exists, err := repo.Exists(ctx, plantA, shared.Conds{"part_code": "W-001"}, nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, plantA, shared.Conds{"part_code": "W-001"}, &p.ID)
	require.NoError(t, err)
	assert.False(t, exists, "the row being updated does not clash with itself")

	exists, err = repo.Exists(ctx, plantB, shared.Conds{"part_code": "W-001"}, nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormCrudRepository_SoftDelete(t *testing.T) {
	repo := newPartRepo(t)
	ctx := context.Background()
	p := addPart(t, repo, plantA, "W-001", "AVS 0.5 BLK", master.PartTypeRaw)

	assert.ErrorIs(t, repo.SoftDelete(ctx, plantB, p.ID), shared.ErrNotFound)

	require.NoError(t, repo.SoftDelete(ctx, plantA, p.ID))
	_, err := repo.FindByID(ctx, plantA, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var raw master.Part
	require.NoError(t, repo.Conn(ctx).Unscoped().Where("id = ?", p.ID).First(&raw).Error)
	assert.True(t, raw.DeletedAt.Valid)
	assert.Equal(t, "op01", raw.UpdatedBy)

	assert.ErrorIs(t, repo.SoftDelete(ctx, plantA, p.ID), shared.ErrNotFound, "already deleted")
}
