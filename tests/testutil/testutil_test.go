package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestActor(t *testing.T) {
	actor := TestActor()
	assert.Equal(t, TestCompany, actor.Company)
	assert.Equal(t, TestPlant, actor.Plant)
	assert.True(t, actor.HasTenant())

	other := ActorIn("P02")
	assert.Equal(t, TestCompany, other.Company)
	assert.Equal(t, "P02", other.Plant)
	assert.Equal(t, TestUser, other.UserID)
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	assert.True(t, db.Migrator().HasTable("num_rules"))
	assert.True(t, db.Migrator().HasTable("pm_work_orders"))
	assert.True(t, db.Migrator().HasTable("boxes"))
}

func TestCreatePart(t *testing.T) {
	repos := NewRepositories(t)
	p := CreatePart(t, repos, TestActor(), "W-001", "AVS 0.5", master.PartTypeRaw)
	assert.NotEqual(t, uuid.Nil, p.ID)

	got, err := repos.Parts().FindByID(context.Background(), TestActor(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "W-001", got.PartCode)

	_, err = repos.Parts().FindByID(context.Background(), ActorIn("P02"), p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("lot-1"), NewTestUUID("lot-1"))
	assert.NotEqual(t, NewTestUUID("lot-1"), NewTestUUID("lot-2"))
	assert.NotEqual(t, NewRandomUUID(), NewRandomUUID())
}
