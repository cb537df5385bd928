//go:build integration

package integration

import (
	"context"
	"strings"
	"testing"

	masterapp "github.com/mes/backend/internal/application/master"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIsolation_Parts(t *testing.T) {
	tdb := NewSharedTestDB(t)
	repos := tdb.Repositories()
	ctx := context.Background()
	plantA := shared.Actor{UserID: "it", Company: "ISO", Plant: "A"}
	plantB := shared.Actor{UserID: "it", Company: "ISO", Plant: "B"}

	// The same code may exist once per plant
	a, err := master.NewPart(plantA, "W-001", "Wire A", master.PartTypeRaw)
	require.NoError(t, err)
	require.NoError(t, repos.Parts().Create(ctx, a))
	b, err := master.NewPart(plantB, "W-001", "Wire B", master.PartTypeRaw)
	require.NoError(t, err)
	require.NoError(t, repos.Parts().Create(ctx, b))

	items, total, err := repos.Parts().List(ctx, plantA, shared.Filter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Wire A", items[0].PartName)

	_, err = repos.Parts().FindByID(ctx, plantA, b.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repos.Parts().SoftDelete(ctx, plantB, b.ID))
	exists, err := repos.Parts().Exists(ctx, plantA, shared.Conds{"part_code": "W-001"}, nil)
	require.NoError(t, err)
	assert.True(t, exists)
}

// Imported parts land in one transaction on PostgreSQL
func TestPartImport_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	repos := tdb.Repositories()
	tx := persistence.NewTransactionScope(tdb.DB, func(r *persistence.Repositories) masterapp.PartImportRepositories { return r })
	svc := masterapp.NewPartImportService(repos.Parts(), tx)
	actor := shared.Actor{UserID: "it", Company: "IMP", Plant: "P01"}

	sheet := "partCode,partName,partType,safetyStock\n" +
		"W-100,AVS 0.5 RED,RAW,10\n" +
		"H-200,Door harness,FG,\n"
	res, err := svc.Import(context.Background(), actor, strings.NewReader(sheet), false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	_, total, err := repos.Parts().List(context.Background(), actor, shared.Filter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
