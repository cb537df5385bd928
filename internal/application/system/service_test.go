package system_test

import (
	"context"
	"testing"

	appsys "github.com/mes/backend/internal/application/system"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfigService(t *testing.T) *appsys.ConfigService {
	t.Helper()
	repos := testutil.NewRepositories(t)
	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) appsys.Repositories { return r })
	return appsys.NewConfigService(repos.SysConfigs(), tx)
}

func seed(t *testing.T, svc *appsys.ConfigService, group, key, value, active string, order int) {
	t.Helper()
	_, err := svc.Create(context.Background(), testutil.TestActor(), appsys.CreateConfigRequest{
		ConfigGroup: group, ConfigKey: key, ConfigValue: value, IsActive: active, SortOrder: order,
	})
	require.NoError(t, err)
}

func TestConfigService_Create(t *testing.T) {
	svc := newConfigService(t)
	ctx := context.Background()
	seed(t, svc, "MATERIAL", "IQC_REQUIRED", "Y", "", 1)

	_, err := svc.Create(ctx, testutil.TestActor(), appsys.CreateConfigRequest{ConfigGroup: "MATERIAL", ConfigKey: "IQC_REQUIRED"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// same key in another group is allowed
	_, err = svc.Create(ctx, testutil.TestActor(), appsys.CreateConfigRequest{ConfigGroup: "LABEL", ConfigKey: "IQC_REQUIRED"})
	assert.NoError(t, err)
}

func TestConfigService_Reads(t *testing.T) {
	svc := newConfigService(t)
	ctx := context.Background()
	actor := testutil.TestActor()
	seed(t, svc, "MATERIAL", "IQC_REQUIRED", "Y", "Y", 2)
	seed(t, svc, "MATERIAL", "FIFO_ENFORCED", "y", "Y", 1)
	seed(t, svc, "LABEL", "PRINT_MODE", "server", "Y", 1)
	seed(t, svc, "LABEL", "LEGACY_PRINTER", "Y", "N", 2)

	all, err := svc.List(ctx, actor, "", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "LABEL", all[0].ConfigGroup)
	assert.Equal(t, "FIFO_ENFORCED", all[2].ConfigKey)

	found, err := svc.List(ctx, actor, "MATERIAL", "iqc")
	require.NoError(t, err)
	require.Len(t, found, 1)

	grouped, err := svc.Grouped(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, grouped["LABEL"], 2)

	active, err := svc.ActiveMap(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	assert.Equal(t, "server", active["PRINT_MODE"])

	v, ok, err := svc.GetValue(ctx, actor, "LEGACY_PRINTER")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)

	on, err := svc.IsEnabled(ctx, actor, "FIFO_ENFORCED")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = svc.IsEnabled(ctx, actor, "PRINT_MODE")
	require.NoError(t, err)
	assert.False(t, on)

	on, err = svc.IsEnabled(ctx, actor, "MISSING")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestConfigService_BulkUpdate(t *testing.T) {
	svc := newConfigService(t)
	ctx := context.Background()
	actor := testutil.TestActor()
	seed(t, svc, "LABEL", "PRINT_MODE", "server", "Y", 1)

	res, err := svc.BulkUpdate(ctx, actor, appsys.BulkUpdateRequest{Items: []appsys.BulkUpdateItem{
		{ConfigKey: "PRINT_MODE", ConfigValue: "browser"},
		{ConfigKey: "NOPE", ConfigValue: "x"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{"NOPE"}, res.Skipped)

	v, ok, err := svc.GetValue(ctx, actor, "PRINT_MODE")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "browser", v)
}

func TestConfigService_UpdateDelete(t *testing.T) {
	svc := newConfigService(t)
	ctx := context.Background()
	actor := testutil.TestActor()
	created, err := svc.Create(ctx, actor, appsys.CreateConfigRequest{ConfigGroup: "PM", ConfigKey: "AUTO_GENERATE", ConfigValue: "Y"})
	require.NoError(t, err)

	off := "N"
	updated, err := svc.Update(ctx, actor, created.ID, appsys.UpdateConfigRequest{ConfigValue: &off})
	require.NoError(t, err)
	assert.Equal(t, "N", updated.ConfigValue)

	require.NoError(t, svc.Delete(ctx, actor, "AUTO_GENERATE"))
	assert.ErrorIs(t, svc.Delete(ctx, actor, "AUTO_GENERATE"), shared.ErrNotFound)
	_, err = svc.GetByID(ctx, actor, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
