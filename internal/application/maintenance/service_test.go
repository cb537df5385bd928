package maintenance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appmaint "github.com/mes/backend/internal/application/maintenance"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos       *persistence.Repositories
	actor       shared.Actor
	equip       *master.Equipment
	pm          *appmaint.PmService
	consumables *appmaint.ConsumableService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := testutil.NewRepositories(t)
	actor := testutil.TestActor()

	equip, err := master.NewEquipment(actor, "CRM-01", "Crimper 1")
	require.NoError(t, err)
	equip.LineCode = "L1"
	equip.EquipType = "CRIMP"
	require.NoError(t, repos.Equipments().Create(context.Background(), equip))

	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) appmaint.Repositories { return r })
	return &fixture{
		repos:       repos,
		actor:       actor,
		equip:       equip,
		pm:          appmaint.NewPmService(repos.PmPlans(), repos.PmWorkOrders(), repos.Equipments(), tx),
		consumables: appmaint.NewConsumableService(repos.Consumables(), repos.ConsumableLogs(), tx),
	}
}

func (f *fixture) plan(t *testing.T, code string) *maintenance.PmPlan {
	t.Helper()
	plan, err := f.pm.CreatePlan(context.Background(), f.actor, appmaint.CreatePlanRequest{
		EquipID:    f.equip.ID,
		PlanCode:   code,
		PlanName:   "Applicator check",
		CycleType:  string(maintenance.CycleCustom),
		CycleValue: 10,
		CycleUnit:  string(maintenance.UnitDay),
		Items: []appmaint.PlanItemRequest{
			{ItemName: "Blade wear", Criteria: "< 0.1mm"},
			{ItemName: "Replace spring", ItemType: "REPLACE", SparePartCode: "SPR-1", SparePartQty: 1},
		},
	})
	require.NoError(t, err)
	return plan
}

func TestPmService_Plans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := time.Now()
	plan := f.plan(t, "PM-CRM-01")
	assert.Equal(t, maintenance.PmTypeTimeBased, plan.PmType)
	require.NotNil(t, plan.NextDueAt)
	assert.WithinDuration(t, before.AddDate(0, 0, 10), *plan.NextDueAt, time.Minute)
	require.Len(t, plan.Items, 2)
	assert.Equal(t, 1, plan.Items[0].Seq)
	assert.Equal(t, maintenance.DefaultItemType, plan.Items[0].ItemType)
	assert.Equal(t, "REPLACE", plan.Items[1].ItemType)

	t.Run("duplicate code", func(t *testing.T) {
		_, err := f.pm.CreatePlan(ctx, f.actor, appmaint.CreatePlanRequest{EquipID: f.equip.ID, PlanCode: "PM-CRM-01", PlanName: "x"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown equipment", func(t *testing.T) {
		_, err := f.pm.CreatePlan(ctx, f.actor, appmaint.CreatePlanRequest{EquipID: uuid.New(), PlanCode: "PM-X", PlanName: "x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("cycle change moves due date and items are replaced", func(t *testing.T) {
		items := []appmaint.PlanItemRequest{{ItemName: "Clean feeder"}}
		updated, err := f.pm.UpdatePlan(ctx, f.actor, plan.ID, appmaint.UpdatePlanRequest{
			CycleType: string(maintenance.CycleQuarterly),
			Items:     &items,
		})
		require.NoError(t, err)
		assert.Equal(t, maintenance.CycleQuarterly, updated.CycleType)
		assert.WithinDuration(t, before.AddDate(0, 3, 0), *updated.NextDueAt, time.Minute)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, "Clean feeder", updated.Items[0].ItemName)
	})

	t.Run("name only keeps due date", func(t *testing.T) {
		current, err := f.pm.GetPlan(ctx, f.actor, plan.ID)
		require.NoError(t, err)
		name := "Renamed"
		updated, err := f.pm.UpdatePlan(ctx, f.actor, plan.ID, appmaint.UpdatePlanRequest{PlanName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.PlanName)
		assert.True(t, current.NextDueAt.Equal(*updated.NextDueAt))
		assert.Len(t, updated.Items, 1)
	})

	t.Run("plan code change", func(t *testing.T) {
		other := f.plan(t, "PM-CRM-02")

		taken := "PM-CRM-02"
		_, err := f.pm.UpdatePlan(ctx, f.actor, plan.ID, appmaint.UpdatePlanRequest{PlanCode: &taken})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		same := " PM-CRM-02 "
		updated, err := f.pm.UpdatePlan(ctx, f.actor, other.ID, appmaint.UpdatePlanRequest{PlanCode: &same})
		require.NoError(t, err, "keeping its own code is not a clash")
		assert.Equal(t, "PM-CRM-02", updated.PlanCode)

		renamed := "PM-CRM-01A"
		updated, err = f.pm.UpdatePlan(ctx, f.actor, plan.ID, appmaint.UpdatePlanRequest{PlanCode: &renamed})
		require.NoError(t, err)
		assert.Equal(t, "PM-CRM-01A", updated.PlanCode)

		blank := "  "
		_, err = f.pm.UpdatePlan(ctx, f.actor, plan.ID, appmaint.UpdatePlanRequest{PlanCode: &blank})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestPmService_GenerateAndExecute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.plan(t, "PM-CRM-01")
	due := *plan.NextDueAt
	year, month := due.Year(), int(due.Month())

	res, err := f.pm.GenerateWorkOrders(ctx, f.actor, year, month)
	require.NoError(t, err)
	assert.Equal(t, maintenance.GenerateResult{Created: 1, Skipped: 0, Total: 1}, res)

	res, err = f.pm.GenerateWorkOrders(ctx, f.actor, year, month)
	require.NoError(t, err)
	assert.Equal(t, maintenance.GenerateResult{Created: 0, Skipped: 1, Total: 1}, res)

	page, err := f.pm.ListWorkOrders(ctx, f.actor, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	wo := page.Items[0]
	assert.Equal(t, "PM-"+due.Format("20060102")+"-001", wo.WorkOrderNo)
	assert.Equal(t, maintenance.WoPlanned, wo.Status)
	assert.Equal(t, maintenance.DefaultPriority, wo.Priority)
	require.NotNil(t, wo.PmPlanID)
	assert.Equal(t, plan.ID, *wo.PmPlanID)

	manual, err := f.pm.CreateWorkOrder(ctx, f.actor, appmaint.CreateWorkOrderRequest{
		EquipID:       f.equip.ID,
		WoType:        maintenance.WoTypeCorrective,
		ScheduledDate: due,
	})
	require.NoError(t, err)
	assert.Equal(t, "PM-"+due.Format("20060102")+"-002", manual.WorkOrderNo)

	_, err = f.pm.CreateWorkOrder(ctx, f.actor, appmaint.CreateWorkOrderRequest{EquipID: uuid.New(), ScheduledDate: due})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	itemID := plan.Items[0].ID
	done, err := f.pm.ExecuteWorkOrder(ctx, f.actor, wo.ID, appmaint.ExecuteWorkOrderRequest{
		OverallResult: maintenance.ResultPass,
		Items: []appmaint.ExecuteItemRequest{
			{ItemID: &itemID, Seq: 1, ItemName: "Blade wear", Result: maintenance.ResultPass},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, maintenance.WoCompleted, done.Status)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	require.Len(t, done.Results, 1)
	assert.Equal(t, maintenance.DefaultItemType, done.Results[0].ItemType)

	executed, err := f.pm.GetPlan(ctx, f.actor, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, executed.LastExecutedAt)
	assert.WithinDuration(t, executed.LastExecutedAt.AddDate(0, 0, 10), *executed.NextDueAt, time.Second)

	_, err = f.pm.ExecuteWorkOrder(ctx, f.actor, wo.ID, appmaint.ExecuteWorkOrderRequest{OverallResult: maintenance.ResultPass})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = f.pm.CancelWorkOrder(ctx, f.actor, wo.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	cancelled, err := f.pm.CancelWorkOrder(ctx, f.actor, manual.ID)
	require.NoError(t, err)
	assert.Equal(t, maintenance.WoCancelled, cancelled.Status)
}

func TestPmService_Calendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.plan(t, "PM-CRM-01")
	due := *plan.NextDueAt
	year, month := due.Year(), int(due.Month())
	_, err := f.pm.GenerateWorkOrders(ctx, f.actor, year, month)
	require.NoError(t, err)

	days, err := f.pm.Calendar(ctx, f.actor, appmaint.CalendarRequest{Year: year, Month: month})
	require.NoError(t, err)
	require.Len(t, days, maintenance.DaysIn(year, month))
	cell := days[due.Day()-1]
	assert.Equal(t, due.Format("2006-01-02"), cell.Date)
	assert.Equal(t, 1, cell.Total)
	assert.Equal(t, maintenance.DayNotStarted, cell.Status)

	other, err := f.pm.Calendar(ctx, f.actor, appmaint.CalendarRequest{Year: year, Month: month, LineCode: "L9"})
	require.NoError(t, err)
	assert.Equal(t, 0, other[due.Day()-1].Total)
	assert.Equal(t, maintenance.DayNone, other[due.Day()-1].Status)

	schedule, err := f.pm.DaySchedule(ctx, f.actor, appmaint.DayScheduleRequest{Date: due, EquipType: "CRIMP"})
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, "Applicator check", schedule[0].PlanName)
	assert.Len(t, schedule[0].PlanItems, 2)
	assert.Empty(t, schedule[0].Results)
	require.NotNil(t, schedule[0].Equipment)
	assert.Equal(t, "CRM-01", schedule[0].Equipment.EquipCode)
}

func TestConsumableService_Wear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.consumables.Create(ctx, f.actor, appmaint.CreateConsumableRequest{
		ConsumableCode: "MOLD-01",
		ConsumableName: "Terminal mold",
		Category:       "MOLD",
		ExpectedLife:   100,
		WarningCount:   80,
	})
	require.NoError(t, err)
	assert.Equal(t, maintenance.ConsumableNormal, c.Status)

	_, err = f.consumables.Create(ctx, f.actor, appmaint.CreateConsumableRequest{ConsumableCode: "MOLD-01", ConsumableName: "dup"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	c, err = f.consumables.IncreaseCount(ctx, f.actor, c.ID, appmaint.IncreaseCountRequest{Count: 85})
	require.NoError(t, err)
	assert.Equal(t, maintenance.ConsumableWarning, c.Status)

	c, err = f.consumables.IncreaseCount(ctx, f.actor, c.ID, appmaint.IncreaseCountRequest{Count: 20})
	require.NoError(t, err)
	assert.Equal(t, maintenance.ConsumableReplace, c.Status)
	assert.Equal(t, 105, c.CurrentCount)

	warnings, err := f.consumables.Warnings(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "MOLD-01", warnings[0].ConsumableCode)

	due, err := f.consumables.ReplacementDue(ctx, f.actor, 0)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	next := time.Now().AddDate(0, 3, 0)
	c, err = f.consumables.RegisterReplacement(ctx, f.actor, c.ID, appmaint.ReplacementRequest{NextReplaceAt: &next})
	require.NoError(t, err)
	assert.Equal(t, 0, c.CurrentCount)
	assert.Equal(t, maintenance.ConsumableNormal, c.Status)
	assert.NotNil(t, c.LastReplaceAt)

	logs, err := f.consumables.ListLogs(ctx, f.actor, shared.Filter{Status: string(maintenance.LogIn)})
	require.NoError(t, err)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, c.ID, logs.Items[0].ConsumableID)

	warnings, err = f.consumables.Warnings(ctx, f.actor)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestConsumableService_LogsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mold, err := f.consumables.Create(ctx, f.actor, appmaint.CreateConsumableRequest{ConsumableCode: "MOLD-01", ConsumableName: "Mold", Category: "MOLD"})
	require.NoError(t, err)
	_, err = f.consumables.Create(ctx, f.actor, appmaint.CreateConsumableRequest{ConsumableCode: "JIG-01", ConsumableName: "Jig", Category: "JIG"})
	require.NoError(t, err)

	stats, err := f.consumables.Stats(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Len(t, stats.ByCategory, 2)

	log, err := f.consumables.CreateLog(ctx, f.actor, appmaint.CreateLogRequest{ConsumableID: mold.ID, LogType: string(maintenance.LogOut)})
	require.NoError(t, err)
	assert.Equal(t, 1, log.Qty)
	assert.Equal(t, f.actor.UserID, log.WorkerID)

	_, err = f.consumables.CreateLog(ctx, f.actor, appmaint.CreateLogRequest{ConsumableID: mold.ID, LogType: string(maintenance.LogScrap)})
	require.NoError(t, err)
	scrapped, err := f.consumables.GetByID(ctx, f.actor, mold.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.No, scrapped.UseYn)

	stats, err = f.consumables.Stats(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)

	_, err = f.consumables.CreateLog(ctx, f.actor, appmaint.CreateLogRequest{ConsumableID: mold.ID, LogType: "LOST"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = f.consumables.CreateLog(ctx, f.actor, appmaint.CreateLogRequest{ConsumableID: uuid.New(), LogType: string(maintenance.LogIn)})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
