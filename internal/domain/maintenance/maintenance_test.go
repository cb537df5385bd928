package maintenance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actor = shared.Actor{UserID: "u1", Company: "HANES", Plant: "P01"}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestCalculateNextDueAt(t *testing.T) {
	base := day(2025, 1, 15)
	tests := []struct {
		name  string
		typ   CycleType
		value int
		unit  CycleUnit
		want  time.Time
	}{
		{"monthly by value", CycleMonthly, 2, UnitMonth, day(2025, 3, 15)},
		{"quarterly ignores value", CycleQuarterly, 9, "", day(2025, 4, 15)},
		{"semi annual", CycleSemiAnnual, 1, "", day(2025, 7, 15)},
		{"annual", CycleAnnual, 5, "", day(2026, 1, 15)},
		{"custom days", CycleCustom, 10, UnitDay, day(2025, 1, 25)},
		{"custom weeks", CycleCustom, 2, UnitWeek, day(2025, 1, 29)},
		{"custom months", CycleCustom, 3, UnitMonth, day(2025, 4, 15)},
		{"custom years", CycleCustom, 2, UnitYear, day(2027, 1, 15)},
		{"custom unknown unit uses months", CycleCustom, 4, "HOUR", day(2025, 5, 15)},
		{"unknown type adds a month", "SHOT_BASED", 7, UnitDay, day(2025, 2, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateNextDueAt(base, tt.typ, tt.value, tt.unit))
		})
	}

	t.Run("month overflow normalizes", func(t *testing.T) {
		assert.Equal(t, day(2025, 3, 3), CalculateNextDueAt(day(2025, 1, 31), CycleMonthly, 1, UnitMonth))
	})
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(2024, 2, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), to)
	assert.Equal(t, 29, DaysIn(2024, 2))
	assert.Equal(t, 31, DaysIn(2025, 12))
}

func TestNewPmPlan_Defaults(t *testing.T) {
	now := day(2025, 1, 15)
	plan, err := NewPmPlan(actor, uuid.New(), "PM-01", "Crimper monthly", "", PlanCycle{}, now)
	require.NoError(t, err)
	assert.Equal(t, PmTypeTimeBased, plan.PmType)
	assert.Equal(t, CycleMonthly, plan.CycleType)
	assert.Equal(t, 1, plan.CycleValue)
	assert.Equal(t, UnitMonth, plan.CycleUnit)
	assert.Equal(t, day(2025, 2, 15), *plan.NextDueAt)

	_, err = NewPmPlan(actor, uuid.New(), "", "x", "", PlanCycle{}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPmPlan_ChangeCycle(t *testing.T) {
	now := day(2025, 1, 15)
	plan, err := NewPmPlan(actor, uuid.New(), "PM-01", "plan", "", PlanCycle{}, now)
	require.NoError(t, err)

	plan.ChangeCycle(PlanCycle{}, day(2025, 6, 1))
	assert.Equal(t, day(2025, 2, 15), *plan.NextDueAt)

	plan.ChangeCycle(PlanCycle{Type: CycleQuarterly}, now)
	assert.Equal(t, day(2025, 4, 15), *plan.NextDueAt)

	executed := day(2025, 3, 1)
	plan.LastExecutedAt = &executed
	plan.ChangeCycle(PlanCycle{Type: CycleCustom, Value: 10, Unit: UnitDay}, now)
	assert.Equal(t, day(2025, 3, 11), *plan.NextDueAt)

	plan.MarkExecuted(day(2025, 4, 1), "u2")
	assert.Equal(t, day(2025, 4, 11), *plan.NextDueAt)
	assert.Equal(t, "u2", plan.UpdatedBy)
}

func TestPmPlan_PlannedWorkOrder(t *testing.T) {
	plan, err := NewPmPlan(shared.Actor{Company: "C2", Plant: "P9"}, uuid.New(), "PM-02", "plan", "", PlanCycle{}, day(2025, 1, 15))
	require.NoError(t, err)
	wo := plan.PlannedWorkOrder("PM-20250215-001", "SYSTEM")
	assert.Equal(t, "C2", wo.Company)
	assert.Equal(t, "P9", wo.Plant)
	assert.Equal(t, plan.ID, *wo.PmPlanID)
	assert.Equal(t, WoPlanned, wo.Status)
	assert.Equal(t, WoTypePlanned, wo.WoType)
	assert.Equal(t, DefaultPriority, wo.Priority)
	assert.Equal(t, day(2025, 2, 15), wo.ScheduledDate)
}

func TestPmWorkOrder_ExecuteCancel(t *testing.T) {
	now := day(2025, 2, 15)
	wo := NewWorkOrder("C", "P", "u1", "PM-1", uuid.New(), nil, "", "", now)

	results := []PmWoResult{{Seq: 1, ItemName: "belt", Result: ResultPass}}
	require.NoError(t, wo.Execute(ResultPass, "ok", "w7", results, now, "u1"))
	assert.Equal(t, WoCompleted, wo.Status)
	assert.Equal(t, now, *wo.StartedAt)
	assert.Equal(t, "w7", wo.AssignedWorkerID)
	assert.Equal(t, wo.ID, wo.Results[0].WorkOrderID)
	assert.Equal(t, DefaultItemType, wo.Results[0].ItemType)

	assert.ErrorIs(t, wo.Execute(ResultPass, "", "", nil, now, "u1"), shared.ErrInvalidState)
	assert.ErrorIs(t, wo.Cancel("u1"), shared.ErrInvalidState)

	other := NewWorkOrder("C", "P", "u1", "PM-2", uuid.New(), nil, WoTypeCorrective, "HIGH", now)
	assert.ErrorIs(t, other.Execute("", "", "", nil, now, "u1"), shared.ErrInvalidInput)
	require.NoError(t, other.Cancel("u1"))
	assert.ErrorIs(t, other.Execute(ResultPass, "", "", nil, now, "u1"), shared.ErrInvalidState)
}

func TestResolveDayStatus(t *testing.T) {
	tests := []struct {
		total, completed, fail int
		past                   bool
		want                   DayStatus
	}{
		{0, 0, 0, true, DayNone},
		{2, 2, 0, false, DayAllPass},
		{2, 2, 1, false, DayHasFail},
		{3, 1, 1, false, DayHasFail},
		{3, 1, 0, true, DayInProgress},
		{2, 0, 0, true, DayOverdue},
		{2, 0, 0, false, DayNotStarted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveDayStatus(tt.total, tt.completed, tt.fail, tt.past))
	}
}

func TestBuildCalendar(t *testing.T) {
	today := day(2025, 2, 10)
	done := func(d int, result string) PmWorkOrder {
		return PmWorkOrder{ScheduledDate: day(2025, 2, d), Status: WoCompleted, OverallResult: result}
	}
	planned := func(d int) PmWorkOrder {
		return PmWorkOrder{ScheduledDate: day(2025, 2, d), Status: WoPlanned}
	}
	orders := []PmWorkOrder{
		done(3, ResultPass),
		done(4, ResultFail), planned(4),
		done(5, ResultPass), planned(5),
		planned(6),
		planned(20),
		{ScheduledDate: day(2025, 3, 1), Status: WoPlanned},
	}

	cal := BuildCalendar(2025, 2, orders, today)
	require.Len(t, cal, 28)
	assert.Equal(t, "2025-02-01", cal[0].Date)
	assert.Equal(t, DayNone, cal[0].Status)
	assert.Equal(t, DayAllPass, cal[2].Status)
	assert.Equal(t, DayHasFail, cal[3].Status)
	assert.Equal(t, 2, cal[3].Total)
	assert.Equal(t, 1, cal[3].Fail)
	assert.Equal(t, DayInProgress, cal[4].Status)
	assert.Equal(t, DayOverdue, cal[5].Status)
	assert.Equal(t, DayNotStarted, cal[19].Status)
	assert.Equal(t, DayNone, cal[27].Status)
}

func TestConsumable_Status(t *testing.T) {
	c, err := NewConsumable(actor, "MOLD-01", "Crimp die", 1000, 800, 0)
	require.NoError(t, err)
	assert.Equal(t, ConsumableNormal, c.Status)

	require.NoError(t, c.IncreaseCount(800, "u1"))
	assert.Equal(t, ConsumableWarning, c.Status)
	require.NoError(t, c.IncreaseCount(200, "u1"))
	assert.Equal(t, ConsumableReplace, c.Status)
	assert.ErrorIs(t, c.IncreaseCount(0, "u1"), shared.ErrInvalidInput)

	next := day(2026, 1, 1)
	log := c.RegisterReplacement(actor, &next, "", day(2025, 6, 1))
	assert.Equal(t, 0, c.CurrentCount)
	assert.Equal(t, ConsumableNormal, c.Status)
	assert.Equal(t, next, *c.NextReplaceAt)
	assert.Equal(t, LogIn, log.LogType)
	assert.Equal(t, 1, log.Qty)
	assert.Equal(t, c.ID, log.ConsumableID)

	t.Run("unset thresholds stay normal", func(t *testing.T) {
		c, err := NewConsumable(actor, "JIG-1", "Jig", 0, 0, 5000)
		require.NoError(t, err)
		assert.Equal(t, ConsumableNormal, c.Status)
	})

	t.Run("scrap retires", func(t *testing.T) {
		c.ApplyLog(LogOut, "u1")
		assert.Equal(t, shared.Yes, c.UseYn)
		c.ApplyLog(LogScrap, "u1")
		assert.Equal(t, shared.No, c.UseYn)
	})
}
