package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	plant       string
	year, month int
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []call
	fail  string
}

func (g *fakeGenerator) GenerateWorkOrders(_ context.Context, actor shared.Actor, year, month int) (maintenance.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call{actor.Plant, year, month})
	if actor.Plant == g.fail {
		return maintenance.GenerateResult{}, errors.New("db down")
	}
	return maintenance.GenerateResult{Created: 1, Total: 1}, nil
}

func newTrigger(t *testing.T, gen *fakeGenerator, tenants StaticTenants) (*CronTrigger, *Scheduler) {
	t.Helper()
	cfg := config.SchedulerConfig{RunDay: 25, RunHour: 2, WorkerPoolSize: 2}
	s := NewScheduler(cfg, NewPmExecutor(gen, zap.NewNop()), zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return NewCronTrigger(cfg, s, tenants, zap.NewNop()), s
}

func TestParseTenants(t *testing.T) {
	tenants, err := ParseTenants([]string{"HANES:P01", " HANES:P02 "})
	require.NoError(t, err)
	assert.Equal(t, StaticTenants{shared.SystemActor("HANES", "P01"), shared.SystemActor("HANES", "P02")}, tenants)

	_, err = ParseTenants([]string{"HANES"})
	assert.ErrorIs(t, err, ErrInvalidTenant)
	_, err = ParseTenants([]string{":P01"})
	assert.ErrorIs(t, err, ErrInvalidTenant)
}

func TestNewJob_RejectsBadMonth(t *testing.T) {
	_, err := NewJob(shared.SystemActor("C", "P"), 2026, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestScheduler_SubmitRequiresStart(t *testing.T) {
	s := NewScheduler(config.SchedulerConfig{}, NewPmExecutor(&fakeGenerator{}, zap.NewNop()), zap.NewNop())
	job, err := NewJob(shared.SystemActor("C", "P"), 2026, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, s.SubmitJob(job), ErrSchedulerNotRunning)
}

func TestCronTrigger_RunsOncePerMonthForNextMonth(t *testing.T) {
	gen := &fakeGenerator{}
	trigger, s := newTrigger(t, gen, StaticTenants{shared.SystemActor("HANES", "P01"), shared.SystemActor("HANES", "P02")})
	ctx := context.Background()

	trigger.now = func() time.Time { return time.Date(2026, 12, 24, 3, 0, 0, 0, time.Local) }
	assert.False(t, trigger.CheckAndTrigger(ctx), "day before run day")

	trigger.now = func() time.Time { return time.Date(2026, 12, 25, 1, 0, 0, 0, time.Local) }
	assert.False(t, trigger.CheckAndTrigger(ctx), "before run hour")

	trigger.now = func() time.Time { return time.Date(2026, 12, 25, 2, 30, 0, 0, time.Local) }
	assert.True(t, trigger.CheckAndTrigger(ctx))
	assert.False(t, trigger.CheckAndTrigger(ctx), "already ran this month")
	s.Wait()

	assert.ElementsMatch(t, []call{{"P01", 2027, 1}, {"P02", 2027, 1}}, gen.calls)
}

func TestCronTrigger_TriggerMonthRecordsFailures(t *testing.T) {
	gen := &fakeGenerator{fail: "P02"}
	trigger, s := newTrigger(t, gen, StaticTenants{shared.SystemActor("HANES", "P01"), shared.SystemActor("HANES", "P02")})

	jobs, err := trigger.TriggerMonth(context.Background(), 2026, 11)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	s.Wait()

	byPlant := map[string]*Job{}
	for _, j := range jobs {
		byPlant[j.Tenant.Plant] = j
	}
	assert.Equal(t, JobStatusSuccess, byPlant["P01"].Status)
	assert.Equal(t, JobStatusFailed, byPlant["P02"].Status)
	assert.Equal(t, "db down", byPlant["P02"].Error)
	assert.NotNil(t, byPlant["P02"].CompletedAt)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(config.SchedulerConfig{}, NewPmExecutor(&fakeGenerator{}, zap.NewNop()), zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
