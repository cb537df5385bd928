package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TenantProvider lists the plants work orders are generated for
type TenantProvider interface {
	Tenants(ctx context.Context) ([]shared.Actor, error)
}

// StaticTenants is a fixed tenant list from configuration
type StaticTenants []shared.Actor

// Tenants implements TenantProvider
func (t StaticTenants) Tenants(context.Context) ([]shared.Actor, error) {
	return t, nil
}

// ParseTenants parses "COMPANY:PLANT" entries
func ParseTenants(entries []string) (StaticTenants, error) {
	out := make(StaticTenants, 0, len(entries))
	for _, e := range entries {
		company, plant, ok := strings.Cut(strings.TrimSpace(e), ":")
		if !ok || company == "" || plant == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTenant, e)
		}
		out = append(out, shared.SystemActor(company, plant))
	}
	return out, nil
}

// PlanTenants discovers tenants from the plants that own PM plans
type PlanTenants struct {
	Lister maintenance.TenantLister
}

// Tenants implements TenantProvider
func (p PlanTenants) Tenants(ctx context.Context) ([]shared.Actor, error) {
	return p.Lister.PlanTenants(ctx)
}

const (
	defaultCheckInterval = time.Hour
	defaultRunDay        = 25
)

// CronTrigger submits next month's PM generation once a month
type CronTrigger struct {
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger
	checkInterval  time.Duration
	runDay         int
	runHour        int
	now            func() time.Time

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	isRunning    bool
	lastRunMonth string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(cfg config.SchedulerConfig, scheduler *Scheduler, tenantProvider TenantProvider, logger *zap.Logger) *CronTrigger {
	c := &CronTrigger{
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
		checkInterval:  cfg.CheckInterval,
		runDay:         cfg.RunDay,
		runHour:        cfg.RunHour,
		now:            time.Now,
	}
	if c.checkInterval <= 0 {
		c.checkInterval = defaultCheckInterval
	}
	if c.runDay < 1 || c.runDay > 28 {
		c.runDay = defaultRunDay
	}
	return c
}

// Start starts the check loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.runLoop(ctx)
	c.logger.Info("PM cron trigger started",
		zap.Int("run_day", c.runDay),
		zap.Int("run_hour", c.runHour),
		zap.Duration("check_interval", c.checkInterval))
	return nil
}

// Stop stops the check loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAndTrigger(ctx)
		}
	}
}

// CheckAndTrigger submits next month's generation when the run day and hour
// have been reached and this month has not run yet. It reports whether it fired.
func (c *CronTrigger) CheckAndTrigger(ctx context.Context) bool {
	now := c.now()
	month := now.Format("2006-01")

	c.mu.Lock()
	if c.lastRunMonth == month || now.Day() != c.runDay || now.Hour() < c.runHour {
		c.mu.Unlock()
		return false
	}
	c.lastRunMonth = month
	c.mu.Unlock()

	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	c.logger.Info("Triggering PM work order generation",
		zap.Int("year", next.Year()),
		zap.Int("month", int(next.Month())))
	if _, err := c.TriggerMonth(ctx, next.Year(), int(next.Month())); err != nil {
		c.logger.Error("PM work order generation trigger failed", zap.Error(err))
	}
	return true
}

// TriggerMonth submits one job per tenant for the given month
func (c *CronTrigger) TriggerMonth(ctx context.Context, year, month int) ([]*Job, error) {
	tenants, err := c.tenantProvider.Tenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	jobs := make([]*Job, 0, len(tenants))
	for _, t := range tenants {
		job, err := NewJob(t, year, month)
		if err != nil {
			return jobs, err
		}
		if err := c.scheduler.SubmitJob(job); err != nil {
			c.logger.Error("Failed to submit PM job",
				zap.String("company", t.Company),
				zap.String("plant", t.Plant),
				zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
