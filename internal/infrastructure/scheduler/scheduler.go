// Package scheduler runs the monthly preventive-maintenance work order
// generation on a bounded worker pool.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job generates one month of PM work orders for one plant
type Job struct {
	ID          uuid.UUID
	Tenant      shared.Actor
	Year        int
	Month       int
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewJob creates a pending job
func NewJob(tenant shared.Actor, year, month int) (*Job, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return &Job{ID: uuid.New(), Tenant: tenant, Year: year, Month: month, Status: JobStatusPending}, nil
}

func (j *Job) start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

func (j *Job) finish(err error) {
	now := time.Now()
	j.CompletedAt = &now
	if err != nil {
		j.Status = JobStatusFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobStatusSuccess
}

// JobExecutor runs a job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

const (
	defaultPoolSize   = 4
	defaultJobTimeout = 10 * time.Minute
	releaseTimeout    = 30 * time.Second
)

// Scheduler executes jobs on an ants pool
type Scheduler struct {
	executor   JobExecutor
	logger     *zap.Logger
	poolSize   int
	jobTimeout time.Duration

	pool   *ants.Pool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a scheduler; Start must be called before SubmitJob
func NewScheduler(cfg config.SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		executor:   executor,
		logger:     logger,
		poolSize:   cfg.WorkerPoolSize,
		jobTimeout: cfg.JobTimeout,
	}
	if s.poolSize <= 0 {
		s.poolSize = defaultPoolSize
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = defaultJobTimeout
	}
	return s
}

// Start creates the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return nil
	}

	pool, err := ants.NewPool(s.poolSize,
		ants.WithPanicHandler(func(p any) {
			s.logger.Error("PM job panic recovered", zap.Any("panic", p), zap.Stack("stack"))
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	s.pool = pool
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("PM scheduler started",
		zap.Int("workers", s.poolSize),
		zap.Duration("job_timeout", s.jobTimeout))
	return nil
}

// Stop cancels queued jobs and waits for running ones
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	pool := s.pool
	s.pool = nil
	s.mu.Unlock()
	if pool == nil {
		return nil
	}

	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("PM scheduler stop timed out")
		return ctx.Err()
	}
	if err := pool.ReleaseTimeout(releaseTimeout); err != nil {
		s.logger.Warn("worker pool release timed out", zap.Error(err))
	}
	s.logger.Info("PM scheduler stopped")
	return nil
}

// SubmitJob queues job on the pool. It blocks while every worker is busy.
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	pool, ctx := s.pool, s.ctx
	if pool == nil {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	err := pool.Submit(func() {
		defer s.wg.Done()
		s.run(ctx, job)
	})
	if err != nil {
		s.wg.Done()
		return err
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context, job *Job) {
	if ctx.Err() != nil {
		job.finish(ctx.Err())
		return
	}
	job.start()
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	err := s.executor.Execute(ctx, job)
	job.finish(err)
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("company", job.Tenant.Company),
		zap.String("plant", job.Tenant.Plant),
		zap.Int("year", job.Year),
		zap.Int("month", job.Month),
	}
	if err != nil {
		s.logger.Error("PM generation job failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("PM generation job completed", fields...)
}

// Wait blocks until every submitted job has finished
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
