package scheduler

import (
	"context"

	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// WorkOrderGenerator creates the PM work orders due in a month
type WorkOrderGenerator interface {
	GenerateWorkOrders(ctx context.Context, actor shared.Actor, year, month int) (maintenance.GenerateResult, error)
}

// PmExecutor runs jobs through a WorkOrderGenerator
type PmExecutor struct {
	generator WorkOrderGenerator
	logger    *zap.Logger
}

// NewPmExecutor creates a new PmExecutor
func NewPmExecutor(generator WorkOrderGenerator, logger *zap.Logger) *PmExecutor {
	return &PmExecutor{generator: generator, logger: logger}
}

// Execute implements JobExecutor
func (e *PmExecutor) Execute(ctx context.Context, job *Job) error {
	result, err := e.generator.GenerateWorkOrders(ctx, job.Tenant, job.Year, job.Month)
	if err != nil {
		return err
	}
	e.logger.Info("PM work orders generated",
		zap.String("company", job.Tenant.Company),
		zap.String("plant", job.Tenant.Plant),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return nil
}
