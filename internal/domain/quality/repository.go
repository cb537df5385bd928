package quality

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// DefectLogRepository persists defect logs
type DefectLogRepository interface {
	shared.Repository[DefectLog]
	FindPending(ctx context.Context, scope shared.Actor, limit int) ([]DefectLog, error)
	// StatsByType groups by defect code, ordered by count desc
	StatsByType(ctx context.Context, scope shared.Actor, from, to *time.Time) ([]DefectTypeStat, error)
	StatsByStatus(ctx context.Context, scope shared.Actor) ([]DefectStatusStat, error)
	// DailyTrend groups defects by day of occurAt since from
	DailyTrend(ctx context.Context, scope shared.Actor, from time.Time) ([]DefectTrend, error)
}

// RepairLogRepository persists repair logs
type RepairLogRepository interface {
	Create(ctx context.Context, log *RepairLog) error
	FindByDefect(ctx context.Context, scope shared.Actor, defectID uuid.UUID) ([]RepairLog, error)
}

// OqcRequestRepository persists OQC requests with their box links
type OqcRequestRepository interface {
	shared.Repository[OqcRequest]
	// CreateWithBoxes inserts the request and its box links
	CreateWithBoxes(ctx context.Context, req *OqcRequest) error
	SaveBoxes(ctx context.Context, boxes []OqcRequestBox) error
	// LastNumber returns the greatest requestNo starting with prefix, or ""
	LastNumber(ctx context.Context, scope shared.Actor, prefix string) (string, error)
	Stats(ctx context.Context, scope shared.Actor) (OqcStats, error)
}

// InspectResultRepository persists in-line inspection results
type InspectResultRepository interface {
	shared.Repository[InspectResult]
	// FindBySerial returns the inspections of one serial, newest first
	FindBySerial(ctx context.Context, scope shared.Actor, serialNo string) ([]InspectResult, error)
	// FindByProdResult returns the inspections of one production result, oldest first
	FindByProdResult(ctx context.Context, scope shared.Actor, prodResultID uuid.UUID) ([]InspectResult, error)
	// PassCounts counts all and passed inspections matching q
	PassCounts(ctx context.Context, scope shared.Actor, q InspectQuery) (total, pass int64, err error)
	// StatsByType groups inspections with a type by type, ordered by type
	StatsByType(ctx context.Context, scope shared.Actor, q InspectQuery) ([]InspectTypeStat, error)
	// DailyTrend groups inspections by day of inspectAt since from
	DailyTrend(ctx context.Context, scope shared.Actor, from time.Time) ([]InspectTrend, error)
}
