package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDefectLogRepository implements DefectLogRepository using GORM
type GormDefectLogRepository struct {
	*GormCrudRepository[quality.DefectLog]
}

// NewGormDefectLogRepository creates a new GormDefectLogRepository
func NewGormDefectLogRepository(db *gorm.DB) *GormDefectLogRepository {
	return &GormDefectLogRepository{NewGormCrudRepository[quality.DefectLog](db, CrudOptions{
		SearchColumns: []string{"defect_code", "defect_name", "cause"},
		DateColumn:    "occur_at",
		SortFields:    sortFields("occur_at", "defect_code", "status", "qty"),
		DefaultOrder:  "occur_at DESC",
		Preloads:      []string{"ProdResult"},
	})}
}

// FindPending returns defects still awaiting a disposition, oldest first
func (r *GormDefectLogRepository) FindPending(ctx context.Context, scope shared.Actor, limit int) ([]quality.DefectLog, error) {
	q := r.Scoped(ctx, scope).Where("status IN ?", quality.PendingDefectStatuses).Order("occur_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []quality.DefectLog
	err := q.Find(&out).Error
	return out, err
}

func (r *GormDefectLogRepository) period(ctx context.Context, scope shared.Actor, from, to *time.Time) *gorm.DB {
	q := r.plain(ctx, scope)
	if from != nil {
		q = q.Where("occur_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("occur_at <= ?", *to)
	}
	return q
}

// StatsByType groups by defect code, ordered by count desc
func (r *GormDefectLogRepository) StatsByType(ctx context.Context, scope shared.Actor, from, to *time.Time) ([]quality.DefectTypeStat, error) {
	var stats []quality.DefectTypeStat
	err := r.period(ctx, scope, from, to).
		Select("defect_code, MAX(defect_name) AS defect_name, COUNT(*) AS count, COALESCE(SUM(qty), 0) AS total_qty").
		Group("defect_code").
		Order("count DESC, defect_code ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return quality.WithPercentages(stats), nil
}

// StatsByStatus counts defects per status
func (r *GormDefectLogRepository) StatsByStatus(ctx context.Context, scope shared.Actor) ([]quality.DefectStatusStat, error) {
	var stats []quality.DefectStatusStat
	err := r.plain(ctx, scope).
		Select("status, COUNT(*) AS count, COALESCE(SUM(qty), 0) AS total_qty").
		Group("status").
		Order("status ASC").
		Scan(&stats).Error
	return stats, err
}

// DailyTrend groups defects by day of occurAt since from
func (r *GormDefectLogRepository) DailyTrend(ctx context.Context, scope shared.Actor, from time.Time) ([]quality.DefectTrend, error) {
	q := r.period(ctx, scope, &from, nil)
	day := dayExpr(q, "occur_at")
	var trend []quality.DefectTrend
	err := q.Select(day + " AS date, COUNT(*) AS count, COALESCE(SUM(qty), 0) AS total_qty").
		Group(day).
		Order(day + " ASC").
		Scan(&trend).Error
	return trend, err
}

// GormRepairLogRepository implements RepairLogRepository using GORM
type GormRepairLogRepository struct {
	*GormCrudRepository[quality.RepairLog]
}

// NewGormRepairLogRepository creates a new GormRepairLogRepository
func NewGormRepairLogRepository(db *gorm.DB) *GormRepairLogRepository {
	return &GormRepairLogRepository{NewGormCrudRepository[quality.RepairLog](db, CrudOptions{})}
}

// FindByDefect returns the repair attempts of a defect, newest first
func (r *GormRepairLogRepository) FindByDefect(ctx context.Context, scope shared.Actor, defectID uuid.UUID) ([]quality.RepairLog, error) {
	return r.FindAll(ctx, scope, shared.Conds{"defect_log_id": defectID}, "created_at DESC")
}

// GormOqcRequestRepository implements OqcRequestRepository using GORM
type GormOqcRequestRepository struct {
	*GormCrudRepository[quality.OqcRequest]
}

// NewGormOqcRequestRepository creates a new GormOqcRequestRepository
func NewGormOqcRequestRepository(db *gorm.DB) *GormOqcRequestRepository {
	return &GormOqcRequestRepository{NewGormCrudRepository[quality.OqcRequest](db, CrudOptions{
		SearchColumns: []string{"request_no", "customer"},
		DateColumn:    "request_date",
		SortFields:    sortFields("request_no", "request_date", "status"),
		DefaultOrder:  "request_date DESC, created_at DESC",
		Preloads:      []string{"Boxes"},
	})}
}

// CreateWithBoxes inserts the request and its box links
func (r *GormOqcRequestRepository) CreateWithBoxes(ctx context.Context, req *quality.OqcRequest) error {
	return r.CreateWithAssociations(ctx, req)
}

// SaveBoxes updates box links, e.g. the sample flag
func (r *GormOqcRequestRepository) SaveBoxes(ctx context.Context, boxes []quality.OqcRequestBox) error {
	if len(boxes) == 0 {
		return nil
	}
	return r.Conn(ctx).Save(&boxes).Error
}

// LastNumber returns the greatest requestNo starting with prefix, or ""
func (r *GormOqcRequestRepository) LastNumber(ctx context.Context, scope shared.Actor, prefix string) (string, error) {
	return lastByPrefix(r.Conn(ctx), &quality.OqcRequest{}, "request_no", prefix)
}

// Stats counts requests by outcome
func (r *GormOqcRequestRepository) Stats(ctx context.Context, scope shared.Actor) (quality.OqcStats, error) {
	var stats quality.OqcStats
	err := r.plain(ctx, scope).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = 'PASS' OR result = 'PASS' THEN 1 ELSE 0 END), 0) AS pass,
			COALESCE(SUM(CASE WHEN status = 'FAIL' OR result = 'FAIL' THEN 1 ELSE 0 END), 0) AS fail`).
		Scan(&stats).Error
	return stats, err
}

// GormInspectResultRepository implements InspectResultRepository using GORM
type GormInspectResultRepository struct {
	*GormCrudRepository[quality.InspectResult]
}

// NewGormInspectResultRepository creates a new GormInspectResultRepository
func NewGormInspectResultRepository(db *gorm.DB) *GormInspectResultRepository {
	return &GormInspectResultRepository{NewGormCrudRepository[quality.InspectResult](db, CrudOptions{
		SearchColumns: []string{"serial_no", "error_code"},
		StatusColumn:  "pass_yn",
		DateColumn:    "inspect_at",
		SortFields:    sortFields("inspect_at", "serial_no", "inspect_type", "pass_yn"),
		DefaultOrder:  "inspect_at DESC",
		Preloads:      []string{"ProdResult"},
	})}
}

// FindBySerial returns the inspections of one serial, newest first
func (r *GormInspectResultRepository) FindBySerial(ctx context.Context, scope shared.Actor, serialNo string) ([]quality.InspectResult, error) {
	return r.FindAll(ctx, scope, shared.Conds{"serial_no": serialNo}, "inspect_at DESC")
}

// FindByProdResult returns the inspections of one production result, oldest first
func (r *GormInspectResultRepository) FindByProdResult(ctx context.Context, scope shared.Actor, prodResultID uuid.UUID) ([]quality.InspectResult, error) {
	var out []quality.InspectResult
	err := r.plain(ctx, scope).Where("prod_result_id = ?", prodResultID).Order("inspect_at ASC").Find(&out).Error
	return out, err
}

func (r *GormInspectResultRepository) matching(ctx context.Context, scope shared.Actor, q quality.InspectQuery) *gorm.DB {
	db := r.plain(ctx, scope)
	if q.InspectType != "" {
		db = db.Where("inspect_type = ?", q.InspectType)
	}
	if q.From != nil {
		db = db.Where("inspect_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("inspect_at <= ?", *q.To)
	}
	return db
}

const passCountsSelect = "COUNT(*) AS total_count, COALESCE(SUM(CASE WHEN pass_yn = 'Y' THEN 1 ELSE 0 END), 0) AS pass_count"

// PassCounts counts all and passed inspections matching q
func (r *GormInspectResultRepository) PassCounts(ctx context.Context, scope shared.Actor, q quality.InspectQuery) (int64, int64, error) {
	var row struct {
		TotalCount int64
		PassCount  int64
	}
	if err := r.matching(ctx, scope, q).Select(passCountsSelect).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.TotalCount, row.PassCount, nil
}

// StatsByType groups inspections with a type by type, ordered by type
func (r *GormInspectResultRepository) StatsByType(ctx context.Context, scope shared.Actor, q quality.InspectQuery) ([]quality.InspectTypeStat, error) {
	var stats []quality.InspectTypeStat
	err := r.matching(ctx, scope, q).
		Where("inspect_type IS NOT NULL AND inspect_type <> ''").
		Select("inspect_type, " + passCountsSelect).
		Group("inspect_type").
		Order("inspect_type ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].PassRate = quality.PassRate(stats[i].PassCount, stats[i].TotalCount)
	}
	return stats, nil
}

// DailyTrend groups inspections by day of inspectAt since from
func (r *GormInspectResultRepository) DailyTrend(ctx context.Context, scope shared.Actor, from time.Time) ([]quality.InspectTrend, error) {
	q := r.matching(ctx, scope, quality.InspectQuery{From: &from})
	day := dayExpr(q, "inspect_at")
	var trend []quality.InspectTrend
	err := q.Select(day + " AS date, " + passCountsSelect).
		Group(day).
		Order(day + " ASC").
		Scan(&trend).Error
	if err != nil {
		return nil, err
	}
	for i := range trend {
		t := &trend[i]
		t.FailCount = t.TotalCount - t.PassCount
		t.PassRate = quality.PassRate(t.PassCount, t.TotalCount)
	}
	return trend, nil
}

var (
	_ quality.DefectLogRepository     = (*GormDefectLogRepository)(nil)
	_ quality.RepairLogRepository     = (*GormRepairLogRepository)(nil)
	_ quality.OqcRequestRepository    = (*GormOqcRequestRepository)(nil)
	_ quality.InspectResultRepository = (*GormInspectResultRepository)(nil)
)
