package quality

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/shared"
)

// DefectStatus is the disposition of a defect
type DefectStatus string

const (
	DefectWait   DefectStatus = "WAIT"
	DefectRepair DefectStatus = "REPAIR"
	DefectRework DefectStatus = "REWORK"
	DefectScrap  DefectStatus = "SCRAP"
	DefectDone   DefectStatus = "DONE"
)

var defectTransitions = map[DefectStatus][]DefectStatus{
	DefectWait:   {DefectRepair, DefectRework, DefectScrap},
	DefectRepair: {DefectDone, DefectScrap, DefectWait},
	DefectRework: {DefectDone, DefectScrap, DefectWait},
}

// IsValid checks if the status is known
func (s DefectStatus) IsValid() bool {
	switch s {
	case DefectWait, DefectRepair, DefectRework, DefectScrap, DefectDone:
		return true
	}
	return false
}

// CanTransitionTo reports whether a defect in s may move to next
func (s DefectStatus) CanTransitionTo(next DefectStatus) bool {
	for _, allowed := range defectTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsPending reports whether the defect still awaits a disposition
func (s DefectStatus) IsPending() bool {
	return s == DefectWait || s == DefectRepair || s == DefectRework
}

// PendingDefectStatuses lists statuses shown on the pending board
var PendingDefectStatuses = []DefectStatus{DefectWait, DefectRepair, DefectRework}

// DefectLog records defective units found against a production result
type DefectLog struct {
	shared.TenantEntity
	ProdResultID uuid.UUID              `gorm:"type:uuid;not null;index" json:"prodResultId"`
	DefectCode   string                 `gorm:"type:varchar(50);not null;index" json:"defectCode"`
	DefectName   string                 `gorm:"type:varchar(100)" json:"defectName,omitempty"`
	Qty          int                    `gorm:"not null;default:1" json:"qty"`
	Status       DefectStatus           `gorm:"type:varchar(10);not null;default:'WAIT';index" json:"status"`
	Cause        string                 `gorm:"type:varchar(500)" json:"cause,omitempty"`
	OccurAt      time.Time              `gorm:"not null;index" json:"occurAt"`
	ImageURL     string                 `gorm:"type:varchar(500)" json:"imageUrl,omitempty"`
	Remark       string                 `gorm:"type:varchar(500)" json:"remark,omitempty"`
	ProdResult   *production.ProdResult `gorm:"foreignKey:ProdResultID" json:"prodResult,omitempty"`
	RepairLogs   []RepairLog            `gorm:"foreignKey:DefectLogID" json:"repairLogs,omitempty"`
}

// TableName returns the table name for GORM
func (DefectLog) TableName() string {
	return "defect_logs"
}

// NewDefectLog creates a WAIT defect; qty defaults to 1 and occurAt to now
func NewDefectLog(actor shared.Actor, prodResultID uuid.UUID, defectCode string, qty int, occurAt time.Time) (*DefectLog, error) {
	defectCode = strings.TrimSpace(defectCode)
	if defectCode == "" {
		return nil, shared.InvalidInput("defectCode is required")
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, shared.InvalidInput("qty must be positive")
	}
	if occurAt.IsZero() {
		occurAt = time.Now()
	}
	return &DefectLog{
		TenantEntity: shared.NewTenantEntity(actor),
		ProdResultID: prodResultID,
		DefectCode:   defectCode,
		Qty:          qty,
		Status:       DefectWait,
		OccurAt:      occurAt,
	}, nil
}

// ChangeQty sets a new qty and returns the difference to apply to the production result
func (d *DefectLog) ChangeQty(qty int, userID string) (int, error) {
	if qty <= 0 {
		return 0, shared.InvalidInput("qty must be positive")
	}
	diff := qty - d.Qty
	d.Qty = qty
	d.Touch(userID)
	return diff, nil
}

// ChangeStatus moves the defect along the disposition graph
func (d *DefectLog) ChangeStatus(next DefectStatus, userID string) error {
	if !next.IsValid() {
		return shared.InvalidInput("invalid defect status: %s", next)
	}
	if !d.Status.CanTransitionTo(next) {
		return shared.InvalidState("cannot change defect status from %s to %s", d.Status, next)
	}
	d.Status = next
	d.Touch(userID)
	return nil
}

// RepairResult is the outcome of a repair attempt
type RepairResult string

const (
	RepairPass  RepairResult = "PASS"
	RepairFail  RepairResult = "FAIL"
	RepairScrap RepairResult = "SCRAP"
)

// IsValid checks if the result is known
func (r RepairResult) IsValid() bool {
	return r == RepairPass || r == RepairFail || r == RepairScrap
}

// RepairLog records one repair attempt on a defect
type RepairLog struct {
	shared.TenantEntity
	DefectLogID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"defectLogId"`
	WorkerID     string       `gorm:"type:varchar(50)" json:"workerId,omitempty"`
	RepairAction string       `gorm:"type:varchar(500)" json:"repairAction,omitempty"`
	MaterialUsed string       `gorm:"type:varchar(500)" json:"materialUsed,omitempty"`
	RepairTime   int          `json:"repairTime,omitempty"`
	Result       RepairResult `gorm:"type:varchar(10)" json:"result,omitempty"`
	Remark       string       `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (RepairLog) TableName() string {
	return "repair_logs"
}

// NewRepairLog creates a repair log for a defect
func NewRepairLog(actor shared.Actor, defectID uuid.UUID, result RepairResult) (*RepairLog, error) {
	if result != "" && !result.IsValid() {
		return nil, shared.InvalidInput("invalid repair result: %s", result)
	}
	return &RepairLog{
		TenantEntity: shared.NewTenantEntity(actor),
		DefectLogID:  defectID,
		WorkerID:     actor.UserID,
		Result:       result,
	}, nil
}

// ApplyRepair settles the defect status from a repair result: PASS closes it,
// SCRAP scraps it, FAIL leaves it unchanged.
func (d *DefectLog) ApplyRepair(result RepairResult, userID string) {
	switch result {
	case RepairPass:
		d.Status = DefectDone
	case RepairScrap:
		d.Status = DefectScrap
	default:
		return
	}
	d.Touch(userID)
}

// DefectTypeStat is the defect qty and share of one defect code
type DefectTypeStat struct {
	DefectCode string  `json:"defectCode"`
	DefectName string  `json:"defectName"`
	Count      int64   `json:"count"`
	TotalQty   int64   `json:"totalQty"`
	Percentage float64 `json:"percentage"`
}

// DefectStatusStat counts defects in one status
type DefectStatusStat struct {
	Status   DefectStatus `json:"status"`
	Count    int64        `json:"count"`
	TotalQty int64        `json:"totalQty"`
}

// DefectTrend is the number of defects logged on one day
type DefectTrend struct {
	Date     string `json:"date"`
	Count    int64  `json:"count"`
	TotalQty int64  `json:"totalQty"`
}

// WithPercentages fills Percentage as count/total in percent, rounded to two decimals
func WithPercentages(stats []DefectTypeStat) []DefectTypeStat {
	var total int64
	for _, s := range stats {
		total += s.Count
	}
	out := make([]DefectTypeStat, len(stats))
	for i, s := range stats {
		if total > 0 {
			s.Percentage = float64(roundHalfUp(float64(s.Count)/float64(total)*10000)) / 100
		}
		out[i] = s
	}
	return out
}

func roundHalfUp(v float64) int64 {
	return int64(v + 0.5)
}
