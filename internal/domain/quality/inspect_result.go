package quality

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/shared"
)

// Inspection types reported by the in-line testers
const (
	InspectContinuity = "CONTINUITY"
	InspectVisual     = "VISUAL"
	InspectDimension  = "DIMENSION"
	InspectFunction   = "FUNCTION"
)

// InspectData holds the raw measurements of one inspection, e.g. resistance and voltage.
// Stored as a JSON string.
type InspectData map[string]any

// Value implements driver.Valuer
func (d InspectData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (d *InspectData) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into InspectData", value)
	}
	if len(data) == 0 || string(data) == "null" {
		*d = nil
		return nil
	}
	return json.Unmarshal(data, d)
}

// InspectResult is one in-line inspection of a production result, optionally per serial
type InspectResult struct {
	shared.TenantEntity
	ProdResultID uuid.UUID              `gorm:"type:uuid;not null;index" json:"prodResultId"`
	SerialNo     string                 `gorm:"type:varchar(100);index" json:"serialNo,omitempty"`
	InspectType  string                 `gorm:"type:varchar(50);index" json:"inspectType,omitempty"`
	PassYn       string                 `gorm:"type:varchar(1);not null;default:'Y';index" json:"passYn"`
	ErrorCode    string                 `gorm:"type:varchar(50)" json:"errorCode,omitempty"`
	ErrorDetail  string                 `gorm:"type:varchar(500)" json:"errorDetail,omitempty"`
	InspectData  InspectData            `gorm:"type:text" json:"inspectData,omitempty"`
	InspectAt    time.Time              `gorm:"not null;index" json:"inspectAt"`
	InspectorID  string                 `gorm:"type:varchar(50)" json:"inspectorId,omitempty"`
	ProdResult   *production.ProdResult `gorm:"foreignKey:ProdResultID" json:"prodResult,omitempty"`
}

// TableName returns the table name for GORM
func (InspectResult) TableName() string {
	return "inspect_results"
}

// NewInspectResult records an inspection; passYn defaults to Y and inspectAt to now
func NewInspectResult(actor shared.Actor, prodResultID uuid.UUID, passYn string, inspectAt time.Time) (*InspectResult, error) {
	if prodResultID == uuid.Nil {
		return nil, shared.InvalidInput("prodResultId is required")
	}
	passYn = strings.ToUpper(strings.TrimSpace(passYn))
	if passYn == "" {
		passYn = shared.Yes
	}
	if passYn != shared.Yes && passYn != shared.No {
		return nil, shared.InvalidInput("passYn must be Y or N")
	}
	if inspectAt.IsZero() {
		inspectAt = time.Now()
	}
	return &InspectResult{
		TenantEntity: shared.NewTenantEntity(actor),
		ProdResultID: prodResultID,
		PassYn:       passYn,
		InspectAt:    inspectAt,
		InspectorID:  actor.UserID,
	}, nil
}

// SetPass changes the verdict
func (r *InspectResult) SetPass(passYn string) error {
	passYn = strings.ToUpper(strings.TrimSpace(passYn))
	if passYn != shared.Yes && passYn != shared.No {
		return shared.InvalidInput("passYn must be Y or N")
	}
	r.PassYn = passYn
	return nil
}

// Passed reports whether the unit passed
func (r *InspectResult) Passed() bool {
	return r.PassYn == shared.Yes
}

// InspectQuery narrows inspection statistics
type InspectQuery struct {
	InspectType string
	From        *time.Time
	To          *time.Time
}

// InspectPassRate is the pass/fail split of a set of inspections
type InspectPassRate struct {
	TotalCount int64   `json:"totalCount"`
	PassCount  int64   `json:"passCount"`
	FailCount  int64   `json:"failCount"`
	PassRate   float64 `json:"passRate"`
}

// NewInspectPassRate derives the fail count and the pass rate in percent
func NewInspectPassRate(total, pass int64) InspectPassRate {
	return InspectPassRate{TotalCount: total, PassCount: pass, FailCount: total - pass, PassRate: PassRate(pass, total)}
}

// InspectTypeStat is the pass rate of one inspection type
type InspectTypeStat struct {
	InspectType string  `json:"inspectType"`
	TotalCount  int64   `json:"totalCount"`
	PassCount   int64   `json:"passCount"`
	PassRate    float64 `json:"passRate"`
}

// InspectTrend is the pass rate of one day
type InspectTrend struct {
	Date       string  `json:"date"`
	TotalCount int64   `json:"totalCount"`
	PassCount  int64   `json:"passCount"`
	FailCount  int64   `json:"failCount"`
	PassRate   float64 `json:"passRate"`
}

// PassRate returns pass/total in percent rounded to two decimals, 0 when total is 0
func PassRate(pass, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(roundHalfUp(float64(pass)/float64(total)*10000)) / 100
}
