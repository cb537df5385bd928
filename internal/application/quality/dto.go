package quality

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/quality"
)

// CreateDefectRequest logs defective units against a production result
type CreateDefectRequest struct {
	ProdResultID uuid.UUID  `json:"prodResultId" binding:"required"`
	DefectCode   string     `json:"defectCode" binding:"required,max=50"`
	DefectName   string     `json:"defectName" binding:"max=100"`
	Qty          int        `json:"qty" binding:"min=0"`
	Cause        string     `json:"cause" binding:"max=500"`
	OccurAt      *time.Time `json:"occurAt"`
	ImageURL     string     `json:"imageUrl" binding:"omitempty,max=500"`
	Remark       string     `json:"remark" binding:"max=500"`
}

// UpdateDefectRequest changes a defect; a new qty is mirrored on the production result
type UpdateDefectRequest struct {
	DefectCode *string `json:"defectCode" binding:"omitempty,max=50"`
	DefectName *string `json:"defectName" binding:"omitempty,max=100"`
	Qty        *int    `json:"qty" binding:"omitempty,min=1"`
	Cause      *string `json:"cause" binding:"omitempty,max=500"`
	ImageURL   *string `json:"imageUrl" binding:"omitempty,max=500"`
	Remark     *string `json:"remark" binding:"omitempty,max=500"`
}

// ChangeDefectStatusRequest moves a defect along its disposition graph
type ChangeDefectStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=WAIT REPAIR REWORK SCRAP DONE"`
	Remark string `json:"remark" binding:"max=500"`
}

// CreateRepairRequest records a repair attempt
type CreateRepairRequest struct {
	RepairAction string `json:"repairAction" binding:"max=500"`
	MaterialUsed string `json:"materialUsed" binding:"max=500"`
	RepairTime   int    `json:"repairTime" binding:"min=0"`
	Result       string `json:"result" binding:"omitempty,oneof=PASS FAIL SCRAP"`
	Remark       string `json:"remark" binding:"max=500"`
}

// StatsRange bounds defect statistics by occurAt
type StatsRange struct {
	From *time.Time `form:"fromDate" time_format:"2006-01-02"`
	To   *time.Time `form:"toDate" time_format:"2006-01-02"`
}

// CreateOqcRequest asks for an inspection of closed boxes of one part
type CreateOqcRequest struct {
	PartID      uuid.UUID   `json:"partId" binding:"required"`
	BoxIDs      []uuid.UUID `json:"boxIds" binding:"required,min=1"`
	Customer    string      `json:"customer" binding:"max=200"`
	RequestDate *time.Time  `json:"requestDate"`
	SampleSize  *int        `json:"sampleSize"`
	Remark      string      `json:"remark" binding:"max=500"`
}

// ExecuteOqcRequest records the inspection verdict
type ExecuteOqcRequest struct {
	Result        string   `json:"result" binding:"required,oneof=PASS FAIL"`
	SampleBoxNos  []string `json:"sampleBoxNos"`
	Details       string   `json:"details"`
	InspectorName string   `json:"inspectorName" binding:"max=100"`
}

// UpdateOqcResultRequest corrects a verdict after inspection
type UpdateOqcResultRequest struct {
	Result string `json:"result" binding:"required,oneof=PASS FAIL"`
}

// CreateInspectResultRequest records one in-line inspection
type CreateInspectResultRequest struct {
	ProdResultID uuid.UUID      `json:"prodResultId" binding:"required"`
	SerialNo     string         `json:"serialNo" binding:"max=100"`
	InspectType  string         `json:"inspectType" binding:"max=50"`
	PassYn       string         `json:"passYn" binding:"omitempty,oneof=Y N"`
	ErrorCode    string         `json:"errorCode" binding:"max=50"`
	ErrorDetail  string         `json:"errorDetail" binding:"max=500"`
	InspectData  map[string]any `json:"inspectData"`
	InspectAt    *time.Time     `json:"inspectAt"`
	InspectorID  string         `json:"inspectorId" binding:"max=50"`
}

// BatchInspectResultRequest records several inspections in one transaction
type BatchInspectResultRequest struct {
	Items []CreateInspectResultRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateInspectResultRequest changes an inspection; the production result is fixed
type UpdateInspectResultRequest struct {
	SerialNo    *string        `json:"serialNo" binding:"omitempty,max=100"`
	InspectType *string        `json:"inspectType" binding:"omitempty,max=50"`
	PassYn      *string        `json:"passYn" binding:"omitempty,oneof=Y N"`
	ErrorCode   *string        `json:"errorCode" binding:"omitempty,max=50"`
	ErrorDetail *string        `json:"errorDetail" binding:"omitempty,max=500"`
	InspectData map[string]any `json:"inspectData"`
	InspectAt   *time.Time     `json:"inspectAt"`
	InspectorID *string        `json:"inspectorId" binding:"omitempty,max=50"`
}

// PassRateQuery bounds pass-rate statistics by inspectAt and optionally one type
type PassRateQuery struct {
	From        *time.Time `form:"fromDate" time_format:"2006-01-02"`
	To          *time.Time `form:"toDate" time_format:"2006-01-02"`
	InspectType string     `form:"inspectType"`
}

// InspectBatchResult lists the inspections created by one batch
type InspectBatchResult struct {
	Count int                     `json:"count"`
	Items []quality.InspectResult `json:"items"`
}
