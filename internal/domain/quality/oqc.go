package quality

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
)

// OqcStatus is the state of an outgoing quality inspection request
type OqcStatus string

const (
	OqcPending    OqcStatus = "PENDING"
	OqcInProgress OqcStatus = "IN_PROGRESS"
	OqcPass       OqcStatus = "PASS"
	OqcFail       OqcStatus = "FAIL"
)

// OqcRequestPrefix prefixes request numbers: OQC-YYYYMMDD-NNN
const OqcRequestPrefix = "OQC"

// OqcRequest asks QC to inspect a set of closed boxes before shipping
type OqcRequest struct {
	shared.TenantEntity
	RequestNo     string          `gorm:"type:varchar(50);not null;index" json:"requestNo"`
	PartID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"partId"`
	Customer      string          `gorm:"type:varchar(200)" json:"customer,omitempty"`
	RequestDate   time.Time       `gorm:"not null;index" json:"requestDate"`
	TotalBoxCount int             `gorm:"not null;default:0" json:"totalBoxCount"`
	TotalQty      int             `gorm:"not null;default:0" json:"totalQty"`
	SampleSize    *int            `json:"sampleSize,omitempty"`
	Status        OqcStatus       `gorm:"type:varchar(15);not null;default:'PENDING';index" json:"status"`
	Result        string          `gorm:"type:varchar(10)" json:"result,omitempty"`
	Details       string          `gorm:"type:text" json:"details,omitempty"`
	InspectorName string          `gorm:"type:varchar(100)" json:"inspectorName,omitempty"`
	InspectDate   *time.Time      `json:"inspectDate,omitempty"`
	Remark        string          `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Boxes         []OqcRequestBox `gorm:"foreignKey:RequestID" json:"boxes,omitempty"`
}

// TableName returns the table name for GORM
func (OqcRequest) TableName() string {
	return "oqc_requests"
}

// OqcRequestBox links a box to a request
type OqcRequestBox struct {
	shared.BaseEntity
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"requestId"`
	BoxID     uuid.UUID `gorm:"type:uuid;not null;index" json:"boxId"`
	BoxNo     string    `gorm:"type:varchar(50);not null" json:"boxNo"`
	Qty       int       `gorm:"not null;default:0" json:"qty"`
	IsSample  string    `gorm:"type:varchar(1);not null;default:'N'" json:"isSample"`
}

// TableName returns the table name for GORM
func (OqcRequestBox) TableName() string {
	return "oqc_request_boxes"
}

// NewOqcRequest creates a PENDING request over boxes that are CLOSED and not yet inspected.
// Each box is stamped PENDING.
func NewOqcRequest(actor shared.Actor, requestNo string, partID uuid.UUID, boxes []*shipping.Box, requestDate time.Time, sampleSize *int) (*OqcRequest, error) {
	if len(boxes) == 0 {
		return nil, shared.InvalidInput("at least one box is required")
	}
	var invalid []string
	for _, b := range boxes {
		if !b.AwaitingOqc() {
			invalid = append(invalid, b.BoxNo)
		}
	}
	if len(invalid) > 0 {
		return nil, shared.InvalidState("boxes not available for OQC (must be CLOSED without a request): %s", strings.Join(invalid, ", "))
	}
	if requestDate.IsZero() {
		requestDate = time.Now()
	}
	if sampleSize != nil && *sampleSize <= 0 {
		sampleSize = nil
	}
	req := &OqcRequest{
		TenantEntity:  shared.NewTenantEntity(actor),
		RequestNo:     requestNo,
		PartID:        partID,
		RequestDate:   requestDate,
		TotalBoxCount: len(boxes),
		SampleSize:    sampleSize,
		Status:        OqcPending,
	}
	for _, b := range boxes {
		req.TotalQty += b.Qty
		req.Boxes = append(req.Boxes, OqcRequestBox{
			BaseEntity: shared.NewBaseEntity(),
			RequestID:  req.ID,
			BoxID:      b.ID,
			BoxNo:      b.BoxNo,
			Qty:        b.Qty,
			IsSample:   shared.No,
		})
		b.SetOqcStatus(shipping.OqcPending)
	}
	return req, nil
}

// Execute records the verdict and marks sample boxes. Callers stamp the verdict on every box.
func (r *OqcRequest) Execute(result OqcStatus, sampleBoxNos []string, details, inspector string, now time.Time, userID string) error {
	if r.Status != OqcPending && r.Status != OqcInProgress {
		return shared.InvalidState("cannot execute OQC request in status %s, must be PENDING or IN_PROGRESS", r.Status)
	}
	if result != OqcPass && result != OqcFail {
		return shared.InvalidInput("result must be PASS or FAIL")
	}
	samples := make(map[string]bool, len(sampleBoxNos))
	for _, no := range sampleBoxNos {
		samples[no] = true
	}
	for i := range r.Boxes {
		if samples[r.Boxes[i].BoxNo] {
			r.Boxes[i].IsSample = shared.Yes
		}
	}
	r.Status = result
	r.Result = string(result)
	r.Details = details
	r.InspectorName = inspector
	r.InspectDate = &now
	r.Touch(userID)
	return nil
}

// CorrectResult overrides a verdict after inspection
func (r *OqcRequest) CorrectResult(result OqcStatus, userID string) error {
	if result != OqcPass && result != OqcFail {
		return shared.InvalidInput("result must be PASS or FAIL")
	}
	r.Status = result
	r.Result = string(result)
	r.Touch(userID)
	return nil
}

// BoxIDs returns the ids of the boxes in the request
func (r *OqcRequest) BoxIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Boxes))
	for i, b := range r.Boxes {
		ids[i] = b.BoxID
	}
	return ids
}

// OqcStats counts requests by outcome
type OqcStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Pass    int64 `json:"pass"`
	Fail    int64 `json:"fail"`
}
