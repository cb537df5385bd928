package quality

import "github.com/mes/backend/internal/domain/shared"

// Event types published by quality
const (
	EventDefectRegistered = "quality.defect.registered"
	EventOqcInspected     = "quality.oqc.inspected"
	EventInspectRecorded  = "quality.inspect.recorded"
)

// DefectRegistered is published when a defect log is created
type DefectRegistered struct {
	shared.BaseDomainEvent
	DefectCode string `json:"defectCode"`
	Qty        int    `json:"qty"`
}

// NewDefectRegistered creates the registration event of d
func NewDefectRegistered(d *DefectLog) *DefectRegistered {
	return &DefectRegistered{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventDefectRegistered, "DefectLog", d.TenantEntity),
		DefectCode:      d.DefectCode,
		Qty:             d.Qty,
	}
}

// OqcInspected is published when an OQC request receives its verdict
type OqcInspected struct {
	shared.BaseDomainEvent
	RequestNo string `json:"requestNo"`
	Result    string `json:"result"`
	BoxCount  int    `json:"boxCount"`
	TotalQty  int    `json:"totalQty"`
}

// NewOqcInspected creates the verdict event of r
func NewOqcInspected(r *OqcRequest) *OqcInspected {
	return &OqcInspected{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOqcInspected, "OqcRequest", r.TenantEntity),
		RequestNo:       r.RequestNo,
		Result:          r.Result,
		BoxCount:        r.TotalBoxCount,
		TotalQty:        r.TotalQty,
	}
}

// InspectRecorded is published for every in-line inspection result
type InspectRecorded struct {
	shared.BaseDomainEvent
	InspectType string `json:"inspectType,omitempty"`
	SerialNo    string `json:"serialNo,omitempty"`
	PassYn      string `json:"passYn"`
}

// NewInspectRecorded creates the recording event of r
func NewInspectRecorded(r *InspectResult) *InspectRecorded {
	return &InspectRecorded{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInspectRecorded, "InspectResult", r.TenantEntity),
		InspectType:     r.InspectType,
		SerialNo:        r.SerialNo,
		PassYn:          r.PassYn,
	}
}
