package production

import "github.com/mes/backend/internal/domain/shared"

// Event types published by production
const (
	EventJobOrderCompleted   = "production.job_order.completed"
	EventProdResultCompleted = "production.result.completed"
)

// JobOrderCompleted is published when a job order reaches DONE
type JobOrderCompleted struct {
	shared.BaseDomainEvent
	OrderNo   string `json:"orderNo"`
	LineCode  string `json:"lineCode,omitempty"`
	PlanQty   int    `json:"planQty"`
	GoodQty   int    `json:"goodQty"`
	DefectQty int    `json:"defectQty"`
}

// NewJobOrderCompleted creates the completion event of j
func NewJobOrderCompleted(j *JobOrder) *JobOrderCompleted {
	return &JobOrderCompleted{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventJobOrderCompleted, "JobOrder", j.TenantEntity),
		OrderNo:         j.OrderNo,
		LineCode:        j.LineCode,
		PlanQty:         j.PlanQty,
		GoodQty:         j.GoodQty,
		DefectQty:       j.DefectQty,
	}
}

// ProdResultCompleted is published when a result is completed
type ProdResultCompleted struct {
	shared.BaseDomainEvent
	ProcessCode string `json:"processCode,omitempty"`
	GoodQty     int    `json:"goodQty"`
	DefectQty   int    `json:"defectQty"`
}

// NewProdResultCompleted creates the completion event of r
func NewProdResultCompleted(r *ProdResult) *ProdResultCompleted {
	return &ProdResultCompleted{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProdResultCompleted, "ProdResult", r.TenantEntity),
		ProcessCode:     r.ProcessCode,
		GoodQty:         r.GoodQty,
		DefectQty:       r.DefectQty,
	}
}
