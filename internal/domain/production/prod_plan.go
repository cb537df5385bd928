package production

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// PlanStatus is the lifecycle state of a monthly production plan
type PlanStatus string

const (
	PlanDraft     PlanStatus = "DRAFT"
	PlanConfirmed PlanStatus = "CONFIRMED"
	PlanClosed    PlanStatus = "CLOSED"
)

// Plan item types
const (
	PlanItemFG  = "FG"
	PlanItemWIP = "WIP"
)

// ProdPlanPrefix prefixes plan numbers: PP-YYYYMM-NNN
const ProdPlanPrefix = "PP"

// MaxPlanPriority is the lowest plan priority; 1 is the most urgent
const MaxPlanPriority = 10

var planMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidPlanMonth reports whether month is YYYY-MM
func ValidPlanMonth(month string) bool {
	return planMonthPattern.MatchString(month)
}

// PlanNumberPrefix returns the PP-YYYYMM- part shared by the plans of one month
func PlanNumberPrefix(month string) string {
	return ProdPlanPrefix + "-" + strings.ReplaceAll(month, "-", "") + "-"
}

// PlanNumber renders PP-YYYYMM-NNN
func PlanNumber(month string, seq int) string {
	return fmt.Sprintf("%s%03d", PlanNumberPrefix(month), seq)
}

// ProdPlan is the monthly quantity planned for one part. Job orders released
// against a confirmed plan add to its OrderQty.
type ProdPlan struct {
	shared.TenantEntity
	PlanNo    string       `gorm:"type:varchar(50);not null;index" json:"planNo"`
	PlanMonth string       `gorm:"type:varchar(7);not null;index" json:"planMonth"`
	PartID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"partId"`
	ItemType  string       `gorm:"type:varchar(10);not null" json:"itemType"`
	PlanQty   int          `gorm:"not null" json:"planQty"`
	OrderQty  int          `gorm:"not null;default:0" json:"orderQty"`
	Customer  string       `gorm:"type:varchar(50)" json:"customer,omitempty"`
	LineCode  string       `gorm:"type:varchar(255)" json:"lineCode,omitempty"`
	Priority  int          `gorm:"not null;default:5" json:"priority"`
	Status    PlanStatus   `gorm:"type:varchar(10);not null;default:'DRAFT';index" json:"status"`
	Remark    string       `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Part      *master.Part `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// TableName returns the table name for GORM
func (ProdPlan) TableName() string {
	return "prod_plans"
}

// NewProdPlan creates a DRAFT plan
func NewProdPlan(actor shared.Actor, planNo, month string, partID uuid.UUID, itemType string, planQty, priority int) (*ProdPlan, error) {
	if !ValidPlanMonth(month) {
		return nil, shared.InvalidInput("planMonth must be YYYY-MM")
	}
	if err := validItemType(itemType); err != nil {
		return nil, err
	}
	if planQty <= 0 {
		return nil, shared.InvalidInput("planQty must be positive")
	}
	if priority <= 0 {
		priority = DefaultPriority
	}
	if priority > MaxPlanPriority {
		return nil, shared.InvalidInput("priority must be between 1 and %d", MaxPlanPriority)
	}
	return &ProdPlan{
		TenantEntity: shared.NewTenantEntity(actor),
		PlanNo:       planNo,
		PlanMonth:    month,
		PartID:       partID,
		ItemType:     itemType,
		PlanQty:      planQty,
		Priority:     priority,
		Status:       PlanDraft,
	}, nil
}

func validItemType(itemType string) error {
	if itemType != PlanItemFG && itemType != PlanItemWIP {
		return shared.InvalidInput("itemType must be FG or WIP")
	}
	return nil
}

// CanEdit checks that the plan is still a draft
func (p *ProdPlan) CanEdit() error {
	if p.Status != PlanDraft {
		return shared.InvalidState("plan %s is %s, only DRAFT plans can be changed", p.PlanNo, p.Status)
	}
	return nil
}

// ChangeItem updates the planned part, type and qty of a draft
func (p *ProdPlan) ChangeItem(partID *uuid.UUID, itemType *string, planQty *int) error {
	if err := p.CanEdit(); err != nil {
		return err
	}
	if itemType != nil {
		if err := validItemType(*itemType); err != nil {
			return err
		}
		p.ItemType = *itemType
	}
	if planQty != nil {
		if *planQty <= 0 {
			return shared.InvalidInput("planQty must be positive")
		}
		p.PlanQty = *planQty
	}
	if partID != nil {
		p.PartID = *partID
	}
	return nil
}

// Confirm moves DRAFT to CONFIRMED
func (p *ProdPlan) Confirm(userID string) error {
	if p.Status != PlanDraft {
		return shared.InvalidState("cannot confirm plan in status %s, must be DRAFT", p.Status)
	}
	p.Status = PlanConfirmed
	p.Touch(userID)
	return nil
}

// Unconfirm moves CONFIRMED back to DRAFT. Plans with released job orders stay confirmed.
func (p *ProdPlan) Unconfirm(userID string) error {
	if p.Status != PlanConfirmed {
		return shared.InvalidState("cannot unconfirm plan in status %s, must be CONFIRMED", p.Status)
	}
	if p.OrderQty > 0 {
		return shared.InvalidState("plan %s already has %d released to job orders", p.PlanNo, p.OrderQty)
	}
	p.Status = PlanDraft
	p.Touch(userID)
	return nil
}

// Close moves CONFIRMED to CLOSED
func (p *ProdPlan) Close(userID string) error {
	if p.Status != PlanConfirmed {
		return shared.InvalidState("cannot close plan in status %s, must be CONFIRMED", p.Status)
	}
	p.Status = PlanClosed
	p.Touch(userID)
	return nil
}

// Release books qty of a new job order for partID against the plan
func (p *ProdPlan) Release(partID uuid.UUID, qty int, userID string) error {
	if p.Status != PlanConfirmed {
		return shared.InvalidState("plan %s is %s, job orders need a CONFIRMED plan", p.PlanNo, p.Status)
	}
	if partID != p.PartID {
		return shared.InvalidInput("job order part does not match plan %s", p.PlanNo)
	}
	if qty <= 0 {
		return shared.InvalidInput("qty must be positive")
	}
	p.OrderQty += qty
	p.Touch(userID)
	return nil
}

// RemainingQty is the planned qty not yet released to job orders
func (p *ProdPlan) RemainingQty() int {
	return max(0, p.PlanQty-p.OrderQty)
}

// PlanSummary totals the plans of one month
type PlanSummary struct {
	Month         string `json:"month"`
	Total         int    `json:"total"`
	Draft         int    `json:"draft"`
	Confirmed     int    `json:"confirmed"`
	Closed        int    `json:"closed"`
	FgCount       int    `json:"fgCount"`
	WipCount      int    `json:"wipCount"`
	FgPlanQty     int    `json:"fgPlanQty"`
	WipPlanQty    int    `json:"wipPlanQty"`
	TotalPlanQty  int    `json:"totalPlanQty"`
	TotalOrderQty int    `json:"totalOrderQty"`
}

// SummarizePlans totals plans by status and item type
func SummarizePlans(month string, plans []ProdPlan) PlanSummary {
	s := PlanSummary{Month: month, Total: len(plans)}
	for _, p := range plans {
		switch p.Status {
		case PlanDraft:
			s.Draft++
		case PlanConfirmed:
			s.Confirmed++
		case PlanClosed:
			s.Closed++
		}
		if p.ItemType == PlanItemFG {
			s.FgCount++
			s.FgPlanQty += p.PlanQty
		} else {
			s.WipCount++
			s.WipPlanQty += p.PlanQty
		}
		s.TotalPlanQty += p.PlanQty
		s.TotalOrderQty += p.OrderQty
	}
	return s
}
