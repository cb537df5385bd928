package material

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// POStatus is the lifecycle state of a purchase order
type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusConfirmed POStatus = "CONFIRMED"
	POStatusPartial   POStatus = "PARTIAL"
	POStatusReceived  POStatus = "RECEIVED"
	POStatusClosed    POStatus = "CLOSED"
	POStatusCanceled  POStatus = "CANCELED"
)

// PurchaseOrder is an order for raw material placed with a vendor
type PurchaseOrder struct {
	shared.TenantEntity
	PoNo        string              `gorm:"type:varchar(50);not null;index" json:"poNo"`
	PartnerID   *uuid.UUID          `gorm:"type:uuid;index" json:"partnerId,omitempty"`
	PartnerName string              `gorm:"type:varchar(200)" json:"partnerName,omitempty"`
	OrderDate   time.Time           `gorm:"not null" json:"orderDate"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
	Status      POStatus            `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	TotalAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"totalAmount"`
	Remark      string              `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Items       []PurchaseOrderItem `gorm:"foreignKey:PoID" json:"items,omitempty"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderItem is one part line of a purchase order
type PurchaseOrderItem struct {
	shared.BaseEntity
	PoID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"poId"`
	PartID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"partId"`
	OrderQty    int             `gorm:"not null" json:"orderQty"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unitPrice"`
	ReceivedQty int             `gorm:"not null;default:0" json:"receivedQty"`
	Remark      string          `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Part        *master.Part    `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// RemainingQty returns the quantity still to arrive
func (i *PurchaseOrderItem) RemainingQty() int {
	return i.OrderQty - i.ReceivedQty
}

// NewPurchaseOrder creates a draft order
func NewPurchaseOrder(actor shared.Actor, poNo string, orderDate time.Time) (*PurchaseOrder, error) {
	poNo = strings.TrimSpace(poNo)
	if poNo == "" {
		return nil, shared.InvalidInput("poNo is required")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	return &PurchaseOrder{
		TenantEntity: shared.NewTenantEntity(actor),
		PoNo:         poNo,
		OrderDate:    orderDate,
		Status:       POStatusDraft,
	}, nil
}

// NewPurchaseOrderItem builds an order line
func NewPurchaseOrderItem(partID uuid.UUID, orderQty int, unitPrice decimal.Decimal, remark string) (PurchaseOrderItem, error) {
	if orderQty <= 0 {
		return PurchaseOrderItem{}, shared.InvalidInput("orderQty must be positive")
	}
	if unitPrice.IsNegative() {
		return PurchaseOrderItem{}, shared.InvalidInput("unitPrice cannot be negative")
	}
	return PurchaseOrderItem{
		BaseEntity: shared.NewBaseEntity(),
		PartID:     partID,
		OrderQty:   orderQty,
		UnitPrice:  unitPrice,
		Remark:     remark,
	}, nil
}

// SetItems replaces the order lines and recomputes the total amount
func (po *PurchaseOrder) SetItems(items []PurchaseOrderItem) error {
	if po.Status != POStatusDraft && po.Status != POStatusConfirmed {
		return shared.InvalidState("items of purchase order %s cannot change in status %s", po.PoNo, po.Status)
	}
	for i := range items {
		if items[i].ReceivedQty > 0 {
			return shared.InvalidState("purchase order %s already has receipts", po.PoNo)
		}
		items[i].PoID = po.ID
	}
	po.Items = items
	po.TotalAmount = po.CalcTotal()
	return nil
}

// CalcTotal sums orderQty * unitPrice over the lines
func (po *PurchaseOrder) CalcTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range po.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.OrderQty))))
	}
	return total
}

// Item returns the line with the given id
func (po *PurchaseOrder) Item(itemID uuid.UUID) (*PurchaseOrderItem, bool) {
	for i := range po.Items {
		if po.Items[i].ID == itemID {
			return &po.Items[i], true
		}
	}
	return nil, false
}

// Confirm releases a draft order to the vendor
func (po *PurchaseOrder) Confirm(userID string) error {
	if po.Status != POStatusDraft {
		return shared.InvalidState("only DRAFT purchase orders can be confirmed (current: %s)", po.Status)
	}
	if len(po.Items) == 0 {
		return shared.InvalidState("purchase order %s has no items", po.PoNo)
	}
	po.Status = POStatusConfirmed
	po.Touch(userID)
	return nil
}

// Close ends an order that will receive nothing more
func (po *PurchaseOrder) Close(userID string) error {
	switch po.Status {
	case POStatusConfirmed, POStatusPartial, POStatusReceived:
	default:
		return shared.InvalidState("purchase order in status %s cannot be closed", po.Status)
	}
	po.Status = POStatusClosed
	po.Touch(userID)
	return nil
}

// Cancel voids an order that has no receipts
func (po *PurchaseOrder) Cancel(userID string) error {
	if po.Status != POStatusDraft && po.Status != POStatusConfirmed {
		return shared.InvalidState("purchase order in status %s cannot be canceled", po.Status)
	}
	for _, item := range po.Items {
		if item.ReceivedQty > 0 {
			return shared.InvalidState("purchase order %s already has receipts", po.PoNo)
		}
	}
	po.Status = POStatusCanceled
	po.Touch(userID)
	return nil
}

// CanReceive reports whether arrivals may be booked against the order
func (po *PurchaseOrder) CanReceive() bool {
	return po.Status == POStatusConfirmed || po.Status == POStatusPartial
}

// RecomputeStatus derives the status from received quantities:
// every line complete is RECEIVED, any receipt is PARTIAL, none is CONFIRMED.
func (po *PurchaseOrder) RecomputeStatus() POStatus {
	allReceived := true
	someReceived := false
	for _, item := range po.Items {
		if item.ReceivedQty < item.OrderQty {
			allReceived = false
		}
		if item.ReceivedQty > 0 {
			someReceived = true
		}
	}
	switch {
	case allReceived:
		po.Status = POStatusReceived
	case someReceived:
		po.Status = POStatusPartial
	default:
		po.Status = POStatusConfirmed
	}
	return po.Status
}

// Totals returns ordered, received and remaining quantity over all lines
func (po *PurchaseOrder) Totals() (ordered, received, remaining int) {
	for _, item := range po.Items {
		ordered += item.OrderQty
		received += item.ReceivedQty
		remaining += item.RemainingQty()
	}
	return ordered, received, remaining
}
