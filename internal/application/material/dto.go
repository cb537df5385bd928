package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// POItemRequest is one line of a purchase order
type POItemRequest struct {
	PartID    uuid.UUID       `json:"partId" binding:"required"`
	OrderQty  int             `json:"orderQty" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Remark    string          `json:"remark" binding:"max=500"`
}

// CreatePORequest creates a draft purchase order
type CreatePORequest struct {
	PoNo        string          `json:"poNo" binding:"required,max=50"`
	PartnerID   *uuid.UUID      `json:"partnerId"`
	PartnerName string          `json:"partnerName" binding:"max=200"`
	OrderDate   time.Time       `json:"orderDate"`
	DueDate     *time.Time      `json:"dueDate"`
	Remark      string          `json:"remark" binding:"max=500"`
	Items       []POItemRequest `json:"items" binding:"dive"`
}

// UpdatePORequest changes header fields and, when Items is set, replaces the lines
type UpdatePORequest struct {
	PartnerID   *uuid.UUID       `json:"partnerId"`
	PartnerName *string          `json:"partnerName" binding:"omitempty,max=200"`
	DueDate     *time.Time       `json:"dueDate"`
	Remark      *string          `json:"remark" binding:"omitempty,max=500"`
	Items       *[]POItemRequest `json:"items"`
}

// POArrivalItem books one PO line into a warehouse
type POArrivalItem struct {
	PoItemID    uuid.UUID `json:"poItemId" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouseId" binding:"required"`
	Qty         int       `json:"qty" binding:"required,min=1"`
	LotNo       string    `json:"lotNo" binding:"max=50"`
	SupUID      string    `json:"supUid" binding:"max=100"`
	Remark      string    `json:"remark" binding:"max=500"`
}

// POArrivalRequest receives material against a purchase order
type POArrivalRequest struct {
	PoID   uuid.UUID       `json:"poId" binding:"required"`
	Items  []POArrivalItem `json:"items" binding:"required,min=1,dive"`
	Remark string          `json:"remark" binding:"max=500"`
}

// ManualArrivalRequest receives material without a purchase order
type ManualArrivalRequest struct {
	PartID      uuid.UUID `json:"partId" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouseId" binding:"required"`
	Qty         int       `json:"qty" binding:"required,min=1"`
	LotNo       string    `json:"lotNo" binding:"max=50"`
	Vendor      string    `json:"vendor" binding:"max=200"`
	SupUID      string    `json:"supUid" binding:"max=100"`
	Remark      string    `json:"remark" binding:"max=500"`
}

// CancelArrivalRequest reverses one arrival movement
type CancelArrivalRequest struct {
	TransactionID uuid.UUID `json:"transactionId" binding:"required"`
	Reason        string    `json:"reason" binding:"max=500"`
}

// ArrivalStats summarizes today's arrivals
type ArrivalStats struct {
	TodayCount        int64 `json:"todayCount"`
	TodayQty          int64 `json:"todayQty"`
	OpenPurchaseOrder int64 `json:"openPurchaseOrders"`
}

// ReceiveItem puts part of a lot away into a warehouse
type ReceiveItem struct {
	LotID       uuid.UUID `json:"lotId" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouseId" binding:"required"`
	Qty         int       `json:"qty" binding:"required,min=1"`
	Remark      string    `json:"remark" binding:"max=500"`
}

// ReceiveRequest puts several lots away in one transaction
type ReceiveRequest struct {
	Items []ReceiveItem `json:"items" binding:"required,min=1,dive"`
}

// ReceivableLot is a lot that passed IQC with quantity left to put away
type ReceivableLot struct {
	LotID        uuid.UUID `json:"lotId"`
	LotNo        string    `json:"lotNo"`
	PartID       uuid.UUID `json:"partId"`
	InitQty      int       `json:"initQty"`
	ReceivedQty  int       `json:"receivedQty"`
	RemainingQty int       `json:"remainingQty"`
}

// IssueItem takes qty out of one lot
type IssueItem struct {
	LotID uuid.UUID `json:"lotId" binding:"required"`
	Qty   int       `json:"qty" binding:"required,min=1"`
}

// IssueRequest issues material from one or more lots
type IssueRequest struct {
	JobOrderID  *uuid.UUID  `json:"jobOrderId"`
	WarehouseID *uuid.UUID  `json:"warehouseId"`
	IssueType   string      `json:"issueType" binding:"omitempty,oneof=PROD SUBCON SAMPLE ADJ"`
	Items       []IssueItem `json:"items" binding:"required,min=1,dive"`
	Remark      string      `json:"remark" binding:"max=500"`
}

// IqcRequest records an incoming inspection verdict
type IqcRequest struct {
	IqcStatus string `json:"iqcStatus" binding:"required,oneof=PENDING PASS FAIL HOLD"`
}

// MatLabelRequest asks for qty single-piece UID labels cut from an arrival lot
type MatLabelRequest struct {
	LotID     uuid.UUID `json:"lotId" binding:"required"`
	Qty       int       `json:"qty" binding:"required,min=1,max=1000"`
	SupUID    string    `json:"supUid" binding:"max=100"`
	PrintMode string    `json:"printMode" binding:"omitempty,oneof=BROWSER SERVER"`
}

// MatLabel is one printed UID label
type MatLabel struct {
	MatUID   string `json:"matUid"`
	PartCode string `json:"partCode"`
	PartName string `json:"partName"`
	LotNo    string `json:"lotNo"`
	SupUID   string `json:"supUid,omitempty"`
}
