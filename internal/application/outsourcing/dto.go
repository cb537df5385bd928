package outsourcing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateVendorRequest registers a subcontractor
type CreateVendorRequest struct {
	VendorCode    string `json:"vendorCode" binding:"required,max=50"`
	VendorName    string `json:"vendorName" binding:"required,max=200"`
	VendorType    string `json:"vendorType" binding:"omitempty,oneof=SUBCON SUPPLIER"`
	BizNo         string `json:"bizNo" binding:"max=20"`
	CeoName       string `json:"ceoName" binding:"max=100"`
	Address       string `json:"address" binding:"max=500"`
	Tel           string `json:"tel" binding:"max=30"`
	Fax           string `json:"fax" binding:"max=30"`
	Email         string `json:"email" binding:"omitempty,email,max=100"`
	ContactPerson string `json:"contactPerson" binding:"max=100"`
	Remark        string `json:"remark" binding:"max=500"`
}

// UpdateVendorRequest changes a subcontractor
type UpdateVendorRequest struct {
	VendorName    *string `json:"vendorName" binding:"omitempty,max=200"`
	VendorType    *string `json:"vendorType" binding:"omitempty,oneof=SUBCON SUPPLIER"`
	BizNo         *string `json:"bizNo" binding:"omitempty,max=20"`
	CeoName       *string `json:"ceoName" binding:"omitempty,max=100"`
	Address       *string `json:"address" binding:"omitempty,max=500"`
	Tel           *string `json:"tel" binding:"omitempty,max=30"`
	Fax           *string `json:"fax" binding:"omitempty,max=30"`
	Email         *string `json:"email" binding:"omitempty,email,max=100"`
	ContactPerson *string `json:"contactPerson" binding:"omitempty,max=100"`
	UseYn         *string `json:"useYn" binding:"omitempty,yn"`
	Remark        *string `json:"remark" binding:"omitempty,max=500"`
}

// CreateOrderRequest sends a part out for processing
type CreateOrderRequest struct {
	VendorID  uuid.UUID       `json:"vendorId" binding:"required"`
	PartCode  string          `json:"partCode" binding:"required,max=50"`
	PartName  string          `json:"partName" binding:"max=200"`
	OrderQty  int             `json:"orderQty" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	OrderDate *time.Time      `json:"orderDate"`
	DueDate   *time.Time      `json:"dueDate"`
	Remark    string          `json:"remark" binding:"max=500"`
}

// UpdateOrderRequest changes an order; quantity and price only while ORDERED
type UpdateOrderRequest struct {
	PartCode  *string          `json:"partCode" binding:"omitempty,max=50"`
	PartName  *string          `json:"partName" binding:"omitempty,max=200"`
	OrderQty  *int             `json:"orderQty" binding:"omitempty,min=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	OrderDate *time.Time       `json:"orderDate"`
	DueDate   *time.Time       `json:"dueDate"`
	Remark    *string          `json:"remark" binding:"omitempty,max=500"`
}

// CreateDeliveryRequest records material sent to the vendor
type CreateDeliveryRequest struct {
	OrderID  uuid.UUID `json:"orderId" binding:"required"`
	LotNo    string    `json:"lotNo" binding:"max=50"`
	Qty      int       `json:"qty" binding:"required,min=1"`
	WorkerID string    `json:"workerId" binding:"max=50"`
	Remark   string    `json:"remark" binding:"max=500"`
}

// CreateReceiveRequest records processed goods coming back
type CreateReceiveRequest struct {
	OrderID       uuid.UUID `json:"orderId" binding:"required"`
	LotNo         string    `json:"lotNo" binding:"max=50"`
	Qty           int       `json:"qty" binding:"required,min=1"`
	GoodQty       *int      `json:"goodQty" binding:"omitempty,min=0"`
	DefectQty     *int      `json:"defectQty" binding:"omitempty,min=0"`
	InspectResult string    `json:"inspectResult" binding:"omitempty,oneof=PASS FAIL"`
	WorkerID      string    `json:"workerId" binding:"max=50"`
	Remark        string    `json:"remark" binding:"max=500"`
}
