package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// CreateBoxRequest opens a box; boxNo is drawn from the BOX rule when empty
type CreateBoxRequest struct {
	BoxNo   string    `json:"boxNo" binding:"max=50"`
	PartID  uuid.UUID `json:"partId" binding:"required"`
	Serials []string  `json:"serials"`
	Remark  string    `json:"remark" binding:"max=500"`
}

// UpdateBoxRequest changes a box that has not shipped
type UpdateBoxRequest struct {
	Remark *string `json:"remark" binding:"omitempty,max=500"`
}

// SerialsRequest lists serials to add to or remove from a box
type SerialsRequest struct {
	Serials []string `json:"serials" binding:"required,min=1"`
}

// CreatePalletRequest opens a pallet; palletNo is drawn from the PALLET rule when empty
type CreatePalletRequest struct {
	PalletNo string `json:"palletNo" binding:"max=50"`
	Remark   string `json:"remark" binding:"max=500"`
}

// BoxIDsRequest lists boxes to put on or take off a pallet
type BoxIDsRequest struct {
	BoxIDs []uuid.UUID `json:"boxIds" binding:"required,min=1"`
}

// AssignShipmentRequest loads a pallet onto a shipment
type AssignShipmentRequest struct {
	ShipmentID uuid.UUID `json:"shipmentId" binding:"required"`
}

// CreateShipmentRequest plans a shipment; shipNo is drawn from the SHIPMENT rule when empty
type CreateShipmentRequest struct {
	ShipNo       string     `json:"shipNo" binding:"max=50"`
	ShipDate     *time.Time `json:"shipDate"`
	CustomerID   *uuid.UUID `json:"customerId"`
	CustomerName string     `json:"customerName" binding:"max=200"`
	Destination  string     `json:"destination" binding:"max=500"`
	VehicleNo    string     `json:"vehicleNo" binding:"max=50"`
	DriverName   string     `json:"driverName" binding:"max=100"`
	Remark       string     `json:"remark" binding:"max=500"`
}

// UpdateShipmentRequest changes a shipment that has not left
type UpdateShipmentRequest struct {
	ShipDate     *time.Time `json:"shipDate"`
	CustomerID   *uuid.UUID `json:"customerId"`
	CustomerName *string    `json:"customerName" binding:"omitempty,max=200"`
	Destination  *string    `json:"destination" binding:"omitempty,max=500"`
	VehicleNo    *string    `json:"vehicleNo" binding:"omitempty,max=50"`
	DriverName   *string    `json:"driverName" binding:"omitempty,max=100"`
	Remark       *string    `json:"remark" binding:"omitempty,max=500"`
}

// PalletIDsRequest lists pallets to load or unload
type PalletIDsRequest struct {
	PalletIDs []uuid.UUID `json:"palletIds" binding:"required,min=1"`
}

// CancelRequest carries an optional reason
type CancelRequest struct {
	Remark string `json:"remark" binding:"max=500"`
}

// ChangeShipmentStatusRequest forces a shipment status
type ChangeShipmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PREPARING LOADED SHIPPED DELIVERED CANCELED"`
}

// SyncRequest lists the shipments sent to the ERP
type SyncRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// StatsRange bounds shipment and return statistics by date; defaults to the current month
type StatsRange struct {
	From *time.Time `form:"fromDate" time_format:"2006-01-02"`
	To   *time.Time `form:"toDate" time_format:"2006-01-02"`
}

// window resolves the range against now; To covers its whole day
func (r StatsRange) window(now time.Time) (time.Time, time.Time, error) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	if r.From != nil {
		from = *r.From
	}
	if r.To != nil {
		to = time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 23, 59, 59, 0, r.To.Location())
	}
	if from.After(to) {
		return from, to, shared.InvalidInput("fromDate must not be after toDate")
	}
	return from, to, nil
}

// ReturnItemRequest is one returned part line
type ReturnItemRequest struct {
	PartID       uuid.UUID `json:"partId" binding:"required"`
	ReturnQty    int       `json:"returnQty" binding:"required,min=1"`
	DisposalType string    `json:"disposalType" binding:"omitempty,oneof=RESTOCK SCRAP REPAIR"`
	Remark       string    `json:"remark" binding:"max=500"`
}

// CreateReturnRequest registers a customer return; returnNo is RT-YYYYMMDD-NNN when empty
type CreateReturnRequest struct {
	ReturnNo     string              `json:"returnNo" binding:"max=50"`
	ShipmentID   *uuid.UUID          `json:"shipmentId"`
	ReturnDate   *time.Time          `json:"returnDate"`
	ReturnReason string              `json:"returnReason" binding:"max=500"`
	Remark       string              `json:"remark" binding:"max=500"`
	Items        []ReturnItemRequest `json:"items" binding:"dive"`
}

// UpdateReturnRequest changes a DRAFT return; items, when sent, replace the current ones
type UpdateReturnRequest struct {
	ShipmentID   *uuid.UUID           `json:"shipmentId"`
	ReturnDate   *time.Time           `json:"returnDate"`
	ReturnReason *string              `json:"returnReason" binding:"omitempty,max=500"`
	Remark       *string              `json:"remark" binding:"omitempty,max=500"`
	Items        *[]ReturnItemRequest `json:"items" binding:"omitempty,dive"`
}
