package outsourcing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Document prefixes, rendered as <P>YYYYMMDD<seq4>
const (
	OrderPrefix    = "SCO"
	DeliveryPrefix = "SCD"
	ReceivePrefix  = "SCR"
)

// Vendor is a subcontractor that processes material outside the plant
type Vendor struct {
	shared.TenantEntity
	VendorCode    string `gorm:"type:varchar(50);not null;index" json:"vendorCode"`
	VendorName    string `gorm:"type:varchar(200);not null" json:"vendorName"`
	VendorType    string `gorm:"type:varchar(20)" json:"vendorType,omitempty"`
	BizNo         string `gorm:"type:varchar(20)" json:"bizNo,omitempty"`
	CeoName       string `gorm:"type:varchar(100)" json:"ceoName,omitempty"`
	Address       string `gorm:"type:varchar(500)" json:"address,omitempty"`
	Tel           string `gorm:"type:varchar(30)" json:"tel,omitempty"`
	Fax           string `gorm:"type:varchar(30)" json:"fax,omitempty"`
	Email         string `gorm:"type:varchar(100)" json:"email,omitempty"`
	ContactPerson string `gorm:"type:varchar(100)" json:"contactPerson,omitempty"`
	UseYn         string `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark        string `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return "subcon_vendors"
}

// NewVendor creates an active vendor
func NewVendor(actor shared.Actor, code, name string) (*Vendor, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.InvalidInput("vendorCode is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.InvalidInput("vendorName is required")
	}
	return &Vendor{
		TenantEntity: shared.NewTenantEntity(actor),
		VendorCode:   code,
		VendorName:   name,
		UseYn:        shared.Yes,
	}, nil
}

// OrderStatus is the state of a subcontract order
type OrderStatus string

const (
	OrderOrdered     OrderStatus = "ORDERED"
	OrderDelivered   OrderStatus = "DELIVERED"
	OrderPartialRecv OrderStatus = "PARTIAL_RECV"
	OrderReceived    OrderStatus = "RECEIVED"
	OrderCanceled    OrderStatus = "CANCELED"
)

// ActiveStatuses are orders still in progress
var ActiveStatuses = []OrderStatus{OrderOrdered, OrderDelivered, OrderPartialRecv}

// AtVendorStatuses are orders with material sitting at the vendor
var AtVendorStatuses = []OrderStatus{OrderDelivered, OrderPartialRecv}

// Order sends material to a vendor for processing
type Order struct {
	shared.TenantEntity
	OrderNo      string          `gorm:"type:varchar(50);not null;index" json:"orderNo"`
	VendorID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendorId"`
	PartCode     string          `gorm:"type:varchar(50);not null;index" json:"partCode"`
	PartName     string          `gorm:"type:varchar(200)" json:"partName,omitempty"`
	OrderQty     int             `gorm:"not null" json:"orderQty"`
	DeliveredQty int             `gorm:"not null;default:0" json:"deliveredQty"`
	ReceivedQty  int             `gorm:"not null;default:0" json:"receivedQty"`
	DefectQty    int             `gorm:"not null;default:0" json:"defectQty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unitPrice"`
	OrderDate    time.Time       `gorm:"not null;index" json:"orderDate"`
	DueDate      *time.Time      `json:"dueDate,omitempty"`
	Status       OrderStatus     `gorm:"type:varchar(15);not null;default:'ORDERED';index" json:"status"`
	Remark       string          `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Vendor       *Vendor         `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Deliveries   []Delivery      `gorm:"foreignKey:OrderID" json:"deliveries,omitempty"`
	Receives     []Receive       `gorm:"foreignKey:OrderID" json:"receives,omitempty"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "subcon_orders"
}

// NewOrder creates an ORDERED subcontract order; a zero order date means now
func NewOrder(actor shared.Actor, orderNo string, vendorID uuid.UUID, partCode string, qty int, unitPrice decimal.Decimal, orderDate time.Time) (*Order, error) {
	if strings.TrimSpace(partCode) == "" {
		return nil, shared.InvalidInput("partCode is required")
	}
	if qty <= 0 {
		return nil, shared.InvalidInput("orderQty must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.InvalidInput("unitPrice cannot be negative")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	return &Order{
		TenantEntity: shared.NewTenantEntity(actor),
		OrderNo:      orderNo,
		VendorID:     vendorID,
		PartCode:     partCode,
		OrderQty:     qty,
		UnitPrice:    unitPrice,
		OrderDate:    orderDate,
		Status:       OrderOrdered,
	}, nil
}

// Amount is orderQty × unitPrice
func (o *Order) Amount() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.OrderQty)))
}

// RemainingDelivery is the qty still to send to the vendor
func (o *Order) RemainingDelivery() int {
	return o.OrderQty - o.DeliveredQty
}

// AtVendorQty is material delivered but not yet returned
func (o *Order) AtVendorQty() int {
	return o.DeliveredQty - o.ReceivedQty
}

// Cancel voids an order that has not progressed past ORDERED
func (o *Order) Cancel(userID string) error {
	if o.Status != OrderOrdered {
		return shared.InvalidState("order %s is %s, only ORDERED can be canceled", o.OrderNo, o.Status)
	}
	o.Status = OrderCanceled
	o.Touch(userID)
	return nil
}

// Deliver records material sent; the order becomes DELIVERED once fully sent
func (o *Order) Deliver(qty int, userID string) error {
	if o.Status == OrderCanceled {
		return shared.InvalidState("order %s is canceled", o.OrderNo)
	}
	if qty <= 0 {
		return shared.InvalidInput("qty must be positive")
	}
	if remain := o.RemainingDelivery(); qty > remain {
		return shared.InvalidInput("delivery qty %d exceeds remaining %d", qty, remain)
	}
	o.DeliveredQty += qty
	if o.DeliveredQty >= o.OrderQty {
		o.Status = OrderDelivered
	} else {
		o.Status = OrderOrdered
	}
	o.Touch(userID)
	return nil
}

// Receive records goods returned from the vendor
func (o *Order) Receive(qty, defectQty int, userID string) error {
	if o.Status == OrderCanceled {
		return shared.InvalidState("order %s is canceled", o.OrderNo)
	}
	if qty <= 0 {
		return shared.InvalidInput("qty must be positive")
	}
	o.ReceivedQty += qty
	o.DefectQty += defectQty
	switch {
	case o.ReceivedQty >= o.OrderQty:
		o.Status = OrderReceived
	case o.ReceivedQty > 0:
		o.Status = OrderPartialRecv
	}
	o.Touch(userID)
	return nil
}

// Delivery is material shipped to the vendor against an order
type Delivery struct {
	shared.TenantEntity
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"orderId"`
	DeliveryNo string    `gorm:"type:varchar(50);not null;index" json:"deliveryNo"`
	LotNo      string    `gorm:"type:varchar(50)" json:"lotNo,omitempty"`
	Qty        int       `gorm:"not null" json:"qty"`
	WorkerID   string    `gorm:"type:varchar(50)" json:"workerId,omitempty"`
	Remark     string    `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Delivery) TableName() string {
	return "subcon_deliveries"
}

// NewDelivery creates a delivery record
func NewDelivery(actor shared.Actor, orderID uuid.UUID, deliveryNo string, qty int) *Delivery {
	return &Delivery{
		TenantEntity: shared.NewTenantEntity(actor),
		OrderID:      orderID,
		DeliveryNo:   deliveryNo,
		Qty:          qty,
		WorkerID:     actor.UserID,
	}
}

// Receive is processed goods returned by the vendor
type Receive struct {
	shared.TenantEntity
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"orderId"`
	ReceiveNo     string    `gorm:"type:varchar(50);not null;index" json:"receiveNo"`
	LotNo         string    `gorm:"type:varchar(50)" json:"lotNo,omitempty"`
	Qty           int       `gorm:"not null" json:"qty"`
	GoodQty       int       `gorm:"not null" json:"goodQty"`
	DefectQty     int       `gorm:"not null;default:0" json:"defectQty"`
	InspectResult string    `gorm:"type:varchar(10)" json:"inspectResult,omitempty"`
	WorkerID      string    `gorm:"type:varchar(50)" json:"workerId,omitempty"`
	Remark        string    `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Receive) TableName() string {
	return "subcon_receives"
}

// NewReceive creates a receive record; a nil goodQty means all qty is good
func NewReceive(actor shared.Actor, orderID uuid.UUID, receiveNo string, qty int, goodQty, defectQty *int) *Receive {
	r := &Receive{
		TenantEntity: shared.NewTenantEntity(actor),
		OrderID:      orderID,
		ReceiveNo:    receiveNo,
		Qty:          qty,
		GoodQty:      qty,
		WorkerID:     actor.UserID,
	}
	if goodQty != nil {
		r.GoodQty = *goodQty
	}
	if defectQty != nil {
		r.DefectQty = *defectQty
	}
	return r
}

// Summary counts subcontract activity
type Summary struct {
	TotalOrders    int64 `json:"totalOrders"`
	ActiveOrders   int64 `json:"activeOrders"`
	PendingReceive int64 `json:"pendingReceive"`
	TotalVendors   int64 `json:"totalVendors"`
}

// VendorStock is material currently held by one vendor
type VendorStock struct {
	VendorID     uuid.UUID `json:"vendorId"`
	VendorCode   string    `json:"vendorCode"`
	VendorName   string    `json:"vendorName"`
	DeliveredQty int       `json:"deliveredQty"`
	ReceivedQty  int       `json:"receivedQty"`
	StockQty     int       `json:"stockQty"`
}

// StockByVendor folds orders with material at vendors into per-vendor totals, ordered by first appearance
func StockByVendor(orders []Order) []VendorStock {
	index := make(map[uuid.UUID]int)
	var out []VendorStock
	for _, o := range orders {
		i, ok := index[o.VendorID]
		if !ok {
			vs := VendorStock{VendorID: o.VendorID}
			if o.Vendor != nil {
				vs.VendorCode = o.Vendor.VendorCode
				vs.VendorName = o.Vendor.VendorName
			}
			out = append(out, vs)
			i = len(out) - 1
			index[o.VendorID] = i
		}
		out[i].DeliveredQty += o.DeliveredQty
		out[i].ReceivedQty += o.ReceivedQty
		out[i].StockQty += o.AtVendorQty()
	}
	return out
}
