package shipping

import "github.com/mes/backend/internal/domain/shared"

// EventShipmentShipped is published when a shipment leaves the plant
const EventShipmentShipped = "shipping.shipment.shipped"

// ShipmentShippedEvent carries the totals of a dispatched shipment
type ShipmentShippedEvent struct {
	shared.BaseDomainEvent
	ShipNo       string `json:"shipNo"`
	CustomerName string `json:"customerName,omitempty"`
	PalletCount  int    `json:"palletCount"`
	BoxCount     int    `json:"boxCount"`
	TotalQty     int    `json:"totalQty"`
}

// NewShipmentShipped creates the dispatch event of s
func NewShipmentShipped(s *Shipment) *ShipmentShippedEvent {
	return &ShipmentShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentShipped, "Shipment", s.TenantEntity),
		ShipNo:          s.ShipNo,
		CustomerName:    s.CustomerName,
		PalletCount:     s.PalletCount,
		BoxCount:        s.BoxCount,
		TotalQty:        s.TotalQty,
	}
}

// EventReturnCompleted is published when returned goods have been disposed of
const EventReturnCompleted = "shipping.return.completed"

// ReturnCompletedEvent carries the disposed quantities of a return
type ReturnCompletedEvent struct {
	shared.BaseDomainEvent
	ReturnNo   string         `json:"returnNo"`
	TotalQty   int            `json:"totalQty"`
	ByDisposal map[string]int `json:"byDisposal"`
}

// NewReturnCompleted creates the completion event of r
func NewReturnCompleted(r *ShipReturn) *ReturnCompletedEvent {
	return &ReturnCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReturnCompleted, "ShipReturn", r.TenantEntity),
		ReturnNo:        r.ReturnNo,
		TotalQty:        r.TotalQty,
		ByDisposal:      r.QtyByDisposal(),
	}
}
