package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	shippingapp "github.com/mes/backend/internal/application/shipping"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// ShippingHandler handles boxes, pallets, shipments and customer returns
type ShippingHandler struct {
	BaseHandler
	boxes     *shippingapp.BoxService
	pallets   *shippingapp.PalletService
	shipments *shippingapp.ShipmentService
	returns   *shippingapp.ShipReturnService
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(boxes *shippingapp.BoxService, pallets *shippingapp.PalletService, shipments *shippingapp.ShipmentService, returns *shippingapp.ShipReturnService) *ShippingHandler {
	return &ShippingHandler{boxes: boxes, pallets: pallets, shipments: shipments, returns: returns}
}

// ListBoxes returns a page of boxes
func (h *ShippingHandler) ListBoxes(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partId": "part_id", "palletId": "pallet_id"})
	if !ok {
		return
	}
	p, err := h.boxes.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetBox returns one box
func (h *ShippingHandler) GetBox(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	box, err := h.boxes.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, box)
}

// GetBoxByNo returns a box by its scanned number
func (h *ShippingHandler) GetBoxByNo(c *gin.Context) {
	box, err := h.boxes.GetByBoxNo(c.Request.Context(), h.Actor(c), strings.TrimSpace(c.Param("boxNo")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, box)
}

// UnassignedBoxes lists closed boxes not on a pallet
func (h *ShippingHandler) UnassignedBoxes(c *gin.Context) {
	boxes, err := h.boxes.Unassigned(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, boxes)
}

// CreateBox opens a new box
func (h *ShippingHandler) CreateBox(c *gin.Context) {
	var req shippingapp.CreateBoxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	box, err := h.boxes.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, box)
}

// UpdateBox changes an open box
func (h *ShippingHandler) UpdateBox(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.UpdateBoxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	box, err := h.boxes.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, box)
}

// DeleteBox soft-deletes an open box
func (h *ShippingHandler) DeleteBox(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.boxes.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// AddSerials packs product serials into a box
func (h *ShippingHandler) AddSerials(c *gin.Context) {
	h.serials(c, h.boxes.AddSerials)
}

// RemoveSerials takes product serials out of a box
func (h *ShippingHandler) RemoveSerials(c *gin.Context) {
	h.serials(c, h.boxes.RemoveSerials)
}

func (h *ShippingHandler) serials(c *gin.Context, fn func(ctx context.Context, actor shared.Actor, id uuid.UUID, req shippingapp.SerialsRequest) (*shipping.Box, error)) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.SerialsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	box, err := fn(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, box)
}

// CloseBox seals a box
func (h *ShippingHandler) CloseBox(c *gin.Context) {
	transition(&h.BaseHandler, c, h.boxes.Close)
}

// ReopenBox reopens a closed box
func (h *ShippingHandler) ReopenBox(c *gin.Context) {
	transition(&h.BaseHandler, c, h.boxes.Reopen)
}

// ListPallets returns a page of pallets
func (h *ShippingHandler) ListPallets(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"shipmentId": "shipment_id"})
	if !ok {
		return
	}
	p, err := h.pallets.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetPallet returns one pallet with its boxes
func (h *ShippingHandler) GetPallet(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	pallet, err := h.pallets.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pallet)
}

// CreatePallet opens a new pallet
func (h *ShippingHandler) CreatePallet(c *gin.Context) {
	var req shippingapp.CreatePalletRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	pallet, err := h.pallets.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, pallet)
}

// DeletePallet soft-deletes an empty pallet
func (h *ShippingHandler) DeletePallet(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.pallets.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// AddBoxes stacks boxes on a pallet
func (h *ShippingHandler) AddBoxes(c *gin.Context) {
	h.palletBoxes(c, h.pallets.AddBoxes)
}

// RemoveBoxes takes boxes off a pallet
func (h *ShippingHandler) RemoveBoxes(c *gin.Context) {
	h.palletBoxes(c, h.pallets.RemoveBoxes)
}

func (h *ShippingHandler) palletBoxes(c *gin.Context, fn func(ctx context.Context, actor shared.Actor, id uuid.UUID, req shippingapp.BoxIDsRequest) (*shipping.Pallet, error)) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.BoxIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pallet, err := fn(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pallet)
}

// ClosePallet seals a pallet
func (h *ShippingHandler) ClosePallet(c *gin.Context) {
	transition(&h.BaseHandler, c, h.pallets.Close)
}

// ReopenPallet reopens a closed pallet
func (h *ShippingHandler) ReopenPallet(c *gin.Context) {
	transition(&h.BaseHandler, c, h.pallets.Reopen)
}

// AssignShipment puts a closed pallet on a shipment
func (h *ShippingHandler) AssignShipment(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.AssignShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pallet, err := h.pallets.AssignToShipment(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pallet)
}

// ListShipments returns a page of shipments
func (h *ShippingHandler) ListShipments(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"customerId": "customer_id", "vehicleNo": "vehicle_no"})
	if !ok {
		return
	}
	p, err := h.shipments.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetShipment returns one shipment with its pallets
func (h *ShippingHandler) GetShipment(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	shipment, err := h.shipments.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipment)
}

// CreateShipment plans a shipment
func (h *ShippingHandler) CreateShipment(c *gin.Context) {
	var req shippingapp.CreateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	shipment, err := h.shipments.Create(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, shipment)
}

// UpdateShipment changes a preparing shipment
func (h *ShippingHandler) UpdateShipment(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.UpdateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	shipment, err := h.shipments.Update(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipment)
}

// DeleteShipment soft-deletes an empty shipment
func (h *ShippingHandler) DeleteShipment(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	if err := h.shipments.Delete(c.Request.Context(), h.Actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c)
}

// LoadPallets puts pallets on a shipment
func (h *ShippingHandler) LoadPallets(c *gin.Context) {
	h.shipmentPallets(c, h.shipments.LoadPallets)
}

// UnloadPallets takes pallets off a shipment
func (h *ShippingHandler) UnloadPallets(c *gin.Context) {
	h.shipmentPallets(c, h.shipments.UnloadPallets)
}

func (h *ShippingHandler) shipmentPallets(c *gin.Context, fn func(ctx context.Context, actor shared.Actor, id uuid.UUID, req shippingapp.PalletIDsRequest) (*shipping.Shipment, error)) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.PalletIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	shipment, err := fn(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipment)
}

// MarkLoaded moves a shipment to LOADED
func (h *ShippingHandler) MarkLoaded(c *gin.Context) {
	transition(&h.BaseHandler, c, h.shipments.MarkLoaded)
}

// MarkShipped ships a loaded shipment
func (h *ShippingHandler) MarkShipped(c *gin.Context) {
	transition(&h.BaseHandler, c, h.shipments.Ship)
}

// MarkDelivered confirms delivery
func (h *ShippingHandler) MarkDelivered(c *gin.Context) {
	transition(&h.BaseHandler, c, h.shipments.MarkDelivered)
}

// CancelShipment cancels a shipment and frees its pallets
func (h *ShippingHandler) CancelShipment(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.CancelRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	shipment, err := h.shipments.Cancel(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipment)
}

// ChangeShipmentStatus applies an explicit status change
func (h *ShippingHandler) ChangeShipmentStatus(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req shippingapp.ChangeShipmentStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	shipment, err := h.shipments.ChangeStatus(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipment)
}

// UnsyncedShipments lists shipped shipments not yet sent to the ERP
func (h *ShippingHandler) UnsyncedShipments(c *gin.Context) {
	rows, err := h.shipments.Unsynced(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// MarkShipmentsSynced flags shipments as sent to the ERP
func (h *ShippingHandler) MarkShipmentsSynced(c *gin.Context) {
	var req shippingapp.SyncRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.shipments.MarkSynced(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"count": n})
}

// ShipmentStats returns shipment counts and quantities
func (h *ShippingHandler) ShipmentStats(c *gin.Context) {
	var r shippingapp.StatsRange
	if !h.BindQuery(c, &r) {
		return
	}
	stats, err := h.shipments.Stats(c.Request.Context(), h.Actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// RegisterRoutes registers the shipping routes
func (h *ShippingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("shipping", "/shipping")

	g.Group("boxes", "/boxes").
		GET("", h.ListBoxes).
		GET("/unassigned", h.UnassignedBoxes).
		GET("/box-no/:boxNo", h.GetBoxByNo).
		GET("/:id", h.GetBox).
		POST("", h.CreateBox).
		PUT("/:id", h.UpdateBox).
		DELETE("/:id", h.DeleteBox).
		POST("/:id/serials", h.AddSerials).
		DELETE("/:id/serials", h.RemoveSerials).
		PATCH("/:id/close", h.CloseBox).
		PATCH("/:id/reopen", h.ReopenBox)

	g.Group("pallets", "/pallets").
		GET("", h.ListPallets).
		GET("/:id", h.GetPallet).
		POST("", h.CreatePallet).
		DELETE("/:id", h.DeletePallet).
		POST("/:id/boxes", h.AddBoxes).
		DELETE("/:id/boxes", h.RemoveBoxes).
		PATCH("/:id/close", h.ClosePallet).
		PATCH("/:id/reopen", h.ReopenPallet).
		PATCH("/:id/assign-shipment", h.AssignShipment)

	g.Group("shipments", "/shipments").
		GET("", h.ListShipments).
		GET("/stats", h.ShipmentStats).
		GET("/erp/unsynced", h.UnsyncedShipments).
		POST("/erp/mark-synced", h.MarkShipmentsSynced).
		GET("/:id", h.GetShipment).
		POST("", h.CreateShipment).
		PUT("/:id", h.UpdateShipment).
		DELETE("/:id", h.DeleteShipment).
		POST("/:id/pallets", h.LoadPallets).
		DELETE("/:id/pallets", h.UnloadPallets).
		PATCH("/:id/mark-loaded", h.MarkLoaded).
		PATCH("/:id/mark-shipped", h.MarkShipped).
		PATCH("/:id/mark-delivered", h.MarkDelivered).
		PATCH("/:id/cancel", h.CancelShipment).
		PUT("/:id/status", h.ChangeShipmentStatus)

	g.Group("returns", "/returns").
		GET("", h.ListReturns).
		GET("/stats", h.ReturnStats).
		GET("/:id", h.GetReturn).
		POST("", h.CreateReturn).
		PUT("/:id", h.UpdateReturn).
		PATCH("/:id/confirm", h.ConfirmReturn).
		PATCH("/:id/complete", h.CompleteReturn).
		DELETE("/:id", h.DeleteReturn)

	g.RegisterRoutes(rg)
}
