package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ShipmentService loads pallets onto shipments and dispatches them
type ShipmentService struct {
	shipments shipping.ShipmentRepository
	pallets   shipping.PalletRepository
	tx        TransactionScope
	events    shared.EventPublisher
	now       func() time.Time
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(shipments shipping.ShipmentRepository, pallets shipping.PalletRepository, tx TransactionScope, events shared.EventPublisher) *ShipmentService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &ShipmentService{shipments: shipments, pallets: pallets, tx: tx, events: events, now: time.Now}
}

// List returns a page of shipments, newest ship date first
func (s *ShipmentService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[shipping.Shipment], error) {
	items, total, err := s.shipments.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[shipping.Shipment]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns a shipment with its pallets
func (s *ShipmentService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if shipment.Pallets, err = s.pallets.FindByShipment(ctx, actor, id); err != nil {
		return nil, err
	}
	return shipment, nil
}

// Create plans a PREPARING shipment
func (s *ShipmentService) Create(ctx context.Context, actor shared.Actor, req CreateShipmentRequest) (*shipping.Shipment, error) {
	var shipment *shipping.Shipment
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		shipNo := shared.NormalizeScan(req.ShipNo)
		if shipNo == "" {
			var err error
			shipNo, err = drawNumber(ctx, repos.Rules(), actor, numbering.RuleShipment, "SHP", countBy[shipping.Shipment](repos.Shipments(), actor), s.now())
			if err != nil {
				return err
			}
		}
		if err := shared.EnsureUnique(ctx, repos.Shipments(), actor, shared.Conds{"ship_no": shipNo}, nil, "shipNo", shipNo); err != nil {
			return err
		}
		var err error
		if shipment, err = shipping.NewShipment(actor, shipNo); err != nil {
			return err
		}
		shipment.ShipDate = req.ShipDate
		shipment.CustomerID = req.CustomerID
		shipment.CustomerName = req.CustomerName
		shipment.Destination = req.Destination
		shipment.VehicleNo = req.VehicleNo
		shipment.DriverName = req.DriverName
		shipment.Remark = req.Remark
		return repos.Shipments().Create(ctx, shipment)
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

// Update changes a shipment that has not left the plant
func (s *ShipmentService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateShipmentRequest) (*shipping.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := shipment.CanModify(); err != nil {
		return nil, err
	}
	if req.ShipDate != nil {
		shipment.ShipDate = req.ShipDate
	}
	if req.CustomerID != nil {
		shipment.CustomerID = req.CustomerID
	}
	if req.CustomerName != nil {
		shipment.CustomerName = *req.CustomerName
	}
	if req.Destination != nil {
		shipment.Destination = *req.Destination
	}
	if req.VehicleNo != nil {
		shipment.VehicleNo = *req.VehicleNo
	}
	if req.DriverName != nil {
		shipment.DriverName = *req.DriverName
	}
	if req.Remark != nil {
		shipment.Remark = *req.Remark
	}
	shipment.Touch(actor.UserID)
	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

// Delete removes a shipment that has not left and carries no pallets
func (s *ShipmentService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	shipment, err := s.shipments.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := shipment.CanDelete(); err != nil {
		return err
	}
	return s.shipments.SoftDelete(ctx, actor, id)
}

// LoadPallets puts CLOSED pallets on a PREPARING shipment; each becomes LOADED
func (s *ShipmentService) LoadPallets(ctx context.Context, actor shared.Actor, id uuid.UUID, req PalletIDsRequest) (*shipping.Shipment, error) {
	return s.inTx(ctx, actor, id, func(repos Repositories, shipment *shipping.Shipment) error {
		pallets, err := loadPallets(ctx, repos.Pallets(), actor, req.PalletIDs)
		if err != nil {
			return err
		}
		return loadOnto(ctx, repos, actor, shipment, pallets)
	})
}

// UnloadPallets takes pallets off a PREPARING shipment; they return to CLOSED
func (s *ShipmentService) UnloadPallets(ctx context.Context, actor shared.Actor, id uuid.UUID, req PalletIDsRequest) (*shipping.Shipment, error) {
	return s.inTx(ctx, actor, id, func(repos Repositories, shipment *shipping.Shipment) error {
		pallets, err := loadPallets(ctx, repos.Pallets(), actor, req.PalletIDs)
		if err != nil {
			return err
		}
		if err := shipment.UnloadPallets(pallets); err != nil {
			return err
		}
		if err := savePallets(ctx, repos.Pallets(), actor, pallets); err != nil {
			return err
		}
		return recount(ctx, repos, actor, shipment)
	})
}

// MarkLoaded finishes loading a PREPARING shipment that has pallets
func (s *ShipmentService) MarkLoaded(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Shipment, error) {
	return s.inTx(ctx, actor, id, func(repos Repositories, shipment *shipping.Shipment) error {
		return shipment.MarkLoaded(actor.UserID)
	})
}

// Ship dispatches a LOADED shipment. Boxes with a FAIL or PENDING OQC verdict block it;
// every pallet and box on the shipment becomes SHIPPED.
func (s *ShipmentService) Ship(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Shipment, error) {
	shipment, err := s.inTx(ctx, actor, id, func(repos Repositories, shipment *shipping.Shipment) error {
		pallets, err := repos.Pallets().FindByShipment(ctx, actor, shipment.ID)
		if err != nil {
			return err
		}
		palletIDs := make([]uuid.UUID, len(pallets))
		for i, p := range pallets {
			palletIDs[i] = p.ID
		}
		boxes, err := repos.Boxes().FindByPallets(ctx, actor, palletIDs)
		if err != nil {
			return err
		}
		now := s.now()
		if err := shipment.Ship(boxes, now, actor.UserID); err != nil {
			return err
		}
		for i := range pallets {
			pallets[i].Status = shipping.PalletShipped
			pallets[i].Touch(actor.UserID)
			if err := repos.Pallets().Save(ctx, &pallets[i]); err != nil {
				return err
			}
		}
		for i := range boxes {
			boxes[i].Status = shipping.BoxShipped
			boxes[i].ShipAt = &now
			boxes[i].Touch(actor.UserID)
			if err := repos.Boxes().Save(ctx, &boxes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("shipment dispatched",
		zap.String("ship_no", shipment.ShipNo),
		zap.Int("pallets", shipment.PalletCount),
		zap.Int("qty", shipment.TotalQty))
	if err := s.events.Publish(ctx, shipping.NewShipmentShipped(shipment)); err != nil {
		logger.L(ctx).Warn("publish shipment shipped failed", zap.Error(err))
	}
	return shipment, nil
}

// MarkDelivered confirms arrival of a SHIPPED shipment
func (s *ShipmentService) MarkDelivered(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Shipment, error) {
	return s.inTx(ctx, actor, id, func(repos Repositories, shipment *shipping.Shipment) error {
		return shipment.MarkDelivered(s.now(), actor.UserID)
	})
}

// Cancel voids a PREPARING or LOADED shipment and releases its pallets
func (s *ShipmentService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID, req CancelRequest) (*shipping.Shipment, error) {
	return s.inTx(ctx, actor, id, func(repos Repositories, shipment *shipping.Shipment) error {
		loaded, err := repos.Pallets().FindByShipment(ctx, actor, shipment.ID)
		if err != nil {
			return err
		}
		pallets := make([]*shipping.Pallet, len(loaded))
		for i := range loaded {
			pallets[i] = &loaded[i]
		}
		if err := shipment.Cancel(pallets, req.Remark, actor.UserID); err != nil {
			return err
		}
		return savePallets(ctx, repos.Pallets(), actor, pallets)
	})
}

// ChangeStatus forces a status; for administrators repairing data
func (s *ShipmentService) ChangeStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req ChangeShipmentStatusRequest) (*shipping.Shipment, error) {
	return s.inTx(ctx, actor, id, func(repos Repositories, shipment *shipping.Shipment) error {
		return shipment.ForceStatus(shipping.ShipmentStatus(req.Status), actor.UserID)
	})
}

// Unsynced returns shipped or delivered shipments not yet sent to the ERP
func (s *ShipmentService) Unsynced(ctx context.Context, actor shared.Actor) ([]shipping.Shipment, error) {
	items, err := s.shipments.FindUnsynced(ctx, actor)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []shipping.Shipment{}
	}
	return items, nil
}

// MarkSynced flags shipments as sent to the ERP and returns how many were updated
func (s *ShipmentService) MarkSynced(ctx context.Context, actor shared.Actor, req SyncRequest) (int, error) {
	count := 0
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		items, err := repos.Shipments().FindByIDs(ctx, actor, req.IDs)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].MarkSynced(actor.UserID)
			if err := repos.Shipments().Save(ctx, &items[i]); err != nil {
				return err
			}
		}
		count = len(items)
		return nil
	})
	return count, err
}

// Stats totals shipped and delivered shipments by ship date, the current month by default
func (s *ShipmentService) Stats(ctx context.Context, actor shared.Actor, r StatsRange) (shipping.ShipmentStats, error) {
	from, to, err := r.window(s.now())
	if err != nil {
		return shipping.ShipmentStats{}, err
	}
	return s.shipments.Stats(ctx, actor, from, to)
}

func (s *ShipmentService) inTx(ctx context.Context, actor shared.Actor, id uuid.UUID, fn func(Repositories, *shipping.Shipment) error) (*shipping.Shipment, error) {
	var shipment *shipping.Shipment
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		if shipment, err = repos.Shipments().FindByID(ctx, actor, id); err != nil {
			return err
		}
		if err := fn(repos, shipment); err != nil {
			return err
		}
		return repos.Shipments().Save(ctx, shipment)
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

// loadOnto assigns pallets to shipment and refreshes its totals. The caller saves the shipment.
func loadOnto(ctx context.Context, repos Repositories, actor shared.Actor, shipment *shipping.Shipment, pallets []*shipping.Pallet) error {
	if err := shipment.LoadPallets(pallets); err != nil {
		return err
	}
	if err := savePallets(ctx, repos.Pallets(), actor, pallets); err != nil {
		return err
	}
	if err := recount(ctx, repos, actor, shipment); err != nil {
		return err
	}
	shipment.Touch(actor.UserID)
	return nil
}

func recount(ctx context.Context, repos Repositories, actor shared.Actor, shipment *shipping.Shipment) error {
	on, err := repos.Pallets().FindByShipment(ctx, actor, shipment.ID)
	if err != nil {
		return err
	}
	shipment.Recount(on)
	return nil
}

func loadPallets(ctx context.Context, repo shipping.PalletRepository, actor shared.Actor, ids []uuid.UUID) ([]*shipping.Pallet, error) {
	found, err := repo.FindByIDs(ctx, actor, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(distinct(ids)) {
		return nil, shared.NotFound("pallet", "one or more of the requested pallets")
	}
	out := make([]*shipping.Pallet, len(found))
	for i := range found {
		out[i] = &found[i]
	}
	return out, nil
}

func savePallets(ctx context.Context, repo shipping.PalletRepository, actor shared.Actor, pallets []*shipping.Pallet) error {
	for _, p := range pallets {
		p.Touch(actor.UserID)
		if err := repo.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
