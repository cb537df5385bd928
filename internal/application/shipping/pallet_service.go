package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
)

// PalletService stacks closed boxes onto pallets
type PalletService struct {
	pallets shipping.PalletRepository
	boxes   shipping.BoxRepository
	tx      TransactionScope
	now     func() time.Time
}

// NewPalletService creates a new PalletService
func NewPalletService(pallets shipping.PalletRepository, boxes shipping.BoxRepository, tx TransactionScope) *PalletService {
	return &PalletService{pallets: pallets, boxes: boxes, tx: tx, now: time.Now}
}

// List returns a page of pallets
func (s *PalletService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[shipping.Pallet], error) {
	items, total, err := s.pallets.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[shipping.Pallet]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns a pallet with its boxes
func (s *PalletService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Pallet, error) {
	pallet, err := s.pallets.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if pallet.Boxes, err = s.boxes.FindByPallet(ctx, actor, id); err != nil {
		return nil, err
	}
	return pallet, nil
}

// Create opens an empty pallet
func (s *PalletService) Create(ctx context.Context, actor shared.Actor, req CreatePalletRequest) (*shipping.Pallet, error) {
	var pallet *shipping.Pallet
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		palletNo := shared.NormalizeScan(req.PalletNo)
		if palletNo == "" {
			var err error
			palletNo, err = drawNumber(ctx, repos.Rules(), actor, numbering.RulePallet, "PLT", countBy[shipping.Pallet](repos.Pallets(), actor), s.now())
			if err != nil {
				return err
			}
		}
		if err := shared.EnsureUnique(ctx, repos.Pallets(), actor, shared.Conds{"pallet_no": palletNo}, nil, "palletNo", palletNo); err != nil {
			return err
		}
		var err error
		if pallet, err = shipping.NewPallet(actor, palletNo); err != nil {
			return err
		}
		pallet.Remark = req.Remark
		return repos.Pallets().Create(ctx, pallet)
	})
	if err != nil {
		return nil, err
	}
	return pallet, nil
}

// Delete removes an empty pallet that is not on a shipment
func (s *PalletService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	pallet, err := s.pallets.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := pallet.CanDelete(); err != nil {
		return err
	}
	return s.pallets.SoftDelete(ctx, actor, id)
}

// AddBoxes puts closed, unassigned boxes on an OPEN pallet
func (s *PalletService) AddBoxes(ctx context.Context, actor shared.Actor, id uuid.UUID, req BoxIDsRequest) (*shipping.Pallet, error) {
	return s.moveBoxes(ctx, actor, id, req.BoxIDs, (*shipping.Pallet).AddBoxes)
}

// RemoveBoxes takes boxes off an OPEN pallet
func (s *PalletService) RemoveBoxes(ctx context.Context, actor shared.Actor, id uuid.UUID, req BoxIDsRequest) (*shipping.Pallet, error) {
	return s.moveBoxes(ctx, actor, id, req.BoxIDs, (*shipping.Pallet).RemoveBoxes)
}

func (s *PalletService) moveBoxes(ctx context.Context, actor shared.Actor, id uuid.UUID, boxIDs []uuid.UUID, move func(*shipping.Pallet, []*shipping.Box) error) (*shipping.Pallet, error) {
	var pallet *shipping.Pallet
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		if pallet, err = repos.Pallets().FindByID(ctx, actor, id); err != nil {
			return err
		}
		boxes, err := loadBoxes(ctx, repos.Boxes(), actor, boxIDs)
		if err != nil {
			return err
		}
		if err := move(pallet, boxes); err != nil {
			return err
		}
		if err := saveBoxes(ctx, repos.Boxes(), actor, boxes); err != nil {
			return err
		}
		on, err := repos.Boxes().FindByPallet(ctx, actor, pallet.ID)
		if err != nil {
			return err
		}
		pallet.Recount(on)
		pallet.Touch(actor.UserID)
		if err := repos.Pallets().Save(ctx, pallet); err != nil {
			return err
		}
		pallet.Boxes = on
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pallet, nil
}

// Close seals a pallet that holds boxes
func (s *PalletService) Close(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Pallet, error) {
	return s.apply(ctx, actor, id, func(p *shipping.Pallet) error {
		return p.Close(s.now(), actor.UserID)
	})
}

// Reopen opens a closed pallet that is not on a shipment
func (s *PalletService) Reopen(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Pallet, error) {
	return s.apply(ctx, actor, id, func(p *shipping.Pallet) error {
		return p.Reopen(actor.UserID)
	})
}

// AssignToShipment loads a CLOSED pallet onto a PREPARING shipment
func (s *PalletService) AssignToShipment(ctx context.Context, actor shared.Actor, id uuid.UUID, req AssignShipmentRequest) (*shipping.Pallet, error) {
	var pallet *shipping.Pallet
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		shipment, err := repos.Shipments().FindByID(ctx, actor, req.ShipmentID)
		if err != nil {
			return err
		}
		if pallet, err = repos.Pallets().FindByID(ctx, actor, id); err != nil {
			return err
		}
		if err := loadOnto(ctx, repos, actor, shipment, []*shipping.Pallet{pallet}); err != nil {
			return err
		}
		return repos.Shipments().Save(ctx, shipment)
	})
	if err != nil {
		return nil, err
	}
	return pallet, nil
}

func (s *PalletService) apply(ctx context.Context, actor shared.Actor, id uuid.UUID, fn func(*shipping.Pallet) error) (*shipping.Pallet, error) {
	pallet, err := s.pallets.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(pallet); err != nil {
		return nil, err
	}
	if err := s.pallets.Save(ctx, pallet); err != nil {
		return nil, err
	}
	return pallet, nil
}

// loadBoxes fetches every requested box or fails with NOT_FOUND
func loadBoxes(ctx context.Context, repo shipping.BoxRepository, actor shared.Actor, ids []uuid.UUID) ([]*shipping.Box, error) {
	found, err := repo.FindByIDs(ctx, actor, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(distinct(ids)) {
		return nil, shared.NotFound("box", "one or more of the requested boxes")
	}
	out := make([]*shipping.Box, len(found))
	for i := range found {
		out[i] = &found[i]
	}
	return out, nil
}

func saveBoxes(ctx context.Context, repo shipping.BoxRepository, actor shared.Actor, boxes []*shipping.Box) error {
	for _, b := range boxes {
		b.Touch(actor.UserID)
		b.Part = nil
		if err := repo.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func distinct(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
