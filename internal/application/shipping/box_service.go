// Package shipping packs finished harnesses into boxes, boxes onto pallets
// and pallets onto shipments, dispatches them to customers and takes back
// customer returns.
package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appnum "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	Boxes() shipping.BoxRepository
	Pallets() shipping.PalletRepository
	Shipments() shipping.ShipmentRepository
	ShipReturns() shipping.ShipReturnRepository
	Rules() numbering.RuleRepository
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// countFunc counts live documents whose number contains prefix
type countFunc func(ctx context.Context, prefix string) (int64, error)

// drawNumber takes the next number of ruleType. Without a registered rule it
// falls back to <P>YYYYMMDD<seq3> counted over today's documents.
func drawNumber(ctx context.Context, rules numbering.RuleRepository, actor shared.Actor, ruleType, prefix string, count countFunc, now time.Time) (string, error) {
	no, err := appnum.NextNumberInTx(ctx, rules, actor, ruleType, now)
	if err == nil {
		return no, nil
	}
	if !errors.Is(err, appnum.ErrRuleNotRegistered) {
		return "", err
	}
	n, err := count(ctx, prefix+now.Format("20060102"))
	if err != nil {
		return "", err
	}
	no = numbering.DailyNumber(prefix, now, int(n)+1)
	logger.L(ctx).Debug("numbering rule missing, using fallback",
		zap.String("rule_type", ruleType),
		zap.String("number", no))
	return no, nil
}

func countBy[T any](repo shared.Repository[T], actor shared.Actor) countFunc {
	return func(ctx context.Context, prefix string) (int64, error) {
		_, total, err := repo.List(ctx, actor, shared.Filter{Limit: 1, Search: prefix})
		return total, err
	}
}

// BoxService packs serials into boxes
type BoxService struct {
	boxes shipping.BoxRepository
	parts master.PartRepository
	tx    TransactionScope
	now   func() time.Time
}

// NewBoxService creates a new BoxService
func NewBoxService(boxes shipping.BoxRepository, parts master.PartRepository, tx TransactionScope) *BoxService {
	return &BoxService{boxes: boxes, parts: parts, tx: tx, now: time.Now}
}

// List returns a page of boxes
func (s *BoxService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[shipping.Box], error) {
	items, total, err := s.boxes.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[shipping.Box]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one box
func (s *BoxService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Box, error) {
	return s.boxes.FindByID(ctx, actor, id)
}

// GetByBoxNo looks a box up by a scanned label
func (s *BoxService) GetByBoxNo(ctx context.Context, actor shared.Actor, boxNo string) (*shipping.Box, error) {
	box, err := s.boxes.FindOne(ctx, actor, shared.Conds{"box_no": shared.NormalizeScan(boxNo)})
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NotFound("box", boxNo)
	}
	return box, err
}

// Unassigned lists CLOSED boxes that are not on a pallet
func (s *BoxService) Unassigned(ctx context.Context, actor shared.Actor) ([]shipping.Box, error) {
	boxes, err := s.boxes.FindUnassigned(ctx, actor)
	if err != nil {
		return nil, err
	}
	if boxes == nil {
		boxes = []shipping.Box{}
	}
	return boxes, nil
}

// Create opens a box for a part
func (s *BoxService) Create(ctx context.Context, actor shared.Actor, req CreateBoxRequest) (*shipping.Box, error) {
	if _, err := s.parts.FindByID(ctx, actor, req.PartID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("part", req.PartID)
		}
		return nil, err
	}
	var box *shipping.Box
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		boxNo := shared.NormalizeScan(req.BoxNo)
		if boxNo == "" {
			var err error
			boxNo, err = drawNumber(ctx, repos.Rules(), actor, numbering.RuleBox, "BOX", countBy[shipping.Box](repos.Boxes(), actor), s.now())
			if err != nil {
				return err
			}
		}
		if err := shared.EnsureUnique(ctx, repos.Boxes(), actor, shared.Conds{"box_no": boxNo}, nil, "boxNo", boxNo); err != nil {
			return err
		}
		var err error
		if box, err = shipping.NewBox(actor, boxNo, req.PartID, req.Serials); err != nil {
			return err
		}
		box.Remark = req.Remark
		return repos.Boxes().Create(ctx, box)
	})
	if err != nil {
		return nil, err
	}
	return box, nil
}

// Update changes a box that has not shipped
func (s *BoxService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateBoxRequest) (*shipping.Box, error) {
	return s.apply(ctx, actor, id, func(b *shipping.Box) error {
		if err := b.CanModify(); err != nil {
			return err
		}
		if req.Remark != nil {
			b.Remark = *req.Remark
		}
		return nil
	})
}

// Delete removes a box that is neither shipped nor palletized
func (s *BoxService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	box, err := s.boxes.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := box.CanDelete(); err != nil {
		return err
	}
	return s.boxes.SoftDelete(ctx, actor, id)
}

// AddSerials packs serials into an OPEN box; a serial already in the box is a conflict
func (s *BoxService) AddSerials(ctx context.Context, actor shared.Actor, id uuid.UUID, req SerialsRequest) (*shipping.Box, error) {
	serials := make([]string, 0, len(req.Serials))
	for _, sn := range req.Serials {
		if sn = shared.NormalizeScan(sn); sn != "" {
			serials = append(serials, sn)
		}
	}
	return s.apply(ctx, actor, id, func(b *shipping.Box) error {
		return b.AddSerials(serials)
	})
}

// RemoveSerials takes serials out of an OPEN box
func (s *BoxService) RemoveSerials(ctx context.Context, actor shared.Actor, id uuid.UUID, req SerialsRequest) (*shipping.Box, error) {
	serials := make([]string, len(req.Serials))
	for i, sn := range req.Serials {
		serials[i] = shared.NormalizeScan(sn)
	}
	return s.apply(ctx, actor, id, func(b *shipping.Box) error {
		return b.RemoveSerials(serials)
	})
}

// Close seals a non-empty box
func (s *BoxService) Close(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Box, error) {
	return s.apply(ctx, actor, id, func(b *shipping.Box) error {
		return b.Close(s.now(), actor.UserID)
	})
}

// Reopen opens a closed box that is not on a pallet
func (s *BoxService) Reopen(ctx context.Context, actor shared.Actor, id uuid.UUID) (*shipping.Box, error) {
	return s.apply(ctx, actor, id, func(b *shipping.Box) error {
		return b.Reopen(actor.UserID)
	})
}

func (s *BoxService) apply(ctx context.Context, actor shared.Actor, id uuid.UUID, fn func(*shipping.Box) error) (*shipping.Box, error) {
	box, err := s.boxes.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(box); err != nil {
		return nil, err
	}
	box.Touch(actor.UserID)
	box.Part = nil
	if err := s.boxes.Save(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}
