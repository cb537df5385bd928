package master

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// PartService manages parts together with their BOM lines and routing steps
type PartService struct {
	parts    master.PartRepository
	boms     master.BomRepository
	routings master.RoutingRepository
}

// NewPartService creates a new PartService
func NewPartService(parts master.PartRepository, boms master.BomRepository, routings master.RoutingRepository) *PartService {
	return &PartService{parts: parts, boms: boms, routings: routings}
}

// List returns a page of parts
func (s *PartService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[master.Part], error) {
	items, total, err := s.parts.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[master.Part]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one part
func (s *PartService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*master.Part, error) {
	return s.parts.FindByID(ctx, actor, id)
}

// Create adds a part; partCode is unique
func (s *PartService) Create(ctx context.Context, actor shared.Actor, req PartRequest) (*master.Part, error) {
	p, err := master.NewPart(actor, req.PartCode, req.PartName, master.PartType(req.PartType))
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.parts, actor, shared.Conds{"part_code": p.PartCode}, nil, "partCode", p.PartCode); err != nil {
		return nil, err
	}
	applyPart(p, req)
	if err := s.parts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces a part's fields
func (s *PartService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req PartRequest) (*master.Part, error) {
	p, err := s.parts.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.PartCode != p.PartCode {
		if err := shared.EnsureUnique(ctx, s.parts, actor, shared.Conds{"part_code": req.PartCode}, &p.ID, "partCode", req.PartCode); err != nil {
			return nil, err
		}
	}
	pt := master.PartType(req.PartType)
	if !pt.IsValid() {
		return nil, shared.InvalidInput("invalid partType: %s", req.PartType)
	}
	p.PartCode = req.PartCode
	p.PartName = req.PartName
	p.PartType = pt
	applyPart(p, req)
	p.Touch(actor.UserID)
	if err := s.parts.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func applyPart(p *master.Part, req PartRequest) {
	if req.Unit != "" {
		p.Unit = req.Unit
	}
	p.Spec = req.Spec
	p.SafetyStock = req.SafetyStock
	p.UseYn = shared.YNOrDefault(req.UseYn, p.UseYn)
	p.Remark = req.Remark
}

// Delete soft-deletes a part
func (s *PartService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.parts.SoftDelete(ctx, actor, id)
}

// ListBoms returns a page of BOM lines
func (s *PartService) ListBoms(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[master.Bom], error) {
	items, total, err := s.boms.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[master.Bom]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetBom returns one BOM line
func (s *PartService) GetBom(ctx context.Context, actor shared.Actor, id uuid.UUID) (*master.Bom, error) {
	return s.boms.FindByID(ctx, actor, id)
}

// CreateBom adds a BOM line; (parent, child, revision) is unique
func (s *PartService) CreateBom(ctx context.Context, actor shared.Actor, req BomRequest) (*master.Bom, error) {
	b, err := master.NewBom(actor, req.ParentPartID, req.ChildPartID, req.QtyPer, req.Revision)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParts(ctx, actor, b.ParentPartID, b.ChildPartID); err != nil {
		return nil, err
	}
	if err := s.ensureBomUnique(ctx, actor, b, nil); err != nil {
		return nil, err
	}
	applyBom(b, req)
	if err := s.boms.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBom replaces a BOM line's fields
func (s *PartService) UpdateBom(ctx context.Context, actor shared.Actor, id uuid.UUID, req BomRequest) (*master.Bom, error) {
	b, err := s.boms.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := master.NewBom(actor, req.ParentPartID, req.ChildPartID, req.QtyPer, req.Revision)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParts(ctx, actor, next.ParentPartID, next.ChildPartID); err != nil {
		return nil, err
	}
	if err := s.ensureBomUnique(ctx, actor, next, &b.ID); err != nil {
		return nil, err
	}
	b.ParentPartID = next.ParentPartID
	b.ChildPartID = next.ChildPartID
	b.QtyPer = next.QtyPer
	b.Revision = next.Revision
	applyBom(b, req)
	b.Touch(actor.UserID)
	if err := s.boms.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func applyBom(b *master.Bom, req BomRequest) {
	b.EcoNo = req.EcoNo
	b.ValidFrom = req.ValidFrom
	b.ValidTo = req.ValidTo
	b.UseYn = shared.YNOrDefault(req.UseYn, b.UseYn)
	b.Remark = req.Remark
}

func (s *PartService) ensureParts(ctx context.Context, actor shared.Actor, ids ...uuid.UUID) error {
	for _, id := range ids {
		if _, err := s.parts.FindByID(ctx, actor, id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("part", id)
			}
			return err
		}
	}
	return nil
}

func (s *PartService) ensureBomUnique(ctx context.Context, actor shared.Actor, b *master.Bom, excludeID *uuid.UUID) error {
	exists, err := s.boms.Exists(ctx, actor, shared.Conds{
		"parent_part_id": b.ParentPartID,
		"child_part_id":  b.ChildPartID,
		"revision":       b.Revision,
	}, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "BOM line already exists for this parent, child and revision")
	}
	return nil
}

// DeleteBom soft-deletes a BOM line
func (s *PartService) DeleteBom(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.boms.SoftDelete(ctx, actor, id)
}

// BomTree expands the active lines under parentID down to depth levels.
// depth <= 0 uses DefaultBomDepth. A part reappearing on its own path is not expanded again.
func (s *PartService) BomTree(ctx context.Context, actor shared.Actor, parentID uuid.UUID, depth int) ([]master.BomNode, error) {
	if depth <= 0 {
		depth = master.DefaultBomDepth
	}
	if err := s.ensureParts(ctx, actor, parentID); err != nil {
		return nil, err
	}
	return s.expand(ctx, actor, parentID, depth, map[uuid.UUID]bool{parentID: true})
}

func (s *PartService) expand(ctx context.Context, actor shared.Actor, parentID uuid.UUID, depth int, path map[uuid.UUID]bool) ([]master.BomNode, error) {
	lines, err := s.boms.FindChildren(ctx, actor, parentID)
	if err != nil {
		return nil, err
	}
	nodes := make([]master.BomNode, 0, len(lines))
	for _, line := range lines {
		node := master.BomNode{Bom: line, Children: []master.BomNode{}}
		if depth > 1 && !path[line.ChildPartID] {
			path[line.ChildPartID] = true
			children, err := s.expand(ctx, actor, line.ChildPartID, depth-1, path)
			delete(path, line.ChildPartID)
			if err != nil {
				return nil, err
			}
			node.Children = children
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// ListRoutings returns the steps of a part ordered by seq
func (s *PartService) ListRoutings(ctx context.Context, actor shared.Actor, partID uuid.UUID) ([]master.Routing, error) {
	return s.routings.FindByPart(ctx, actor, partID)
}

// GetRouting returns one routing step
func (s *PartService) GetRouting(ctx context.Context, actor shared.Actor, id uuid.UUID) (*master.Routing, error) {
	return s.routings.FindByID(ctx, actor, id)
}

// CreateRouting adds a step; (part, seq) is unique
func (s *PartService) CreateRouting(ctx context.Context, actor shared.Actor, req RoutingRequest) (*master.Routing, error) {
	r, err := master.NewRouting(actor, req.PartID, req.Seq, req.ProcessCode, master.ProcessType(req.ProcessType))
	if err != nil {
		return nil, err
	}
	if err := s.ensureParts(ctx, actor, r.PartID); err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.routings, actor, shared.Conds{"part_id": r.PartID, "seq": r.Seq}, nil, "seq", r.Seq); err != nil {
		return nil, err
	}
	applyRouting(r, req)
	if err := s.routings.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRouting replaces a step's fields
func (s *PartService) UpdateRouting(ctx context.Context, actor shared.Actor, id uuid.UUID, req RoutingRequest) (*master.Routing, error) {
	r, err := s.routings.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := master.NewRouting(actor, req.PartID, req.Seq, req.ProcessCode, master.ProcessType(req.ProcessType))
	if err != nil {
		return nil, err
	}
	if next.PartID != r.PartID {
		if err := s.ensureParts(ctx, actor, next.PartID); err != nil {
			return nil, err
		}
	}
	if err := shared.EnsureUnique(ctx, s.routings, actor, shared.Conds{"part_id": next.PartID, "seq": next.Seq}, &r.ID, "seq", next.Seq); err != nil {
		return nil, err
	}
	r.PartID = next.PartID
	r.Seq = next.Seq
	r.ProcessCode = next.ProcessCode
	r.ProcessType = next.ProcessType
	r.Part = nil
	applyRouting(r, req)
	r.Touch(actor.UserID)
	if err := s.routings.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func applyRouting(r *master.Routing, req RoutingRequest) {
	r.ProcessName = req.ProcessName
	r.EquipType = req.EquipType
	r.StdTime = req.StdTime
	r.UseYn = shared.YNOrDefault(req.UseYn, r.UseYn)
	r.Remark = req.Remark
}

// DeleteRouting soft-deletes a step
func (s *PartService) DeleteRouting(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.routings.SoftDelete(ctx, actor, id)
}
