// Package master manages the reference data every other module builds on:
// common codes, parts, BOM, routing, equipment, partners and warehouses.
package master

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CodeCache keeps the active codes of a group per tenant
type CodeCache interface {
	Group(ctx context.Context, scope shared.Actor, groupCode string) ([]master.ComCode, bool)
	SetGroup(ctx context.Context, scope shared.Actor, groupCode string, codes []master.ComCode)
}

type noCache struct{}

func (noCache) Group(context.Context, shared.Actor, string) ([]master.ComCode, bool) { return nil, false }
func (noCache) SetGroup(context.Context, shared.Actor, string, []master.ComCode)      {}

// ComCodeService manages the common code registry
type ComCodeService struct {
	codes  master.ComCodeRepository
	cache  CodeCache
	events shared.EventPublisher
}

// NewComCodeService creates a new ComCodeService. cache and events may be nil.
func NewComCodeService(codes master.ComCodeRepository, cache CodeCache, events shared.EventPublisher) *ComCodeService {
	if cache == nil {
		cache = noCache{}
	}
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &ComCodeService{codes: codes, cache: cache, events: events}
}

// List returns a page of codes
func (s *ComCodeService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[master.ComCode], error) {
	items, total, err := s.codes.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[master.ComCode]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// Groups returns every group with its number of codes
func (s *ComCodeService) Groups(ctx context.Context, actor shared.Actor) ([]master.ComCodeGroup, error) {
	return s.codes.Groups(ctx, actor)
}

// FindByGroup returns the active codes of a group ordered by sortOrder
func (s *ComCodeService) FindByGroup(ctx context.Context, actor shared.Actor, groupCode string) ([]master.ComCode, error) {
	if codes, ok := s.cache.Group(ctx, actor, groupCode); ok {
		return codes, nil
	}
	codes, err := s.codes.FindByGroup(ctx, actor, groupCode)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []master.ComCode{}
	}
	s.cache.SetGroup(ctx, actor, groupCode, codes)
	return codes, nil
}

// GetByID returns one code
func (s *ComCodeService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*master.ComCode, error) {
	return s.codes.FindByID(ctx, actor, id)
}

// Create adds a code; groupCode + detailCode is unique
func (s *ComCodeService) Create(ctx context.Context, actor shared.Actor, req CreateComCodeRequest) (*master.ComCode, error) {
	c, err := master.NewComCode(actor, req.GroupCode, req.DetailCode, req.CodeName)
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.codes, actor,
		shared.Conds{"group_code": c.GroupCode, "detail_code": c.DetailCode}, nil,
		"detailCode", c.GroupCode+"."+c.DetailCode); err != nil {
		return nil, err
	}
	c.CodeDesc = req.CodeDesc
	c.ParentCode = req.ParentCode
	c.SortOrder = req.SortOrder
	c.UseYn = shared.YNOrDefault(req.UseYn, shared.Yes)
	c.Attr1, c.Attr2, c.Attr3 = req.Attr1, req.Attr2, req.Attr3
	if err := s.codes.Create(ctx, c); err != nil {
		return nil, err
	}
	s.changed(ctx, c)
	return c, nil
}

// Update changes a code
func (s *ComCodeService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateComCodeRequest) (*master.ComCode, error) {
	c, err := s.codes.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.CodeName != nil {
		if *req.CodeName == "" {
			return nil, shared.InvalidInput("codeName is required")
		}
		c.CodeName = *req.CodeName
	}
	if req.CodeDesc != nil {
		c.CodeDesc = *req.CodeDesc
	}
	if req.ParentCode != nil {
		c.ParentCode = *req.ParentCode
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}
	if req.UseYn != nil {
		c.UseYn = shared.YNOrDefault(*req.UseYn, c.UseYn)
	}
	if req.Attr1 != nil {
		c.Attr1 = *req.Attr1
	}
	if req.Attr2 != nil {
		c.Attr2 = *req.Attr2
	}
	if req.Attr3 != nil {
		c.Attr3 = *req.Attr3
	}
	c.Touch(actor.UserID)
	if err := s.codes.Save(ctx, c); err != nil {
		return nil, err
	}
	s.changed(ctx, c)
	return c, nil
}

// Delete soft-deletes a code
func (s *ComCodeService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	c, err := s.codes.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.codes.SoftDelete(ctx, actor, id); err != nil {
		return err
	}
	s.changed(ctx, c)
	return nil
}

// changed publishes the change event; a failing subscriber never fails the write
func (s *ComCodeService) changed(ctx context.Context, c *master.ComCode) {
	if err := s.events.Publish(ctx, master.NewComCodeChanged(c)); err != nil {
		logger.L(ctx).Warn("publish comcode change failed",
			zap.String("group_code", c.GroupCode),
			zap.Error(err))
	}
}
