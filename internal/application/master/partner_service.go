package master

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// PartnerService manages vendors, customers and warehouses
type PartnerService struct {
	partners   master.PartnerRepository
	warehouses master.WarehouseRepository
}

// NewPartnerService creates a new PartnerService
func NewPartnerService(partners master.PartnerRepository, warehouses master.WarehouseRepository) *PartnerService {
	return &PartnerService{partners: partners, warehouses: warehouses}
}

// List returns a page of partners
func (s *PartnerService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[master.Partner], error) {
	items, total, err := s.partners.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[master.Partner]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one partner
func (s *PartnerService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*master.Partner, error) {
	return s.partners.FindByID(ctx, actor, id)
}

// Create adds a partner; partnerCode is unique
func (s *PartnerService) Create(ctx context.Context, actor shared.Actor, req PartnerRequest) (*master.Partner, error) {
	p, err := master.NewPartner(actor, req.PartnerCode, req.PartnerName, master.PartnerType(req.PartnerType))
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.partners, actor, shared.Conds{"partner_code": p.PartnerCode}, nil, "partnerCode", p.PartnerCode); err != nil {
		return nil, err
	}
	applyPartner(p, req)
	if err := s.partners.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces a partner's fields
func (s *PartnerService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req PartnerRequest) (*master.Partner, error) {
	p, err := s.partners.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	pt := master.PartnerType(req.PartnerType)
	if !pt.IsValid() {
		return nil, shared.InvalidInput("invalid partnerType: %s", req.PartnerType)
	}
	if req.PartnerCode != p.PartnerCode {
		if err := shared.EnsureUnique(ctx, s.partners, actor, shared.Conds{"partner_code": req.PartnerCode}, &p.ID, "partnerCode", req.PartnerCode); err != nil {
			return nil, err
		}
	}
	p.PartnerCode = req.PartnerCode
	p.PartnerName = req.PartnerName
	p.PartnerType = pt
	applyPartner(p, req)
	p.Touch(actor.UserID)
	if err := s.partners.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func applyPartner(p *master.Partner, req PartnerRequest) {
	p.BizNo = req.BizNo
	p.CeoName = req.CeoName
	p.Address = req.Address
	p.Tel = req.Tel
	p.Email = req.Email
	p.ContactPerson = req.ContactPerson
	p.UseYn = shared.YNOrDefault(req.UseYn, p.UseYn)
	p.Remark = req.Remark
}

// Delete soft-deletes a partner
func (s *PartnerService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.partners.SoftDelete(ctx, actor, id)
}

// ListWarehouses returns a page of warehouses
func (s *PartnerService) ListWarehouses(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[master.Warehouse], error) {
	items, total, err := s.warehouses.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[master.Warehouse]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetWarehouse returns one warehouse
func (s *PartnerService) GetWarehouse(ctx context.Context, actor shared.Actor, id uuid.UUID) (*master.Warehouse, error) {
	return s.warehouses.FindByID(ctx, actor, id)
}

// CreateWarehouse adds a warehouse; warehouseCode is unique
func (s *PartnerService) CreateWarehouse(ctx context.Context, actor shared.Actor, req WarehouseRequest) (*master.Warehouse, error) {
	w, err := master.NewWarehouse(actor, req.WarehouseCode, req.WarehouseName, master.WarehouseType(req.WarehouseType))
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.warehouses, actor, shared.Conds{"warehouse_code": w.WarehouseCode}, nil, "warehouseCode", w.WarehouseCode); err != nil {
		return nil, err
	}
	applyWarehouse(w, req)
	if err := s.warehouses.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateWarehouse replaces a warehouse's fields; the code cannot change
func (s *PartnerService) UpdateWarehouse(ctx context.Context, actor shared.Actor, id uuid.UUID, req WarehouseRequest) (*master.Warehouse, error) {
	w, err := s.warehouses.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	wt := master.WarehouseType(req.WarehouseType)
	if !wt.IsValid() {
		return nil, shared.InvalidInput("invalid warehouseType: %s", req.WarehouseType)
	}
	w.WarehouseName = req.WarehouseName
	w.WarehouseType = wt
	applyWarehouse(w, req)
	w.Touch(actor.UserID)
	if err := s.warehouses.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func applyWarehouse(w *master.Warehouse, req WarehouseRequest) {
	w.LineCode = req.LineCode
	w.IsDefault = shared.YNOrDefault(req.IsDefault, shared.No)
	w.UseYn = shared.YNOrDefault(req.UseYn, w.UseYn)
	w.Remark = req.Remark
}

// DeleteWarehouse soft-deletes a warehouse
func (s *PartnerService) DeleteWarehouse(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.warehouses.SoftDelete(ctx, actor, id)
}
