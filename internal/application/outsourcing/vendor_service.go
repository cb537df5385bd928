// Package outsourcing tracks material sent to subcontractors and the goods they return.
package outsourcing

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/outsourcing"
	"github.com/mes/backend/internal/domain/shared"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	SubconVendors() outsourcing.VendorRepository
	SubconOrders() outsourcing.OrderRepository
	SubconDeliveries() outsourcing.DeliveryRepository
	SubconReceives() outsourcing.ReceiveRepository
	Rules() numbering.RuleRepository
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// VendorService manages subcontract vendors
type VendorService struct {
	vendors outsourcing.VendorRepository
}

// NewVendorService creates a new VendorService
func NewVendorService(vendors outsourcing.VendorRepository) *VendorService {
	return &VendorService{vendors: vendors}
}

// List returns a page of vendors by code
func (s *VendorService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[outsourcing.Vendor], error) {
	items, total, err := s.vendors.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[outsourcing.Vendor]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one vendor
func (s *VendorService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*outsourcing.Vendor, error) {
	return s.vendors.FindByID(ctx, actor, id)
}

// Create registers a vendor with a unique code
func (s *VendorService) Create(ctx context.Context, actor shared.Actor, req CreateVendorRequest) (*outsourcing.Vendor, error) {
	v, err := outsourcing.NewVendor(actor, req.VendorCode, req.VendorName)
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.vendors, actor, shared.Conds{"vendor_code": v.VendorCode}, nil, "vendorCode", v.VendorCode); err != nil {
		return nil, err
	}
	v.VendorType = req.VendorType
	v.BizNo = req.BizNo
	v.CeoName = req.CeoName
	v.Address = req.Address
	v.Tel = req.Tel
	v.Fax = req.Fax
	v.Email = req.Email
	v.ContactPerson = req.ContactPerson
	v.Remark = req.Remark
	if err := s.vendors.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Update changes a vendor
func (s *VendorService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateVendorRequest) (*outsourcing.Vendor, error) {
	v, err := s.vendors.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&v.VendorName, req.VendorName)
	set(&v.VendorType, req.VendorType)
	set(&v.BizNo, req.BizNo)
	set(&v.CeoName, req.CeoName)
	set(&v.Address, req.Address)
	set(&v.Tel, req.Tel)
	set(&v.Fax, req.Fax)
	set(&v.Email, req.Email)
	set(&v.ContactPerson, req.ContactPerson)
	set(&v.UseYn, req.UseYn)
	set(&v.Remark, req.Remark)
	v.Touch(actor.UserID)
	if err := s.vendors.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Delete soft-deletes a vendor
func (s *VendorService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.vendors.SoftDelete(ctx, actor, id)
}
