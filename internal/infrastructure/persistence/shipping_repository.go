package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormBoxRepository implements BoxRepository using GORM
type GormBoxRepository struct {
	*GormCrudRepository[shipping.Box]
}

// NewGormBoxRepository creates a new GormBoxRepository
func NewGormBoxRepository(db *gorm.DB) *GormBoxRepository {
	return &GormBoxRepository{NewGormCrudRepository[shipping.Box](db, CrudOptions{
		SearchColumns: []string{"box_no"},
		DateColumn:    "created_at",
		SortFields:    sortFields("box_no", "status", "qty", "close_at"),
		Preloads:      []string{"Part"},
	})}
}

// FindByIDs returns the boxes with the given ids
func (r *GormBoxRepository) FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]shipping.Box, error) {
	var boxes []shipping.Box
	if len(ids) == 0 {
		return boxes, nil
	}
	err := r.plain(ctx, scope).Where("id IN ?", ids).Order("box_no ASC").Find(&boxes).Error
	return boxes, err
}

// FindByPallet returns the boxes on a pallet
func (r *GormBoxRepository) FindByPallet(ctx context.Context, scope shared.Actor, palletID uuid.UUID) ([]shipping.Box, error) {
	return r.FindByPallets(ctx, scope, []uuid.UUID{palletID})
}

// FindByPallets returns the boxes on any of the pallets
func (r *GormBoxRepository) FindByPallets(ctx context.Context, scope shared.Actor, palletIDs []uuid.UUID) ([]shipping.Box, error) {
	var boxes []shipping.Box
	if len(palletIDs) == 0 {
		return boxes, nil
	}
	err := r.plain(ctx, scope).Where("pallet_id IN ?", palletIDs).Order("box_no ASC").Find(&boxes).Error
	return boxes, err
}

// FindAwaitingOqc returns CLOSED boxes with no OQC verdict, optionally for one part
func (r *GormBoxRepository) FindAwaitingOqc(ctx context.Context, scope shared.Actor, partID *uuid.UUID) ([]shipping.Box, error) {
	q := r.Scoped(ctx, scope).Where("status = ? AND oqc_status IS NULL", shipping.BoxClosed)
	if partID != nil {
		q = q.Where("part_id = ?", *partID)
	}
	var boxes []shipping.Box
	err := q.Order("box_no ASC").Find(&boxes).Error
	return boxes, err
}

// FindUnassigned returns CLOSED boxes not on a pallet
func (r *GormBoxRepository) FindUnassigned(ctx context.Context, scope shared.Actor) ([]shipping.Box, error) {
	var boxes []shipping.Box
	err := r.Scoped(ctx, scope).
		Where("status = ? AND pallet_id IS NULL", shipping.BoxClosed).
		Order("box_no ASC").
		Find(&boxes).Error
	return boxes, err
}

// GormPalletRepository implements PalletRepository using GORM
type GormPalletRepository struct {
	*GormCrudRepository[shipping.Pallet]
}

// NewGormPalletRepository creates a new GormPalletRepository
func NewGormPalletRepository(db *gorm.DB) *GormPalletRepository {
	return &GormPalletRepository{NewGormCrudRepository[shipping.Pallet](db, CrudOptions{
		SearchColumns: []string{"pallet_no"},
		DateColumn:    "created_at",
		SortFields:    sortFields("pallet_no", "status", "box_count", "total_qty"),
	})}
}

// FindByIDs returns the pallets with the given ids
func (r *GormPalletRepository) FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]shipping.Pallet, error) {
	var pallets []shipping.Pallet
	if len(ids) == 0 {
		return pallets, nil
	}
	err := r.plain(ctx, scope).Where("id IN ?", ids).Order("pallet_no ASC").Find(&pallets).Error
	return pallets, err
}

// FindByShipment returns the pallets loaded on a shipment
func (r *GormPalletRepository) FindByShipment(ctx context.Context, scope shared.Actor, shipmentID uuid.UUID) ([]shipping.Pallet, error) {
	return r.FindAll(ctx, scope, shared.Conds{"shipment_id": shipmentID}, "pallet_no ASC")
}

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	*GormCrudRepository[shipping.Shipment]
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{NewGormCrudRepository[shipping.Shipment](db, CrudOptions{
		SearchColumns: []string{"ship_no", "customer_name", "vehicle_no"},
		DateColumn:    "ship_date",
		SortFields:    sortFields("ship_no", "ship_date", "status", "customer_name"),
		DefaultOrder:  "ship_date DESC, created_at DESC",
	})}
}

var shippedStatuses = []shipping.ShipmentStatus{shipping.ShipmentShipped, shipping.ShipmentDelivered}

// FindUnsynced returns SHIPPED and DELIVERED shipments not yet sent to the ERP
func (r *GormShipmentRepository) FindUnsynced(ctx context.Context, scope shared.Actor) ([]shipping.Shipment, error) {
	var out []shipping.Shipment
	err := r.plain(ctx, scope).
		Where("status IN ? AND erp_sync_yn = ?", shippedStatuses, shared.No).
		Order("ship_at ASC").
		Find(&out).Error
	return out, err
}

// FindByIDs returns the shipments with the given ids
func (r *GormShipmentRepository) FindByIDs(ctx context.Context, scope shared.Actor, ids []uuid.UUID) ([]shipping.Shipment, error) {
	var out []shipping.Shipment
	if len(ids) == 0 {
		return out, nil
	}
	err := r.plain(ctx, scope).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// Stats totals SHIPPED and DELIVERED shipments with ship dates in [from, to]
func (r *GormShipmentRepository) Stats(ctx context.Context, scope shared.Actor, from, to time.Time) (shipping.ShipmentStats, error) {
	var stats shipping.ShipmentStats
	err := r.plain(ctx, scope).
		Select(`COUNT(*) AS shipment_count,
			COALESCE(SUM(pallet_count), 0) AS pallet_count,
			COALESCE(SUM(box_count), 0) AS box_count,
			COALESCE(SUM(total_qty), 0) AS total_qty`).
		Where("status IN ? AND ship_date >= ? AND ship_date <= ?", shippedStatuses, from, to).
		Scan(&stats).Error
	return stats, err
}

// GormShipReturnRepository implements ShipReturnRepository using GORM
type GormShipReturnRepository struct {
	*GormCrudRepository[shipping.ShipReturn]
}

// NewGormShipReturnRepository creates a new GormShipReturnRepository
func NewGormShipReturnRepository(db *gorm.DB) *GormShipReturnRepository {
	return &GormShipReturnRepository{NewGormCrudRepository[shipping.ShipReturn](db, CrudOptions{
		SearchColumns: []string{"return_no", "return_reason"},
		DateColumn:    "return_date",
		SortFields:    sortFields("return_no", "return_date", "status", "total_qty"),
		DefaultOrder:  "return_date DESC, created_at DESC",
		Preloads:      []string{"Shipment"},
	})}
}

// FindWithItems loads a return with its shipment and its items with their parts
func (r *GormShipReturnRepository) FindWithItems(ctx context.Context, scope shared.Actor, id uuid.UUID) (*shipping.ShipReturn, error) {
	var ret shipping.ShipReturn
	err := r.Scoped(ctx, scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Part").
		Where("id = ?", id).
		First(&ret).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &ret, nil
}

// ReplaceItems deletes the items of a return and inserts the given ones
func (r *GormShipReturnRepository) ReplaceItems(ctx context.Context, returnID uuid.UUID, items []shipping.ShipReturnItem) error {
	db := r.Conn(ctx)
	if err := db.Where("return_id = ?", returnID).Delete(&shipping.ShipReturnItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ReturnID = returnID
		items[i].Part = nil
	}
	return db.Create(&items).Error
}

// LastNumber returns the greatest returnNo starting with prefix, or ""
func (r *GormShipReturnRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	return lastByPrefix(r.Conn(ctx), &shipping.ShipReturn{}, "return_no", prefix)
}

// CountByStatus counts returns dated in [from, to] per status
func (r *GormShipReturnRepository) CountByStatus(ctx context.Context, scope shared.Actor, from, to time.Time) ([]shipping.ReturnStatusCount, error) {
	var out []shipping.ReturnStatusCount
	err := r.plain(ctx, scope).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_qty), 0) AS total_qty").
		Where("return_date >= ? AND return_date <= ?", from, to).
		Group("status").
		Order("status ASC").
		Scan(&out).Error
	return out, err
}

var (
	_ shipping.BoxRepository        = (*GormBoxRepository)(nil)
	_ shipping.PalletRepository     = (*GormPalletRepository)(nil)
	_ shipping.ShipmentRepository   = (*GormShipmentRepository)(nil)
	_ shipping.ShipReturnRepository = (*GormShipReturnRepository)(nil)
)
