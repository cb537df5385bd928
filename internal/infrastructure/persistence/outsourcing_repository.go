package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/outsourcing"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVendorRepository implements VendorRepository using GORM
type GormVendorRepository struct {
	*GormCrudRepository[outsourcing.Vendor]
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{NewGormCrudRepository[outsourcing.Vendor](db, CrudOptions{
		SearchColumns: []string{"vendor_code", "vendor_name"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("vendor_code", "vendor_name"),
		DefaultOrder:  "vendor_code ASC",
	})}
}

// CountActive counts vendors in use
func (r *GormVendorRepository) CountActive(ctx context.Context, scope shared.Actor) (int64, error) {
	var n int64
	err := r.plain(ctx, scope).Where("use_yn = ?", shared.Yes).Count(&n).Error
	return n, err
}

// GormOrderRepository implements subcontract OrderRepository using GORM
type GormOrderRepository struct {
	*GormCrudRepository[outsourcing.Order]
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{NewGormCrudRepository[outsourcing.Order](db, CrudOptions{
		SearchColumns: []string{"order_no", "part_code", "part_name"},
		DateColumn:    "order_date",
		SortFields:    sortFields("order_no", "order_date", "due_date", "status", "part_code"),
		DefaultOrder:  "order_date DESC, order_no DESC",
		Preloads:      []string{"Vendor"},
	})}
}

// LockByID reads the order with a row lock for quantity updates
func (r *GormOrderRepository) LockByID(ctx context.Context, scope shared.Actor, id uuid.UUID) (*outsourcing.Order, error) {
	var order outsourcing.Order
	err := r.plain(ctx, scope).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// FindDetail loads an order with its vendor, deliveries and receives
func (r *GormOrderRepository) FindDetail(ctx context.Context, scope shared.Actor, id uuid.UUID) (*outsourcing.Order, error) {
	var order outsourcing.Order
	err := r.Scoped(ctx, scope).
		Preload("Deliveries", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Receives", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// FindByStatuses returns orders in any of the statuses with their vendor
func (r *GormOrderRepository) FindByStatuses(ctx context.Context, scope shared.Actor, statuses []outsourcing.OrderStatus) ([]outsourcing.Order, error) {
	var out []outsourcing.Order
	err := r.Scoped(ctx, scope).Where("status IN ?", statuses).Order("order_date ASC").Find(&out).Error
	return out, err
}

// CountByStatuses counts orders in any of the statuses; nil counts all
func (r *GormOrderRepository) CountByStatuses(ctx context.Context, scope shared.Actor, statuses []outsourcing.OrderStatus) (int64, error) {
	q := r.plain(ctx, scope)
	if statuses != nil {
		q = q.Where("status IN ?", statuses)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// CountByPrefix counts orders whose number starts with prefix, deleted rows included
func (r *GormOrderRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	return countByPrefix(r.Conn(ctx), &outsourcing.Order{}, "order_no", prefix)
}

// GormDeliveryRepository implements DeliveryRepository using GORM
type GormDeliveryRepository struct {
	*GormCrudRepository[outsourcing.Delivery]
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{NewGormCrudRepository[outsourcing.Delivery](db, CrudOptions{})}
}

// CountByPrefix counts deliveries whose number starts with prefix, deleted rows included
func (r *GormDeliveryRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	return countByPrefix(r.Conn(ctx), &outsourcing.Delivery{}, "delivery_no", prefix)
}

// FindByOrder returns the deliveries of an order
func (r *GormDeliveryRepository) FindByOrder(ctx context.Context, scope shared.Actor, orderID uuid.UUID) ([]outsourcing.Delivery, error) {
	return r.FindAll(ctx, scope, shared.Conds{"order_id": orderID}, "created_at ASC")
}

// GormReceiveRepository implements ReceiveRepository using GORM
type GormReceiveRepository struct {
	*GormCrudRepository[outsourcing.Receive]
}

// NewGormReceiveRepository creates a new GormReceiveRepository
func NewGormReceiveRepository(db *gorm.DB) *GormReceiveRepository {
	return &GormReceiveRepository{NewGormCrudRepository[outsourcing.Receive](db, CrudOptions{})}
}

// CountByPrefix counts receives whose number starts with prefix, deleted rows included
func (r *GormReceiveRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	return countByPrefix(r.Conn(ctx), &outsourcing.Receive{}, "receive_no", prefix)
}

// FindByOrder returns the receives of an order
func (r *GormReceiveRepository) FindByOrder(ctx context.Context, scope shared.Actor, orderID uuid.UUID) ([]outsourcing.Receive, error) {
	return r.FindAll(ctx, scope, shared.Conds{"order_id": orderID}, "created_at ASC")
}

var (
	_ outsourcing.VendorRepository   = (*GormVendorRepository)(nil)
	_ outsourcing.OrderRepository    = (*GormOrderRepository)(nil)
	_ outsourcing.DeliveryRepository = (*GormDeliveryRepository)(nil)
	_ outsourcing.ReceiveRepository  = (*GormReceiveRepository)(nil)
)
