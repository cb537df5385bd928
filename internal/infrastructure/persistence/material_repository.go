package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	*GormCrudRepository[material.PurchaseOrder]
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{NewGormCrudRepository[material.PurchaseOrder](db, CrudOptions{
		SearchColumns: []string{"po_no", "partner_name"},
		DateColumn:    "order_date",
		SortFields:    sortFields("po_no", "order_date", "due_date", "status"),
		DefaultOrder:  "order_date DESC, created_at DESC",
	})}
}

func withItems(q *gorm.DB) *gorm.DB {
	return q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Preload("Items.Part")
}

// FindWithItems loads an order and its lines
func (r *GormPurchaseOrderRepository) FindWithItems(ctx context.Context, scope shared.Actor, id uuid.UUID) (*material.PurchaseOrder, error) {
	var po material.PurchaseOrder
	if err := withItems(r.plain(ctx, scope)).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, translateError(err)
	}
	return &po, nil
}

// FindByItem loads the order owning itemID with all its lines
func (r *GormPurchaseOrderRepository) FindByItem(ctx context.Context, scope shared.Actor, itemID uuid.UUID) (*material.PurchaseOrder, error) {
	var item material.PurchaseOrderItem
	if err := r.Conn(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindWithItems(ctx, scope, item.PoID)
}

// FindReceivable returns CONFIRMED and PARTIAL orders with their lines
func (r *GormPurchaseOrderRepository) FindReceivable(ctx context.Context, scope shared.Actor) ([]material.PurchaseOrder, error) {
	var orders []material.PurchaseOrder
	err := withItems(r.plain(ctx, scope)).
		Where("status IN ?", []material.POStatus{material.POStatusConfirmed, material.POStatusPartial}).
		Order("order_date DESC").
		Find(&orders).Error
	return orders, err
}

// ReplaceItems deletes the lines of po and inserts po.Items
func (r *GormPurchaseOrderRepository) ReplaceItems(ctx context.Context, po *material.PurchaseOrder) error {
	db := r.Conn(ctx)
	if err := db.Where("po_id = ?", po.ID).Delete(&material.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	if len(po.Items) == 0 {
		return nil
	}
	return db.Omit("Part").Create(&po.Items).Error
}

// SaveItem updates one order line
func (r *GormPurchaseOrderRepository) SaveItem(ctx context.Context, item *material.PurchaseOrderItem) error {
	return r.Conn(ctx).Omit("Part").Save(item).Error
}

// GormMatLotRepository implements MatLotRepository using GORM
type GormMatLotRepository struct {
	*GormCrudRepository[material.MatLot]
}

// NewGormMatLotRepository creates a new GormMatLotRepository
func NewGormMatLotRepository(db *gorm.DB) *GormMatLotRepository {
	return &GormMatLotRepository{NewGormCrudRepository[material.MatLot](db, CrudOptions{
		SearchColumns: []string{"lot_no", "po_no", "vendor"},
		DateColumn:    "recv_date",
		SortFields:    sortFields("lot_no", "recv_date", "status", "iqc_status", "current_qty"),
		DefaultOrder:  "recv_date DESC, lot_no DESC",
		Preloads:      []string{"Part"},
	})}
}

// GormMatStockRepository implements MatStockRepository using GORM
type GormMatStockRepository struct {
	*GormCrudRepository[material.MatStock]
}

// NewGormMatStockRepository creates a new GormMatStockRepository
func NewGormMatStockRepository(db *gorm.DB) *GormMatStockRepository {
	return &GormMatStockRepository{NewGormCrudRepository[material.MatStock](db, CrudOptions{
		SortFields:   sortFields("qty", "available_qty", "last_trans_at"),
		DefaultOrder: "last_trans_at DESC",
		Preloads:     []string{"Warehouse", "Part", "Lot"},
	})}
}

// FindByKey returns the stock row of (warehouse, part, lot); a nil lot matches rows without lot
func (r *GormMatStockRepository) FindByKey(ctx context.Context, scope shared.Actor, warehouseID, partID uuid.UUID, lotID *uuid.UUID) (*material.MatStock, error) {
	q := r.plain(ctx, scope).Where("warehouse_id = ? AND part_id = ?", warehouseID, partID)
	if lotID == nil {
		q = q.Where("lot_id IS NULL")
	} else {
		q = q.Where("lot_id = ?", *lotID)
	}
	var stock material.MatStock
	if err := q.First(&stock).Error; err != nil {
		return nil, translateError(err)
	}
	return &stock, nil
}

// FindByLot returns the rows holding the lot
func (r *GormMatStockRepository) FindByLot(ctx context.Context, scope shared.Actor, lotID uuid.UUID) ([]material.MatStock, error) {
	var rows []material.MatStock
	err := r.plain(ctx, scope).Where("lot_id = ?", lotID).Order("qty DESC").Find(&rows).Error
	return rows, err
}

// Summary totals stock per part with the part's master data
func (r *GormMatStockRepository) Summary(ctx context.Context, scope shared.Actor, filter shared.Filter) ([]material.StockSummary, error) {
	q := r.plain(ctx, scope).
		Select(`mat_stocks.part_id AS part_id, parts.part_code AS part_code, parts.part_name AS part_name,
			parts.unit AS unit, parts.safety_stock AS safety_stock,
			COALESCE(SUM(mat_stocks.qty), 0) AS total_qty,
			COALESCE(SUM(mat_stocks.available_qty), 0) AS available_qty,
			COALESCE(SUM(mat_stocks.reserved_qty), 0) AS reserved_qty,
			COUNT(DISTINCT mat_stocks.lot_id) AS lot_count`).
		Joins("JOIN parts ON parts.id = mat_stocks.part_id").
		Where("mat_stocks.qty > 0")
	if v, ok := filter.Filters["warehouse_id"]; ok {
		q = q.Where("mat_stocks.warehouse_id = ?", v)
	}
	if v, ok := filter.Filters["part_id"]; ok {
		q = q.Where("mat_stocks.part_id = ?", v)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("(LOWER(parts.part_code) LIKE LOWER(?) OR LOWER(parts.part_name) LIKE LOWER(?))", pattern, pattern)
	}
	var out []material.StockSummary
	err := q.Group("mat_stocks.part_id, parts.part_code, parts.part_name, parts.unit, parts.safety_stock").
		Order("parts.part_code ASC").
		Scan(&out).Error
	return out, err
}

// GormMatTransactionRepository implements MatTransactionRepository using GORM
type GormMatTransactionRepository struct {
	*GormCrudRepository[material.MatTransaction]
}

// NewGormMatTransactionRepository creates a new GormMatTransactionRepository
func NewGormMatTransactionRepository(db *gorm.DB) *GormMatTransactionRepository {
	return &GormMatTransactionRepository{NewGormCrudRepository[material.MatTransaction](db, CrudOptions{
		SearchColumns: []string{"trans_no", "remark"},
		DateColumn:    "trans_date",
		SortFields:    sortFields("trans_no", "trans_date", "trans_type", "qty"),
		DefaultOrder:  "trans_date DESC, created_at DESC",
		Preloads:      []string{"Part", "Lot", "ToWarehouse"},
	})}
}

// SumQty totals DONE movements of a type for a lot
func (r *GormMatTransactionRepository) SumQty(ctx context.Context, scope shared.Actor, lotID uuid.UUID, transType material.TransType) (int, error) {
	var total int
	err := r.plain(ctx, scope).
		Select("COALESCE(SUM(qty), 0)").
		Where("lot_id = ? AND trans_type = ? AND status = ?", lotID, transType, material.TransDone).
		Scan(&total).Error
	return total, err
}

// Totals counts DONE movements of a type in [from, to) and sums their qty
func (r *GormMatTransactionRepository) Totals(ctx context.Context, scope shared.Actor, transType material.TransType, from, to time.Time) (int64, int64, error) {
	var row struct {
		Cnt int64
		Qty int64
	}
	err := r.plain(ctx, scope).
		Select("COUNT(*) AS cnt, COALESCE(SUM(qty), 0) AS qty").
		Where("trans_type = ? AND status = ? AND trans_date >= ? AND trans_date < ?", transType, material.TransDone, from, to).
		Scan(&row).Error
	return row.Cnt, row.Qty, err
}

// GormMatIssueRepository implements MatIssueRepository using GORM
type GormMatIssueRepository struct {
	*GormCrudRepository[material.MatIssue]
}

// NewGormMatIssueRepository creates a new GormMatIssueRepository
func NewGormMatIssueRepository(db *gorm.DB) *GormMatIssueRepository {
	return &GormMatIssueRepository{NewGormCrudRepository[material.MatIssue](db, CrudOptions{
		SearchColumns: []string{"issue_no", "remark"},
		DateColumn:    "issue_date",
		SortFields:    sortFields("issue_no", "issue_date", "issue_type", "status"),
		DefaultOrder:  "issue_date DESC, created_at DESC",
		Preloads:      []string{"Lot"},
	})}
}

// GormLabelPrintLogRepository implements LabelPrintLogRepository using GORM
type GormLabelPrintLogRepository struct {
	*GormCrudRepository[material.LabelPrintLog]
}

// NewGormLabelPrintLogRepository creates a new GormLabelPrintLogRepository
func NewGormLabelPrintLogRepository(db *gorm.DB) *GormLabelPrintLogRepository {
	return &GormLabelPrintLogRepository{NewGormCrudRepository[material.LabelPrintLog](db, CrudOptions{
		StatusColumn: "category",
		DateColumn:   "created_at",
	})}
}

var (
	_ material.PurchaseOrderRepository  = (*GormPurchaseOrderRepository)(nil)
	_ material.MatLotRepository         = (*GormMatLotRepository)(nil)
	_ material.MatStockRepository       = (*GormMatStockRepository)(nil)
	_ material.MatTransactionRepository = (*GormMatTransactionRepository)(nil)
	_ material.MatIssueRepository       = (*GormMatIssueRepository)(nil)
	_ material.LabelPrintLogRepository  = (*GormLabelPrintLogRepository)(nil)
)
