package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormComCodeRepository implements ComCodeRepository using GORM
type GormComCodeRepository struct {
	*GormCrudRepository[master.ComCode]
}

// NewGormComCodeRepository creates a new GormComCodeRepository
func NewGormComCodeRepository(db *gorm.DB) *GormComCodeRepository {
	return &GormComCodeRepository{NewGormCrudRepository[master.ComCode](db, CrudOptions{
		SearchColumns: []string{"group_code", "detail_code", "code_name"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("group_code", "detail_code", "sort_order"),
		DefaultOrder:  "group_code ASC, sort_order ASC",
	})}
}

// FindByGroup returns the active codes of a group ordered by sortOrder
func (r *GormComCodeRepository) FindByGroup(ctx context.Context, scope shared.Actor, groupCode string) ([]master.ComCode, error) {
	return r.FindAll(ctx, scope, shared.Conds{"group_code": groupCode, "use_yn": shared.Yes}, "sort_order ASC, detail_code ASC")
}

// Groups returns every group with its number of codes
func (r *GormComCodeRepository) Groups(ctx context.Context, scope shared.Actor) ([]master.ComCodeGroup, error) {
	var groups []master.ComCodeGroup
	err := r.Scoped(ctx, scope).
		Select("group_code, COUNT(*) AS count").
		Group("group_code").
		Order("group_code ASC").
		Scan(&groups).Error
	return groups, err
}

// GormPartRepository implements PartRepository using GORM
type GormPartRepository struct {
	*GormCrudRepository[master.Part]
}

// NewGormPartRepository creates a new GormPartRepository
func NewGormPartRepository(db *gorm.DB) *GormPartRepository {
	return &GormPartRepository{NewGormCrudRepository[master.Part](db, CrudOptions{
		SearchColumns: []string{"part_code", "part_name", "spec"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("part_code", "part_name", "part_type"),
		DefaultOrder:  "part_code ASC",
	})}
}

// GormBomRepository implements BomRepository using GORM
type GormBomRepository struct {
	*GormCrudRepository[master.Bom]
}

// NewGormBomRepository creates a new GormBomRepository
func NewGormBomRepository(db *gorm.DB) *GormBomRepository {
	return &GormBomRepository{NewGormCrudRepository[master.Bom](db, CrudOptions{
		SearchColumns: []string{"revision", "eco_no"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("revision", "qty_per"),
		Preloads:      []string{"ParentPart", "ChildPart"},
	})}
}

// FindChildren returns the active lines under parentID with the child part loaded
func (r *GormBomRepository) FindChildren(ctx context.Context, scope shared.Actor, parentID uuid.UUID) ([]master.Bom, error) {
	var lines []master.Bom
	err := r.plain(ctx, scope).
		Preload("ChildPart").
		Where("parent_part_id = ? AND use_yn = ?", parentID, shared.Yes).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// GormRoutingRepository implements RoutingRepository using GORM
type GormRoutingRepository struct {
	*GormCrudRepository[master.Routing]
}

// NewGormRoutingRepository creates a new GormRoutingRepository
func NewGormRoutingRepository(db *gorm.DB) *GormRoutingRepository {
	return &GormRoutingRepository{NewGormCrudRepository[master.Routing](db, CrudOptions{
		SearchColumns: []string{"process_code", "process_name"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("seq", "process_code", "process_type"),
		DefaultOrder:  "part_id ASC, seq ASC",
		Preloads:      []string{"Part"},
	})}
}

// FindByPart returns the steps of a part ordered by seq
func (r *GormRoutingRepository) FindByPart(ctx context.Context, scope shared.Actor, partID uuid.UUID) ([]master.Routing, error) {
	var steps []master.Routing
	err := r.plain(ctx, scope).Where("part_id = ?", partID).Order("seq ASC").Find(&steps).Error
	return steps, err
}

// GormEquipmentRepository implements EquipmentRepository using GORM
type GormEquipmentRepository struct {
	*GormCrudRepository[master.Equipment]
}

// NewGormEquipmentRepository creates a new GormEquipmentRepository
func NewGormEquipmentRepository(db *gorm.DB) *GormEquipmentRepository {
	return &GormEquipmentRepository{NewGormCrudRepository[master.Equipment](db, CrudOptions{
		SearchColumns: []string{"equip_code", "equip_name", "model_name"},
		SortFields:    sortFields("equip_code", "equip_name", "equip_type", "line_code", "status"),
		DefaultOrder:  "equip_code ASC",
	})}
}

// FindByStatuses returns equipment in any of the statuses
func (r *GormEquipmentRepository) FindByStatuses(ctx context.Context, scope shared.Actor, statuses []master.EquipStatus) ([]master.Equipment, error) {
	var items []master.Equipment
	err := r.plain(ctx, scope).Where("status IN ?", statuses).Order("equip_code ASC").Find(&items).Error
	return items, err
}

var equipmentGroupColumns = map[string]bool{"status": true, "equip_type": true, "line_code": true}

// CountBy groups live rows by column (status, equip_type or line_code)
func (r *GormEquipmentRepository) CountBy(ctx context.Context, scope shared.Actor, column string) ([]master.StatusCount, error) {
	if !equipmentGroupColumns[column] {
		return nil, shared.InvalidInput("cannot group equipment by %s", column)
	}
	var counts []master.StatusCount
	err := r.plain(ctx, scope).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Order(column + " ASC").
		Scan(&counts).Error
	return counts, err
}

// GormEquipAttachmentRepository implements EquipAttachmentRepository using GORM
type GormEquipAttachmentRepository struct {
	*GormCrudRepository[master.EquipAttachment]
}

// NewGormEquipAttachmentRepository creates a new GormEquipAttachmentRepository
func NewGormEquipAttachmentRepository(db *gorm.DB) *GormEquipAttachmentRepository {
	return &GormEquipAttachmentRepository{NewGormCrudRepository[master.EquipAttachment](db, CrudOptions{
		SearchColumns: []string{"file_name"},
		StatusColumn:  "category",
		SortFields:    sortFields("file_name", "file_size", "category"),
	})}
}

// FindByEquipment lists the attachments of a machine, newest first
func (r *GormEquipAttachmentRepository) FindByEquipment(ctx context.Context, scope shared.Actor, equipmentID uuid.UUID) ([]master.EquipAttachment, error) {
	return r.FindAll(ctx, scope, shared.Conds{"equipment_id": equipmentID}, "created_at DESC")
}

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	*GormCrudRepository[master.Partner]
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{NewGormCrudRepository[master.Partner](db, CrudOptions{
		SearchColumns: []string{"partner_code", "partner_name"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("partner_code", "partner_name", "partner_type"),
		DefaultOrder:  "partner_code ASC",
	})}
}

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	*GormCrudRepository[master.Warehouse]
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{NewGormCrudRepository[master.Warehouse](db, CrudOptions{
		SearchColumns: []string{"warehouse_code", "warehouse_name"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("warehouse_code", "warehouse_name", "warehouse_type"),
		DefaultOrder:  "warehouse_code ASC",
	})}
}

var (
	_ master.ComCodeRepository         = (*GormComCodeRepository)(nil)
	_ master.PartRepository            = (*GormPartRepository)(nil)
	_ master.BomRepository             = (*GormBomRepository)(nil)
	_ master.RoutingRepository         = (*GormRoutingRepository)(nil)
	_ master.EquipmentRepository       = (*GormEquipmentRepository)(nil)
	_ master.EquipAttachmentRepository = (*GormEquipAttachmentRepository)(nil)
	_ master.PartnerRepository         = (*GormPartnerRepository)(nil)
	_ master.WarehouseRepository       = (*GormWarehouseRepository)(nil)
)
