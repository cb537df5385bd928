package master

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
)

// ComCodeRepository persists common codes
type ComCodeRepository interface {
	shared.Repository[ComCode]
	// FindByGroup returns the active codes of a group ordered by sortOrder
	FindByGroup(ctx context.Context, scope shared.Actor, groupCode string) ([]ComCode, error)
	// Groups returns every group with its number of codes
	Groups(ctx context.Context, scope shared.Actor) ([]ComCodeGroup, error)
}

// PartRepository persists parts
type PartRepository interface {
	shared.Repository[Part]
}

// BomRepository persists BOM lines
type BomRepository interface {
	shared.Repository[Bom]
	// FindChildren returns the active lines under parentID with the child part loaded
	FindChildren(ctx context.Context, scope shared.Actor, parentID uuid.UUID) ([]Bom, error)
}

// RoutingRepository persists routing steps
type RoutingRepository interface {
	shared.Repository[Routing]
	// FindByPart returns the steps of a part ordered by seq
	FindByPart(ctx context.Context, scope shared.Actor, partID uuid.UUID) ([]Routing, error)
}

// EquipmentRepository persists equipment
type EquipmentRepository interface {
	shared.Repository[Equipment]
	FindByStatuses(ctx context.Context, scope shared.Actor, statuses []EquipStatus) ([]Equipment, error)
	// CountBy groups live rows by column (status or equip_type)
	CountBy(ctx context.Context, scope shared.Actor, column string) ([]StatusCount, error)
}

// EquipAttachmentRepository persists attachment records
type EquipAttachmentRepository interface {
	shared.Repository[EquipAttachment]
	FindByEquipment(ctx context.Context, scope shared.Actor, equipmentID uuid.UUID) ([]EquipAttachment, error)
}

// PartnerRepository persists partners
type PartnerRepository interface {
	shared.Repository[Partner]
}

// WarehouseRepository persists warehouses
type WarehouseRepository interface {
	shared.Repository[Warehouse]
}
