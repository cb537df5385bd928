package persistence

import (
	"github.com/mes/backend/internal/domain/identity"
	"github.com/mes/backend/internal/domain/maintenance"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/outsourcing"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/domain/system"
)

// Models returns every persisted MES entity in dependency order.
// Used by AutoMigrate in tests and by the migrate command for development databases.
func Models() []any {
	return []any{
		// master data
		&master.ComCode{},
		&master.Part{},
		&master.Bom{},
		&master.Routing{},
		&master.Equipment{},
		&master.EquipAttachment{},
		&master.Partner{},
		&master.Warehouse{},

		// identity
		&identity.Role{},
		&identity.RoleMenuPermission{},
		&identity.User{},

		&numbering.Rule{},
		&system.SysConfig{},

		// material
		&material.PurchaseOrder{},
		&material.PurchaseOrderItem{},
		&material.MatLot{},
		&material.MatStock{},
		&material.MatTransaction{},
		&material.MatIssue{},
		&material.LabelPrintLog{},

		// production
		&production.JobOrder{},
		&production.ProdResult{},
		&production.ProdPlan{},

		// shipping
		&shipping.Shipment{},
		&shipping.Pallet{},
		&shipping.Box{},
		&shipping.ShipReturn{},
		&shipping.ShipReturnItem{},

		// quality
		&quality.DefectLog{},
		&quality.RepairLog{},
		&quality.OqcRequest{},
		&quality.OqcRequestBox{},
		&quality.InspectResult{},

		// maintenance
		&maintenance.PmPlan{},
		&maintenance.PmPlanItem{},
		&maintenance.PmWorkOrder{},
		&maintenance.PmWoResult{},
		&maintenance.Consumable{},
		&maintenance.ConsumableLog{},

		// outsourcing
		&outsourcing.Vendor{},
		&outsourcing.Order{},
		&outsourcing.Delivery{},
		&outsourcing.Receive{},
	}
}
