package persistence

import (
	"context"

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
	"gorm.io/gorm"
)

// Repositories gives access to every MES repository bound to one connection.
// Outside a transaction it wraps the pool; inside TransactionScope.Execute it wraps the tx.
// Application packages declare the subset they need as an interface.
type Repositories struct {
	db *gorm.DB
}

// NewRepositories creates repositories bound to db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{db: db}
}

// DB returns the underlying connection
func (r *Repositories) DB() *gorm.DB { return r.db }

func (r *Repositories) Rules() numbering.RuleRepository { return NewGormRuleRepository(r.db) }
func (r *Repositories) UIDs() numbering.UIDSource { return NewGormUIDSource(r.db) }
func (r *Repositories) SysConfigs() system.SysConfigRepository { return NewGormSysConfigRepository(r.db) }

func (r *Repositories) ComCodes() master.ComCodeRepository { return NewGormComCodeRepository(r.db) }
func (r *Repositories) Parts() master.PartRepository { return NewGormPartRepository(r.db) }
func (r *Repositories) Boms() master.BomRepository { return NewGormBomRepository(r.db) }
func (r *Repositories) Routings() master.RoutingRepository { return NewGormRoutingRepository(r.db) }
func (r *Repositories) Equipments() master.EquipmentRepository {
	return NewGormEquipmentRepository(r.db)
}
func (r *Repositories) EquipAttachments() master.EquipAttachmentRepository {
	return NewGormEquipAttachmentRepository(r.db)
}
func (r *Repositories) Partners() master.PartnerRepository { return NewGormPartnerRepository(r.db) }
func (r *Repositories) Warehouses() master.WarehouseRepository { return NewGormWarehouseRepository(r.db) }

func (r *Repositories) Users() identity.UserRepository { return NewGormUserRepository(r.db) }
func (r *Repositories) Roles() identity.RoleRepository { return NewGormRoleRepository(r.db) }

func (r *Repositories) PurchaseOrders() material.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.db)
}
func (r *Repositories) MatLots() material.MatLotRepository { return NewGormMatLotRepository(r.db) }
func (r *Repositories) MatStocks() material.MatStockRepository { return NewGormMatStockRepository(r.db) }
func (r *Repositories) MatTransactions() material.MatTransactionRepository {
	return NewGormMatTransactionRepository(r.db)
}
func (r *Repositories) MatIssues() material.MatIssueRepository { return NewGormMatIssueRepository(r.db) }
func (r *Repositories) LabelLogs() material.LabelPrintLogRepository {
	return NewGormLabelPrintLogRepository(r.db)
}

func (r *Repositories) JobOrders() production.JobOrderRepository {
	return NewGormJobOrderRepository(r.db)
}
func (r *Repositories) ProdResults() production.ProdResultRepository {
	return NewGormProdResultRepository(r.db)
}
func (r *Repositories) ProdPlans() production.ProdPlanRepository {
	return NewGormProdPlanRepository(r.db)
}

func (r *Repositories) Boxes() shipping.BoxRepository { return NewGormBoxRepository(r.db) }
func (r *Repositories) Pallets() shipping.PalletRepository { return NewGormPalletRepository(r.db) }
func (r *Repositories) Shipments() shipping.ShipmentRepository { return NewGormShipmentRepository(r.db) }
func (r *Repositories) ShipReturns() shipping.ShipReturnRepository {
	return NewGormShipReturnRepository(r.db)
}

func (r *Repositories) DefectLogs() quality.DefectLogRepository { return NewGormDefectLogRepository(r.db) }
func (r *Repositories) RepairLogs() quality.RepairLogRepository { return NewGormRepairLogRepository(r.db) }
func (r *Repositories) OqcRequests() quality.OqcRequestRepository {
	return NewGormOqcRequestRepository(r.db)
}
func (r *Repositories) InspectResults() quality.InspectResultRepository {
	return NewGormInspectResultRepository(r.db)
}

func (r *Repositories) PmPlans() maintenance.PmPlanRepository { return NewGormPmPlanRepository(r.db) }
func (r *Repositories) PmWorkOrders() maintenance.PmWorkOrderRepository {
	return NewGormPmWorkOrderRepository(r.db)
}
func (r *Repositories) PlanTenants() maintenance.TenantLister { return NewGormPmPlanRepository(r.db) }
func (r *Repositories) Consumables() maintenance.ConsumableRepository {
	return NewGormConsumableRepository(r.db)
}
func (r *Repositories) ConsumableLogs() maintenance.ConsumableLogRepository {
	return NewGormConsumableLogRepository(r.db)
}

func (r *Repositories) SubconVendors() outsourcing.VendorRepository { return NewGormVendorRepository(r.db) }
func (r *Repositories) SubconOrders() outsourcing.OrderRepository { return NewGormOrderRepository(r.db) }
func (r *Repositories) SubconDeliveries() outsourcing.DeliveryRepository {
	return NewGormDeliveryRepository(r.db)
}
func (r *Repositories) SubconReceives() outsourcing.ReceiveRepository {
	return NewGormReceiveRepository(r.db)
}

// TransactionScope implements an application TransactionScope using GORM transactions.
// R is the repository view the application package declares; build narrows
// *Repositories to it.
type TransactionScope[R any] struct {
	db    *gorm.DB
	build func(*Repositories) R
}

// NewTransactionScope creates a new TransactionScope
func NewTransactionScope[R any](db *gorm.DB, build func(*Repositories) R) *TransactionScope[R] {
	return &TransactionScope[R]{db: db, build: build}
}

// Execute runs fn within a database transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
func (s *TransactionScope[R]) Execute(ctx context.Context, fn func(repos R) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.build(NewRepositories(tx)))
	})
}

// NoOpTransactionScope runs fn directly against fixed repositories.
// Used in unit tests where repositories are mocks.
type NoOpTransactionScope[R any] struct {
	Repos R
}

// Execute calls fn with the fixed repositories
func (s NoOpTransactionScope[R]) Execute(_ context.Context, fn func(repos R) error) error {
	return fn(s.Repos)
}
