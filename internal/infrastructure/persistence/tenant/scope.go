// Package tenant provides company/plant scoping for GORM queries.
//
// Every MES table carries the tenant columns company and plant. A request that
// sends X-Company / X-Plant only sees rows of that tenant; empty values leave the
// query unscoped on that column.
//
// Usage:
//
//	db.Scopes(tenant.Scope(actor)).Find(&parts)
package tenant

import (
	"context"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column names of the tenant columns
const (
	CompanyColumn = "company"
	PlantColumn   = "plant"
)

// Scope applies company/plant filtering for the given actor
func Scope(actor shared.Actor) func(db *gorm.DB) *gorm.DB {
	return Columns(actor.Company, actor.Plant)
}

// Columns applies company/plant filtering; empty values are skipped
func Columns(company, plant string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if company != "" {
			db = db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: CompanyColumn}, Value: company})
		}
		if plant != "" {
			db = db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: PlantColumn}, Value: plant})
		}
		return db
	}
}

// FromContext applies the tenant stored in the request context by the tenant middleware
func FromContext(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return Columns(logger.GetCompany(ctx), logger.GetPlant(ctx))
}
