package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRuleRepository implements RuleRepository using GORM
type GormRuleRepository struct {
	*GormCrudRepository[numbering.Rule]
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{NewGormCrudRepository[numbering.Rule](db, CrudOptions{
		SearchColumns: []string{"rule_type", "rule_name", "pattern"},
		StatusColumn:  "use_yn",
		SortFields:    sortFields("rule_type", "rule_name", "reset_type"),
		DefaultOrder:  "rule_type ASC",
	})}
}

// LockByType reads the active rule of ruleType with SELECT ... FOR UPDATE.
// The lock is held until the surrounding transaction ends.
func (r *GormRuleRepository) LockByType(ctx context.Context, scope shared.Actor, ruleType string) (*numbering.Rule, error) {
	var rule numbering.Rule
	err := r.plain(ctx, scope).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("rule_type = ? AND use_yn = ?", ruleType, shared.Yes).
		First(&rule).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &rule, nil
}

// GormUIDSource draws UIDs from the database sequence functions
type GormUIDSource struct {
	db *gorm.DB
}

// NewGormUIDSource creates a new GormUIDSource bound to db (usually a transaction)
func NewGormUIDSource(db *gorm.DB) *GormUIDSource {
	return &GormUIDSource{db: db}
}

// NextUID calls the sequence function of kind and returns its value
func (s *GormUIDSource) NextUID(ctx context.Context, kind numbering.UIDKind) (string, error) {
	fn := kind.FunctionName()
	if fn == "" {
		return "", shared.InvalidInput("unknown uid kind: %s", kind)
	}
	var uid string
	if err := s.db.WithContext(ctx).Raw(fmt.Sprintf("SELECT %s() AS uid", fn)).Scan(&uid).Error; err != nil {
		return "", fmt.Errorf("draw %s uid: %w", strings.ToLower(string(kind)), err)
	}
	if uid == "" {
		return "", fmt.Errorf("draw %s uid: function %s returned no value", strings.ToLower(string(kind)), fn)
	}
	return uid, nil
}

var (
	_ numbering.RuleRepository = (*GormRuleRepository)(nil)
	_ numbering.UIDSource      = (*GormUIDSource)(nil)
)
