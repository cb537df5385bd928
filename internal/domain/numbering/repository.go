package numbering

import (
	"context"

	"github.com/mes/backend/internal/domain/shared"
)

// RuleRepository persists numbering rules
type RuleRepository interface {
	shared.Repository[Rule]
	// LockByType loads the active rule of ruleType with a row lock held until
	// the surrounding transaction ends. A missing rule returns shared.ErrNotFound.
	LockByType(ctx context.Context, scope shared.Actor, ruleType string) (*Rule, error)
}

// UIDKind selects the database sequence a UID is drawn from
type UIDKind string

const (
	UIDMaterial   UIDKind = "MAT"
	UIDProduct    UIDKind = "PRD"
	UIDConsumable UIDKind = "CON"
)

// FunctionName returns the database function producing the next UID of the kind
func (k UIDKind) FunctionName() string {
	switch k {
	case UIDMaterial:
		return "f_get_mat_uid"
	case UIDProduct:
		return "f_get_prd_uid"
	case UIDConsumable:
		return "f_get_con_uid"
	}
	return ""
}

// UIDSource draws serial UIDs from database-side sequence functions.
// It must be bound to the caller's transaction.
type UIDSource interface {
	NextUID(ctx context.Context, kind UIDKind) (string, error)
}
