// Package numbering draws document numbers from the numbering rules and
// serial UIDs from the database sequence functions.
package numbering

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	Rules() numbering.RuleRepository
	UIDs() numbering.UIDSource
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// ErrRuleNotRegistered is returned when no active rule exists for a rule type
var ErrRuleNotRegistered = shared.NewDomainError("RULE_NOT_REGISTERED", "numbering rule not registered")

// MaxBatchUIDs caps one UID batch
const MaxBatchUIDs = 1000

// Service manages numbering rules and draws numbers
type Service struct {
	rules numbering.RuleRepository
	tx    TransactionScope
	now   func() time.Time
}

// NewService creates a new numbering Service
func NewService(rules numbering.RuleRepository, tx TransactionScope) *Service {
	return &Service{rules: rules, tx: tx, now: time.Now}
}

// NextNumber draws the next number of ruleType in its own transaction
func (s *Service) NextNumber(ctx context.Context, actor shared.Actor, ruleType string) (number string, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "numbering", "next_number", "rule_type", ruleType, "plant", actor.Plant)
	defer func() { telemetry.EndSpan(span, err) }()

	err = s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		number, err = NextNumberInTx(ctx, repos.Rules(), actor, ruleType, s.now())
		return err
	})
	return number, err
}

// NextNumberInTx draws the next number of ruleType using rules bound to the
// caller's transaction. The rule row stays locked until that transaction ends.
func NextNumberInTx(ctx context.Context, rules numbering.RuleRepository, actor shared.Actor, ruleType string, now time.Time) (string, error) {
	rule, err := rules.LockByType(ctx, actor, ruleType)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.NewDomainError(ErrRuleNotRegistered.Code, "numbering rule not registered: "+ruleType)
		}
		return "", err
	}
	number := rule.Advance(now, actor.UserID)
	if err := rules.Save(ctx, rule); err != nil {
		return "", err
	}
	logger.L(ctx).Debug("number drawn",
		zap.String("rule_type", ruleType),
		zap.Int("seq", rule.CurrentSeq),
		zap.String("number", number))
	return number, nil
}

// Preview renders the number the rule would issue next without consuming it
func (s *Service) Preview(ctx context.Context, actor shared.Actor, ruleType string) (string, error) {
	rule, err := s.rules.FindOne(ctx, actor, shared.Conds{"rule_type": ruleType, "use_yn": shared.Yes})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.NewDomainError(ErrRuleNotRegistered.Code, "numbering rule not registered: "+ruleType)
		}
		return "", err
	}
	now := s.now()
	seq := rule.CurrentSeq + 1
	if rule.NeedsReset(now) {
		seq = 1
	}
	return rule.Render(seq, now), nil
}

// NextUIDs draws count UIDs of kind in its own transaction
func (s *Service) NextUIDs(ctx context.Context, kind numbering.UIDKind, count int) ([]string, error) {
	var uids []string
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		uids, err = NextUIDsInTx(ctx, repos.UIDs(), kind, count)
		return err
	})
	return uids, err
}

// NextUIDsInTx draws count UIDs from a source bound to the caller's transaction
func NextUIDsInTx(ctx context.Context, source numbering.UIDSource, kind numbering.UIDKind, count int) ([]string, error) {
	if count <= 0 || count > MaxBatchUIDs {
		return nil, shared.InvalidInput("count must be between 1 and %d", MaxBatchUIDs)
	}
	uids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		uid, err := source.NextUID(ctx, kind)
		if err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, nil
}

// List returns a page of rules
func (s *Service) List(ctx context.Context, actor shared.Actor, filter shared.Filter) ([]numbering.Rule, int64, error) {
	return s.rules.List(ctx, actor, filter)
}

// GetByID returns one rule
func (s *Service) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*numbering.Rule, error) {
	return s.rules.FindByID(ctx, actor, id)
}

// Create registers a rule; ruleType is unique
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateRuleRequest) (*numbering.Rule, error) {
	if err := shared.EnsureUnique(ctx, s.rules, actor, shared.Conds{"rule_type": req.RuleType}, nil, "ruleType", req.RuleType); err != nil {
		return nil, err
	}
	rule, err := numbering.NewRule(actor, req.RuleType, req.Pattern, numbering.ResetType(req.ResetType))
	if err != nil {
		return nil, err
	}
	rule.RuleName = req.RuleName
	rule.Prefix = req.Prefix
	rule.Suffix = req.Suffix
	rule.Remark = req.Remark
	if req.SeqLength > 0 {
		rule.SeqLength = req.SeqLength
	}
	rule.UseYn = shared.YNOrDefault(req.UseYn, shared.Yes)
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Update changes the rule format; the current sequence is kept unless reset explicitly
func (s *Service) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateRuleRequest) (*numbering.Rule, error) {
	rule, err := s.rules.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.RuleName != nil {
		rule.RuleName = *req.RuleName
	}
	if req.Pattern != nil {
		if *req.Pattern == "" {
			return nil, shared.InvalidInput("pattern is required")
		}
		rule.Pattern = *req.Pattern
	}
	if req.Prefix != nil {
		rule.Prefix = *req.Prefix
	}
	if req.Suffix != nil {
		rule.Suffix = *req.Suffix
	}
	if req.SeqLength != nil && *req.SeqLength > 0 {
		rule.SeqLength = *req.SeqLength
	}
	if req.ResetType != nil {
		rt := numbering.ResetType(*req.ResetType)
		if !rt.IsValid() {
			return nil, shared.InvalidInput("invalid resetType: %s", rt)
		}
		rule.ResetType = rt
	}
	if req.CurrentSeq != nil {
		if *req.CurrentSeq < 0 {
			return nil, shared.InvalidInput("currentSeq cannot be negative")
		}
		rule.CurrentSeq = *req.CurrentSeq
	}
	if req.UseYn != nil {
		rule.UseYn = shared.YNOrDefault(*req.UseYn, rule.UseYn)
	}
	if req.Remark != nil {
		rule.Remark = *req.Remark
	}
	rule.Touch(actor.UserID)
	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Delete soft deletes a rule
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if _, err := s.rules.FindByID(ctx, actor, id); err != nil {
		return err
	}
	return s.rules.SoftDelete(ctx, actor, id)
}
