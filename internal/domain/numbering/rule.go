package numbering

import (
	"fmt"
	"strings"
	"time"

	"github.com/mes/backend/internal/domain/shared"
)

// ResetType decides when a rule's sequence starts over
type ResetType string

const (
	ResetDaily   ResetType = "DAILY"
	ResetMonthly ResetType = "MONTHLY"
	ResetYearly  ResetType = "YEARLY"
	ResetNone    ResetType = "NONE"
)

// IsValid checks if the reset type is known
func (r ResetType) IsValid() bool {
	switch r {
	case ResetDaily, ResetMonthly, ResetYearly, ResetNone:
		return true
	}
	return false
}

// Rule types used by the services
const (
	RuleMatLot      = "MAT_LOT"
	RuleJobOrder    = "JOB_ORDER"
	RuleMatIssue    = "MAT_ISSUE"
	RuleBox         = "BOX"
	RulePallet      = "PALLET"
	RuleShipment    = "SHIPMENT"
	RuleSubconOrder = "SUBCON_ORDER"
)

const defaultSeqLength = 4

// Rule is a numbering rule. The row is locked while a number is drawn.
type Rule struct {
	shared.TenantEntity
	RuleType   string     `gorm:"type:varchar(50);not null;index" json:"ruleType"`
	RuleName   string     `gorm:"type:varchar(100)" json:"ruleName"`
	Pattern    string     `gorm:"type:varchar(100);not null" json:"pattern"`
	Prefix     string     `gorm:"type:varchar(20)" json:"prefix"`
	Suffix     string     `gorm:"type:varchar(20)" json:"suffix"`
	SeqLength  int        `gorm:"not null;default:4" json:"seqLength"`
	CurrentSeq int        `gorm:"not null;default:0" json:"currentSeq"`
	ResetType  ResetType  `gorm:"type:varchar(10);not null;default:'DAILY'" json:"resetType"`
	LastReset  *time.Time `json:"lastReset,omitempty"`
	UseYn      string     `gorm:"type:varchar(1);not null;default:'Y'" json:"useYn"`
	Remark     string     `gorm:"type:varchar(500)" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (Rule) TableName() string {
	return "num_rules"
}

// NewRule creates a rule with defaults applied
func NewRule(actor shared.Actor, ruleType, pattern string, resetType ResetType) (*Rule, error) {
	ruleType = strings.TrimSpace(ruleType)
	if ruleType == "" {
		return nil, shared.InvalidInput("ruleType is required")
	}
	if strings.TrimSpace(pattern) == "" {
		return nil, shared.InvalidInput("pattern is required")
	}
	if resetType == "" {
		resetType = ResetDaily
	}
	if !resetType.IsValid() {
		return nil, shared.InvalidInput("invalid resetType: %s", resetType)
	}
	return &Rule{
		TenantEntity: shared.NewTenantEntity(actor),
		RuleType:     ruleType,
		Pattern:      pattern,
		SeqLength:    defaultSeqLength,
		ResetType:    resetType,
		UseYn:        shared.Yes,
	}, nil
}

// IsActive reports whether the rule may be used to draw numbers
func (r *Rule) IsActive() bool {
	return r.UseYn == shared.Yes && !r.IsDeleted()
}

// NeedsReset reports whether the sequence must restart at now.
// A rule that was never reset is due unless it never resets.
func (r *Rule) NeedsReset(now time.Time) bool {
	if r.ResetType == ResetNone {
		return false
	}
	if r.LastReset == nil {
		return true
	}
	last := r.LastReset.In(now.Location())
	switch r.ResetType {
	case ResetDaily:
		return last.Format("2006-01-02") != now.Format("2006-01-02")
	case ResetMonthly:
		return last.Format("2006-01") != now.Format("2006-01")
	case ResetYearly:
		return last.Year() != now.Year()
	}
	return false
}

// Advance moves the sequence forward and returns the rendered number
func (r *Rule) Advance(now time.Time, userID string) string {
	if r.NeedsReset(now) {
		r.CurrentSeq = 1
	} else {
		r.CurrentSeq++
	}
	r.LastReset = &now
	r.Touch(userID)
	return r.Render(r.CurrentSeq, now)
}

// Render formats seq using the rule pattern at the given time
func (r *Rule) Render(seq int, now time.Time) string {
	length := r.SeqLength
	if length <= 0 {
		length = defaultSeqLength
	}
	out := strings.NewReplacer(
		"{YYYY}", now.Format("2006"),
		"{YY}", now.Format("06"),
		"{MM}", now.Format("01"),
		"{DD}", now.Format("02"),
		"{SEQ}", fmt.Sprintf("%0*d", length, seq),
	).Replace(r.Pattern)

	switch {
	case r.Prefix == "":
		out = strings.ReplaceAll(out, "{PREFIX}", "")
	case strings.Contains(out, "{PREFIX}"):
		out = strings.ReplaceAll(out, "{PREFIX}", r.Prefix)
	default:
		out = r.Prefix + out
	}

	switch {
	case r.Suffix == "":
		out = strings.ReplaceAll(out, "{SUFFIX}", "")
	case strings.Contains(out, "{SUFFIX}"):
		out = strings.ReplaceAll(out, "{SUFFIX}", r.Suffix)
	default:
		out = out + r.Suffix
	}
	return out
}
