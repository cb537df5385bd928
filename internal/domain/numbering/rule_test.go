package numbering

import (
	"testing"
	"time"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, h, min, s int) time.Time {
	return time.Date(y, m, d, h, min, s, 0, time.Local)
}

func TestNewRule(t *testing.T) {
	actor := shared.Actor{UserID: "u1", Company: "HANES", Plant: "P01"}

	t.Run("applies defaults", func(t *testing.T) {
		rule, err := NewRule(actor, "MAT_LOT", "{PREFIX}{YYYY}{MM}{DD}{SEQ}", "")
		require.NoError(t, err)
		assert.Equal(t, ResetDaily, rule.ResetType)
		assert.Equal(t, 4, rule.SeqLength)
		assert.Equal(t, shared.Yes, rule.UseYn)
		assert.Equal(t, "P01", rule.Plant)
		assert.True(t, rule.IsActive())
	})

	t.Run("rejects empty type", func(t *testing.T) {
		_, err := NewRule(actor, " ", "{SEQ}", ResetNone)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects unknown reset type", func(t *testing.T) {
		_, err := NewRule(actor, "BOX", "{SEQ}", ResetType("HOURLY"))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestRule_NeedsReset(t *testing.T) {
	now := at(2025, 3, 15, 10, 0, 0)
	sameDay := at(2025, 3, 15, 1, 0, 0)
	prevDay := at(2025, 3, 14, 23, 59, 0)
	prevMonth := at(2025, 2, 15, 10, 0, 0)
	prevYear := at(2024, 3, 15, 10, 0, 0)

	tests := []struct {
		name      string
		resetType ResetType
		lastReset *time.Time
		want      bool
	}{
		{"daily same day", ResetDaily, &sameDay, false},
		{"daily previous day", ResetDaily, &prevDay, true},
		{"monthly same month", ResetMonthly, &prevDay, false},
		{"monthly previous month", ResetMonthly, &prevMonth, true},
		{"monthly same month previous year", ResetMonthly, &prevYear, true},
		{"yearly same year", ResetYearly, &prevMonth, false},
		{"yearly previous year", ResetYearly, &prevYear, true},
		{"none never resets", ResetNone, &prevYear, false},
		{"never reset is due", ResetDaily, nil, true},
		{"never reset none", ResetNone, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &Rule{ResetType: tt.resetType, LastReset: tt.lastReset}
			assert.Equal(t, tt.want, rule.NeedsReset(now))
		})
	}
}

func TestRule_Render(t *testing.T) {
	now := at(2025, 3, 5, 10, 0, 0)

	tests := []struct {
		name string
		rule Rule
		seq  int
		want string
	}{
		{"date and seq", Rule{Pattern: "{YYYY}{MM}{DD}-{SEQ}", SeqLength: 4}, 7, "20250305-0007"},
		{"short year", Rule{Pattern: "{YY}{MM}{SEQ}", SeqLength: 3}, 12, "2503012"},
		{"prefix placeholder", Rule{Pattern: "{PREFIX}-{YYYY}{SEQ}", Prefix: "LOT", SeqLength: 2}, 1, "LOT-202501"},
		{"prefix prepended", Rule{Pattern: "{YYYY}{SEQ}", Prefix: "WO", SeqLength: 3}, 5, "WO2025005"},
		{"prefix stripped when empty", Rule{Pattern: "{PREFIX}{DD}{SEQ}", SeqLength: 2}, 3, "0503"},
		{"suffix placeholder", Rule{Pattern: "{SEQ}{SUFFIX}-X", Suffix: "A", SeqLength: 2}, 9, "09A-X"},
		{"suffix appended", Rule{Pattern: "{SEQ}", Suffix: "-K", SeqLength: 3}, 9, "009-K"},
		{"suffix stripped when empty", Rule{Pattern: "{SEQ}{SUFFIX}", SeqLength: 3}, 9, "009"},
		{"seq wider than length", Rule{Pattern: "{SEQ}", SeqLength: 2}, 123, "123"},
		{"zero length uses default", Rule{Pattern: "{SEQ}"}, 1, "0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Render(tt.seq, now))
		})
	}
}

func TestRule_Advance(t *testing.T) {
	now := at(2025, 3, 15, 10, 0, 0)

	t.Run("increments within period", func(t *testing.T) {
		last := at(2025, 3, 15, 8, 0, 0)
		rule := &Rule{Pattern: "{PREFIX}{YYYY}{MM}{DD}{SEQ}", Prefix: "LOT", SeqLength: 4, CurrentSeq: 41, ResetType: ResetDaily, LastReset: &last}

		got := rule.Advance(now, "u9")

		assert.Equal(t, "LOT202503150042", got)
		assert.Equal(t, 42, rule.CurrentSeq)
		require.NotNil(t, rule.LastReset)
		assert.Equal(t, now, *rule.LastReset)
		assert.Equal(t, "u9", rule.UpdatedBy)
	})

	t.Run("restarts at one after reset", func(t *testing.T) {
		last := at(2025, 3, 14, 8, 0, 0)
		rule := &Rule{Pattern: "{SEQ}", SeqLength: 3, CurrentSeq: 99, ResetType: ResetDaily, LastReset: &last}

		assert.Equal(t, "001", rule.Advance(now, "u1"))
		assert.Equal(t, 1, rule.CurrentSeq)
	})

	t.Run("first use starts at one", func(t *testing.T) {
		rule := &Rule{Pattern: "{SEQ}", SeqLength: 3, CurrentSeq: 10, ResetType: ResetMonthly}
		assert.Equal(t, "001", rule.Advance(now, "u1"))
	})

	t.Run("none keeps counting", func(t *testing.T) {
		last := at(2020, 1, 1, 0, 0, 0)
		rule := &Rule{Pattern: "{SEQ}", SeqLength: 3, CurrentSeq: 10, ResetType: ResetNone, LastReset: &last}
		assert.Equal(t, "011", rule.Advance(now, "u1"))
	})
}
