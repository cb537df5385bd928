package csvimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
)

// FieldRule describes the checks applied to one column
type FieldRule struct {
	Column     string
	Type       FieldType
	Required   bool
	MaxLength  int
	Min        *decimal.Decimal
	Max        *decimal.Decimal
	Allowed    []string
	Unique     bool
	DateFormat string
	Custom     func(value string) error
}

// RuleBuilder builds a FieldRule fluently
type RuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column
func Field(column string) *RuleBuilder {
	return &RuleBuilder{rule: FieldRule{Column: column, Type: TypeString, DateFormat: "2006-01-02"}}
}

// Required rejects blank cells
func (b *RuleBuilder) Required() *RuleBuilder {
	b.rule.Required = true
	return b
}

// Int expects a whole number
func (b *RuleBuilder) Int() *RuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal expects a number
func (b *RuleBuilder) Decimal() *RuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Unique rejects a value repeated in the file; comparison ignores case
func (b *RuleBuilder) Unique() *RuleBuilder {
	b.rule.Unique = true
	return b
}

// Date expects values in layout
func (b *RuleBuilder) Date(layout string) *RuleBuilder {
	b.rule.Type = TypeDate
	b.rule.DateFormat = layout
	return b
}

// MaxLength limits the value to n characters
func (b *RuleBuilder) MaxLength(n int) *RuleBuilder { b.rule.MaxLength = n; return b }

// Min sets an inclusive lower bound for numeric columns
func (b *RuleBuilder) Min(v int64) *RuleBuilder {
	d := decimal.NewFromInt(v)
	b.rule.Min = &d
	return b
}

// Max sets an inclusive upper bound for numeric columns
func (b *RuleBuilder) Max(v int64) *RuleBuilder {
	d := decimal.NewFromInt(v)
	b.rule.Max = &d
	return b
}

// OneOf restricts the value to values. Matching ignores case; use Normalize
// to read the canonical spelling back.
func (b *RuleBuilder) OneOf(values ...string) *RuleBuilder {
	b.rule.Allowed = values
	return b
}

// Custom adds a check run after the built-in ones
func (b *RuleBuilder) Custom(fn func(value string) error) *RuleBuilder {
	b.rule.Custom = fn
	return b
}

// Build returns the rule
func (b *RuleBuilder) Build() FieldRule { return b.rule }

// Validator applies rules to rows, collecting every failure
type Validator struct {
	rules  []FieldRule
	seen   map[string]map[string]int
	errors *ErrorCollection
}

// NewValidator creates a validator. Rules are checked in the given order.
func NewValidator(rules []FieldRule, maxErrors int) *Validator {
	return &Validator{
		rules:  rules,
		seen:   make(map[string]map[string]int),
		errors: NewErrorCollection(maxErrors),
	}
}

// Errors returns the collected errors
func (v *Validator) Errors() *ErrorCollection { return v.errors }

// ValidateRow checks row and reports whether it passed every rule
func (v *Validator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		if !v.validateCell(row, rule) {
			ok = false
		}
	}
	return ok
}

func (v *Validator) validateCell(row *Row, rule FieldRule) bool {
	value := row.Get(rule.Column)
	if value == "" {
		if rule.Required {
			v.errors.AddRequired(row.Line, rule.Column)
			return false
		}
		return true
	}
	fail := func(code, msg string) bool {
		v.errors.Add(RowError{Row: row.Line, Column: rule.Column, Code: code, Message: msg, Value: value})
		return false
	}

	if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
		return fail(CodeInvalidLength, fmt.Sprintf("must be at most %d characters", rule.MaxLength))
	}
	switch rule.Type {
	case TypeInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fail(CodeInvalidType, "must be an integer")
		}
		if !inRange(decimal.NewFromInt(n), rule) {
			return fail(CodeOutOfRange, rangeMessage(rule))
		}
	case TypeDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fail(CodeInvalidType, "must be a number")
		}
		if !inRange(d, rule) {
			return fail(CodeOutOfRange, rangeMessage(rule))
		}
	case TypeDate:
		if _, err := time.Parse(rule.DateFormat, value); err != nil {
			return fail(CodeInvalidType, "must be a date in format "+rule.DateFormat)
		}
	}
	if len(rule.Allowed) > 0 && Normalize(rule, value) == "" {
		return fail(CodeNotAllowed, "must be one of "+strings.Join(rule.Allowed, ", "))
	}
	if rule.Custom != nil {
		if err := rule.Custom(value); err != nil {
			return fail(CodeInvalid, err.Error())
		}
	}
	if rule.Unique {
		key := strings.ToUpper(value)
		if v.seen[rule.Column] == nil {
			v.seen[rule.Column] = make(map[string]int)
		}
		if first, dup := v.seen[rule.Column][key]; dup {
			v.errors.Add(RowError{Row: row.Line, Column: rule.Column, Code: CodeDuplicateFile,
				Message: fmt.Sprintf("value is repeated in the file (first on row %d)", first), Value: value})
			return false
		}
		v.seen[rule.Column][key] = row.Line
	}
	return true
}

// Normalize returns the allowed spelling matching value, or "" when value is
// not allowed. Rules without an allow list return value unchanged.
func Normalize(rule FieldRule, value string) string {
	if len(rule.Allowed) == 0 {
		return value
	}
	for _, a := range rule.Allowed {
		if strings.EqualFold(a, value) {
			return a
		}
	}
	return ""
}

func inRange(d decimal.Decimal, rule FieldRule) bool {
	if rule.Min != nil && d.LessThan(*rule.Min) {
		return false
	}
	if rule.Max != nil && d.GreaterThan(*rule.Max) {
		return false
	}
	return true
}

func rangeMessage(rule FieldRule) string {
	switch {
	case rule.Min != nil && rule.Max != nil:
		return fmt.Sprintf("must be between %s and %s", rule.Min, rule.Max)
	case rule.Min != nil:
		return fmt.Sprintf("must be at least %s", rule.Min)
	default:
		return fmt.Sprintf("must be at most %s", rule.Max)
	}
}
