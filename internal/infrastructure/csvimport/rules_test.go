package csvimport

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, sheet string) []*Row {
	t.Helper()
	p, err := NewParser(strings.NewReader(sheet))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())
	rows, err := p.ReadAll(0)
	require.NoError(t, err)
	return rows
}

func partRules() []FieldRule {
	return []FieldRule{
		Field("partCode").Required().MaxLength(10).Unique().Build(),
		Field("partType").Required().OneOf("RAW", "WIP", "FG").Build(),
		Field("safetyStock").Int().Min(0).Build(),
		Field("qtyPer").Decimal().Min(0).Max(100).Build(),
		Field("validFrom").Date("2006-01-02").Build(),
		Field("spec").Custom(func(v string) error {
			if strings.Contains(v, ";") {
				return errors.New("must not contain ';'")
			}
			return nil
		}).Build(),
	}
}

func TestValidator_ValidRow(t *testing.T) {
	rows := readRows(t, "partCode,partType,safetyStock,qtyPer,validFrom,spec\nW-001,raw,10,1.5,2024-03-01,AVS\n")
	v := NewValidator(partRules(), 0)

	assert.True(t, v.ValidateRow(rows[0]))
	assert.False(t, v.Errors().HasErrors())
	assert.Equal(t, "RAW", Normalize(partRules()[1], rows[0].Get("partType")))
}

func TestValidator_CollectsEveryFailure(t *testing.T) {
	sheet := "partCode,partType,safetyStock,qtyPer,validFrom,spec\n" +
		",SEMI,-1,abc,03/01/2024,a;b\n" +
		"W-001,FG,,,,\n" +
		"w-001,FG,,101,,\n" +
		"TOO-LONG-CODE,FG,x,,,\n"
	v := NewValidator(partRules(), 0)
	for _, row := range readRows(t, sheet) {
		v.ValidateRow(row)
	}

	errs := v.Errors()
	codes := make([]string, 0, errs.Total())
	for _, e := range errs.Errors() {
		codes = append(codes, e.Column+":"+e.Code)
	}
	assert.Equal(t, []string{
		"partCode:" + CodeRequired,
		"partType:" + CodeNotAllowed,
		"safetyStock:" + CodeOutOfRange,
		"qtyPer:" + CodeInvalidType,
		"validFrom:" + CodeInvalidType,
		"spec:" + CodeInvalid,
		"partCode:" + CodeDuplicateFile,
		"qtyPer:" + CodeOutOfRange,
		"partCode:" + CodeInvalidLength,
		"safetyStock:" + CodeInvalidType,
	}, codes)
	assert.Equal(t, 3, errs.FailedRows())
	assert.True(t, errs.RowFailed(2))
	assert.False(t, errs.RowFailed(3))
	assert.True(t, errs.RowFailed(4))
}

func TestErrorCollection_Truncates(t *testing.T) {
	ec := NewErrorCollection(2)
	ec.AddRequired(2, "partCode")
	ec.AddDuplicate(3, "partCode", "W-1", true)
	ec.AddNotFound(4, "childCode", "W-9")

	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, 3, ec.Total())
	assert.True(t, ec.Truncated())
	assert.Equal(t, CodeDuplicateDB, ec.Errors()[1].Code)
	assert.Equal(t, "row 2, column 'partCode': value is required", ec.Errors()[0].Error())
}
