package system

import (
	"testing"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSysConfig(t *testing.T) {
	c, err := NewSysConfig(shared.Actor{UserID: "u1"}, "LABEL", "PRINT_MODE", "server")
	require.NoError(t, err)
	assert.Equal(t, shared.Yes, c.IsActive)
	assert.Equal(t, "PRINT_MODE", c.Label)

	_, err = NewSysConfig(shared.Actor{}, "", "K", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSysConfig_Helpers(t *testing.T) {
	configs := []SysConfig{
		{ConfigGroup: "A", ConfigKey: "IQC_REQUIRED", ConfigValue: "Y", Label: "IQC required"},
		{ConfigGroup: "B", ConfigKey: "PRINT_MODE", ConfigValue: "server", Description: "Label printer"},
		{ConfigGroup: "A", ConfigKey: "FIFO", ConfigValue: "N"},
	}

	g := Grouped(configs)
	assert.Len(t, g["A"], 2)
	assert.Len(t, g["B"], 1)

	m := ValueMap(configs)
	assert.Equal(t, "server", m["PRINT_MODE"])

	assert.True(t, configs[0].Matches("iqc"))
	assert.True(t, configs[1].Matches("PRINTER"))
	assert.False(t, configs[2].Matches("label"))
	assert.True(t, configs[2].Matches(""))
}
