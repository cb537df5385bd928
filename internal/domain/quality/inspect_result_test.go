package quality

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInspectResult(t *testing.T) {
	r, err := NewInspectResult(actor, uuid.New(), " n ", time.Time{})
	require.NoError(t, err)
	assert.False(t, r.Passed())
	assert.False(t, r.InspectAt.IsZero())
	assert.Equal(t, "u1", r.InspectorID)

	_, err = NewInspectResult(actor, uuid.Nil, "Y", time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewInspectResult(actor, uuid.New(), "OK", time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, r.SetPass("y"))
	assert.True(t, r.Passed())
	assert.ErrorIs(t, r.SetPass(""), shared.ErrInvalidInput)
}

func TestInspectData_ValueScan(t *testing.T) {
	v, err := InspectData(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = InspectData{"voltage": 12.5}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"voltage":12.5}`, v)

	var d InspectData
	require.NoError(t, d.Scan([]byte(`{"resistance":0.4}`)))
	assert.InDelta(t, 0.4, d["resistance"], 0.0001)
	require.NoError(t, d.Scan(nil))
	assert.Nil(t, d)
	assert.Error(t, d.Scan(42))
}

func TestPassRate(t *testing.T) {
	assert.Zero(t, PassRate(0, 0))
	assert.InDelta(t, 66.67, PassRate(2, 3), 0.0001)
	rate := NewInspectPassRate(8, 6)
	assert.Equal(t, int64(2), rate.FailCount)
	assert.InDelta(t, 75.0, rate.PassRate, 0.0001)
}
