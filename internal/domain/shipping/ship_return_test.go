package shipping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnItem(t *testing.T) {
	item, err := NewReturnItem(uuid.New(), 2, " scrap ")
	require.NoError(t, err)
	assert.Equal(t, DisposalScrap, item.DisposalType)

	item, err = NewReturnItem(uuid.New(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, DisposalRestock, item.DisposalType)

	_, err = NewReturnItem(uuid.New(), 0, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewReturnItem(uuid.Nil, 1, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewReturnItem(uuid.New(), 1, "RESELL")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestShipReturn_Lifecycle(t *testing.T) {
	r, err := NewShipReturn(actor, "RT-20250301-001", now)
	require.NoError(t, err)
	assert.Equal(t, ReturnDraft, r.Status)
	assert.ErrorIs(t, r.Confirm("u1"), shared.ErrInvalidState, "no items")

	a, err := NewReturnItem(uuid.New(), 3, DisposalRepair)
	require.NoError(t, err)
	b, err := NewReturnItem(uuid.New(), 5, "")
	require.NoError(t, err)
	r.SetItems([]ShipReturnItem{a, b})
	assert.Equal(t, 2, r.ItemCount)
	assert.Equal(t, 8, r.TotalQty)
	assert.Equal(t, r.ID, r.Items[1].ReturnID)

	assert.ErrorIs(t, r.Complete("u1", now), shared.ErrInvalidState)
	require.NoError(t, r.Confirm("u1"))
	assert.ErrorIs(t, r.CanEdit(), shared.ErrInvalidState)
	require.NoError(t, r.Complete("u1", now))
	assert.Equal(t, ReturnCompleted, r.Status)
	assert.Equal(t, map[string]int{DisposalRepair: 3, DisposalRestock: 5}, r.QtyByDisposal())

	_, err = NewShipReturn(actor, " ", now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
