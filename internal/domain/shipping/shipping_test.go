package shipping

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actor = shared.Actor{UserID: "u1", Company: "HANES", Plant: "P01"}

var now = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func closedBox(t *testing.T, no string, serials ...string) *Box {
	t.Helper()
	b, err := NewBox(actor, no, uuid.New(), serials)
	require.NoError(t, err)
	require.NoError(t, b.Close(now, "u1"))
	return b
}

func TestBox_Serials(t *testing.T) {
	b, err := NewBox(actor, "BOX1", uuid.New(), []string{"S1", "S2"})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Qty)

	err = b.AddSerials([]string{"S2", "S3"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.Equal(t, 2, b.Qty)

	require.NoError(t, b.AddSerials([]string{"S3"}))
	assert.Equal(t, []string{"S1", "S2", "S3"}, b.SerialList)

	assert.ErrorIs(t, b.RemoveSerials([]string{"S9"}), shared.ErrNotFound)
	require.NoError(t, b.RemoveSerials([]string{"S1"}))
	assert.Equal(t, 2, b.Qty)

	t.Run("duplicates inside one request", func(t *testing.T) {
		b, err := NewBox(actor, "BOX2", uuid.New(), nil)
		require.NoError(t, err)
		assert.ErrorIs(t, b.AddSerials([]string{"A", "A"}), shared.ErrAlreadyExists)
	})
}

func TestBox_CloseReopen(t *testing.T) {
	empty, err := NewBox(actor, "BOX0", uuid.New(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, empty.Close(now, "u1"), shared.ErrInvalidState)

	b := closedBox(t, "BOX1", "S1")
	assert.Equal(t, BoxClosed, b.Status)
	assert.ErrorIs(t, b.AddSerials([]string{"S2"}), shared.ErrInvalidState)
	assert.True(t, b.AwaitingOqc())

	pid := uuid.New()
	b.PalletID = &pid
	assert.ErrorIs(t, b.Reopen("u1"), shared.ErrInvalidState)
	assert.ErrorIs(t, b.CanDelete(), shared.ErrInvalidState)

	b.PalletID = nil
	require.NoError(t, b.Reopen("u1"))
	assert.Equal(t, BoxOpen, b.Status)
	assert.Nil(t, b.CloseAt)
}

func TestPallet_Boxes(t *testing.T) {
	p, err := NewPallet(actor, "PLT1")
	require.NoError(t, err)

	open, err := NewBox(actor, "BOX0", uuid.New(), []string{"X"})
	require.NoError(t, err)
	assert.ErrorIs(t, p.AddBoxes([]*Box{open}), shared.ErrInvalidState)

	b1 := closedBox(t, "BOX1", "S1", "S2")
	b2 := closedBox(t, "BOX2", "S3")
	require.NoError(t, p.AddBoxes([]*Box{b1, b2}))
	assert.Equal(t, p.ID, *b1.PalletID)
	p.Recount([]Box{*b1, *b2})
	assert.Equal(t, 2, p.BoxCount)
	assert.Equal(t, 3, p.TotalQty)

	other, err := NewPallet(actor, "PLT2")
	require.NoError(t, err)
	assert.ErrorIs(t, other.AddBoxes([]*Box{b1}), shared.ErrInvalidState)
	assert.ErrorIs(t, other.RemoveBoxes([]*Box{b1}), shared.ErrInvalidState)

	require.NoError(t, p.Close(now, "u1"))
	assert.ErrorIs(t, p.RemoveBoxes([]*Box{b1}), shared.ErrInvalidState)
	require.NoError(t, p.Reopen("u1"))
	require.NoError(t, p.RemoveBoxes([]*Box{b2}))
	assert.Nil(t, b2.PalletID)

	assert.ErrorIs(t, other.Close(now, "u1"), shared.ErrInvalidState)
	assert.ErrorIs(t, p.CanDelete(), shared.ErrInvalidState)
	assert.NoError(t, other.CanDelete())
}

func closedPallet(t *testing.T, no string, boxes, qty int) *Pallet {
	t.Helper()
	p, err := NewPallet(actor, no)
	require.NoError(t, err)
	p.BoxCount = boxes
	p.TotalQty = qty
	require.NoError(t, p.Close(now, "u1"))
	return p
}

func TestShipment_Lifecycle(t *testing.T) {
	s, err := NewShipment(actor, "SHP1")
	require.NoError(t, err)
	assert.Equal(t, ShipmentPreparing, s.Status)
	assert.ErrorIs(t, s.MarkLoaded("u1"), shared.ErrInvalidState)

	p1 := closedPallet(t, "PLT1", 2, 20)
	p2 := closedPallet(t, "PLT2", 1, 5)
	require.NoError(t, s.LoadPallets([]*Pallet{p1, p2}))
	assert.Equal(t, PalletLoaded, p1.Status)
	assert.Equal(t, s.ID, *p2.ShipmentID)
	assert.ErrorIs(t, p1.Reopen("u1"), shared.ErrInvalidState)

	require.NoError(t, s.UnloadPallets([]*Pallet{p2}))
	assert.Equal(t, PalletClosed, p2.Status)
	assert.Nil(t, p2.ShipmentID)

	s.Recount([]Pallet{*p1})
	assert.Equal(t, 1, s.PalletCount)
	assert.Equal(t, 2, s.BoxCount)
	assert.Equal(t, 20, s.TotalQty)
	assert.ErrorIs(t, s.CanDelete(), shared.ErrInvalidState)

	require.NoError(t, s.MarkLoaded("u1"))
	assert.ErrorIs(t, s.LoadPallets([]*Pallet{p2}), shared.ErrInvalidState)

	pass := closedBox(t, "BOX1", "S1")
	pass.SetOqcStatus(OqcPass)
	fail := closedBox(t, "BOX2", "S2")
	fail.SetOqcStatus(OqcFail)
	unchecked := closedBox(t, "BOX3", "S3")

	err = s.Ship([]Box{*pass, *fail}, now, "u1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Contains(t, err.Error(), "BOX2")

	require.NoError(t, s.Ship([]Box{*pass, *unchecked}, now, "u1"))
	assert.Equal(t, ShipmentShipped, s.Status)
	assert.Equal(t, now, *s.ShipDate)
	assert.ErrorIs(t, s.CanModify(), shared.ErrInvalidState)

	require.NoError(t, s.MarkDelivered(now.Add(time.Hour), "u1"))
	assert.Equal(t, ShipmentDelivered, s.Status)
	assert.ErrorIs(t, s.Cancel(nil, "", "u1"), shared.ErrInvalidState)

	s.MarkSynced("u1")
	assert.Equal(t, shared.Yes, s.ErpSyncYn)
}

func TestShipment_Cancel(t *testing.T) {
	s, err := NewShipment(actor, "SHP2")
	require.NoError(t, err)
	p := closedPallet(t, "PLT1", 1, 10)
	require.NoError(t, s.LoadPallets([]*Pallet{p}))
	s.Recount([]Pallet{*p})

	require.NoError(t, s.Cancel([]*Pallet{p}, "customer hold", "u1"))
	assert.Equal(t, ShipmentCanceled, s.Status)
	assert.Equal(t, 0, s.PalletCount)
	assert.Equal(t, 0, s.TotalQty)
	assert.Equal(t, PalletClosed, p.Status)
	assert.Nil(t, p.ShipmentID)
	assert.Equal(t, "customer hold", s.Remark)
}

func TestShipment_ForceStatus(t *testing.T) {
	s, err := NewShipment(actor, "SHP3")
	require.NoError(t, err)
	assert.ErrorIs(t, s.ForceStatus("LOST", "u1"), shared.ErrInvalidInput)
	require.NoError(t, s.ForceStatus(ShipmentDelivered, "u1"))
	assert.Equal(t, ShipmentDelivered, s.Status)
}
