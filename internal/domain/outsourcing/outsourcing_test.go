package outsourcing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actor = shared.Actor{UserID: "u1", Company: "HANES", Plant: "P01"}

func newOrder(t *testing.T, qty int) *Order {
	t.Helper()
	o, err := NewOrder(actor, "SCO202503010001", uuid.New(), "P-100", qty, decimal.RequireFromString("12.5"), time.Time{})
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o := newOrder(t, 4)
	assert.Equal(t, OrderOrdered, o.Status)
	assert.False(t, o.OrderDate.IsZero())
	assert.True(t, decimal.NewFromInt(50).Equal(o.Amount()))

	_, err := NewOrder(actor, "X", uuid.New(), "P", 0, decimal.Zero, time.Time{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewOrder(actor, "X", uuid.New(), "P", 1, decimal.NewFromInt(-1), time.Time{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrder_DeliverReceive(t *testing.T) {
	o := newOrder(t, 100)

	require.NoError(t, o.Deliver(60, "u1"))
	assert.Equal(t, OrderOrdered, o.Status)
	assert.ErrorIs(t, o.Deliver(41, "u1"), shared.ErrInvalidInput)
	require.NoError(t, o.Deliver(40, "u1"))
	assert.Equal(t, OrderDelivered, o.Status)
	assert.ErrorIs(t, o.Cancel("u1"), shared.ErrInvalidState)

	require.NoError(t, o.Receive(30, 2, "u1"))
	assert.Equal(t, OrderPartialRecv, o.Status)
	assert.Equal(t, 70, o.AtVendorQty())
	require.NoError(t, o.Receive(70, 0, "u1"))
	assert.Equal(t, OrderReceived, o.Status)
	assert.Equal(t, 2, o.DefectQty)
}

func TestOrder_Cancel(t *testing.T) {
	o := newOrder(t, 10)
	require.NoError(t, o.Cancel("u1"))
	assert.Equal(t, OrderCanceled, o.Status)
	assert.ErrorIs(t, o.Deliver(1, "u1"), shared.ErrInvalidState)
	assert.ErrorIs(t, o.Receive(1, 0, "u1"), shared.ErrInvalidState)
}

func TestNewReceive_GoodQtyDefault(t *testing.T) {
	r := NewReceive(actor, uuid.New(), "SCR1", 10, nil, nil)
	assert.Equal(t, 10, r.GoodQty)
	assert.Equal(t, 0, r.DefectQty)

	good, bad := 8, 2
	r = NewReceive(actor, uuid.New(), "SCR2", 10, &good, &bad)
	assert.Equal(t, 8, r.GoodQty)
	assert.Equal(t, 2, r.DefectQty)
}

func TestStockByVendor(t *testing.T) {
	v1 := &Vendor{VendorCode: "V1", VendorName: "One"}
	v1.ID = uuid.New()
	v2 := &Vendor{VendorCode: "V2"}
	v2.ID = uuid.New()

	stocks := StockByVendor([]Order{
		{VendorID: v1.ID, Vendor: v1, DeliveredQty: 50, ReceivedQty: 10},
		{VendorID: v2.ID, Vendor: v2, DeliveredQty: 5},
		{VendorID: v1.ID, Vendor: v1, DeliveredQty: 20, ReceivedQty: 20},
	})
	require.Len(t, stocks, 2)
	assert.Equal(t, "V1", stocks[0].VendorCode)
	assert.Equal(t, 70, stocks[0].DeliveredQty)
	assert.Equal(t, 40, stocks[0].StockQty)
	assert.Equal(t, 5, stocks[1].StockQty)
	assert.Empty(t, StockByVendor(nil))
}
