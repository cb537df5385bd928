package material

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

func newPO(t *testing.T, qtys ...int) *PurchaseOrder {
	t.Helper()
	po, err := NewPurchaseOrder(actor, "PO-001", time.Time{})
	require.NoError(t, err)
	items := make([]PurchaseOrderItem, 0, len(qtys))
	for _, q := range qtys {
		item, err := NewPurchaseOrderItem(uuid.New(), q, decimal.RequireFromString("1.25"), "")
		require.NoError(t, err)
		items = append(items, item)
	}
	require.NoError(t, po.SetItems(items))
	return po
}

func TestPurchaseOrder_Lifecycle(t *testing.T) {
	po := newPO(t, 10, 4)
	assert.Equal(t, POStatusDraft, po.Status)
	assert.False(t, po.OrderDate.IsZero())
	assert.True(t, po.TotalAmount.Equal(decimal.RequireFromString("17.5")))
	assert.Equal(t, po.ID, po.Items[0].PoID)
	assert.False(t, po.CanReceive())

	require.NoError(t, po.Confirm("u2"))
	assert.Equal(t, POStatusConfirmed, po.Status)
	assert.True(t, po.CanReceive())
	assert.ErrorIs(t, po.Confirm("u2"), shared.ErrInvalidState)

	require.NoError(t, po.Close("u2"))
	assert.Equal(t, POStatusClosed, po.Status)
	assert.ErrorIs(t, po.Cancel("u2"), shared.ErrInvalidState)
}

func TestPurchaseOrder_ConfirmWithoutItems(t *testing.T) {
	po, err := NewPurchaseOrder(actor, "PO-002", time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, po.Confirm("u1"), shared.ErrInvalidState)
}

func TestPurchaseOrder_CancelWithReceipts(t *testing.T) {
	po := newPO(t, 10)
	require.NoError(t, po.Confirm("u1"))
	po.Items[0].ReceivedQty = 1
	assert.ErrorIs(t, po.Cancel("u1"), shared.ErrInvalidState)
}

func TestPurchaseOrder_RecomputeStatus(t *testing.T) {
	po := newPO(t, 10, 4)

	assert.Equal(t, POStatusConfirmed, po.RecomputeStatus())

	po.Items[0].ReceivedQty = 3
	assert.Equal(t, POStatusPartial, po.RecomputeStatus())

	po.Items[0].ReceivedQty = 10
	po.Items[1].ReceivedQty = 4
	assert.Equal(t, POStatusReceived, po.RecomputeStatus())

	ordered, received, remaining := po.Totals()
	assert.Equal(t, 14, ordered)
	assert.Equal(t, 14, received)
	assert.Equal(t, 0, remaining)
}

func TestNewPurchaseOrderItem_Validation(t *testing.T) {
	_, err := NewPurchaseOrderItem(uuid.New(), 0, decimal.Zero, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewPurchaseOrderItem(uuid.New(), 1, decimal.NewFromInt(-1), "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMatLot_Consume(t *testing.T) {
	lot, err := NewMatLot(actor, "LOT-1", uuid.New(), 10, time.Now())
	require.NoError(t, err)
	assert.Equal(t, IqcPending, lot.IqcStatus)

	assert.ErrorIs(t, lot.Consume(1), shared.ErrInvalidState)

	require.NoError(t, lot.UpdateIqc(IqcPass, "qc"))
	assert.ErrorIs(t, lot.Consume(11), shared.ErrInsufficientStock)

	require.NoError(t, lot.Consume(4))
	assert.Equal(t, 6, lot.CurrentQty)
	assert.Equal(t, LotStatusNormal, lot.Status)

	require.NoError(t, lot.Consume(6))
	assert.Equal(t, LotStatusDepleted, lot.Status)

	lot.Restore(6)
	assert.Equal(t, 6, lot.CurrentQty)
	assert.Equal(t, LotStatusNormal, lot.Status)
}

func TestMatLot_ReduceClamps(t *testing.T) {
	lot, err := NewMatLot(actor, "LOT-2", uuid.New(), 5, time.Now())
	require.NoError(t, err)
	lot.Reduce(8)
	assert.Equal(t, 0, lot.CurrentQty)
	assert.Equal(t, LotStatusDepleted, lot.Status)
}

func TestMatLot_HoldRelease(t *testing.T) {
	lot, err := NewMatLot(actor, "LOT-3", uuid.New(), 5, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, lot.Release("u1"), shared.ErrInvalidState)
	require.NoError(t, lot.Hold("u1"))
	assert.ErrorIs(t, lot.Hold("u1"), shared.ErrInvalidState)
	require.NoError(t, lot.Release("u1"))
	assert.Equal(t, LotStatusNormal, lot.Status)

	assert.ErrorIs(t, lot.UpdateIqc(IqcStatus("OK"), "u1"), shared.ErrInvalidInput)
}

func TestMatStock_ApplyDelta(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		qty       int
		reserved  int
		delta     int
		wantQty   int
		wantAvail int
	}{
		{"add", 5, 0, 3, 8, 8},
		{"subtract", 5, 0, -3, 2, 2},
		{"clamps at zero", 5, 0, -9, 0, 0},
		{"reserved reduces available", 10, 4, 2, 12, 8},
		{"available clamps at zero", 3, 5, 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &MatStock{Qty: tt.qty, ReservedQty: tt.reserved}
			s.ApplyDelta(tt.delta, now)
			assert.Equal(t, tt.wantQty, s.Qty)
			assert.Equal(t, tt.wantAvail, s.AvailableQty)
			assert.Equal(t, &now, s.LastTransAt)
		})
	}
}

func TestStockSummary_BelowSafety(t *testing.T) {
	assert.True(t, StockSummary{SafetyStock: 10, AvailableQty: 5}.BelowSafety())
	assert.False(t, StockSummary{SafetyStock: 0, AvailableQty: 0}.BelowSafety())
	assert.False(t, StockSummary{SafetyStock: 10, AvailableQty: 10}.BelowSafety())
}

func TestMatTransaction_CancelArrival(t *testing.T) {
	now := time.Now()
	lotID := uuid.New()
	wh := uuid.New()
	in := NewMatTransaction(actor, "ARR-1", TransMatIn, uuid.New(), &lotID, 7, now)
	in.ToWarehouseID = &wh

	rev, err := in.CancelArrival(actor, "wrong part", now)
	require.NoError(t, err)
	assert.Equal(t, TransCanceled, in.Status)
	assert.Equal(t, "ARR-1-C", rev.TransNo)
	assert.Equal(t, TransMatInCancel, rev.TransType)
	assert.Equal(t, -7, rev.Qty)
	assert.Equal(t, &wh, rev.FromWarehouseID)
	require.NotNil(t, rev.CancelRefID)
	assert.Equal(t, in.ID, *rev.CancelRefID)
	assert.Equal(t, RefCancel, rev.RefType)

	_, err = in.CancelArrival(actor, "", now)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	rcv := NewMatTransaction(actor, "RCV-1", TransReceive, uuid.New(), &lotID, 7, now)
	_, err = rcv.CancelArrival(actor, "", now)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestMatIssue(t *testing.T) {
	issue, err := NewMatIssue(actor, uuid.New(), 3, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, IssueProd, issue.IssueType)
	assert.Equal(t, IssueDone, issue.Status)

	require.NoError(t, issue.Cancel("mistake", "u2"))
	assert.Equal(t, IssueCanceled, issue.Status)
	assert.Equal(t, "mistake", issue.Remark)
	assert.ErrorIs(t, issue.Cancel("", "u2"), shared.ErrInvalidState)

	_, err = NewMatIssue(actor, uuid.New(), 3, IssueType("GIFT"), time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLabelPrintLog(t *testing.T) {
	log, err := NewLabelPrintLog(actor, LabelCategoryMatUID, PrintModeBrowser, []string{"M0001", "M0002"})
	require.NoError(t, err)
	assert.Equal(t, `["M0001","M0002"]`, log.UIDList)
	assert.Equal(t, 2, log.LabelCount)
	assert.Equal(t, []string{"M0001", "M0002"}, log.UIDs())

	log.UIDList = "not json"
	assert.Nil(t, log.UIDs())
}
