package outsourcing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appout "github.com/mes/backend/internal/application/outsourcing"
	"github.com/mes/backend/internal/domain/outsourcing"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	actor   shared.Actor
	vendors *appout.VendorService
	orders  *appout.OrderService
	vendor  *outsourcing.Vendor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := testutil.NewRepositories(t)
	actor := testutil.TestActor()
	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) appout.Repositories { return r })

	f := &fixture{
		actor:   actor,
		vendors: appout.NewVendorService(repos.SubconVendors()),
		orders:  appout.NewOrderService(repos.SubconOrders(), repos.SubconVendors(), repos.SubconDeliveries(), repos.SubconReceives(), tx),
	}
	v, err := f.vendors.Create(context.Background(), actor, appout.CreateVendorRequest{VendorCode: "V-TAPE", VendorName: "Taping Co", VendorType: "SUBCON"})
	require.NoError(t, err)
	f.vendor = v
	return f
}

func (f *fixture) order(t *testing.T, qty int) *outsourcing.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), f.actor, appout.CreateOrderRequest{
		VendorID:  f.vendor.ID,
		PartCode:  "HN-100",
		PartName:  "Main harness",
		OrderQty:  qty,
		UnitPrice: decimal.RequireFromString("1.25"),
	})
	require.NoError(t, err)
	return o
}

func intp(v int) *int { return &v }

func TestVendorService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vendors.Create(ctx, f.actor, appout.CreateVendorRequest{VendorCode: "V-TAPE", VendorName: "Again"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	off := shared.No
	v, err := f.vendors.Update(ctx, f.actor, f.vendor.ID, appout.UpdateVendorRequest{UseYn: &off})
	require.NoError(t, err)
	assert.Equal(t, shared.No, v.UseYn)
	assert.Equal(t, "Taping Co", v.VendorName)

	summary, err := f.orders.Summary(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalVendors)
}

func TestOrderService_Numbering(t *testing.T) {
	f := newFixture(t)
	today := time.Now().Format("20060102")

	first := f.order(t, 10)
	second := f.order(t, 10)
	assert.Equal(t, "SCO"+today+"0001", first.OrderNo)
	assert.Equal(t, "SCO"+today+"0002", second.OrderNo)
	assert.Equal(t, outsourcing.OrderOrdered, first.Status)

	_, err := f.orders.Create(context.Background(), f.actor, appout.CreateOrderRequest{VendorID: uuid.New(), PartCode: "P", OrderQty: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderService_DeliverAndReceive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := time.Now().Format("20060102")
	o := f.order(t, 100)

	d, err := f.orders.Deliver(ctx, f.actor, appout.CreateDeliveryRequest{OrderID: o.ID, Qty: 60, LotNo: " lot-1 "})
	require.NoError(t, err)
	assert.Equal(t, "SCD"+today+"0001", d.DeliveryNo)
	assert.Equal(t, "LOT-1", d.LotNo)

	_, err = f.orders.Deliver(ctx, f.actor, appout.CreateDeliveryRequest{OrderID: o.ID, Qty: 41})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	got, err := f.orders.GetByID(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.DeliveredQty)
	assert.Equal(t, outsourcing.OrderOrdered, got.Status)

	qty := 50
	_, err = f.orders.Update(ctx, f.actor, o.ID, appout.UpdateOrderRequest{OrderQty: &qty})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.orders.Deliver(ctx, f.actor, appout.CreateDeliveryRequest{OrderID: o.ID, Qty: 40})
	require.NoError(t, err)
	got, err = f.orders.GetByID(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, outsourcing.OrderDelivered, got.Status)
	assert.Len(t, got.Deliveries, 2)

	_, err = f.orders.Cancel(ctx, f.actor, o.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	r, err := f.orders.Receive(ctx, f.actor, appout.CreateReceiveRequest{OrderID: o.ID, Qty: 30})
	require.NoError(t, err)
	assert.Equal(t, "SCR"+today+"0001", r.ReceiveNo)
	assert.Equal(t, 30, r.GoodQty)

	stock, err := f.orders.VendorStock(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, "V-TAPE", stock[0].VendorCode)
	assert.Equal(t, 70, stock[0].StockQty)

	summary, err := f.orders.Summary(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, outsourcing.Summary{TotalOrders: 1, ActiveOrders: 1, PendingReceive: 1, TotalVendors: 1}, summary)

	_, err = f.orders.Receive(ctx, f.actor, appout.CreateReceiveRequest{OrderID: o.ID, Qty: 70, GoodQty: intp(68), DefectQty: intp(2)})
	require.NoError(t, err)
	got, err = f.orders.GetByID(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, outsourcing.OrderReceived, got.Status)
	assert.Equal(t, 2, got.DefectQty)

	receives, err := f.orders.Receives(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Len(t, receives, 2)
}

func TestOrderService_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, 5)

	canceled, err := f.orders.Cancel(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, outsourcing.OrderCanceled, canceled.Status)

	_, err = f.orders.Deliver(ctx, f.actor, appout.CreateDeliveryRequest{OrderID: o.ID, Qty: 1})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	deliveries, err := f.orders.Deliveries(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Empty(t, deliveries)
}
