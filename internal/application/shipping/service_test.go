package shipping_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appship "github.com/mes/backend/internal/application/shipping"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos     *persistence.Repositories
	actor     shared.Actor
	part      *master.Part
	events    *testutil.EventRecorder
	boxes     *appship.BoxService
	pallets   *appship.PalletService
	shipments *appship.ShipmentService
	returns   *appship.ShipReturnService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := testutil.NewRepositories(t)
	actor := testutil.TestActor()
	part := testutil.CreatePart(t, repos, actor, "HN-300", "Seat harness", master.PartTypeFG)

	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) appship.Repositories { return r })
	events := testutil.NewEventRecorder()
	return &fixture{
		repos:     repos,
		actor:     actor,
		part:      part,
		events:    events,
		boxes:     appship.NewBoxService(repos.Boxes(), repos.Parts(), tx),
		pallets:   appship.NewPalletService(repos.Pallets(), repos.Boxes(), tx),
		shipments: appship.NewShipmentService(repos.Shipments(), repos.Pallets(), tx, events),
		returns:   appship.NewShipReturnService(repos.ShipReturns(), repos.Shipments(), repos.Parts(), tx, events),
	}
}

func (f *fixture) closedBox(t *testing.T, serials ...string) *shipping.Box {
	t.Helper()
	ctx := context.Background()
	b, err := f.boxes.Create(ctx, f.actor, appship.CreateBoxRequest{PartID: f.part.ID, Serials: serials})
	require.NoError(t, err)
	b, err = f.boxes.Close(ctx, f.actor, b.ID)
	require.NoError(t, err)
	return b
}

func (f *fixture) closedPallet(t *testing.T, boxes ...*shipping.Box) *shipping.Pallet {
	t.Helper()
	ctx := context.Background()
	p, err := f.pallets.Create(ctx, f.actor, appship.CreatePalletRequest{})
	require.NoError(t, err)
	ids := make([]uuid.UUID, len(boxes))
	for i, b := range boxes {
		ids[i] = b.ID
	}
	_, err = f.pallets.AddBoxes(ctx, f.actor, p.ID, appship.BoxIDsRequest{BoxIDs: ids})
	require.NoError(t, err)
	p, err = f.pallets.Close(ctx, f.actor, p.ID)
	require.NoError(t, err)
	return p
}

func TestBoxService_Serials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.boxes.Create(ctx, f.actor, appship.CreateBoxRequest{PartID: f.part.ID})
	require.NoError(t, err)
	today := time.Now().Format("20060102")
	assert.Equal(t, "BOX"+today+"001", b.BoxNo)
	assert.Equal(t, shipping.BoxOpen, b.Status)

	_, err = f.boxes.Close(ctx, f.actor, b.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState, "empty box")

	b, err = f.boxes.AddSerials(ctx, f.actor, b.ID, appship.SerialsRequest{Serials: []string{"sn-1", "SN-2", " "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"SN-1", "SN-2"}, b.SerialList)
	assert.Equal(t, 2, b.Qty)

	_, err = f.boxes.AddSerials(ctx, f.actor, b.ID, appship.SerialsRequest{Serials: []string{"SN-2"}})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	b, err = f.boxes.RemoveSerials(ctx, f.actor, b.ID, appship.SerialsRequest{Serials: []string{"SN-1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Qty)
	_, err = f.boxes.RemoveSerials(ctx, f.actor, b.ID, appship.SerialsRequest{Serials: []string{"SN-9"}})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	b, err = f.boxes.Close(ctx, f.actor, b.ID)
	require.NoError(t, err)
	assert.NotNil(t, b.CloseAt)
	_, err = f.boxes.AddSerials(ctx, f.actor, b.ID, appship.SerialsRequest{Serials: []string{"SN-3"}})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	b, err = f.boxes.Reopen(ctx, f.actor, b.ID)
	require.NoError(t, err)
	assert.Nil(t, b.CloseAt)

	second, err := f.boxes.Create(ctx, f.actor, appship.CreateBoxRequest{PartID: f.part.ID})
	require.NoError(t, err)
	assert.Equal(t, "BOX"+today+"002", second.BoxNo)

	_, err = f.boxes.Create(ctx, f.actor, appship.CreateBoxRequest{BoxNo: second.BoxNo, PartID: f.part.ID})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	_, err = f.boxes.Create(ctx, f.actor, appship.CreateBoxRequest{PartID: uuid.New()})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	found, err := f.boxes.GetByBoxNo(ctx, f.actor, " box"+today+"002\n")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func TestPalletService_Boxes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.closedBox(t, "S1", "S2")
	b := f.closedBox(t, "S3")
	open, err := f.boxes.Create(ctx, f.actor, appship.CreateBoxRequest{PartID: f.part.ID, Serials: []string{"S4"}})
	require.NoError(t, err)

	p, err := f.pallets.Create(ctx, f.actor, appship.CreatePalletRequest{})
	require.NoError(t, err)
	assert.Equal(t, "PLT"+time.Now().Format("20060102")+"001", p.PalletNo)

	_, err = f.pallets.Close(ctx, f.actor, p.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState, "empty pallet")

	_, err = f.pallets.AddBoxes(ctx, f.actor, p.ID, appship.BoxIDsRequest{BoxIDs: []uuid.UUID{a.ID, open.ID}})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	p, err = f.pallets.AddBoxes(ctx, f.actor, p.ID, appship.BoxIDsRequest{BoxIDs: []uuid.UUID{a.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, 2, p.BoxCount)
	assert.Equal(t, 3, p.TotalQty)

	_, err = f.boxes.Reopen(ctx, f.actor, a.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState, "palletized box")
	assert.ErrorIs(t, f.boxes.Delete(ctx, f.actor, a.ID), shared.ErrInvalidState)

	other, err := f.pallets.Create(ctx, f.actor, appship.CreatePalletRequest{PalletNo: "plt-x"})
	require.NoError(t, err)
	assert.Equal(t, "PLT-X", other.PalletNo)
	_, err = f.pallets.AddBoxes(ctx, f.actor, other.ID, appship.BoxIDsRequest{BoxIDs: []uuid.UUID{a.ID}})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "box on another pallet")

	p, err = f.pallets.RemoveBoxes(ctx, f.actor, p.ID, appship.BoxIDsRequest{BoxIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, p.BoxCount)
	assert.Equal(t, 1, p.TotalQty)

	_, err = f.pallets.AddBoxes(ctx, f.actor, p.ID, appship.BoxIDsRequest{BoxIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, f.pallets.Delete(ctx, f.actor, p.ID), shared.ErrInvalidState, "pallet holds boxes")
	require.NoError(t, f.pallets.Delete(ctx, f.actor, other.ID))

	got, err := f.pallets.GetByID(ctx, f.actor, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Boxes, 1)
	assert.Equal(t, b.ID, got.Boxes[0].ID)
}

func TestShipmentService_Dispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.closedBox(t, "S1", "S2")
	b := f.closedBox(t, "S3")
	p1 := f.closedPallet(t, a)
	p2 := f.closedPallet(t, b)

	s, err := f.shipments.Create(ctx, f.actor, appship.CreateShipmentRequest{CustomerName: "HMC Ulsan"})
	require.NoError(t, err)
	assert.Equal(t, shipping.ShipmentPreparing, s.Status)
	assert.Equal(t, shared.No, s.ErpSyncYn)

	_, err = f.shipments.MarkLoaded(ctx, f.actor, s.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState, "no pallets")

	s, err = f.shipments.LoadPallets(ctx, f.actor, s.ID, appship.PalletIDsRequest{PalletIDs: []uuid.UUID{p1.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.PalletCount)

	loaded, err := f.pallets.AssignToShipment(ctx, f.actor, p2.ID, appship.AssignShipmentRequest{ShipmentID: s.ID})
	require.NoError(t, err)
	assert.Equal(t, shipping.PalletLoaded, loaded.Status)

	_, err = f.pallets.Reopen(ctx, f.actor, p2.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	s, err = f.shipments.GetByID(ctx, f.actor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, s.PalletCount)
	assert.Equal(t, 2, s.BoxCount)
	assert.Equal(t, 3, s.TotalQty)
	assert.Len(t, s.Pallets, 2)

	_, err = f.shipments.Ship(ctx, f.actor, s.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState, "not loaded")

	_, err = f.shipments.MarkLoaded(ctx, f.actor, s.ID)
	require.NoError(t, err)
	_, err = f.shipments.LoadPallets(ctx, f.actor, s.ID, appship.PalletIDsRequest{PalletIDs: []uuid.UUID{p1.ID}})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	box, err := f.repos.Boxes().FindByID(ctx, f.actor, b.ID)
	require.NoError(t, err)
	box.SetOqcStatus(shipping.OqcFail)
	box.Part = nil
	require.NoError(t, f.repos.Boxes().Save(ctx, box))
	_, err = f.shipments.Ship(ctx, f.actor, s.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState, "OQC failed box")

	box.SetOqcStatus(shipping.OqcPass)
	require.NoError(t, f.repos.Boxes().Save(ctx, box))
	shipped, err := f.shipments.Ship(ctx, f.actor, s.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.ShipmentShipped, shipped.Status)
	assert.NotNil(t, shipped.ShipAt)
	assert.NotNil(t, shipped.ShipDate)
	assert.Equal(t, 1, f.events.Count(shipping.EventShipmentShipped))

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		got, err := f.repos.Boxes().FindByID(ctx, f.actor, id)
		require.NoError(t, err)
		assert.Equal(t, shipping.BoxShipped, got.Status)
		assert.NotNil(t, got.ShipAt)
	}
	pallet, err := f.repos.Pallets().FindByID(ctx, f.actor, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.PalletShipped, pallet.Status)

	_, err = f.shipments.Update(ctx, f.actor, s.ID, appship.UpdateShipmentRequest{VehicleNo: ptr("12GA3456")})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = f.shipments.Cancel(ctx, f.actor, s.ID, appship.CancelRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	delivered, err := f.shipments.MarkDelivered(ctx, f.actor, s.ID)
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	stats, err := f.shipments.Stats(ctx, f.actor, appship.StatsRange{})
	require.NoError(t, err)
	assert.Equal(t, shipping.ShipmentStats{ShipmentCount: 1, PalletCount: 2, BoxCount: 2, TotalQty: 3}, stats)

	pending, err := f.shipments.Unsynced(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	n, err := f.shipments.MarkSynced(ctx, f.actor, appship.SyncRequest{IDs: []uuid.UUID{s.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	pending, err = f.shipments.Unsynced(ctx, f.actor)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestShipmentService_CancelReleasesPallets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.closedPallet(t, f.closedBox(t, "S1"))

	s, err := f.shipments.Create(ctx, f.actor, appship.CreateShipmentRequest{ShipNo: "SHP-MANUAL"})
	require.NoError(t, err)
	_, err = f.shipments.LoadPallets(ctx, f.actor, s.ID, appship.PalletIDsRequest{PalletIDs: []uuid.UUID{p.ID}})
	require.NoError(t, err)
	assert.ErrorIs(t, f.shipments.Delete(ctx, f.actor, s.ID), shared.ErrInvalidState, "has pallets")

	canceled, err := f.shipments.Cancel(ctx, f.actor, s.ID, appship.CancelRequest{Remark: "truck broke down"})
	require.NoError(t, err)
	assert.Equal(t, shipping.ShipmentCanceled, canceled.Status)
	assert.Zero(t, canceled.PalletCount)
	assert.Zero(t, canceled.TotalQty)

	released, err := f.repos.Pallets().FindByID(ctx, f.actor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.PalletClosed, released.Status)
	assert.Nil(t, released.ShipmentID)

	_, err = f.pallets.Reopen(ctx, f.actor, p.ID)
	require.NoError(t, err)

	forced, err := f.shipments.ChangeStatus(ctx, f.actor, s.ID, appship.ChangeShipmentStatusRequest{Status: "PREPARING"})
	require.NoError(t, err)
	assert.Equal(t, shipping.ShipmentPreparing, forced.Status)
	require.NoError(t, f.shipments.Delete(ctx, f.actor, s.ID))
}

func TestShipmentService_Unload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.closedPallet(t, f.closedBox(t, "S1", "S2"))
	s, err := f.shipments.Create(ctx, f.actor, appship.CreateShipmentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "SHP"+time.Now().Format("20060102")+"001", s.ShipNo)

	_, err = f.shipments.LoadPallets(ctx, f.actor, s.ID, appship.PalletIDsRequest{PalletIDs: []uuid.UUID{p.ID}})
	require.NoError(t, err)
	s, err = f.shipments.UnloadPallets(ctx, f.actor, s.ID, appship.PalletIDsRequest{PalletIDs: []uuid.UUID{p.ID}})
	require.NoError(t, err)
	assert.Zero(t, s.PalletCount)

	_, err = f.shipments.UnloadPallets(ctx, f.actor, s.ID, appship.PalletIDsRequest{PalletIDs: []uuid.UUID{p.ID}})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
