package quality_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	appqual "github.com/mes/backend/internal/application/quality"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos    *persistence.Repositories
	actor    shared.Actor
	part     *master.Part
	result   *production.ProdResult
	events   *testutil.EventRecorder
	defects  *appqual.DefectService
	oqc      *appqual.OqcService
	inspects *appqual.InspectResultService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	actor := testutil.TestActor()

	part := testutil.CreatePart(t, repos, actor, "HN-200", "Door harness", master.PartTypeFG)
	order, err := production.NewJobOrder(actor, "WO-Q", part.ID, 50, 0)
	require.NoError(t, err)
	require.NoError(t, repos.JobOrders().Create(ctx, order))
	result, err := production.NewProdResult(actor, order, time.Now())
	require.NoError(t, err)
	result.DefectQty = 2
	require.NoError(t, repos.ProdResults().Create(ctx, result))

	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) appqual.Repositories { return r })
	events := testutil.NewEventRecorder()
	return &fixture{
		repos:    repos,
		actor:    actor,
		part:     part,
		result:   result,
		events:   events,
		defects:  appqual.NewDefectService(repos.DefectLogs(), repos.RepairLogs(), tx, events),
		oqc:      appqual.NewOqcService(repos.OqcRequests(), repos.Boxes(), tx, events),
		inspects: appqual.NewInspectResultService(repos.InspectResults(), tx, events),
	}
}

func (f *fixture) resultDefects(t *testing.T) int {
	t.Helper()
	r, err := f.repos.ProdResults().FindByID(context.Background(), f.actor, f.result.ID)
	require.NoError(t, err)
	return r.DefectQty
}

func (f *fixture) closedBox(t *testing.T, boxNo string, serials ...string) *shipping.Box {
	t.Helper()
	b, err := shipping.NewBox(f.actor, boxNo, f.part.ID, serials)
	require.NoError(t, err)
	require.NoError(t, b.Close(time.Now(), f.actor.UserID))
	require.NoError(t, f.repos.Boxes().Create(context.Background(), b))
	return b
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestDefectService_QtyFollowsResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.defects.Create(ctx, f.actor, appqual.CreateDefectRequest{ProdResultID: f.result.ID, DefectCode: "CRIMP", Qty: 3})
	require.NoError(t, err)
	assert.Equal(t, quality.DefectWait, d.Status)
	assert.Equal(t, 5, f.resultDefects(t))

	single, err := f.defects.Create(ctx, f.actor, appqual.CreateDefectRequest{ProdResultID: f.result.ID, DefectCode: "STRIP"})
	require.NoError(t, err)
	assert.Equal(t, 1, single.Qty)
	assert.Equal(t, 6, f.resultDefects(t))

	_, err = f.defects.Update(ctx, f.actor, d.ID, appqual.UpdateDefectRequest{Qty: intp(1), Cause: strp("worn applicator")})
	require.NoError(t, err)
	assert.Equal(t, 4, f.resultDefects(t))

	require.NoError(t, f.defects.Delete(ctx, f.actor, single.ID))
	assert.Equal(t, 3, f.resultDefects(t))

	_, err = f.defects.Create(ctx, f.actor, appqual.CreateDefectRequest{ProdResultID: uuid.New(), DefectCode: "CRIMP"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	registered := f.events.Of(quality.EventDefectRegistered)
	require.Len(t, registered, 2)
	first := registered[0].(*quality.DefectRegistered)
	assert.Equal(t, d.ID, first.AggregateID())
	assert.Equal(t, "CRIMP", first.DefectCode)
	assert.Equal(t, 3, first.Qty)
}

func TestDefectService_DeleteNeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.defects.Create(ctx, f.actor, appqual.CreateDefectRequest{ProdResultID: f.result.ID, DefectCode: "CRIMP", Qty: 1})
	require.NoError(t, err)

	r, err := f.repos.ProdResults().FindByID(ctx, f.actor, f.result.ID)
	require.NoError(t, err)
	r.DefectQty = 0
	r.JobOrder = nil
	require.NoError(t, f.repos.ProdResults().Save(ctx, r))

	require.NoError(t, f.defects.Delete(ctx, f.actor, d.ID))
	assert.Equal(t, 0, f.resultDefects(t))
}

func TestDefectService_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		path  []string
		valid bool
	}{
		{name: "repair then done", path: []string{"REPAIR", "DONE"}, valid: true},
		{name: "rework back to wait", path: []string{"REWORK", "WAIT"}, valid: true},
		{name: "scrap directly", path: []string{"SCRAP"}, valid: true},
		{name: "wait cannot finish", path: []string{"DONE"}, valid: false},
		{name: "scrap is terminal", path: []string{"SCRAP", "WAIT"}, valid: false},
		{name: "done is terminal", path: []string{"REPAIR", "DONE", "REPAIR"}, valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			d, err := f.defects.Create(ctx, f.actor, appqual.CreateDefectRequest{ProdResultID: f.result.ID, DefectCode: "SHORT"})
			require.NoError(t, err)
			for i, status := range tt.path {
				_, err = f.defects.ChangeStatus(ctx, f.actor, d.ID, appqual.ChangeDefectStatusRequest{Status: status})
				if i < len(tt.path)-1 {
					require.NoError(t, err)
				}
			}
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrInvalidState)
			}
		})
	}
}

func TestDefectService_Repairs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.defects.Create(ctx, f.actor, appqual.CreateDefectRequest{ProdResultID: f.result.ID, DefectCode: "OPEN"})
	require.NoError(t, err)
	_, err = f.defects.ChangeStatus(ctx, f.actor, d.ID, appqual.ChangeDefectStatusRequest{Status: "REPAIR"})
	require.NoError(t, err)

	_, err = f.defects.AddRepair(ctx, f.actor, d.ID, appqual.CreateRepairRequest{RepairAction: "re-crimp", Result: "FAIL"})
	require.NoError(t, err)
	got, err := f.defects.GetByID(ctx, f.actor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, quality.DefectRepair, got.Status)

	_, err = f.defects.AddRepair(ctx, f.actor, d.ID, appqual.CreateRepairRequest{RepairAction: "replace terminal", Result: "PASS", RepairTime: 12})
	require.NoError(t, err)
	got, err = f.defects.GetByID(ctx, f.actor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, quality.DefectDone, got.Status)
	assert.Len(t, got.RepairLogs, 2)

	_, err = f.defects.AddRepair(ctx, f.actor, d.ID, appqual.CreateRepairRequest{Result: "MAYBE"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDefectService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, c := range []struct {
		code string
		qty  int
	}{{"CRIMP", 2}, {"CRIMP", 1}, {"CRIMP", 4}, {"STRIP", 1}} {
		_, err := f.defects.Create(ctx, f.actor, appqual.CreateDefectRequest{ProdResultID: f.result.ID, DefectCode: c.code, Qty: c.qty})
		require.NoError(t, err)
	}

	byType, err := f.defects.StatsByType(ctx, f.actor, appqual.StatsRange{})
	require.NoError(t, err)
	require.Len(t, byType, 2)
	assert.Equal(t, "CRIMP", byType[0].DefectCode)
	assert.Equal(t, int64(3), byType[0].Count)
	assert.Equal(t, int64(7), byType[0].TotalQty)
	assert.InDelta(t, 75.0, byType[0].Percentage, 0.001)
	assert.InDelta(t, 25.0, byType[1].Percentage, 0.001)

	byStatus, err := f.defects.StatsByStatus(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, int64(4), byStatus[0].Count)

	pending, err := f.defects.Pending(ctx, f.actor, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 4)

	trend, err := f.defects.DailyTrend(ctx, f.actor, 0)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, int64(8), trend[0].TotalQty)
}

func TestOqcService_Flow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.closedBox(t, "BOX-A", "S1", "S2")
	b := f.closedBox(t, "BOX-B", "S3")
	open, err := shipping.NewBox(f.actor, "BOX-OPEN", f.part.ID, []string{"S9"})
	require.NoError(t, err)
	require.NoError(t, f.repos.Boxes().Create(ctx, open))

	avail, err := f.oqc.AvailableBoxes(ctx, f.actor, &f.part.ID)
	require.NoError(t, err)
	assert.Len(t, avail, 2)

	_, err = f.oqc.Create(ctx, f.actor, appqual.CreateOqcRequest{PartID: f.part.ID, BoxIDs: []uuid.UUID{a.ID, open.ID}})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	req, err := f.oqc.Create(ctx, f.actor, appqual.CreateOqcRequest{PartID: f.part.ID, BoxIDs: []uuid.UUID{a.ID, b.ID}, Customer: "HMC"})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OQC-%s-001", time.Now().Format("20060102")), req.RequestNo)
	assert.Equal(t, quality.OqcPending, req.Status)
	assert.Equal(t, 2, req.TotalBoxCount)
	assert.Equal(t, 3, req.TotalQty)

	stamped, err := f.repos.Boxes().FindByID(ctx, f.actor, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stamped.OqcStatus)
	assert.Equal(t, shipping.OqcPending, *stamped.OqcStatus)
	assert.True(t, stamped.OqcBlocksShipping())

	_, err = f.oqc.Create(ctx, f.actor, appqual.CreateOqcRequest{PartID: f.part.ID, BoxIDs: []uuid.UUID{a.ID}})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "box already requested")

	done, err := f.oqc.Execute(ctx, f.actor, req.ID, appqual.ExecuteOqcRequest{Result: "PASS", SampleBoxNos: []string{"BOX-B"}})
	require.NoError(t, err)
	assert.Equal(t, quality.OqcPass, done.Status)
	assert.Equal(t, f.actor.UserID, done.InspectorName)

	inspected := f.events.Of(quality.EventOqcInspected)
	require.Len(t, inspected, 1)
	verdict := inspected[0].(*quality.OqcInspected)
	assert.Equal(t, req.RequestNo, verdict.RequestNo)
	assert.Equal(t, "PASS", verdict.Result)
	assert.Equal(t, 3, verdict.TotalQty)

	got, err := f.oqc.GetByID(ctx, f.actor, req.ID)
	require.NoError(t, err)
	samples := map[string]string{}
	for _, rb := range got.Boxes {
		samples[rb.BoxNo] = rb.IsSample
	}
	assert.Equal(t, map[string]string{"BOX-A": shared.No, "BOX-B": shared.Yes}, samples)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		box, err := f.repos.Boxes().FindByID(ctx, f.actor, id)
		require.NoError(t, err)
		assert.Equal(t, shipping.OqcPass, *box.OqcStatus)
		assert.False(t, box.OqcBlocksShipping())
	}

	_, err = f.oqc.Execute(ctx, f.actor, req.ID, appqual.ExecuteOqcRequest{Result: "FAIL"})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.oqc.UpdateResult(ctx, f.actor, req.ID, appqual.UpdateOqcResultRequest{Result: "FAIL"})
	require.NoError(t, err)
	box, err := f.repos.Boxes().FindByID(ctx, f.actor, b.ID)
	require.NoError(t, err)
	assert.True(t, box.OqcBlocksShipping())

	stats, err := f.oqc.Stats(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, quality.OqcStats{Total: 1, Fail: 1}, stats)

	second := f.closedBox(t, "BOX-C", "S4")
	next, err := f.oqc.Create(ctx, f.actor, appqual.CreateOqcRequest{PartID: f.part.ID, BoxIDs: []uuid.UUID{second.ID}})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OQC-%s-002", time.Now().Format("20060102")), next.RequestNo)
}

func TestOqcService_WrongPart(t *testing.T) {
	f := newFixture(t)
	box := f.closedBox(t, "BOX-X", "S1")
	_, err := f.oqc.Create(context.Background(), f.actor, appqual.CreateOqcRequest{PartID: uuid.New(), BoxIDs: []uuid.UUID{box.ID}})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
