package quality_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appqual "github.com/mes/backend/internal/application/quality"
	"github.com/mes/backend/internal/domain/quality"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) inspect(t *testing.T, serial, kind, passYn string) *quality.InspectResult {
	t.Helper()
	r, err := f.inspects.Create(context.Background(), f.actor, appqual.CreateInspectResultRequest{
		ProdResultID: f.result.ID, SerialNo: serial, InspectType: kind, PassYn: passYn,
	})
	require.NoError(t, err)
	return r
}

func TestInspectResultService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("defaults and measurements", func(t *testing.T) {
		r, err := f.inspects.Create(ctx, f.actor, appqual.CreateInspectResultRequest{
			ProdResultID: f.result.ID,
			SerialNo:     " ser-001 ",
			InspectType:  quality.InspectContinuity,
			InspectData:  map[string]any{"resistance": 0.5},
		})
		require.NoError(t, err)
		assert.Equal(t, shared.Yes, r.PassYn)
		assert.Equal(t, "SER-001", r.SerialNo)
		assert.Equal(t, f.actor.UserID, r.InspectorID)
		assert.False(t, r.InspectAt.IsZero())
		assert.Equal(t, 1, f.events.Count(quality.EventInspectRecorded))

		got, err := f.inspects.GetByID(ctx, f.actor, r.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, got.InspectData["resistance"], 0.0001)
		require.NotNil(t, got.ProdResult)
		assert.Equal(t, f.result.ID, got.ProdResult.ID)
	})

	t.Run("unknown production result", func(t *testing.T) {
		_, err := f.inspects.Create(ctx, f.actor, appqual.CreateInspectResultRequest{ProdResultID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("invalid verdict", func(t *testing.T) {
		_, err := f.inspects.Create(ctx, f.actor, appqual.CreateInspectResultRequest{ProdResultID: f.result.ID, PassYn: "X"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestInspectResultService_BatchIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inspects.CreateBatch(ctx, f.actor, appqual.BatchInspectResultRequest{Items: []appqual.CreateInspectResultRequest{
		{ProdResultID: f.result.ID, SerialNo: "S-1"},
		{ProdResultID: uuid.New(), SerialNo: "S-2"},
	}})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	p, err := f.inspects.List(ctx, f.actor, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Zero(t, p.Meta.Total)
	assert.Zero(t, f.events.Count(quality.EventInspectRecorded))

	out, err := f.inspects.CreateBatch(ctx, f.actor, appqual.BatchInspectResultRequest{Items: []appqual.CreateInspectResultRequest{
		{ProdResultID: f.result.ID, SerialNo: "S-1"},
		{ProdResultID: f.result.ID, SerialNo: "S-2", PassYn: "N", ErrorCode: "OPEN"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 2, f.events.Count(quality.EventInspectRecorded))

	_, err = f.inspects.CreateBatch(ctx, f.actor, appqual.BatchInspectResultRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestInspectResultService_History(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.inspect(t, "SER-9", quality.InspectContinuity, "N")
	second := f.inspect(t, "SER-9", quality.InspectContinuity, "Y")
	f.inspect(t, "SER-1", quality.InspectVisual, "Y")

	history, err := f.inspects.BySerial(ctx, f.actor, "ser-9")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	_, err = f.inspects.BySerial(ctx, f.actor, " ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	byResult, err := f.inspects.ByProdResult(ctx, f.actor, f.result.ID)
	require.NoError(t, err)
	assert.Len(t, byResult, 3)

	none, err := f.inspects.ByProdResult(ctx, f.actor, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestInspectResultService_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.inspect(t, "SER-5", quality.InspectVisual, "Y")

	updated, err := f.inspects.Update(ctx, f.actor, r.ID, appqual.UpdateInspectResultRequest{
		PassYn: strp("N"), ErrorCode: strp("SCRATCH"),
	})
	require.NoError(t, err)
	assert.False(t, updated.Passed())
	assert.Equal(t, "SCRATCH", updated.ErrorCode)
	assert.Equal(t, "SER-5", updated.SerialNo)

	_, err = f.inspects.Update(ctx, f.actor, r.ID, appqual.UpdateInspectResultRequest{PassYn: strp("maybe")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, f.inspects.Delete(ctx, f.actor, r.ID))
	_, err = f.inspects.GetByID(ctx, f.actor, r.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.inspects.Delete(ctx, f.actor, r.ID), shared.ErrNotFound)
}

func TestInspectResultService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.inspects.PassRate(ctx, f.actor, appqual.PassRateQuery{})
	require.NoError(t, err)
	assert.Equal(t, quality.InspectPassRate{}, empty)

	f.inspect(t, "S1", quality.InspectContinuity, "Y")
	f.inspect(t, "S2", quality.InspectContinuity, "Y")
	f.inspect(t, "S3", quality.InspectContinuity, "N")
	f.inspect(t, "S4", quality.InspectVisual, "Y")
	f.inspect(t, "S5", "", "N")

	rate, err := f.inspects.PassRate(ctx, f.actor, appqual.PassRateQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), rate.TotalCount)
	assert.Equal(t, int64(3), rate.PassCount)
	assert.Equal(t, int64(2), rate.FailCount)
	assert.InDelta(t, 60.0, rate.PassRate, 0.001)

	continuity, err := f.inspects.PassRate(ctx, f.actor, appqual.PassRateQuery{InspectType: quality.InspectContinuity})
	require.NoError(t, err)
	assert.InDelta(t, 66.67, continuity.PassRate, 0.001)

	byType, err := f.inspects.StatsByType(ctx, f.actor, appqual.StatsRange{})
	require.NoError(t, err)
	require.Len(t, byType, 2)
	assert.Equal(t, quality.InspectContinuity, byType[0].InspectType)
	assert.Equal(t, int64(3), byType[0].TotalCount)
	assert.Equal(t, quality.InspectVisual, byType[1].InspectType)
	assert.InDelta(t, 100.0, byType[1].PassRate, 0.001)

	trend, err := f.inspects.DailyTrend(ctx, f.actor, 0)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, int64(5), trend[0].TotalCount)
	assert.Equal(t, int64(2), trend[0].FailCount)
	assert.InDelta(t, 60.0, trend[0].PassRate, 0.001)
}
