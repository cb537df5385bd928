package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	prodapp "github.com/mes/backend/internal/application/production"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/production"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductionAPI(t *testing.T) (*gin.Engine, *master.Part) {
	t.Helper()
	repos := testutil.NewRepositories(t)
	part := testutil.CreatePart(t, repos, testutil.TestActor(), "HN-100", "Engine harness", master.PartTypeFG)

	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) prodapp.Repositories { return r })
	orders := prodapp.NewJobOrderService(repos.JobOrders(), repos.ProdResults(), repos.Parts(), tx, nil)
	results := prodapp.NewProdResultService(repos.ProdResults(), repos.JobOrders(), repos.Equipments(), repos.Users(), nil)
	plans := prodapp.NewProdPlanService(repos.ProdPlans(), repos.Parts(), tx)
	return newAPI(NewProductionHandler(orders, results, plans)), part
}

func TestProductionHandler_JobOrderLifecycle(t *testing.T) {
	engine, part := newProductionAPI(t)

	w := call(t, engine, http.MethodPost, "/api/v1/production/job-orders", prodapp.CreateJobOrderRequest{
		OrderNo: "WO-0001", PartID: part.ID, PlanQty: 100, LineCode: "L1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[production.JobOrder](t, w).Data
	assert.Equal(t, production.JobWaiting, order.Status)
	base := "/api/v1/production/job-orders/" + order.ID.String()

	w = call(t, engine, http.MethodPatch, base+"/pause", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decodeError(t, w).ErrorCode)

	w = call(t, engine, http.MethodPatch, base+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, production.JobRunning, decode[production.JobOrder](t, w).Data.Status)

	w = call(t, engine, http.MethodPatch, base+"/pause", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, production.JobPaused, decode[production.JobOrder](t, w).Data.Status)

	w = call(t, engine, http.MethodPatch, base+"/cancel", prodapp.CancelRequest{Remark: "material shortage"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	canceled := decode[production.JobOrder](t, w).Data
	assert.Equal(t, production.JobCanceled, canceled.Status)

	w = call(t, engine, http.MethodGet, "/api/v1/production/job-orders?status=CANCELED&lineCode=L1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]production.JobOrder](t, w).Data, 1)
}

func TestProductionHandler_JobOrderValidation(t *testing.T) {
	engine, part := newProductionAPI(t)

	w := call(t, engine, http.MethodPost, "/api/v1/production/job-orders", map[string]any{"partId": part.ID, "planQty": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).ErrorCode)

	w = call(t, engine, http.MethodPost, "/api/v1/production/job-orders", map[string]any{"partId": "not-a-uuid", "planQty": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, engine, http.MethodPost, "/api/v1/production/job-orders", prodapp.CreateJobOrderRequest{
		OrderNo: "WO-0002", PartID: testutil.NewTestUUID("missing part"), PlanQty: 10,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, engine, http.MethodPut, "/api/v1/production/job-orders/"+testutil.NewTestUUID("x").String()+"/status",
		map[string]string{"status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductionHandler_ResultsByJobOrder(t *testing.T) {
	engine, part := newProductionAPI(t)

	w := call(t, engine, http.MethodPost, "/api/v1/production/job-orders", prodapp.CreateJobOrderRequest{
		OrderNo: "WO-0003", PartID: part.ID, PlanQty: 50,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	order := decode[production.JobOrder](t, w).Data

	w = call(t, engine, http.MethodGet, "/api/v1/production/prod-results/job-order/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]production.ProdResult](t, w).Data)

	w = call(t, engine, http.MethodGet, "/api/v1/production/prod-results/job-order/oops", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid jobOrderId format", decodeError(t, w).Message)
}

func TestProductionHandler_PlanRoutes(t *testing.T) {
	engine, part := newProductionAPI(t)

	w := call(t, engine, http.MethodPost, "/api/v1/production/prod-plans", prodapp.CreatePlanRequest{
		PlanMonth: "2025-09", PartID: part.ID, ItemType: production.PlanItemFG, PlanQty: 400,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decode[production.ProdPlan](t, w).Data
	assert.Equal(t, "PP-202509-001", plan.PlanNo)

	w = call(t, engine, http.MethodPost, "/api/v1/production/prod-plans", prodapp.CreatePlanRequest{
		PlanMonth: "2025-09", PartID: part.ID, ItemType: "RAW", PlanQty: 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, engine, http.MethodPost, "/api/v1/production/prod-plans/"+plan.ID.String()+"/close", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = call(t, engine, http.MethodPost, "/api/v1/production/prod-plans/bulk-confirm", prodapp.PlanIDsRequest{IDs: []uuid.UUID{plan.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[prodapp.CountResult](t, w).Data.Count)

	w = call(t, engine, http.MethodGet, "/api/v1/production/prod-plans/summary/2025-09", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[production.PlanSummary](t, w).Data.Confirmed)

	w = call(t, engine, http.MethodGet, "/api/v1/production/prod-plans?planMonth=2025-09&status=CONFIRMED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]production.ProdPlan](t, w).Data, 1)
}
