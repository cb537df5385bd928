package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	shippingapp "github.com/mes/backend/internal/application/shipping"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shipping"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingHandler_ReturnRoutes(t *testing.T) {
	repos := testutil.NewRepositories(t)
	part := testutil.CreatePart(t, repos, testutil.TestActor(), "HN-300", "Seat harness", master.PartTypeFG)
	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) shippingapp.Repositories { return r })
	engine := newAPI(NewShippingHandler(
		shippingapp.NewBoxService(repos.Boxes(), repos.Parts(), tx),
		shippingapp.NewPalletService(repos.Pallets(), repos.Boxes(), tx),
		shippingapp.NewShipmentService(repos.Shipments(), repos.Pallets(), tx, nil),
		shippingapp.NewShipReturnService(repos.ShipReturns(), repos.Shipments(), repos.Parts(), tx, nil),
	))

	w := call(t, engine, http.MethodPost, "/api/v1/shipping/returns", shippingapp.CreateReturnRequest{
		ReturnReason: "wrong length",
		Items:        []shippingapp.ReturnItemRequest{{PartID: part.ID, ReturnQty: 0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, engine, http.MethodPost, "/api/v1/shipping/returns", shippingapp.CreateReturnRequest{
		ReturnReason: "wrong length",
		Items:        []shippingapp.ReturnItemRequest{{PartID: part.ID, ReturnQty: 2, DisposalType: shipping.DisposalRepair}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ret := decode[shipping.ShipReturn](t, w).Data
	assert.Equal(t, 2, ret.TotalQty)
	base := "/api/v1/shipping/returns/" + ret.ID.String()

	w = call(t, engine, http.MethodPatch, base+"/complete", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = call(t, engine, http.MethodPatch, base+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = call(t, engine, http.MethodPatch, base+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, shipping.ReturnCompleted, decode[shipping.ShipReturn](t, w).Data.Status)

	w = call(t, engine, http.MethodGet, "/api/v1/shipping/returns?status=COMPLETED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]shipping.ShipReturn](t, w).Data, 1)

	w = call(t, engine, http.MethodGet, "/api/v1/shipping/returns/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
