package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	masterapp "github.com/mes/backend/internal/application/master"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/mes/backend/internal/interfaces/http/middleware"
	"github.com/mes/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPartAPI(t *testing.T) *partAPI {
	t.Helper()
	repos := testutil.NewRepositories(t)
	svc := masterapp.NewPartService(repos.Parts(), repos.Boms(), repos.Routings())
	tx := persistence.NewTransactionScope(repos.DB(), func(r *persistence.Repositories) masterapp.PartImportRepositories { return r })
	h := NewPartHandler(svc)
	h.SetImportService(masterapp.NewPartImportService(repos.Parts(), tx))
	return &partAPI{t: t, engine: newAPI(h)}
}

// upload posts sheet as the "file" form field
func (a *partAPI) upload(target, sheet string) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if sheet != "" {
		fw, err := mw.CreateFormFile("file", "parts.csv")
		require.NoError(a.t, err)
		_, err = fw.Write([]byte(sheet))
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderCompany, testutil.TestCompany)
	req.Header.Set(middleware.HeaderPlant, testutil.TestPlant)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

type partAPI struct {
	t      *testing.T
	engine *gin.Engine
}

func (a *partAPI) createPart(code, partType string) master.Part {
	a.t.Helper()
	w := call(a.t, a.engine, http.MethodPost, "/api/v1/master/parts", masterapp.PartRequest{
		PartCode: code, PartName: code + " name", PartType: partType,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[master.Part](a.t, w).Data
}

func TestPartHandler_CRUD(t *testing.T) {
	api := newPartAPI(t)
	engine := api.engine

	wire := api.createPart("W-AVS-0.5", "RAW")
	assert.Equal(t, "W-AVS-0.5", wire.PartCode)
	assert.Equal(t, "EA", wire.Unit)
	api.createPart("HRN-100", "FG")

	t.Run("duplicate code", func(t *testing.T) {
		w := call(t, engine, http.MethodPost, "/api/v1/master/parts", masterapp.PartRequest{
			PartCode: "W-AVS-0.5", PartName: "again", PartType: "RAW",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, decodeError(t, w).ErrorCode)
	})

	t.Run("validation", func(t *testing.T) {
		w := call(t, engine, http.MethodPost, "/api/v1/master/parts", masterapp.PartRequest{
			PartCode: "X", PartName: "bad type", PartType: "SEMI",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.ErrorCode)
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, "partType", resp.Details[0].Field)
	})

	t.Run("list filters by type", func(t *testing.T) {
		w := call(t, engine, http.MethodGet, "/api/v1/master/parts?partType=FG", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[[]master.Part](t, w)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "HRN-100", page.Data[0].PartCode)
		require.NotNil(t, page.Meta)
		assert.EqualValues(t, 1, page.Meta.Total)
	})

	t.Run("get and delete", func(t *testing.T) {
		w := call(t, engine, http.MethodGet, "/api/v1/master/parts/"+wire.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, wire.ID, decode[master.Part](t, w).Data.ID)

		w = call(t, engine, http.MethodDelete, "/api/v1/master/parts/"+wire.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = call(t, engine, http.MethodGet, "/api/v1/master/parts/"+wire.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := call(t, engine, http.MethodGet, "/api/v1/master/parts/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPartHandler_BomTree(t *testing.T) {
	api := newPartAPI(t)
	engine := api.engine

	harness := api.createPart("HRN-200", "FG")
	sub := api.createPart("SUB-1", "WIP")
	wire := api.createPart("W-1", "RAW")

	for _, line := range [][2]uuid.UUID{{harness.ID, sub.ID}, {sub.ID, wire.ID}} {
		w := call(t, engine, http.MethodPost, "/api/v1/master/boms", map[string]any{
			"parentPartId": line[0], "childPartId": line[1], "qtyPer": 2,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := call(t, engine, http.MethodGet, "/api/v1/master/parts/"+harness.ID.String()+"/bom-tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decode[[]master.BomNode](t, w).Data
	require.Len(t, tree, 1)
	assert.Equal(t, sub.ID, tree[0].ChildPartID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, wire.ID, tree[0].Children[0].ChildPartID)

	w = call(t, engine, http.MethodGet, "/api/v1/master/parts/"+harness.ID.String()+"/bom-tree?depth=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree = decode[[]master.BomNode](t, w).Data
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Children)
}

func TestPartHandler_Import(t *testing.T) {
	api := newPartAPI(t)
	const target = "/api/v1/master/parts/import"
	sheet := "partCode,partName,partType,unit\nW-001,AVS 0.5 RED,RAW,M\nH-100,Door harness,FG,\n"

	w := api.upload(target+"?dryRun=true", sheet)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dry := decode[masterapp.PartImportResult](t, w).Data
	assert.True(t, dry.DryRun)
	assert.Equal(t, 2, dry.ValidRows)

	w = api.upload(target, sheet)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[masterapp.PartImportResult](t, w).Data.Created)

	w = call(t, api.engine, http.MethodGet, "/api/v1/master/parts?partType=RAW", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[[]master.Part](t, w).Meta.Total)

	// Re-sending the sheet collides with the parts just created
	w = api.upload(target, sheet)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rejected := decode[masterapp.PartImportResult](t, w)
	assert.Equal(t, "Import rejected; no part was registered", rejected.Message)
	assert.Equal(t, 2, rejected.Data.ErrorRows)
	assert.Zero(t, rejected.Data.Created)

	w = api.upload(target, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file is required", decodeError(t, w).Message)

	w = api.upload(target+"?dryRun=maybe", sheet)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.upload(target, "partCode,partName\nW-9,Wire\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).ErrorCode)
}
