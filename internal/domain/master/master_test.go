package master

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actor = shared.Actor{UserID: "u1", Company: "HANES", Plant: "P01"}

func TestNewComCode(t *testing.T) {
	code, err := NewComCode(actor, " job_status ", "RUNNING", "Running")
	require.NoError(t, err)
	assert.Equal(t, "JOB_STATUS", code.GroupCode)
	assert.Equal(t, "RUNNING", code.DetailCode)
	assert.Equal(t, shared.Yes, code.UseYn)
	assert.Equal(t, "HANES", code.Company)

	_, err = NewComCode(actor, "", "X", "x")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewPart(t *testing.T) {
	part, err := NewPart(actor, "P-01", "Wire 0.5sq", PartTypeRaw)
	require.NoError(t, err)
	assert.Equal(t, "EA", part.Unit)
	assert.Equal(t, "u1", part.CreatedBy)
	assert.NotEqual(t, uuid.Nil, part.ID)

	_, err = NewPart(actor, "P-02", "x", PartType("BAD"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewBom(t *testing.T) {
	parent, child := uuid.New(), uuid.New()

	t.Run("defaults revision", func(t *testing.T) {
		bom, err := NewBom(actor, parent, child, decimal.NewFromFloat(2.5), "")
		require.NoError(t, err)
		assert.Equal(t, DefaultRevision, bom.Revision)
		assert.True(t, bom.QtyPer.Equal(decimal.NewFromFloat(2.5)))
	})

	t.Run("rejects self reference", func(t *testing.T) {
		_, err := NewBom(actor, parent, parent, decimal.NewFromInt(1), "A")
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewBom(actor, parent, child, decimal.Zero, "A")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestNewRouting(t *testing.T) {
	r, err := NewRouting(actor, uuid.New(), 10, "CUT-01", ProcessCutting)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Seq)

	_, err = NewRouting(actor, uuid.New(), 0, "CUT-01", ProcessCutting)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewRouting(actor, uuid.New(), 1, "X", ProcessType("WELD"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestEquipment_ChangeStatus(t *testing.T) {
	eq, err := NewEquipment(actor, "CUT-01", "Cutter 1")
	require.NoError(t, err)
	assert.Equal(t, EquipStatusNormal, eq.Status)
	assert.False(t, eq.InMaintenance())

	prev, err := eq.ChangeStatus(EquipStatusMaint, "blade change", "u2")
	require.NoError(t, err)
	assert.Equal(t, EquipStatusNormal, prev)
	assert.Equal(t, EquipStatusMaint, eq.Status)
	assert.Equal(t, "blade change", eq.StatusReason)
	assert.Equal(t, "u2", eq.UpdatedBy)
	assert.True(t, eq.InMaintenance())

	_, err = eq.ChangeStatus(EquipStatus("BROKEN"), "", "u2")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewEquipAttachment(t *testing.T) {
	equipID := uuid.New()
	a, err := NewEquipAttachment(actor, equipID, "manual/v2.pdf", "application/pdf", 1024, "")
	require.NoError(t, err)
	assert.Equal(t, "MANUAL", a.Category)
	assert.True(t, strings.HasPrefix(a.ObjectKey, "HANES/P01/equipment/"+equipID.String()+"/"))
	assert.True(t, strings.HasSuffix(a.ObjectKey, "-manual_v2.pdf"))

	key := AttachmentKey(shared.Actor{}, equipID, a.ID, "x.png")
	assert.True(t, strings.HasPrefix(key, "_/_/equipment/"))
}

func TestNewPartnerAndWarehouse(t *testing.T) {
	p, err := NewPartner(actor, "V-01", "Wire Co", PartnerVendor)
	require.NoError(t, err)
	assert.Equal(t, PartnerVendor, p.PartnerType)

	_, err = NewPartner(actor, "V-02", "X", PartnerType("SUPPLIER"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	w, err := NewWarehouse(actor, "raw-01", "Raw store", WarehouseRaw)
	require.NoError(t, err)
	assert.Equal(t, "RAW-01", w.WarehouseCode)
	assert.Equal(t, shared.No, w.IsDefault)

	_, err = NewWarehouse(actor, "X", "X", WarehouseType("COLD"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
