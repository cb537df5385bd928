package identity

import (
	"testing"
	"time"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actor = shared.Actor{UserID: "admin", Company: "HANES", Plant: "P01"}

func TestNewUser(t *testing.T) {
	t.Run("hashes password", func(t *testing.T) {
		u, err := NewUser(actor, "op01", "Operator", "secret1")
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", u.PasswordHash)
		assert.True(t, u.VerifyPassword("secret1"))
		assert.False(t, u.VerifyPassword("wrong"))
		assert.Equal(t, RoleOperator, u.RoleCode)
		assert.True(t, u.IsActive())
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewUser(actor, "op02", "Operator", "abc")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewUser(actor, "", "Operator", "secret1")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestUser_SetEmail(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetEmail("op@hanes.com"))
	assert.Equal(t, "op@hanes.com", u.Email)
	assert.ErrorIs(t, u.SetEmail("not-an-email"), shared.ErrInvalidInput)
	require.NoError(t, u.SetEmail(""))
	assert.Empty(t, u.Email)
}

func TestUser_IsActive(t *testing.T) {
	u := &User{UseYn: shared.No}
	assert.False(t, u.IsActive())

	now := time.Now()
	u.RecordLogin(now)
	assert.Equal(t, &now, u.LastLoginAt)
}

func TestRole_BuildPermissions(t *testing.T) {
	t.Run("dedupes menu codes", func(t *testing.T) {
		role, err := NewRole(actor, "qc", "Quality")
		require.NoError(t, err)
		assert.Equal(t, "QC", role.Code)

		perms, err := role.BuildPermissions([]string{"MAT_IN", " ", "MAT_IN", "OQC"})
		require.NoError(t, err)
		assert.Len(t, perms, 2)
		assert.Equal(t, []string{"MAT_IN", "OQC"}, role.MenuCodes())
		assert.Equal(t, role.ID, perms[0].RoleID)
	})

	t.Run("admin is fixed", func(t *testing.T) {
		role, err := NewRole(actor, RoleAdmin, "Admin")
		require.NoError(t, err)
		_, err = role.BuildPermissions([]string{"X"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestRole_CanDelete(t *testing.T) {
	role := &Role{Code: "OPERATOR", IsSystem: true}
	assert.ErrorIs(t, role.CanDelete(), shared.ErrInvalidState)
	role.IsSystem = false
	assert.NoError(t, role.CanDelete())
}
