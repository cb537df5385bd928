package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/mes/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"add_box_index":        "add_box_index",
		"Add Pallet Weight":    "add_pallet_weight",
		"seed--rules  v2":      "seed_rules_v2",
		"  trailing!! ":        "trailing",
		"OQC/Request 2":        "oqc_request_2",
		"***":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	first, err := CreateMigration(dir, "Add box index", "speeds up box lookup by lot")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_box_index.up.sql"), first.UpPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: 000001_add_box_index")
	assert.Contains(t, string(up), "-- speeds up box lookup by lot")
	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "seed rules", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	_, err = CreateMigration(dir, "!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_late.up.sql":     {},
		"000010_late.down.sql":   {},
		"000002_early.up.sql":    {},
		"README.md":              {},
		"notanumber_x.up.sql":    {},
		"000003_dir.up.sql/file": {},
	}
	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Migration{{2, "early"}, {10, "late"}}, got)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "nope")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []Migration{{1, "uid_functions"}, {2, "num_rule_seeds"}}, got)

	for _, m := range []string{"000001_uid_functions", "000002_num_rule_seeds"} {
		_, err := migrations.FS.ReadFile(m + ".down.sql")
		assert.NoError(t, err, m)
	}
}
