package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Idempotent(t *testing.T) {
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "audit.db"))
	require.NoError(t, err)
	defer sqlite.Close()

	require.NoError(t, Migrate(sqlite))
	require.NoError(t, Migrate(sqlite))

	var version int
	require.NoError(t, sqlite.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version))
	assert.Equal(t, 1, version)

	var n int
	require.NoError(t, sqlite.QueryRow(`SELECT COUNT(*) FROM audit_records`).Scan(&n))
	assert.Zero(t, n)
}
