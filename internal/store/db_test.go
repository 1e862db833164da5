package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLite_MigrateIsIdempotent(t *testing.T) {
	db, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))
	assert.True(t, db.Healthy(ctx))

	for _, table := range []string{"courses", "course_students", "sessions", "attendance_records", "notifications"} {
		var n int
		err = db.Client.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", "")
	assert.Error(t, err)
}

func TestNilHandlesAreSafe(t *testing.T) {
	var db *DB
	var r *Redis
	assert.False(t, db.Healthy(context.Background()))
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, db.Close())
	assert.NoError(t, r.Close())
}

func TestPostgres_Migrate(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := NewDB(url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(context.Background()))
}
