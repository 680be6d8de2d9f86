package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestMigrateDownAndUp(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.MigrateDown())
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, db.MigrateUp())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestRecordAndListCalls(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordSession("sess-1", "127.0.0.1"))
	require.NoError(t, db.RecordCall("sess-1", "vtk.initialize", "", "success", "", 12*time.Millisecond))
	require.NoError(t, db.RecordCall("sess-1", "vtk.apply_color_map", `{"array_name":"T"}`, "success", "", 3*time.Millisecond))
	require.NoError(t, db.RecordCall("sess-1", "vtk.bogus", "", "error", "unknown method: vtk.bogus", time.Millisecond))

	calls, err := db.ListCalls(10)
	require.NoError(t, err)
	require.Len(t, calls, 3)

	// Newest first.
	assert.Equal(t, "vtk.bogus", calls[0].Method)
	assert.Equal(t, "error", calls[0].Status)
	assert.Equal(t, "unknown method: vtk.bogus", calls[0].Error)
	assert.Equal(t, "vtk.initialize", calls[2].Method)
	assert.InDelta(t, 12.0, calls[2].DurationMs, 0.001)
}

func TestListCallsLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordCall("s", "vtk.initialize", "", "success", "", time.Millisecond))
	}

	calls, err := db.ListCalls(2)
	require.NoError(t, err)
	assert.Len(t, calls, 2)

	calls, err = db.ListCalls(0)
	require.NoError(t, err)
	assert.Len(t, calls, 5, "non-positive limit falls back to the default")
}

func TestRecordAndListExports(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordExport("sess-1", "a.png", 1920, 1080, 4096))
	require.NoError(t, db.RecordExport("sess-1", "b.png", 640, 480, 1024))

	exports, err := db.ListExports(10)
	require.NoError(t, err)
	require.Len(t, exports, 2)

	assert.Equal(t, "b.png", exports[0].Filename)
	assert.Equal(t, 640, exports[0].Width)
	assert.Equal(t, 480, exports[0].Height)
	assert.Equal(t, int64(1024), exports[0].SizeBytes)
	assert.Equal(t, "a.png", exports[1].Filename)
}

func TestCallStats(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordCall("s", "vtk.initialize", "", "success", "", 0))
	require.NoError(t, db.RecordCall("s", "vtk.initialize", "", "success", "", 0))
	require.NoError(t, db.RecordCall("s", "vtk.export_image", "", "success", "", 0))

	stats, err := db.CallStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "vtk.export_image", stats[0].Method)
	assert.Equal(t, int64(1), stats[0].Count)
	assert.Equal(t, "vtk.initialize", stats[1].Method)
	assert.Equal(t, int64(2), stats[1].Count)
}

func TestRecordSessionIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordSession("sess-1", "127.0.0.1"))
	require.NoError(t, db.RecordSession("sess-1", "127.0.0.1"))
}
