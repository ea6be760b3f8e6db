package db

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *DB {
	t.Helper()
	db, err := OpenLedger(filepath.Join(t.TempDir(), "ledger", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPragmasApplied(t *testing.T) {
	db := openTestLedger(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous) // NORMAL
}

func TestMigrateUpDown(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	v, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp())
	require.NoError(t, db.MigrateUp(), "second up is a no-op")
	v, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, db.MigrateDown())
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='launches'`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestLaunchRoundTrip(t *testing.T) {
	db := openTestLedger(t)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	l := Launch{
		RunID:       "run-1",
		StartedAt:   start,
		Mode:        "video",
		Source:      "traffic.mp4",
		WeightsPath: "pretrained/yolox_s_coco.pth",
		ExpPath:     "exps/default/yolox_s.py",
		Argv:        []string{"python3", "tools/demo_track_vehicle.py", "video"},
	}
	require.NoError(t, db.RecordLaunch(l))

	got, err := db.RecentLaunches(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ExitCode)
	assert.True(t, got[0].FinishedAt.IsZero())
	assert.Equal(t, l.Argv, got[0].Argv)
	assert.Equal(t, start, got[0].StartedAt)

	require.NoError(t, db.FinishLaunch("run-1", start.Add(time.Minute), 0, true))
	got, err = db.RecentLaunches(10)
	require.NoError(t, err)
	require.NotNil(t, got[0].ExitCode)
	assert.Equal(t, 0, *got[0].ExitCode)
	assert.True(t, got[0].Interrupted)
	assert.Equal(t, start.Add(time.Minute), got[0].FinishedAt)

	assert.Error(t, db.FinishLaunch("missing", start, 1, false))
	assert.Error(t, db.RecordLaunch(Launch{}))
}

func TestRecentLaunches_NewestFirstAndLimit(t *testing.T) {
	db := openTestLedger(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.RecordLaunch(Launch{
			RunID: id, StartedAt: base.Add(time.Duration(i) * time.Hour),
			Mode: "webcam", Source: "camera 0", Argv: []string{"python3"},
		}))
	}

	got, err := db.RecentLaunches(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].RunID)
	assert.Equal(t, "b", got[1].RunID)
}

func TestAcquisitionRoundTrip(t *testing.T) {
	db := openTestLedger(t)
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	id1, err := db.RecordAcquisition(Acquisition{
		CreatedAt: at, Model: "yolox_s", URL: "https://example.com/yolox_s.pth",
		DestPath: "pretrained/yolox_s_coco.pth", Status: "failed", Error: "unexpected status 404",
	})
	require.NoError(t, err)
	id2, err := db.RecordAcquisition(Acquisition{
		RunID: "run-9", CreatedAt: at.Add(time.Second), Model: "yolox_s", URL: "https://example.com/yolox_s.pth",
		DestPath: "pretrained/yolox_s_coco.pth", Status: "downloaded", Bytes: 1234, Elapsed: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	got, err := db.RecentAcquisitions(5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "downloaded", got[0].Status)
	assert.Equal(t, "run-9", got[0].RunID)
	assert.Equal(t, int64(1234), got[0].Bytes)
	assert.Equal(t, 1500*time.Millisecond, got[0].Elapsed)
	assert.Empty(t, got[0].Error)
	assert.Equal(t, "unexpected status 404", got[1].Error)
	assert.Empty(t, got[1].RunID)
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1 (dirty: false)")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"version"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"down"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 0")

	assert.Error(t, RunMigrateCommand(nil, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"sideways"}, path, &out))
	require.NoError(t, RunMigrateCommand([]string{"help"}, path, &out))
}
