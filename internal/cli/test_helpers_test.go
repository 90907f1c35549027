package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/vitalsmon/internal/storage"
	"github.com/runnerr0/vitalsmon/internal/vitals"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// openTestDB creates an in-memory SQLite database, optionally migrated.
func openTestDB(t *testing.T, migrate bool) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if migrate {
		require.NoError(t, storage.NewMigrationRunner(db).Run())
	}
	return db
}

// testStore creates a migrated in-memory store.
func testStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(openTestDB(t, true))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEvent(t *testing.T, store storage.Store, m vitals.Metric, value float64, url string, age time.Duration) {
	t.Helper()
	require.NoError(t, store.InsertEvent(context.Background(), &storage.MetricEvent{
		Metric:          m,
		Value:           value,
		URL:             url,
		ConnectionSpeed: storage.UnknownConnectionSpeed,
		CreatedAt:       testNow.Add(-age),
	}))
}
