package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/vitalsmon/internal/vitals"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

// openTestStore creates a migrated in-memory Store with a fixed clock.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db := openTestDB(t)

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	store.now = func() time.Time { return testNow }
	t.Cleanup(func() { store.Close() })

	return store
}

func insert(t *testing.T, store *SQLiteStore, m vitals.Metric, value float64, url string, at time.Time) *MetricEvent {
	t.Helper()
	e := &MetricEvent{Metric: m, Value: value, URL: url, ConnectionSpeed: 10, CreatedAt: at}
	require.NoError(t, store.InsertEvent(context.Background(), e))
	return e
}

// --- InsertEvent ---

func TestInsertEvent_AssignsIDAndTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	e1 := &MetricEvent{Metric: vitals.LCP, Value: 1234.5, URL: "https://example.com/page/", ConnectionSpeed: 5}
	e2 := &MetricEvent{Metric: vitals.CLS, Value: 0.02, URL: "https://example.com/page/", ConnectionSpeed: UnknownConnectionSpeed}
	require.NoError(t, store.InsertEvent(ctx, e1))
	require.NoError(t, store.InsertEvent(ctx, e2))

	assert.Greater(t, e1.ID, int64(0))
	assert.Greater(t, e2.ID, e1.ID, "ids increase monotonically")
	assert.Equal(t, testNow, e1.CreatedAt)

	rows, err := store.Select(ctx, QueryFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, *e1, rows[0])
	assert.Equal(t, float64(-1), rows[1].ConnectionSpeed)
}

func TestInsertEvent_KeepsExplicitTimestamp(t *testing.T) {
	store := openTestStore(t)
	at := testNow.Add(-3 * 24 * time.Hour)

	e := insert(t, store, vitals.TTFB, 300, "https://example.com/", at)
	assert.Equal(t, at, e.CreatedAt)

	rows, err := store.Select(context.Background(), QueryFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, at.Equal(rows[0].CreatedAt))
}

// --- Select ---

func TestSelect_DefaultCapAndOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 301; i++ {
		insert(t, store, vitals.LCP, float64(1000+i), "https://example.com/page/", testNow.Add(-time.Hour))
	}

	count, err := store.SelectCount(ctx, DefaultFilter(testNow))
	require.NoError(t, err)
	assert.Equal(t, int64(301), count)

	rows, err := store.Select(ctx, DefaultFilter(testNow))
	require.NoError(t, err)
	assert.Len(t, rows, DefaultCount)
	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i-1].ID, rows[i].ID, "rows ascend by id")
	}
}

func TestSelect_OrderByValueDesc(t *testing.T) {
	store := openTestStore(t)
	for _, v := range []float64{300, 100, 200} {
		insert(t, store, vitals.INP, v, "https://example.com/", testNow)
	}

	rows, err := store.Select(context.Background(), QueryFilter{OrderBy: "value", Order: OrderDesc})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []float64{300, 200, 100}, []float64{rows[0].Value, rows[1].Value, rows[2].Value})
}

func TestSelect_UnknownOrderByFallsBackToID(t *testing.T) {
	store := openTestStore(t)
	for _, v := range []float64{300, 100, 200} {
		insert(t, store, vitals.INP, v, "https://example.com/", testNow)
	}

	rows, err := store.Select(context.Background(), QueryFilter{OrderBy: "value; DROP TABLE vital_scores"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []float64{300, 100, 200}, []float64{rows[0].Value, rows[1].Value, rows[2].Value})
}

func TestSelect_FiltersByMetricURLAndWindow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	insert(t, store, vitals.LCP, 1000, "https://example.com/a/", testNow)
	insert(t, store, vitals.LCP, 2000, "https://example.com/b/", testNow)
	insert(t, store, vitals.CLS, 0.1, "https://example.com/a/", testNow)
	insert(t, store, vitals.LCP, 3000, "https://example.com/a/", testNow.Add(-40*24*time.Hour))

	f, err := ParseFilter(RawFilter{Metrics: []string{"LCP"}, URL: "https://example.com/a?ref=x"}, testNow)
	require.NoError(t, err)

	rows, err := store.Select(ctx, f)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(1000), rows[0].Value)
}

func TestSelect_WindowIsInclusive(t *testing.T) {
	store := openTestStore(t)
	start := testNow.Add(-48 * time.Hour)
	end := testNow.Add(-24 * time.Hour)

	insert(t, store, vitals.FCP, 1, "https://example.com/", start)
	insert(t, store, vitals.FCP, 2, "https://example.com/", end)
	insert(t, store, vitals.FCP, 3, "https://example.com/", end.Add(time.Second))
	insert(t, store, vitals.FCP, 4, "https://example.com/", start.Add(-time.Second))

	count, err := store.SelectCount(context.Background(), QueryFilter{DateStart: start, DateEnd: end})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSelect_URLContainsEscapesWildcards(t *testing.T) {
	store := openTestStore(t)
	insert(t, store, vitals.LCP, 1, "https://example.com/blog/100%_off/", testNow)
	insert(t, store, vitals.LCP, 2, "https://example.com/blog/100x/", testNow)

	rows, err := store.Select(context.Background(), QueryFilter{URLContains: "100%_"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(1), rows[0].Value)

	rows, err = store.Select(context.Background(), QueryFilter{URLContains: "/blog/"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// --- Aggregates ---

func TestAggregates_EmptyTable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	avg, err := store.SelectAverage(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, float64(0), avg)

	count, err := store.SelectCount(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	plot, err := store.SelectPlot(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, plot)

	values, err := store.SelectValues(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestSelectAverage(t *testing.T) {
	store := openTestStore(t)
	for _, v := range []float64{1000, 2000, 4500} {
		insert(t, store, vitals.LCP, v, "https://example.com/", testNow)
	}
	insert(t, store, vitals.TTFB, 99999, "https://example.com/", testNow)

	avg, err := store.SelectAverage(context.Background(), QueryFilter{Metrics: []vitals.Metric{vitals.LCP}})
	require.NoError(t, err)
	assert.InDelta(t, 2500, avg, 1e-9)
}

func TestSelectCount_IgnoresCountCap(t *testing.T) {
	store := openTestStore(t)
	for i := 0; i < 5; i++ {
		insert(t, store, vitals.FID, 10, "https://example.com/", testNow)
	}

	count, err := store.SelectCount(context.Background(), QueryFilter{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestSelectPlot_Buckets(t *testing.T) {
	store := openTestStore(t)
	for _, v := range []float64{4, 5, 14.9, 15, 16, 120, 124.99} {
		insert(t, store, vitals.INP, v, "https://example.com/", testNow)
	}

	plot, err := store.SelectPlot(context.Background(), QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []Bucket{
		{Value: 0, Count: 1},
		{Value: 10, Count: 2},
		{Value: 20, Count: 2},
		{Value: 120, Count: 2},
	}, plot)

	for _, b := range plot {
		assert.Zero(t, b.Value%BucketWidth)
		assert.Greater(t, b.Count, int64(0))
	}
}

func TestSelectValues(t *testing.T) {
	store := openTestStore(t)
	insert(t, store, vitals.CLS, 0.1, "https://example.com/", testNow)
	insert(t, store, vitals.CLS, 0.3, "https://example.com/", testNow)

	values, err := store.SelectValues(context.Background(), QueryFilter{Count: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{0.1, 0.3}, values)
}

// --- Stats ---

func TestStats_EmptyDB(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalEvents)
	assert.True(t, stats.OldestEvent.IsZero())
	assert.Empty(t, stats.PerMetric)
}

func TestStats_WithData(t *testing.T) {
	store := openTestStore(t)
	insert(t, store, vitals.LCP, 1, "https://a.com/", testNow.Add(-time.Hour))
	insert(t, store, vitals.LCP, 2, "https://a.com/", testNow)
	insert(t, store, vitals.CLS, 0.1, "https://b.com/", testNow)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalEvents)
	assert.True(t, testNow.Add(-time.Hour).Equal(stats.OldestEvent))
	assert.True(t, testNow.Equal(stats.NewestEvent))
	assert.Equal(t, []MetricCount{{vitals.CLS, 1}, {vitals.LCP, 2}}, stats.PerMetric)
	require.NotEmpty(t, stats.TopURLs)
	assert.Equal(t, URLCount{URL: "https://a.com/", Count: 2}, stats.TopURLs[0])
}

// --- Close ---

func TestClose(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}

func TestStats_CorruptTimestampIsAnError(t *testing.T) {
	store := openTestStore(t)
	_, err := store.db.Exec("INSERT INTO vital_scores (metric, value, url, connection_speed, created_at) VALUES ('LCP', 1, 'https://a.com/', -1, 'not a time')")
	require.NoError(t, err)

	_, err = store.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot parse timestamp")
}

func TestStats_TopURLsCapped(t *testing.T) {
	store := openTestStore(t)
	for i := 0; i < TopURLLimit+3; i++ {
		insert(t, store, vitals.LCP, 1, fmt.Sprintf("https://example.com/p%02d/", i), testNow)
	}
	insert(t, store, vitals.LCP, 1, "https://example.com/p05/", testNow)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.TopURLs, TopURLLimit)
	assert.Equal(t, URLCount{URL: "https://example.com/p05/", Count: 2}, stats.TopURLs[0])
	assert.Equal(t, "https://example.com/p00/", stats.TopURLs[1].URL, "ties sort by url")
}
