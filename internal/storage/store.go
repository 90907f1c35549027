package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/runnerr0/vitalsmon/internal/vitals"
)

// Store defines the operations the rest of vitalsmon needs from storage.
type Store interface {
	InsertEvent(ctx context.Context, event *MetricEvent) error
	Select(ctx context.Context, f QueryFilter) ([]MetricEvent, error)
	SelectAverage(ctx context.Context, f QueryFilter) (float64, error)
	SelectCount(ctx context.Context, f QueryFilter) (int64, error)
	SelectPlot(ctx context.Context, f QueryFilter) ([]Bucket, error)
	SelectValues(ctx context.Context, f QueryFilter) ([]float64, error)
	Stats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	insertEvent *sql.Stmt

	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertEvent, err = s.db.Prepare(`
		INSERT INTO vital_scores (metric, value, url, connection_speed, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	return err
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		timestampLayout,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// InsertEvent appends one measurement. The event must already be validated;
// ID is populated from the table's key and CreatedAt defaults to now.
func (s *SQLiteStore) InsertEvent(ctx context.Context, event *MetricEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	event.CreatedAt = event.CreatedAt.UTC().Truncate(time.Second)

	res, err := s.insertEvent.ExecContext(ctx,
		string(event.Metric), event.Value, event.URL, event.ConnectionSpeed,
		formatTimestamp(event.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	event.ID = id

	return nil
}

// Select returns matching rows, ordered and capped by the filter.
func (s *SQLiteStore) Select(ctx context.Context, f QueryFilter) ([]MetricEvent, error) {
	query, args, err := listingDataset(f.withDefaults(s.now())).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.scanEvents(ctx, query, args...)
}

// SelectAverage returns the mean value of matching rows, or 0 when none match.
func (s *SQLiteStore) SelectAverage(ctx context.Context, f QueryFilter) (float64, error) {
	query, args, err := aggregateDataset(f.withDefaults(s.now())).
		Select(goqu.AVG(colValue)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build average: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("select average: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// SelectCount returns the number of matching rows. Count, OrderBy and Order
// of the filter are ignored.
func (s *SQLiteStore) SelectCount(ctx context.Context, f QueryFilter) (int64, error) {
	query, args, err := aggregateDataset(f.withDefaults(s.now())).
		Select(goqu.COUNT(colScoreID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("select count: %w", err)
	}
	return count, nil
}

// SelectPlot groups matching rows into BucketWidth-wide buckets, ascending.
// Empty buckets are not returned.
func (s *SQLiteStore) SelectPlot(ctx context.Context, f QueryFilter) ([]Bucket, error) {
	query, args, err := aggregateDataset(f.withDefaults(s.now())).
		Select(bucketExpr.As("bucket"), goqu.COUNT(colScoreID).As("count")).
		GroupBy(goqu.C("bucket")).
		Order(goqu.C("bucket").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build plot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select plot: %w", err)
	}
	defer rows.Close()

	buckets := []Bucket{}
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Value, &b.Count); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// SelectValues returns the value of every matching row, without a cap.
func (s *SQLiteStore) SelectValues(ctx context.Context, f QueryFilter) ([]float64, error) {
	query, args, err := aggregateDataset(f.withDefaults(s.now())).
		Select(colValue).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build values: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select values: %w", err)
	}
	defer rows.Close()

	values := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// scanEvents executes a query and scans results into MetricEvent slices.
func (s *SQLiteStore) scanEvents(ctx context.Context, query string, args ...interface{}) ([]MetricEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []MetricEvent{}
	for rows.Next() {
		var e MetricEvent
		var metric, tsStr string
		if err := rows.Scan(
			&e.ID, &metric, &e.Value, &e.URL, &e.ConnectionSpeed, &tsStr,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Metric = vitals.Metric(metric)
		e.CreatedAt, err = parseTimestamp(tsStr)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", e.ID, err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// TopURLLimit caps Stats.TopURLs.
const TopURLLimit = 10

// Stats returns whole-table statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	table := dialect.From(scoresTable).Prepared(true)

	query, args, err := table.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build event count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	if stats.TotalEvents > 0 {
		query, args, err = table.Select(goqu.MIN(colCreatedAt), goqu.MAX(colCreatedAt)).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build time range: %w", err)
		}
		var oldestStr, newestStr string
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&oldestStr, &newestStr); err != nil {
			return nil, fmt.Errorf("event time range: %w", err)
		}
		if stats.OldestEvent, err = parseTimestamp(oldestStr); err != nil {
			return nil, fmt.Errorf("oldest event: %w", err)
		}
		if stats.NewestEvent, err = parseTimestamp(newestStr); err != nil {
			return nil, fmt.Errorf("newest event: %w", err)
		}
	}

	query, args, err = table.
		Select(colMetric, goqu.COUNT(goqu.Star())).
		GroupBy(colMetric).
		Order(colMetric.Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build per-metric counts: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("per-metric counts: %w", err)
	}
	for rows.Next() {
		var mc MetricCount
		var metric string
		if err := rows.Scan(&metric, &mc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		mc.Metric = vitals.Metric(metric)
		stats.PerMetric = append(stats.PerMetric, mc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query, args, err = table.
		Select(colURL, goqu.COUNT(goqu.Star()).As("cnt")).
		GroupBy(colURL).
		Order(goqu.C("cnt").Desc(), colURL.Asc()).
		Limit(TopURLLimit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build top urls: %w", err)
	}
	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uc URLCount
		if err := rows.Scan(&uc.URL, &uc.Count); err != nil {
			return nil, err
		}
		stats.TopURLs = append(stats.TopURLs, uc)
	}

	return stats, rows.Err()
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	if s.insertEvent != nil {
		return s.insertEvent.Close()
	}
	return nil
}
