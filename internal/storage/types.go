package storage

import (
	"time"

	"github.com/runnerr0/vitalsmon/internal/vitals"
)

// UnknownConnectionSpeed is stored when the browser did not expose a
// downlink estimate.
const UnknownConnectionSpeed = -1

// MetricEvent is one measurement reported by a visiting browser.
type MetricEvent struct {
	ID              int64         `json:"score_id"`
	Metric          vitals.Metric `json:"metric"`
	Value           float64       `json:"value"`
	URL             string        `json:"url"`
	ConnectionSpeed float64       `json:"connection_speed"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Bucket is one bar of a value histogram.
type Bucket struct {
	Value int64 `json:"value"`
	Count int64 `json:"count"`
}

// Stats holds whole-table statistics, independent of any filter.
type Stats struct {
	TotalEvents int64
	OldestEvent time.Time
	NewestEvent time.Time
	PerMetric   []MetricCount
	TopURLs     []URLCount
}

// MetricCount pairs a metric with its row count.
type MetricCount struct {
	Metric vitals.Metric
	Count  int64
}

// URLCount pairs a standardized URL with its row count.
type URLCount struct {
	URL   string
	Count int64
}
