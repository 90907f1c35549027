// Package report turns stored measurements into the figures the dashboard
// shows: averages, counts, histograms, percentiles and per-metric ratings.
package report

import (
	"context"
	"fmt"
	"math"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/runnerr0/vitalsmon/internal/storage"
	"github.com/runnerr0/vitalsmon/internal/vitals"
)

// Values are recorded in thousandths so CLS keeps three decimals.
const (
	percentileScale   = 1000
	highestTrackable  = 3_600_000 * percentileScale // one hour in ms
	significantFigure = 3
)

// AssessmentPercentile is the percentile Core Web Vitals are judged at.
const AssessmentPercentile = 75

// Engine computes aggregates over a Store.
type Engine struct {
	store storage.Store
}

// NewEngine creates an Engine reading from store.
func NewEngine(store storage.Store) *Engine {
	return &Engine{store: store}
}

// Average returns the mean value of the matching rows, or 0 if none match.
func (e *Engine) Average(ctx context.Context, f storage.QueryFilter) (float64, error) {
	avg, err := e.store.SelectAverage(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("average: %w", err)
	}
	return avg, nil
}

// Count returns how many rows match, regardless of the filter's row cap.
func (e *Engine) Count(ctx context.Context, f storage.QueryFilter) (int64, error) {
	n, err := e.store.SelectCount(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Plot returns the value histogram of the matching rows.
func (e *Engine) Plot(ctx context.Context, f storage.QueryFilter) ([]storage.Bucket, error) {
	buckets, err := e.store.SelectPlot(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	return buckets, nil
}

// Percentile returns the q-th percentile (0-100) of the matching values,
// accurate to three significant figures. It returns 0 when nothing matches.
func (e *Engine) Percentile(ctx context.Context, f storage.QueryFilter, q float64) (float64, error) {
	values, err := e.store.SelectValues(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("percentile: %w", err)
	}
	return percentile(values, q), nil
}

func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	h := hdrhistogram.New(1, highestTrackable, significantFigure)
	for _, v := range values {
		scaled := int64(math.Round(v * percentileScale))
		if scaled < 0 {
			scaled = 0
		}
		if scaled > h.HighestTrackableValue() {
			scaled = h.HighestTrackableValue()
		}
		_ = h.RecordValue(scaled)
	}
	return float64(h.ValueAtQuantile(q)) / percentileScale
}

// MetricSummary is the dashboard card for one metric.
type MetricSummary struct {
	Metric      vitals.Metric     `json:"metric"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Unit        string            `json:"unit"`
	Thresholds  vitals.Thresholds `json:"thresholds"`
	Average     float64           `json:"average"`
	Count       int64             `json:"count"`
	P75         float64           `json:"p75"`
	Rating      vitals.Rating     `json:"rating"`
}

// Summary builds one MetricSummary per metric in the filter, or per known
// metric when the filter names none. The rating is taken on the average.
func (e *Engine) Summary(ctx context.Context, f storage.QueryFilter) ([]MetricSummary, error) {
	metrics := f.Metrics
	if len(metrics) == 0 {
		metrics = vitals.AllMetrics
	}

	out := make([]MetricSummary, 0, len(metrics))
	for _, m := range metrics {
		mf := f
		mf.Metrics = []vitals.Metric{m}

		avg, err := e.Average(ctx, mf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		count, err := e.Count(ctx, mf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		p75, err := e.Percentile(ctx, mf, AssessmentPercentile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}

		def := m.Definition()
		out = append(out, MetricSummary{
			Metric:      m,
			Label:       def.Label,
			Description: def.Description,
			Unit:        def.Unit,
			Thresholds:  def.Thresholds,
			Average:     avg,
			Count:       count,
			P75:         p75,
			Rating:      m.Rate(avg),
		})
	}
	return out, nil
}
