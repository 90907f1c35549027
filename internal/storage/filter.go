package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/vitalsmon/internal/vitals"
)

// Filter defaults and bounds.
const (
	DefaultCount  = 250
	MinCount      = 1
	MaxCount      = 500
	DefaultWindow = 28 * 24 * time.Hour
)

// Order is a sort direction.
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// RawFilter carries filter parameters exactly as a caller supplied them.
type RawFilter struct {
	DateStart   string
	DateEnd     string
	Metrics     []string // repeated and/or comma separated
	URL         string
	URLContains string
	Count       string
	OrderBy     string
	Order       string
}

// QueryFilter is a parsed, bounded filter over the measurement table.
// The zero value means "all metrics, default window, default count".
type QueryFilter struct {
	DateStart   time.Time
	DateEnd     time.Time
	Metrics     []vitals.Metric
	URL         string // standardized, exact match
	URLContains string // substring match on the standardized url
	Count       int
	OrderBy     string
	Order       Order
}

// FilterError reports a filter parameter that could not be parsed.
type FilterError struct {
	Param string
	Err   error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// DefaultFilter returns the filter used when a caller supplies nothing.
func DefaultFilter(now time.Time) QueryFilter {
	return QueryFilter{
		DateStart: now.Add(-DefaultWindow),
		DateEnd:   now,
		Metrics:   append([]vitals.Metric(nil), vitals.AllMetrics...),
		Count:     DefaultCount,
		OrderBy:   ColumnID,
		Order:     OrderAsc,
	}
}

// ParseFilter merges raw over the defaults. Dates, metric names and the
// URL must parse; count, order and orderby are coerced silently.
func ParseFilter(raw RawFilter, now time.Time) (QueryFilter, error) {
	f := DefaultFilter(now)

	if s := strings.TrimSpace(raw.DateStart); s != "" {
		t, err := parseFilterTime(s, false)
		if err != nil {
			return QueryFilter{}, &FilterError{Param: "date_start", Err: err}
		}
		f.DateStart = t
	}
	if s := strings.TrimSpace(raw.DateEnd); s != "" {
		t, err := parseFilterTime(s, true)
		if err != nil {
			return QueryFilter{}, &FilterError{Param: "date_end", Err: err}
		}
		f.DateEnd = t
	}
	if f.DateStart.After(f.DateEnd) {
		return QueryFilter{}, &FilterError{
			Param: "date_start",
			Err:   fmt.Errorf("%s is after date_end", f.DateStart.UTC().Format(time.RFC3339)),
		}
	}

	metrics, err := parseMetrics(raw.Metrics)
	if err != nil {
		return QueryFilter{}, &FilterError{Param: "metric", Err: err}
	}
	if len(metrics) > 0 {
		f.Metrics = metrics
	}

	if s := strings.TrimSpace(raw.URL); s != "" {
		u, err := vitals.StandardizeURL(s)
		if err != nil {
			return QueryFilter{}, &FilterError{Param: "url", Err: err}
		}
		f.URL = u
	}
	f.URLContains = strings.TrimSpace(raw.URLContains)

	f.Count = ClampCount(raw.Count)
	f.OrderBy = normalizeOrderBy(raw.OrderBy)
	f.Order = NormalizeOrder(raw.Order)

	return f, nil
}

// ClampCount turns a caller-supplied row cap into a usable one. Empty or
// non-numeric input yields DefaultCount; numbers are truncated and clamped
// to [MinCount, MaxCount].
func ClampCount(raw string) int {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) {
		return DefaultCount
	}
	return clampInt(n)
}

func clampInt(n float64) int {
	switch {
	case n < MinCount:
		return MinCount
	case n > MaxCount:
		return MaxCount
	default:
		return int(n)
	}
}

// NormalizeOrder accepts asc/desc in any case; everything else is ASC.
func NormalizeOrder(raw string) Order {
	if strings.EqualFold(strings.TrimSpace(raw), string(OrderDesc)) {
		return OrderDesc
	}
	return OrderAsc
}

func normalizeOrderBy(raw string) string {
	if name, ok := canonicalColumn(strings.TrimSpace(raw)); ok {
		return name
	}
	return ColumnID
}

func parseMetrics(values []string) ([]vitals.Metric, error) {
	var metrics []vitals.Metric
	seen := make(map[vitals.Metric]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			m, err := vitals.ParseMetric(part)
			if err != nil {
				return nil, err
			}
			if !seen[m] {
				seen[m] = true
				metrics = append(metrics, m)
			}
		}
	}
	return metrics, nil
}

// parseFilterTime accepts RFC 3339, a zone-less date-time, or a bare date.
// A bare date used as an upper bound covers the whole day.
func parseFilterTime(s string, endOfDay bool) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		timestampLayout,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date-time", s)
}

// withDefaults fills zero fields so a hand-built filter behaves like a
// parsed one.
func (f QueryFilter) withDefaults(now time.Time) QueryFilter {
	if f.DateEnd.IsZero() {
		f.DateEnd = now
	}
	if f.DateStart.IsZero() {
		f.DateStart = f.DateEnd.Add(-DefaultWindow)
	}
	if len(f.Metrics) == 0 {
		f.Metrics = append([]vitals.Metric(nil), vitals.AllMetrics...)
	}
	if f.Count == 0 {
		f.Count = DefaultCount
	} else {
		f.Count = clampInt(float64(f.Count))
	}
	if f.OrderBy == "" {
		f.OrderBy = ColumnID
	}
	if f.Order != OrderDesc {
		f.Order = OrderAsc
	}
	return f
}
