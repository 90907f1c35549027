package httpapi

import (
	"net/url"

	"github.com/runnerr0/vitalsmon/internal/storage"
)

// rawFilter maps query parameters onto a RawFilter. metric may repeat, be
// comma separated, or use the metric[] array form.
func rawFilter(q url.Values) storage.RawFilter {
	metrics := append([]string(nil), q["metric"]...)
	metrics = append(metrics, q["metric[]"]...)

	return storage.RawFilter{
		DateStart:   q.Get("date_start"),
		DateEnd:     q.Get("date_end"),
		Metrics:     metrics,
		URL:         q.Get("url"),
		URLContains: q.Get("url_contains"),
		Count:       q.Get("count"),
		OrderBy:     q.Get("orderby"),
		Order:       q.Get("order"),
	}
}
