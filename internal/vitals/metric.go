package vitals

import (
	"fmt"
	"strings"
)

// Metric names one of the Core Web Vitals a browser can report.
type Metric string

const (
	CLS  Metric = "CLS"
	FCP  Metric = "FCP"
	FID  Metric = "FID"
	INP  Metric = "INP"
	LCP  Metric = "LCP"
	TTFB Metric = "TTFB"
)

// AllMetrics is the fixed enumeration, in the order the store lists them.
var AllMetrics = []Metric{CLS, FCP, FID, INP, LCP, TTFB}

// Definition describes how a metric is measured and judged.
type Definition struct {
	Metric      Metric
	Label       string
	Description string
	Unit        string // "ms" for timings, empty for unitless ratios
	Thresholds  Thresholds
}

var definitions = map[Metric]Definition{
	LCP: {
		Metric:      LCP,
		Label:       "Largest Contentful Paint",
		Description: "Time until the largest image or text block is rendered, relative to navigation start.",
		Unit:        "ms",
		Thresholds:  Thresholds{GoodMax: 2500, PoorMin: 4000},
	},
	FID: {
		Metric:      FID,
		Label:       "First Input Delay",
		Description: "Time from the first user interaction to the moment the browser can respond to it.",
		Unit:        "ms",
		Thresholds:  Thresholds{GoodMax: 100, PoorMin: 300},
	},
	CLS: {
		Metric:      CLS,
		Label:       "Cumulative Layout Shift",
		Description: "How much visible elements shift around while the page loads.",
		Unit:        "",
		Thresholds:  Thresholds{GoodMax: 0.1, PoorMin: 0.25},
	},
	TTFB: {
		Metric:      TTFB,
		Label:       "Time to First Byte",
		Description: "Time between requesting a resource and the first byte of the response arriving.",
		Unit:        "ms",
		Thresholds:  Thresholds{GoodMax: 800, PoorMin: 1800},
	},
	INP: {
		Metric:      INP,
		Label:       "Interaction to Next Paint",
		Description: "Time for a user interaction to take visible effect on screen.",
		Unit:        "ms",
		Thresholds:  Thresholds{GoodMax: 200, PoorMin: 500},
	},
	FCP: {
		Metric:      FCP,
		Label:       "First Contentful Paint",
		Description: "Time from navigation start until any content is rendered.",
		Unit:        "ms",
		Thresholds:  Thresholds{GoodMax: 1800, PoorMin: 3000},
	},
}

// ParseMetric resolves an exact metric name. Matching is case-sensitive,
// the way browsers report them.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.TrimSpace(s))
	if _, ok := definitions[m]; !ok {
		return "", fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

// Valid reports whether m is part of the enumeration.
func (m Metric) Valid() bool {
	_, ok := definitions[m]
	return ok
}

// Definition returns the metric's description and thresholds. The zero
// Definition is returned for unknown metrics.
func (m Metric) Definition() Definition {
	return definitions[m]
}

func (m Metric) String() string { return string(m) }
