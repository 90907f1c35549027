package vitals

import "math"

// Rating is the classification of an average against a metric's thresholds.
type Rating string

const (
	RatingGood             Rating = "good"
	RatingNeedsImprovement Rating = "needs-improvement"
	RatingPoor             Rating = "poor"
	RatingUnknown          Rating = "unknown"
)

// Thresholds holds the upper bound of "good" and the bound above which a
// value is "poor".
type Thresholds struct {
	GoodMax float64 `json:"good_max"`
	PoorMin float64 `json:"poor_min"`
}

// Classify rates an average. An average of zero or NaN means no data.
func Classify(t Thresholds, average float64) Rating {
	switch {
	case math.IsNaN(average) || average == 0:
		return RatingUnknown
	case average <= t.GoodMax:
		return RatingGood
	case average <= t.PoorMin:
		return RatingNeedsImprovement
	default:
		return RatingPoor
	}
}

// Rate classifies an average against the metric's own thresholds.
func (m Metric) Rate(average float64) Rating {
	if !m.Valid() {
		return RatingUnknown
	}
	return Classify(m.Definition().Thresholds, average)
}
