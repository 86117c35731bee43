// internal/domain/forecast.go
package domain

// Trend describes the direction of a forecast series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Interval is a lower/upper bound pair for one predicted day.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ForecastResult is the output of a single fitter run. A zero
// ConfidenceScore is the fitter's explicit failure signal; the value is
// otherwise treated as opaque and never mutated.
type ForecastResult struct {
	Predictions         []float64  `json:"predictions"`
	ConfidenceIntervals []Interval `json:"confidence_intervals,omitempty"`
	ModelName           string     `json:"model_name"`
	Trend               Trend      `json:"trend"`
	SeasonalityDetected bool       `json:"seasonality_detected"`
	ConfidenceScore     float64    `json:"confidence_score"`
}

// Failed reports whether the fitter signalled failure.
func (r ForecastResult) Failed() bool {
	return r.ConfidenceScore == 0
}
