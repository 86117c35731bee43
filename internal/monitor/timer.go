package monitor

import "time"

// Outcome is what a request path knows at the moment it records.
type Outcome struct {
	ModelUsed        string
	DataPoints       int
	ForecastDays     int
	ConfidenceScore  float64
	DataQualityScore float64
	Success          bool
	ErrorMessage     string
}

// ForecastTimer measures wall-clock duration for one request and records
// exactly one outcome. Callers start it first and record on every exit
// path, including recovered panics.
type ForecastTimer struct {
	sku      string
	userID   string
	start    time.Time
	mon      *PerformanceMonitor
	recorded bool
}

// StartTimer begins timing a request for the given SKU and user.
func (m *PerformanceMonitor) StartTimer(sku, userID string) *ForecastTimer {
	return &ForecastTimer{
		sku:    sku,
		userID: userID,
		start:  m.now(),
		mon:    m,
	}
}

// Record stops the timer and writes the outcome to the monitor. Repeat
// calls are ignored; one request produces exactly one ledger entry.
func (t *ForecastTimer) Record(o Outcome) {
	if t.recorded {
		return
	}
	t.recorded = true

	t.mon.Record(ForecastMetrics{
		Timestamp:        t.mon.now(),
		SKU:              t.sku,
		UserID:           t.userID,
		ModelUsed:        o.ModelUsed,
		ProcessingTimeMs: float64(t.mon.now().Sub(t.start)) / float64(time.Millisecond),
		DataPoints:       o.DataPoints,
		ForecastDays:     o.ForecastDays,
		ConfidenceScore:  o.ConfidenceScore,
		DataQualityScore: o.DataQualityScore,
		Success:          o.Success,
		ErrorMessage:     o.ErrorMessage,
	})
}
