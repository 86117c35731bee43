package monitor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func newFixedMonitor(capacity int) *PerformanceMonitor {
	m := NewPerformanceMonitor(capacity)
	m.now = func() time.Time { return fixedNow }
	return m
}

func metricAt(ts time.Time, model string, success bool) ForecastMetrics {
	return ForecastMetrics{
		Timestamp: ts,
		SKU:       "SKU-001",
		ModelUsed: model,
		Success:   success,
	}
}

func TestRecord_EvictsPastCapacity(t *testing.T) {
	m := newFixedMonitor(3)
	for i := 1; i <= 5; i++ {
		m.Record(ForecastMetrics{
			Timestamp: fixedNow,
			SKU:       fmt.Sprintf("SKU-%03d", i),
			ModelUsed: "Smoothing-Trend",
			Success:   true,
		})
	}

	history := m.Export()
	require.Len(t, history, 3)
	assert.Equal(t, "SKU-003", history[0].SKU)
	assert.Equal(t, "SKU-005", history[2].SKU)
}

func TestSummarize(t *testing.T) {
	m := newFixedMonitor(0)

	fast := metricAt(fixedNow.Add(-time.Hour), "Smoothing-Trend", true)
	fast.ProcessingTimeMs = 100
	fast.ConfidenceScore = 0.8
	fast.DataQualityScore = 0.9
	m.Record(fast)

	slow := metricAt(fixedNow.Add(-2*time.Hour), "Seasonal-Naive", true)
	slow.ProcessingTimeMs = 6000
	slow.ConfidenceScore = 0.2
	slow.DataQualityScore = 0.4
	m.Record(slow)

	failed := metricAt(fixedNow.Add(-3*time.Hour), "validation_failed", false)
	failed.ProcessingTimeMs = 50
	failed.ErrorMessage = "boom"
	m.Record(failed)

	outside := metricAt(fixedNow.Add(-48*time.Hour), "Smoothing-Trend", true)
	outside.ProcessingTimeMs = 9000
	m.Record(outside)

	s := m.Summarize(24)

	assert.Equal(t, 24, s.TimePeriodHours)
	assert.Equal(t, 3, s.TotalRequests)
	assert.Equal(t, 2, s.SuccessfulRequests)
	assert.Equal(t, 1, s.FailedRequests)
	assert.InDelta(t, 2.0/3.0, s.SuccessRate, 1e-9)

	assert.InDelta(t, 2050, s.Performance.AvgProcessingTimeMs, 1e-9)
	assert.InDelta(t, 50, s.Performance.MinProcessingTimeMs, 1e-9)
	assert.InDelta(t, 6000, s.Performance.MaxProcessingTimeMs, 1e-9)
	assert.Equal(t, 1, s.Performance.SlowRequests)

	assert.InDelta(t, 0.5, s.ForecastQuality.AvgConfidenceScore, 1e-9)
	assert.InDelta(t, 0.65, s.ForecastQuality.AvgDataQualityScore, 1e-9)
	assert.Equal(t, 1, s.ForecastQuality.LowConfidenceForecasts)
	assert.Equal(t, 1, s.ForecastQuality.LowQualityData)

	assert.Equal(t, map[string]int{"Smoothing-Trend": 1, "Seasonal-Naive": 1}, s.ModelUsage)
	assert.Equal(t, map[string]int{"boom": 1}, s.RecentErrors)
}

func TestSummarize_EmptyWindow(t *testing.T) {
	m := newFixedMonitor(0)
	old := metricAt(fixedNow.Add(-72*time.Hour), "Smoothing-Trend", true)
	m.Record(old)

	s := m.Summarize(24)

	assert.Equal(t, 0, s.TotalRequests)
	assert.Equal(t, 0, s.FailedRequests)
	assert.Zero(t, s.SuccessRate)
	assert.Zero(t, s.Performance.AvgProcessingTimeMs)
	assert.Empty(t, s.ModelUsage)
}

func TestCompareModels(t *testing.T) {
	m := newFixedMonitor(0)

	for _, conf := range []float64{0.6, 0.8} {
		metric := metricAt(fixedNow, "Smoothing-Trend", true)
		metric.ConfidenceScore = conf
		metric.DataQualityScore = 0.9
		metric.ProcessingTimeMs = 100
		m.Record(metric)
	}
	m.Record(metricAt(fixedNow, "Smoothing-Trend", false))

	single := metricAt(fixedNow, "Seasonal-Naive", true)
	single.ConfidenceScore = 0.7
	m.Record(single)

	m.Record(metricAt(fixedNow, "exception", false))

	comparison := m.CompareModels()

	require.Contains(t, comparison, "Smoothing-Trend")
	st := comparison["Smoothing-Trend"]
	assert.Equal(t, 3, st.TotalRuns)
	assert.Equal(t, 2, st.SuccessfulRuns)
	assert.InDelta(t, 2.0/3.0, st.SuccessRate, 1e-9)
	assert.InDelta(t, 0.7, st.AvgConfidence, 1e-9)
	assert.InDelta(t, 0.1414, st.ConfidenceStd, 1e-3)

	require.Contains(t, comparison, "Seasonal-Naive")
	assert.Zero(t, comparison["Seasonal-Naive"].ConfidenceStd, "one sample has no spread")

	assert.NotContains(t, comparison, "exception", "models without a success are excluded")
}

func TestExport_ReturnsCopy(t *testing.T) {
	m := newFixedMonitor(0)
	m.Record(metricAt(fixedNow, "Smoothing-Trend", true))

	snapshot := m.Export()
	require.Len(t, snapshot, 1)
	snapshot[0].SKU = "mutated"

	assert.Equal(t, "SKU-001", m.Export()[0].SKU)
}

func TestClear(t *testing.T) {
	m := newFixedMonitor(0)
	m.Record(metricAt(fixedNow, "Smoothing-Trend", true))
	m.Record(metricAt(fixedNow, "validation_failed", false))

	m.Clear()

	assert.Empty(t, m.Export())
	assert.Empty(t, m.CompareModels())
	assert.Zero(t, m.Summarize(24).TotalRequests)
}

func TestRecord_LifetimeDiagnostics(t *testing.T) {
	m := newFixedMonitor(0)

	for i := 0; i < processingTimeWindow+20; i++ {
		m.Record(metricAt(fixedNow, "Smoothing-Trend", true))
	}
	failed := metricAt(fixedNow, "validation_failed", false)
	failed.ErrorMessage = "boom"
	m.Record(failed)
	m.Record(failed)
	noMessage := metricAt(fixedNow, "exception", false)
	m.Record(noMessage)

	// The duration window stays bounded at its own size and error
	// tallies accumulate per message, independent of history eviction.
	assert.Len(t, m.processingTimes, processingTimeWindow)
	assert.Equal(t, 2, m.errorCounts["boom"])
	assert.Equal(t, 1, m.errorCounts["unknown_error"])

	m.Clear()

	assert.Empty(t, m.processingTimes)
	assert.Empty(t, m.errorCounts)
}

func TestForecastTimer_RecordsExactlyOnce(t *testing.T) {
	m := newFixedMonitor(0)
	timer := m.StartTimer("SKU-001", "user-1")

	timer.Record(Outcome{ModelUsed: "Smoothing-Trend", Success: true, ConfidenceScore: 0.8})
	timer.Record(Outcome{ModelUsed: "exception"})

	history := m.Export()
	require.Len(t, history, 1)
	assert.Equal(t, "Smoothing-Trend", history[0].ModelUsed)
	assert.Equal(t, "user-1", history[0].UserID)
	assert.True(t, history[0].Success)
	assert.True(t, history[0].Timestamp.Equal(fixedNow))
}

func TestRecord_Concurrent(t *testing.T) {
	m := newFixedMonitor(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(metricAt(fixedNow, "Smoothing-Trend", i%2 == 0))
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Export(), 100)
	stats := m.CompareModels()["Smoothing-Trend"]
	assert.Equal(t, 100, stats.TotalRuns)
	assert.Equal(t, 50, stats.SuccessfulRuns)
}
