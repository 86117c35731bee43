package monitor

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultHistorySize bounds the rolling outcome history.
	DefaultHistorySize = 1000

	processingTimeWindow = 100

	// SlowRequestThresholdMs flags requests slower than this.
	SlowRequestThresholdMs = 5000
	// LowConfidenceThreshold flags successful forecasts below this score.
	LowConfidenceThreshold = 0.3
	// LowQualityThreshold flags forecasts built on poor input data.
	LowQualityThreshold = 0.5
)

type modelSample struct {
	confidence     float64
	quality        float64
	processingTime float64
	success        bool
}

// PerformanceMonitor is the process-wide ledger of request outcomes. It
// is the only shared mutable state in the system; one mutex guards every
// read-modify-write sequence so no caller observes a partial update.
type PerformanceMonitor struct {
	mu sync.Mutex

	capacity         int
	history          []ForecastMetrics
	modelPerformance map[string][]modelSample

	// Lifetime diagnostic state, kept separate from the summary window:
	// errorCounts tallies failures across the whole process and
	// processingTimes holds the last 100 durations regardless of age.
	// Record fills both and Clear resets them; Summarize derives its
	// aggregates from history instead.
	errorCounts     map[string]int
	processingTimes []float64

	now func() time.Time
}

// NewPerformanceMonitor creates a monitor with a fixed rolling-history
// capacity; non-positive capacities fall back to the default.
func NewPerformanceMonitor(capacity int) *PerformanceMonitor {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &PerformanceMonitor{
		capacity:         capacity,
		modelPerformance: make(map[string][]modelSample),
		errorCounts:      make(map[string]int),
		now:              time.Now,
	}
}

// Record appends one outcome, evicting the oldest entry past capacity,
// and emits advisory log events for slow, low-confidence or low-quality
// requests. Never an error: metrics recording must not fail a request.
func (m *PerformanceMonitor) Record(metrics ForecastMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, metrics)
	if len(m.history) > m.capacity {
		m.history = m.history[len(m.history)-m.capacity:]
	}

	m.modelPerformance[metrics.ModelUsed] = append(m.modelPerformance[metrics.ModelUsed], modelSample{
		confidence:     metrics.ConfidenceScore,
		quality:        metrics.DataQualityScore,
		processingTime: metrics.ProcessingTimeMs,
		success:        metrics.Success,
	})

	m.processingTimes = append(m.processingTimes, metrics.ProcessingTimeMs)
	if len(m.processingTimes) > processingTimeWindow {
		m.processingTimes = m.processingTimes[len(m.processingTimes)-processingTimeWindow:]
	}

	if !metrics.Success {
		msg := metrics.ErrorMessage
		if msg == "" {
			msg = "unknown_error"
		}
		m.errorCounts[msg]++
	}

	if metrics.ProcessingTimeMs > SlowRequestThresholdMs {
		log.Warn().Str("sku", metrics.SKU).Float64("processing_time_ms", metrics.ProcessingTimeMs).
			Msg("slow forecast request")
	}
	if metrics.Success && metrics.ConfidenceScore < LowConfidenceThreshold {
		log.Warn().Str("sku", metrics.SKU).Float64("confidence", metrics.ConfidenceScore).
			Msg("low confidence forecast")
	}
	if metrics.Success && metrics.DataQualityScore < LowQualityThreshold {
		log.Warn().Str("sku", metrics.SKU).Float64("data_quality", metrics.DataQualityScore).
			Msg("low data quality")
	}
}

// Summarize aggregates the outcomes recorded during the last windowHours.
// An empty window yields a zero-count summary.
func (m *PerformanceMonitor) Summarize(windowHours int) Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-time.Duration(windowHours) * time.Hour)
	summary := Summary{
		TimePeriodHours: windowHours,
		ModelUsage:      make(map[string]int),
		RecentErrors:    make(map[string]int),
	}

	var (
		processingTotal float64
		processingMin   float64
		processingMax   float64
		confidenceTotal float64
		qualityTotal    float64
		successfulSeen  int
	)
	for _, metric := range m.history {
		if metric.Timestamp.Before(cutoff) {
			continue
		}
		summary.TotalRequests++

		t := metric.ProcessingTimeMs
		processingTotal += t
		if summary.TotalRequests == 1 || t < processingMin {
			processingMin = t
		}
		if t > processingMax {
			processingMax = t
		}
		if t > SlowRequestThresholdMs {
			summary.Performance.SlowRequests++
		}

		if metric.Success {
			summary.SuccessfulRequests++
			successfulSeen++
			confidenceTotal += metric.ConfidenceScore
			qualityTotal += metric.DataQualityScore
			summary.ModelUsage[metric.ModelUsed]++
			if metric.ConfidenceScore < LowConfidenceThreshold {
				summary.ForecastQuality.LowConfidenceForecasts++
			}
			if metric.DataQualityScore < LowQualityThreshold {
				summary.ForecastQuality.LowQualityData++
			}
		} else if metric.ErrorMessage != "" {
			summary.RecentErrors[metric.ErrorMessage]++
		}
	}

	summary.FailedRequests = summary.TotalRequests - summary.SuccessfulRequests
	if summary.TotalRequests > 0 {
		summary.SuccessRate = float64(summary.SuccessfulRequests) / float64(summary.TotalRequests)
		summary.Performance.AvgProcessingTimeMs = roundTo(processingTotal/float64(summary.TotalRequests), 2)
		summary.Performance.MinProcessingTimeMs = roundTo(processingMin, 2)
		summary.Performance.MaxProcessingTimeMs = roundTo(processingMax, 2)
	}
	if successfulSeen > 0 {
		summary.ForecastQuality.AvgConfidenceScore = roundTo(confidenceTotal/float64(successfulSeen), 3)
		summary.ForecastQuality.AvgDataQualityScore = roundTo(qualityTotal/float64(successfulSeen), 3)
	}

	return summary
}

// CompareModels aggregates per-model statistics for every model with at
// least one successful run.
func (m *PerformanceMonitor) CompareModels() map[string]ModelStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	comparison := make(map[string]ModelStats)
	for name, samples := range m.modelPerformance {
		var (
			confidences []float64
			qualities   []float64
			timeTotal   float64
		)
		for _, s := range samples {
			if !s.success {
				continue
			}
			confidences = append(confidences, s.confidence)
			qualities = append(qualities, s.quality)
			timeTotal += s.processingTime
		}
		if len(confidences) == 0 {
			continue
		}

		n := float64(len(confidences))
		comparison[name] = ModelStats{
			TotalRuns:           len(samples),
			SuccessfulRuns:      len(confidences),
			SuccessRate:         n / float64(len(samples)),
			AvgConfidence:       sum(confidences) / n,
			AvgQuality:          sum(qualities) / n,
			AvgProcessingTimeMs: timeTotal / n,
			ConfidenceStd:       stddev(confidences),
			QualityStd:          stddev(qualities),
		}
	}
	return comparison
}

// Export returns a snapshot copy of the full rolling history.
func (m *PerformanceMonitor) Export() []ForecastMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]ForecastMetrics, len(m.history))
	copy(snapshot, m.history)
	return snapshot
}

// Clear resets every internal collection.
func (m *PerformanceMonitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = nil
	m.modelPerformance = make(map[string][]modelSample)
	m.errorCounts = make(map[string]int)
	m.processingTimes = nil
	log.Info().Msg("all metrics cleared")
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// stddev is the sample standard deviation, 0 below two samples.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := sum(values) / float64(len(values))
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
