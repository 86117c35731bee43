package monitor

import "time"

// ForecastMetrics is one request outcome. Appended exactly once per
// request and immutable afterwards; owned by the PerformanceMonitor for
// its lifetime.
type ForecastMetrics struct {
	Timestamp        time.Time `json:"timestamp"`
	SKU              string    `json:"sku"`
	UserID           string    `json:"user_id"`
	ModelUsed        string    `json:"model_used"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	DataPoints       int       `json:"data_points"`
	ForecastDays     int       `json:"forecast_days"`
	ConfidenceScore  float64   `json:"confidence_score"`
	DataQualityScore float64   `json:"data_quality_score"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// Summary aggregates the recorded outcomes inside a time window.
type Summary struct {
	TimePeriodHours    int                `json:"time_period_hours"`
	TotalRequests      int                `json:"total_requests"`
	SuccessfulRequests int                `json:"successful_requests"`
	FailedRequests     int                `json:"failed_requests"`
	SuccessRate        float64            `json:"success_rate"`
	Performance        PerformanceSummary `json:"performance"`
	ForecastQuality    QualitySummary     `json:"forecast_quality"`
	ModelUsage         map[string]int     `json:"model_usage"`
	RecentErrors       map[string]int     `json:"recent_errors"`
}

type PerformanceSummary struct {
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
	MaxProcessingTimeMs float64 `json:"max_processing_time_ms"`
	MinProcessingTimeMs float64 `json:"min_processing_time_ms"`
	SlowRequests        int     `json:"slow_requests"`
}

type QualitySummary struct {
	AvgConfidenceScore     float64 `json:"avg_confidence_score"`
	AvgDataQualityScore    float64 `json:"avg_data_quality_score"`
	LowConfidenceForecasts int     `json:"low_confidence_forecasts"`
	LowQualityData         int     `json:"low_quality_data"`
}

// ModelStats compares outcomes across model names.
type ModelStats struct {
	TotalRuns           int     `json:"total_runs"`
	SuccessfulRuns      int     `json:"successful_runs"`
	SuccessRate         float64 `json:"success_rate"`
	AvgConfidence       float64 `json:"avg_confidence"`
	AvgQuality          float64 `json:"avg_quality"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
	ConfidenceStd       float64 `json:"confidence_std"`
	QualityStd          float64 `json:"quality_std"`
}
