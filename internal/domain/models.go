// internal/domain/models.go
package domain

import "time"

// DateFormat is the wire format for sale dates.
const DateFormat = "2006-01-02"

// MinDataPoints is the minimum number of sales observations required
// before a series is admissible for forecasting.
const MinDataPoints = 14

// MinDaysSpan is the minimum calendar span the observations must cover.
const MinDaysSpan = 14

// SalesDataPoint is a single raw observation as received on the wire.
type SalesDataPoint struct {
	Date         string `json:"date" binding:"required"`
	QuantitySold int    `json:"quantity_sold" binding:"min=0"`
}

// SalesRecord is a parsed, validated observation. Immutable once ingested.
type SalesRecord struct {
	Date     time.Time
	Quantity int
}

// ForecastRequest is one item to forecast.
type ForecastRequest struct {
	UserID       string           `json:"user_id"`
	SKU          string           `json:"sku" binding:"required"`
	SalesHistory []SalesDataPoint `json:"sales_history"`
	CurrentStock int              `json:"current_stock" binding:"min=0"`
	LeadTimeDays int              `json:"lead_time_days"`
	ForecastDays int              `json:"forecast_days"`
}

// BatchForecastRequest forecasts multiple items in one call.
type BatchForecastRequest struct {
	UserID string            `json:"user_id"`
	Items  []ForecastRequest `json:"items" binding:"required"`
}

// ItemForecast is the terminal output of one successful request.
type ItemForecast struct {
	SKU                 string  `json:"sku"`
	CurrentStock        int     `json:"current_stock"`
	Forecast7Day        int     `json:"forecast_7_day"`
	RecommendedOrder    int     `json:"recommended_order"`
	ConfidenceScore     float64 `json:"confidence_score"`
	Trend               Trend   `json:"trend"`
	SeasonalityDetected bool    `json:"seasonality_detected"`
	LeadTimeFactored    int     `json:"lead_time_factored"`
	ModelUsed           string  `json:"model_used"`
	DataQualityScore    float64 `json:"data_quality_score"`
}

// StockoutRisk reports when the cumulative forecast demand overtakes
// the current stock level.
type StockoutRisk struct {
	AtRisk      bool `json:"stockout_risk"`
	StockoutDay *int `json:"stockout_day"`
	DaysOfStock int  `json:"days_of_stock"`
}

// ForecastResponse is the boundary result for a single item.
type ForecastResponse struct {
	Forecast            *ItemForecast `json:"forecast,omitempty"`
	StockoutRisk        *StockoutRisk `json:"stockout_risk,omitempty"`
	Success             bool          `json:"success"`
	ErrorMessage        string        `json:"error_message,omitempty"`
	InsufficientData    bool          `json:"insufficient_data"`
	DataQualityWarnings []string      `json:"data_quality_warnings"`
	MinimumDataPoints   int           `json:"minimum_data_points_required"`
}

// FailedItem identifies a batch item that could not be forecast.
type FailedItem struct {
	SKU   string `json:"sku"`
	Error string `json:"error"`
}

// BatchForecastResponse aggregates per-item outcomes. Partial results are
// always returned; one item failing never discards its siblings.
type BatchForecastResponse struct {
	Forecasts             []ItemForecast `json:"forecasts"`
	InsufficientDataItems []string       `json:"insufficient_data_items"`
	FailedItems           []FailedItem   `json:"failed_items"`
	DataQualityWarnings   []string       `json:"data_quality_warnings"`
}

// ValidationResult is produced once per validation call and never mutated.
type ValidationResult struct {
	IsValid          bool     `json:"is_valid"`
	InsufficientData bool     `json:"insufficient_data"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	Warnings         []string `json:"warnings"`
	QualityScore     float64  `json:"data_quality_score"`
}

// PointAnomaly is a single observation flagged as a spike or drop.
type PointAnomaly struct {
	Date          string `json:"date"`
	Quantity      int    `json:"quantity"`
	ExpectedRange string `json:"expected_range"`
}

// MissingPeriod is a gap between consecutive observations.
type MissingPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	GapDays   int    `json:"gap_days"`
}

// AnomalyReport collects anomalies detected in a sales series.
type AnomalyReport struct {
	SuddenSpikes      []PointAnomaly  `json:"sudden_spikes"`
	SuddenDrops       []PointAnomaly  `json:"sudden_drops"`
	MissingPeriods    []MissingPeriod `json:"missing_periods"`
	WeakWeeklyPattern bool            `json:"weak_weekly_pattern"`
}
