package forecast

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/skucast/forecasting-service/internal/domain"
)

// Forecaster is the contract every fitter satisfies: it never returns an
// error. An internal failure degrades to a result with zero confidence
// and a descriptive model name, so callers only ever branch on the score.
type Forecaster interface {
	Name() string
	FitAndForecast(series []domain.SalesRecord, horizonDays int) domain.ForecastResult
}

const (
	smoothingAlpha     = 0.3
	seasonalityMinDays = 14
	weekdayCVThreshold = 0.3
	intervalZ          = 1.28
)

// SmoothingForecaster projects demand with exponential smoothing plus a
// linear recent-trend component.
type SmoothingForecaster struct{}

func NewSmoothingForecaster() *SmoothingForecaster { return &SmoothingForecaster{} }

func (f *SmoothingForecaster) Name() string { return "Smoothing-Trend" }

func (f *SmoothingForecaster) FitAndForecast(series []domain.SalesRecord, horizonDays int) (res domain.ForecastResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("cause", r).Str("model", f.Name()).Msg("fitter panicked, degrading to zero confidence")
			res = failureResult(f.Name(), horizonDays)
		}
	}()

	if horizonDays <= 0 || len(series) == 0 {
		return failureResult(f.Name(), horizonDays)
	}

	daily, start := dailySeries(series)

	smoothed := make([]float64, len(daily))
	smoothed[0] = daily[0]
	for i := 1; i < len(daily); i++ {
		smoothed[i] = smoothingAlpha*daily[i] + (1-smoothingAlpha)*smoothed[i-1]
	}
	last := smoothed[len(smoothed)-1]

	predictions := make([]float64, horizonDays)
	if len(daily) >= 7 {
		recentTrend := (tailMean(daily, 7) - headMean(daily, 7)) / float64(len(daily))
		for i := range predictions {
			predictions[i] = math.Max(0, last+recentTrend*float64(i+1))
		}
	} else {
		flat := math.Max(0, last)
		for i := range predictions {
			predictions[i] = flat
		}
	}

	// Residual spread of the smoothed fit gives the interval width.
	residuals := make([]float64, len(daily))
	for i := range daily {
		residuals[i] = daily[i] - smoothed[i]
	}
	spread := intervalZ * populationStd(residuals)
	intervals := make([]domain.Interval, horizonDays)
	for i, p := range predictions {
		intervals[i] = domain.Interval{Lower: math.Max(0, p - spread), Upper: p + spread}
	}

	return domain.ForecastResult{
		Predictions:         predictions,
		ConfidenceIntervals: intervals,
		ModelName:           f.Name(),
		Trend:               trendOf(daily),
		SeasonalityDetected: weekdaySeasonality(daily, start),
		ConfidenceScore:     backtestConfidence(daily, predictions),
	}
}

// SeasonalNaiveForecaster projects each future day from the mean of its
// weekday. Below two weeks of daily data it degrades to a flat
// moving-average forecast.
type SeasonalNaiveForecaster struct{}

func NewSeasonalNaiveForecaster() *SeasonalNaiveForecaster { return &SeasonalNaiveForecaster{} }

func (f *SeasonalNaiveForecaster) Name() string { return "Seasonal-Naive" }

func (f *SeasonalNaiveForecaster) FitAndForecast(series []domain.SalesRecord, horizonDays int) (res domain.ForecastResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("cause", r).Str("model", f.Name()).Msg("fitter panicked, degrading to zero confidence")
			res = failureResult(f.Name(), horizonDays)
		}
	}()

	if horizonDays <= 0 || len(series) == 0 {
		return failureResult(f.Name(), horizonDays)
	}

	daily, start := dailySeries(series)
	if len(daily) < seasonalityMinDays {
		return fallbackResult(series, horizonDays)
	}

	profile := weekdayMeans(daily, start)
	lastDate := start.AddDate(0, 0, len(daily)-1)
	predictions := make([]float64, horizonDays)
	for i := range predictions {
		wd := int(lastDate.AddDate(0, 0, i+1).Weekday())
		predictions[i] = math.Max(0, profile[wd])
	}

	return domain.ForecastResult{
		Predictions:         predictions,
		ModelName:           f.Name(),
		Trend:               trendOf(daily),
		SeasonalityDetected: weekdaySeasonality(daily, start),
		ConfidenceScore:     backtestConfidence(daily, predictions),
	}
}

// failureResult is the zero-confidence signal required by the Forecaster
// contract.
func failureResult(modelName string, horizonDays int) domain.ForecastResult {
	if horizonDays < 0 {
		horizonDays = 0
	}
	return domain.ForecastResult{
		Predictions:     make([]float64, horizonDays),
		ModelName:       modelName + "-Failed",
		Trend:           domain.TrendStable,
		ConfidenceScore: 0,
	}
}

// fallbackResult is a flat recent-average forecast at reduced confidence,
// used when a fitter lacks the data its method needs.
func fallbackResult(series []domain.SalesRecord, horizonDays int) domain.ForecastResult {
	window := series
	if len(window) > 7 {
		window = window[len(window)-7:]
	}
	var sum float64
	for _, r := range window {
		sum += float64(r.Quantity)
	}
	avg := 0.0
	if len(window) > 0 {
		avg = math.Max(0, sum/float64(len(window)))
	}

	predictions := make([]float64, horizonDays)
	for i := range predictions {
		predictions[i] = avg
	}
	return domain.ForecastResult{
		Predictions:     predictions,
		ModelName:       "Moving-Average-Fallback",
		Trend:           domain.TrendStable,
		ConfidenceScore: 0.3,
	}
}

// dailySeries expands a date-sorted series onto a contiguous daily grid,
// filling absent days with zero. Duplicate dates are summed.
func dailySeries(series []domain.SalesRecord) ([]float64, time.Time) {
	start := series[0].Date
	end := series[len(series)-1].Date
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	daily := make([]float64, days)
	for _, r := range series {
		idx := int(r.Date.Sub(start).Hours() / 24)
		if idx >= 0 && idx < days {
			daily[idx] += float64(r.Quantity)
		}
	}
	return daily, start
}

// trendOf compares the first and last week's average demand.
func trendOf(daily []float64) domain.Trend {
	if len(daily) < 7 {
		return domain.TrendStable
	}
	first := headMean(daily, 7)
	last := tailMean(daily, 7)
	switch {
	case last > first*1.1:
		return domain.TrendIncreasing
	case last < first*0.9:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// weekdaySeasonality reports a weekly pattern when the per-weekday means
// vary enough (coefficient of variation above the threshold). Requires
// at least two observations per weekday.
func weekdaySeasonality(daily []float64, start time.Time) bool {
	if len(daily) < seasonalityMinDays {
		return false
	}

	var sums, counts [7]float64
	for i, v := range daily {
		wd := int(start.AddDate(0, 0, i).Weekday())
		sums[wd] += v
		counts[wd]++
	}

	pattern := make([]float64, 0, 7)
	for wd := 0; wd < 7; wd++ {
		if counts[wd] > 1 {
			pattern = append(pattern, sums[wd]/counts[wd])
		}
	}
	if len(pattern) < 7 {
		return false
	}

	m := meanOf(pattern)
	if m <= 0 {
		return false
	}
	return populationStd(pattern)/m > weekdayCVThreshold
}

func weekdayMeans(daily []float64, start time.Time) [7]float64 {
	var sums, counts [7]float64
	for i, v := range daily {
		wd := int(start.AddDate(0, 0, i).Weekday())
		sums[wd] += v
		counts[wd]++
	}

	overall := meanOf(daily)
	var means [7]float64
	for wd := 0; wd < 7; wd++ {
		if counts[wd] > 0 {
			means[wd] = sums[wd] / counts[wd]
		} else {
			means[wd] = overall
		}
	}
	return means
}

// backtestConfidence scores the forecast against the trailing week of
// actuals. 0.5 when no backtest is possible.
func backtestConfidence(daily, predictions []float64) float64 {
	if len(daily) < 7 || len(predictions) < 7 {
		return 0.5
	}

	actual := daily[len(daily)-7:]
	window := predictions[len(predictions)-7:]
	var absErr float64
	for i := range actual {
		absErr += math.Abs(actual[i] - window[i])
	}
	mae := absErr / float64(len(actual))

	meanActual := meanOf(actual)
	if meanActual <= 0 {
		return 0.5
	}
	accuracy := 1 - mae/meanActual
	return math.Max(0.1, math.Min(0.9, accuracy))
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := meanOf(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

func headMean(values []float64, n int) float64 {
	if len(values) < n {
		n = len(values)
	}
	return meanOf(values[:n])
}

func tailMean(values []float64, n int) float64 {
	if len(values) < n {
		n = len(values)
	}
	return meanOf(values[len(values)-n:])
}
