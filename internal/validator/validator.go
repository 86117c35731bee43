package validator

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/skucast/forecasting-service/internal/domain"
)

// SeriesValidator checks a raw sales series for admissibility and scores
// how trustworthy it is for forecasting. It holds no shared state; every
// call operates on its arguments alone.
type SeriesValidator struct {
	now func() time.Time
}

func NewSeriesValidator() *SeriesValidator {
	return &SeriesValidator{now: time.Now}
}

// Validate runs the admissibility checks in order, short-circuiting on the
// first failure. On success it returns the parsed series sorted by date
// together with the quality score and any advisory warnings.
func (v *SeriesValidator) Validate(points []domain.SalesDataPoint) (domain.ValidationResult, []domain.SalesRecord) {
	if len(points) == 0 {
		return domain.ValidationResult{
			InsufficientData: true,
			ErrorMessage:     "No sales data provided",
			Warnings:         []string{},
		}, nil
	}

	if len(points) < domain.MinDataPoints {
		return domain.ValidationResult{
			InsufficientData: true,
			ErrorMessage: fmt.Sprintf("Insufficient data points. Need at least %d data points, got %d",
				domain.MinDataPoints, len(points)),
			Warnings: []string{},
		}, nil
	}

	records := make([]domain.SalesRecord, 0, len(points))
	for _, p := range points {
		date, err := time.Parse(domain.DateFormat, p.Date)
		if err != nil {
			return domain.ValidationResult{
				ErrorMessage: fmt.Sprintf("Invalid date format in sales data: %v", err),
				Warnings:     []string{},
			}, nil
		}
		records = append(records, domain.SalesRecord{Date: date, Quantity: p.QuantitySold})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	span := daysBetween(records[0].Date, records[len(records)-1].Date)
	if span < domain.MinDaysSpan {
		return domain.ValidationResult{
			InsufficientData: true,
			ErrorMessage: fmt.Sprintf("Data span too short. Need at least %d days of data, got %d days",
				domain.MinDaysSpan, span),
			Warnings: []string{},
		}, nil
	}

	warnings := []string{}
	score := v.qualityScore(records, &warnings)

	daysSinceLast := daysBetween(records[len(records)-1].Date, v.now())
	if daysSinceLast > 30 {
		warnings = append(warnings,
			fmt.Sprintf("Last sale was %d days ago. Forecast may be less accurate.", daysSinceLast))
	}

	quantities := quantitiesOf(records)
	if zeroRatio(quantities) > 0.5 {
		warnings = append(warnings,
			"More than 50% of data points have zero sales. This may affect forecast accuracy.")
	}

	if hasSignificantOutliers(quantities) {
		warnings = append(warnings,
			"Significant outliers detected in sales data. Consider reviewing for data entry errors.")
	}

	return domain.ValidationResult{
		IsValid:      true,
		Warnings:     warnings,
		QualityScore: score,
	}, records
}

// qualityScore starts at 1.0, applies the additive adjustments and clamps
// to [0,1]. Advisory warnings are appended along the way.
func (v *SeriesValidator) qualityScore(records []domain.SalesRecord, warnings *[]string) float64 {
	score := 1.0
	quantities := quantitiesOf(records)

	// Collection frequency
	gaps := dayGaps(records)
	if mean(gaps) > 2 {
		score -= 0.15
		*warnings = append(*warnings,
			"Irregular data frequency detected. Daily data recommended for best accuracy.")
	}
	if sampleStd(gaps) > 3 {
		score -= 0.1
		*warnings = append(*warnings, "Inconsistent data collection intervals detected.")
	}

	// Dispersion
	cv := coefficientOfVariation(quantities)
	if cv > 2 {
		score -= 0.15
		*warnings = append(*warnings,
			"High sales variability detected. Forecast confidence may be lower.")
	} else if cv > 1 {
		score -= 0.05
	}

	// Zero inflation
	zr := zeroRatio(quantities)
	if zr > 0.5 {
		score -= 0.25
		*warnings = append(*warnings,
			"More than 50% zero sales days. Consider product lifecycle stage.")
	} else if zr > 0.3 {
		score -= 0.15
	}

	score += trendConsistency(quantities) * 0.1

	if len(quantities) >= 14 {
		if ac := autocorr(quantities, 7); !math.IsNaN(ac) {
			score += math.Abs(ac) * 0.1
		}
	}

	score -= outlierImpact(quantities) * 0.2

	daysSinceLast := daysBetween(records[len(records)-1].Date, v.now())
	if daysSinceLast <= 7 {
		score += 0.05
	} else if daysSinceLast > 30 {
		score -= 0.1
		*warnings = append(*warnings,
			fmt.Sprintf("Data is %d days old. Recent data improves accuracy.", daysSinceLast))
	}

	return clamp01(score)
}

// trendConsistency measures how rarely the 3-point moving average changes
// direction. 1 means a single sustained direction, 0 means it flips on
// every step.
func trendConsistency(quantities []float64) float64 {
	if len(quantities) < 7 {
		return 0
	}

	ma3 := movingAverage(quantities, 3)
	signs := make([]float64, 0, len(ma3)-1)
	for i := 1; i < len(ma3); i++ {
		signs = append(signs, sign(ma3[i]-ma3[i-1]))
	}
	if len(signs) < 2 {
		return 0
	}

	changes := 0
	for i := 1; i < len(signs); i++ {
		if signs[i] != signs[i-1] {
			changes++
		}
	}
	return 1 - float64(changes)/float64(len(signs)-1)
}

func coefficientOfVariation(quantities []float64) float64 {
	m := mean(quantities)
	if m <= 0 {
		return 0
	}
	return popStd(quantities) / m
}

func zeroRatio(quantities []float64) float64 {
	if len(quantities) == 0 {
		return 0
	}
	zeros := 0
	for _, q := range quantities {
		if q == 0 {
			zeros++
		}
	}
	return float64(zeros) / float64(len(quantities))
}

func quantitiesOf(records []domain.SalesRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = float64(r.Quantity)
	}
	return out
}

// dayGaps returns the day distances between consecutive records.
func dayGaps(records []domain.SalesRecord) []float64 {
	if len(records) < 2 {
		return nil
	}
	gaps := make([]float64, len(records)-1)
	for i := 1; i < len(records); i++ {
		gaps[i-1] = float64(daysBetween(records[i-1].Date, records[i].Date))
	}
	return gaps
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
