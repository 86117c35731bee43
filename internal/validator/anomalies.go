package validator

import (
	"fmt"
	"math"

	"github.com/skucast/forecasting-service/internal/domain"
)

const (
	anomalyWindow     = 7
	anomalyMinSamples = 3
	missingGapDays    = 3
	weakPatternBound  = 0.1
)

// DetectAnomalies scans a date-sorted series for sudden spikes and drops
// against a trailing window, reports gaps in the record dates, and flags
// a weak weekly pattern. The series is not modified.
func (v *SeriesValidator) DetectAnomalies(records []domain.SalesRecord) domain.AnomalyReport {
	report := domain.AnomalyReport{
		SuddenSpikes:   []domain.PointAnomaly{},
		SuddenDrops:    []domain.PointAnomaly{},
		MissingPeriods: []domain.MissingPeriod{},
	}

	quantities := quantitiesOf(records)

	// Spikes and drops versus the trailing window of up to 7 prior points.
	for i := range records {
		start := i - anomalyWindow
		if start < 0 {
			start = 0
		}
		window := quantities[start:i]
		if len(window) < anomalyMinSamples {
			continue
		}

		m := mean(window)
		s := sampleStd(window)
		if s <= 0 {
			continue
		}

		q := quantities[i]
		expected := fmt.Sprintf("%.1f - %.1f", m-s, m+s)
		switch {
		case q > m+3*s:
			report.SuddenSpikes = append(report.SuddenSpikes, domain.PointAnomaly{
				Date:          records[i].Date.Format(domain.DateFormat),
				Quantity:      records[i].Quantity,
				ExpectedRange: expected,
			})
		case q < math.Max(0, m-3*s) && m > s:
			report.SuddenDrops = append(report.SuddenDrops, domain.PointAnomaly{
				Date:          records[i].Date.Format(domain.DateFormat),
				Quantity:      records[i].Quantity,
				ExpectedRange: expected,
			})
		}
	}

	for i := 1; i < len(records); i++ {
		gap := daysBetween(records[i-1].Date, records[i].Date)
		if gap > missingGapDays {
			report.MissingPeriods = append(report.MissingPeriods, domain.MissingPeriod{
				StartDate: records[i-1].Date.Format(domain.DateFormat),
				EndDate:   records[i].Date.Format(domain.DateFormat),
				GapDays:   gap,
			})
		}
	}

	if len(quantities) >= 14 {
		if ac := autocorr(quantities, 7); !math.IsNaN(ac) && math.Abs(ac) < weakPatternBound {
			report.WeakWeeklyPattern = true
		}
	}

	return report
}
