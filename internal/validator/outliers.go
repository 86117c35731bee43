package validator

import "math"

// Outlier detection over raw quantity values. Three independent
// estimators; each returns the number of points it flags.

const (
	densityEps        = 0.5
	densityMinSamples = 3
	densityMinPoints  = 10
)

// iqrOutlierCount flags points outside [Q1-1.5*IQR, Q3+1.5*IQR].
func iqrOutlierCount(values []float64) int {
	q1 := percentile(values, 25)
	q3 := percentile(values, 75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// zScoreOutlierCount flags points with |z| > 3 against the population
// standard deviation.
func zScoreOutlierCount(values []float64) int {
	std := popStd(values)
	if std == 0 {
		return 0
	}
	m := mean(values)

	count := 0
	for _, v := range values {
		if math.Abs((v-m)/std) > 3 {
			count++
		}
	}
	return count
}

// densityNoiseCount labels noise points on the standardized 1-D values:
// a point is noise when it is neither a core point (at least
// densityMinSamples neighbours within densityEps, itself included) nor
// within densityEps of any core point. Contributes 0 below
// densityMinPoints observations.
func densityNoiseCount(values []float64) int {
	if len(values) < densityMinPoints {
		return 0
	}
	std := popStd(values)
	if std == 0 {
		return 0
	}
	m := mean(values)
	scaled := make([]float64, len(values))
	for i, v := range values {
		scaled[i] = (v - m) / std
	}

	core := make([]bool, len(scaled))
	for i := range scaled {
		neighbours := 0
		for j := range scaled {
			if math.Abs(scaled[i]-scaled[j]) <= densityEps {
				neighbours++
			}
		}
		core[i] = neighbours >= densityMinSamples
	}

	noise := 0
	for i := range scaled {
		if core[i] {
			continue
		}
		reachable := false
		for j := range scaled {
			if core[j] && math.Abs(scaled[i]-scaled[j]) <= densityEps {
				reachable = true
				break
			}
		}
		if !reachable {
			noise++
		}
	}
	return noise
}

// outlierImpact combines the three estimators into a [0,1] penalty
// weight: the mean flagged fraction, scaled by two and capped.
func outlierImpact(values []float64) float64 {
	if len(values) < 4 {
		return 0
	}
	n := float64(len(values))
	combined := (float64(iqrOutlierCount(values)) +
		float64(zScoreOutlierCount(values)) +
		float64(densityNoiseCount(values))) / 3 / n
	return math.Min(1, combined*2)
}

// hasSignificantOutliers is true when any single estimator flags more
// than 10% of the points.
func hasSignificantOutliers(values []float64) bool {
	if len(values) < 4 {
		return false
	}
	threshold := float64(len(values)) * 0.1
	return float64(iqrOutlierCount(values)) > threshold ||
		float64(zScoreOutlierCount(values)) > threshold ||
		float64(densityNoiseCount(values)) > threshold
}
