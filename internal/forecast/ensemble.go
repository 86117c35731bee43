package forecast

import (
	"fmt"

	"github.com/skucast/forecasting-service/internal/domain"
)

// confidenceEdge is the margin one candidate must clear over the other
// before it wins outright. The comparison is strictly greater-than; an
// exactly 10% higher confidence does not win on its own.
const confidenceEdge = 1.1

// EnsembleSelector combines two independently produced forecasts into
// one. Selection is deterministic and pure: identical inputs always
// yield an identical result.
type EnsembleSelector struct{}

func NewEnsembleSelector() *EnsembleSelector { return &EnsembleSelector{} }

// Select picks a winner or builds an elementwise-average ensemble. A
// zero confidence score is a fitter's explicit failure signal and cedes
// to the other candidate unchanged.
func (s *EnsembleSelector) Select(a, b domain.ForecastResult) domain.ForecastResult {
	if a.Failed() {
		return b
	}
	if b.Failed() {
		return a
	}

	if b.ConfidenceScore > a.ConfidenceScore*confidenceEdge && b.SeasonalityDetected {
		return b
	}
	if a.ConfidenceScore > b.ConfidenceScore*confidenceEdge {
		return a
	}

	// Comparable confidence: average the two. Mismatched horizons are a
	// configuration defect upstream, not a runtime condition.
	if len(a.Predictions) != len(b.Predictions) {
		panic(fmt.Sprintf("ensemble candidates disagree on horizon: %s has %d predictions, %s has %d",
			a.ModelName, len(a.Predictions), b.ModelName, len(b.Predictions)))
	}

	predictions := make([]float64, len(a.Predictions))
	for i := range predictions {
		predictions[i] = (a.Predictions[i] + b.Predictions[i]) / 2
	}

	// Trend and seasonality follow the more confident candidate, ties to b.
	trendSource := a
	if b.ConfidenceScore >= a.ConfidenceScore {
		trendSource = b
	}

	return domain.ForecastResult{
		Predictions:         predictions,
		ModelName:           fmt.Sprintf("Ensemble-%s-%s", a.ModelName, b.ModelName),
		Trend:               trendSource.Trend,
		SeasonalityDetected: trendSource.SeasonalityDetected,
		ConfidenceScore:     (a.ConfidenceScore + b.ConfidenceScore) / 2,
	}
}
