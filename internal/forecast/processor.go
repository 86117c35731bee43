package forecast

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/domain"
	"github.com/skucast/forecasting-service/internal/monitor"
	"github.com/skucast/forecasting-service/internal/validator"
)

const (
	defaultBatchWorkers = 4
	fallbackHorizonDays = 7
	fallbackLeadTime    = 7
)

// Processor orchestrates one request end to end: validation, the two
// fitters, ensemble selection, inventory decisioning and metrics
// recording — in that order, on success and failure alike.
type Processor struct {
	validator       *validator.SeriesValidator
	primary         Forecaster
	secondary       Forecaster
	selector        *EnsembleSelector
	engine          *DecisionEngine
	monitor         *monitor.PerformanceMonitor
	defaultHorizon  int
	defaultLeadTime int
	workers         int
}

func NewProcessor(v *validator.SeriesValidator, primary, secondary Forecaster,
	mon *monitor.PerformanceMonitor, cfg config.ForecastConfig) *Processor {
	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	defaultHorizon := cfg.DefaultHorizonDays
	if defaultHorizon <= 0 {
		defaultHorizon = fallbackHorizonDays
	}
	defaultLeadTime := cfg.DefaultLeadTimeDays
	if defaultLeadTime <= 0 {
		defaultLeadTime = fallbackLeadTime
	}
	return &Processor{
		validator:       v,
		primary:         primary,
		secondary:       secondary,
		selector:        NewEnsembleSelector(),
		engine:          NewDecisionEngine(),
		monitor:         mon,
		defaultHorizon:  defaultHorizon,
		defaultLeadTime: defaultLeadTime,
		workers:         workers,
	}
}

// Forecast processes a single item. It never panics outward: any
// unexpected failure is converted into a failure response, and exactly
// one metrics outcome is recorded on every exit path.
func (p *Processor) Forecast(ctx context.Context, req domain.ForecastRequest) (resp domain.ForecastResponse) {
	horizon := req.ForecastDays
	if horizon <= 0 {
		horizon = p.defaultHorizon
	}
	leadTime := req.LeadTimeDays
	if leadTime <= 0 {
		leadTime = p.defaultLeadTime
	}

	timer := p.monitor.StartTimer(req.SKU, req.UserID)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprintf("Internal error: %v", r)
		log.Error().Str("sku", req.SKU).Str("cause", msg).Msg("forecast request failed unexpectedly")
		timer.Record(monitor.Outcome{
			ModelUsed:    "exception",
			DataPoints:   len(req.SalesHistory),
			ForecastDays: horizon,
			ErrorMessage: msg,
		})
		resp = domain.ForecastResponse{
			ErrorMessage:        msg,
			DataQualityWarnings: []string{},
			MinimumDataPoints:   domain.MinDataPoints,
		}
	}()

	validation, records := p.validator.Validate(req.SalesHistory)
	if !validation.IsValid {
		timer.Record(monitor.Outcome{
			ModelUsed:        "validation_failed",
			DataPoints:       len(req.SalesHistory),
			ForecastDays:     horizon,
			DataQualityScore: validation.QualityScore,
			ErrorMessage:     validation.ErrorMessage,
		})
		return domain.ForecastResponse{
			InsufficientData:    validation.InsufficientData,
			ErrorMessage:        validation.ErrorMessage,
			DataQualityWarnings: validation.Warnings,
			MinimumDataPoints:   domain.MinDataPoints,
		}
	}

	// Both fitters run concurrently; their outputs are combined only
	// after both complete.
	var candidateA, candidateB domain.ForecastResult
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		candidateA = p.primary.FitAndForecast(records, horizon)
		return nil
	})
	g.Go(func() error {
		candidateB = p.secondary.FitAndForecast(records, horizon)
		return nil
	})
	_ = g.Wait()

	best := p.selector.Select(candidateA, candidateB)
	if best.Failed() {
		msg := "Forecast processing failed: no model produced a usable result"
		timer.Record(monitor.Outcome{
			ModelUsed:        "forecast_failed",
			DataPoints:       len(req.SalesHistory),
			ForecastDays:     horizon,
			DataQualityScore: validation.QualityScore,
			ErrorMessage:     msg,
		})
		return domain.ForecastResponse{
			ErrorMessage:        msg,
			DataQualityWarnings: validation.Warnings,
			MinimumDataPoints:   domain.MinDataPoints,
		}
	}

	item := p.engine.BuildItemForecast(req.SKU, req.CurrentStock, best, leadTime, horizon, validation.QualityScore)
	risk := p.engine.StockoutRisk(req.CurrentStock, best.Predictions)

	timer.Record(monitor.Outcome{
		ModelUsed:        best.ModelName,
		DataPoints:       len(req.SalesHistory),
		ForecastDays:     horizon,
		ConfidenceScore:  best.ConfidenceScore,
		DataQualityScore: validation.QualityScore,
		Success:          true,
	})

	return domain.ForecastResponse{
		Forecast:            &item,
		StockoutRisk:        &risk,
		Success:             true,
		DataQualityWarnings: validation.Warnings,
		MinimumDataPoints:   domain.MinDataPoints,
	}
}

// ForecastBatch processes items independently on a bounded worker pool.
// One item's failure never aborts its siblings; partial results are
// always returned.
func (p *Processor) ForecastBatch(ctx context.Context, req domain.BatchForecastRequest) domain.BatchForecastResponse {
	responses := make([]domain.ForecastResponse, len(req.Items))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, item := range req.Items {
		if item.UserID == "" {
			item.UserID = req.UserID
		}
		i, item := i, item
		g.Go(func() error {
			r := p.Forecast(gctx, item)
			mu.Lock()
			responses[i] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := domain.BatchForecastResponse{
		Forecasts:             []domain.ItemForecast{},
		InsufficientDataItems: []string{},
		FailedItems:           []domain.FailedItem{},
		DataQualityWarnings:   []string{},
	}
	seenWarnings := make(map[string]struct{})
	for i, r := range responses {
		switch {
		case r.Success && r.Forecast != nil:
			out.Forecasts = append(out.Forecasts, *r.Forecast)
		case r.InsufficientData:
			out.InsufficientDataItems = append(out.InsufficientDataItems, req.Items[i].SKU)
		default:
			msg := r.ErrorMessage
			if msg == "" {
				msg = "Unknown error"
			}
			out.FailedItems = append(out.FailedItems, domain.FailedItem{SKU: req.Items[i].SKU, Error: msg})
		}

		for _, w := range r.DataQualityWarnings {
			if _, ok := seenWarnings[w]; ok {
				continue
			}
			seenWarnings[w] = struct{}{}
			out.DataQualityWarnings = append(out.DataQualityWarnings, w)
		}
	}

	return out
}
