package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/domain"
	"github.com/skucast/forecasting-service/internal/forecast"
	"github.com/skucast/forecasting-service/internal/monitor"
	"github.com/skucast/forecasting-service/internal/validator"
)

type fakeObjectStore struct {
	keys     []string
	payloads [][]byte
}

func (f *fakeObjectStore) UploadObject(_ context.Context, key string, data []byte) error {
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, data)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *monitor.PerformanceMonitor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mon := monitor.NewPerformanceMonitor(0)
	processor := forecast.NewProcessor(validator.NewSeriesValidator(),
		forecast.NewSmoothingForecaster(), forecast.NewSeasonalNaiveForecaster(), mon,
		config.ForecastConfig{BatchWorkers: 2})

	return NewRouter(&Services{
		Processor: processor,
		Monitor:   mon,
		Forecast:  config.ForecastConfig{MaxHorizonDays: 30},
	}, nil), mon
}

func salesHistory(value, days int) []domain.SalesDataPoint {
	points := make([]domain.SalesDataPoint, days)
	for i := range points {
		date := time.Now().UTC().AddDate(0, 0, i-days)
		points[i] = domain.SalesDataPoint{Date: date.Format(domain.DateFormat), QuantitySold: value}
	}
	return points
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := getPath(router, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestForecastEndpoint(t *testing.T) {
	router, mon := newTestRouter(t)

	w := postJSON(t, router, "/forecast", domain.ForecastRequest{
		SKU:          "SKU-001",
		CurrentStock: 200,
		LeadTimeDays: 7,
		ForecastDays: 7,
		SalesHistory: salesHistory(10, 21),
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp domain.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Forecast)
	assert.Equal(t, "SKU-001", resp.Forecast.SKU)
	assert.Equal(t, 70, resp.Forecast.Forecast7Day)
	assert.Len(t, mon.Export(), 1)
}

func TestForecastEndpoint_InsufficientData(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(t, router, "/forecast", domain.ForecastRequest{
		SKU:          "SKU-002",
		SalesHistory: salesHistory(10, 5),
	})

	require.Equal(t, http.StatusOK, w.Code, "data problems are a domain outcome, not a transport error")
	var resp domain.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.True(t, resp.InsufficientData)
	assert.Equal(t, domain.MinDataPoints, resp.MinimumDataPoints)
}

func TestForecastEndpoint_RejectsOutOfBounds(t *testing.T) {
	router, mon := newTestRouter(t)

	cases := []struct {
		name string
		req  domain.ForecastRequest
	}{
		{"negative stock", domain.ForecastRequest{SKU: "S", CurrentStock: -1, SalesHistory: salesHistory(10, 21)}},
		{"negative lead time", domain.ForecastRequest{SKU: "S", LeadTimeDays: -1, SalesHistory: salesHistory(10, 21)}},
		{"horizon above maximum", domain.ForecastRequest{SKU: "S", ForecastDays: 31, SalesHistory: salesHistory(10, 21)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, router, "/forecast", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, mon.Export(), "rejected requests never reach the pipeline")
}

func TestForecastEndpoint_RejectsMalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/forecast", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchForecastEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(t, router, "/forecast/batch", domain.BatchForecastRequest{
		UserID: "team-1",
		Items: []domain.ForecastRequest{
			{SKU: "GOOD", CurrentStock: 50, SalesHistory: salesHistory(10, 21)},
			{SKU: "SHORT", SalesHistory: salesHistory(10, 5)},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp domain.BatchForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Forecasts, 1)
	assert.Equal(t, "GOOD", resp.Forecasts[0].SKU)
	assert.Equal(t, []string{"SHORT"}, resp.InsufficientDataItems)
}

func TestMetricsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	// Seed the ledger with one processed request.
	postJSON(t, router, "/forecast", domain.ForecastRequest{
		SKU:          "SKU-001",
		SalesHistory: salesHistory(10, 21),
	})

	t.Run("performance", func(t *testing.T) {
		w := getPath(router, "/metrics/performance")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Status string          `json:"status"`
			Data   monitor.Summary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "success", body.Status)
		assert.Equal(t, 1, body.Data.TotalRequests)
	})

	t.Run("performance rejects bad window", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, getPath(router, "/metrics/performance?hours=0").Code)
		assert.Equal(t, http.StatusBadRequest, getPath(router, "/metrics/performance?hours=200").Code)
		assert.Equal(t, http.StatusBadRequest, getPath(router, "/metrics/performance?hours=abc").Code)
	})

	t.Run("models", func(t *testing.T) {
		w := getPath(router, "/metrics/models")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data map[string]monitor.ModelStats `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Data)
	})

	t.Run("export", func(t *testing.T) {
		w := getPath(router, "/metrics/export")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			TotalMetrics int                       `json:"total_metrics"`
			Data         []monitor.ForecastMetrics `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.TotalMetrics)
		require.Len(t, body.Data, 1)
		assert.Equal(t, "SKU-001", body.Data[0].SKU)
	})

	t.Run("clear", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			TotalMetrics int `json:"total_metrics"`
		}
		after := getPath(router, "/metrics/export")
		require.NoError(t, json.Unmarshal(after.Body.Bytes(), &body))
		assert.Zero(t, body.TotalMetrics)
	})
}

func TestSnapshotEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("unconfigured storage", func(t *testing.T) {
		router, _ := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/metrics/snapshot", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("uploads the rolling history", func(t *testing.T) {
		store := &fakeObjectStore{}
		mon := monitor.NewPerformanceMonitor(0)
		processor := forecast.NewProcessor(validator.NewSeriesValidator(),
			forecast.NewSmoothingForecaster(), forecast.NewSeasonalNaiveForecaster(), mon,
			config.ForecastConfig{BatchWorkers: 2})
		router := NewRouter(&Services{
			Processor:      processor,
			Monitor:        mon,
			Snapshots:      store,
			SnapshotPrefix: "metrics/snapshots",
			Forecast:       config.ForecastConfig{MaxHorizonDays: 30},
		}, nil)

		postJSON(t, router, "/forecast", domain.ForecastRequest{
			SKU:          "SKU-001",
			SalesHistory: salesHistory(10, 21),
		})

		req := httptest.NewRequest(http.MethodPost, "/metrics/snapshot", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, store.keys, 1)
		assert.True(t, strings.HasPrefix(store.keys[0], "metrics/snapshots/"))

		var exported []monitor.ForecastMetrics
		require.NoError(t, json.Unmarshal(store.payloads[0], &exported))
		require.Len(t, exported, 1)
		assert.Equal(t, "SKU-001", exported[0].SKU)
	})
}

func TestConfigEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := getPath(router, "/config")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, domain.MinDataPoints, body["minimum_data_points"])
	assert.EqualValues(t, 30, body["max_forecast_days"])
	assert.Contains(t, body, "thresholds")
}

func TestConfigEndpoint_ReportsConfiguredBounds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mon := monitor.NewPerformanceMonitor(0)
	forecastCfg := config.ForecastConfig{
		DefaultHorizonDays:  10,
		MaxHorizonDays:      60,
		DefaultLeadTimeDays: 5,
		BatchWorkers:        2,
	}
	processor := forecast.NewProcessor(validator.NewSeriesValidator(),
		forecast.NewSmoothingForecaster(), forecast.NewSeasonalNaiveForecaster(), mon, forecastCfg)
	router := NewRouter(&Services{
		Processor: processor,
		Monitor:   mon,
		Forecast:  forecastCfg,
	}, nil)

	// A horizon above the stock 30-day cap but within the configured
	// 60-day cap is accepted.
	w := postJSON(t, router, "/forecast", domain.ForecastRequest{
		SKU:          "SKU-001",
		ForecastDays: 45,
		SalesHistory: salesHistory(10, 21),
	})
	require.Equal(t, http.StatusOK, w.Code)

	// /config reports the same bounds the handlers enforce.
	w = getPath(router, "/config")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 60, body["max_forecast_days"])
	assert.EqualValues(t, 10, body["default_forecast_days"])
	assert.EqualValues(t, 5, body["default_lead_time"])

	history := mon.Export()
	require.Len(t, history, 1)
	assert.Equal(t, 45, history[0].ForecastDays)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	cases := []struct {
		name      string
		origins   []string
		want      []string
		wantAllow bool
	}{
		{"empty", nil, nil, false},
		{"single", []string{"https://app.example.com"}, []string{"https://app.example.com"}, false},
		{"comma separated with spaces", []string{"https://a.example.com, https://b.example.com"},
			[]string{"https://a.example.com", "https://b.example.com"}, false},
		{"wildcard", []string{"*"}, nil, true},
		{"wildcard among explicit", []string{"https://a.example.com", "*"},
			[]string{"https://a.example.com"}, true},
		{"blank entries dropped", []string{" ", ""}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, allowAll := normalizeAllowedOrigins(tc.origins)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantAllow, allowAll)
		})
	}
}
