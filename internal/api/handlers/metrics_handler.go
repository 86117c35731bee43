package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/skucast/forecasting-service/internal/cache"
	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/domain"
	"github.com/skucast/forecasting-service/internal/monitor"
	"github.com/skucast/forecasting-service/internal/storage"
)

// MetricsHandler exposes the performance monitor's reporting surface.
type MetricsHandler struct {
	monitor        *monitor.PerformanceMonitor
	cache          cache.ForecastCache
	snapshots      storage.ObjectStorage
	snapshotPrefix string
	forecastCfg    config.ForecastConfig
}

func NewMetricsHandler(mon *monitor.PerformanceMonitor, cacheImpl cache.ForecastCache,
	snapshots storage.ObjectStorage, snapshotPrefix string, forecastCfg config.ForecastConfig) *MetricsHandler {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	if forecastCfg.MaxHorizonDays <= 0 {
		forecastCfg.MaxHorizonDays = 30
	}
	if forecastCfg.DefaultHorizonDays <= 0 {
		forecastCfg.DefaultHorizonDays = 7
	}
	if forecastCfg.DefaultLeadTimeDays <= 0 {
		forecastCfg.DefaultLeadTimeDays = 7
	}
	return &MetricsHandler{
		monitor:        mon,
		cache:          cacheImpl,
		snapshots:      snapshots,
		snapshotPrefix: snapshotPrefix,
		forecastCfg:    forecastCfg,
	}
}

// Performance handles GET /metrics/performance?hours=N.
func (h *MetricsHandler) Performance(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours < 1 || hours > 168 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be between 1 and 168"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      h.monitor.Summarize(hours),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Models handles GET /metrics/models.
func (h *MetricsHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      h.monitor.CompareModels(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Export handles GET /metrics/export.
func (h *MetricsHandler) Export(c *gin.Context) {
	snapshot := h.monitor.Export()
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"total_metrics": len(snapshot),
		"data":          snapshot,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

// Snapshot handles POST /metrics/snapshot: an on-demand upload of the
// full rolling history to object storage.
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot storage not configured"})
		return
	}

	snapshot := h.monitor.Export()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode metrics snapshot"})
		return
	}

	key := storage.SnapshotKey(h.snapshotPrefix, time.Now())
	if err := h.snapshots.UploadObject(c.Request.Context(), key, payload); err != nil {
		log.Error().Err(err).Str("key", key).Msg("metrics snapshot upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "snapshot upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"key":           key,
		"total_metrics": len(snapshot),
	})
}

// Clear handles DELETE /metrics. Cached forecasts are invalidated along
// with the ledger so stale scores cannot be served afterwards.
func (h *MetricsHandler) Clear(c *gin.Context) {
	h.monitor.Clear()
	if err := h.cache.InvalidateAll(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("forecast cache invalidation failed")
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "All metrics cleared"})
}

// Config handles GET /config. The forecast bounds reported here are
// the same loaded values the forecast handlers enforce.
func (h *MetricsHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"minimum_data_points":   domain.MinDataPoints,
		"minimum_days_span":     domain.MinDaysSpan,
		"max_forecast_days":     h.forecastCfg.MaxHorizonDays,
		"default_forecast_days": h.forecastCfg.DefaultHorizonDays,
		"default_lead_time":     h.forecastCfg.DefaultLeadTimeDays,
		"models":                []string{"Smoothing-Trend", "Seasonal-Naive"},
		"thresholds": gin.H{
			"slow_request_ms":          monitor.SlowRequestThresholdMs,
			"low_confidence_threshold": monitor.LowConfidenceThreshold,
			"low_quality_threshold":    monitor.LowQualityThreshold,
		},
	})
}
