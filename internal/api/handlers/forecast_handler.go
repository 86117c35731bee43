package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/skucast/forecasting-service/internal/cache"
	"github.com/skucast/forecasting-service/internal/domain"
	"github.com/skucast/forecasting-service/internal/forecast"
)

// ForecastHandler exposes the forecasting boundary over HTTP.
type ForecastHandler struct {
	processor      *forecast.Processor
	cache          cache.ForecastCache
	maxHorizonDays int
}

func NewForecastHandler(processor *forecast.Processor, cacheImpl cache.ForecastCache, maxHorizonDays int) *ForecastHandler {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	if maxHorizonDays <= 0 {
		maxHorizonDays = 30
	}
	return &ForecastHandler{processor: processor, cache: cacheImpl, maxHorizonDays: maxHorizonDays}
}

// Forecast handles POST /forecast.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var req domain.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := h.checkBounds(req); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if resp, ok, err := h.cache.Get(c.Request.Context(), req); err == nil && ok {
		c.JSON(http.StatusOK, resp)
		return
	} else if err != nil {
		log.Warn().Err(err).Str("sku", req.SKU).Msg("forecast cache get failed")
	}

	resp := h.processor.Forecast(c.Request.Context(), req)

	if err := h.cache.Set(c.Request.Context(), req, resp); err != nil {
		log.Warn().Err(err).Str("sku", req.SKU).Msg("forecast cache set failed")
	}

	c.JSON(http.StatusOK, resp)
}

// ForecastBatch handles POST /forecast/batch.
func (h *ForecastHandler) ForecastBatch(c *gin.Context) {
	var req domain.BatchForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, item := range req.Items {
		if msg, ok := h.checkBounds(item); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg, "sku": item.SKU})
			return
		}
	}

	c.JSON(http.StatusOK, h.processor.ForecastBatch(c.Request.Context(), req))
}

func (h *ForecastHandler) checkBounds(req domain.ForecastRequest) (string, bool) {
	if req.CurrentStock < 0 {
		return "current_stock must not be negative", false
	}
	if req.LeadTimeDays < 0 {
		return "lead_time_days must not be negative", false
	}
	if req.ForecastDays < 0 || req.ForecastDays > h.maxHorizonDays {
		return "forecast_days out of range", false
	}
	return "", true
}
