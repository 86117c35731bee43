// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/skucast/forecasting-service/internal/api/handlers"
	"github.com/skucast/forecasting-service/internal/api/middleware"
	"github.com/skucast/forecasting-service/internal/cache"
	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/forecast"
	"github.com/skucast/forecasting-service/internal/monitor"
	"github.com/skucast/forecasting-service/internal/storage"
)

type Services struct {
	Processor      *forecast.Processor
	Monitor        *monitor.PerformanceMonitor
	Cache          cache.ForecastCache
	Snapshots      storage.ObjectStorage
	SnapshotPrefix string
	Forecast       config.ForecastConfig
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if services != nil && services.Processor != nil {
		forecastHandler := handlers.NewForecastHandler(services.Processor, services.Cache, services.Forecast.MaxHorizonDays)
		router.POST("/forecast", forecastHandler.Forecast)
		router.POST("/forecast/batch", forecastHandler.ForecastBatch)
	}

	if services != nil && services.Monitor != nil {
		metricsHandler := handlers.NewMetricsHandler(services.Monitor, services.Cache,
			services.Snapshots, services.SnapshotPrefix, services.Forecast)
		metricsGroup := router.Group("/metrics")
		{
			metricsGroup.GET("/performance", metricsHandler.Performance)
			metricsGroup.GET("/models", metricsHandler.Models)
			metricsGroup.GET("/export", metricsHandler.Export)
			metricsGroup.POST("/snapshot", metricsHandler.Snapshot)
		}
		router.DELETE("/metrics", metricsHandler.Clear)
		router.GET("/config", metricsHandler.Config)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
