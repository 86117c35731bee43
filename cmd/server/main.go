// cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skucast/forecasting-service/internal/api"
	"github.com/skucast/forecasting-service/internal/cache"
	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/forecast"
	"github.com/skucast/forecasting-service/internal/monitor"
	"github.com/skucast/forecasting-service/internal/storage"
	"github.com/skucast/forecasting-service/internal/validator"
	"github.com/skucast/forecasting-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.UseJSON()
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	// One monitor for the whole process, threaded through every request path.
	mon := monitor.NewPerformanceMonitor(cfg.Monitor.HistorySize)

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache unavailable, continuing without caching")
		forecastCache = cache.NewNoopForecastCache()
	}

	var snapshotStore storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("snapshot storage unavailable, metrics export on shutdown disabled")
		} else {
			snapshotStore = client
		}
	}

	processor := forecast.NewProcessor(
		validator.NewSeriesValidator(),
		forecast.NewSmoothingForecaster(),
		forecast.NewSeasonalNaiveForecaster(),
		mon,
		cfg.Forecast,
	)

	router := api.NewRouter(&api.Services{
		Processor:      processor,
		Monitor:        mon,
		Cache:          forecastCache,
		Snapshots:      snapshotStore,
		SnapshotPrefix: cfg.Storage.SnapshotPrefix,
		Forecast:       cfg.Forecast,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Best effort: the in-memory ledger is lost on exit, so push a final
	// snapshot before stopping. Failures are logged, never fatal.
	if snapshotStore != nil {
		exportSnapshot(ctx, snapshotStore, mon, cfg.Storage.SnapshotPrefix)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func exportSnapshot(ctx context.Context, store storage.ObjectStorage, mon *monitor.PerformanceMonitor, prefix string) {
	snapshot := mon.Export()
	if len(snapshot) == 0 {
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("metrics snapshot encode failed")
		return
	}

	key := storage.SnapshotKey(prefix, time.Now())
	if err := store.UploadObject(ctx, key, payload); err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("metrics snapshot upload failed")
		return
	}
	logger.Log.Info().Str("key", key).Int("records", len(snapshot)).Msg("metrics snapshot exported")
}
