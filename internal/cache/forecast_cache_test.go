package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/domain"
)

func TestBuildForecastKey(t *testing.T) {
	base := domain.ForecastRequest{
		SKU:          "SKU-001",
		CurrentStock: 50,
		LeadTimeDays: 7,
		ForecastDays: 7,
		SalesHistory: []domain.SalesDataPoint{{Date: "2026-03-01", QuantitySold: 5}},
	}

	key1, err := buildForecastKey(base)
	require.NoError(t, err)
	key2, err := buildForecastKey(base)
	require.NoError(t, err)
	assert.Equal(t, key1, key2, "identical requests hash to the same key")
	assert.True(t, strings.HasPrefix(key1, forecastKeyPrefix+":"))

	changedStock := base
	changedStock.CurrentStock = 51
	key3, err := buildForecastKey(changedStock)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3)

	changedHistory := base
	changedHistory.SalesHistory = []domain.SalesDataPoint{{Date: "2026-03-01", QuantitySold: 6}}
	key4, err := buildForecastKey(changedHistory)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key4)
}

func TestNewForecastCache_DisabledIsNoop(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	_, hit, err := c.Get(ctx, domain.ForecastRequest{SKU: "SKU-001"})
	require.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, c.Set(ctx, domain.ForecastRequest{SKU: "SKU-001"}, domain.ForecastResponse{Success: true}))
	assert.NoError(t, c.InvalidateAll(ctx))
}
