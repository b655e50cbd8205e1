package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg := LoadFrom(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(32), cfg.Server.MaxUploadMB)
	assert.Equal(t, 300, cfg.Analysis.Defaults.DaysOpen)
	assert.Equal(t, 10, cfg.Analysis.Defaults.StockMinDays)
	assert.Equal(t, 20, cfg.Analysis.Defaults.StockMaxDays)
	assert.Equal(t, 15, cfg.Analysis.Defaults.CoverageDaysIdeal)
	assert.Zero(t, cfg.Analysis.Defaults.SafetyMargin)
	assert.Equal(t, int64(4), cfg.Analysis.MaxConcurrentRuns)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "none", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Analysis.Defaults.Validate())
}

func TestLoadFromOverrides(t *testing.T) {
	v := viper.New()
	v.Set("DAYS_OPEN", 360)
	v.Set("SAFETY_MARGIN", 0.2)
	v.Set("STORAGE_BACKEND", "S3")
	v.Set("CACHE_ENABLED", true)

	cfg := LoadFrom(v)

	assert.Equal(t, 360, cfg.Analysis.Defaults.DaysOpen)
	assert.Equal(t, 0.2, cfg.Analysis.Defaults.SafetyMargin)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.True(t, cfg.Cache.Enabled)
}
