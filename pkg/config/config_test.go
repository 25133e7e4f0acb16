package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8089", cfg.Port)
	assert.Equal(t, "development", cfg.Env)

	// Instrument symbol defaults
	assert.Equal(t, "^GSPC", cfg.Market.Symbols["SP500"])
	assert.Equal(t, "^N225", cfg.Market.Symbols["NIKKEI"])
	assert.Equal(t, "ACWI", cfg.Market.Symbols["orukan_jpy"])
	assert.Equal(t, "JPY=X", cfg.Market.FXSymbol)

	// Acquisition defaults
	assert.Equal(t, 15*time.Minute, cfg.History.TTL)
	assert.Equal(t, 3, cfg.History.MaxRetries)
	require.Len(t, cfg.History.Backoffs, 3)
	assert.Equal(t, 200*time.Millisecond, cfg.History.Backoffs[0])
	assert.Equal(t, time.Second, cfg.History.Backoffs[2])

	// Backtests never use synthetic history unless explicitly enabled
	assert.False(t, cfg.Backtest.AllowFallback)
	assert.Equal(t, 40.0, cfg.Backtest.BuyThreshold)
	assert.Equal(t, 80.0, cfg.Backtest.SellThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SP500_SYMBOL", "SPY")
	t.Setenv("PRICE_HISTORY_TTL", "5m")
	t.Setenv("BACKTEST_ALLOW_FALLBACK", "true")
	t.Setenv("SP500_ALLOW_SYNTHETIC_FALLBACK", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "SPY", cfg.Market.Symbols["SP500"])
	// sp500_jpy tracks the SP500 symbol unless overridden separately
	assert.Equal(t, "SPY", cfg.Market.Symbols["sp500_jpy"])
	assert.Equal(t, 5*time.Minute, cfg.History.TTL)
	assert.True(t, cfg.Backtest.AllowFallback)
	assert.False(t, cfg.Market.AllowSynthetic["SP500"])
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ENV", "local")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV must be one of")
}

func TestLoad_ThresholdOrdering(t *testing.T) {
	t.Setenv("BACKTEST_BUY_THRESHOLD", "90")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKTEST_BUY_THRESHOLD")
}

func TestGetEnvAsDuration_Fallback(t *testing.T) {
	t.Setenv("SNAPSHOT_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.SnapshotTTL)
}
