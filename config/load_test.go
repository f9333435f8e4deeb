package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
exchange: binance_paper
pair: ETH-USDT
orderAmount: 0.01
bidSpread: 0.001
askSpread: 0.001
refreshSeconds: 15
priceType: mid
maxInventoryPct: 0.5
minOrderSize: 0.001
policy: trend
trend:
  smaWindow: 50
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "ETH-USDT", cfg.Pair)
	assert.Equal(t, 50, cfg.Trend.SMAWindow)
	// 默认值
	assert.Equal(t, "mid", cfg.PriceType)
	assert.Equal(t, 60, cfg.BarPeriodSeconds)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUOTER_PAIR", "BTC-USDT")
	cfg, err := LoadWithEnvOverrides(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", cfg.Pair)
}

func TestValidateRejectsBadParams(t *testing.T) {
	base := func() Config {
		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no pair", func(c *Config) { c.Pair = "" }},
		{"zero amount", func(c *Config) { c.OrderAmount = 0 }},
		{"negative bid spread", func(c *Config) { c.BidSpread = -0.001 }},
		{"spread >= 1", func(c *Config) { c.AskSpread = 1 }},
		{"zero refresh", func(c *Config) { c.RefreshSeconds = 0 }},
		{"bad price type", func(c *Config) { c.PriceType = "vwap" }},
		{"overlapping skew zones", func(c *Config) { c.MaxInventoryPct = 0.4 }},
		{"inventory pct > 1", func(c *Config) { c.MaxInventoryPct = 1.5 }},
		{"zero min size", func(c *Config) { c.MinOrderSize = 0 }},
		{"unknown policy", func(c *Config) { c.Policy = "momentum" }},
		{"zero sma window", func(c *Config) { c.Trend.SMAWindow = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateVolatilityPolicy(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.Policy = PolicyVolatility
	assert.Error(t, Validate(cfg)) // atrWindow 未配置

	cfg.Volatility.ATRWindow = 14
	cfg.Volatility.Multiplier = 2
	cfg.Volatility.FloorSpread = 0.001
	assert.NoError(t, Validate(cfg))

	cfg.Volatility.Multiplier = -1
	assert.Error(t, Validate(cfg))
}
