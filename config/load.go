package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pmm-quoter-go/logger"
)

// PolicyTrend / PolicyVolatility 选择信号策略变体。
const (
	PolicyTrend      = "trend"
	PolicyVolatility = "volatility"
)

// Config holds the full strategy configuration. Loaded once at startup
// and read-only afterwards; on-disk changes require a restart (see Watcher).
type Config struct {
	Exchange string `yaml:"exchange"`
	Pair     string `yaml:"pair"` // 形如 ETH-USDT

	OrderAmount     float64 `yaml:"orderAmount"`
	BidSpread       float64 `yaml:"bidSpread"`
	AskSpread       float64 `yaml:"askSpread"`
	RefreshSeconds  int     `yaml:"refreshSeconds"`
	PriceType       string  `yaml:"priceType"` // mid 或 last
	MaxInventoryPct float64 `yaml:"maxInventoryPct"`
	MinOrderSize    float64 `yaml:"minOrderSize"`

	Policy     string           `yaml:"policy"` // trend 或 volatility
	Trend      TrendParams      `yaml:"trend"`
	Volatility VolatilityParams `yaml:"volatility"`

	BarPeriodSeconds     int    `yaml:"barPeriodSeconds"`
	MetricsAddr          string `yaml:"metricsAddr"`
	AlertThrottleSeconds int    `yaml:"alertThrottleSeconds"`

	Logger logger.Config `yaml:"logger"`
}

type TrendParams struct {
	SMAWindow int `yaml:"smaWindow"`
}

type VolatilityParams struct {
	ATRWindow   int     `yaml:"atrWindow"`
	Multiplier  float64 `yaml:"multiplier"`
	FloorSpread float64 `yaml:"floorSpread"`
}

// Load reads YAML config from path and applies validation.
func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides selected fields from
// env vars if present.
func LoadWithEnvOverrides(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("QUOTER_EXCHANGE"); v != "" {
		cfg.Exchange = v
	}
	if v := os.Getenv("QUOTER_PAIR"); v != "" {
		cfg.Pair = v
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.PriceType == "" {
		cfg.PriceType = "mid"
	}
	if cfg.BarPeriodSeconds == 0 {
		cfg.BarPeriodSeconds = 60
	}
	if cfg.AlertThrottleSeconds == 0 {
		cfg.AlertThrottleSeconds = 60
	}
	if cfg.Logger.Level == "" {
		cfg.Logger = logger.DefaultConfig()
	}
	if cfg.Volatility.FloorSpread == 0 {
		cfg.Volatility.FloorSpread = 0.001
	}
}

// Validate ensures the parameter bundle can run. Any error here is fatal
// at startup; the strategy must not start on a bad config.
func Validate(cfg Config) error {
	if cfg.Exchange == "" {
		return errors.New("exchange is required")
	}
	if cfg.Pair == "" {
		return errors.New("pair is required")
	}
	if cfg.OrderAmount <= 0 {
		return fmt.Errorf("orderAmount must be > 0, got %f", cfg.OrderAmount)
	}
	if cfg.BidSpread <= 0 || cfg.BidSpread >= 1 {
		return fmt.Errorf("bidSpread must be in (0,1), got %f", cfg.BidSpread)
	}
	if cfg.AskSpread <= 0 || cfg.AskSpread >= 1 {
		return fmt.Errorf("askSpread must be in (0,1), got %f", cfg.AskSpread)
	}
	if cfg.RefreshSeconds <= 0 {
		return fmt.Errorf("refreshSeconds must be > 0, got %d", cfg.RefreshSeconds)
	}
	if cfg.PriceType != "mid" && cfg.PriceType != "last" {
		return fmt.Errorf("priceType must be mid or last, got %q", cfg.PriceType)
	}
	// maxInventoryPct < 0.5 会让两个倾斜区间重叠，行为无定义，直接拒绝。
	if cfg.MaxInventoryPct < 0.5 || cfg.MaxInventoryPct > 1 {
		return fmt.Errorf("maxInventoryPct must be in [0.5,1], got %f", cfg.MaxInventoryPct)
	}
	if cfg.MinOrderSize <= 0 {
		return fmt.Errorf("minOrderSize must be > 0, got %f", cfg.MinOrderSize)
	}
	switch cfg.Policy {
	case PolicyTrend:
		if cfg.Trend.SMAWindow <= 0 {
			return fmt.Errorf("trend.smaWindow must be > 0, got %d", cfg.Trend.SMAWindow)
		}
	case PolicyVolatility:
		if cfg.Volatility.ATRWindow <= 0 {
			return fmt.Errorf("volatility.atrWindow must be > 0, got %d", cfg.Volatility.ATRWindow)
		}
		if cfg.Volatility.Multiplier < 0 {
			return fmt.Errorf("volatility.multiplier must be >= 0, got %f", cfg.Volatility.Multiplier)
		}
		if cfg.Volatility.FloorSpread <= 0 {
			return fmt.Errorf("volatility.floorSpread must be > 0, got %f", cfg.Volatility.FloorSpread)
		}
	default:
		return fmt.Errorf("policy must be %s or %s, got %q", PolicyTrend, PolicyVolatility, cfg.Policy)
	}
	if cfg.BarPeriodSeconds <= 0 {
		return fmt.Errorf("barPeriodSeconds must be > 0, got %d", cfg.BarPeriodSeconds)
	}
	return nil
}
