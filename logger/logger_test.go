package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "verbose"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewRequiresOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Outputs = nil
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quoter.log")
	cfg := Config{
		Level:      "info",
		Outputs:    []string{"file"},
		OutputFile: path,
		Format:     "json",
	}
	log, err := New(cfg)
	require.NoError(t, err)

	log.LogCycle("ETH-USDT", zap.Float64("refPrice", 2000))
	_ = log.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quote_cycle")
	assert.Contains(t, string(data), "ETH-USDT")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, []string{"stdout"}, cfg.Outputs)

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("启动检查")
	_ = log.Close()
}
