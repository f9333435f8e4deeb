package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherNotifiesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0644))

	w, err := NewWatcher(path, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, func(cfg Config) {
		select {
		case changed <- cfg:
		default:
		}
	}))

	// 等 watcher 就绪后改写文件
	time.Sleep(50 * time.Millisecond)
	updated := validYAML + "metricsAddr: \":9100\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	select {
	case cfg := <-changed:
		require.Equal(t, ":9100", cfg.MetricsAddr)
	case <-time.After(3 * time.Second):
		t.Fatalf("expected change notification")
	}
}

func TestWatcherIgnoresInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0644))

	w, err := NewWatcher(path, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, func(cfg Config) { changed <- cfg }))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("orderAmount: -1\n"), 0644))

	select {
	case <-changed:
		t.Fatalf("invalid config should not notify")
	case <-time.After(500 * time.Millisecond):
	}
}
