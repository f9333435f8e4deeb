package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变化。策略配置是启动时一次性加载、运行期只读的，
// 所以这里不做热更新：检测到改动只通知调用方"需要重启才会生效"。
type Watcher struct {
	Path     string
	Cooldown time.Duration // 连续写入去抖

	watcher    *fsnotify.Watcher
	lastNotify time.Time
}

func NewWatcher(path string, cooldown time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &Watcher{Path: path, Cooldown: cooldown, watcher: w}, nil
}

// Start 开始监听；onChange 在文件被写入或重建时回调，参数是重新
// 加载并校验过的新配置（仅供对比展示，不会被应用）。
func (w *Watcher) Start(ctx context.Context, onChange func(Config)) error {
	if err := w.watcher.Add(w.Path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	go w.loop(ctx, onChange)
	return nil
}

// Close 停止监听。
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context, onChange func(Config)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.handleChange(onChange)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// 监听错误不致命，继续等待下一个事件
		}
	}
}

func (w *Watcher) handleChange(onChange func(Config)) {
	if time.Since(w.lastNotify) < w.Cooldown {
		return
	}
	w.lastNotify = time.Now()
	if onChange == nil {
		return
	}
	// 新配置解析失败就不通知：半写状态的文件很常见
	if cfg, err := LoadWithEnvOverrides(w.Path); err == nil {
		onChange(cfg)
	}
}
