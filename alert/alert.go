package alert

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Alert 通知内容。
type Alert struct {
	Level     string // "INFO", "WARNING", "ERROR"
	Message   string
	Timestamp time.Time
}

// Channel 通知通道接口。
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Throttler 按 key 限流，避免同一条通知刷屏。
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	mu       sync.Mutex
}

func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
	}
}

// Allow 检查是否允许发送。
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	last, exists := t.lastSent[key]
	if !exists || now.Sub(last) >= t.interval {
		t.lastSent[key] = now
		return true
	}
	return false
}

// Manager 将通知分发到所有通道。
type Manager struct {
	channels []Channel
	throttle *Throttler
	mu       sync.RWMutex
}

func NewManager(channels []Channel, throttleInterval time.Duration) *Manager {
	return &Manager{
		channels: channels,
		throttle: NewThrottler(throttleInterval),
	}
}

// Notify 发送通知；被限流时静默忽略。
func (m *Manager) Notify(a Alert) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	key := fmt.Sprintf("%s:%s", a.Level, a.Message)
	if !m.throttle.Allow(key) {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var lastErr error
	sent := 0
	for _, ch := range m.channels {
		if err := ch.Send(a); err != nil {
			lastErr = fmt.Errorf("channel %s failed: %w", ch.Name(), err)
		} else {
			sent++
		}
	}
	if sent == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// NotifyInfo 发送 INFO 级别通知。
func (m *Manager) NotifyInfo(message string) error {
	return m.Notify(Alert{Level: "INFO", Message: message})
}

// NotifyWarning 发送 WARNING 级别通知。
func (m *Manager) NotifyWarning(message string) error {
	return m.Notify(Alert{Level: "WARNING", Message: message})
}

// AddChannel 添加通知通道。
func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
}

// LogChannel 把通知写进结构化日志，作为兜底通道。
type LogChannel struct {
	Log *zap.Logger
}

func (c LogChannel) Name() string { return "log" }

func (c LogChannel) Send(a Alert) error {
	if c.Log == nil {
		return fmt.Errorf("log channel not initialized")
	}
	c.Log.Info("notification",
		zap.String("level", a.Level),
		zap.String("message", a.Message),
		zap.Time("ts", a.Timestamp),
	)
	return nil
}
