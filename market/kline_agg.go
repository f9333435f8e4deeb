package market

import (
	"sync"
	"time"
)

// KlineAggregator 从逐笔价格流生成固定周期的 Kline。
type KlineAggregator struct {
	Interval time.Duration
	mu       sync.Mutex
	current  *Kline
}

func NewKlineAggregator(interval time.Duration) *KlineAggregator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &KlineAggregator{Interval: interval}
}

// OnPrice 更新当前 Kline；周期结束时返回闭合的 Kline，否则返回 nil。
func (a *KlineAggregator) OnPrice(price float64, ts time.Time) *Kline {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || ts.Sub(a.current.Ts) >= a.Interval {
		var closed *Kline
		if a.current != nil {
			closed = a.current
		}
		a.current = &Kline{
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
			Ts:    ts,
		}
		return closed
	}

	if price > a.current.High {
		a.current.High = price
	}
	if price < a.current.Low {
		a.current.Low = price
	}
	a.current.Close = price
	return nil
}
