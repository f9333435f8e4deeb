package signal

import (
	"math"

	"pmm-quoter-go/market"
)

// ATREstimator 基于 True Range 均值估计波动率（价格单位）。
type ATREstimator struct {
	Window int // ATR 窗口长度；需要 Window+1 根 K 线
}

// TrueRange 返回单根 K 线的真实波幅。
func TrueRange(cur, prev market.Kline) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// Estimate 返回最近 Window 个 true range 的算术平均。
// 历史不足时返回 0：波动率信号必须总是可用，缺数据即降级为平价差。
func (e ATREstimator) Estimate(bars []market.Kline) float64 {
	if e.Window <= 0 || len(bars) < e.Window+1 {
		return 0
	}
	start := len(bars) - e.Window
	sum := 0.0
	for i := start; i < len(bars); i++ {
		sum += TrueRange(bars[i], bars[i-1])
	}
	return sum / float64(e.Window)
}
