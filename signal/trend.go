package signal

import "pmm-quoter-go/market"

// TrendEstimator 基于收盘价 SMA 估计趋势因子。
// 纯计算，不做任何 I/O；历史 K 线由调用方提供。
type TrendEstimator struct {
	Window int // SMA 窗口长度（根数）
}

// Estimate 返回趋势因子 (latestClose-SMA)/SMA。
// 历史不足一个窗口时 ok=false，调用方应按零信号处理。
func (e TrendEstimator) Estimate(bars []market.Kline) (factor float64, ok bool) {
	if e.Window <= 0 || len(bars) < e.Window {
		return 0, false
	}
	window := bars[len(bars)-e.Window:]
	sum := 0.0
	for _, b := range window {
		sum += b.Close
	}
	sma := sum / float64(e.Window)
	if sma == 0 {
		return 0, false
	}
	latest := bars[len(bars)-1].Close
	return (latest - sma) / sma, true
}
