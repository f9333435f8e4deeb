package strategy

import (
	"pmm-quoter-go/market"
	"pmm-quoter-go/signal"
)

// Adjustment 是信号策略对基准报价的修正：spread 或 size 二选一受影响。
type Adjustment struct {
	BidSpread float64
	AskSpread float64
	BuySize   float64
	SellSize  float64
	Signal    float64
	SignalOK  bool
}

// Policy 将历史 K 线转换为一次报价修正。两个实现共享同一个 Builder。
type Policy interface {
	Name() string
	Adjust(refPrice float64, bars []market.Kline) Adjustment
}

// TrendPolicy 按 SMA 趋势因子压缩顺势一侧的数量，spread 保持基准值。
// 价格高于趋势越多，买得越少；低于趋势越多，卖得越少。
type TrendPolicy struct {
	Estimator signal.TrendEstimator
	BidSpread float64
	AskSpread float64
	BaseSize  float64
}

func (p TrendPolicy) Name() string { return "trend" }

func (p TrendPolicy) Adjust(refPrice float64, bars []market.Kline) Adjustment {
	adj := Adjustment{
		BidSpread: p.BidSpread,
		AskSpread: p.AskSpread,
		BuySize:   p.BaseSize,
		SellSize:  p.BaseSize,
	}
	factor, ok := p.Estimator.Estimate(bars)
	if !ok {
		// 历史不足：零修正
		return adj
	}
	adj.Signal = factor
	adj.SignalOK = true
	up := factor
	if up < 0 {
		up = 0
	}
	down := factor
	if down > 0 {
		down = 0
	}
	// 极端趋势 (|factor|>=1) 会把一侧压到非正数，交给 Builder 的最小数量地板兜底。
	adj.BuySize = p.BaseSize * (1 - up)
	adj.SellSize = p.BaseSize * (1 + down)
	return adj
}

// VolatilityPolicy 按 ATR 放宽双边 spread，数量保持基准值。
type VolatilityPolicy struct {
	Estimator   signal.ATREstimator
	BidSpread   float64
	AskSpread   float64
	Multiplier  float64 // 波动率放大系数
	FloorSpread float64 // spread 下限
	BaseSize    float64
}

func (p VolatilityPolicy) Name() string { return "volatility" }

func (p VolatilityPolicy) Adjust(refPrice float64, bars []market.Kline) Adjustment {
	adj := Adjustment{
		BuySize:  p.BaseSize,
		SellSize: p.BaseSize,
		SignalOK: true,
	}
	var volSpread float64
	if refPrice > 0 {
		atr := p.Estimator.Estimate(bars)
		volSpread = atr / refPrice * p.Multiplier
	}
	adj.Signal = volSpread
	adj.BidSpread = maxf(p.BidSpread+volSpread, p.FloorSpread)
	adj.AskSpread = maxf(p.AskSpread+volSpread, p.FloorSpread)
	return adj
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
