package strategy

import (
	"fmt"

	"pmm-quoter-go/inventory"
	"pmm-quoter-go/market"
)

// Builder 将参考价、信号修正与库存倾斜组合成一对 maker 挂单候选。
// 纯计算：相同输入必然产出逐位相同的 Proposal。
type Builder struct {
	Policy       Policy
	MinOrderSize float64
}

func NewBuilder(policy Policy, minOrderSize float64) (*Builder, error) {
	if policy == nil {
		return nil, fmt.Errorf("policy required")
	}
	if minOrderSize <= 0 {
		return nil, fmt.Errorf("minOrderSize must be > 0, got %f", minOrderSize)
	}
	return &Builder{Policy: policy, MinOrderSize: minOrderSize}, nil
}

// Build 生成买卖两腿。先由信号策略给出 spread/size 修正，再叠加库存倾斜，
// 最后换算价格：buy = ref*(1-bidSpread)，sell = ref*(1+askSpread)。
func (b *Builder) Build(refPrice float64, bars []market.Kline, skew inventory.Skew) (buy, sell Proposal, rep Report, err error) {
	if refPrice <= 0 {
		err = fmt.Errorf("invalid reference price: %f", refPrice)
		return
	}

	adj := b.Policy.Adjust(refPrice, bars)

	buySize := b.clampSize(adj.BuySize * skew.BuyMult)
	sellSize := b.clampSize(adj.SellSize * skew.SellMult)

	buy = Proposal{
		Side:     SideBuy,
		Price:    refPrice * (1 - adj.BidSpread),
		Size:     buySize,
		PostOnly: true,
	}
	sell = Proposal{
		Side:     SideSell,
		Price:    refPrice * (1 + adj.AskSpread),
		Size:     sellSize,
		PostOnly: true,
	}
	rep = Report{
		Signal:    adj.Signal,
		SignalOK:  adj.SignalOK,
		Fraction:  skew.Fraction,
		BidSpread: adj.BidSpread,
		AskSpread: adj.AskSpread,
		BuySize:   buySize,
		SellSize:  sellSize,
	}
	return
}

// clampSize 托底到最小可下单数量，杜绝零或负 size。
func (b *Builder) clampSize(size float64) float64 {
	if size < b.MinOrderSize {
		return b.MinOrderSize
	}
	return size
}
