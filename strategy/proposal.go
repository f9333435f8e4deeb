package strategy

// Side of an order proposal.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Proposal 是一次报价周期产出的单腿挂单候选。
// 每个周期重新生成，提交给执行方后即丢弃，不携带持久身份。
type Proposal struct {
	Side     Side
	Price    float64
	Size     float64
	PostOnly bool
}

// Report 记录一次报价决策的全部中间量，供日志与 metrics 使用。
type Report struct {
	Signal    float64 // 趋势因子或波动率换算的 spread 增量
	SignalOK  bool    // 历史不足时为 false
	Fraction  float64 // 库存占比
	BidSpread float64
	AskSpread float64
	BuySize   float64
	SellSize  float64
}
