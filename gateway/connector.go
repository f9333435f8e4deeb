package gateway

import (
	"errors"
	"time"

	"pmm-quoter-go/market"
	"pmm-quoter-go/strategy"
)

// PriceType 选择参考价来源。
type PriceType string

const (
	PriceMid  PriceType = "mid"
	PriceLast PriceType = "last"
)

// 周期内错误分类：fetch 失败降级为零信号，submit 失败留给下个周期重试。
var (
	ErrFetch      = errors.New("historical bars fetch failed")
	ErrSubmission = errors.New("order submission failed")
	ErrNoPrice    = errors.New("reference price unavailable")
)

// Fill 成交回报，仅用于日志/通知，不改变引擎状态。
type Fill struct {
	Instrument string
	Side       strategy.Side
	Amount     float64
	Price      float64
	Ts         time.Time
}

// Connector 是报价引擎对执行方的全部依赖。
// 网络、鉴权、余额维护、预算校验都发生在实现内部；引擎只看到同步调用
// 返回值或类型化错误。
type Connector interface {
	// FetchBars 返回最近 count 根 K 线，旧在前。失败时错误可用
	// errors.Is(err, ErrFetch) 判别。
	FetchBars(instrument string, period time.Duration, count int) ([]market.Kline, error)

	// ReferencePrice 返回 mid 或 last 参考价。
	ReferencePrice(instrument string, pt PriceType) (float64, error)

	// AvailableBalance 返回某资产的可用余额。
	AvailableBalance(asset string) float64

	// CancelAllOpenOrders 撤掉该合约上本策略的全部挂单。
	CancelAllOpenOrders(instrument string) error

	// CheckBudgetAndAdjust 按可用资金压缩或丢弃候选；allOrNone 时
	// 任何一腿不满足则全部丢弃。
	CheckBudgetAndAdjust(proposals []strategy.Proposal, allOrNone bool) []strategy.Proposal

	// Submit 提交单腿挂单，返回执行方订单号。
	Submit(instrument string, p strategy.Proposal) (string, error)
}
