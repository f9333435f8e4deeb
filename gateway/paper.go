package gateway

import (
	"fmt"
	"sync"
	"time"

	"pmm-quoter-go/market"
	"pmm-quoter-go/strategy"
)

// PaperOrder 模拟盘挂单。
type PaperOrder struct {
	ID         string
	Instrument string
	Side       strategy.Side
	Price      float64
	Size       float64
	Ts         time.Time
}

// Paper 是内存模拟的执行方：维护余额、K 线历史与挂单，
// 实现 Connector 供引擎使用，实现 FeedHandler 供行情源喂价。
type Paper struct {
	BaseAsset  string
	QuoteAsset string

	mu       sync.RWMutex
	balances map[string]float64
	history  *market.History
	agg      *market.KlineAggregator
	bestBid  float64
	bestAsk  float64
	lastTrad float64
	orders   map[string]*PaperOrder
	seq      int
	onFill   func(Fill)

	// FailFetch/FailSubmit 供测试注入故障
	FailFetch  error
	FailSubmit error
}

// NewPaper 创建模拟执行方；historyCap 为保留的 K 线根数上限。
func NewPaper(baseAsset, quoteAsset string, barPeriod time.Duration, historyCap int) *Paper {
	return &Paper{
		BaseAsset:  baseAsset,
		QuoteAsset: quoteAsset,
		balances:   make(map[string]float64),
		history:    market.NewHistory(historyCap),
		agg:        market.NewKlineAggregator(barPeriod),
		orders:     make(map[string]*PaperOrder),
	}
}

// Deposit 入金。
func (p *Paper) Deposit(asset string, amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[asset] += amount
}

// SetOnFill 注册成交回调（引擎用来做日志/通知）。
func (p *Paper) SetOnFill(fn func(Fill)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFill = fn
}

// PushKline 直接注入一根已闭合的 K 线（回放/测试用）。
func (p *Paper) PushKline(k market.Kline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.Push(k)
}

// OnBookTicker 实现 FeedHandler：更新盘口。
func (p *Paper) OnBookTicker(instrument string, bid, ask float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bid > 0 {
		p.bestBid = bid
	}
	if ask > 0 {
		p.bestAsk = ask
	}
}

// OnTrade 实现 FeedHandler：更新最新成交价并聚合 K 线。
func (p *Paper) OnTrade(instrument string, price, qty float64, ts time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastTrad = price
	if closed := p.agg.OnPrice(price, ts); closed != nil {
		p.history.Push(*closed)
	}
}

// FetchBars 实现 Connector。
func (p *Paper) FetchBars(instrument string, period time.Duration, count int) ([]market.Kline, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.FailFetch != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, p.FailFetch)
	}
	bars := p.history.Bars()
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

// ReferencePrice 实现 Connector。mid 取盘口中间价，last 取最新成交价。
func (p *Paper) ReferencePrice(instrument string, pt PriceType) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch pt {
	case PriceLast:
		if p.lastTrad > 0 {
			return p.lastTrad, nil
		}
	default:
		if p.bestBid > 0 && p.bestAsk > 0 {
			return (p.bestBid + p.bestAsk) / 2, nil
		}
		// 盘口缺失时退化为最新成交价
		if p.lastTrad > 0 {
			return p.lastTrad, nil
		}
	}
	return 0, ErrNoPrice
}

// AvailableBalance 实现 Connector。
func (p *Paper) AvailableBalance(asset string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balances[asset]
}

// CancelAllOpenOrders 实现 Connector。
func (p *Paper) CancelAllOpenOrders(instrument string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, o := range p.orders {
		if o.Instrument == instrument {
			delete(p.orders, id)
		}
	}
	return nil
}

// CheckBudgetAndAdjust 实现 Connector：买腿按计价资产、卖腿按基础资产校验，
// 资金不足时压缩到可负担数量；allOrNone 下任一腿被压缩/丢弃则全部丢弃。
func (p *Paper) CheckBudgetAndAdjust(proposals []strategy.Proposal, allOrNone bool) []strategy.Proposal {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]strategy.Proposal, 0, len(proposals))
	shrunk := false
	for _, pr := range proposals {
		adj := pr
		switch pr.Side {
		case strategy.SideBuy:
			avail := p.balances[p.QuoteAsset]
			cost := pr.Price * pr.Size
			if cost > avail {
				shrunk = true
				if pr.Price > 0 {
					adj.Size = avail / pr.Price
				} else {
					adj.Size = 0
				}
			}
		case strategy.SideSell:
			avail := p.balances[p.BaseAsset]
			if pr.Size > avail {
				shrunk = true
				adj.Size = avail
			}
		}
		if adj.Size > 0 {
			out = append(out, adj)
		} else {
			shrunk = true
		}
	}
	if allOrNone && (shrunk || len(out) != len(proposals)) {
		return nil
	}
	return out
}

// Submit 实现 Connector。
func (p *Paper) Submit(instrument string, pr strategy.Proposal) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSubmit != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, p.FailSubmit)
	}
	if pr.Size <= 0 || pr.Price <= 0 {
		return "", fmt.Errorf("%w: invalid proposal price=%f size=%f", ErrSubmission, pr.Price, pr.Size)
	}
	p.seq++
	id := fmt.Sprintf("paper-%d", p.seq)
	p.orders[id] = &PaperOrder{
		ID:         id,
		Instrument: instrument,
		Side:       pr.Side,
		Price:      pr.Price,
		Size:       pr.Size,
		Ts:         time.Now(),
	}
	return id, nil
}

// OpenOrders 返回当前挂单快照。
func (p *Paper) OpenOrders() []PaperOrder {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PaperOrder, 0, len(p.orders))
	for _, o := range p.orders {
		out = append(out, *o)
	}
	return out
}

// SimulateFill 将某挂单按全额成交处理：调整余额、移除挂单并触发回调。
func (p *Paper) SimulateFill(id string) error {
	p.mu.Lock()
	o, ok := p.orders[id]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("unknown order %s", id)
	}
	delete(p.orders, id)
	switch o.Side {
	case strategy.SideBuy:
		p.balances[p.QuoteAsset] -= o.Price * o.Size
		p.balances[p.BaseAsset] += o.Size
	case strategy.SideSell:
		p.balances[p.BaseAsset] -= o.Size
		p.balances[p.QuoteAsset] += o.Price * o.Size
	}
	fn := p.onFill
	p.mu.Unlock()

	if fn != nil {
		fn(Fill{
			Instrument: o.Instrument,
			Side:       o.Side,
			Amount:     o.Size,
			Price:      o.Price,
			Ts:         time.Now(),
		})
	}
	return nil
}
