package scheduler

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pmm-quoter-go/alert"
	"pmm-quoter-go/gateway"
	"pmm-quoter-go/inventory"
	"pmm-quoter-go/logger"
	"pmm-quoter-go/metrics"
	"pmm-quoter-go/strategy"
)

// Config 是调度器的只读参数。
type Config struct {
	Instrument      string
	BaseAsset       string
	QuoteAsset      string
	RefreshInterval time.Duration
	PriceType       gateway.PriceType
	BarPeriod       time.Duration
	BarCount        int // 每周期拉取的 K 线根数
	MaxInventoryPct float64
	MinOrderSize    float64
	OrderAmount     float64
}

// CycleResult 汇报一次周期的结果，供 cmd 层接监控。
type CycleResult struct {
	RefPrice  float64
	Report    strategy.Report
	Submitted int
	Errs      []error
}

// Scheduler 驱动 cancel → 重算 → 重挂 的报价周期。
// 时间戳门闩是唯一的准入控制：now < nextRefresh 时 OnTick 是空操作。
// 周期内任何失败都只记录汇报，不会让后续周期停摆。
type Scheduler struct {
	cfg     Config
	conn    gateway.Connector
	builder *strategy.Builder
	log     *logger.Logger
	clock   Clock

	alerts  *alert.Manager     // 可选
	collect *metrics.Collector // 可选
	onCycle func(CycleResult)  // 可选

	nextRefresh time.Time
}

// New 创建调度器。首个 tick 即触发第一个周期。
func New(cfg Config, conn gateway.Connector, builder *strategy.Builder, log *logger.Logger) (*Scheduler, error) {
	if conn == nil || builder == nil || log == nil {
		return nil, errors.New("scheduler dependencies missing")
	}
	if cfg.Instrument == "" || cfg.RefreshInterval <= 0 || cfg.BarCount <= 0 {
		return nil, fmt.Errorf("invalid scheduler config: %+v", cfg)
	}
	return &Scheduler{
		cfg:     cfg,
		conn:    conn,
		builder: builder,
		log:     log,
		clock:   SystemClock,
	}, nil
}

// SetClock 注入测试时钟。
func (s *Scheduler) SetClock(c Clock) { s.clock = c }

// SetAlerts 接入通知管理器（成交/周期错误）。
func (s *Scheduler) SetAlerts(m *alert.Manager) { s.alerts = m }

// SetCollector 接入 Prometheus 指标。
func (s *Scheduler) SetCollector(c *metrics.Collector) { s.collect = c }

// SetCycleListener 注册周期结果回调。
func (s *Scheduler) SetCycleListener(fn func(CycleResult)) { s.onCycle = fn }

// NextRefresh 返回下一次允许刷新的时间戳。
func (s *Scheduler) NextRefresh() time.Time { return s.nextRefresh }

// OnTick 在每个外部 tick 上同步调用。未到刷新时间直接返回 false；
// 否则执行一个完整周期并返回 true。周期结束后无论成败都推进门闩，
// 避免错误导致每个 tick 重试风暴。
func (s *Scheduler) OnTick() bool {
	now := s.clock.Now()
	if now.Before(s.nextRefresh) {
		return false
	}
	// 先推进门闩再干活：周期内 panic 之外的任何失败都不会把门闩留在过去
	s.nextRefresh = now.Add(s.cfg.RefreshInterval)

	res := s.runCycle()

	if s.collect != nil {
		s.collect.Cycles.Inc()
		if res.RefPrice > 0 {
			s.collect.RefPrice.Set(res.RefPrice)
			s.collect.Signal.Set(res.Report.Signal)
			s.collect.Fraction.Set(res.Report.Fraction)
			s.collect.BidSpread.Set(res.Report.BidSpread)
			s.collect.AskSpread.Set(res.Report.AskSpread)
			s.collect.BuySize.Set(res.Report.BuySize)
			s.collect.SellSize.Set(res.Report.SellSize)
		}
	}
	if s.onCycle != nil {
		s.onCycle(res)
	}
	return true
}

// runCycle 执行一次 cancel → 信号 → 倾斜 → 组装 → 预算 → 提交。
func (s *Scheduler) runCycle() CycleResult {
	var res CycleResult

	if err := s.conn.CancelAllOpenOrders(s.cfg.Instrument); err != nil {
		// 撤单失败就不再挂新单，否则旧单会越挂越多
		s.reportError(&res, "cancel", err)
		return res
	}

	refPrice, err := s.conn.ReferencePrice(s.cfg.Instrument, s.cfg.PriceType)
	if err != nil {
		s.reportError(&res, "price", err)
		return res
	}
	res.RefPrice = refPrice

	// fetch 失败降级为零信号，本周期继续报价
	bars, err := s.conn.FetchBars(s.cfg.Instrument, s.cfg.BarPeriod, s.cfg.BarCount)
	if err != nil {
		s.reportError(&res, "fetch", err)
		bars = nil
	}

	baseBal := s.conn.AvailableBalance(s.cfg.BaseAsset)
	quoteBal := s.conn.AvailableBalance(s.cfg.QuoteAsset)
	skew := inventory.ComputeSkew(baseBal, quoteBal, refPrice,
		s.cfg.MaxInventoryPct, s.cfg.MinOrderSize, s.cfg.OrderAmount)

	buy, sell, rep, err := s.builder.Build(refPrice, bars, skew)
	if err != nil {
		s.reportError(&res, "build", err)
		return res
	}
	res.Report = rep

	// 与执行方的预算校验保持 all-or-none：单腿资金不足时整组放弃
	adjusted := s.conn.CheckBudgetAndAdjust([]strategy.Proposal{buy, sell}, true)
	for _, p := range adjusted {
		if _, err := s.conn.Submit(s.cfg.Instrument, p); err != nil {
			// 不在本周期重试，下个周期整体重建
			s.reportError(&res, "submit", err)
			continue
		}
		res.Submitted++
		if s.collect != nil {
			s.collect.Orders.Inc()
		}
	}

	s.log.LogCycle(s.cfg.Instrument,
		zap.Float64("refPrice", refPrice),
		zap.Float64("signal", rep.Signal),
		zap.Bool("signalOk", rep.SignalOK),
		zap.Float64("inventoryFraction", rep.Fraction),
		zap.Float64("bidSpread", rep.BidSpread),
		zap.Float64("askSpread", rep.AskSpread),
		zap.Float64("buySize", rep.BuySize),
		zap.Float64("sellSize", rep.SellSize),
		zap.Int("submitted", res.Submitted),
		zap.Int("errors", len(res.Errs)),
	)
	return res
}

// OnFilled 处理成交回报：只做格式化与通知，不改变引擎状态。
func (s *Scheduler) OnFilled(f gateway.Fill) {
	msg := fmt.Sprintf("%s %.2f %s @ %.2f", f.Side, f.Amount, f.Instrument, f.Price)
	s.log.LogFill(msg,
		zap.String("instrument", f.Instrument),
		zap.String("side", string(f.Side)),
		zap.Float64("amount", f.Amount),
		zap.Float64("price", f.Price),
	)
	if s.collect != nil {
		s.collect.Fills.Inc()
	}
	if s.alerts != nil {
		_ = s.alerts.NotifyInfo(msg)
	}
}

func (s *Scheduler) reportError(res *CycleResult, stage string, err error) {
	res.Errs = append(res.Errs, fmt.Errorf("%s: %w", stage, err))
	s.log.LogCycleError(s.cfg.Instrument, stage, err)
	if s.collect != nil {
		s.collect.CycleErrors.WithLabelValues(stage).Inc()
	}
	if s.alerts != nil {
		_ = s.alerts.NotifyWarning(fmt.Sprintf("cycle %s failed: %v", stage, err))
	}
}
