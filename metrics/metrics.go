// Package metrics provides Prometheus metrics for the quoting engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 汇总每个报价周期的观测值。
type Collector struct {
	Cycles      prometheus.Counter
	CycleErrors *prometheus.CounterVec
	Orders      prometheus.Counter
	Fills       prometheus.Counter

	RefPrice  prometheus.Gauge
	Signal    prometheus.Gauge
	Fraction  prometheus.Gauge
	BidSpread prometheus.Gauge
	AskSpread prometheus.Gauge
	BuySize   prometheus.Gauge
	SellSize  prometheus.Gauge
}

// NewCollector 创建并注册全部指标。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_cycles_total",
			Help: "报价周期执行次数",
		}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quoter_cycle_errors_total",
			Help: "周期内错误次数（按阶段）",
		}, []string{"stage"}),
		Orders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_orders_submitted_total",
			Help: "成功提交的挂单数量",
		}),
		Fills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoter_fills_total",
			Help: "成交回报数量",
		}),
		RefPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_reference_price",
			Help: "本周期使用的参考价",
		}),
		Signal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_signal",
			Help: "信号值（趋势因子或波动率 spread 增量）",
		}),
		Fraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_inventory_fraction",
			Help: "基础资产市值占比",
		}),
		BidSpread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_bid_spread",
			Help: "本周期买腿 spread",
		}),
		AskSpread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_ask_spread",
			Help: "本周期卖腿 spread",
		}),
		BuySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_buy_size",
			Help: "本周期买腿数量",
		}),
		SellSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_sell_size",
			Help: "本周期卖腿数量",
		}),
	}
	reg.MustRegister(
		c.Cycles, c.CycleErrors, c.Orders, c.Fills,
		c.RefPrice, c.Signal, c.Fraction,
		c.BidSpread, c.AskSpread, c.BuySize, c.SellSize,
	)
	return c
}

// Serve 启动 Prometheus 指标服务器；addr 为空则不启动。
func Serve(addr string, g prometheus.Gatherer) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
