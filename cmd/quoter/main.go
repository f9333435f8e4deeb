package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"pmm-quoter-go/alert"
	"pmm-quoter-go/config"
	"pmm-quoter-go/gateway"
	"pmm-quoter-go/logger"
	"pmm-quoter-go/metrics"
	"pmm-quoter-go/scheduler"
	sig "pmm-quoter-go/signal"
	"pmm-quoter-go/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	envFile := flag.String("env", "", ".env 文件路径，留空则尝试加载当前目录的 .env")
	baseBalance := flag.Float64("baseBalance", 1, "模拟盘基础资产初始余额")
	quoteBalance := flag.Float64("quoteBalance", 10000, "模拟盘计价资产初始余额")
	tickMs := flag.Int("tickMs", 1000, "调度器 tick 间隔（毫秒），刷新节奏仍由 refreshSeconds 决定")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("加载 env 文件失败: %v", err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	metrics.Serve(cfg.MetricsAddr, prometheus.DefaultGatherer)

	base, quote, ok := splitPair(cfg.Pair)
	if !ok {
		log.Fatalf("无法解析交易对: %s", cfg.Pair)
	}
	// 目前只有模拟执行方；真实下单通道由外部系统承接
	if !strings.Contains(cfg.Exchange, "paper") {
		zlog.Warn("exchange is not a paper venue, falling back to paper execution",
			zap.String("exchange", cfg.Exchange))
	}

	barPeriod := time.Duration(cfg.BarPeriodSeconds) * time.Second
	barCount := requiredBars(cfg)
	paper := gateway.NewPaper(base, quote, barPeriod, barCount*2)
	paper.Deposit(base, *baseBalance)
	paper.Deposit(quote, *quoteBalance)

	builder, err := newBuilder(cfg)
	if err != nil {
		log.Fatalf("初始化策略失败: %v", err)
	}

	sched, err := scheduler.New(scheduler.Config{
		Instrument:      cfg.Pair,
		BaseAsset:       base,
		QuoteAsset:      quote,
		RefreshInterval: time.Duration(cfg.RefreshSeconds) * time.Second,
		PriceType:       gateway.PriceType(cfg.PriceType),
		BarPeriod:       barPeriod,
		BarCount:        barCount,
		MaxInventoryPct: cfg.MaxInventoryPct,
		MinOrderSize:    cfg.MinOrderSize,
		OrderAmount:     cfg.OrderAmount,
	}, paper, builder, zlog)
	if err != nil {
		log.Fatalf("初始化调度器失败: %v", err)
	}

	alerts := alert.NewManager(
		[]alert.Channel{alert.LogChannel{Log: zlog.Logger}},
		time.Duration(cfg.AlertThrottleSeconds)*time.Second,
	)
	sched.SetAlerts(alerts)
	sched.SetCollector(collector)
	paper.SetOnFill(sched.OnFilled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	symbol := strings.ReplaceAll(cfg.Pair, "-", "")
	go runFeed(ctx, symbol, cfg.Pair, paper, zlog)

	// 配置是启动时一次性加载的；盘中改文件只提醒需要重启
	watcher, err := config.NewWatcher(*cfgPath, 2*time.Second)
	if err != nil {
		zlog.Warn("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
		err = watcher.Start(ctx, func(config.Config) {
			zlog.Warn("config file changed on disk, restart required to apply")
			_ = alerts.NotifyWarning("config changed on disk, restart required")
		})
		if err != nil {
			zlog.Warn("config watcher start failed", zap.Error(err))
		}
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	zlog.Info("quoter started",
		zap.String("pair", cfg.Pair),
		zap.String("policy", cfg.Policy),
		zap.Int("refreshSeconds", cfg.RefreshSeconds),
	)

	ticker := time.NewTicker(time.Duration(*tickMs) * time.Millisecond)
	defer ticker.Stop()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			cancel()
			zlog.Info("quoter exit", zap.String("pair", cfg.Pair))
			return
		case <-ticker.C:
			sched.OnTick()
		}
	}
}

// splitPair 拆分 BASE-QUOTE 形式的交易对。
func splitPair(pair string) (base, quote string, ok bool) {
	parts := strings.SplitN(pair, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// requiredBars 返回当前策略需要的最少 K 线根数。
func requiredBars(cfg config.Config) int {
	if cfg.Policy == config.PolicyVolatility {
		return cfg.Volatility.ATRWindow + 1
	}
	return cfg.Trend.SMAWindow
}

func newBuilder(cfg config.Config) (*strategy.Builder, error) {
	var pol strategy.Policy
	switch cfg.Policy {
	case config.PolicyVolatility:
		pol = strategy.VolatilityPolicy{
			Estimator:   sig.ATREstimator{Window: cfg.Volatility.ATRWindow},
			BidSpread:   cfg.BidSpread,
			AskSpread:   cfg.AskSpread,
			Multiplier:  cfg.Volatility.Multiplier,
			FloorSpread: cfg.Volatility.FloorSpread,
			BaseSize:    cfg.OrderAmount,
		}
	default:
		pol = strategy.TrendPolicy{
			Estimator: sig.TrendEstimator{Window: cfg.Trend.SMAWindow},
			BidSpread: cfg.BidSpread,
			AskSpread: cfg.AskSpread,
			BaseSize:  cfg.OrderAmount,
		}
	}
	return strategy.NewBuilder(pol, cfg.MinOrderSize)
}

// runFeed 维持行情连接：断开后退避重连，行情直接喂给模拟执行方。
func runFeed(ctx context.Context, symbol, instrument string, paper *gateway.Paper, zlog *logger.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}
		feed := gateway.NewBinanceFeed()
		if err := feed.SubscribeBookTicker(symbol); err != nil {
			zlog.Warn("subscribe bookTicker failed", zap.Error(err))
			return
		}
		if err := feed.SubscribeTrades(symbol); err != nil {
			zlog.Warn("subscribe trades failed", zap.Error(err))
			return
		}
		feed.OnConnect(func() {
			zlog.Info("feed connected", zap.String("symbol", symbol))
		})
		feed.OnDisconnect(func(err error) {
			zlog.Warn("feed disconnected", zap.String("symbol", symbol), zap.Error(err))
		})
		if err := feed.Run(&instrumentRemap{target: instrument, next: paper}); err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}
}

// instrumentRemap 把交易所 symbol（ETHUSDT）映射回配置里的
// BASE-QUOTE 形式再转发，让引擎各层只认一种写法。
type instrumentRemap struct {
	target string
	next   gateway.FeedHandler
}

func (r *instrumentRemap) OnBookTicker(_ string, bid, ask float64) {
	r.next.OnBookTicker(r.target, bid, ask)
}

func (r *instrumentRemap) OnTrade(_ string, price, qty float64, ts time.Time) {
	r.next.OnTrade(r.target, price, qty, ts)
}
