package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"pmm-quoter-go/config"
	"pmm-quoter-go/gateway"
	"pmm-quoter-go/logger"
	"pmm-quoter-go/market"
	"pmm-quoter-go/scheduler"
	sig "pmm-quoter-go/signal"
	"pmm-quoter-go/strategy"
)

// 离线回放脚本：把历史 K 线逐根喂给调度器，观察报价与模拟成交。
// 用法：
//
//	go run ./cmd/replay -config configs/config.yaml -candles data/eth_1m.csv -out cycles.csv
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	candlePath := flag.String("candles", "data/candles.csv", "K 线 CSV，列: open,high,low,close")
	outPath := flag.String("out", "", "若指定则写入每周期明细 CSV")
	baseBalance := flag.Float64("baseBalance", 1, "基础资产初始余额")
	quoteBalance := flag.Float64("quoteBalance", 10000, "计价资产初始余额")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	bars, err := loadCandles(*candlePath)
	if err != nil {
		log.Fatalf("读取 K 线失败: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("K 线文件为空: %s", *candlePath)
	}

	base, quote, ok := splitPair(cfg.Pair)
	if !ok {
		log.Fatalf("无法解析交易对: %s", cfg.Pair)
	}

	barPeriod := time.Duration(cfg.BarPeriodSeconds) * time.Second
	paper := gateway.NewPaper(base, quote, barPeriod, len(bars)+8)
	paper.Deposit(base, *baseBalance)
	paper.Deposit(quote, *quoteBalance)

	builder, err := newBuilder(cfg)
	if err != nil {
		log.Fatalf("初始化策略失败: %v", err)
	}

	refresh := time.Duration(cfg.RefreshSeconds) * time.Second
	sched, err := scheduler.New(scheduler.Config{
		Instrument:      cfg.Pair,
		BaseAsset:       base,
		QuoteAsset:      quote,
		RefreshInterval: refresh,
		PriceType:       gateway.PriceType(cfg.PriceType),
		BarPeriod:       barPeriod,
		BarCount:        requiredBars(cfg),
		MaxInventoryPct: cfg.MaxInventoryPct,
		MinOrderSize:    cfg.MinOrderSize,
		OrderAmount:     cfg.OrderAmount,
	}, paper, builder, zlog)
	if err != nil {
		log.Fatalf("初始化调度器失败: %v", err)
	}

	clock := &replayClock{now: time.Unix(0, 0)}
	sched.SetClock(clock)

	fills := 0
	paper.SetOnFill(func(f gateway.Fill) {
		fills++
		sched.OnFilled(f)
	})

	var records [][]string
	var cycles, submitted, errCount int
	sched.SetCycleListener(func(r scheduler.CycleResult) {
		cycles++
		submitted += r.Submitted
		errCount += len(r.Errs)
		records = append(records, []string{
			strconv.Itoa(cycles),
			fmt.Sprintf("%.6f", r.RefPrice),
			fmt.Sprintf("%.6f", r.Report.Signal),
			fmt.Sprintf("%.6f", r.Report.BidSpread),
			fmt.Sprintf("%.6f", r.Report.AskSpread),
			fmt.Sprintf("%.6f", r.Report.BuySize),
			fmt.Sprintf("%.6f", r.Report.SellSize),
			strconv.Itoa(r.Submitted),
			strconv.Itoa(len(r.Errs)),
		})
	})

	initialEquity := *baseBalance*bars[0].Close + *quoteBalance
	for _, bar := range bars {
		// 先用当前 K 线区间撮合上一周期留下的挂单
		crossFills(paper, bar)
		paper.PushKline(bar)
		paper.OnBookTicker(cfg.Pair, bar.Close, bar.Close)
		clock.advance(refresh)
		sched.OnTick()
	}

	lastClose := bars[len(bars)-1].Close
	finalEquity := paper.AvailableBalance(base)*lastClose + paper.AvailableBalance(quote)
	log.Printf("bars=%d cycles=%d submitted=%d fills=%d errors=%d equity %.2f -> %.2f (%.4f%%)",
		len(bars), cycles, submitted, fills, errCount,
		initialEquity, finalEquity, (finalEquity-initialEquity)/initialEquity*100)

	if *outPath != "" {
		if err := writeCycleCSV(*outPath, records); err != nil {
			log.Printf("写入明细 CSV 失败: %v", err)
		} else {
			log.Printf("已写入明细: %s", *outPath)
		}
	}
}

type replayClock struct{ now time.Time }

func (c *replayClock) Now() time.Time          { return c.now }
func (c *replayClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// crossFills 用一根 K 线的高低区间撮合当前挂单：
// 买单在 low 触及时成交，卖单在 high 触及时成交。
func crossFills(paper *gateway.Paper, bar market.Kline) {
	for _, o := range paper.OpenOrders() {
		switch {
		case o.Side == strategy.SideBuy && bar.Low <= o.Price:
			_ = paper.SimulateFill(o.ID)
		case o.Side == strategy.SideSell && bar.High >= o.Price:
			_ = paper.SimulateFill(o.ID)
		}
	}
}

func splitPair(pair string) (base, quote string, ok bool) {
	parts := strings.SplitN(pair, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

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

// loadCandles 读取 open,high,low,close 四列 CSV；无法解析的行（表头等）跳过。
func loadCandles(path string) ([]market.Kline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]market.Kline, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		o, err1 := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		h, err2 := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		l, err3 := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		c, err4 := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		out = append(out, market.Kline{Open: o, High: h, Low: l, Close: c})
	}
	return out, nil
}

func writeCycleCSV(path string, records [][]string) error {
	if len(records) == 0 {
		return fmt.Errorf("no cycle data")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	header := []string{"cycle", "refPrice", "signal", "bidSpread", "askSpread", "buySize", "sellSize", "submitted", "errors"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
