package gateway

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// BinanceSpotWSEndpoint 现货 combined stream 入口。
const BinanceSpotWSEndpoint = "wss://stream.binance.com:9443"

// FeedHandler 接收行情推送；Paper 连接器直接实现它。
type FeedHandler interface {
	OnBookTicker(instrument string, bid, ask float64)
	OnTrade(instrument string, price, qty float64, ts time.Time)
}

// BinanceFeed 订阅 bookTicker/aggTrade 并连接真实 WS。
// 只负责行情输入（参考价与 K 线原料）；下单通道不在本仓库范围内。
type BinanceFeed struct {
	BaseEndpoint string
	Dialer       *websocket.Dialer
	streams      []string

	onConnect    func()
	onDisconnect func(error)
}

func NewBinanceFeed() *BinanceFeed {
	return &BinanceFeed{
		BaseEndpoint: BinanceSpotWSEndpoint,
		Dialer:       websocket.DefaultDialer,
	}
}

// SubscribeBookTicker 订阅最优挂单流（mid 参考价来源）。
func (b *BinanceFeed) SubscribeBookTicker(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol required")
	}
	b.streams = append(b.streams, strings.ToLower(symbol)+"@bookTicker")
	return nil
}

// SubscribeTrades 订阅归集成交流（last 参考价与 K 线聚合来源）。
func (b *BinanceFeed) SubscribeTrades(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol required")
	}
	b.streams = append(b.streams, strings.ToLower(symbol)+"@aggTrade")
	return nil
}

func (b *BinanceFeed) OnConnect(fn func())         { b.onConnect = fn }
func (b *BinanceFeed) OnDisconnect(fn func(error)) { b.onDisconnect = fn }

// Run 连接 combined stream 并循环分发消息，连接断开时返回错误。
// 重连策略由调用方决定（下个周期重新 Run）。
func (b *BinanceFeed) Run(handler FeedHandler) error {
	if len(b.streams) == 0 {
		return fmt.Errorf("no streams subscribed")
	}
	u := url.URL{
		Scheme: "wss",
		Host:   strings.TrimPrefix(b.BaseEndpoint, "wss://"),
		Path:   "/stream",
	}
	q := u.Query()
	q.Set("streams", strings.Join(b.streams, "/"))
	u.RawQuery = q.Encode()

	conn, _, err := b.Dialer.Dial(u.String(), nil)
	if err != nil {
		if b.onDisconnect != nil {
			b.onDisconnect(err)
		}
		return err
	}
	defer conn.Close()
	if b.onConnect != nil {
		b.onConnect()
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if b.onDisconnect != nil {
				b.onDisconnect(err)
			}
			return err
		}
		dispatch(message, handler)
	}
}

func dispatch(raw []byte, handler FeedHandler) {
	if handler == nil {
		return
	}
	if tick, ok := ParseBookTicker(raw); ok {
		handler.OnBookTicker(tick.Symbol, tick.BidPrice, tick.AskPrice)
		return
	}
	if trade, ok := ParseAggTrade(raw); ok {
		handler.OnTrade(trade.Symbol, trade.Price, trade.Quantity, trade.Ts)
	}
}
