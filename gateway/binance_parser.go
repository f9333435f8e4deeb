package gateway

import (
	"encoding/json"
	"strings"
	"time"
)

// combinedMessage 对应 binance combined stream 包装。
type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// BookTicker 提取 bookTicker 消息的核心字段。
type BookTicker struct {
	Symbol   string
	BidPrice float64
	AskPrice float64
}

// AggTrade 提取 aggTrade 消息的核心字段。
type AggTrade struct {
	Symbol   string
	Price    float64
	Quantity float64
	Ts       time.Time
}

type rawBookTicker struct {
	Symbol string      `json:"s"`
	Bid    json.Number `json:"b"`
	Ask    json.Number `json:"a"`
}

type rawAggTrade struct {
	Event    string      `json:"e"`
	Symbol   string      `json:"s"`
	Price    json.Number `json:"p"`
	Quantity json.Number `json:"q"`
	TradeTs  int64       `json:"T"`
}

// ParseBookTicker 解析 combined stream 的 bookTicker 消息。
func ParseBookTicker(raw []byte) (BookTicker, bool) {
	var msg combinedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return BookTicker{}, false
	}
	if !strings.HasSuffix(msg.Stream, "@bookTicker") {
		return BookTicker{}, false
	}
	var data rawBookTicker
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return BookTicker{}, false
	}
	bid, _ := data.Bid.Float64()
	ask, _ := data.Ask.Float64()
	return BookTicker{Symbol: data.Symbol, BidPrice: bid, AskPrice: ask}, true
}

// ParseAggTrade 解析 combined stream 的 aggTrade 消息。
func ParseAggTrade(raw []byte) (AggTrade, bool) {
	var msg combinedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return AggTrade{}, false
	}
	if !strings.HasSuffix(msg.Stream, "@aggTrade") {
		return AggTrade{}, false
	}
	var data rawAggTrade
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.Event != "aggTrade" {
		return AggTrade{}, false
	}
	price, _ := data.Price.Float64()
	qty, _ := data.Quantity.Float64()
	return AggTrade{
		Symbol:   data.Symbol,
		Price:    price,
		Quantity: qty,
		Ts:       time.UnixMilli(data.TradeTs),
	}, true
}
