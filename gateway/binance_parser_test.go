package gateway

import (
	"testing"
	"time"
)

func TestParseBookTicker(t *testing.T) {
	raw := []byte(`{"stream":"ethusdt@bookTicker","data":{"u":400900217,"s":"ETHUSDT","b":"2000.10","B":"31.2","a":"2000.30","A":"40.6"}}`)
	tick, ok := ParseBookTicker(raw)
	if !ok {
		t.Fatalf("expected bookTicker to parse")
	}
	if tick.Symbol != "ETHUSDT" {
		t.Fatalf("symbol = %s", tick.Symbol)
	}
	if tick.BidPrice != 2000.10 || tick.AskPrice != 2000.30 {
		t.Fatalf("bid/ask = %f/%f", tick.BidPrice, tick.AskPrice)
	}
}

func TestParseBookTickerRejectsOtherStreams(t *testing.T) {
	raw := []byte(`{"stream":"ethusdt@aggTrade","data":{}}`)
	if _, ok := ParseBookTicker(raw); ok {
		t.Fatalf("aggTrade stream should not parse as bookTicker")
	}
	if _, ok := ParseBookTicker([]byte(`not json`)); ok {
		t.Fatalf("garbage should not parse")
	}
}

func TestParseAggTrade(t *testing.T) {
	raw := []byte(`{"stream":"ethusdt@aggTrade","data":{"e":"aggTrade","s":"ETHUSDT","p":"2001.55","q":"0.25","T":1714550400000}}`)
	trade, ok := ParseAggTrade(raw)
	if !ok {
		t.Fatalf("expected aggTrade to parse")
	}
	if trade.Price != 2001.55 || trade.Quantity != 0.25 {
		t.Fatalf("price/qty = %f/%f", trade.Price, trade.Quantity)
	}
	if !trade.Ts.Equal(time.UnixMilli(1714550400000)) {
		t.Fatalf("ts = %v", trade.Ts)
	}
}
