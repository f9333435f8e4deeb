package market

import (
	"testing"
	"time"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Push(Kline{Close: float64(i)})
	}
	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	bars := h.Bars()
	if bars[0].Close != 3 || bars[2].Close != 5 {
		t.Fatalf("unexpected window: %+v", bars)
	}
	if h.LastClose() != 5 {
		t.Fatalf("last close = %f", h.LastClose())
	}
}

func TestHistoryBarsIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Push(Kline{Close: 1})
	bars := h.Bars()
	bars[0].Close = 99
	if h.LastClose() != 1 {
		t.Fatalf("internal buffer mutated")
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(4)
	if h.LastClose() != 0 {
		t.Fatalf("empty last close should be 0")
	}
	if len(h.Bars()) != 0 {
		t.Fatalf("empty bars should be empty")
	}
}

func TestKlineAggregatorClosesOnInterval(t *testing.T) {
	agg := NewKlineAggregator(time.Minute)
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if closed := agg.OnPrice(100, t0); closed != nil {
		t.Fatalf("first price should not close a kline")
	}
	agg.OnPrice(105, t0.Add(10*time.Second))
	agg.OnPrice(98, t0.Add(30*time.Second))

	closed := agg.OnPrice(101, t0.Add(time.Minute))
	if closed == nil {
		t.Fatalf("expected closed kline at interval boundary")
	}
	if closed.Open != 100 || closed.High != 105 || closed.Low != 98 || closed.Close != 98 {
		t.Fatalf("unexpected closed kline: %+v", closed)
	}
}
