package market

import "time"

// Kline represents OHLC data for one sampling period.
type Kline struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Ts    time.Time
}

// History is an ordered trailing buffer of Klines, oldest first.
// Capacity is fixed at construction; Push evicts the oldest bar.
type History struct {
	cap  int
	bars []Kline
}

// NewHistory creates a buffer retaining at most capacity bars.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		cap:  capacity,
		bars: make([]Kline, 0, capacity),
	}
}

// Push appends a bar, evicting the oldest if the buffer is full.
func (h *History) Push(k Kline) {
	h.bars = append(h.bars, k)
	if len(h.bars) > h.cap {
		h.bars = h.bars[1:]
	}
}

// Bars returns a copy of the buffered bars, oldest first.
func (h *History) Bars() []Kline {
	out := make([]Kline, len(h.bars))
	copy(out, h.bars)
	return out
}

// Len returns the number of buffered bars.
func (h *History) Len() int { return len(h.bars) }

// LastClose returns the most recent close, or 0 if empty.
func (h *History) LastClose() float64 {
	if len(h.bars) == 0 {
		return 0
	}
	return h.bars[len(h.bars)-1].Close
}
