package alert

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureChannel struct {
	name string
	sent []Alert
	fail error
}

func (c *captureChannel) Name() string { return c.name }

func (c *captureChannel) Send(a Alert) error {
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, a)
	return nil
}

func TestThrottlerAllowsFirstAndBlocksRepeat(t *testing.T) {
	th := NewThrottler(time.Minute)
	assert.True(t, th.Allow("k"))
	assert.False(t, th.Allow("k"))
	assert.True(t, th.Allow("other"))
}

func TestManagerFansOut(t *testing.T) {
	a := &captureChannel{name: "a"}
	b := &captureChannel{name: "b"}
	m := NewManager([]Channel{a, b}, time.Minute)

	assert.NoError(t, m.NotifyInfo("BUY 0.01 ETH-USDT @ 2000.00"))
	assert.Len(t, a.sent, 1)
	assert.Len(t, b.sent, 1)
	assert.False(t, a.sent[0].Timestamp.IsZero())
}

func TestManagerThrottlesDuplicates(t *testing.T) {
	a := &captureChannel{name: "a"}
	m := NewManager([]Channel{a}, time.Minute)

	assert.NoError(t, m.NotifyWarning("fetch failed"))
	assert.NoError(t, m.NotifyWarning("fetch failed"))
	assert.Len(t, a.sent, 1)
}

func TestManagerReturnsErrorWhenAllChannelsFail(t *testing.T) {
	bad := &captureChannel{name: "bad", fail: errors.New("down")}
	m := NewManager([]Channel{bad}, time.Minute)
	assert.Error(t, m.NotifyInfo("x"))

	// 有任一通道成功则不报错
	good := &captureChannel{name: "good"}
	m.AddChannel(good)
	assert.NoError(t, m.NotifyInfo("y"))
	assert.Len(t, good.sent, 1)
}
