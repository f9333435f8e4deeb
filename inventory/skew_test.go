package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFractionBalanced(t *testing.T) {
	// 1 ETH @ 2000 + 2000 USDT -> 0.5
	assert.Equal(t, 0.5, Fraction(1, 2000, 2000))
}

func TestFractionNoCapitalIsNeutral(t *testing.T) {
	assert.Equal(t, 0.5, Fraction(0, 0, 2000))
	assert.Equal(t, 0.5, Fraction(0, 0, 0))
	// 负余额导致总市值为负同样按中性处理
	assert.Equal(t, 0.5, Fraction(-1, 100, 200))
}

func TestFractionAllBase(t *testing.T) {
	assert.Equal(t, 1.0, Fraction(2, 0, 100))
	assert.Equal(t, 0.0, Fraction(0, 500, 100))
}

func TestSkewBalancedZoneNoCorrection(t *testing.T) {
	s := ComputeSkew(1, 2000, 2000, 0.6, 0.001, 0.01)
	assert.Equal(t, 1.0, s.BuyMult)
	assert.Equal(t, 1.0, s.SellMult)
	assert.Equal(t, 0.5, s.Fraction)
}

func TestSkewShrinksBuyWhenOverexposed(t *testing.T) {
	// fraction=0.7, maxPct=0.5 -> buy 乘数 1-(0.2*2)=0.6
	s := ComputeSkew(7, 3000, 1000, 0.5, 0.001, 0.01)
	assert.InDelta(t, 0.7, s.Fraction, 1e-12)
	assert.InDelta(t, 0.6, s.BuyMult, 1e-12)
	assert.Equal(t, 1.0, s.SellMult)
}

func TestSkewShrinksSellWhenUnderexposed(t *testing.T) {
	// fraction=0.3, maxPct=0.5 -> sell 乘数 1-(0.2*2)=0.6
	s := ComputeSkew(3, 7000, 1000, 0.5, 0.001, 0.01)
	assert.InDelta(t, 0.3, s.Fraction, 1e-12)
	assert.Equal(t, 1.0, s.BuyMult)
	assert.InDelta(t, 0.6, s.SellMult, 1e-12)
}

func TestSkewFloorNeverZeroOrNegative(t *testing.T) {
	// fraction=1.0, maxPct=0.5 -> 原始乘数 1-(0.5*2)=0，必须被地板托住
	s := ComputeSkew(10, 0, 1000, 0.5, 0.001, 0.01)
	assert.Equal(t, 1.0, s.Fraction)
	assert.InDelta(t, 0.1, s.BuyMult, 1e-12) // floor/base = 0.001/0.01
	assert.Greater(t, s.BuyMult*0.01, 0.0)
	assert.GreaterOrEqual(t, s.BuyMult*0.01, 0.001)
}

func TestSkewMultipliersWithinUnitInterval(t *testing.T) {
	for _, frac := range []struct{ base, quote float64 }{
		{0, 1000}, {1, 9000}, {5, 5000}, {9, 1000}, {10, 0},
	} {
		s := ComputeSkew(frac.base, frac.quote, 1000, 0.5, 0.001, 0.01)
		assert.Greater(t, s.BuyMult, 0.0)
		assert.LessOrEqual(t, s.BuyMult, 1.0)
		assert.Greater(t, s.SellMult, 0.0)
		assert.LessOrEqual(t, s.SellMult, 1.0)
		// 同一周期内只会压缩一侧
		assert.True(t, s.BuyMult == 1 || s.SellMult == 1)
	}
}
