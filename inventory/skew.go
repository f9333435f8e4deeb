package inventory

// Skew 描述一次报价周期内买卖腿的数量修正。
// 被压缩一侧的乘数落在 (0,1]，另一侧恒为 1。
type Skew struct {
	BuyMult  float64
	SellMult float64
	Fraction float64 // 基础资产市值占组合总市值的比例 [0,1]
}

// Fraction 计算库存占比 (base*ref)/(base*ref+quote)。
// 总市值 <= 0 时返回 0.5（无资金按中性处理）。
func Fraction(baseBalance, quoteBalance, refPrice float64) float64 {
	baseValue := baseBalance * refPrice
	total := baseValue + quoteBalance
	if total <= 0 {
		return 0.5
	}
	return baseValue / total
}

// ComputeSkew 根据库存占比压缩超配一侧的下单数量。
// maxPct 要求 >= 0.5（config.Validate 保证），两个压缩区间互斥。
// floorSize 为最小可下单数量，压缩结果不会低于它。
func ComputeSkew(baseBalance, quoteBalance, refPrice, maxPct, floorSize, baseSize float64) Skew {
	s := Skew{
		BuyMult:  1,
		SellMult: 1,
		Fraction: Fraction(baseBalance, quoteBalance, refPrice),
	}
	switch {
	case s.Fraction > maxPct:
		// 基础资产超配：压缩买腿
		s.BuyMult = floorMult(1-(s.Fraction-maxPct)*2, floorSize, baseSize)
	case s.Fraction < 1-maxPct:
		// 计价资产超配：压缩卖腿
		s.SellMult = floorMult(1-((1-maxPct)-s.Fraction)*2, floorSize, baseSize)
	}
	return s
}

// floorMult 保证 mult*baseSize >= floorSize 且 mult > 0。
func floorMult(mult, floorSize, baseSize float64) float64 {
	if baseSize <= 0 {
		return 1
	}
	min := floorSize / baseSize
	if min > 1 {
		min = 1
	}
	if mult < min {
		return min
	}
	return mult
}
