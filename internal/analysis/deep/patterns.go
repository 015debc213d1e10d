package deep

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// ChartPatterns 汇总经典形态检测结果。
type ChartPatterns struct {
	WyckoffSpring    bool
	WyckoffUpthrust  bool
	FailedBreakout   bool
	SuccessfulRetest bool
	ThreePushesUp    bool
}

func analyzePatterns(bars []market.Bar) ChartPatterns {
	return ChartPatterns{
		WyckoffSpring:    detectSpring(bars),
		WyckoffUpthrust:  detectUpthrust(bars),
		FailedBreakout:   detectFailedBreakout(bars),
		SuccessfulRetest: detectRetest(bars),
		ThreePushesUp:    detectThreePushes(bars),
	}
}

// detectSpring: 某根K线下破此前 15 根支撑 ≥1%，收盘收回支撑上方，
// 放量 ≥1.5×，且随后一根确认（最新收盘仍在支撑上方）。
func detectSpring(bars []market.Bar) bool {
	n := len(bars)
	if n < 18 {
		return false
	}
	last := bars[n-1]
	start := n - 5
	if start < 15 {
		start = 15
	}
	for i := start; i <= n-2; i++ {
		support := minLow(bars[i-15 : i])
		if support <= 0 {
			continue
		}
		b := bars[i]
		if b.Low >= support*0.99 { // 未达 1% 下破
			continue
		}
		if b.Close <= support {
			continue
		}
		if avg := avgVolumeBefore(bars, i, 20); avg <= 0 || b.Volume < 1.5*avg {
			continue
		}
		// 次日确认：价格守在支撑上方
		if bars[i+1].Close > support && last.Close > support {
			return true
		}
	}
	return false
}

// detectUpthrust: 盘中刺破 20 根阻力后收回其下，且放量。
func detectUpthrust(bars []market.Bar) bool {
	n := len(bars)
	if n < 23 {
		return false
	}
	for i := n - 3; i < n; i++ {
		if i < 20 {
			continue
		}
		resistance := maxHigh(bars[i-20 : i])
		b := bars[i]
		if b.High <= resistance || b.Close >= resistance {
			continue
		}
		if avg := avgVolumeBefore(bars, i, 20); avg > 0 && b.Volume >= 1.3*avg {
			return true
		}
	}
	return false
}

// detectFailedBreakout: 昨日收在阻力上方，今日跌回其下。
func detectFailedBreakout(bars []market.Bar) bool {
	n := len(bars)
	if n < 23 {
		return false
	}
	resistance := maxHigh(bars[n-22 : n-2])
	yesterday, today := bars[n-2], bars[n-1]
	return yesterday.Close > resistance && today.Close < resistance
}

// detectRetest: 近期明确突破阻力后，今日最低价回踩到阻力 ±0.3% 以内
// 且收盘仍明确在上方。
func detectRetest(bars []market.Bar) bool {
	n := len(bars)
	if n < 33 {
		return false
	}
	resistance := maxHigh(bars[n-28 : n-8])
	if resistance <= 0 {
		return false
	}
	brokeOut := false
	for _, b := range bars[n-8 : n-1] {
		if b.Close > resistance*1.005 {
			brokeOut = true
			break
		}
	}
	if !brokeOut {
		return false
	}
	today := bars[n-1]
	tagged := today.Low >= resistance*0.997 && today.Low <= resistance*1.003
	return tagged && today.Close > resistance*1.005
}

// detectThreePushes: 三个递升的摆动高点，但每次推升的幅度递减——
// 典型的上攻衰竭结构。
func detectThreePushes(bars []market.Bar) bool {
	highs := market.Highs(bars)
	pivots := make([]int, 0, 8)
	for i := pivotSpan; i < len(highs)-pivotSpan; i++ {
		isPivot := true
		for j := i - pivotSpan; j <= i+pivotSpan; j++ {
			if j != i && highs[j] > highs[i] {
				isPivot = false
				break
			}
		}
		if isPivot {
			pivots = append(pivots, i)
		}
	}
	if len(pivots) < 3 {
		return false
	}
	h1 := highs[pivots[len(pivots)-3]]
	h2 := highs[pivots[len(pivots)-2]]
	h3 := highs[pivots[len(pivots)-1]]
	return h3 > h2 && h2 > h1 && (h3-h2) < (h2-h1)
}

func minLow(bars []market.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	m := bars[0].Low
	for _, b := range bars {
		if b.Low < m {
			m = b.Low
		}
	}
	return m
}

func maxHigh(bars []market.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	m := bars[0].High
	for _, b := range bars {
		if b.High > m {
			m = b.High
		}
	}
	return m
}

// avgVolumeBefore 返回 bars[idx] 之前最多 period 根的平均量。
func avgVolumeBefore(bars []market.Bar, idx, period int) float64 {
	start := idx - period
	if start < 0 {
		start = 0
	}
	window := bars[start:idx]
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, b := range window {
		sum += b.Volume
	}
	return sum / float64(len(window))
}
