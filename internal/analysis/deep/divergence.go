package deep

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// Divergence 检测隐性背离：价格 vs 5 日动量在最近两个摆动枢轴上的分歧。
type Divergence struct {
	HiddenBullish bool
	HiddenBearish bool
}

const pivotSpan = 2 // 5-bar pivot: 中心两侧各 2 根

func analyzeDivergence(bars []market.Bar) Divergence {
	out := Divergence{}
	if len(bars) < 15 {
		return out
	}
	lows := market.Lows(bars)
	highs := market.Highs(bars)
	closes := market.Closes(bars)

	momentum := func(i int) float64 {
		if i < 5 {
			return 0
		}
		return closes[i] - closes[i-5]
	}

	// 隐性看涨：价格抬高低点，动量却走低（回调中的强势延续信号）
	if p1, p2, ok := lastTwoPivots(lows, true); ok {
		if lows[p2] > lows[p1] && momentum(p2) < momentum(p1) {
			out.HiddenBullish = true
		}
	}
	// 隐性看跌：价格压低高点，动量却走高
	if p1, p2, ok := lastTwoPivots(highs, false); ok {
		if highs[p2] < highs[p1] && momentum(p2) > momentum(p1) {
			out.HiddenBearish = true
		}
	}
	return out
}

// lastTwoPivots 返回最近两个 5 根摆动枢轴下标（p1 较旧）。
func lastTwoPivots(series []float64, wantLow bool) (p1, p2 int, ok bool) {
	pivots := make([]int, 0, 8)
	for i := pivotSpan; i < len(series)-pivotSpan; i++ {
		isPivot := true
		for j := i - pivotSpan; j <= i+pivotSpan; j++ {
			if j == i {
				continue
			}
			if wantLow && series[j] < series[i] {
				isPivot = false
				break
			}
			if !wantLow && series[j] > series[i] {
				isPivot = false
				break
			}
		}
		if isPivot {
			pivots = append(pivots, i)
		}
	}
	if len(pivots) < 2 {
		return 0, 0, false
	}
	return pivots[len(pivots)-2], pivots[len(pivots)-1], true
}
