package deep

import (
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
)

// PriceAction 衡量 20 日趋势效率与区间位置。
// efficiency = |净移动| / Σ|逐日移动|，干净 >0.7，纠结 <0.3。
type PriceAction struct {
	Efficiency    float64
	Clean         bool
	Choppy        bool
	NearRangeHigh bool
	NearRangeLow  bool
}

const actionWindow = 20

func analyzePriceAction(bars []market.Bar) PriceAction {
	out := PriceAction{}
	if len(bars) < actionWindow+1 {
		return out
	}
	closes := market.Closes(market.Tail(bars, actionWindow+1))
	net := math.Abs(closes[len(closes)-1] - closes[0])
	var travel float64
	for i := 1; i < len(closes); i++ {
		travel += math.Abs(closes[i] - closes[i-1])
	}
	out.Efficiency = convert.Clamp(convert.SafeDiv(net, travel), 0, 1)
	out.Clean = out.Efficiency > 0.7
	out.Choppy = out.Efficiency < 0.3

	window := market.Tail(bars, actionWindow)
	hi, lo := window[0].High, window[0].Low
	for _, b := range window {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	if hi > lo {
		pos := (bars[len(bars)-1].Close - lo) / (hi - lo)
		out.NearRangeHigh = pos >= 0.8
		out.NearRangeLow = pos <= 0.2
	}
	return out
}
