package deep

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
)

const (
	orderFlowWindow    = 10
	imbalanceThreshold = 0.2
)

// OrderFlow 用收盘在区间中的位置近似每根K线的主动买卖量差。
type OrderFlow struct {
	Imbalance       float64
	BuyingPressure  bool
	SellingPressure bool
	Absorption      bool
}

func analyzeOrderFlow(bars []market.Bar) OrderFlow {
	window := market.Tail(bars, orderFlowWindow)
	if len(window) == 0 {
		return OrderFlow{}
	}
	var delta, total float64
	for _, b := range window {
		pos := 0.5
		if rng := b.Range(); rng > 0 {
			pos = (b.Close - b.Low) / rng
		}
		delta += b.Volume * (2*pos - 1)
		total += b.Volume
	}
	imbalance := 0.0
	if total > 0 {
		imbalance = convert.SafeDiv(delta, total)
	}
	return OrderFlow{
		Imbalance:       imbalance,
		BuyingPressure:  imbalance > imbalanceThreshold,
		SellingPressure: imbalance < -imbalanceThreshold,
		Absorption:      detectAbsorption(bars),
	}
}

// detectAbsorption: 连续出现高量但波幅被压缩的K线，说明大单在吸筹或派发。
func detectAbsorption(bars []market.Bar) bool {
	if len(bars) < orderFlowWindow {
		return false
	}
	var avgVol, avgRange float64
	ref := market.Tail(bars, orderFlowWindow)
	for _, b := range ref {
		avgVol += b.Volume
		avgRange += b.Range()
	}
	avgVol /= float64(len(ref))
	avgRange /= float64(len(ref))
	if avgVol <= 0 || avgRange <= 0 {
		return false
	}
	hits := 0
	for _, b := range market.Tail(bars, 5) {
		if b.Volume >= 1.5*avgVol && b.Range() <= 0.6*avgRange {
			hits++
		}
	}
	return hits >= 2
}
