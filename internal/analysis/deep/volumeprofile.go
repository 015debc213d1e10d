package deep

import (
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// VolumeProfile 用 0.5% 宽的价格桶统计成交量分布，找出 POC。
type VolumeProfile struct {
	POC     float64
	Rising  bool
	Falling bool
}

const (
	profileWindow  = 30
	bucketWidthPct = 0.005
)

func analyzeVolumeProfile(bars []market.Bar) VolumeProfile {
	out := VolumeProfile{}
	window := market.Tail(bars, profileWindow)
	if len(window) < 10 {
		return out
	}
	ref := window[0].Close
	if ref <= 0 {
		return out
	}
	width := ref * bucketWidthPct

	out.POC = pocOf(window, width)

	// POC 的走向：后半窗口的 POC 对比前半，再参照近 5 日均价确认方向。
	half := len(window) / 2
	older := pocOf(window[:half], width)
	recent := pocOf(window[half:], width)
	var closeSum float64
	tail := market.Tail(window, 5)
	for _, b := range tail {
		closeSum += b.Close
	}
	recentAvg := closeSum / float64(len(tail))
	if recent > older*1.002 && recent <= recentAvg*1.02 {
		out.Rising = true
	}
	if recent < older*0.998 && recent >= recentAvg*0.90 {
		out.Falling = true
	}
	return out
}

func pocOf(bars []market.Bar, width float64) float64 {
	if len(bars) == 0 || width <= 0 {
		return 0
	}
	buckets := make(map[int]float64)
	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		key := int(math.Floor(typical / width))
		buckets[key] += b.Volume
	}
	bestKey, bestVol := 0, -1.0
	for k, v := range buckets {
		if v > bestVol || (v == bestVol && k < bestKey) {
			bestKey, bestVol = k, v
		}
	}
	return (float64(bestKey) + 0.5) * width
}
