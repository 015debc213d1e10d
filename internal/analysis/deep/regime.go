package deep

import (
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/indicator"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// 长周期（约一年）市场状态标签
type LongLabel string

const (
	LongTrending   LongLabel = "TRENDING"
	LongRangeBound LongLabel = "RANGE_BOUND"
	LongChoppy     LongLabel = "CHOPPY"
	LongUnknown    LongLabel = "UNKNOWN"
)

// 长周期趋势方向
type Direction string

const (
	DirUp   Direction = "UPTREND"
	DirDown Direction = "DOWNTREND"
	DirFlat Direction = "FLAT"
)

// 实现波动率档位
type VolTag string

const (
	VolLow    VolTag = "LOW"
	VolNormal VolTag = "NORMAL"
	VolHigh   VolTag = "HIGH"
)

// 短周期（均线排列）状态标签
type ShortLabel string

const (
	ShortStrongUp ShortLabel = "STRONG_UP"
	ShortUp       ShortLabel = "UP"
	ShortWeakUp   ShortLabel = "WEAK_UP"
	ShortDown     ShortLabel = "DOWN"
)

// LongRegime 描述长周期行情结构。
type LongRegime struct {
	Label      LongLabel
	Direction  Direction
	Strength   float64 // 趋势期为回归 R²
	Volatility VolTag
}

// ShortRegime 描述短周期均线排列状态。
type ShortRegime struct {
	Label ShortLabel
	Score int // 满足的均线排列条件数 0..4
}

// ClassifyLongRegime 用对数收盘价回归 + 年化波动率给长周期定性。
// 样本不足 60 根时返回 UNKNOWN。
func ClassifyLongRegime(bars []market.Bar) LongRegime {
	if len(bars) < minRegimeBars {
		return LongRegime{Label: LongUnknown, Direction: DirFlat, Volatility: VolNormal}
	}
	closes := market.Closes(market.Tail(bars, regimeWindow))
	vol := annualizedVol(closes)
	r := LongRegime{Volatility: volTag(vol), Direction: DirFlat}

	slope, r2 := indicator.LogRegression(closes)
	switch {
	case r2 > 0.4:
		r.Label = LongTrending
		r.Strength = r2
		if slope >= 0 {
			r.Direction = DirUp
		} else {
			r.Direction = DirDown
		}
	case vol < 0.25:
		r.Label = LongRangeBound
	default:
		r.Label = LongChoppy
	}
	return r
}

// ClassifyShortRegime 按价格与 MA5/MA25/MA75 的多头排列程度打分。
func ClassifyShortRegime(bars []market.Bar) ShortRegime {
	closes := market.Closes(bars)
	price := 0.0
	if len(closes) > 0 {
		price = closes[len(closes)-1]
	}
	ma5 := indicator.Sma(closes, 5)
	ma25 := indicator.Sma(closes, 25)
	ma75 := indicator.Sma(closes, 75)

	score := 0
	if price > ma5 && ma5 > 0 {
		score++
	}
	if ma5 > ma25 && ma25 > 0 {
		score++
	}
	if ma25 > ma75 && ma75 > 0 {
		score++
	}
	if price > ma75 && ma75 > 0 {
		score++
	}
	r := ShortRegime{Score: score}
	switch score {
	case 4:
		r.Label = ShortStrongUp
	case 3:
		r.Label = ShortUp
	case 2:
		r.Label = ShortWeakUp
	default:
		r.Label = ShortDown
	}
	return r
}

// annualizedVol 由日对数收益率推算年化波动。
func annualizedVol(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}
	if len(rets) < 2 {
		return 0
	}
	var mean float64
	for _, v := range rets {
		mean += v
	}
	mean /= float64(len(rets))
	var variance float64
	for _, v := range rets {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(rets) - 1)
	return math.Sqrt(variance) * math.Sqrt(252)
}

func volTag(v float64) VolTag {
	switch {
	case v < 0.15:
		return VolLow
	case v < 0.35:
		return VolNormal
	default:
		return VolHigh
	}
}
