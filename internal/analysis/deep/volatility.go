package deep

import (
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/indicator"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
)

// CyclePhase 是两步波动率周期分类。
type CyclePhase string

const (
	PhaseCompressionStart   CyclePhase = "COMPRESSION_STARTING"
	PhaseCompressionOngoing CyclePhase = "COMPRESSION_ONGOING"
	PhaseExpansionStart     CyclePhase = "EXPANSION_STARTING"
	PhaseExpansionOngoing   CyclePhase = "EXPANSION_ONGOING"
	PhaseStable             CyclePhase = "STABLE"
)

// VolatilityRegime 对比当前 ATR 与窗口历史 ATR，并叠加布林带收口判定。
type VolatilityRegime struct {
	Ratio       float64
	Compression bool
	Expansion   bool
	Squeeze     bool
	Phase       CyclePhase
}

const (
	compressionRatio = 0.7
	expansionRatio   = 1.3
	squeezeWidthPct  = 5.0
	phaseLookback    = 5
)

func analyzeVolatility(bars []market.Bar) VolatilityRegime {
	out := VolatilityRegime{Phase: PhaseStable, Ratio: 1}
	if len(bars) < 20 {
		return out
	}
	highs := market.Highs(bars)
	lows := market.Lows(bars)
	closes := market.Closes(bars)

	historical := meanTrueRange(highs, lows, closes)
	current := indicator.Atr(highs, lows, closes, 14)
	out.Ratio = convert.Finite(convert.SafeDiv(current, historical), 1)
	out.Compression = out.Ratio < compressionRatio
	out.Expansion = out.Ratio > expansionRatio

	upper, mid, lower := indicator.Bollinger(closes, 20, 2)
	if mid > 0 {
		widthPct := (upper - lower) / mid * 100
		out.Squeeze = widthPct < squeezeWidthPct
	}

	// 两步分类：5 根之前的状态决定是"刚开始"还是"持续中"
	if len(bars) > phaseLookback+20 {
		cut := len(bars) - phaseLookback
		prev := convert.SafeDiv(
			indicator.Atr(highs[:cut], lows[:cut], closes[:cut], 14),
			historical,
		)
		prevCompression := prev < compressionRatio
		prevExpansion := prev > expansionRatio
		switch {
		case out.Expansion && !prevExpansion:
			out.Phase = PhaseExpansionStart
		case out.Expansion:
			out.Phase = PhaseExpansionOngoing
		case out.Compression && !prevCompression:
			out.Phase = PhaseCompressionStart
		case out.Compression:
			out.Phase = PhaseCompressionOngoing
		}
	} else if out.Expansion {
		out.Phase = PhaseExpansionStart
	} else if out.Compression {
		out.Phase = PhaseCompressionStart
	}
	return out
}

func meanTrueRange(highs, lows, closes []float64) float64 {
	n := len(closes)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < n; i++ {
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		sum += tr
	}
	return sum / float64(n-1)
}
