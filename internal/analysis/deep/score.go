package deep

import (
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
)

// 特征基础权重。组合加成与行情结构调整在此之上叠加。
const (
	wPressure   = 0.8
	wExhaustion = 0.5
	wAbsorption = 0.4
	wPOC        = 0.6
	wFlow       = 0.7
	wDivergence = 0.6
	wSpring     = 1.2
	wUpthrust   = 1.2
	wFailedBO   = 0.9
	wRetest     = 0.9
	wThreePush  = 0.8
	wExtended   = 0.5
	wParabolic  = 0.8
)

// scoreFeatures 把特征向量折算成 [-5, +5] 的看多/看空分。
func scoreFeatures(f FeatureSet, long LongRegime, short ShortRegime) float64 {
	var score float64

	if f.BuyingPressure {
		score += wPressure
	}
	if f.SellingPressure {
		score -= wPressure
	}
	if f.SellerExhaustion {
		score += wExhaustion
	}
	if f.BuyerExhaustion {
		score -= wExhaustion
	}
	// 吸收本身中性，方向看主动盘在哪一侧
	if f.Absorption && f.BuyingPressure {
		score += wAbsorption
	}
	if f.Absorption && f.SellingPressure {
		score -= wAbsorption
	}
	if f.POCRising {
		score += wPOC
	}
	if f.POCFalling {
		score -= wPOC
	}
	if f.Accumulating {
		score += wFlow
	}
	if f.Distributing {
		score -= wFlow
	}
	if f.HiddenBullish {
		score += wDivergence
	}
	if f.HiddenBearish {
		score -= wDivergence
	}
	if f.WyckoffSpring {
		score += wSpring
	}
	if f.WyckoffUpthrust {
		score -= wUpthrust
	}
	if f.FailedBreakout {
		score -= wFailedBO
	}
	if f.SuccessfulRetest {
		score += wRetest
	}
	if f.ThreePushesUp {
		score -= wThreePush
	}
	if f.Extended {
		score -= wExtended
	}
	if f.Parabolic {
		score -= wParabolic
	}
	if f.NearRangeHigh && f.CleanAction {
		score += 0.3
	}

	// 最强的多头组合：弹簧 + 买压 + 卖方衰竭
	if f.WyckoffSpring && f.BuyingPressure && f.SellerExhaustion {
		score += 1.5
	}
	// 最强的空头组合：三推衰竭 + 抛物线化
	if f.ThreePushesUp && f.Parabolic {
		score -= 1.5
	}
	if f.SuccessfulRetest && f.Accumulating {
		score += 0.8
	}
	if f.WyckoffUpthrust && f.Distributing {
		score -= 1.0
	}

	// 波动周期缩放：扩张初期顺势放大，压缩持续期整体收敛
	if score > 0 && f.Phase == PhaseExpansionStart && f.BuyingPressure && f.CleanAction {
		score *= 1.3
	}
	if f.Phase == PhaseCompressionOngoing {
		score *= 0.8
	}

	// 趋势质量闸门：干净度不够的多头分要打折
	if score > 0 && qualityCount(f, long) < 2 {
		score *= 0.6
	}

	// 长短周期交叉调整，只加一次
	score += regimeCrossAdjust(f, long, short)

	return convert.Clamp(score, -5, 5)
}

// qualityCount 统计趋势可信度条件的满足个数。
func qualityCount(f FeatureSet, long LongRegime) int {
	n := 0
	if f.CleanAction {
		n++
	}
	if f.HealthyADX {
		n++
	}
	if long.Label == LongTrending {
		n++
	}
	if f.Efficiency > 0.5 {
		n++
	}
	return n
}

func regimeCrossAdjust(f FeatureSet, long LongRegime, short ShortRegime) float64 {
	longDown := long.Label == LongTrending && long.Direction == DirDown
	switch {
	case longDown && short.Label == ShortDown:
		return -3.0 // 长短同跌，逆势做多代价最高
	case longDown && (short.Label == ShortStrongUp || short.Label == ShortUp):
		return 1.5 // 下跌趋势中的短线修复
	case long.Label == LongRangeBound && f.NearRangeLow:
		return 1.5
	case long.Label == LongRangeBound && f.NearRangeHigh:
		return -2.0
	}
	return 0
}

// tierFor 把分值映射到 1(最强多头)..7(最强空头) 七档。
// 行情结构先定基准档，分值再微调。
func tierFor(score float64, long LongRegime, short ShortRegime) int {
	base := 4.0
	switch {
	case long.Label == LongTrending && long.Direction == DirUp:
		switch short.Label {
		case ShortStrongUp, ShortUp:
			base = 2
		case ShortWeakUp:
			base = 3
		default:
			base = 4
		}
	case long.Label == LongTrending && long.Direction == DirDown:
		if short.Label == ShortDown || short.Label == ShortWeakUp {
			base = 6
		} else {
			base = 5
		}
	}

	switch {
	case score >= 2:
		base -= 1
	case score >= 0.5:
		base -= 0.5
	case score <= -2:
		base += 1
	case score <= -0.5:
		base += 0.5
	}
	tier := int(math.Round(base))
	if tier < 1 {
		tier = 1
	}
	if tier > 7 {
		tier = 7
	}
	return tier
}
