package deep

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

func flatBars(n int, close float64, vol float64) []market.Bar {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: vol,
		}
	}
	return bars
}

func rampBars(n int, start, step float64) []market.Bar {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		c := start + step*float64(i)
		bars[i] = market.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   c - step/2,
			High:   c + step,
			Low:    c - step,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestAnalyzeInsufficientHistory(t *testing.T) {
	a := Analyze(flatBars(30, 100, 1000), nil)
	assert.True(t, a.InsufficientHistory)
	// 样本不足的基础置信度再乘以长周期 UNKNOWN 的 0.6 折扣
	assert.InDelta(t, 0.4*30.0/90.0*0.6, a.Confidence, 1e-9)

	a = Analyze(nil, nil)
	assert.True(t, a.InsufficientHistory)
	assert.Equal(t, 4, a.Tier)
}

func TestAnalyzeFullWindowConfidence(t *testing.T) {
	a := Analyze(rampBars(120, 100, 0.5), nil)
	assert.False(t, a.InsufficientHistory)
	assert.GreaterOrEqual(t, a.Tier, 1)
	assert.LessOrEqual(t, a.Tier, 7)
	assert.LessOrEqual(t, math.Abs(a.Score), 5.0)
}

func TestAnalyzeMomentumThresholds(t *testing.T) {
	bars := rampBars(120, 100, 0.5)

	loose := config.DefaultEngine()
	loose.Momentum.HealthyADX = 1
	strict := config.DefaultEngine()
	strict.Momentum.HealthyADX = 99
	assert.True(t, Analyze(bars, &loose).Trend.HealthyADX)
	assert.False(t, Analyze(bars, &strict).Trend.HealthyADX)

	// 纯上涨序列的 RSI 贴满，阈值决定持续强势占比
	low := config.DefaultEngine()
	low.Momentum.PersistenceRSI = 1
	high := config.DefaultEngine()
	high.Momentum.PersistenceRSI = 100
	assert.Equal(t, 1.0, Analyze(bars, &low).Trend.RSIPersistence)
	assert.Equal(t, 0.0, Analyze(bars, &high).Trend.RSIPersistence)
}

func TestDetectSpring(t *testing.T) {
	// 下破 15 日支撑 1.5%，收回支撑上方 2%，放量 2 倍，随后确认。
	bars := flatBars(20, 100, 1000) // 支撑 = 99
	base := bars[len(bars)-1].Date
	spring := market.Bar{
		Date:   base.AddDate(0, 0, 1),
		Open:   99.5,
		High:   101.2,
		Low:    99 * 0.985,
		Close:  99 * 1.02,
		Volume: 2000,
	}
	confirm := market.Bar{
		Date:   spring.Date.AddDate(0, 0, 1),
		Open:   100.5,
		High:   101,
		Low:    100,
		Close:  99 * 1.015,
		Volume: 1100,
	}
	bars = append(bars, spring, confirm)
	require.True(t, detectSpring(bars))

	// 缩量的下破不算弹簧
	bars[len(bars)-2].Volume = 900
	assert.False(t, detectSpring(bars))
}

func TestDetectUpthrust(t *testing.T) {
	bars := flatBars(25, 100, 1000) // 阻力 = 101
	base := bars[len(bars)-1].Date
	bars = append(bars, market.Bar{
		Date:   base.AddDate(0, 0, 1),
		Open:   100.5,
		High:   102.5, // 刺破 101
		Low:    99.8,
		Close:  100.2, // 收回阻力下方
		Volume: 1600,
	})
	assert.True(t, detectUpthrust(bars))
}

func TestDetectFailedBreakout(t *testing.T) {
	bars := flatBars(25, 100, 1000)
	base := bars[len(bars)-1].Date
	breakout := market.Bar{Date: base.AddDate(0, 0, 1), Open: 100.5, High: 102.5, Low: 100, Close: 102, Volume: 1500}
	collapse := market.Bar{Date: base.AddDate(0, 0, 2), Open: 101.8, High: 102, Low: 99.5, Close: 99.8, Volume: 1400}
	bars = append(bars, breakout, collapse)
	assert.True(t, detectFailedBreakout(bars))
}

func TestClassifyShortRegime(t *testing.T) {
	up := ClassifyShortRegime(rampBars(100, 50, 1))
	assert.Equal(t, ShortStrongUp, up.Label)
	assert.Equal(t, 4, up.Score)

	down := ClassifyShortRegime(rampBars(100, 200, -1))
	assert.Equal(t, ShortDown, down.Label)
}

func TestClassifyLongRegime(t *testing.T) {
	short := ClassifyLongRegime(flatBars(40, 100, 1000))
	assert.Equal(t, LongUnknown, short.Label)

	// 指数型上涨在对数坐标下是直线，R² 接近 1
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 150)
	for i := range bars {
		c := 100 * math.Pow(1.004, float64(i))
		bars[i] = market.Bar{Date: base.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000}
	}
	trend := ClassifyLongRegime(bars)
	assert.Equal(t, LongTrending, trend.Label)
	assert.Equal(t, DirUp, trend.Direction)
	assert.Greater(t, trend.Strength, 0.9)

	downBars := make([]market.Bar, 150)
	for i := range downBars {
		c := 200 * math.Pow(0.996, float64(i))
		downBars[i] = market.Bar{Date: base.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000}
	}
	downTrend := ClassifyLongRegime(downBars)
	assert.Equal(t, LongTrending, downTrend.Label)
	assert.Equal(t, DirDown, downTrend.Direction)
}

func TestScoreFeaturesBounded(t *testing.T) {
	bull := FeatureSet{
		BuyingPressure: true, SellerExhaustion: true, Absorption: true,
		POCRising: true, Accumulating: true, HiddenBullish: true,
		WyckoffSpring: true, SuccessfulRetest: true,
		CleanAction: true, Efficiency: 0.9, HealthyADX: true,
		Phase: PhaseExpansionStart,
	}
	long := LongRegime{Label: LongTrending, Direction: DirUp, Strength: 0.8}
	short := ShortRegime{Label: ShortStrongUp, Score: 4}
	s := scoreFeatures(bull, long, short)
	assert.Equal(t, 5.0, s)

	bear := FeatureSet{
		SellingPressure: true, BuyerExhaustion: true, Absorption: true,
		POCFalling: true, Distributing: true, HiddenBearish: true,
		WyckoffUpthrust: true, FailedBreakout: true, ThreePushesUp: true,
		Extended: true, Parabolic: true,
	}
	s = scoreFeatures(bear, LongRegime{Label: LongChoppy}, ShortRegime{Label: ShortDown})
	assert.Equal(t, -5.0, s)
}

func TestRegimeCrossAdjust(t *testing.T) {
	longDown := LongRegime{Label: LongTrending, Direction: DirDown}
	assert.Equal(t, -3.0, regimeCrossAdjust(FeatureSet{}, longDown, ShortRegime{Label: ShortDown}))
	assert.Equal(t, 1.5, regimeCrossAdjust(FeatureSet{}, longDown, ShortRegime{Label: ShortUp}))

	rb := LongRegime{Label: LongRangeBound}
	assert.Equal(t, 1.5, regimeCrossAdjust(FeatureSet{NearRangeLow: true}, rb, ShortRegime{}))
	assert.Equal(t, -2.0, regimeCrossAdjust(FeatureSet{NearRangeHigh: true}, rb, ShortRegime{}))
}

func TestTierFor(t *testing.T) {
	up := LongRegime{Label: LongTrending, Direction: DirUp}
	down := LongRegime{Label: LongTrending, Direction: DirDown}

	assert.Equal(t, 1, tierFor(3, up, ShortRegime{Label: ShortStrongUp}))
	assert.Equal(t, 2, tierFor(0, up, ShortRegime{Label: ShortUp}))
	assert.Equal(t, 7, tierFor(-3, down, ShortRegime{Label: ShortDown}))
	assert.Equal(t, 4, tierFor(0, LongRegime{Label: LongChoppy}, ShortRegime{Label: ShortWeakUp}))

	for s := -6.0; s <= 6.0; s += 0.5 {
		tier := tierFor(s, up, ShortRegime{Label: ShortDown})
		assert.GreaterOrEqual(t, tier, 1)
		assert.LessOrEqual(t, tier, 7)
	}
}

func TestAnalyzeOrderFlowDirection(t *testing.T) {
	// 收盘贴着最高价 → 买压
	bars := flatBars(20, 100, 1000)
	for i := range bars {
		bars[i].Close = bars[i].High
	}
	of := analyzeOrderFlow(bars)
	assert.True(t, of.BuyingPressure)
	assert.False(t, of.SellingPressure)

	for i := range bars {
		bars[i].Close = bars[i].Low
	}
	of = analyzeOrderFlow(bars)
	assert.True(t, of.SellingPressure)
}

func TestAnalyzePriceActionEfficiency(t *testing.T) {
	pa := analyzePriceAction(rampBars(30, 100, 1))
	assert.True(t, pa.Clean)
	assert.True(t, pa.NearRangeHigh)

	// 来回震荡：净位移为零
	bars := flatBars(30, 100, 1000)
	for i := range bars {
		if i%2 == 0 {
			bars[i].Close = 101
		} else {
			bars[i].Close = 99
		}
	}
	pa = analyzePriceAction(bars)
	assert.True(t, pa.Choppy)
}
