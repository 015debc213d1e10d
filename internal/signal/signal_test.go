package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

func engineCfg() *config.EngineConfig {
	cfg := config.DefaultEngine()
	return &cfg
}

func seriesBars(n int, close, vol float64) []market.Bar {
	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   close,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: vol,
		}
	}
	return bars
}

func TestBuildContext(t *testing.T) {
	assert.Nil(t, BuildContext([]market.Bar{}, nil, nil))

	bars := seriesBars(30, 100, 1000)
	bars[len(bars)-1].Close = 102
	bars[len(bars)-1].Volume = 3000
	c := BuildContext(bars, nil, nil)
	require.NotNil(t, c)
	assert.Equal(t, 102.0, c.Today.Close)
	assert.Equal(t, 100.0, c.Yesterday.Close)
	// 滚动均量不含当日
	assert.InDelta(t, 1000.0, c.AvgVolume20, 1e-9)
	assert.Equal(t, 1, c.ConsecUpDays)
}

func TestTrendReversal(t *testing.T) {
	bars := seriesBars(30, 99.5, 1000)
	bars[len(bars)-1].Close = 101
	bars[len(bars)-1].High = 101.5
	bars[len(bars)-1].Volume = 2000
	snap := &market.Snapshot{
		CurrentPrice: 101, MA5: 101, MA25: 100.5, MA75: 100,
		MACD: 0.5, MACDSignal: 0.1,
	}
	c := BuildContext(bars, snap, nil)
	r := trendReversal{}.Evaluate(c, engineCfg())
	require.True(t, r.Detected)
	assert.Equal(t, CategoryTrend, r.Category)
	assert.Equal(t, 3.0, r.Score)

	// 没有上穿就不触发
	snap.MA75 = 90
	r = trendReversal{}.Evaluate(c, engineCfg())
	assert.False(t, r.Detected)
}

func TestResistanceBreak(t *testing.T) {
	c := &Context{
		Resistance: 100,
		ATR:        2,
		Today:      market.Bar{Close: 100.8, High: 101, Low: 99, Open: 99.5},
		Yesterday:  market.Bar{Close: 99.5},
	}
	r := resistanceBreak{}.Evaluate(c, engineCfg())
	require.True(t, r.Detected)
	assert.Equal(t, 2.5, r.Score)

	// 阻力离昨收超过 3×ATR 视为追高
	c.Resistance = 106
	c.Today.Close = 107
	assert.False(t, resistanceBreak{}.Evaluate(c, engineCfg()).Detected)
}

func TestSqueezeBreakout(t *testing.T) {
	snap := &market.Snapshot{BollingerUpper: 101.5, BollingerMid: 100, BollingerLower: 98.6}
	c := &Context{Snapshot: snap, Today: market.Bar{Open: 100, High: 102.2, Low: 100, Close: 102}}
	require.True(t, squeezeBreakout{}.Evaluate(c, engineCfg()).Detected)

	// 带宽太宽不算收口
	snap.BollingerUpper = 104
	snap.BollingerLower = 96
	assert.False(t, squeezeBreakout{}.Evaluate(c, engineCfg()).Detected)
}

func TestHammer(t *testing.T) {
	cfg := engineCfg()
	c := &Context{Today: market.Bar{Open: 100, High: 100.6, Low: 97.5, Close: 100.5}}
	require.True(t, hammer{}.Evaluate(c, cfg).Detected)

	// 十字星排除
	c.Today = market.Bar{Open: 100, High: 101.5, Low: 98.5, Close: 100.01}
	assert.False(t, hammer{}.Evaluate(c, cfg).Detected)
}

func TestBullishEngulfing(t *testing.T) {
	c := &Context{
		Yesterday: market.Bar{Open: 101, High: 101.2, Low: 99.8, Close: 100},
		Today:     market.Bar{Open: 99.9, High: 101.6, Low: 99.7, Close: 101.4},
	}
	require.True(t, bullishEngulfing{}.Evaluate(c, engineCfg()).Detected)

	// 实体没有包住就不算
	c.Today.Close = 100.5
	c.Today.Open = 100.2
	assert.False(t, bullishEngulfing{}.Evaluate(c, engineCfg()).Detected)
}

func TestConsolidationBreakout(t *testing.T) {
	bars := seriesBars(20, 100, 1000)
	last := &bars[len(bars)-1]
	last.Close = 101.2 // 平台高点 100.5
	last.High = 101.4
	last.Volume = 1800
	c := BuildContext(bars, nil, nil)
	require.True(t, consolidationBreakout{}.Evaluate(c, engineCfg()).Detected)

	last.Volume = 1200 // 缩量突破不确认
	c = BuildContext(bars, nil, nil)
	assert.False(t, consolidationBreakout{}.Evaluate(c, engineCfg()).Detected)
}

func TestSupportBounce(t *testing.T) {
	c := &Context{
		Support:     98,
		ATR:         1.5,
		AvgVolume20: 1000,
		Today:       market.Bar{Open: 98.2, High: 99.8, Low: 97.9, Close: 99.5, Volume: 1500},
	}
	require.True(t, supportBounce{}.Evaluate(c, engineCfg()).Detected)

	c.Today.Volume = 1100 // 量能不足
	assert.False(t, supportBounce{}.Evaluate(c, engineCfg()).Detected)
}

func TestEntryTimingPass(t *testing.T) {
	cfg := engineCfg()
	c := &Context{Timing: &market.EntryTiming{Score: 1, Confidence: 0.5}}
	r := entryTimingPass{}.Evaluate(c, cfg)
	require.True(t, r.Detected)
	assert.Equal(t, CategoryEntry, r.Category)
	// 4.0 × 1.3 × (0.8 + 0.4×0.5)
	assert.InDelta(t, 5.2, r.Score, 1e-9)

	// 5 档及以上不触发直通
	c.Timing.Score = 5
	assert.False(t, entryTimingPass{}.Evaluate(c, cfg).Detected)
}

func TestDedupeWeightsAndCaps(t *testing.T) {
	cfg := engineCfg()
	hits := []Result{
		{Detected: true, Name: "a", Score: 3.0, Category: CategoryTrend},
		{Detected: true, Name: "b", Score: 2.5, Category: CategoryTrend},
	}

	// 无外部分析：权重 1，但类别封顶 4.5
	total, applied := Dedupe(hits, nil, cfg)
	assert.InDelta(t, 4.5, total, 1e-9)
	require.Len(t, applied, 2)

	// 强外部信号 + 满置信度：trend 压到 0.55
	timing := &market.EntryTiming{Score: 2, Confidence: 1.0}
	total, _ = Dedupe(hits, timing, cfg)
	assert.InDelta(t, 5.5*0.55, total, 1e-9)

	// entry 类别直通，不降权不封顶
	entry := []Result{{Detected: true, Name: "e", Score: 6.0, Category: CategoryEntry}}
	total, _ = Dedupe(entry, timing, cfg)
	assert.InDelta(t, 6.0, total, 1e-9)
}

func TestDedupePlaybookUncapped(t *testing.T) {
	cfg := engineCfg()
	hits := []Result{{Detected: true, Name: "coil_breakout", Score: cfg.Scores.Playbook, Category: CategoryPlaybook}}

	// 无外部分析：playbook 直通，不落入 other 封顶
	total, applied := Dedupe(hits, nil, cfg)
	require.Len(t, applied, 1)
	assert.InDelta(t, cfg.Scores.Playbook, total, 1e-9)
	assert.GreaterOrEqual(t, total, cfg.BuyThreshold)

	// 强外部信号满置信度也不降权
	total, _ = Dedupe(hits, &market.EntryTiming{Score: 2, Confidence: 1.0}, cfg)
	assert.InDelta(t, cfg.Scores.Playbook, total, 1e-9)
}

func TestDedupeNeverIncreasesTotal(t *testing.T) {
	cfg := engineCfg()
	hits := []Result{
		{Detected: true, Name: "a", Score: 3.0, Category: CategoryTrend},
		{Detected: true, Name: "b", Score: 2.5, Category: CategoryLevel},
		{Detected: true, Name: "c", Score: 2.2, Category: CategoryPullback},
		{Detected: true, Name: "d", Score: 1.5, Category: CategoryCandlestick},
		{Detected: true, Name: "e", Score: 5.0, Category: CategoryEntry},
	}
	var raw float64
	for _, h := range hits {
		raw += h.Score
	}
	for _, timing := range []*market.EntryTiming{
		nil,
		{Score: 1, Confidence: 0},
		{Score: 2, Confidence: 1},
		{Score: 3, Confidence: 0.5},
		{Score: 6, Confidence: 0.9},
	} {
		total, _ := Dedupe(hits, timing, cfg)
		assert.LessOrEqual(t, total, raw+1e-9)
	}
}
