package playbook

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/signal"
)

func engineCfg() *config.EngineConfig {
	cfg := config.DefaultEngine()
	return &cfg
}

// coilBars 构造蓄势突破场景：横盘 → 冲高留下 110 阻力 →
// 在阻力下方约一个 ATR 处收出 10 根平坦基底 → 放量突破。
func coilBars() []market.Bar {
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 0, 31)
	day := 0
	add := func(o, h, l, c, v float64) {
		bars = append(bars, market.Bar{
			Date: base.AddDate(0, 0, day), Open: o, High: h, Low: l, Close: c, Volume: v,
		})
		day++
	}
	for i := 0; i < 20; i++ {
		add(100, 101, 99, 100, 1000)
	}
	add(100, 110, 100, 107.5, 1400) // 冲高，留下 110 枢轴
	for i := 0; i < 10; i++ {
		add(108.2, 108.4, 107.6, 107.8, 950) // 平坦基底
	}
	add(108.2, 110.5, 108, 110.2, 1500) // 突破：收在 110 上方 0.1×ATR
	return bars
}

func TestCoilReadyWithThrust(t *testing.T) {
	c := signal.BuildContext(coilBars(), nil, nil)
	require.NotNil(t, c)
	s := Coil{}.Detect(c, engineCfg())
	require.True(t, s.Ready, "reason: %s", s.Reason)
	assert.Less(t, s.InitialStop, s.EntryTrigger)
	assert.Less(t, s.EntryTrigger, s.FirstTarget)
	assert.GreaterOrEqual(t, s.RR, 1.35)
	assert.NotEmpty(t, s.Diagnostics)
}

func TestCoilRespectsTickSize(t *testing.T) {
	cfg := engineCfg()
	cfg.Playbook.TickSize = 0.05

	c := signal.BuildContext(coilBars(), nil, nil)
	require.NotNil(t, c)
	s := Coil{}.Detect(c, cfg)
	require.True(t, s.Ready, "reason: %s", s.Reason)
	for _, v := range []float64{s.EntryTrigger, s.InitialStop, s.FirstTarget} {
		steps := v / 0.05
		assert.InDelta(t, math.Round(steps), steps, 1e-6, "level %.4f off the 0.05 grid", v)
	}
}

func TestCoilRejectsFarFromResistance(t *testing.T) {
	bars := coilBars()
	// 把最后的突破换成远离阻力的阴线
	last := &bars[len(bars)-1]
	last.Open, last.High, last.Low, last.Close = 101, 101.5, 99.5, 100
	c := signal.BuildContext(bars, nil, nil)
	s := Coil{}.Detect(c, engineCfg())
	assert.False(t, s.Ready)
	assert.NotEmpty(t, s.Reason)
}

func TestCoilInsufficientBars(t *testing.T) {
	bars := coilBars()[:10]
	c := signal.BuildContext(bars, nil, nil)
	s := Coil{}.Detect(c, engineCfg())
	assert.False(t, s.Ready)
	assert.Contains(t, s.Reason, "insufficient")
}

// probationBars 构造回踩救援场景：稳步上行后小幅回调，
// 当日收复昨日高点。
func probationBars() []market.Bar {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 0, 90)
	c := 100.0
	for i := 0; i < 86; i++ {
		c += 0.4
		bars = append(bars, market.Bar{
			Date: base.AddDate(0, 0, i),
			Open: c - 0.2, High: c + 0.6, Low: c - 0.6, Close: c, Volume: 1000,
		})
	}
	// 三天小回调
	for i := 0; i < 3; i++ {
		c -= 0.5
		bars = append(bars, market.Bar{
			Date: base.AddDate(0, 0, 86+i),
			Open: c + 0.3, High: c + 0.7, Low: c - 0.4, Close: c, Volume: 900,
		})
	}
	// 当日收复昨日高点
	prevHigh := bars[len(bars)-1].High
	bars = append(bars, market.Bar{
		Date: base.AddDate(0, 0, 89),
		Open: c, High: prevHigh + 1.2, Low: c - 0.2, Close: prevHigh + 1.0, Volume: 1100,
	})
	return bars
}

func TestProbationReady(t *testing.T) {
	bars := probationBars()
	price := bars[len(bars)-1].Close
	snap := &market.Snapshot{CurrentPrice: price, RSI14: 55, MA25: price - 1}
	c := signal.BuildContext(bars, snap, nil)
	require.NotNil(t, c)
	s := Probation{}.Detect(c, engineCfg())
	require.True(t, s.Ready, "reason: %s", s.Reason)
	assert.Less(t, s.InitialStop, s.EntryTrigger)
	assert.Greater(t, s.FirstTarget, s.EntryTrigger)
}

func TestProbationRejectsHotRSI(t *testing.T) {
	bars := probationBars()
	price := bars[len(bars)-1].Close
	snap := &market.Snapshot{CurrentPrice: price, RSI14: 70, MA25: price - 1}
	c := signal.BuildContext(bars, snap, nil)
	s := Probation{}.Detect(c, engineCfg())
	assert.False(t, s.Ready)
	assert.Contains(t, s.Reason, "rsi")
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }
func (panicky) Detect(*signal.Context, *config.EngineConfig) Setup {
	panic("boom")
}

func TestSafeDetectConvertsPanic(t *testing.T) {
	s := safeDetect(panicky{}, nil, engineCfg())
	assert.False(t, s.Ready)
	assert.Contains(t, s.Reason, "boom")
}

func TestEvaluateNoSetup(t *testing.T) {
	bars := coilBars()[:5]
	c := signal.BuildContext(bars, nil, nil)
	s := Evaluate(c, engineCfg())
	assert.False(t, s.Ready)
	assert.Equal(t, "no playbook setup", s.Reason)
}
