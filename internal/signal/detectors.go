package signal

import (
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
)

// trendReversal: 收盘上穿 75 日均线，且至少两项佐证
// （均线多头排列 / MACD 金叉 / 放量 1.5 倍）。
type trendReversal struct{}

func (trendReversal) Meta() Meta {
	return Meta{Name: "trend reversal (MA75 reclaim)", Category: CategoryTrend}
}

func (d trendReversal) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	snap := c.Snapshot
	if snap == nil || snap.MA75 <= 0 {
		return miss()
	}
	crossed := c.Today.Close > snap.MA75 && c.Yesterday.Close <= snap.MA75
	if !crossed {
		return miss()
	}
	confirms := 0
	if snap.MA5 > snap.MA25 && snap.MA25 > snap.MA75 {
		confirms++
	}
	if snap.MACD > snap.MACDSignal {
		confirms++
	}
	if c.AvgVolume20 > 0 && c.Today.Volume >= 1.5*c.AvgVolume20 {
		confirms++
	}
	if confirms < 2 {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.TrendReversal)
}

// resistanceBreak: 收盘突破最近枢轴阻力，且该阻力离昨收不超过 3×ATR
// （太远的阻力突破通常已经追高）。
type resistanceBreak struct{}

func (resistanceBreak) Meta() Meta {
	return Meta{Name: "resistance break", Category: CategoryLevel}
}

func (d resistanceBreak) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	if c.Resistance <= 0 || c.ATR <= 0 {
		return miss()
	}
	if c.Today.Close <= c.Resistance {
		return miss()
	}
	if math.Abs(c.Resistance-c.Yesterday.Close) > 3*c.ATR {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.ResistanceBreak)
}

// squeezeBreakout: 布林带收口后收盘放出上轨。
type squeezeBreakout struct{}

func (squeezeBreakout) Meta() Meta {
	return Meta{Name: "volatility squeeze breakout", Category: CategoryTrend}
}

func (d squeezeBreakout) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	snap := c.Snapshot
	if snap == nil || snap.BollingerMid <= 0 || snap.BollingerUpper <= snap.BollingerLower {
		return miss()
	}
	widthPct := (snap.BollingerUpper - snap.BollingerLower) / snap.BollingerMid * 100
	if widthPct >= cfg.Squeeze.MaxWidthPct {
		return miss()
	}
	if c.Today.Close <= snap.BollingerUpper {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.SqueezeBreakout)
}

// pullbackEntry: 上升趋势中 3%~15% 的回调，踩到 25/50 日均线附近，
// 当日出现看涨反转K线。
type pullbackEntry struct{}

func (pullbackEntry) Meta() Meta {
	return Meta{Name: "pullback entry", Category: CategoryPullback}
}

func (d pullbackEntry) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	snap := c.Snapshot
	if snap == nil || snap.MA50 <= 0 {
		return miss()
	}
	price := c.Price()
	if price <= snap.MA50 { // 不在上升趋势里
		return miss()
	}
	if c.WindowHigh <= 0 {
		return miss()
	}
	depthPct := (c.WindowHigh - c.Yesterday.Low) / c.WindowHigh * 100
	if depthPct < cfg.Pullback.MinDepthPct || depthPct > cfg.Pullback.MaxDepthPct {
		return miss()
	}
	nearMA := nearPct(price, snap.MA25, cfg.Pullback.MADistancePct) ||
		nearPct(price, snap.MA50, cfg.Pullback.MADistancePct)
	if !nearMA {
		return miss()
	}
	// 反转确认：当日收阳且收在昨日最高之上
	if !c.Today.IsGreen() || c.Today.Close <= c.Yesterday.High {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.PullbackEntry)
}

// bullishEngulfing: 阳包阴。
type bullishEngulfing struct{}

func (bullishEngulfing) Meta() Meta {
	return Meta{Name: "bullish engulfing", Category: CategoryCandlestick}
}

func (d bullishEngulfing) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	y, t := c.Yesterday, c.Today
	if y.IsGreen() || !t.IsGreen() {
		return miss()
	}
	if t.Open > y.Close || t.Close < y.Open {
		return miss()
	}
	if t.Body() <= y.Body() {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.Engulfing)
}

// hammer: 下影线 ≥2×实体，上影线小于实体，排除十字星。
type hammer struct{}

func (hammer) Meta() Meta {
	return Meta{Name: "hammer", Category: CategoryCandlestick}
}

func (d hammer) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	t := c.Today
	body := t.Body()
	rng := t.Range()
	if rng <= 0 || body < cfg.Hammer.DojiBodyPct*rng {
		return miss()
	}
	if t.LowerWick() < cfg.Hammer.LowerWickBody*body {
		return miss()
	}
	if t.UpperWick() >= body {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.Hammer)
}

// consolidationBreakout: 收盘突破前 N 根整理平台的高点并放量。
type consolidationBreakout struct{}

func (consolidationBreakout) Meta() Meta {
	return Meta{Name: "consolidation breakout", Category: CategoryLevel}
}

func (d consolidationBreakout) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	base := cfg.Consolidation.BaseBars
	if len(c.Bars) < base+1 {
		return miss()
	}
	prior := c.Bars[len(c.Bars)-1-base : len(c.Bars)-1]
	baseHigh := prior[0].High
	for _, b := range prior {
		if b.High > baseHigh {
			baseHigh = b.High
		}
	}
	if c.Today.Close <= baseHigh {
		return miss()
	}
	if c.AvgVolume10 <= 0 || c.Today.Volume < cfg.Consolidation.VolumeMult*c.AvgVolume10 {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.ConsolidationBreakout)
}

// supportBounce: 在枢轴支撑 2.5×ATR 以内出现放量确认的反弹。
type supportBounce struct{}

func (supportBounce) Meta() Meta {
	return Meta{Name: "support bounce", Category: CategoryLevel}
}

func (d supportBounce) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	if c.Support <= 0 || c.ATR <= 0 {
		return miss()
	}
	if math.Abs(c.Today.Low-c.Support) > 2.5*c.ATR {
		return miss()
	}
	if !c.Today.IsGreen() || c.Today.Close <= c.Support {
		return miss()
	}
	if c.AvgVolume20 <= 0 || c.Today.Volume < 1.3*c.AvgVolume20 {
		return miss()
	}
	return d.Meta().hit(cfg.Scores.SupportBounce)
}

// entryTimingPass: 外部入场评分直通信号。只在 1~4 档触发，
// 按档位乘数与置信度缩放，下限 1.0。
type entryTimingPass struct{}

var tierMultiplier = map[int]float64{1: 1.3, 2: 1.15, 3: 1.0, 4: 0.85}

func (entryTimingPass) Meta() Meta {
	return Meta{Name: "entry timing", Category: CategoryEntry}
}

func (d entryTimingPass) Evaluate(c *Context, cfg *config.EngineConfig) Result {
	t := c.Timing
	if t == nil {
		return miss()
	}
	mult, ok := tierMultiplier[t.Score]
	if !ok {
		return miss()
	}
	conf := t.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	score := cfg.Scores.EntryBase * mult * (0.8 + 0.4*conf)
	if score < 1.0 {
		score = 1.0
	}
	return d.Meta().hit(score)
}
