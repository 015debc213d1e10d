// Package veto implements the hard disqualifying checks. Any single hit
// blocks a buy regardless of how high the signal score is.
package veto

import (
	"fmt"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/analysis/deep"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/indicator"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/signal"
)

// Result 是单次否决检查的输出。
type Result struct {
	Vetoed bool
	Name   string
	Reason string
}

// Check 是否决检查的统一接口，实现必须无副作用。
type Check interface {
	Name() string
	Evaluate(c *signal.Context, a *deep.Analysis, cfg *config.EngineConfig) Result
}

// Checks 返回固定顺序的全部否决检查。
func Checks() []Check {
	return []Check{
		rsiOverheat{},
		panicDrop{},
		ma50Breakdown{},
		majorResistance{},
		regimeConflict{},
		parabolicMove{},
		trendExhaustion{},
		falseBreakout{},
		weakBounce{},
	}
}

// Gate 运行全部检查并返回命中的否决。空切片表示放行。
func Gate(c *signal.Context, a *deep.Analysis, cfg *config.EngineConfig) []Result {
	var fired []Result
	for _, chk := range Checks() {
		if r := chk.Evaluate(c, a, cfg); r.Vetoed {
			fired = append(fired, r)
		}
	}
	return fired
}

func hit(name, reason string) Result {
	return Result{Vetoed: true, Name: name, Reason: reason}
}

func pass() Result { return Result{} }

// rsiOverheat: RSI≥80 无条件否决；RSI>70 软否决，
// 强动量环境（站稳 MA50/MA200、连续阳线、仍在走强）豁免。
type rsiOverheat struct{}

func (rsiOverheat) Name() string { return "rsi overheat" }

func (v rsiOverheat) Evaluate(c *signal.Context, _ *deep.Analysis, cfg *config.EngineConfig) Result {
	snap := c.Snapshot
	if snap == nil || snap.RSI14 <= 0 {
		return pass()
	}
	rsi := snap.RSI14
	if rsi >= cfg.RSI.HardVeto {
		return hit(v.Name(), fmt.Sprintf("rsi %.1f at hard-veto level", rsi))
	}
	if rsi <= cfg.RSI.SoftVeto {
		return pass()
	}
	price := c.Price()
	bypass := snap.MA50 > 0 && price >= snap.MA50*(1+cfg.RSI.BypassMA50Pct/100) &&
		(snap.MA200 <= 0 || price >= snap.MA200) &&
		c.GreenDays >= cfg.RSI.BypassGreenDays &&
		c.Today.Close >= c.Yesterday.Close
	if bypass {
		return pass()
	}
	return hit(v.Name(), fmt.Sprintf("rsi %.1f overbought without momentum bypass", rsi))
}

// panicDrop: 单日放量暴跌。
type panicDrop struct{}

func (panicDrop) Name() string { return "panic drop" }

func (v panicDrop) Evaluate(c *signal.Context, _ *deep.Analysis, cfg *config.EngineConfig) Result {
	if c.Yesterday.Close <= 0 {
		return pass()
	}
	changePct := (c.Today.Close - c.Yesterday.Close) / c.Yesterday.Close * 100
	if changePct > cfg.Veto.SingleDayDropPct {
		return pass()
	}
	if c.AvgVolume20 > 0 && c.Today.Volume < cfg.Veto.DropVolumeMult*c.AvgVolume20 {
		return pass()
	}
	return hit(v.Name(), fmt.Sprintf("single-day drop %.1f%% on elevated volume", changePct))
}

// ma50Breakdown: 昨日还在 MA50 上方，今日收盘跌破。
type ma50Breakdown struct{}

func (ma50Breakdown) Name() string { return "ma50 breakdown" }

func (v ma50Breakdown) Evaluate(c *signal.Context, _ *deep.Analysis, _ *config.EngineConfig) Result {
	snap := c.Snapshot
	if snap == nil || snap.MA50 <= 0 {
		return pass()
	}
	if c.Yesterday.Close > snap.MA50 && c.Today.Close < snap.MA50 {
		return hit(v.Name(), "close lost the 50-day MA held yesterday")
	}
	return pass()
}

// majorResistance: 逼近 52 周高点的主阻力区；
// 只有 3 倍量 + RSI>75 的强势突破才豁免。
type majorResistance struct{}

func (majorResistance) Name() string { return "major resistance" }

func (v majorResistance) Evaluate(c *signal.Context, _ *deep.Analysis, cfg *config.EngineConfig) Result {
	snap := c.Snapshot
	if snap == nil || snap.FiftyTwoWeekHigh <= 0 {
		return pass()
	}
	price := c.Price()
	buffer := snap.FiftyTwoWeekHigh * cfg.Veto.High52BufferPct / 100
	if snap.FiftyTwoWeekHigh-price > buffer {
		return pass()
	}
	breakout := c.AvgVolume20 > 0 &&
		c.Today.Volume >= cfg.Veto.BreakVolumeMult*c.AvgVolume20 &&
		snap.RSI14 > cfg.Veto.BreakRSI
	if breakout {
		return pass()
	}
	return hit(v.Name(), fmt.Sprintf("within %.1f%% of 52-week high without breakout volume", cfg.Veto.High52BufferPct))
}

// regimeConflict: 低置信度的纠结行情，或长短双空叠加外部看空评分。
type regimeConflict struct{}

func (regimeConflict) Name() string { return "regime conflict" }

func (v regimeConflict) Evaluate(c *signal.Context, a *deep.Analysis, cfg *config.EngineConfig) Result {
	if a == nil {
		return pass()
	}
	if a.LongRegime.Label == deep.LongChoppy && a.Confidence < 0.5 {
		return hit(v.Name(), "choppy regime with low analysis confidence")
	}
	longDown := a.LongRegime.Label == deep.LongTrending && a.LongRegime.Direction == deep.DirDown
	if longDown && a.ShortRegime.Label == deep.ShortDown &&
		c.Timing != nil && c.Timing.Score >= cfg.Veto.ExternalBearScore {
		return hit(v.Name(), "both regimes bearish with bearish external score")
	}
	return pass()
}

// parabolicMove: 五个过热条件命中两个即否决。
type parabolicMove struct{}

func (parabolicMove) Name() string { return "parabolic move" }

func (v parabolicMove) Evaluate(c *signal.Context, a *deep.Analysis, cfg *config.EngineConfig) Result {
	p := &cfg.Parabolic
	hits := 0
	if c.Gain5DayPct >= p.Gain5DayPct {
		hits++
	}
	if c.Snapshot != nil && c.Snapshot.RSI14 >= p.RSIExtreme {
		hits++
	}
	if c.Snapshot != nil && c.Snapshot.MA25 > 0 && c.ATR > 0 &&
		c.Price()-c.Snapshot.MA25 > p.ATRStretch*c.ATR {
		hits++
	}
	if c.ConsecUpDays >= p.MaxConsecUp {
		hits++
	}
	if a != nil && a.Trend.Parabolic {
		hits++
	}
	if hits >= p.MinHits {
		return hit(v.Name(), fmt.Sprintf("parabolic/overextended (%d conditions)", hits))
	}
	return pass()
}

// trendExhaustion: 放量滞涨，或连续上影拒绝叠加 RSI 走弱。
type trendExhaustion struct{}

func (trendExhaustion) Name() string { return "trend exhaustion" }

func (v trendExhaustion) Evaluate(c *signal.Context, _ *deep.Analysis, _ *config.EngineConfig) Result {
	t := c.Today
	if c.AvgVolume20 > 0 && t.Volume >= 1.5*c.AvgVolume20 &&
		t.Range() > 0 && t.Body() <= 0.25*t.Range() &&
		t.Close <= c.Yesterday.Close {
		return hit(v.Name(), "heavy volume with no price progress")
	}
	if len(c.Bars) >= 10 {
		rejections := 0
		for _, b := range market.Tail(c.Bars, 3) {
			if b.Body() > 0 && b.UpperWick() >= 1.5*b.Body() {
				rejections++
			}
		}
		if rejections >= 2 {
			rsi := indicator.RsiSeries(market.Closes(c.Bars), 14)
			if n := len(rsi); n >= 4 && rsi[n-1] < rsi[n-4] {
				return hit(v.Name(), "repeated rejection wicks with fading rsi")
			}
		}
	}
	return pass()
}

// falseBreakout: 昨日的突破今日失败。
type falseBreakout struct{}

func (falseBreakout) Name() string { return "false breakout" }

func (v falseBreakout) Evaluate(c *signal.Context, a *deep.Analysis, _ *config.EngineConfig) Result {
	if a != nil && a.Patterns.FailedBreakout {
		return hit(v.Name(), "yesterday's breakout failed today")
	}
	return pass()
}

// weakBounce: 下跌趋势里缩量小实体的反弹，或冲击阻力失败。
type weakBounce struct{}

func (weakBounce) Name() string { return "weak bounce" }

func (v weakBounce) Evaluate(c *signal.Context, a *deep.Analysis, cfg *config.EngineConfig) Result {
	downtrend := false
	if a != nil {
		downtrend = a.ShortRegime.Label == deep.ShortDown
	}
	if !downtrend && c.Snapshot != nil && c.Snapshot.MA50 > 0 {
		downtrend = c.Price() < c.Snapshot.MA50
	}
	if !downtrend || !c.Today.IsGreen() {
		return pass()
	}
	t := c.Today
	lowVolume := c.AvgVolume20 > 0 && t.Volume < cfg.Veto.WeakBounceVolMult*c.AvgVolume20
	smallBody := t.Range() > 0 && t.Body() <= 0.4*t.Range()
	rejected := c.Resistance > 0 && t.High > c.Resistance && t.Close < c.Resistance
	if (lowVolume && smallBody) || rejected {
		return hit(v.Name(), "weak bounce inside a downtrend")
	}
	return pass()
}
