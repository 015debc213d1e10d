package playbook

import (
	"fmt"
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/analysis/deep"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/signal"
)

const probationMinBars = 25

// Probation 是"风报比观察期"救援形态：短周期均线多头、未过热、
// 贴着 25 日线，在支撑反弹或干净收复前高时给出保守的买点。
type Probation struct{}

func (Probation) Name() string { return "risk/reward probation" }

func (p Probation) Detect(c *signal.Context, cfg *config.EngineConfig) Setup {
	if c == nil || len(c.Bars) < probationMinBars {
		return notReady(p.Name(), "insufficient bars for probation")
	}
	pc := &cfg.Playbook.Probation
	tick := cfg.Playbook.TickSize
	atr := c.ATR
	if atr <= 0 {
		return notReady(p.Name(), "no usable ATR")
	}
	price := c.Price()

	short := deep.ClassifyShortRegime(c.Bars)
	if short.Label != deep.ShortUp && short.Label != deep.ShortStrongUp {
		return notReady(p.Name(), "short regime not constructive")
	}

	// 当日必须是建设性K线：收阳或收在振幅上四成
	t := c.Today
	constructive := t.IsGreen()
	if rng := t.Range(); !constructive && rng > 0 {
		constructive = (t.Close-t.Low)/rng >= 0.6
	}
	if !constructive {
		return notReady(p.Name(), "today's bar not constructive")
	}

	rsi := 50.0
	if c.Snapshot != nil && c.Snapshot.RSI14 > 0 {
		rsi = c.Snapshot.RSI14
	}
	if rsi >= pc.MaxRSI {
		return notReady(p.Name(), fmt.Sprintf("rsi %.1f too hot", rsi))
	}

	ma25 := 0.0
	if c.Snapshot != nil {
		ma25 = c.Snapshot.MA25
	}
	if ma25 > 0 && math.Abs(price-ma25) > pc.MADistATRMult*atr {
		return notReady(p.Name(), "price stretched away from MA25")
	}
	if c.ConsecUpDays > pc.MaxConsecUp {
		return notReady(p.Name(), "too many consecutive up days")
	}

	// 触发条件二选一：支撑反弹或干净收复昨日高点
	low6 := lowestLow(market.Tail(c.Bars, 6))
	bounced := c.Support > 0 &&
		math.Abs(low6-c.Support) <= 2.5*atr &&
		price-low6 >= pc.BounceATRMult*atr
	reclaimed := t.Close > c.Yesterday.High
	if !bounced && !reclaimed {
		return notReady(p.Name(), "no support bounce or prior-high reclaim")
	}

	stop := price - pc.StopPxATRMult*atr
	if c.Support > 0 {
		stop = math.Min(stop, c.Support-pc.StopSupATRMult*atr)
	}
	if ma25 > 0 {
		stop = math.Min(stop, ma25-pc.StopMAATRMult*atr)
	}
	if stop >= price { // 强制止损在现价下方
		stop = price - pc.StopPxATRMult*atr
	}
	stop = roundTick(stop, tick)

	target := price + 2*atr
	if len(c.ResistanceLevels) > 0 {
		target = c.ResistanceLevels[0]
		// 头上空间不足时升级到下一簇
		if target-price < pc.HeadroomATRMult*atr && len(c.ResistanceLevels) > 1 {
			target = c.ResistanceLevels[1]
		}
	}
	target = roundTick(target, tick)
	entry := roundTick(price, tick)

	diags := []string{fmt.Sprintf("shortRegime=%s rsi=%.1f", short.Label, rsi)}
	if c.AvgVolume20 > 0 && t.Volume < c.AvgVolume20 {
		// 量能确认只是参考项，不阻断
		diags = append(diags, "volume below 20-day average")
	}
	return Setup{
		Ready:        true,
		Name:         p.Name(),
		Reason:       "constructive pullback with defined risk",
		Score:        cfg.Scores.Playbook,
		EntryTrigger: entry,
		InitialStop:  stop,
		FirstTarget:  target,
		RR:           rr(entry, stop, target),
		Diagnostics:  diags,
	}
}

func lowestLow(bars []market.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	m := bars[0].Low
	for _, b := range bars {
		if b.Low < m {
			m = b.Low
		}
	}
	return m
}
