package playbook

import (
	"fmt"
	"math"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/signal"
)

const coilMinBars = 25

// Coil 识别"突破前蓄势"：价格贴着阻力横盘，波幅收缩、回调缩量，
// 等待放量突破或极窄基底。
type Coil struct{}

func (Coil) Name() string { return "pre-breakout coil" }

func (p Coil) Detect(c *signal.Context, cfg *config.EngineConfig) Setup {
	if c == nil || len(c.Bars) < coilMinBars {
		return notReady(p.Name(), "insufficient bars for coil")
	}
	pc := &cfg.Playbook.Coil
	tick := cfg.Playbook.TickSize
	atr := c.ATR
	if atr <= 0 {
		return notReady(p.Name(), "no usable ATR")
	}
	price := c.Price()
	prior := c.Bars[:len(c.Bars)-1] // 突破当日不参与基底统计

	// 阻力缺席时退回前期窗口高点
	resistance := c.Resistance
	if resistance <= 0 {
		for _, b := range market.Tail(prior, 20) {
			if b.High > resistance {
				resistance = b.High
			}
		}
	}
	if resistance <= 0 {
		return notReady(p.Name(), "no resistance reference")
	}

	proximity := math.Max(pc.ProximityATRMult*atr, price*pc.ProximityPct/100)
	if resistance-price > proximity {
		return notReady(p.Name(), "price not coiled under resistance")
	}

	base := market.Tail(prior, 10)
	baseLow, baseHigh := base[0].Low, base[0].High
	for _, b := range base {
		if b.Low < baseLow {
			baseLow = b.Low
		}
		if b.High > baseHigh {
			baseHigh = b.High
		}
	}
	baseRange := baseHigh - baseLow

	contracted := recentTrueRange(c.Bars, 5) <= pc.ContractionRatio*recentTrueRange(c.Bars, 20)
	flatBase := baseRange <= pc.FlatBaseATRMult*atr
	if !contracted && !flatBase && !higherLowTriple(base) {
		return notReady(p.Name(), "no contraction or flat base")
	}

	if !dryPullbackVolume(base, c.AvgVolume20, pc.DryVolumeMult) {
		return notReady(p.Name(), "pullback volume not drying up")
	}

	recentHigh := resistance
	for _, b := range market.Tail(prior, 5) {
		if b.High > recentHigh {
			recentHigh = b.High
		}
	}
	trigger := roundTick(recentHigh + 0.05*atr, tick)
	stop := roundTick(math.Max(resistance-pc.StopResATRMult*atr, baseLow-pc.StopBaseATRMult*atr), tick)
	if stop >= trigger {
		stop = roundTick(trigger - atr, tick)
	}
	target := resistance + math.Max(pc.TargetBoxMult*baseRange, pc.TargetATRMult*atr)
	// 有更高的阻力簇时直接升级到下一簇
	for _, lvl := range c.ResistanceLevels {
		if lvl > target {
			target = lvl
			break
		}
	}
	target = roundTick(target, tick)

	thrust := c.Today.Close >= resistance+pc.ThrustCloseATR*atr ||
		(c.AvgVolume20 > 0 && c.Today.Volume >= pc.ThrustVolMult*c.AvgVolume20)
	tightBase := baseRange <= pc.TightBaseATRMult*atr
	if !thrust && !tightBase {
		return notReady(p.Name(), "no thrust and base not tight enough")
	}

	ratio := rr(trigger, stop, target)
	minRR := pc.MinRRQuiet
	if thrust {
		minRR = pc.MinRRThrust
	}
	if ratio < minRR {
		return notReady(p.Name(), fmt.Sprintf("coil rr %.2f below %.2f", ratio, minRR))
	}

	diags := []string{
		fmt.Sprintf("resistance=%.2f baseRange=%.2fxATR", resistance, baseRange/atr),
	}
	if thrust {
		diags = append(diags, "thrust confirmed")
	} else {
		diags = append(diags, "tight base, no thrust yet")
	}
	return Setup{
		Ready:        true,
		Name:         p.Name(),
		Reason:       "coiled under resistance with confirmation",
		Score:        cfg.Scores.Playbook,
		EntryTrigger: trigger,
		InitialStop:  stop,
		FirstTarget:  target,
		RR:           ratio,
		Diagnostics:  diags,
	}
}

// recentTrueRange 返回最后 n 根的平均真实波幅。
func recentTrueRange(bars []market.Bar, n int) float64 {
	window := market.Tail(bars, n+1)
	if len(window) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(window); i++ {
		tr := window[i].High - window[i].Low
		if hc := math.Abs(window[i].High - window[i-1].Close); hc > tr {
			tr = hc
		}
		if lc := math.Abs(window[i].Low - window[i-1].Close); lc > tr {
			tr = lc
		}
		sum += tr
	}
	return sum / float64(len(window)-1)
}

// higherLowTriple 检查基底里是否有连续三个抬升的低点。
func higherLowTriple(base []market.Bar) bool {
	for i := 2; i < len(base); i++ {
		if base[i].Low > base[i-1].Low && base[i-1].Low > base[i-2].Low {
			return true
		}
	}
	return false
}

// dryPullbackVolume: 基底内阴线的平均量不得明显高于 20 日均量。
func dryPullbackVolume(base []market.Bar, avg20, mult float64) bool {
	if avg20 <= 0 {
		return true
	}
	var sum float64
	n := 0
	for _, b := range base {
		if !b.IsGreen() {
			sum += b.Volume
			n++
		}
	}
	if n == 0 {
		return true
	}
	return sum/float64(n) <= mult*avg20
}
