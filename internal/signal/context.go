// Package signal implements the independent buy-signal detectors and the
// category-based dedup/weighting stage that reconciles them with the
// external entry-timing advisory.
package signal

import (
	"math"
	"sort"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/indicator"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

const (
	pivotWindow = 20
	pivotSpan   = 2
)

// Context 是所有检测器共享的只读上下文，BuildContext 一次构建。
// today 是最后一根（可能未收盘），滚动均量一律剔除它。
type Context struct {
	Bars      []market.Bar
	Snapshot  *market.Snapshot
	Timing    *market.EntryTiming
	Today     market.Bar
	Yesterday market.Bar

	AvgVolume10 float64
	AvgVolume20 float64
	ATR         float64

	Support          float64 // 现价下方最近的枢轴低点，0 表示没有
	Resistance       float64 // 现价上方最近的枢轴高点，0 表示没有
	ResistanceLevels []float64
	SupportLevels    []float64

	WindowHigh float64 // 近 20 根最高价
	WindowLow  float64

	ConsecUpDays int // 连续收涨天数
	GreenDays    int // 连续阳线天数
	Gain5DayPct  float64
}

// BuildContext 预计算检测器共用的统计量。少于两根K线返回 nil。
func BuildContext(bars []market.Bar, snap *market.Snapshot, timing *market.EntryTiming) *Context {
	if len(bars) < 2 {
		return nil
	}
	c := &Context{
		Bars:      bars,
		Snapshot:  snap,
		Timing:    timing,
		Today:     bars[len(bars)-1],
		Yesterday: bars[len(bars)-2],
	}

	prior := bars[:len(bars)-1] // 剔除当日
	c.AvgVolume10 = avgVolume(prior, 10)
	c.AvgVolume20 = avgVolume(prior, 20)

	highs := market.Highs(bars)
	lows := market.Lows(bars)
	closes := market.Closes(bars)
	c.ATR = indicator.Atr(highs, lows, closes, 14)
	if snap != nil && snap.ATR14 > 0 {
		c.ATR = snap.ATR14
	}

	window := market.Tail(bars, pivotWindow)
	c.WindowHigh, c.WindowLow = window[0].High, window[0].Low
	for _, b := range window {
		if b.High > c.WindowHigh {
			c.WindowHigh = b.High
		}
		if b.Low < c.WindowLow {
			c.WindowLow = b.Low
		}
	}

	price := c.Today.Close
	if snap != nil && snap.CurrentPrice > 0 {
		price = snap.CurrentPrice
	}
	c.ResistanceLevels, c.SupportLevels = pivotLevels(window, price)
	if len(c.ResistanceLevels) > 0 {
		c.Resistance = c.ResistanceLevels[0]
	}
	if len(c.SupportLevels) > 0 {
		c.Support = c.SupportLevels[0]
	}

	for i := len(bars) - 1; i > 0; i-- {
		if bars[i].Close > bars[i-1].Close {
			c.ConsecUpDays++
		} else {
			break
		}
	}
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].IsGreen() {
			c.GreenDays++
		} else {
			break
		}
	}
	if len(closes) >= 6 && closes[len(closes)-6] > 0 {
		c.Gain5DayPct = (closes[len(closes)-1] - closes[len(closes)-6]) / closes[len(closes)-6] * 100
	}
	return c
}

// Price 返回快照现价，缺失时退回最后收盘价。
func (c *Context) Price() float64 {
	if c.Snapshot != nil && c.Snapshot.CurrentPrice > 0 {
		return c.Snapshot.CurrentPrice
	}
	return c.Today.Close
}

// pivotLevels 从摆动枢轴提取价位：阻力按离现价从近到远升序，
// 支撑按从近到远降序。
func pivotLevels(bars []market.Bar, price float64) (resistance, support []float64) {
	highs := market.Highs(bars)
	lows := market.Lows(bars)
	for i := pivotSpan; i < len(bars)-pivotSpan; i++ {
		if isPivot(highs, i, false) && highs[i] > price {
			resistance = append(resistance, highs[i])
		}
		if isPivot(lows, i, true) && lows[i] < price {
			support = append(support, lows[i])
		}
	}
	sort.Float64s(resistance)
	sort.Sort(sort.Reverse(sort.Float64Slice(support)))
	return resistance, support
}

func isPivot(series []float64, i int, wantLow bool) bool {
	for j := i - pivotSpan; j <= i+pivotSpan; j++ {
		if j == i || j < 0 || j >= len(series) {
			continue
		}
		if wantLow && series[j] < series[i] {
			return false
		}
		if !wantLow && series[j] > series[i] {
			return false
		}
	}
	return true
}

func avgVolume(bars []market.Bar, period int) float64 {
	window := market.Tail(bars, period)
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, b := range window {
		sum += b.Volume
	}
	return sum / float64(len(window))
}

// nearPct 判断 a 与 b 的相对距离是否在 pct% 以内。
func nearPct(a, b, pct float64) bool {
	if b <= 0 {
		return false
	}
	return math.Abs(a-b)/b*100 <= pct
}
