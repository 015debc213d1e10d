package market

import (
	"fmt"
	"time"
)

// Bar 表示一根日线 OHLCV。约定按日期升序排列，最后一根是"今天"。
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Range 返回当根振幅 high-low。
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Body 返回实体大小 |close-open|。
func (b Bar) Body() float64 {
	d := b.Close - b.Open
	if d < 0 {
		return -d
	}
	return d
}

// IsGreen 收阳。
func (b Bar) IsGreen() bool { return b.Close > b.Open }

// UpperWick 上影线长度。
func (b Bar) UpperWick() float64 {
	top := b.Close
	if b.Open > top {
		top = b.Open
	}
	return b.High - top
}

// LowerWick 下影线长度。
func (b Bar) LowerWick() float64 {
	bottom := b.Close
	if b.Open < bottom {
		bottom = b.Open
	}
	return bottom - b.Low
}

// ValidateBars 检查序列是否严格按日期升序且 OHLC 关系成立。
// 引擎本身不强制校验（遵循调用方契约），但数据加载层会调用。
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.High < b.Open && b.High < b.Close {
			return fmt.Errorf("bar %d (%s): high below open/close", i, b.Date.Format("2006-01-02"))
		}
		if b.Low > b.Open && b.Low > b.Close {
			return fmt.Errorf("bar %d (%s): low above open/close", i, b.Date.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): negative volume", i, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("bar %d (%s): dates not strictly ascending", i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes 提取收盘价序列。
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs 提取最高价序列。
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows 提取最低价序列。
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes 提取成交量序列。
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Tail returns the last n bars (or all of them when fewer exist).
func Tail(bars []Bar, n int) []Bar {
	if n <= 0 || len(bars) == 0 {
		return nil
	}
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
