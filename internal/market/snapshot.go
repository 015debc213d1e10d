package market

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// Snapshot 是上游行情采集方提供的某一时点指标快照。
// 引擎只读，不回写。
type Snapshot struct {
	Ticker          string  `json:"ticker"`
	CurrentPrice    float64 `json:"currentPrice"`
	MA5             float64 `json:"movingAverage5d"`
	MA20            float64 `json:"movingAverage20d"`
	MA25            float64 `json:"movingAverage25d"`
	MA50            float64 `json:"movingAverage50d"`
	MA75            float64 `json:"movingAverage75d"`
	MA200           float64 `json:"movingAverage200d"`
	RSI14           float64 `json:"rsi14"`
	MACD            float64 `json:"macd"`
	MACDSignal      float64 `json:"macdSignal"`
	BollingerUpper  float64 `json:"bollingerUpper"`
	BollingerMid    float64 `json:"bollingerMid"`
	BollingerLower  float64 `json:"bollingerLower"`
	ATR14           float64 `json:"atr14"`
	StochasticK     float64 `json:"stochasticK"`
	StochasticD     float64 `json:"stochasticD"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow"`
	Sector          string  `json:"sector,omitempty"`
	DebtEquityRatio float64 `json:"debtEquityRatio,omitempty"`
}

// BuildSnapshot 在调用方没有上游行情服务时，用 talib 从日线自行推导快照。
// 数据不足的字段保持为 0，由引擎侧的 sanitize 逻辑兜底。
func BuildSnapshot(ticker string, bars []Bar) Snapshot {
	snap := Snapshot{Ticker: ticker}
	if len(bars) == 0 {
		return snap
	}
	closes := Closes(bars)
	highs := Highs(bars)
	lows := Lows(bars)
	snap.CurrentPrice = closes[len(closes)-1]

	snap.MA5 = lastValid(talib.Sma(closes, 5))
	snap.MA20 = lastValid(talib.Sma(closes, 20))
	snap.MA25 = lastValid(talib.Sma(closes, 25))
	snap.MA50 = lastValid(talib.Sma(closes, 50))
	snap.MA75 = lastValid(talib.Sma(closes, 75))
	snap.MA200 = lastValid(talib.Sma(closes, 200))

	if len(closes) > 14 {
		snap.RSI14 = lastValid(talib.Rsi(closes, 14))
		snap.ATR14 = lastValid(talib.Atr(highs, lows, closes, 14))
	}
	if len(closes) > 33 {
		macd, signal, _ := talib.Macd(closes, 12, 26, 9)
		snap.MACD = lastValid(macd)
		snap.MACDSignal = lastValid(signal)
	}
	if len(closes) >= 20 {
		upper, mid, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
		snap.BollingerUpper = lastValid(upper)
		snap.BollingerMid = lastValid(mid)
		snap.BollingerLower = lastValid(lower)
	}
	if len(closes) > 17 {
		k, d := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
		snap.StochasticK = lastValid(k)
		snap.StochasticD = lastValid(d)
	}

	// 52 周高低：最多 252 根
	window := Tail(bars, 252)
	hi, lo := window[0].High, window[0].Low
	for _, b := range window {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	snap.FiftyTwoWeekHigh = hi
	snap.FiftyTwoWeekLow = lo
	return snap
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0 {
			return v
		}
	}
	return 0
}
