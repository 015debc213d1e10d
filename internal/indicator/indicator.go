// Package indicator contains the engine's own indicator primitives.
//
// 与行情快照用的 talib 不同，这里的实现对短窗口返回既定的中性默认值
// （RSI→50、Stochastic→{50,50}），保证批量扫描时坏数据不会中断计算。
package indicator

import (
	"math"
)

// Sma 返回末端 period 根的简单均值；数据不足时取全部，空序列返回 0。
func Sma(values []float64, period int) float64 {
	if len(values) == 0 || period <= 0 {
		return 0
	}
	window := values
	if len(values) > period {
		window = values[len(values)-period:]
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

// Ema 返回指数均值，平滑常数 k=2/(p+1)，以首个窗口的 SMA 为种子。
// 数据不足时退化为 SMA。
func Ema(values []float64, period int) float64 {
	series := EmaSeries(values, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// EmaSeries 返回与输入等长的 EMA 序列，前 period-1 个位置用截至该处的 SMA 填充。
func EmaSeries(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	if len(values) < period {
		for i := range values {
			out[i] = Sma(values[:i+1], period)
		}
		return out
	}
	k := 2.0 / float64(period+1)
	seed := Sma(values[:period], period)
	for i := 0; i < period; i++ {
		out[i] = Sma(values[:i+1], period)
	}
	out[period-1] = seed
	prev := seed
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// Rsi 返回 Wilder RSI。窗口不足（need period+1 个收盘）或全平序列返回 50。
func Rsi(values []float64, period int) float64 {
	series := RsiSeries(values, period)
	if len(series) == 0 {
		return 50
	}
	return series[len(series)-1]
}

// RsiSeries 返回与输入等长的 RSI 序列，窗口不足的位置填 50。
func RsiSeries(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i := range out {
		out[i] = 50
	}
	if len(values) < period+1 {
		return out
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		diff := values[i] - values[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)
	for i := period + 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Macd 返回 MACD(12,26,9) 的 macd 线、信号线与柱。窗口不足时三者皆 0。
func Macd(values []float64) (macd, signal, hist float64) {
	const fast, slow, smooth = 12, 26, 9
	if len(values) < slow+smooth {
		return 0, 0, 0
	}
	fastSeries := EmaSeries(values, fast)
	slowSeries := EmaSeries(values, slow)
	diff := make([]float64, len(values))
	for i := range values {
		diff[i] = fastSeries[i] - slowSeries[i]
	}
	signalSeries := EmaSeries(diff[slow-1:], smooth)
	macd = diff[len(diff)-1]
	signal = signalSeries[len(signalSeries)-1]
	return macd, signal, macd - signal
}

// Bollinger 返回 mean ± mult × 总体标准差。窗口不足时围绕现有均值展开。
func Bollinger(values []float64, period int, mult float64) (upper, mid, lower float64) {
	if len(values) == 0 || period <= 0 {
		return 0, 0, 0
	}
	window := values
	if len(values) > period {
		window = values[len(values)-period:]
	}
	mid = Sma(window, len(window))
	var variance float64
	for _, v := range window {
		d := v - mid
		variance += d * d
	}
	variance /= float64(len(window))
	dev := math.Sqrt(variance)
	return mid + mult*dev, mid, mid - mult*dev
}

// Atr 返回末端 period 个真实波幅的均值。少于 2 根返回 0。
func Atr(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if n < 2 || len(highs) != n || len(lows) != n || period <= 0 {
		return 0
	}
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		trs = append(trs, tr)
	}
	if len(trs) > period {
		trs = trs[len(trs)-period:]
	}
	var sum float64
	for _, tr := range trs {
		sum += tr
	}
	return sum / float64(len(trs))
}

// Stochastic 返回 %K(kPeriod) 与其 dPeriod 根 SMA。窗口不足返回 {50,50}。
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d float64) {
	n := len(closes)
	if n < kPeriod || kPeriod <= 0 || dPeriod <= 0 || len(highs) != n || len(lows) != n {
		return 50, 50
	}
	kAt := func(end int) float64 {
		lo, hi := math.MaxFloat64, -math.MaxFloat64
		for i := end - kPeriod + 1; i <= end; i++ {
			if lows[i] < lo {
				lo = lows[i]
			}
			if highs[i] > hi {
				hi = highs[i]
			}
		}
		if hi == lo {
			return 50
		}
		return 100 * (closes[end] - lo) / (hi - lo)
	}
	k = kAt(n - 1)
	count := 0
	var sum float64
	for end := n - 1; end >= kPeriod-1 && count < dPeriod; end-- {
		sum += kAt(end)
		count++
	}
	if count == 0 {
		return k, 50
	}
	return k, sum / float64(count)
}

// Obv 返回累计签名成交量序列。
func Obv(closes, volumes []float64) []float64 {
	n := len(closes)
	if n == 0 || len(volumes) != n {
		return nil
	}
	out := make([]float64, n)
	out[0] = 0
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// LinearRegression 对序列做最小二乘拟合，返回斜率与 R²。
// 单点或退化分母返回 {0,0}。
func LinearRegression(values []float64) (slope, r2 float64) {
	n := len(values)
	if n < 2 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	slope = (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn
	meanY := sumY / fn
	var ssRes, ssTot float64
	for i, y := range values {
		fit := intercept + slope*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return slope, 0
	}
	return slope, 1 - ssRes/ssTot
}

// LogRegression 在对数价格上做线性回归，对非正价格直接退回普通回归。
func LogRegression(values []float64) (slope, r2 float64) {
	logs := make([]float64, 0, len(values))
	for _, v := range values {
		if v <= 0 {
			return LinearRegression(values)
		}
		logs = append(logs, math.Log(v))
	}
	return LinearRegression(logs)
}

// Adx 返回 Wilder 平滑的 ADX。窗口不足（need 2×period+1）返回 0。
func Adx(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if period <= 0 || n < 2*period+1 || len(highs) != n || len(lows) != n {
		return 0
	}
	var trSum, plusSum, minusSum float64
	trs := make([]float64, n-1)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		trs[i-1] = tr
	}
	for i := 0; i < period; i++ {
		trSum += trs[i]
		plusSum += plusDM[i]
		minusSum += minusDM[i]
	}
	dxAt := func(tr, plus, minus float64) float64 {
		if tr == 0 {
			return 0
		}
		pDI := 100 * plus / tr
		mDI := 100 * minus / tr
		if pDI+mDI == 0 {
			return 0
		}
		return 100 * math.Abs(pDI-mDI) / (pDI + mDI)
	}
	adx := dxAt(trSum, plusSum, minusSum)
	warm := 1
	for i := period; i < len(trs); i++ {
		trSum = trSum - trSum/float64(period) + trs[i]
		plusSum = plusSum - plusSum/float64(period) + plusDM[i]
		minusSum = minusSum - minusSum/float64(period) + minusDM[i]
		dx := dxAt(trSum, plusSum, minusSum)
		if warm < period {
			adx = (adx*float64(warm) + dx) / float64(warm+1)
			warm++
		} else {
			adx = (adx*float64(period-1) + dx) / float64(period)
		}
	}
	return adx
}
