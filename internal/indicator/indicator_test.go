package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constSeries(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rampSeries(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestSma(t *testing.T) {
	assert.Equal(t, 0.0, Sma(nil, 5))
	assert.InDelta(t, 2.0, Sma([]float64{1, 2, 3}, 5), 1e-9)
	assert.InDelta(t, 4.0, Sma([]float64{1, 2, 3, 4, 5}, 3), 1e-9)
}

func TestEmaConvergesToConstant(t *testing.T) {
	series := constSeries(42, 60)
	assert.InDelta(t, 42.0, Ema(series, 20), 1e-9)
	// 上升序列的 EMA 应落在 SMA 之上（更贴近近端价格）
	up := rampSeries(100, 1, 60)
	assert.Greater(t, Ema(up, 20), Sma(up, 20))
}

func TestRsiFlatSeriesIsExactlyFifty(t *testing.T) {
	assert.Equal(t, 50.0, Rsi(constSeries(100, 40), 14))
}

func TestRsiShortWindowNeutral(t *testing.T) {
	assert.Equal(t, 50.0, Rsi([]float64{1, 2, 3}, 14))
	assert.Equal(t, 50.0, Rsi(nil, 14))
}

func TestRsiDirection(t *testing.T) {
	up := rampSeries(100, 0.5, 40)
	down := rampSeries(100, -0.5, 40)
	assert.Greater(t, Rsi(up, 14), 70.0)
	assert.Less(t, Rsi(down, 14), 30.0)
}

func TestMacdUptrendPositive(t *testing.T) {
	macd, signal, hist := Macd(rampSeries(100, 1, 80))
	assert.Greater(t, macd, 0.0)
	assert.Greater(t, signal, 0.0)
	assert.InDelta(t, macd-signal, hist, 1e-9)
}

func TestMacdShortWindowZero(t *testing.T) {
	macd, signal, hist := Macd(rampSeries(100, 1, 20))
	assert.Zero(t, macd)
	assert.Zero(t, signal)
	assert.Zero(t, hist)
}

func TestBollingerSymmetric(t *testing.T) {
	upper, mid, lower := Bollinger(rampSeries(100, 1, 40), 20, 2)
	assert.InDelta(t, mid-lower, upper-mid, 1e-9)
	assert.Greater(t, upper, lower)
	// 全平序列无波动
	u, m, l := Bollinger(constSeries(50, 40), 20, 2)
	assert.Equal(t, m, u)
	assert.Equal(t, m, l)
}

func TestAtr(t *testing.T) {
	highs := constSeries(102, 30)
	lows := constSeries(98, 30)
	closes := constSeries(100, 30)
	assert.InDelta(t, 4.0, Atr(highs, lows, closes, 14), 1e-9)
	assert.Zero(t, Atr(highs[:1], lows[:1], closes[:1], 14))
}

func TestStochasticDefaults(t *testing.T) {
	k, d := Stochastic(nil, nil, nil, 14, 3)
	assert.Equal(t, 50.0, k)
	assert.Equal(t, 50.0, d)
	// 收在区间顶部时 K 接近 100
	highs := rampSeries(101, 1, 30)
	lows := rampSeries(99, 1, 30)
	closes := rampSeries(101, 1, 30)
	k, _ = Stochastic(highs, lows, closes, 14, 3)
	assert.Greater(t, k, 90.0)
}

func TestObvWalk(t *testing.T) {
	closes := []float64{10, 11, 10, 10, 12}
	volumes := []float64{100, 200, 300, 400, 500}
	series := Obv(closes, volumes)
	require.Len(t, series, 5)
	assert.Equal(t, []float64{0, 200, -100, -100, 400}, series)
}

func TestLinearRegressionPerfectLine(t *testing.T) {
	slope, r2 := LinearRegression(rampSeries(5, 2, 50))
	assert.InDelta(t, 2.0, slope, 1e-9)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestLinearRegressionDegenerate(t *testing.T) {
	slope, r2 := LinearRegression([]float64{7})
	assert.Zero(t, slope)
	assert.Zero(t, r2)
	slope, r2 = LinearRegression(constSeries(7, 30))
	assert.Zero(t, slope)
	assert.Zero(t, r2)
}

func TestLogRegressionGrowth(t *testing.T) {
	series := make([]float64, 60)
	for i := range series {
		series[i] = 100 * math.Pow(1.01, float64(i))
	}
	slope, r2 := LogRegression(series)
	assert.InDelta(t, math.Log(1.01), slope, 1e-9)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestAdx(t *testing.T) {
	n := 60
	highs := rampSeries(102, 1, n)
	lows := rampSeries(98, 1, n)
	closes := rampSeries(101, 1, n)
	trending := Adx(highs, lows, closes, 14)
	assert.Greater(t, trending, 25.0)

	flat := Adx(constSeries(102, n), constSeries(98, n), constSeries(100, n), 14)
	assert.Less(t, flat, trending)
	assert.Zero(t, Adx(highs[:10], lows[:10], closes[:10], 14))
}
