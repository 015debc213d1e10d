package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestBarHelpers(t *testing.T) {
	b := Bar{Open: 100, High: 106, Low: 98, Close: 104, Volume: 1000}
	assert.Equal(t, 8.0, b.Range())
	assert.Equal(t, 4.0, b.Body())
	assert.True(t, b.IsGreen())
	assert.Equal(t, 2.0, b.UpperWick())
	assert.Equal(t, 2.0, b.LowerWick())

	red := Bar{Open: 104, High: 106, Low: 98, Close: 100}
	assert.False(t, red.IsGreen())
	assert.Equal(t, 4.0, red.Body())
}

func TestValidateBars(t *testing.T) {
	good := []Bar{
		{Date: day(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		{Date: day(1), Open: 100, High: 102, Low: 99, Close: 101, Volume: 1},
	}
	require.NoError(t, ValidateBars(good))

	badHigh := []Bar{{Date: day(0), Open: 100, High: 99, Low: 98, Close: 100}}
	require.Error(t, ValidateBars(badHigh))

	dup := []Bar{
		{Date: day(0), Open: 100, High: 101, Low: 99, Close: 100},
		{Date: day(0), Open: 100, High: 101, Low: 99, Close: 100},
	}
	require.Error(t, ValidateBars(dup))

	negVol := []Bar{{Date: day(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: -5}}
	require.Error(t, ValidateBars(negVol))
}

func TestBuildSnapshotDerivesIndicators(t *testing.T) {
	bars := make([]Bar, 0, 260)
	price := 100.0
	for i := 0; i < 260; i++ {
		price *= 1.001
		bars = append(bars, Bar{
			Date: day(i), Open: price * 0.995, High: price * 1.01,
			Low: price * 0.99, Close: price, Volume: 1000,
		})
	}
	snap := BuildSnapshot("7203.T", bars)
	assert.Equal(t, "7203.T", snap.Ticker)
	assert.Equal(t, bars[len(bars)-1].Close, snap.CurrentPrice)
	assert.Greater(t, snap.MA5, snap.MA200) // 稳定上升序列
	assert.Greater(t, snap.RSI14, 50.0)
	assert.Greater(t, snap.ATR14, 0.0)
	assert.Greater(t, snap.BollingerUpper, snap.BollingerLower)
	assert.Greater(t, snap.FiftyTwoWeekHigh, snap.FiftyTwoWeekLow)
}

func TestBuildSnapshotShortHistory(t *testing.T) {
	bars := []Bar{{Date: day(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1}}
	snap := BuildSnapshot("X", bars)
	assert.Equal(t, 100.0, snap.CurrentPrice)
	assert.Zero(t, snap.RSI14)
	assert.Zero(t, snap.MACD)
}

func TestParseEntryTiming(t *testing.T) {
	raw := []byte(`{
		"score": 2,
		"confidence": 0.85,
		"stopLoss": 95.5,
		"priceTarget": 120,
		"keyInsights": ["strong base", "  ", "volume dry-up"],
		"regimes": {"shortTerm": "UP", "longTerm": "TRENDING"},
		"debug": {"features": {"rsi": 61.2}}
	}`)
	et, err := ParseEntryTiming(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, et.Score)
	assert.InDelta(t, 0.85, et.Confidence, 1e-9)
	assert.Equal(t, []string{"strong base", "volume dry-up"}, et.KeyInsights)
	assert.Equal(t, "UP", et.ShortRegime)
	assert.Equal(t, "TRENDING", et.LongRegime)
	assert.InDelta(t, 61.2, et.Features["rsi"], 1e-9)
	assert.True(t, et.HasLevels())
}

func TestParseEntryTimingRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"not json":        "{score",
		"missing score":   `{"confidence": 0.5}`,
		"score too big":   `{"score": 9, "confidence": 0.5}`,
		"score not int":   `{"score": "good", "confidence": 0.5}`,
		"confidence wild": `{"score": 3, "confidence": 2.5}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEntryTiming([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestHasLevels(t *testing.T) {
	var nilTiming *EntryTiming
	assert.False(t, nilTiming.HasLevels())
	assert.False(t, (&EntryTiming{StopLoss: 95}).HasLevels())
	assert.True(t, (&EntryTiming{StopLoss: 95, PriceTarget: 120}).HasLevels())
}

func TestTail(t *testing.T) {
	bars := []Bar{{Close: 1}, {Close: 2}, {Close: 3}}
	assert.Len(t, Tail(bars, 2), 2)
	assert.Equal(t, 2.0, Tail(bars, 2)[0].Close)
	assert.Len(t, Tail(bars, 10), 3)
}
