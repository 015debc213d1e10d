package deep

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/indicator"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
)

// TrendQuality 衡量当前趋势的可持续性：过度伸展与抛物线化是反面信号，
// ADX 与 RSI 的持续强势是正面信号。
type TrendQuality struct {
	Extended       bool
	Parabolic      bool
	ADX            float64
	HealthyADX     bool
	RSIPersistence float64
}

func analyzeTrendQuality(bars []market.Bar, mom config.MomentumConfig) TrendQuality {
	closes := market.Closes(bars)
	q := TrendQuality{}
	if len(closes) >= 20 {
		recent := closes[len(closes)-20:]
		var mean float64
		for _, c := range recent {
			mean += c
		}
		mean /= float64(len(recent))
		q.Extended = convert.SafeDiv(closes[len(closes)-1]-mean, mean) > 0.15
	}
	if len(closes) >= 11 {
		last5 := convert.SafeDiv(closes[len(closes)-1]-closes[len(closes)-6], closes[len(closes)-6])
		prior5 := convert.SafeDiv(closes[len(closes)-6]-closes[len(closes)-11], closes[len(closes)-11])
		q.Parabolic = last5 > 0.08 && last5 > 2*prior5
	}
	q.ADX = indicator.Adx(market.Highs(bars), market.Lows(bars), closes, 14)
	q.HealthyADX = q.ADX > mom.HealthyADX
	rsi := indicator.RsiSeries(closes, 14)
	if n, w := len(rsi), mom.PersistenceBars; w > 0 && n >= w {
		strong := 0
		for _, v := range rsi[n-w:] {
			if v > mom.PersistenceRSI {
				strong++
			}
		}
		q.RSIPersistence = float64(strong) / float64(w)
	}
	return q
}
