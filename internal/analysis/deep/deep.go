// Package deep implements the deep-market analyzer: microstructure and
// pattern analysis over the recent bar window, long/short regime
// classification, a typed feature vector and the bounded regime-adjusted
// score with its 7-tier label.
//
// 所有子分析器对数据不足只降级不报错，保证批量扫描不中断。
package deep

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// 深度分析的主窗口与最小样本
const (
	analysisWindow = 90
	regimeWindow   = 252
	minRegimeBars  = 60
)

// Analysis 是一次深度分析的完整输出。
type Analysis struct {
	Confidence          float64
	InsufficientHistory bool

	Auction       AuctionProfile
	VolumeProfile VolumeProfile
	PriceAction   PriceAction
	Divergence    Divergence
	Volatility    VolatilityRegime
	Patterns      ChartPatterns
	OrderFlow     OrderFlow
	Trend         TrendQuality
	Institutional Institutional

	LongRegime  LongRegime
	ShortRegime ShortRegime

	Features FeatureSet
	Score    float64
	Tier     int
}

// Analyze 在最近 90 根上运行全部子分析器并打分。
// 输入必须按日期升序；调用方负责该约定。cfg 为 nil 时用默认阈值。
func Analyze(bars []market.Bar, cfg *config.EngineConfig) Analysis {
	if cfg == nil {
		def := config.DefaultEngine()
		cfg = &def
	}
	a := Analysis{}
	if len(bars) == 0 {
		a.InsufficientHistory = true
		a.LongRegime = LongRegime{Label: LongUnknown}
		a.ShortRegime = ShortRegime{Label: ShortDown}
		a.Tier = 4
		return a
	}
	window := market.Tail(bars, analysisWindow)
	if len(bars) < analysisWindow {
		a.InsufficientHistory = true
		a.Confidence = 0.4 * float64(len(bars)) / float64(analysisWindow)
	} else {
		a.Confidence = 0.9
	}

	a.Auction = analyzeAuction(window)
	a.VolumeProfile = analyzeVolumeProfile(window)
	a.PriceAction = analyzePriceAction(window)
	a.Divergence = analyzeDivergence(window)
	a.Volatility = analyzeVolatility(window)
	a.Patterns = analyzePatterns(window)
	a.OrderFlow = analyzeOrderFlow(window)
	a.Trend = analyzeTrendQuality(window, cfg.Momentum)
	a.Institutional = analyzeInstitutional(window)

	a.LongRegime = ClassifyLongRegime(bars)
	a.ShortRegime = ClassifyShortRegime(bars)
	if a.LongRegime.Label == LongUnknown {
		a.Confidence *= 0.6
	}

	a.Features = buildFeatures(&a)
	a.Score = scoreFeatures(a.Features, a.LongRegime, a.ShortRegime)
	a.Tier = tierFor(a.Score, a.LongRegime, a.ShortRegime)
	return a
}
