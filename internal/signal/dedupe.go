package signal

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// Applied 记录一个信号经过加权和类别封顶之后的最终贡献。
type Applied struct {
	Name     string
	Category Category
	Raw      float64
	Weighted float64
}

// 外部评分 1~2 档（强买入）时各类别的置信度插值区间：
// 置信度越高，对重叠的本地信号压得越狠，避免重复计分。
var strongAdvisoryWeights = map[Category][2]float64{
	CategoryTrend:       {0.90, 0.55},
	CategoryLevel:       {0.85, 0.50},
	CategoryPullback:    {0.80, 0.45},
	CategoryCandlestick: {0.70, 0.40},
}

// 3~4 档（中性偏多）时的固定温和折扣。
var mildAdvisoryWeights = map[Category]float64{
	CategoryTrend:       0.90,
	CategoryLevel:       0.85,
	CategoryPullback:    0.80,
	CategoryCandlestick: 0.75,
}

// Dedupe 对命中的信号做类别加权与封顶，返回加权总分与逐信号明细。
// entry 与 playbook 类别永不降权、永不封顶。
func Dedupe(hits []Result, timing *market.EntryTiming, cfg *config.EngineConfig) (float64, []Applied) {
	if len(hits) == 0 {
		return 0, nil
	}
	applied := make([]Applied, 0, len(hits))
	catTotals := make(map[Category]float64)
	for _, h := range hits {
		w := categoryWeight(h.Category, timing)
		a := Applied{Name: h.Name, Category: h.Category, Raw: h.Score, Weighted: h.Score * w}
		applied = append(applied, a)
		catTotals[h.Category] += a.Weighted
	}

	// 类别封顶：超限时按比例缩小该类别内的每个信号
	for cat, total := range catTotals {
		limit := categoryCap(cat, &cfg.Scores)
		if limit <= 0 || total <= limit {
			continue
		}
		scale := limit / total
		for i := range applied {
			if applied[i].Category == cat {
				applied[i].Weighted *= scale
			}
		}
	}

	var sum float64
	for _, a := range applied {
		sum += a.Weighted
	}
	return sum, applied
}

func categoryWeight(cat Category, timing *market.EntryTiming) float64 {
	if cat == CategoryEntry || cat == CategoryOther || cat == CategoryPlaybook || timing == nil {
		return 1.0
	}
	switch {
	case timing.Score >= 1 && timing.Score <= 2:
		bounds, ok := strongAdvisoryWeights[cat]
		if !ok {
			return 1.0
		}
		conf := timing.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		return bounds[0] - (bounds[0]-bounds[1])*conf
	case timing.Score >= 3 && timing.Score <= 4:
		if w, ok := mildAdvisoryWeights[cat]; ok {
			return w
		}
	}
	return 1.0
}

func categoryCap(cat Category, s *config.ScoreConfig) float64 {
	switch cat {
	case CategoryTrend:
		return s.CapTrend
	case CategoryLevel:
		return s.CapLevel
	case CategoryPullback:
		return s.CapPullback
	case CategoryCandlestick:
		return s.CapCandlestick
	case CategoryOther:
		return s.CapOther
	default: // entry 与 playbook 不封顶
		return 0
	}
}
