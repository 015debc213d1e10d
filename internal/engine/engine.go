// Package engine is the decision aggregator: it wires the deep analyzer,
// the signal detectors, the playbooks and the veto gate into one fixed
// evaluation order and produces the final buy/no-buy verdict.
package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/analysis/deep"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/playbook"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/signal"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/veto"
)

const rrEpsilon = 1e-9

// Decision 是一次评估的最终结论。RR 在止损/目标不可用时为 nil。
type Decision struct {
	IsBuyNow bool     `json:"isBuyNow"`
	Reason   string   `json:"reason"`
	RR       *float64 `json:"rr,omitempty"`
	Details  *Details `json:"details,omitempty"`
}

// Details 暴露中间结果，供扫描日志和报告使用。
type Details struct {
	Score      float64          `json:"score"`
	MLScore    float64          `json:"mlScore"`
	Tier       int              `json:"tier"`
	Confidence float64          `json:"confidence"`
	Signals    []signal.Applied `json:"signals,omitempty"`
	Vetoes     []string         `json:"vetoes,omitempty"`
	Playbook   *playbook.Setup  `json:"playbook,omitempty"`
}

// Evaluate 对单只股票做完整的买点判定。纯函数：不修改任何输入，
// 不保留跨次调用状态，可并发用于不同标的。
//
// 固定顺序：样本检查 → 外部 R:R → 检测器(/playbook) → 否决 →
// R:R 门槛 → 分数门槛。
func Evaluate(bars []market.Bar, snap *market.Snapshot, timing *market.EntryTiming, cfg *config.EngineConfig) Decision {
	if len(bars) < cfg.MinBars {
		return Decision{
			Reason: fmt.Sprintf("insufficient data: need %d bars, got %d", cfg.MinBars, len(bars)),
		}
	}

	// R:R 只取外部分析的止损/目标，从不复算
	var rr *float64
	price := bars[len(bars)-1].Close
	if snap != nil && snap.CurrentPrice > 0 {
		price = snap.CurrentPrice
	}
	if timing.HasLevels() {
		v := (timing.PriceTarget - price) / math.Max(rrEpsilon, price-timing.StopLoss)
		if convert.IsFinite(v) {
			rr = &v
		}
	}

	analysis := deep.Analyze(bars, cfg)
	c := signal.BuildContext(bars, snap, timing)
	if c == nil {
		return Decision{Reason: "insufficient data: cannot build context"}
	}

	hits := signal.Run(c, cfg)
	details := &Details{
		MLScore:    analysis.Score,
		Tier:       analysis.Tier,
		Confidence: analysis.Confidence,
	}

	// playbook 只在通用检测器一无所获时出场
	if len(hits) == 0 {
		if setup := playbook.Evaluate(c, cfg); setup.Ready {
			details.Playbook = &setup
			hits = append(hits, signal.Result{
				Detected: true,
				Name:     setup.Name,
				Score:    setup.Score,
				Category: signal.CategoryPlaybook,
			})
			if rr == nil && setup.RR > 0 {
				v := setup.RR
				rr = &v
			}
		}
	}

	total, applied := signal.Dedupe(hits, timing, cfg)
	details.Score = total
	details.Signals = applied

	if fired := veto.Gate(c, &analysis, cfg); len(fired) > 0 {
		reasons := make([]string, 0, len(fired))
		for _, f := range fired {
			details.Vetoes = append(details.Vetoes, f.Name)
			reasons = append(reasons, f.Reason)
		}
		return Decision{
			Reason:  "vetoed: " + strings.Join(reasons, "; "),
			RR:      rr,
			Details: details,
		}
	}

	if cfg.MinRR > 0 && rr != nil && *rr < cfg.MinRR {
		return Decision{
			Reason:  fmt.Sprintf("risk/reward %.2f below minimum %.2f", *rr, cfg.MinRR),
			RR:      rr,
			Details: details,
		}
	}

	if total >= cfg.BuyThreshold {
		names := make([]string, 0, len(applied))
		for _, a := range applied {
			names = append(names, a.Name)
		}
		reason := fmt.Sprintf("buy: score %.2f >= %.2f [%s]", total, cfg.BuyThreshold, strings.Join(names, ", "))
		if rr != nil {
			reason += fmt.Sprintf(" rr=%.2f", *rr)
		}
		return Decision{IsBuyNow: true, Reason: reason, RR: rr, Details: details}
	}

	return Decision{
		Reason:  fmt.Sprintf("score %.2f below buy threshold %.2f", total, cfg.BuyThreshold),
		RR:      rr,
		Details: details,
	}
}
