package signal

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
)

// Category 是信号的去重类别，由检测器在构造时声明。
type Category string

const (
	CategoryEntry       Category = "entry"
	CategoryTrend       Category = "trend"
	CategoryLevel       Category = "level"
	CategoryPullback    Category = "pullback"
	CategoryCandlestick Category = "candlestick"
	CategoryOther       Category = "other"
	// playbook 信号独占出场（检测器全部落空时才会运行），
	// 不参与类别封顶，否则救援分数会被压到买入线以下。
	CategoryPlaybook Category = "playbook"
)

// Meta 是检测器的静态描述。
type Meta struct {
	Name     string
	Category Category
}

// Result 是单个检测器的输出。未命中时 Detected=false，其余字段忽略。
type Result struct {
	Detected bool
	Name     string
	Score    float64
	Category Category
}

// Detector 是所有买点检测器的统一接口。实现必须是纯函数：
// 不修改上下文，不保留跨次调用状态。
type Detector interface {
	Meta() Meta
	Evaluate(c *Context, cfg *config.EngineConfig) Result
}

// Detectors 返回固定顺序的完整检测器列表。
// 顺序即 reason 文本里信号名的出现顺序。
func Detectors() []Detector {
	return []Detector{
		trendReversal{},
		resistanceBreak{},
		squeezeBreakout{},
		pullbackEntry{},
		bullishEngulfing{},
		hammer{},
		consolidationBreakout{},
		supportBounce{},
		entryTimingPass{},
	}
}

// Run 依次执行全部检测器，只返回命中的信号。
func Run(c *Context, cfg *config.EngineConfig) []Result {
	var hits []Result
	for _, d := range Detectors() {
		if r := d.Evaluate(c, cfg); r.Detected {
			hits = append(hits, r)
		}
	}
	return hits
}

func (m Meta) hit(score float64) Result {
	return Result{Detected: true, Name: m.Name, Score: score, Category: m.Category}
}

func miss() Result { return Result{} }
