// Package playbook implements the composite higher-level setups that run
// only when the generic detectors found nothing: the pre-breakout coil
// and the risk/reward probation rescue. Each playbook synthesizes its own
// entry trigger, stop and first target.
package playbook

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/config"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/signal"
)

// 配置缺失或非法时的最小跳动价兜底；日线场景下取一分钱粒度。
const defaultTick = 0.01

// Setup 是单个 playbook 的输出。Ready=false 时价位字段无意义，
// Reason 说明缺了什么。
type Setup struct {
	Ready        bool
	Name         string
	Reason       string
	Score        float64
	EntryTrigger float64
	InitialStop  float64
	FirstTarget  float64
	RR           float64
	Diagnostics  []string
}

// Playbook 是组合型买点的统一接口。
type Playbook interface {
	Name() string
	Detect(c *signal.Context, cfg *config.EngineConfig) Setup
}

// Playbooks 返回固定顺序的 playbook 列表。
func Playbooks() []Playbook {
	return []Playbook{Coil{}, Probation{}}
}

// Evaluate 运行全部 playbook 并返回第一个就绪的 setup。
// 单个 playbook 的 panic 在边界处吞掉并转成 not-ready，
// 以免一个形态的缺陷拖垮整次评估。
func Evaluate(c *signal.Context, cfg *config.EngineConfig) Setup {
	for _, p := range Playbooks() {
		if s := safeDetect(p, c, cfg); s.Ready {
			return s
		}
	}
	return Setup{Reason: "no playbook setup"}
}

func safeDetect(p Playbook, c *signal.Context, cfg *config.EngineConfig) (s Setup) {
	defer func() {
		if r := recover(); r != nil {
			s = Setup{
				Name:   p.Name(),
				Reason: fmt.Sprintf("playbook %s panicked: %v", p.Name(), r),
			}
		}
	}()
	return p.Detect(c, cfg)
}

func notReady(name, reason string) Setup {
	return Setup{Name: name, Reason: reason}
}

func roundTick(v, tick float64) float64 {
	if tick <= 0 {
		tick = defaultTick
	}
	d := decimal.NewFromFloat(v)
	t := decimal.NewFromFloat(tick)
	return d.Div(t).Round(0).Mul(t).InexactFloat64()
}

func rr(entry, stop, target float64) float64 {
	risk := entry - stop
	if risk <= 0 {
		return 0
	}
	return (target - entry) / risk
}
