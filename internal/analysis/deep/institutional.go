package deep

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/pkg/convert"
)

const institutionalWindow = 25

// Institutional 通过放量日的收盘位置统计机构的吸筹/派发行为。
type Institutional struct {
	AccumulationDays int
	DistributionDays int
	Accumulating     bool
	Distributing     bool
}

func analyzeInstitutional(bars []market.Bar) Institutional {
	if len(bars) < institutionalWindow {
		return Institutional{}
	}
	baseline := avgVolumeBefore(bars, len(bars), 50)
	if baseline <= 0 {
		return Institutional{}
	}
	inst := Institutional{}
	for _, b := range market.Tail(bars, institutionalWindow) {
		if b.Volume < 1.5*baseline {
			continue
		}
		pos := 0.5
		if rng := b.Range(); rng > 0 {
			pos = convert.SafeDiv(b.Close-b.Low, rng)
		}
		switch {
		case pos > 0.6:
			inst.AccumulationDays++
		case pos < 0.4:
			inst.DistributionDays++
		}
	}
	inst.Accumulating = inst.AccumulationDays >= 3 && inst.AccumulationDays > inst.DistributionDays
	inst.Distributing = inst.DistributionDays >= 3 && inst.DistributionDays > inst.AccumulationDays
	return inst
}
