package deep

import (
	"github.com/TheGoodManagers-japan/stockAnalysis-sub003/internal/market"
)

// DeltaProfile 是五档买卖压力分类。
type DeltaProfile string

const (
	DeltaStrongBuying  DeltaProfile = "STRONG_BUYING"
	DeltaBuying        DeltaProfile = "BUYING"
	DeltaNeutral       DeltaProfile = "NEUTRAL"
	DeltaSelling       DeltaProfile = "SELLING"
	DeltaStrongSelling DeltaProfile = "STRONG_SELLING"
)

// AuctionProfile 按收盘在振幅中的位置把每根K线的成交量拆成买卖两侧。
type AuctionProfile struct {
	BullishBars      int
	BearishBars      int
	SellerExhaustion bool
	BuyerExhaustion  bool
	Delta            DeltaProfile
	DeltaRatio       float64
}

const auctionWindow = 10

func analyzeAuction(bars []market.Bar) AuctionProfile {
	out := AuctionProfile{Delta: DeltaNeutral}
	window := market.Tail(bars, auctionWindow)
	if len(window) == 0 {
		return out
	}
	var delta, totalVol float64
	for _, b := range window {
		rng := b.Range()
		if rng <= 0 || b.Volume <= 0 {
			continue
		}
		buyShare := (b.Close - b.Low) / rng
		if buyShare > 0.6 {
			out.BullishBars++
		} else if buyShare < 0.4 {
			out.BearishBars++
		}
		delta += b.Volume * (2*buyShare - 1)
		totalVol += b.Volume
	}
	if totalVol > 0 {
		out.DeltaRatio = delta / totalVol
	}
	switch {
	case out.DeltaRatio > 0.4:
		out.Delta = DeltaStrongBuying
	case out.DeltaRatio > 0.15:
		out.Delta = DeltaBuying
	case out.DeltaRatio < -0.4:
		out.Delta = DeltaStrongSelling
	case out.DeltaRatio < -0.15:
		out.Delta = DeltaSelling
	}

	// 衰竭：反向影线超过实体两倍。看最近两根。
	for _, b := range market.Tail(window, 2) {
		body := b.Body()
		if body <= 0 {
			body = b.Range() * 0.05 // 十字星给个地板，避免 0 实体放大影线
		}
		if b.LowerWick() > 2*body {
			out.SellerExhaustion = true
		}
		if b.UpperWick() > 2*body {
			out.BuyerExhaustion = true
		}
	}
	return out
}
