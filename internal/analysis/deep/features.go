package deep

// FeatureSet 把各子分析器的结论拍平成一个有类型的特征向量，
// 打分器只依赖它，不直接触碰子分析器。
type FeatureSet struct {
	// 拍卖 / 订单流
	BuyingPressure   bool `json:"buyingPressure"`
	SellingPressure  bool `json:"sellingPressure"`
	SellerExhaustion bool `json:"sellerExhaustion"`
	BuyerExhaustion  bool `json:"buyerExhaustion"`
	Absorption       bool `json:"absorption"`

	// 量价分布
	POCRising    bool `json:"pocRising"`
	POCFalling   bool `json:"pocFalling"`
	Accumulating bool `json:"accumulating"`
	Distributing bool `json:"distributing"`

	// 价格行为
	Efficiency    float64 `json:"efficiency"`
	CleanAction   bool    `json:"cleanAction"`
	ChoppyAction  bool    `json:"choppyAction"`
	NearRangeHigh bool    `json:"nearRangeHigh"`
	NearRangeLow  bool    `json:"nearRangeLow"`

	// 背离与形态
	HiddenBullish    bool `json:"hiddenBullish"`
	HiddenBearish    bool `json:"hiddenBearish"`
	WyckoffSpring    bool `json:"wyckoffSpring"`
	WyckoffUpthrust  bool `json:"wyckoffUpthrust"`
	FailedBreakout   bool `json:"failedBreakout"`
	SuccessfulRetest bool `json:"successfulRetest"`
	ThreePushesUp    bool `json:"threePushesUp"`

	// 波动周期
	Squeeze bool       `json:"squeeze"`
	Phase   CyclePhase `json:"phase"`

	// 趋势质量
	Extended       bool    `json:"extended"`
	Parabolic      bool    `json:"parabolic"`
	ADX            float64 `json:"adx"`
	HealthyADX     bool    `json:"healthyAdx"`
	RSIPersistence float64 `json:"rsiPersistence"`
}

func buildFeatures(a *Analysis) FeatureSet {
	return FeatureSet{
		BuyingPressure:   a.OrderFlow.BuyingPressure,
		SellingPressure:  a.OrderFlow.SellingPressure,
		SellerExhaustion: a.Auction.SellerExhaustion,
		BuyerExhaustion:  a.Auction.BuyerExhaustion,
		Absorption:       a.OrderFlow.Absorption,

		POCRising:    a.VolumeProfile.Rising,
		POCFalling:   a.VolumeProfile.Falling,
		Accumulating: a.Institutional.Accumulating,
		Distributing: a.Institutional.Distributing,

		Efficiency:    a.PriceAction.Efficiency,
		CleanAction:   a.PriceAction.Clean,
		ChoppyAction:  a.PriceAction.Choppy,
		NearRangeHigh: a.PriceAction.NearRangeHigh,
		NearRangeLow:  a.PriceAction.NearRangeLow,

		HiddenBullish:    a.Divergence.HiddenBullish,
		HiddenBearish:    a.Divergence.HiddenBearish,
		WyckoffSpring:    a.Patterns.WyckoffSpring,
		WyckoffUpthrust:  a.Patterns.WyckoffUpthrust,
		FailedBreakout:   a.Patterns.FailedBreakout,
		SuccessfulRetest: a.Patterns.SuccessfulRetest,
		ThreePushesUp:    a.Patterns.ThreePushesUp,

		Squeeze: a.Volatility.Squeeze,
		Phase:   a.Volatility.Phase,

		Extended:       a.Trend.Extended,
		Parabolic:      a.Trend.Parabolic,
		ADX:            a.Trend.ADX,
		HealthyADX:     a.Trend.HealthyADX,
		RSIPersistence: a.Trend.RSIPersistence,
	}
}
