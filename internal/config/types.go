package config

import "strings"

// Config 是扫描器的主配置载体。
type Config struct {
	App    AppConfig    `toml:"app"`
	Data   DataConfig   `toml:"data"`
	Engine EngineConfig `toml:"engine"`
	Store  StoreConfig  `toml:"store"`
	Report ReportConfig `toml:"report"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// DataConfig 描述批量扫描的输入来源。
type DataConfig struct {
	WatchlistPath string `toml:"watchlist_path"`
	BarsDir       string `toml:"bars_dir"`
	TimingDir     string `toml:"timing_dir"`
	Concurrency   int    `toml:"concurrency"`
}

// StoreConfig 控制扫描决策日志的落盘。
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// ReportConfig 控制 HTML K线报告输出。
type ReportConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// EngineConfig 汇集买点引擎的全部可调阈值。
// 引擎入口显式接收该结构（依赖注入），各评估之间互不影响。
type EngineConfig struct {
	BuyThreshold float64 `toml:"buy_threshold"`
	MinRR        float64 `toml:"min_rr"`
	MinBars      int     `toml:"min_bars"`

	Scores        ScoreConfig         `toml:"scores"`
	RSI           RSIConfig           `toml:"rsi"`
	Squeeze       SqueezeConfig       `toml:"squeeze"`
	Pullback      PullbackConfig      `toml:"pullback"`
	Hammer        HammerConfig        `toml:"hammer"`
	Consolidation ConsolidationConfig `toml:"consolidation"`
	Parabolic     ParabolicConfig     `toml:"parabolic"`
	Momentum      MomentumConfig      `toml:"momentum"`
	Veto          VetoConfig          `toml:"veto"`
	Playbook      PlaybookConfig      `toml:"playbook"`
}

// ScoreConfig 是各信号的基础分与类别上限。
type ScoreConfig struct {
	TrendReversal         float64 `toml:"trend_reversal"`
	ResistanceBreak       float64 `toml:"resistance_break"`
	SqueezeBreakout       float64 `toml:"squeeze_breakout"`
	PullbackEntry         float64 `toml:"pullback_entry"`
	Engulfing             float64 `toml:"engulfing"`
	Hammer                float64 `toml:"hammer"`
	ConsolidationBreakout float64 `toml:"consolidation_breakout"`
	SupportBounce         float64 `toml:"support_bounce"`
	EntryBase             float64 `toml:"entry_base"`
	Playbook              float64 `toml:"playbook"`

	CapTrend       float64 `toml:"cap_trend"`
	CapLevel       float64 `toml:"cap_level"`
	CapPullback    float64 `toml:"cap_pullback"`
	CapCandlestick float64 `toml:"cap_candlestick"`
	CapOther       float64 `toml:"cap_other"`
}

type RSIConfig struct {
	HardVeto        float64 `toml:"hard_veto"`
	SoftVeto        float64 `toml:"soft_veto"`
	BypassMA50Pct   float64 `toml:"bypass_ma50_pct"`
	BypassGreenDays int     `toml:"bypass_green_days"`
}

type SqueezeConfig struct {
	MaxWidthPct float64 `toml:"max_width_pct"`
}

type PullbackConfig struct {
	MinDepthPct   float64 `toml:"min_depth_pct"`
	MaxDepthPct   float64 `toml:"max_depth_pct"`
	MADistancePct float64 `toml:"ma_distance_pct"`
}

type HammerConfig struct {
	LowerWickBody float64 `toml:"lower_wick_body"`
	DojiBodyPct   float64 `toml:"doji_body_pct"`
}

type ConsolidationConfig struct {
	BaseBars   int     `toml:"base_bars"`
	VolumeMult float64 `toml:"volume_mult"`
}

// ParabolicConfig 描述过热/抛物线判定的五个独立条件阈值。
type ParabolicConfig struct {
	Gain5DayPct float64 `toml:"gain_5day_pct"`
	RSIExtreme  float64 `toml:"rsi_extreme"`
	ATRStretch  float64 `toml:"atr_stretch"`
	MaxConsecUp int     `toml:"max_consec_up"`
	MinHits     int     `toml:"min_hits"`
}

type MomentumConfig struct {
	PersistenceRSI  float64 `toml:"persistence_rsi"`
	PersistenceBars int     `toml:"persistence_bars"`
	HealthyADX      float64 `toml:"healthy_adx"`
}

type VetoConfig struct {
	SingleDayDropPct  float64 `toml:"single_day_drop_pct"`
	DropVolumeMult    float64 `toml:"drop_volume_mult"`
	High52BufferPct   float64 `toml:"high52_buffer_pct"`
	BreakVolumeMult   float64 `toml:"break_volume_mult"`
	BreakRSI          float64 `toml:"break_rsi"`
	ExternalBearScore int     `toml:"external_bear_score"`
	WeakBounceVolMult float64 `toml:"weak_bounce_vol_mult"`
}

// PlaybookConfig 汇集两个 playbook 的阈值。
// TickSize 是价位取整的最小跳动价，playbook 合成的价位都贴到该粒度。
type PlaybookConfig struct {
	TickSize  float64         `toml:"tick_size"`
	Coil      CoilConfig      `toml:"coil"`
	Probation ProbationConfig `toml:"probation"`
}

type CoilConfig struct {
	ProximityATRMult float64 `toml:"proximity_atr_mult"`
	ProximityPct     float64 `toml:"proximity_pct"`
	ContractionRatio float64 `toml:"contraction_ratio"`
	FlatBaseATRMult  float64 `toml:"flat_base_atr_mult"`
	DryVolumeMult    float64 `toml:"dry_volume_mult"`
	StopResATRMult   float64 `toml:"stop_res_atr_mult"`
	StopBaseATRMult  float64 `toml:"stop_base_atr_mult"`
	TargetBoxMult    float64 `toml:"target_box_mult"`
	TargetATRMult    float64 `toml:"target_atr_mult"`
	MinRRThrust      float64 `toml:"min_rr_thrust"`
	MinRRQuiet       float64 `toml:"min_rr_quiet"`
	ThrustCloseATR   float64 `toml:"thrust_close_atr"`
	ThrustVolMult    float64 `toml:"thrust_vol_mult"`
	TightBaseATRMult float64 `toml:"tight_base_atr_mult"`
}

type ProbationConfig struct {
	MaxRSI          float64 `toml:"max_rsi"`
	MADistATRMult   float64 `toml:"ma_dist_atr_mult"`
	MaxConsecUp     int     `toml:"max_consec_up"`
	BounceATRMult   float64 `toml:"bounce_atr_mult"`
	StopSupATRMult  float64 `toml:"stop_sup_atr_mult"`
	StopMAATRMult   float64 `toml:"stop_ma_atr_mult"`
	StopPxATRMult   float64 `toml:"stop_px_atr_mult"`
	HeadroomATRMult float64 `toml:"headroom_atr_mult"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
