package config

import "strings"

// 默认值常量
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9992"
	defaultAppLogPath  = ""

	defaultDataWatchlist   = "configs/watchlist.yaml"
	defaultDataBarsDir     = "data/bars"
	defaultDataTimingDir   = "data/timing"
	defaultDataConcurrency = 4

	defaultStorePath = "data/scanlog.db"
	defaultReportDir = "data/reports"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Data.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Report.applyDefaults(keys)
	c.Engine.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DataConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("data.watchlist_path", &d.WatchlistPath, defaultDataWatchlist),
		stringFieldDefault("data.bars_dir", &d.BarsDir, defaultDataBarsDir),
		stringFieldDefault("data.timing_dir", &d.TimingDir, defaultDataTimingDir),
		intFieldDefault("data.concurrency", &d.Concurrency, defaultDataConcurrency),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func (r *ReportConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("report.dir", &r.Dir, defaultReportDir),
	)
}

// DefaultEngine 返回引擎阈值的完整默认集。
// 测试与库调用方可以直接使用，或在其上微调后注入 Evaluate。
func DefaultEngine() EngineConfig {
	return EngineConfig{
		BuyThreshold: 5.0,
		MinRR:        2.0,
		MinBars:      50,
		Scores: ScoreConfig{
			TrendReversal:         3.0,
			ResistanceBreak:       2.5,
			SqueezeBreakout:       2.5,
			PullbackEntry:         2.2,
			Engulfing:             1.5,
			Hammer:                1.2,
			ConsolidationBreakout: 2.0,
			SupportBounce:         2.0,
			EntryBase:             4.0,
			Playbook:              6.0,
			CapTrend:              4.5,
			CapLevel:              4.0,
			CapPullback:           3.0,
			CapCandlestick:        2.5,
			CapOther:              3.0,
		},
		RSI: RSIConfig{
			HardVeto:        80,
			SoftVeto:        70,
			BypassMA50Pct:   2.0,
			BypassGreenDays: 3,
		},
		Squeeze:  SqueezeConfig{MaxWidthPct: 5.0},
		Pullback: PullbackConfig{MinDepthPct: 3.0, MaxDepthPct: 15.0, MADistancePct: 2.0},
		Hammer:   HammerConfig{LowerWickBody: 2.0, DojiBodyPct: 0.1},
		Consolidation: ConsolidationConfig{
			BaseBars:   5,
			VolumeMult: 1.5,
		},
		Parabolic: ParabolicConfig{
			Gain5DayPct: 12.0,
			RSIExtreme:  78.0,
			ATRStretch:  3.0,
			MaxConsecUp: 6,
			MinHits:     2,
		},
		Momentum: MomentumConfig{
			PersistenceRSI:  55.0,
			PersistenceBars: 10,
			HealthyADX:      25.0,
		},
		Veto: VetoConfig{
			SingleDayDropPct:  -8.0,
			DropVolumeMult:    1.3,
			High52BufferPct:   2.0,
			BreakVolumeMult:   3.0,
			BreakRSI:          75.0,
			ExternalBearScore: 5,
			WeakBounceVolMult: 1.0,
		},
		Playbook: PlaybookConfig{
			TickSize: 0.01,
			Coil: CoilConfig{
				ProximityATRMult: 1.8,
				ProximityPct:     2.5,
				ContractionRatio: 0.92,
				FlatBaseATRMult:  1.05,
				DryVolumeMult:    1.05,
				StopResATRMult:   0.5,
				StopBaseATRMult:  0.15,
				TargetBoxMult:    0.6,
				TargetATRMult:    1.8,
				MinRRThrust:      1.35,
				MinRRQuiet:       1.6,
				ThrustCloseATR:   0.08,
				ThrustVolMult:    1.35,
				TightBaseATRMult: 0.8,
			},
			Probation: ProbationConfig{
				MaxRSI:          62.0,
				MADistATRMult:   2.6,
				MaxConsecUp:     6,
				BounceATRMult:   1.0,
				StopSupATRMult:  0.4,
				StopMAATRMult:   0.6,
				StopPxATRMult:   1.2,
				HeadroomATRMult: 0.65,
			},
		},
	}
}

// applyDefaults 按字段补齐 engine 阈值：配置文件显式写了的保持原样，
// 其余回落到 DefaultEngine 的对应值。
func (e *EngineConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	def := DefaultEngine()
	applyFieldDefaults(keys,
		floatFieldDefault("engine.buy_threshold", &e.BuyThreshold, def.BuyThreshold),
		floatFieldDefault("engine.min_rr", &e.MinRR, def.MinRR),
		intFieldDefault("engine.min_bars", &e.MinBars, def.MinBars),

		floatFieldDefault("engine.scores.trend_reversal", &e.Scores.TrendReversal, def.Scores.TrendReversal),
		floatFieldDefault("engine.scores.resistance_break", &e.Scores.ResistanceBreak, def.Scores.ResistanceBreak),
		floatFieldDefault("engine.scores.squeeze_breakout", &e.Scores.SqueezeBreakout, def.Scores.SqueezeBreakout),
		floatFieldDefault("engine.scores.pullback_entry", &e.Scores.PullbackEntry, def.Scores.PullbackEntry),
		floatFieldDefault("engine.scores.engulfing", &e.Scores.Engulfing, def.Scores.Engulfing),
		floatFieldDefault("engine.scores.hammer", &e.Scores.Hammer, def.Scores.Hammer),
		floatFieldDefault("engine.scores.consolidation_breakout", &e.Scores.ConsolidationBreakout, def.Scores.ConsolidationBreakout),
		floatFieldDefault("engine.scores.support_bounce", &e.Scores.SupportBounce, def.Scores.SupportBounce),
		floatFieldDefault("engine.scores.entry_base", &e.Scores.EntryBase, def.Scores.EntryBase),
		floatFieldDefault("engine.scores.playbook", &e.Scores.Playbook, def.Scores.Playbook),
		floatFieldDefault("engine.scores.cap_trend", &e.Scores.CapTrend, def.Scores.CapTrend),
		floatFieldDefault("engine.scores.cap_level", &e.Scores.CapLevel, def.Scores.CapLevel),
		floatFieldDefault("engine.scores.cap_pullback", &e.Scores.CapPullback, def.Scores.CapPullback),
		floatFieldDefault("engine.scores.cap_candlestick", &e.Scores.CapCandlestick, def.Scores.CapCandlestick),
		floatFieldDefault("engine.scores.cap_other", &e.Scores.CapOther, def.Scores.CapOther),

		floatFieldDefault("engine.rsi.hard_veto", &e.RSI.HardVeto, def.RSI.HardVeto),
		floatFieldDefault("engine.rsi.soft_veto", &e.RSI.SoftVeto, def.RSI.SoftVeto),
		floatFieldDefault("engine.rsi.bypass_ma50_pct", &e.RSI.BypassMA50Pct, def.RSI.BypassMA50Pct),
		intFieldDefault("engine.rsi.bypass_green_days", &e.RSI.BypassGreenDays, def.RSI.BypassGreenDays),

		floatFieldDefault("engine.squeeze.max_width_pct", &e.Squeeze.MaxWidthPct, def.Squeeze.MaxWidthPct),

		floatFieldDefault("engine.pullback.min_depth_pct", &e.Pullback.MinDepthPct, def.Pullback.MinDepthPct),
		floatFieldDefault("engine.pullback.max_depth_pct", &e.Pullback.MaxDepthPct, def.Pullback.MaxDepthPct),
		floatFieldDefault("engine.pullback.ma_distance_pct", &e.Pullback.MADistancePct, def.Pullback.MADistancePct),

		floatFieldDefault("engine.hammer.lower_wick_body", &e.Hammer.LowerWickBody, def.Hammer.LowerWickBody),
		floatFieldDefault("engine.hammer.doji_body_pct", &e.Hammer.DojiBodyPct, def.Hammer.DojiBodyPct),

		intFieldDefault("engine.consolidation.base_bars", &e.Consolidation.BaseBars, def.Consolidation.BaseBars),
		floatFieldDefault("engine.consolidation.volume_mult", &e.Consolidation.VolumeMult, def.Consolidation.VolumeMult),

		floatFieldDefault("engine.parabolic.gain_5day_pct", &e.Parabolic.Gain5DayPct, def.Parabolic.Gain5DayPct),
		floatFieldDefault("engine.parabolic.rsi_extreme", &e.Parabolic.RSIExtreme, def.Parabolic.RSIExtreme),
		floatFieldDefault("engine.parabolic.atr_stretch", &e.Parabolic.ATRStretch, def.Parabolic.ATRStretch),
		intFieldDefault("engine.parabolic.max_consec_up", &e.Parabolic.MaxConsecUp, def.Parabolic.MaxConsecUp),
		intFieldDefault("engine.parabolic.min_hits", &e.Parabolic.MinHits, def.Parabolic.MinHits),

		floatFieldDefault("engine.momentum.persistence_rsi", &e.Momentum.PersistenceRSI, def.Momentum.PersistenceRSI),
		intFieldDefault("engine.momentum.persistence_bars", &e.Momentum.PersistenceBars, def.Momentum.PersistenceBars),
		floatFieldDefault("engine.momentum.healthy_adx", &e.Momentum.HealthyADX, def.Momentum.HealthyADX),

		negFloatFieldDefault("engine.veto.single_day_drop_pct", &e.Veto.SingleDayDropPct, def.Veto.SingleDayDropPct),
		floatFieldDefault("engine.veto.drop_volume_mult", &e.Veto.DropVolumeMult, def.Veto.DropVolumeMult),
		floatFieldDefault("engine.veto.high52_buffer_pct", &e.Veto.High52BufferPct, def.Veto.High52BufferPct),
		floatFieldDefault("engine.veto.break_volume_mult", &e.Veto.BreakVolumeMult, def.Veto.BreakVolumeMult),
		floatFieldDefault("engine.veto.break_rsi", &e.Veto.BreakRSI, def.Veto.BreakRSI),
		intFieldDefault("engine.veto.external_bear_score", &e.Veto.ExternalBearScore, def.Veto.ExternalBearScore),
		floatFieldDefault("engine.veto.weak_bounce_vol_mult", &e.Veto.WeakBounceVolMult, def.Veto.WeakBounceVolMult),

		floatFieldDefault("engine.playbook.tick_size", &e.Playbook.TickSize, def.Playbook.TickSize),
		floatFieldDefault("engine.playbook.coil.proximity_atr_mult", &e.Playbook.Coil.ProximityATRMult, def.Playbook.Coil.ProximityATRMult),
		floatFieldDefault("engine.playbook.coil.proximity_pct", &e.Playbook.Coil.ProximityPct, def.Playbook.Coil.ProximityPct),
		floatFieldDefault("engine.playbook.coil.contraction_ratio", &e.Playbook.Coil.ContractionRatio, def.Playbook.Coil.ContractionRatio),
		floatFieldDefault("engine.playbook.coil.flat_base_atr_mult", &e.Playbook.Coil.FlatBaseATRMult, def.Playbook.Coil.FlatBaseATRMult),
		floatFieldDefault("engine.playbook.coil.dry_volume_mult", &e.Playbook.Coil.DryVolumeMult, def.Playbook.Coil.DryVolumeMult),
		floatFieldDefault("engine.playbook.coil.stop_res_atr_mult", &e.Playbook.Coil.StopResATRMult, def.Playbook.Coil.StopResATRMult),
		floatFieldDefault("engine.playbook.coil.stop_base_atr_mult", &e.Playbook.Coil.StopBaseATRMult, def.Playbook.Coil.StopBaseATRMult),
		floatFieldDefault("engine.playbook.coil.target_box_mult", &e.Playbook.Coil.TargetBoxMult, def.Playbook.Coil.TargetBoxMult),
		floatFieldDefault("engine.playbook.coil.target_atr_mult", &e.Playbook.Coil.TargetATRMult, def.Playbook.Coil.TargetATRMult),
		floatFieldDefault("engine.playbook.coil.min_rr_thrust", &e.Playbook.Coil.MinRRThrust, def.Playbook.Coil.MinRRThrust),
		floatFieldDefault("engine.playbook.coil.min_rr_quiet", &e.Playbook.Coil.MinRRQuiet, def.Playbook.Coil.MinRRQuiet),
		floatFieldDefault("engine.playbook.coil.thrust_close_atr", &e.Playbook.Coil.ThrustCloseATR, def.Playbook.Coil.ThrustCloseATR),
		floatFieldDefault("engine.playbook.coil.thrust_vol_mult", &e.Playbook.Coil.ThrustVolMult, def.Playbook.Coil.ThrustVolMult),
		floatFieldDefault("engine.playbook.coil.tight_base_atr_mult", &e.Playbook.Coil.TightBaseATRMult, def.Playbook.Coil.TightBaseATRMult),

		floatFieldDefault("engine.playbook.probation.max_rsi", &e.Playbook.Probation.MaxRSI, def.Playbook.Probation.MaxRSI),
		floatFieldDefault("engine.playbook.probation.ma_dist_atr_mult", &e.Playbook.Probation.MADistATRMult, def.Playbook.Probation.MADistATRMult),
		intFieldDefault("engine.playbook.probation.max_consec_up", &e.Playbook.Probation.MaxConsecUp, def.Playbook.Probation.MaxConsecUp),
		floatFieldDefault("engine.playbook.probation.bounce_atr_mult", &e.Playbook.Probation.BounceATRMult, def.Playbook.Probation.BounceATRMult),
		floatFieldDefault("engine.playbook.probation.stop_sup_atr_mult", &e.Playbook.Probation.StopSupATRMult, def.Playbook.Probation.StopSupATRMult),
		floatFieldDefault("engine.playbook.probation.stop_ma_atr_mult", &e.Playbook.Probation.StopMAATRMult, def.Playbook.Probation.StopMAATRMult),
		floatFieldDefault("engine.playbook.probation.stop_px_atr_mult", &e.Playbook.Probation.StopPxATRMult, def.Playbook.Probation.StopPxATRMult),
		floatFieldDefault("engine.playbook.probation.headroom_atr_mult", &e.Playbook.Probation.HeadroomATRMult, def.Playbook.Probation.HeadroomATRMult),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target == 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// negFloatFieldDefault 用于合法值为负数的字段（如单日跌幅阈值）。
func negFloatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target >= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
