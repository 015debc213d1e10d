package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := c.Engine.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("app.log_level unsupported: %s", a.LogLevel)
	}
}

func (d *DataConfig) validate() error {
	if d.Concurrency < 1 {
		return fmt.Errorf("data.concurrency must be >= 1")
	}
	if d.Concurrency > 64 {
		return fmt.Errorf("data.concurrency too large (max 64)")
	}
	return nil
}

func (s *StoreConfig) validate() error {
	if s.Enabled && strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("store.path required when store.enabled")
	}
	return nil
}

func (e *EngineConfig) validate() error {
	if e.BuyThreshold <= 0 {
		return fmt.Errorf("engine.buy_threshold must be > 0")
	}
	if e.MinRR < 0 {
		return fmt.Errorf("engine.min_rr must be >= 0")
	}
	if e.MinBars < 2 {
		return fmt.Errorf("engine.min_bars must be >= 2")
	}
	if e.RSI.HardVeto <= e.RSI.SoftVeto {
		return fmt.Errorf("engine.rsi.hard_veto must exceed engine.rsi.soft_veto")
	}
	if e.Pullback.MinDepthPct >= e.Pullback.MaxDepthPct {
		return fmt.Errorf("engine.pullback depth range inverted")
	}
	if e.Veto.SingleDayDropPct >= 0 {
		return fmt.Errorf("engine.veto.single_day_drop_pct must be negative")
	}
	if e.Playbook.Coil.MinRRThrust > e.Playbook.Coil.MinRRQuiet {
		return fmt.Errorf("engine.playbook.coil.min_rr_thrust must not exceed min_rr_quiet")
	}
	return nil
}
