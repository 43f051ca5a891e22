package strategy

import (
	"fmt"

	"github.com/newthinker/vigil/internal/core"
)

// Config holds the qualification thresholds for the momentum template.
type Config struct {
	RSThreshold         float64 `mapstructure:"rs_threshold"`
	MaxPctOffHigh       float64 `mapstructure:"max_pct_off_high"`
	MinPctFromLow       float64 `mapstructure:"min_pct_from_low"`
	MinVolumeDryUpRatio float64 `mapstructure:"min_volume_dry_up_ratio"`
	TrendLookback       int     `mapstructure:"trend_lookback"`
	MinBaseLength       int     `mapstructure:"min_base_length"`
}

// DefaultConfig returns the thresholds the template ships with.
func DefaultConfig() Config {
	return Config{
		RSThreshold:         70.0,
		MaxPctOffHigh:       0.25,
		MinPctFromLow:       0.30,
		MinVolumeDryUpRatio: 0.5,
		TrendLookback:       10,
		MinBaseLength:       35,
	}
}

// Validate rejects threshold combinations the screen cannot work with.
func (c Config) Validate() error {
	if c.RSThreshold < 0 || c.RSThreshold > 100 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("rs_threshold %.2f outside [0,100]", c.RSThreshold))
	}
	if c.MaxPctOffHigh <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("max_pct_off_high %.4f must be positive", c.MaxPctOffHigh))
	}
	if c.MinPctFromLow < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("min_pct_from_low %.4f must not be negative", c.MinPctFromLow))
	}
	if c.MinVolumeDryUpRatio <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("min_volume_dry_up_ratio %.4f must be positive", c.MinVolumeDryUpRatio))
	}
	if c.TrendLookback <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("trend_lookback %d must be positive", c.TrendLookback))
	}
	if c.MinBaseLength <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("min_base_length %d must be positive", c.MinBaseLength))
	}
	return nil
}
