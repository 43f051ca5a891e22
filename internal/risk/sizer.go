// Package risk sizes positions using fixed-fractional risk and
// volatility-based stops.
package risk

import (
	"fmt"
	"math"

	"github.com/newthinker/vigil/internal/core"
)

// SizerConfig defines position sizing parameters.
type SizerConfig struct {
	// AccountEquity is the total account value sizing is based on.
	AccountEquity float64 `mapstructure:"account_equity"`
	// RiskFraction is the fraction of equity put at risk on one trade.
	RiskFraction float64 `mapstructure:"risk_fraction"`
	// ATRMultiplier sets how many average true ranges below the entry
	// the protective stop is placed.
	ATRMultiplier float64 `mapstructure:"atr_multiplier"`
}

// DefaultSizerConfig returns a SizerConfig with standard values.
func DefaultSizerConfig() SizerConfig {
	return SizerConfig{
		AccountEquity: 100000.0,
		RiskFraction:  0.01,
		ATRMultiplier: 2.0,
	}
}

// Validate rejects parameters that cannot produce a meaningful size.
func (c SizerConfig) Validate() error {
	if c.AccountEquity <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("account equity %.2f must be positive", c.AccountEquity))
	}
	if c.RiskFraction <= 0 || c.RiskFraction >= 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("risk fraction %.4f outside (0,1)", c.RiskFraction))
	}
	if c.ATRMultiplier <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("atr multiplier %.2f must be positive", c.ATRMultiplier))
	}
	return nil
}

// Sizer calculates share counts from volatility and fixed-fractional risk.
type Sizer struct {
	config SizerConfig
}

// NewSizer creates a Sizer with the given configuration.
func NewSizer(config SizerConfig) *Sizer {
	return &Sizer{config: config}
}

// Config returns the parameters the sizer was built with.
func (s *Sizer) Config() SizerConfig {
	return s.config
}

// SizePosition turns an entry price and an ATR reading into a position
// plan. Shares are floored so the risk budget is never exceeded. When the
// per-share risk is not positive the plan carries zero shares and no
// exposure.
func (s *Sizer) SizePosition(entryPrice, atr float64) (core.PositionPlan, error) {
	if math.IsNaN(entryPrice) || entryPrice <= 0 {
		return core.PositionPlan{}, core.WrapError(core.ErrValidation, fmt.Errorf("entry price %.4f must be positive", entryPrice))
	}
	if math.IsNaN(atr) || atr <= 0 {
		return core.PositionPlan{}, core.WrapError(core.ErrValidation, fmt.Errorf("atr %.4f must be positive", atr))
	}

	riskCapital := s.config.AccountEquity * s.config.RiskFraction
	stopPrice := entryPrice - s.config.ATRMultiplier*atr
	perShareRisk := entryPrice - stopPrice

	if perShareRisk <= 0 {
		return core.PositionPlan{
			Shares:      0,
			StopPrice:   stopPrice,
			RiskCapital: riskCapital,
		}, nil
	}

	shares := int(math.Floor(riskCapital / perShareRisk))
	return core.PositionPlan{
		Shares:      shares,
		StopPrice:   stopPrice,
		RiskCapital: riskCapital,
		Exposure:    float64(shares) * entryPrice,
	}, nil
}
