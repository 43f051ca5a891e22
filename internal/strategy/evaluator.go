package strategy

import (
	"math"

	"github.com/newthinker/vigil/internal/core"
)

// stopATRMultiple is how many average true ranges below the entry the
// reported protective stop sits.
const stopATRMultiple = 2.0

// Reason strings attached to disqualified evaluations. Callers match on
// these, so they are part of the package contract.
const (
	ReasonNoMovingAverages = "Not enough data to compute moving averages"
	ReasonNotStacked       = "Moving averages are not stacked in bullish order"
	ReasonTrendNotRising   = "200-day trend is not rising"
	ReasonTrendUnknown     = "Not enough data to assess 200-day trend"
	ReasonBelowMAs         = "Price is not above key moving averages"
	ReasonTooFarOffHigh    = "Price is extended too far below 52-week high"
	ReasonTooCloseToLow    = "Price is not sufficiently off the 52-week low"
	ReasonWeakRS           = "Relative strength is below threshold"
	ReasonNoVolumeDryUp    = "Volume has not dried up during base"
	ReasonShortBase        = "Base duration is too short"
	ReasonNoATR            = "ATR is not available"
)

// Evaluator applies the stage-two momentum template to one symbol at a
// time. It is not safe for concurrent use when the configuration is being
// retuned; the bot serializes access.
type Evaluator struct {
	config Config
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{config: cfg}
}

// Config returns the thresholds currently in force.
func (e *Evaluator) Config() Config {
	return e.config
}

// SetConfig replaces the thresholds, typically after adaptive tuning.
func (e *Evaluator) SetConfig(cfg Config) {
	e.config = cfg
}

// Evaluate screens one symbol's daily history against the template. The
// relative strength is the symbol's percentile rank within its scan
// universe and the base length is the estimated consolidation length in
// days. A disqualified result is not an error; errors are reserved for
// unusable input.
func (e *Evaluator) Evaluate(series core.PriceSeries, relativeStrength float64, baseLength int) (core.Evaluation, error) {
	set, err := ComputeSet(series)
	if err != nil {
		return core.Evaluation{}, err
	}

	last := len(set.Close) - 1
	closePrice := set.Close[last]

	var reasons []string
	fail := func(reason string) {
		reasons = append(reasons, reason)
	}

	sma50 := set.SMA50[last]
	sma150 := set.SMA150[last]
	sma200 := set.SMA200[last]

	// Without the long moving averages nothing else is worth checking.
	if math.IsNaN(sma50) || math.IsNaN(sma150) || math.IsNaN(sma200) {
		return core.Evaluation{
			Qualifies:  false,
			Score:      0,
			Reasons:    []string{ReasonNoMovingAverages},
			Metrics:    map[string]float64{"relative_strength": relativeStrength},
			EntryPrice: closePrice,
			StopPrice:  closePrice,
		}, nil
	}

	if !(sma50 > sma150 && sma150 > sma200) {
		fail(ReasonNotStacked)
	}

	if len(set.SMA200) > e.config.TrendLookback {
		earlier := set.SMA200[last-e.config.TrendLookback]
		if math.IsNaN(earlier) || sma200 <= earlier {
			fail(ReasonTrendNotRising)
		}
	} else {
		fail(ReasonTrendUnknown)
	}

	if closePrice <= sma50 || closePrice <= sma150 {
		fail(ReasonBelowMAs)
	}

	pctOffHigh := set.PctOffHigh[last]
	if !finite(pctOffHigh) || pctOffHigh > e.config.MaxPctOffHigh {
		fail(ReasonTooFarOffHigh)
	}

	pctFromLow := set.PctFromLow[last]
	if !finite(pctFromLow) || pctFromLow < e.config.MinPctFromLow {
		fail(ReasonTooCloseToLow)
	}

	if relativeStrength < e.config.RSThreshold {
		fail(ReasonWeakRS)
	}

	volumeDryUp := set.VolumeDryUp[last]
	if !finite(volumeDryUp) || volumeDryUp < e.config.MinVolumeDryUpRatio {
		fail(ReasonNoVolumeDryUp)
	}

	if baseLength < e.config.MinBaseLength {
		fail(ReasonShortBase)
	}

	atr := set.ATR14[last]
	if !finite(atr) || atr <= 0 {
		fail(ReasonNoATR)
	}

	qualifies := len(reasons) == 0

	var score float64
	if qualifies {
		components := []float64{
			math.Min(relativeStrength/100.0, 1.0),
			math.Min(1.0-pctOffHigh, 1.0),
			math.Min(pctFromLow, 1.0),
			math.Min(volumeDryUp/1.5, 1.0),
		}
		for _, c := range components {
			score += c
		}
		score /= float64(len(components))
	}

	metrics := map[string]float64{
		"sma_50":            sma50,
		"sma_150":           sma150,
		"sma_200":           sma200,
		"atr_14":            finiteOrNaN(atr),
		"pct_off_high":      finiteOrNaN(pctOffHigh),
		"pct_from_low":      finiteOrNaN(pctFromLow),
		"volume_dry_up":     finiteOrNaN(volumeDryUp),
		"relative_strength": relativeStrength,
	}

	return core.Evaluation{
		Qualifies:  qualifies,
		Score:      score,
		Reasons:    reasons,
		Metrics:    metrics,
		EntryPrice: closePrice,
		StopPrice:  closePrice - stopATRMultiple*atr,
	}, nil
}

func finiteOrNaN(x float64) float64 {
	if finite(x) {
		return x
	}
	return math.NaN()
}
