package core

import (
	"fmt"
	"strings"
)

// PriceSeries holds aligned daily OHLCV history for one symbol, oldest bar
// first. Index i refers to the same trading day in every sequence.
type PriceSeries struct {
	Close  []float64
	High   []float64
	Low    []float64
	Volume []float64
}

// Len returns the number of trading days covered by the series.
func (p PriceSeries) Len() int {
	return len(p.Close)
}

// Validate checks that every required sequence is present and that all
// sequences cover the same positive number of days. Absent sequences are
// reported by name so callers can see exactly what the feed failed to
// deliver.
func (p PriceSeries) Validate() error {
	var missing []string
	if len(p.Close) == 0 {
		missing = append(missing, "close")
	}
	if len(p.High) == 0 {
		missing = append(missing, "high")
	}
	if len(p.Low) == 0 {
		missing = append(missing, "low")
	}
	if len(p.Volume) == 0 {
		missing = append(missing, "volume")
	}
	if len(missing) > 0 {
		return WrapError(ErrValidation, fmt.Errorf("price series missing sequences: %s", strings.Join(missing, ", ")))
	}

	n := len(p.Close)
	if len(p.High) != n || len(p.Low) != n || len(p.Volume) != n {
		return WrapError(ErrValidation, fmt.Errorf("price series lengths differ: close=%d high=%d low=%d volume=%d",
			n, len(p.High), len(p.Low), len(p.Volume)))
	}
	return nil
}

// Snapshot is one row of a fast-mover scan: the most recent daily bar of a
// symbol reduced to the fields the ranking needs.
type Snapshot struct {
	Symbol        string
	PercentChange float64
	Volume        float64
	Close         float64
}

// Evaluation is the verdict of the stage-two screen for one symbol.
// Reasons is empty exactly when Qualifies is true. Metrics carries the
// indicator readings the verdict was based on, keyed by indicator name,
// and may hold NaN for readings that were unavailable.
type Evaluation struct {
	Qualifies  bool
	Score      float64
	Reasons    []string
	Metrics    map[string]float64
	EntryPrice float64
	StopPrice  float64
}

// PositionPlan describes how large a position to take and where the
// protective stop sits. Exposure is omitted when the per-share risk is
// not positive and no shares can be sized.
type PositionPlan struct {
	Shares      int     `json:"shares"`
	StopPrice   float64 `json:"stop_price"`
	RiskCapital float64 `json:"risk_capital"`
	Exposure    float64 `json:"exposure,omitempty"`
}

// Candidate pairs a qualifying evaluation with its position plan. A scan
// emits candidates sorted by score, best first.
type Candidate struct {
	Symbol     string
	Evaluation Evaluation
	Plan       PositionPlan
}

// TradeRecord is one closed round trip as persisted in the journal. Dates
// are kept as the caller supplied them; the journal does not interpret
// them.
type TradeRecord struct {
	Symbol     string  `json:"symbol"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Shares     int     `json:"shares"`
	EntryDate  string  `json:"entry_date"`
	ExitDate   string  `json:"exit_date"`
}

// PnL returns the realized profit or loss of the trade in account currency.
func (t TradeRecord) PnL() float64 {
	return (t.ExitPrice - t.EntryPrice) * float64(t.Shares)
}

// ReturnPct returns the fractional return of the trade relative to entry.
// A trade recorded with a zero entry price contributes a zero return.
func (t TradeRecord) ReturnPct() float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return (t.ExitPrice - t.EntryPrice) / t.EntryPrice
}
