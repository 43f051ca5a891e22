package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/newthinker/vigil/internal/core"
)

// trendingSeries builds a steady linear uptrend from 50 to 120 with mild
// sine noise, constant 2-point daily ranges, and slowly drying-up volume.
// Long enough histories pass every template check.
func trendingSeries(periods int) core.PriceSeries {
	closes := make([]float64, periods)
	highs := make([]float64, periods)
	lows := make([]float64, periods)
	volumes := make([]float64, periods)
	for i := 0; i < periods; i++ {
		base := 50 + 70*float64(i)/float64(periods-1)
		noise := 0.2 * math.Sin(float64(i)/7)
		closes[i] = base + noise
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
		volumes[i] = 500000 - 400*float64(i)
	}
	return core.PriceSeries{Close: closes, High: highs, Low: lows, Volume: volumes}
}

func TestEvaluator_QualifyingCandidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RSThreshold = 65

	eval, err := NewEvaluator(cfg).Evaluate(trendingSeries(400), 85, 60)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !eval.Qualifies {
		t.Fatalf("expected qualification, got reasons %v", eval.Reasons)
	}
	if len(eval.Reasons) != 0 {
		t.Errorf("qualifier should carry no reasons, got %v", eval.Reasons)
	}
	if eval.Score <= 0 || eval.Score > 1 {
		t.Errorf("Score = %f, want in (0,1]", eval.Score)
	}
	if eval.StopPrice >= eval.EntryPrice {
		t.Errorf("stop %.2f should sit below entry %.2f", eval.StopPrice, eval.EntryPrice)
	}

	// Stop sits two ATRs under the close.
	atr := eval.Metrics["atr_14"]
	want := eval.EntryPrice - 2*atr
	if math.Abs(eval.StopPrice-want) > 1e-9 {
		t.Errorf("StopPrice = %f, want %f", eval.StopPrice, want)
	}
}

func TestEvaluator_RejectsFallingTrend(t *testing.T) {
	series := trendingSeries(400)
	for i, j := 0, len(series.Close)-1; i < j; i, j = i+1, j-1 {
		series.Close[i], series.Close[j] = series.Close[j], series.Close[i]
	}
	for i := range series.Close {
		series.High[i] = series.Close[i] + 1
		series.Low[i] = series.Close[i] - 1
	}

	eval, err := NewEvaluator(DefaultConfig()).Evaluate(series, 85, 60)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if eval.Qualifies {
		t.Fatal("downtrend should not qualify")
	}
	if !containsReason(eval.Reasons, ReasonTrendNotRising) {
		t.Errorf("reasons %v should include %q", eval.Reasons, ReasonTrendNotRising)
	}
	if eval.Score != 0 {
		t.Errorf("disqualified score = %f, want 0", eval.Score)
	}
}

func TestEvaluator_ShortHistoryExitsEarly(t *testing.T) {
	series := trendingSeries(60)

	eval, err := NewEvaluator(DefaultConfig()).Evaluate(series, 85, 60)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if eval.Qualifies {
		t.Fatal("60 days of history cannot qualify")
	}
	if len(eval.Reasons) != 1 || eval.Reasons[0] != ReasonNoMovingAverages {
		t.Errorf("reasons = %v, want exactly [%q]", eval.Reasons, ReasonNoMovingAverages)
	}
	if eval.StopPrice != eval.EntryPrice {
		t.Errorf("early exit should report stop at entry, got entry %f stop %f", eval.EntryPrice, eval.StopPrice)
	}
	if _, ok := eval.Metrics["sma_50"]; ok {
		t.Error("early exit metrics should only carry relative strength")
	}
	if got := eval.Metrics["relative_strength"]; got != 85 {
		t.Errorf("relative_strength metric = %f, want 85", got)
	}
}

func TestEvaluator_AccumulatesReasons(t *testing.T) {
	// Weak RS and a short base fail independently; both must be reported.
	eval, err := NewEvaluator(DefaultConfig()).Evaluate(trendingSeries(400), 10, 5)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if eval.Qualifies {
		t.Fatal("should not qualify")
	}
	if !containsReason(eval.Reasons, ReasonWeakRS) {
		t.Errorf("reasons %v should include %q", eval.Reasons, ReasonWeakRS)
	}
	if !containsReason(eval.Reasons, ReasonShortBase) {
		t.Errorf("reasons %v should include %q", eval.Reasons, ReasonShortBase)
	}
	if _, ok := eval.Metrics["sma_200"]; !ok {
		t.Error("full pass metrics should include the moving averages")
	}
}

func TestEvaluator_InvalidSeries(t *testing.T) {
	series := core.PriceSeries{Close: []float64{1, 2, 3}}

	_, err := NewEvaluator(DefaultConfig()).Evaluate(series, 85, 60)
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
