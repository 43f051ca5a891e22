package universe

import (
	"errors"
	"testing"

	"github.com/newthinker/vigil/internal/core"
)

func seriesWithCloses(closes ...float64) core.PriceSeries {
	return core.PriceSeries{Close: closes}
}

func seriesWithHighs(highs ...float64) core.PriceSeries {
	return core.PriceSeries{High: highs}
}

func TestRelativeStrengths_OrdersByReturn(t *testing.T) {
	series := map[string]core.PriceSeries{
		"AAA": seriesWithCloses(10, 11, 12, 13),
		"BBB": seriesWithCloses(10, 9, 9.5, 9.7),
		"CCC": seriesWithCloses(10, 10.5, 11, 11.5),
	}

	strengths, err := RelativeStrengths(series, 3)
	if err != nil {
		t.Fatalf("RelativeStrengths() error = %v", err)
	}

	// Returns: BBB -3%, CCC +15%, AAA +30%. Percentiles over 3 symbols
	// land at 0, 50, and 100.
	if strengths["BBB"] != 0 {
		t.Errorf("BBB = %f, want 0", strengths["BBB"])
	}
	if strengths["CCC"] != 50 {
		t.Errorf("CCC = %f, want 50", strengths["CCC"])
	}
	if strengths["AAA"] != 100 {
		t.Errorf("AAA = %f, want 100", strengths["AAA"])
	}
}

func TestRelativeStrengths_ClampsWindowToHistory(t *testing.T) {
	series := map[string]core.PriceSeries{
		"AAA": seriesWithCloses(10, 12),
	}

	strengths, err := RelativeStrengths(series, 125)
	if err != nil {
		t.Fatalf("RelativeStrengths() error = %v", err)
	}

	// A single ranked symbol sits at percentile 0.
	if got := strengths["AAA"]; got != 0 {
		t.Errorf("AAA = %f, want 0", got)
	}
}

func TestRelativeStrengths_SkipsUnusableSymbols(t *testing.T) {
	series := map[string]core.PriceSeries{
		"SHORT": seriesWithCloses(10),
		"ZERO":  seriesWithCloses(0, 5, 6),
		"GOOD":  seriesWithCloses(10, 11, 12),
	}

	strengths, err := RelativeStrengths(series, 2)
	if err != nil {
		t.Fatalf("RelativeStrengths() error = %v", err)
	}

	if len(strengths) != 1 {
		t.Fatalf("expected 1 ranked symbol, got %d", len(strengths))
	}
	if _, ok := strengths["GOOD"]; !ok {
		t.Error("GOOD should be ranked")
	}
}

func TestRelativeStrengths_Errors(t *testing.T) {
	if _, err := RelativeStrengths(nil, 0); !errors.Is(err, core.ErrValidation) {
		t.Errorf("zero window: expected ErrValidation, got %v", err)
	}

	series := map[string]core.PriceSeries{"AAA": seriesWithCloses(10)}
	if _, err := RelativeStrengths(series, 5); !errors.Is(err, core.ErrMissingData) {
		t.Errorf("no computable returns: expected ErrMissingData, got %v", err)
	}
}

func TestRelativeStrengths_DeterministicTies(t *testing.T) {
	series := map[string]core.PriceSeries{
		"BBB": seriesWithCloses(10, 11),
		"AAA": seriesWithCloses(20, 22),
	}

	for i := 0; i < 10; i++ {
		strengths, err := RelativeStrengths(series, 1)
		if err != nil {
			t.Fatalf("RelativeStrengths() error = %v", err)
		}
		// Identical 10% returns: the alphabetically first symbol keeps
		// the lower rank on every run.
		if strengths["AAA"] != 0 || strengths["BBB"] != 100 {
			t.Fatalf("tie broke non-deterministically: %v", strengths)
		}
	}
}

func TestBaseLengths_FloorsShortBases(t *testing.T) {
	series := map[string]core.PriceSeries{
		"AAA": seriesWithHighs(10, 10.5, 10.2, 10.8, 10.9, 11.0),
	}

	lengths, err := BaseLengths(series, 10)
	if err != nil {
		t.Fatalf("BaseLengths() error = %v", err)
	}

	// Pivot is the last bar, one day old, floored to the minimum base.
	if lengths["AAA"] != 35 {
		t.Errorf("AAA = %d, want 35", lengths["AAA"])
	}
}

func TestBaseLengths_MeasuresFromPivotHigh(t *testing.T) {
	highs := make([]float64, 90)
	for i := range highs {
		highs[i] = 50
	}
	highs[10] = 80 // pivot 80 days back

	series := map[string]core.PriceSeries{"AAA": {High: highs}}

	lengths, err := BaseLengths(series, 90)
	if err != nil {
		t.Fatalf("BaseLengths() error = %v", err)
	}
	if lengths["AAA"] != 80 {
		t.Errorf("AAA = %d, want 80", lengths["AAA"])
	}
}

func TestBaseLengths_UsesFirstOccurrenceOfPivot(t *testing.T) {
	highs := make([]float64, 60)
	for i := range highs {
		highs[i] = 50
	}
	highs[12] = 75
	highs[20] = 75 // same level later must not shorten the base

	series := map[string]core.PriceSeries{"AAA": {High: highs}}

	lengths, err := BaseLengths(series, 60)
	if err != nil {
		t.Fatalf("BaseLengths() error = %v", err)
	}
	if lengths["AAA"] != 48 {
		t.Errorf("AAA = %d, want 48", lengths["AAA"])
	}
}

func TestBaseLengths_Errors(t *testing.T) {
	if _, err := BaseLengths(nil, 0); !errors.Is(err, core.ErrValidation) {
		t.Errorf("zero lookback: expected ErrValidation, got %v", err)
	}

	series := map[string]core.PriceSeries{"AAA": {}}
	if _, err := BaseLengths(series, 90); !errors.Is(err, core.ErrMissingData) {
		t.Errorf("no highs: expected ErrMissingData, got %v", err)
	}
}

func TestBaseLengths_WindowClampedToHistory(t *testing.T) {
	series := map[string]core.PriceSeries{
		"AAA": seriesWithHighs(90, 50, 50),
	}

	lengths, err := BaseLengths(series, 100)
	if err != nil {
		t.Fatalf("BaseLengths() error = %v", err)
	}
	// Pivot at the start of the 3-bar history: base of 3, floored to 35.
	if lengths["AAA"] != 35 {
		t.Errorf("AAA = %d, want 35", lengths["AAA"])
	}
}
