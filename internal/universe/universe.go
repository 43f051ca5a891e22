// Package universe derives cross-sectional readings for a scan universe:
// relative strength percentiles and base length estimates.
package universe

import (
	"fmt"
	"sort"

	"github.com/newthinker/vigil/internal/core"
)

// minBaseLength is the floor applied to every estimate so that a fresh
// pivot high never reads as "no base at all".
const minBaseLength = 35

// RelativeStrengths converts trailing returns into percentile ranks from 0
// to 100. Symbols with fewer than two closes or a non-positive baseline are
// left out. Ties and ranks are deterministic: symbols are considered in
// sorted order before ranking by return.
func RelativeStrengths(series map[string]core.PriceSeries, window int) (map[string]float64, error) {
	if window < 1 {
		return nil, core.WrapError(core.ErrValidation, fmt.Errorf("relative strength window %d must be positive", window))
	}

	type trailingReturn struct {
		symbol string
		value  float64
	}

	var returns []trailingReturn
	for _, symbol := range sortedSymbols(series) {
		closes := series[symbol].Close
		if len(closes) < 2 {
			continue
		}
		lookback := window
		if max := len(closes) - 1; lookback > max {
			lookback = max
		}
		baseline := closes[len(closes)-1-lookback]
		if baseline <= 0 {
			continue
		}
		latest := closes[len(closes)-1]
		returns = append(returns, trailingReturn{symbol: symbol, value: latest/baseline - 1})
	}

	if len(returns) == 0 {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("no trailing returns could be computed for relative strength"))
	}

	sort.SliceStable(returns, func(i, j int) bool {
		return returns[i].value < returns[j].value
	})

	denominator := len(returns) - 1
	if denominator < 1 {
		denominator = 1
	}

	strengths := make(map[string]float64, len(returns))
	for index, r := range returns {
		strengths[r.symbol] = float64(index) / float64(denominator) * 100.0
	}
	return strengths, nil
}

// BaseLengths estimates each symbol's consolidation length as the distance
// in days from the most recent pivot high inside the lookback window,
// floored at the minimum credible base. Symbols with no highs are left out.
func BaseLengths(series map[string]core.PriceSeries, lookback int) (map[string]int, error) {
	if lookback < 1 {
		return nil, core.WrapError(core.ErrValidation, fmt.Errorf("base length lookback %d must be positive", lookback))
	}

	lengths := make(map[string]int)
	for symbol, s := range series {
		highs := s.High
		if len(highs) == 0 {
			continue
		}

		window := lookback
		if window > len(highs) {
			window = len(highs)
		}
		recent := highs[len(highs)-window:]

		pivotIndex := 0
		for i, high := range recent {
			if high > recent[pivotIndex] {
				pivotIndex = i
			}
		}

		baseLength := window - pivotIndex
		if baseLength < minBaseLength {
			baseLength = minBaseLength
		}
		lengths[symbol] = baseLength
	}

	if len(lengths) == 0 {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("unable to derive base lengths from the provided data"))
	}
	return lengths, nil
}

func sortedSymbols(series map[string]core.PriceSeries) []string {
	symbols := make([]string, 0, len(series))
	for symbol := range series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
