package indicator

import "math"

// TrueRange calculates the daily true range. The first bar has no prior
// close, so its range is high minus low.
func TrueRange(high, low, close []float64) []float64 {
	n := len(close)
	tr := make([]float64, n)
	if n == 0 {
		return tr
	}

	tr[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		highLow := high[i] - low[i]
		highClose := math.Abs(high[i] - close[i-1])
		lowClose := math.Abs(low[i] - close[i-1])

		tr[i] = highLow
		if highClose > tr[i] {
			tr[i] = highClose
		}
		if lowClose > tr[i] {
			tr[i] = lowClose
		}
	}
	return tr
}

// ATR calculates the average true range as a rolling mean over the true
// range series, aligned like RollingMean.
func ATR(high, low, close []float64, window int) []float64 {
	return RollingMean(TrueRange(high, low, close), window)
}
