package indicator

import "math"

// RollingMean calculates a simple moving average over a fixed trailing
// window. The result has the same length as values, with NaN at every
// position where the window has not yet filled.
func RollingMean(values []float64, window int) []float64 {
	result := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return result
	}

	var sum float64
	for i := 0; i < window; i++ {
		sum += values[i]
	}
	result[window-1] = sum / float64(window)

	// Rolling calculation
	for i := window; i < len(values); i++ {
		sum += values[i] - values[i-window]
		result[i] = sum / float64(window)
	}
	return result
}

// RollingMax calculates the highest value over a fixed trailing window,
// aligned like RollingMean.
func RollingMax(values []float64, window int) []float64 {
	result := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return result
	}

	for i := window - 1; i < len(values); i++ {
		highest := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if values[j] > highest {
				highest = values[j]
			}
		}
		result[i] = highest
	}
	return result
}

// RollingMin calculates the lowest value over a fixed trailing window,
// aligned like RollingMean.
func RollingMin(values []float64, window int) []float64 {
	result := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return result
	}

	for i := window - 1; i < len(values); i++ {
		lowest := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if values[j] < lowest {
				lowest = values[j]
			}
		}
		result[i] = lowest
	}
	return result
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
