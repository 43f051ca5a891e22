package indicator

// EMA calculates an exponential moving average with smoothing factor
// 2/(span+1). The first defined value sits at index span-1 and is seeded
// with the simple mean of the first span values; earlier positions are NaN.
func EMA(values []float64, span int) []float64 {
	result := nanSlice(len(values))
	if span <= 0 || len(values) < span {
		return result
	}

	alpha := 2.0 / float64(span+1)

	var sum float64
	for i := 0; i < span; i++ {
		sum += values[i]
	}
	result[span-1] = sum / float64(span)

	for i := span; i < len(values); i++ {
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}
	return result
}
