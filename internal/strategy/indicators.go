package strategy

import (
	"math"

	"github.com/newthinker/vigil/internal/core"
	"github.com/newthinker/vigil/internal/indicator"
)

// Window sizes for the trend template readings on daily bars.
const (
	smaFastWindow    = 50
	smaMidWindow     = 150
	smaSlowWindow    = 200
	emaWindow        = 21
	volumeBaseWindow = 10
	volumeRefWindow  = 50
	yearWindow       = 252
	atrWindow        = 14
)

// Set holds every indicator series the evaluator reads. Each slice is
// aligned to the input, so Set.SMA200[i] describes the same day as
// series.Close[i]; positions where a window has not filled hold NaN.
type Set struct {
	Close       []float64
	SMA50       []float64
	SMA150      []float64
	SMA200      []float64
	EMA21       []float64
	AvgVolume50 []float64
	AvgVolume10 []float64
	High52      []float64
	Low52       []float64
	ATR14       []float64
	PctOffHigh  []float64
	PctFromLow  []float64
	VolumeDryUp []float64
}

// ComputeSet derives the indicator set for one symbol's daily history.
func ComputeSet(series core.PriceSeries) (Set, error) {
	if err := series.Validate(); err != nil {
		return Set{}, err
	}

	set := Set{
		Close:       series.Close,
		SMA50:       indicator.RollingMean(series.Close, smaFastWindow),
		SMA150:      indicator.RollingMean(series.Close, smaMidWindow),
		SMA200:      indicator.RollingMean(series.Close, smaSlowWindow),
		EMA21:       indicator.EMA(series.Close, emaWindow),
		AvgVolume50: indicator.RollingMean(series.Volume, volumeRefWindow),
		AvgVolume10: indicator.RollingMean(series.Volume, volumeBaseWindow),
		High52:      indicator.RollingMax(series.High, yearWindow),
		Low52:       indicator.RollingMin(series.Low, yearWindow),
		ATR14:       indicator.ATR(series.High, series.Low, series.Close, atrWindow),
	}

	n := series.Len()
	set.PctOffHigh = make([]float64, n)
	set.PctFromLow = make([]float64, n)
	set.VolumeDryUp = make([]float64, n)
	for i := 0; i < n; i++ {
		set.PctOffHigh[i] = math.NaN()
		set.PctFromLow[i] = math.NaN()
		set.VolumeDryUp[i] = math.NaN()

		price := series.Close[i]
		if high := set.High52[i]; finite(high) && high != 0 {
			set.PctOffHigh[i] = (high - price) / high
		}
		if low := set.Low52[i]; finite(low) && low != 0 {
			set.PctFromLow[i] = (price - low) / low
		}
		avg10, avg50 := set.AvgVolume10[i], set.AvgVolume50[i]
		if finite(avg10) && finite(avg50) && avg50 > 0 {
			set.VolumeDryUp[i] = avg10 / avg50
		}
	}

	return set, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
