// internal/journal/tuner.go
package journal

import (
	"math"

	"github.com/newthinker/vigil/internal/strategy"
)

// Tuning limits. Thresholds drift 5 RS points (or a few percent) per
// adaptation and never leave these bounds.
const (
	maxRSThreshold   = 95.0
	minRSThreshold   = 60.0
	minPctOffHighCap = 0.15
	minPctFromLowCap = 0.10

	rsStep         = 5.0
	pctOffHighStep = 0.02
	pctFromLowStep = 0.05

	hotWinRate  = 0.6
	coldWinRate = 0.4
)

// Stats summarizes the trailing trades the tuner looks at.
type Stats struct {
	Trades     int
	WinRate    float64
	MeanReturn float64
}

// RecentStats computes win rate and mean return over the tuning window.
// The second return is false while the journal holds fewer trades than
// the window needs.
func (j *Journal) RecentStats() (Stats, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.recentStats()
}

func (j *Journal) recentStats() (Stats, bool) {
	if len(j.records) < j.minSamples {
		return Stats{Trades: len(j.records)}, false
	}

	recent := j.records[len(j.records)-j.minSamples:]
	var wins int
	var sum float64
	for _, r := range recent {
		ret := r.ReturnPct()
		sum += ret
		if ret > 0 {
			wins++
		}
	}

	return Stats{
		Trades:     len(recent),
		WinRate:    float64(wins) / float64(len(recent)),
		MeanReturn: sum / float64(len(recent)),
	}, true
}

// AdaptConfig adjusts screening thresholds from recent performance. A hot
// streak tightens the screen, a cold streak loosens it, and anything in
// between, or a journal shorter than the tuning window, leaves the
// configuration untouched.
func (j *Journal) AdaptConfig(cfg strategy.Config) strategy.Config {
	j.mu.Lock()
	defer j.mu.Unlock()

	stats, ok := j.recentStats()
	if !ok {
		return cfg
	}

	switch {
	case stats.WinRate > hotWinRate && stats.MeanReturn > 0:
		cfg.RSThreshold = math.Min(cfg.RSThreshold+rsStep, maxRSThreshold)
		cfg.MaxPctOffHigh = math.Max(cfg.MaxPctOffHigh-pctOffHighStep, minPctOffHighCap)
	case stats.WinRate < coldWinRate:
		cfg.RSThreshold = math.Max(cfg.RSThreshold-rsStep, minRSThreshold)
		cfg.MinPctFromLow = math.Max(cfg.MinPctFromLow-pctFromLowStep, minPctFromLowCap)
	}
	return cfg
}
