package collector

import (
	"context"

	"github.com/newthinker/vigil/internal/core"
)

// ScanOptions filters a fast-mover scan.
type ScanOptions struct {
	// MinPrice drops symbols whose latest close sits below it.
	MinPrice float64
	// MinVolume drops symbols whose daily volume sits below it.
	MinVolume float64
	// TopN caps how many movers are returned. Non-positive means no cap.
	TopN int
}

// DefaultScanOptions returns the standard fast-mover filters.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MinPrice:  5.0,
		MinVolume: 200000,
		TopN:      25,
	}
}

// Source defines the interface for market data providers.
type Source interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// ScanFastMovers ranks the universe by daily percent change,
	// strongest first, keeping only symbols that clear the filters.
	ScanFastMovers(ctx context.Context, universe []string, opts ScanOptions) ([]core.Snapshot, error)

	// FetchPriceSeries downloads aligned daily OHLCV history for each
	// symbol, keeping at most lookbackDays trailing bars. Symbols that
	// return no bars are left out of the result.
	FetchPriceSeries(ctx context.Context, symbols []string, lookbackDays int, timeframe string) (map[string]core.PriceSeries, error)
}
