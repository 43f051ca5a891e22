package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/vigil/internal/collector"
	"github.com/newthinker/vigil/internal/core"
	"github.com/newthinker/vigil/internal/metrics"
)

// DefaultTimeframe is the bar resolution the screen works on.
const DefaultTimeframe = "1Day"

// barsPageLimit is the maximum page size the v2 bars endpoint allows.
const barsPageLimit = 10000

// validSymbol matches equity symbols like AAPL, MSFT, BRK.B
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Config holds connection settings for the Alpaca v2 market data API.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Alpaca implements collector.Source against the Alpaca v2 data API.
type Alpaca struct {
	config  Config
	client  *collector.HTTPClient
	metrics *metrics.Registry
}

// New creates a new Alpaca source. A nil client gets default rate limiting
// and retry behavior; a nil registry disables fetch metrics.
func New(cfg Config, client *collector.HTTPClient, reg *metrics.Registry) *Alpaca {
	if client == nil {
		client = collector.NewHTTPClient(collector.HTTPClientOptions{})
	}
	return &Alpaca{
		config:  cfg,
		client:  client,
		metrics: reg,
	}
}

func (a *Alpaca) Name() string {
	return "alpaca"
}

// ScanFastMovers pulls daily snapshots for the universe and ranks symbols
// by same-day percent change, strongest first. Symbols without a daily bar
// or below the price and volume floors are dropped.
func (a *Alpaca) ScanFastMovers(ctx context.Context, universe []string, opts collector.ScanOptions) ([]core.Snapshot, error) {
	if len(universe) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(universe, ","))
	endpoint := fmt.Sprintf("%s/v2/stocks/snapshots?%s", a.baseURL(), q.Encode())

	var snapshots map[string]*snapshotPayload
	if err := a.getJSON(ctx, "snapshots", endpoint, &snapshots); err != nil {
		return nil, err
	}

	ranked := make([]core.Snapshot, 0, len(universe))
	for _, symbol := range universe {
		snap := snapshots[symbol]
		if snap == nil || snap.DailyBar == nil {
			continue
		}

		bar := snap.DailyBar
		if bar.Open <= 0 || bar.Close < opts.MinPrice || bar.Volume < opts.MinVolume {
			continue
		}

		ranked = append(ranked, core.Snapshot{
			Symbol:        symbol,
			PercentChange: (bar.Close - bar.Open) / bar.Open,
			Volume:        bar.Volume,
			Close:         bar.Close,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PercentChange > ranked[j].PercentChange
	})
	if opts.TopN > 0 && len(ranked) > opts.TopN {
		ranked = ranked[:opts.TopN]
	}
	return ranked, nil
}

// FetchPriceSeries downloads daily OHLCV candles for each symbol and keeps
// the trailing lookbackDays bars. The request window reaches back twice the
// lookback in calendar days to cover weekends and holidays.
func (a *Alpaca) FetchPriceSeries(ctx context.Context, symbols []string, lookbackDays int, timeframe string) (map[string]core.PriceSeries, error) {
	if lookbackDays < 1 {
		return nil, core.WrapError(core.ErrValidation, fmt.Errorf("lookback days %d must be positive", lookbackDays))
	}
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays*2)

	series := make(map[string]core.PriceSeries, len(symbols))
	for _, symbol := range symbols {
		if err := validateSymbol(symbol); err != nil {
			return nil, core.WrapError(core.ErrValidation, err)
		}

		bars, err := a.fetchBars(ctx, symbol, timeframe, start, end)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			continue
		}
		if len(bars) > lookbackDays {
			bars = bars[len(bars)-lookbackDays:]
		}

		ps := core.PriceSeries{
			Close:  make([]float64, len(bars)),
			High:   make([]float64, len(bars)),
			Low:    make([]float64, len(bars)),
			Volume: make([]float64, len(bars)),
		}
		for i, bar := range bars {
			ps.Close[i] = bar.Close
			ps.High[i] = bar.High
			ps.Low[i] = bar.Low
			ps.Volume[i] = bar.Volume
		}
		series[symbol] = ps
	}
	return series, nil
}

func (a *Alpaca) fetchBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]barPayload, error) {
	var bars []barPayload
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("timeframe", timeframe)
		q.Set("start", start.Format(time.RFC3339))
		q.Set("end", end.Format(time.RFC3339))
		q.Set("adjustment", "raw")
		q.Set("limit", fmt.Sprintf("%d", barsPageLimit))
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", a.baseURL(), symbol, q.Encode())

		var page barsPayload
		if err := a.getJSON(ctx, "bars", endpoint, &page); err != nil {
			return nil, err
		}

		bars = append(bars, page.Bars...)
		if page.NextPageToken == "" {
			return bars, nil
		}
		pageToken = page.NextPageToken
	}
}

// getJSON performs an authenticated GET and decodes the response body.
func (a *Alpaca) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return core.WrapError(core.ErrSourceFailed, err)
	}
	req.Header.Set("APCA-API-KEY-ID", a.config.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.config.APISecret)

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		var statusErr *collector.StatusError
		if errors.As(err, &statusErr) && a.metrics != nil {
			a.metrics.RecordFetch(endpoint, statusErr.StatusCode)
		}
		return core.WrapError(core.ErrSourceFailed, fmt.Errorf("%s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	if a.metrics != nil {
		a.metrics.RecordFetch(endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrSourceFailed, fmt.Errorf("decoding %s response: %w", endpoint, err))
	}
	return nil
}

func (a *Alpaca) baseURL() string {
	return strings.TrimSuffix(a.config.BaseURL, "/")
}

// Alpaca API response types
type snapshotPayload struct {
	DailyBar *barPayload `json:"dailyBar"`
}

type barPayload struct {
	Timestamp string  `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

type barsPayload struct {
	Bars          []barPayload `json:"bars"`
	NextPageToken string       `json:"next_page_token"`
}
