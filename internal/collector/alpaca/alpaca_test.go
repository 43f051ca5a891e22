package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/vigil/internal/collector"
	"github.com/newthinker/vigil/internal/core"
)

func newTestSource(t *testing.T, handler http.Handler) (*Alpaca, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		APISecret: "test-secret",
	}
	return New(cfg, nil, nil), server
}

func TestAlpaca_ImplementsSource(t *testing.T) {
	var _ collector.Source = (*Alpaca)(nil)
}

func TestAlpaca_Name(t *testing.T) {
	a := New(Config{}, nil, nil)
	if a.Name() != "alpaca" {
		t.Errorf("expected 'alpaca', got '%s'", a.Name())
	}
}

func TestAlpaca_ValidateSymbol(t *testing.T) {
	valid := []string{"AAPL", "MSFT", "BRK.B", "600519"}
	for _, s := range valid {
		if err := validateSymbol(s); err != nil {
			t.Errorf("validateSymbol(%s) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "TOOLONGSYMBOL", "AA PL", "AAPL;DROP"}
	for _, s := range invalid {
		if err := validateSymbol(s); err == nil {
			t.Errorf("validateSymbol(%s) = nil, want error", s)
		}
	}
}

func TestAlpaca_ScanFastMovers_RanksByPercentChange(t *testing.T) {
	var gotPath string
	var gotKey, gotSecret string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("APCA-API-KEY-ID")
		gotSecret = r.Header.Get("APCA-API-SECRET-KEY")
		fmt.Fprint(w, `{
			"AAA": {"dailyBar": {"o": 10, "h": 11, "l": 9.5, "c": 10.5, "v": 500000}},
			"BBB": {"dailyBar": {"o": 20, "h": 23, "l": 19, "c": 22, "v": 800000}},
			"CCC": {"dailyBar": {"o": 5, "h": 5.2, "l": 3.9, "c": 4, "v": 900000}}
		}`)
	})

	a, _ := newTestSource(t, handler)
	opts := collector.ScanOptions{MinPrice: 1, MinVolume: 0, TopN: 2}
	ranked, err := a.ScanFastMovers(context.Background(), []string{"AAA", "BBB", "CCC"}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v2/stocks/snapshots" {
		t.Errorf("expected snapshots path, got %s", gotPath)
	}
	if gotKey != "test-key" || gotSecret != "test-secret" {
		t.Errorf("expected auth headers, got key=%q secret=%q", gotKey, gotSecret)
	}

	if len(ranked) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(ranked))
	}
	if ranked[0].Symbol != "BBB" || ranked[1].Symbol != "AAA" {
		t.Errorf("expected [BBB AAA], got [%s %s]", ranked[0].Symbol, ranked[1].Symbol)
	}

	wantChange := (22.0 - 20.0) / 20.0
	if ranked[0].PercentChange != wantChange {
		t.Errorf("expected percent change %v, got %v", wantChange, ranked[0].PercentChange)
	}
	if ranked[0].Close != 22 || ranked[0].Volume != 800000 {
		t.Errorf("expected close=22 volume=800000, got close=%v volume=%v", ranked[0].Close, ranked[0].Volume)
	}
}

func TestAlpaca_ScanFastMovers_SkipsBelowFloors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"CHEAP": {"dailyBar": {"o": 2, "h": 3, "l": 2, "c": 3, "v": 900000}},
			"THIN": {"dailyBar": {"o": 10, "h": 12, "l": 10, "c": 12, "v": 1000}},
			"DEAD": {"dailyBar": {"o": 0, "h": 0, "l": 0, "c": 0, "v": 0}},
			"EMPTY": {},
			"GOOD": {"dailyBar": {"o": 10, "h": 11, "l": 10, "c": 11, "v": 500000}}
		}`)
	})

	a, _ := newTestSource(t, handler)
	opts := collector.ScanOptions{MinPrice: 5, MinVolume: 200000, TopN: 10}
	universe := []string{"CHEAP", "THIN", "DEAD", "EMPTY", "GOOD", "MISSING"}
	ranked, err := a.ScanFastMovers(context.Background(), universe, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ranked) != 1 || ranked[0].Symbol != "GOOD" {
		t.Fatalf("expected only GOOD to survive, got %v", ranked)
	}
}

func TestAlpaca_ScanFastMovers_EmptyUniverse(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	a, _ := newTestSource(t, handler)
	ranked, err := a.ScanFastMovers(context.Background(), nil, collector.DefaultScanOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranked != nil {
		t.Errorf("expected nil snapshots, got %v", ranked)
	}
	if called {
		t.Error("expected no request for an empty universe")
	}
}

func TestAlpaca_FetchPriceSeries_TrimsToLookback(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/stocks/AAA/bars" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if tf := r.URL.Query().Get("timeframe"); tf != "1Day" {
			t.Errorf("expected timeframe 1Day, got %s", tf)
		}
		if adj := r.URL.Query().Get("adjustment"); adj != "raw" {
			t.Errorf("expected adjustment raw, got %s", adj)
		}
		fmt.Fprint(w, `{
			"bars": [
				{"t": "2023-01-03T05:00:00Z", "o": 10, "h": 10.8, "l": 9.9, "c": 10.2, "v": 100000},
				{"t": "2023-01-04T05:00:00Z", "o": 10.2, "h": 11, "l": 10.1, "c": 10.6, "v": 120000}
			],
			"next_page_token": null
		}`)
	})

	a, _ := newTestSource(t, handler)
	series, err := a.FetchPriceSeries(context.Background(), []string{"AAA"}, 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ps, ok := series["AAA"]
	if !ok {
		t.Fatal("expected series for AAA")
	}
	if ps.Len() != 1 {
		t.Fatalf("expected 1 bar after trim, got %d", ps.Len())
	}
	if ps.Close[0] != 10.6 || ps.High[0] != 11 || ps.Low[0] != 10.1 || ps.Volume[0] != 120000 {
		t.Errorf("expected last bar kept, got %+v", ps)
	}
}

func TestAlpaca_FetchPriceSeries_Paginates(t *testing.T) {
	var tokens []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("page_token")
		tokens = append(tokens, token)
		if token == "" {
			fmt.Fprint(w, `{
				"bars": [{"t": "2023-01-03T05:00:00Z", "o": 10, "h": 10.8, "l": 9.9, "c": 10.2, "v": 100000}],
				"next_page_token": "page-2"
			}`)
			return
		}
		fmt.Fprint(w, `{
			"bars": [{"t": "2023-01-04T05:00:00Z", "o": 10.2, "h": 11, "l": 10.1, "c": 10.6, "v": 120000}],
			"next_page_token": ""
		}`)
	})

	a, _ := newTestSource(t, handler)
	series, err := a.FetchPriceSeries(context.Background(), []string{"AAA"}, 10, "1Day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tokens) != 2 || tokens[0] != "" || tokens[1] != "page-2" {
		t.Fatalf("expected two pages with token carry, got %v", tokens)
	}

	ps := series["AAA"]
	if ps.Len() != 2 {
		t.Fatalf("expected 2 bars across pages, got %d", ps.Len())
	}
	if ps.Close[0] != 10.2 || ps.Close[1] != 10.6 {
		t.Errorf("expected closes [10.2 10.6], got %v", ps.Close)
	}
}

func TestAlpaca_FetchPriceSeries_SkipsEmptySymbols(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bars": [], "next_page_token": null}`)
	})

	a, _ := newTestSource(t, handler)
	series, err := a.FetchPriceSeries(context.Background(), []string{"GHOST"}, 10, "1Day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := series["GHOST"]; ok {
		t.Error("expected symbol without bars to be absent")
	}
}

func TestAlpaca_FetchPriceSeries_InvalidLookback(t *testing.T) {
	a := New(Config{BaseURL: "http://localhost"}, nil, nil)
	_, err := a.FetchPriceSeries(context.Background(), []string{"AAA"}, 0, "1Day")
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAlpaca_FetchPriceSeries_InvalidSymbol(t *testing.T) {
	a := New(Config{BaseURL: "http://localhost"}, nil, nil)
	_, err := a.FetchPriceSeries(context.Background(), []string{"BAD SYMBOL"}, 10, "1Day")
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAlpaca_SourceFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	a, _ := newTestSource(t, handler)
	_, err := a.ScanFastMovers(context.Background(), []string{"AAA"}, collector.DefaultScanOptions())
	if !errors.Is(err, core.ErrSourceFailed) {
		t.Fatalf("expected source failure, got %v", err)
	}

	var statusErr *collector.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403 in error chain, got %v", err)
	}
}
