package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vigil/internal/collector"
	"github.com/newthinker/vigil/internal/config"
)

var (
	liveUniverse    []string
	liveMinPrice    float64
	liveMinVolume   float64
	liveTopN        int
	liveMetricsAddr string
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Scan the day's fast movers and screen them",
	Long: `Pull daily snapshots for the universe, keep the strongest same-day
movers, and rank the ones that pass the momentum template.`,
	RunE: runLive,
}

func init() {
	addScanFlags(liveCmd)
	liveCmd.Flags().StringSliceVar(&liveUniverse, "universe", nil, "Fallback universe for the fast-mover scan when --symbols is omitted")
	liveCmd.Flags().Float64Var(&liveMinPrice, "min-price", 5.0, "Minimum price for fast movers")
	liveCmd.Flags().Float64Var(&liveMinVolume, "min-volume", 200000, "Minimum volume for fast movers")
	liveCmd.Flags().IntVar(&liveTopN, "top-n", 25, "Number of fast movers to evaluate")
	liveCmd.Flags().StringVar(&liveMetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address while the scan runs")
	rootCmd.AddCommand(liveCmd)
}

func applyLiveFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min-price") {
		cfg.Scan.MinPrice = liveMinPrice
	}
	if flags.Changed("min-volume") {
		cfg.Scan.MinVolume = liveMinVolume
	}
	if flags.Changed("top-n") {
		cfg.Scan.TopN = liveTopN
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = liveMetricsAddr
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := newScanEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer env.close()
	applyLiveFlags(cmd, env.cfg)

	if env.cfg.Metrics.Enabled {
		srv := serveMetrics(env)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	universeSymbols := scanSymbols
	if len(universeSymbols) == 0 {
		universeSymbols = liveUniverse
	}
	if len(universeSymbols) == 0 {
		universeSymbols = env.cfg.Scan.Universe
	}
	if len(universeSymbols) == 0 {
		return fmt.Errorf("provide --symbols or --universe for live mode")
	}

	opts := collector.ScanOptions{
		MinPrice:  env.cfg.Scan.MinPrice,
		MinVolume: env.cfg.Scan.MinVolume,
		TopN:      env.cfg.Scan.TopN,
	}
	movers, err := env.source.ScanFastMovers(ctx, universeSymbols, opts)
	if err != nil {
		return fmt.Errorf("scanning fast movers: %w", err)
	}
	if len(movers) == 0 {
		fmt.Println("No fast movers met the scan criteria today.")
		return nil
	}

	symbols := make([]string, len(movers))
	for i, snapshot := range movers {
		symbols[i] = snapshot.Symbol
	}
	env.log.Info("fast movers selected",
		zap.Int("count", len(symbols)),
		zap.Strings("symbols", symbols))

	series, err := env.source.FetchPriceSeries(ctx, symbols, env.cfg.Scan.LookbackDays, env.cfg.Scan.Timeframe)
	if err != nil {
		return fmt.Errorf("fetching price series: %w", err)
	}

	candidates, ok, err := env.screen(series)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Fast movers lacked sufficient history for evaluation.")
		return nil
	}

	if err := env.publish(candidates); err != nil {
		return err
	}
	env.finish(len(candidates))
	return nil
}

func serveMetrics(env *scanEnv) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", env.reg.Handler())

	srv := &http.Server{Addr: env.cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.log.Error("metrics server error", zap.Error(err))
		}
	}()
	env.log.Info("metrics exposed", zap.String("addr", env.cfg.Metrics.Addr))
	return srv
}
