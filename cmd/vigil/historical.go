package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historicalCmd = &cobra.Command{
	Use:   "historical",
	Short: "Screen a fixed symbol list against recent history",
	Long:  "Fetch daily bars for the given symbols and rank the ones that currently pass the momentum template.",
	RunE:  runHistorical,
}

func init() {
	addScanFlags(historicalCmd)
	rootCmd.AddCommand(historicalCmd)
}

func runHistorical(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := newScanEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	symbols := scanSymbols
	if len(symbols) == 0 {
		symbols = env.cfg.Scan.Universe
	}
	if len(symbols) == 0 {
		return fmt.Errorf("provide --symbols when running in historical mode")
	}

	env.log.Info("fetching price history",
		zap.Int("symbols", len(symbols)),
		zap.Int("lookback_days", env.cfg.Scan.LookbackDays))

	series, err := env.source.FetchPriceSeries(ctx, symbols, env.cfg.Scan.LookbackDays, env.cfg.Scan.Timeframe)
	if err != nil {
		return fmt.Errorf("fetching price series: %w", err)
	}

	candidates, ok, err := env.screen(series)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no overlap between price data, relative strength, and base lengths")
	}

	if err := env.publish(candidates); err != nil {
		return err
	}
	env.finish(len(candidates))
	return nil
}
