package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "VIGIL - momentum breakout screener",
	Long: `VIGIL screens equity universes for stage-2 momentum breakouts.
It ranks qualifying candidates by template score, sizes positions from
volatility, and tunes its own thresholds from journaled trade outcomes.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
