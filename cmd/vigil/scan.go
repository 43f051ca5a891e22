package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vigil/internal/bot"
	"github.com/newthinker/vigil/internal/collector"
	"github.com/newthinker/vigil/internal/collector/alpaca"
	"github.com/newthinker/vigil/internal/config"
	"github.com/newthinker/vigil/internal/core"
	"github.com/newthinker/vigil/internal/journal"
	"github.com/newthinker/vigil/internal/logger"
	"github.com/newthinker/vigil/internal/metrics"
	"github.com/newthinker/vigil/internal/notify"
	"github.com/newthinker/vigil/internal/report"
	"github.com/newthinker/vigil/internal/risk"
	"github.com/newthinker/vigil/internal/storage"
	"github.com/newthinker/vigil/internal/strategy"
	"github.com/newthinker/vigil/internal/universe"
)

// Flags shared by the historical and live scan commands.
var (
	scanSymbols       []string
	scanLookbackDays  int
	scanTimeframe     string
	scanRSWindow      int
	scanBaseLookback  int
	scanJournalPath   string
	scanAccountEquity float64
	scanRiskFraction  float64
	scanDotenv        string
	scanOutput        string
)

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&scanSymbols, "symbols", nil, "Symbols to evaluate or to seed the fast-mover scan")
	cmd.Flags().IntVar(&scanLookbackDays, "lookback-days", 365, "Historical lookback window in trading days")
	cmd.Flags().StringVar(&scanTimeframe, "timeframe", "1Day", "Bar timeframe")
	cmd.Flags().IntVar(&scanRSWindow, "rs-window", 125, "Relative strength lookback window")
	cmd.Flags().IntVar(&scanBaseLookback, "base-lookback", 90, "Window for base length estimation")
	cmd.Flags().StringVar(&scanJournalPath, "journal", "journal.json", "Path to the trade journal file")
	cmd.Flags().Float64Var(&scanAccountEquity, "account-equity", 100000, "Account equity for sizing")
	cmd.Flags().Float64Var(&scanRiskFraction, "risk-fraction", 0.01, "Fraction of equity risked per trade")
	cmd.Flags().StringVar(&scanDotenv, "dotenv", ".env", "Path to a dotenv file with Alpaca credentials")
	cmd.Flags().StringVar(&scanOutput, "output", "", "Optional JSON file for detailed results")
}

// applyScanFlags copies explicitly-set flags over the loaded config, so
// precedence is flags, then config file, then defaults.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("lookback-days") {
		cfg.Scan.LookbackDays = scanLookbackDays
	}
	if flags.Changed("timeframe") {
		cfg.Scan.Timeframe = scanTimeframe
	}
	if flags.Changed("rs-window") {
		cfg.Scan.RSWindow = scanRSWindow
	}
	if flags.Changed("base-lookback") {
		cfg.Scan.BaseLookback = scanBaseLookback
	}
	if flags.Changed("account-equity") {
		cfg.Risk.AccountEquity = scanAccountEquity
	}
	if flags.Changed("risk-fraction") {
		cfg.Risk.RiskFraction = scanRiskFraction
	}
	if flags.Changed("journal") {
		applyJournalPath(cfg, scanJournalPath)
	}
}

// applyJournalPath maps a journal file path onto the storage layout. With
// local storage the directory part becomes the store root so the file lands
// exactly where the flag says.
func applyJournalPath(cfg *config.Config, path string) {
	if cfg.Storage.Type != "localfs" {
		cfg.Journal.Key = path
		return
	}
	dir, key := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	cfg.Storage.Path = filepath.Clean(dir)
	cfg.Journal.Key = key
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func buildStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "s3":
		return storage.NewS3(storage.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	default:
		return storage.NewLocalFS(cfg.Storage.Path)
	}
}

// scanEnv bundles everything one screening pass needs.
type scanEnv struct {
	cfg    *config.Config
	log    *zap.Logger
	reg    *metrics.Registry
	source collector.Source
	bot    *bot.Bot
	runID  string
	start  time.Time
}

func newScanEnv(ctx context.Context, cmd *cobra.Command) (*scanEnv, error) {
	log := logger.Must(debug)

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, err
	}
	applyScanFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Credentials not present in the config come from the environment or
	// the dotenv file.
	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		creds, err := config.LoadCredentials(scanDotenv)
		if err != nil {
			return nil, err
		}
		if cfg.Alpaca.APIKey == "" {
			cfg.Alpaca.APIKey = creds.APIKey
		}
		if cfg.Alpaca.APISecret == "" {
			cfg.Alpaca.APISecret = creds.APISecret
		}
		if creds.BaseURL != "" {
			cfg.Alpaca.BaseURL = creds.BaseURL
		}
	}

	runID := uuid.NewString()
	log = logger.WithRun(log, runID)

	reg := metrics.NewRegistry()
	sources := collector.NewRegistry()
	sources.Register(alpaca.New(alpaca.Config{
		BaseURL:   cfg.Alpaca.BaseURL,
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
	}, collector.NewHTTPClient(collector.HTTPClientOptions{}), reg))

	source, ok := sources.Get(cfg.Scan.Source)
	if !ok {
		return nil, fmt.Errorf("unknown data source %q, available: %s",
			cfg.Scan.Source, strings.Join(sources.Names(), ", "))
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	jnl, err := journal.New(ctx, store, cfg.Journal.Key, cfg.Journal.MinSamples)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	b := bot.New(strategy.NewEvaluator(cfg.Strategy), risk.NewSizer(cfg.Risk), bot.Options{
		Journal: jnl,
		Metrics: reg,
		Logger:  log,
	})

	return &scanEnv{
		cfg:    cfg,
		log:    log,
		reg:    reg,
		source: source,
		bot:    b,
		runID:  runID,
		start:  time.Now(),
	}, nil
}

func (e *scanEnv) close() {
	e.log.Sync()
}

// screen runs relative strength, base estimation, and ranking over the
// fetched series. The bool is false when no symbol had enough aligned data.
func (e *scanEnv) screen(series map[string]core.PriceSeries) ([]core.Candidate, bool, error) {
	strengths, err := universe.RelativeStrengths(series, e.cfg.Scan.RSWindow)
	if err != nil {
		return nil, false, err
	}
	baseLengths, err := universe.BaseLengths(series, e.cfg.Scan.BaseLookback)
	if err != nil {
		return nil, false, err
	}

	common := commonSymbols(series, strengths, baseLengths)
	if len(common) == 0 {
		return nil, false, nil
	}

	filteredSeries := make(map[string]core.PriceSeries, len(common))
	filteredStrengths := make(map[string]float64, len(common))
	filteredBases := make(map[string]int, len(common))
	for _, symbol := range common {
		filteredSeries[symbol] = series[symbol]
		filteredStrengths[symbol] = strengths[symbol]
		filteredBases[symbol] = baseLengths[symbol]
	}

	candidates, err := e.bot.RankCandidates(filteredSeries, filteredStrengths, filteredBases)
	if err != nil {
		return nil, false, err
	}
	return candidates, true, nil
}

// publish prints the summary table and writes the optional JSON report and
// webhook notification.
func (e *scanEnv) publish(candidates []core.Candidate) error {
	fmt.Print(report.Format(candidates))

	if scanOutput != "" {
		if err := report.Save(scanOutput, candidates); err != nil {
			return fmt.Errorf("saving results: %w", err)
		}
		fmt.Printf("Saved detailed results to %s\n", scanOutput)
	}

	if e.cfg.Notify.WebhookURL != "" {
		sink := notify.NewWebhook(e.cfg.Notify.WebhookURL, e.cfg.Notify.Headers)
		if err := sink.NotifyCandidates(e.runID, candidates); err != nil {
			e.log.Warn("webhook notification failed", zap.Error(err))
		}
	}
	return nil
}

func (e *scanEnv) finish(candidates int) {
	elapsed := time.Since(e.start)
	e.reg.RecordScan(elapsed.Seconds())
	e.log.Info("scan complete",
		zap.Int("candidates", candidates),
		zap.Duration("elapsed", elapsed))
}

// commonSymbols returns the sorted set of symbols present in all three maps.
func commonSymbols(series map[string]core.PriceSeries, strengths map[string]float64, baseLengths map[string]int) []string {
	common := make([]string, 0, len(series))
	for symbol := range series {
		if _, ok := strengths[symbol]; !ok {
			continue
		}
		if _, ok := baseLengths[symbol]; !ok {
			continue
		}
		common = append(common, symbol)
	}
	sort.Strings(common)
	return common
}
