package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vigil/internal/core"
	"github.com/newthinker/vigil/internal/journal"
	"github.com/newthinker/vigil/internal/logger"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Trade journal operations",
	Long:  `Commands for recording realized trades and inspecting the journal that drives adaptive threshold tuning.`,
}

var journalRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append a realized trade to the journal",
	RunE:  runJournalRecord,
}

var journalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List recorded trades and tuning-window stats",
	RunE:  runJournalShow,
}

var (
	journalFile     string
	recordSymbol    string
	recordEntry     float64
	recordExit      float64
	recordShares    int
	recordEntryDate string
	recordExitDate  string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRecordCmd)
	journalCmd.AddCommand(journalShowCmd)

	addJournalFlags(journalRecordCmd)
	addJournalFlags(journalShowCmd)

	journalRecordCmd.Flags().StringVar(&recordSymbol, "symbol", "", "Traded symbol")
	journalRecordCmd.Flags().Float64Var(&recordEntry, "entry-price", 0, "Entry fill price")
	journalRecordCmd.Flags().Float64Var(&recordExit, "exit-price", 0, "Exit fill price")
	journalRecordCmd.Flags().IntVar(&recordShares, "shares", 0, "Number of shares")
	journalRecordCmd.Flags().StringVar(&recordEntryDate, "entry-date", "", "Entry date (YYYY-MM-DD)")
	journalRecordCmd.Flags().StringVar(&recordExitDate, "exit-date", "", "Exit date (YYYY-MM-DD)")
	journalRecordCmd.MarkFlagRequired("symbol")
	journalRecordCmd.MarkFlagRequired("entry-price")
	journalRecordCmd.MarkFlagRequired("exit-price")
	journalRecordCmd.MarkFlagRequired("shares")
}

func addJournalFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&journalFile, "journal", "journal.json", "Path to the trade journal file")
}

// withJournal handles common journal setup and teardown.
func withJournal(cmd *cobra.Command, fn func(ctx context.Context, jnl *journal.Journal, log *zap.Logger) error) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("journal") {
		applyJournalPath(cfg, journalFile)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	ctx := context.Background()
	jnl, err := journal.New(ctx, store, cfg.Journal.Key, cfg.Journal.MinSamples)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}

	return fn(ctx, jnl, log)
}

func runJournalRecord(cmd *cobra.Command, args []string) error {
	record, err := buildTradeRecord()
	if err != nil {
		return err
	}

	return withJournal(cmd, func(ctx context.Context, jnl *journal.Journal, log *zap.Logger) error {
		if err := jnl.RecordTrade(ctx, record); err != nil {
			return fmt.Errorf("recording trade: %w", err)
		}

		fmt.Printf("Recorded %s: %d shares, %.2f -> %.2f (P&L %.2f)\n",
			record.Symbol, record.Shares, record.EntryPrice, record.ExitPrice, record.PnL())

		log.Info("trade recorded",
			zap.String("symbol", record.Symbol),
			zap.Int("shares", record.Shares),
			zap.Float64("pnl", record.PnL()))
		return nil
	})
}

func buildTradeRecord() (core.TradeRecord, error) {
	if recordEntry <= 0 {
		return core.TradeRecord{}, fmt.Errorf("entry price must be positive, got %v", recordEntry)
	}
	if recordExit <= 0 {
		return core.TradeRecord{}, fmt.Errorf("exit price must be positive, got %v", recordExit)
	}
	if recordShares <= 0 {
		return core.TradeRecord{}, fmt.Errorf("shares must be positive, got %d", recordShares)
	}
	for _, date := range []string{recordEntryDate, recordExitDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return core.TradeRecord{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
		}
	}

	return core.TradeRecord{
		Symbol:     recordSymbol,
		EntryPrice: recordEntry,
		ExitPrice:  recordExit,
		Shares:     recordShares,
		EntryDate:  recordEntryDate,
		ExitDate:   recordExitDate,
	}, nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	return withJournal(cmd, func(ctx context.Context, jnl *journal.Journal, log *zap.Logger) error {
		records := jnl.Records()
		if len(records) == 0 {
			fmt.Println("No trades recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tENTRY\tEXIT\tSHARES\tP&L\tRETURN\tENTRY DATE\tEXIT DATE\t")
		fmt.Fprintln(w, "------\t-----\t----\t------\t---\t------\t----------\t---------\t")

		for _, r := range records {
			plSign := ""
			if r.PnL() >= 0 {
				plSign = "+"
			}
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%d\t%s%.2f\t%+.2f%%\t%s\t%s\t\n",
				r.Symbol, r.EntryPrice, r.ExitPrice, r.Shares,
				plSign, r.PnL(), r.ReturnPct()*100, r.EntryDate, r.ExitDate)
		}
		w.Flush()

		if stats, ok := jnl.RecentStats(); ok {
			fmt.Printf("\nLast %d trades: win rate %.0f%%, mean return %+.2f%%\n",
				stats.Trades, stats.WinRate*100, stats.MeanReturn*100)
		} else {
			fmt.Printf("\n%d trade(s) recorded, not enough for tuning stats.\n", stats.Trades)
		}

		log.Info("journal shown", zap.Int("records", len(records)))
		return nil
	})
}
