// Package bot aggregates strategy evaluation, risk sizing, and candidate
// ranking into one screening pass.
package bot

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/newthinker/vigil/internal/core"
	"github.com/newthinker/vigil/internal/journal"
	"github.com/newthinker/vigil/internal/metrics"
	"github.com/newthinker/vigil/internal/risk"
	"github.com/newthinker/vigil/internal/strategy"
)

// Options holds the optional collaborators of a Bot.
type Options struct {
	// Journal enables adaptive threshold tuning and trade recording.
	Journal *journal.Journal
	// Metrics receives evaluation and ranking counters when set.
	Metrics *metrics.Registry
	// Logger defaults to a no-op logger when nil.
	Logger *zap.Logger
}

// Bot runs the momentum screen over a set of symbols and ranks the
// qualifiers by score.
type Bot struct {
	evaluator *strategy.Evaluator
	sizer     *risk.Sizer
	journal   *journal.Journal
	metrics   *metrics.Registry
	log       *zap.Logger
}

// New creates a Bot from an evaluator and a position sizer.
func New(evaluator *strategy.Evaluator, sizer *risk.Sizer, opts Options) *Bot {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		evaluator: evaluator,
		sizer:     sizer,
		journal:   opts.Journal,
		metrics:   opts.Metrics,
		log:       log,
	}
}

// RankCandidates evaluates every symbol and returns the qualifiers sorted
// by score, strongest first. Symbols are visited in sorted order so ties
// rank alphabetically. Every symbol must have a relative strength and a
// base length; a missing entry fails the whole pass.
//
// When a journal is configured, recent trade outcomes tune the thresholds
// before any symbol is evaluated.
func (b *Bot) RankCandidates(series map[string]core.PriceSeries, relativeStrengths map[string]float64, baseLengths map[string]int) ([]core.Candidate, error) {
	if b.journal != nil {
		current := b.evaluator.Config()
		tuned := b.journal.AdaptConfig(current)
		if tuned != current {
			b.recordAdaptation(current, tuned)
			b.log.Info("thresholds adapted from journal",
				zap.Float64("rs_threshold", tuned.RSThreshold),
				zap.Float64("max_pct_off_high", tuned.MaxPctOffHigh),
				zap.Float64("min_pct_from_low", tuned.MinPctFromLow))
			b.evaluator.SetConfig(tuned)
		}
	}

	candidates := make([]core.Candidate, 0)
	for _, symbol := range sortedSymbols(series) {
		rs, ok := relativeStrengths[symbol]
		if !ok {
			return nil, core.WrapError(core.ErrMissingData,
				fmt.Errorf("relative strength not provided for %s", symbol))
		}
		baseLength, ok := baseLengths[symbol]
		if !ok {
			return nil, core.WrapError(core.ErrMissingData,
				fmt.Errorf("base length not provided for %s", symbol))
		}

		eval, err := b.evaluator.Evaluate(series[symbol], rs, baseLength)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", symbol, err)
		}
		if b.metrics != nil {
			b.metrics.RecordEvaluation(evaluationResult(eval))
		}
		if !eval.Qualifies {
			b.log.Debug("symbol disqualified",
				zap.String("symbol", symbol),
				zap.Strings("reasons", eval.Reasons))
			continue
		}

		plan, err := b.sizer.SizePosition(eval.EntryPrice, eval.Metrics["atr_14"])
		if err != nil {
			return nil, fmt.Errorf("sizing %s: %w", symbol, err)
		}

		candidates = append(candidates, core.Candidate{
			Symbol:     symbol,
			Evaluation: eval,
			Plan:       plan,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Evaluation.Score > candidates[j].Evaluation.Score
	})

	if b.metrics != nil {
		b.metrics.SetCandidatesRanked(len(candidates))
	}
	return candidates, nil
}

// SummaryRow is one line of the ranked candidate table.
type SummaryRow struct {
	Symbol    string
	Score     float64
	StopPrice float64
	Shares    int
}

// Summary flattens ranked candidates into table rows.
func (b *Bot) Summary(candidates []core.Candidate) []SummaryRow {
	rows := make([]SummaryRow, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, SummaryRow{
			Symbol:    c.Symbol,
			Score:     c.Evaluation.Score,
			StopPrice: c.Plan.StopPrice,
			Shares:    c.Plan.Shares,
		})
	}
	return rows
}

// RecordCompletedTrade persists an executed trade outcome so future scans
// can tune their thresholds from it.
func (b *Bot) RecordCompletedTrade(ctx context.Context, record core.TradeRecord) error {
	if b.journal == nil {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("no journal configured"))
	}
	if err := b.journal.RecordTrade(ctx, record); err != nil {
		return err
	}
	if b.metrics != nil {
		b.metrics.RecordJournalTrade()
	}
	return nil
}

func evaluationResult(eval core.Evaluation) string {
	switch {
	case eval.Qualifies:
		return metrics.ResultQualified
	case len(eval.Reasons) == 1 && eval.Reasons[0] == strategy.ReasonNoMovingAverages:
		return metrics.ResultInsufficientData
	default:
		return metrics.ResultRejected
	}
}

func (b *Bot) recordAdaptation(old, tuned strategy.Config) {
	if b.metrics == nil {
		return
	}
	direction := "loosen"
	if tuned.RSThreshold > old.RSThreshold || tuned.MaxPctOffHigh < old.MaxPctOffHigh {
		direction = "tighten"
	}
	b.metrics.RecordAdaptation(direction)
}

func sortedSymbols(series map[string]core.PriceSeries) []string {
	symbols := make([]string, 0, len(series))
	for symbol := range series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
