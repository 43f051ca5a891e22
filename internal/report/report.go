// Package report renders ranked candidates for terminals and files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/vigil/internal/core"
)

// Result is the detailed JSON shape written for one candidate.
type Result struct {
	EntryPrice   float64           `json:"entry_price"`
	PositionPlan core.PositionPlan `json:"position_plan"`
	Reasons      []string          `json:"reasons"`
	Score        float64           `json:"score"`
	StopPrice    float64           `json:"stop_price"`
	Symbol       string            `json:"symbol"`
}

// Format renders the ranked candidates as a fixed-width table.
func Format(candidates []core.Candidate) string {
	if len(candidates) == 0 {
		return "No qualifying candidates found.\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("%-8s %7s %10s %8s", "Symbol", "Score", "Stop", "Shares")
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", len(header)))
	b.WriteByte('\n')

	for _, c := range candidates {
		fmt.Fprintf(&b, "%-8s %7.2f %10.2f %8d\n",
			c.Symbol, c.Evaluation.Score, c.Plan.StopPrice, c.Plan.Shares)
	}
	return b.String()
}

// Save writes the detailed results to path as indented JSON.
func Save(path string, candidates []core.Candidate) error {
	payload := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		reasons := c.Evaluation.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		payload = append(payload, Result{
			EntryPrice:   c.Evaluation.EntryPrice,
			PositionPlan: c.Plan,
			Reasons:      reasons,
			Score:        c.Evaluation.Score,
			StopPrice:    c.Evaluation.StopPrice,
			Symbol:       c.Symbol,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
