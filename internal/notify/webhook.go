// Package notify pushes scan results to external sinks over HTTP webhooks
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/vigil/internal/core"
)

// Webhook posts ranked candidates to an HTTP endpoint as JSON
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhook creates a new webhook notifier
func NewWebhook(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

// NotifyCandidates posts the scan results. An empty candidate list is a
// no-op so quiet scans do not spam the sink.
func (w *Webhook) NotifyCandidates(runID string, candidates []core.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	payloads := make([]map[string]any, len(candidates))
	for i, c := range candidates {
		payloads[i] = candidateToPayload(c)
	}

	payload := map[string]any{
		"type":       "scan",
		"run_id":     runID,
		"count":      len(candidates),
		"candidates": payloads,
	}

	return w.post(payload)
}

func candidateToPayload(c core.Candidate) map[string]any {
	return map[string]any{
		"symbol":      c.Symbol,
		"score":       c.Evaluation.Score,
		"entry_price": c.Evaluation.EntryPrice,
		"stop_price":  c.Evaluation.StopPrice,
		"shares":      c.Plan.Shares,
	}
}

func (w *Webhook) post(payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("marshaling payload: %w", err))
	}

	req, err := http.NewRequest("POST", w.url, bytes.NewReader(body))
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("posting to %s: %w", w.url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("server returned %d", resp.StatusCode))
	}

	return nil
}
