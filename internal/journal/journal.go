// Package journal persists closed trades and adapts screening thresholds
// from their outcomes.
package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/newthinker/vigil/internal/core"
	"github.com/newthinker/vigil/internal/storage"
)

// DefaultMinSamples is how many recent trades adaptive tuning needs before
// it will touch any threshold.
const DefaultMinSamples = 5

// Journal keeps the full trade history in memory and rewrites the backing
// document on every append. Safe for concurrent use.
type Journal struct {
	store      storage.Store
	key        string
	minSamples int

	mu      sync.Mutex
	records []core.TradeRecord
}

// New opens the journal stored at key, loading any existing records. A
// non-positive minSamples falls back to DefaultMinSamples.
func New(ctx context.Context, store storage.Store, key string, minSamples int) (*Journal, error) {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	j := &Journal{store: store, key: key, minSamples: minSamples}
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) load(ctx context.Context) error {
	exists, err := j.store.Exists(ctx, j.key)
	if err != nil {
		return fmt.Errorf("checking journal %s: %w", j.key, err)
	}
	if !exists {
		return nil
	}

	data, err := j.store.Read(ctx, j.key)
	if err != nil {
		return fmt.Errorf("reading journal %s: %w", j.key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var records []core.TradeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return core.WrapError(core.ErrJournalCorrupt, err)
	}
	j.records = records
	return nil
}

func (j *Journal) persist(ctx context.Context) error {
	data, err := json.MarshalIndent(j.records, "", "  ")
	if err != nil {
		return err
	}
	return j.store.Write(ctx, j.key, data)
}

// RecordTrade appends a trade outcome and rewrites the journal document.
func (j *Journal) RecordTrade(ctx context.Context, record core.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records = append(j.records, record)
	return j.persist(ctx)
}

// Records returns a copy of the journal contents in insertion order.
func (j *Journal) Records() []core.TradeRecord {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]core.TradeRecord, len(j.records))
	copy(out, j.records)
	return out
}

// Len returns the number of recorded trades.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}
