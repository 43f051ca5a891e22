package notify

import (
	"github.com/newthinker/vigil/internal/core"
)

// Notifier defines the interface for pushing scan results to an external sink
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// NotifyCandidates sends the ranked candidates from one scan run
	NotifyCandidates(runID string, candidates []core.Candidate) error
}
