package keeper

import "sync"

const archiveCap = 50

// DebateArchive keeps the most recent debate results, newest first, oldest
// evicted beyond the cap.
type DebateArchive struct {
	mu      sync.RWMutex
	results []DebateResult
}

func NewDebateArchive() *DebateArchive {
	return &DebateArchive{}
}

// Seed replaces the archive contents with previously persisted results.
func (a *DebateArchive) Seed(results []DebateResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(results) > archiveCap {
		results = results[:archiveCap]
	}
	a.results = append([]DebateResult(nil), results...)
}

func (a *DebateArchive) Add(result DebateResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append([]DebateResult{result}, a.results...)
	if len(a.results) > archiveCap {
		a.results = a.results[:archiveCap]
	}
}

func (a *DebateArchive) Snapshot() []DebateResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]DebateResult, len(a.results))
	copy(out, a.results)
	return out
}
