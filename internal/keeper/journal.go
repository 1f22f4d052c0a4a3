package keeper

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntryKind tags journal entries. Info entries are kept for diagnostics but
// filtered from the user-facing feed to avoid spam.
type EntryKind string

const (
	KindInfo   EntryKind = "info"
	KindAction EntryKind = "action"
	KindError  EntryKind = "error"
	KindSkip   EntryKind = "skip"
)

// Entry is one keeper journal record.
type Entry struct {
	ID      string         `json:"id"`
	Time    time.Time      `json:"time"`
	Message string         `json:"message"`
	Kind    EntryKind      `json:"type"`
	Details map[string]any `json:"details,omitempty"`
}

// Sink mirrors journal entries to durable storage. Sink failures are logged
// and swallowed; the in-memory ring is the source of truth for display.
type Sink interface {
	AppendLog(entry Entry) error
}

const journalCap = 100

// Journal is an append-only capped ring of keeper log entries, newest first
// on read. Single writer (the keeper), concurrent readers.
type Journal struct {
	mu      sync.RWMutex
	entries []Entry
	sink    Sink
}

func NewJournal(sink Sink) *Journal {
	return &Journal{sink: sink}
}

func (j *Journal) Append(kind EntryKind, message string, details map[string]any) Entry {
	entry := Entry{
		ID:      ulid.Make().String(),
		Time:    time.Now(),
		Message: message,
		Kind:    kind,
		Details: details,
	}

	j.mu.Lock()
	j.entries = append([]Entry{entry}, j.entries...)
	if len(j.entries) > journalCap {
		j.entries = j.entries[:journalCap]
	}
	j.mu.Unlock()

	if j.sink != nil {
		if err := j.sink.AppendLog(entry); err != nil {
			slog.Warn("Failed to persist journal entry", "error", err)
		}
	}

	return entry
}

// Snapshot returns all buffered entries, newest first.
func (j *Journal) Snapshot() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Visible returns the user-facing feed: action, error and skip entries only.
func (j *Journal) Visible() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if e.Kind != KindInfo {
			out = append(out, e)
		}
	}
	return out
}

func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}
