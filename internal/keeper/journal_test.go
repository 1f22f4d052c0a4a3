package keeper

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	entries []Entry
	err     error
}

func (s *recordingSink) AppendLog(entry Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestJournalNewestFirstAndCapped(t *testing.T) {
	j := NewJournal(nil)

	for i := 0; i < journalCap+20; i++ {
		j.Append(KindAction, fmt.Sprintf("entry %d", i), nil)
	}

	entries := j.Snapshot()
	assert.Len(t, entries, journalCap)
	assert.Equal(t, fmt.Sprintf("entry %d", journalCap+19), entries[0].Message)
}

func TestJournalVisibleFiltersInfo(t *testing.T) {
	j := NewJournal(nil)
	j.Append(KindInfo, "Checking sessions...", nil)
	j.Append(KindAction, "Nudged session", nil)
	j.Append(KindSkip, "Skipped session", nil)
	j.Append(KindError, "Failed", nil)

	visible := j.Visible()
	assert.Len(t, visible, 3)
	for _, entry := range visible {
		assert.NotEqual(t, KindInfo, entry.Kind)
	}
	assert.Len(t, j.Snapshot(), 4)
}

func TestJournalMirrorsToSink(t *testing.T) {
	sink := &recordingSink{}
	j := NewJournal(sink)

	entry := j.Append(KindAction, "Nudged session", map[string]any{"sessionId": "sessions/x"})

	assert.Len(t, sink.entries, 1)
	assert.Equal(t, entry.ID, sink.entries[0].ID)
	assert.NotEmpty(t, entry.ID)
	assert.WithinDuration(t, time.Now(), entry.Time, time.Minute)
}

func TestJournalSinkFailureSwallowed(t *testing.T) {
	sink := &recordingSink{err: fmt.Errorf("disk full")}
	j := NewJournal(sink)

	j.Append(KindAction, "Nudged session", nil)

	// The entry still lands in the ring.
	assert.Len(t, j.Snapshot(), 1)
}

func TestDebateArchiveEvictsOldest(t *testing.T) {
	a := NewDebateArchive()

	for i := 0; i < archiveCap+5; i++ {
		a.Add(DebateResult{ID: fmt.Sprintf("debate-%d", i)})
	}

	results := a.Snapshot()
	assert.Len(t, results, archiveCap)
	assert.Equal(t, fmt.Sprintf("debate-%d", archiveCap+4), results[0].ID)
	assert.Equal(t, "debate-5", results[archiveCap-1].ID)
}

func TestDebateArchiveSeedTruncates(t *testing.T) {
	a := NewDebateArchive()

	seed := make([]DebateResult, archiveCap+10)
	for i := range seed {
		seed[i] = DebateResult{ID: fmt.Sprintf("debate-%d", i)}
	}
	a.Seed(seed)

	assert.Len(t, a.Snapshot(), archiveCap)
}
