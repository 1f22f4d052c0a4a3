package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robertpelloni/jules-app/internal/keeper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLockConfig() *FileLockConfig {
	return &FileLockConfig{
		LockTimeout:  time.Second,
		LockRetry:    10 * time.Millisecond,
		LockMaxRetry: 3,
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir(), testLockConfig())
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestLoadSupervisorConfigMissingFileYieldsDefaults(t *testing.T) {
	st := openTestStore(t)

	assert.False(t, st.HasSupervisorConfig())

	cfg, err := st.LoadSupervisorConfig()
	require.NoError(t, err)
	assert.Equal(t, keeper.DefaultSupervisorConfig(), cfg)
}

func TestSupervisorConfigRoundTrip(t *testing.T) {
	st := openTestStore(t)

	cfg := keeper.DefaultSupervisorConfig()
	cfg.Enabled = true
	cfg.CheckIntervalSeconds = 45
	cfg.ArchivedSessions = []string{"sessions/old"}
	cfg.CustomMessages = map[string][]string{"sessions/x": {"special nudge"}}

	require.NoError(t, st.SaveSupervisorConfig(cfg))
	assert.True(t, st.HasSupervisorConfig())

	loaded, err := st.LoadSupervisorConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

// A blob written by an older version misses newer fields entirely; loading
// must fill them with defaults instead of zero values.
func TestLoadSupervisorConfigLegacyBlob(t *testing.T) {
	dir := t.TempDir()
	legacy := []byte(`{"isEnabled": true, "checkIntervalSeconds": 20}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "supervisor.json"), legacy, 0o644))

	st, err := Open(dir, testLockConfig())
	require.NoError(t, err)
	defer st.Close()

	cfg, err := st.LoadSupervisorConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 20, cfg.CheckIntervalSeconds)
	assert.NotEmpty(t, cfg.Messages)
	assert.Greater(t, cfg.InactivityThresholdMinutes, 0.0)
}

func TestAppendLogAndRecentLogs(t *testing.T) {
	st := openTestStore(t)

	for i := 0; i < 5; i++ {
		err := st.AppendLog(keeper.Entry{
			ID:      fmt.Sprintf("entry-%d", i),
			Time:    time.Now(),
			Message: fmt.Sprintf("message %d", i),
			Kind:    keeper.KindAction,
		})
		require.NoError(t, err)
	}

	entries, err := st.RecentLogs(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "entry-4", entries[0].ID)
	assert.Equal(t, "entry-2", entries[2].ID)
}

func TestRecentLogsMissingFile(t *testing.T) {
	st := openTestStore(t)

	entries, err := st.RecentLogs(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecentLogsSkipsCorruptLines(t *testing.T) {
	st := openTestStore(t)

	require.NoError(t, st.AppendLog(keeper.Entry{ID: "good", Kind: keeper.KindAction}))

	f, err := os.OpenFile(filepath.Join(st.BasePath(), "keeper.log.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("this line is not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := st.RecentLogs(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good", entries[0].ID)
}

func TestDebatesRoundTrip(t *testing.T) {
	st := openTestStore(t)

	debates := []keeper.DebateResult{
		{ID: "debate-1", Mode: keeper.ModeDebate, FinalInstruction: "ship it"},
		{ID: "debate-2", Mode: keeper.ModeConference},
	}
	require.NoError(t, st.SaveDebates(debates))

	loaded, err := st.LoadDebates()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "debate-1", loaded[0].ID)
	assert.Equal(t, "ship it", loaded[0].FinalInstruction)
}

func TestLoadDebatesMissingFile(t *testing.T) {
	st := openTestStore(t)

	debates, err := st.LoadDebates()
	require.NoError(t, err)
	assert.Nil(t, debates)
}

func TestSecondInstanceBlocked(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, testLockConfig())
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(dir, testLockConfig())
	assert.Error(t, err)
}
