package keeper

import (
	"testing"
	"time"

	"github.com/robertpelloni/jules-app/internal/jules"

	"github.com/stretchr/testify/assert"
)

func sessionWithStatus(status jules.Status, raw string, idle time.Duration, now time.Time) jules.Session {
	last := now.Add(-idle)
	return jules.Session{
		ID:               "sessions/test-1",
		Status:           status,
		RawStatus:        raw,
		UpdateTime:       last,
		LastActivityTime: &last,
	}
}

func TestClassifyArchivedSkipsBeforeEverything(t *testing.T) {
	now := time.Now()
	cfg := DefaultSupervisorConfig()
	cfg.AutoResume = true
	cfg.ArchivedSessions = []string{"sessions/test-1"}

	// Even a failed session that would otherwise resume is skipped.
	sess := sessionWithStatus(jules.StatusFailed, jules.RawFailed, time.Hour, now)
	decision := Classify(sess, SessionState{}, cfg, now)

	assert.Equal(t, ActionSkip, decision.Action)
	assert.Equal(t, "session archived", decision.Reason)
}

func TestClassifySnoozedSkips(t *testing.T) {
	now := time.Now()
	cfg := DefaultSupervisorConfig()
	state := SessionState{SnoozeUntil: now.Add(2 * time.Minute)}

	sess := sessionWithStatus(jules.StatusActive, "", time.Hour, now)
	decision := Classify(sess, state, cfg, now)

	assert.Equal(t, ActionSkip, decision.Action)
}

func TestClassifyResumeGatedOnAutoResume(t *testing.T) {
	now := time.Now()

	for _, status := range []jules.Status{jules.StatusPaused, jules.StatusCompleted, jules.StatusFailed} {
		sess := sessionWithStatus(status, "", time.Hour, now)

		cfg := DefaultSupervisorConfig()
		decision := Classify(sess, SessionState{}, cfg, now)
		assert.Equal(t, ActionSkip, decision.Action, "status %s without auto-resume", status)

		cfg.AutoResume = true
		decision = Classify(sess, SessionState{}, cfg, now)
		assert.Equal(t, ActionResume, decision.Action, "status %s with auto-resume", status)
	}
}

func TestClassifyApproveRegardlessOfIdle(t *testing.T) {
	now := time.Now()
	cfg := DefaultSupervisorConfig()

	// Zero idle: a plan approval never waits for a threshold.
	sess := sessionWithStatus(jules.StatusAwaitingApproval, jules.RawAwaitingPlanApproval, 0, now)
	decision := Classify(sess, SessionState{}, cfg, now)
	assert.Equal(t, ActionApprove, decision.Action)

	// The raw signal alone is enough even when normalization lags.
	sess = sessionWithStatus(jules.StatusActive, jules.RawAwaitingPlanApproval, 0, now)
	decision = Classify(sess, SessionState{}, cfg, now)
	assert.Equal(t, ActionApprove, decision.Action)
}

func TestClassifyRecentWorkGuard(t *testing.T) {
	now := time.Now()
	cfg := DefaultSupervisorConfig()
	// Thresholds so aggressive every idle session would nudge.
	cfg.ActiveWorkThresholdMinutes = 0.0001
	cfg.InactivityThresholdMinutes = 0.0001

	sess := sessionWithStatus(jules.StatusActive, jules.RawInProgress, 10*time.Second, now)
	decision := Classify(sess, SessionState{}, cfg, now)

	assert.Equal(t, ActionSkip, decision.Action)
	assert.Equal(t, "actively working", decision.Reason)
}

func TestClassifyNudgeBeyondThreshold(t *testing.T) {
	now := time.Now()
	cfg := DefaultSupervisorConfig()
	cfg.InactivityThresholdMinutes = 1

	sess := sessionWithStatus(jules.StatusActive, "", 90*time.Second, now)
	decision := Classify(sess, SessionState{}, cfg, now)

	assert.Equal(t, ActionNudge, decision.Action)
	assert.Equal(t, 90*time.Second, decision.Idle)
}

func TestClassifyInProgressUsesActiveWorkThreshold(t *testing.T) {
	now := time.Now()
	cfg := DefaultSupervisorConfig()
	cfg.InactivityThresholdMinutes = 1
	cfg.ActiveWorkThresholdMinutes = 30

	// 5 minutes idle: would nudge an idle session, but in-progress work gets
	// the longer threshold.
	sess := sessionWithStatus(jules.StatusActive, jules.RawInProgress, 5*time.Minute, now)
	decision := Classify(sess, SessionState{}, cfg, now)
	assert.Equal(t, ActionSkip, decision.Action)

	sess = sessionWithStatus(jules.StatusActive, jules.RawInProgress, 31*time.Minute, now)
	decision = Classify(sess, SessionState{}, cfg, now)
	assert.Equal(t, ActionNudge, decision.Action)
}

func TestClassifyWithinThresholdSkips(t *testing.T) {
	now := time.Now()
	cfg := DefaultSupervisorConfig()
	cfg.InactivityThresholdMinutes = 5

	sess := sessionWithStatus(jules.StatusActive, "", time.Minute, now)
	decision := Classify(sess, SessionState{}, cfg, now)

	assert.Equal(t, ActionSkip, decision.Action)
	assert.Equal(t, "within inactivity threshold", decision.Reason)
}

func TestMessagePoolPrefersCustom(t *testing.T) {
	cfg := DefaultSupervisorConfig()
	cfg.CustomMessages = map[string][]string{
		"sessions/custom": {"custom nudge"},
		"sessions/empty":  {},
	}

	assert.Equal(t, []string{"custom nudge"}, cfg.MessagePool("sessions/custom"))
	// An empty custom pool falls back to the global pool.
	assert.Equal(t, cfg.Messages, cfg.MessagePool("sessions/empty"))
	assert.Equal(t, cfg.Messages, cfg.MessagePool("sessions/other"))
}

func TestPickMessageEmptyPools(t *testing.T) {
	cfg := DefaultSupervisorConfig()
	cfg.Messages = nil

	_, ok := cfg.PickMessage("sessions/any")
	assert.False(t, ok)
}
