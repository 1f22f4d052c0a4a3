package keeper

import (
	"fmt"
	"time"

	"github.com/robertpelloni/jules-app/internal/jules"
)

// Action is the decision the classifier reaches for one session on one tick.
type Action string

const (
	ActionSkip    Action = "skip"
	ActionResume  Action = "resume"
	ActionApprove Action = "approve"
	ActionNudge   Action = "nudge"
)

// Decision carries the action plus the reason used for journal entries.
type Decision struct {
	Action Action
	Reason string
	Idle   time.Duration
}

// Never interrupt work that produced output within this window, regardless of
// the configured thresholds.
const recentWorkGuard = 30 * time.Second

// Classify evaluates one session against the action policy. Rules are checked
// in fixed priority order; the first match wins, one action per tick.
// Resumption of paused/completed/failed sessions is gated on AutoResume: the
// default deployment only approves and nudges.
func Classify(sess jules.Session, state SessionState, cfg SupervisorConfig, now time.Time) Decision {
	// Archived sessions are excluded before any per-session work.
	if cfg.IsArchived(sess.ID) {
		return Decision{Action: ActionSkip, Reason: "session archived"}
	}

	if state.Snoozed(now) {
		return Decision{Action: ActionSkip, Reason: fmt.Sprintf("snoozed until %s", state.SnoozeUntil.Format(time.TimeOnly))}
	}

	switch sess.Status {
	case jules.StatusPaused, jules.StatusCompleted, jules.StatusFailed:
		if cfg.AutoResume {
			return Decision{Action: ActionResume, Reason: fmt.Sprintf("session %s", sess.Status)}
		}
		return Decision{Action: ActionSkip, Reason: fmt.Sprintf("session %s and auto-resume disabled", sess.Status)}
	}

	if sess.AwaitingPlanApproval() {
		return Decision{Action: ActionApprove, Reason: "plan awaiting approval"}
	}

	idle := now.Sub(sess.LastActivity())

	if sess.InProgress() && idle < recentWorkGuard {
		return Decision{Action: ActionSkip, Reason: "actively working", Idle: idle}
	}

	threshold := time.Duration(cfg.InactivityThresholdMinutes * float64(time.Minute))
	if sess.InProgress() {
		threshold = time.Duration(cfg.ActiveWorkThresholdMinutes * float64(time.Minute))
	}

	if idle > threshold {
		return Decision{Action: ActionNudge, Reason: fmt.Sprintf("idle %s (threshold %s)", idle.Round(time.Second), threshold), Idle: idle}
	}

	return Decision{Action: ActionSkip, Reason: "within inactivity threshold", Idle: idle}
}
