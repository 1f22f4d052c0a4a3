package keeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robertpelloni/jules-app/internal/concurrency"
	"github.com/robertpelloni/jules-app/internal/jules"
	"github.com/robertpelloni/jules-app/internal/logger"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

// SessionAPI is the slice of the remote store the keeper drives.
type SessionAPI interface {
	ListSessions(ctx context.Context) ([]jules.Session, error)
	ListActivities(ctx context.Context, sessionID string) ([]jules.Activity, error)
	ResumeSession(ctx context.Context, id string) error
	ApprovePlan(ctx context.Context, id string) error
	SendMessage(ctx context.Context, sessionID, content string) (*jules.Activity, error)
}

// Completer resolves a provider name and issues one completion call.
type Completer interface {
	Complete(ctx context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
}

// Navigator is the optional UI side effect: switch the display to a session
// the keeper just acted on.
type Navigator interface {
	NavigateTo(sessionID string)
}

// How long a session is snoozed after a remote mutation fails, so the same
// failure is not re-raised every tick.
const errorSnooze = 5 * time.Minute

// Keeper is the supervisor scheduler: a periodic tick that classifies every
// remote session and dispatches the decided action. A single in-flight guard
// drops ticks that fire while the previous session loop is still executing.
type Keeper struct {
	api       SessionAPI
	completer Completer
	journal   *Journal
	navigator Navigator
	now       func() time.Time

	mu       sync.Mutex
	cfg      SupervisorConfig
	running  bool
	inFlight bool
	stop     chan struct{}
	states   map[string]SessionState
	stats    Stats

	// Owned by the tick goroutine; sessions are evaluated sequentially so
	// at most one auto-navigation happens per tick, first decided wins.
	navigatedThisTick bool
}

type Option func(*Keeper)

func WithNavigator(n Navigator) Option {
	return func(k *Keeper) { k.navigator = n }
}

func WithClock(now func() time.Time) Option {
	return func(k *Keeper) { k.now = now }
}

func New(api SessionAPI, completer Completer, journal *Journal, cfg SupervisorConfig, opts ...Option) *Keeper {
	cfg.ApplyDefaults()
	k := &Keeper{
		api:       api,
		completer: completer,
		journal:   journal,
		cfg:       cfg,
		now:       time.Now,
		states:    make(map[string]SessionState),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Start arms the tick loop when the config enables it: one immediate tick,
// then a repeating timer at the configured cadence. Idempotent.
func (k *Keeper) Start(ctx context.Context) error {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return nil
	}
	if !k.cfg.Enabled {
		k.mu.Unlock()
		slog.Info("Keeper disabled by configuration")
		return nil
	}
	cfg := k.cfg
	k.running = true
	k.stop = make(chan struct{})
	stop := k.stop
	k.mu.Unlock()

	var schedule cron.Schedule
	if cfg.CheckSchedule != "" {
		parsed, err := cron.ParseStandard(cfg.CheckSchedule)
		if err != nil {
			k.mu.Lock()
			k.running = false
			k.mu.Unlock()
			return fmt.Errorf("parse check schedule %q: %w", cfg.CheckSchedule, err)
		}
		schedule = parsed
	}

	concurrency.SafeGo(func() {
		k.Tick(ctx)
		k.run(ctx, cfg, schedule, stop)
	}, nil)

	slog.Info("Keeper started", "interval_seconds", cfg.CheckIntervalSeconds, "schedule", cfg.CheckSchedule)
	return nil
}

// Stop cancels the pending timer. A tick already in flight finishes; the
// guard is released by its defer regardless of outcome.
func (k *Keeper) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return
	}
	k.running = false
	close(k.stop)
	slog.Info("Keeper stopped")
}

// Reconfigure swaps the configuration. Any pending timer is cancelled before
// re-arming, so there is at most one active timer per configuration epoch.
func (k *Keeper) Reconfigure(ctx context.Context, cfg SupervisorConfig) error {
	cfg.ApplyDefaults()
	k.Stop()
	k.mu.Lock()
	k.cfg = cfg
	k.mu.Unlock()
	return k.Start(ctx)
}

func (k *Keeper) IsRunning() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

func (k *Keeper) Config() SupervisorConfig {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cfg
}

func (k *Keeper) Stats() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stats
}

// SessionStateFor returns the ephemeral runtime state for a session.
func (k *Keeper) SessionStateFor(sessionID string) SessionState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.states[sessionID]
}

func (k *Keeper) run(ctx context.Context, cfg SupervisorConfig, schedule cron.Schedule, stop chan struct{}) {
	interval := time.Duration(cfg.CheckIntervalSeconds) * time.Second

	for {
		var wait time.Duration
		if schedule != nil {
			wait = time.Until(schedule.Next(k.now()))
		} else {
			wait = interval
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			k.Tick(ctx)
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Tick runs one supervision pass: fetch the session list once, then evaluate
// each session sequentially. A tick that fires while another is in flight is
// dropped, not queued.
func (k *Keeper) Tick(ctx context.Context) {
	k.mu.Lock()
	if k.inFlight {
		k.mu.Unlock()
		slog.Debug("Tick dropped, previous tick still in flight")
		return
	}
	k.inFlight = true
	cfg := k.cfg
	k.mu.Unlock()

	defer func() {
		k.mu.Lock()
		k.inFlight = false
		k.mu.Unlock()
	}()

	ctx = logger.WithTraceID(ctx, ulid.Make().String())
	k.navigatedThisTick = false
	k.journal.Append(KindInfo, "Checking sessions...", nil)

	sessions, err := k.api.ListSessions(ctx)
	if err != nil {
		k.journal.Append(KindError, fmt.Sprintf("Failed to list sessions: %v", err), nil)
		return
	}

	for _, sess := range sessions {
		k.evaluateSafely(ctx, cfg, sess)
	}
}

// evaluateSafely contains one session's failure so the remaining sessions
// still get evaluated.
func (k *Keeper) evaluateSafely(ctx context.Context, cfg SupervisorConfig, sess jules.Session) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while evaluating session", "session_id", sess.ID, "panic", r)
			k.journal.Append(KindError, fmt.Sprintf("Internal error evaluating %s: %v", shortID(sess.ID), r), nil)
		}
	}()

	k.evaluate(logger.WithSessionID(ctx, sess.ID), cfg, sess)
}

func (k *Keeper) evaluate(ctx context.Context, cfg SupervisorConfig, sess jules.Session) {
	decision := Classify(sess, k.SessionStateFor(sess.ID), cfg, k.now())

	switch decision.Action {
	case ActionSkip:
		k.recordSkip(cfg, sess, decision)

	case ActionResume:
		if err := k.api.ResumeSession(ctx, sess.ID); err != nil {
			k.recordFailure(sess, "resume", err)
			return
		}
		k.journal.Append(KindAction, fmt.Sprintf("Resumed session %s (%s)", shortID(sess.ID), decision.Reason), map[string]any{"sessionId": sess.ID})
		k.afterAction(cfg, sess, func(s *Stats) { s.TotalResumes++ })

	case ActionApprove:
		if err := k.api.ApprovePlan(ctx, sess.ID); err != nil {
			k.recordFailure(sess, "approve plan", err)
			return
		}
		k.journal.Append(KindAction, fmt.Sprintf("Plan approved for %s", shortID(sess.ID)), map[string]any{"sessionId": sess.ID})
		k.afterAction(cfg, sess, func(s *Stats) { s.TotalApprovals++ })

	case ActionNudge:
		content := k.nudgeContent(ctx, cfg, sess)
		if content == "" {
			k.journal.Append(KindSkip, fmt.Sprintf("No nudge messages configured for %s", shortID(sess.ID)), nil)
			return
		}
		if _, err := k.api.SendMessage(ctx, sess.ID, content); err != nil {
			k.recordFailure(sess, "nudge", err)
			return
		}
		k.journal.Append(KindAction,
			fmt.Sprintf("Nudged %s after %s idle: %q", shortID(sess.ID), decision.Idle.Round(time.Second), truncate(content, 40)),
			map[string]any{"sessionId": sess.ID})
		k.updateState(sess.ID, func(st *SessionState) {
			st.LastActivitySnippet = truncate(content, 80)
		})
		k.afterAction(cfg, sess, func(s *Stats) { s.TotalNudges++ })
	}
}

func (k *Keeper) recordSkip(cfg SupervisorConfig, sess jules.Session, decision Decision) {
	// Archived sessions and routine threshold skips would flood the feed;
	// only deliberate guards surface at skip severity.
	if cfg.IsArchived(sess.ID) {
		return
	}
	switch decision.Reason {
	case "within inactivity threshold", "actively working":
		slog.Debug("Session skipped", "session_id", sess.ID, "reason", decision.Reason, "idle", decision.Idle)
	default:
		k.journal.Append(KindSkip, fmt.Sprintf("Skipped %s: %s", shortID(sess.ID), decision.Reason), nil)
	}
}

// afterAction clears any remembered error, bumps stats and performs the
// once-per-tick navigation side effect.
func (k *Keeper) afterAction(cfg SupervisorConfig, sess jules.Session, bump func(*Stats)) {
	k.mu.Lock()
	bump(&k.stats)
	st := k.states[sess.ID]
	st.LastError = nil
	st.SnoozeUntil = time.Time{}
	k.states[sess.ID] = st
	k.mu.Unlock()

	if cfg.AutoSwitch && !k.navigatedThisTick && k.navigator != nil {
		k.navigator.NavigateTo(sess.ID)
		k.navigatedThisTick = true
	}
}

func (k *Keeper) recordFailure(sess jules.Session, op string, err error) {
	k.journal.Append(KindError, fmt.Sprintf("Failed to %s %s: %v", op, shortID(sess.ID), err), map[string]any{"sessionId": sess.ID})

	code := 0
	if apiErr, ok := err.(*jules.APIError); ok {
		code = apiErr.StatusCode
	}
	now := k.now()
	k.updateState(sess.ID, func(st *SessionState) {
		st.LastError = &SessionError{Code: code, Message: err.Error(), Time: now}
		st.SnoozeUntil = now.Add(errorSnooze)
	})
}

func (k *Keeper) updateState(sessionID string, fn func(*SessionState)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	st := k.states[sessionID]
	fn(&st)
	k.states[sessionID] = st
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
