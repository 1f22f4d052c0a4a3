package keeper

import (
	"math/rand"
	"time"

	"github.com/robertpelloni/jules-app/internal/config"
)

// SupervisorConfig is the persisted, user-editable keeper configuration.
// Loading an older persisted blob must always be mergeable with defaults so
// newly introduced fields get sane values; ApplyDefaults is that merge.
type SupervisorConfig struct {
	Enabled                    bool                `json:"isEnabled"`
	AutoSwitch                 bool                `json:"autoSwitch"`
	AutoResume                 bool                `json:"autoResume"`
	CheckIntervalSeconds       int                 `json:"checkIntervalSeconds"`
	CheckSchedule              string              `json:"checkSchedule,omitempty"`
	InactivityThresholdMinutes float64             `json:"inactivityThresholdMinutes"`
	ActiveWorkThresholdMinutes float64             `json:"activeWorkThresholdMinutes"`
	Messages                   []string            `json:"messages"`
	CustomMessages             map[string][]string `json:"customMessages"`
	ArchivedSessions           []string            `json:"archivedSessions"`
	Smart                      SmartSupervisor     `json:"smartSupervisor"`
}

// SmartSupervisor configures LLM-backed nudge generation.
type SmartSupervisor struct {
	Enabled             bool   `json:"enabled"`
	Provider            string `json:"provider"`
	APIKey              string `json:"apiKey"`
	Model               string `json:"model"`
	ContextMessageCount int    `json:"contextMessageCount"`
}

// DefaultSupervisorConfig returns the hardcoded default configuration.
func DefaultSupervisorConfig() SupervisorConfig {
	cfg := SupervisorConfig{
		AutoSwitch:                 true,
		CheckIntervalSeconds:       config.DefaultKeeperCheckIntervalSeconds,
		InactivityThresholdMinutes: config.DefaultInactivityThresholdMinutes,
		ActiveWorkThresholdMinutes: config.DefaultActiveWorkThresholdMinutes,
		Messages:                   append([]string(nil), config.DefaultKeeperMessages...),
		CustomMessages:             map[string][]string{},
		Smart: SmartSupervisor{
			Provider:            config.DefaultSmartProvider,
			ContextMessageCount: config.DefaultSmartContextMessageCount,
		},
	}
	return cfg
}

// FromConfig builds a SupervisorConfig from the bootstrap configuration.
// Used to seed the durable store on first run.
func FromConfig(c config.KeeperConfig) SupervisorConfig {
	cfg := SupervisorConfig{
		Enabled:                    c.Enabled,
		AutoSwitch:                 c.AutoSwitch,
		AutoResume:                 c.AutoResume,
		CheckIntervalSeconds:       c.CheckIntervalSeconds,
		CheckSchedule:              c.CheckSchedule,
		InactivityThresholdMinutes: c.InactivityThresholdMinutes,
		ActiveWorkThresholdMinutes: c.ActiveWorkThresholdMinutes,
		Messages:                   append([]string(nil), c.Messages...),
		CustomMessages:             c.CustomMessages,
		ArchivedSessions:           append([]string(nil), c.ArchivedSessions...),
		Smart: SmartSupervisor{
			Enabled:             c.Smart.Enabled,
			Provider:            c.Smart.Provider,
			APIKey:              c.Smart.APIKey,
			Model:               c.Smart.Model,
			ContextMessageCount: c.Smart.ContextMessageCount,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults, field by field.
// Every field the classifier and scheduler read is defined afterwards.
func (c *SupervisorConfig) ApplyDefaults() {
	def := DefaultSupervisorConfig()
	if c.CheckIntervalSeconds < config.MinKeeperCheckIntervalSeconds {
		if c.CheckIntervalSeconds <= 0 {
			c.CheckIntervalSeconds = def.CheckIntervalSeconds
		} else {
			c.CheckIntervalSeconds = config.MinKeeperCheckIntervalSeconds
		}
	}
	if c.InactivityThresholdMinutes <= 0 {
		c.InactivityThresholdMinutes = def.InactivityThresholdMinutes
	}
	if c.ActiveWorkThresholdMinutes <= 0 {
		c.ActiveWorkThresholdMinutes = def.ActiveWorkThresholdMinutes
	}
	if len(c.Messages) == 0 {
		c.Messages = append([]string(nil), def.Messages...)
	}
	if c.CustomMessages == nil {
		c.CustomMessages = map[string][]string{}
	}
	if c.Smart.Provider == "" {
		c.Smart.Provider = def.Smart.Provider
	}
	if c.Smart.ContextMessageCount <= 0 {
		c.Smart.ContextMessageCount = def.Smart.ContextMessageCount
	}
}

// IsArchived reports whether the user excluded a session from supervision.
func (c *SupervisorConfig) IsArchived(sessionID string) bool {
	for _, id := range c.ArchivedSessions {
		if id == sessionID {
			return true
		}
	}
	return false
}

// MessagePool returns the nudge message pool for a session: the per-session
// custom pool when non-empty, else the global pool.
func (c *SupervisorConfig) MessagePool(sessionID string) []string {
	if pool, ok := c.CustomMessages[sessionID]; ok && len(pool) > 0 {
		return pool
	}
	return c.Messages
}

// PickMessage returns a uniformly random message from the session's pool, or
// false when both pools are empty.
func (c *SupervisorConfig) PickMessage(sessionID string) (string, bool) {
	pool := c.MessagePool(sessionID)
	if len(pool) == 0 {
		return "", false
	}
	return pool[rand.Intn(len(pool))], true
}

// SessionError is the last remote failure observed for a session.
type SessionError struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// SessionState is ephemeral per-session runtime state. It keeps the keeper
// from re-erroring or re-evaluating the same session every tick.
type SessionState struct {
	LastError           *SessionError `json:"lastError,omitempty"`
	SnoozeUntil         time.Time     `json:"snoozeUntil,omitempty"`
	LastActivitySnippet string        `json:"lastActivitySnippet,omitempty"`
}

// Snoozed reports whether the session should be ignored at the given time.
func (s SessionState) Snoozed(now time.Time) bool {
	return !s.SnoozeUntil.IsZero() && now.Before(s.SnoozeUntil)
}

// Stats counts keeper actions across the process lifetime.
type Stats struct {
	TotalNudges    int `json:"totalNudges"`
	TotalApprovals int `json:"totalApprovals"`
	TotalResumes   int `json:"totalResumes"`
	TotalDebates   int `json:"totalDebates"`
}

// DebateMode distinguishes full debates from single-round conferences.
type DebateMode string

const (
	ModeDebate     DebateMode = "debate"
	ModeConference DebateMode = "conference"
)

// Opinion is one participant's contribution to a debate result. Err is set
// in place of Content when the participant's turn failed.
type Opinion struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Role     string `json:"role,omitempty"`
	Content  string `json:"content"`
	Err      string `json:"error,omitempty"`
}

// DebateResult is an immutable record of one debate invocation.
type DebateResult struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"sessionId"`
	Time             time.Time  `json:"timestamp"`
	Mode             DebateMode `json:"mode"`
	Opinions         []Opinion  `json:"opinions"`
	FinalInstruction string     `json:"finalInstruction"`
}
