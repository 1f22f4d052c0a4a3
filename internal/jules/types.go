package jules

import (
	"strings"
	"time"
)

// Status is the normalized session state. RawStatus keeps the wire string so
// the keeper can derive busy sub-signals the enum flattens away.
type Status string

const (
	StatusActive           Status = "active"
	StatusPaused           Status = "paused"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
	StatusAwaitingApproval Status = "awaiting_approval"
)

// Raw provider status strings observed on the wire.
const (
	RawInProgress           = "IN_PROGRESS"
	RawAwaitingPlanApproval = "AWAITING_PLAN_APPROVAL"
	RawAwaitingUserFeedback = "AWAITING_USER_FEEDBACK"
	RawPaused               = "PAUSED"
	RawCompleted            = "COMPLETED"
	RawFailed               = "FAILED"
)

type Session struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Status           Status     `json:"status"`
	RawStatus        string     `json:"rawStatus"`
	Source           string     `json:"source"`
	CreateTime       time.Time  `json:"createTime"`
	UpdateTime       time.Time  `json:"updateTime"`
	LastActivityTime *time.Time `json:"lastActivityTime,omitempty"`
}

// LastActivity returns the authoritative inactivity clock: lastActivityTime
// when present, updateTime otherwise.
func (s Session) LastActivity() time.Time {
	if s.LastActivityTime != nil && !s.LastActivityTime.IsZero() {
		return *s.LastActivityTime
	}
	return s.UpdateTime
}

// InProgress reports whether the raw status signals the agent is actively
// working, as opposed to merely being in the active state.
func (s Session) InProgress() bool {
	return strings.EqualFold(s.RawStatus, RawInProgress)
}

// AwaitingPlanApproval reports whether the raw status signals a pending plan
// even when the normalized status lags behind.
func (s Session) AwaitingPlanApproval() bool {
	return s.Status == StatusAwaitingApproval || strings.EqualFold(s.RawStatus, RawAwaitingPlanApproval)
}

type ActivityRole string

const (
	RoleUser   ActivityRole = "user"
	RoleAgent  ActivityRole = "agent"
	RoleSystem ActivityRole = "system"
)

type ActivityType string

const (
	ActivityMessage  ActivityType = "message"
	ActivityPlan     ActivityType = "plan"
	ActivityProgress ActivityType = "progress"
	ActivityError    ActivityType = "error"
)

// Activity is one event in a session timeline. Immutable once created.
type Activity struct {
	ID         string       `json:"id"`
	SessionID  string       `json:"sessionId"`
	Role       ActivityRole `json:"role"`
	Type       ActivityType `json:"type"`
	Content    string       `json:"content"`
	Diff       string       `json:"diff,omitempty"`
	CreateTime time.Time    `json:"createTime"`
}

type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Repo string `json:"repo"`
}

type CreateSessionRequest struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
	Source string `json:"source"`
}

type CreateActivityRequest struct {
	SessionID string       `json:"sessionId"`
	Content   string       `json:"content"`
	Type      ActivityType `json:"type"`
}

// NormalizeStatus maps a raw provider status string onto the Status enum.
func NormalizeStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case RawAwaitingPlanApproval:
		return StatusAwaitingApproval
	case RawPaused:
		return StatusPaused
	case RawCompleted:
		return StatusCompleted
	case RawFailed:
		return StatusFailed
	default:
		return StatusActive
	}
}
