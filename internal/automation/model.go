package automation

import (
	"time"

	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/actions"
)

// Schedule defines when a rule fires.
type Schedule struct {
	Kind  string         `json:"kind"`            // "at" | "every" | "cron"
	At    *time.Time     `json:"at,omitempty"`    // one-shot timestamp
	Every *time.Duration `json:"every,omitempty"` // interval
	Expr  string         `json:"expr,omitempty"`  // cron expression (5-field)
}

// ActionTemplate defines the request a rule submits when it fires.
type ActionTemplate struct {
	ModuleID string                `json:"moduleId"`
	Kind     string                `json:"kind"`
	Summary  string                `json:"summary"`
	Trade    *actions.TradeIntent  `json:"trade,omitempty"`
	Notify   *actions.NotifyIntent `json:"notify,omitempty"`
}

// Request materializes the template into a fresh action request.
func (t ActionTemplate) Request() actions.Request {
	request := actions.NewRequest(t.ModuleID, t.Kind, t.Summary)
	if t.Trade != nil {
		request = request.WithTrade(*t.Trade)
	}
	if t.Notify != nil {
		request = request.WithNotify(*t.Notify)
	}
	return request
}

// RuleState holds runtime state for a rule.
type RuleState struct {
	NextRunAt  *time.Time `json:"nextRunAt,omitempty"`
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	LastStatus string     `json:"lastStatus,omitempty"` // dispatch outcome or "error"
	LastError  string     `json:"lastError,omitempty"`
}

// Rule is a scheduled action submission.
type Rule struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Enabled        bool           `json:"enabled"`
	Schedule       Schedule       `json:"schedule"`
	Action         ActionTemplate `json:"action"`
	State          RuleState      `json:"state"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeleteAfterRun bool           `json:"deleteAfterRun,omitempty"`
}

// NewRule creates a rule with a generated ID and timestamps.
func NewRule(name string, schedule Schedule, action ActionTemplate) *Rule {
	now := time.Now().UTC()
	return &Rule{
		ID:        uuid.NewString()[:8],
		Name:      name,
		Enabled:   true,
		Schedule:  schedule,
		Action:    action,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ScheduleDescription returns a human-readable schedule summary.
func (r *Rule) ScheduleDescription() string {
	switch r.Schedule.Kind {
	case "at":
		if r.Schedule.At != nil {
			return "at " + r.Schedule.At.Format(time.RFC3339)
		}
		return "at (unset)"
	case "every":
		if r.Schedule.Every != nil {
			return "every " + r.Schedule.Every.String()
		}
		return "every (unset)"
	case "cron":
		return "cron: " + r.Schedule.Expr
	default:
		return "unknown"
	}
}
