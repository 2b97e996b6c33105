package audit

import "time"

// Level classifies the severity of an audit entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Entry is one append-only ledger record. Once appended it is never mutated
// or removed individually; the only destructive operation is Clear.
type Entry struct {
	ID          string         `json:"id"`
	TS          time.Time      `json:"ts"`
	Level       Level          `json:"level"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Actor       string         `json:"actor"`
	ModuleID    string         `json:"moduleId,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}
