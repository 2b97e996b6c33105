package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/financeos/financeos/internal/kvstore"
)

const logKey = "financeos.ceoAiReports.v1"

// Log is the persisted report history.
type Log struct {
	store kvstore.Store
}

// NewLog creates a report log backed by store.
func NewLog(store kvstore.Store) *Log {
	return &Log{store: store}
}

// Append persists a new report.
func (l *Log) Append(r Report) error {
	reports := l.load()
	reports = append(reports, r)

	data, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}
	if err := l.store.Set(logKey, data); err != nil {
		return fmt.Errorf("persist reports: %w", err)
	}
	return nil
}

// List returns all reports, newest first.
func (l *Log) List() []Report {
	reports := l.load()
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].TS.After(reports[j].TS)
	})
	return reports
}

// Latest returns the most recent report.
func (l *Log) Latest() (Report, bool) {
	reports := l.List()
	if len(reports) == 0 {
		return Report{}, false
	}
	return reports[0], true
}

// Get returns the report with the given id.
func (l *Log) Get(id string) (Report, bool) {
	for _, r := range l.load() {
		if r.ID == id {
			return r, true
		}
	}
	return Report{}, false
}

// Clear removes the whole history.
func (l *Log) Clear() error {
	return l.store.Delete(logKey)
}

func (l *Log) load() []Report {
	data, found, err := l.store.Get(logKey)
	if err != nil || !found {
		if err != nil {
			slog.Warn("failed to read report log", "error", err)
		}
		return nil
	}
	var reports []Report
	if err := json.Unmarshal(data, &reports); err != nil {
		slog.Warn("discarding corrupt report log", "error", err)
		return nil
	}
	return reports
}
