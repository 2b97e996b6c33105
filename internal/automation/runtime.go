package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/dispatch"
	"github.com/financeos/financeos/internal/kvstore"
)

const rulesKey = "financeos.automationRules.v1"

// ActionDispatcher submits an action through the governance pipeline.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, request actions.Request) (dispatch.Result, error)
}

// Runtime manages scheduled rules with a ticker-based polling loop. Every
// firing goes through the dispatcher like a hand-submitted action.
type Runtime struct {
	store      kvstore.Store
	dispatcher ActionDispatcher
	now        func() time.Time

	mu       sync.Mutex
	rules    map[string]*Rule
	loaded   bool
	stopChan chan struct{}
	stopped  chan struct{}
	running  bool
}

// NewRuntime creates an automation runtime.
func NewRuntime(store kvstore.Store, dispatcher ActionDispatcher) *Runtime {
	return &Runtime{
		store:      store,
		dispatcher: dispatcher,
		now:        time.Now,
		rules:      make(map[string]*Rule),
	}
}

// Start loads rules and begins the polling loop.
func (r *Runtime) Start(tick time.Duration) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.ensureLoadedLocked()
	for _, rule := range r.rules {
		if rule.Enabled && rule.State.NextRunAt == nil {
			r.computeNextRun(rule)
		}
	}
	if err := r.saveLocked(); err != nil {
		slog.Warn("automation: failed to save after init", "error", err)
	}
	r.stopChan = make(chan struct{})
	r.stopped = make(chan struct{})
	r.running = true
	count := len(r.rules)
	r.mu.Unlock()

	go r.loop(tick)

	slog.Info("automation runtime started", "rules", count)
	return nil
}

// Stop gracefully shuts down the polling loop.
func (r *Runtime) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopChan)
	r.mu.Unlock()

	<-r.stopped
	slog.Info("automation runtime stopped")
}

func (r *Runtime) loop(tick time.Duration) {
	defer close(r.stopped)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.RunDue(context.Background())
		}
	}
}

// RunDue fires every enabled rule whose next run has elapsed and returns
// how many fired.
func (r *Runtime) RunDue(ctx context.Context) int {
	r.mu.Lock()
	r.ensureLoadedLocked()
	now := r.now().UTC()

	var due []*Rule
	for _, rule := range r.rules {
		if !rule.Enabled || rule.State.NextRunAt == nil {
			continue
		}
		if !rule.State.NextRunAt.After(now) {
			// Clear to prevent re-firing while the rule executes.
			rule.State.NextRunAt = nil
			due = append(due, rule)
		}
	}
	r.mu.Unlock()

	for _, rule := range due {
		r.execute(ctx, rule)
	}
	return len(due)
}

func (r *Runtime) execute(ctx context.Context, rule *Rule) {
	slog.Info("automation: firing rule", "id", rule.ID, "name", rule.Name)

	result, err := r.dispatcher.Dispatch(ctx, rule.Action.Request())

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	rule.State.LastRunAt = &now
	if err != nil {
		rule.State.LastStatus = "error"
		rule.State.LastError = err.Error()
		slog.Error("automation: rule dispatch failed", "id", rule.ID, "error", err)
	} else {
		rule.State.LastStatus = string(result.Status)
		rule.State.LastError = ""
	}
	rule.UpdatedAt = now

	if rule.Schedule.Kind == "at" {
		if rule.DeleteAfterRun {
			delete(r.rules, rule.ID)
		} else {
			rule.Enabled = false
		}
	} else {
		r.computeNextRun(rule)
	}

	if err := r.saveLocked(); err != nil {
		slog.Warn("automation: failed to save after execution", "error", err)
	}
}

func (r *Runtime) computeNextRun(rule *Rule) {
	now := r.now().UTC()

	switch rule.Schedule.Kind {
	case "at":
		if rule.Schedule.At != nil {
			at := *rule.Schedule.At
			rule.State.NextRunAt = &at
		}
	case "every":
		if rule.Schedule.Every != nil {
			next := now.Add(*rule.Schedule.Every)
			rule.State.NextRunAt = &next
		}
	case "cron":
		if rule.Schedule.Expr != "" {
			next, err := gronx.NextTickAfter(rule.Schedule.Expr, now, false)
			if err != nil {
				slog.Warn("automation: failed to compute next run", "id", rule.ID, "expr", rule.Schedule.Expr, "error", err)
				return
			}
			rule.State.NextRunAt = &next
		}
	}
}

// AddRule creates and persists a new rule.
func (r *Runtime) AddRule(name string, schedule Schedule, action ActionTemplate) (*Rule, error) {
	rule := NewRule(name, schedule, action)
	if schedule.Kind == "at" {
		rule.DeleteAfterRun = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	r.computeNextRun(rule)
	r.rules[rule.ID] = rule

	if err := r.saveLocked(); err != nil {
		return nil, fmt.Errorf("save rule: %w", err)
	}
	slog.Info("automation: rule added", "id", rule.ID, "name", name, "schedule", rule.ScheduleDescription())
	return rule, nil
}

// RemoveRule deletes a rule by ID.
func (r *Runtime) RemoveRule(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	if _, ok := r.rules[id]; !ok {
		return fmt.Errorf("rule not found: %s", id)
	}
	delete(r.rules, id)
	if err := r.saveLocked(); err != nil {
		return fmt.Errorf("save after remove: %w", err)
	}
	return nil
}

// EnableRule sets a rule's enabled state.
func (r *Runtime) EnableRule(id string, enabled bool) (*Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule not found: %s", id)
	}
	rule.Enabled = enabled
	rule.UpdatedAt = r.now().UTC()
	if enabled && rule.State.NextRunAt == nil {
		r.computeNextRun(rule)
	}
	if !enabled {
		rule.State.NextRunAt = nil
	}

	if err := r.saveLocked(); err != nil {
		return nil, fmt.Errorf("save after enable: %w", err)
	}
	return rule, nil
}

// ListRules returns all rules, optionally including disabled ones.
func (r *Runtime) ListRules(includeDisabled bool) []*Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	var result []*Rule
	for _, rule := range r.rules {
		if includeDisabled || rule.Enabled {
			result = append(result, rule)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// GetRule retrieves a single rule by ID.
func (r *Runtime) GetRule(id string) (*Rule, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	rule, ok := r.rules[id]
	return rule, ok
}

func (r *Runtime) ensureLoadedLocked() {
	if r.loaded {
		return
	}
	r.loaded = true

	data, found, err := r.store.Get(rulesKey)
	if err != nil || !found {
		if err != nil {
			slog.Warn("failed to read automation rules", "error", err)
		}
		return
	}
	var rules []*Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		slog.Warn("discarding corrupt automation rules", "error", err)
		return
	}
	for _, rule := range rules {
		r.rules[rule.ID] = rule
	}
}

func (r *Runtime) saveLocked() error {
	rules := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].CreatedAt.Before(rules[j].CreatedAt) })

	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	if err := r.store.Set(rulesKey, data); err != nil {
		return fmt.Errorf("persist rules: %w", err)
	}
	return nil
}
