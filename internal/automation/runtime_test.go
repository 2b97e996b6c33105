package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/dispatch"
	"github.com/financeos/financeos/internal/kvstore"
)

type fakeDispatcher struct {
	requests []actions.Request
	status   dispatch.Status
	err      error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, request actions.Request) (dispatch.Result, error) {
	d.requests = append(d.requests, request)
	if d.err != nil {
		return dispatch.Result{}, d.err
	}
	return dispatch.Result{Status: d.status}, nil
}

func notifyTemplate() ActionTemplate {
	return ActionTemplate{
		ModuleID: "core.notifications",
		Kind:     "notify",
		Summary:  "Daily summary",
		Notify:   &actions.NotifyIntent{Channel: actions.NotifyEmail, Message: "Daily summary ready"},
	}
}

func newTestRuntime(t *testing.T, dispatcher ActionDispatcher) (*Runtime, *time.Time, kvstore.Store) {
	t.Helper()
	store := kvstore.NewMemStore()
	runtime := NewRuntime(store, dispatcher)
	at := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	now := &at
	runtime.now = func() time.Time { return *now }
	return runtime, now, store
}

func TestRunDue_FiresAndReschedulesIntervalRules(t *testing.T) {
	dispatcher := &fakeDispatcher{status: dispatch.StatusExecuted}
	runtime, now, _ := newTestRuntime(t, dispatcher)

	every := time.Hour
	rule, err := runtime.AddRule("daily summary", Schedule{Kind: "every", Every: &every}, notifyTemplate())
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if rule.State.NextRunAt == nil {
		t.Fatalf("expected a computed next run")
	}

	if fired := runtime.RunDue(context.Background()); fired != 0 {
		t.Fatalf("expected no rule due yet, fired %d", fired)
	}

	*now = now.Add(61 * time.Minute)
	if fired := runtime.RunDue(context.Background()); fired != 1 {
		t.Fatalf("expected one rule to fire, fired %d", fired)
	}
	if len(dispatcher.requests) != 1 {
		t.Fatalf("expected one dispatched request, got %d", len(dispatcher.requests))
	}
	if dispatcher.requests[0].Notify == nil || dispatcher.requests[0].Notify.Message != "Daily summary ready" {
		t.Fatalf("expected template intent on request, got %+v", dispatcher.requests[0])
	}

	updated, ok := runtime.GetRule(rule.ID)
	if !ok {
		t.Fatalf("rule disappeared")
	}
	if updated.State.LastStatus != string(dispatch.StatusExecuted) {
		t.Fatalf("expected executed status, got %q", updated.State.LastStatus)
	}
	if updated.State.NextRunAt == nil || !updated.State.NextRunAt.After(*now) {
		t.Fatalf("expected the rule rescheduled after %v, got %v", *now, updated.State.NextRunAt)
	}
}

func TestRunDue_OneShotRuleIsRemoved(t *testing.T) {
	dispatcher := &fakeDispatcher{status: dispatch.StatusExecuted}
	runtime, now, _ := newTestRuntime(t, dispatcher)

	at := now.Add(10 * time.Minute)
	rule, err := runtime.AddRule("one shot", Schedule{Kind: "at", At: &at}, notifyTemplate())
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}

	*now = now.Add(11 * time.Minute)
	if fired := runtime.RunDue(context.Background()); fired != 1 {
		t.Fatalf("expected the one-shot to fire, fired %d", fired)
	}
	if _, ok := runtime.GetRule(rule.ID); ok {
		t.Fatalf("expected one-shot rule removed after firing")
	}
}

func TestRunDue_DisabledRuleNeverFires(t *testing.T) {
	dispatcher := &fakeDispatcher{status: dispatch.StatusExecuted}
	runtime, now, _ := newTestRuntime(t, dispatcher)

	every := time.Minute
	rule, err := runtime.AddRule("muted", Schedule{Kind: "every", Every: &every}, notifyTemplate())
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if _, err := runtime.EnableRule(rule.ID, false); err != nil {
		t.Fatalf("disable rule: %v", err)
	}

	*now = now.Add(time.Hour)
	if fired := runtime.RunDue(context.Background()); fired != 0 {
		t.Fatalf("expected no firing for disabled rule, fired %d", fired)
	}
}

func TestRunDue_DispatchErrorRecordedOnRule(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("ledger unavailable")}
	runtime, now, _ := newTestRuntime(t, dispatcher)

	every := time.Minute
	rule, err := runtime.AddRule("failing", Schedule{Kind: "every", Every: &every}, notifyTemplate())
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}

	*now = now.Add(2 * time.Minute)
	runtime.RunDue(context.Background())

	updated, _ := runtime.GetRule(rule.ID)
	if updated.State.LastStatus != "error" || updated.State.LastError == "" {
		t.Fatalf("expected error recorded on rule state, got %+v", updated.State)
	}
}

func TestRules_PersistAcrossRuntimes(t *testing.T) {
	dispatcher := &fakeDispatcher{status: dispatch.StatusExecuted}
	runtime, _, store := newTestRuntime(t, dispatcher)

	every := time.Hour
	rule, err := runtime.AddRule("durable", Schedule{Kind: "every", Every: &every}, notifyTemplate())
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}

	reloaded := NewRuntime(store, dispatcher)
	got, ok := reloaded.GetRule(rule.ID)
	if !ok {
		t.Fatalf("expected rule to survive a restart")
	}
	if got.Name != "durable" || got.Action.Summary != "Daily summary" {
		t.Fatalf("unexpected reloaded rule: %+v", got)
	}
}

func TestAddRule_CronScheduleComputesNextRun(t *testing.T) {
	runtime, _, _ := newTestRuntime(t, &fakeDispatcher{status: dispatch.StatusExecuted})

	rule, err := runtime.AddRule("hourly", Schedule{Kind: "cron", Expr: "0 * * * *"}, notifyTemplate())
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if rule.State.NextRunAt == nil {
		t.Fatalf("expected next run from cron expression")
	}
	if rule.State.NextRunAt.Minute() != 0 {
		t.Fatalf("expected next run on the hour, got %v", rule.State.NextRunAt)
	}
}
