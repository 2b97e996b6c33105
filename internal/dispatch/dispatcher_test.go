package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/kvstore"
	"github.com/financeos/financeos/internal/modules"
	"github.com/financeos/financeos/internal/policy"
)

type fixedPolicy struct {
	state policy.State
}

func (f fixedPolicy) Load() policy.State { return f.state }

type harness struct {
	dispatcher  *Dispatcher
	ledger      *audit.Ledger
	bus         *bus.Bus
	completions []Completion
	requested   []actions.Request
}

func newHarness(t *testing.T, state policy.State) *harness {
	t.Helper()

	eventBus := bus.New()
	ledger := audit.NewLedger(kvstore.NewMemStore(), eventBus)

	h := &harness{
		dispatcher: NewDispatcher(fixedPolicy{state: state}, ledger, eventBus),
		ledger:     ledger,
		bus:        eventBus,
	}
	eventBus.Subscribe(bus.EventActionCompleted, func(payload any) {
		h.completions = append(h.completions, payload.(Completion))
	})
	eventBus.Subscribe(bus.EventActionRequested, func(payload any) {
		h.requested = append(h.requested, payload.(actions.Request))
	})
	return h
}

func autoPolicy() policy.State {
	state := policy.Defaults()
	state.AutonomyMode = policy.AutonomyAuto
	return state
}

func TestDispatch_AutoModeExecutes(t *testing.T) {
	h := newHarness(t, autoPolicy())
	request := actions.NewRequest("market.dca", "trade", "DCA buy 50 USDT of BTC").
		WithTrade(actions.TradeIntent{Symbol: "BTCUSDT", Side: actions.SideBuy, Amount: 50})

	result, err := h.dispatcher.Dispatch(context.Background(), request)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusExecuted {
		t.Fatalf("expected executed, got %s", result.Status)
	}

	entries := h.ledger.List()
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != audit.LevelInfo || entry.Title != "Action executed" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.Actor != "Automation Runtime" {
		t.Fatalf("expected actor %q, got %q", "Automation Runtime", entry.Actor)
	}
	if entry.Description != "Execution simulated successfully." {
		t.Fatalf("unexpected description: %q", entry.Description)
	}
	if entry.Data["actionId"] != request.ID {
		t.Fatalf("expected audit data to reference the request, got %v", entry.Data)
	}
}

func TestDispatch_KillSwitchDenies(t *testing.T) {
	state := autoPolicy()
	state.KillSwitch = true
	h := newHarness(t, state)

	result, err := h.dispatcher.Dispatch(context.Background(), actions.NewRequest("market.dca", "trade", "DCA buy"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusDenied {
		t.Fatalf("expected denied, got %s", result.Status)
	}
	if result.Reason != policy.ReasonKillSwitch {
		t.Fatalf("expected reason %q, got %q", policy.ReasonKillSwitch, result.Reason)
	}

	entries := h.ledger.List()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Level != audit.LevelWarning || entries[0].Title != "Action denied" {
		t.Fatalf("unexpected audit entry: %+v", entries[0])
	}
	if entries[0].Actor != "Policy Engine" {
		t.Fatalf("expected actor %q, got %q", "Policy Engine", entries[0].Actor)
	}
}

func TestDispatch_ConfirmModeNeedsApproval(t *testing.T) {
	state := policy.Defaults()
	state.AutonomyMode = policy.AutonomyConfirm
	h := newHarness(t, state)

	result, err := h.dispatcher.Dispatch(context.Background(), actions.NewRequest("market.dca", "trade", "DCA buy"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusNeedsApproval {
		t.Fatalf("expected needs_approval, got %s", result.Status)
	}
	if result.Reason != policy.ReasonApprovalRequired {
		t.Fatalf("expected reason %q, got %q", policy.ReasonApprovalRequired, result.Reason)
	}

	entries := h.ledger.List()
	if len(entries) != 1 || entries[0].Title != "Action awaiting approval" {
		t.Fatalf("unexpected ledger state: %+v", entries)
	}
}

func TestDispatch_PublishesRequestedAndOneCompletion(t *testing.T) {
	h := newHarness(t, autoPolicy())
	request := actions.NewRequest("market.dca", "trade", "DCA buy")

	result, err := h.dispatcher.Dispatch(context.Background(), request)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if len(h.requested) != 1 || h.requested[0].ID != request.ID {
		t.Fatalf("expected one action.requested with the raw request, got %+v", h.requested)
	}
	if len(h.completions) != 1 {
		t.Fatalf("expected exactly one action.completed, got %d", len(h.completions))
	}
	if h.completions[0].Status != result.Status {
		t.Fatalf("completion status %s does not match result %s", h.completions[0].Status, result.Status)
	}
}

func TestDispatch_SameRequestTwiceAuditsTwice(t *testing.T) {
	h := newHarness(t, autoPolicy())
	request := actions.NewRequest("market.dca", "trade", "DCA buy")

	if _, err := h.dispatcher.Dispatch(context.Background(), request); err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}
	if _, err := h.dispatcher.Dispatch(context.Background(), request); err != nil {
		t.Fatalf("second dispatch failed: %v", err)
	}

	if entries := h.ledger.List(); len(entries) != 2 {
		t.Fatalf("expected 2 independent audit entries, got %d", len(entries))
	}
}

type brokenStore struct {
	kvstore.Store
}

func (brokenStore) Set(string, []byte) error { return errors.New("disk full") }

func TestDispatch_AuditFailureFailsTheDispatch(t *testing.T) {
	eventBus := bus.New()
	ledger := audit.NewLedger(brokenStore{Store: kvstore.NewMemStore()}, eventBus)
	dispatcher := NewDispatcher(fixedPolicy{state: autoPolicy()}, ledger, eventBus)

	if _, err := dispatcher.Dispatch(context.Background(), actions.NewRequest("market.dca", "trade", "DCA buy")); err == nil {
		t.Fatal("expected dispatch to fail when the audit append fails")
	}
}

func TestDispatch_PanickingSubscriberDoesNotBreakDispatch(t *testing.T) {
	h := newHarness(t, autoPolicy())
	h.bus.Subscribe(bus.EventActionRequested, func(any) { panic("widget crashed") })

	result, err := h.dispatcher.Dispatch(context.Background(), actions.NewRequest("market.dca", "trade", "DCA buy"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusExecuted {
		t.Fatalf("expected executed, got %s", result.Status)
	}
	if len(h.ledger.List()) != 1 {
		t.Fatal("expected audit append to happen despite subscriber panic")
	}
}

func gatedHarness(t *testing.T, state policy.State) (*harness, *modules.Registry) {
	t.Helper()

	h := newHarness(t, state)
	registry := modules.NewRegistry(kvstore.NewMemStore())
	if err := registry.EnsureCore(modules.Catalog()); err != nil {
		t.Fatalf("ensure core failed: %v", err)
	}
	h.dispatcher.SetPermissionGate(registry)
	return h, registry
}

func TestDispatch_GateDeniesUninstalledModule(t *testing.T) {
	h, _ := gatedHarness(t, autoPolicy())

	result, err := h.dispatcher.Dispatch(context.Background(), actions.NewRequest("market.dca", "trade", "DCA buy"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusDenied {
		t.Fatalf("expected denied, got %s", result.Status)
	}

	entries := h.ledger.List()
	if len(entries) != 1 || entries[0].Actor != "Permission Gate" {
		t.Fatalf("expected permission gate audit entry, got %+v", entries)
	}
}

func TestDispatch_GateDeniesRevokedPermission(t *testing.T) {
	h, registry := gatedHarness(t, autoPolicy())

	// Installed with suggest only; a trade action implies the trade permission.
	if err := registry.Install("market.dca", []modules.Permission{modules.PermissionRead, modules.PermissionSuggest}); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	result, err := h.dispatcher.Dispatch(context.Background(), actions.NewRequest("market.dca", "trade", "DCA buy"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusDenied {
		t.Fatalf("expected denied, got %s", result.Status)
	}
}

func TestDispatch_GatePassesGrantedModuleThroughPolicy(t *testing.T) {
	h, registry := gatedHarness(t, autoPolicy())

	if err := registry.Install("risk.leverage", []modules.Permission{modules.PermissionRead, modules.PermissionTrade}); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	result, err := h.dispatcher.Dispatch(context.Background(), actions.NewRequest("risk.leverage", "trade", "Rebalance margin"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusExecuted {
		t.Fatalf("expected executed, got %s (%s)", result.Status, result.Reason)
	}
}

func TestDispatch_GatePassesCoreModules(t *testing.T) {
	h, _ := gatedHarness(t, autoPolicy())

	result, err := h.dispatcher.Dispatch(context.Background(), actions.NewRequest("core.automations", "notify", "Daily summary").
		WithNotify(actions.NotifyIntent{Channel: actions.NotifyEmail, Message: "Portfolio is flat."}))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != StatusExecuted {
		t.Fatalf("expected executed for core module, got %s (%s)", result.Status, result.Reason)
	}
}

func TestPermissionForKind_Mapping(t *testing.T) {
	cases := map[string]modules.Permission{
		"trade":      modules.PermissionTrade,
		"move_funds": modules.PermissionMoveFunds,
		"notify":     modules.PermissionSuggest,
		"rebalance":  modules.PermissionRead,
	}
	for kind, want := range cases {
		if got := PermissionForKind(kind); got != want {
			t.Fatalf("kind %s: expected %s, got %s", kind, want, got)
		}
	}
}
