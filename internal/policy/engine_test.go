package policy

import (
	"testing"

	"github.com/financeos/financeos/internal/actions"
)

func leveragedTrade() actions.Request {
	return actions.NewRequest("risk.leverage", "trade", "Open 2x BTC long").
		WithTrade(actions.TradeIntent{Symbol: "BTCUSDT", Side: actions.SideBuy, Amount: 100, Leverage: true})
}

func TestEvaluate_KillSwitchDeniesEverything(t *testing.T) {
	modes := []AutonomyMode{AutonomyReadOnly, AutonomySuggest, AutonomyConfirm, AutonomyAuto}
	for _, mode := range modes {
		state := Defaults()
		state.AutonomyMode = mode
		state.KillSwitch = true
		state.AllowLeverage = true

		d := Evaluate(state, leveragedTrade())
		if d.Status != StatusDeny {
			t.Fatalf("mode %s: expected deny, got %s", mode, d.Status)
		}
		if d.Reason != ReasonKillSwitch {
			t.Fatalf("mode %s: expected reason %q, got %q", mode, ReasonKillSwitch, d.Reason)
		}
	}
}

func TestEvaluate_LeverageDeniedWhenDisabledByPolicy(t *testing.T) {
	state := Defaults()
	state.AutonomyMode = AutonomyAuto

	d := Evaluate(state, leveragedTrade())
	if d.Status != StatusDeny {
		t.Fatalf("expected deny, got %s", d.Status)
	}
	if d.Reason != ReasonLeverageDisabled {
		t.Fatalf("expected reason %q, got %q", ReasonLeverageDisabled, d.Reason)
	}
}

func TestEvaluate_LeverageAllowedWhenPolicyAllowsIt(t *testing.T) {
	state := Defaults()
	state.AutonomyMode = AutonomyAuto
	state.AllowLeverage = true

	d := Evaluate(state, leveragedTrade())
	if d.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", d.Status, d.Reason)
	}
}

func TestEvaluate_ReadOnlyDenies(t *testing.T) {
	state := Defaults()
	state.AutonomyMode = AutonomyReadOnly

	d := Evaluate(state, actions.NewRequest("core.dashboard", "notify", "Send summary"))
	if d.Status != StatusDeny {
		t.Fatalf("expected deny, got %s", d.Status)
	}
	if d.Reason != ReasonReadOnly {
		t.Fatalf("expected reason %q, got %q", ReasonReadOnly, d.Reason)
	}
}

func TestEvaluate_AutoExecutesWithoutApproval(t *testing.T) {
	state := Defaults()
	state.AutonomyMode = AutonomyAuto

	d := Evaluate(state, actions.NewRequest("market.dca", "trade", "DCA buy"))
	if d.Status != StatusOK {
		t.Fatalf("expected ok, got %s", d.Status)
	}
	if d.RequiresUserApproval {
		t.Fatal("expected no approval requirement in auto mode")
	}
}

func TestEvaluate_ConfirmAndSuggestRequireApproval(t *testing.T) {
	for _, mode := range []AutonomyMode{AutonomyConfirm, AutonomySuggest} {
		state := Defaults()
		state.AutonomyMode = mode

		d := Evaluate(state, actions.NewRequest("market.dca", "trade", "DCA buy"))
		if d.Status != StatusOK {
			t.Fatalf("mode %s: expected ok, got %s", mode, d.Status)
		}
		if !d.RequiresUserApproval {
			t.Fatalf("mode %s: expected approval requirement", mode)
		}
		if d.Reason != ReasonApprovalRequired {
			t.Fatalf("mode %s: expected reason %q, got %q", mode, ReasonApprovalRequired, d.Reason)
		}
	}
}

func TestEvaluate_KillSwitchWinsOverLeverageRule(t *testing.T) {
	state := Defaults()
	state.KillSwitch = true
	// Leverage rule would also fire; the kill switch reason must win.
	d := Evaluate(state, leveragedTrade())
	if d.Reason != ReasonKillSwitch {
		t.Fatalf("expected kill switch to shadow leverage rule, got %q", d.Reason)
	}
}

func TestEvaluate_UnrecognizedModeFallsBackToApproval(t *testing.T) {
	state := Defaults()
	state.AutonomyMode = "turbo"

	d := Evaluate(state, actions.NewRequest("market.dca", "trade", "DCA buy"))
	if d.Status != StatusOK || !d.RequiresUserApproval {
		t.Fatalf("expected ok with approval, got %+v", d)
	}
	if d.Reason != "" {
		t.Fatalf("expected no reason for fallback, got %q", d.Reason)
	}
}

func TestEvaluate_TotalOverBarePayloads(t *testing.T) {
	state := Defaults()

	// Neither trade nor notify populated.
	bare := actions.NewRequest("core.settings", "maintenance", "Rotate keys")
	if d := Evaluate(state, bare); d.Status != StatusOK {
		t.Fatalf("expected bare request to evaluate, got %+v", d)
	}

	// Both populated.
	both := bare.
		WithTrade(actions.TradeIntent{Symbol: "ETHUSDT", Side: actions.SideSell, Amount: 1}).
		WithNotify(actions.NotifyIntent{Channel: actions.NotifyEmail, Message: "done"})
	if d := Evaluate(state, both); d.Status != StatusOK {
		t.Fatalf("expected double-payload request to evaluate, got %+v", d)
	}
}
