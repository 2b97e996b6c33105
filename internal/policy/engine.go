package policy

import "github.com/financeos/financeos/internal/actions"

// Reason strings returned with decisions. Callers surface these verbatim.
const (
	ReasonKillSwitch       = "Kill switch is active."
	ReasonLeverageDisabled = "Leverage is disabled by policy."
	ReasonReadOnly         = "Autonomy mode is read-only."
	ReasonApprovalRequired = "User approval required by autonomy mode."
)

// Evaluate reconciles the current policy with a concrete action request.
// It is a pure function: no storage, no I/O, total over every input. The
// rule order is the contract: the first matching rule wins.
func Evaluate(state State, request actions.Request) Decision {
	if state.KillSwitch {
		return Decision{Status: StatusDeny, Reason: ReasonKillSwitch}
	}

	if request.Trade != nil && request.Trade.Leverage && !state.AllowLeverage {
		return Decision{Status: StatusDeny, Reason: ReasonLeverageDisabled}
	}

	if state.AutonomyMode == AutonomyReadOnly {
		return Decision{Status: StatusDeny, Reason: ReasonReadOnly}
	}

	if state.AutonomyMode == AutonomyAuto {
		return Decision{Status: StatusOK}
	}

	if state.AutonomyMode == AutonomyConfirm || state.AutonomyMode == AutonomySuggest {
		return Decision{
			Status:               StatusOK,
			RequiresUserApproval: true,
			Reason:               ReasonApprovalRequired,
		}
	}

	// Unrecognized mode: fail closed enough to keep a human in the loop.
	return Decision{Status: StatusOK, RequiresUserApproval: true}
}
