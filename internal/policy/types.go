package policy

// AutonomyMode controls how much independent action automation may take,
// from none (readonly) to full (auto).
type AutonomyMode string

const (
	AutonomyReadOnly AutonomyMode = "readonly"
	AutonomySuggest  AutonomyMode = "suggest"
	AutonomyConfirm  AutonomyMode = "confirm"
	AutonomyAuto     AutonomyMode = "auto"
)

// State is the singleton risk/autonomy configuration. The percentage limits
// are advisory and carried for future rules; only autonomy mode, leverage
// and the kill switch currently gate decisions.
type State struct {
	AutonomyMode           AutonomyMode `json:"autonomyMode"`
	MaxDailyLossPct        float64      `json:"maxDailyLossPct"`
	MaxPositionSizePct     float64      `json:"maxPositionSizePct"`
	MaxCryptoAllocationPct float64      `json:"maxCryptoAllocationPct"`
	AllowLeverage          bool         `json:"allowLeverage"`
	KillSwitch             bool         `json:"killSwitch"`
}

// Defaults returns the policy state used before any explicit configuration.
func Defaults() State {
	return State{
		AutonomyMode:           AutonomySuggest,
		MaxDailyLossPct:        5,
		MaxPositionSizePct:     10,
		MaxCryptoAllocationPct: 30,
		AllowLeverage:          false,
		KillSwitch:             false,
	}
}

// Status is the outcome class of a policy decision.
type Status string

const (
	StatusOK   Status = "ok"
	StatusDeny Status = "deny"
)

// Decision is the deterministic output of Evaluate. It is returned to the
// caller and never persisted directly.
type Decision struct {
	Status               Status `json:"status"`
	RequiresUserApproval bool   `json:"requiresUserApproval"`
	Reason               string `json:"reason,omitempty"`
}
