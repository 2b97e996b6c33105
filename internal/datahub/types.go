package datahub

import "time"

// SyncStatus is a connector's lifecycle state.
type SyncStatus string

const (
	StatusConnected    SyncStatus = "connected"
	StatusDisconnected SyncStatus = "disconnected"
	StatusSyncing      SyncStatus = "syncing"
	StatusError        SyncStatus = "error"
)

// ConnectorState describes a single connector's last known condition.
type ConnectorState struct {
	Status   SyncStatus `json:"status"`
	LastSync *time.Time `json:"lastSync,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Holding is one asset position reported by a connector.
type Holding struct {
	Asset     string  `json:"asset"`
	Free      float64 `json:"free"`
	Locked    float64 `json:"locked"`
	Total     float64 `json:"total"`
	USDTValue float64 `json:"usdtValue,omitempty"`
}

// Metrics are per-connector aggregates computed at sync time.
type Metrics struct {
	TotalValueUSDT float64 `json:"totalValueUSDT"`
}

// State is the full data hub record: everything connectors have reported.
type State struct {
	Connectors map[string]ConnectorState `json:"connectors"`
	Holdings   map[string][]Holding      `json:"holdings"`
	Metrics    map[string]Metrics        `json:"metrics"`
}

func normalizeState(state State) State {
	if state.Connectors == nil {
		state.Connectors = map[string]ConnectorState{}
	}
	if state.Holdings == nil {
		state.Holdings = map[string][]Holding{}
	}
	if state.Metrics == nil {
		state.Metrics = map[string]Metrics{}
	}
	return state
}
