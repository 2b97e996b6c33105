package datahub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/kvstore"
)

const hubKey = "financeos.datahub.v1"

// Hub stores what connectors report: per-connector state, holdings and
// metrics. Every save announces the new state on the bus so dashboards can
// refresh; corrupt records read as an empty hub.
type Hub struct {
	store kvstore.Store
	bus   *bus.Bus
}

// NewHub creates a hub over the given store.
func NewHub(store kvstore.Store, eventBus *bus.Bus) *Hub {
	return &Hub{store: store, bus: eventBus}
}

// State returns the current hub state.
func (h *Hub) State() State {
	return h.load()
}

// ConnectorState returns the last known state for a connector.
func (h *Hub) ConnectorState(connectorID string) (ConnectorState, bool) {
	state, ok := h.load().Connectors[connectorID]
	return state, ok
}

// Holdings returns the holdings a connector last reported.
func (h *Hub) Holdings(connectorID string) []Holding {
	return h.load().Holdings[connectorID]
}

// ConnectorMetrics returns the metrics a connector last reported.
func (h *Hub) ConnectorMetrics(connectorID string) (Metrics, bool) {
	metrics, ok := h.load().Metrics[connectorID]
	return metrics, ok
}

// SetConnectorStatus updates a connector's lifecycle state.
func (h *Hub) SetConnectorStatus(connectorID string, status SyncStatus, syncedAt *time.Time, errMsg string) error {
	state := h.load()
	state.Connectors[connectorID] = ConnectorState{
		Status:   status,
		LastSync: syncedAt,
		Error:    errMsg,
	}
	return h.save(state)
}

// SetHoldings replaces a connector's reported holdings.
func (h *Hub) SetHoldings(connectorID string, holdings []Holding) error {
	state := h.load()
	state.Holdings[connectorID] = holdings
	return h.save(state)
}

// SetMetrics replaces a connector's metrics.
func (h *Hub) SetMetrics(connectorID string, metrics Metrics) error {
	state := h.load()
	state.Metrics[connectorID] = metrics
	return h.save(state)
}

// ClearConnector drops a connector's holdings and metrics, keeping its
// state record so the UI can still show it as disconnected.
func (h *Hub) ClearConnector(connectorID string) error {
	state := h.load()
	delete(state.Holdings, connectorID)
	delete(state.Metrics, connectorID)
	return h.save(state)
}

func (h *Hub) load() State {
	data, ok, err := h.store.Get(hubKey)
	if err != nil || !ok {
		return normalizeState(State{})
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return normalizeState(State{})
	}
	return normalizeState(state)
}

func (h *Hub) save(state State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal data hub: %w", err)
	}
	if err := h.store.Set(hubKey, encoded); err != nil {
		return fmt.Errorf("persist data hub: %w", err)
	}
	if h.bus != nil {
		h.bus.Publish(bus.EventDataHubUpdated, state)
	}
	return nil
}
