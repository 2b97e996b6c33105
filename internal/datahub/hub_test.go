package datahub

import (
	"testing"
	"time"

	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/kvstore"
)

func TestHub_EmptyStateNormalized(t *testing.T) {
	hub := NewHub(kvstore.NewMemStore(), nil)

	state := hub.State()
	if state.Connectors == nil || state.Holdings == nil || state.Metrics == nil {
		t.Fatalf("expected normalized maps, got %+v", state)
	}
}

func TestHub_CorruptRecordReadsAsEmpty(t *testing.T) {
	store := kvstore.NewMemStore()
	if err := store.Set("financeos.datahub.v1", []byte("]")); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	hub := NewHub(store, nil)
	if got := hub.Holdings("connector.binance"); len(got) != 0 {
		t.Fatalf("expected no holdings, got %v", got)
	}
}

func TestHub_SetHoldingsRoundTrip(t *testing.T) {
	hub := NewHub(kvstore.NewMemStore(), nil)

	holdings := []Holding{
		{Asset: "BTC", Free: 0.5, Total: 0.5, USDTValue: 30000},
		{Asset: "ETH", Free: 2, Locked: 1, Total: 3, USDTValue: 9000},
	}
	if err := hub.SetHoldings("connector.binance", holdings); err != nil {
		t.Fatalf("set holdings failed: %v", err)
	}

	got := hub.Holdings("connector.binance")
	if len(got) != 2 || got[0].Asset != "BTC" {
		t.Fatalf("unexpected holdings: %v", got)
	}
}

func TestHub_SavePublishesDataHubUpdated(t *testing.T) {
	eventBus := bus.New()
	hub := NewHub(kvstore.NewMemStore(), eventBus)

	updates := 0
	eventBus.Subscribe(bus.EventDataHubUpdated, func(any) { updates++ })

	if err := hub.SetMetrics("connector.binance", Metrics{TotalValueUSDT: 39000}); err != nil {
		t.Fatalf("set metrics failed: %v", err)
	}
	if updates != 1 {
		t.Fatalf("expected 1 datahub.updated event, got %d", updates)
	}
}

func TestHub_ClearConnectorKeepsStateRecord(t *testing.T) {
	hub := NewHub(kvstore.NewMemStore(), nil)
	syncedAt := time.Now().UTC()

	if err := hub.SetConnectorStatus("connector.binance", StatusConnected, &syncedAt, ""); err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if err := hub.SetHoldings("connector.binance", []Holding{{Asset: "BTC", Total: 1}}); err != nil {
		t.Fatalf("set holdings failed: %v", err)
	}

	if err := hub.ClearConnector("connector.binance"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if got := hub.Holdings("connector.binance"); len(got) != 0 {
		t.Fatalf("expected holdings cleared, got %v", got)
	}
	if _, ok := hub.ConnectorState("connector.binance"); !ok {
		t.Fatal("expected connector state record to survive clear")
	}
}
