package binance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/datahub"
	"github.com/financeos/financeos/internal/modules"
)

// ConnectorID is the module id the connector acts under.
const ConnectorID = "connector.binance"

// Balance is one spot balance as reported by the exchange account endpoint.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// AccountClient is the exchange boundary. Real order execution is out of
// scope; the client only reads balances and spot prices.
type AccountClient interface {
	Balances(ctx context.Context) ([]Balance, error)
	// PriceUSDT returns the spot price for asset in USDT. Unpriced assets
	// report ok=false rather than an error.
	PriceUSDT(ctx context.Context, asset string) (price float64, ok bool, err error)
}

// Service syncs spot balances into the data hub and records the outcome in
// the audit ledger.
type Service struct {
	registry *modules.Registry
	hub      *datahub.Hub
	ledger   *audit.Ledger
	bus      *bus.Bus
	client   AccountClient
	now      func() time.Time
}

// NewService wires a connector service.
func NewService(registry *modules.Registry, hub *datahub.Hub, ledger *audit.Ledger, eventBus *bus.Bus, client AccountClient) *Service {
	return &Service{
		registry: registry,
		hub:      hub,
		ledger:   ledger,
		bus:      eventBus,
		client:   client,
		now:      time.Now,
	}
}

// Sync pulls balances, prices them, and publishes the refreshed snapshot.
// The connector module must be installed and enabled.
func (s *Service) Sync(ctx context.Context) error {
	if installed, ok := s.registry.Installed(ConnectorID); !ok || !installed.Enabled {
		return fmt.Errorf("binance connector is not installed or enabled")
	}

	if err := s.hub.SetConnectorStatus(ConnectorID, datahub.StatusSyncing, nil, ""); err != nil {
		return err
	}

	holdings, totalValue, err := s.fetchHoldings(ctx)
	if err != nil {
		if stateErr := s.hub.SetConnectorStatus(ConnectorID, datahub.StatusError, nil, err.Error()); stateErr != nil {
			slog.Warn("failed to record connector error state", "error", stateErr)
		}
		s.audit(audit.LevelWarning, "Connector sync failed", err.Error())
		return fmt.Errorf("binance sync: %w", err)
	}

	if err := s.hub.SetHoldings(ConnectorID, holdings); err != nil {
		return err
	}
	if err := s.hub.SetMetrics(ConnectorID, datahub.Metrics{TotalValueUSDT: totalValue}); err != nil {
		return err
	}

	syncedAt := s.now().UTC()
	if err := s.hub.SetConnectorStatus(ConnectorID, datahub.StatusConnected, &syncedAt, ""); err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(bus.EventConnectorSynced, ConnectorID)
	}
	s.audit(audit.LevelInfo, "Connector sync completed",
		fmt.Sprintf("%d holdings, total value %.2f USDT.", len(holdings), totalValue))
	return nil
}

func (s *Service) fetchHoldings(ctx context.Context) ([]datahub.Holding, float64, error) {
	balances, err := s.client.Balances(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch balances: %w", err)
	}

	holdings := make([]datahub.Holding, 0, len(balances))
	var totalValue float64
	for _, balance := range balances {
		total := balance.Free + balance.Locked
		if total <= 0 {
			continue
		}

		holding := datahub.Holding{
			Asset:  balance.Asset,
			Free:   balance.Free,
			Locked: balance.Locked,
			Total:  total,
		}
		price, priced, err := s.client.PriceUSDT(ctx, balance.Asset)
		if err != nil {
			return nil, 0, fmt.Errorf("price %s: %w", balance.Asset, err)
		}
		if priced {
			holding.USDTValue = total * price
			totalValue += holding.USDTValue
		}
		holdings = append(holdings, holding)
	}
	return holdings, totalValue, nil
}

func (s *Service) audit(level audit.Level, title, description string) {
	if s.ledger == nil {
		return
	}
	entry := audit.Entry{
		ID:          uuid.NewString(),
		TS:          s.now().UTC(),
		Level:       level,
		Title:       title,
		Description: description,
		Actor:       "Connector",
		ModuleID:    ConnectorID,
	}
	if err := s.ledger.Append(entry); err != nil {
		slog.Warn("failed to audit connector sync", "title", title, "error", err)
	}
}
