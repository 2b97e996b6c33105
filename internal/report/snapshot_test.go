package report

import (
	"testing"

	"github.com/financeos/financeos/internal/datahub"
)

func holdingsState(holdings []datahub.Holding) datahub.State {
	return datahub.State{
		Holdings: map[string][]datahub.Holding{
			"connector.binance": holdings,
		},
	}
}

func TestBuildSnapshot_SortsAndMeasuresConcentration(t *testing.T) {
	snapshot := BuildSnapshot(holdingsState([]datahub.Holding{
		{Asset: "ETH", USDTValue: 300},
		{Asset: "BTC", USDTValue: 600},
		{Asset: "SOL", USDTValue: 100},
		{Asset: "DUST", USDTValue: 0},
	}))

	if snapshot.TotalValueUSDT != 1000 {
		t.Fatalf("expected total 1000, got %f", snapshot.TotalValueUSDT)
	}
	if len(snapshot.Holdings) != 3 {
		t.Fatalf("expected 3 priced holdings, got %d", len(snapshot.Holdings))
	}
	if snapshot.Holdings[0].Asset != "BTC" || snapshot.Holdings[2].Asset != "SOL" {
		t.Fatalf("expected value-descending order, got %+v", snapshot.Holdings)
	}
	if snapshot.Holdings[0].Pct != 60 {
		t.Fatalf("expected BTC at 60%%, got %f", snapshot.Holdings[0].Pct)
	}
	if snapshot.Metrics.ConcentrationTop3 != 100 {
		t.Fatalf("expected top 3 to carry all value, got %f", snapshot.Metrics.ConcentrationTop3)
	}
	if snapshot.Metrics.HoldingsCount != 4 || snapshot.Metrics.PricedCount != 3 {
		t.Fatalf("unexpected counts: %+v", snapshot.Metrics)
	}
	if len(snapshot.UnpricedAssets) != 1 || snapshot.UnpricedAssets[0] != "DUST" {
		t.Fatalf("expected DUST unpriced, got %v", snapshot.UnpricedAssets)
	}
}

func TestBuildSnapshot_CapsListedHoldings(t *testing.T) {
	var holdings []datahub.Holding
	for i := 0; i < 20; i++ {
		holdings = append(holdings, datahub.Holding{
			Asset:     string(rune('A' + i)),
			USDTValue: float64(20 - i),
		})
	}

	snapshot := BuildSnapshot(holdingsState(holdings))
	if len(snapshot.Holdings) != maxSnapshotHoldings {
		t.Fatalf("expected %d listed holdings, got %d", maxSnapshotHoldings, len(snapshot.Holdings))
	}
	if snapshot.Metrics.PricedCount != 20 {
		t.Fatalf("expected all 20 counted, got %d", snapshot.Metrics.PricedCount)
	}
}

func TestBuildSnapshot_EmptyState(t *testing.T) {
	snapshot := BuildSnapshot(datahub.State{})
	if snapshot.TotalValueUSDT != 0 || snapshot.Metrics.HoldingsCount != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}
	if snapshot.Metrics.ConcentrationTop3 != 0 {
		t.Fatalf("expected zero concentration for empty portfolio, got %f", snapshot.Metrics.ConcentrationTop3)
	}
}
