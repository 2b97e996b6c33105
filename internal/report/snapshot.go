package report

import (
	"math"
	"sort"

	"github.com/financeos/financeos/internal/datahub"
)

const maxSnapshotHoldings = 15

// PricedHolding is one priced position with its share of the portfolio.
type PricedHolding struct {
	Asset     string  `json:"asset"`
	USDTValue float64 `json:"usdtValue"`
	Pct       float64 `json:"pct"`
}

// Snapshot is the condensed portfolio view handed to the model.
type Snapshot struct {
	TotalValueUSDT float64         `json:"totalValueUsdt"`
	Holdings       []PricedHolding `json:"holdings"`
	UnpricedAssets []string        `json:"unpricedAssets"`
	Metrics        Metrics         `json:"metrics"`
}

// BuildSnapshot condenses the hub state: priced holdings sorted by value,
// capped at the top positions, plus concentration percentages.
func BuildSnapshot(state datahub.State) Snapshot {
	var priced []datahub.Holding
	var unpriced []string
	var total float64
	var count int

	for _, holdings := range state.Holdings {
		for _, holding := range holdings {
			count++
			if holding.USDTValue > 0 {
				priced = append(priced, holding)
				total += holding.USDTValue
			} else {
				unpriced = append(unpriced, holding.Asset)
			}
		}
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].USDTValue > priced[j].USDTValue
	})
	sort.Strings(unpriced)

	snapshot := Snapshot{
		TotalValueUSDT: total,
		UnpricedAssets: unpriced,
		Metrics: Metrics{
			TotalValueUSDT:    total,
			HoldingsCount:     count,
			PricedCount:       len(priced),
			ConcentrationTop3: concentration(priced, total, 3),
			ConcentrationTop5: concentration(priced, total, 5),
		},
	}

	for i, holding := range priced {
		if i == maxSnapshotHoldings {
			break
		}
		entry := PricedHolding{Asset: holding.Asset, USDTValue: holding.USDTValue}
		if total > 0 {
			entry.Pct = roundPct(holding.USDTValue / total)
		}
		snapshot.Holdings = append(snapshot.Holdings, entry)
	}
	return snapshot
}

func concentration(priced []datahub.Holding, total float64, top int) float64 {
	if total <= 0 {
		return 0
	}
	var sum float64
	for i, holding := range priced {
		if i == top {
			break
		}
		sum += holding.USDTValue
	}
	return roundPct(sum / total)
}

// roundPct converts a ratio to a percentage with one decimal.
func roundPct(ratio float64) float64 {
	return math.Round(ratio*1000) / 10
}
