package commands

import (
	"fmt"

	"github.com/financeos/financeos/internal/connector/binance"
	"github.com/spf13/cobra"
)

func NewSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync connector data into the data hub",
		RunE:  runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println("Syncing Binance connector...")
	if err := platform.Binance.Sync(cmd.Context()); err != nil {
		return err
	}

	holdings := platform.Hub.Holdings(binance.ConnectorID)
	metrics, _ := platform.Hub.ConnectorMetrics(binance.ConnectorID)

	fmt.Printf("Synced %d holdings, total value %.2f USDT.\n", len(holdings), metrics.TotalValueUSDT)
	for _, holding := range holdings {
		fmt.Printf("  %-6s %12.4f  %12.2f USDT\n", holding.Asset, holding.Total, holding.USDTValue)
	}

	return nil
}
