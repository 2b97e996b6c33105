package commands

import (
	"fmt"
	"os"

	"github.com/financeos/financeos/internal/config"
	"github.com/financeos/financeos/internal/metrics"
	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show FinanceOS configuration status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load platform: %w", err)
	}
	cfg := platform.Config

	fmt.Println("=== FinanceOS Status ===")
	fmt.Println()

	fmt.Printf("Config: %s\n", config.ConfigPath())
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		fmt.Println("  Status: OK")
	} else {
		fmt.Println("  Status: Not found (run 'financeos init')")
	}

	fmt.Printf("\nWorkspace: %s\n", cfg.WorkspaceDir())
	if _, err := os.Stat(cfg.WorkspaceDir()); err == nil {
		fmt.Println("  Status: OK")
	} else {
		fmt.Println("  Status: Not found")
	}

	fmt.Println("\nProviders:")
	providers := map[string]string{
		"Claude": cfg.Providers.Claude.APIKey,
		"OpenAI": cfg.Providers.OpenAI.APIKey,
		"Ollama": cfg.Providers.Ollama.BaseURL,
	}
	for name, key := range providers {
		status := "Not configured"
		if key != "" {
			status = "Configured"
		}
		fmt.Printf("  %s: %s\n", name, status)
	}
	fmt.Printf("  Report model: %s\n", cfg.Report.Model)

	policyState := platform.Policies.Load()
	fmt.Println("\nPolicy:")
	fmt.Printf("  Autonomy: %s\n", policyState.AutonomyMode)
	fmt.Printf("  Leverage: %t\n", policyState.AllowLeverage)
	if policyState.KillSwitch {
		fmt.Println("  Kill switch: ACTIVE")
	} else {
		fmt.Println("  Kill switch: off")
	}

	installed := platform.Registry.Snapshot()
	enabled := 0
	for _, m := range installed {
		if m.Enabled {
			enabled++
		}
	}
	fmt.Println("\nModules:")
	fmt.Printf("  Installed: %d total, %d enabled\n", len(installed), enabled)

	fmt.Println("\nGateway:")
	fmt.Printf("  Address: %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
	if cfg.Gateway.Token != "" {
		fmt.Println("  Auth:    token configured")
	} else {
		fmt.Println("  Auth:    no token (open)")
	}

	rules := platform.Automation.ListRules(true)
	enabledRules := 0
	for _, r := range rules {
		if r.Enabled {
			enabledRules++
		}
	}
	fmt.Println("\nAutomation:")
	fmt.Printf("  Rules: %d total, %d enabled\n", len(rules), enabledRules)

	snap, _ := metrics.ReadSnapshot(cfg.WorkspaceDir())
	fmt.Println("\nDispatch:")
	if snap.HasData() {
		fmt.Printf("  Total: %d (executed=%d denied=%d pending=%d failures=%d)\n",
			snap.Dispatch.Total, snap.Dispatch.Executed, snap.Dispatch.Denied,
			snap.Dispatch.NeedsApproval, snap.Dispatch.Failures)
		fmt.Printf("  Latency: avg=%.1fms max=%dms p95~%dms\n",
			snap.Dispatch.AvgLatencyMs(), snap.Dispatch.MaxLatencyMs, snap.Dispatch.P95ProxyLatencyMs)
	} else {
		fmt.Println("  No dispatches recorded yet.")
	}

	fmt.Printf("\nAudit entries: %d\n", len(platform.Ledger.List()))

	return nil
}
