package commands

import (
	"github.com/spf13/cobra"

	"github.com/financeos/financeos/internal/config"
)

var logLevelOverride string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "financeos",
		Short: "FinanceOS - Personal Finance Dashboard",
		Long:  `FinanceOS is a personal finance dashboard with a policy-governed action pipeline.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return configureLogger(config.DefaultConfig(), logLevelOverride, false)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return configureLogger(cfg, logLevelOverride, cmd.Name() == "dashboard")
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")

	cmd.AddCommand(
		NewInitCmd(),
		NewStatusCmd(),
		NewPolicyCmd(),
		NewModulesCmd(),
		NewActionCmd(),
		NewAuditCmd(),
		NewSyncCmd(),
		NewReportCmd(),
		NewAutomationCmd(),
		NewApprovalsCmd(),
		NewDashboardCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return cmd
}
