package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/automation"
	"github.com/spf13/cobra"
)

func NewAutomationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "automation",
		Short: "Manage scheduled automation rules",
	}

	cmd.AddCommand(
		newAutomationListCmd(),
		newAutomationAddCmd(),
		newAutomationRunCmd(),
		newAutomationRemoveCmd(),
		newAutomationEnableCmd(),
		newAutomationDisableCmd(),
	)

	return cmd
}

func newAutomationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all automation rules",
		RunE:  runAutomationList,
	}
}

func newAutomationAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new automation rule",
		RunE:  runAutomationAdd,
	}

	cmd.Flags().StringP("name", "n", "", "Rule name (required)")
	cmd.Flags().StringP("module", "m", "", "Module submitting the action (required)")
	cmd.Flags().StringP("kind", "k", "", "Action kind (required)")
	cmd.Flags().StringP("summary", "s", "", "Action summary")
	cmd.Flags().Int64("every", 0, "Repeat interval in seconds")
	cmd.Flags().String("cron", "", "Cron expression (e.g., '0 9 * * *')")
	cmd.Flags().String("at", "", "One-shot timestamp (RFC3339)")
	cmd.Flags().String("symbol", "", "Trade symbol")
	cmd.Flags().String("side", "", "Trade side (buy|sell)")
	cmd.Flags().Float64("amount", 0, "Trade amount")
	cmd.Flags().String("channel", "", "Notify channel (email|sms|push)")
	cmd.Flags().String("message", "", "Notify message")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("module")
	cmd.MarkFlagRequired("kind")

	return cmd
}

func newAutomationRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run all due rules immediately",
		RunE:  runAutomationRun,
	}
}

func newAutomationRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule_id>",
		Short: "Remove an automation rule",
		Args:  cobra.ExactArgs(1),
		RunE:  runAutomationRemove,
	}
}

func newAutomationEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <rule_id>",
		Short: "Enable an automation rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutomationSetEnabled(cmd, args[0], true)
		},
	}
}

func newAutomationDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <rule_id>",
		Short: "Disable an automation rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutomationSetEnabled(cmd, args[0], false)
		},
	}
}

func runAutomationList(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	rules := platform.Automation.ListRules(true)
	if len(rules) == 0 {
		fmt.Println("No automation rules.")
		return nil
	}

	// Styles matching status.go
	var (
		headerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#8E4EC6")). // Purple
				Padding(0, 1).
				MarginBottom(1)

		// Column Widths
		wID       = 10
		wName     = 20
		wSchedule = 25
		wNextRun  = 22
		wStatus   = 10

		colHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8E4EC6")).
				Bold(true).
				MarginRight(1)

		idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(wID).
			MarginRight(1)

		nameStyleBase = lipgloss.NewStyle().
				Width(wName).
				MarginRight(1)

		scheduleStyle = lipgloss.NewStyle().
				Width(wSchedule).
				MarginRight(1)

		nextRunStyle = lipgloss.NewStyle().
				Width(wNextRun).
				MarginRight(1)

		statusStyleBase = lipgloss.NewStyle().
				Width(wStatus).
				MarginRight(1)

		enabledColor  = lipgloss.Color("#2E8B57") // SeaGreen
		disabledColor = lipgloss.Color("241")     // Dark Gray
	)

	fmt.Println(headerStyle.Render("Automation Rules"))

	headers := lipgloss.JoinHorizontal(lipgloss.Top,
		colHeaderStyle.Width(wID).Render("ID"),
		colHeaderStyle.Width(wName).Render("NAME"),
		colHeaderStyle.Width(wSchedule).Render("SCHEDULE"),
		colHeaderStyle.Width(wNextRun).Render("NEXT RUN"),
		colHeaderStyle.Width(wStatus).Render("STATUS"),
	)
	fmt.Printf("  %s\n", headers)

	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1)
	separator := lipgloss.JoinHorizontal(lipgloss.Top,
		sepStyle.Render(strings.Repeat("─", wID)),
		sepStyle.Render(strings.Repeat("─", wName)),
		sepStyle.Render(strings.Repeat("─", wSchedule)),
		sepStyle.Render(strings.Repeat("─", wNextRun)),
		sepStyle.Render(strings.Repeat("─", wStatus)),
	)
	fmt.Printf("  %s\n", separator)

	for _, rule := range rules {
		nextRun := "-"
		if rule.State.NextRunAt != nil {
			nextRun = rule.State.NextRunAt.Local().Format("2006-01-02 15:04:05")
		}

		sColor := enabledColor
		nStyle := nameStyleBase
		statusText := "enabled"

		if !rule.Enabled {
			sColor = disabledColor
			nStyle = nStyle.Foreground(disabledColor)
			statusText = "disabled"
		}

		row := lipgloss.JoinHorizontal(lipgloss.Top,
			idStyle.Render(rule.ID),
			nStyle.Render(truncate(rule.Name, wName)),
			scheduleStyle.Render(truncate(rule.ScheduleDescription(), wSchedule)),
			nextRunStyle.Render(nextRun),
			statusStyleBase.Foreground(sColor).Render(statusText),
		)

		fmt.Printf("  %s\n", row)
	}

	fmt.Println()

	return nil
}

func runAutomationAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	moduleID, _ := cmd.Flags().GetString("module")
	kind, _ := cmd.Flags().GetString("kind")
	summary, _ := cmd.Flags().GetString("summary")
	every, _ := cmd.Flags().GetInt64("every")
	cronExpr, _ := cmd.Flags().GetString("cron")
	at, _ := cmd.Flags().GetString("at")
	if strings.TrimSpace(summary) == "" {
		summary = kind
	}

	var schedule automation.Schedule
	switch {
	case every > 0:
		interval := time.Duration(every) * time.Second
		schedule = automation.Schedule{Kind: "every", Every: &interval}
	case cronExpr != "":
		schedule = automation.Schedule{Kind: "cron", Expr: cronExpr}
	case at != "":
		ts, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("invalid --at timestamp (expected RFC3339): %w", err)
		}
		schedule = automation.Schedule{Kind: "at", At: &ts}
	default:
		return fmt.Errorf("one of --every, --cron, or --at is required")
	}

	template := automation.ActionTemplate{
		ModuleID: moduleID,
		Kind:     kind,
		Summary:  summary,
	}
	if symbol, _ := cmd.Flags().GetString("symbol"); strings.TrimSpace(symbol) != "" {
		side, _ := cmd.Flags().GetString("side")
		amount, _ := cmd.Flags().GetFloat64("amount")
		template.Trade = &actions.TradeIntent{
			Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
			Side:   actions.TradeSide(strings.ToLower(side)),
			Amount: amount,
		}
	}
	if channel, _ := cmd.Flags().GetString("channel"); strings.TrimSpace(channel) != "" {
		message, _ := cmd.Flags().GetString("message")
		template.Notify = &actions.NotifyIntent{
			Channel: actions.NotifyChannel(strings.ToLower(strings.TrimSpace(channel))),
			Message: message,
		}
	}

	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	rule, err := platform.Automation.AddRule(name, schedule, template)
	if err != nil {
		return err
	}

	fmt.Printf("Rule created: %s (%s)\n", rule.ID, rule.ScheduleDescription())
	return nil
}

func runAutomationRun(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	fired := platform.Automation.RunDue(cmd.Context())
	fmt.Printf("%d rules fired.\n", fired)
	return nil
}

func runAutomationRemove(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	if err := platform.Automation.RemoveRule(args[0]); err != nil {
		return err
	}
	fmt.Printf("Rule %s removed.\n", args[0])
	return nil
}

func runAutomationSetEnabled(cmd *cobra.Command, ruleID string, enabled bool) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	rule, err := platform.Automation.EnableRule(ruleID, enabled)
	if err != nil {
		return err
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("Rule %s (%s) %s.\n", rule.ID, rule.Name, state)
	return nil
}
