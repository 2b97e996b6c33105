package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/financeos/financeos/internal/audit"
	"github.com/spf13/cobra"
)

func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit ledger",
	}

	cmd.AddCommand(
		newAuditListCmd(),
		newAuditClearCmd(),
	)

	return cmd
}

func newAuditListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE:  runAuditList,
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().String("actor", "", "Filter by actor")
	return cmd
}

func newAuditClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the audit ledger",
		RunE:  runAuditClear,
	}
	cmd.Flags().Bool("yes", false, "Confirm clearing without prompting")
	return cmd
}

func runAuditList(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	actorFilter, _ := cmd.Flags().GetString("actor")

	entries := platform.Ledger.List()
	if strings.TrimSpace(actorFilter) != "" {
		filtered := entries[:0]
		for _, entry := range entries {
			if strings.EqualFold(entry.Actor, actorFilter) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	if len(entries) == 0 {
		fmt.Println("No audit entries.")
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
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
		wTime  = 19
		wLevel = 8
		wActor = 18
		wTitle = 40

		colHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8E4EC6")).
				Bold(true).
				MarginRight(1)

		timeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Width(wTime).
				MarginRight(1)

		levelStyleBase = lipgloss.NewStyle().
				Width(wLevel).
				MarginRight(1)

		actorStyle = lipgloss.NewStyle().
				Width(wActor).
				MarginRight(1)

		titleStyle = lipgloss.NewStyle().
				Width(wTitle).
				MarginRight(1)

		infoColor    = lipgloss.Color("#2E8B57") // SeaGreen
		warningColor = lipgloss.Color("#FFA500") // Orange
		errorColor   = lipgloss.Color("#DC143C") // Crimson
	)

	fmt.Println(headerStyle.Render("Audit Ledger"))

	headers := lipgloss.JoinHorizontal(lipgloss.Top,
		colHeaderStyle.Width(wTime).Render("TIME"),
		colHeaderStyle.Width(wLevel).Render("LEVEL"),
		colHeaderStyle.Width(wActor).Render("ACTOR"),
		colHeaderStyle.Width(wTitle).Render("TITLE"),
	)
	fmt.Printf("  %s\n", headers)

	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1)
	separator := lipgloss.JoinHorizontal(lipgloss.Top,
		sepStyle.Render(strings.Repeat("─", wTime)),
		sepStyle.Render(strings.Repeat("─", wLevel)),
		sepStyle.Render(strings.Repeat("─", wActor)),
		sepStyle.Render(strings.Repeat("─", wTitle)),
	)
	fmt.Printf("  %s\n", separator)

	for _, entry := range entries {
		lColor := infoColor
		switch entry.Level {
		case audit.LevelWarning:
			lColor = warningColor
		case audit.LevelError:
			lColor = errorColor
		}

		row := lipgloss.JoinHorizontal(lipgloss.Top,
			timeStyle.Render(entry.TS.Local().Format("2006-01-02 15:04:05")),
			levelStyleBase.Foreground(lColor).Render(string(entry.Level)),
			actorStyle.Render(truncate(entry.Actor, wActor)),
			titleStyle.Render(truncate(entry.Title, wTitle)),
		)
		fmt.Printf("  %s\n", row)
		if entry.Description != "" {
			fmt.Printf("      %s\n", truncate(entry.Description, 80))
		}
	}

	fmt.Println()

	return nil
}

func runAuditClear(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("refusing to clear the ledger without --yes")
	}

	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	if err := platform.Ledger.Clear(); err != nil {
		return err
	}
	fmt.Println("Audit ledger cleared.")
	return nil
}
