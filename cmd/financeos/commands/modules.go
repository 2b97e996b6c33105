package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/financeos/financeos/internal/modules"
	"github.com/spf13/cobra"
)

func NewModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Manage installed modules",
	}

	cmd.AddCommand(
		newModulesListCmd(),
		newModulesInstallCmd(),
		newModulesUninstallCmd(),
		newModulesEnableCmd(),
		newModulesDisableCmd(),
	)

	return cmd
}

func newModulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog modules and their install state",
		RunE:  runModulesList,
	}
}

func newModulesInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <module_id>",
		Short: "Install a module from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runModulesInstall,
	}
	cmd.Flags().String("grant", "", "Comma-separated permissions to grant (default: all requested)")
	return cmd
}

func newModulesUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <module_id>",
		Short: "Uninstall a module",
		Args:  cobra.ExactArgs(1),
		RunE:  runModulesUninstall,
	}
}

func newModulesEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <module_id>",
		Short: "Enable an installed module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModulesSetEnabled(cmd, args[0], true)
		},
	}
}

func newModulesDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <module_id>",
		Short: "Disable an installed module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModulesSetEnabled(cmd, args[0], false)
		},
	}
}

func runModulesList(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}
	installed := platform.Registry.Snapshot()

	// Styles matching status.go
	var (
		headerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#8E4EC6")). // Purple
				Padding(0, 1).
				MarginBottom(1)

		// Column Widths
		wID    = 22
		wName  = 18
		wRisk  = 8
		wPerms = 26
		wState = 10

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

		riskStyle = lipgloss.NewStyle().
				Width(wRisk).
				MarginRight(1)

		permsStyle = lipgloss.NewStyle().
				Width(wPerms).
				MarginRight(1)

		stateStyleBase = lipgloss.NewStyle().
				Width(wState).
				MarginRight(1)

		enabledColor  = lipgloss.Color("#2E8B57") // SeaGreen
		disabledColor = lipgloss.Color("241")     // Dark Gray
	)

	fmt.Println(headerStyle.Render("Modules"))

	headers := lipgloss.JoinHorizontal(lipgloss.Top,
		colHeaderStyle.Width(wID).Render("ID"),
		colHeaderStyle.Width(wName).Render("NAME"),
		colHeaderStyle.Width(wRisk).Render("RISK"),
		colHeaderStyle.Width(wPerms).Render("PERMISSIONS"),
		colHeaderStyle.Width(wState).Render("STATE"),
	)
	fmt.Printf("  %s\n", headers)

	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1)
	separator := lipgloss.JoinHorizontal(lipgloss.Top,
		sepStyle.Render(strings.Repeat("─", wID)),
		sepStyle.Render(strings.Repeat("─", wName)),
		sepStyle.Render(strings.Repeat("─", wRisk)),
		sepStyle.Render(strings.Repeat("─", wPerms)),
		sepStyle.Render(strings.Repeat("─", wState)),
	)
	fmt.Printf("  %s\n", separator)

	for _, manifest := range modules.Catalog() {
		state := "available"
		perms := "-"
		sColor := disabledColor
		nStyle := nameStyleBase.Foreground(disabledColor)

		if inst, ok := installed[manifest.ID]; ok {
			perms = permissionList(inst.GrantedPermissions)
			if inst.Enabled {
				state = "enabled"
				sColor = enabledColor
				nStyle = nameStyleBase
			} else {
				state = "disabled"
			}
		}

		row := lipgloss.JoinHorizontal(lipgloss.Top,
			idStyle.Render(truncate(manifest.ID, wID)),
			nStyle.Render(truncate(manifest.Name, wName)),
			riskStyle.Render(string(manifest.Risk)),
			permsStyle.Render(truncate(perms, wPerms)),
			stateStyleBase.Foreground(sColor).Render(state),
		)
		fmt.Printf("  %s\n", row)
	}

	fmt.Println()

	return nil
}

func runModulesInstall(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	moduleID := strings.TrimSpace(args[0])
	manifest, ok := modules.ManifestByID(moduleID)
	if !ok {
		return fmt.Errorf("unknown module: %s", moduleID)
	}

	permissions := manifest.RequestedPermissions
	if grant, _ := cmd.Flags().GetString("grant"); strings.TrimSpace(grant) != "" {
		permissions = nil
		for _, raw := range strings.Split(grant, ",") {
			permissions = append(permissions, modules.Permission(strings.TrimSpace(raw)))
		}
	}

	if err := platform.Registry.Install(moduleID, permissions); err != nil {
		return err
	}
	fmt.Printf("Module %s installed with permissions: %s\n", moduleID, permissionList(permissions))
	return nil
}

func runModulesUninstall(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	if err := platform.Registry.Uninstall(args[0]); err != nil {
		return err
	}
	fmt.Printf("Module %s uninstalled.\n", args[0])
	return nil
}

func runModulesSetEnabled(cmd *cobra.Command, moduleID string, enabled bool) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	if err := platform.Registry.SetEnabled(moduleID, enabled); err != nil {
		return err
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("Module %s %s.\n", moduleID, state)
	return nil
}

func permissionList(permissions []modules.Permission) string {
	if len(permissions) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(permissions))
	for _, p := range permissions {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
