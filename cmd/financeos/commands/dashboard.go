package commands

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/financeos/financeos/internal/connector/binance"
	"github.com/spf13/cobra"
)

func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		RunE:  runDashboard,
	}
}

type dashboardTab int

const (
	tabHoldings dashboardTab = iota
	tabAudit
)

type dashboardModel struct {
	platform *Platform
	tab      dashboardTab
	holdings table.Model
	audit    table.Model
	status   string
}

var (
	dashTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#8E4EC6")).
			Padding(0, 1)

	dashTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginRight(2)

	dashTabActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8E4EC6")).
				Bold(true).
				MarginRight(2)

	dashHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

func newDashboardModel(platform *Platform) dashboardModel {
	m := dashboardModel{platform: platform}
	m.holdings = newDashboardTable([]table.Column{
		{Title: "ASSET", Width: 8},
		{Title: "FREE", Width: 14},
		{Title: "LOCKED", Width: 14},
		{Title: "VALUE (USDT)", Width: 16},
	})
	m.audit = newDashboardTable([]table.Column{
		{Title: "TIME", Width: 19},
		{Title: "LEVEL", Width: 8},
		{Title: "ACTOR", Width: 18},
		{Title: "TITLE", Width: 44},
	})
	m.reload()
	return m
}

func newDashboardTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(14),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(lipgloss.Color("#8E4EC6")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#8E4EC6"))
	t.SetStyles(styles)
	return t
}

func (m *dashboardModel) reload() {
	holdings := m.platform.Hub.Holdings(binance.ConnectorID)
	holdingRows := make([]table.Row, 0, len(holdings))
	for _, h := range holdings {
		holdingRows = append(holdingRows, table.Row{
			h.Asset,
			fmt.Sprintf("%.4f", h.Free),
			fmt.Sprintf("%.4f", h.Locked),
			fmt.Sprintf("%.2f", h.USDTValue),
		})
	}
	m.holdings.SetRows(holdingRows)

	entries := m.platform.Ledger.List()
	auditRows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		auditRows = append(auditRows, table.Row{
			e.TS.Local().Format("2006-01-02 15:04:05"),
			string(e.Level),
			e.Actor,
			e.Title,
		})
	}
	m.audit.SetRows(auditRows)

	metrics, _ := m.platform.Hub.ConnectorMetrics(binance.ConnectorID)
	policyState := m.platform.Policies.Load()
	kill := ""
	if policyState.KillSwitch {
		kill = "  KILL SWITCH ACTIVE"
	}
	m.status = fmt.Sprintf("Total: %.2f USDT  Autonomy: %s%s",
		metrics.TotalValueUSDT, policyState.AutonomyMode, kill)
}

func (m dashboardModel) Init() tea.Cmd {
	return nil
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.tab == tabHoldings {
				m.tab = tabAudit
			} else {
				m.tab = tabHoldings
			}
			return m, nil
		case "r":
			m.reload()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.tab == tabHoldings {
		m.holdings, cmd = m.holdings.Update(msg)
	} else {
		m.audit, cmd = m.audit.Update(msg)
	}
	return m, cmd
}

func (m dashboardModel) View() string {
	holdingsTab := dashTabStyle
	auditTab := dashTabStyle
	if m.tab == tabHoldings {
		holdingsTab = dashTabActiveStyle
	} else {
		auditTab = dashTabActiveStyle
	}

	tabs := lipgloss.JoinHorizontal(lipgloss.Top,
		holdingsTab.Render("Holdings"),
		auditTab.Render("Audit"),
	)

	body := m.holdings.View()
	if m.tab == tabAudit {
		body = m.audit.View()
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n%s\n%s\n",
		dashTitleStyle.Render("FinanceOS"),
		tabs,
		body,
		m.status,
		dashHelpStyle.Render("tab: switch  r: reload  q: quit"),
	)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	program := tea.NewProgram(newDashboardModel(platform), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
