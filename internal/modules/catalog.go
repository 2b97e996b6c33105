package modules

// Catalog returns every manifest known to the platform: the core modules
// materialized on every load, the bundled connector and brain modules, and
// the installable market entries.
func Catalog() []Manifest {
	return []Manifest{
		{
			ID:                   "core.dashboard",
			Name:                 "Dashboard",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Primary overview of portfolio and insights.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"overview"},
		},
		{
			ID:                   "core.connectors",
			Name:                 "Connectors",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Manage data connections and brokers.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"connectors"},
		},
		{
			ID:                   "core.risk",
			Name:                 "Rules & Risk",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Configure autonomy, risk parameters, and safeguards.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"policy"},
		},
		{
			ID:                   "core.automations",
			Name:                 "Automations",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Build and monitor automation workflows.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"automations"},
		},
		{
			ID:                   "core.audit",
			Name:                 "Audit Log",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Review platform decisions and activity.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"audit"},
		},
		{
			ID:                   "core.store",
			Name:                 "Module Store",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Browse and manage installable modules.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"modules"},
		},
		{
			ID:                   "core.settings",
			Name:                 "Settings",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Configure account and platform preferences.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"settings"},
		},
		{
			ID:                   "connector.binance",
			Name:                 "Binance Connector",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "Read-only Binance spot balances and portfolio metrics.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"connector"},
		},
		{
			ID:                   "brain.ceo",
			Name:                 "CEO AI",
			Version:              "1.0.0",
			Risk:                 RiskLow,
			Description:          "AI-generated CEO review of the portfolio snapshot.",
			RequestedPermissions: []Permission{PermissionRead, PermissionSuggest},
			Capabilities:         []string{"reports"},
			SubscribesTo:         []string{"connector.synced"},
		},
		{
			ID:                   "market.dca",
			Name:                 "DCA Bot",
			Version:              "0.9.0",
			Risk:                 RiskLow,
			Description:          "Automated dollar-cost averaging for any asset.",
			RequestedPermissions: []Permission{PermissionRead, PermissionSuggest},
			Capabilities:         []string{"automation", "dca"},
		},
		{
			ID:                   "options.tracker",
			Name:                 "Options Tracker",
			Version:              "0.4.0",
			Risk:                 RiskLow,
			Description:          "Track options positions and greeks in real-time.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"options", "analytics"},
		},
		{
			ID:                   "risk.leverage",
			Name:                 "Leverage Manager",
			Version:              "0.3.0",
			Risk:                 RiskHigh,
			Description:          "Manage margin and leveraged positions across brokers.",
			RequestedPermissions: []Permission{PermissionRead, PermissionTrade},
			Capabilities:         []string{"leverage", "risk"},
		},
		{
			ID:                   "tax.optimizer",
			Name:                 "Tax Optimizer",
			Version:              "0.5.1",
			Risk:                 RiskMedium,
			Description:          "Automated tax-loss harvesting and gain deferral.",
			RequestedPermissions: []Permission{PermissionRead, PermissionSuggest},
			Capabilities:         []string{"tax", "optimization"},
		},
		{
			ID:                   "sentiment.scanner",
			Name:                 "Sentiment Scanner",
			Version:              "0.6.2",
			Risk:                 RiskLow,
			Description:          "AI-powered market sentiment from news and social media.",
			RequestedPermissions: []Permission{PermissionRead},
			Capabilities:         []string{"sentiment", "signals"},
		},
		{
			ID:                   "arbitrage.spotter",
			Name:                 "Arbitrage Spotter",
			Version:              "0.7.0",
			Risk:                 RiskMedium,
			Description:          "Cross-exchange arbitrage opportunity detection.",
			RequestedPermissions: []Permission{PermissionRead, PermissionSuggest},
			Capabilities:         []string{"arbitrage", "signals"},
		},
	}
}

// ManifestByID looks a manifest up in the catalog.
func ManifestByID(id string) (Manifest, bool) {
	for _, manifest := range Catalog() {
		if manifest.ID == id {
			return manifest, true
		}
	}
	return Manifest{}, false
}
