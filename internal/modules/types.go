package modules

import (
	"strings"
	"time"
)

// Permission is a capability token granted to a module at install time.
type Permission string

const (
	PermissionRead      Permission = "read"
	PermissionSuggest   Permission = "suggest"
	PermissionTrade     Permission = "trade"
	PermissionMoveFunds Permission = "move_funds"
)

// RiskLevel is the catalog's coarse risk classification for a module.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Manifest describes a pluggable unit of capability and the permissions it
// requests. Manifests are catalog data; nothing is trusted until installed.
type Manifest struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Version              string       `json:"version"`
	Risk                 RiskLevel    `json:"risk"`
	Description          string       `json:"description,omitempty"`
	RequestedPermissions []Permission `json:"requestedPermissions"`
	Capabilities         []string     `json:"capabilities"`
	SubscribesTo         []string     `json:"subscribesTo,omitempty"`
}

// IsCore reports whether the manifest belongs to the reserved core namespace.
// Core modules are auto-installed with their full requested set and cannot
// be uninstalled.
func (m Manifest) IsCore() bool {
	return strings.HasPrefix(m.ID, "core.")
}

// Installed is the registry record for one installed module.
type Installed struct {
	ID                 string       `json:"id"`
	Enabled            bool         `json:"enabled"`
	GrantedPermissions []Permission `json:"grantedPermissions"`
	InstalledAt        time.Time    `json:"installedAt"`
}
