package modules

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/financeos/financeos/internal/kvstore"
)

const installedKey = "financeos.installedModules.v1"

// Registry tracks which modules are installed, whether they are enabled,
// and the permissions each was granted. Reads fall back to an empty
// registry when the record is missing or corrupt.
type Registry struct {
	store kvstore.Store
	now   func() time.Time
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store kvstore.Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Install records the module with the given granted permissions, replacing
// any prior entry wholesale. The grant is all-or-nothing at install time;
// there is no incremental grant.
func (r *Registry) Install(moduleID string, permissions []Permission) error {
	installed := r.load()
	installed[moduleID] = Installed{
		ID:                 moduleID,
		Enabled:            true,
		GrantedPermissions: append([]Permission(nil), permissions...),
		InstalledAt:        r.now().UTC(),
	}
	return r.save(installed)
}

// Uninstall removes the entry entirely; re-installation requires a fresh
// grant. Core modules cannot be uninstalled.
func (r *Registry) Uninstall(moduleID string) error {
	if manifest, ok := ManifestByID(moduleID); ok && manifest.IsCore() {
		return fmt.Errorf("core module %s cannot be uninstalled", moduleID)
	}

	installed := r.load()
	delete(installed, moduleID)
	return r.save(installed)
}

// SetEnabled toggles an installed module. Unknown modules are ignored, as
// in the original registry.
func (r *Registry) SetEnabled(moduleID string, enabled bool) error {
	installed := r.load()
	current, ok := installed[moduleID]
	if !ok {
		return nil
	}
	current.Enabled = enabled
	installed[moduleID] = current
	return r.save(installed)
}

// IsGranted reports whether the module exists, is enabled, and holds the
// permission. Every other condition is false; it never errors.
func (r *Registry) IsGranted(moduleID string, permission Permission) bool {
	module, ok := r.load()[moduleID]
	if !ok || !module.Enabled {
		return false
	}
	for _, granted := range module.GrantedPermissions {
		if granted == permission {
			return true
		}
	}
	return false
}

// Installed returns the registry record for a module.
func (r *Registry) Installed(moduleID string) (Installed, bool) {
	module, ok := r.load()[moduleID]
	return module, ok
}

// Snapshot returns the full moduleId → record map.
func (r *Registry) Snapshot() map[string]Installed {
	return r.load()
}

// EnsureCore (re-)materializes any missing core module from the catalog,
// enabled and granted its full requested permission set. This runs on every
// platform load and is the one install that needs no user gesture.
func (r *Registry) EnsureCore(catalog []Manifest) error {
	installed := r.load()
	changed := false

	for _, manifest := range catalog {
		if !manifest.IsCore() {
			continue
		}
		if _, ok := installed[manifest.ID]; ok {
			continue
		}
		installed[manifest.ID] = Installed{
			ID:                 manifest.ID,
			Enabled:            true,
			GrantedPermissions: append([]Permission(nil), manifest.RequestedPermissions...),
			InstalledAt:        r.now().UTC(),
		}
		changed = true
	}

	if !changed {
		return nil
	}
	return r.save(installed)
}

func (r *Registry) load() map[string]Installed {
	data, ok, err := r.store.Get(installedKey)
	if err != nil || !ok {
		return map[string]Installed{}
	}

	var installed map[string]Installed
	if err := json.Unmarshal(data, &installed); err != nil || installed == nil {
		return map[string]Installed{}
	}
	return installed
}

func (r *Registry) save(installed map[string]Installed) error {
	encoded, err := json.Marshal(installed)
	if err != nil {
		return fmt.Errorf("marshal installed modules: %w", err)
	}
	if err := r.store.Set(installedKey, encoded); err != nil {
		return fmt.Errorf("persist installed modules: %w", err)
	}
	return nil
}
