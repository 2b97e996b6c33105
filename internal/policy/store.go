package policy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/kvstore"
)

const policyKey = "financeos.policy.v1"

// Store holds the persisted policy state. Reads fall back to defaults when
// the record is missing or corrupt; writes go through Update, which also
// announces the change and records it in the audit ledger.
type Store struct {
	store  kvstore.Store
	bus    *bus.Bus
	ledger *audit.Ledger
	now    func() time.Time
}

// NewStore creates a policy store. Bus and ledger may be nil in tests.
func NewStore(store kvstore.Store, eventBus *bus.Bus, ledger *audit.Ledger) *Store {
	return &Store{
		store:  store,
		bus:    eventBus,
		ledger: ledger,
		now:    time.Now,
	}
}

// Load returns the current policy. Missing fields are filled from defaults;
// a corrupt record degrades to defaults rather than failing the caller.
func (s *Store) Load() State {
	data, ok, err := s.store.Get(policyKey)
	if err != nil || !ok {
		return Defaults()
	}

	state := Defaults()
	if err := json.Unmarshal(data, &state); err != nil {
		return Defaults()
	}
	return state
}

// Update replaces the policy state, publishes policy.updated and appends an
// audit entry. The kill switch is one-way: once engaged it can only be
// cleared by Reset.
func (s *Store) Update(state State) error {
	current := s.Load()
	if current.KillSwitch && !state.KillSwitch {
		return fmt.Errorf("kill switch is latched; use reset to clear it")
	}

	if err := s.save(state); err != nil {
		return err
	}

	s.announce(state, "Policy updated", describeChange(current, state))
	return nil
}

// Reset restores the default policy. This is the only way to clear an
// engaged kill switch.
func (s *Store) Reset() error {
	state := Defaults()
	if err := s.save(state); err != nil {
		return err
	}

	s.announce(state, "Policy reset to defaults", "")
	return nil
}

func (s *Store) save(state State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}
	if err := s.store.Set(policyKey, encoded); err != nil {
		return fmt.Errorf("persist policy: %w", err)
	}
	return nil
}

func (s *Store) announce(state State, title, description string) {
	if s.bus != nil {
		s.bus.Publish(bus.EventPolicyUpdated, state)
	}
	if s.ledger != nil {
		entry := audit.Entry{
			ID:          uuid.NewString(),
			TS:          s.now().UTC(),
			Level:       audit.LevelInfo,
			Title:       title,
			Description: description,
			Actor:       "User",
			Data: map[string]any{
				"autonomyMode":  string(state.AutonomyMode),
				"allowLeverage": state.AllowLeverage,
				"killSwitch":    state.KillSwitch,
			},
		}
		if err := s.ledger.Append(entry); err != nil {
			slog.Warn("failed to audit policy change", "title", title, "error", err)
		}
	}
}

func describeChange(before, after State) string {
	if !before.KillSwitch && after.KillSwitch {
		return "Kill switch engaged."
	}
	if before.AutonomyMode != after.AutonomyMode {
		return fmt.Sprintf("Autonomy mode changed from %s to %s.", before.AutonomyMode, after.AutonomyMode)
	}
	return ""
}
