package audit

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/kvstore"
)

const ledgerKey = "financeos.audit.v1"

// Ledger is the append-only record of every governance decision and
// administrative change. Reads are fail-soft: corrupt or unreadable storage
// degrades to an empty ledger so the read path never blocks a caller.
// Appends fail loud: losing an audit entry silently would break
// accountability, so persistence errors surface to the caller.
type Ledger struct {
	store kvstore.Store
	bus   *bus.Bus
}

// NewLedger creates a ledger over the given store. The bus may be nil, in
// which case append notifications are skipped.
func NewLedger(store kvstore.Store, eventBus *bus.Bus) *Ledger {
	return &Ledger{store: store, bus: eventBus}
}

// Append persists the entry, makes it immediately visible to List, and
// publishes an audit.appended event carrying the entry.
func (l *Ledger) Append(entry Entry) error {
	entries := l.loadEntries()
	entries = append(entries, entry)

	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal audit ledger: %w", err)
	}
	if err := l.store.Set(ledgerKey, encoded); err != nil {
		return fmt.Errorf("persist audit ledger: %w", err)
	}

	if l.bus != nil {
		l.bus.Publish(bus.EventAuditAppended, entry)
	}
	return nil
}

// List returns all entries ordered by timestamp descending, most recent
// first, regardless of append order.
func (l *Ledger) List() []Entry {
	entries := l.loadEntries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TS.After(entries[j].TS)
	})
	return entries
}

// Clear removes every entry. This is an explicit administrative reset, not
// part of normal operation.
func (l *Ledger) Clear() error {
	encoded, err := json.Marshal([]Entry{})
	if err != nil {
		return fmt.Errorf("marshal audit ledger: %w", err)
	}
	if err := l.store.Set(ledgerKey, encoded); err != nil {
		return fmt.Errorf("clear audit ledger: %w", err)
	}
	return nil
}

func (l *Ledger) loadEntries() []Entry {
	data, ok, err := l.store.Get(ledgerKey)
	if err != nil || !ok {
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return []Entry{}
	}
	return entries
}
