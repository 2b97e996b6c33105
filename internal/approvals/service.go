package approvals

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/dispatch"
	"github.com/financeos/financeos/internal/kvstore"
)

const (
	storageKey = "financeos.approvals.v1"
	defaultTTL = 24 * time.Hour
)

// Status is the lifecycle state of an approval record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Record is a persisted approval record for an action that dispatch parked.
type Record struct {
	ID          string          `json:"id"`
	Request     actions.Request `json:"request"`
	Status      Status          `json:"status"`
	RequestedAt time.Time       `json:"requestedAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	DecidedAt   *time.Time      `json:"decidedAt,omitempty"`
	Note        string          `json:"note,omitempty"`
}

// Service tracks actions awaiting user approval. Deciding a record is an
// audit event only; re-dispatching the action stays with the user.
type Service struct {
	store  kvstore.Store
	ledger *audit.Ledger
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex
}

// NewService creates an approval service with the default TTL.
func NewService(store kvstore.Store, ledger *audit.Ledger) *Service {
	return &Service{
		store:  store,
		ledger: ledger,
		ttl:    defaultTTL,
		now:    time.Now,
	}
}

// SetTTL overrides how long pending records stay decidable.
func (s *Service) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// Attach subscribes the service to completed actions so every parked action
// gets a pending record. The returned func detaches it.
func (s *Service) Attach(eventBus *bus.Bus) func() {
	return eventBus.Subscribe(bus.EventActionCompleted, func(payload any) {
		completion, ok := payload.(dispatch.Completion)
		if !ok || completion.Status != dispatch.StatusNeedsApproval {
			return
		}
		if err := s.Track(completion.Request); err != nil {
			slog.Warn("failed to track pending approval", "actionId", completion.Request.ID, "error", err)
		}
	})
}

// Track inserts a pending record for the request.
func (s *Service) Track(request actions.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	now := s.now().UTC()
	records = append(records, Record{
		ID:          request.ID,
		Request:     request,
		Status:      StatusPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(s.ttl),
	})
	return s.save(records)
}

// Approve marks a pending record as approved.
func (s *Service) Approve(id, note string) (Record, error) {
	return s.decide(id, StatusApproved, note, "Action approved", "User approved the action.")
}

// Reject marks a pending record as rejected.
func (s *Service) Reject(id, note string) (Record, error) {
	return s.decide(id, StatusRejected, note, "Action rejected", "User rejected the action.")
}

// List returns records newest first, optionally filtered by status.
func (s *Service) List(status Status) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RequestedAt.After(records[j].RequestedAt)
	})
	if status == "" {
		return records
	}
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Status == status {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// Get returns the record with the given id.
func (s *Service) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.load() {
		if record.ID == id {
			return record, true
		}
	}
	return Record{}, false
}

// ExpirePending marks pending records as expired once their TTL elapsed.
func (s *Service) ExpirePending() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	now := s.now().UTC()
	var expired []Record
	changed := false

	for i := range records {
		record := &records[i]
		if record.Status != StatusPending {
			continue
		}
		if record.ExpiresAt.IsZero() || record.ExpiresAt.After(now) {
			continue
		}
		record.Status = StatusExpired
		decidedAt := now
		record.DecidedAt = &decidedAt
		if record.Note == "" {
			record.Note = "Expired without a decision."
		}
		expired = append(expired, *record)
		changed = true
	}

	if changed {
		if err := s.save(records); err != nil {
			return nil, err
		}
		for _, record := range expired {
			s.audit(record, audit.LevelWarning, "Approval expired",
				"Pending approval expired without a decision.", "Automation Runtime")
		}
	}
	return expired, nil
}

func (s *Service) decide(id string, status Status, note, title, defaultNote string) (Record, error) {
	recordID := strings.TrimSpace(id)
	if recordID == "" {
		return Record{}, fmt.Errorf("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	for i := range records {
		record := &records[i]
		if record.ID != recordID {
			continue
		}
		if record.Status != StatusPending {
			return Record{}, fmt.Errorf("approval %s is not pending", recordID)
		}

		record.Status = status
		decidedAt := s.now().UTC()
		record.DecidedAt = &decidedAt
		record.Note = strings.TrimSpace(note)
		if record.Note == "" {
			record.Note = defaultNote
		}

		if err := s.save(records); err != nil {
			return Record{}, err
		}
		s.audit(*record, audit.LevelInfo, title, record.Note, "User")
		return *record, nil
	}

	return Record{}, fmt.Errorf("approval not found: %s", recordID)
}

func (s *Service) load() []Record {
	data, found, err := s.store.Get(storageKey)
	if err != nil || !found {
		if err != nil {
			slog.Warn("failed to read approvals", "error", err)
		}
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("discarding corrupt approvals", "error", err)
		return nil
	}
	return records
}

func (s *Service) save(records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal approvals: %w", err)
	}
	if err := s.store.Set(storageKey, data); err != nil {
		return fmt.Errorf("persist approvals: %w", err)
	}
	return nil
}

func (s *Service) audit(record Record, level audit.Level, title, description, actor string) {
	if s.ledger == nil {
		return
	}
	entry := audit.Entry{
		ID:          uuid.NewString(),
		TS:          s.now().UTC(),
		Level:       level,
		Title:       title,
		Description: description,
		Actor:       actor,
		ModuleID:    record.Request.ModuleID,
		Data: map[string]any{
			"actionId": record.ID,
		},
	}
	if err := s.ledger.Append(entry); err != nil {
		slog.Warn("failed to audit approval decision", "title", title, "error", err)
	}
}
