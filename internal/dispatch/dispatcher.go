package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/modules"
	"github.com/financeos/financeos/internal/policy"
)

// Status is the terminal outcome of one dispatched action.
type Status string

const (
	StatusDenied        Status = "denied"
	StatusNeedsApproval Status = "needs_approval"
	StatusExecuted      Status = "executed"
)

// Result is what a caller gets back from Dispatch.
type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Completion is the action.completed event payload.
type Completion struct {
	Request actions.Request `json:"request"`
	Status  Status          `json:"status"`
}

// PolicySource supplies the current policy state.
type PolicySource interface {
	Load() policy.State
}

// PermissionChecker answers whether a module currently holds a permission.
type PermissionChecker interface {
	IsGranted(moduleID string, permission modules.Permission) bool
	Installed(moduleID string) (modules.Installed, bool)
}

// Dispatcher sequences evaluation, audit and notification for a single
// action request. It is the only governance component external callers
// invoke directly. All collaborators are injected; the dispatcher keeps no
// state of its own.
type Dispatcher struct {
	policies PolicySource
	ledger   *audit.Ledger
	bus      *bus.Bus
	gate     PermissionChecker
	now      func() time.Time
	newID    func() string
}

// NewDispatcher wires a dispatcher over its collaborators.
func NewDispatcher(policies PolicySource, ledger *audit.Ledger, eventBus *bus.Bus) *Dispatcher {
	return &Dispatcher{
		policies: policies,
		ledger:   ledger,
		bus:      eventBus,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SetPermissionGate makes the dispatcher verify, per action, that the
// originating module still holds the permission its kind implies. Without a
// gate, capability checks happen only at install time.
func (d *Dispatcher) SetPermissionGate(checker PermissionChecker) {
	d.gate = checker
}

// Dispatch runs one request through the governance pipeline. Every call
// appends exactly one audit entry and publishes exactly one
// action.completed event; calling it twice with the same request id
// produces two independent audit entries. A failed audit append fails the
// dispatch, since silently losing the trail would break accountability.
func (d *Dispatcher) Dispatch(ctx context.Context, request actions.Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	d.bus.Publish(bus.EventActionRequested, request)

	if reason, denied := d.checkPermission(request); denied {
		if err := d.append(audit.Entry{
			ID:          d.newID(),
			TS:          d.now().UTC(),
			Level:       audit.LevelWarning,
			Title:       "Action denied",
			Description: reason,
			Actor:       "Permission Gate",
			ModuleID:    request.ModuleID,
			Data:        requestData(request),
		}); err != nil {
			return Result{}, err
		}
		d.complete(request, StatusDenied)
		return Result{Status: StatusDenied, Reason: reason}, nil
	}

	state := d.policies.Load()
	decision := policy.Evaluate(state, request)

	if decision.Status == policy.StatusDeny {
		description := decision.Reason
		if description == "" {
			description = "Policy denied the action request."
		}
		if err := d.append(audit.Entry{
			ID:          d.newID(),
			TS:          d.now().UTC(),
			Level:       audit.LevelWarning,
			Title:       "Action denied",
			Description: description,
			Actor:       "Policy Engine",
			ModuleID:    request.ModuleID,
			Data:        requestData(request),
		}); err != nil {
			return Result{}, err
		}
		d.complete(request, StatusDenied)
		return Result{Status: StatusDenied, Reason: decision.Reason}, nil
	}

	if decision.RequiresUserApproval {
		description := decision.Reason
		if description == "" {
			description = "Waiting for user approval."
		}
		if err := d.append(audit.Entry{
			ID:          d.newID(),
			TS:          d.now().UTC(),
			Level:       audit.LevelInfo,
			Title:       "Action awaiting approval",
			Description: description,
			Actor:       "Policy Engine",
			ModuleID:    request.ModuleID,
			Data:        requestData(request),
		}); err != nil {
			return Result{}, err
		}
		d.complete(request, StatusNeedsApproval)
		return Result{Status: StatusNeedsApproval, Reason: decision.Reason}, nil
	}

	// Execution is simulated: "executed" means cleared governance. Real
	// side effects belong to the collaborator handed this result.
	if err := d.append(audit.Entry{
		ID:          d.newID(),
		TS:          d.now().UTC(),
		Level:       audit.LevelInfo,
		Title:       "Action executed",
		Description: "Execution simulated successfully.",
		Actor:       "Automation Runtime",
		ModuleID:    request.ModuleID,
		Data:        requestData(request),
	}); err != nil {
		return Result{}, err
	}
	d.complete(request, StatusExecuted)
	return Result{Status: StatusExecuted}, nil
}

// checkPermission applies the per-dispatch capability check when a gate is
// configured. Core modules pass once installed and enabled; their manifests
// only request read, yet they act on the user's own behalf.
func (d *Dispatcher) checkPermission(request actions.Request) (string, bool) {
	if d.gate == nil {
		return "", false
	}

	installed, ok := d.gate.Installed(request.ModuleID)
	if !ok || !installed.Enabled {
		return fmt.Sprintf("Module %s is not installed or enabled.", request.ModuleID), true
	}

	if manifest, ok := modules.ManifestByID(request.ModuleID); ok && manifest.IsCore() {
		return "", false
	}

	permission := PermissionForKind(request.Kind)
	if !d.gate.IsGranted(request.ModuleID, permission) {
		return fmt.Sprintf("Module %s does not hold the %s permission.", request.ModuleID, permission), true
	}
	return "", false
}

// PermissionForKind maps an action kind to the permission it implies.
func PermissionForKind(kind string) modules.Permission {
	switch kind {
	case "trade":
		return modules.PermissionTrade
	case "move_funds":
		return modules.PermissionMoveFunds
	case "notify":
		return modules.PermissionSuggest
	default:
		return modules.PermissionRead
	}
}

func (d *Dispatcher) append(entry audit.Entry) error {
	if err := d.ledger.Append(entry); err != nil {
		return fmt.Errorf("audit dispatch outcome: %w", err)
	}
	return nil
}

func (d *Dispatcher) complete(request actions.Request, status Status) {
	d.bus.Publish(bus.EventActionCompleted, Completion{Request: request, Status: status})
}

func requestData(request actions.Request) map[string]any {
	return map[string]any{
		"actionId": request.ID,
		"kind":     request.Kind,
		"summary":  request.Summary,
	}
}
