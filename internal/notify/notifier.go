package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/dispatch"
)

// Notifier listens for executed notify actions and delivers them over the
// registered channels. Delivery failures are audited, never propagated.
type Notifier struct {
	channels map[actions.NotifyChannel]Channel
	ledger   *audit.Ledger
	now      func() time.Time
}

// NewNotifier creates a notifier with no channels registered.
func NewNotifier(ledger *audit.Ledger) *Notifier {
	return &Notifier{
		channels: make(map[actions.NotifyChannel]Channel),
		ledger:   ledger,
		now:      time.Now,
	}
}

// Register binds a channel to a notify channel name.
func (n *Notifier) Register(name actions.NotifyChannel, channel Channel) {
	n.channels[name] = channel
}

// Attach subscribes the notifier to completed actions. The returned func
// detaches it again.
func (n *Notifier) Attach(eventBus *bus.Bus) func() {
	return eventBus.Subscribe(bus.EventActionCompleted, func(payload any) {
		completion, ok := payload.(dispatch.Completion)
		if !ok {
			return
		}
		n.handle(completion)
	})
}

func (n *Notifier) handle(completion dispatch.Completion) {
	if completion.Status != dispatch.StatusExecuted {
		return
	}
	request := completion.Request
	if request.Notify == nil {
		return
	}
	n.Deliver(context.Background(), request)
}

// Deliver sends the request's notify intent over its channel.
func (n *Notifier) Deliver(ctx context.Context, request actions.Request) {
	intent := request.Notify
	if intent == nil {
		return
	}

	channel, ok := n.channels[intent.Channel]
	if !ok {
		n.audit(request, audit.LevelWarning, "Notification dropped",
			fmt.Sprintf("No channel registered for %q.", intent.Channel))
		return
	}

	if err := channel.Send(ctx, intent.Message); err != nil {
		slog.Warn("notification delivery failed", "channel", channel.Name(), "error", err)
		n.audit(request, audit.LevelWarning, "Notification failed",
			fmt.Sprintf("Delivery over %s failed: %v", channel.Name(), err))
		return
	}

	n.audit(request, audit.LevelInfo, "Notification delivered",
		fmt.Sprintf("Delivered over %s.", channel.Name()))
}

func (n *Notifier) audit(request actions.Request, level audit.Level, title, description string) {
	if n.ledger == nil {
		return
	}
	entry := audit.Entry{
		ID:          uuid.NewString(),
		TS:          n.now().UTC(),
		Level:       level,
		Title:       title,
		Description: description,
		Actor:       "Automation Runtime",
		ModuleID:    request.ModuleID,
		Data: map[string]any{
			"actionId": request.ID,
		},
	}
	if err := n.ledger.Append(entry); err != nil {
		slog.Warn("failed to audit notification outcome", "title", title, "error", err)
	}
}
