package notify

import (
	"context"
	"log/slog"

	"github.com/financeos/financeos/internal/config"
)

// Channel delivers one outbound message.
type Channel interface {
	Name() string
	Send(ctx context.Context, message string) error
}

// EmailChannel simulates email delivery. Wiring a real SMTP relay is a
// deliberate non-feature for a local dashboard; delivery is logged instead.
type EmailChannel struct {
	cfg config.EmailConfig
}

// NewEmailChannel creates an email channel.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(_ context.Context, message string) error {
	slog.Info("email notification delivered", "from", c.cfg.From, "to", c.cfg.To, "message", message)
	return nil
}

// SMSChannel simulates sms delivery.
type SMSChannel struct {
	cfg config.SMSConfig
}

// NewSMSChannel creates an sms channel.
func NewSMSChannel(cfg config.SMSConfig) *SMSChannel {
	return &SMSChannel{cfg: cfg}
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Send(_ context.Context, message string) error {
	slog.Info("sms notification delivered", "to", c.cfg.To, "message", message)
	return nil
}
