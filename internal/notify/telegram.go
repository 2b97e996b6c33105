package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/financeos/financeos/internal/config"
)

// TelegramChannel pushes messages to a fixed chat via the bot API.
type TelegramChannel struct {
	cfg config.TelegramConfig
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel creates a telegram push channel. The bot connects
// lazily on first send.
func NewTelegramChannel(cfg config.TelegramConfig) *TelegramChannel {
	return &TelegramChannel{cfg: cfg}
}

func (c *TelegramChannel) Name() string { return "push" }

func (c *TelegramChannel) Send(_ context.Context, message string) error {
	if c.bot == nil {
		bot, err := tgbotapi.NewBotAPI(c.cfg.Token)
		if err != nil {
			return fmt.Errorf("telegram init failed: %w", err)
		}
		c.bot = bot
	}

	msg := tgbotapi.NewMessage(c.cfg.ChatID, message)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}
