package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ashmarin/remindbot/internal/bot/handlers"
	"github.com/ashmarin/remindbot/internal/config"
)

// Notifier delivers reminder notifications over Telegram with inline
// keyboard controls. It implements the scheduler's Notifier interface.
type Notifier struct {
	bot      *bot.Bot
	logger   *slog.Logger
	messages config.MessagesConfig
}

// NewNotifier creates a Notifier bound to a Telegram bot instance.
func NewNotifier(b *bot.Bot, logger *slog.Logger, messages config.MessagesConfig) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		bot:      b,
		logger:   logger.With("component", "notifier"),
		messages: messages,
	}
}

// SendReminder sends the reminder text with a single acknowledgment button.
func (n *Notifier) SendReminder(ctx context.Context, chatID, reminderID int64, text string) error {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{
				Text:         n.messages.AckButton,
				CallbackData: handlers.CallbackAckPrefix + fmt.Sprintf("%d", reminderID),
			},
		}},
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf(n.messages.ReminderPrefix, text),
		ReplyMarkup: keyboard,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to send reminder message",
			"chat_id", chatID, "reminder_id", reminderID, "error", err)
		return fmt.Errorf("failed to send reminder %d: %w", reminderID, err)
	}

	n.logger.DebugContext(ctx, "Reminder message sent", "chat_id", chatID, "reminder_id", reminderID)
	return nil
}

// SendEscalation sends the "did you receive this?" prompt with yes/no buttons.
func (n *Notifier) SendEscalation(ctx context.Context, chatID, reminderID int64, text string) error {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{
				Text:         n.messages.YesButton,
				CallbackData: handlers.CallbackConfirmYesPrefix + fmt.Sprintf("%d", reminderID),
			},
			{
				Text:         n.messages.NoButton,
				CallbackData: handlers.CallbackConfirmNoPrefix + fmt.Sprintf("%d", reminderID),
			},
		}},
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf(n.messages.EscalationPrompt, text),
		ReplyMarkup: keyboard,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to send escalation prompt",
			"chat_id", chatID, "reminder_id", reminderID, "error", err)
		return fmt.Errorf("failed to send escalation for reminder %d: %w", reminderID, err)
	}

	n.logger.DebugContext(ctx, "Escalation prompt sent", "chat_id", chatID, "reminder_id", reminderID)
	return nil
}
