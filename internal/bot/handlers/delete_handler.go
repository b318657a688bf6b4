package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDeleteHandler returns a handler for the /delete <id> command.
func NewDeleteHandler(deps HandlerDeps) bot.HandlerFunc {
	return deleteHandler{deps}.Handle
}

type deleteHandler struct {
	deps HandlerDeps
}

func (h deleteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "delete")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Delete handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	args := strings.Fields(update.Message.Text)
	if len(args) < 2 {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.DeleteUsage, log)
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(args[1], "#"), 10, 64)
	if err != nil || id <= 0 {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.DeleteUsage, log)
		return
	}

	// Reminders belong to the chat that created them; a foreign ID is
	// treated the same as an absent one.
	rec, err := h.deps.Store.GetReminder(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up reminder", "error", err, "reminder_id", id, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError, log)
		return
	}
	if rec != nil && rec.ChatID != chatID {
		log.WarnContext(ctx, "Delete request for reminder owned by another chat",
			"reminder_id", id, "chat_id", chatID, "owner_chat_id", rec.ChatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.Deleted, log)
		return
	}

	// Deleting an absent reminder is a no-op, so the reply is the same
	// either way and duplicate requests stay harmless.
	if err := h.deps.Delivery.Cancel(ctx, id); err != nil {
		log.ErrorContext(ctx, "Failed to cancel reminder", "error", err, "reminder_id", id, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError, log)
		return
	}

	log.InfoContext(ctx, "Reminder deleted by user", "reminder_id", id, "chat_id", chatID)
	h.reply(ctx, b, chatID, h.deps.Config.Messages.Deleted, log)
}

func (h deleteHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send delete reply", "error", err, "chat_id", chatID)
	}
}
