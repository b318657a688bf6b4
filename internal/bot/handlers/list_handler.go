package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewListHandler returns a handler for the /list command showing the
// chat's pending reminders ordered by fire time.
func NewListHandler(deps HandlerDeps) bot.HandlerFunc {
	return listHandler{deps}.Handle
}

type listHandler struct {
	deps HandlerDeps
}

func (h listHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "list")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "List handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	reminders, err := h.deps.Store.ListPending(ctx, chatID, time.Now().Unix(), h.deps.Config.Delivery.PendingLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list pending reminders", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError, log)
		return
	}

	if len(reminders) == 0 {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.ListEmpty, log)
		return
	}

	var sb strings.Builder
	sb.WriteString(h.deps.Config.Messages.ListHeader)
	for _, r := range reminders {
		fireAt := time.Unix(r.RunAt, 0).In(h.deps.Location)
		sb.WriteString(fmt.Sprintf("\n#%d — %s (%s)", r.ID, r.Text, fireAt.Format("02.01 15:04")))
	}

	h.reply(ctx, b, chatID, sb.String(), log)
	log.DebugContext(ctx, "Sent pending reminder list", "chat_id", chatID, "count", len(reminders))
}

func (h listHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send list reply", "error", err, "chat_id", chatID)
	}
}
