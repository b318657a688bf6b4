// Package handlers contains Telegram bot command, message, and callback
// handlers, along with their registration logic.
package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Callback data prefixes for the inline keyboard controls attached to
// reminder and escalation messages. The reminder ID follows the prefix.
const (
	CallbackAckPrefix        = "ack:"
	CallbackConfirmYesPrefix = "confirm_yes:"
	CallbackConfirmNoPrefix  = "confirm_no:"
)

// NewCallbackHandler returns the handler for all reminder inline-keyboard
// callbacks: acknowledgment and the two escalation answers.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cq := update.CallbackQuery
	if cq == nil {
		log.WarnContext(ctx, "Callback handler received update without callback query", "update_id", update.ID)
		return
	}

	data := cq.Data
	var err error
	switch {
	case strings.HasPrefix(data, CallbackAckPrefix):
		if id, ok := parseCallbackID(data, CallbackAckPrefix); ok {
			err = h.deps.Delivery.Ack(ctx, id)
		}
	case strings.HasPrefix(data, CallbackConfirmYesPrefix):
		if id, ok := parseCallbackID(data, CallbackConfirmYesPrefix); ok {
			err = h.deps.Delivery.ConfirmYes(ctx, id)
		}
	case strings.HasPrefix(data, CallbackConfirmNoPrefix):
		if id, ok := parseCallbackID(data, CallbackConfirmNoPrefix); ok {
			err = h.deps.Delivery.ConfirmNo(ctx, id)
		}
	default:
		log.WarnContext(ctx, "Unknown callback data", "data", data)
	}

	if err != nil {
		log.ErrorContext(ctx, "Callback processing failed", "data", data, "error", err)
	}

	// Always answer the callback query so the client stops the spinner,
	// even for redundant or unknown callbacks.
	if _, ansErr := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	}); ansErr != nil {
		log.ErrorContext(ctx, "Failed to answer callback query", "error", ansErr)
	}

	h.removeKeyboard(ctx, b, cq)
}

// removeKeyboard strips the inline keyboard from the message the user
// tapped, so stale controls cannot produce duplicate callbacks.
func (h callbackHandler) removeKeyboard(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery) {
	// Date is zero for inaccessible messages, which cannot be edited
	if cq.Message.Message.Date == 0 {
		return
	}

	_, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:    cq.Message.Message.Chat.ID,
		MessageID: cq.Message.Message.ID,
	})
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to remove inline keyboard", "error", err)
	}
}

func parseCallbackID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
