package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ashmarin/remindbot/internal/parser"
)

// NewReminderHandler returns the bot's default handler: it turns free-form
// text (or a transcribed voice message) into a scheduled reminder.
func NewReminderHandler(deps HandlerDeps) bot.HandlerFunc {
	return reminderHandler{deps}.Handle
}

type reminderHandler struct {
	deps HandlerDeps
}

func (h reminderHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reminder")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	text := msg.Text
	if msg.Voice != nil {
		var ok bool
		text, ok = h.transcribeVoice(ctx, b, chatID, msg.Voice, log)
		if !ok {
			return
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.DebugContext(ctx, "Ignoring empty message", "chat_id", chatID)
		return
	}
	// Unknown commands fall through to the default handler; they are not
	// reminder text.
	if strings.HasPrefix(text, "/") {
		log.DebugContext(ctx, "Ignoring unknown command", "chat_id", chatID, "text", text)
		return
	}

	now := time.Now()
	result, err := h.deps.Parser.Parse(text, now)
	if err != nil {
		h.reply(ctx, b, chatID, h.parseErrorMessage(err), log)
		return
	}

	id, err := h.deps.Store.CreateReminder(ctx, chatID, result.Body, result.RunAt.Unix())
	if err != nil {
		log.ErrorContext(ctx, "Failed to create reminder", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError, log)
		return
	}

	h.deps.Delivery.Schedule(id)

	log.InfoContext(ctx, "Reminder created and scheduled",
		"reminder_id", id, "chat_id", chatID, "run_at", result.RunAt.Unix())

	fireAt := result.RunAt.In(h.deps.Location)
	when := "в " + fireAt.Format("15:04")
	if !sameDay(now.In(h.deps.Location), fireAt) {
		when = fireAt.Format("02.01 в 15:04")
	}
	h.reply(ctx, b, chatID, fmt.Sprintf(h.deps.Config.Messages.ScheduledAt, when, result.Body), log)
}

// transcribeVoice downloads and transcribes a voice message. The second
// return value is false when handling should stop (disabled transcriber or
// a failure already reported to the user).
func (h reminderHandler) transcribeVoice(ctx context.Context, b *bot.Bot, chatID int64, voice *models.Voice, log *slog.Logger) (string, bool) {
	if h.deps.Transcriber == nil {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.VoiceDisabled, log)
		return "", false
	}

	data, mimeType, err := DownloadVoice(ctx, b, h.deps.Config.Telegram.Token, voice)
	if err != nil {
		log.ErrorContext(ctx, "Voice download failed", "error", err, "chat_id", chatID, "file_id", voice.FileID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.VoiceError, log)
		return "", false
	}

	text, err := h.deps.Transcriber.Transcribe(ctx, mimeType, data)
	if err != nil {
		log.ErrorContext(ctx, "Voice transcription failed", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.VoiceError, log)
		return "", false
	}

	log.DebugContext(ctx, "Voice message transcribed", "chat_id", chatID, "text_len", len(text))
	return text, true
}

func (h reminderHandler) parseErrorMessage(err error) string {
	msgs := h.deps.Config.Messages
	switch {
	case errors.Is(err, parser.ErrInvalidTime):
		return msgs.InvalidTime
	case errors.Is(err, parser.ErrInvalidDuration):
		return msgs.InvalidDuration
	default:
		return msgs.Unrecognized
	}
}

func (h reminderHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
