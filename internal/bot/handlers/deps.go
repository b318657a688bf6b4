package handlers

import (
	"log/slog"
	"time"

	"github.com/ashmarin/remindbot/internal/config"
	"github.com/ashmarin/remindbot/internal/database"
	"github.com/ashmarin/remindbot/internal/parser"
	"github.com/ashmarin/remindbot/internal/scheduler"
	"github.com/ashmarin/remindbot/internal/transcriber"
)

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Parser   *parser.Parser
	Delivery *scheduler.Scheduler

	// Location is the reference timezone used for displaying times;
	// the parser resolves expressions against the same zone.
	Location *time.Location

	// Transcriber is nil when voice transcription is not configured.
	Transcriber transcriber.Client
}
