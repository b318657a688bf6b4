// Package tasks implements scheduled background tasks for the reminder bot.
package tasks

import (
	"log/slog"

	"github.com/ashmarin/remindbot/internal/config"
	"github.com/ashmarin/remindbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
