// Package bot implements lifecycle management and component orchestration
// for the reminder bot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/ashmarin/remindbot/internal/config"
	"github.com/ashmarin/remindbot/internal/database"
	"github.com/ashmarin/remindbot/internal/scheduler"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger   *slog.Logger
	cfg      *config.Config
	db       *sqlx.DB
	store    database.Store
	delivery *scheduler.Scheduler
	tgBot    *tgbot.Bot
	cron     *CronScheduler
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	delivery *scheduler.Scheduler,
	tgBot *tgbot.Bot,
	cron *CronScheduler,
) *Bot {
	return &Bot{
		logger:   logger.With("component", "bot_orchestrator"),
		cfg:      cfg,
		db:       db,
		store:    store,
		delivery: delivery,
		tgBot:    tgBot,
		cron:     cron,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on
// context cancellation. Pending reminders are recovered from the database
// before the Telegram listener starts, so nothing scheduled across a restart
// is lost.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	if err := b.delivery.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover pending reminders: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.cron.Start(); err != nil {
			return fmt.Errorf("failed to start cron scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping cron scheduler...")

		if err := b.cron.Stop(); err != nil {
			b.logger.Error("Error stopping cron scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()

	b.logger.Info("Stopping reminder delivery...")
	b.delivery.Shutdown()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
