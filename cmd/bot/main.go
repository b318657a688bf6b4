// Package main contains the entrypoint for the reminder bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ashmarin/remindbot/internal/bot"
	"github.com/ashmarin/remindbot/internal/bot/handlers"
	"github.com/ashmarin/remindbot/internal/bot/tasks"
	"github.com/ashmarin/remindbot/internal/config"
	"github.com/ashmarin/remindbot/internal/database"
	"github.com/ashmarin/remindbot/internal/logger"
	"github.com/ashmarin/remindbot/internal/parser"
	"github.com/ashmarin/remindbot/internal/scheduler"
	"github.com/ashmarin/remindbot/internal/telegram"
	"github.com/ashmarin/remindbot/internal/transcriber"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// parser, delivery scheduler, transcriber, bot), handles graceful shutdown,
// and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	loc, err := time.LoadLocation(cfg.Parser.Timezone)
	if err != nil {
		log.Error("Failed to load parser timezone", "timezone", cfg.Parser.Timezone, "error", err)
		return 1
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	transcriberClient, err := transcriber.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize transcriber client", "error", err)
		return 1
	}

	// The default handler needs the delivery scheduler, which in turn needs
	// a notifier backed by the bot instance. The indirection below lets the
	// bot be created first and the handler bound once wiring completes.
	var defaultHandler tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if defaultHandler != nil {
				defaultHandler(ctx, b, update)
			}
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	notifier := telegram.NewNotifier(tg, log, cfg.Messages)
	delivery := scheduler.New(log, store, notifier, scheduler.Options{
		MaxAttempts:   cfg.Delivery.MaxAttempts,
		RetryInterval: cfg.Delivery.RetryInterval,
	})

	hDeps := handlers.HandlerDeps{
		Logger:      log,
		Config:      cfg,
		Store:       store,
		Parser:      parser.New(loc),
		Delivery:    delivery,
		Location:    loc,
		Transcriber: transcriberClient,
	}
	defaultHandler = handlers.NewReminderHandler(hDeps)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	cron, err := bot.NewCronScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create cron scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, delivery, tg, cron)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
