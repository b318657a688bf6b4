package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath
// 3. BOT_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow missing config file; defaults plus environment are enough
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// The reference timezone must resolve; a bad zone name would silently
	// skew every scheduled time otherwise.
	if _, err := time.LoadLocation(cfg.Parser.Timezone); err != nil {
		return nil, fmt.Errorf("invalid parser timezone %q: %w", cfg.Parser.Timezone, err)
	}

	return cfg, nil
}

// setDefaults sets default values for optional configuration parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("parser.timezone", "Europe/Moscow")

	v.SetDefault("delivery.max_attempts", 3)
	v.SetDefault("delivery.retry_interval", 120*time.Second)
	v.SetDefault("delivery.pending_limit", 25)

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 2)

	v.SetDefault("scheduler.tasks.db_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.db_maintenance.schedule", "0 0 4 * * *")

	v.SetDefault("messages.welcome",
		"👋 Привет! Я бот-напоминалка.\n\n"+
			"Напиши мне, когда и о чём напомнить, например:\n"+
			"• напомни в 9 купить молоко\n"+
			"• в 19:30 позвонить маме\n"+
			"• через 15 минут выключить плиту\n\n"+
			"Команды: /list — активные напоминания, /delete <id> — удалить.")
	v.SetDefault("messages.unrecognized",
		"❌ Не понял, когда напомнить. Пример: «напомни в 19:30 сходить в зал» или «через 15 минут чай».")
	v.SetDefault("messages.invalid_time",
		"❌ Такого времени не бывает: часы 0–23, минуты 0–59.")
	v.SetDefault("messages.invalid_duration",
		"❌ Количество минут должно быть больше 0.")
	v.SetDefault("messages.scheduled_at", "⏰ Напомню %s: «%s»")
	v.SetDefault("messages.reminder_prefix", "🔔 Напоминание:\n%s")
	v.SetDefault("messages.escalation_prompt", "🔔 Ты точно получил напоминание?\n%s")
	v.SetDefault("messages.ack_button", "✅ Получил")
	v.SetDefault("messages.yes_button", "Да")
	v.SetDefault("messages.no_button", "Нет")
	v.SetDefault("messages.list_empty", "📭 Активных напоминаний нет.")
	v.SetDefault("messages.list_header", "📋 Активные напоминания:\n")
	v.SetDefault("messages.deleted", "🗑 Напоминание удалено.")
	v.SetDefault("messages.delete_usage", "ℹ️ Использование: /delete <id>")
	v.SetDefault("messages.general_error", "❌ Ошибка. Попробуй ещё раз позже.")
	v.SetDefault("messages.voice_disabled", "🎤 Распознавание голосовых сообщений не настроено.")
	v.SetDefault("messages.voice_error", "🎤 Не удалось распознать голосовое сообщение.")
}
