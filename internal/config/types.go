// Package config provides configuration loading, validation, and defaults
// for the reminder bot. Values come from config.yaml and BOT_* environment
// variables.
package config

import "time"

// Config defines the application configuration for all components.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Parser    ParserConfig    `mapstructure:"parser"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds the bot token.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ParserConfig holds the reference timezone against which all human time
// expressions are resolved. Persisted fire times stay timezone-independent.
type ParserConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// DeliveryConfig tunes the delivery state machine.
type DeliveryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"   validate:"required,gt=0"`
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"required,min=1s"`
	PendingLimit  int           `mapstructure:"pending_limit"  validate:"required,gt=0"`
}

// GeminiConfig configures the optional voice transcriber. An empty APIKey
// disables voice message handling.
type GeminiConfig struct {
	APIKey            string `mapstructure:"api_key"`
	ModelName         string `mapstructure:"model_name"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// SchedulerConfig configures cron-style background tasks.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds all user-facing message templates.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"`
	Unrecognized     string `mapstructure:"unrecognized"`
	InvalidTime      string `mapstructure:"invalid_time"`
	InvalidDuration  string `mapstructure:"invalid_duration"`
	ScheduledAt      string `mapstructure:"scheduled_at"`
	ReminderPrefix   string `mapstructure:"reminder_prefix"`
	EscalationPrompt string `mapstructure:"escalation_prompt"`
	AckButton        string `mapstructure:"ack_button"`
	YesButton        string `mapstructure:"yes_button"`
	NoButton         string `mapstructure:"no_button"`
	ListEmpty        string `mapstructure:"list_empty"`
	ListHeader       string `mapstructure:"list_header"`
	Deleted          string `mapstructure:"deleted"`
	DeleteUsage      string `mapstructure:"delete_usage"`
	GeneralError     string `mapstructure:"general_error"`
	VoiceDisabled    string `mapstructure:"voice_disabled"`
	VoiceError       string `mapstructure:"voice_error"`
}
