package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for reminder persistence.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateReminder inserts a new reminder and returns its assigned ID.
	CreateReminder(ctx context.Context, chatID int64, text string, runAt int64) (int64, error)

	// GetReminder retrieves a reminder by ID. Returns nil, nil if not found.
	GetReminder(ctx context.Context, id int64) (*Reminder, error)

	// UpdateReminder applies a partial update to a reminder's delivery fields.
	UpdateReminder(ctx context.Context, id int64, upd ReminderUpdate) error

	// DeleteReminder deletes a reminder by ID. Deleting an absent ID is a no-op.
	DeleteReminder(ctx context.Context, id int64) error

	// ListPending retrieves up to 'limit' undelivered reminders for a chat,
	// ordered by run_at ascending. The reference instant deliberately does
	// not filter the result: overdue reminders stay pending until
	// acknowledged, and hiding them would make the list lie mid-retry.
	ListPending(ctx context.Context, chatID int64, now int64, limit int) ([]Reminder, error)

	// ListRecoverable retrieves the IDs of all reminders that need an active
	// delivery process: not acknowledged and not awaiting escalation confirmation.
	ListRecoverable(ctx context.Context) ([]int64, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateReminder inserts a new reminder record and returns the assigned ID.
func (s *sqlxStore) CreateReminder(ctx context.Context, chatID int64, text string, runAt int64) (int64, error) {
	if chatID == 0 {
		return 0, fmt.Errorf("reminder must have a non-zero chat_id")
	}
	if text == "" {
		return 0, fmt.Errorf("reminder must have non-empty text")
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO reminders (chat_id, text, run_at, attempts, acknowledged, awaiting_confirm, created_at, updated_at)
        VALUES (?, ?, ?, 0, 0, 0, ?, ?);
    `

	result, err := s.db.ExecContext(ctx, query, chatID, text, runAt, now, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating reminder", "chat_id", chatID, "error", err)
		return 0, fmt.Errorf("failed to create reminder for chat %d: %w", chatID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.ErrorContext(ctx, "Could not retrieve last insert ID after creating reminder",
			"chat_id", chatID, "error", err)
		return 0, fmt.Errorf("failed to get reminder ID: %w", err)
	}

	s.logger.DebugContext(ctx, "Reminder created successfully",
		"reminder_id", id, "chat_id", chatID, "run_at", runAt)
	return id, nil
}

// GetReminder retrieves a reminder by ID. Returns nil, nil if not found.
func (s *sqlxStore) GetReminder(ctx context.Context, id int64) (*Reminder, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var reminder Reminder
	query := `SELECT id, chat_id, text, run_at, attempts, acknowledged, awaiting_confirm, created_at, updated_at
	          FROM reminders WHERE id = ?`

	err := s.db.GetContext(ctx, &reminder, query, id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Not found is expected after terminal transitions, not an error
		s.logger.DebugContext(ctx, "No reminder found", "reminder_id", id)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting reminder by ID", "reminder_id", id, "error", err)
		return nil, fmt.Errorf("failed to get reminder %d: %w", id, err)
	}

	return &reminder, nil
}

// UpdateReminder applies a partial update to a reminder's delivery fields.
// Only non-nil fields of the update are written.
func (s *sqlxStore) UpdateReminder(ctx context.Context, id int64, upd ReminderUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if upd.RunAt != nil {
		sets = append(sets, "run_at = ?")
		args = append(args, *upd.RunAt)
	}
	if upd.Attempts != nil {
		sets = append(sets, "attempts = ?")
		args = append(args, *upd.Attempts)
	}
	if upd.Acknowledged != nil {
		sets = append(sets, "acknowledged = ?")
		args = append(args, *upd.Acknowledged)
	}
	if upd.AwaitingConfirm != nil {
		sets = append(sets, "awaiting_confirm = ?")
		args = append(args, *upd.AwaitingConfirm)
	}
	if len(sets) == 0 {
		return nil // Nothing to update
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE reminders SET %s WHERE id = ?", strings.Join(sets, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating reminder", "reminder_id", id, "error", err)
		return fmt.Errorf("failed to update reminder %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		s.logger.DebugContext(ctx, "Update targeted absent reminder", "reminder_id", id)
	}

	return nil
}

// DeleteReminder deletes a reminder by ID. Deleting an absent ID is a no-op,
// which protects against duplicate callback delivery from the transport.
func (s *sqlxStore) DeleteReminder(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting reminder", "reminder_id", id, "error", err)
		return fmt.Errorf("failed to delete reminder %d: %w", id, err)
	}

	affected, _ := result.RowsAffected()
	s.logger.DebugContext(ctx, "Reminder delete executed", "reminder_id", id, "affected", affected)
	return nil
}

// ListPending retrieves up to 'limit' undelivered reminders for a chat,
// ordered by run_at ascending. now intentionally does not appear in the
// query; see the Store interface doc.
func (s *sqlxStore) ListPending(ctx context.Context, chatID int64, now int64, limit int) ([]Reminder, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if limit <= 0 {
		limit = 20
		s.logger.DebugContext(ctx, "Invalid limit provided, using default", "chat_id", chatID, "default_limit", limit)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var reminders []Reminder
	query := `
        SELECT id, chat_id, text, run_at, attempts, acknowledged, awaiting_confirm, created_at, updated_at
        FROM reminders
        WHERE chat_id = ? AND acknowledged = 0
        ORDER BY run_at ASC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &reminders, query, chatID, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing pending reminders", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to list pending reminders for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Listed pending reminders", "chat_id", chatID, "count", len(reminders))
	return reminders, nil
}

// ListRecoverable retrieves the IDs of all reminders that need an active
// delivery process after a restart: not acknowledged and not awaiting
// an escalation answer.
func (s *sqlxStore) ListRecoverable(ctx context.Context) ([]int64, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var ids []int64
	query := `SELECT id FROM reminders WHERE acknowledged = 0 AND awaiting_confirm = 0 ORDER BY run_at ASC`

	err := s.db.SelectContext(ctx, &ids, query)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing recoverable reminders", "error", err)
		return nil, fmt.Errorf("failed to list recoverable reminders: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed recoverable reminders", "count", len(ids))
	return ids, nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
