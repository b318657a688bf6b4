// Package scheduler drives the reminder delivery state machine: one
// cooperatively cancelled process per reminder ID that sleeps until the
// reminder is due, notifies with retries, escalates after exhausting the
// retry budget, and honors out-of-band acknowledgment callbacks.
package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ashmarin/remindbot/internal/database"
)

const (
	// DefaultMaxAttempts is the plain delivery attempt budget before the
	// escalation prompt is sent.
	DefaultMaxAttempts = 3
	// DefaultRetryInterval is the delay between plain delivery attempts
	// and the delay applied when an escalation is declined.
	DefaultRetryInterval = 120 * time.Second
)

// Notifier sends reminder notifications to the user. Implementations are
// transport adapters; a send failure is transient and leaves the reminder
// recoverable.
type Notifier interface {
	// SendReminder delivers the reminder text with an acknowledgment control.
	SendReminder(ctx context.Context, chatID, reminderID int64, text string) error
	// SendEscalation delivers a "did you receive this?" prompt with
	// yes/no controls.
	SendEscalation(ctx context.Context, chatID, reminderID int64, text string) error
}

// Scheduler owns the delivery processes for all reminders. The persisted
// record is authoritative: every process re-reads it after waking, so
// callback mutations made while a process slept are honored, never
// overwritten.
type Scheduler struct {
	logger   *slog.Logger
	store    database.Store
	notifier Notifier
	registry *Registry
	clock    clockwork.Clock

	maxAttempts   int
	retryInterval time.Duration

	baseCtx context.Context
	stop    context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// Options tune the delivery state machine. Zero values select defaults.
type Options struct {
	MaxAttempts   int
	RetryInterval time.Duration
	Clock         clockwork.Clock
}

// New creates a Scheduler. Processes spawned by Schedule live until they
// reach a terminal state, are cancelled through a callback, or Shutdown
// is called.
func New(logger *slog.Logger, store database.Store, notifier Notifier, opts Options) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:        logger.With("component", "delivery_scheduler"),
		store:         store,
		notifier:      notifier,
		registry:      NewRegistry(),
		clock:         opts.Clock,
		maxAttempts:   opts.MaxAttempts,
		retryInterval: opts.RetryInterval,
		baseCtx:       ctx,
		stop:          cancel,
	}
}

// Registry exposes the process registry, mainly for tests and stats.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Schedule spawns the delivery process for a reminder ID. If a process is
// already registered for the ID it is cancelled and replaced first; two
// processes for the same ID never run concurrently. Scheduling after
// Shutdown is a no-op; the record stays recoverable for the next startup.
func (s *Scheduler) Schedule(id int64) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Debug("Scheduler stopped, ignoring schedule request", "reminder_id", id)
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	h := &Handle{cancel: cancel}
	s.registry.Replace(id, h)
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer s.registry.Release(id, h)
		s.deliver(ctx, id)
	}()

	s.logger.Debug("Delivery process scheduled", "reminder_id", id)
}

// deliver runs the wait/notify/retry cycle for one reminder until a
// terminal state or cancellation.
func (s *Scheduler) deliver(ctx context.Context, id int64) {
	log := s.logger.With("reminder_id", id)

	for {
		reminder, err := s.store.GetReminder(ctx, id)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read reminder before waiting", "error", err)
			return
		}
		if reminder == nil {
			log.DebugContext(ctx, "Reminder gone before waiting, terminating process")
			return
		}

		if !s.waitUntil(ctx, reminder.RunAt) {
			log.DebugContext(ctx, "Delivery process cancelled while waiting")
			return
		}

		// The record may have changed while this process slept; it is
		// re-read after every wake and treated as authoritative.
		reminder, err = s.store.GetReminder(ctx, id)
		if err != nil {
			log.ErrorContext(ctx, "Failed to re-read reminder after waking", "error", err)
			return
		}
		if reminder == nil {
			log.DebugContext(ctx, "Reminder deleted while process slept, terminating")
			return
		}

		switch {
		case reminder.Acknowledged:
			if err := s.store.DeleteReminder(ctx, id); err != nil {
				log.ErrorContext(ctx, "Failed to delete acknowledged reminder", "error", err)
			}
			return

		case reminder.AwaitingConfirm:
			// An escalation prompt is outstanding; the callback path owns
			// the record now.
			log.DebugContext(ctx, "Reminder awaiting escalation answer, terminating process")
			return

		case reminder.Attempts >= s.maxAttempts:
			if err := s.notifier.SendEscalation(ctx, reminder.ChatID, id, reminder.Text); err != nil {
				log.WarnContext(ctx, "Failed to send escalation prompt, reminder kept for recovery", "error", err)
				return
			}
			awaiting := true
			if err := s.store.UpdateReminder(ctx, id, database.ReminderUpdate{AwaitingConfirm: &awaiting}); err != nil {
				log.ErrorContext(ctx, "Failed to mark reminder as awaiting confirmation", "error", err)
			}
			log.InfoContext(ctx, "Escalation prompt sent", "attempts", reminder.Attempts)
			return

		default:
			if err := s.notifier.SendReminder(ctx, reminder.ChatID, id, reminder.Text); err != nil {
				log.WarnContext(ctx, "Failed to send reminder, kept for recovery", "error", err)
				return
			}

			attempts := reminder.Attempts + 1
			runAt := s.clock.Now().Add(s.retryInterval).Unix()
			if err := s.store.UpdateReminder(ctx, id, database.ReminderUpdate{RunAt: &runAt, Attempts: &attempts}); err != nil {
				log.ErrorContext(ctx, "Failed to record delivery attempt", "error", err)
				return
			}
			log.InfoContext(ctx, "Reminder delivered, waiting for acknowledgment",
				"attempt", attempts, "next_run_at", runAt)
		}
	}
}

// waitUntil suspends until runAt (epoch seconds) or cancellation.
// It reports false when the context was cancelled. Overdue instants
// return immediately so recovered reminders fire at once.
func (s *Scheduler) waitUntil(ctx context.Context, runAt int64) bool {
	delay := time.Unix(runAt, 0).Sub(s.clock.Now())
	if delay <= 0 {
		return ctx.Err() == nil
	}

	timer := s.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

// Ack handles the acknowledgment callback: the reminder was seen, so its
// process is cancelled and the record deleted. Acknowledging an already
// removed reminder is a no-op.
func (s *Scheduler) Ack(ctx context.Context, id int64) error {
	s.registry.Cancel(id)
	if err := s.store.DeleteReminder(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Reminder acknowledged", "reminder_id", id)
	return nil
}

// ConfirmYes handles a positive escalation answer; terminal like Ack.
func (s *Scheduler) ConfirmYes(ctx context.Context, id int64) error {
	s.registry.Cancel(id)
	if err := s.store.DeleteReminder(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Escalation confirmed, reminder closed", "reminder_id", id)
	return nil
}

// ConfirmNo handles a negative escalation answer: the retry budget is
// reset and the delivery cycle restarts after one retry interval.
func (s *Scheduler) ConfirmNo(ctx context.Context, id int64) error {
	reminder, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	if reminder == nil {
		s.logger.DebugContext(ctx, "Escalation declined for absent reminder, ignoring", "reminder_id", id)
		return nil
	}

	attempts := 0
	flag := false
	runAt := s.clock.Now().Add(s.retryInterval).Unix()
	upd := database.ReminderUpdate{
		RunAt:           &runAt,
		Attempts:        &attempts,
		Acknowledged:    &flag,
		AwaitingConfirm: &flag,
	}
	if err := s.store.UpdateReminder(ctx, id, upd); err != nil {
		return err
	}

	s.Schedule(id)
	s.logger.InfoContext(ctx, "Escalation declined, delivery cycle restarted",
		"reminder_id", id, "next_run_at", runAt)
	return nil
}

// Cancel handles an explicit delete request: the process is cancelled and
// the record deleted. Cancelling an absent reminder is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, id int64) error {
	s.registry.Cancel(id)
	if err := s.store.DeleteReminder(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Reminder cancelled", "reminder_id", id)
	return nil
}

// Recover re-derives delivery processes from all non-terminal persisted
// records. Overdue reminders fire immediately upon re-spawn.
func (s *Scheduler) Recover(ctx context.Context) error {
	ids, err := s.store.ListRecoverable(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		s.Schedule(id)
	}

	s.logger.InfoContext(ctx, "Recovered delivery processes", "count", len(ids))
	return nil
}

// Shutdown cancels all delivery processes and waits for them to exit.
// In-flight state is recoverable from storage on the next startup.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	s.logger.Info("Delivery scheduler stopped")
}
