package database

import "time"

// Reminder is the sole persisted entity: one row per pending reminder.
// RunAt is an absolute instant in epoch seconds; all timezone handling
// happens in the parser before a reminder is created.
type Reminder struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID int64  `db:"chat_id"`
	Text   string `db:"text"`
	RunAt  int64  `db:"run_at"`

	Attempts        int  `db:"attempts"`
	Acknowledged    bool `db:"acknowledged"`
	AwaitingConfirm bool `db:"awaiting_confirm"`
}

// ReminderUpdate describes a partial update of a reminder's mutable
// delivery fields. Nil fields are left untouched.
type ReminderUpdate struct {
	RunAt           *int64
	Attempts        *int
	Acknowledged    *bool
	AwaitingConfirm *bool
}
