package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashmarin/remindbot/internal/database"

	_ "modernc.org/sqlite"
)

// newTestStore opens a migrated store on a throwaway SQLite file.
func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "reminders.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func TestStore_CreateAndGetReminder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	runAt := time.Now().Add(time.Hour).Unix()
	id, err := store.CreateReminder(ctx, 42, "купить молоко", runAt)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if id == 0 {
		t.Fatal("CreateReminder returned zero ID")
	}

	rec, err := store.GetReminder(ctx, id)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if rec == nil {
		t.Fatal("GetReminder returned nil for existing reminder")
	}
	if rec.ChatID != 42 || rec.Text != "купить молоко" || rec.RunAt != runAt {
		t.Errorf("unexpected reminder: %+v", rec)
	}
	if rec.Attempts != 0 || rec.Acknowledged || rec.AwaitingConfirm {
		t.Errorf("new reminder has non-initial delivery state: %+v", rec)
	}
}

func TestStore_CreateReminderValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.CreateReminder(ctx, 0, "текст", 0); err == nil {
		t.Error("CreateReminder accepted zero chat_id")
	}
	if _, err := store.CreateReminder(ctx, 42, "", 0); err == nil {
		t.Error("CreateReminder accepted empty text")
	}
}

func TestStore_GetReminderNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	rec, err := store.GetReminder(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if rec != nil {
		t.Errorf("GetReminder for absent ID = %+v, want nil", rec)
	}
}

func TestStore_UpdateReminderPartial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateReminder(ctx, 42, "позвонить", time.Now().Unix())
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	attempts := 2
	runAt := time.Now().Add(2 * time.Minute).Unix()
	if err := store.UpdateReminder(ctx, id, database.ReminderUpdate{RunAt: &runAt, Attempts: &attempts}); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}

	rec, err := store.GetReminder(ctx, id)
	if err != nil || rec == nil {
		t.Fatalf("GetReminder: rec=%v err=%v", rec, err)
	}
	if rec.Attempts != 2 || rec.RunAt != runAt {
		t.Errorf("partial update not applied: %+v", rec)
	}
	if rec.Acknowledged || rec.AwaitingConfirm {
		t.Errorf("untouched fields changed: %+v", rec)
	}

	awaiting := true
	if err := store.UpdateReminder(ctx, id, database.ReminderUpdate{AwaitingConfirm: &awaiting}); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	rec, err = store.GetReminder(ctx, id)
	if err != nil || rec == nil {
		t.Fatalf("GetReminder: rec=%v err=%v", rec, err)
	}
	if !rec.AwaitingConfirm || rec.Attempts != 2 {
		t.Errorf("flag update clobbered other fields: %+v", rec)
	}

	// Empty update and absent target are both no-ops.
	if err := store.UpdateReminder(ctx, id, database.ReminderUpdate{}); err != nil {
		t.Errorf("empty update returned error: %v", err)
	}
	if err := store.UpdateReminder(ctx, 9999, database.ReminderUpdate{Attempts: &attempts}); err != nil {
		t.Errorf("update of absent reminder returned error: %v", err)
	}
}

func TestStore_DeleteReminderIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.CreateReminder(ctx, 42, "встреча", time.Now().Unix())
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	if err := store.DeleteReminder(ctx, id); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
	rec, err := store.GetReminder(ctx, id)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if rec != nil {
		t.Errorf("reminder still present after delete: %+v", rec)
	}

	if err := store.DeleteReminder(ctx, id); err != nil {
		t.Errorf("repeated delete returned error: %v", err)
	}
}

func TestStore_ListPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().Unix()
	later, err := store.CreateReminder(ctx, 42, "позже", now+3600)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	sooner, err := store.CreateReminder(ctx, 42, "раньше", now+60)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if _, err := store.CreateReminder(ctx, 777, "чужой чат", now+60); err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	// Mid-retry reminders are overdue but still pending; they must stay
	// visible until acknowledged.
	overdue, err := store.CreateReminder(ctx, 42, "просроченное", now-3600)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	acked, err := store.CreateReminder(ctx, 42, "подтверждённое", now+120)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	flag := true
	if err := store.UpdateReminder(ctx, acked, database.ReminderUpdate{Acknowledged: &flag}); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}

	got, err := store.ListPending(ctx, 42, now, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPending returned %d reminders, want 3: %+v", len(got), got)
	}
	if got[0].ID != overdue || got[1].ID != sooner || got[2].ID != later {
		t.Errorf("ListPending order = [%d %d %d], want [%d %d %d]",
			got[0].ID, got[1].ID, got[2].ID, overdue, sooner, later)
	}

	limited, err := store.ListPending(ctx, 42, now, 1)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != overdue {
		t.Errorf("ListPending with limit 1 = %+v, want only ID %d", limited, overdue)
	}
}

func TestStore_ListRecoverable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().Unix()
	plain, err := store.CreateReminder(ctx, 42, "обычное", now)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	escalated, err := store.CreateReminder(ctx, 42, "в эскалации", now)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	flag := true
	if err := store.UpdateReminder(ctx, escalated, database.ReminderUpdate{AwaitingConfirm: &flag}); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}

	acked, err := store.CreateReminder(ctx, 42, "подтверждённое", now)
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if err := store.UpdateReminder(ctx, acked, database.ReminderUpdate{Acknowledged: &flag}); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}

	ids, err := store.ListRecoverable(ctx)
	if err != nil {
		t.Fatalf("ListRecoverable: %v", err)
	}
	if len(ids) != 1 || ids[0] != plain {
		t.Errorf("ListRecoverable = %v, want [%d]", ids, plain)
	}
}

func TestStore_RunMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	if err := store.RunMaintenance(context.Background()); err != nil {
		t.Errorf("RunMaintenance: %v", err)
	}
}
