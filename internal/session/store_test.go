package session

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// createTestStore returns a store over an in-memory SQLite database.
func createTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// Every pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := newStore(db, nil)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	return store, db
}

func testSession(id string) Session {
	return Session{
		ID:            id,
		Date:          "Jan 2, 2026 3:04 PM",
		Title:         "Session " + id,
		Duration:      5,
		Transcription: "T",
	}
}

func TestLoadEmpty(t *testing.T) {
	store, _ := createTestStore(t)

	list, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty history, got %d", len(list))
	}
}

func TestAppendPrepends(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, testSession("1000")); err != nil {
		t.Fatalf("Append A: %v", err)
	}
	if err := store.Append(ctx, testSession("2000")); err != nil {
		t.Fatalf("Append B: %v", err)
	}

	list := store.Sessions()
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != "2000" || list[1].ID != "1000" {
		t.Errorf("expected [2000 1000], got [%s %s]", list[0].ID, list[1].ID)
	}

	// A fresh load sees the same order.
	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reloaded) != 2 || reloaded[0].ID != "2000" {
		t.Errorf("reloaded order wrong: %+v", reloaded)
	}
}

func TestSlotFormat(t *testing.T) {
	store, db := createTestStore(t)
	sess := testSession("1700000000000")
	sess.Summary = "S"
	sess.ActionItems = []string{"a"}
	if err := store.Append(context.Background(), sess); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var raw string
	if err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, SlotKey).Scan(&raw); err != nil {
		t.Fatalf("query slot: %v", err)
	}
	want := `[{"id":"1700000000000","date":"Jan 2, 2026 3:04 PM","title":"Session 1700000000000","duration":5,"transcription":"T","summary":"S","actionItems":["a"]}]`
	if raw != want {
		t.Errorf("slot = %s\nwant  %s", raw, want)
	}
}

func TestLoadMalformedIsEmpty(t *testing.T) {
	store, db := createTestStore(t)
	if _, err := db.Exec(`INSERT INTO kv (key, value, updatedAt) VALUES (?, ?, 0)`, SlotKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	list, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty history, got %d", len(list))
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()
	store.Append(ctx, testSession("1"))

	var asked string
	cleared, err := store.Clear(ctx, func(prompt string) bool {
		asked = prompt
		return false
	})
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared {
		t.Error("declined clear should not clear")
	}
	if asked != ClearPrompt {
		t.Errorf("prompt = %q", asked)
	}
	if len(store.Sessions()) != 1 {
		t.Error("history should be untouched")
	}

	cleared, err = store.Clear(ctx, func(string) bool { return true })
	if err != nil || !cleared {
		t.Fatalf("Clear confirmed: cleared=%v err=%v", cleared, err)
	}

	list, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(list))
	}
}

func TestGetAndCopies(t *testing.T) {
	store, _ := createTestStore(t)
	sess := testSession("42")
	sess.ActionItems = []string{"ship"}
	store.Append(context.Background(), sess)

	got, ok := store.Get("42")
	if !ok {
		t.Fatal("expected session 42")
	}
	got.ActionItems[0] = "mutated"

	again, _ := store.Get("42")
	if again.ActionItems[0] != "ship" {
		t.Error("Get must return a copy")
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("missing id should not be found")
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meetnotes.sqlite")
	ctx := context.Background()

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Append(ctx, testSession("1"))
	store.Close()

	store, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	list, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 1 || list[0].ID != "1" {
		t.Errorf("unexpected history: %+v", list)
	}
}

func TestAppendAfterReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meetnotes.sqlite")
	ctx := context.Background()

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, id := range []string{"1", "2"} {
		if err := store.Append(ctx, testSession(id)); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}
	store.Close()

	// A headless record opens the store and appends without loading.
	store, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	if err := store.Append(ctx, testSession("3")); err != nil {
		t.Fatalf("Append 3: %v", err)
	}

	list, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, " ") != "3 2 1" {
		t.Errorf("persisted ids = %v, want [3 2 1]", ids)
	}
}

func TestConfirmed(t *testing.T) {
	for answer, want := range map[string]bool{"y": true, "YES": true, " yes\n": true, "n": false, "": false, "nope": false} {
		if got := Confirmed(answer); got != want {
			t.Errorf("Confirmed(%q) = %v, want %v", answer, got, want)
		}
	}
}

func TestIDAndFormatting(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	s := Session{ID: NewID(ts), Duration: 65}
	if s.ID != "1700000000123" {
		t.Errorf("id = %s", s.ID)
	}
	at, ok := s.CompletedAt()
	if !ok || !at.Equal(ts) {
		t.Errorf("CompletedAt = %v %v", at, ok)
	}
	if s.DurationLabel() != "1:05" {
		t.Errorf("DurationLabel = %s", s.DurationLabel())
	}
	if FormatSeconds(3725) != "1:02:05" {
		t.Errorf("FormatSeconds(3725) = %s", FormatSeconds(3725))
	}
}
