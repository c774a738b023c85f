package state

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// openTestDB connects to the database named by WEATHERBOT_TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("WEATHERBOT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WEATHERBOT_TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.MustExec(`CREATE TABLE IF NOT EXISTS chat_states (
		chat_id BIGINT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return db
}

func TestPostgresRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewPostgres(db)
	const chatID int64 = -990001
	t.Cleanup(func() { _ = store.Clear(ctx, chatID) })

	if st, err := store.Get(ctx, chatID); err != nil || st != Idle {
		t.Fatalf("initial Get = %q, %v", st, err)
	}
	if err := store.Set(ctx, chatID, AwaitingCity); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Upsert path.
	if err := store.Set(ctx, chatID, AwaitingCity); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	if st, err := store.Get(ctx, chatID); err != nil || st != AwaitingCity {
		t.Fatalf("Get after Set = %q, %v", st, err)
	}
	if err := store.Set(ctx, chatID, Idle); err != nil {
		t.Fatalf("Set Idle: %v", err)
	}
	var n int
	if err := db.GetContext(ctx, &n, `SELECT count(*) FROM chat_states WHERE chat_id = $1`, chatID); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected row removed, have %d", n)
	}
}
