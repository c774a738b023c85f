package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/weatherbot/core/logger"
)

// Postgres persists conversation state in the chat_states table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection. The chat_states table must already exist.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type chatStateRow struct {
	ChatID int64  `db:"chat_id"`
	State  string `db:"state"`
}

// Get returns the stored state or Idle when the chat has no row.
func (p *Postgres) Get(ctx context.Context, chatID int64) (State, error) {
	var row chatStateRow
	err := p.db.GetContext(ctx, &row, `SELECT chat_id, state FROM chat_states WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return Idle, nil
	}
	if err != nil {
		return Idle, fmt.Errorf("state: load chat %d: %w", chatID, err)
	}
	st, ok := Parse(row.State)
	if !ok {
		logger.LogEvent(ctx, logger.STATE, slog.LevelWarn, "state.unknown",
			slog.Int64("chat_id", chatID),
			slog.String("state", row.State),
		)
	}
	return st, nil
}

// Set upserts the row for chatID; Idle deletes it.
func (p *Postgres) Set(ctx context.Context, chatID int64, st State) error {
	if st == Idle {
		return p.Clear(ctx, chatID)
	}
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO chat_states (chat_id, state, updated_at)
		VALUES (:chat_id, :state, now())
		ON CONFLICT (chat_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		chatStateRow{ChatID: chatID, State: string(st)},
	)
	if err != nil {
		return fmt.Errorf("state: save chat %d: %w", chatID, err)
	}
	return nil
}

// Clear deletes the row for chatID if present.
func (p *Postgres) Clear(ctx context.Context, chatID int64) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM chat_states WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("state: clear chat %d: %w", chatID, err)
	}
	return nil
}
