package state

import (
	"context"
	"strings"
)

// State identifies a conversation step for a chat.
type State string

const (
	// Idle means no conversation is in progress.
	Idle State = "idle"
	// AwaitingCity means a city selection keyboard was shown and a reply is expected.
	AwaitingCity State = "awaiting_city"
)

// Parse maps a stored value onto a known State. Unknown values report false.
func Parse(raw string) (State, bool) {
	switch State(strings.TrimSpace(raw)) {
	case Idle, "":
		return Idle, true
	case AwaitingCity:
		return AwaitingCity, true
	}
	return Idle, false
}

// Store holds conversation state keyed by chat identifier.
type Store interface {
	// Get returns the state for chatID, or Idle when none is stored.
	Get(ctx context.Context, chatID int64) (State, error)
	// Set records st for chatID. Setting Idle is equivalent to Clear.
	Set(ctx context.Context, chatID int64, st State) error
	// Clear removes any state for chatID.
	Clear(ctx context.Context, chatID int64) error
}
