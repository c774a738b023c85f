package state

import (
	"context"
	"sync"
)

// Memory is a process-local Store. State is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	chats map[int64]State
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{chats: make(map[int64]State)}
}

// Get returns the stored state or Idle.
func (m *Memory) Get(_ context.Context, chatID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.chats[chatID]; ok {
		return st, nil
	}
	return Idle, nil
}

// Set records the state; Idle removes the entry.
func (m *Memory) Set(_ context.Context, chatID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == Idle {
		delete(m.chats, chatID)
		return nil
	}
	m.chats[chatID] = st
	return nil
}

// Clear drops the entry for chatID.
func (m *Memory) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats, chatID)
	return nil
}

// Len reports how many chats hold a non-idle state.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chats)
}
