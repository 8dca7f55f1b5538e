package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// State is the sqlite key-value store the notification engine persists its
// delivered-state snapshot and history into. A missing key reads as
// (nil, nil).
type State struct {
	db *sql.DB
}

func NewState(db *sql.DB) *State {
	return &State{db: db}
}

func (s *State) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM app_state WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, nil
}

func (s *State) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

// MemoryState is an in-memory State used in tests and as the fail-open
// fallback when no database is available.
type MemoryState struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryState() *MemoryState {
	return &MemoryState{m: make(map[string][]byte)}
}

func (s *MemoryState) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryState) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.m[key] = v
	return nil
}
