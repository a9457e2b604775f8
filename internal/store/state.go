package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

// StateKey is the app_state row holding the live AppState blob.
const StateKey = "state"

type StateStore struct {
	db *sql.DB
}

func NewStateStore(db *sql.DB) *StateStore {
	return &StateStore{db: db}
}

// Get returns the value stored under key, or "" and false when absent.
func (s *StateStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, true, nil
}

func (s *StateStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set state %q: %w", key, err)
	}
	return nil
}

// LoadState returns the persisted live state, or nil if none was saved yet.
func (s *StateStore) LoadState() (*model.AppState, error) {
	raw, ok, err := s.Get(StateKey)
	if err != nil || !ok {
		return nil, err
	}
	var st model.AppState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

// SaveState writes st without its history, which lives in weekly_snapshots,
// and without the admin flag.
func (s *StateStore) SaveState(st model.AppState) error {
	st.History = nil
	st.IsAdminMode = false
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.Set(StateKey, string(raw))
}
