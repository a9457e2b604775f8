package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

// sortable UTC layout so start_at orders lexically
const timeLayout = "2006-01-02T15:04:05.000Z"

type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Put inserts the snapshot, overwriting any snapshot with the same id.
func (s *SnapshotStore) Put(snap model.WeeklySnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO weekly_snapshots (id, week, start_at, end_at, payload) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET week = excluded.week, start_at = excluded.start_at,
		   end_at = excluded.end_at, payload = excluded.payload`,
		snap.ID, snap.Week, formatTime(snap.StartAt), formatTime(snap.EndAt), string(payload),
	)
	if err != nil {
		return fmt.Errorf("put snapshot %q: %w", snap.ID, err)
	}
	return nil
}

func (s *SnapshotStore) Get(id string) (*model.WeeklySnapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(`SELECT payload FROM weekly_snapshots WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %q: %w", id, err)
	}
	return snap, nil
}

// List returns every snapshot, oldest first.
func (s *SnapshotStore) List() ([]model.WeeklySnapshot, error) {
	rows, err := s.db.Query(`SELECT payload FROM weekly_snapshots ORDER BY start_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.WeeklySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

func scanSnapshot(scanner interface{ Scan(...any) error }) (*model.WeeklySnapshot, error) {
	var payload string
	if err := scanner.Scan(&payload); err != nil {
		return nil, err
	}
	var snap model.WeeklySnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
