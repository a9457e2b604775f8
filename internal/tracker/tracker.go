// Package tracker is the application facade: it validates requests,
// dispatches them through the reducer, persists the result and notifies
// subscribers.
package tracker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreweek/internal/auth"
	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
	"github.com/google/uuid"
)

const DefaultAppName = "familia-tareas"

// LiveStore persists the live state. Implemented by store.StateStore.
type LiveStore interface {
	LoadState() (*model.AppState, error)
	SaveState(st model.AppState) error
}

// HistoryWriter persists weekly snapshots. Implemented by history.Writer.
type HistoryWriter interface {
	Put(snap model.WeeklySnapshot) bool
	LoadAll() ([]model.WeeklySnapshot, error)
	Close()
}

// Subscriber receives the events of every applied transition. Notify runs
// while dispatch is serialized and must not block.
type Subscriber interface {
	Notify(events []state.Event, cfg model.Configuration)
}

// Recorder receives operational counters. Implemented by metrics.Metrics.
type Recorder interface {
	Transition(action string)
	StaleReference(action string)
	PersistenceFailure(target string)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string)         {}
func (nopRecorder) StaleReference(string)     {}
func (nopRecorder) PersistenceFailure(string) {}

type Deps struct {
	// Live and History may be nil; the tracker then keeps state in memory.
	Live    LiveStore
	History HistoryWriter

	Gate     *auth.Gate
	Recorder Recorder
	Logger   *slog.Logger

	// DefaultPINHash seeds the configuration of a fresh household.
	DefaultPINHash string
	AppName        string

	// Location is the household calendar: week labels, week bounds and
	// reset times are taken in it. Nil means time.Local.
	Location *time.Location

	Now   func() time.Time
	NewID func() string
}

type Tracker struct {
	mu          sync.Mutex
	state       model.AppState
	subscribers []Subscriber

	live        LiveStore
	history     HistoryWriter
	gate        *auth.Gate
	recorder    Recorder
	logger      *slog.Logger
	defaultHash string
	appName     string
	loc         *time.Location
	now         func() time.Time
	newID       func() string
}

func New(d Deps) *Tracker {
	t := &Tracker{
		live:        d.Live,
		history:     d.History,
		gate:        d.Gate,
		recorder:    d.Recorder,
		logger:      d.Logger,
		defaultHash: d.DefaultPINHash,
		appName:     d.AppName,
		now:         d.Now,
		newID:       d.NewID,
	}
	if t.gate == nil {
		t.gate = auth.NewGate(auth.DefaultMaxAttempts, auth.DefaultLockout)
	}
	if t.recorder == nil {
		t.recorder = nopRecorder{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With("component", "tracker")
	if t.appName == "" {
		t.appName = DefaultAppName
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.loc = d.Location
	if t.loc == nil {
		t.loc = time.Local
	}
	clock := t.now
	t.now = func() time.Time { return clock().In(t.loc) }
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	t.state = state.NewState(t.defaultHash, t.now())
	return t
}

// Subscribe registers s for all subsequent transitions.
func (t *Tracker) Subscribe(s Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, s)
}

// Open loads the live state and the snapshot history once. Storage errors
// are logged and the tracker continues with what it has.
func (t *Tracker) Open() {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state
	if t.live != nil {
		saved, err := t.live.LoadState()
		switch {
		case err != nil:
			t.logger.Error("load live state", "error", err)
			t.recorder.PersistenceFailure("state")
		case saved != nil:
			st = *saved
		default:
			t.logger.Info("no saved state, starting fresh")
		}
	}
	if st.Config.PINHash == "" {
		st.Config.PINHash = t.defaultHash
	}

	var snaps []model.WeeklySnapshot
	if t.history != nil {
		var err error
		snaps, err = t.history.LoadAll()
		if err != nil {
			t.logger.Error("load history", "error", err)
			t.recorder.PersistenceFailure("snapshots")
		}
	}

	if _, err := t.dispatch(state.LoadState{State: st, History: snaps}); err != nil {
		t.logger.Error("apply loaded state", "error", err)
		return
	}
	t.logger.Info("state loaded",
		"members", len(t.state.Members),
		"tasks", len(t.state.Tasks),
		"history", len(t.state.History),
	)
}

// Close flushes pending snapshot writes.
func (t *Tracker) Close() {
	if t.history != nil {
		t.history.Close()
	}
}

// State returns a copy of the current state.
func (t *Tracker) State() model.AppState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return state.Clone(t.state)
}

func (t *Tracker) IsAdmin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.IsAdminMode
}

// ScheduleInfo returns what the reset scheduler needs to decide.
func (t *Tracker) ScheduleInfo() (model.Configuration, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Config, t.state.LastResetAt
}

// dispatch applies a. Callers hold t.mu.
func (t *Tracker) dispatch(a state.Action) ([]state.Event, error) {
	next, events, err := state.Reduce(t.state, a)
	if err != nil {
		if errors.Is(err, state.ErrStaleReference) {
			t.logger.Warn("stale reference", "action", a.Name(), "error", err)
			t.recorder.StaleReference(a.Name())
		}
		return nil, err
	}
	t.recorder.Transition(a.Name())
	if len(events) == 0 {
		return nil, nil
	}

	t.state = next
	t.persist()
	for _, s := range t.subscribers {
		s.Notify(events, t.state.Config)
	}
	return events, nil
}

func (t *Tracker) persist() {
	if t.live == nil {
		return
	}
	if err := t.live.SaveState(t.state); err != nil {
		t.logger.Error("save live state", "error", err)
		t.recorder.PersistenceFailure("state")
	}
}
