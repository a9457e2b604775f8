package tracker

import (
	"context"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

// ResetWeek archives the current week and clears its completions and
// infractions. The snapshot write is queued and not awaited.
func (t *Tracker) ResetWeek(ctx context.Context, manual bool) (model.WeeklySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.WeeklySnapshot{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resetWeek(t.now(), manual)
}

// ResetWeekIfDue performs the scheduled reset when the configured day and
// minute match now and no reset happened yet that day. The check and the
// reset share one critical section, so a manual reset that lands first
// suppresses the scheduled one.
func (t *Tracker) ResetWeekIfDue(ctx context.Context, now time.Time) (model.WeeklySnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.WeeklySnapshot{}, false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now = now.In(t.loc)
	if !state.ResetDue(now, t.state.Config, t.state.LastResetAt) {
		return model.WeeklySnapshot{}, false, nil
	}
	snap, err := t.resetWeek(now, false)
	if err != nil {
		return model.WeeklySnapshot{}, false, err
	}
	return snap, true, nil
}

// resetWeek runs with t.mu held.
func (t *Tracker) resetWeek(now time.Time, manual bool) (model.WeeklySnapshot, error) {
	snap := state.BuildSnapshot(t.state, now)
	if t.history != nil && !t.history.Put(snap) {
		t.recorder.PersistenceFailure("snapshots")
	}
	if _, err := t.dispatch(state.ResetWeek{Snapshot: snap, At: now, Manual: manual}); err != nil {
		return model.WeeklySnapshot{}, err
	}
	t.logger.Info("week reset", "week", snap.Week, "manual", manual, "total_points", snap.Stats.TotalPoints)
	return snap, nil
}
