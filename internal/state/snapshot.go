package state

import (
	"slices"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

// BuildSnapshot captures the week containing now. The snapshot id is the
// ISO week label, so two resets inside one week produce the same id.
func BuildSnapshot(s model.AppState, now time.Time) model.WeeklySnapshot {
	start, end := WeekBounds(now)
	label := WeekLabel(now)

	snap := model.WeeklySnapshot{
		ID:             label,
		Week:           label,
		StartAt:        start,
		EndAt:          end,
		MemberPoints:   make(map[string]int, len(s.Members)),
		CompletedTasks: make(map[string][]string, len(s.Members)),
		ClaimedRewards: make(map[string][]string, len(s.Members)),
		Infractions:    slices.Clone(s.Infractions),
	}
	if snap.Infractions == nil {
		snap.Infractions = []model.Infraction{}
	}

	best := -1
	for _, m := range s.Members {
		snap.MemberPoints[m.ID] = m.Points
		snap.CompletedTasks[m.ID] = cloneIDs(m.CompletedTaskIDs)
		snap.ClaimedRewards[m.ID] = cloneIDs(m.ClaimedRewardIDs)

		snap.Stats.TotalPoints += m.Points
		snap.Stats.TotalTasks += len(m.CompletedTaskIDs)
		snap.Stats.TotalRewards += len(m.ClaimedRewardIDs)
		// strictly greater keeps the earliest member on ties
		if len(m.CompletedTaskIDs) > best {
			best = len(m.CompletedTaskIDs)
			snap.Stats.MostActiveMemberID = m.ID
		}
	}
	return snap
}
