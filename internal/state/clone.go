package state

import (
	"maps"
	"slices"

	"github.com/dukerupert/choreweek/internal/model"
)

// Clone returns a deep copy of s. Snapshots in History are immutable and
// are shared with the original.
func Clone(s model.AppState) model.AppState {
	out := s
	out.Members = make([]model.Member, len(s.Members))
	for i, m := range s.Members {
		out.Members[i] = cloneMember(m)
	}
	out.Tasks = make([]model.Task, len(s.Tasks))
	for i, t := range s.Tasks {
		out.Tasks[i] = cloneTask(t)
	}
	out.Rewards = make([]model.Reward, len(s.Rewards))
	for i, r := range s.Rewards {
		r.Claims = slices.Clone(r.Claims)
		if r.Claims == nil {
			r.Claims = []model.ClaimRecord{}
		}
		out.Rewards[i] = r
	}
	out.InfractionTypes = slices.Clone(s.InfractionTypes)
	if out.InfractionTypes == nil {
		out.InfractionTypes = []model.InfractionType{}
	}
	out.Infractions = slices.Clone(s.Infractions)
	if out.Infractions == nil {
		out.Infractions = []model.Infraction{}
	}
	out.History = slices.Clone(s.History)
	return out
}

func cloneMember(m model.Member) model.Member {
	m.CompletedTaskIDs = cloneIDs(m.CompletedTaskIDs)
	m.ClaimedRewardIDs = cloneIDs(m.ClaimedRewardIDs)
	m.InfractionIDs = cloneIDs(m.InfractionIDs)
	return m
}

func cloneTask(t model.Task) model.Task {
	t.AssignedMemberIDs = cloneIDs(t.AssignedMemberIDs)
	t.CompletedBy = maps.Clone(t.CompletedBy)
	if t.CompletedBy == nil {
		t.CompletedBy = map[string]bool{}
	}
	return t
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
